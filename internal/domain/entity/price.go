package entity

import "time"

// PriceQuote is an immutable snapshot of a fiat-denominated price for one
// symbol. Later quotes supersede earlier ones; a quote is never mutated.
type PriceQuote struct {
	Symbol            string    `json:"symbol"`
	PriceUSD          float64   `json:"priceUsd"`
	Change24hAbsolute float64   `json:"change24hAbsolute"`
	Change24hPercent  float64   `json:"change24hPercent"`
	MarketCapUSD      float64   `json:"marketCapUsd,omitempty"`
	Volume24hUSD      float64   `json:"volume24hUsd,omitempty"`
	FetchedAt         time.Time `json:"fetchedAt"`
	Source            string    `json:"source"` // "upstream", "stale-cache" or "static"
}

// PricePoint is one sample of a historical price series.
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	PriceUSD  float64   `json:"priceUsd"`
}

// MarketOverview aggregates global market figures from the price API.
type MarketOverview struct {
	TotalMarketCapUSD    float64   `json:"totalMarketCapUsd"`
	TotalVolume24hUSD    float64   `json:"totalVolume24hUsd"`
	BTCDominancePercent  float64   `json:"btcDominancePercent"`
	MarketCapChange24h   float64   `json:"marketCapChange24hPercent"`
	ActiveCryptocurrency int       `json:"activeCryptocurrencies"`
	FetchedAt            time.Time `json:"fetchedAt"`
}

// TrendingCoin is one entry of the price API trending list.
type TrendingCoin struct {
	ID            string `json:"id"`
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	MarketCapRank int    `json:"marketCapRank"`
}
