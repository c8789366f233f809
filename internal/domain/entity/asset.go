package entity

import "time"

// AssetKind classifies a portfolio position.
type AssetKind string

const (
	AssetCrypto AssetKind = "crypto"
	AssetToken  AssetKind = "token"
	AssetNFT    AssetKind = "nft"
	AssetRWA    AssetKind = "rwa"
)

// AssetPosition is a single holding as seen during one aggregation pass.
// Positions are produced fresh every pass and are not persisted by this layer.
type AssetPosition struct {
	ID              string    `json:"id"`
	DisplayName     string    `json:"displayName"`
	Kind            AssetKind `json:"kind"`
	Symbol          string    `json:"symbol"`
	Balance         string    `json:"balance"` // decimal string, already scaled
	ValueUSD        float64   `json:"valueUsd"`
	UnitPriceUSD    float64   `json:"unitPriceUsd"`
	PriceChange24h  float64   `json:"priceChange24hPercent"`
	Network         string    `json:"network"`
	ChainID         uint64    `json:"chainId"`
	ContractAddress string    `json:"contractAddress,omitempty"`
	TokenID         string    `json:"tokenId,omitempty"`
	Estimated       bool      `json:"estimated"` // true when the balance is a synthesized placeholder
}

// NetworkBreakdown sums the positions read from one network.
type NetworkBreakdown struct {
	Network       string  `json:"network"`
	ChainID       uint64  `json:"chainId"`
	TotalValueUSD float64 `json:"totalValueUsd"`
	PositionCount int     `json:"positionCount"`
}

// PortfolioSnapshot is the unified cross-chain view handed to UI callers.
type PortfolioSnapshot struct {
	WalletAddress     string             `json:"walletAddress"`
	TotalValueUSD     float64            `json:"totalValueUsd"`
	Change24hUSD      float64            `json:"change24hUsd"`
	Positions         []AssetPosition    `json:"positions"`
	Networks          []NetworkBreakdown `json:"networks"`
	GeneratedAt       time.Time          `json:"generatedAt"`
	ContainsSynthetic bool               `json:"containsSynthetic"`
}

// GasSnapshot is the sampled gas price of the primary chain.
type GasSnapshot struct {
	ChainID      uint64    `json:"chainId"`
	GasPriceWei  string    `json:"gasPriceWei"`
	GasPriceGwei float64   `json:"gasPriceGwei"`
	FetchedAt    time.Time `json:"fetchedAt"`
}
