package entity

// DataSourceMode controls whether the aggregation layer may substitute
// synthesized data when no authoritative chain is reachable.
type DataSourceMode string

const (
	// ModeLive never fabricates data: unreachable sources yield empty results.
	ModeLive DataSourceMode = "live"
	// ModeFallback degrades to deterministic placeholder data so the UI can
	// always render something plausible.
	ModeFallback DataSourceMode = "fallback"
)

// WalletState is the immutable snapshot handed to session listeners.
// Invariant: IsConnected implies Address and ChainID are set.
type WalletState struct {
	IsConnected   bool   `json:"isConnected"`
	Address       string `json:"address,omitempty"`
	ChainID       uint64 `json:"chainId,omitempty"`
	Network       string `json:"network,omitempty"`
	NativeBalance string `json:"nativeBalance"` // decimal string in the chain's native unit
	HasSigner     bool   `json:"hasSigner"`
}
