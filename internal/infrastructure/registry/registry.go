package registry

import (
	"fmt"
	"os"
	"strings"

	"rwa_dashboard/internal/app/port"
	"rwa_dashboard/internal/domain/entity"
)

// Predefined network configurations. Pharos devnet is the one chain with the
// RWA diamond deployed; every mainnet entry is price-only until a diamond
// address is supplied via environment override.
var (
	Pharos = entity.NetworkConfig{
		ChainID:          50002,
		Name:             "Pharos Devnet",
		Identifier:       "pharos",
		NativeSymbol:     "PTT",
		Decimals:         18,
		RPCURL:           "https://devnet.dplabs-internal.com",
		BlockExplorerURL: "https://pharosscan.xyz",
		IsTestnet:        true,
		DiamondAddress:   "0x9A8f7C26E2E1b0d7486F4dA9D1d4A1e6C4b9D301",
	}
	Ethereum = entity.NetworkConfig{
		ChainID:          1,
		Name:             "Ethereum Mainnet",
		Identifier:       "ethereum",
		NativeSymbol:     "ETH",
		Decimals:         18,
		RPCURL:           "https://ethereum-rpc.publicnode.com",
		BlockExplorerURL: "https://etherscan.io",
	}
	Polygon = entity.NetworkConfig{
		ChainID:          137,
		Name:             "Polygon PoS",
		Identifier:       "polygon",
		NativeSymbol:     "MATIC",
		Decimals:         18,
		RPCURL:           "https://polygon-rpc.com",
		BlockExplorerURL: "https://polygonscan.com",
	}
	BSC = entity.NetworkConfig{
		ChainID:          56,
		Name:             "BNB Smart Chain",
		Identifier:       "bsc",
		NativeSymbol:     "BNB",
		Decimals:         18,
		RPCURL:           "https://bsc-dataseed.binance.org",
		BlockExplorerURL: "https://bscscan.com",
	}
	Arbitrum = entity.NetworkConfig{
		ChainID:          42161,
		Name:             "Arbitrum One",
		Identifier:       "arbitrum",
		NativeSymbol:     "ETH",
		Decimals:         18,
		RPCURL:           "https://arb1.arbitrum.io/rpc",
		BlockExplorerURL: "https://arbiscan.io",
	}
	Optimism = entity.NetworkConfig{
		ChainID:          10,
		Name:             "OP Mainnet",
		Identifier:       "optimism",
		NativeSymbol:     "ETH",
		Decimals:         18,
		RPCURL:           "https://mainnet.optimism.io",
		BlockExplorerURL: "https://optimistic.etherscan.io",
	}
	Base = entity.NetworkConfig{
		ChainID:          8453,
		Name:             "Base Mainnet",
		Identifier:       "base",
		NativeSymbol:     "ETH",
		Decimals:         18,
		RPCURL:           "https://mainnet.base.org",
		BlockExplorerURL: "https://basescan.org",
	}
	Sepolia = entity.NetworkConfig{
		ChainID:          11155111,
		Name:             "Sepolia",
		Identifier:       "sepolia",
		NativeSymbol:     "ETH",
		Decimals:         18,
		RPCURL:           "https://ethereum-sepolia-rpc.publicnode.com",
		BlockExplorerURL: "https://sepolia.etherscan.io",
		IsTestnet:        true,
	}
)

// Registry implements port.NetworkRegistry over an immutable in-memory table.
type Registry struct {
	byChainID map[uint64]entity.NetworkConfig
	ordered   []entity.NetworkConfig
	primary   uint64
	logger    port.Logger
}

// New builds the registry from the built-in table plus per-network
// environment overrides (<NAME>_RPC_URL, <NAME>_DIAMOND_ADDRESS), applied
// once. The primary chain is the first entry carrying a diamond address.
func New(log port.Logger) *Registry {
	configs := []entity.NetworkConfig{Pharos, Ethereum, Polygon, BSC, Arbitrum, Optimism, Base, Sepolia}

	r := &Registry{
		byChainID: make(map[uint64]entity.NetworkConfig, len(configs)),
		ordered:   make([]entity.NetworkConfig, 0, len(configs)),
		logger:    log,
	}

	for _, cfg := range configs {
		applyEnvOverrides(&cfg)
		if _, dup := r.byChainID[cfg.ChainID]; dup {
			log.Warn("Duplicate chain id in network table, skipping", "chainId", cfg.ChainID, "network", cfg.Name)
			continue
		}
		r.byChainID[cfg.ChainID] = cfg
		r.ordered = append(r.ordered, cfg)
		if r.primary == 0 && cfg.HasContracts() {
			r.primary = cfg.ChainID
		}
	}

	log.Info("Network registry initialized", "networks", len(r.ordered), "primaryChainId", r.primary)
	return r
}

func applyEnvOverrides(cfg *entity.NetworkConfig) {
	prefix := strings.ToUpper(cfg.Identifier)
	if v := os.Getenv(prefix + "_RPC_URL"); v != "" {
		cfg.RPCURL = v
	}
	if v := os.Getenv(prefix + "_DIAMOND_ADDRESS"); v != "" {
		cfg.DiamondAddress = v
	}
}

// ByChainID returns the configuration for the chain id, nil when unknown.
func (r *Registry) ByChainID(chainID uint64) *entity.NetworkConfig {
	if cfg, ok := r.byChainID[chainID]; ok {
		out := cfg
		return &out
	}
	return nil
}

// ByName returns the configuration matching the name or identifier, nil when
// unknown. Matching is case-insensitive.
func (r *Registry) ByName(nameOrIdentifier string) *entity.NetworkConfig {
	needle := strings.ToLower(nameOrIdentifier)
	for _, cfg := range r.ordered {
		if strings.ToLower(cfg.Identifier) == needle || strings.ToLower(cfg.Name) == needle {
			out := cfg
			return &out
		}
	}
	return nil
}

// IsTestnet reports whether the chain is a testnet. Unknown chains are false.
func (r *Registry) IsTestnet(chainID uint64) bool {
	if cfg, ok := r.byChainID[chainID]; ok {
		return cfg.IsTestnet
	}
	return false
}

// All returns a copy of every registered network in table order.
func (r *Registry) All() []entity.NetworkConfig {
	out := make([]entity.NetworkConfig, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// PrimaryChainID returns the chain carrying the diamond deployment, 0 if none.
func (r *Registry) PrimaryChainID() uint64 {
	return r.primary
}

// String describes the registry for startup logging.
func (r *Registry) String() string {
	return fmt.Sprintf("Registry(networks=%d, primary=%d)", len(r.ordered), r.primary)
}
