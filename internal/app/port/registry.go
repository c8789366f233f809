package port

import "rwa_dashboard/internal/domain/entity"

// NetworkRegistry is a pure lookup table over the supported networks.
// Lookups return nil on miss and never fail.
type NetworkRegistry interface {
	ByChainID(chainID uint64) *entity.NetworkConfig
	ByName(nameOrIdentifier string) *entity.NetworkConfig
	IsTestnet(chainID uint64) bool
	All() []entity.NetworkConfig

	// PrimaryChainID is the one chain with a deployed diamond; 0 when none.
	PrimaryChainID() uint64
}
