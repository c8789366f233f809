package diamond

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"rwa_dashboard/internal/app/port"
	"rwa_dashboard/internal/domain/entity"
)

// Accessor implements port.FacetAccessor. It owns no connections itself; the
// caller supplies the backend (read-only provider or signing session) and the
// accessor only resolves where the facet lives.
type Accessor struct {
	registry port.NetworkRegistry
	logger   port.Logger
}

// NewAccessor creates a facet accessor over the given registry.
func NewAccessor(registry port.NetworkRegistry, log port.Logger) *Accessor {
	return &Accessor{registry: registry, logger: log}
}

// FacetContract resolves the facet against the chain the backend is connected
// to and returns a bound contract handle. The handle is never partially
// constructed: every failure path returns before binding.
func (a *Accessor) FacetContract(ctx context.Context, facet entity.Facet, backend port.Backend) (*bind.BoundContract, error) {
	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve chain id from backend: %w", err)
	}

	network := a.registry.ByChainID(chainID.Uint64())
	if network == nil {
		return nil, &entity.ConfigurationError{
			ChainID: chainID.Uint64(),
			Facet:   facet,
			Reason:  "chain is not registered",
		}
	}
	if !network.HasContracts() {
		return nil, &entity.ConfigurationError{
			ChainID: chainID.Uint64(),
			Facet:   facet,
			Reason:  fmt.Sprintf("no diamond address registered for %s", network.Name),
		}
	}

	parsed, err := facetABI(facet)
	if err != nil {
		return nil, &entity.ConfigurationError{
			ChainID: chainID.Uint64(),
			Facet:   facet,
			Reason:  err.Error(),
		}
	}

	a.logger.Debug("Resolved facet contract",
		"facet", string(facet), "network", network.Name, "address", network.DiamondAddress)

	address := common.HexToAddress(network.DiamondAddress)
	return bind.NewBoundContract(address, parsed, backend, backend, backend), nil
}
