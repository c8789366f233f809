package port

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"

	"rwa_dashboard/internal/domain/entity"
)

// Backend is what a bound facet contract needs from its connection: the full
// go-ethereum contract backend plus the ability to report its chain id, which
// the accessor uses to resolve the diamond address. *ethclient.Client
// satisfies this directly.
type Backend interface {
	bind.ContractBackend
	ChainID(ctx context.Context) (*big.Int, error)
}

// FacetAccessor resolves a logical facet name against the network the given
// backend is connected to and returns a callable contract handle bound to the
// diamond address. Fails with *entity.ConfigurationError when the chain has
// no registered diamond or the facet ABI is unknown.
type FacetAccessor interface {
	FacetContract(ctx context.Context, facet entity.Facet, backend Backend) (*bind.BoundContract, error)
}
