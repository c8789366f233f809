package diamond

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rwa_dashboard/internal/app/port"
	"rwa_dashboard/internal/domain/entity"
	"rwa_dashboard/internal/pkg/logger"
)

// fakeBackend reports a fixed chain id; the embedded interface covers the
// bind.ContractBackend surface, which accessor resolution never touches.
type fakeBackend struct {
	bind.ContractBackend
	chain    uint64
	chainErr error
}

func (b *fakeBackend) ChainID(context.Context) (*big.Int, error) {
	if b.chainErr != nil {
		return nil, b.chainErr
	}
	return new(big.Int).SetUint64(b.chain), nil
}

type fakeRegistry struct {
	networks map[uint64]entity.NetworkConfig
}

func (r *fakeRegistry) ByChainID(chainID uint64) *entity.NetworkConfig {
	if cfg, ok := r.networks[chainID]; ok {
		copied := cfg
		return &copied
	}
	return nil
}

func (r *fakeRegistry) ByName(string) *entity.NetworkConfig { return nil }
func (r *fakeRegistry) IsTestnet(uint64) bool               { return false }
func (r *fakeRegistry) All() []entity.NetworkConfig         { return nil }
func (r *fakeRegistry) PrimaryChainID() uint64              { return 50002 }

func newTestAccessor() *Accessor {
	return NewAccessor(&fakeRegistry{networks: map[uint64]entity.NetworkConfig{
		50002: {
			ChainID:        50002,
			Name:           "Pharos Devnet",
			Identifier:     "pharos",
			DiamondAddress: "0x9A8f7C26E2E1b0d7486F4dA9D1d4A1e6C4b9D301",
		},
		1: {
			ChainID:    1,
			Name:       "Ethereum",
			Identifier: "ethereum",
			// no diamond deployed here
		},
	}}, logger.NewSlogAdapter())
}

func TestFacetContract(t *testing.T) {
	ctx := context.Background()

	t.Run("binds every known facet on the primary chain", func(t *testing.T) {
		accessor := newTestAccessor()
		backend := &fakeBackend{chain: 50002}

		for _, facet := range []entity.Facet{
			entity.FacetAuthUser,
			entity.FacetView,
			entity.FacetAutomationLoan,
			entity.FacetCrossChain,
			entity.FacetDiamondLoupe,
		} {
			contract, err := accessor.FacetContract(ctx, facet, backend)
			require.NoError(t, err, "facet %s", facet)
			assert.NotNil(t, contract, "facet %s", facet)
		}
	})

	t.Run("unregistered chain yields a configuration error", func(t *testing.T) {
		accessor := newTestAccessor()
		backend := &fakeBackend{chain: 424242}

		contract, err := accessor.FacetContract(ctx, entity.FacetAuthUser, backend)

		assert.Nil(t, contract)
		var cfgErr *entity.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, uint64(424242), cfgErr.ChainID)
		assert.Equal(t, entity.FacetAuthUser, cfgErr.Facet)
	})

	t.Run("chain without a diamond yields a configuration error", func(t *testing.T) {
		accessor := newTestAccessor()
		backend := &fakeBackend{chain: 1}

		contract, err := accessor.FacetContract(ctx, entity.FacetView, backend)

		assert.Nil(t, contract)
		var cfgErr *entity.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, cfgErr.Reason, "no diamond address")
	})

	t.Run("unknown facet yields a configuration error", func(t *testing.T) {
		accessor := newTestAccessor()
		backend := &fakeBackend{chain: 50002}

		contract, err := accessor.FacetContract(ctx, entity.Facet("Imaginary"), backend)

		assert.Nil(t, contract)
		var cfgErr *entity.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
	})

	t.Run("backend failure is not a configuration error", func(t *testing.T) {
		accessor := newTestAccessor()
		backend := &fakeBackend{chainErr: errors.New("connection refused")}

		contract, err := accessor.FacetContract(ctx, entity.FacetAuthUser, backend)

		assert.Nil(t, contract)
		require.Error(t, err)
		var cfgErr *entity.ConfigurationError
		assert.False(t, errors.As(err, &cfgErr))
	})
}

func TestFacetABI(t *testing.T) {
	t.Run("view facet exposes the loan read surface", func(t *testing.T) {
		parsed, err := facetABI(entity.FacetView)

		require.NoError(t, err)
		for _, method := range []string{"getUserLoans", "getLoanById", "calculateLoanInterest"} {
			_, ok := parsed.Methods[method]
			assert.True(t, ok, "method %s", method)
		}
	})

	t.Run("loan facet payment method is payable", func(t *testing.T) {
		parsed, err := facetABI(entity.FacetAutomationLoan)

		require.NoError(t, err)
		method, ok := parsed.Methods["makeMonthlyPayment"]
		require.True(t, ok)
		assert.Equal(t, "payable", method.StateMutability)
	})

	t.Run("unknown facet fails", func(t *testing.T) {
		_, err := facetABI(entity.Facet("Imaginary"))
		assert.Error(t, err)
	})
}

// Ensure the fake satisfies the port contract.
var _ port.Backend = (*fakeBackend)(nil)
