package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rwa_dashboard/internal/pkg/logger"
)

func TestByChainID(t *testing.T) {
	r := New(logger.NewSlogAdapter())

	t.Run("known chain", func(t *testing.T) {
		cfg := r.ByChainID(50002)

		require.NotNil(t, cfg)
		assert.Equal(t, "Pharos Devnet", cfg.Name)
		assert.Equal(t, "PTT", cfg.NativeSymbol)
		assert.True(t, cfg.IsTestnet)
		assert.True(t, cfg.HasContracts())
	})

	t.Run("unknown chain returns nil", func(t *testing.T) {
		assert.Nil(t, r.ByChainID(424242))
		assert.Nil(t, r.ByChainID(0))
	})

	t.Run("lookups hand out copies", func(t *testing.T) {
		first := r.ByChainID(1)
		require.NotNil(t, first)
		first.RPCURL = "mutated"

		second := r.ByChainID(1)
		require.NotNil(t, second)
		assert.NotEqual(t, "mutated", second.RPCURL)
	})
}

func TestByName(t *testing.T) {
	r := New(logger.NewSlogAdapter())

	t.Run("matches identifier case-insensitively", func(t *testing.T) {
		cfg := r.ByName("ETHEREUM")
		require.NotNil(t, cfg)
		assert.Equal(t, uint64(1), cfg.ChainID)
	})

	t.Run("matches display name", func(t *testing.T) {
		cfg := r.ByName("polygon pos")
		require.NotNil(t, cfg)
		assert.Equal(t, uint64(137), cfg.ChainID)
	})

	t.Run("unknown name returns nil", func(t *testing.T) {
		assert.Nil(t, r.ByName("hyperspace"))
	})
}

func TestIsTestnet(t *testing.T) {
	r := New(logger.NewSlogAdapter())

	assert.True(t, r.IsTestnet(50002))
	assert.True(t, r.IsTestnet(11155111))
	assert.False(t, r.IsTestnet(1))
	assert.False(t, r.IsTestnet(424242))
}

func TestPrimaryChainID(t *testing.T) {
	r := New(logger.NewSlogAdapter())

	// Pharos is the only built-in entry with a deployed diamond.
	assert.Equal(t, uint64(50002), r.PrimaryChainID())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ETHEREUM_RPC_URL", "https://rpc.example.test")
	t.Setenv("ETHEREUM_DIAMOND_ADDRESS", "0x1111111111111111111111111111111111111111")

	r := New(logger.NewSlogAdapter())

	cfg := r.ByChainID(1)
	require.NotNil(t, cfg)
	assert.Equal(t, "https://rpc.example.test", cfg.RPCURL)
	assert.True(t, cfg.HasContracts())
}

func TestAll(t *testing.T) {
	r := New(logger.NewSlogAdapter())

	all := r.All()
	require.NotEmpty(t, all)
	assert.Equal(t, uint64(50002), all[0].ChainID, "table order starts with the primary chain")

	// Mutating the returned slice must not affect later reads.
	all[0].Name = "mutated"
	assert.Equal(t, "Pharos Devnet", r.All()[0].Name)
}
