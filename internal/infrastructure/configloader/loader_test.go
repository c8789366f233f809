package configloader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rwa_dashboard/internal/domain/entity"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("fills defaults for an empty file", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, "{}"))

		require.NoError(t, err)
		assert.Equal(t, "8080", cfg.Server.Port)
		assert.Equal(t, "info", cfg.Logging.Level)
		assert.Equal(t, "https://api.coingecko.com/api/v3", cfg.CoinGecko.BaseURL)
		assert.Equal(t, 5, cfg.CoinGecko.QuoteTTLMinutes)
		assert.Equal(t, int64(1000), cfg.CoinGecko.MinRequestIntervalMS)
		assert.Equal(t, 5, cfg.Aggregator.CacheTTLMinutes)
		assert.Equal(t, entity.ModeFallback, cfg.Mode())
	})

	t.Run("keeps explicit values", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, `
server:
  port: "9000"
logging:
  level: debug
dataSourceMode: live
`))

		require.NoError(t, err)
		assert.Equal(t, "9000", cfg.Server.Port)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, entity.ModeLive, cfg.Mode())
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		t.Setenv("COINGECKO_API_KEY", "env-key")
		t.Setenv("DATA_SOURCE_MODE", "live")

		cfg, err := Load(writeConfig(t, `
coingecko:
  apiKey: file-key
`))

		require.NoError(t, err)
		assert.Equal(t, "env-key", cfg.CoinGecko.APIKey)
		assert.Equal(t, entity.ModeLive, cfg.Mode())
	})

	t.Run("fails on a missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
		assert.Error(t, err)
	})
}

func TestDatabaseDSN(t *testing.T) {
	empty := DatabaseConfig{}
	assert.Empty(t, empty.DSN())

	cfg := DatabaseConfig{Host: "localhost", Port: 5432, User: "app", Password: "pw", DBName: "dash", SSLMode: "disable"}
	assert.Equal(t, "host=localhost user=app password=pw dbname=dash port=5432 sslmode=disable TimeZone=UTC", cfg.DSN())
}
