package configloader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"rwa_dashboard/internal/domain/entity"
)

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// CoinGeckoConfig holds CoinGecko API configuration.
type CoinGeckoConfig struct {
	APIKey                string `yaml:"apiKey"`
	BaseURL               string `yaml:"baseURL"`
	ClientTimeoutSeconds  int    `yaml:"clientTimeoutSeconds"`
	QuoteTTLMinutes       int    `yaml:"quoteTTLMinutes"`
	MinRequestIntervalMS  int64  `yaml:"minRequestIntervalMillis"`
}

// DatabaseConfig holds the profile store connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN renders the config as a Postgres connection string. Empty when no host
// is configured, which disables the profile store.
func (c DatabaseConfig) DSN() string {
	if c.Host == "" {
		return ""
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
		c.Host, c.User, c.Password, c.DBName, c.Port, c.SSLMode)
}

// WalletConfig holds the wallet bridge settings.
type WalletConfig struct {
	RPCURL      string `yaml:"rpcURL"`
	UserID      string `yaml:"userID"`
	OperatorKey string `yaml:"operatorKey"` // hex private key, usually injected via env
}

// AggregatorConfig holds refresh and cache settings for the aggregation layer.
type AggregatorConfig struct {
	CacheTTLMinutes        int `yaml:"cacheTTLMinutes"`
	RefreshIntervalMinutes int `yaml:"refreshIntervalMinutes"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server         ServerConfig     `yaml:"server"`
	Logging        LoggingConfig    `yaml:"logging"`
	CoinGecko      CoinGeckoConfig  `yaml:"coingecko"`
	Database       DatabaseConfig   `yaml:"database"`
	Wallet         WalletConfig     `yaml:"wallet"`
	Aggregator     AggregatorConfig `yaml:"aggregator"`
	DataSourceMode string           `yaml:"dataSourceMode"` // "live" or "fallback"
}

// Mode maps the configured string onto a DataSourceMode, defaulting to
// fallback so a blank config still renders a populated dashboard.
func (c *Config) Mode() entity.DataSourceMode {
	if c.DataSourceMode == string(entity.ModeLive) {
		return entity.ModeLive
	}
	return entity.ModeFallback
}

// Load reads the YAML configuration file from the given path and unmarshals
// it, filling in defaults for anything left unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}
	applyDefaults(&cfg)
	applyEnv(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.CoinGecko.BaseURL == "" {
		cfg.CoinGecko.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if cfg.CoinGecko.ClientTimeoutSeconds <= 0 {
		cfg.CoinGecko.ClientTimeoutSeconds = 10
	}
	if cfg.CoinGecko.QuoteTTLMinutes <= 0 {
		cfg.CoinGecko.QuoteTTLMinutes = 5
	}
	if cfg.CoinGecko.MinRequestIntervalMS <= 0 {
		cfg.CoinGecko.MinRequestIntervalMS = 1000
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Aggregator.CacheTTLMinutes <= 0 {
		cfg.Aggregator.CacheTTLMinutes = 5
	}
	if cfg.Aggregator.RefreshIntervalMinutes <= 0 {
		cfg.Aggregator.RefreshIntervalMinutes = 5
	}
}

// applyEnv lets secrets and deploy-specific values override the file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("COINGECKO_API_KEY"); v != "" {
		cfg.CoinGecko.APIKey = v
	}
	if v := os.Getenv("WALLET_RPC_URL"); v != "" {
		cfg.Wallet.RPCURL = v
	}
	if v := os.Getenv("WALLET_OPERATOR_KEY"); v != "" {
		cfg.Wallet.OperatorKey = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("DATA_SOURCE_MODE"); v != "" {
		cfg.DataSourceMode = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		cfg.Server.Port = v
	}
}
