package configloader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"porg/internal/domain/entity"
)

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port                string `yaml:"port"`
	ReadTimeoutSeconds  int    `yaml:"readTimeoutSeconds"`
	WriteTimeoutSeconds int    `yaml:"writeTimeoutSeconds"`
	IdleTimeoutSeconds  int    `yaml:"idleTimeoutSeconds"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DBConfig holds persistent store configuration. Driver is "sqlite"
// (embedded, default) or "postgres".
type DBConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"` // sqlite file path
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// ChainConfig holds RPC endpoint configuration for the chain collaborator.
type ChainConfig struct {
	RPCURL                string   `yaml:"rpcURL"`
	FallbackRPCURLs       []string `yaml:"fallbackRpcUrls"`
	RequestTimeoutSeconds int      `yaml:"requestTimeoutSeconds"`
}

// ProtocolConfig holds the on-chain protocol identity: program IDs used by
// the classifier and the accounts/fee rate used in plan assembly.
type ProtocolConfig struct {
	ProgramID       string `yaml:"programId"`
	BridgeProgramID string `yaml:"bridgeProgramId"`
	FeeAccount      string `yaml:"feeAccount"`
	FeeBps          int    `yaml:"feeBps"`
}

// QuoteAPIConfig holds swap-quote provider configuration.
type QuoteAPIConfig struct {
	BaseURL              string  `yaml:"baseURL"`
	RequestTimeoutMillis int64   `yaml:"requestTimeoutMillis"`
	RatePerSecond        float64 `yaml:"ratePerSecond"`
	Burst                int     `yaml:"burst"`
}

// OriginAPIConfig holds configuration for a simple origin HTTP API
// (token registry, price feed, bridge quotes).
type OriginAPIConfig struct {
	BaseURL              string `yaml:"baseURL"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
}

// CachingConfig holds freshness windows and retention bounds.
type CachingConfig struct {
	PriceTTLMinutes        int `yaml:"priceTTLMinutes"`
	PortfolioTTLMinutes    int `yaml:"portfolioTTLMinutes"`
	PriceHistoryKeep       int `yaml:"priceHistoryKeep"`
	SnapshotRetentionHours int `yaml:"snapshotRetentionHours"`
	SweepIntervalMinutes   int `yaml:"sweepIntervalMinutes"`
}

// LiquidationConfig holds planner defaults.
type LiquidationConfig struct {
	MinDustValueUSD     float64 `yaml:"minDustValueUSD"`
	DefaultSlippageBps  int     `yaml:"defaultSlippageBps"`
	MaxConcurrentQuotes int     `yaml:"maxConcurrentQuotes"`
}

// HistoryConfig holds the history listing response cache settings.
type HistoryConfig struct {
	DefaultLimit    int `yaml:"defaultLimit"`
	CacheSize       int `yaml:"cacheSize"`
	CacheTTLSeconds int `yaml:"cacheTTLSeconds"`
}

// PerformanceConfig holds concurrency bounds.
type PerformanceConfig struct {
	MaxConcurrentRoutines int `yaml:"max_concurrent_routines"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Logging     LoggingConfig     `yaml:"logging"`
	Database    DBConfig          `yaml:"database"`
	Chain       ChainConfig       `yaml:"chain"`
	Protocol    ProtocolConfig    `yaml:"protocol"`
	QuoteAPI    QuoteAPIConfig    `yaml:"quoteAPI"`
	Registry    OriginAPIConfig   `yaml:"registry"`
	PriceFeed   OriginAPIConfig   `yaml:"priceFeed"`
	Bridge      OriginAPIConfig   `yaml:"bridge"`
	Caching     CachingConfig     `yaml:"caching"`
	Liquidation LiquidationConfig `yaml:"liquidation"`
	History     HistoryConfig     `yaml:"history"`
	Performance PerformanceConfig `yaml:"performance"`
}

// Load reads the YAML configuration file from the given path, unmarshals it,
// and applies defaults for everything left unset.
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

	if cfg.Protocol.FeeBps > entity.MaxFeeBps {
		return nil, fmt.Errorf("protocol.feeBps %d exceeds the maximum of %d", cfg.Protocol.FeeBps, entity.MaxFeeBps)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
	if cfg.Server.ReadTimeoutSeconds <= 0 {
		cfg.Server.ReadTimeoutSeconds = 15
	}
	if cfg.Server.WriteTimeoutSeconds <= 0 {
		cfg.Server.WriteTimeoutSeconds = 30
	}
	if cfg.Server.IdleTimeoutSeconds <= 0 {
		cfg.Server.IdleTimeoutSeconds = 60
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.Driver == "sqlite" && cfg.Database.Path == "" {
		cfg.Database.Path = "porg.db"
	}

	if cfg.Chain.RPCURL == "" {
		cfg.Chain.RPCURL = "https://api.mainnet-beta.solana.com"
	}
	if cfg.Chain.RequestTimeoutSeconds <= 0 {
		cfg.Chain.RequestTimeoutSeconds = 10
	}

	if cfg.Protocol.FeeBps <= 0 {
		cfg.Protocol.FeeBps = entity.DefaultFeeBps
	}

	if cfg.QuoteAPI.BaseURL == "" {
		cfg.QuoteAPI.BaseURL = "https://quote-api.jup.ag/v6"
	}
	if cfg.QuoteAPI.RequestTimeoutMillis <= 0 {
		cfg.QuoteAPI.RequestTimeoutMillis = 10000
	}
	if cfg.QuoteAPI.RatePerSecond <= 0 {
		cfg.QuoteAPI.RatePerSecond = 10
	}
	if cfg.QuoteAPI.Burst <= 0 {
		cfg.QuoteAPI.Burst = 5
	}

	if cfg.Registry.BaseURL == "" {
		cfg.Registry.BaseURL = "https://tokens.jup.ag"
	}
	if cfg.Registry.RequestTimeoutMillis <= 0 {
		cfg.Registry.RequestTimeoutMillis = 10000
	}

	if cfg.PriceFeed.BaseURL == "" {
		cfg.PriceFeed.BaseURL = "https://price.jup.ag/v4"
	}
	if cfg.PriceFeed.RequestTimeoutMillis <= 0 {
		cfg.PriceFeed.RequestTimeoutMillis = 10000
	}

	if cfg.Bridge.RequestTimeoutMillis <= 0 {
		cfg.Bridge.RequestTimeoutMillis = 10000
	}

	if cfg.Caching.PriceTTLMinutes <= 0 {
		cfg.Caching.PriceTTLMinutes = 5
	}
	if cfg.Caching.PortfolioTTLMinutes <= 0 {
		cfg.Caching.PortfolioTTLMinutes = 5
	}
	if cfg.Caching.PriceHistoryKeep <= 0 {
		cfg.Caching.PriceHistoryKeep = 50
	}
	if cfg.Caching.SnapshotRetentionHours <= 0 {
		cfg.Caching.SnapshotRetentionHours = 24
	}
	if cfg.Caching.SweepIntervalMinutes <= 0 {
		cfg.Caching.SweepIntervalMinutes = 30
	}

	if cfg.Liquidation.MinDustValueUSD <= 0 {
		cfg.Liquidation.MinDustValueUSD = entity.DefaultMinDustValueUSD
	}
	if cfg.Liquidation.DefaultSlippageBps <= 0 {
		cfg.Liquidation.DefaultSlippageBps = entity.DefaultSlippageBps
	}
	if cfg.Liquidation.MaxConcurrentQuotes <= 0 {
		cfg.Liquidation.MaxConcurrentQuotes = 4
	}

	if cfg.History.DefaultLimit <= 0 {
		cfg.History.DefaultLimit = 50
	}
	if cfg.History.CacheSize <= 0 {
		cfg.History.CacheSize = 256
	}
	if cfg.History.CacheTTLSeconds <= 0 {
		cfg.History.CacheTTLSeconds = 30
	}

	if cfg.Performance.MaxConcurrentRoutines <= 0 {
		cfg.Performance.MaxConcurrentRoutines = 10
	}
}
