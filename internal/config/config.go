// Package config loads scanner configuration from defaults, an optional
// YAML file, a .env file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"graduation-scanner/internal/cache"
	"graduation-scanner/internal/dexscreener"
	"graduation-scanner/internal/domain"
	"graduation-scanner/internal/holders"
	"graduation-scanner/internal/logging"
	"graduation-scanner/internal/scanner"
)

// Backend names.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendDatabase = "database"
)

// Config is the full scanner configuration.
type Config struct {
	Log         LogConfig         `yaml:"log"`
	Scan        ScanConfig        `yaml:"scan"`
	DexScreener DexScreenerConfig `yaml:"dexscreener"`
	Solana      SolanaConfig      `yaml:"solana"`
	Cache       CacheConfig       `yaml:"cache"`
	Storage     StorageConfig     `yaml:"storage"`
	HTTP        HTTPConfig        `yaml:"http"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or pretty
}

// ScanConfig controls the scan loop.
type ScanConfig struct {
	Preset     string        `yaml:"preset"`
	Interval   time.Duration `yaml:"interval"`
	Chain      string        `yaml:"chain"`
	Exchange   string        `yaml:"exchange"`
	FetchLimit int           `yaml:"fetch_limit"`
	Workers    int           `yaml:"workers"`
}

// DexScreenerConfig controls the pair feed client.
type DexScreenerConfig struct {
	BaseURL        string        `yaml:"base_url"`
	Timeout        time.Duration `yaml:"timeout"`
	RequestsPerSec float64       `yaml:"requests_per_sec"`
	Burst          int           `yaml:"burst"`
}

// SolanaConfig controls holder enrichment over JSON-RPC.
// An empty RPCURL disables enrichment.
type SolanaConfig struct {
	RPCURL         string        `yaml:"rpc_url"`
	Timeout        time.Duration `yaml:"timeout"`
	RequestsPerSec float64       `yaml:"requests_per_sec"`
	TopN           int           `yaml:"top_n"`
	Authorities    bool          `yaml:"authorities"`
}

// CacheConfig selects the pair cache backend.
type CacheConfig struct {
	Backend     string        `yaml:"backend"` // memory or redis
	TTL         time.Duration `yaml:"ttl"`
	RedisAddr   string        `yaml:"redis_addr"`
	RedisPrefix string        `yaml:"redis_prefix"`
}

// StorageConfig selects where surfaced candidates are recorded.
type StorageConfig struct {
	Backend       string `yaml:"backend"` // memory or database
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"`
}

// HTTPConfig controls the API listener.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: logging.FormatJSON,
		},
		Scan: ScanConfig{
			Preset:     domain.PresetDefault,
			Interval:   time.Minute,
			Chain:      scanner.DefaultChain,
			Exchange:   scanner.DefaultExchange,
			FetchLimit: scanner.DefaultFetchLimit,
			Workers:    scanner.DefaultWorkers,
		},
		DexScreener: DexScreenerConfig{
			BaseURL:        dexscreener.DefaultBaseURL,
			Timeout:        dexscreener.DefaultTimeout,
			RequestsPerSec: dexscreener.DefaultRatePerSec,
			Burst:          dexscreener.DefaultBurst,
		},
		Solana: SolanaConfig{
			Timeout:        10 * time.Second,
			RequestsPerSec: holders.DefaultRequestsPerSec,
			TopN:           holders.DefaultTopN,
			Authorities:    true,
		},
		Cache: CacheConfig{
			Backend:     BackendMemory,
			TTL:         cache.DefaultTTL,
			RedisPrefix: cache.DefaultRedisPrefix,
		},
		Storage: StorageConfig{
			Backend: BackendMemory,
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
	}
}

// Load builds the configuration. path may be empty; envFile is optional
// and never overrides variables already set in the process environment.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg.ApplyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables.
// HELIUS_RPC_URL wins over SOLANA_RPC_ENDPOINT when both are set.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	set("DEXSCREENER_BASE_URL", &c.DexScreener.BaseURL)
	set("SOLANA_RPC_ENDPOINT", &c.Solana.RPCURL)
	set("HELIUS_RPC_URL", &c.Solana.RPCURL)
	set("LOG_LEVEL", &c.Log.Level)
	set("SCAN_PRESET", &c.Scan.Preset)

	// A Redis address or both DSNs switch the backends on.
	if v, ok := lookup("REDIS_ADDR"); ok && strings.TrimSpace(v) != "" {
		c.Cache.RedisAddr = strings.TrimSpace(v)
		c.Cache.Backend = BackendRedis
	}

	set("POSTGRES_DSN", &c.Storage.PostgresDSN)
	set("CLICKHOUSE_DSN", &c.Storage.ClickhouseDSN)
	if c.Storage.PostgresDSN != "" && c.Storage.ClickhouseDSN != "" && c.Storage.Backend == BackendMemory {
		c.Storage.Backend = BackendDatabase
	}
}

// Validate rejects configurations the scanner cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != logging.FormatJSON && c.Log.Format != logging.FormatPretty {
		errs = append(errs, fmt.Errorf("log.format must be %s or %s, got %q", logging.FormatJSON, logging.FormatPretty, c.Log.Format))
	}

	if _, ok := domain.FilterPreset(c.Scan.Preset); !ok {
		errs = append(errs, fmt.Errorf("scan.preset %q is not one of %v", c.Scan.Preset, domain.PresetNames()))
	}
	if c.Scan.Interval <= 0 {
		errs = append(errs, errors.New("scan.interval must be positive"))
	}
	if c.Scan.FetchLimit <= 0 {
		errs = append(errs, errors.New("scan.fetch_limit must be positive"))
	}
	if c.Scan.Workers <= 0 {
		errs = append(errs, errors.New("scan.workers must be positive"))
	}

	if c.DexScreener.BaseURL == "" {
		errs = append(errs, errors.New("dexscreener.base_url is required"))
	}
	if c.Solana.TopN <= 0 {
		errs = append(errs, errors.New("solana.top_n must be positive"))
	}

	switch c.Cache.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			errs = append(errs, errors.New("cache.redis_addr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.backend %q is not memory or redis", c.Cache.Backend))
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, errors.New("cache.ttl must be positive"))
	}

	switch c.Storage.Backend {
	case BackendMemory:
	case BackendDatabase:
		if c.Storage.PostgresDSN == "" || c.Storage.ClickhouseDSN == "" {
			errs = append(errs, errors.New("storage.postgres_dsn and storage.clickhouse_dsn are required for the database backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.backend %q is not memory or database", c.Storage.Backend))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Filter returns the configured preset filter.
func (c *Config) Filter() domain.GraduationFilter {
	f, _ := domain.FilterPreset(c.Scan.Preset)
	return f
}
