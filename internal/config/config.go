package config

import (
	"embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed example.yaml
var exampleConfig embed.FS

// Config represents the complete likewise configuration
type Config struct {
	Store     Store     `yaml:"store"`
	Cache     Cache     `yaml:"cache"`
	Flush     Flush     `yaml:"flush"`
	Reconcile Reconcile `yaml:"reconcile"`
	Ops       Ops       `yaml:"ops"`
	Logging   Logging   `yaml:"logging"`
}

// Store contains system-of-record settings
type Store struct {
	Driver       string `yaml:"driver"` // sqlite
	SQLitePath   string `yaml:"sqlite_path"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// Cache contains reaction cache settings
type Cache struct {
	Engine   string `yaml:"engine"` // memory|redis
	RedisURL string `yaml:"redis_url"`
	TTLDays  int    `yaml:"ttl_days"`
}

// TTL returns the cache entry time-to-live as a duration
func (c *Cache) TTL() time.Duration {
	return time.Duration(c.TTLDays) * 24 * time.Hour
}

// Flush contains write-behind flush trigger settings
type Flush struct {
	BatchSize       int `yaml:"batch_size"`        // queue length that forces a flush
	MaxDelaySeconds int `yaml:"max_delay_seconds"` // elapsed time since last flush that forces one
	IntervalSeconds int `yaml:"interval_seconds"`  // background flush cadence
}

// MaxDelay returns the time threshold as a duration
func (f *Flush) MaxDelay() time.Duration {
	return time.Duration(f.MaxDelaySeconds) * time.Second
}

// Interval returns the background flush cadence as a duration
func (f *Flush) Interval() time.Duration {
	return time.Duration(f.IntervalSeconds) * time.Second
}

// Reconcile contains counter reconciliation settings
type Reconcile struct {
	IntervalSeconds int    `yaml:"interval_seconds"` // recent-activity pass cadence
	FullCron        string `yaml:"full_cron"`        // cron for the full-table pass, empty disables it
}

// Interval returns the recent reconcile cadence as a duration
func (r *Reconcile) Interval() time.Duration {
	return time.Duration(r.IntervalSeconds) * time.Second
}

// Ops contains the metrics/health endpoint settings
type Ops struct {
	Enabled bool   `yaml:"enabled"`
	Bind    string `yaml:"bind"`
	Port    int    `yaml:"port"`
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level"`  // debug|info|warn|error
	Format string `yaml:"format"` // text|json
}

// Load reads, parses, and validates a configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies LIKEWISE_* environment overrides on top of the file
func applyEnvOverrides(cfg *Config) error {
	if redisURL := os.Getenv("LIKEWISE_REDIS_URL"); redisURL != "" {
		cfg.Cache.RedisURL = redisURL
	}

	if path := os.Getenv("LIKEWISE_SQLITE_PATH"); path != "" {
		cfg.Store.SQLitePath = path
	}

	if level := os.Getenv("LIKEWISE_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}

	if batch := os.Getenv("LIKEWISE_FLUSH_BATCH_SIZE"); batch != "" {
		n, err := strconv.Atoi(batch)
		if err != nil {
			return fmt.Errorf("invalid LIKEWISE_FLUSH_BATCH_SIZE: %w", err)
		}
		cfg.Flush.BatchSize = n
	}

	return nil
}

var validCacheEngines = map[string]bool{
	"memory": true,
	"redis":  true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks a configuration for consistency
func Validate(cfg *Config) error {
	if cfg.Store.Driver != "sqlite" {
		return fmt.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if cfg.Store.SQLitePath == "" {
		return fmt.Errorf("store.sqlite_path is required")
	}

	if !validCacheEngines[cfg.Cache.Engine] {
		return fmt.Errorf("invalid cache engine: %s (must be one of: memory, redis)", cfg.Cache.Engine)
	}
	if cfg.Cache.Engine == "redis" && cfg.Cache.RedisURL == "" {
		return fmt.Errorf("cache.redis_url is required when cache.engine is redis")
	}
	if cfg.Cache.TTLDays <= 0 {
		return fmt.Errorf("cache.ttl_days must be positive")
	}

	if cfg.Flush.BatchSize <= 0 {
		return fmt.Errorf("flush.batch_size must be positive")
	}
	if cfg.Flush.MaxDelaySeconds <= 0 {
		return fmt.Errorf("flush.max_delay_seconds must be positive")
	}
	if cfg.Flush.IntervalSeconds <= 0 {
		return fmt.Errorf("flush.interval_seconds must be positive")
	}

	if cfg.Reconcile.IntervalSeconds <= 0 {
		return fmt.Errorf("reconcile.interval_seconds must be positive")
	}

	if cfg.Logging.Level != "" && !validLogLevels[strings.ToLower(cfg.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", cfg.Logging.Level)
	}

	return nil
}

// GetExampleConfig returns the embedded example configuration
func GetExampleConfig() ([]byte, error) {
	return exampleConfig.ReadFile("example.yaml")
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Store: Store{
			Driver:       "sqlite",
			SQLitePath:   "./data/likewise.db",
			MaxOpenConns: 4,
		},
		Cache: Cache{
			Engine:   "memory",
			RedisURL: "",
			TTLDays:  7,
		},
		Flush: Flush{
			BatchSize:       5,
			MaxDelaySeconds: 30,
			IntervalSeconds: 30,
		},
		Reconcile: Reconcile{
			IntervalSeconds: 30,
			FullCron:        "0 3 * * *",
		},
		Ops: Ops{
			Enabled: true,
			Bind:    "127.0.0.1",
			Port:    9311,
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}
