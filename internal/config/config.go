// Package config loads application settings and installs the global logger.
package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/chanuka/disclosure-cli/internal/analytics"
	"github.com/chanuka/disclosure-cli/internal/resilience"
	"github.com/chanuka/disclosure-cli/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig      `yaml:"store" mapstructure:"store"`
	Cache     CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Log       LogConfig        `yaml:"log" mapstructure:"log"`
	Batch     BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Retry     RetryConfig      `yaml:"retry" mapstructure:"retry"`
	Analytics analytics.Config `yaml:"analytics" mapstructure:"analytics"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string           `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string           `yaml:"database_url" mapstructure:"database_url"`
	Pool        store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// CacheConfig configures the analysis result cache.
type CacheConfig struct {
	Driver   string `yaml:"driver" mapstructure:"driver"`
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`
	TTLSecs  int    `yaml:"ttl_secs" mapstructure:"ttl_secs"`
}

// BatchConfig configures population-wide analysis.
type BatchConfig struct {
	Concurrency int     `yaml:"concurrency" mapstructure:"concurrency"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// RetryConfig configures retries of store reads.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// Resilience converts the settings into a resilience.RetryConfig.
func (r RetryConfig) Resilience() resilience.RetryConfig {
	return resilience.FromSettings(r.MaxAttempts, r.InitialBackoffMs, r.MaxBackoffMs)
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DISCLOSURE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "disclosure.db")
	v.SetDefault("cache.driver", "none")
	v.SetDefault("cache.ttl_secs", 3600)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("batch.concurrency", 8)
	v.SetDefault("batch.rate_per_sec", 0)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 100)
	v.SetDefault("retry.max_backoff_ms", 2000)
	if err := setStructDefaults(v, "analytics", analytics.DefaultConfig()); err != nil {
		return nil, err
	}

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// setStructDefaults registers every leaf of val as a default under prefix,
// so each one can also be overridden from the environment.
func setStructDefaults(v *viper.Viper, prefix string, val any) error {
	raw, err := yaml.Marshal(val)
	if err != nil {
		return eris.Wrapf(err, "config: encode %s defaults", prefix)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return eris.Wrapf(err, "config: decode %s defaults", prefix)
	}
	var walk func(path string, node map[string]any)
	walk = func(path string, node map[string]any) {
		for k, child := range node {
			key := path + "." + k
			if m, ok := child.(map[string]any); ok {
				walk(key, m)
				continue
			}
			v.SetDefault(key, child)
		}
	}
	walk(prefix, tree)
	return nil
}

// Validate checks store, cache and batch settings plus the analytics tuning.
func (c *Config) Validate() error {
	var errs []string

	switch c.Store.Driver {
	case "postgres", "sqlite":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.driver must be postgres or sqlite, got %q", c.Store.Driver))
	}

	switch c.Cache.Driver {
	case "", "none":
	case "redis":
		if c.Cache.RedisURL == "" {
			errs = append(errs, "cache.redis_url is required when cache.driver is redis")
		}
	case "sqlite":
		if c.Store.Driver != "sqlite" {
			errs = append(errs, "cache.driver sqlite requires store.driver sqlite")
		}
	default:
		errs = append(errs, fmt.Sprintf("cache.driver must be none, redis or sqlite, got %q", c.Cache.Driver))
	}
	if c.Cache.TTLSecs < 0 {
		errs = append(errs, "cache.ttl_secs must be >= 0")
	}

	if c.Batch.Concurrency < 1 || c.Batch.Concurrency > 64 {
		errs = append(errs, "batch.concurrency must be between 1 and 64")
	}
	if c.Batch.RatePerSec < 0 {
		errs = append(errs, "batch.rate_per_sec must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return analytics.ValidateConfig(c.Analytics)
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
