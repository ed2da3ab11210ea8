// Package config loads client settings from an optional TOML file, a .env
// file and LITCAL_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	litcal "github.com/AnandSundar/go-litcal"
	"github.com/AnandSundar/go-litcal/metadata"
	"github.com/AnandSundar/go-litcal/store"
)

const defaultConfigPath = "~/.config/litcal/config.toml"

// Config is the full client configuration.
type Config struct {
	BaseURL   string          `toml:"base_url"`
	Transport string          `toml:"transport"`
	Timeout   Duration        `toml:"timeout"`
	LogLevel  string          `toml:"log_level"`
	Retry     RetryConfig     `toml:"retry"`
	Breaker   BreakerConfig   `toml:"breaker"`
	Cache     CacheConfig     `toml:"cache"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Metrics   MetricsConfig   `toml:"metrics"`
}

// RetryConfig is the [retry] table
type RetryConfig struct {
	Enabled     bool     `toml:"enabled"`
	MaxRetries  int      `toml:"max_retries"`
	BaseDelay   Duration `toml:"base_delay"`
	Exponential bool     `toml:"exponential"`
}

// BreakerConfig is the [breaker] table
type BreakerConfig struct {
	Enabled          bool     `toml:"enabled"`
	FailureThreshold int      `toml:"failure_threshold"`
	SuccessThreshold int      `toml:"success_threshold"`
	RecoveryTimeout  Duration `toml:"recovery_timeout"`
}

// CacheConfig selects the response cache backend: "memory", "redis" or "none".
type CacheConfig struct {
	Backend  string   `toml:"backend"`
	TTL      Duration `toml:"ttl"`
	RedisURL string   `toml:"redis_url"`
}

// RateLimitConfig is disabled when PerSecond is zero.
type RateLimitConfig struct {
	PerSecond float64 `toml:"per_second"`
	Burst     int     `toml:"burst"`
}

// MetricsConfig is the [metrics] table; metrics are off by default
type MetricsConfig struct {
	Enabled   bool   `toml:"enabled"`
	Namespace string `toml:"namespace"`
}

// Duration reads TOML strings such as "1s" or "1h30m".
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std converts d to a time.Duration
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		BaseURL:   metadata.DefaultBaseURL,
		Transport: "http",
		Timeout:   Duration(litcal.DefaultTimeout),
		LogLevel:  "info",
		Retry: RetryConfig{
			Enabled:     true,
			MaxRetries:  3,
			BaseDelay:   Duration(time.Second),
			Exponential: true,
		},
		Breaker: BreakerConfig{
			Enabled:          true,
			FailureThreshold: 5,
			SuccessThreshold: 2,
			RecoveryTimeout:  Duration(60 * time.Second),
		},
		Cache: CacheConfig{
			Backend: "memory",
			TTL:     Duration(litcal.DefaultCacheTTL),
		},
		Metrics: MetricsConfig{Namespace: "litcal"},
	}
}

// Load applies defaults, then the TOML file at path (a missing file is not
// an error), then .env and LITCAL_* variables. An empty path means
// ~/.config/litcal/config.toml.
func Load(path string) (Config, error) {
	cfg := Default()

	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	data, err := os.ReadFile(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("read config: %w", err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	_ = godotenv.Load()
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.BaseURL = getenv("LITCAL_BASE_URL", c.BaseURL)
	c.Transport = getenv("LITCAL_TRANSPORT", c.Transport)
	c.LogLevel = getenv("LITCAL_LOG_LEVEL", c.LogLevel)
	c.Retry.Enabled = getenvBool("LITCAL_RETRY_ENABLED", c.Retry.Enabled)
	c.Retry.MaxRetries = getenvInt("LITCAL_MAX_RETRIES", c.Retry.MaxRetries)
	c.Breaker.Enabled = getenvBool("LITCAL_BREAKER_ENABLED", c.Breaker.Enabled)
	c.Breaker.FailureThreshold = getenvInt("LITCAL_FAILURE_THRESHOLD", c.Breaker.FailureThreshold)
	c.Breaker.SuccessThreshold = getenvInt("LITCAL_SUCCESS_THRESHOLD", c.Breaker.SuccessThreshold)
	c.Cache.Backend = getenv("LITCAL_CACHE_BACKEND", c.Cache.Backend)
	c.Cache.RedisURL = getenv("LITCAL_REDIS_URL", c.Cache.RedisURL)
	c.RateLimit.PerSecond = getenvFloat("LITCAL_RATE_LIMIT", c.RateLimit.PerSecond)
	c.RateLimit.Burst = getenvInt("LITCAL_RATE_LIMIT_BURST", c.RateLimit.Burst)
	c.Metrics.Enabled = getenvBool("LITCAL_METRICS_ENABLED", c.Metrics.Enabled)

	durations := []struct {
		key string
		dst *Duration
	}{
		{"LITCAL_TIMEOUT", &c.Timeout},
		{"LITCAL_RETRY_BASE_DELAY", &c.Retry.BaseDelay},
		{"LITCAL_RECOVERY_TIMEOUT", &c.Breaker.RecoveryTimeout},
		{"LITCAL_CACHE_TTL", &c.Cache.TTL},
	}
	for _, d := range durations {
		value := strings.TrimSpace(os.Getenv(d.key))
		if value == "" {
			continue
		}
		if err := d.dst.UnmarshalText([]byte(value)); err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
	}
	return nil
}

// Validate rejects settings the client stack cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("base_url is required")
	}
	switch c.Transport {
	case "http", "stream":
	default:
		return fmt.Errorf("transport %q: must be http or stream", c.Transport)
	}
	switch c.Cache.Backend {
	case "memory", "none":
	case "redis":
		if c.Cache.RedisURL == "" {
			return errors.New("cache.redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("cache.backend %q: must be memory, redis or none", c.Cache.Backend)
	}
	if c.Retry.MaxRetries < 0 {
		return errors.New("retry.max_retries must not be negative")
	}
	if c.RateLimit.PerSecond < 0 {
		return errors.New("rate_limit.per_second must not be negative")
	}
	return nil
}

// NewLogger builds a production JSON logger at LogLevel.
func (c Config) NewLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log_level: %w", err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = level
	return zc.Build()
}

// ClientOptions turns the configuration into chain options. The returned
// close function releases the cache backend and must be called when the
// client is no longer used.
func (c Config) ClientOptions(logger *zap.Logger, reg prometheus.Registerer) ([]litcal.Option, func() error, error) {
	opts := []litcal.Option{
		litcal.WithLogger(logger),
		litcal.WithBase(c.baseTransport()),
	}
	closeFn := func() error { return nil }

	if c.Retry.Enabled {
		opts = append(opts, litcal.WithRetry(litcal.RetryConfig{
			MaxRetries:        c.Retry.MaxRetries,
			BaseDelay:         c.Retry.BaseDelay.Std(),
			Exponential:       c.Retry.Exponential,
			RetryableStatuses: litcal.DefaultRetryConfig().RetryableStatuses,
		}))
	} else {
		opts = append(opts, litcal.WithoutRetry())
	}

	if c.Breaker.Enabled {
		opts = append(opts, litcal.WithBreaker(litcal.BreakerConfig{
			FailureThreshold: c.Breaker.FailureThreshold,
			SuccessThreshold: c.Breaker.SuccessThreshold,
			RecoveryTimeout:  c.Breaker.RecoveryTimeout.Std(),
		}))
	} else {
		opts = append(opts, litcal.WithoutBreaker())
	}

	switch c.Cache.Backend {
	case "memory":
		mem := store.NewMemoryStore()
		opts = append(opts, litcal.WithCache(mem, c.Cache.TTL.Std()))
		closeFn = mem.Close
	case "redis":
		rs, client, err := store.NewRedisStoreFromURL(c.Cache.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, litcal.WithCache(rs, c.Cache.TTL.Std()))
		closeFn = client.Close
	}

	if c.RateLimit.PerSecond > 0 {
		opts = append(opts, litcal.WithRateLimit(litcal.RateLimitConfig{
			PerSecond: c.RateLimit.PerSecond,
			Burst:     c.RateLimit.Burst,
		}))
	}

	if c.Metrics.Enabled {
		opts = append(opts, litcal.WithMetrics(litcal.NewMetrics(reg, c.Metrics.Namespace)))
	}

	return opts, closeFn, nil
}

func (c Config) baseTransport() litcal.Transport {
	if c.Transport == "stream" {
		return litcal.NewStreamTransport(nil)
	}
	return litcal.NewHTTPTransport(&http.Client{Timeout: c.Timeout.Std()})
}

func resolvePath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		trimmed = defaultConfigPath
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}
