package litcal

import (
	"time"

	"go.uber.org/zap"

	"github.com/AnandSundar/go-litcal/clock"
)

// Config holds the client stack configuration
type Config struct {
	Base      Transport
	Logger    *zap.Logger
	Clock     clock.Clock
	Logging   bool
	Retry     *RetryConfig
	Breaker   *BreakerConfig
	Store     Store
	Cache     CacheConfig
	RateLimit *RateLimitConfig
	Metrics   *Metrics
}

// Option is a functional option for configuring the client stack
type Option func(*Config)

func defaultConfig() Config {
	retry := DefaultRetryConfig()
	breaker := DefaultBreakerConfig()
	return Config{
		Logger:  zap.NewNop(),
		Clock:   clock.RealClock{},
		Logging: true,
		Retry:   &retry,
		Breaker: &breaker,
		Cache:   CacheConfig{TTL: DefaultCacheTTL},
	}
}

// WithBase sets the transport at the bottom of the chain
func WithBase(t Transport) Option {
	return func(c *Config) {
		c.Base = t
	}
}

// WithLogger sets the logger shared by every layer
func WithLogger(logger *zap.Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithClock sets the time source used for backoff, breaker recovery and cache timestamps
func WithClock(clk clock.Clock) Option {
	return func(c *Config) {
		if clk != nil {
			c.Clock = clk
		}
	}
}

// WithRetry enables the retry layer with cfg
func WithRetry(cfg RetryConfig) Option {
	return func(c *Config) {
		c.Retry = &cfg
	}
}

// WithoutRetry removes the retry layer
func WithoutRetry() Option {
	return func(c *Config) {
		c.Retry = nil
	}
}

// WithBreaker enables the circuit breaker layer with cfg
func WithBreaker(cfg BreakerConfig) Option {
	return func(c *Config) {
		c.Breaker = &cfg
	}
}

// WithoutBreaker removes the circuit breaker layer
func WithoutBreaker() Option {
	return func(c *Config) {
		c.Breaker = nil
	}
}

// WithCache enables GET response caching in store
func WithCache(store Store, ttl time.Duration) Option {
	return func(c *Config) {
		c.Store = store
		c.Cache.TTL = ttl
	}
}

// WithKeyFunc sets a custom cache key function
func WithKeyFunc(fn KeyFunc) Option {
	return func(c *Config) {
		c.Cache.KeyFunc = fn
	}
}

// WithRateLimit paces network exchanges
func WithRateLimit(cfg RateLimitConfig) Option {
	return func(c *Config) {
		c.RateLimit = &cfg
	}
}

// WithMetrics records Prometheus metrics for the stack
func WithMetrics(m *Metrics) Option {
	return func(c *Config) {
		c.Metrics = m
	}
}

// WithoutLogging removes the request logging layer
func WithoutLogging() Option {
	return func(c *Config) {
		c.Logging = false
	}
}
