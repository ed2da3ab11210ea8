package metadata

import (
	"strings"
	"time"

	"go.uber.org/zap"

	litcal "github.com/AnandSundar/go-litcal"
)

// DefaultBaseURL is the public development endpoint of the API.
const DefaultBaseURL = "https://litcal.johnromanodorazio.com/api/dev"

type config struct {
	baseURL   string
	transport litcal.Transport
	store     litcal.Store
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// Option configures a Provider
type Option func(*config)

func defaultConfig() config {
	return config{
		baseURL:  DefaultBaseURL,
		cacheTTL: litcal.DefaultCacheTTL,
		logger:   zap.NewNop(),
	}
}

// WithBaseURL sets the API root; a trailing slash is ignored
func WithBaseURL(url string) Option {
	return func(c *config) {
		if url != "" {
			c.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithTransport replaces the default client stack
func WithTransport(t litcal.Transport) Option {
	return func(c *config) {
		c.transport = t
	}
}

// WithStore caches the raw calendars response in store. It has no effect
// together with WithTransport.
func WithStore(store litcal.Store) Option {
	return func(c *config) {
		c.store = store
	}
}

// WithCacheTTL sets the TTL for WithStore
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *config) {
		if ttl > 0 {
			c.cacheTTL = ttl
		}
	}
}

// WithLogger sets the provider logger, also used by the default client stack
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}
