package litcal

import (
	"context"
	"net/http"
)

// Client is a composed Transport. Layers are built inner to outer so the
// call order is:
//
//	Logging -> Metrics -> Cache -> Retry -> CircuitBreaker -> RateLimit -> Base
//
// Logging sees the final outcome of retries and circuit rejections. The
// breaker sits beneath retry so every attempt counts toward its threshold.
type Client struct {
	top     Transport
	breaker *CircuitBreaker
	cache   *CacheTransport
}

var _ Transport = (*Client)(nil)

// New builds a client stack. Without options it has logging (to a no-op
// logger), retry and circuit breaking over an HTTPTransport.
func New(opts ...Option) *Client {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return build(cfg)
}

func build(cfg Config) *Client {
	c := &Client{}

	t := cfg.Base
	if t == nil {
		t = NewHTTPTransport(nil)
	}

	if cfg.RateLimit != nil {
		t = NewRateLimitTransport(t, *cfg.RateLimit)
	}
	if cfg.Breaker != nil {
		c.breaker = NewCircuitBreaker(t, *cfg.Breaker, cfg.Clock, cfg.Logger)
		if cfg.Metrics != nil {
			c.breaker.OnStateChange(cfg.Metrics.observeBreaker)
		}
		t = c.breaker
	}
	if cfg.Retry != nil {
		t = NewRetryTransport(t, *cfg.Retry, cfg.Clock, cfg.Logger)
	}
	if cfg.Store != nil {
		c.cache = NewCacheTransport(t, cfg.Store, cfg.Cache, cfg.Clock, cfg.Logger)
		if cfg.Metrics != nil {
			c.cache.onLookup = cfg.Metrics.observeCache
		}
		t = c.cache
	}
	if cfg.Metrics != nil {
		t = NewMetricsTransport(t, cfg.Metrics)
	}
	if cfg.Logging {
		t = NewLoggingTransport(t, cfg.Logger)
	}

	c.top = t
	return c
}

func (c *Client) Get(ctx context.Context, url string, header http.Header) (*Response, error) {
	return c.top.Get(ctx, url, header)
}

func (c *Client) Post(ctx context.Context, url string, body any, header http.Header) (*Response, error) {
	return c.top.Post(ctx, url, body, header)
}

// Breaker returns the circuit breaker layer, or nil when disabled.
func (c *Client) Breaker() *CircuitBreaker { return c.breaker }

// Cache returns the caching layer, or nil when no store was configured.
func (c *Client) Cache() *CacheTransport { return c.cache }
