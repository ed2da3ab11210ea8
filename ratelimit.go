package litcal

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimitConfig paces outgoing exchanges with a token bucket. A
// PerSecond of zero or less disables pacing.
type RateLimitConfig struct {
	PerSecond float64
	Burst     int
}

// RateLimitTransport waits for a token before every exchange. It sits
// directly above the base transport so retries are paced too.
type RateLimitTransport struct {
	next    Transport
	limiter *rate.Limiter
}

var _ Transport = (*RateLimitTransport)(nil)

// NewRateLimitTransport paces next according to cfg.
func NewRateLimitTransport(next Transport, cfg RateLimitConfig) *RateLimitTransport {
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Limit(cfg.PerSecond)
	if cfg.PerSecond <= 0 {
		limit = rate.Inf
	}
	return &RateLimitTransport{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (t *RateLimitTransport) Get(ctx context.Context, url string, header http.Header) (*Response, error) {
	if err := t.wait(ctx, http.MethodGet, url); err != nil {
		return nil, err
	}
	return t.next.Get(ctx, url, header)
}

func (t *RateLimitTransport) Post(ctx context.Context, url string, body any, header http.Header) (*Response, error) {
	if err := t.wait(ctx, http.MethodPost, url); err != nil {
		return nil, err
	}
	return t.next.Post(ctx, url, body, header)
}

func (t *RateLimitTransport) wait(ctx context.Context, method, url string) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return newTransportError(method, url, fmt.Errorf("rate limit: %w", err))
	}
	return nil
}
