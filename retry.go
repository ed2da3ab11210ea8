package litcal

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/AnandSundar/go-litcal/clock"
)

// RetryConfig controls RetryTransport.
//
// MaxRetries is the number of retries after the first attempt.
// BaseDelay is the wait before the first retry.
// Exponential doubles the wait for every further retry.
// RetryableStatuses lists response codes that trigger a retry.
type RetryConfig struct {
	MaxRetries        int
	BaseDelay         time.Duration
	Exponential       bool
	RetryableStatuses []int
}

// DefaultRetryConfig retries 3 times from 1s with doubling waits
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:  3,
		BaseDelay:   1 * time.Second,
		Exponential: true,
		RetryableStatuses: []int{
			http.StatusRequestTimeout,
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
	}
}

// Delay returns the wait before retry attempt (1-based).
func (c RetryConfig) Delay(attempt int) time.Duration {
	if !c.Exponential || attempt <= 1 {
		return c.BaseDelay
	}
	return time.Duration(float64(c.BaseDelay) * math.Pow(2, float64(attempt-1)))
}

// RetryTransport re-issues a request after transport errors and retryable
// status codes.
//
// Exhaustion is deliberately asymmetric: when the last attempt fails with a
// TransportError that error is returned, but when it yields a retryable
// status the response itself is returned with a nil error.
type RetryTransport struct {
	next      Transport
	cfg       RetryConfig
	retryable map[int]struct{}
	clock     clock.Clock
	logger    *zap.Logger
}

var _ Transport = (*RetryTransport)(nil)

// NewRetryTransport wraps next with retry and backoff
func NewRetryTransport(next Transport, cfg RetryConfig, clk clock.Clock, logger *zap.Logger) *RetryTransport {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	statuses := cfg.RetryableStatuses
	if statuses == nil {
		statuses = DefaultRetryConfig().RetryableStatuses
	}
	retryable := make(map[int]struct{}, len(statuses))
	for _, code := range statuses {
		retryable[code] = struct{}{}
	}
	return &RetryTransport{
		next:      next,
		cfg:       cfg,
		retryable: retryable,
		clock:     clk,
		logger:    logger,
	}
}

func (t *RetryTransport) Get(ctx context.Context, url string, header http.Header) (*Response, error) {
	return t.execute(ctx, http.MethodGet, url, func() (*Response, error) {
		return t.next.Get(ctx, url, header)
	})
}

func (t *RetryTransport) Post(ctx context.Context, url string, body any, header http.Header) (*Response, error) {
	return t.execute(ctx, http.MethodPost, url, func() (*Response, error) {
		return t.next.Post(ctx, url, body, header)
	})
}

func (t *RetryTransport) execute(ctx context.Context, method, url string, call func() (*Response, error)) (*Response, error) {
	log := t.logger.With(zap.String("method", method), zap.String("url", url))

	for attempt := 0; ; attempt++ {
		resp, err := call()

		if err != nil {
			if !retryableError(err) {
				return nil, err
			}
			if attempt >= t.cfg.MaxRetries {
				log.Error("retries exhausted",
					zap.Int("attempts", attempt+1),
					zap.Error(err),
				)
				return nil, err
			}
			delay := t.cfg.Delay(attempt + 1)
			log.Warn("retrying request after transport error",
				zap.Int("attempt", attempt+1),
				zap.Int("max_retries", t.cfg.MaxRetries),
				zap.Duration("delay", delay),
				zap.Error(err),
			)
			if err := t.wait(ctx, delay); err != nil {
				return nil, err
			}
			continue
		}

		if _, ok := t.retryable[resp.StatusCode()]; ok {
			if attempt >= t.cfg.MaxRetries {
				log.Error("retries exhausted",
					zap.Int("attempts", attempt+1),
					zap.Int("status", resp.StatusCode()),
				)
				return resp, nil
			}
			delay := t.cfg.Delay(attempt + 1)
			log.Warn("retrying request after retryable status",
				zap.Int("attempt", attempt+1),
				zap.Int("max_retries", t.cfg.MaxRetries),
				zap.Duration("delay", delay),
				zap.Int("status", resp.StatusCode()),
			)
			if err := t.wait(ctx, delay); err != nil {
				return nil, err
			}
			continue
		}

		if attempt > 0 {
			log.Info("request succeeded after retries",
				zap.Int("attempts", attempt+1),
				zap.Int("status", resp.StatusCode()),
			)
		}
		return resp, nil
	}
}

func (t *RetryTransport) wait(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.clock.After(d):
		return nil
	}
}

// Open circuits are transport errors too, so a backoff may outlast the
// breaker's recovery timeout.
func retryableError(err error) bool {
	return errors.Is(err, ErrTransport)
}
