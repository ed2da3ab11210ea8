package litcal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/AnandSundar/go-litcal/clock"
)

// Circuit Breaker
//
// The breaker stops calling a failing API for a cooldown period. It has
// three states:
//
//   - Closed: Normal operation, requests pass through.
//   - Open: The API is failing, requests are rejected immediately.
//   - Half-Open: Probing recovery, requests pass through.
//
// State transitions:
//
//	[Closed] ---(FailureThreshold consecutive failures)---> [Open]
//	[Open] ---(RecoveryTimeout elapsed, checked on next call)---> [Half-Open]
//	[Half-Open] ---(SuccessThreshold consecutive successes)---> [Closed]
//	[Half-Open] ---(any failure)---> [Open]
//
// There is no timer: an open circuit stays open until a call arrives after
// the recovery timeout.

// BreakerConfig defines the circuit breaker behavior.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens the circuit
	FailureThreshold int
	// SuccessThreshold is the number of successes in half-open that closes the circuit
	SuccessThreshold int
	// RecoveryTimeout is how long the circuit stays open before probing
	RecoveryTimeout time.Duration
	// IsFailure classifies an outcome; nil counts errors and 5xx responses
	IsFailure func(resp *Response, err error) bool
}

// DefaultBreakerConfig opens after 5 failures and recovers after 60s
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		RecoveryTimeout:  60 * time.Second,
	}
}

// BreakerState represents the current state of a circuit breaker.
type BreakerState string

const (
	// StateClosed passes every call through
	StateClosed BreakerState = "closed"
	// StateOpen rejects calls until the recovery timeout elapses
	StateOpen BreakerState = "open"
	// StateHalfOpen lets calls through to test recovery
	StateHalfOpen BreakerState = "half-open"
)

// CircuitBreaker is a Transport decorator that fails fast while its circuit
// is open. State is guarded by a mutex; the inner call runs unlocked.
type CircuitBreaker struct {
	next   Transport
	cfg    BreakerConfig
	clock  clock.Clock
	logger *zap.Logger

	mu          sync.Mutex
	state       BreakerState
	failures    int
	successes   int
	lastFailure time.Time

	onStateChange func(from, to BreakerState)
}

var _ Transport = (*CircuitBreaker)(nil)

// NewCircuitBreaker wraps next; zero config fields take the defaults
func NewCircuitBreaker(next Transport, cfg BreakerConfig, clk clock.Clock, logger *zap.Logger) *CircuitBreaker {
	defaults := DefaultBreakerConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = defaults.FailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = defaults.SuccessThreshold
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = defaults.RecoveryTimeout
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = defaultIsFailure
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CircuitBreaker{
		next:   next,
		cfg:    cfg,
		clock:  clk,
		logger: logger,
		state:  StateClosed,
	}
}

func defaultIsFailure(resp *Response, err error) bool {
	if err != nil {
		return true
	}
	return resp.StatusCode() >= http.StatusInternalServerError
}

// OnStateChange registers a callback for state transitions. It runs while
// the breaker lock is held and must not call back into the breaker.
func (b *CircuitBreaker) OnStateChange(fn func(from, to BreakerState)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onStateChange = fn
}

func (b *CircuitBreaker) Get(ctx context.Context, url string, header http.Header) (*Response, error) {
	return b.execute(http.MethodGet, url, func() (*Response, error) {
		return b.next.Get(ctx, url, header)
	})
}

func (b *CircuitBreaker) Post(ctx context.Context, url string, body any, header http.Header) (*Response, error) {
	return b.execute(http.MethodPost, url, func() (*Response, error) {
		return b.next.Post(ctx, url, body, header)
	})
}

func (b *CircuitBreaker) execute(method, url string, call func() (*Response, error)) (*Response, error) {
	if err := b.allow(method, url); err != nil {
		return nil, err
	}

	resp, err := call()

	// Caller errors such as an unencodable body say nothing about the API.
	if err != nil && !errors.Is(err, ErrTransport) {
		return nil, err
	}

	if b.cfg.IsFailure(resp, err) {
		b.recordFailure()
	} else {
		b.recordSuccess()
	}
	return resp, err
}

func (b *CircuitBreaker) allow(method, url string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateOpen {
		return nil
	}

	elapsed := b.clock.Now().Sub(b.lastFailure)
	if elapsed >= b.cfg.RecoveryTimeout {
		b.successes = 0
		b.transition(StateHalfOpen)
		return nil
	}

	return &CircuitOpenError{
		Method:     method,
		URL:        url,
		OpenedAt:   b.lastFailure,
		RetryAfter: b.cfg.RecoveryTimeout - elapsed,
	}
}

func (b *CircuitBreaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateHalfOpen:
		b.successes++
		if b.successes >= b.cfg.SuccessThreshold {
			b.failures = 0
			b.successes = 0
			b.lastFailure = time.Time{}
			b.transition(StateClosed)
		}
	case StateClosed:
		b.failures = 0
	}
}

func (b *CircuitBreaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateHalfOpen:
		b.successes = 0
		b.lastFailure = b.clock.Now()
		b.transition(StateOpen)
	case StateClosed:
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.lastFailure = b.clock.Now()
			b.transition(StateOpen)
		}
	}
}

// transition must be called with b.mu held.
func (b *CircuitBreaker) transition(to BreakerState) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	b.logger.Warn("circuit breaker state changed",
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.Int("failures", b.failures),
	)
	if b.onStateChange != nil {
		b.onStateChange(from, to)
	}
}

// State returns the current state. An open circuit whose recovery timeout
// has elapsed still reports open until the next call.
func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Failures returns the consecutive failure count.
func (b *CircuitBreaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// Successes returns the consecutive success count in half-open.
func (b *CircuitBreaker) Successes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.successes
}

// Reset forces the breaker closed with all counters cleared.
func (b *CircuitBreaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.successes = 0
	b.lastFailure = time.Time{}
	b.transition(StateClosed)
}
