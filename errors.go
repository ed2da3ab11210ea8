package litcal

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrRequestInProgress is returned by a Locker when another caller already holds the key
	ErrRequestInProgress = errors.New("request with this cache key is already in progress")

	// ErrNotFound is returned when a cached response is not found
	ErrNotFound = errors.New("cached response not found")

	// ErrTransport matches every network-level failure, including circuit rejections
	ErrTransport = errors.New("transport failure")

	// ErrCircuitOpen matches calls rejected by an open circuit breaker
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// TransportError reports a failed exchange with the remote API.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// CircuitOpenError is returned without contacting the remote API while the
// breaker is open. It matches both ErrCircuitOpen and ErrTransport.
type CircuitOpenError struct {
	Method     string
	URL        string
	OpenedAt   time.Time
	RetryAfter time.Duration
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("%s %s: service unavailable: circuit breaker open, retry after %s",
		e.Method, e.URL, e.RetryAfter)
}

func (e *CircuitOpenError) Is(target error) bool {
	return target == ErrCircuitOpen || target == ErrTransport
}

func newTransportError(method, url string, err error) *TransportError {
	return &TransportError{Method: method, URL: url, Err: err}
}
