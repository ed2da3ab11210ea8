// Package clock abstracts time so breaker recovery and retry backoff can be
// driven deterministically in tests.
package clock

import (
	"sync"
	"time"
)

// Clock is the time source for backoff waits and breaker recovery
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// RealClock uses the time package
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

func (RealClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// MockClock never blocks. After advances the clock by d, fires at once and
// records d so tests can assert the requested waits.
type MockClock struct {
	mu      sync.Mutex
	NowTime time.Time
	waits   []time.Duration
}

// NewMock returns a MockClock set to now
func NewMock(now time.Time) *MockClock {
	return &MockClock{NowTime: now}
}

func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.NowTime
}

func (m *MockClock) After(d time.Duration) <-chan time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.waits = append(m.waits, d)
	m.NowTime = m.NowTime.Add(d)
	ch := make(chan time.Time, 1)
	ch <- m.NowTime
	return ch
}

// Advance moves the clock forward by d without recording a wait
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NowTime = m.NowTime.Add(d)
}

// Waits returns every duration passed to After, in order.
func (m *MockClock) Waits() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.waits...)
}
