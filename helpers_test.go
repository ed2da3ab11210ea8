package litcal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// outcome is one scripted result of stubTransport.
type outcome struct {
	status int
	body   string
	err    error
}

func ok(status int) outcome { return outcome{status: status, body: "ok"} }

func fail() outcome {
	return outcome{err: newTransportError(http.MethodGet, "http://api.test", errors.New("connection refused"))}
}

// stubTransport replays outcomes in order and repeats the last one.
type stubTransport struct {
	mu       sync.Mutex
	outcomes []outcome
	calls    int
	gets     int
	posts    int
	lastBody any
	lastHdr  http.Header
}

func newStub(outcomes ...outcome) *stubTransport {
	return &stubTransport{outcomes: outcomes}
}

func (s *stubTransport) next() (*Response, error) {
	s.calls++
	idx := s.calls - 1
	if idx >= len(s.outcomes) {
		idx = len(s.outcomes) - 1
	}
	o := s.outcomes[idx]
	if o.err != nil {
		return nil, o.err
	}
	return NewResponse(o.status, http.Header{"Content-Type": {"text/plain"}}, []byte(o.body)), nil
}

func (s *stubTransport) Get(_ context.Context, _ string, header http.Header) (*Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	s.lastHdr = header
	return s.next()
}

func (s *stubTransport) Post(_ context.Context, _ string, body any, header http.Header) (*Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts++
	s.lastBody = body
	s.lastHdr = header
	return s.next()
}

func (s *stubTransport) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

var testEpoch = time.Date(2026, 1, 11, 12, 0, 0, 0, time.UTC)
