package litcal

import (
	"context"
	"net/http"
	"time"
)

// Store defines the interface for storing and retrieving cached responses
type Store interface {
	// Get retrieves a cached response by key, or ErrNotFound
	Get(ctx context.Context, key string) (*CachedResponse, error)

	// Set stores a response with the given key and TTL
	Set(ctx context.Context, key string, response *CachedResponse, ttl time.Duration) error

	// Has reports whether an unexpired response exists for key
	Has(ctx context.Context, key string) (bool, error)
}

// Locker is implemented by stores that can serialize cache fills per key.
type Locker interface {
	// Lock acquires a lock for the given key to prevent concurrent fills
	// Returns an unlock function that must be called to release the lock
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// CachedResponse represents a cached HTTP response
type CachedResponse struct {
	StatusCode int         `json:"status_code"`
	Headers    http.Header `json:"headers"`
	Body       []byte      `json:"body"`
	Timestamp  time.Time   `json:"timestamp"`
}

// NewCachedResponse snapshots resp for storage.
func NewCachedResponse(resp *Response, now time.Time) *CachedResponse {
	return &CachedResponse{
		StatusCode: resp.StatusCode(),
		Headers:    resp.Headers(),
		Body:       resp.Body(),
		Timestamp:  now,
	}
}

// Response rebuilds the stored Response.
func (c *CachedResponse) Response() *Response {
	return NewResponse(c.StatusCode, c.Headers, c.Body)
}
