package litcal

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/AnandSundar/go-litcal/clock"
)

const (
	// DefaultCacheTTL is the default time-to-live for cached responses
	DefaultCacheTTL = 1 * time.Hour
)

// representationHeaders change the body the API returns for the same URL.
var representationHeaders = []string{"Accept", "Accept-Language"}

// KeyFunc derives the cache key for a GET request.
type KeyFunc func(url string, header http.Header) string

// CacheConfig controls CacheTransport.
type CacheConfig struct {
	TTL     time.Duration
	KeyFunc KeyFunc
}

// CacheTransport serves GET responses from a Store. POST requests always
// pass through without touching the store.
type CacheTransport struct {
	next   Transport
	store  Store
	cfg    CacheConfig
	clock  clock.Clock
	logger *zap.Logger

	onLookup func(hit bool)
}

var _ Transport = (*CacheTransport)(nil)

// NewCacheTransport caches successful GET responses from next in store
func NewCacheTransport(next Transport, store Store, cfg CacheConfig, clk clock.Clock, logger *zap.Logger) *CacheTransport {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultCacheTTL
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = DefaultKeyFunc
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheTransport{next: next, store: store, cfg: cfg, clock: clk, logger: logger}
}

// DefaultKeyFunc hashes the URL together with the representation headers.
// Keys are bare hex digests; stores add their own namespace.
func DefaultKeyFunc(url string, header http.Header) string {
	h := sha256.New()
	h.Write([]byte(http.MethodGet))
	h.Write([]byte(url))
	for _, name := range representationHeaders {
		if value := headerValue(header, name); value != "" {
			h.Write([]byte("\n" + strings.ToLower(name) + ":" + value))
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

func headerValue(header http.Header, name string) string {
	for key, values := range header {
		if strings.EqualFold(key, name) {
			return strings.Join(values, ",")
		}
	}
	return ""
}

func (t *CacheTransport) Get(ctx context.Context, url string, header http.Header) (*Response, error) {
	key := t.cfg.KeyFunc(url, header)
	log := t.logger.With(zap.String("url", url), zap.String("cache_key", key))

	if resp, ok := t.lookup(ctx, key, log); ok {
		t.observe(true)
		return resp, nil
	}

	// Serialize fills for the same key when the store supports it
	if locker, ok := t.store.(Locker); ok {
		unlock, err := locker.Lock(ctx, key)
		switch {
		case errors.Is(err, ErrRequestInProgress):
			log.Debug("cache fill in progress, bypassing cache")
			t.observe(false)
			return t.next.Get(ctx, url, header)
		case err != nil:
			log.Warn("cache lock failed", zap.Error(err))
		default:
			defer unlock()
			if resp, ok := t.lookup(ctx, key, log); ok {
				t.observe(true)
				return resp, nil
			}
		}
	}
	t.observe(false)

	resp, err := t.next.Get(ctx, url, header)
	if err != nil {
		return nil, err
	}

	if resp.IsSuccess() {
		if err := t.store.Set(ctx, key, NewCachedResponse(resp, t.clock.Now()), t.cfg.TTL); err != nil {
			log.Warn("cache write failed", zap.Error(err))
		}
	}
	return resp, nil
}

// lookup reads key from the store; hit and miss are counted by the caller.
func (t *CacheTransport) lookup(ctx context.Context, key string, log *zap.Logger) (*Response, bool) {
	cached, err := t.store.Get(ctx, key)
	if err == nil && cached != nil {
		log.Debug("cache hit", zap.Time("cached_at", cached.Timestamp))
		return cached.Response(), true
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		log.Warn("cache read failed", zap.Error(err))
	}
	log.Debug("cache miss")
	return nil, false
}

func (t *CacheTransport) observe(hit bool) {
	if t.onLookup != nil {
		t.onLookup(hit)
	}
}

// Post bypasses the cache entirely.
func (t *CacheTransport) Post(ctx context.Context, url string, body any, header http.Header) (*Response, error) {
	return t.next.Post(ctx, url, body, header)
}

// Cached reports whether a GET for url and header would be served from the store.
func (t *CacheTransport) Cached(ctx context.Context, url string, header http.Header) (bool, error) {
	return t.store.Has(ctx, t.cfg.KeyFunc(url, header))
}
