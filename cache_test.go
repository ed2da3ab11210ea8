package litcal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnandSundar/go-litcal/clock"
)

// mapStore is a minimal Store keyed on the mock clock.
type mapStore struct {
	mu      sync.Mutex
	clock   clock.Clock
	entries map[string]mapEntry
	getErr  error
	setErr  error
	gets    int
	sets    int
}

type mapEntry struct {
	resp      *CachedResponse
	expiresAt time.Time
}

func newMapStore(clk clock.Clock) *mapStore {
	return &mapStore{clock: clk, entries: make(map[string]mapEntry)}
}

func (s *mapStore) Get(_ context.Context, key string) (*CachedResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.getErr != nil {
		return nil, s.getErr
	}
	e, ok := s.entries[key]
	if !ok || s.clock.Now().After(e.expiresAt) {
		return nil, ErrNotFound
	}
	return e.resp, nil
}

func (s *mapStore) Set(_ context.Context, key string, resp *CachedResponse, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets++
	if s.setErr != nil {
		return s.setErr
	}
	s.entries[key] = mapEntry{resp: resp, expiresAt: s.clock.Now().Add(ttl)}
	return nil
}

func (s *mapStore) Has(ctx context.Context, key string) (bool, error) {
	_, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// lockingStore adds a Locker that reports every key as busy.
type lockingStore struct {
	*mapStore
}

func (lockingStore) Lock(context.Context, string) (func(), error) {
	return nil, ErrRequestInProgress
}

// fillingStore simulates a concurrent fill completing while Lock waits.
type fillingStore struct {
	*mapStore
}

func (s fillingStore) Lock(ctx context.Context, key string) (func(), error) {
	err := s.Set(ctx, key, &CachedResponse{StatusCode: 200, Body: []byte("filled")}, time.Minute)
	return func() {}, err
}

func newTestCache(inner Transport, store Store, ttl time.Duration) (*CacheTransport, *clock.MockClock) {
	clk := clock.NewMock(testEpoch)
	if ms, ok := store.(*mapStore); ok {
		ms.clock = clk
	}
	return NewCacheTransport(inner, store, CacheConfig{TTL: ttl}, clk, nil), clk
}

func TestCache_SecondGetServedFromCache(t *testing.T) {
	stub := newStub(ok(200))
	ct, _ := newTestCache(stub, newMapStore(nil), time.Minute)
	ctx := context.Background()

	first, err := ct.Get(ctx, "http://api.test/calendars", nil)
	require.NoError(t, err)
	second, err := ct.Get(ctx, "http://api.test/calendars", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, stub.Calls())
	assert.Equal(t, first.StatusCode(), second.StatusCode())
	assert.Equal(t, first.Text(), second.Text())
	assert.Equal(t, "text/plain", second.Header("content-type"))
}

func TestCache_ExpiredEntryRefetches(t *testing.T) {
	stub := newStub(ok(200))
	ct, clk := newTestCache(stub, newMapStore(nil), time.Minute)
	ctx := context.Background()

	_, _ = ct.Get(ctx, "http://api.test/calendars", nil)
	clk.Advance(2 * time.Minute)
	_, _ = ct.Get(ctx, "http://api.test/calendars", nil)

	assert.Equal(t, 2, stub.Calls())
}

func TestCache_PostBypassesStore(t *testing.T) {
	stub := newStub(ok(200))
	store := newMapStore(nil)
	ct, _ := newTestCache(stub, store, time.Minute)
	ctx := context.Background()

	_, _ = ct.Get(ctx, "http://api.test/calendar", nil)
	getsBefore, setsBefore := store.gets, store.sets

	for i := 0; i < 3; i++ {
		_, err := ct.Post(ctx, "http://api.test/calendar", map[string]any{"year": 2026}, nil)
		require.NoError(t, err)
	}

	assert.Equal(t, 3, stub.posts)
	assert.Equal(t, getsBefore, store.gets)
	assert.Equal(t, setsBefore, store.sets)
}

func TestCache_OnlySuccessfulResponsesStored(t *testing.T) {
	stub := newStub(ok(500), ok(404), ok(200))
	ct, _ := newTestCache(stub, newMapStore(nil), time.Minute)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := ct.Get(ctx, "http://api.test/calendars", nil)
		require.NoError(t, err)
	}

	// 500, 404 and 200 reach the stub; the fourth call is a hit
	assert.Equal(t, 3, stub.Calls())
}

func TestCache_TransportErrorPropagates(t *testing.T) {
	stub := newStub(fail())
	store := newMapStore(nil)
	ct, _ := newTestCache(stub, store, time.Minute)

	_, err := ct.Get(context.Background(), "http://api.test/calendars", nil)

	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, 0, store.sets)
}

func TestCache_KeyVariesWithLanguage(t *testing.T) {
	stub := newStub(ok(200))
	ct, _ := newTestCache(stub, newMapStore(nil), time.Minute)
	ctx := context.Background()

	_, _ = ct.Get(ctx, "http://api.test/calendar", http.Header{"Accept-Language": {"en"}})
	_, _ = ct.Get(ctx, "http://api.test/calendar", http.Header{"Accept-Language": {"it"}})
	_, _ = ct.Get(ctx, "http://api.test/calendar", http.Header{"accept-language": {"en"}})
	_, _ = ct.Get(ctx, "http://api.test/calendar", http.Header{"X-Trace": {"1"}, "Accept-Language": {"en"}})

	assert.Equal(t, 2, stub.Calls())
}

func TestCache_StoreErrorsDegradeToPassThrough(t *testing.T) {
	stub := newStub(ok(200))
	store := newMapStore(nil)
	store.getErr = errors.New("connection reset")
	store.setErr = errors.New("connection reset")
	ct, _ := newTestCache(stub, store, time.Minute)

	for i := 0; i < 2; i++ {
		resp, err := ct.Get(context.Background(), "http://api.test/calendars", nil)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode())
	}
	assert.Equal(t, 2, stub.Calls())
}

func TestCache_BusyLockBypassesCache(t *testing.T) {
	stub := newStub(ok(200))
	store := lockingStore{newMapStore(nil)}
	ct, _ := newTestCache(stub, store.mapStore, time.Minute)
	ct.store = store

	_, err := ct.Get(context.Background(), "http://api.test/calendars", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, stub.Calls())
	assert.Equal(t, 0, store.sets)
}

func TestCache_Cached(t *testing.T) {
	stub := newStub(ok(200))
	ct, _ := newTestCache(stub, newMapStore(nil), time.Minute)
	ctx := context.Background()

	cached, err := ct.Cached(ctx, "http://api.test/calendars", nil)
	require.NoError(t, err)
	assert.False(t, cached)

	_, _ = ct.Get(ctx, "http://api.test/calendars", nil)

	cached, err = ct.Cached(ctx, "http://api.test/calendars", nil)
	require.NoError(t, err)
	assert.True(t, cached)
}

func TestCache_LookupHook(t *testing.T) {
	stub := newStub(ok(200))
	ct, _ := newTestCache(stub, newMapStore(nil), time.Minute)
	var hits, misses int
	ct.onLookup = func(hit bool) {
		if hit {
			hits++
		} else {
			misses++
		}
	}

	_, _ = ct.Get(context.Background(), "http://api.test/calendars", nil)
	_, _ = ct.Get(context.Background(), "http://api.test/calendars", nil)

	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)
}

func TestDefaultKeyFunc(t *testing.T) {
	a := DefaultKeyFunc("http://api.test/calendar", nil)
	b := DefaultKeyFunc("http://api.test/calendar", http.Header{"Authorization": {"Bearer x"}})
	c := DefaultKeyFunc("http://api.test/calendar?year=2026", nil)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
	assert.NotContains(t, a, ":")
}

func TestCache_HitAfterLockCountsOnce(t *testing.T) {
	stub := newStub(ok(200))
	ms := newMapStore(nil)
	ct, _ := newTestCache(stub, ms, time.Minute)
	ct.store = fillingStore{ms}
	var hits, misses int
	ct.onLookup = func(hit bool) {
		if hit {
			hits++
		} else {
			misses++
		}
	}

	resp, err := ct.Get(context.Background(), "http://api.test/calendars", nil)
	require.NoError(t, err)

	assert.Equal(t, "filled", resp.Text())
	assert.Equal(t, 0, stub.Calls())
	assert.Equal(t, 1, hits)
	assert.Equal(t, 0, misses)
}
