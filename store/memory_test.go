package store

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	litcal "github.com/AnandSundar/go-litcal"
)

func newTestMemoryStore(t *testing.T) *MemoryStore {
	store := NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestMemoryStore_SetAndGet(t *testing.T) {
	store := newTestMemoryStore(t)
	ctx := context.Background()

	response := &litcal.CachedResponse{
		StatusCode: 200,
		Headers:    http.Header{"Content-Type": []string{"application/json"}},
		Body:       []byte(`{"litcal_metadata":{}}`),
		Timestamp:  time.Now(),
	}

	err := store.Set(ctx, "test-key", response, 1*time.Hour)
	require.NoError(t, err)

	cached, err := store.Get(ctx, "test-key")
	require.NoError(t, err)
	assert.Equal(t, response.StatusCode, cached.StatusCode)
	assert.Equal(t, response.Body, cached.Body)

	ok, err := store.Has(ctx, "test-key")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStore_GetNotFound(t *testing.T) {
	store := newTestMemoryStore(t)

	_, err := store.Get(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, litcal.ErrNotFound)

	ok, err := store.Has(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_Expiration(t *testing.T) {
	store := newTestMemoryStore(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 11, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	response := &litcal.CachedResponse{
		StatusCode: 200,
		Body:       []byte(`{"success":true}`),
	}

	err := store.Set(ctx, "test-key", response, 100*time.Millisecond)
	require.NoError(t, err)

	now = now.Add(150 * time.Millisecond)

	_, err = store.Get(ctx, "test-key")
	assert.ErrorIs(t, err, litcal.ErrNotFound)

	store.purgeExpired()
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_Lock(t *testing.T) {
	store := newTestMemoryStore(t)
	ctx := context.Background()

	unlock1, err := store.Lock(ctx, "test-key")
	require.NoError(t, err)

	// Second lock should fail
	_, err = store.Lock(ctx, "test-key")
	assert.ErrorIs(t, err, litcal.ErrRequestInProgress)

	unlock1()

	// After unlock, should succeed
	unlock2, err := store.Lock(ctx, "test-key")
	require.NoError(t, err)
	unlock2()
}

func TestMemoryStore_CloseIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
