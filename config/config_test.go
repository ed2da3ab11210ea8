package config

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	litcal "github.com/AnandSundar/go-litcal"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "https://litcal.johnromanodorazio.com/api/dev", cfg.BaseURL)
	assert.Equal(t, time.Second, cfg.Retry.BaseDelay.Std())
	assert.Equal(t, time.Hour, cfg.Cache.TTL.Std())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
base_url = "https://example.test/api/v4"
transport = "stream"
log_level = "debug"

[retry]
enabled = true
max_retries = 5
base_delay = "250ms"
exponential = false

[breaker]
failure_threshold = 3
recovery_timeout = "2m"

[cache]
backend = "none"
ttl = "10m"

[rate_limit]
per_second = 2.5
burst = 4
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://example.test/api/v4", cfg.BaseURL)
	assert.Equal(t, "stream", cfg.Transport)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5, cfg.Retry.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.BaseDelay.Std())
	assert.False(t, cfg.Retry.Exponential)
	assert.Equal(t, 3, cfg.Breaker.FailureThreshold)
	assert.Equal(t, 2, cfg.Breaker.SuccessThreshold)
	assert.Equal(t, 2*time.Minute, cfg.Breaker.RecoveryTimeout.Std())
	assert.Equal(t, "none", cfg.Cache.Backend)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL.Std())
	assert.Equal(t, 2.5, cfg.RateLimit.PerSecond)
	assert.Equal(t, 4, cfg.RateLimit.Burst)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
base_url = "https://file.test"
[retry]
max_retries = 5
`)
	t.Setenv("LITCAL_BASE_URL", "https://env.test")
	t.Setenv("LITCAL_MAX_RETRIES", "1")
	t.Setenv("LITCAL_BREAKER_ENABLED", "false")
	t.Setenv("LITCAL_CACHE_TTL", "30s")
	t.Setenv("LITCAL_RATE_LIMIT", "10")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://env.test", cfg.BaseURL)
	assert.Equal(t, 1, cfg.Retry.MaxRetries)
	assert.False(t, cfg.Breaker.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL.Std())
	assert.Equal(t, 10.0, cfg.RateLimit.PerSecond)
}

func TestLoad_InvalidEnvDuration(t *testing.T) {
	t.Setenv("LITCAL_TIMEOUT", "soon")

	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "LITCAL_TIMEOUT")
}

func TestLoad_InvalidFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", `base_url = `},
		{"duration", "[retry]\nbase_delay = \"fast\""},
		{"backend", "[cache]\nbackend = \"memcached\""},
		{"redis without url", "[cache]\nbackend = \"redis\""},
		{"transport", `transport = "carrier-pigeon"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "warn"

	logger, err := cfg.NewLogger()
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))
	assert.True(t, logger.Core().Enabled(zap.WarnLevel))

	cfg.LogLevel = "loud"
	_, err = cfg.NewLogger()
	assert.Error(t, err)
}

func TestClientOptions_MemoryCacheAndMetrics(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	cfg := Default()
	cfg.Metrics.Enabled = true
	reg := prometheus.NewRegistry()

	opts, closeFn, err := cfg.ClientOptions(zap.NewNop(), reg)
	require.NoError(t, err)
	defer func() { _ = closeFn() }()

	client := litcal.New(opts...)
	for i := 0; i < 2; i++ {
		resp, err := client.Get(context.Background(), srv.URL, nil)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode())
	}

	assert.Equal(t, int32(1), hits.Load())
	assert.NotNil(t, client.Breaker())
	require.NotNil(t, client.Cache())

	count, err := testutil.GatherAndCount(reg, "litcal_cache_lookups_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestClientOptions_RedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "{}")
	}))
	defer srv.Close()

	cfg := Default()
	cfg.Cache.Backend = "redis"
	cfg.Cache.RedisURL = "redis://" + mr.Addr()

	opts, closeFn, err := cfg.ClientOptions(zap.NewNop(), nil)
	require.NoError(t, err)
	defer func() { _ = closeFn() }()

	client := litcal.New(opts...)
	_, err = client.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)

	cached, err := client.Cache().Cached(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.NotEmpty(t, mr.Keys())
}

func TestClientOptions_Disabled(t *testing.T) {
	cfg := Default()
	cfg.Retry.Enabled = false
	cfg.Breaker.Enabled = false
	cfg.Cache.Backend = "none"

	opts, closeFn, err := cfg.ClientOptions(zap.NewNop(), nil)
	require.NoError(t, err)
	require.NoError(t, closeFn())

	client := litcal.New(opts...)
	assert.Nil(t, client.Breaker())
	assert.Nil(t, client.Cache())
}
