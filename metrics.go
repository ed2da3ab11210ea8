package litcal

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for a client stack.
//
//   - requests_total: completed exchanges by method and status code
//   - request_duration_seconds: end-to-end latency including retries
//   - request_errors_total: failed calls by kind (transport, circuit_open, other)
//   - cache_lookups_total: GET cache hits and misses
//   - circuit_breaker_state: 0=closed, 1=half-open, 2=open
type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Errors          *prometheus.CounterVec
	CacheLookups    *prometheus.CounterVec
	BreakerState    prometheus.Gauge
}

// NewMetrics registers the collectors on reg, or on the default registerer
// when reg is nil. The namespace prefixes all metric names.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of API requests by method and status code",
		}, []string{"method", "code"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Duration of API requests in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"method"}),
		Errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_errors_total",
			Help:      "Total number of API requests that returned an error",
		}, []string{"method", "kind"}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Total number of response cache lookups by result",
		}, []string{"result"}),
		BreakerState: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Current state of the circuit breaker (0=closed, 1=half-open, 2=open)",
		}),
	}
}

func (m *Metrics) observeCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) observeBreaker(_, to BreakerState) {
	m.BreakerState.Set(stateToFloat(to))
}

func stateToFloat(s BreakerState) float64 {
	switch s {
	case StateHalfOpen:
		return 1
	case StateOpen:
		return 2
	default:
		return 0
	}
}

// MetricsTransport records request counts, latency and errors.
type MetricsTransport struct {
	next    Transport
	metrics *Metrics
}

var _ Transport = (*MetricsTransport)(nil)

// NewMetricsTransport records every call through next in metrics
func NewMetricsTransport(next Transport, metrics *Metrics) *MetricsTransport {
	return &MetricsTransport{next: next, metrics: metrics}
}

func (t *MetricsTransport) Get(ctx context.Context, url string, header http.Header) (*Response, error) {
	start := time.Now()
	resp, err := t.next.Get(ctx, url, header)
	t.record(http.MethodGet, start, resp, err)
	return resp, err
}

func (t *MetricsTransport) Post(ctx context.Context, url string, body any, header http.Header) (*Response, error) {
	start := time.Now()
	resp, err := t.next.Post(ctx, url, body, header)
	t.record(http.MethodPost, start, resp, err)
	return resp, err
}

func (t *MetricsTransport) record(method string, start time.Time, resp *Response, err error) {
	t.metrics.RequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		t.metrics.Errors.WithLabelValues(method, errorKind(err)).Inc()
		return
	}
	t.metrics.Requests.WithLabelValues(method, strconv.Itoa(resp.StatusCode())).Inc()
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, ErrTransport):
		return "transport"
	default:
		return "other"
	}
}
