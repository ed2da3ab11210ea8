package litcal

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const redacted = "[REDACTED]"

var sensitiveHeaders = map[string]struct{}{
	"authorization":       {},
	"proxy-authorization": {},
	"cookie":              {},
	"set-cookie":          {},
	"x-api-key":           {},
	"api-key":             {},
	"x-auth-token":        {},
}

// LoggingTransport records a structured event before and after every call.
// It never alters the response or the returned error.
type LoggingTransport struct {
	next   Transport
	logger *zap.Logger
}

var _ Transport = (*LoggingTransport)(nil)

// NewLoggingTransport wraps next; a nil logger disables output
func NewLoggingTransport(next Transport, logger *zap.Logger) *LoggingTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingTransport{next: next, logger: logger}
}

func (t *LoggingTransport) Get(ctx context.Context, url string, header http.Header) (*Response, error) {
	return t.observe(http.MethodGet, url, header, func() (*Response, error) {
		return t.next.Get(ctx, url, header)
	})
}

func (t *LoggingTransport) Post(ctx context.Context, url string, body any, header http.Header) (*Response, error) {
	return t.observe(http.MethodPost, url, header, func() (*Response, error) {
		return t.next.Post(ctx, url, body, header)
	})
}

func (t *LoggingTransport) observe(method, url string, header http.Header, call func() (*Response, error)) (*Response, error) {
	log := t.logger.With(
		zap.String("request_id", uuid.NewString()),
		zap.String("method", method),
		zap.String("url", url),
	)
	log.Debug("http request", zap.Any("headers", SanitizeHeaders(header)))

	start := time.Now()
	resp, err := call()
	duration := time.Since(start)

	if err != nil {
		log.Error("http request failed",
			zap.Error(err),
			zap.Bool("circuit_open", errors.Is(err, ErrCircuitOpen)),
			zap.Duration("duration", duration),
		)
		return resp, err
	}

	log.Info("http response",
		zap.Int("status", resp.StatusCode()),
		zap.Duration("duration", duration),
		zap.Int("size", resp.Size()),
	)
	return resp, nil
}

// SanitizeHeaders flattens header for logging with credentials redacted.
func SanitizeHeaders(header http.Header) map[string]string {
	out := make(map[string]string, len(header))
	for key, values := range header {
		if _, ok := sensitiveHeaders[strings.ToLower(key)]; ok {
			out[key] = redacted
			continue
		}
		out[key] = strings.Join(values, ", ")
	}
	return out
}
