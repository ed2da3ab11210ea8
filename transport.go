// Package litcal provides a composable HTTP client stack for the Liturgical
// Calendar API. A base Transport performs single requests; decorators add
// retry with backoff, circuit breaking, response caching, rate limiting,
// metrics and structured logging. New assembles them in a fixed order.
package litcal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Transport performs GET and POST exchanges. Every decorator in this
// package implements Transport and wraps exactly one inner Transport.
type Transport interface {
	Get(ctx context.Context, url string, header http.Header) (*Response, error)
	// Post sends body as-is when it is a string or []byte. Any other value
	// is JSON-encoded and sent as application/json unless the caller set a
	// Content-Type.
	Post(ctx context.Context, url string, body any, header http.Header) (*Response, error)
}

const contentTypeJSON = "application/json"

// encodeBody returns the payload and a header set ready to send. The
// caller's header is never modified.
func encodeBody(body any, header http.Header) ([]byte, http.Header, error) {
	out := cloneHeader(header)
	switch b := body.(type) {
	case nil:
		return nil, out, nil
	case string:
		return []byte(b), out, nil
	case []byte:
		return b, out, nil
	default:
		payload, err := json.Marshal(b)
		if err != nil {
			return nil, nil, fmt.Errorf("encode request body: %w", err)
		}
		if !hasHeader(out, "Content-Type") {
			out.Set("Content-Type", contentTypeJSON)
		}
		return payload, out, nil
	}
}

// hasHeader looks name up without assuming the map keys were canonicalized.
func hasHeader(header http.Header, name string) bool {
	for key := range header {
		if strings.EqualFold(key, name) {
			return true
		}
	}
	return false
}

func cloneHeader(header http.Header) http.Header {
	if header == nil {
		return make(http.Header)
	}
	return header.Clone()
}
