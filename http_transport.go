package litcal

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultTimeout bounds one exchange of the default base transports
	DefaultTimeout   = 30 * time.Second
	defaultUserAgent = "go-litcal/0.1"
)

// HTTPDoer abstracts *http.Client for testability.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPTransport performs exactly one network exchange per call.
type HTTPTransport struct {
	client    HTTPDoer
	userAgent string
}

var _ Transport = (*HTTPTransport)(nil)

// NewHTTPTransport wraps client, or an *http.Client with DefaultTimeout
// when client is nil.
func NewHTTPTransport(client HTTPDoer) *HTTPTransport {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &HTTPTransport{client: client, userAgent: defaultUserAgent}
}

func (t *HTTPTransport) Get(ctx context.Context, url string, header http.Header) (*Response, error) {
	return t.do(ctx, http.MethodGet, url, nil, cloneHeader(header))
}

func (t *HTTPTransport) Post(ctx context.Context, url string, body any, header http.Header) (*Response, error) {
	payload, h, err := encodeBody(body, header)
	if err != nil {
		return nil, err
	}
	return t.do(ctx, http.MethodPost, url, payload, h)
}

func (t *HTTPTransport) do(ctx context.Context, method, url string, payload []byte, header http.Header) (*Response, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, newTransportError(method, url, fmt.Errorf("create request: %w", err))
	}
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", t.userAgent)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, newTransportError(method, url, fmt.Errorf("execute request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newTransportError(method, url, fmt.Errorf("read response: %w", err))
	}

	return NewResponse(resp.StatusCode, resp.Header, body), nil
}
