package litcal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// FetchFunc is the minimal primitive behind StreamTransport. It performs one
// exchange and returns the raw response header lines, status line first
// when the scheme has one, together with the body. Redirect chains may
// report several status lines; the last one wins.
type FetchFunc func(ctx context.Context, method, rawURL string, header http.Header, body []byte) (lines []string, payload []byte, err error)

// StreamTransport is the fallback base transport for environments where a
// full HTTP client is not wanted. It also reads non-HTTP URLs such as
// file:// and reports them with a synthesized 200 status.
type StreamTransport struct {
	fetch FetchFunc
}

var _ Transport = (*StreamTransport)(nil)

// NewStreamTransport uses fetch, or the built-in file/http primitive when nil.
func NewStreamTransport(fetch FetchFunc) *StreamTransport {
	if fetch == nil {
		fetch = defaultFetch
	}
	return &StreamTransport{fetch: fetch}
}

func (t *StreamTransport) Get(ctx context.Context, rawURL string, header http.Header) (*Response, error) {
	return t.do(ctx, http.MethodGet, rawURL, nil, cloneHeader(header))
}

func (t *StreamTransport) Post(ctx context.Context, rawURL string, body any, header http.Header) (*Response, error) {
	payload, h, err := encodeBody(body, header)
	if err != nil {
		return nil, err
	}
	return t.do(ctx, http.MethodPost, rawURL, payload, h)
}

func (t *StreamTransport) do(ctx context.Context, method, rawURL string, payload []byte, header http.Header) (*Response, error) {
	lines, body, err := t.fetch(ctx, method, rawURL, header, payload)
	if err != nil {
		return nil, newTransportError(method, rawURL, err)
	}

	status, respHeader, err := parseHeaderLines(lines)
	if err != nil {
		return nil, newTransportError(method, rawURL, err)
	}
	if status == 0 {
		if isHTTPURL(rawURL) {
			return nil, newTransportError(method, rawURL, errors.New("no HTTP status line in response"))
		}
		status = http.StatusOK
	}
	return NewResponse(status, respHeader, body), nil
}

// parseHeaderLines returns 0 as status when no status line is present.
func parseHeaderLines(lines []string) (int, http.Header, error) {
	status := 0
	header := make(http.Header)
	for _, line := range lines {
		if strings.HasPrefix(line, "HTTP/") {
			fields := strings.Fields(line)
			if len(fields) < 2 {
				return 0, nil, fmt.Errorf("malformed status line %q", line)
			}
			code, err := strconv.Atoi(fields[1])
			if err != nil || code < 100 || code > 999 {
				return 0, nil, fmt.Errorf("malformed status line %q", line)
			}
			status = code
			// a new status line starts the headers of the next hop
			header = make(http.Header)
			continue
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	return status, header, nil
}

func isHTTPURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return strings.HasPrefix(strings.ToLower(rawURL), "http")
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func defaultFetch(ctx context.Context, method, rawURL string, header http.Header, body []byte) ([]string, []byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse url: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		if method != http.MethodGet {
			return nil, nil, fmt.Errorf("%s not supported for file urls", method)
		}
		data, err := os.ReadFile(u.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("read file: %w", err)
		}
		return nil, data, nil
	case "http", "https":
		return fetchHTTP(ctx, method, rawURL, header, body)
	default:
		return nil, nil, fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
}

func fetchHTTP(ctx context.Context, method, rawURL string, header http.Header, body []byte) ([]string, []byte, error) {
	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header = cloneHeader(header)

	client := &http.Client{Timeout: DefaultTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}

	lines := []string{fmt.Sprintf("HTTP/%d.%d %s", resp.ProtoMajor, resp.ProtoMinor, resp.Status)}
	for name, values := range resp.Header {
		for _, value := range values {
			lines = append(lines, name+": "+value)
		}
	}
	return lines, payload, nil
}
