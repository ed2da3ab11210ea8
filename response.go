package litcal

import (
	"encoding/json"
	"net/http"
)

// Response is an immutable HTTP response produced by a Transport.
// Headers are canonicalized so lookups are case-insensitive, and the body
// can be read any number of times.
type Response struct {
	statusCode int
	header     http.Header
	body       []byte
}

// NewResponse copies header and body into a new Response.
func NewResponse(statusCode int, header http.Header, body []byte) *Response {
	h := make(http.Header, len(header))
	for key, values := range header {
		canonical := http.CanonicalHeaderKey(key)
		h[canonical] = append(h[canonical], values...)
	}
	return &Response{
		statusCode: statusCode,
		header:     h,
		body:       append([]byte(nil), body...),
	}
}

// StatusCode returns the HTTP status code.
func (r *Response) StatusCode() int { return r.statusCode }

// Header returns the first value of the named header, ignoring case.
func (r *Response) Header(name string) string { return r.header.Get(name) }

// Headers returns a copy of all response headers.
func (r *Response) Headers() http.Header { return r.header.Clone() }

// Body returns a copy of the response body.
func (r *Response) Body() []byte { return append([]byte(nil), r.body...) }

// Text returns the response body as a string.
func (r *Response) Text() string { return string(r.body) }

// Size is the body length in bytes.
func (r *Response) Size() int { return len(r.body) }

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool { return r.statusCode >= 200 && r.statusCode < 300 }

// DecodeJSON unmarshals the body into v.
func (r *Response) DecodeJSON(v any) error {
	return json.Unmarshal(r.body, v)
}
