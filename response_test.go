package litcal

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponse_HeadersAreCaseInsensitive(t *testing.T) {
	resp := NewResponse(200, http.Header{"content-type": {"application/json"}, "x-litcal-version": {"5.0"}}, nil)

	assert.Equal(t, "application/json", resp.Header("Content-Type"))
	assert.Equal(t, "application/json", resp.Header("CONTENT-TYPE"))
	assert.Equal(t, "5.0", resp.Header("X-Litcal-Version"))
	assert.Empty(t, resp.Header("Missing"))
}

func TestResponse_IsImmutable(t *testing.T) {
	header := http.Header{"Accept": {"a"}}
	body := []byte("original")
	resp := NewResponse(200, header, body)

	header.Set("Accept", "changed")
	body[0] = 'X'
	resp.Body()[0] = 'Y'
	resp.Headers().Set("Accept", "also changed")

	assert.Equal(t, "original", resp.Text())
	assert.Equal(t, "a", resp.Header("Accept"))
}

func TestResponse_BodyReadTwice(t *testing.T) {
	resp := NewResponse(200, nil, []byte("abc"))

	assert.Equal(t, resp.Text(), resp.Text())
	assert.Equal(t, 3, resp.Size())
}

func TestResponse_IsSuccess(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{199, false},
		{200, true},
		{204, true},
		{299, true},
		{301, false},
		{404, false},
		{503, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NewResponse(tt.status, nil, nil).IsSuccess(), "status %d", tt.status)
	}
}

func TestResponse_DecodeJSON(t *testing.T) {
	resp := NewResponse(200, nil, []byte(`{"year":2026}`))

	var v struct{ Year int }
	require.NoError(t, resp.DecodeJSON(&v))
	assert.Equal(t, 2026, v.Year)

	assert.Error(t, NewResponse(200, nil, []byte("not json")).DecodeJSON(&v))
}

func TestCachedResponse_RoundTrip(t *testing.T) {
	resp := NewResponse(200, http.Header{"Content-Type": {"application/json"}}, []byte("{}"))

	cached := NewCachedResponse(resp, testEpoch)
	back := cached.Response()

	assert.Equal(t, testEpoch, cached.Timestamp)
	assert.Equal(t, resp.StatusCode(), back.StatusCode())
	assert.Equal(t, resp.Text(), back.Text())
	assert.Equal(t, "application/json", back.Header("content-type"))
}
