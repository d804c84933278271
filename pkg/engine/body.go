package engine

import (
	"bytes"
	"context"
	"io"
	"net/http"
)

type bodyKey struct{}

// WithBody returns a shallow copy of r carrying an already-read body, so
// several rules can inspect it independently.
func WithBody(r *http.Request, body []byte) *http.Request {
	r = r.WithContext(context.WithValue(r.Context(), bodyKey{}, body))
	r.Body = io.NopCloser(bytes.NewReader(body))
	return r
}

// RequestBody returns the request body. Bodies cached by WithBody are
// returned as-is and must not be modified; otherwise the body is read and
// replaced with a rewound copy.
func RequestBody(r *http.Request) ([]byte, error) {
	if body, ok := cachedBody(r); ok {
		return body, nil
	}
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}

func cachedBody(r *http.Request) ([]byte, bool) {
	body, ok := r.Context().Value(bodyKey{}).([]byte)
	return body, ok
}
