// Package responses provides the built-in response kinds.
package responses

import (
	"encoding/json"
	"net/http"

	"github.com/getmockd/loosed/pkg/engine"
	"github.com/getmockd/loosed/pkg/registry"
)

// Kind tags of the built-in responses.
const (
	KindFixed = "FIXED"
	KindJSON  = "JSON"
)

// RegisterDefaults registers every built-in response kind in reg.
func RegisterDefaults(reg *registry.Registry[engine.Response]) {
	reg.Register(KindFixed, parseFixed, serializeFixed)
	reg.Register(KindJSON, parseJSON, serializeJSON)
}

// FixedResponse always replies with the same status, headers and body.
type FixedResponse struct {
	kind    string
	Body    string
	Status  int
	Headers map[string]string
}

// NewFixedResponse creates a FIXED response.
func NewFixedResponse(status int, body string, headers map[string]string) *FixedResponse {
	return &FixedResponse{kind: KindFixed, Body: body, Status: status, Headers: headers}
}

// Kind implements engine.Response.
func (r *FixedResponse) Kind() string { return r.kind }

// Build implements engine.Response.
func (r *FixedResponse) Build(*http.Request, engine.Rule) (*engine.Reply, error) {
	return &engine.Reply{
		Status: r.Status,
		Header: toHeader(r.Headers),
		Body:   []byte(r.Body),
	}, nil
}

type fixedParameters struct {
	Body    *string           `json:"body"`
	Status  *int              `json:"status"`
	Headers map[string]string `json:"headers"`
}

func parseFixed(kind string, parameters any) (engine.Response, error) {
	var p fixedParameters
	if err := registry.DecodeParameters(parameters, &p); err != nil {
		return nil, err
	}
	if p.Body == nil || p.Status == nil || p.Headers == nil {
		return nil, registry.NewParseError(nil,
			"%s response parameters must be an object with keys 'body', 'status', 'headers'", kind)
	}
	if err := validStatus(kind, *p.Status); err != nil {
		return nil, err
	}
	return &FixedResponse{kind: kind, Body: *p.Body, Status: *p.Status, Headers: p.Headers}, nil
}

func serializeFixed(kind string, instance engine.Response) (any, error) {
	r, ok := instance.(*FixedResponse)
	if !ok {
		return nil, registry.NewSerializeError(nil, "%s response has unexpected type %T", kind, instance)
	}
	headers := r.Headers
	if headers == nil {
		headers = map[string]string{}
	}
	return map[string]any{
		"body":    r.Body,
		"status":  r.Status,
		"headers": headers,
	}, nil
}

// JSONResponse replies with Body encoded as JSON. Content-Type defaults to
// application/json unless Headers set it.
type JSONResponse struct {
	kind    string
	Status  int
	Headers map[string]string
	Body    any
}

// NewJSONResponse creates a JSON response.
func NewJSONResponse(status int, body any, headers map[string]string) *JSONResponse {
	return &JSONResponse{kind: KindJSON, Status: status, Headers: headers, Body: body}
}

// Kind implements engine.Response.
func (r *JSONResponse) Kind() string { return r.kind }

// Build implements engine.Response.
func (r *JSONResponse) Build(*http.Request, engine.Rule) (*engine.Reply, error) {
	body, err := json.Marshal(r.Body)
	if err != nil {
		return nil, err
	}
	header := toHeader(r.Headers)
	if header.Get("Content-Type") == "" {
		header.Set("Content-Type", "application/json")
	}
	return &engine.Reply{Status: r.Status, Header: header, Body: body}, nil
}

type jsonParameters struct {
	Status  *int              `json:"status"`
	Headers map[string]string `json:"headers"`
	Body    json.RawMessage   `json:"body"`
}

func parseJSON(kind string, parameters any) (engine.Response, error) {
	var p jsonParameters
	if err := registry.DecodeParameters(parameters, &p); err != nil {
		return nil, err
	}
	if p.Status == nil || p.Body == nil {
		return nil, registry.NewParseError(nil,
			"%s response parameters must be an object with keys 'status', 'body'", kind)
	}
	if err := validStatus(kind, *p.Status); err != nil {
		return nil, err
	}
	var body any
	if err := json.Unmarshal(p.Body, &body); err != nil {
		return nil, registry.NewParseError(err, "%s response body is not valid JSON", kind)
	}
	return &JSONResponse{kind: kind, Status: *p.Status, Headers: p.Headers, Body: body}, nil
}

func serializeJSON(kind string, instance engine.Response) (any, error) {
	r, ok := instance.(*JSONResponse)
	if !ok {
		return nil, registry.NewSerializeError(nil, "%s response has unexpected type %T", kind, instance)
	}
	if _, err := json.Marshal(r.Body); err != nil {
		return nil, registry.NewSerializeError(err, "%s response body is not representable as JSON", kind)
	}
	out := map[string]any{
		"status": r.Status,
		"body":   r.Body,
	}
	if len(r.Headers) > 0 {
		out["headers"] = r.Headers
	}
	return out, nil
}

func validStatus(kind string, status int) error {
	if status < 100 || status > 999 {
		return registry.NewParseError(nil, "%s response has invalid status %d", kind, status)
	}
	return nil
}

func toHeader(headers map[string]string) http.Header {
	h := make(http.Header, len(headers))
	for k, v := range headers {
		h.Set(k, v)
	}
	return h
}
