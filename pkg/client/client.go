// Package client talks to the configuration API of a loosed server.
//
// A Client sends requests through a Transport. NewHTTP uses a real
// http.Client against a running server; NewInProcess drives an http.Handler
// directly, which keeps tests free of listeners:
//
//	srv, _ := server.New(config.Default())
//	c := client.NewInProcess(srv.Handler(), "/_configuration/")
//	rule, err := c.CreateRule(ctx, types.Record{Kind: "METHOD", Parameters: map[string]any{"method": "GET"}})
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"time"

	"github.com/getmockd/loosed/pkg/api/types"
)

// Transport sends a request and returns its response.
type Transport interface {
	Do(req *http.Request) (*http.Response, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(req *http.Request) (*http.Response, error)

// Do implements Transport.
func (f TransportFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

// Client is a configuration API client.
type Client struct {
	baseURL   string
	transport Transport
}

// Option configures an HTTP client.
type Option func(*http.Client)

// WithTimeout sets the HTTP timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *http.Client) {
		c.Timeout = timeout
	}
}

// New creates a Client for the configuration API at configURL, for example
// "http://127.0.0.1:50000/_configuration/".
func New(configURL string, transport Transport) *Client {
	if !strings.HasSuffix(configURL, "/") {
		configURL += "/"
	}
	return &Client{baseURL: configURL, transport: transport}
}

// NewHTTP creates a Client using an http.Client.
func NewHTTP(configURL string, opts ...Option) *Client {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	for _, opt := range opts {
		opt(httpClient)
	}
	return New(configURL, httpClient)
}

// NewInProcess creates a Client that serves every request with handler.
// configEndpoint is the configuration prefix the handler mounts the API
// under.
func NewInProcess(handler http.Handler, configEndpoint string) *Client {
	if !strings.HasPrefix(configEndpoint, "/") {
		configEndpoint = "/" + configEndpoint
	}
	return New("http://loosed.local"+configEndpoint, TransportFunc(func(req *http.Request) (*http.Response, error) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Result(), nil
	}))
}

// CreateRule creates a rule and returns its record with the assigned ID.
func (c *Client) CreateRule(ctx context.Context, rule types.Record) (types.RuleRecord, error) {
	var out types.RuleRecord
	err := c.call(ctx, http.MethodPost, "rules", rule, &out)
	return out, err
}

// GetRule returns the record of a rule.
func (c *Client) GetRule(ctx context.Context, ruleID string) (types.RuleRecord, error) {
	var out types.RuleRecord
	err := c.call(ctx, http.MethodGet, "rule/"+url.PathEscape(ruleID), nil, &out)
	return out, err
}

// RemoveRule removes a rule and its response. Removing an unknown rule is
// not an error.
func (c *Client) RemoveRule(ctx context.Context, ruleID string) error {
	return c.call(ctx, http.MethodDelete, "rule/"+url.PathEscape(ruleID), nil, nil)
}

// ListRules returns all rules in evaluation order.
func (c *Client) ListRules(ctx context.Context) ([]types.RuleRecord, error) {
	var out []types.RuleRecord
	err := c.call(ctx, http.MethodGet, "rules", nil, &out)
	return out, err
}

// SetResponse binds a response to a rule and returns its record.
func (c *Client) SetResponse(ctx context.Context, ruleID string, response types.Record) (types.Record, error) {
	var out types.Record
	err := c.call(ctx, http.MethodPost, "response/"+url.PathEscape(ruleID), response, &out)
	return out, err
}

// GetResponse returns the record of the response bound to a rule.
func (c *Client) GetResponse(ctx context.Context, ruleID string) (types.Record, error) {
	var out types.Record
	err := c.call(ctx, http.MethodGet, "response/"+url.PathEscape(ruleID), nil, &out)
	return out, err
}

// envelope mirrors types.Envelope with the payload left undecoded.
type envelope struct {
	Version int              `json:"version"`
	Status  types.Status     `json:"status"`
	Error   *types.ErrorInfo `json:"error,omitempty"`
	Data    json.RawMessage  `json:"data,omitempty"`
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.transport.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Status == "" {
		return &StatusError{
			StatusCode: resp.StatusCode,
			Err:        &types.APIError{Description: fmt.Sprintf("unexpected response: %s", bytes.TrimSpace(raw))},
		}
	}
	if env.Status != types.StatusSuccess || resp.StatusCode != http.StatusOK {
		description := "unknown error"
		if env.Error != nil {
			description = env.Error.Description
		}
		return &StatusError{StatusCode: resp.StatusCode, Err: &types.APIError{Description: description}}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}
