package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/loosed/internal/id"
	"github.com/getmockd/loosed/pkg/api/types"
	"github.com/getmockd/loosed/pkg/config"
	"github.com/getmockd/loosed/pkg/engine"
)

func newServer(t *testing.T, mutate func(*config.ServerConfig), opts ...Option) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Port = 0
	if mutate != nil {
		mutate(cfg)
	}
	s, err := New(cfg, opts...)
	require.NoError(t, err)
	return s
}

func call(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, types.Envelope) {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	var env types.Envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(rec.Body.Bytes(), &env)
	}
	return rec, env
}

func ruleID(t *testing.T, env types.Envelope) string {
	t.Helper()
	data, ok := env.Data.(map[string]any)
	require.True(t, ok, "unexpected data %#v", env.Data)
	return data["ruleID"].(string)
}

func TestGetMethodScenario(t *testing.T) {
	s := newServer(t, nil)
	h := s.Handler()

	rec, env := call(t, h, http.MethodPost, "/_configuration/rules", `{"kind":"METHOD","parameters":{"method":"GET"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rid := ruleID(t, env)

	rec, _ = call(t, h, http.MethodPost, "/_configuration/response/"+rid,
		`{"kind":"FIXED","parameters":{"body":"ok","status":200,"headers":{}}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, _ = call(t, h, http.MethodGet, "/routes/anything", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec, _ = call(t, h, http.MethodPost, "/routes/anything", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownKindScenario(t *testing.T) {
	s := newServer(t, nil)

	rec, env := call(t, s.Handler(), http.MethodPost, "/_configuration/rules", `{"kind":"NOPE","parameters":{}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, types.StatusFailure, env.Status)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Description, "unknown type")
	assert.Zero(t, s.Manager().Len())
}

func TestPathRuleResolvedAgainstBaseEndpoint(t *testing.T) {
	s := newServer(t, func(c *config.ServerConfig) { c.BaseEndpoint = "stubs" })
	h := s.Handler()

	_, env := call(t, h, http.MethodPost, "/_configuration/rules", `{"kind":"PATH","parameters":{"path":"users"}}`)
	rid := ruleID(t, env)
	assert.Equal(t, "/stubs/users", env.Data.(map[string]any)["parameters"].(map[string]any)["path"])

	call(t, h, http.MethodPost, "/_configuration/response/"+rid,
		`{"kind":"JSON","parameters":{"status":200,"body":{"users":[]}}}`)

	rec, _ := call(t, h, http.MethodGet, "/stubs/users", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"users":[]}`, rec.Body.String())

	rec, _ = call(t, h, http.MethodGet, "/routes/users", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFirstMatchingRuleWins(t *testing.T) {
	s := newServer(t, nil, WithManagerOptions(engine.WithIDGenerator(id.Sequence("first", "second"))))
	h := s.Handler()

	for _, rid := range []string{"first", "second"} {
		_, env := call(t, h, http.MethodPost, "/_configuration/rules", `{"kind":"PATH_GLOB","parameters":{"pattern":"/routes/**"}}`)
		require.Equal(t, rid, ruleID(t, env))
		call(t, h, http.MethodPost, "/_configuration/response/"+rid,
			`{"kind":"FIXED","parameters":{"body":"`+rid+`","status":200,"headers":{}}}`)
	}

	rec, _ := call(t, h, http.MethodGet, "/routes/x", "")
	assert.Equal(t, "first", rec.Body.String())

	call(t, h, http.MethodDelete, "/_configuration/rule/first", "")
	rec, _ = call(t, h, http.MethodGet, "/routes/x", "")
	assert.Equal(t, "second", rec.Body.String())
}

func TestCustomKindRegistration(t *testing.T) {
	s := newServer(t, nil)
	s.Rules().Register("ALWAYS", func(kind string, _ any) (engine.Rule, error) {
		return alwaysRule{kind: kind}, nil
	}, func(string, engine.Rule) (any, error) {
		return map[string]any{}, nil
	})

	rec, env := call(t, s.Handler(), http.MethodPost, "/_configuration/rules", `{"kind":"ALWAYS","parameters":{}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ALWAYS", env.Data.(map[string]any)["kind"])
	assert.Contains(t, s.Rules().Kinds(), "ALWAYS")
}

type alwaysRule struct{ kind string }

func (r alwaysRule) Kind() string { return r.kind }
func (alwaysRule) Match(*http.Request) (bool, error) { return true, nil }

func TestMetricsEndpoint(t *testing.T) {
	disabled := newServer(t, nil)
	rec, _ := call(t, disabled.Handler(), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Nil(t, disabled.Metrics())

	s := newServer(t, func(c *config.ServerConfig) { c.Metrics = true })
	call(t, s.Handler(), http.MethodPost, "/_configuration/rules", `{"kind":"METHOD","parameters":{"method":"GET"}}`)
	call(t, s.Handler(), http.MethodGet, "/routes/miss", "")

	rec, _ = call(t, s.Handler(), http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `loosed_rules_added_total{kind="METHOD"} 1`)
	assert.Contains(t, rec.Body.String(), `loosed_rule_unbound_total 1`)
}

func TestHealthAndCORS(t *testing.T) {
	s := newServer(t, func(c *config.ServerConfig) {
		c.CORS = config.CORSConfig{Enabled: true, AllowOrigins: []string{"https://ui.test"}}
	})

	rec, env := call(t, s.Handler(), http.MethodGet, "/_configuration/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", env.Data.(map[string]any)["status"])

	r := httptest.NewRequest(http.MethodOptions, "/_configuration/rules", nil)
	r.Header.Set("Origin", "https://ui.test")
	pre := httptest.NewRecorder()
	s.Handler().ServeHTTP(pre, r)
	assert.Equal(t, http.StatusNoContent, pre.Code)
	assert.Equal(t, "https://ui.test", pre.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSWithNestedEndpoints(t *testing.T) {
	tests := []struct {
		name   string
		base   string
		config string
	}{
		{name: "base under configuration", base: "/api/stubs/", config: "/api/"},
		{name: "configuration under base", base: "/api/", config: "/api/admin/"},
		{name: "configuration at root", base: "/routes/", config: "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Port = 0
			cfg.BaseEndpoint = tt.base
			cfg.ConfigurationEndpoint = tt.config
			cfg.CORS.Enabled = true
			require.NoError(t, cfg.Validate())

			var s *Server
			require.NotPanics(t, func() {
				var err error
				s, err = New(cfg)
				require.NoError(t, err)
			})

			r := httptest.NewRequest(http.MethodOptions, tt.config+"rules", nil)
			r.Header.Set("Origin", "http://localhost:8080")
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, r)
			assert.Equal(t, http.StatusNoContent, rec.Code)

			rec, env := call(t, s.Handler(), http.MethodPost, tt.config+"rules", `{"kind":"METHOD","parameters":{"method":"GET"}}`)
			require.Equal(t, http.StatusOK, rec.Code)
			res := s.API().SetResponse(ruleID(t, env), map[string]any{
				"kind": "FIXED", "parameters": map[string]any{"body": "stub", "status": float64(200), "headers": map[string]any{}},
			})
			require.True(t, res.OK(), "%+v", res.Envelope)

			rec, _ = call(t, s.Handler(), http.MethodGet, tt.base+"x", "")
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "stub", rec.Body.String())
		})
	}
}

func TestSeeds(t *testing.T) {
	s := newServer(t, func(c *config.ServerConfig) {
		c.Rules = []config.RuleSeed{
			{
				Rule:     map[string]any{"kind": "PATH", "parameters": map[string]any{"path": "health"}},
				Response: map[string]any{"kind": "FIXED", "parameters": map[string]any{"body": "up", "status": float64(200), "headers": map[string]any{}}},
			},
			{
				Rule: map[string]any{"kind": "METHOD", "parameters": map[string]any{"method": "DELETE"}},
			},
		}
	})

	require.NoError(t, s.Seed())
	require.NoError(t, s.Seed(), "seeding twice is a no-op")
	assert.Equal(t, 2, s.Manager().Len())

	rec, _ := call(t, s.Handler(), http.MethodGet, "/routes/health", "")
	assert.Equal(t, "up", rec.Body.String())
}

func TestSeedErrors(t *testing.T) {
	s := newServer(t, func(c *config.ServerConfig) {
		c.Rules = []config.RuleSeed{
			{Rule: map[string]any{"kind": "METHOD", "parameters": map[string]any{"method": "GET"}}},
			{Rule: map[string]any{"kind": "BOGUS", "parameters": map[string]any{}}},
		}
	})

	err := s.Seed()
	var seedErr *SeedError
	require.ErrorAs(t, err, &seedErr)
	assert.Equal(t, 1, seedErr.Index)
	assert.Equal(t, http.StatusBadRequest, seedErr.Status)
	assert.Contains(t, err.Error(), "unknown type")

	var apiErr *types.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 1, s.Manager().Len())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Port = -1
	_, err := New(cfg)
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestNewDoesNotModifyConfig(t *testing.T) {
	cfg := config.Default()
	cfg.BaseEndpoint = "stubs"
	s, err := New(cfg)
	require.NoError(t, err)

	assert.Equal(t, "stubs", cfg.BaseEndpoint)
	assert.Equal(t, "/stubs/", s.Config().BaseEndpoint)
}

func TestStartStop(t *testing.T) {
	s := newServer(t, func(c *config.ServerConfig) {
		c.Rules = []config.RuleSeed{{
			Rule:     map[string]any{"kind": "METHOD", "parameters": map[string]any{"method": "GET"}},
			Response: map[string]any{"kind": "FIXED", "parameters": map[string]any{"body": "live", "status": float64(200), "headers": map[string]any{}}},
		}}
	})
	assert.Empty(t, s.Addr())

	require.NoError(t, s.Start())
	assert.Error(t, s.Start(), "already running")
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	resp, err := http.Get(s.URL() + "/routes/anything")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "live", string(body))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.Empty(t, s.Addr())
	require.NoError(t, s.Stop(ctx))
}

func TestRunStopsOnCancel(t *testing.T) {
	s := newServer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return s.Addr() != "" }, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return")
	}
}

