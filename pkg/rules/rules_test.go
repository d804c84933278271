package rules

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/loosed/pkg/engine"
	"github.com/getmockd/loosed/pkg/registry"
)

const base = "/routes/"

func newRegistry(t *testing.T) *registry.Registry[engine.Rule] {
	t.Helper()
	reg := registry.New[engine.Rule]("rule")
	RegisterDefaults(reg, base)
	return reg
}

// wire decodes a JSON document the way the configuration API does.
func wire(t *testing.T, doc string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(doc), &v))
	return v
}

func parse(t *testing.T, reg *registry.Registry[engine.Rule], doc string) engine.Rule {
	t.Helper()
	rule, err := reg.Parse(wire(t, doc))
	require.NoError(t, err)
	return rule
}

// roundTrip serializes rule, sends the record through JSON and parses it
// again.
func roundTrip(t *testing.T, reg *registry.Registry[engine.Rule], rule engine.Rule) engine.Rule {
	t.Helper()
	record, err := reg.Serialize(rule)
	require.NoError(t, err)
	raw, err := json.Marshal(record)
	require.NoError(t, err)
	return parse(t, reg, string(raw))
}

func request(method, target, body string) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return r
}

func match(t *testing.T, rule engine.Rule, r *http.Request) bool {
	t.Helper()
	ok, err := rule.Match(r)
	require.NoError(t, err)
	return ok
}

func TestRegisterDefaultsKinds(t *testing.T) {
	reg := newRegistry(t)
	assert.Equal(t, []string{
		KindBodySchema, KindComposite, KindExpression, KindHeader, KindJSONPath,
		KindJWTClaim, KindMethod, KindPath, KindPathGlob, KindQuery, KindXPath,
	}, reg.Kinds())
}

func TestRoundTrip(t *testing.T) {
	reg := newRegistry(t)

	tests := []struct {
		name    string
		record  string
		request *http.Request
	}{
		{"path", `{"kind":"PATH","parameters":{"path":"users"}}`, request("GET", "/routes/users", "")},
		{"method", `{"kind":"METHOD","parameters":{"method":"post"}}`, request("POST", "/routes/x", "")},
		{"composite", `{"kind":"COMPOSITE","parameters":{"children":[
			{"kind":"PATH","parameters":{"path":"a"}},
			{"kind":"METHOD","parameters":{"method":"GET"}}]}}`, request("GET", "/routes/a", "")},
		{"header", `{"kind":"HEADER","parameters":{"name":"X-Env","value":"test"}}`, func() *http.Request {
			r := request("GET", "/routes/", "")
			r.Header.Set("X-Env", "test")
			return r
		}()},
		{"query", `{"kind":"QUERY","parameters":{"name":"page","value":"2"}}`, request("GET", "/routes/?page=2", "")},
		{"glob", `{"kind":"PATH_GLOB","parameters":{"pattern":"/routes/**/*.json"}}`, request("GET", "/routes/a/b/c.json", "")},
		{"json path", `{"kind":"JSON_PATH","parameters":{"conditions":{"$.user.id":7,"$.tag":{"exists":true}}}}`,
			request("POST", "/routes/", `{"user":{"id":7},"tag":"x"}`)},
		{"expression", `{"kind":"EXPRESSION","parameters":{"expression":"method == \"PUT\" && path startsWith \"/routes\""}}`,
			request("PUT", "/routes/item", "")},
		{"schema", `{"kind":"BODY_SCHEMA","parameters":{"schema":{"type":"object","required":["id"]}}}`,
			request("POST", "/routes/", `{"id":1}`)},
		{"xpath", `{"kind":"XPATH","parameters":{"conditions":{"/order/id":"42"}}}`,
			request("POST", "/routes/", `<order><id>42</id></order>`)},
		{"jwt claim", `{"kind":"JWT_CLAIM","parameters":{"claims":{"sub":"alice"}}}`, func() *http.Request {
			r := request("GET", "/routes/", "")
			r.Header.Set("Authorization", "Bearer "+signed(t, jwt.MapClaims{"sub": "alice"}))
			return r
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := parse(t, reg, tt.record)
			again := roundTrip(t, reg, rule)

			assert.Equal(t, rule.Kind(), again.Kind())

			first, err := reg.Serialize(rule)
			require.NoError(t, err)
			second, err := reg.Serialize(again)
			require.NoError(t, err)
			assert.JSONEq(t, mustJSON(t, first), mustJSON(t, second))

			body, err := engine.RequestBody(tt.request)
			require.NoError(t, err)
			r := engine.WithBody(tt.request, body)
			assert.True(t, match(t, rule, r))
			assert.True(t, match(t, again, r))
		})
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return string(raw)
}

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}

func TestPathRule(t *testing.T) {
	reg := newRegistry(t)

	rule := parse(t, reg, `{"kind":"PATH","parameters":{"path":"users"}}`)
	assert.Equal(t, "/routes/users", rule.(*PathRule).Path)
	assert.True(t, match(t, rule, request("GET", "/routes/users", "")))
	assert.False(t, match(t, rule, request("GET", "/routes/users/1", "")))
	assert.False(t, match(t, rule, request("GET", "/users", "")))

	abs := parse(t, reg, `{"kind":"PATH","parameters":{"path":"/elsewhere"}}`)
	assert.Equal(t, "/elsewhere", abs.(*PathRule).Path)

	record, err := reg.Serialize(rule)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"path": "/routes/users"}, record.Parameters)
}

func TestResolvePath(t *testing.T) {
	tests := []struct {
		base, path, want string
	}{
		{"/routes/", "users", "/routes/users"},
		{"/routes/", "users/", "/routes/users/"},
		{"/routes/", "/abs", "/abs"},
		{"/routes/", "", "/routes/"},
		{"/routes/", "../up", "/up"},
	}
	for _, tt := range tests {
		got, err := ResolvePath(tt.base, tt.path)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s + %s", tt.base, tt.path)
	}
}

func TestMethodRuleUpperCases(t *testing.T) {
	reg := newRegistry(t)
	rule := parse(t, reg, `{"kind":"METHOD","parameters":{"method":"get"}}`)

	assert.Equal(t, "GET", rule.(*MethodRule).Method)
	assert.True(t, match(t, rule, request("GET", "/routes/", "")))
	assert.False(t, match(t, rule, request("POST", "/routes/", "")))
}

func TestCompositeRule(t *testing.T) {
	assert.False(t, match(t, NewCompositeRule(), request("GET", "/routes/", "")), "empty composite never matches")

	rule := NewCompositeRule(NewPathRule("/routes/a"), NewMethodRule("GET"))
	assert.True(t, match(t, rule, request("GET", "/routes/a", "")))
	assert.False(t, match(t, rule, request("POST", "/routes/a", "")))
	assert.False(t, match(t, rule, request("GET", "/routes/b", "")))

	nested := NewCompositeRule(rule, NewQueryRule("v", "1"))
	assert.True(t, match(t, nested, request("GET", "/routes/a?v=1", "")))
}

func TestCompositeChildErrorsPropagate(t *testing.T) {
	reg := newRegistry(t)

	_, err := reg.Parse(wire(t, `{"kind":"COMPOSITE","parameters":{"children":[{"kind":"NOPE","parameters":{}}]}}`))
	var parseErr *registry.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, err.Error(), "unknown type 'NOPE'")
}

func TestCompositeSerializesNestedChildren(t *testing.T) {
	reg := newRegistry(t)
	rule := NewCompositeRule(NewMethodRule("GET"), NewCompositeRule(NewHeaderRule("X-A", "1")))

	record, err := reg.Serialize(rule)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"COMPOSITE","parameters":{"children":[
		{"kind":"METHOD","parameters":{"method":"GET"}},
		{"kind":"COMPOSITE","parameters":{"children":[
			{"kind":"HEADER","parameters":{"name":"X-A","value":"1"}}]}}]}}`, mustJSON(t, record))
}

func TestParseErrors(t *testing.T) {
	reg := newRegistry(t)

	tests := []struct {
		name   string
		record string
		want   string
	}{
		{"path missing", `{"kind":"PATH","parameters":{}}`, "'path' key"},
		{"path not object", `{"kind":"PATH","parameters":"users"}`, "'path' key"},
		{"method not string", `{"kind":"METHOD","parameters":{"method":1}}`, "'method' key"},
		{"composite missing children", `{"kind":"COMPOSITE","parameters":{}}`, "'children' key"},
		{"header missing value", `{"kind":"HEADER","parameters":{"name":"X"}}`, "'value' key"},
		{"glob invalid", `{"kind":"PATH_GLOB","parameters":{"pattern":"/routes/[a"}}`, "invalid pattern"},
		{"json path empty", `{"kind":"JSON_PATH","parameters":{"conditions":{}}}`, "at least one condition"},
		{"json path invalid", `{"kind":"JSON_PATH","parameters":{"conditions":{"$.a[":1}}}`, "invalid path"},
		{"expression invalid", `{"kind":"EXPRESSION","parameters":{"expression":"method =="}}`, "invalid expression"},
		{"expression not bool", `{"kind":"EXPRESSION","parameters":{"expression":"path"}}`, "invalid expression"},
		{"schema missing", `{"kind":"BODY_SCHEMA","parameters":{}}`, "'schema' key"},
		{"schema invalid", `{"kind":"BODY_SCHEMA","parameters":{"schema":{"type":12}}}`, "cannot be compiled"},
		{"xpath empty", `{"kind":"XPATH","parameters":{"conditions":{}}}`, "at least one condition"},
		{"jwt no claims", `{"kind":"JWT_CLAIM","parameters":{"claims":{}}}`, "at least one claim"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.Parse(wire(t, tt.record))
			var parseErr *registry.ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSerializeRejectsForeignType(t *testing.T) {
	reg := newRegistry(t)
	// A METHOD-tagged value of the wrong Go type.
	_, err := reg.Serialize(&PathRule{kinded: kinded{KindMethod}, Path: "/x"})
	var serializeErr *registry.SerializeError
	assert.ErrorAs(t, err, &serializeErr)
}

func TestHeaderAndQueryRules(t *testing.T) {
	header := NewHeaderRule("x-request-kind", "probe")
	r := request("GET", "/routes/", "")
	r.Header.Add("X-Request-Kind", "other")
	r.Header.Add("X-Request-Kind", "probe")
	assert.True(t, match(t, header, r))
	assert.False(t, match(t, header, request("GET", "/routes/", "")))

	query := NewQueryRule("q", "go")
	assert.True(t, match(t, query, request("GET", "/routes/?q=rust&q=go", "")))
	assert.False(t, match(t, query, request("GET", "/routes/?q=rust", "")))
}

func TestGlobRule(t *testing.T) {
	rule, err := NewGlobRule("/routes/users/*")
	require.NoError(t, err)
	assert.True(t, match(t, rule, request("GET", "/routes/users/42", "")))
	assert.False(t, match(t, rule, request("GET", "/routes/users/42/posts", "")))

	_, err = NewGlobRule("[")
	assert.Error(t, err)
}

func TestJSONPathRule(t *testing.T) {
	rule, err := NewJSONPathRule(map[string]any{
		"$.order.total":  float64(10),
		"$.items[*].sku": "B",
		"$.coupon":       map[string]any{"exists": false},
	})
	require.NoError(t, err)

	assert.True(t, match(t, rule, request("POST", "/", `{"order":{"total":10},"items":[{"sku":"A"},{"sku":"B"}]}`)))
	assert.False(t, match(t, rule, request("POST", "/", `{"order":{"total":11},"items":[{"sku":"B"}]}`)))
	assert.False(t, match(t, rule, request("POST", "/", `{"order":{"total":10},"items":[{"sku":"B"}],"coupon":"X"}`)))
	assert.False(t, match(t, rule, request("POST", "/", `not json`)))
	assert.False(t, match(t, rule, request("GET", "/", "")))
}

func TestExpressionRule(t *testing.T) {
	rule, err := NewExpressionRule(`method == "POST" && headers["X-Tenant"] == "acme" && query.debug == "1" && body contains "ping"`)
	require.NoError(t, err)

	r := request("POST", "/routes/?debug=1", "ping")
	r.Header.Set("X-Tenant", "acme")
	assert.True(t, match(t, rule, r))

	r = request("POST", "/routes/?debug=1", "pong")
	r.Header.Set("X-Tenant", "acme")
	assert.False(t, match(t, rule, r))

	jsonRule, err := NewExpressionRule(`json != nil && json.user.role == "admin"`)
	require.NoError(t, err)
	assert.True(t, match(t, jsonRule, request("POST", "/", `{"user":{"role":"admin"}}`)))
	assert.False(t, match(t, jsonRule, request("POST", "/", `plain`)))
}

func TestSchemaRule(t *testing.T) {
	rule, err := NewSchemaRule(map[string]any{
		"type":       "object",
		"required":   []any{"name"},
		"properties": map[string]any{"name": map[string]any{"type": "string"}},
	})
	require.NoError(t, err)

	assert.True(t, match(t, rule, request("POST", "/", `{"name":"x"}`)))
	assert.False(t, match(t, rule, request("POST", "/", `{"name":1}`)))
	assert.False(t, match(t, rule, request("POST", "/", `{}`)))
	assert.False(t, match(t, rule, request("POST", "/", `<xml/>`)))
}

func TestXPathRule(t *testing.T) {
	rule, err := NewXPathRule(map[string]string{
		"/order/id":        "42",
		"/order/@currency": "EUR",
	})
	require.NoError(t, err)

	assert.True(t, match(t, rule, request("POST", "/", `<order currency="EUR"><id> 42 </id></order>`)))
	assert.False(t, match(t, rule, request("POST", "/", `<order currency="USD"><id>42</id></order>`)))
	assert.False(t, match(t, rule, request("POST", "/", `<order currency="EUR"></order>`)))
	assert.False(t, match(t, rule, request("POST", "/", `{"id":42}`)))
}

func TestJWTClaimRule(t *testing.T) {
	rule := NewJWTClaimRule(map[string]any{"sub": "alice", "aud": "api", "level": float64(3)})

	authorized := func(token string) *http.Request {
		r := request("GET", "/routes/", "")
		r.Header.Set("Authorization", "Bearer "+token)
		return r
	}

	assert.True(t, match(t, rule, authorized(signed(t, jwt.MapClaims{
		"sub": "alice", "aud": []string{"web", "api"}, "level": 3,
	}))))
	assert.False(t, match(t, rule, authorized(signed(t, jwt.MapClaims{
		"sub": "bob", "aud": "api", "level": 3,
	}))))
	assert.False(t, match(t, rule, authorized("not-a-token")))
	assert.False(t, match(t, rule, request("GET", "/routes/", "")))
}
