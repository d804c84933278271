package rules

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/getmockd/loosed/pkg/engine"
	"github.com/getmockd/loosed/pkg/registry"
)

// JWTClaimRule matches requests whose "Authorization: Bearer" token carries
// every expected claim. The signature is not verified; the rule routes by
// token content, it does not authenticate. An array claim such as "aud"
// matches when any element equals the expected value.
type JWTClaimRule struct {
	kinded
	Claims map[string]any
}

// NewJWTClaimRule creates a JWT_CLAIM rule.
func NewJWTClaimRule(claims map[string]any) *JWTClaimRule {
	return &JWTClaimRule{kinded: kinded{KindJWTClaim}, Claims: claims}
}

// Match implements engine.Rule.
func (r *JWTClaimRule) Match(req *http.Request) (bool, error) {
	token, ok := bearerToken(req)
	if !ok {
		return false, nil
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false, nil
	}

	for name, expected := range r.Claims {
		if !claimMatches(claims[name], expected) {
			return false, nil
		}
	}
	return true, nil
}

func bearerToken(req *http.Request) (string, bool) {
	auth := req.Header.Get("Authorization")
	scheme, token, found := strings.Cut(auth, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func claimMatches(actual, expected any) bool {
	if valuesEqual(actual, expected) {
		return true
	}
	if list, ok := actual.([]any); ok {
		for _, item := range list {
			if valuesEqual(item, expected) {
				return true
			}
		}
	}
	return stringify(actual) == stringify(expected) && actual != nil
}

func parseJWTClaim(kind string, parameters any) (engine.Rule, error) {
	var p struct {
		Claims map[string]any `json:"claims"`
	}
	if err := registry.DecodeParameters(parameters, &p); err != nil {
		return nil, err
	}
	if len(p.Claims) == 0 {
		return nil, registry.NewParseError(nil, "%s rule requires at least one claim", kind)
	}
	return &JWTClaimRule{kinded: kinded{kind}, Claims: p.Claims}, nil
}
