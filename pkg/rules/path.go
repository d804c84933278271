package rules

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/getmockd/loosed/pkg/engine"
	"github.com/getmockd/loosed/pkg/registry"
)

// PathRule matches requests whose URL path equals Path exactly.
type PathRule struct {
	kinded
	Path string
}

// NewPathRule creates a PATH rule for an absolute path.
func NewPathRule(path string) *PathRule {
	return &PathRule{kinded: kinded{KindPath}, Path: path}
}

// Match implements engine.Rule.
func (r *PathRule) Match(req *http.Request) (bool, error) {
	return req.URL.Path == r.Path, nil
}

// ResolvePath resolves path against base the way a relative URL reference
// is resolved: "users" under "/routes/" is "/routes/users", while an
// absolute "/other" stays as is.
func ResolvePath(base, path string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(ref).Path, nil
}

func pathParser(base string) registry.Parser[engine.Rule] {
	return func(kind string, parameters any) (engine.Rule, error) {
		path, err := requireString(kind, parameters, "path")
		if err != nil {
			return nil, err
		}
		resolved, err := ResolvePath(base, path)
		if err != nil {
			return nil, registry.NewParseError(err, "%s rule has invalid path '%s'", kind, path)
		}
		return &PathRule{kinded: kinded{kind}, Path: resolved}, nil
	}
}

// MethodRule matches requests by HTTP method.
type MethodRule struct {
	kinded
	Method string
}

// NewMethodRule creates a METHOD rule. The method is upper-cased.
func NewMethodRule(method string) *MethodRule {
	return &MethodRule{kinded: kinded{KindMethod}, Method: strings.ToUpper(method)}
}

// Match implements engine.Rule.
func (r *MethodRule) Match(req *http.Request) (bool, error) {
	return req.Method == r.Method, nil
}

func parseMethod(kind string, parameters any) (engine.Rule, error) {
	method, err := requireString(kind, parameters, "method")
	if err != nil {
		return nil, err
	}
	return &MethodRule{kinded: kinded{kind}, Method: strings.ToUpper(method)}, nil
}

// GlobRule matches requests whose URL path matches a doublestar pattern,
// for example "/routes/users/*" or "/routes/**/*.json".
type GlobRule struct {
	kinded
	Pattern string
}

// NewGlobRule creates a PATH_GLOB rule.
func NewGlobRule(pattern string) (*GlobRule, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, doublestar.ErrBadPattern
	}
	return &GlobRule{kinded: kinded{KindPathGlob}, Pattern: pattern}, nil
}

// Match implements engine.Rule.
func (r *GlobRule) Match(req *http.Request) (bool, error) {
	return doublestar.Match(r.Pattern, req.URL.Path)
}

func parseGlob(kind string, parameters any) (engine.Rule, error) {
	pattern, err := requireString(kind, parameters, "pattern")
	if err != nil {
		return nil, err
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, registry.NewParseError(doublestar.ErrBadPattern, "%s rule has invalid pattern '%s'", kind, pattern)
	}
	return &GlobRule{kinded: kinded{kind}, Pattern: pattern}, nil
}
