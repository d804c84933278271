package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

var (
	corsMethods = []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}
	corsHeaders = []string{"Content-Type", "Authorization", "X-Requested-With", "Accept", "Origin"}
)

const defaultCORSMaxAge = 86400

// CORSOptions controls cross-origin access to the configuration API, for
// test clients running in a browser. With no AllowOrigins only localhost
// origins are accepted; "*" accepts any origin.
type CORSOptions struct {
	AllowOrigins []string
	MaxAge       int
}

func (o *CORSOptions) allowOrigin(origin string) string {
	if origin == "" {
		return ""
	}
	if len(o.AllowOrigins) == 0 {
		if isLocalOrigin(origin) {
			return origin
		}
		return ""
	}
	for _, allowed := range o.AllowOrigins {
		if allowed == "*" {
			return "*"
		}
		if strings.EqualFold(strings.TrimSuffix(allowed, "/"), origin) {
			return origin
		}
	}
	return ""
}

func isLocalOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

// setCORSHeaders writes the CORS headers for r and reports whether its
// origin is allowed.
func (o *CORSOptions) setCORSHeaders(w http.ResponseWriter, r *http.Request) bool {
	allowOrigin := o.allowOrigin(r.Header.Get("Origin"))
	if allowOrigin == "" {
		return false
	}

	h := w.Header()
	h.Set("Access-Control-Allow-Origin", allowOrigin)
	if allowOrigin != "*" {
		h.Add("Vary", "Origin")
	}
	h.Set("Access-Control-Allow-Methods", strings.Join(corsMethods, ", "))
	h.Set("Access-Control-Allow-Headers", strings.Join(corsHeaders, ", "))

	maxAge := o.MaxAge
	if maxAge <= 0 {
		maxAge = defaultCORSMaxAge
	}
	h.Set("Access-Control-Max-Age", strconv.Itoa(maxAge))
	return true
}

func (s *Server) handlePreflight(w http.ResponseWriter, r *http.Request) {
	if s.cors.setCORSHeaders(w, r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.WriteHeader(http.StatusForbidden)
}
