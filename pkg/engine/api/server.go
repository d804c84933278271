package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/getmockd/loosed/pkg/logging"
)

// Server mounts the configuration API on an http.ServeMux.
type Server struct {
	api    *API
	prefix string
	cors   *CORSOptions
	log    *slog.Logger
}

// NewServer creates a Server serving api under prefix. The prefix is
// expected to start and end with "/".
func NewServer(api *API, prefix string) *Server {
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Server{
		api:    api,
		prefix: prefix,
		log:    logging.Nop(),
	}
}

// SetLogger sets the logger.
func (s *Server) SetLogger(log *slog.Logger) {
	if log != nil {
		s.log = log
	}
}

// SetCORS enables CORS on the configuration routes. It must be called
// before Register.
func (s *Server) SetCORS(opts CORSOptions) {
	s.cors = &opts
}

// Prefix returns the path prefix the routes are mounted under.
func (s *Server) Prefix() string {
	return s.prefix
}

// Register adds the configuration routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	preflight := make(map[string]bool)
	route := func(method, path string, h http.HandlerFunc) {
		mux.Handle(method+" "+s.prefix+path, s.withMiddleware(h))
		if s.cors != nil && !preflight[path] {
			preflight[path] = true
			mux.HandleFunc(http.MethodOptions+" "+s.prefix+path, s.handlePreflight)
		}
	}

	// Rules
	route(http.MethodPost, "rules", s.handleCreateRule)
	route(http.MethodGet, "rules", s.handleListRules)
	route(http.MethodGet, "rule/{ruleID}", s.handleGetRule)
	route(http.MethodDelete, "rule/{ruleID}", s.handleDeleteRule)

	// Responses
	route(http.MethodPost, "response/{ruleID}", s.handleSetResponse)
	route(http.MethodGet, "response/{ruleID}", s.handleGetResponse)

	route(http.MethodGet, "health", s.handleHealth)
}

// Handler returns a handler serving only the configuration routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return mux
}

func (s *Server) withMiddleware(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error("configuration request panicked",
					"method", r.Method, "path", r.URL.Path, "panic", rec)
				writeResult(w, s.api.failure(http.StatusInternalServerError, "Internal server error"))
			}
		}()
		if s.cors != nil {
			s.cors.setCORSHeaders(w, r)
		}
		w.Header().Set("Content-Type", "application/json")
		handler.ServeHTTP(w, r)
	})
}
