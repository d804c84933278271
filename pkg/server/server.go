package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/getmockd/loosed/pkg/config"
	"github.com/getmockd/loosed/pkg/engine"
	"github.com/getmockd/loosed/pkg/engine/api"
	"github.com/getmockd/loosed/pkg/logging"
	"github.com/getmockd/loosed/pkg/metrics"
	"github.com/getmockd/loosed/pkg/registry"
	"github.com/getmockd/loosed/pkg/responses"
	"github.com/getmockd/loosed/pkg/rules"
)

const shutdownTimeout = 5 * time.Second

// Server is a configured loosed instance.
type Server struct {
	cfg *config.ServerConfig
	log *slog.Logger

	rules     *registry.Registry[engine.Rule]
	responses *registry.Registry[engine.Response]
	manager   *engine.Manager
	api       *api.API
	collector *metrics.Collector
	handler   http.Handler

	mu         sync.Mutex
	seeded     bool
	running    bool
	listener   net.Listener
	httpServer *http.Server
	done       chan struct{}
}

// Option configures a Server.
type Option func(*options)

type options struct {
	log        *slog.Logger
	managerOps []engine.Option
}

// WithLogger sets the logger. Components log under their own "component"
// attribute.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithManagerOptions passes extra options to the engine.Manager, applied
// after the ones derived from the configuration.
func WithManagerOptions(opts ...engine.Option) Option {
	return func(o *options) {
		o.managerOps = append(o.managerOps, opts...)
	}
}

// New creates a Server from cfg. The configuration is validated and its
// endpoints normalized; cfg itself is not modified.
func New(cfg *config.ServerConfig, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	c := *cfg
	c.Normalize()

	o := options{log: logging.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Server{
		cfg:       &c,
		log:       logging.Component(o.log, "server"),
		rules:     registry.New[engine.Rule]("rule"),
		responses: registry.New[engine.Response]("response"),
	}
	s.rules.SetLogger(logging.Component(o.log, "registry"))
	s.responses.SetLogger(logging.Component(o.log, "registry"))
	rules.RegisterDefaults(s.rules, c.BaseEndpoint)
	responses.RegisterDefaults(s.responses)

	observers := engine.MultiObserver{engine.NewLogObserver(logging.Component(o.log, "manager"))}
	if c.Metrics {
		s.collector = metrics.NewCollector()
		observers = append(observers, s.collector)
	}

	managerOpts := append([]engine.Option{
		engine.WithObserver(observers),
		engine.WithMatchTimeout(c.MatchTimeout),
	}, o.managerOps...)
	s.manager = engine.NewManager(managerOpts...)

	s.api = api.New(s.manager, s.rules, s.responses)
	s.api.SetLogger(logging.Component(o.log, "api"))

	s.handler = s.routes(o.log)
	return s, nil
}

func (s *Server) routes(log *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	configAPI := api.NewServer(s.api, s.cfg.ConfigurationEndpoint)
	configAPI.SetLogger(logging.Component(log, "api"))
	if s.cfg.CORS.Enabled {
		configAPI.SetCORS(api.CORSOptions{
			AllowOrigins: s.cfg.CORS.AllowOrigins,
			MaxAge:       s.cfg.CORS.MaxAge,
		})
	}
	configAPI.Register(mux)

	data := engine.NewHandler(s.manager)
	data.SetLogger(logging.Component(log, "handler"))
	var dynamic http.Handler = data
	if s.collector != nil {
		dynamic = s.collector.Instrument(dynamic)
		mux.Handle("GET /metrics", s.collector.Handler())
	}
	mux.Handle(s.cfg.BaseEndpoint, dynamic)

	return mux
}

// Config returns the normalized configuration.
func (s *Server) Config() config.ServerConfig { return *s.cfg }

// Rules returns the rule registry.
func (s *Server) Rules() *registry.Registry[engine.Rule] { return s.rules }

// Responses returns the response registry.
func (s *Server) Responses() *registry.Registry[engine.Response] { return s.responses }

// Manager returns the rule manager.
func (s *Server) Manager() *engine.Manager { return s.manager }

// API returns the configuration API.
func (s *Server) API() *api.API { return s.api }

// Metrics returns the metrics collector, or nil when metrics are disabled.
func (s *Server) Metrics() *metrics.Collector { return s.collector }

// Handler returns the root handler serving all routes.
func (s *Server) Handler() http.Handler { return s.handler }

// Start applies the seed rules, if not done yet, and starts listening on
// the configured host and port.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("server is already running")
	}
	if err := s.seedLocked(); err != nil {
		return err
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.done = make(chan struct{})

	s.log.Info("starting server",
		"addr", ln.Addr().String(),
		"baseEndpoint", s.cfg.BaseEndpoint,
		"configurationEndpoint", s.cfg.ConfigurationEndpoint,
		"metrics", s.cfg.Metrics)

	go func(srv *http.Server, done chan struct{}) {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("server error", "error", err)
		}
	}(s.httpServer, s.done)

	s.running = true
	return nil
}

// Addr returns the address the server listens on, or "" when stopped.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// URL returns the base URL of the server, or "" when stopped.
func (s *Server) URL() string {
	addr := s.Addr()
	if addr == "" {
		return ""
	}
	return "http://" + addr
}

// Stop gracefully shuts the listener down.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	err := s.httpServer.Shutdown(ctx)
	<-s.done

	s.running = false
	s.listener = nil
	s.httpServer = nil
	s.log.Info("server stopped")

	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Run starts the server and blocks until ctx is cancelled, then stops it.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Stop(stopCtx)
}
