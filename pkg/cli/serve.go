package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/getmockd/loosed/pkg/config"
	"github.com/getmockd/loosed/pkg/logging"
	"github.com/getmockd/loosed/pkg/server"
)

// serveFlags holds the flags shared by serve and validate.
type serveFlags struct {
	configFile            string
	host                  string
	port                  int
	baseEndpoint          string
	configurationEndpoint string
	logLevel              string
	logFormat             string
	matchTimeout          time.Duration
	metrics               bool
	corsOrigins           []string
}

var serveFlagVals serveFlags

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the stub server in the foreground",
	Long: `Run the stub server in the foreground until interrupted.

The configuration API is served under the configuration endpoint and stubbed
requests are answered under the base endpoint.`,
	Example: `  # Start with defaults (127.0.0.1:50000)
  loosed serve

  # Listen on all interfaces with a custom base endpoint
  loosed serve --host 0.0.0.0 --port 8080 --base-endpoint /stubs/

  # Seed rules from a configuration file and expose metrics
  loosed serve --config loosed.yaml --metrics`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := resolveConfig(cmd.Flags(), &serveFlagVals)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return runServe(ctx, cfg, newLogger(cfg), nil)
	},
}

func init() {
	initServeCmd()
	rootCmd.AddCommand(serveCmd)
}

func initServeCmd() {
	bindConfigFlags(serveCmd.Flags(), &serveFlagVals)
}

// bindConfigFlags registers the configuration flags on fs.
func bindConfigFlags(fs *pflag.FlagSet, f *serveFlags) {
	fs.StringVarP(&f.configFile, "config", "c", "", "Path to a YAML or JSON configuration file")
	fs.StringVar(&f.host, "host", config.DefaultHost, "Address to listen on")
	fs.IntVarP(&f.port, "port", "p", config.DefaultPort, "Port to listen on (0 picks a free port)")
	fs.StringVar(&f.baseEndpoint, "base-endpoint", config.DefaultBaseEndpoint, "Path prefix of stubbed requests")
	fs.StringVar(&f.configurationEndpoint, "configuration-endpoint", config.DefaultConfigurationEndpoint, "Path prefix of the configuration API")
	fs.StringVar(&f.logLevel, "log-level", config.DefaultLogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&f.logFormat, "log-format", config.DefaultLogFormat, "Log format (text, json)")
	fs.DurationVar(&f.matchTimeout, "match-timeout", 0, "Per-rule time limit for matching and building (0 disables)")
	fs.BoolVar(&f.metrics, "metrics", false, "Expose Prometheus metrics under /metrics")
	fs.StringSliceVar(&f.corsOrigins, "cors-origin", nil, "Allow browser access to the configuration API from this origin (repeatable, \"*\" for any)")
}

// resolveConfig builds the effective configuration. Later sources win:
// defaults, the configuration file, LOOSED_* environment variables, then
// flags given explicitly on the command line.
func resolveConfig(fs *pflag.FlagSet, f *serveFlags) (*config.ServerConfig, error) {
	cfg := config.Default()
	if f.configFile != "" {
		loaded, err := config.LoadFromFile(f.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}

	if fs.Changed("host") {
		cfg.Host = f.host
	}
	if fs.Changed("port") {
		cfg.Port = f.port
	}
	if fs.Changed("base-endpoint") {
		cfg.BaseEndpoint = f.baseEndpoint
	}
	if fs.Changed("configuration-endpoint") {
		cfg.ConfigurationEndpoint = f.configurationEndpoint
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if fs.Changed("log-format") {
		cfg.Log.Format = f.logFormat
	}
	if fs.Changed("match-timeout") {
		cfg.MatchTimeout = f.matchTimeout
	}
	if fs.Changed("metrics") {
		cfg.Metrics = f.metrics
	}
	if fs.Changed("cors-origin") {
		cfg.CORS.Enabled = true
		cfg.CORS.AllowOrigins = f.corsOrigins
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.ServerConfig) *slog.Logger {
	return logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: logging.ParseFormat(cfg.Log.Format),
		Output: os.Stderr,
	})
}

// runServe runs a server for cfg until ctx is cancelled. ready, when not
// nil, is called once the server is listening.
func runServe(ctx context.Context, cfg *config.ServerConfig, log *slog.Logger, ready func(*server.Server)) error {
	srv, err := server.New(cfg, server.WithLogger(log))
	if err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return err
	}

	applied := srv.Config()
	log.Info("loosed is ready",
		"url", srv.URL(),
		"baseEndpoint", applied.BaseEndpoint,
		"configurationEndpoint", applied.ConfigurationEndpoint,
		"metrics", applied.Metrics,
		"version", Version,
	)
	if ready != nil {
		ready(srv)
	}

	<-ctx.Done()
	log.Info("shutting down")

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Stop(stopCtx)
}
