package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variable names.
const (
	EnvHost                  = "LOOSED_HOST"
	EnvPort                  = "LOOSED_PORT"
	EnvBaseEndpoint          = "LOOSED_BASE_ENDPOINT"
	EnvConfigurationEndpoint = "LOOSED_CONFIGURATION_ENDPOINT"
	EnvLogLevel              = "LOOSED_LOG_LEVEL"
	EnvLogFormat             = "LOOSED_LOG_FORMAT"
	EnvMatchTimeout          = "LOOSED_MATCH_TIMEOUT"
	EnvMetrics               = "LOOSED_METRICS"
	EnvCORSOrigins           = "LOOSED_CORS_ORIGINS"
)

// ApplyEnv overlays values set in the process environment.
func ApplyEnv(cfg *ServerConfig) error {
	return applyEnv(cfg, os.LookupEnv)
}

func applyEnv(cfg *ServerConfig, lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(name)
		return v, ok && v != ""
	}

	if v, ok := get(EnvHost); ok {
		cfg.Host = v
	}
	if v, ok := get(EnvPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: invalid port %q", EnvPort, v)
		}
		cfg.Port = port
	}
	if v, ok := get(EnvBaseEndpoint); ok {
		cfg.BaseEndpoint = v
	}
	if v, ok := get(EnvConfigurationEndpoint); ok {
		cfg.ConfigurationEndpoint = v
	}
	if v, ok := get(EnvLogLevel); ok {
		cfg.Log.Level = v
	}
	if v, ok := get(EnvLogFormat); ok {
		cfg.Log.Format = v
	}
	if v, ok := get(EnvMatchTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMatchTimeout, err)
		}
		cfg.MatchTimeout = d
	}
	if v, ok := get(EnvMetrics); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: invalid boolean %q", EnvMetrics, v)
		}
		cfg.Metrics = enabled
	}
	if v, ok := get(EnvCORSOrigins); ok {
		cfg.CORS.Enabled = true
		cfg.CORS.AllowOrigins = nil
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.CORS.AllowOrigins = append(cfg.CORS.AllowOrigins, origin)
			}
		}
	}
	return nil
}
