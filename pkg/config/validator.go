package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration and returns all problems found.
func (c *ServerConfig) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Host) == "" {
		errs = append(errs, errors.New("host must not be empty"))
	}
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port must be between 0 and 65535, got %d", c.Port))
	}
	if EnsureEndpoint(c.BaseEndpoint) == EnsureEndpoint(c.ConfigurationEndpoint) {
		errs = append(errs, fmt.Errorf("base and configuration endpoints must differ, both are %q",
			EnsureEndpoint(c.BaseEndpoint)))
	}
	for _, e := range []struct{ name, value string }{
		{"baseEndpoint", c.BaseEndpoint},
		{"configurationEndpoint", c.ConfigurationEndpoint},
	} {
		if strings.ContainsAny(e.value, "{}? #") {
			errs = append(errs, fmt.Errorf("%s contains characters not allowed in a path prefix: %q", e.name, e.value))
		}
	}
	if c.MatchTimeout < 0 {
		errs = append(errs, fmt.Errorf("matchTimeout must not be negative, got %s", c.MatchTimeout))
	}
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Log.Level))
	}
	switch strings.ToLower(strings.TrimSpace(c.Log.Format)) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	if c.CORS.MaxAge < 0 {
		errs = append(errs, fmt.Errorf("cors.maxAge must not be negative, got %d", c.CORS.MaxAge))
	}
	for i, seed := range c.Rules {
		if seed.Rule == nil {
			errs = append(errs, fmt.Errorf("rules[%d]: rule is required", i))
		}
	}

	return errors.Join(errs...)
}
