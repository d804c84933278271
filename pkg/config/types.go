package config

import (
	"strings"
	"time"
)

// Defaults.
const (
	DefaultHost                  = "127.0.0.1"
	DefaultPort                  = 50000
	DefaultBaseEndpoint          = "/routes/"
	DefaultConfigurationEndpoint = "/_configuration/"
	DefaultLogLevel              = "info"
	DefaultLogFormat             = "text"
)

// ServerConfig holds the settings of a loosed server.
type ServerConfig struct {
	Host                  string        `yaml:"host" json:"host"`
	Port                  int           `yaml:"port" json:"port"`
	BaseEndpoint          string        `yaml:"baseEndpoint" json:"baseEndpoint"`
	ConfigurationEndpoint string        `yaml:"configurationEndpoint" json:"configurationEndpoint"`
	MatchTimeout          time.Duration `yaml:"matchTimeout" json:"matchTimeout"`
	Metrics               bool          `yaml:"metrics" json:"metrics"`
	Log                   LogConfig     `yaml:"log" json:"log"`
	CORS                  CORSConfig    `yaml:"cors" json:"cors"`
	Rules                 []RuleSeed    `yaml:"rules,omitempty" json:"rules,omitempty"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// CORSConfig enables cross-origin access to the configuration API. An
// empty AllowOrigins accepts localhost origins only.
type CORSConfig struct {
	Enabled      bool     `yaml:"enabled" json:"enabled"`
	AllowOrigins []string `yaml:"allowOrigins,omitempty" json:"allowOrigins,omitempty"`
	MaxAge       int      `yaml:"maxAge,omitempty" json:"maxAge,omitempty"`
}

// RuleSeed is a rule created at startup, optionally with its response.
// Both hold wire records: {"kind": ..., "parameters": ...}.
type RuleSeed struct {
	Rule     map[string]any `yaml:"rule" json:"rule"`
	Response map[string]any `yaml:"response,omitempty" json:"response,omitempty"`
}

// Default returns the default configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Host:                  DefaultHost,
		Port:                  DefaultPort,
		BaseEndpoint:          DefaultBaseEndpoint,
		ConfigurationEndpoint: DefaultConfigurationEndpoint,
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// EnsureEndpoint normalizes an endpoint so that it starts and ends with
// "/": "routes" becomes "/routes/".
func EnsureEndpoint(endpoint string) string {
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}
	return endpoint
}

// Normalize rewrites both endpoints with EnsureEndpoint.
func (c *ServerConfig) Normalize() {
	c.BaseEndpoint = EnsureEndpoint(c.BaseEndpoint)
	c.ConfigurationEndpoint = EnsureEndpoint(c.ConfigurationEndpoint)
}
