// Package config loads the server configuration.
//
// A ServerConfig starts from Default, is overlaid by an optional YAML or
// JSON file (LoadFromFile), then by LOOSED_* environment variables
// (ApplyEnv), and finally by command-line flags. Validate checks the
// result before the server starts.
//
// Example file:
//
//	host: 0.0.0.0
//	port: 50000
//	baseEndpoint: /routes/
//	configurationEndpoint: /_configuration/
//	matchTimeout: 2s
//	metrics: true
//	log:
//	  level: debug
//	  format: json
//	rules:
//	  - rule:
//	      kind: PATH
//	      parameters: {path: health}
//	    response:
//	      kind: FIXED
//	      parameters: {body: ok, status: 200, headers: {}}
//
// Seed rules are applied through the configuration API at startup, in file
// order, so they behave exactly like rules created by a client.
package config
