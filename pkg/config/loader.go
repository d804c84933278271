package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Common errors for configuration loading.
var (
	ErrFileNotFound     = errors.New("configuration file not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidJSON      = errors.New("invalid JSON syntax")
	ErrInvalidYAML      = errors.New("invalid YAML syntax")
	ErrEmptyFile        = errors.New("configuration file is empty")
)

// LoadFromFile reads a configuration file over the defaults. Files ending in
// .yaml or .yml are YAML; anything else must be JSON.
func LoadFromFile(path string) (*ServerConfig, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" && !json.Valid(data) {
		return nil, fmt.Errorf("%w in file: %s", ErrInvalidJSON, path)
	}
	return Parse(data)
}

// Parse decodes a YAML or JSON document over the defaults. JSON is accepted
// because it is a subset of YAML.
func Parse(data []byte) (*ServerConfig, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidYAML, err)
	}
	if err := cfg.normalizeSeeds(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalizeSeeds converts seed records to the shape a JSON request body
// decodes to, so registries see the same types whichever way a rule
// arrives: numbers become float64 and nested mappings map[string]any.
func (c *ServerConfig) normalizeSeeds() error {
	for i := range c.Rules {
		rule, err := asWire(c.Rules[i].Rule)
		if err != nil {
			return fmt.Errorf("rules[%d].rule: %w", i, err)
		}
		c.Rules[i].Rule = rule

		if c.Rules[i].Response == nil {
			continue
		}
		response, err := asWire(c.Rules[i].Response)
		if err != nil {
			return fmt.Errorf("rules[%d].response: %w", i, err)
		}
		c.Rules[i].Response = response
	}
	return nil
}

func asWire(record map[string]any) (map[string]any, error) {
	if record == nil {
		return nil, nil
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("record is not representable as JSON: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
