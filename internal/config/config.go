package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. ERRMATCH_PORT.
const EnvPrefix = "ERRMATCH_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (ERRMATCH_*). A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// ERRMATCH_TOP_K -> top_k. Keys are flat, so the delimiter never splits.
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validSinks = map[SinkType]bool{
	SinkFile:   true,
	SinkSQLite: true,
	SinkNone:   true,
}

var validLogFormats = map[string]bool{
	"console": true,
	"json":    true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Threshold <= 0 || c.Threshold > 1 {
		return fmt.Errorf("threshold must be in (0, 1], got %g", c.Threshold)
	}
	if c.ExactThreshold < c.Threshold {
		return fmt.Errorf("exact_threshold (%g) must not be below threshold (%g)", c.ExactThreshold, c.Threshold)
	}
	if c.AmbiguityWindow < 0 || c.AmbiguityWindow > 1 {
		return fmt.Errorf("ambiguity_window must be in [0, 1], got %g", c.AmbiguityWindow)
	}
	if c.TopK < 1 {
		return fmt.Errorf("top_k must be at least 1")
	}
	if c.MaxRows < 1 {
		return fmt.Errorf("max_rows must be at least 1")
	}
	if c.MaxUploadMB < 1 {
		return fmt.Errorf("max_upload_mb must be at least 1")
	}
	if c.UnmatchedCapacity < 1 {
		return fmt.Errorf("unmatched_capacity must be at least 1")
	}
	if !validSinks[c.UnmatchedSink] {
		return fmt.Errorf("invalid unmatched_sink %q: must be one of file, sqlite, none", c.UnmatchedSink)
	}
	if c.UnmatchedSink == SinkFile && c.UnmatchedLogPath == "" {
		return fmt.Errorf("unmatched_log_path is required for the file sink")
	}
	if c.UnmatchedSink == SinkSQLite && c.DatabasePath == "" {
		return fmt.Errorf("database_path is required for the sqlite sink")
	}
	if c.UnmatchedWebhookURL != "" {
		u, err := url.Parse(c.UnmatchedWebhookURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("unmatched_webhook_url must be an http(s) URL, got %q", c.UnmatchedWebhookURL)
		}
	}
	if !validLogFormats[c.LogFormat] {
		return fmt.Errorf("invalid log_format %q: must be console or json", c.LogFormat)
	}
	return nil
}
