package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Port != 5000 {
		t.Errorf("expected default port 5000, got %d", cfg.Port)
	}
	if cfg.Threshold != 0.6 {
		t.Errorf("expected default threshold 0.6, got %g", cfg.Threshold)
	}
	if cfg.TopK != 5 {
		t.Errorf("expected default top_k 5, got %d", cfg.TopK)
	}
	if cfg.UnmatchedSink != SinkFile {
		t.Errorf("expected default sink %q, got %q", SinkFile, cfg.UnmatchedSink)
	}
	if cfg.MaxUploadBytes() != 16<<20 {
		t.Errorf("expected 16MB upload cap, got %d", cfg.MaxUploadBytes())
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.errmatch.yml")

	original := DefaultConfig()
	original.Port = 8080
	original.AllowAllOrigins = true
	original.Threshold = 0.75
	original.UnmatchedSink = SinkSQLite
	original.DatabasePath = "data/errmatch.db"
	original.LogFormat = "json"

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if *loaded != *original {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", *loaded, *original)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yml"))
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if *cfg != *DefaultConfig() {
		t.Errorf("expected defaults, got %+v", *cfg)
	}
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yml")
	if err := os.WriteFile(path, []byte("top_k: 3\nlog_level: debug\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.TopK != 3 || cfg.LogLevel != "debug" {
		t.Errorf("file values not applied: %+v", *cfg)
	}
	if cfg.Threshold != 0.6 || cfg.Port != 5000 {
		t.Errorf("defaults lost for unset keys: %+v", *cfg)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yml")
	if err := DefaultConfig().Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("ERRMATCH_UNMATCHED_SINK", "none")
	t.Setenv("ERRMATCH_PORT", "9090")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.UnmatchedSink != SinkNone {
		t.Errorf("env override failed: got %q, want %q", loaded.UnmatchedSink, SinkNone)
	}
	if loaded.Port != 9090 {
		t.Errorf("env override failed: got port %d, want 9090", loaded.Port)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative port", func(c *Config) { c.Port = -1 }},
		{"zero threshold", func(c *Config) { c.Threshold = 0 }},
		{"threshold above one", func(c *Config) { c.Threshold = 1.5 }},
		{"exact below threshold", func(c *Config) { c.ExactThreshold = 0.5 }},
		{"negative window", func(c *Config) { c.AmbiguityWindow = -0.1 }},
		{"zero top_k", func(c *Config) { c.TopK = 0 }},
		{"zero max_rows", func(c *Config) { c.MaxRows = 0 }},
		{"zero upload cap", func(c *Config) { c.MaxUploadMB = 0 }},
		{"zero capacity", func(c *Config) { c.UnmatchedCapacity = 0 }},
		{"unknown sink", func(c *Config) { c.UnmatchedSink = "kafka" }},
		{"file sink without path", func(c *Config) { c.UnmatchedLogPath = "" }},
		{"sqlite sink without path", func(c *Config) { c.UnmatchedSink = SinkSQLite; c.DatabasePath = "" }},
		{"unknown log format", func(c *Config) { c.LogFormat = "xml" }},
		{"webhook without scheme", func(c *Config) { c.UnmatchedWebhookURL = "hooks.example.com/errmatch" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidateValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig should be valid, got: %v", err)
	}
	cfg := DefaultConfig()
	cfg.UnmatchedSink = SinkNone
	cfg.UnmatchedLogPath = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("none sink needs no path, got: %v", err)
	}
	cfg.UnmatchedWebhookURL = "https://hooks.example.com/errmatch"
	if err := cfg.Validate(); err != nil {
		t.Errorf("https webhook should be valid, got: %v", err)
	}
}

func TestMatcherOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TopK = 2
	opts := cfg.MatcherOptions()
	if opts.TopK != 2 || opts.Threshold != cfg.Threshold || opts.ExactThreshold != cfg.ExactThreshold {
		t.Errorf("options = %+v", opts)
	}
}

func TestIntInRange(t *testing.T) {
	v := intInRange(1, 10)
	for in, ok := range map[string]bool{"1": true, "10": true, "0": false, "11": false, "x": false} {
		if err := v(in); (err == nil) != ok {
			t.Errorf("validate(%q) = %v", in, err)
		}
	}
}
