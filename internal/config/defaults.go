package config

import (
	"github.com/ziadkadry99/errmatch/internal/dataset"
	"github.com/ziadkadry99/errmatch/internal/matcher"
	"github.com/ziadkadry99/errmatch/internal/unmatched"
)

// DefaultPath is where RunWizard writes and the CLI looks by default.
const DefaultPath = ".errmatch.yml"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:              5000,
		Threshold:         matcher.DefaultThreshold,
		ExactThreshold:    matcher.DefaultExactThreshold,
		AmbiguityWindow:   matcher.DefaultAmbiguityWindow,
		TopK:              matcher.DefaultTopK,
		MaxRows:           dataset.DefaultMaxRows,
		MaxUploadMB:       16,
		UnmatchedCapacity: unmatched.DefaultCapacity,
		UnmatchedSink:     SinkFile,
		UnmatchedLogPath:  "logs/unmatched_errors.log",
		DatabasePath:      ".errmatch/errmatch.db",
		LogLevel:          "info",
		LogFormat:         "console",
	}
}

// MatcherOptions returns the engine tuning described by c.
func (c *Config) MatcherOptions() matcher.Options {
	return matcher.Options{
		Threshold:       c.Threshold,
		ExactThreshold:  c.ExactThreshold,
		AmbiguityWindow: c.AmbiguityWindow,
		TopK:            c.TopK,
	}
}

// MaxUploadBytes returns the upload size cap in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}
