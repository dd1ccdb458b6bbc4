package config

// SinkType selects where unmatched queries are persisted beyond the
// in-memory ring.
type SinkType string

const (
	SinkFile   SinkType = "file"
	SinkSQLite SinkType = "sqlite"
	SinkNone   SinkType = "none"
)

// Config is the top-level errmatch configuration, corresponding to .errmatch.yml.
type Config struct {
	Port            int     `yaml:"port" koanf:"port"`
	AllowAllOrigins bool    `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	Threshold       float64 `yaml:"threshold" koanf:"threshold"`
	ExactThreshold  float64 `yaml:"exact_threshold" koanf:"exact_threshold"`
	AmbiguityWindow float64 `yaml:"ambiguity_window" koanf:"ambiguity_window"`
	TopK            int     `yaml:"top_k" koanf:"top_k"`
	MaxRows         int     `yaml:"max_rows" koanf:"max_rows"`
	MaxUploadMB     int     `yaml:"max_upload_mb" koanf:"max_upload_mb"`

	UnmatchedCapacity int      `yaml:"unmatched_capacity" koanf:"unmatched_capacity"`
	UnmatchedSink     SinkType `yaml:"unmatched_sink" koanf:"unmatched_sink"`
	UnmatchedLogPath  string   `yaml:"unmatched_log_path" koanf:"unmatched_log_path"`
	DatabasePath      string   `yaml:"database_path" koanf:"database_path"`

	// UnmatchedWebhookURL, when set, receives every unmatched entry in
	// addition to unmatched_sink.
	UnmatchedWebhookURL string `yaml:"unmatched_webhook_url,omitempty" koanf:"unmatched_webhook_url"`

	LogLevel  string `yaml:"log_level" koanf:"log_level"`
	LogFormat string `yaml:"log_format" koanf:"log_format"`
}
