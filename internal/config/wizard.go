package config

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/manifoldco/promptui"
)

// datasetPatterns are globs checked in the working directory to suggest a
// dataset for `errmatch serve --dataset`.
var datasetPatterns = []string{"*.csv", "*.xlsx", "data/*.csv", "data/*.xlsx"}

// detectDataset returns the first spreadsheet found near the working
// directory, or "".
func detectDataset() string {
	for _, p := range datasetPatterns {
		matches, _ := filepath.Glob(p)
		if len(matches) > 0 {
			return matches[0]
		}
	}
	return ""
}

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .errmatch.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to errmatch! Let's configure the matcher.")
	fmt.Println()

	if ds := detectDataset(); ds != "" {
		fmt.Printf("Found a dataset: %s (try it with: errmatch chat --dataset %s)\n\n", ds, ds)
	}

	cfg := DefaultConfig()

	// 1. Port.
	portPrompt := promptui.Prompt{
		Label:    "HTTP port",
		Default:  strconv.Itoa(cfg.Port),
		Validate: intInRange(1, 65535),
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Port, _ = strconv.Atoi(portStr)

	// 2. Match strictness.
	strictnessPrompt := promptui.Select{
		Label: "How strict should matching be?",
		Items: []string{
			"lenient  (threshold 0.5)",
			"standard (threshold 0.6)",
			"strict   (threshold 0.75)",
		},
		CursorPos: 1,
	}
	idx, _, err := strictnessPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("strictness selection: %w", err)
	}
	cfg.Threshold = []float64{0.5, 0.6, 0.75}[idx]

	// 3. Unmatched sink.
	sinkPrompt := promptui.Select{
		Label: "Where should unmatched queries be kept?",
		Items: []string{string(SinkFile), string(SinkSQLite), string(SinkNone)},
	}
	_, sinkStr, err := sinkPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("sink selection: %w", err)
	}
	cfg.UnmatchedSink = SinkType(sinkStr)

	switch cfg.UnmatchedSink {
	case SinkFile:
		p := promptui.Prompt{Label: "Unmatched log file", Default: cfg.UnmatchedLogPath}
		if cfg.UnmatchedLogPath, err = p.Run(); err != nil {
			return nil, fmt.Errorf("log path: %w", err)
		}
	case SinkSQLite:
		p := promptui.Prompt{Label: "SQLite database file", Default: cfg.DatabasePath}
		if cfg.DatabasePath, err = p.Run(); err != nil {
			return nil, fmt.Errorf("database path: %w", err)
		}
	}

	// 4. CORS.
	corsPrompt := promptui.Select{
		Label: "Allow browser requests from any origin?",
		Items: []string{"no", "yes"},
	}
	corsIdx, _, err := corsPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("cors selection: %w", err)
	}
	cfg.AllowAllOrigins = corsIdx == 1

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(DefaultPath); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", DefaultPath)
	return cfg, nil
}

// intInRange returns a promptui validator accepting integers in [lo, hi].
func intInRange(lo, hi int) promptui.ValidateFunc {
	return func(s string) error {
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("not a number")
		}
		if n < lo || n > hi {
			return fmt.Errorf("must be between %d and %d", lo, hi)
		}
		return nil
	}
}
