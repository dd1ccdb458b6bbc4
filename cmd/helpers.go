package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/briandowns/spinner"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/ziadkadry99/errmatch/internal/config"
	"github.com/ziadkadry99/errmatch/internal/dataset"
	"github.com/ziadkadry99/errmatch/internal/db"
	"github.com/ziadkadry99/errmatch/internal/logging"
	"github.com/ziadkadry99/errmatch/internal/matcher"
	"github.com/ziadkadry99/errmatch/internal/unmatched"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	// A .env file may carry ERRMATCH_* overrides.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `errmatch init` to create a config file", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// app holds everything a command needs to match queries.
type app struct {
	cfg       *config.Config
	logger    zerolog.Logger
	engine    *matcher.Engine
	unmatched *unmatched.Log
	store     *unmatched.Store // nil unless the sqlite sink is configured
	closers   []io.Closer
}

// newApp builds the engine and unmatched log described by the config. Logs go
// to logOut, which must not be stdout for the mcp command.
func newApp(logOut io.Writer) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg: cfg,
		logger: logging.New(logging.Options{
			Level:  cfg.LogLevel,
			Format: cfg.LogFormat,
			Output: logOut,
		}),
	}

	var sinks []unmatched.Sink
	switch cfg.UnmatchedSink {
	case config.SinkFile:
		fileSink, err := unmatched.OpenFileSink(cfg.UnmatchedLogPath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, fileSink)
		sinks = append(sinks, fileSink)
	case config.SinkSQLite:
		database, err := db.Open(cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, database)
		a.store = unmatched.NewStore(database)
		sinks = append(sinks, a.store)
	}

	if cfg.UnmatchedWebhookURL != "" {
		sinks = append(sinks, unmatched.NewWebhookSink(cfg.UnmatchedWebhookURL))
	}

	a.unmatched = unmatched.NewLog(cfg.UnmatchedCapacity, a.logger, sinks...)
	// Closed first so queued entries reach the sinks before they close.
	a.closers = append(a.closers, a.unmatched)
	a.engine = matcher.NewEngine(dataset.NewMemoryStore(), a.unmatched, cfg.MatcherOptions(), a.logger)

	a.logger.Debug().
		Str("config", cfgFile).
		Str("unmatched_sink", string(cfg.UnmatchedSink)).
		Float64("threshold", cfg.Threshold).
		Msg("errmatch initialised")
	return a, nil
}

// loadDataset loads the files matching pattern into the given session.
func (a *app) loadDataset(sessionID, pattern string) (dataset.Dataset, error) {
	ds, err := dataset.LoadGlob(pattern, a.cfg.MaxRows)
	if err != nil {
		return dataset.Dataset{}, err
	}
	if err := a.engine.Load(sessionID, ds); err != nil {
		return dataset.Dataset{}, err
	}
	return ds, nil
}

// loadDatasetWithSpinner is loadDataset with a spinner on w while large
// workbooks are read.
func (a *app) loadDatasetWithSpinner(w io.Writer, sessionID, pattern string) (dataset.Dataset, error) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " Loading " + pattern
	s.Start()
	defer s.Stop()
	return a.loadDataset(sessionID, pattern)
}

// Close releases sinks and the database.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

