package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/errmatch/internal/config"
	"github.com/ziadkadry99/errmatch/internal/db"
	"github.com/ziadkadry99/errmatch/internal/unmatched"
)

var unmatchedCmd = &cobra.Command{
	Use:   "unmatched",
	Short: "Export queries that matched no known error",
	Long: `Reads the durable unmatched-error log (the JSON lines file or the SQLite
database, whichever unmatched_sink selects) and writes it as a CSV the dataset
owner can fill in and upload back.`,
	RunE: runUnmatched,
}

func init() {
	unmatchedCmd.Flags().StringP("output", "o", "", "CSV file to write (default stdout)")
	unmatchedCmd.Flags().Duration("since", 0, "only entries newer than this, e.g. 72h")
	unmatchedCmd.Flags().String("session", "", "only entries from this session")
	rootCmd.AddCommand(unmatchedCmd)
}

func runUnmatched(cmd *cobra.Command, args []string) error {
	outPath, _ := cmd.Flags().GetString("output")
	since, _ := cmd.Flags().GetDuration("since")
	session, _ := cmd.Flags().GetString("session")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	filter := unmatched.ListFilter{SessionID: session}
	if since > 0 {
		t := time.Now().Add(-since)
		filter.Since = &t
	}

	entries, err := readUnmatched(cmd.Context(), cfg, filter)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", outPath, err)
		}
		defer f.Close()
		out = f
	}
	if err := unmatched.WriteCSV(out, entries); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d unmatched error(s)\n", len(entries))
	return nil
}

func readUnmatched(ctx context.Context, cfg *config.Config, filter unmatched.ListFilter) ([]unmatched.Entry, error) {
	switch cfg.UnmatchedSink {
	case config.SinkSQLite:
		database, err := db.Open(cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		defer database.Close()
		return unmatched.NewStore(database).List(ctx, filter)

	case config.SinkFile:
		all, err := unmatched.ReadFile(cfg.UnmatchedLogPath)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		var entries []unmatched.Entry
		for _, e := range all {
			if filter.SessionID != "" && e.SessionID != filter.SessionID {
				continue
			}
			if filter.Since != nil && e.Timestamp.Before(*filter.Since) {
				continue
			}
			entries = append(entries, e)
		}
		return entries, nil

	default:
		return nil, fmt.Errorf("unmatched_sink is %q; nothing is persisted to export", cfg.UnmatchedSink)
	}
}
