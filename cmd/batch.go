package cmd

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/errmatch/internal/matcher"
	"github.com/ziadkadry99/errmatch/internal/progress"
)

var batchCmd = &cobra.Command{
	Use:   "batch [queries file]",
	Short: "Match every line of a file and write a report",
	Long: `Matches each non-blank line of the queries file against the dataset and
writes one report row per query. Lines starting with # are skipped. Queries that
match nothing are recorded in the unmatched log like any other query.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringP("dataset", "d", "", "CSV/XLSX file or glob holding known errors (required)")
	batchCmd.Flags().StringP("output", "o", "", "report file (default stdout)")
	batchCmd.Flags().String("format", "csv", "report format: csv or json")
	batchCmd.Flags().IntP("workers", "w", runtime.NumCPU(), "number of queries matched concurrently")
	_ = batchCmd.MarkFlagRequired("dataset")
	rootCmd.AddCommand(batchCmd)
}

// batchResult is one report row.
type batchResult struct {
	Query      string               `json:"query"`
	Kind       matcher.ResponseKind `json:"kind"`
	Error      string               `json:"error,omitempty"`
	Similarity float64              `json:"similarity,omitempty"`
	Priority   string               `json:"priority,omitempty"`
	PrimaryFix string               `json:"primary_fix,omitempty"`
	Candidates int                  `json:"candidates"`
	Category   matcher.Category     `json:"category,omitempty"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	pattern, _ := cmd.Flags().GetString("dataset")
	outPath, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")
	workers, _ := cmd.Flags().GetInt("workers")
	if format != "csv" && format != "json" {
		return fmt.Errorf("unknown format %q (want csv or json)", format)
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening queries: %w", err)
	}
	queries, err := readQueries(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("reading queries: %w", err)
	}
	if len(queries) == 0 {
		return fmt.Errorf("%s contains no queries", args[0])
	}

	a, err := newApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.loadDatasetWithSpinner(cmd.ErrOrStderr(), cliSession, pattern); err != nil {
		return fmt.Errorf("loading dataset: %w", err)
	}

	results, err := matchAll(cmd.Context(), a.engine, queries, workers, progress.NewReporter(cmd.ErrOrStderr(), "Matching queries"))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if outPath != "" {
		file, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating report: %w", err)
		}
		defer file.Close()
		out = file
	}

	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		err = enc.Encode(results)
	} else {
		err = writeBatchCSV(out, results)
	}
	if err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	unmatchedCount := 0
	for _, r := range results {
		if r.Kind == matcher.KindNoMatch {
			unmatchedCount++
		}
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Matched %d of %d queries\n", len(results)-unmatchedCount, len(results))
	return nil
}

// readQueries returns the trimmed, non-blank, non-comment lines of r.
func readQueries(r io.Reader) ([]string, error) {
	var queries []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		queries = append(queries, line)
	}
	return queries, sc.Err()
}

// matchAll matches queries on up to workers goroutines. Results keep the
// order of queries.
func matchAll(ctx context.Context, engine *matcher.Engine, queries []string, workers int, reporter progress.Reporter) ([]batchResult, error) {
	if workers < 1 {
		workers = 1
	}
	reporter.Start(len(queries))
	defer reporter.Finish()

	results := make([]batchResult, len(queries))
	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, q := range queries {
		g.Go(func() error {
			resp, err := engine.Match(gctx, cliSession, q)
			if err != nil {
				return fmt.Errorf("matching %q: %w", q, err)
			}
			results[i] = summarize(q, resp)

			mu.Lock()
			done++
			reporter.Update(done, q)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func summarize(query string, resp *matcher.Response) batchResult {
	r := batchResult{Query: query, Kind: resp.Kind, Candidates: len(resp.Matches)}
	if resp.Template != nil {
		r.Category = resp.Template.Category
	}
	if len(resp.Matches) == 0 {
		return r
	}
	top := resp.Matches[0]
	r.Error = top.Error
	r.Similarity = top.Similarity
	r.Priority = top.Priority
	r.Category = matcher.CategoryOf(top.Error)
	for _, f := range top.Fixes {
		if f.Type == matcher.FixPrimary {
			r.PrimaryFix = f.Content
			break
		}
	}
	return r
}

var batchHeader = []string{"Query", "Result", "Matched Error", "Similarity", "Priority", "Primary Fix", "Candidates", "Category"}

func writeBatchCSV(w io.Writer, results []batchResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(batchHeader); err != nil {
		return err
	}
	for _, r := range results {
		sim := ""
		if r.Kind != matcher.KindNoMatch {
			sim = fmt.Sprintf("%.3f", r.Similarity)
		}
		row := []string{
			r.Query,
			string(r.Kind),
			r.Error,
			sim,
			r.Priority,
			r.PrimaryFix,
			fmt.Sprint(r.Candidates),
			string(r.Category),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
