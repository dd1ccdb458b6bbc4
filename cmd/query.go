package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/errmatch/internal/matcher"
	"github.com/ziadkadry99/errmatch/internal/unmatched"
)

// cliSession is the dataset session used by the one-shot commands.
const cliSession = "cli"

var queryCmd = &cobra.Command{
	Use:   "query [error message]",
	Short: "Match one error message against a dataset",
	Long:  `Loads the dataset, matches the error message and prints the ranked fixes, a clarifying question, or suggestions for an unknown error.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().StringP("dataset", "d", "", "CSV/XLSX file or glob holding known errors (required)")
	queryCmd.Flags().String("context", "", "extra context stored with the query if it matches nothing")
	queryCmd.Flags().Bool("json", false, "output the response as JSON")
	_ = queryCmd.MarkFlagRequired("dataset")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	pattern, _ := cmd.Flags().GetString("dataset")
	userContext, _ := cmd.Flags().GetString("context")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.loadDatasetWithSpinner(cmd.ErrOrStderr(), cliSession, pattern); err != nil {
		return fmt.Errorf("loading dataset: %w", err)
	}

	ctx := unmatched.WithUserContext(context.Background(), userContext)
	resp, err := a.engine.Match(ctx, cliSession, args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		return printResponseJSON(cmd.OutOrStdout(), resp)
	}
	printResponseTable(cmd.OutOrStdout(), resp)
	return nil
}

func printResponseJSON(w io.Writer, resp *matcher.Response) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

var (
	headingColor = color.New(color.Bold)
	errorColor   = color.New(color.FgCyan)
	dimColor     = color.New(color.Faint)
)

// priorityColor highlights urgent fixes.
func priorityColor(priority string) *color.Color {
	switch matcher.PriorityRank(priority) {
	case 4, 3:
		return color.New(color.FgRed)
	case 1:
		return color.New(color.FgGreen)
	default:
		return color.New(color.FgYellow)
	}
}

func printResponseTable(w io.Writer, resp *matcher.Response) {
	headingColor.Fprintln(w, resp.Message)

	for i, m := range resp.Matches {
		fmt.Fprintf(w, "\n  %d. [%.1f%%] %s (%s)\n", i+1, m.Similarity*100,
			errorColor.Sprint(m.Error), priorityColor(m.Priority).Sprint(m.Priority))
		for _, f := range m.Fixes {
			fmt.Fprintf(w, "     %s: %s\n", f.Type, f.Content)
		}
	}

	if resp.FollowUp != nil {
		fmt.Fprintf(w, "\n%s\n", resp.FollowUp.Question)
	}

	if len(resp.Suggestions) > 0 {
		headingColor.Fprintln(w, "\nSuggestions:")
		for _, s := range resp.Suggestions {
			fmt.Fprintf(w, "  - %s\n", s)
		}
	}
	if resp.Template != nil {
		headingColor.Fprintln(w, "\nAdd it to the dataset with a row like:")
		fmt.Fprintf(w, "  %s\n", resp.Template.SuggestedFormat.CSVRow)
		dimColor.Fprintf(w, "  Columns: %s\n", strings.Join(resp.Template.SuggestedFormat.ExcelColumns, ", "))
	}
}
