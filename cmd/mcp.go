package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/errmatch/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server for AI agent integration",
	Long: `Starts a Model Context Protocol server on stdio exposing the match_error,
load_dataset, dataset_info and list_unmatched tools. Use --dataset to load a
dataset before the first tool call.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Stdout carries the protocol; everything else goes to stderr.
		a, err := newApp(os.Stderr)
		if err != nil {
			return err
		}
		defer a.Close()

		if pattern, _ := cmd.Flags().GetString("dataset"); pattern != "" {
			ds, err := a.loadDataset(mcpserver.SessionID, pattern)
			if err != nil {
				return fmt.Errorf("loading dataset: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Loaded %d error records from %s\n", ds.Len(), ds.Source)
		}

		mcpserver.Version = Version
		srv := mcpserver.NewServer(a.engine, a.unmatched, a.cfg.MaxRows, a.logger)

		fmt.Fprintf(os.Stderr, "errmatch MCP server %s starting on stdio\n", Version)
		return srv.Serve()
	},
}

func init() {
	mcpCmd.Flags().String("dataset", "", "CSV/XLSX file or glob to load at startup")
	rootCmd.AddCommand(mcpCmd)
}
