package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/errmatch/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an errmatch configuration with an interactive wizard",
	Long:  `Runs an interactive wizard for the port, match strictness and unmatched-error storage, and writes a .errmatch.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.RunWizard()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Run `errmatch serve` to start the chat on port %d.\n", cfg.Port)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
