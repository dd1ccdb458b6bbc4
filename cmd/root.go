package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/errmatch/internal/config"
)

var (
	cfgFile string
	verbose bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "errmatch",
	Short: "Match boot and hardware errors against a troubleshooting dataset",
	Long: `errmatch loads a CSV or Excel sheet of known boot errors and their fixes,
then matches free-text error reports against it. It runs as a web chat, an MCP
server for AI agents, or straight from the command line.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			color.NoColor = true
		}
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

