package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/errmatch/internal/matcher"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactively match error messages against a dataset",
	Long:  `Loads the dataset and starts a prompt. Each line is matched as an error message; type "exit" or press Ctrl+D to quit.`,
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringP("dataset", "d", "", "CSV/XLSX file or glob holding known errors (required)")
	_ = chatCmd.MarkFlagRequired("dataset")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	pattern, _ := cmd.Flags().GetString("dataset")

	a, err := newApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	ds, err := a.loadDatasetWithSpinner(cmd.ErrOrStderr(), cliSession, pattern)
	if err != nil {
		return fmt.Errorf("loading dataset: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Loaded %d error records. Describe the error you are seeing.\n\n", ds.Len())

	ctx := context.Background()
	for {
		prompt := promptui.Prompt{Label: "Error"}
		line, err := prompt.Run()
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		resp, err := a.engine.Match(ctx, cliSession, line)
		if err != nil {
			var me *matcher.Error
			if errors.As(err, &me) {
				fmt.Fprintf(out, "%s\n\n", me.Message)
				continue
			}
			return err
		}
		printResponseTable(out, resp)
		fmt.Fprintln(out)
	}
}
