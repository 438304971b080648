package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about your calendar",
	Long: `Send your upcoming events and a question to Gemini.

Example:
  calagent ask "When am I free on Thursday afternoon?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	a, err := newApp(cmd.Context(), stdinIsTerminal(), out)
	if err != nil {
		return err
	}
	defer a.Close()

	answer, err := a.svc.Ask(cmd.Context(), strings.Join(args, " "), "")
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(out, answer)
	}
	fmt.Fprintln(out, strings.TrimSpace(answer.Response))
	return nil
}
