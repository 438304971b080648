package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pearcec/calagent/internal/briefing"
	"github.com/pearcec/calagent/internal/config"
)

var briefingQuestion string

var briefingCmd = &cobra.Command{
	Use:   "briefing",
	Short: "Write today's briefing file",
	Long: `Collect today's events, ask Gemini the briefing question and write
the result to <briefing.output_dir>/briefing_<date>.md. "calagent serve"
does this on the briefing.schedule cron expression when briefing.enabled
is set.`,
	RunE: runBriefing,
}

func init() {
	briefingCmd.Flags().StringVarP(&briefingQuestion, "question", "q", "", "Question to ask (default from config)")
	rootCmd.AddCommand(briefingCmd)
}

func briefingConfig(cfg *config.Config) briefing.Config {
	return briefing.Config{
		Schedule:  cfg.Briefing.Schedule,
		Question:  cfg.Briefing.Question,
		Zone:      cfg.Timezone,
		OutputDir: config.ExpandPath(cfg.Briefing.OutputDir),
	}
}

func runBriefing(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	a, err := newApp(cmd.Context(), stdinIsTerminal(), out)
	if err != nil {
		return err
	}
	defer a.Close()

	bc := briefingConfig(a.cfg)
	if briefingQuestion != "" {
		bc.Question = briefingQuestion
	}
	b, err := briefing.New(bc, a.svc, a.log)
	if err != nil {
		return err
	}

	path, err := b.RunOnce(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Briefing written to %s\n", path)
	return nil
}
