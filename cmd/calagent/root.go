package main

import (
	"github.com/spf13/cobra"
)

var (
	configPath string
	zoneFlag   string
	icsPath    string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "calagent",
	Short: "Ask questions about your calendar",
	Long: `calagent reads your Google Calendar (or an exported .ics file), shows
events and free/busy time in your time zone, and answers questions about
your schedule with Gemini.

  events     List upcoming events
  today      Show today's events
  busy       Check free/busy status for a date range
  ask        Ask a question about your calendar
  chat       Interactive menu
  serve      Run the HTTP API
  auth       Authorize Google Calendar access
  briefing   Write today's briefing file`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/calagent/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&zoneFlag, "timezone", "", "IANA time zone for output (overrides config)")
	rootCmd.PersistentFlags().StringVar(&icsPath, "ics", "", "Read events from an .ics file instead of Google Calendar")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
}
