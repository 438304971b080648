package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/pearcec/calagent/internal/agent"
	"github.com/pearcec/calagent/internal/normalize"
)

const dateLayout = "2006-01-02"

var (
	eventsMax int
	busyStart string
	busyEnd   string
	busyDays  int
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List upcoming events",
	RunE:  runEvents,
}

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show today's events",
	RunE:  runToday,
}

var busyCmd = &cobra.Command{
	Use:   "busy",
	Short: "Check free/busy status for a date range",
	Long: `Report busy periods between two dates (YYYY-MM-DD, midnight in the
configured time zone). The range defaults to today through --days ahead.`,
	RunE: runBusy,
}

func init() {
	eventsCmd.Flags().IntVarP(&eventsMax, "max", "n", agent.DefaultMaxResults, "Number of events to show")

	busyCmd.Flags().StringVar(&busyStart, "start", "", "Start date (YYYY-MM-DD), defaults to today")
	busyCmd.Flags().StringVar(&busyEnd, "end", "", "End date (YYYY-MM-DD), defaults to start plus --days")
	busyCmd.Flags().IntVar(&busyDays, "days", 30, "Days ahead when --end is not given")

	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(todayCmd)
	rootCmd.AddCommand(busyCmd)
}

func runEvents(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	a, err := newApp(cmd.Context(), stdinIsTerminal(), out)
	if err != nil {
		return err
	}
	defer a.Close()

	events, err := a.svc.Upcoming(cmd.Context(), eventsMax, "")
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(out, map[string]interface{}{"events": events})
	}
	printEvents(out, events)
	return nil
}

func runToday(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	a, err := newApp(cmd.Context(), stdinIsTerminal(), out)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.svc.Today(cmd.Context(), "")
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(out, result)
	}
	printToday(out, result)
	return nil
}

func runBusy(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	a, err := newApp(cmd.Context(), stdinIsTerminal(), out)
	if err != nil {
		return err
	}
	defer a.Close()

	start, end, err := busyRange(busyStart, busyEnd, busyDays, a.svc.DefaultZone(), time.Now())
	if err != nil {
		return err
	}

	report, err := a.svc.FreeBusy(cmd.Context(), start, end, "")
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(out, report)
	}
	printBusy(out, report)
	return nil
}

// busyRange fills in missing range ends relative to today in zone.
func busyRange(start, end string, days int, zone string, now time.Time) (string, string, error) {
	loc, err := normalize.LoadZone(zone)
	if err != nil {
		return "", "", err
	}
	if start == "" {
		start = now.In(loc).Format(dateLayout)
	}
	if end == "" {
		from, err := time.ParseInLocation(dateLayout, start, loc)
		if err != nil {
			return "", "", agent.ErrInvalidDate
		}
		end = from.AddDate(0, 0, days).Format(dateLayout)
	}
	return start, end, nil
}
