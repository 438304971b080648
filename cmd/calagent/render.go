package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/pearcec/calagent/internal/agent"
	"github.com/pearcec/calagent/internal/normalize"
)

const noLocation = "No location"

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// printEvents writes upcoming events as a table.
func printEvents(w io.Writer, events []normalize.Event) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No upcoming events found.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "START\tEND\tEVENT\tLOCATION")
	for _, e := range events {
		start, end := e.Start, e.End
		if e.AllDay {
			end = "All day"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", start, end, e.Title, orNoLocation(e.Location))
	}
	tw.Flush()
}

// printToday writes the day view with durations taken from the raw events.
func printToday(w io.Writer, today agent.TodayResult) {
	fmt.Fprintf(w, "Today's Events (%s)\n\n", today.Date)
	if len(today.Events) == 0 {
		fmt.Fprintln(w, "No events scheduled for today.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tEVENT\tLOCATION\tDURATION")
	for i, e := range today.Events {
		at := "All day"
		if !e.AllDay {
			at = clockOf(e.Start)
		}
		var raw normalize.RawEvent
		if i < len(today.Raw) {
			raw = today.Raw[i]
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", at, e.Title, orNoLocation(e.Location), durationOf(raw, e.AllDay))
	}
	tw.Flush()
}

// printBusy writes one line per busy period.
func printBusy(w io.Writer, report normalize.BusyReport) {
	if !report.AnyBusy {
		fmt.Fprintln(w, "No busy periods found in this time range.")
		return
	}
	fmt.Fprintln(w, "Busy periods:")
	for _, p := range report.Periods {
		fmt.Fprintf(w, "  %s - %s\n", p.StartFormatted, p.EndFormatted)
	}
}

func orNoLocation(loc string) string {
	if loc == "" {
		return noLocation
	}
	return loc
}

// clockOf returns HH:MM from "YYYY-MM-DD HH:MM:SS", or the value unchanged.
func clockOf(v string) string {
	if len(v) >= 16 && v[10] == ' ' {
		return v[11:16]
	}
	return v
}

func durationOf(raw normalize.RawEvent, allDay bool) string {
	if allDay {
		return "24h"
	}
	d, err := raw.Duration()
	if err != nil {
		return "-"
	}
	return formatDuration(d)
}

// formatDuration renders d as "Xh Ym".
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Truncate(time.Minute)
	hours := int(d / time.Hour)
	minutes := int((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
