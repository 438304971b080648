package ics

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pearcec/calagent/internal/normalize"
)

const sampleICS = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//calagent//test//EN
BEGIN:VEVENT
UID:standup
DTSTAMP:20240101T000000Z
SUMMARY:Standup
DTSTART:20240603T020000Z
DTEND:20240603T021500Z
RRULE:FREQ=DAILY;COUNT=5
EXDATE:20240605T020000Z
END:VEVENT
BEGIN:VEVENT
UID:standup
DTSTAMP:20240101T000000Z
RECURRENCE-ID:20240606T020000Z
SUMMARY:Standup (moved)
DTSTART:20240606T030000Z
DTEND:20240606T031500Z
END:VEVENT
BEGIN:VEVENT
UID:holiday
DTSTAMP:20240101T000000Z
SUMMARY:Holiday
DTSTART;VALUE=DATE:20240604
DTEND;VALUE=DATE:20240605
END:VEVENT
BEGIN:VEVENT
UID:lunch
DTSTAMP:20240101T000000Z
SUMMARY:Lunch
LOCATION:Cafe
DTSTART:20240604T050000Z
DTEND:20240604T060000Z
END:VEVENT
BEGIN:VEVENT
UID:focus
DTSTAMP:20240101T000000Z
SUMMARY:Focus
TRANSP:TRANSPARENT
DTSTART:20240604T070000Z
DTEND:20240604T080000Z
END:VEVENT
BEGIN:VEVENT
UID:cancelled
DTSTAMP:20240101T000000Z
STATUS:CANCELLED
SUMMARY:Gone
DTSTART:20240604T090000Z
DTEND:20240604T100000Z
END:VEVENT
BEGIN:VEVENT
UID:nostart
DTSTAMP:20240101T000000Z
SUMMARY:Broken
END:VEVENT
END:VCALENDAR
`

func writeICS(t *testing.T) string {
	t.Helper()
	return writeICSContent(t, sampleICS)
}

func writeICSContent(t *testing.T, ics string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cal.ics")
	content := strings.ReplaceAll(ics, "\n", "\r\n")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write ics: %v", err)
	}
	return path
}

func summaries(events []normalize.RawEvent) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.Summary)
	}
	return out
}

func utc(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestParseSkipsCancelledAndBroken(t *testing.T) {
	f, err := os.Open(writeICS(t))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	cal, err := Parse(f, nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	// standup, holiday, lunch, focus; the override is held separately.
	if cal.Len() != 4 {
		t.Errorf("Len() = %d, want 4", cal.Len())
	}
	if len(cal.overrides["standup"]) != 1 {
		t.Errorf("expected one standup override, got %d", len(cal.overrides["standup"]))
	}
}

func TestListEventsExpandsRecurrence(t *testing.T) {
	src := NewSource(writeICS(t), nil)

	events, err := src.ListEvents(context.Background(), utc("2024-06-03T00:00:00Z"), utc("2024-06-08T00:00:00Z"), 0)
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}

	want := []struct {
		summary string
		start   string
	}{
		{"Standup", "2024-06-03T02:00:00Z"},
		{"Holiday", "2024-06-04"},
		{"Standup", "2024-06-04T02:00:00Z"},
		{"Lunch", "2024-06-04T05:00:00Z"},
		{"Focus", "2024-06-04T07:00:00Z"},
		{"Standup (moved)", "2024-06-06T03:00:00Z"},
		{"Standup", "2024-06-07T02:00:00Z"},
	}
	if len(events) != len(want) {
		for _, e := range events {
			t.Logf("%s %s", e.Summary, e.Start)
		}
		t.Fatalf("got %d events, want %d", len(events), len(want))
	}
	for i, w := range want {
		if events[i].Summary != w.summary || events[i].Start.String() != w.start {
			t.Errorf("events[%d] = %s @ %s, want %s @ %s", i, events[i].Summary, events[i].Start, w.summary, w.start)
		}
	}

	holiday := events[1]
	if !holiday.AllDay() || holiday.End.String() != "2024-06-05" {
		t.Errorf("holiday = %+v", holiday)
	}
	if events[0].ID == events[2].ID {
		t.Error("recurring instances should have distinct IDs")
	}
}

func TestListEventsLimitAndWindow(t *testing.T) {
	src := NewSource(writeICS(t), nil)

	events, err := src.ListEvents(context.Background(), utc("2024-06-04T02:10:00Z"), time.Time{}, 2)
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	// The holiday and the 02:00 standup are both still running at 02:10.
	if events[0].Summary != "Holiday" || events[1].Summary != "Standup" {
		t.Errorf("events = %s, %s", events[0].Summary, events[1].Summary)
	}
}

func TestFreeBusy(t *testing.T) {
	src := NewSource(writeICS(t), nil)

	intervals, err := src.FreeBusy(context.Background(), utc("2024-06-04T02:10:00Z"), utc("2024-06-04T12:00:00Z"))
	if err != nil {
		t.Fatalf("FreeBusy() error = %v", err)
	}
	if len(intervals) != 2 {
		t.Fatalf("got %d intervals, want 2 (all-day and transparent skipped): %+v", len(intervals), intervals)
	}
	if intervals[0].Start != "2024-06-04T02:10:00Z" || intervals[0].End != "2024-06-04T02:15:00Z" {
		t.Errorf("first interval should be clipped, got %+v", intervals[0])
	}
	if intervals[1].Start != "2024-06-04T05:00:00Z" || intervals[1].End != "2024-06-04T06:00:00Z" {
		t.Errorf("second interval = %+v", intervals[1])
	}
}

func TestSourceMissingFile(t *testing.T) {
	src := NewSource(filepath.Join(t.TempDir(), "missing.ics"), nil)
	if _, err := src.ListEvents(context.Background(), time.Now(), time.Time{}, 0); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSourceCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := NewSource(writeICS(t), nil)
	if _, err := src.FreeBusy(ctx, time.Now(), time.Now().Add(time.Hour)); err == nil {
		t.Fatal("expected context error")
	}
}

func TestInWindow(t *testing.T) {
	from := utc("2024-06-01T10:00:00Z")
	to := utc("2024-06-01T12:00:00Z")

	tests := []struct {
		name       string
		start, end time.Time
		want       bool
	}{
		{"inside", utc("2024-06-01T10:30:00Z"), utc("2024-06-01T11:00:00Z"), true},
		{"ends at from", utc("2024-06-01T09:00:00Z"), from, false},
		{"starts at to", to, utc("2024-06-01T13:00:00Z"), false},
		{"spans window", utc("2024-06-01T09:00:00Z"), utc("2024-06-01T13:00:00Z"), true},
		{"zero length at from", from, from, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inWindow(tt.start, tt.end, from, to); got != tt.want {
				t.Errorf("inWindow() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestListEventsAllDayFollowsWindowZone(t *testing.T) {
	bangkok, err := time.LoadLocation("Asia/Bangkok")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	src := NewSource(writeICS(t), nil)

	tests := []struct {
		name string
		day  time.Time
		want []string
	}{
		{
			name: "holiday date",
			day:  time.Date(2024, 6, 4, 0, 0, 0, 0, bangkok),
			want: []string{"Holiday", "Standup", "Lunch", "Focus"},
		},
		{
			// 2024-06-05 in Bangkok starts at 2024-06-04T17:00Z, still inside the
			// holiday's UTC day.
			name: "day after holiday",
			day:  time.Date(2024, 6, 5, 0, 0, 0, 0, bangkok),
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := src.ListEvents(context.Background(), tt.day, tt.day.AddDate(0, 0, 1).Add(-time.Microsecond), 0)
			if err != nil {
				t.Fatalf("ListEvents() error = %v", err)
			}
			got := summaries(events)
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("events = %v, want %v", got, tt.want)
			}
		})
	}
}

const movedICS = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//calagent//test//EN
BEGIN:VEVENT
UID:review
DTSTAMP:20240101T000000Z
SUMMARY:Review
DTSTART:20240601T120000Z
DTEND:20240601T130000Z
RRULE:FREQ=DAILY;COUNT=5
END:VEVENT
BEGIN:VEVENT
UID:review
DTSTAMP:20240101T000000Z
RECURRENCE-ID:20240603T120000Z
SUMMARY:Review (pulled forward)
DTSTART:20240602T050000Z
DTEND:20240602T060000Z
END:VEVENT
END:VCALENDAR
`

func TestListEventsOverrideMovedIntoWindow(t *testing.T) {
	src := NewSource(writeICSContent(t, movedICS), nil)

	events, err := src.ListEvents(context.Background(), utc("2024-06-01T17:00:00Z"), utc("2024-06-02T17:00:00Z"), 0)
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %v, want 2", summaries(events))
	}
	if events[0].Summary != "Review (pulled forward)" || events[0].Start.String() != "2024-06-02T05:00:00Z" {
		t.Errorf("events[0] = %s @ %s", events[0].Summary, events[0].Start)
	}
	if events[1].Summary != "Review" || events[1].Start.String() != "2024-06-02T12:00:00Z" {
		t.Errorf("events[1] = %s @ %s", events[1].Summary, events[1].Start)
	}
}

func TestListEventsOverrideNotDuplicated(t *testing.T) {
	src := NewSource(writeICSContent(t, movedICS), nil)

	events, err := src.ListEvents(context.Background(), utc("2024-06-01T00:00:00Z"), utc("2024-06-10T00:00:00Z"), 0)
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	want := []string{"Review", "Review (pulled forward)", "Review", "Review", "Review"}
	if got := summaries(events); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v, want %v", got, want)
	}
}

const floatingICS = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//calagent//test//EN
BEGIN:VEVENT
UID:gym
DTSTAMP:20240101T000000Z
SUMMARY:Gym
DTSTART:20240601T090000
DTEND:20240601T100000
RRULE:FREQ=DAILY;COUNT=3
EXDATE:20240602T090000
END:VEVENT
END:VCALENDAR
`

func TestListEventsFloatingExDate(t *testing.T) {
	saved := time.Local
	time.Local = time.FixedZone("UTC+7", 7*3600)
	t.Cleanup(func() { time.Local = saved })

	src := NewSource(writeICSContent(t, floatingICS), nil)
	events, err := src.ListEvents(context.Background(), utc("2024-05-31T00:00:00Z"), utc("2024-06-05T00:00:00Z"), 0)
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}

	want := []string{"2024-06-01T02:00:00Z", "2024-06-03T02:00:00Z"}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d", len(events), len(want))
	}
	for i, w := range want {
		if events[i].Start.String() != w {
			t.Errorf("events[%d].Start = %s, want %s", i, events[i].Start, w)
		}
	}
}
