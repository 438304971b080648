package briefing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pearcec/calagent/internal/agent"
	"github.com/pearcec/calagent/internal/normalize"
)

type fakeAgent struct {
	today    agent.TodayResult
	answer   agent.Answer
	todayErr error
	askErr   error
	asked    []string
}

func (f *fakeAgent) Today(context.Context, string) (agent.TodayResult, error) {
	return f.today, f.todayErr
}

func (f *fakeAgent) Ask(_ context.Context, question, _ string) (agent.Answer, error) {
	f.asked = append(f.asked, question)
	return f.answer, f.askErr
}

func testConfig(t *testing.T) Config {
	return Config{
		Schedule:  "0 7 * * *",
		Question:  "Brief me",
		Zone:      "Asia/Bangkok",
		OutputDir: filepath.Join(t.TempDir(), "briefings"),
	}
}

func TestValidateSchedule(t *testing.T) {
	tests := []struct {
		expr    string
		wantErr bool
	}{
		{"0 7 * * *", false},
		{"30 6 * * 1-5", false},
		{"@daily", true},
		{"0 0 7 * * *", true},
		{"not a cron", true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			if err := ValidateSchedule(tt.expr); (err != nil) != tt.wantErr {
				t.Errorf("ValidateSchedule(%q) error = %v, wantErr %v", tt.expr, err, tt.wantErr)
			}
		})
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Zone = "Nowhere/Land"
	if _, err := New(cfg, &fakeAgent{}, nil); err == nil {
		t.Error("expected error for unknown zone")
	}

	cfg = testConfig(t)
	cfg.Schedule = "every morning"
	if _, err := New(cfg, &fakeAgent{}, nil); err == nil {
		t.Error("expected error for bad schedule")
	}
}

func TestRunOnce(t *testing.T) {
	fa := &fakeAgent{
		today: agent.TodayResult{
			Date: "2024-06-01",
			Events: []normalize.Event{
				{Title: "Holiday", Start: "2024-06-01", End: "2024-06-02", AllDay: true},
				{Title: "Standup", Location: "Room 4", Start: "2024-06-01 10:00:00", End: "2024-06-01 10:15:00"},
			},
		},
		answer: agent.Answer{Response: "  Light day.  "},
	}
	cfg := testConfig(t)
	s, err := New(cfg, fa, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	s.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }

	path, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if filepath.Base(path) != "briefing_2024-06-01.md" {
		t.Errorf("path = %s", path)
	}
	if len(fa.asked) != 1 || fa.asked[0] != "Brief me" {
		t.Errorf("asked = %v", fa.asked)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	for _, want := range []string{
		"# Briefing for 2024-06-01",
		"- All day: Holiday",
		"- 10:00 - 10:15: Standup (Room 4)",
		"## Assistant\n\nLight day.\n",
		"_Generated 2024-06-01T00:00:00Z_",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("briefing missing %q:\n%s", want, content)
		}
	}
}

func TestRunOnceNoData(t *testing.T) {
	fa := &fakeAgent{today: agent.TodayResult{Date: "2024-06-01"}, askErr: agent.ErrNoCalendarData}
	s, err := New(testConfig(t), fa, nil)
	if err != nil {
		t.Fatal(err)
	}

	path, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "Nothing scheduled.") || !strings.Contains(string(data), "No upcoming events.") {
		t.Errorf("unexpected briefing:\n%s", data)
	}
}

func TestRunOnceErrors(t *testing.T) {
	boom := errors.New("boom")

	s, _ := New(testConfig(t), &fakeAgent{todayErr: boom}, nil)
	if _, err := s.RunOnce(context.Background()); !errors.Is(err, boom) {
		t.Errorf("today failure: error = %v", err)
	}

	s, _ = New(testConfig(t), &fakeAgent{today: agent.TodayResult{Date: "2024-06-01"}, askErr: boom}, nil)
	if _, err := s.RunOnce(context.Background()); !errors.Is(err, boom) {
		t.Errorf("ask failure: error = %v", err)
	}
}

func TestStartStop(t *testing.T) {
	s, err := New(testConfig(t), &fakeAgent{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Start(); err == nil {
		t.Error("second Start should fail")
	}
	s.Stop()
	s.Stop()
	if err := s.Start(); err != nil {
		t.Errorf("restart after Stop failed: %v", err)
	}
	s.Stop()
}

func TestClock(t *testing.T) {
	if got := clock("2024-06-01 09:05:00"); got != "09:05" {
		t.Errorf("clock() = %q", got)
	}
	if got := clock("2024-06-01"); got != "2024-06-01" {
		t.Errorf("clock(date) = %q", got)
	}
}
