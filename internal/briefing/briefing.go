// Package briefing writes a daily calendar briefing on a cron schedule.
package briefing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/pearcec/calagent/internal/agent"
	"github.com/pearcec/calagent/internal/normalize"
)

const runTimeout = 2 * time.Minute

// Agent is the part of agent.Service a briefing needs.
type Agent interface {
	Today(ctx context.Context, zone string) (agent.TodayResult, error)
	Ask(ctx context.Context, question, zone string) (agent.Answer, error)
}

// Config controls what is asked and where the result goes.
type Config struct {
	Schedule  string
	Question  string
	Zone      string
	OutputDir string
}

// Scheduler runs briefings on a cron schedule in the configured zone.
type Scheduler struct {
	cfg   Config
	agent Agent
	log   *zap.Logger
	now   func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

// ValidateSchedule checks a standard five-field cron expression.
func ValidateSchedule(expr string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(expr); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	return nil
}

// New returns a Scheduler. It does not start until Start is called.
func New(cfg Config, a Agent, logger *zap.Logger) (*Scheduler, error) {
	if err := ValidateSchedule(cfg.Schedule); err != nil {
		return nil, err
	}
	if _, err := normalize.LoadZone(cfg.Zone); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cfg:   cfg,
		agent: a,
		log:   logger.With(zap.String("component", "briefing")),
		now:   time.Now,
	}, nil
}

// Start schedules the briefing job.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return errors.New("briefing scheduler already running")
	}

	loc, err := normalize.LoadZone(s.cfg.Zone)
	if err != nil {
		return err
	}

	c := cron.New(cron.WithLocation(loc))
	_, err = c.AddFunc(s.cfg.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		if path, err := s.RunOnce(ctx); err != nil {
			s.log.Error("briefing failed", zap.Error(err))
		} else {
			s.log.Info("briefing written", zap.String("path", path))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule briefing: %w", err)
	}

	c.Start()
	s.cron = c
	s.log.Info("briefing scheduled", zap.String("schedule", s.cfg.Schedule), zap.String("zone", loc.String()))
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}

// RunOnce builds today's briefing and writes it to
// <OutputDir>/briefing_YYYY-MM-DD.md, returning the path.
func (s *Scheduler) RunOnce(ctx context.Context) (string, error) {
	today, err := s.agent.Today(ctx, s.cfg.Zone)
	if err != nil {
		return "", fmt.Errorf("load today: %w", err)
	}

	answer, err := s.agent.Ask(ctx, s.cfg.Question, s.cfg.Zone)
	switch {
	case errors.Is(err, agent.ErrNoCalendarData):
		answer.Response = "No upcoming events."
	case err != nil:
		return "", fmt.Errorf("ask: %w", err)
	}

	if err := os.MkdirAll(s.cfg.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(s.cfg.OutputDir, "briefing_"+today.Date+".md")
	content := Render(today, answer.Response, s.now())
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("write briefing: %w", err)
	}
	return path, nil
}

// Render formats a briefing as markdown.
func Render(today agent.TodayResult, response string, generated time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Briefing for %s\n\n", today.Date)

	sb.WriteString("## Today\n\n")
	if len(today.Events) == 0 {
		sb.WriteString("Nothing scheduled.\n")
	}
	for _, e := range today.Events {
		if e.AllDay {
			fmt.Fprintf(&sb, "- All day: %s", e.Title)
		} else {
			fmt.Fprintf(&sb, "- %s - %s: %s", clock(e.Start), clock(e.End), e.Title)
		}
		if e.Location != "" {
			fmt.Fprintf(&sb, " (%s)", e.Location)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n## Assistant\n\n")
	sb.WriteString(strings.TrimSpace(response))
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "_Generated %s_\n", generated.Format(time.RFC3339))
	return sb.String()
}

// clock extracts HH:MM from a normalized "YYYY-MM-DD HH:MM:SS" value.
func clock(v string) string {
	if len(v) >= 16 && v[10] == ' ' {
		return v[11:16]
	}
	return v
}
