// Package agent answers calendar questions: it pulls raw events from a
// provider, normalizes them into the caller's zone and, for free-form
// questions, hands the result to a generative model.
//
// Both the CLI and the HTTP server are thin shells over Service.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pearcec/calagent/internal/normalize"
)

const (
	// DefaultMaxResults bounds Upcoming when the caller gives no limit.
	DefaultMaxResults = 10
	// DefaultAnalysisDays is the look-ahead window handed to the model.
	DefaultAnalysisDays = 30
)

// Request validation and lookup failures. Callers map these to user
// errors; anything else is an upstream failure.
var (
	ErrQuestionRequired  = errors.New("question is required")
	ErrDateRangeRequired = errors.New("start_date and end_date are required")
	ErrInvalidDate       = errors.New("dates must be YYYY-MM-DD")
	ErrInvalidZone       = errors.New("unknown time zone")
	ErrNoCalendarData    = errors.New("no calendar data found")
	ErrPromptRequired    = errors.New("userPrompt is required")
	ErrModelUnavailable  = errors.New("generative model is not configured")
)

// Provider is a source of raw calendar data.
type Provider interface {
	ListEvents(ctx context.Context, timeMin, timeMax time.Time, limit int) ([]normalize.RawEvent, error)
	FreeBusy(ctx context.Context, timeMin, timeMax time.Time) ([]normalize.BusyInterval, error)
}

// Model turns a prompt into text.
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Service implements the calendar use cases.
type Service struct {
	provider     Provider
	model        Model
	norm         *normalize.Normalizer
	log          *zap.Logger
	now          func() time.Time
	defaultZone  string
	analysisDays int
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger used by the service and its normalizer.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.log = logger
		}
	}
}

// WithDefaultZone sets the zone used when a request names none.
func WithDefaultZone(zone string) Option {
	return func(s *Service) {
		if zone != "" {
			s.defaultZone = zone
		}
	}
}

// WithAnalysisDays sets the look-ahead window for Ask.
func WithAnalysisDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.analysisDays = days
		}
	}
}

// New returns a Service. model may be nil, in which case Ask and Analyze
// fail with ErrModelUnavailable.
func New(provider Provider, model Model, opts ...Option) *Service {
	s := &Service{
		provider:     provider,
		model:        model,
		log:          zap.NewNop(),
		now:          time.Now,
		defaultZone:  normalize.DefaultZone,
		analysisDays: DefaultAnalysisDays,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(zap.String("component", "agent"))
	s.norm = normalize.New(s.log)
	return s
}

// DefaultZone returns the zone used for requests that name none.
func (s *Service) DefaultZone() string { return s.defaultZone }

// TodayResult is the day view.
type TodayResult struct {
	Events []normalize.Event `json:"events"`
	Date   string            `json:"date"`
	// Raw keeps provider values for views that need durations.
	Raw []normalize.RawEvent `json:"-"`
}

// Answer is a model response together with the data it was given.
type Answer struct {
	Response     string            `json:"response"`
	CalendarData []normalize.Event `json:"calendar_data"`
}

func (s *Service) zone(name string) (string, *time.Location, error) {
	if name == "" {
		name = s.defaultZone
	}
	loc, err := normalize.LoadZone(name)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %q", ErrInvalidZone, name)
	}
	return name, loc, nil
}

// Upcoming lists up to limit events starting from now.
func (s *Service) Upcoming(ctx context.Context, limit int, zone string) ([]normalize.Event, error) {
	name, _, err := s.zone(zone)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultMaxResults
	}

	raws, err := s.provider.ListEvents(ctx, s.now(), time.Time{}, limit)
	if err != nil {
		return nil, err
	}
	return s.norm.FormatEvents(raws, name), nil
}

// Today lists the events of the current local day in zone.
func (s *Service) Today(ctx context.Context, zone string) (TodayResult, error) {
	name, loc, err := s.zone(zone)
	if err != nil {
		return TodayResult{}, err
	}

	now := s.now().In(loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1).Add(-time.Microsecond)

	raws, err := s.provider.ListEvents(ctx, start, end, 0)
	if err != nil {
		return TodayResult{}, err
	}
	return TodayResult{
		Events: s.norm.FormatEvents(raws, name),
		Date:   start.Format("2006-01-02"),
		Raw:    raws,
	}, nil
}

// FreeBusy reports busy periods between two local dates (YYYY-MM-DD),
// each taken at midnight in zone.
func (s *Service) FreeBusy(ctx context.Context, startDate, endDate, zone string) (normalize.BusyReport, error) {
	if startDate == "" || endDate == "" {
		return normalize.BusyReport{}, ErrDateRangeRequired
	}
	name, loc, err := s.zone(zone)
	if err != nil {
		return normalize.BusyReport{}, err
	}

	start, err := time.ParseInLocation("2006-01-02", startDate, loc)
	if err != nil {
		return normalize.BusyReport{}, fmt.Errorf("%w: start_date %q", ErrInvalidDate, startDate)
	}
	end, err := time.ParseInLocation("2006-01-02", endDate, loc)
	if err != nil {
		return normalize.BusyReport{}, fmt.Errorf("%w: end_date %q", ErrInvalidDate, endDate)
	}

	intervals, err := s.provider.FreeBusy(ctx, start, end)
	if err != nil {
		return normalize.BusyReport{}, err
	}
	return s.norm.AggregateBusy(intervals, name)
}

// CalendarData returns the events of the next days days (the configured
// analysis window when days <= 0).
func (s *Service) CalendarData(ctx context.Context, days int, zone string) ([]normalize.Event, error) {
	name, _, err := s.zone(zone)
	if err != nil {
		return nil, err
	}
	if days <= 0 {
		days = s.analysisDays
	}

	now := s.now()
	raws, err := s.provider.ListEvents(ctx, now, now.AddDate(0, 0, days), 0)
	if err != nil {
		return nil, err
	}
	return s.norm.FormatEvents(raws, name), nil
}

// Ask answers question using the analysis window as context.
func (s *Service) Ask(ctx context.Context, question, zone string) (Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, ErrQuestionRequired
	}
	if s.model == nil {
		return Answer{}, ErrModelUnavailable
	}
	name, _, err := s.zone(zone)
	if err != nil {
		return Answer{}, err
	}

	data, err := s.CalendarData(ctx, s.analysisDays, name)
	if err != nil {
		return Answer{}, err
	}
	if len(data) == 0 {
		return Answer{}, ErrNoCalendarData
	}

	prompt, err := CalendarPrompt(data, question, name, s.analysisDays)
	if err != nil {
		return Answer{}, err
	}

	s.log.Debug("asking model", zap.Int("eventCount", len(data)), zap.String("zone", name))
	text, err := s.model.Generate(ctx, prompt)
	if err != nil {
		return Answer{}, fmt.Errorf("error asking Gemini: %w", err)
	}
	return Answer{Response: text, CalendarData: data}, nil
}

// Analyze runs a caller-supplied prompt over caller-supplied data.
func (s *Service) Analyze(ctx context.Context, userPrompt, data string) (string, error) {
	if strings.TrimSpace(userPrompt) == "" {
		return "", ErrPromptRequired
	}
	if s.model == nil {
		return "", ErrModelUnavailable
	}
	return s.model.Generate(ctx, AnalyticsPrompt(userPrompt, data))
}
