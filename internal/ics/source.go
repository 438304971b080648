package ics

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/pearcec/calagent/internal/normalize"
)

// Source serves events from an .ics file. The file is re-read on every
// call so edits are picked up without restarting.
type Source struct {
	path string
	log  *zap.Logger
}

// NewSource returns a Source reading path.
func NewSource(path string, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{
		path: path,
		log:  logger.With(zap.String("component", "ics"), zap.String("path", path)),
	}
}

func (s *Source) load() (*Calendar, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open calendar file: %w", err)
	}
	defer f.Close()
	return Parse(f, s.log)
}

// ListEvents returns occurrences overlapping [timeMin, timeMax) ordered by
// start. A zero timeMax leaves the window open; limit <= 0 means no limit.
func (s *Source) ListEvents(ctx context.Context, timeMin, timeMax time.Time, limit int) ([]normalize.RawEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cal, err := s.load()
	if err != nil {
		return nil, err
	}

	occs := cal.occurrences(timeMin, timeMax, s.log)
	if limit > 0 && len(occs) > limit {
		occs = occs[:limit]
	}

	events := make([]normalize.RawEvent, 0, len(occs))
	for _, o := range occs {
		events = append(events, o.rawEvent())
	}
	return events, nil
}

// FreeBusy reports opaque timed events as busy intervals clipped to
// [timeMin, timeMax). All-day and transparent events do not block time.
func (s *Source) FreeBusy(ctx context.Context, timeMin, timeMax time.Time) ([]normalize.BusyInterval, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cal, err := s.load()
	if err != nil {
		return nil, err
	}

	intervals := make([]normalize.BusyInterval, 0)
	for _, o := range cal.occurrences(timeMin, timeMax, s.log) {
		if o.ev.allDay || o.ev.transparent {
			continue
		}
		start, end := o.start, o.end
		if start.Before(timeMin) {
			start = timeMin
		}
		if end.After(timeMax) {
			end = timeMax
		}
		intervals = append(intervals, normalize.BusyInterval{
			Start: start.UTC().Format(time.RFC3339),
			End:   end.UTC().Format(time.RFC3339),
		})
	}
	return intervals, nil
}
