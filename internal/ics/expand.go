package ics

import (
	"sort"
	"time"

	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/pearcec/calagent/internal/normalize"
)

const (
	maxOccurrencesPerEvent = 5000
	// openHorizon bounds recurrence expansion when the window has no end.
	openHorizon = 366 * 24 * time.Hour
)

type occurrence struct {
	ev    vevent
	start time.Time
	end   time.Time
}

// occurrences expands every event into concrete instances overlapping
// [from, to), ordered by start. A zero to leaves the window open. All-day
// events are placed on the calendar of from's location, so a date matches
// the local day it names rather than the UTC one.
func (c *Calendar) occurrences(from, to time.Time, logger *zap.Logger) []occurrence {
	loc := from.Location()

	var out []occurrence
	for _, ev := range c.events {
		if ev.rrule == "" {
			if occ := place(ev, ev.start, ev.end, loc); inWindow(occ.start, occ.end, from, to) {
				out = append(out, occ)
			}
			continue
		}
		out = append(out, c.expandRecurring(ev, from, to, loc, logger)...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].start.Before(out[j].start)
	})
	return out
}

// place builds an occurrence, re-anchoring all-day dates to midnight in loc.
func place(ev vevent, start, end time.Time, loc *time.Location) occurrence {
	if ev.allDay {
		start, end = localDate(start, loc), localDate(end, loc)
	}
	return occurrence{ev: ev, start: start, end: end}
}

// localDate returns midnight in loc of the UTC calendar date of t.
func localDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func (c *Calendar) expandRecurring(ev vevent, from, to time.Time, loc *time.Location, logger *zap.Logger) []occurrence {
	r, err := rrule.StrToRRule(ev.rrule)
	if err != nil {
		logger.Warn("skipping unparseable RRULE", zap.String("uid", ev.uid), zap.String("rrule", ev.rrule), zap.Error(err))
		return nil
	}
	r.DTStart(ev.start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.exDates {
		set.ExDate(ex.In(ev.start.Location()))
	}

	dur := ev.end.Sub(ev.start)
	upper := to
	if upper.IsZero() {
		upper = from.Add(openHorizon)
	}
	// All-day instants move by up to a day once placed in loc.
	lower := from.Add(-dur)
	if ev.allDay {
		lower = lower.Add(-24 * time.Hour)
		upper = upper.Add(24 * time.Hour)
	}
	starts := set.Between(lower, upper, true)
	if len(starts) > maxOccurrencesPerEvent {
		logger.Warn("recurrence truncated", zap.String("uid", ev.uid), zap.Int("cap", maxOccurrencesPerEvent))
		starts = starts[:maxOccurrencesPerEvent]
	}

	seen := make(map[int64]bool, len(starts))
	out := make([]occurrence, 0, len(starts))
	for _, start := range starts {
		occ := place(ev, start, start.Add(dur), loc)
		if o, ok := c.overrideFor(ev.uid, start); ok {
			seen[start.Unix()] = true
			occ = place(o, o.start, o.end, loc)
		}
		if inWindow(occ.start, occ.end, from, to) {
			out = append(out, occ)
		}
	}

	// An instance moved into the window from a slot outside it.
	for _, o := range c.overrides[ev.uid] {
		if seen[o.recurrence.Unix()] {
			continue
		}
		if occ := place(o, o.start, o.end, loc); inWindow(occ.start, occ.end, from, to) {
			out = append(out, occ)
		}
	}
	return out
}

// overrideFor finds a RECURRENCE-ID instance replacing the occurrence at start.
func (c *Calendar) overrideFor(uid string, start time.Time) (vevent, bool) {
	for _, o := range c.overrides[uid] {
		if o.recurrence.Equal(start) {
			return o, true
		}
	}
	return vevent{}, false
}

// inWindow mirrors the provider query semantics: the event must end after
// from and start before to. Zero-length events count when they start at or
// after from.
func inWindow(start, end, from, to time.Time) bool {
	if !to.IsZero() && !start.Before(to) {
		return false
	}
	if end.Equal(start) {
		return !start.Before(from)
	}
	return end.After(from)
}

func (o occurrence) rawEvent() normalize.RawEvent {
	raw := normalize.RawEvent{
		ID:          o.ev.uid,
		Summary:     o.ev.summary,
		Description: o.ev.description,
		Location:    o.ev.location,
	}
	if o.ev.rrule != "" || o.ev.recurrence != nil {
		raw.ID = o.ev.uid + "_" + o.start.UTC().Format("20060102T150405Z")
	}
	if o.ev.allDay {
		raw.Start = normalize.DateOnly(o.start.Format("2006-01-02"))
		raw.End = normalize.DateOnly(o.end.Format("2006-01-02"))
	} else {
		raw.Start = normalize.Timestamped(o.start.UTC().Format(time.RFC3339))
		raw.End = normalize.Timestamped(o.end.UTC().Format(time.RFC3339))
	}
	return raw
}
