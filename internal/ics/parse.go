// Package ics reads events from iCalendar (.ics) files so that calagent can
// answer questions about an exported calendar without Google access.
package ics

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"go.uber.org/zap"
)

const icsDateLayout = "20060102"

// vevent is a VEVENT reduced to what the provider needs.
type vevent struct {
	uid         string
	summary     string
	description string
	location    string

	start  time.Time
	end    time.Time
	allDay bool

	transparent bool

	rrule      string
	exDates    []time.Time
	recurrence *time.Time
}

// Calendar is a parsed iCalendar payload.
type Calendar struct {
	events    []vevent
	overrides map[string][]vevent
}

// Len returns the number of base (non-override) events.
func (c *Calendar) Len() int { return len(c.events) }

// Parse reads an iCalendar stream. Cancelled events are dropped and
// malformed VEVENTs are logged and skipped.
func Parse(r io.Reader, logger *zap.Logger) (*Calendar, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}

	out := &Calendar{overrides: make(map[string][]vevent)}
	for _, comp := range cal.Events() {
		if p := comp.GetProperty(ical.ComponentPropertyStatus); p != nil && strings.EqualFold(p.Value, "CANCELLED") {
			continue
		}
		ev, err := parseVEvent(comp)
		if err != nil {
			logger.Warn("skipping vevent", zap.String("uid", ev.uid), zap.Error(err))
			continue
		}
		if ev.recurrence != nil {
			out.overrides[ev.uid] = append(out.overrides[ev.uid], ev)
			continue
		}
		out.events = append(out.events, ev)
	}

	logger.Debug("ics parse completed", zap.Int("eventCount", len(out.events)))
	return out, nil
}

func parseVEvent(ve *ical.VEvent) (vevent, error) {
	var out vevent

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		out.uid = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.location = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyTransp); p != nil {
		out.transparent = strings.EqualFold(p.Value, "TRANSPARENT")
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return out, errors.New("missing DTSTART")
	}
	out.allDay = isDateValue(dtStart)

	if out.allDay {
		start, err := time.ParseInLocation(icsDateLayout, dtStart.Value, time.UTC)
		if err != nil {
			return out, fmt.Errorf("DTSTART: %w", err)
		}
		out.start = start
		out.end = start.AddDate(0, 0, 1)
		if dtEnd := ve.GetProperty(ical.ComponentPropertyDtEnd); dtEnd != nil {
			if end, err := time.ParseInLocation(icsDateLayout, dtEnd.Value, time.UTC); err == nil {
				out.end = end
			}
		}
	} else {
		start, err := ve.GetStartAt()
		if err != nil {
			return out, fmt.Errorf("DTSTART: %w", err)
		}
		out.start = start
		out.end = start
		if end, err := ve.GetEndAt(); err == nil {
			out.end = end
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.rrule = p.Value
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseICSTime(strings.TrimSpace(part), tzid(p)); err == nil {
				out.exDates = append(out.exDates, t)
			}
		}
	}
	if p := ve.GetProperty("RECURRENCE-ID"); p != nil {
		t, err := parseICSTime(p.Value, tzid(p))
		if err != nil {
			return out, fmt.Errorf("RECURRENCE-ID: %w", err)
		}
		out.recurrence = &t
	}

	return out, nil
}

// isDateValue reports whether a DTSTART carries only a calendar date.
func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

func tzid(p *ical.IANAProperty) string {
	if tzs, ok := p.ICalParameters["TZID"]; ok && len(tzs) > 0 {
		return tzs[0]
	}
	return ""
}

// parseICSTime reads a DATE or DATE-TIME value. Floating times use the
// TZID when given and time.Local otherwise, as GetStartAt does for DTSTART.
func parseICSTime(v, zone string) (time.Time, error) {
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}

	loc := time.Local
	if zone != "" {
		l, err := time.LoadLocation(zone)
		if err != nil {
			return time.Time{}, err
		}
		loc = l
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, loc)
	}
	return time.ParseInLocation(icsDateLayout, v, time.UTC)
}
