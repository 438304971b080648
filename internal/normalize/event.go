package normalize

import (
	"errors"
	"fmt"
	"time"
)

// DefaultTitle replaces a missing event title.
const DefaultTitle = "No title"

// ErrMissingTime is returned when a provider record has neither a timed
// nor a date-only value.
var ErrMissingTime = errors.New("event time has neither dateTime nor date")

// RawEventTime is a provider time value: either a bare calendar date or a
// timestamp. It is built once at the provider boundary.
type RawEventTime struct {
	value string
	timed bool
}

// DateOnly wraps a "YYYY-MM-DD" value.
func DateOnly(date string) RawEventTime {
	return RawEventTime{value: date}
}

// Timestamped wraps an ISO-8601 timestamp value.
func Timestamped(dateTime string) RawEventTime {
	return RawEventTime{value: dateTime, timed: true}
}

// FromFields picks the timed field when present and falls back to the date.
func FromFields(dateTime, date string) (RawEventTime, error) {
	switch {
	case dateTime != "":
		return Timestamped(dateTime), nil
	case date != "":
		return DateOnly(date), nil
	default:
		return RawEventTime{}, ErrMissingTime
	}
}

// String returns the raw provider value.
func (r RawEventTime) String() string { return r.value }

// Timed reports whether the value came from the provider's timed field.
func (r RawEventTime) Timed() bool { return r.timed }

// Time parses the raw value according to the field it came from. Dates
// resolve to midnight UTC.
func (r RawEventTime) Time() (time.Time, error) {
	if r.timed {
		return parseTimestamp(r.value)
	}
	t, err := time.ParseInLocation(dateLayout, r.value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseable, r.value)
	}
	return t, nil
}

// RawEvent is a provider event reduced to the fields the formatter reads.
type RawEvent struct {
	ID          string
	Summary     string
	Description string
	Location    string
	Start       RawEventTime
	End         RawEventTime
}

// AllDay reports whether the start value lacks a time component. Only the
// start is consulted; a date-only start with a timed end is still all-day.
func (e RawEvent) AllDay() bool {
	return !HasTime(e.Start.String())
}

// Duration returns End minus Start.
func (e RawEvent) Duration() (time.Duration, error) {
	start, err := e.Start.Time()
	if err != nil {
		return 0, err
	}
	end, err := e.End.Time()
	if err != nil {
		return 0, err
	}
	return end.Sub(start), nil
}

// Event is the uniform, zone-adjusted event record returned to callers.
type Event struct {
	Title       string `json:"summary"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Start       string `json:"start"`
	End         string `json:"end"`
	AllDay      bool   `json:"all_day"`
}

// FormatEvent converts raw into an Event in zone. It never fails; values
// that cannot be converted are passed through as received.
func (n *Normalizer) FormatEvent(raw RawEvent, zone string) Event {
	title := raw.Summary
	if title == "" {
		title = DefaultTitle
	}
	return Event{
		Title:       title,
		Description: raw.Description,
		Location:    raw.Location,
		Start:       n.Normalize(raw.Start.String(), zone),
		End:         n.Normalize(raw.End.String(), zone),
		AllDay:      raw.AllDay(),
	}
}

// FormatEvents formats each event in order. The result is never nil.
func (n *Normalizer) FormatEvents(raws []RawEvent, zone string) []Event {
	events := make([]Event, 0, len(raws))
	for _, raw := range raws {
		events = append(events, n.FormatEvent(raw, zone))
	}
	return events
}
