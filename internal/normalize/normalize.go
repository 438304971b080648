// Package normalize converts raw calendar provider values into the target
// time zone of a request.
//
// Everything here is a pure function of its inputs. The Normalizer only
// carries a logger so that conversion failures can be reported while the
// caller still receives a usable string.
package normalize

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // zone names must resolve on hosts without a zoneinfo database

	"go.uber.org/zap"
)

// DefaultZone is used whenever a caller does not name a target zone.
const DefaultZone = "Asia/Bangkok"

const (
	dateLayout      = "2006-01-02"
	localLayout     = "2006-01-02 15:04:05"
	isoOffsetLayout = "2006-01-02T15:04:05-07:00"
)

// timestampLayouts are tried in order for values carrying a time component.
// The first accepts a Z or numeric offset; the rest have no offset and are
// read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
}

// ErrUnparseable is returned when a raw value matches no known layout.
var ErrUnparseable = errors.New("unparseable time value")

// Normalizer converts raw provider times into a target zone.
type Normalizer struct {
	log *zap.Logger
}

// New returns a Normalizer that reports failures to logger.
// A nil logger discards them.
func New(logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{log: logger.With(zap.String("component", "normalize"))}
}

// LoadZone resolves an IANA zone name. An empty name resolves DefaultZone.
func LoadZone(zone string) (*time.Location, error) {
	if zone == "" {
		zone = DefaultZone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("unknown time zone %q: %w", zone, err)
	}
	return loc, nil
}

// HasTime reports whether raw carries a time-of-day component.
func HasTime(raw string) bool {
	return strings.Contains(raw, "T")
}

// Convert renders raw in zone. Timestamps become "YYYY-MM-DD HH:MM:SS" and
// bare dates become "YYYY-MM-DD", both in the zone's local calendar.
func Convert(raw, zone string) (string, error) {
	loc, err := LoadZone(zone)
	if err != nil {
		return "", err
	}

	if HasTime(raw) {
		t, err := parseTimestamp(raw)
		if err != nil {
			return "", err
		}
		return t.In(loc).Format(localLayout), nil
	}

	t, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnparseable, raw)
	}
	return t.In(loc).Format(dateLayout), nil
}

// Normalize is Convert with the failure absorbed: on any error the failure
// is logged and raw is returned unchanged.
func (n *Normalizer) Normalize(raw, zone string) string {
	out, err := Convert(raw, zone)
	if err != nil {
		n.log.Warn("time zone conversion failed",
			zap.String("raw", raw),
			zap.String("zone", zone),
			zap.Error(err))
		return raw
	}
	return out
}

// parseTimestamp reads an ISO-8601 timestamp. Values without an offset are UTC.
func parseTimestamp(raw string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseable, raw)
}
