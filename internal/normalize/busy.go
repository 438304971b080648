package normalize

import (
	"fmt"
)

// BusyInterval is one entry of a free/busy response, in UTC.
type BusyInterval struct {
	Start string
	End   string
}

// BusyPeriod is a busy interval rendered in the target zone.
type BusyPeriod struct {
	Start          string `json:"start"`
	End            string `json:"end"`
	StartFormatted string `json:"start_formatted"`
	EndFormatted   string `json:"end_formatted"`
}

// BusyReport is the aggregated free/busy answer.
type BusyReport struct {
	Periods []BusyPeriod `json:"busy_periods"`
	AnyBusy bool         `json:"is_busy"`
}

// AggregateBusy renders intervals in zone, keeping their count and order.
// Overlapping or inverted intervals are reported as received.
func (n *Normalizer) AggregateBusy(intervals []BusyInterval, zone string) (BusyReport, error) {
	report := BusyReport{
		Periods: make([]BusyPeriod, 0, len(intervals)),
		AnyBusy: len(intervals) > 0,
	}
	if len(intervals) == 0 {
		return report, nil
	}

	loc, err := LoadZone(zone)
	if err != nil {
		return BusyReport{}, err
	}

	for i, interval := range intervals {
		start, err := parseTimestamp(interval.Start)
		if err != nil {
			return BusyReport{}, fmt.Errorf("busy interval %d start: %w", i, err)
		}
		end, err := parseTimestamp(interval.End)
		if err != nil {
			return BusyReport{}, fmt.Errorf("busy interval %d end: %w", i, err)
		}

		start, end = start.In(loc), end.In(loc)
		report.Periods = append(report.Periods, BusyPeriod{
			Start:          start.Format(isoOffsetLayout),
			End:            end.Format(isoOffsetLayout),
			StartFormatted: start.Format("2006-01-02 15:04"),
			EndFormatted:   end.Format("15:04"),
		})
	}

	return report, nil
}
