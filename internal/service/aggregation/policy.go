// Package aggregation turns raw farm records into batch and farm-level views.
// The Build*/Summarize* functions are pure: callers pass the records and the
// clock reading, and the same inputs always give the same output.
package aggregation

import (
	"time"

	"github.com/bebeku/farm/internal/domain/kpi"
)

// Policy carries the tunable thresholds of the aggregator. The cumulative
// mortality alert here is separate from the daily-rate guard applied on write.
type Policy struct {
	DOCWeightGr         float64
	MortalityMediumPct  float64
	MortalityHighPct    float64
	HarvestLeadDays     int
	RecentActivityLimit int
}

// DefaultPolicy returns the stock thresholds.
func DefaultPolicy() Policy {
	return Policy{
		DOCWeightGr:         kpi.DefaultDOCWeightGr,
		MortalityMediumPct:  5,
		MortalityHighPct:    10,
		HarvestLeadDays:     3,
		RecentActivityLimit: 10,
	}
}

// DayWindow returns [start of day, start of next day) for now in loc.
func DayWindow(now time.Time, loc *time.Location) (time.Time, time.Time) {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// MonthStart returns midnight on the first day of now's month in loc.
func MonthStart(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
}

func inWindow(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

// throughInclusive turns an inclusive upper bound into the exclusive bound the
// store filters use.
func throughInclusive(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.Add(time.Nanosecond)
}

const dateLayout = "2006-01-02"
