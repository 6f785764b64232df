package core

import "time"

const (
	RangeAllTime    Range = "all"
	RangeThisWeek   Range = "week"
	RangeThisMonth  Range = "month"
	RangeLast30Days Range = "30days"
	RangeCustom     Range = "custom"
)

// customDateLayout is the wire format for custom range bounds.
const customDateLayout = "2006-01-02"

type (
	// Range names a preset or custom date window.
	Range string

	// Interval is a resolved inclusive time window. All set means the
	// interval is unbounded and every timestamp matches.
	Interval struct {
		Start time.Time
		End   time.Time
		All   bool
	}
)

// Contains reports whether t falls inside the interval, bounds inclusive.
func (iv Interval) Contains(t time.Time) bool {
	if iv.All {
		return true
	}
	if t.Before(iv.Start) {
		return false
	}
	return !t.After(iv.End)
}

// Resolve turns a named range into a concrete interval relative to now.
// The week starts on Sunday at local midnight. Custom bounds use the
// 2006-01-02 layout in now's location; a missing or unparseable bound
// falls back to the unbounded interval instead of returning an error,
// so an expired selection degrades to showing everything. A custom
// range with end before start resolves to an interval no timestamp can
// match.
func Resolve(r Range, now time.Time, customStart, customEnd string) Interval {
	switch r {
	case RangeThisWeek:
		daysBack := int(now.Weekday())
		start := midnight(now.AddDate(0, 0, -daysBack))
		return Interval{Start: start, End: now}
	case RangeThisMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return Interval{Start: start, End: now}
	case RangeLast30Days:
		start := midnight(now.AddDate(0, 0, -30))
		return Interval{Start: start, End: now}
	case RangeCustom:
		start, err := time.ParseInLocation(customDateLayout, customStart, now.Location())
		if err != nil {
			return Interval{All: true}
		}
		end, err := time.ParseInLocation(customDateLayout, customEnd, now.Location())
		if err != nil {
			return Interval{All: true}
		}
		endOfDay := end.Add(24*time.Hour - time.Millisecond)
		return Interval{Start: start, End: endOfDay}
	default:
		return Interval{All: true}
	}
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
