// Package analytics computes admin reports over the full learner and
// content datasets: signup trends, popular topics, completion rates,
// retention and engagement. All reports are read-only scans built on a
// single time-bucket histogram.
package analytics

import (
	"fmt"
	"time"
)

// Unit is the width of a histogram bucket.
type Unit int

const (
	UnitDay Unit = iota
	UnitWeek
	UnitMonth
)

func (u Unit) String() string {
	switch u {
	case UnitDay:
		return "day"
	case UnitWeek:
		return "week"
	case UnitMonth:
		return "month"
	default:
		return "unknown"
	}
}

// Histogram buckets events into n consecutive intervals of the given
// unit ending at now. Bucket i starts at truncate(now - (n-1-i)*unit),
// so the last bucket holds the current period. Buckets are half-open
// [start, start+unit); events outside the window count nowhere.
// Labels are "M/D" for day and week units, "M/YYYY" for months.
func Histogram(events []time.Time, now time.Time, n int, unit Unit) (labels []string, counts []int) {
	starts := make([]time.Time, n)
	labels = make([]string, n)
	counts = make([]int, n)

	for i := 0; i < n; i++ {
		start := truncate(shift(now, -(n-1-i), unit), unit)
		starts[i] = start
		labels[i] = label(start, unit)
	}

	for _, ev := range events {
		for i, start := range starts {
			if !ev.Before(start) && ev.Before(shift(start, 1, unit)) {
				counts[i]++
				break
			}
		}
	}
	return labels, counts
}

// shift moves t by k units. Weeks move in 7-day steps; they are not
// snapped to a weekday boundary.
func shift(t time.Time, k int, unit Unit) time.Time {
	switch unit {
	case UnitDay:
		return t.AddDate(0, 0, k)
	case UnitWeek:
		return t.AddDate(0, 0, 7*k)
	case UnitMonth:
		return t.AddDate(0, k, 0)
	default:
		return t
	}
}

// truncate drops t to the start of its bucket: midnight for day and
// week units, first of the month for months.
func truncate(t time.Time, unit Unit) time.Time {
	y, m, d := t.Date()
	if unit == UnitMonth {
		d = 1
	}
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func label(start time.Time, unit Unit) string {
	if unit == UnitMonth {
		return fmt.Sprintf("%d/%d", int(start.Month()), start.Year())
	}
	return fmt.Sprintf("%d/%d", int(start.Month()), start.Day())
}
