package bucket

import (
	"time"

	iqe "github.com/brimdata/iql/errors"
)

// Unit is a calendar period.
type Unit string

const (
	Day   Unit = "day"
	Week  Unit = "week"
	Month Unit = "month"
	Year  Unit = "year"
)

func ParseUnit(s string) (Unit, error) {
	switch u := Unit(s); u {
	case Day, Week, Month, Year:
		return u, nil
	}
	return "", iqe.E(iqe.Validation, "unknown time period %q (want day, week, month or year)", s)
}

// Truncate returns the start of the period of u containing t in loc.
// Weeks start on Monday.
func Truncate(t time.Time, u Unit, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()
	switch u {
	case Week:
		offset := (int(t.Weekday()) + 6) % 7
		return time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
	case Month:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	case Year:
		return time.Date(y, 1, 1, 0, 0, 0, 0, loc)
	}
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func step(t time.Time, u Unit) time.Time {
	switch u {
	case Week:
		return t.AddDate(0, 0, 7)
	case Month:
		return t.AddDate(0, 1, 0)
	case Year:
		return t.AddDate(1, 0, 0)
	}
	return t.AddDate(0, 0, 1)
}

// maxPeriods bounds the number of buckets a single explode may create.
const maxPeriods = 100000

// TimeBoundaries returns the period boundaries b[0] < b[1] < ... < b[n]
// covering [start, end) in loc, with b[0] the start of the period holding
// start and b[n] >= end.  Bucket i is [b[i], b[i+1]).
func TimeBoundaries(start, end time.Time, u Unit, loc *time.Location) ([]time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if !end.After(start) {
		return nil, iqe.E(iqe.Validation, "time range [%s, %s) is empty", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	b := []time.Time{Truncate(start, u, loc)}
	for b[len(b)-1].Before(end) {
		if len(b) > maxPeriods {
			return nil, iqe.E(iqe.Validation, "time range spans more than %d %s periods", maxPeriods, u)
		}
		b = append(b, step(b[len(b)-1], u))
	}
	return b, nil
}
