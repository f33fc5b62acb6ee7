package civil

import "time"

// IsLeap reports whether year is a leap year in the proleptic Gregorian calendar.
func IsLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	switch month {
	case time.February:
		if IsLeap(year) {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}

// DaysInYear returns 366 for leap years and 365 otherwise.
func DaysInYear(year int) int {
	if IsLeap(year) {
		return 366
	}
	return 365
}

// NthWeekday returns the day of month of the nth weekday counted from anchor.
//
// A positive n selects the nth weekday on or after anchor, a negative n the
// nth weekday on or before it, so (1, Sunday, +2) is the second Sunday of the
// month and (31, Sunday, -1) is the last one. anchor is clamped to the month.
// The result may fall outside the month when n is large; callers that need a
// day inside the month must check it against DaysIn.
func NthWeekday(year int, month time.Month, anchor int, weekday time.Weekday, n int) int {
	if anchor < 1 {
		anchor = 1
	}
	if last := DaysIn(year, month); anchor > last {
		anchor = last
	}
	wd := time.Date(year, month, anchor, 0, 0, 0, 0, time.UTC).Weekday()
	switch {
	case n > 0:
		delta := (int(weekday) - int(wd) + 7) % 7
		return anchor + delta + (n-1)*7
	case n < 0:
		delta := (int(wd) - int(weekday) + 7) % 7
		return anchor - delta + (n+1)*7
	default:
		return anchor
	}
}

// AddDate adds years, months and days to t's civil fields. Unlike
// time.Time.AddDate, a day that overflows the target month is clamped to its
// last day, so Jan 31 plus one month is Feb 28 (or 29), and Feb 29 plus one
// year is Feb 28. Days are applied after the clamp.
func AddDate(t Time, years, months, days int) Time {
	y, m, d := t.Date()
	total := int(m) - 1 + months
	y += years + floorDiv(total, 12)
	m = time.Month(floorMod(total, 12) + 1)
	if last := DaysIn(y, m); d > last {
		d = last
	}
	out := t.WithDate(y, m, d)
	if days != 0 {
		out = out.WithDate(y, m, d+days)
	}
	return out
}

// EndOfMonth returns t moved to the last day of its month, keeping the clock.
func EndOfMonth(t Time) Time {
	y, m, _ := t.Date()
	return t.WithDate(y, m, DaysIn(y, m))
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}
