// Package civil models wall-clock date-times that may carry a zone, the zones
// themselves, and the two kinds of arithmetic that can be done on them.
//
// A Time is a civil reading (the digits on a clock) plus an optional Zone and
// a fold bit. Without a zone a Time is naive: it names no point on the
// universal timeline. With a zone, the fold bit picks between the two
// instants that share a reading when clocks are set back.
package civil

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/mo"
)

const isoLayout = "2006-01-02T15:04:05.999999999"

// Time is an immutable civil date-time. The zero value is the naive reading
// 0001-01-01T00:00:00.
//
// Times must be compared with Equal or Compare, not ==.
type Time struct {
	// wall carries the civil fields in UTC. It is never an instant.
	wall time.Time
	zone Zone
	fold bool
}

// Date returns the civil time with the given fields in zone. A nil zone gives
// a naive time. Out-of-range fields are normalized the way time.Date does it,
// so October 32 becomes November 1. The fold bit is unset.
func Date(year int, month time.Month, day, hour, min, sec, nsec int, zone Zone) Time {
	return Time{
		wall: time.Date(year, month, day, hour, min, sec, nsec, time.UTC),
		zone: zone,
	}
}

// FromInstant returns the reading of the instant u on zone's clocks. The fold
// bit is set when the reading is the second of two equal readings.
func FromInstant(u time.Time, zone Zone) Time {
	off := zone.OffsetAtInstant(u)
	t := Time{wall: u.UTC().Add(off.UTC), zone: zone}
	if zone.OffsetAt(t).UTC != off.UTC {
		t.fold = true
	}
	return t
}

func fromWall(wall time.Time, zone Zone) Time {
	return Time{wall: wall, zone: zone}
}

func (t Time) Year() int { return t.wall.Year() }
func (t Time) Month() time.Month { return t.wall.Month() }
func (t Time) Day() int { return t.wall.Day() }
func (t Time) Hour() int { return t.wall.Hour() }
func (t Time) Minute() int { return t.wall.Minute() }
func (t Time) Second() int { return t.wall.Second() }
func (t Time) Nanosecond() int { return t.wall.Nanosecond() }
func (t Time) Weekday() time.Weekday { return t.wall.Weekday() }
func (t Time) YearDay() int { return t.wall.YearDay() }
func (t Time) Date() (int, time.Month, int) { return t.wall.Date() }
func (t Time) Clock() (int, int, int) { return t.wall.Clock() }

// Fold reports whether t is the later of two repeated readings.
func (t Time) Fold() bool { return t.fold }

// Zone returns t's zone and whether it has one.
func (t Time) Zone() (Zone, bool) { return t.zone, t.zone != nil }

// IsNaive reports whether t carries no zone.
func (t Time) IsNaive() bool { return t.zone == nil }

// IsZero reports whether t is the zero Time.
func (t Time) IsZero() bool { return t.wall.IsZero() && t.zone == nil && !t.fold }

// Offset returns the UTC offset in effect for t, or None for a naive time.
func (t Time) Offset() mo.Option[Offset] {
	if t.zone == nil {
		return mo.None[Offset]()
	}
	return mo.Some(t.zone.OffsetAt(t))
}

// Instant returns the point on the universal timeline that t names, in UTC.
// A naive time is read as if it were UTC.
func (t Time) Instant() time.Time {
	if t.zone == nil {
		return t.wall
	}
	return t.wall.Add(-t.zone.OffsetAt(t).UTC)
}

// Std converts t to a time.Time carrying a fixed zone with t's current offset
// and abbreviation. A naive time becomes a UTC time with the same fields.
func (t Time) Std() time.Time {
	if t.zone == nil {
		return t.wall
	}
	off := t.zone.OffsetAt(t)
	return t.wall.Add(-off.UTC).In(time.FixedZone(off.Name, int(off.UTC/time.Second)))
}

// In converts t to zone, keeping the instant.
func (t Time) In(zone Zone) (Time, error) {
	if t.zone == nil {
		return Time{}, fmt.Errorf("convert %s to %s: %w", t, zone.Name(), ErrNaiveTime)
	}
	return FromInstant(t.Instant(), zone), nil
}

// WithFold returns t with the fold bit replaced.
func (t Time) WithFold(fold bool) Time {
	t.fold = fold
	return t
}

// WithZone returns t with its zone replaced and the fold bit cleared. The
// civil fields are kept, so the instant generally changes. A nil zone makes
// the result naive.
func (t Time) WithZone(zone Zone) Time {
	t.zone = zone
	t.fold = false
	return t
}

// Naive returns t without its zone and fold bit.
func (t Time) Naive() Time {
	return Time{wall: t.wall}
}

// WithDate returns t with the date replaced and the clock kept. Fields are
// normalized as in Date.
func (t Time) WithDate(year int, month time.Month, day int) Time {
	h, m, s := t.wall.Clock()
	t.wall = time.Date(year, month, day, h, m, s, t.wall.Nanosecond(), time.UTC)
	t.fold = false
	return t
}

// WithClock returns t with the time of day replaced and the date kept.
func (t Time) WithClock(hour, min, sec, nsec int) Time {
	y, mon, d := t.wall.Date()
	t.wall = time.Date(y, mon, d, hour, min, sec, nsec, time.UTC)
	t.fold = false
	return t
}

// Compare returns -1, 0 or +1. Times in different zones are ordered by
// instant first. Times in one zone, and naive times, are ordered by civil
// reading, so a reading in a gap sorts between its neighbours on the clock.
// Ties break by fold, then zone name.
func (t Time) Compare(u Time) int {
	if t.zone != nil && u.zone != nil && !sameZone(t.zone, u.zone) {
		if c := t.Instant().Compare(u.Instant()); c != 0 {
			return c
		}
	}
	if c := t.wall.Compare(u.wall); c != 0 {
		return c
	}
	if t.fold != u.fold {
		if u.fold {
			return -1
		}
		return 1
	}
	return strings.Compare(zoneName(t.zone), zoneName(u.zone))
}

// Before reports whether t sorts before u.
func (t Time) Before(u Time) bool { return t.Compare(u) < 0 }

// After reports whether t sorts after u.
func (t Time) After(u Time) bool { return t.Compare(u) > 0 }

// Equal reports whether t and u are the same civil reading with the same fold
// in the same zone. Zones are the same when they have the same name. Two
// times naming the same instant with different readings or folds are not
// Equal.
func (t Time) Equal(u Time) bool {
	return t.wall.Equal(u.wall) && t.fold == u.fold && sameZone(t.zone, u.zone)
}

func sameZone(a, b Zone) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a == b || a.Name() == b.Name()
}

// Key is a comparable identity for t, suitable as a map key. Keys are equal
// exactly when the times are Equal.
type Key struct {
	sec   int64
	nsec  int
	zone  string
	zoned bool
	fold  bool
}

// Key returns t's identity.
func (t Time) Key() Key {
	return Key{
		sec:   t.wall.Unix(),
		nsec:  t.wall.Nanosecond(),
		zone:  zoneName(t.zone),
		zoned: t.zone != nil,
		fold:  t.fold,
	}
}

// String formats t in ISO 8601, with the UTC offset when t is zoned.
func (t Time) String() string {
	s := t.wall.Format(isoLayout)
	if t.zone == nil {
		return s
	}
	return s + t.zone.OffsetAt(t).String()
}

// Format formats t with a time package layout. Zoned times are formatted with
// their current offset and abbreviation.
func (t Time) Format(layout string) string {
	return t.Std().Format(layout)
}

// ParseISO parses an ISO 8601 civil reading without offset, such as
// "2004-10-31T01:30:00", "2004-10-31T01:30" or "2004-10-31", and attaches zone
// without any disambiguation. Fractional seconds are accepted.
func ParseISO(s string, zone Zone) (Time, error) {
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"} {
		if w, err := time.Parse(layout, s); err == nil {
			return fromWall(w, zone), nil
		}
	}
	return Time{}, fmt.Errorf("parse %q: not an ISO 8601 civil date-time", s)
}

func zoneName(z Zone) string {
	if z == nil {
		return ""
	}
	return z.Name()
}
