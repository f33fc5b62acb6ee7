package civil

import "time"

// WallAdd moves t's clock reading by d, as if turning the hands of a clock,
// and keeps the zone. The result may be ambiguous or fall in a gap; its fold
// bit is cleared. Adding 24 hours across a DST change keeps the time of day.
func WallAdd(t Time, d time.Duration) Time {
	t.wall = t.wall.Add(d)
	t.fold = false
	return t
}

// WallSub returns the difference between the clock readings of a and b,
// ignoring zones and folds.
func WallSub(a, b Time) time.Duration {
	return a.wall.Sub(b.wall)
}

// AbsoluteAdd returns the reading in t's zone of the instant d after t, so
// adding 24 hours across a DST change moves the time of day by the DST
// difference. For a naive t this is WallAdd.
func AbsoluteAdd(t Time, d time.Duration) Time {
	if t.zone == nil {
		return WallAdd(t, d)
	}
	return FromInstant(t.Instant().Add(d), t.zone)
}

// AbsoluteSub returns the elapsed time between the instants a and b. Naive
// operands are read as UTC.
func AbsoluteSub(a, b Time) time.Duration {
	return a.Instant().Sub(b.Instant())
}
