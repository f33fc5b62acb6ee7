package civil

import (
	"errors"
	"fmt"
)

var (
	// ErrAmbiguousTime is returned when a civil reading maps to two instants
	ErrAmbiguousTime = errors.New("ambiguous civil time")
	// ErrNonExistentTime is returned when a civil reading was skipped by a clock change
	ErrNonExistentTime = errors.New("non-existent civil time")
	// ErrAlreadyZoned is returned when localizing a time that already has a zone
	ErrAlreadyZoned = errors.New("time already carries a zone")
	// ErrUnknownZone is returned when a zone name cannot be resolved
	ErrUnknownZone = errors.New("unknown zone")
	// ErrNaiveTime is returned when an operation needs a zoned time
	ErrNaiveTime = errors.New("time has no zone")
)

// AmbiguousTimeError reports a reading that two offsets in its zone can
// produce. Offsets holds the earlier interpretation first.
type AmbiguousTimeError struct {
	Time    Time
	Offsets [2]Offset
}

func (e *AmbiguousTimeError) Error() string {
	return fmt.Sprintf("%s in %s: %s (%s or %s)", e.Time.Naive(), zoneName(e.Time.zone),
		ErrAmbiguousTime, e.Offsets[0], e.Offsets[1])
}

func (e *AmbiguousTimeError) Unwrap() error { return ErrAmbiguousTime }

// NonExistentTimeError reports a reading that no offset in its zone produces.
type NonExistentTimeError struct {
	Time Time
}

func (e *NonExistentTimeError) Error() string {
	return fmt.Sprintf("%s in %s: %s", e.Time.Naive(), zoneName(e.Time.zone), ErrNonExistentTime)
}

func (e *NonExistentTimeError) Unwrap() error { return ErrNonExistentTime }
