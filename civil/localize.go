package civil

import (
	"fmt"

	"github.com/samber/mo"
)

// Policy selects how Localize treats readings that map to zero or two
// instants.
type Policy int

const (
	// RequireUnambiguous fails with an AmbiguousTimeError or a
	// NonExistentTimeError instead of choosing.
	RequireUnambiguous Policy = iota
	// PreferStandard picks the standard-time interpretation.
	PreferStandard
	// PreferDaylight picks the daylight-time interpretation.
	PreferDaylight
)

func (p Policy) String() string {
	switch p {
	case RequireUnambiguous:
		return "require-unambiguous"
	case PreferStandard:
		return "prefer-standard"
	case PreferDaylight:
		return "prefer-daylight"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy parses the names returned by Policy.String.
func ParsePolicy(s string) (Policy, error) {
	for _, p := range []Policy{RequireUnambiguous, PreferStandard, PreferDaylight} {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown disambiguation policy %q", s)
}

// Resolution classifies a zoned civil reading.
type Resolution int

const (
	Unique Resolution = iota
	Ambiguous
	NonExistent
)

func (r Resolution) String() string {
	switch r {
	case Unique:
		return "unique"
	case Ambiguous:
		return "ambiguous"
	case NonExistent:
		return "non-existent"
	default:
		return fmt.Sprintf("Resolution(%d)", int(r))
	}
}

// Resolve classifies t in its zone and returns the offsets its fold bit
// selects: fold unset first, fold set second. For a Unique reading both
// entries hold the single valid offset. A naive t is always Unique with zero
// offsets.
func Resolve(t Time) (Resolution, [2]Offset) {
	if t.zone == nil {
		return Unique, [2]Offset{}
	}
	offs := [2]Offset{
		t.zone.OffsetAt(t.WithFold(false)),
		t.zone.OffsetAt(t.WithFold(true)),
	}
	ok0 := validOffset(t.zone, t.wall, offs[0])
	ok1 := validOffset(t.zone, t.wall, offs[1])
	switch {
	case ok0 && ok1 && offs[0].UTC != offs[1].UTC:
		return Ambiguous, offs
	case !ok0 && !ok1:
		return NonExistent, offs
	case ok0:
		return Unique, [2]Offset{offs[0], offs[0]}
	default:
		return Unique, [2]Offset{offs[1], offs[1]}
	}
}

// Localize attaches zone to the naive reading t. Readings that are ambiguous
// or fall in a gap are resolved by policy; under RequireUnambiguous they fail
// with *AmbiguousTimeError or *NonExistentTimeError. Localizing a zoned time
// fails with ErrAlreadyZoned.
func Localize(t Time, zone Zone, policy Policy) (Time, error) {
	if t.zone != nil {
		return Time{}, fmt.Errorf("localize %s: %w", t, ErrAlreadyZoned)
	}
	if zone == nil {
		return Time{}, fmt.Errorf("localize %s: nil zone: %w", t, ErrUnknownZone)
	}
	z := t.WithZone(zone)
	res, offs := Resolve(z)
	if res == Unique {
		return z, nil
	}
	switch policy {
	case PreferStandard, PreferDaylight:
		return z.WithFold(pickFold(offs, policy)), nil
	}
	if res == Ambiguous {
		return Time{}, &AmbiguousTimeError{Time: z, Offsets: offs}
	}
	return Time{}, &NonExistentTimeError{Time: z}
}

// pickFold returns the fold bit whose offset matches policy. When both
// offsets agree on DST the larger-offset side is treated as daylight.
func pickFold(offs [2]Offset, policy Policy) bool {
	wantDST := policy == PreferDaylight
	if offs[0].DST != offs[1].DST {
		return offs[1].DST == wantDST
	}
	return (offs[1].UTC > offs[0].UTC) == wantDST
}

// LocalizeAll localizes every reading in ts, reporting each outcome
// separately.
func LocalizeAll(ts []Time, zone Zone, policy Policy) []mo.Result[Time] {
	out := make([]mo.Result[Time], 0, len(ts))
	for _, t := range ts {
		lt, err := Localize(t, zone, policy)
		if err != nil {
			out = append(out, mo.Err[Time](err))
			continue
		}
		out = append(out, mo.Ok(lt))
	}
	return out
}
