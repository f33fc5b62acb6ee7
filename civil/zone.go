package civil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Offset describes the rules in effect at one moment in a zone.
type Offset struct {
	UTC  time.Duration // added to UTC to get the civil reading
	DST  bool
	Name string // abbreviation, such as "EST"
}

// String formats the offset as ±hh:mm, or ±hh:mm:ss when it has seconds.
func (o Offset) String() string {
	return formatOffset(o.UTC)
}

// Zone maps between civil readings and instants.
//
// A zone is identified by its name: two zones with the same name must give
// the same answers. Implementations must be pure, so the answer for a given
// input never changes.
type Zone interface {
	// Name identifies the zone, for example "America/New_York". Looking the
	// name up with a Resolver yields an equivalent zone.
	Name() string
	// OffsetAt returns the offset for the civil reading t. When t falls in a
	// repeated hour, t's fold bit picks the interpretation: false for the
	// earlier instant, true for the later one. When t falls in a skipped
	// hour, false picks the offset in effect before the change and true the
	// one after it. The zone field of t is ignored.
	OffsetAt(t Time) Offset
	// OffsetAtInstant returns the offset in effect at the instant u.
	OffsetAtInstant(u time.Time) Offset
}

type fixedZone struct {
	offset time.Duration
	name   string
	abbr   string
}

// UTC is the zone with a zero offset.
var UTC Zone = fixedZone{name: "UTC"}

// Fixed returns a zone with a constant offset and no DST. An empty name
// becomes "UTC" for a zero offset and "UTC±hh:mm" otherwise, which a
// Resolver can parse back.
func Fixed(offset time.Duration, name string) Zone {
	if name == "" {
		name = fixedName(offset)
	}
	return fixedZone{offset: offset, name: name}
}

func (z fixedZone) Name() string { return z.name }

func (z fixedZone) OffsetAt(Time) Offset { return z.offsetValue() }

func (z fixedZone) OffsetAtInstant(time.Time) Offset { return z.offsetValue() }

func (z fixedZone) offsetValue() Offset {
	if z.abbr != "" {
		return Offset{UTC: z.offset, Name: z.abbr}
	}
	return Offset{UTC: z.offset, Name: z.name}
}

func (z fixedZone) String() string { return z.name }

func fixedName(offset time.Duration) string {
	if offset == 0 {
		return "UTC"
	}
	return "UTC" + formatOffset(offset)
}

func formatOffset(d time.Duration) string {
	sign := '+'
	if d < 0 {
		sign = '-'
		d = -d
	}
	secs := int(d / time.Second)
	h, m, s := secs/3600, secs/60%60, secs%60
	if s != 0 {
		return fmt.Sprintf("%c%02d:%02d:%02d", sign, h, m, s)
	}
	return fmt.Sprintf("%c%02d:%02d", sign, h, m)
}

// parseFixedName parses names produced by Fixed: "UTC", "Z", "UTC+05:30",
// "UTC-4".
func parseFixedName(name string) (Zone, bool) {
	switch name {
	case "UTC", "Z", "GMT":
		return UTC, true
	}
	if len(name) < 5 || name[:3] != "UTC" {
		return nil, false
	}
	var sign time.Duration
	switch name[3] {
	case '+':
		sign = 1
	case '-':
		sign = -1
	default:
		return nil, false
	}
	hh, mm, hasMinutes := strings.Cut(name[4:], ":")
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 24 {
		return nil, false
	}
	m := 0
	if hasMinutes {
		if m, err = strconv.Atoi(mm); err != nil || m < 0 || m > 59 {
			return nil, false
		}
	}
	return Fixed(sign*(time.Duration(h)*time.Hour+time.Duration(m)*time.Minute), ""), true
}
