package civil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TransitionRule names a wall-clock moment in a year, in the style of
// "the second Sunday of March at 02:00".
//
// The day is found by starting at Day of Month and moving to the Nth Weekday
// on or after it (Nth > 0) or on or before it (Nth < 0). Nth == 0 selects Day
// itself. Day is clamped to the month, so Day 31 with Nth -1 is the last
// given weekday of any month.
type TransitionRule struct {
	Month   time.Month
	Day     int
	Weekday time.Weekday
	Nth     int
	// At is the time of day of the transition on the clocks in use just
	// before it.
	At time.Duration
}

// In returns the civil moment of the transition in year, as a naive Time.
func (r TransitionRule) In(year int) Time {
	day := r.Day
	if day == 0 {
		day = 1
	}
	if r.Nth != 0 {
		day = NthWeekday(year, r.Month, day, r.Weekday, r.Nth)
	} else if last := DaysIn(year, r.Month); day > last {
		day = last
	}
	return fromWall(time.Date(year, r.Month, day, 0, 0, 0, 0, time.UTC).Add(r.At), nil)
}

func (r TransitionRule) validate() error {
	if r.Month < time.January || r.Month > time.December {
		return fmt.Errorf("month %d out of range", r.Month)
	}
	if r.Day < 0 || r.Day > 31 {
		return fmt.Errorf("day %d out of range", r.Day)
	}
	if r.Weekday < time.Sunday || r.Weekday > time.Saturday {
		return fmt.Errorf("weekday %d out of range", r.Weekday)
	}
	if r.Nth < -5 || r.Nth > 5 {
		return fmt.Errorf("weekday ordinal %d out of range", r.Nth)
	}
	if r.At < 0 || r.At >= 168*time.Hour {
		return fmt.Errorf("time of day %s out of range", r.At)
	}
	return nil
}

// RuleZoneConfig describes a zone alternating between standard time and
// daylight saving time on fixed yearly rules.
type RuleZoneConfig struct {
	// Name overrides the zone name. By default the POSIX TZ string for the
	// rules is used when one exists.
	Name       string
	StdName    string
	DSTName    string
	StdOffset  time.Duration
	DSTOffset  time.Duration
	Start, End TransitionRule
}

// RuleZone computes DST transitions for each year from a pair of rules, using
// civil arithmetic only.
type RuleZone struct {
	cfg  RuleZoneConfig
	name string
}

// NewRuleZone returns a rule zone for cfg.
func NewRuleZone(cfg RuleZoneConfig) (*RuleZone, error) {
	if err := cfg.Start.validate(); err != nil {
		return nil, fmt.Errorf("dst start rule: %w", err)
	}
	if err := cfg.End.validate(); err != nil {
		return nil, fmt.Errorf("dst end rule: %w", err)
	}
	if cfg.StdName == "" || cfg.DSTName == "" {
		return nil, errors.New("standard and daylight names are required")
	}
	if cfg.StdOffset == cfg.DSTOffset {
		return nil, errors.New("daylight offset equals standard offset")
	}
	z := &RuleZone{cfg: cfg, name: cfg.Name}
	if z.name == "" {
		z.name = posixString(cfg)
	}
	return z, nil
}

// USEastern returns the current United States Eastern rules: daylight time
// from the second Sunday of March to the first Sunday of November, both at
// 02:00 local time.
func USEastern() *RuleZone {
	z, _ := NewRuleZone(RuleZoneConfig{
		StdName:   "EST",
		DSTName:   "EDT",
		StdOffset: -5 * time.Hour,
		DSTOffset: -4 * time.Hour,
		Start:     TransitionRule{Month: time.March, Day: 1, Weekday: time.Sunday, Nth: 2, At: 2 * time.Hour},
		End:       TransitionRule{Month: time.November, Day: 1, Weekday: time.Sunday, Nth: 1, At: 2 * time.Hour},
	})
	return z
}

func (z *RuleZone) Name() string   { return z.name }
func (z *RuleZone) String() string { return z.name }

// Config returns the rules the zone was built from.
func (z *RuleZone) Config() RuleZoneConfig { return z.cfg }

// Transitions returns the civil moments DST starts and ends in year.
func (z *RuleZone) Transitions(year int) (start, end Time) {
	return z.cfg.Start.In(year), z.cfg.End.In(year)
}

// IsDST reports whether daylight time applies to the civil reading t. A
// reading in the repeated stretch before DST ends is daylight time unless
// its fold bit is set. A reading in the skipped stretch after DST starts is
// standard time unless its fold bit is set.
func (z *RuleZone) IsDST(t Time) bool {
	start, end := z.Transitions(t.Year())
	w := t.wall
	if save := z.cfg.DSTOffset - z.cfg.StdOffset; save > 0 {
		if t.fold && !w.Before(end.wall.Add(-save)) && w.Before(end.wall) {
			return false
		}
		if !t.fold && !w.Before(start.wall) && w.Before(start.wall.Add(save)) {
			return false
		}
	}
	return within(w, start.wall, end.wall)
}

func (z *RuleZone) OffsetAt(t Time) Offset {
	return z.offset(z.IsDST(t))
}

func (z *RuleZone) OffsetAtInstant(u time.Time) Offset {
	// The local standard-time year is close enough to pick the rules: no
	// transition sits on a year boundary.
	year := u.UTC().Add(z.cfg.StdOffset).Year()
	start := z.cfg.Start.In(year).wall.Add(-z.cfg.StdOffset)
	end := z.cfg.End.In(year).wall.Add(-z.cfg.DSTOffset)
	return z.offset(within(u.UTC(), start, end))
}

func (z *RuleZone) offset(dst bool) Offset {
	if dst {
		return Offset{UTC: z.cfg.DSTOffset, DST: true, Name: z.cfg.DSTName}
	}
	return Offset{UTC: z.cfg.StdOffset, Name: z.cfg.StdName}
}

// within reports whether start <= w < end, wrapping around the year when the
// period starts after it ends (southern hemisphere rules).
func within(w, start, end time.Time) bool {
	if start.Before(end) {
		return !w.Before(start) && w.Before(end)
	}
	return !w.Before(start) || w.Before(end)
}

// posixString renders cfg as a POSIX TZ string, or "STD/DST" when a rule has
// no POSIX form.
func posixString(cfg RuleZoneConfig) string {
	start, ok1 := posixRule(cfg.Start)
	end, ok2 := posixRule(cfg.End)
	if !ok1 || !ok2 {
		return cfg.StdName + "/" + cfg.DSTName
	}
	var b strings.Builder
	b.WriteString(posixName(cfg.StdName))
	b.WriteString(posixOffset(-cfg.StdOffset))
	b.WriteString(posixName(cfg.DSTName))
	if cfg.DSTOffset != cfg.StdOffset+time.Hour {
		b.WriteString(posixOffset(-cfg.DSTOffset))
	}
	b.WriteString(",")
	b.WriteString(start)
	b.WriteString(",")
	b.WriteString(end)
	return b.String()
}

func posixRule(r TransitionRule) (string, bool) {
	var s string
	switch {
	case r.Nth >= 1 && r.Nth <= 4 && r.Day <= 1:
		s = fmt.Sprintf("M%d.%d.%d", r.Month, r.Nth, r.Weekday)
	case r.Nth == -1 && r.Day >= 31:
		s = fmt.Sprintf("M%d.5.%d", r.Month, r.Weekday)
	case r.Nth == 0 && r.Month != time.February || r.Nth == 0 && r.Day <= 28:
		day := r.Day
		if day == 0 {
			day = 1
		}
		s = fmt.Sprintf("J%d", time.Date(2001, r.Month, day, 0, 0, 0, 0, time.UTC).YearDay())
	default:
		return "", false
	}
	if r.At != 2*time.Hour {
		s += "/" + strings.TrimPrefix(posixOffset(r.At), "+")
	}
	return s, true
}

func posixName(name string) string {
	for _, r := range name {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return "<" + name + ">"
		}
	}
	return name
}

// posixOffset formats d as [-]h[:mm[:ss]].
func posixOffset(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	secs := int(d / time.Second)
	h, m, s := secs/3600, secs/60%60, secs%60
	switch {
	case s != 0:
		return fmt.Sprintf("%s%d:%02d:%02d", sign, h, m, s)
	case m != 0:
		return fmt.Sprintf("%s%d:%02d", sign, h, m)
	default:
		return fmt.Sprintf("%s%d", sign, h)
	}
}
