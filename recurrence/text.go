package recurrence

import (
	"fmt"
	"time"

	"github.com/cyp0633/librecur/civil"
	"github.com/samber/mo"
	"github.com/teambition/rrule-go"
)

// floating marks date-times parsed without a zone designator.
var floating = time.FixedZone("floating", 0)

var rruleDays = []rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// ParseRule parses RFC 5545 RRULE text such as "FREQ=YEARLY;BYMONTH=1;BYDAY=+3MO",
// with or without the "RRULE:" prefix. The text may start with a DTSTART line,
// which is used when start is the zero Time. A floating UNTIL is read in the
// start's zone; a UTC one is converted to it.
func ParseRule(text string, start civil.Time) (*Rule, error) {
	ro, err := rrule.StrToROptionInLocation(text, floating)
	if err != nil {
		return nil, fmt.Errorf("parse rrule %q: %w", text, &RuleError{Field: "rrule", Message: err.Error()})
	}
	if start.IsZero() && !ro.Dtstart.IsZero() {
		start = fromStd(ro.Dtstart)
	}
	opts, err := fromROption(ro, start)
	if err != nil {
		return nil, fmt.Errorf("parse rrule %q: %w", text, err)
	}
	return New(opts)
}

func fromROption(ro *rrule.ROption, start civil.Time) (Options, error) {
	if len(ro.Byweekno) > 0 {
		return Options{}, ruleErrorf("byweekno", "not supported")
	}
	if len(ro.Byeaster) > 0 {
		return Options{}, ruleErrorf("byeaster", "not supported")
	}

	opts := Options{
		Freq:       Frequency(ro.Freq),
		Start:      start,
		Interval:   ro.Interval,
		Count:      ro.Count,
		WeekStart:  mo.Some(fromRRuleDay(ro.Wkst)),
		ByMonthDay: ro.Bymonthday,
		ByYearDay:  ro.Byyearday,
		ByHour:     ro.Byhour,
		ByMinute:   ro.Byminute,
		BySecond:   ro.Bysecond,
		BySetPos:   ro.Bysetpos,
	}
	if opts.Interval == 0 {
		opts.Interval = 1
	}
	for _, m := range ro.Bymonth {
		opts.ByMonth = append(opts.ByMonth, time.Month(m))
	}
	for _, wd := range ro.Byweekday {
		opts.ByWeekday = append(opts.ByWeekday, Weekday{Day: fromRRuleDay(wd), N: wd.N()})
	}
	if !ro.Until.IsZero() {
		until := fromStd(ro.Until)
		if zone, ok := start.Zone(); ok {
			if until.IsNaive() {
				until = until.WithZone(zone)
			} else {
				until, _ = until.In(zone)
			}
		} else {
			until = until.Naive()
		}
		opts.Until = mo.Some(until)
	}
	return opts, nil
}

// fromStd turns a time parsed by rrule-go into a civil time: floating
// readings become naive, UTC ones get the UTC zone and others a database zone.
func fromStd(t time.Time) civil.Time {
	switch t.Location() {
	case floating:
		return civil.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, nil)
	case time.UTC:
		return civil.FromInstant(t, civil.UTC)
	default:
		return civil.FromInstant(t, civil.Database(t.Location()))
	}
}

func fromRRuleDay(wd rrule.Weekday) time.Weekday {
	// rrule-go counts from Monday.
	return time.Weekday((wd.Day() + 1) % 7)
}

func toRRuleDay(wd Weekday) rrule.Weekday {
	return rruleDays[wd.Day].Nth(wd.N)
}

// ROption returns the rule as rrule-go options. Until is carried as an
// instant; for a naive rule it is read as UTC.
func (r *Rule) ROption() rrule.ROption {
	o := r.opts
	ro := rrule.ROption{
		Freq:       rrule.Frequency(o.Freq),
		Dtstart:    o.Start.Std(),
		Count:      o.Count,
		Wkst:       toRRuleDay(Weekday{Day: o.weekStart()}),
		Bymonthday: o.ByMonthDay,
		Byyearday:  o.ByYearDay,
		Byhour:     o.ByHour,
		Byminute:   o.ByMinute,
		Bysecond:   o.BySecond,
		Bysetpos:   o.BySetPos,
	}
	if o.Interval > 1 {
		ro.Interval = o.Interval
	}
	for _, m := range o.ByMonth {
		ro.Bymonth = append(ro.Bymonth, int(m))
	}
	for _, wd := range o.ByWeekday {
		ro.Byweekday = append(ro.Byweekday, toRRuleDay(wd))
	}
	if until, ok := o.Until.Get(); ok {
		ro.Until = until.Instant()
	}
	return ro
}

// String returns the rule as RRULE text without DTSTART. UNTIL is written in
// UTC for zoned rules and as a floating date-time for naive ones.
func (r *Rule) String() string {
	ro := r.ROption()
	until, hasUntil := r.opts.Until.Get()
	if hasUntil && r.opts.Start.IsNaive() {
		ro.Until = time.Time{}
	}
	s := ro.RRuleString()
	if hasUntil && r.opts.Start.IsNaive() {
		s += ";UNTIL=" + until.Format(rrule.LocalDateTimeFormat)
	}
	return s
}
