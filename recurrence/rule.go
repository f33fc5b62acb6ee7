package recurrence

import (
	"iter"
	"slices"
	"time"

	"github.com/cyp0633/librecur/civil"
	"github.com/samber/mo"
)

// maxYear bounds evaluation of rules without Count or Until.
const maxYear = 9999

// Rule is a validated recurrence rule. It is immutable and safe for
// concurrent use.
type Rule struct {
	opts Options

	zone     civil.Zone
	start    time.Time // wall reading of Options.Start, whole seconds
	interval int
	until    mo.Option[civil.Time]

	months     [13]bool
	anyMonth   bool
	monthDays  []int
	yearDays   []int
	weekdays   [7]bool
	anyWeekday bool
	nthDays    []Weekday
	hours      []int
	minutes    []int
	seconds    []int
	setPos     []int

	// Fixed at construction for day-level frequencies.
	times []clock
}

type clock struct{ h, m, s int }

// New validates opts and returns the rule they describe. All validation
// happens here; evaluating a Rule never fails.
func New(opts Options) (*Rule, error) {
	if err := validate(opts); err != nil {
		return nil, err
	}
	opts = opts.clone()

	r := &Rule{opts: opts, interval: opts.Interval, until: opts.Until}
	r.zone, _ = opts.Start.Zone()
	y, m, d := opts.Start.Date()
	h, mi, s := opts.Start.Clock()
	r.start = time.Date(y, m, d, h, mi, s, 0, time.UTC)

	byMonth := opts.ByMonth
	byMonthDay := opts.ByMonthDay
	byWeekday := opts.ByWeekday
	if len(opts.ByYearDay) == 0 && len(byMonthDay) == 0 && len(byWeekday) == 0 {
		switch opts.Freq {
		case Yearly:
			if len(byMonth) == 0 {
				byMonth = []time.Month{m}
			}
			byMonthDay = []int{d}
		case Monthly:
			byMonthDay = []int{d}
		case Weekly:
			byWeekday = []Weekday{{Day: r.start.Weekday()}}
		}
	}

	r.anyMonth = len(byMonth) == 0
	for _, month := range byMonth {
		r.months[month] = true
	}
	r.monthDays = byMonthDay
	r.yearDays = opts.ByYearDay
	r.anyWeekday = len(byWeekday) == 0
	for _, wd := range byWeekday {
		if wd.N == 0 {
			r.weekdays[wd.Day] = true
		} else {
			r.nthDays = append(r.nthDays, wd)
		}
	}

	r.hours = sortedUnique(opts.ByHour)
	r.minutes = sortedUnique(opts.ByMinute)
	r.seconds = sortedUnique(opts.BySecond)
	r.setPos = opts.BySetPos

	// Fields finer than the frequency default to the start's own fields.
	hours, minutes, seconds := r.hours, r.minutes, r.seconds
	if len(hours) == 0 && opts.Freq < Hourly {
		hours = []int{h}
	}
	if len(minutes) == 0 && opts.Freq < Minutely {
		minutes = []int{mi}
	}
	if len(seconds) == 0 && opts.Freq < Secondly {
		seconds = []int{s}
	}
	r.hours, r.minutes, r.seconds = hours, minutes, seconds
	if opts.Freq <= Daily {
		for _, hh := range hours {
			for _, mm := range minutes {
				for _, ss := range seconds {
					r.times = append(r.times, clock{hh, mm, ss})
				}
			}
		}
	}
	return r, nil
}

func validate(o Options) error {
	if o.Freq < Yearly || o.Freq > Secondly {
		return ruleErrorf("freq", "unknown frequency %d", int(o.Freq))
	}
	if o.Start.IsZero() {
		return ruleErrorf("start", "start is required")
	}
	if ns := o.Start.Nanosecond(); ns != 0 {
		return ruleErrorf("start", "must be a whole second, got %dns", ns)
	}
	if o.Interval < 1 {
		return ruleErrorf("interval", "must be at least 1, got %d", o.Interval)
	}
	if o.Count < 0 {
		return ruleErrorf("count", "must not be negative, got %d", o.Count)
	}
	if o.Count > 0 && o.Until.IsPresent() {
		return ruleErrorf("until", "count and until are mutually exclusive")
	}
	if ws, ok := o.WeekStart.Get(); ok && (ws < time.Sunday || ws > time.Saturday) {
		return ruleErrorf("wkst", "unknown weekday %d", int(ws))
	}

	bounds := []struct {
		field     []int
		param     string
		lo, hi    int
		plusMinus bool // the bound also applies for -hi to -lo
	}{
		{o.BySecond, "bysecond", 0, 59, false},
		{o.ByMinute, "byminute", 0, 59, false},
		{o.ByHour, "byhour", 0, 23, false},
		{o.ByMonthDay, "bymonthday", 1, 31, true},
		{o.ByYearDay, "byyearday", 1, 366, true},
		{o.BySetPos, "bysetpos", 1, 366, true},
	}
	for _, b := range bounds {
		for _, v := range b.field {
			if (v < b.lo || v > b.hi) && (!b.plusMinus || v > -b.lo || v < -b.hi) {
				if b.plusMinus {
					return ruleErrorf(b.param, "%d is not between %d and %d or %d and %d", v, b.lo, b.hi, -b.lo, -b.hi)
				}
				return ruleErrorf(b.param, "%d is not between %d and %d", v, b.lo, b.hi)
			}
		}
	}
	for _, m := range o.ByMonth {
		if m < time.January || m > time.December {
			return ruleErrorf("bymonth", "%d is not between 1 and 12", int(m))
		}
	}
	for _, wd := range o.ByWeekday {
		if wd.Day < time.Sunday || wd.Day > time.Saturday {
			return ruleErrorf("byday", "unknown weekday %d", int(wd.Day))
		}
		if wd.N == 0 {
			continue
		}
		switch {
		case o.Freq > Monthly:
			return ruleErrorf("byday", "ordinal %s needs a monthly or yearly frequency", wd)
		case o.Freq == Monthly || len(o.ByMonth) > 0:
			if wd.N > 5 || wd.N < -5 {
				return ruleErrorf("byday", "ordinal %s must be between 1 and 5 or -1 and -5 within a month", wd)
			}
		default:
			if wd.N > 53 || wd.N < -53 {
				return ruleErrorf("byday", "ordinal %s must be between 1 and 53 or -1 and -53", wd)
			}
		}
	}
	if len(o.BySetPos) > 0 && !o.hasByPart() {
		return ruleErrorf("bysetpos", "needs another BY part")
	}
	if until, ok := o.Until.Get(); ok && until.IsZero() {
		return ruleErrorf("until", "zero time")
	}
	return nil
}

// Options returns a copy of the options the rule was built from. Changing
// the copy does not affect the rule.
func (r *Rule) Options() Options {
	return r.opts.clone()
}

// Start returns the first candidate occurrence.
func (r *Rule) Start() civil.Time {
	return r.opts.Start
}

// Iterator returns a pull iterator over all occurrences. Each call starts a
// fresh pass.
func (r *Rule) Iterator() *Iterator {
	return &Iterator{c: r.cursor(0)}
}

// All returns the occurrences in ascending order. The sequence of a rule
// without Count or Until ends after year 9999.
func (r *Rule) All() iter.Seq[civil.Time] {
	return func(yield func(civil.Time) bool) {
		c := r.cursor(0)
		for {
			t, ok := c.next()
			if !ok || !yield(t) {
				return
			}
		}
	}
}

// Between returns the occurrences in [from, to).
func (r *Rule) Between(from, to civil.Time) []civil.Time {
	var out []civil.Time
	c := r.cursor(r.seek(from))
	for {
		t, ok := c.next()
		if !ok || r.compare(t, to) >= 0 {
			return out
		}
		if r.compare(t, from) >= 0 {
			out = append(out, t)
		}
	}
}

// After returns the first occurrence after t, or at t when inclusive.
func (r *Rule) After(t civil.Time, inclusive bool) mo.Option[civil.Time] {
	c := r.cursor(r.seek(t))
	for {
		o, ok := c.next()
		if !ok {
			return mo.None[civil.Time]()
		}
		if cmp := r.compare(o, t); cmp > 0 || inclusive && cmp == 0 {
			return mo.Some(o)
		}
	}
}

// Before returns the last occurrence before t, or at t when inclusive.
func (r *Rule) Before(t civil.Time, inclusive bool) mo.Option[civil.Time] {
	if r.opts.Count == 0 {
		return r.beforeBackward(t, inclusive)
	}
	last := mo.None[civil.Time]()
	c := r.cursor(0)
	for {
		o, ok := c.next()
		if !ok {
			return last
		}
		if cmp := r.compare(o, t); cmp > 0 || !inclusive && cmp == 0 {
			return last
		}
		last = mo.Some(o)
	}
}

// beforeBackward walks periods downward from the one holding t. Only valid
// without Count, where a period's occurrences do not depend on earlier ones.
func (r *Rule) beforeBackward(t civil.Time, inclusive bool) mo.Option[civil.Time] {
	limit, _ := r.wallOf(t)
	if until, ok := r.until.Get(); ok {
		if u, _ := r.wallOf(until); u.Before(limit) {
			limit = u
		}
	}
	if end := time.Date(maxYear, time.December, 31, 23, 59, 59, 0, time.UTC); end.Before(limit) {
		limit = end
	}
	if limit.Before(r.start) {
		return mo.None[civil.Time]()
	}

	match := func(w time.Time) (civil.Time, bool) {
		if w.Before(r.start) {
			return civil.Time{}, false
		}
		o := r.occurrence(w)
		if r.pastUntil(o) {
			return civil.Time{}, false
		}
		cmp := r.compare(o, t)
		return o, cmp < 0 || inclusive && cmp == 0
	}

	if r.opts.Freq <= Daily {
		for p := r.seekWall(limit) + 2; p >= 0; p-- {
			walls, _, ok := r.period(p)
			if !ok {
				continue
			}
			for i := len(walls) - 1; i >= 0; i-- {
				if o, ok := match(walls[i]); ok {
					return mo.Some(o)
				}
			}
		}
		return mo.None[civil.Time]()
	}

	// Sub-daily periods are too many to walk one by one, so walk days and
	// scan each matching day forward.
	for day := date(limit.Date()); !day.Before(r.startDate()); day = day.AddDate(0, 0, -1) {
		if !r.dayMatches(day, nil) {
			continue
		}
		nextDay := day.AddDate(0, 0, 1)
		best := mo.None[civil.Time]()
		for p := r.seekWall(day); r.periodStart(p).Before(nextDay); {
			walls, next, ok := r.period(p)
			if !ok {
				break
			}
			for _, w := range walls {
				if o, ok := match(w); ok {
					best = mo.Some(o)
				}
			}
			p = next
		}
		if best.IsPresent() {
			return best
		}
	}
	return mo.None[civil.Time]()
}

// Iterator pulls occurrences one at a time.
type Iterator struct {
	c *cursor
}

// Next returns the next occurrence, or false when the rule is exhausted.
func (it *Iterator) Next() (civil.Time, bool) {
	return it.c.next()
}

func (r *Rule) occurrence(wall time.Time) civil.Time {
	return civil.Date(wall.Year(), wall.Month(), wall.Day(),
		wall.Hour(), wall.Minute(), wall.Second(), 0, r.zone)
}

func (r *Rule) pastUntil(o civil.Time) bool {
	until, ok := r.until.Get()
	return ok && r.compare(o, until) >= 0
}

func sortedUnique(vs []int) []int {
	if len(vs) == 0 {
		return nil
	}
	out := slices.Clone(vs)
	slices.Sort(out)
	return slices.Compact(out)
}
