package recurrence

import (
	"slices"
	"time"

	"github.com/cyp0633/librecur/civil"
)

// Occurrences are computed on wall readings held in UTC time.Time values and
// only turned into civil.Time on the way out. Periods are numbered from 0,
// the period holding the start.

// cursor walks a rule's periods forward, applying the start, Until and Count
// limits.
type cursor struct {
	r       *Rule
	p       int
	buf     []time.Time
	emitted int
	last    time.Time
	hasLast bool
	done    bool
}

func (r *Rule) cursor(p int) *cursor {
	return &cursor{r: r, p: p}
}

func (c *cursor) next() (civil.Time, bool) {
	for !c.done {
		for len(c.buf) > 0 {
			w := c.buf[0]
			c.buf = c.buf[1:]
			if w.Before(c.r.start) || c.hasLast && !w.After(c.last) {
				continue
			}
			o := c.r.occurrence(w)
			if c.r.pastUntil(o) {
				c.done = true
				return civil.Time{}, false
			}
			c.last, c.hasLast = w, true
			c.emitted++
			if c.r.opts.Count > 0 && c.emitted >= c.r.opts.Count {
				c.done = true
			}
			return o, true
		}

		walls, next, ok := c.r.period(c.p)
		if !ok {
			c.done = true
			break
		}
		c.buf, c.p = walls, next
	}
	return civil.Time{}, false
}

// period returns the candidates of period p in ascending order, after
// BYSETPOS, and the index of the next period worth evaluating. ok is false
// once the period lies past maxYear.
func (r *Rule) period(p int) (walls []time.Time, next int, ok bool) {
	next = p + 1
	switch r.opts.Freq {
	case Yearly:
		y := r.start.Year() + p*r.interval
		if y > maxYear {
			return nil, next, false
		}
		walls = r.expandDays(date(y, time.January, 1), civil.DaysInYear(y), r.nthInYear(y))
	case Monthly:
		idx := monthIndex(r.start) + p*r.interval
		y, m := floorDiv(idx, 12), time.Month(idx-floorDiv(idx, 12)*12+1)
		if y > maxYear {
			return nil, next, false
		}
		if !r.anyMonth && !r.months[m] {
			return nil, next, true
		}
		nth := map[int]bool(nil)
		if len(r.nthDays) > 0 {
			nth = make(map[int]bool)
			r.nthInMonth(nth, y, m)
		}
		walls = r.expandDays(date(y, m, 1), civil.DaysIn(y, m), nth)
	case Weekly:
		first := r.weekAnchor().AddDate(0, 0, 7*r.interval*p)
		if first.Year() > maxYear {
			return nil, next, false
		}
		walls = r.expandDays(first, 7, nil)
	case Daily:
		day := r.startDate().AddDate(0, 0, r.interval*p)
		if day.Year() > maxYear {
			return nil, next, false
		}
		walls = r.expandDays(day, 1, nil)
	default:
		return r.subDaily(p)
	}
	return r.applySetPos(walls), next, true
}

func (r *Rule) expandDays(first time.Time, n int, nth map[int]bool) []time.Time {
	var walls []time.Time
	for i := 0; i < n; i++ {
		d := first.AddDate(0, 0, i)
		if !r.dayMatches(d, nth) {
			continue
		}
		y, m, dd := d.Date()
		for _, c := range r.times {
			walls = append(walls, time.Date(y, m, dd, c.h, c.m, c.s, 0, time.UTC))
		}
	}
	return walls
}

// subDaily handles periods of one hour, minute or second. A period on a day
// or hour the BY parts rule out is skipped along with the rest of that day or
// hour.
func (r *Rule) subDaily(p int) ([]time.Time, int, bool) {
	w := r.periodStart(p)
	if w.Year() > maxYear {
		return nil, p + 1, false
	}
	day := date(w.Date())
	if !r.dayMatches(day, nil) {
		return nil, r.indexAtOrAfter(day.AddDate(0, 0, 1), p), true
	}
	if len(r.hours) > 0 && !slices.Contains(r.hours, w.Hour()) {
		return nil, r.indexAtOrAfter(w.Truncate(time.Hour).Add(time.Hour), p), true
	}

	var walls []time.Time
	switch r.opts.Freq {
	case Hourly:
		hour := w.Truncate(time.Hour)
		for _, m := range r.minutes {
			for _, s := range r.seconds {
				walls = append(walls, hour.Add(time.Duration(m)*time.Minute+time.Duration(s)*time.Second))
			}
		}
	case Minutely:
		if len(r.opts.ByMinute) > 0 && !slices.Contains(r.minutes, w.Minute()) {
			return nil, r.indexAtOrAfter(w.Truncate(time.Minute).Add(time.Minute), p), true
		}
		minute := w.Truncate(time.Minute)
		for _, s := range r.seconds {
			walls = append(walls, minute.Add(time.Duration(s)*time.Second))
		}
	case Secondly:
		if len(r.opts.ByMinute) > 0 && !slices.Contains(r.minutes, w.Minute()) {
			return nil, r.indexAtOrAfter(w.Truncate(time.Minute).Add(time.Minute), p), true
		}
		if len(r.opts.BySecond) > 0 && !slices.Contains(r.seconds, w.Second()) {
			return nil, p + 1, true
		}
		walls = []time.Time{w}
	}
	return r.applySetPos(walls), p + 1, true
}

func (r *Rule) dayMatches(d time.Time, nth map[int]bool) bool {
	if !r.anyMonth && !r.months[d.Month()] {
		return false
	}
	if len(r.yearDays) > 0 && !matchesOrdinal(d.YearDay(), civil.DaysInYear(d.Year()), r.yearDays) {
		return false
	}
	if len(r.monthDays) > 0 && !matchesOrdinal(d.Day(), civil.DaysIn(d.Year(), d.Month()), r.monthDays) {
		return false
	}
	if !r.anyWeekday && !r.weekdays[d.Weekday()] && !nth[d.YearDay()] {
		return false
	}
	return true
}

// matchesOrdinal reports whether position v of n is listed, counting negative
// entries from the end.
func matchesOrdinal(v, n int, list []int) bool {
	for _, x := range list {
		if x == v || x < 0 && n+x+1 == v {
			return true
		}
	}
	return false
}

// nthInYear returns the year days matched by ordinal BYDAY entries. The
// ordinals count within each BYMONTH month when BYMONTH is set, and within
// the whole year otherwise.
func (r *Rule) nthInYear(y int) map[int]bool {
	if len(r.nthDays) == 0 {
		return nil
	}
	set := make(map[int]bool)
	if !r.anyMonth {
		for m := time.January; m <= time.December; m++ {
			if r.months[m] {
				r.nthInMonth(set, y, m)
			}
		}
		return set
	}
	n := civil.DaysInYear(y)
	jan1 := date(y, time.January, 1).Weekday()
	dec31 := date(y, time.December, 31).Weekday()
	for _, wd := range r.nthDays {
		var off int
		if wd.N > 0 {
			off = (int(wd.Day)-int(jan1)+7)%7 + (wd.N-1)*7
		} else {
			off = n - 1 - (int(dec31)-int(wd.Day)+7)%7 + (wd.N+1)*7
		}
		if off >= 0 && off < n {
			set[off+1] = true
		}
	}
	return set
}

func (r *Rule) nthInMonth(set map[int]bool, y int, m time.Month) {
	last := civil.DaysIn(y, m)
	for _, wd := range r.nthDays {
		anchor := 1
		if wd.N < 0 {
			anchor = last
		}
		if d := civil.NthWeekday(y, m, anchor, wd.Day, wd.N); d >= 1 && d <= last {
			set[date(y, m, d).YearDay()] = true
		}
	}
}

func (r *Rule) applySetPos(walls []time.Time) []time.Time {
	if len(r.setPos) == 0 || len(walls) == 0 {
		return walls
	}
	n := len(walls)
	var picked []time.Time
	for _, pos := range r.setPos {
		i := pos - 1
		if pos < 0 {
			i = n + pos
		}
		if i >= 0 && i < n {
			picked = append(picked, walls[i])
		}
	}
	slices.SortFunc(picked, time.Time.Compare)
	return slices.CompactFunc(picked, time.Time.Equal)
}

// seek returns a period index at or before the first period that can hold
// occurrences at or after t. Rules with Count always start at period 0.
func (r *Rule) seek(t civil.Time) int {
	if r.opts.Count > 0 {
		return 0
	}
	w, _ := r.wallOf(t)
	return r.seekWall(w)
}

func (r *Rule) seekWall(w time.Time) int {
	if !w.After(r.start) {
		return 0
	}
	var p int
	switch r.opts.Freq {
	case Yearly:
		p = (w.Year() - r.start.Year()) / r.interval
	case Monthly:
		p = (monthIndex(w) - monthIndex(r.start)) / r.interval
	case Weekly:
		p = daysBetween(r.weekAnchor(), w) / (7 * r.interval)
	case Daily:
		p = daysBetween(r.startDate(), w) / r.interval
	default:
		p = int((w.Unix() - r.subDailyBase().Unix()) / r.stepSeconds())
	}
	return max(p-1, 0)
}

// wallOf reads t on the rule's clocks. Times in another zone are converted
// through their instant; times in the rule's zone and naive times keep their
// reading, including readings in a gap.
func (r *Rule) wallOf(t civil.Time) (time.Time, bool) {
	if zone, ok := t.Zone(); ok && r.zone != nil && zone.Name() != r.zone.Name() {
		t, _ = t.In(r.zone)
	}
	y, m, d := t.Date()
	h, mi, s := t.Clock()
	return time.Date(y, m, d, h, mi, s, t.Nanosecond(), time.UTC), t.Fold()
}

// compare orders o, one of r's occurrences, against t on the rule's clocks.
// Occurrences carry fold=0, so they sort before a second reading of the same
// clock time.
func (r *Rule) compare(o, t civil.Time) int {
	ow, _ := r.wallOf(o)
	tw, fold := r.wallOf(t)
	if c := ow.Compare(tw); c != 0 {
		return c
	}
	if fold {
		return -1
	}
	return 0
}

func (r *Rule) startDate() time.Time {
	return date(r.start.Date())
}

// weekAnchor is the week start on or before the start date.
func (r *Rule) weekAnchor() time.Time {
	back := (int(r.start.Weekday()) - int(r.opts.weekStart()) + 7) % 7
	return r.startDate().AddDate(0, 0, -back)
}

func (r *Rule) subDailyBase() time.Time {
	switch r.opts.Freq {
	case Hourly:
		return r.start.Truncate(time.Hour)
	case Minutely:
		return r.start.Truncate(time.Minute)
	default:
		return r.start
	}
}

func (r *Rule) stepSeconds() int64 {
	unit := int64(1)
	switch r.opts.Freq {
	case Hourly:
		unit = 3600
	case Minutely:
		unit = 60
	}
	return unit * int64(r.interval)
}

func (r *Rule) periodStart(p int) time.Time {
	return time.Unix(r.subDailyBase().Unix()+int64(p)*r.stepSeconds(), 0).UTC()
}

// indexAtOrAfter returns the first sub-daily period starting at or after
// target, and never one before p+1.
func (r *Rule) indexAtOrAfter(target time.Time, p int) int {
	step := r.stepSeconds()
	delta := target.Unix() - r.subDailyBase().Unix()
	k := int((delta + step - 1) / step)
	return max(k, p+1)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func monthIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}

func daysBetween(a, b time.Time) int {
	return int((date(b.Date()).Unix() - date(a.Date()).Unix()) / 86400)
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
