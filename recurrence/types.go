package recurrence

import (
	"fmt"
	"slices"
	"time"

	"github.com/cyp0633/librecur/civil"
	"github.com/samber/mo"
)

// Frequency is the period on which a rule is evaluated.
type Frequency int

const (
	Yearly Frequency = iota
	Monthly
	Weekly
	Daily
	Hourly
	Minutely
	Secondly
)

var frequencyNames = [...]string{"YEARLY", "MONTHLY", "WEEKLY", "DAILY", "HOURLY", "MINUTELY", "SECONDLY"}

func (f Frequency) String() string {
	if f < Yearly || f > Secondly {
		return fmt.Sprintf("Frequency(%d)", int(f))
	}
	return frequencyNames[f]
}

// Weekday is a BYDAY entry: a day of the week, optionally with an ordinal.
// N == 0 matches every such day in the period; N == 3 matches the third and
// N == -1 the last.
type Weekday struct {
	Day time.Weekday
	N   int
}

var weekdayCodes = [...]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

// Weekdays without ordinals.
var (
	MO = Weekday{Day: time.Monday}
	TU = Weekday{Day: time.Tuesday}
	WE = Weekday{Day: time.Wednesday}
	TH = Weekday{Day: time.Thursday}
	FR = Weekday{Day: time.Friday}
	SA = Weekday{Day: time.Saturday}
	SU = Weekday{Day: time.Sunday}
)

// Nth returns w with ordinal n.
func (w Weekday) Nth(n int) Weekday {
	return Weekday{Day: w.Day, N: n}
}

func (w Weekday) String() string {
	code := fmt.Sprintf("Weekday(%d)", int(w.Day))
	if w.Day >= time.Sunday && w.Day <= time.Saturday {
		code = weekdayCodes[w.Day]
	}
	if w.N == 0 {
		return code
	}
	return fmt.Sprintf("%+d%s", w.N, code)
}

// Options describes a recurrence rule. The fields mirror the RFC 5545 RRULE
// parts; an empty BY slice leaves that part unconstrained.
type Options struct {
	Freq Frequency
	// Start is the first candidate occurrence and the template for fields
	// the BY parts leave open. Its zone is carried by every occurrence.
	Start civil.Time
	// Interval is the number of periods between occurrences, at least 1.
	Interval int
	// Count caps the number of occurrences; zero means no cap.
	Count int
	// Until excludes occurrences at or after it.
	Until mo.Option[civil.Time]
	// WeekStart defaults to Monday.
	WeekStart mo.Option[time.Weekday]

	ByMonth    []time.Month
	ByWeekday  []Weekday
	ByMonthDay []int
	ByYearDay  []int
	ByHour     []int
	ByMinute   []int
	BySecond   []int
	BySetPos   []int
}

// NewOptions returns options for an every-period rule starting at start.
func NewOptions(freq Frequency, start civil.Time) Options {
	return Options{Freq: freq, Start: start, Interval: 1}
}

func (o Options) clone() Options {
	o.ByMonth = slices.Clone(o.ByMonth)
	o.ByWeekday = slices.Clone(o.ByWeekday)
	o.ByMonthDay = slices.Clone(o.ByMonthDay)
	o.ByYearDay = slices.Clone(o.ByYearDay)
	o.ByHour = slices.Clone(o.ByHour)
	o.ByMinute = slices.Clone(o.ByMinute)
	o.BySecond = slices.Clone(o.BySecond)
	o.BySetPos = slices.Clone(o.BySetPos)
	return o
}

func (o Options) weekStart() time.Weekday {
	return o.WeekStart.OrElse(time.Monday)
}

func (o Options) hasByPart() bool {
	return len(o.ByMonth)+len(o.ByWeekday)+len(o.ByMonthDay)+len(o.ByYearDay)+
		len(o.ByHour)+len(o.ByMinute)+len(o.BySecond) > 0
}
