package recurrence

import (
	"fmt"
	"time"

	"github.com/cyp0633/librecur/civil"
	"github.com/robfig/cron/v3"
)

// cronStar is set by the cron parser on fields written as "*" or "?".
const cronStar = uint64(1) << 63

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseCron translates a crontab expression into rules whose union fires
// when the cron schedule does, starting at start. Five and six field forms
// (leading seconds) are accepted, as are descriptors such as "@daily" and
// "@every 90m". A CRON_TZ= or TZ= prefix moves start into that zone.
//
// When both the day-of-month and day-of-week fields are restricted, cron
// fires on either; that needs two rules. "@every" schedules fire at start and
// then every delay of wall-clock time.
func ParseCron(spec string, start civil.Time) ([]*Rule, error) {
	sched, err := cronParser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parse cron %q: %w", spec, &RuleError{Field: "cron", Message: err.Error()})
	}

	var opts []Options
	switch s := sched.(type) {
	case *cron.SpecSchedule:
		start, err = cronStart(start, s.Location)
		if err != nil {
			return nil, fmt.Errorf("parse cron %q: %w", spec, err)
		}
		opts = specOptions(s, start)
	case cron.ConstantDelaySchedule:
		o := NewOptions(Secondly, start)
		o.Interval = int(s.Delay / time.Second)
		opts = []Options{o}
	default:
		return nil, fmt.Errorf("parse cron %q: %w", spec, ruleErrorf("cron", "unsupported schedule %T", sched))
	}

	rules := make([]*Rule, 0, len(opts))
	for _, o := range opts {
		r, err := New(o)
		if err != nil {
			return nil, fmt.Errorf("parse cron %q: %w", spec, err)
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func cronStart(start civil.Time, loc *time.Location) (civil.Time, error) {
	if loc == nil || loc == time.Local {
		return start, nil
	}
	zone := civil.Database(loc)
	if start.IsNaive() {
		return start.WithZone(zone), nil
	}
	return start.In(zone)
}

// specOptions picks the coarsest frequency that keeps every field as a BY
// list: a wildcard seconds field makes the rule secondly, and so on up to
// daily.
func specOptions(s *cron.SpecSchedule, start civil.Time) []Options {
	base := NewOptions(Daily, start)
	switch {
	case s.Second&cronStar != 0:
		base.Freq = Secondly
	case s.Minute&cronStar != 0:
		base.Freq = Minutely
	case s.Hour&cronStar != 0:
		base.Freq = Hourly
	}
	if s.Second&cronStar == 0 {
		base.BySecond = cronBits(s.Second, 0, 59)
	}
	if s.Minute&cronStar == 0 {
		base.ByMinute = cronBits(s.Minute, 0, 59)
	}
	if s.Hour&cronStar == 0 {
		base.ByHour = cronBits(s.Hour, 0, 23)
	}
	if s.Month&cronStar == 0 {
		for _, m := range cronBits(s.Month, 1, 12) {
			base.ByMonth = append(base.ByMonth, time.Month(m))
		}
	}

	var weekdays []Weekday
	for _, d := range cronBits(s.Dow, 0, 6) {
		weekdays = append(weekdays, Weekday{Day: time.Weekday(d)})
	}
	monthDays := cronBits(s.Dom, 1, 31)
	domStar, dowStar := s.Dom&cronStar != 0, s.Dow&cronStar != 0

	if domStar || dowStar {
		if !domStar {
			base.ByMonthDay = monthDays
		}
		if !dowStar {
			base.ByWeekday = weekdays
		}
		return []Options{base}
	}
	byDom, byDow := base.clone(), base.clone()
	byDom.ByMonthDay = monthDays
	byDow.ByWeekday = weekdays
	return []Options{byDom, byDow}
}

func cronBits(bits uint64, lo, hi int) []int {
	var out []int
	for i := lo; i <= hi; i++ {
		if bits&(1<<uint(i)) != 0 {
			out = append(out, i)
		}
	}
	return out
}
