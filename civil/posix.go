package civil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParsePOSIX parses a POSIX TZ string such as "EST5EDT,M3.2.0,M11.1.0" or
// "<+0330>-3:30". Offsets in the string count west of Greenwich, so EST5 is
// five hours behind UTC. A string without DST gives a fixed zone; a DST name
// without rules uses the current US rules.
//
// Julian day rules are accepted in the Jn form only (February 29 is never
// counted); the zero-based n form is rejected.
func ParsePOSIX(s string) (Zone, error) {
	p := posixParser{s: s}
	stdName, ok := p.name()
	if !ok {
		return nil, p.errorf("missing standard time name")
	}
	stdOff, ok := p.offset()
	if !ok {
		return nil, p.errorf("missing standard time offset")
	}
	std := -stdOff
	if p.done() {
		return fixedZone{offset: std, name: s, abbr: stdName}, nil
	}

	dstName, ok := p.name()
	if !ok {
		return nil, p.errorf("bad daylight time name")
	}
	dst := std + time.Hour
	if !p.done() && p.peek() != ',' {
		off, ok := p.offset()
		if !ok {
			return nil, p.errorf("bad daylight time offset")
		}
		dst = -off
	}

	cfg := RuleZoneConfig{
		Name:      s,
		StdName:   stdName,
		DSTName:   dstName,
		StdOffset: std,
		DSTOffset: dst,
	}
	if p.done() {
		cfg.Start = TransitionRule{Month: time.March, Day: 1, Weekday: time.Sunday, Nth: 2, At: 2 * time.Hour}
		cfg.End = TransitionRule{Month: time.November, Day: 1, Weekday: time.Sunday, Nth: 1, At: 2 * time.Hour}
		return NewRuleZone(cfg)
	}

	var err error
	if cfg.Start, err = p.rule(); err != nil {
		return nil, err
	}
	if cfg.End, err = p.rule(); err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, p.errorf("trailing characters")
	}
	return NewRuleZone(cfg)
}

type posixParser struct {
	s   string
	pos int
}

func (p *posixParser) done() bool { return p.pos >= len(p.s) }

func (p *posixParser) peek() byte { return p.s[p.pos] }

func (p *posixParser) errorf(format string, args ...any) error {
	return fmt.Errorf("parse POSIX TZ %q at %d: %s", p.s, p.pos, fmt.Sprintf(format, args...))
}

// name reads an alphabetic abbreviation of at least three letters, or a
// quoted one like <+0330>.
func (p *posixParser) name() (string, bool) {
	rest := p.s[p.pos:]
	if strings.HasPrefix(rest, "<") {
		end := strings.IndexByte(rest, '>')
		if end < 2 {
			return "", false
		}
		p.pos += end + 1
		return rest[1:end], true
	}
	n := 0
	for n < len(rest) && (rest[n] >= 'A' && rest[n] <= 'Z' || rest[n] >= 'a' && rest[n] <= 'z') {
		n++
	}
	if n < 3 {
		return "", false
	}
	p.pos += n
	return rest[:n], true
}

// offset reads [+-]hh[:mm[:ss]].
func (p *posixParser) offset() (time.Duration, bool) {
	if p.done() {
		return 0, false
	}
	sign := time.Duration(1)
	switch p.peek() {
	case '-':
		sign = -1
		p.pos++
	case '+':
		p.pos++
	}
	d, ok := p.clock(24 * 7)
	return sign * d, ok
}

func (p *posixParser) clock(maxHours int) (time.Duration, bool) {
	h, ok := p.num(0, maxHours)
	if !ok {
		return 0, false
	}
	d := time.Duration(h) * time.Hour
	for _, unit := range []time.Duration{time.Minute, time.Second} {
		if p.done() || p.peek() != ':' {
			break
		}
		p.pos++
		v, ok := p.num(0, 59)
		if !ok {
			return 0, false
		}
		d += time.Duration(v) * unit
	}
	return d, true
}

func (p *posixParser) num(lo, hi int) (int, bool) {
	start := p.pos
	for !p.done() && p.peek() >= '0' && p.peek() <= '9' {
		p.pos++
	}
	v, err := strconv.Atoi(p.s[start:p.pos])
	if err != nil || v < lo || v > hi {
		return 0, false
	}
	return v, true
}

// rule reads ",Mm.w.d[/time]" or ",Jn[/time]".
func (p *posixParser) rule() (TransitionRule, error) {
	if p.done() || p.peek() != ',' {
		return TransitionRule{}, p.errorf("expected ','")
	}
	p.pos++
	if p.done() {
		return TransitionRule{}, p.errorf("missing rule")
	}

	var r TransitionRule
	switch p.peek() {
	case 'M':
		p.pos++
		m, ok := p.num(1, 12)
		if !ok || p.done() || p.peek() != '.' {
			return r, p.errorf("bad month")
		}
		p.pos++
		w, ok := p.num(1, 5)
		if !ok || p.done() || p.peek() != '.' {
			return r, p.errorf("bad week")
		}
		p.pos++
		d, ok := p.num(0, 6)
		if !ok {
			return r, p.errorf("bad weekday")
		}
		r = TransitionRule{Month: time.Month(m), Day: 1, Weekday: time.Weekday(d), Nth: w}
		if w == 5 {
			r.Day, r.Nth = 31, -1
		}
	case 'J':
		p.pos++
		n, ok := p.num(1, 365)
		if !ok {
			return r, p.errorf("bad julian day")
		}
		// Day n of a non-leap year.
		date := time.Date(2001, time.January, n, 0, 0, 0, 0, time.UTC)
		r = TransitionRule{Month: date.Month(), Day: date.Day()}
	default:
		return r, p.errorf("unsupported rule form")
	}

	r.At = 2 * time.Hour
	if !p.done() && p.peek() == '/' {
		p.pos++
		at, ok := p.clock(167)
		if !ok {
			return r, p.errorf("bad transition time")
		}
		r.At = at
	}
	return r, nil
}
