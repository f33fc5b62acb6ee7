// Package icalendar converts recurrence sets to and from RFC 5545 VEVENT
// components, and renders them as RFC 6321 xCal documents.
package icalendar

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cyp0633/librecur/civil"
	"github.com/cyp0633/librecur/recurrence"
	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

var (
	// ErrMissingStart is returned for events without DTSTART and for empty sets
	ErrMissingStart = errors.New("icalendar: no start")
	// ErrMixedStart is returned when a set's rules start at different times
	ErrMixedStart = errors.New("icalendar: rules do not share a start")
)

// PropExceptionRule is the deprecated EXRULE property, still read and
// written for exclusion rules.
const PropExceptionRule = "EXRULE"

const productID = "-//librecur//Go Recurrence//EN"

// EventOptions carries the VEVENT properties a Set does not know about.
type EventOptions struct {
	UID     string // generated when empty
	Summary string
	Stamp   time.Time // DTSTAMP, now when zero
}

// EncodeEvent renders set as a VEVENT. DTSTART is the common start of the
// rules, or the earliest date when there are none.
func EncodeEvent(set *recurrence.Set, opts EventOptions) (*ical.Event, error) {
	start, err := setStart(set)
	if err != nil {
		return nil, err
	}

	event := ical.NewEvent()
	uid := opts.UID
	if uid == "" {
		uid = uuid.NewString()
	}
	event.Props.SetText(ical.PropUID, uid)
	stamp := opts.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}
	event.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC().Truncate(time.Second))
	if opts.Summary != "" {
		event.Props.SetText(ical.PropSummary, opts.Summary)
	}

	event.Props.Set(timeProp(ical.PropDateTimeStart, start))
	for _, r := range set.Rules() {
		event.Props.Add(ruleProp(ical.PropRecurrenceRule, r))
	}
	for _, r := range set.ExRules() {
		event.Props.Add(ruleProp(PropExceptionRule, r))
	}
	for _, t := range set.Dates() {
		event.Props.Add(timeProp(ical.PropRecurrenceDates, t))
	}
	for _, t := range set.ExDates() {
		event.Props.Add(timeProp(ical.PropExceptionDates, t))
	}
	return event, nil
}

func setStart(set *recurrence.Set) (civil.Time, error) {
	rules := append(set.Rules(), set.ExRules()...)
	if len(rules) == 0 {
		dates := set.Dates()
		if len(dates) == 0 {
			return civil.Time{}, ErrMissingStart
		}
		return dates[0], nil
	}
	start := rules[0].Start()
	for _, r := range rules[1:] {
		if !r.Start().Equal(start) {
			return civil.Time{}, fmt.Errorf("%w: %s and %s", ErrMixedStart, start, r.Start())
		}
	}
	return start, nil
}

func ruleProp(name string, r *recurrence.Rule) *ical.Prop {
	prop := ical.NewProp(name)
	prop.Value = r.String()
	return prop
}

// DecodeEvent builds a set from a VEVENT. TZID parameters are looked up with
// resolver, or the default resolver when it is nil. UTC RDATE and EXDATE
// values are read in the zone of DTSTART. An event without RRULE recurs on
// DTSTART and its RDATEs.
func DecodeEvent(event *ical.Event, resolver civil.ZoneLookup, opts ...recurrence.SetOption) (*recurrence.Set, error) {
	if resolver == nil {
		resolver = civil.DefaultResolver()
	}
	dtstart := event.Props.Get(ical.PropDateTimeStart)
	if dtstart == nil {
		return nil, ErrMissingStart
	}
	start, err := parseDateTime(dtstart.Value, dtstart.Params, resolver)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DTSTART: %w", err)
	}

	set := recurrence.NewSet(opts...)
	for _, prop := range event.Props[ical.PropRecurrenceRule] {
		r, err := recurrence.ParseRule(prop.Value, start)
		if err != nil {
			return nil, fmt.Errorf("failed to parse RRULE: %w", err)
		}
		set.Include(r)
	}
	for _, prop := range event.Props[PropExceptionRule] {
		r, err := recurrence.ParseRule(prop.Value, start)
		if err != nil {
			return nil, fmt.Errorf("failed to parse EXRULE: %w", err)
		}
		set.Exclude(r)
	}
	if len(set.Rules()) == 0 {
		set.AddDate(start)
	}

	dates := []struct {
		name string
		add  func(civil.Time)
	}{
		{ical.PropRecurrenceDates, set.AddDate},
		{ical.PropExceptionDates, set.AddExDate},
	}
	for _, d := range dates {
		for _, prop := range event.Props[d.name] {
			for _, value := range strings.Split(prop.Value, ",") {
				value = strings.TrimSpace(value)
				if value == "" {
					continue
				}
				t, err := parseDateTime(value, prop.Params, resolver)
				if err != nil {
					return nil, fmt.Errorf("failed to parse %s: %w", d.name, err)
				}
				d.add(inZoneOf(t, start))
			}
		}
	}
	return set, nil
}

// inZoneOf moves a UTC reading into ref's zone so that it matches the
// readings a rule starting at ref produces.
func inZoneOf(t, ref civil.Time) civil.Time {
	zone, ok := t.Zone()
	if !ok || zone.Name() != civil.UTC.Name() {
		return t
	}
	refZone, ok := ref.Zone()
	if !ok {
		return t
	}
	moved, err := t.In(refZone)
	if err != nil {
		return t
	}
	return moved
}

// Marshal renders set as a VCALENDAR holding one VEVENT.
func Marshal(set *recurrence.Set, opts EventOptions) (string, error) {
	event, err := EncodeEvent(set, opts)
	if err != nil {
		return "", err
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Children = append(cal.Children, event.Component)

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return "", fmt.Errorf("failed to encode calendar: %w", err)
	}
	return buf.String(), nil
}

// Unmarshal parses a VCALENDAR holding exactly one VEVENT.
func Unmarshal(ics string, resolver civil.ZoneLookup, opts ...recurrence.SetOption) (*recurrence.Set, error) {
	cal, err := ical.NewDecoder(strings.NewReader(ics)).Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode calendar: %w", err)
	}

	events := cal.Events()
	if len(events) == 0 {
		return nil, fmt.Errorf("no events found in calendar")
	}
	if len(events) > 1 {
		return nil, fmt.Errorf("multiple events found in calendar")
	}
	return DecodeEvent(&events[0], resolver, opts...)
}
