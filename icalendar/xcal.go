package icalendar

import (
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/cyp0633/librecur/civil"
	"github.com/cyp0633/librecur/recurrence"
	"github.com/emersion/go-ical"
)

// XCal is the RFC 6321 namespace.
const XCal = "urn:ietf:params:xml:ns:icalendar-2.0"

const (
	xcalDateTimeLayout    = "2006-01-02T15:04:05"
	xcalUTCDateTimeLayout = "2006-01-02T15:04:05Z"
)

// EncodeXCal renders set as an xCal document holding one VEVENT with the
// same properties EncodeEvent produces.
func EncodeXCal(set *recurrence.Set, opts EventOptions) (*etree.Document, error) {
	event, err := EncodeEvent(set, opts)
	if err != nil {
		return nil, err
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)
	root := doc.CreateElement("icalendar")
	root.CreateAttr("xmlns", XCal)

	vcal := root.CreateElement("vcalendar")
	calProps := vcal.CreateElement("properties")
	textProp(calProps, "prodid", productID)
	textProp(calProps, "version", "2.0")

	vevent := vcal.CreateElement("components").CreateElement("vevent")
	props := vevent.CreateElement("properties")

	stamp, err := event.Props.DateTime(ical.PropDateTimeStamp, time.UTC)
	if err != nil {
		return nil, err
	}
	props.CreateElement("dtstamp").CreateElement("date-time").SetText(stamp.UTC().Format(xcalUTCDateTimeLayout))
	uid, err := event.Props.Text(ical.PropUID)
	if err != nil {
		return nil, err
	}
	textProp(props, "uid", uid)
	if opts.Summary != "" {
		textProp(props, "summary", opts.Summary)
	}

	start, _ := setStart(set)
	timeElem(props, "dtstart", start)
	for _, r := range set.Rules() {
		recurElem(props.CreateElement("rrule"), r.String())
	}
	for _, r := range set.ExRules() {
		recurElem(props.CreateElement("exrule"), r.String())
	}
	for _, t := range set.Dates() {
		timeElem(props, "rdate", t)
	}
	for _, t := range set.ExDates() {
		timeElem(props, "exdate", t)
	}
	return doc, nil
}

func textProp(parent *etree.Element, name, value string) {
	parent.CreateElement(name).CreateElement("text").SetText(value)
}

func timeElem(parent *etree.Element, name string, t civil.Time) {
	elem := parent.CreateElement(name)
	kind, tzid := valueKind(t)
	switch kind {
	case formFloating:
		elem.CreateElement("date-time").SetText(t.Naive().Format(xcalDateTimeLayout))
	case formUTC:
		elem.CreateElement("date-time").SetText(t.Instant().Format(xcalUTCDateTimeLayout))
	default:
		textProp(elem.CreateElement("parameters"), "tzid", tzid)
		elem.CreateElement("date-time").SetText(t.Format(xcalDateTimeLayout))
	}
}

// recurElem spreads RRULE text over <recur> children, one element per list
// value.
func recurElem(parent *etree.Element, rule string) {
	recur := parent.CreateElement("recur")
	for _, part := range strings.Split(rule, ";") {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		key = strings.ToLower(key)
		if key == "until" {
			recur.CreateElement(key).SetText(xcalUntil(value))
			continue
		}
		for _, v := range strings.Split(value, ",") {
			recur.CreateElement(key).SetText(v)
		}
	}
}

func xcalUntil(value string) string {
	if t, err := time.Parse(utcDateTimeLayout, value); err == nil {
		return t.Format(xcalUTCDateTimeLayout)
	}
	if t, err := time.Parse(dateTimeLayout, value); err == nil {
		return t.Format(xcalDateTimeLayout)
	}
	return value
}
