package icalendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/cyp0633/librecur/civil"
	"github.com/emersion/go-ical"
)

const (
	dateTimeLayout    = "20060102T150405"
	utcDateTimeLayout = "20060102T150405Z"
	dateLayout        = "20060102"
)

// timeProp renders t as a DATE-TIME property. Naive readings are floating.
// UTC readings and second readings of a repeated hour, which a TZID cannot
// tell apart from the first, are written in UTC. Other zoned readings carry
// the zone name as TZID.
func timeProp(name string, t civil.Time) *ical.Prop {
	prop := ical.NewProp(name)
	kind, tzid := valueKind(t)
	switch kind {
	case formFloating:
		prop.Value = t.Naive().Format(dateTimeLayout)
	case formUTC:
		prop.Value = t.Instant().Format(utcDateTimeLayout)
	default:
		prop.Params.Set(ical.ParamTimezoneID, tzid)
		prop.Value = t.Format(dateTimeLayout)
	}
	return prop
}

type valueForm int

const (
	formFloating valueForm = iota
	formUTC
	formZoned
)

func valueKind(t civil.Time) (valueForm, string) {
	zone, ok := t.Zone()
	switch {
	case !ok:
		return formFloating, ""
	case zone.Name() == civil.UTC.Name() || t.Fold():
		return formUTC, ""
	default:
		return formZoned, zone.Name()
	}
}

// parseDateTime reads a DATE or DATE-TIME value. DATE values become naive
// midnights.
func parseDateTime(value string, params ical.Params, resolver civil.ZoneLookup) (civil.Time, error) {
	if strings.EqualFold(params.Get(ical.ParamValue), "DATE") || len(value) == len(dateLayout) {
		d, err := time.Parse(dateLayout, value)
		if err != nil {
			return civil.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
		}
		return civil.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, nil), nil
	}

	if strings.HasSuffix(value, "Z") {
		u, err := time.Parse(utcDateTimeLayout, value)
		if err != nil {
			return civil.Time{}, fmt.Errorf("invalid date-time %q: %w", value, err)
		}
		return civil.FromInstant(u, civil.UTC), nil
	}

	w, err := time.Parse(dateTimeLayout, value)
	if err != nil {
		return civil.Time{}, fmt.Errorf("invalid date-time %q: %w", value, err)
	}
	var zone civil.Zone
	if tzid := params.Get(ical.ParamTimezoneID); tzid != "" {
		if zone, err = resolver.Lookup(tzid); err != nil {
			return civil.Time{}, err
		}
	}
	return civil.Date(w.Year(), w.Month(), w.Day(), w.Hour(), w.Minute(), w.Second(), 0, zone), nil
}
