package icalendar

import (
	"testing"

	"github.com/cyp0633/librecur/civil"
	"github.com/cyp0633/librecur/recurrence"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeXCal(t *testing.T) {
	ny := newYork(t)
	opts := recurrence.NewOptions(recurrence.Weekly, civil.Date(2024, 1, 1, 9, 0, 0, 0, ny))
	opts.ByWeekday = []recurrence.Weekday{recurrence.MO, recurrence.TH}
	opts.Until = mo.Some(civil.Date(2024, 1, 31, 9, 0, 0, 0, ny))
	set := recurrence.NewSet()
	defer set.Close()
	set.Include(mustRule(t, opts))
	set.AddExDate(civil.Date(2024, 1, 4, 9, 0, 0, 0, ny))

	doc, err := EncodeXCal(set, EventOptions{UID: "standup", Summary: "Standup", Stamp: stamp})
	require.NoError(t, err)

	root := doc.Root()
	require.NotNil(t, root)
	assert.Equal(t, "icalendar", root.Tag)
	assert.Equal(t, XCal, root.SelectAttrValue("xmlns", ""))

	text := func(path string) string {
		t.Helper()
		elem := doc.FindElement(path)
		require.NotNil(t, elem, path)
		return elem.Text()
	}
	assert.Equal(t, "2.0", text("//vcalendar/properties/version/text"))
	assert.Equal(t, productID, text("//vcalendar/properties/prodid/text"))

	props := "//vevent/properties/"
	assert.Equal(t, "standup", text(props+"uid/text"))
	assert.Equal(t, "Standup", text(props+"summary/text"))
	assert.Equal(t, "2024-01-01T12:00:00Z", text(props+"dtstamp/date-time"))
	assert.Equal(t, "America/New_York", text(props+"dtstart/parameters/tzid/text"))
	assert.Equal(t, "2024-01-01T09:00:00", text(props+"dtstart/date-time"))
	assert.Equal(t, "2024-01-04T09:00:00", text(props+"exdate/date-time"))

	recur := doc.FindElement(props + "rrule/recur")
	require.NotNil(t, recur)
	assert.Equal(t, "WEEKLY", recur.SelectElement("freq").Text())
	assert.Equal(t, "2024-01-31T14:00:00Z", recur.SelectElement("until").Text())
	var days []string
	for _, e := range recur.SelectElements("byday") {
		days = append(days, e.Text())
	}
	assert.Equal(t, []string{"MO", "TH"}, days)

	out, err := doc.WriteToString()
	require.NoError(t, err)
	assert.Contains(t, out, `<?xml version="1.0" encoding="utf-8"?>`)
}

func TestEncodeXCal_FloatingAndUTC(t *testing.T) {
	floating := recurrence.NewOptions(recurrence.Daily, civil.Date(2024, 1, 1, 7, 0, 0, 0, nil))
	floating.Until = mo.Some(civil.Date(2024, 1, 4, 7, 0, 0, 0, nil))
	set := recurrence.NewSet()
	defer set.Close()
	set.Include(mustRule(t, floating))
	set.AddDate(civil.Date(2024, 2, 1, 12, 0, 0, 0, civil.UTC))

	doc, err := EncodeXCal(set, EventOptions{Stamp: stamp})
	require.NoError(t, err)

	dtstart := doc.FindElement("//vevent/properties/dtstart")
	require.NotNil(t, dtstart)
	assert.Nil(t, dtstart.SelectElement("parameters"))
	assert.Equal(t, "2024-01-01T07:00:00", dtstart.SelectElement("date-time").Text())
	assert.Equal(t, "2024-01-04T07:00:00", doc.FindElement("//rrule/recur/until").Text())
	assert.Equal(t, "2024-02-01T12:00:00Z", doc.FindElement("//rdate/date-time").Text())
}

func TestEncodeXCal_Empty(t *testing.T) {
	_, err := EncodeXCal(recurrence.NewSet(), EventOptions{})
	assert.ErrorIs(t, err, ErrMissingStart)
}
