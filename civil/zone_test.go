package civil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedZone(t *testing.T) {
	z := Fixed(5*time.Hour+30*time.Minute, "")
	assert.Equal(t, "UTC+05:30", z.Name())
	assert.Equal(t, 5*time.Hour+30*time.Minute, z.OffsetAt(Date(2020, 1, 1, 0, 0, 0, 0, nil)).UTC)
	assert.False(t, z.OffsetAtInstant(time.Now()).DST)

	assert.Equal(t, "UTC", Fixed(0, "").Name())
	assert.Equal(t, "UTC-04:00", Fixed(-4*time.Hour, "").Name())
	assert.Equal(t, "IST", Fixed(5*time.Hour+30*time.Minute, "IST").Name())
}

func TestParseFixedName(t *testing.T) {
	tests := []struct {
		name   string
		offset time.Duration
		ok     bool
	}{
		{"UTC", 0, true},
		{"Z", 0, true},
		{"GMT", 0, true},
		{"UTC+05:30", 5*time.Hour + 30*time.Minute, true},
		{"UTC-4", -4 * time.Hour, true},
		{"UTC-04:00", -4 * time.Hour, true},
		{"UTC+25", 0, false},
		{"UTC+05:60", 0, false},
		{"UTC05", 0, false},
		{"America/New_York", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			z, ok := parseFixedName(tt.name)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.offset, z.OffsetAtInstant(time.Time{}).UTC)
			}
		})
	}
}

func TestRuleZone_Transitions(t *testing.T) {
	z := USEastern()

	tests := []struct {
		year       int
		start, end Time
	}{
		{2018, Date(2018, 3, 11, 2, 0, 0, 0, nil), Date(2018, 11, 4, 2, 0, 0, 0, nil)},
		{2004, Date(2004, 3, 14, 2, 0, 0, 0, nil), Date(2004, 11, 7, 2, 0, 0, 0, nil)},
		{2024, Date(2024, 3, 10, 2, 0, 0, 0, nil), Date(2024, 11, 3, 2, 0, 0, 0, nil)},
	}

	for _, tt := range tests {
		start, end := z.Transitions(tt.year)
		assert.True(t, tt.start.Equal(start), "start %d: got %s", tt.year, start)
		assert.True(t, tt.end.Equal(end), "end %d: got %s", tt.year, end)
	}
}

func TestRuleZone_OffsetAtInstant(t *testing.T) {
	z := USEastern()

	tests := []struct {
		name    string
		instant time.Time
		offset  time.Duration
		dst     bool
		abbr    string
	}{
		{"winter", time.Date(2018, 1, 15, 12, 0, 0, 0, time.UTC), -5 * time.Hour, false, "EST"},
		{"summer", time.Date(2018, 7, 1, 12, 0, 0, 0, time.UTC), -4 * time.Hour, true, "EDT"},
		{"just before spring forward", time.Date(2018, 3, 11, 6, 59, 59, 0, time.UTC), -5 * time.Hour, false, "EST"},
		{"at spring forward", time.Date(2018, 3, 11, 7, 0, 0, 0, time.UTC), -4 * time.Hour, true, "EDT"},
		{"just before fall back", time.Date(2018, 11, 4, 5, 59, 59, 0, time.UTC), -4 * time.Hour, true, "EDT"},
		{"at fall back", time.Date(2018, 11, 4, 6, 0, 0, 0, time.UTC), -5 * time.Hour, false, "EST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			off := z.OffsetAtInstant(tt.instant)
			assert.Equal(t, tt.offset, off.UTC)
			assert.Equal(t, tt.dst, off.DST)
			assert.Equal(t, tt.abbr, off.Name)
		})
	}
}

func TestRuleZone_OffsetAtFold(t *testing.T) {
	z := USEastern()

	tests := []struct {
		name   string
		civil  Time
		fold   bool
		offset time.Duration
	}{
		{"repeated hour first", Date(2018, 11, 4, 1, 30, 0, 0, nil), false, -4 * time.Hour},
		{"repeated hour second", Date(2018, 11, 4, 1, 30, 0, 0, nil), true, -5 * time.Hour},
		{"skipped hour without fold", Date(2018, 3, 11, 2, 30, 0, 0, nil), false, -5 * time.Hour},
		{"skipped hour with fold", Date(2018, 3, 11, 2, 30, 0, 0, nil), true, -4 * time.Hour},
		{"summer ignores fold", Date(2018, 7, 1, 12, 0, 0, 0, nil), true, -4 * time.Hour},
		{"winter ignores fold", Date(2018, 1, 1, 12, 0, 0, 0, nil), true, -5 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.offset, z.OffsetAt(tt.civil.WithFold(tt.fold)).UTC)
		})
	}
}

func TestRuleZone_SouthernHemisphere(t *testing.T) {
	z, err := ParsePOSIX("AEST-10AEDT,M10.1.0,M4.1.0/3")
	require.NoError(t, err)

	assert.Equal(t, 11*time.Hour, z.OffsetAtInstant(time.Date(2018, 1, 15, 0, 0, 0, 0, time.UTC)).UTC)
	assert.Equal(t, 10*time.Hour, z.OffsetAtInstant(time.Date(2018, 7, 15, 0, 0, 0, 0, time.UTC)).UTC)
	assert.Equal(t, 11*time.Hour, z.OffsetAt(Date(2018, 12, 25, 12, 0, 0, 0, nil)).UTC)
	assert.Equal(t, 10*time.Hour, z.OffsetAt(Date(2018, 6, 1, 12, 0, 0, 0, nil)).UTC)

	// DST ends on 2018-04-01 at 03:00 local daylight time.
	ambiguous := Date(2018, 4, 1, 2, 30, 0, 0, z)
	res, offs := Resolve(ambiguous)
	assert.Equal(t, Ambiguous, res)
	assert.Equal(t, 11*time.Hour, offs[0].UTC)
	assert.Equal(t, 10*time.Hour, offs[1].UTC)
}

func TestNewRuleZone_Invalid(t *testing.T) {
	valid := TransitionRule{Month: time.March, Day: 1, Weekday: time.Sunday, Nth: 2, At: 2 * time.Hour}

	tests := []struct {
		name string
		cfg  RuleZoneConfig
	}{
		{"bad month", RuleZoneConfig{StdName: "A", DSTName: "B", DSTOffset: time.Hour, Start: TransitionRule{Month: 13}, End: valid}},
		{"bad ordinal", RuleZoneConfig{StdName: "A", DSTName: "B", DSTOffset: time.Hour, Start: valid, End: TransitionRule{Month: 1, Nth: 6}}},
		{"missing names", RuleZoneConfig{DSTOffset: time.Hour, Start: valid, End: valid}},
		{"same offsets", RuleZoneConfig{StdName: "A", DSTName: "B", Start: valid, End: valid}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRuleZone(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestRuleZone_Name(t *testing.T) {
	assert.Equal(t, "EST5EDT,M3.2.0,M11.1.0", USEastern().Name())

	cet, err := NewRuleZone(RuleZoneConfig{
		StdName:   "CET",
		DSTName:   "CEST",
		StdOffset: time.Hour,
		DSTOffset: 2 * time.Hour,
		Start:     TransitionRule{Month: time.March, Day: 31, Weekday: time.Sunday, Nth: -1, At: 2 * time.Hour},
		End:       TransitionRule{Month: time.October, Day: 31, Weekday: time.Sunday, Nth: -1, At: 3 * time.Hour},
	})
	require.NoError(t, err)
	assert.Equal(t, "CET-1CEST,M3.5.0,M10.5.0/3", cet.Name())

	named, err := NewRuleZone(RuleZoneConfig{
		Name:      "Office",
		StdName:   "EST",
		DSTName:   "EDT",
		StdOffset: -5 * time.Hour,
		DSTOffset: -4 * time.Hour,
		Start:     cet.Config().Start,
		End:       cet.Config().End,
	})
	require.NoError(t, err)
	assert.Equal(t, "Office", named.Name())
}

func TestDatabaseZone(t *testing.T) {
	z := newYork(t)
	assert.Equal(t, "America/New_York", z.Name())

	loc, ok := Location(z)
	require.True(t, ok)
	assert.Equal(t, "America/New_York", loc.String())

	_, ok = Location(USEastern())
	assert.False(t, ok)

	assert.Equal(t, UTC, Database(time.UTC))

	tests := []struct {
		name   string
		civil  Time
		fold   bool
		offset time.Duration
	}{
		{"winter", Date(2004, 1, 15, 12, 0, 0, 0, nil), false, -5 * time.Hour},
		{"summer", Date(2004, 7, 15, 12, 0, 0, 0, nil), true, -4 * time.Hour},
		{"repeated hour first", Date(2004, 10, 31, 1, 30, 0, 0, nil), false, -4 * time.Hour},
		{"repeated hour second", Date(2004, 10, 31, 1, 30, 0, 0, nil), true, -5 * time.Hour},
		{"skipped hour without fold", Date(2004, 4, 4, 2, 30, 0, 0, nil), false, -5 * time.Hour},
		{"skipped hour with fold", Date(2004, 4, 4, 2, 30, 0, 0, nil), true, -4 * time.Hour},
		{"after transition", Date(2004, 10, 31, 2, 0, 0, 0, nil), false, -5 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.offset, z.OffsetAt(tt.civil.WithFold(tt.fold)).UTC)
		})
	}
}
