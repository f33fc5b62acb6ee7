package civil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_Normalizes(t *testing.T) {
	got := Date(2018, 10, 32, 25, 0, 0, 0, nil)
	assert.Equal(t, 2018, got.Year())
	assert.Equal(t, time.November, got.Month())
	assert.Equal(t, 2, got.Day())
	assert.Equal(t, 1, got.Hour())
	assert.True(t, got.IsNaive())
	assert.False(t, got.Offset().IsPresent())
}

func TestFromInstant(t *testing.T) {
	zone := USEastern()

	tests := []struct {
		name    string
		instant time.Time
		want    Time
		fold    bool
	}{
		{"daylight", time.Date(2018, 11, 4, 5, 30, 0, 0, time.UTC), Date(2018, 11, 4, 1, 30, 0, 0, zone), false},
		{"repeated", time.Date(2018, 11, 4, 6, 30, 0, 0, time.UTC), Date(2018, 11, 4, 1, 30, 0, 0, zone), true},
		{"after", time.Date(2018, 11, 4, 7, 30, 0, 0, time.UTC), Date(2018, 11, 4, 2, 30, 0, 0, zone), false},
		{"spring forward", time.Date(2018, 3, 11, 7, 0, 0, 0, time.UTC), Date(2018, 3, 11, 3, 0, 0, 0, zone), false},
		{"non-UTC input", time.Date(2018, 3, 11, 2, 0, 0, 0, time.FixedZone("X", -5*3600)), Date(2018, 3, 11, 3, 0, 0, 0, zone), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromInstant(tt.instant, zone)
			assert.True(t, tt.want.WithFold(tt.fold).Equal(got), "got %s fold=%v", got, got.Fold())
			assert.True(t, tt.instant.Equal(got.Instant()))
		})
	}
}

func TestTime_In(t *testing.T) {
	ny := newYork(t)
	tokyo, err := LoadZone("Asia/Tokyo")
	require.NoError(t, err)

	src := Date(2004, 10, 31, 1, 30, 0, 0, ny).WithFold(true)
	got, err := src.In(tokyo)
	require.NoError(t, err)
	assert.True(t, Date(2004, 10, 31, 15, 30, 0, 0, tokyo).Equal(got), "got %s", got)

	back, err := got.In(ny)
	require.NoError(t, err)
	assert.True(t, src.Equal(back))

	_, err = Date(2004, 1, 1, 0, 0, 0, 0, nil).In(tokyo)
	assert.ErrorIs(t, err, ErrNaiveTime)
}

func TestTime_CompareAndEqual(t *testing.T) {
	zone := USEastern()
	first := Date(2018, 11, 4, 1, 30, 0, 0, zone)
	second := first.WithFold(true)
	utc, err := second.In(UTC)
	require.NoError(t, err)

	assert.True(t, first.Before(second))
	assert.True(t, second.After(first))
	assert.False(t, first.Equal(second))

	// Same instant, different readings.
	assert.Equal(t, 0, second.Instant().Compare(utc.Instant()))
	assert.False(t, second.Equal(utc))
	assert.NotEqual(t, second.Key(), utc.Key())

	// Zones with the same name are the same zone.
	again := Date(2018, 11, 4, 1, 30, 0, 0, USEastern()).WithFold(true)
	assert.True(t, second.Equal(again))
	assert.Equal(t, second.Key(), again.Key())

	naive := first.Naive()
	assert.False(t, naive.Equal(first))
	assert.NotEqual(t, naive.Key(), first.Key())
	assert.Equal(t, -1, Date(2018, 1, 1, 0, 0, 0, 0, nil).Compare(naive))
}

func TestTime_CompareWithinZone(t *testing.T) {
	zone := USEastern()
	gap := Date(2018, 3, 11, 2, 30, 0, 0, zone)
	after := Date(2018, 3, 11, 3, 0, 0, 0, zone)
	require.Equal(t, 1, gap.Instant().Compare(after.Instant()))

	tests := []struct {
		name string
		a, b Time
		want int
	}{
		{"gap reading before later reading", gap, after, -1},
		{"later reading after gap reading", after, gap, 1},
		{"second 01:30 before first 01:45", Date(2018, 11, 4, 1, 30, 0, 0, zone).WithFold(true), Date(2018, 11, 4, 1, 45, 0, 0, zone), -1},
		{"zones of the same name", gap, Date(2018, 3, 11, 2, 30, 0, 0, USEastern()), 0},
		{"other zone by instant", after, Date(2018, 3, 11, 6, 59, 0, 0, UTC), 1},
		{"other zone by instant in gap", gap, Date(2018, 3, 11, 7, 15, 0, 0, UTC), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Compare(tt.b))
		})
	}
}

func TestTime_String(t *testing.T) {
	zone := USEastern()
	assert.Equal(t, "2018-11-04T01:30:00-04:00", Date(2018, 11, 4, 1, 30, 0, 0, zone).String())
	assert.Equal(t, "2018-11-04T01:30:00-05:00", Date(2018, 11, 4, 1, 30, 0, 0, zone).WithFold(true).String())
	assert.Equal(t, "2018-11-04T01:30:00.5", Date(2018, 11, 4, 1, 30, 0, 500000000, nil).String())
	assert.Equal(t, "01:30 EST", Date(2018, 11, 4, 1, 30, 0, 0, zone).WithFold(true).Format("15:04 MST"))
}

func TestParseISO(t *testing.T) {
	tests := []struct {
		input   string
		want    Time
		wantErr bool
	}{
		{"2004-10-31T01:30:00", Date(2004, 10, 31, 1, 30, 0, 0, nil), false},
		{"2004-10-31T01:30", Date(2004, 10, 31, 1, 30, 0, 0, nil), false},
		{"2004-10-31", Date(2004, 10, 31, 0, 0, 0, 0, nil), false},
		{"2004-10-31T01:30:00.25", Date(2004, 10, 31, 1, 30, 0, 250000000, nil), false},
		{"2004-10-31T01:30:00Z", Time{}, true},
		{"yesterday", Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseISO(tt.input, nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestTime_WithHelpers(t *testing.T) {
	zone := USEastern()
	base := Date(2018, 11, 4, 1, 30, 0, 0, zone).WithFold(true)

	assert.False(t, base.WithDate(2019, 1, 1).Fold())
	assert.Equal(t, 1, base.WithDate(2019, 1, 1).Hour())
	assert.Equal(t, 4, base.WithClock(9, 0, 0, 0).Day())
	assert.False(t, base.WithZone(UTC).Fold())
	z, ok := base.WithZone(nil).Zone()
	assert.False(t, ok)
	assert.Nil(t, z)
}
