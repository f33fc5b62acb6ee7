package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cyp0633/librecur/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const standup = `zone: America/New_York
start: "2024-01-01T09:00"
rules:
  - rrule: FREQ=WEEKLY;BYDAY=MO,WE;COUNT=6
exdates:
  - "2024-01-08T09:00"
`

func writeSchedule(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schedule.yaml")
	require.NoError(t, os.WriteFile(path, []byte(standup), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func lines(s string) []string {
	return strings.Split(strings.TrimSpace(s), "\n")
}

func TestCommands(t *testing.T) {
	path := writeSchedule(t)
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "between",
			args: []string{"between", "2024-01-01", "2024-01-11"},
			want: []string{"2024-01-01T09:00:00-05:00", "2024-01-03T09:00:00-05:00", "2024-01-10T09:00:00-05:00"},
		},
		{
			name: "between with limit",
			args: []string{"between", "-n", "1", "2024-01-02", "2024-02-01"},
			want: []string{"2024-01-03T09:00:00-05:00"},
		},
		{
			name: "between in another zone",
			args: []string{"between", "--zone", "UTC", "2024-01-03T14:00", "2024-01-03T14:01"},
			want: []string{"2024-01-03T09:00:00-05:00"},
		},
		{
			name: "next",
			args: []string{"next", "--count", "2", "2024-01-03T09:00"},
			want: []string{"2024-01-10T09:00:00-05:00", "2024-01-15T09:00:00-05:00"},
		},
		{
			name: "next inclusive",
			args: []string{"next", "--inclusive", "2024-01-03T09:00"},
			want: []string{"2024-01-03T09:00:00-05:00"},
		},
		{
			name: "prev skips exdate",
			args: []string{"prev", "2024-01-10T09:00"},
			want: []string{"2024-01-03T09:00:00-05:00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, append([]string{"--schedule", path}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, lines(out))
		})
	}
}

func TestCommands_Exhausted(t *testing.T) {
	path := writeSchedule(t)
	out, err := run(t, "--schedule", path, "next", "2024-02-01")
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = run(t, "--schedule", path, "prev", "2024-01-01T09:00")
	assert.EqualError(t, err, "no earlier occurrence")
}

func TestLocalize(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr error
	}{
		{"unique", []string{"2004-07-01T12:00"}, "2004-07-01T12:00:00-04:00", nil},
		{"prefer daylight", []string{"--policy", "prefer-daylight", "2004-10-31T01:30"}, "2004-10-31T01:30:00-04:00", nil},
		{"prefer standard", []string{"--policy", "prefer-standard", "2004-10-31T01:30"}, "2004-10-31T01:30:00-05:00", nil},
		{"ambiguous", []string{"2004-10-31T01:30"}, "", civil.ErrAmbiguousTime},
		{"non-existent", []string{"2004-04-04T02:30"}, "", civil.ErrNonExistentTime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, append([]string{"localize", "--zone", "America/New_York"}, tt.args...)...)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, strings.TrimSpace(out))
		})
	}

	t.Run("needs zone", func(t *testing.T) {
		t.Setenv(envZone, "")
		_, err := run(t, "localize", "2004-07-01T12:00")
		assert.Error(t, err)
	})
	t.Run("bad policy", func(t *testing.T) {
		_, err := run(t, "localize", "--zone", "UTC", "--policy", "coin-flip", "2004-07-01T12:00")
		assert.Error(t, err)
	})
}

func TestExport(t *testing.T) {
	path := writeSchedule(t)

	out, err := run(t, "--schedule", path, "export", "--uid", "standup")
	require.NoError(t, err)
	assert.Contains(t, out, "UID:standup")
	assert.Contains(t, out, "DTSTART;TZID=America/New_York:20240101T090000")
	assert.Contains(t, out, "EXDATE;TZID=America/New_York:20240108T090000")

	out, err = run(t, "--schedule", path, "export", "--format", "xcal", "--summary", "Standup")
	require.NoError(t, err)
	assert.Contains(t, out, "<icalendar xmlns=\"urn:ietf:params:xml:ns:icalendar-2.0\">")
	assert.Contains(t, out, "<text>Standup</text>")

	_, err = run(t, "--schedule", path, "export", "--format", "pdf")
	assert.Error(t, err)
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv(envSchedule, writeSchedule(t))
	t.Setenv(envLogLevel, "debug")
	out, err := run(t, "between", "2024-01-01", "2024-01-02")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-01T09:00:00-05:00"}, lines(out))

	t.Setenv(envLogLevel, "chatty")
	_, err = run(t, "between", "2024-01-01", "2024-01-02")
	assert.Error(t, err)
}
