package civil

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_Lookup(t *testing.T) {
	r := NewResolver()

	tests := []struct {
		name     string
		wantName string
		wantType any
	}{
		{"UTC", "UTC", fixedZone{}},
		{"UTC+05:30", "UTC+05:30", fixedZone{}},
		{"America/New_York", "America/New_York", dbZone{}},
		{"EST5EDT,M3.2.0,M11.1.0", "EST5EDT,M3.2.0,M11.1.0", &RuleZone{}},
		{"<+0330>-3:30", "<+0330>-3:30", fixedZone{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			z, err := r.Lookup(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, z.Name())
			assert.IsType(t, tt.wantType, z)

			again, err := r.Lookup(tt.name)
			require.NoError(t, err)
			assert.True(t, z == again, "lookups should share one zone value")
		})
	}
}

func TestResolver_Unknown(t *testing.T) {
	var buf bytes.Buffer
	r := NewResolver(WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	for _, name := range []string{"", "Mars/Olympus_Mons", "Local", "UTC+5:xx"} {
		_, err := r.Lookup(name)
		assert.ErrorIs(t, err, ErrUnknownZone, name)
	}
	assert.Contains(t, buf.String(), "zone lookup failed")
}

func TestResolver_Register(t *testing.T) {
	r := NewResolver()
	office := Fixed(-3*time.Hour, "Office")
	r.Register("Office", office)

	z, err := r.Lookup("Office")
	require.NoError(t, err)
	assert.Equal(t, office, z)

	// Registration shadows the database.
	r.Register("America/New_York", office)
	z, err = r.Lookup("America/New_York")
	require.NoError(t, err)
	assert.Equal(t, office, z)
}

func TestLoadZone(t *testing.T) {
	z, err := LoadZone("Europe/Paris")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, z.OffsetAt(Date(2020, 1, 1, 12, 0, 0, 0, nil)).UTC)
	assert.Equal(t, 2*time.Hour, z.OffsetAt(Date(2020, 7, 1, 12, 0, 0, 0, nil)).UTC)
}
