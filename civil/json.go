package civil

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type jsonTime struct {
	DateTime string  `json:"datetime"`
	Fold     int     `json:"fold"`
	TimeZone *string `json:"timezone"`
}

// MarshalJSON encodes t as {"datetime": ..., "fold": 0|1, "timezone": ...}.
// The datetime carries no offset; timezone is the zone name or null.
func (t Time) MarshalJSON() ([]byte, error) {
	v := jsonTime{DateTime: t.wall.Format(isoLayout)}
	if t.fold {
		v.Fold = 1
	}
	if t.zone != nil {
		name := t.zone.Name()
		v.TimeZone = &name
	}
	return json.Marshal(v)
}

// UnmarshalJSON decodes the form written by MarshalJSON, resolving the zone
// name with the default resolver.
func (t *Time) UnmarshalJSON(data []byte) error {
	out, err := Codec{}.Decode(data)
	if err != nil {
		return err
	}
	*t = out
	return nil
}

// Codec decodes JSON times with a chosen zone lookup, for zones registered
// on a private Resolver.
type Codec struct {
	// Resolver looks up zone names. Nil means the default resolver.
	Resolver ZoneLookup
}

// Encode is t.MarshalJSON.
func (c Codec) Encode(t Time) ([]byte, error) {
	return t.MarshalJSON()
}

// Decode parses one encoded time.
func (c Codec) Decode(data []byte) (Time, error) {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return Time{}, nil
	}
	var v jsonTime
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return Time{}, fmt.Errorf("decode civil time: %w", err)
	}
	if v.Fold != 0 && v.Fold != 1 {
		return Time{}, fmt.Errorf("decode civil time: fold must be 0 or 1, got %d", v.Fold)
	}

	var zone Zone
	if v.TimeZone != nil {
		lookup := c.Resolver
		if lookup == nil {
			lookup = defaultResolver
		}
		z, err := lookup.Lookup(*v.TimeZone)
		if err != nil {
			return Time{}, fmt.Errorf("decode civil time: %w", err)
		}
		zone = z
	}

	t, err := ParseISO(v.DateTime, zone)
	if err != nil {
		return Time{}, fmt.Errorf("decode civil time: %w", err)
	}
	return t.WithFold(v.Fold == 1), nil
}
