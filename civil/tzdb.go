package civil

import "time"

// dbZone adapts a *time.Location from the IANA database.
type dbZone struct {
	loc *time.Location
}

// Database returns a zone backed by loc. Historical rule changes recorded in
// the database are honored, so readings before 2007 in America/New_York use
// the April to October rules.
func Database(loc *time.Location) Zone {
	if loc == time.UTC {
		return UTC
	}
	return dbZone{loc: loc}
}

// Location returns the *time.Location behind a database zone.
func Location(z Zone) (*time.Location, bool) {
	if db, ok := z.(dbZone); ok {
		return db.loc, true
	}
	return nil, false
}

func (z dbZone) Name() string   { return z.loc.String() }
func (z dbZone) String() string { return z.loc.String() }

func (z dbZone) OffsetAtInstant(u time.Time) Offset {
	local := u.In(z.loc)
	name, secs := local.Zone()
	return Offset{UTC: time.Duration(secs) * time.Second, DST: local.IsDST(), Name: name}
}

// OffsetAt probes the offsets a day either side of the reading. No zone in
// the database changes its rules twice within two days, so if both probes
// agree that offset applies. Otherwise each probe is checked against the
// instant it would produce.
func (z dbZone) OffsetAt(t Time) Offset {
	before := z.OffsetAtInstant(t.wall.Add(-24 * time.Hour))
	after := z.OffsetAtInstant(t.wall.Add(24 * time.Hour))
	if before == after {
		return before
	}
	okBefore := validOffset(z, t.wall, before)
	okAfter := validOffset(z, t.wall, after)
	switch {
	case okBefore && !okAfter:
		return before
	case okAfter && !okBefore:
		return after
	case t.fold:
		return after
	default:
		return before
	}
}

// validOffset reports whether reading wall with off names an instant at which
// off is actually in effect.
func validOffset(z Zone, wall time.Time, off Offset) bool {
	return z.OffsetAtInstant(wall.Add(-off.UTC)).UTC == off.UTC
}
