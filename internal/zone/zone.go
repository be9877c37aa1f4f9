// Package zone supplies the offset and abbreviation lookup the time engine
// consumes. The engine never touches *time.Location directly, so tests can
// drive it with synthetic zones.
package zone

import (
	"fmt"
	"log/slog"
	"time"
	_ "time/tzdata" // Embedded IANA database, used when the host has none.

	"github.com/tartampluch/go-dstclock/internal/config"
)

// Validity reports how trustworthy the zone data behind a lookup is.
type Validity int

const (
	Ok Validity = iota
	TzMissing
	TzDataStale
	Unknown
)

func (v Validity) String() string {
	switch v {
	case Ok:
		return "ok"
	case TzMissing:
		return "tz_missing"
	case TzDataStale:
		return "tz_data_stale"
	default:
		return "unknown"
	}
}

// MarshalText encodes the validity by name.
func (v Validity) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Zone is the external time zone capability.
type Zone interface {
	// Name is the identifier the zone was resolved from.
	Name() string
	// OffsetMinutes is the signed number of minutes local time leads UTC at t.
	OffsetMinutes(t time.Time) int
	// Abbreviation is the zone abbreviation in effect at t (e.g. "EST").
	Abbreviation(t time.Time) string
	// Validity is passed through unchanged into every snapshot.
	Validity() Validity
}

// locationZone adapts a *time.Location to Zone.
type locationZone struct {
	name     string
	loc      *time.Location
	validity Validity
}

func (z locationZone) Name() string { return z.name }

func (z locationZone) OffsetMinutes(t time.Time) int {
	_, off := t.In(z.loc).Zone()
	return off / config.SecondsPerMinute
}

func (z locationZone) Abbreviation(t time.Time) string {
	abbr, _ := t.In(z.loc).Zone()
	return abbr
}

func (z locationZone) Validity() Validity { return z.validity }

// Load resolves an IANA identifier. An empty name or "Local" selects the
// process zone, whose validity is Unknown because it carries no IANA name.
func Load(name string) (Zone, error) {
	switch name {
	case "", time.Local.String():
		return locationZone{name: time.Local.String(), loc: time.Local, validity: Unknown}, nil
	case time.UTC.String():
		return locationZone{name: time.UTC.String(), loc: time.UTC, validity: Ok}, nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrZoneLoad, err)
	}
	return locationZone{name: name, loc: loc, validity: Ok}, nil
}

// Resolve is Load without the error: an unresolvable name degrades to UTC
// with Validity TzMissing.
func Resolve(name string) Zone {
	z, err := Load(name)
	if err != nil {
		slog.Warn(config.MsgZoneDegraded,
			config.LogKeyComponent, config.CompZone,
			config.LogKeyZone, name,
			config.LogKeyError, err,
		)
		return locationZone{name: name, loc: time.UTC, validity: TzMissing}
	}

	slog.Debug(config.MsgZoneResolved,
		config.LogKeyComponent, config.CompZone,
		config.LogKeyZone, z.Name(),
		config.LogKeyValidity, z.Validity().String(),
	)
	return z
}

// Fixed returns a zone with a constant offset and no DST.
func Fixed(name string, offsetMinutes int) Zone {
	return locationZone{
		name:     name,
		loc:      time.FixedZone(name, offsetMinutes*config.SecondsPerMinute),
		validity: Ok,
	}
}

// WithValidity overrides the validity signal of z.
func WithValidity(z Zone, v Validity) Zone {
	return validityOverride{Zone: z, validity: v}
}

type validityOverride struct {
	Zone
	validity Validity
}

func (o validityOverride) Validity() Validity { return o.validity }
