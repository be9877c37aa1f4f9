package engine

import (
	"slices"
	"time"

	"github.com/tartampluch/go-dstclock/internal/config"
	"github.com/tartampluch/go-dstclock/internal/zone"
)

// LocalKind classifies how a local wall-clock time maps onto instants.
type LocalKind int

const (
	// LocalSingle means exactly one instant shows this wall time.
	LocalSingle LocalKind = iota
	// LocalAmbiguous means the wall time occurs twice (fall-back overlap).
	LocalAmbiguous
	// LocalNonexistent means the wall time is skipped (spring-forward gap).
	LocalNonexistent
)

// LocalTime is the resolution of a wall-clock time in a zone.
// For LocalNonexistent, Earliest and Latest hold the instant obtained with
// the offset in force before the gap, which lands just past it.
type LocalTime struct {
	Kind     LocalKind
	Earliest time.Time
	Latest   time.Time
}

// Single reports whether the wall time maps to exactly one instant.
func (l LocalTime) Single() bool {
	return l.Kind == LocalSingle
}

// ResolveLocal maps a wall-clock time to instants using only the zone's
// offset lookup. Candidate offsets are taken a day before and after the
// wall time; each candidate that reproduces itself is a valid reading.
func ResolveLocal(z zone.Zone, year int, month time.Month, day, hour, minute, second int) LocalTime {
	naive := time.Date(year, month, day, hour, minute, second, 0, time.UTC)

	before := z.OffsetMinutes(naive.Add(-config.ResolveProbeSpan))
	candidates := []int{before, z.OffsetMinutes(naive), z.OffsetMinutes(naive.Add(config.ResolveProbeSpan))}

	var valid []time.Time
	for _, off := range candidates {
		t := naive.Add(-time.Duration(off) * time.Minute)
		if z.OffsetMinutes(t) != off {
			continue
		}
		if !slices.ContainsFunc(valid, t.Equal) {
			valid = append(valid, t)
		}
	}

	switch len(valid) {
	case 0:
		t := naive.Add(-time.Duration(before) * time.Minute)
		return LocalTime{Kind: LocalNonexistent, Earliest: t, Latest: t}
	case 1:
		return LocalTime{Kind: LocalSingle, Earliest: valid[0], Latest: valid[0]}
	default:
		slices.SortFunc(valid, time.Time.Compare)
		return LocalTime{Kind: LocalAmbiguous, Earliest: valid[0], Latest: valid[len(valid)-1]}
	}
}

// LocalDate returns the local calendar date of instant in z.
func LocalDate(z zone.Zone, instant time.Time) (int, time.Month, int) {
	return Wall(z, instant).Date()
}

// Wall shifts instant by the zone offset; the UTC fields of the result are
// the local wall-clock fields.
func Wall(z zone.Zone, instant time.Time) time.Time {
	return instant.UTC().Add(time.Duration(z.OffsetMinutes(instant)) * time.Minute)
}
