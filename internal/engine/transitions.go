package engine

import (
	"time"

	"github.com/tartampluch/go-dstclock/internal/config"
	"github.com/tartampluch/go-dstclock/internal/zone"
)

// Transition is one offset change of a zone.
type Transition struct {
	Instant          time.Time `json:"instant"`
	DeltaMinutes     int       `json:"delta_minutes"`
	FromOffset       int       `json:"from_offset_minutes"`
	ToOffset         int       `json:"to_offset_minutes"`
	FromAbbreviation string    `json:"from_abbreviation"`
	ToAbbreviation   string    `json:"to_abbreviation"`
}

// Transitions lists the offset changes of z in [from, until), walking the
// range in ClassifierWindow steps and locating each change found. Two
// changes inside one step that cancel out are not seen.
func Transitions(z zone.Zone, from, until time.Time) []Transition {
	var out []Transition

	cursor := from
	offset := z.OffsetMinutes(cursor)
	for cursor.Before(until) {
		next := cursor.Add(config.ClassifierWindow)
		if next.After(until) {
			next = until
		}

		nextOffset := z.OffsetMinutes(next)
		if nextOffset != offset {
			at := LocateTransition(z, cursor, next, offset)
			if at.Before(until) {
				out = append(out, Transition{
					Instant:          at,
					DeltaMinutes:     nextOffset - offset,
					FromOffset:       offset,
					ToOffset:         nextOffset,
					FromAbbreviation: z.Abbreviation(at.Add(-config.LocatorFineStep)),
					ToAbbreviation:   z.Abbreviation(at),
				})
			}
		}

		cursor, offset = next, nextOffset
	}
	return out
}

// WallRange returns the local wall time of the transition read in the old
// and the new offset, e.g. "02:00" and "03:00" for a spring forward.
func (t Transition) WallRange() (string, string) {
	return FormatWallHM(t.Instant, t.FromOffset), FormatWallHM(t.Instant, t.ToOffset)
}
