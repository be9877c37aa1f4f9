// Package civilday maps one local calendar day onto the [0,1] interval and
// marks the wall-clock spans that a DST transition skips or repeats.
//
// Positions live on the nominal wall-clock face: p = hh:mm:ss / 24h, on every
// day. A 23 or 25 hour day changes how long the face takes to sweep, not its
// scale, so a wall time always has exactly one position and fault spans line
// up with the hour grid.
package civilday

import (
	"fmt"
	"math"
	"time"

	"github.com/tartampluch/go-dstclock/internal/config"
	"github.com/tartampluch/go-dstclock/internal/engine"
	"github.com/tartampluch/go-dstclock/internal/zone"
)

// Fault is a DST transition inside the day. Position and Width are wall-clock
// positions, so a gap covers the skipped wall times and an overlap covers the
// repeated ones.
type Fault struct {
	Position     float64   `json:"position"`
	Width        float64   `json:"width"`
	DeltaMinutes int       `json:"delta_minutes"`
	Transition   time.Time `json:"transition"`
	// StartSSM and WidthSeconds are the same span in wall-clock seconds.
	StartSSM     int64 `json:"start_ssm"`
	WidthSeconds int64 `json:"width_seconds"`
	// PassLabels name the two occurrences of an overlap; empty for a gap.
	PassLabels []string `json:"pass_labels,omitempty"`
}

// Gap reports a spring-forward fault.
func (f Fault) Gap() bool { return f.DeltaMinutes > 0 }

// Overlap reports a fall-back fault.
func (f Fault) Overlap() bool { return f.DeltaMinutes < 0 }

func (f Fault) contains(ssm int64) bool {
	return ssm >= f.StartSSM && ssm < f.StartSSM+f.WidthSeconds
}

// Domain describes the local day containing an instant.
type Domain struct {
	Midnight             time.Time `json:"midnight"`
	NextMidnight         time.Time `json:"next_midnight"`
	SecondsSinceMidnight int64     `json:"seconds_since_midnight"`
	DayLengthSeconds     int64     `json:"day_length_seconds"`
	// NormalizedPosition is the elapsed share of the day. It drives progress
	// displays and is not comparable with fault positions.
	NormalizedPosition float64 `json:"normalized_position"`
	// Position is the wall-clock position of the instant, the value to hand
	// to IsInGap and IsInOverlap.
	Position float64 `json:"position"`
	Faults   []Fault `json:"faults"`
}

// Compute builds the domain of the local day containing instant.
func Compute(instant time.Time, z zone.Zone) Domain {
	y, m, d := engine.LocalDate(z, instant)
	ny, nm, nd := time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC).Date()

	midnight := localMidnight(z, y, m, d)
	next := localMidnight(z, ny, nm, nd)

	dayLength := int64(next.Sub(midnight) / time.Second)
	elapsed := int64(instant.Sub(midnight) / time.Second)

	dom := Domain{
		Midnight:             midnight,
		NextMidnight:         next,
		SecondsSinceMidnight: elapsed,
		DayLengthSeconds:     dayLength,
	}
	if dayLength > 0 {
		dom.NormalizedPosition = clamp01(instant.Sub(midnight).Seconds() / float64(dayLength))
	}

	wall := engine.Wall(z, instant)
	sinceWallMidnight := wall.Sub(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
	dom.Position = clamp01(sinceWallMidnight.Seconds() / config.SecondsPerWallDay)

	dom.Faults = detectFaults(z, midnight, next, dayLength)
	return dom
}

// localMidnight resolves 00:00 of the given date, falling back to 01:00 when
// midnight is skipped or repeated, and to the earliest reading after that.
func localMidnight(z zone.Zone, y int, m time.Month, d int) time.Time {
	r := engine.ResolveLocal(z, y, m, d, 0, 0, 0)
	if r.Single() {
		return r.Earliest
	}
	if alt := engine.ResolveLocal(z, y, m, d, config.MidnightFallbackHour, 0, 0); alt.Single() {
		return alt.Earliest
	}
	return r.Earliest
}

// detectFaults samples the offset every DaySampleStep and locates each change
// between consecutive samples. A change that does not straddle a sample
// boundary is invisible; real DST rules always do.
func detectFaults(z zone.Zone, midnight, next time.Time, dayLength int64) []Fault {
	if dayLength <= 0 {
		return nil
	}

	midnightOffset := z.OffsetMinutes(midnight)
	prev, prevOffset := midnight, midnightOffset

	var faults []Fault
	for prev.Before(next) {
		cur := prev.Add(config.DaySampleStep)
		if cur.After(next) {
			cur = next
		}

		curOffset := z.OffsetMinutes(cur)
		if curOffset != prevOffset {
			at := engine.LocateTransition(z, prev, cur, prevOffset)
			if at.Before(next) {
				faults = append(faults, newFault(at, midnight, midnightOffset, prevOffset, curOffset))
			}
		}
		prev, prevOffset = cur, curOffset
	}
	return faults
}

func newFault(at, midnight time.Time, midnightOffset, from, to int) Fault {
	delta := to - from
	elapsed := int64(at.Sub(midnight) / time.Second)
	// The affected wall span starts at the smaller of the two wall readings of at.
	wallStart := elapsed + int64(min(from, to)-midnightOffset)*config.SecondsPerMinute

	width := int64(abs(delta) * config.SecondsPerMinute)

	f := Fault{
		Position:     float64(wallStart) / config.SecondsPerWallDay,
		Width:        float64(width) / config.SecondsPerWallDay,
		DeltaMinutes: delta,
		Transition:   at,
		StartSSM:     wallStart,
		WidthSeconds: width,
	}
	if delta < 0 {
		f.PassLabels = []string{config.PassLabelA, config.PassLabelB}
	}
	return f
}

// PositionToSSM converts a position to wall-clock seconds since midnight.
func (d Domain) PositionToSSM(p float64) int64 {
	return int64(math.Round(p * config.SecondsPerWallDay))
}

// SSMToPosition converts wall-clock seconds since midnight to a position in [0,1].
func (d Domain) SSMToPosition(ssm int64) float64 {
	return clamp01(float64(ssm) / config.SecondsPerWallDay)
}

// WallPosition is the position of the local wall-clock time h:m:s.
func (d Domain) WallPosition(h, m, s int) float64 {
	return d.SSMToPosition(int64(h*config.SecondsPerHour + m*config.SecondsPerMinute + s))
}

// SnapToMinute moves p down to the start of its minute.
func (d Domain) SnapToMinute(p float64) float64 {
	ssm := d.PositionToSSM(p)
	return d.SSMToPosition(ssm / config.SecondsPerMinute * config.SecondsPerMinute)
}

// IsInGap reports whether p lies in a span skipped by a spring forward.
func (d Domain) IsInGap(p float64) bool {
	ssm := d.PositionToSSM(p)
	for _, f := range d.Faults {
		if f.Gap() && f.contains(ssm) {
			return true
		}
	}
	return false
}

// IsInOverlap returns the fall-back fault whose repeated span contains p.
func (d Domain) IsInOverlap(p float64) (Fault, bool) {
	ssm := d.PositionToSSM(p)
	for _, f := range d.Faults {
		if f.Overlap() && f.contains(ssm) {
			return f, true
		}
	}
	return Fault{}, false
}

// HourBoundary is one line of the hour grid.
type HourBoundary struct {
	Position  float64 `json:"position"`
	Label     string  `json:"label"`
	Midnight  bool    `json:"midnight"`
	NextDay   bool    `json:"next_day"`
	PassLabel string  `json:"pass_label,omitempty"`
}

// HourBoundaries lists the 25 hour lines of the face, from midnight to the
// next midnight. Hours inside an overlap carry the pass label of the half
// they fall in.
func (d Domain) HourBoundaries() []HourBoundary {
	out := make([]HourBoundary, 0, config.HoursPerDay+1)
	for hour := 0; hour <= config.HoursPerDay; hour++ {
		ssm := int64(hour * config.SecondsPerHour)
		h := hour % config.HoursPerDay
		b := HourBoundary{
			Position: d.SSMToPosition(ssm),
			Label:    fmt.Sprintf(config.FormatHourLabel, engine.Hour12(h), engine.MeridiemOf(h)),
			Midnight: h == 0,
			NextDay:  h == 0 && hour > 0,
		}
		if f, ok := d.IsInOverlap(b.Position); ok {
			if ssm < f.StartSSM+f.WidthSeconds/2 {
				b.PassLabel = f.PassLabels[0]
			} else {
				b.PassLabel = f.PassLabels[1]
			}
		}
		out = append(out, b)
	}
	return out
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
