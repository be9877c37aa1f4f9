package engine

import "time"

// Clock abstracts time.Now() to allow deterministic testing.
// It is the only source of "now" for the tick loop; every engine function
// takes the instant explicitly.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current instant.
func (RealClock) Now() time.Time {
	return time.Now()
}

// ScrubClock replays time from a chosen start instant at a chosen speed.
// It backs the manual "scrub" mode where the user picks the instant.
type ScrubClock struct {
	Start time.Time
	Speed float64
	// Base measures real elapsed time; RealClock when nil.
	Base Clock

	origin time.Time
}

// NewScrubClock anchors the replay at the current real instant.
func NewScrubClock(start time.Time, speed float64, base Clock) *ScrubClock {
	if base == nil {
		base = RealClock{}
	}
	return &ScrubClock{Start: start, Speed: speed, Base: base, origin: base.Now()}
}

// Now returns Start plus the real elapsed time scaled by Speed.
func (c *ScrubClock) Now() time.Time {
	elapsed := c.Base.Now().Sub(c.origin)
	return c.Start.Add(time.Duration(float64(elapsed) * c.Speed))
}
