package engine

import (
	"time"

	"github.com/tartampluch/go-dstclock/internal/config"
	"github.com/tartampluch/go-dstclock/internal/zone"
)

// ChangeKind tags the DstChange variant.
type ChangeKind int

const (
	ChangeNone ChangeKind = iota
	ChangeUpcoming
	ChangeJustOccurred
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeUpcoming:
		return "upcoming"
	case ChangeJustOccurred:
		return "just_occurred"
	default:
		return "none"
	}
}

// MarshalText encodes the kind by name.
func (k ChangeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// DstChange describes the nearest offset transition within the classifier
// window. Instant and DeltaMinutes are zero for ChangeNone.
// A positive delta is a spring forward, a negative one a fall back.
type DstChange struct {
	Kind         ChangeKind `json:"kind"`
	Instant      time.Time  `json:"instant,omitzero"`
	DeltaMinutes int        `json:"delta_minutes,omitempty"`
}

// SpringForward reports a positive offset jump.
func (c DstChange) SpringForward() bool {
	return c.Kind != ChangeNone && c.DeltaMinutes > 0
}

// FallBack reports a negative offset jump.
func (c DstChange) FallBack() bool {
	return c.Kind != ChangeNone && c.DeltaMinutes < 0
}

// IsDSTActive compares the offset at instant with the offsets at local
// January 15 and July 15, noon, of the same local year. Zones whose two
// reference offsets agree never observe DST; otherwise DST is the larger
// of the two. Southern-hemisphere zones fit because their summer offset is
// still the larger one; zones with negative DST do not.
func IsDSTActive(z zone.Zone, instant time.Time) bool {
	year, _, _ := LocalDate(z, instant)

	jan := ResolveLocal(z, year, time.January, config.DSTReferenceDay, config.DSTReferenceHour, 0, 0).Earliest
	jul := ResolveLocal(z, year, time.July, config.DSTReferenceDay, config.DSTReferenceHour, 0, 0).Earliest

	janOffset, julOffset := z.OffsetMinutes(jan), z.OffsetMinutes(jul)
	if janOffset == julOffset {
		return false
	}
	return z.OffsetMinutes(instant) == max(janOffset, julOffset)
}

// LocateTransition finds the instant inside [low, high] where the offset
// stops being lowOffset. It requires offset(low) == lowOffset !=
// offset(high) and a single transition in the window.
//
// Bisection runs until the window is at most LocatorResolution wide; a
// second pass over whole seconds then returns the first second carrying
// the new offset.
func LocateTransition(z zone.Zone, low, high time.Time, lowOffset int) time.Time {
	for high.Sub(low) > config.LocatorResolution {
		mid := low.Add(high.Sub(low) / 2)
		if z.OffsetMinutes(mid) == lowOffset {
			low = mid
		} else {
			high = mid
		}
	}

	step := config.LocatorFineStep
	lo := low.Truncate(step)
	hi := high.Truncate(step)
	if hi.Before(high) {
		hi = hi.Add(step)
	}
	for hi.Sub(lo) > step {
		mid := lo.Add(hi.Sub(lo) / 2).Truncate(step)
		if z.OffsetMinutes(mid) == lowOffset {
			lo = mid
		} else {
			hi = mid
		}
	}
	return hi.UTC()
}

// Classify returns the DST status of instant and the offset change within
// ClassifierWindow on either side. An upcoming change wins over one that
// just occurred.
func Classify(z zone.Zone, instant time.Time) (bool, DstChange) {
	isDST := IsDSTActive(z, instant)
	current := z.OffsetMinutes(instant)

	future := instant.Add(config.ClassifierWindow)
	if futureOffset := z.OffsetMinutes(future); futureOffset != current {
		return isDST, DstChange{
			Kind:         ChangeUpcoming,
			Instant:      LocateTransition(z, instant, future, current),
			DeltaMinutes: futureOffset - current,
		}
	}

	past := instant.Add(-config.ClassifierWindow)
	if pastOffset := z.OffsetMinutes(past); pastOffset != current {
		return isDST, DstChange{
			Kind:         ChangeJustOccurred,
			Instant:      LocateTransition(z, past, instant, pastOffset),
			DeltaMinutes: current - pastOffset,
		}
	}

	return isDST, DstChange{Kind: ChangeNone}
}
