package ledger

import (
	"fmt"
	"time"

	"github.com/tartampluch/go-dstclock/internal/config"
	"github.com/tartampluch/go-dstclock/internal/engine"
	"github.com/tartampluch/go-dstclock/internal/zone"
)

// BadgeKind tags the Badge variant.
type BadgeKind int

const (
	BadgeNone BadgeKind = iota
	BadgeActive
	BadgeGapMarker
	BadgeOverlapPass1
	BadgeOverlapPass2
)

func (k BadgeKind) String() string {
	switch k {
	case BadgeActive:
		return "active"
	case BadgeGapMarker:
		return "gap_marker"
	case BadgeOverlapPass1:
		return "overlap_pass1"
	case BadgeOverlapPass2:
		return "overlap_pass2"
	default:
		return "none"
	}
}

// MarshalText encodes the kind by name.
func (k BadgeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Badge is the DST tag of an entry. From and To are set only for
// BadgeGapMarker and hold the skipped wall-clock range ("02:00", "03:00").
type Badge struct {
	Kind BadgeKind `json:"kind"`
	From string    `json:"from,omitempty"`
	To   string    `json:"to,omitempty"`
}

// Structural reports badges that survive a zone change.
func (b Badge) Structural() bool {
	switch b.Kind {
	case BadgeGapMarker, BadgeOverlapPass1, BadgeOverlapPass2:
		return true
	default:
		return false
	}
}

// Entry is one wall-clock second of the ledger.
type Entry struct {
	Instant       time.Time `json:"instant"`
	Timestamp     string    `json:"timestamp"`
	Chapter       int       `json:"chapter"` // local hour, 0-23
	Block         int       `json:"block"`   // local minute
	Second        int       `json:"second"`
	OffsetMinutes int       `json:"utc_offset_minutes"`
	Offset        string    `json:"utc_offset"`
	Abbreviation  string    `json:"abbreviation"`
	Badge         Badge     `json:"badge"`
}

// IsMarker reports whether the entry carries a gap or overlap badge.
func (e Entry) IsMarker() bool {
	return e.Badge.Structural()
}

func newEntry(instant time.Time, z zone.Zone, badge Badge) Entry {
	e := Entry{Instant: instant.UTC(), Badge: badge}
	e.stamp(z)
	return e
}

// stamp fills the display fields of e for zone z.
func (e *Entry) stamp(z zone.Zone) {
	w := engine.Wall(z, e.Instant)
	h := w.Hour()

	e.Timestamp = fmt.Sprintf(config.FormatLedgerStamp, engine.Hour12(h), w.Minute(), w.Second(), engine.MeridiemOf(h))
	e.Chapter = h
	e.Block = w.Minute()
	e.Second = w.Second()
	e.OffsetMinutes = z.OffsetMinutes(e.Instant)
	e.Offset = engine.FormatUTCOffset(e.OffsetMinutes)
	e.Abbreviation = z.Abbreviation(e.Instant)
}

// recompute re-renders e for a new zone. Gap markers keep their text;
// overlap badges are kept, the others follow the zone's DST status.
func (e *Entry) recompute(z zone.Zone) {
	if e.Badge.Kind == BadgeGapMarker {
		return
	}
	e.stamp(z)
	if !e.Badge.Structural() {
		e.Badge = statusBadge(engine.IsDSTActive(z, e.Instant))
	}
}

func statusBadge(isDST bool) Badge {
	if isDST {
		return Badge{Kind: BadgeActive}
	}
	return Badge{Kind: BadgeNone}
}

// gapMarker records a spring forward observed at s. The skipped range is
// the transition instant read in the old and the new offset.
func gapMarker(s engine.TimeSnapshot, oldOffset int) Entry {
	b := Badge{
		Kind: BadgeGapMarker,
		From: engine.FormatWallHM(s.Change.Instant, oldOffset),
		To:   engine.FormatWallHM(s.Change.Instant, s.OffsetMinutes),
	}
	return Entry{
		Instant:       s.Instant.UTC(),
		Timestamp:     fmt.Sprintf(config.FormatGapStamp, b.From, b.To),
		Chapter:       s.Hour24,
		Block:         s.Minute,
		Second:        s.Second,
		OffsetMinutes: s.OffsetMinutes,
		Offset:        s.FormatUTCOffset(),
		Abbreviation:  s.Abbreviation,
		Badge:         b,
	}
}
