// Package ledger keeps a bounded per-second log of local wall-clock times and
// corrects it when a repeated fall-back hour is confirmed.
package ledger

import (
	"log/slog"
	"time"

	"github.com/tartampluch/go-dstclock/internal/config"
	"github.com/tartampluch/go-dstclock/internal/engine"
	"github.com/tartampluch/go-dstclock/internal/zone"
)

type overlapPhase int

const (
	phaseIdle overlapPhase = iota
	phaseFirstPass
	phaseSecondPass
)

// overlapState tracks a fall-back repeat. hour is the repeated local hour and
// preOffset the offset in force before the fall back.
type overlapState struct {
	phase     overlapPhase
	hour      int
	preOffset int
}

// TickResult reports what one Update did.
type TickResult struct {
	Added     bool // an entry (normal or gap marker) was stored
	GapMarker bool
	Relabeled int // entries switched to BadgeOverlapPass1
	Evicted   int
	Anomaly   bool // the instant went backwards and was dropped
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithTimeRange sets the history window and the matching capacity.
func WithTimeRange(r TimeRange) Option {
	return func(l *Ledger) {
		l.timeRange = r
		l.capacity = r.Seconds()
	}
}

// WithCapacity pins the entry capacity regardless of the time range.
// A later SetTimeRange replaces it.
func WithCapacity(n int) Option {
	return func(l *Ledger) {
		l.capacity = n
	}
}

// Ledger is the rolling log. It is not safe for concurrent use; one tick
// loop owns it.
type Ledger struct {
	zone      zone.Zone
	timeRange TimeRange
	capacity  int
	entries   *ring

	overlap overlapState

	seen       bool
	last       time.Time
	lastOffset int

	anomalous bool
}

// New builds an empty ledger for z.
func New(z zone.Zone, opts ...Option) *Ledger {
	l := &Ledger{
		zone:      z,
		timeRange: DefaultTimeRange,
		capacity:  DefaultTimeRange.Seconds(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.entries = newRing(l.capacity)
	return l
}

// Update records the snapshot of one tick. s must be built with the
// ledger's zone, and instants must not decrease within a session.
func (l *Ledger) Update(s engine.TimeSnapshot) TickResult {
	sec := s.Instant.Unix()

	if l.seen {
		prev := l.last.Unix()
		if sec == prev {
			return TickResult{}
		}
		if sec < prev {
			l.anomalous = true
			slog.Warn(config.MsgLedgerAnomaly,
				config.LogKeyComponent, config.CompLedger,
				config.LogKeyInstant, s.Instant,
				config.LogKeyPrevious, l.last,
			)
			return TickResult{Anomaly: true}
		}
	}

	res := TickResult{Added: true}
	res.Relabeled = l.advance(s)

	var e Entry
	if l.springForward(s) {
		e = gapMarker(s, l.lastOffset)
		res.GapMarker = true
		slog.Info(config.MsgLedgerGap,
			config.LogKeyComponent, config.CompLedger,
			config.LogKeyFrom, e.Badge.From,
			config.LogKeyTo, e.Badge.To,
		)
	} else {
		e = newEntry(s.Instant, l.zone, l.currentBadge(s.IsDST))
	}

	if l.entries.pushFront(e) {
		res.Evicted = 1
	}

	l.seen = true
	l.last = s.Instant
	l.lastOffset = s.OffsetMinutes
	return res
}

// advance moves the overlap state machine for s and returns the number of
// entries relabelled.
func (l *Ledger) advance(s engine.TimeSnapshot) int {
	if l.overlap.phase == phaseSecondPass && s.Hour24 != l.overlap.hour {
		slog.Debug(config.MsgOverlapExit,
			config.LogKeyComponent, config.CompLedger,
			config.LogKeyHour, l.overlap.hour,
		)
		l.overlap = overlapState{}
	}
	if !l.seen || l.overlap.phase == phaseSecondPass {
		return 0
	}

	switch {
	case s.OffsetMinutes < l.lastOffset:
		l.overlap = overlapState{phase: phaseSecondPass, hour: s.Hour24, preOffset: l.lastOffset}
		n := l.relabel(s.Hour24, l.lastOffset)
		slog.Info(config.MsgLedgerRelabel,
			config.LogKeyComponent, config.CompLedger,
			config.LogKeyHour, s.Hour24,
			config.LogKeyOffset, l.lastOffset,
			config.LogKeyCount, n,
		)
		return n

	case l.overlap.phase == phaseIdle && s.OffsetMinutes != l.lastOffset &&
		s.Change.Kind == engine.ChangeUpcoming && s.Change.DeltaMinutes < 0:
		l.overlap = overlapState{phase: phaseFirstPass, hour: s.Hour24, preOffset: l.lastOffset}
		slog.Debug(config.MsgOverlapEnter,
			config.LogKeyComponent, config.CompLedger,
			config.LogKeyHour, s.Hour24,
		)
	}
	return 0
}

// springForward reports a tick that starts a new minute right after the
// offset jumped forward.
func (l *Ledger) springForward(s engine.TimeSnapshot) bool {
	if !l.seen || s.OffsetMinutes <= l.lastOffset {
		return false
	}
	if s.Instant.Unix()/config.SecondsPerMinute == l.last.Unix()/config.SecondsPerMinute {
		return false
	}
	return s.Change.Kind == engine.ChangeJustOccurred && s.Change.DeltaMinutes > 0
}

func (l *Ledger) currentBadge(isDST bool) Badge {
	switch l.overlap.phase {
	case phaseFirstPass:
		return Badge{Kind: BadgeOverlapPass1}
	case phaseSecondPass:
		return Badge{Kind: BadgeOverlapPass2}
	default:
		return statusBadge(isDST)
	}
}

// relabel marks stored entries of the repeated hour at the pre-fallback
// offset as the first pass. Entries already marked are left alone.
func (l *Ledger) relabel(hour, preOffset int) int {
	n := 0
	for i := range l.entries.len() {
		e := l.entries.at(i)
		if e.Chapter != hour || e.OffsetMinutes != preOffset {
			continue
		}
		if e.Badge.Kind == BadgeGapMarker || e.Badge.Kind == BadgeOverlapPass1 {
			continue
		}
		e.Badge = Badge{Kind: BadgeOverlapPass1}
		n++
	}
	return n
}

// SetZone re-renders every entry for z in place. Gap and overlap markers
// survive; the overlap state restarts and the offset memory is re-based so
// the switch itself does not look like a transition.
func (l *Ledger) SetZone(z zone.Zone) {
	l.zone = z
	for i := range l.entries.len() {
		l.entries.at(i).recompute(z)
	}
	l.overlap = overlapState{}
	if l.seen {
		l.lastOffset = z.OffsetMinutes(l.last)
	}

	slog.Info(config.MsgLedgerZone,
		config.LogKeyComponent, config.CompLedger,
		config.LogKeyZone, z.Name(),
		config.LogKeyCount, l.entries.len(),
	)
}

// SetTimeRange changes the window; the oldest entries beyond the new
// capacity are dropped.
func (l *Ledger) SetTimeRange(r TimeRange) {
	l.timeRange = r
	l.capacity = r.Seconds()
	dropped := l.entries.resize(l.capacity)

	slog.Debug(config.MsgLedgerRange,
		config.LogKeyComponent, config.CompLedger,
		config.LogKeyCapacity, l.capacity,
		config.LogKeyCount, dropped,
	)
}

// Reset empties the ledger and clears the anomaly flag.
func (l *Ledger) Reset() {
	l.entries.clear()
	l.overlap = overlapState{}
	l.seen = false
	l.last = time.Time{}
	l.lastOffset = 0
	l.anomalous = false

	slog.Debug(config.MsgLedgerReset, config.LogKeyComponent, config.CompLedger)
}

// Anomalous reports that a decreasing instant was dropped since the last Reset.
func (l *Ledger) Anomalous() bool { return l.anomalous }

// Zone returns the zone entries are rendered in.
func (l *Ledger) Zone() zone.Zone { return l.zone }

// TimeRange returns the current window.
func (l *Ledger) TimeRange() TimeRange { return l.timeRange }

// Entries returns a copy of the stored entries, newest first.
func (l *Ledger) Entries() []Entry { return l.entries.snapshot() }

func (l *Ledger) Len() int { return l.entries.len() }

// Latest returns the newest entry.
func (l *Ledger) Latest() (Entry, bool) {
	if l.entries.len() == 0 {
		return Entry{}, false
	}
	return *l.entries.at(0), true
}

func (l *Ledger) Cap() int { return l.entries.cap() }

// InOverlap reports whether a fall-back repeat is being tracked, and its hour.
func (l *Ledger) InOverlap() (int, bool) {
	return l.overlap.hour, l.overlap.phase != phaseIdle
}
