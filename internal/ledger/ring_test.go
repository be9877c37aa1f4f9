package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func entryAt(sec int) Entry {
	return Entry{Instant: time.Unix(int64(sec), 0).UTC(), Second: sec}
}

func seconds(r *ring) []int {
	var out []int
	for _, e := range r.snapshot() {
		out = append(out, e.Second)
	}
	return out
}

func TestRing_PushAndEvict(t *testing.T) {
	r := newRing(3)

	assert.False(t, r.pushFront(entryAt(1)))
	assert.False(t, r.pushFront(entryAt(2)))
	assert.False(t, r.pushFront(entryAt(3)))
	assert.Equal(t, []int{3, 2, 1}, seconds(r))

	assert.True(t, r.pushFront(entryAt(4)))
	assert.Equal(t, []int{4, 3, 2}, seconds(r))
	assert.Equal(t, 3, r.len())
	assert.Equal(t, 3, r.cap())
}

func TestRing_Resize(t *testing.T) {
	r := newRing(4)
	for i := 1; i <= 6; i++ {
		r.pushFront(entryAt(i))
	}

	assert.Equal(t, 2, r.resize(2))
	assert.Equal(t, []int{6, 5}, seconds(r))

	assert.Equal(t, 0, r.resize(5))
	r.pushFront(entryAt(7))
	assert.Equal(t, []int{7, 6, 5}, seconds(r))
}

func TestRing_ClearAndMinimumCapacity(t *testing.T) {
	r := newRing(0)
	assert.Equal(t, 1, r.cap())

	r.pushFront(entryAt(1))
	r.pushFront(entryAt(2))
	assert.Equal(t, []int{2}, seconds(r))

	r.clear()
	assert.Equal(t, 0, r.len())
	assert.Empty(t, seconds(r))
}

func TestRelabel_SkipsMarkers(t *testing.T) {
	l := &Ledger{entries: newRing(4)}
	l.entries.pushFront(Entry{Chapter: 1, OffsetMinutes: -240, Badge: Badge{Kind: BadgeActive}})
	l.entries.pushFront(Entry{Chapter: 1, OffsetMinutes: -240, Badge: Badge{Kind: BadgeGapMarker, From: "x", To: "y"}})
	l.entries.pushFront(Entry{Chapter: 1, OffsetMinutes: -300, Badge: Badge{Kind: BadgeNone}})
	l.entries.pushFront(Entry{Chapter: 0, OffsetMinutes: -240, Badge: Badge{Kind: BadgeActive}})

	assert.Equal(t, 1, l.relabel(1, -240))
	assert.Equal(t, 0, l.relabel(1, -240), "second pass over the same hour changes nothing")

	got := l.entries.snapshot()
	assert.Equal(t, BadgeActive, got[0].Badge.Kind)
	assert.Equal(t, BadgeNone, got[1].Badge.Kind)
	assert.Equal(t, BadgeGapMarker, got[2].Badge.Kind)
	assert.Equal(t, BadgeOverlapPass1, got[3].Badge.Kind)
}
