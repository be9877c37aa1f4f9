package labels_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tartampluch/go-dstclock/internal/engine"
	"github.com/tartampluch/go-dstclock/internal/labels"
	"github.com/tartampluch/go-dstclock/internal/ledger"
	"github.com/tartampluch/go-dstclock/internal/zone"
)

func TestNew_DetectsLanguages(t *testing.T) {
	tr := labels.New("en")
	assert.ElementsMatch(t, []string{"en", "fr"}, tr.Languages())
	assert.Equal(t, "en", tr.Language())
}

func TestSetLanguage_Matching(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"fr", "fr"},
		{"fr-CA", "fr"},
		{"en-GB", "en"},
		{"de", "en"},
		{"", "en"},
		{"not a tag", "en"},
	}

	tr := labels.New("en")
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			tr.SetLanguage(tt.in)
			assert.Equal(t, tt.want, tr.Language())
		})
	}
}

func TestMsg_MissingKeyFallsBack(t *testing.T) {
	tr := labels.New("en")
	assert.Equal(t, "no_such_key", tr.Msg("no_such_key"))
}

func TestChange(t *testing.T) {
	at := time.Date(2024, 11, 3, 6, 0, 0, 0, time.UTC)
	now := at.Add(-(21*time.Hour + 5*time.Minute + 30*time.Second))

	en := labels.New("en")
	assert.Equal(t, "Clocks go back 60 min in 21h05",
		en.Change(engine.DstChange{Kind: engine.ChangeUpcoming, Instant: at, DeltaMinutes: -60}, now))
	assert.Equal(t, "Clocks went forward 30 min 3h00 ago",
		en.Change(engine.DstChange{Kind: engine.ChangeJustOccurred, Instant: at, DeltaMinutes: 30}, at.Add(3*time.Hour)))
	assert.Equal(t, "No clock change within a day", en.Change(engine.DstChange{}, now))

	fr := labels.New("fr")
	assert.Equal(t, "Les horloges reculent de 60 min dans 21h05",
		fr.Change(engine.DstChange{Kind: engine.ChangeUpcoming, Instant: at, DeltaMinutes: -60}, now))
}

func TestLedgerLabels(t *testing.T) {
	tr := labels.New("en")

	gap := ledger.Badge{Kind: ledger.BadgeGapMarker, From: "02:00", To: "03:00"}
	assert.Equal(t, "Skipped 02:00 → 03:00", tr.GapMarker(gap))
	assert.Equal(t, "GAP", tr.Badge(gap))
	assert.Equal(t, "1st", tr.Badge(ledger.Badge{Kind: ledger.BadgeOverlapPass1}))
	assert.Equal(t, "2nd", tr.Badge(ledger.Badge{Kind: ledger.BadgeOverlapPass2}))
	assert.Equal(t, "DST", tr.Badge(ledger.Badge{Kind: ledger.BadgeActive}))
	assert.Empty(t, tr.Badge(ledger.Badge{}))

	one := ledger.Block{Hour: 1, Minute: 5, Entries: make([]ledger.Entry, 1)}
	many := ledger.Block{Hour: 1, Minute: 4, Entries: make([]ledger.Entry, 60)}
	assert.Equal(t, "BLOCK 05 │ 1 entry", tr.BlockHeader(one))
	assert.Equal(t, "BLOCK 04 │ 60 entries", tr.BlockHeader(many))

	ch := ledger.Chapter{Hour: 1, Blocks: []ledger.Block{one, many}}
	assert.Equal(t, "CHAPTER 01 │ 2 blocks │ 61 entries", tr.ChapterHeader(ch))
	assert.Equal(t, ch.Header(), tr.ChapterHeader(ch), "english matches the built-in header")

	assert.Equal(t, "30 min", tr.TimeRange(ledger.Range30))

	tr.SetLanguage("fr")
	assert.Equal(t, "BLOC 05 │ 1 entrée", tr.BlockHeader(one))
	assert.Equal(t, "Journée de 23 heures", tr.DayLength(82800))
}

func TestValidity(t *testing.T) {
	tr := labels.New("en")
	assert.Equal(t, "Time zone not found, showing UTC", tr.Validity(zone.TzMissing))
	assert.Equal(t, "Time zone data OK", tr.Validity(zone.Ok))
	assert.NotEmpty(t, tr.Validity(zone.TzDataStale))
	assert.NotEmpty(t, tr.Validity(zone.Unknown))
}

func TestTransitionSummary(t *testing.T) {
	spring := engine.Transition{
		Instant:      time.Date(2024, 3, 10, 7, 0, 0, 0, time.UTC),
		DeltaMinutes: 60,
		FromOffset:   -300,
		ToOffset:     -240,
	}
	fall := engine.Transition{
		Instant:      time.Date(2024, 11, 3, 6, 0, 0, 0, time.UTC),
		DeltaMinutes: -60,
		FromOffset:   -240,
		ToOffset:     -300,
	}

	tr := labels.New("en")
	assert.Equal(t, "Clocks spring forward in America/New_York (02:00 → 03:00)", tr.TransitionSummary("America/New_York", spring))
	assert.Equal(t, "Clocks fall back in America/New_York (02:00 → 01:00)", tr.TransitionSummary("America/New_York", fall))
	assert.Equal(t, "America/New_York: UTC-05:00 → UTC-04:00 (+60 min)", tr.TransitionDescription("America/New_York", spring))
}
