package engine_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-dstclock/internal/engine"
	"github.com/tartampluch/go-dstclock/internal/zone"
)

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// MockClock controls time for deterministic testing.
type MockClock struct {
	CurrentTime time.Time
}

func (m *MockClock) Now() time.Time {
	return m.CurrentTime
}

func mustZone(t *testing.T, name string) zone.Zone {
	t.Helper()
	z, err := zone.Load(name)
	require.NoError(t, err)
	return z
}

func utc(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

// -----------------------------------------------------------------------------
// Snapshot Builder
// -----------------------------------------------------------------------------

func TestBuild_UTCEvening(t *testing.T) {
	s := engine.Build(utc("2024-01-01T20:30:00Z"), mustZone(t, "UTC"))

	assert.Equal(t, 20, s.Hour24)
	assert.Equal(t, 8, s.Hour12)
	assert.Equal(t, engine.PM, s.Meridiem)
	assert.Equal(t, 30, s.Minute)
	assert.Equal(t, 0, s.Second)
	assert.Equal(t, 0, s.OffsetMinutes)
	assert.False(t, s.IsDST)
	assert.Equal(t, engine.ChangeNone, s.Change.Kind)
	assert.Equal(t, zone.Ok, s.Validity)
	assert.Equal(t, "UTC", s.Abbreviation)
	assert.Equal(t, "08:30:00", s.FormatTime())
	assert.Equal(t, "Monday, January 1, 2024", s.FormatDate())
	assert.Equal(t, "UTC+00:00", s.FormatUTCOffset())
	assert.Equal(t, "It is 8 30 and 0 seconds PM, UTC Time.", s.AccessibleDescription())
}

func TestBuild_LocalFieldsAndFraction(t *testing.T) {
	// 2024-07-04T03:15:42.25Z is 23:15:42 EDT on July 3rd.
	instant := utc("2024-07-04T03:15:42Z").Add(250 * time.Millisecond)
	s := engine.Build(instant, mustZone(t, "America/New_York"))

	assert.Equal(t, 2024, s.Year)
	assert.Equal(t, time.July, s.Month)
	assert.Equal(t, 3, s.Day)
	assert.Equal(t, time.Wednesday, s.Weekday)
	assert.Equal(t, 23, s.Hour24)
	assert.Equal(t, 11, s.Hour12)
	assert.Equal(t, 15, s.Minute)
	assert.Equal(t, 42, s.Second)
	assert.InDelta(t, 0.25, s.Fraction, 1e-9)
	assert.Equal(t, -240, s.OffsetMinutes)
	assert.Equal(t, "EDT", s.Abbreviation)
	assert.True(t, s.IsDST)
	assert.Equal(t, "UTC-04:00", s.FormatUTCOffset())
}

func TestBuild_ValidityPassesThrough(t *testing.T) {
	s := engine.Build(utc("2024-01-01T00:00:00Z"), zone.Resolve("Nowhere/Invalid"))

	assert.Equal(t, zone.TzMissing, s.Validity)
	assert.Equal(t, 0, s.OffsetMinutes, "Degraded zone answers as UTC")
}

func TestHour12AndMeridiem(t *testing.T) {
	tests := []struct {
		hour24   int
		hour12   int
		meridiem engine.Meridiem
	}{
		{0, 12, engine.AM},
		{1, 1, engine.AM},
		{11, 11, engine.AM},
		{12, 12, engine.PM},
		{13, 1, engine.PM},
		{23, 11, engine.PM},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.hour12, engine.Hour12(tt.hour24), "hour12 of %d", tt.hour24)
		assert.Equal(t, tt.meridiem, engine.MeridiemOf(tt.hour24), "meridiem of %d", tt.hour24)
	}
}

func TestBuild_FieldRanges(t *testing.T) {
	z := mustZone(t, "Australia/Lord_Howe")
	start := utc("2024-01-01T00:00:00Z")

	for i := 0; i < 24*60; i += 7 {
		s := engine.Build(start.Add(time.Duration(i)*time.Minute+13*time.Second), z)
		assert.True(t, s.Hour12 >= 1 && s.Hour12 <= 12)
		assert.True(t, s.Minute >= 0 && s.Minute <= 59)
		assert.True(t, s.Second >= 0 && s.Second <= 59)
	}
}

func TestFormatUTCOffset(t *testing.T) {
	tests := map[int]string{
		0:    "UTC+00:00",
		-480: "UTC-08:00",
		330:  "UTC+05:30",
		-570: "UTC-09:30",
		765:  "UTC+12:45",
	}
	for minutes, want := range tests {
		assert.Equal(t, want, engine.FormatUTCOffset(minutes))
	}
}

func TestSnapshot_JSON(t *testing.T) {
	s := engine.Build(utc("2024-11-02T09:00:00Z"), mustZone(t, "America/New_York"))

	raw, err := json.Marshal(s)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "AM", doc["meridiem"])
	assert.Equal(t, "ok", doc["validity"])

	change := doc["dst_change"].(map[string]any)
	assert.Equal(t, "upcoming", change["kind"])
	assert.Equal(t, "2024-11-03T06:00:00Z", change["instant"])
	assert.EqualValues(t, -60, change["delta_minutes"])
}

// -----------------------------------------------------------------------------
// DST Status Detector
// -----------------------------------------------------------------------------

func TestIsDSTActive(t *testing.T) {
	tests := []struct {
		name    string
		zone    string
		instant string
		want    bool
	}{
		{"New York winter", "America/New_York", "2024-01-20T12:00:00Z", false},
		{"New York summer", "America/New_York", "2024-07-20T12:00:00Z", true},
		{"Sydney January is summer", "Australia/Sydney", "2024-01-20T12:00:00Z", true},
		{"Sydney July is winter", "Australia/Sydney", "2024-07-20T12:00:00Z", false},
		{"Tokyo never", "Asia/Tokyo", "2024-07-20T12:00:00Z", false},
		{"UTC never", "UTC", "2024-07-20T12:00:00Z", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, engine.IsDSTActive(mustZone(t, tt.zone), utc(tt.instant)))
		})
	}
}

// TestNoDSTZones_NeverReportChanges sweeps a whole year of DST-free zones.
func TestNoDSTZones_NeverReportChanges(t *testing.T) {
	zones := []zone.Zone{
		mustZone(t, "UTC"),
		mustZone(t, "Asia/Tokyo"),
		mustZone(t, "Asia/Kolkata"),
		zone.Fixed("X-FIXED", -210),
	}
	start := utc("2024-01-01T00:00:00Z")

	for _, z := range zones {
		for d := 0; d < 366; d += 5 {
			isDST, change := engine.Classify(z, start.Add(time.Duration(d)*24*time.Hour+37*time.Minute))
			assert.False(t, isDST, "%s day %d", z.Name(), d)
			assert.Equal(t, engine.ChangeNone, change.Kind, "%s day %d", z.Name(), d)
		}
	}
}

// -----------------------------------------------------------------------------
// Change Classifier & Transition Locator
// -----------------------------------------------------------------------------

func TestClassify_NewYorkFallBack(t *testing.T) {
	ny := mustZone(t, "America/New_York")

	isDST, change := engine.Classify(ny, utc("2024-11-02T09:00:00Z"))
	assert.True(t, isDST)
	assert.Equal(t, engine.DstChange{
		Kind:         engine.ChangeUpcoming,
		Instant:      utc("2024-11-03T06:00:00Z"),
		DeltaMinutes: -60,
	}, change)
	assert.True(t, change.FallBack())
	assert.False(t, change.SpringForward())

	isDST, change = engine.Classify(ny, utc("2024-11-03T09:00:00Z"))
	assert.False(t, isDST)
	assert.Equal(t, engine.DstChange{
		Kind:         engine.ChangeJustOccurred,
		Instant:      utc("2024-11-03T06:00:00Z"),
		DeltaMinutes: -60,
	}, change)
}

func TestClassify_NewYorkSpringForward(t *testing.T) {
	ny := mustZone(t, "America/New_York")

	_, change := engine.Classify(ny, utc("2024-03-10T01:00:00Z"))
	assert.Equal(t, engine.ChangeUpcoming, change.Kind)
	assert.Equal(t, utc("2024-03-10T07:00:00Z"), change.Instant)
	assert.Equal(t, 60, change.DeltaMinutes)
	assert.True(t, change.SpringForward())

	_, change = engine.Classify(ny, utc("2024-03-10T07:00:00Z"))
	assert.Equal(t, engine.ChangeJustOccurred, change.Kind, "The transition instant already carries the new offset")
	assert.Equal(t, utc("2024-03-10T07:00:00Z"), change.Instant)

	_, change = engine.Classify(ny, utc("2024-03-12T07:00:00Z"))
	assert.Equal(t, engine.ChangeNone, change.Kind)
}

func TestClassify_HalfHourShift(t *testing.T) {
	// Lord Howe Island moves by 30 minutes.
	lh := mustZone(t, "Australia/Lord_Howe")

	_, change := engine.Classify(lh, utc("2024-04-06T03:00:00Z"))
	require.Equal(t, engine.ChangeUpcoming, change.Kind)
	assert.Equal(t, -30, change.DeltaMinutes)
	assert.NotEqual(t, lh.OffsetMinutes(change.Instant.Add(-time.Second)), lh.OffsetMinutes(change.Instant))
}

func TestLocateTransition_Window(t *testing.T) {
	ny := mustZone(t, "America/New_York")
	low, high := utc("2024-03-09T12:00:00Z"), utc("2024-03-10T12:00:00Z")

	got := engine.LocateTransition(ny, low, high, ny.OffsetMinutes(low))

	assert.Equal(t, utc("2024-03-10T07:00:00Z"), got)
	assert.False(t, got.Before(low))
	assert.False(t, got.After(high))
}

// TestLocateTransition_Property checks, for random windows containing a
// transition, that the located instant is exactly the first second with
// the new offset.
func TestLocateTransition_Property(t *testing.T) {
	zones := []zone.Zone{
		mustZone(t, "America/New_York"),
		mustZone(t, "Europe/Paris"),
		mustZone(t, "Australia/Lord_Howe"),
	}
	base := utc("2020-01-01T00:00:00Z")

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("located instant is the first second of the new offset", prop.ForAll(
		func(zi int, seconds int64, span int64) bool {
			z := zones[zi]
			low := base.Add(time.Duration(seconds) * time.Second).Add(123 * time.Millisecond)
			high := low.Add(time.Duration(span) * time.Second)
			lowOffset := z.OffsetMinutes(low)
			if lowOffset == z.OffsetMinutes(high) {
				return true // No transition in this window
			}

			got := engine.LocateTransition(z, low, high, lowOffset)
			return z.OffsetMinutes(got.Add(-time.Second)) == lowOffset &&
				z.OffsetMinutes(got) != lowOffset &&
				!got.Before(low) && !got.After(high.Add(time.Second))
		},
		gen.IntRange(0, len(zones)-1),
		gen.Int64Range(0, 6*365*24*3600),
		gen.Int64Range(61, 60*24*3600),
	))

	properties.TestingRun(t)
}

// -----------------------------------------------------------------------------
// Transition scanner & wall-clock resolution
// -----------------------------------------------------------------------------

func TestTransitions_NewYork2024(t *testing.T) {
	ny := mustZone(t, "America/New_York")

	got := engine.Transitions(ny, utc("2024-01-01T00:00:00Z"), utc("2025-01-01T00:00:00Z"))

	require.Len(t, got, 2)
	assert.Equal(t, engine.Transition{
		Instant: utc("2024-03-10T07:00:00Z"), DeltaMinutes: 60,
		FromOffset: -300, ToOffset: -240, FromAbbreviation: "EST", ToAbbreviation: "EDT",
	}, got[0])
	assert.Equal(t, engine.Transition{
		Instant: utc("2024-11-03T06:00:00Z"), DeltaMinutes: -60,
		FromOffset: -240, ToOffset: -300, FromAbbreviation: "EDT", ToAbbreviation: "EST",
	}, got[1])

	assert.Empty(t, engine.Transitions(mustZone(t, "UTC"), utc("2024-01-01T00:00:00Z"), utc("2025-01-01T00:00:00Z")))
}

func TestResolveLocal(t *testing.T) {
	ny := mustZone(t, "America/New_York")

	gap := engine.ResolveLocal(ny, 2024, time.March, 10, 2, 30, 0)
	assert.Equal(t, engine.LocalNonexistent, gap.Kind)
	assert.Equal(t, utc("2024-03-10T07:30:00Z"), gap.Earliest, "Resolved with the pre-gap offset, landing at 03:30 EDT")

	overlap := engine.ResolveLocal(ny, 2024, time.November, 3, 1, 30, 0)
	assert.Equal(t, engine.LocalAmbiguous, overlap.Kind)
	assert.Equal(t, utc("2024-11-03T05:30:00Z"), overlap.Earliest)
	assert.Equal(t, utc("2024-11-03T06:30:00Z"), overlap.Latest)
	assert.False(t, overlap.Single())

	plain := engine.ResolveLocal(ny, 2024, time.November, 3, 12, 0, 0)
	assert.True(t, plain.Single())
	assert.Equal(t, utc("2024-11-03T17:00:00Z"), plain.Earliest)
}

func TestLocalDate(t *testing.T) {
	y, m, d := engine.LocalDate(mustZone(t, "Pacific/Auckland"), utc("2024-06-30T20:00:00Z"))
	assert.Equal(t, 2024, y)
	assert.Equal(t, time.July, m)
	assert.Equal(t, 1, d)
}

// -----------------------------------------------------------------------------
// Clocks
// -----------------------------------------------------------------------------

func TestScrubClock(t *testing.T) {
	base := &MockClock{CurrentTime: utc("2030-05-05T00:00:00Z")}
	start := utc("2024-11-03T05:59:00Z")

	c := engine.NewScrubClock(start, 60, base)
	assert.Equal(t, start, c.Now())

	base.CurrentTime = base.CurrentTime.Add(2 * time.Second)
	assert.Equal(t, start.Add(2*time.Minute), c.Now(), "Speed 60 turns seconds into minutes")
}

func TestRealClock(t *testing.T) {
	before := time.Now()
	got := engine.RealClock{}.Now()
	assert.False(t, got.Before(before))
}
