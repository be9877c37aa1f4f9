package engine

import (
	"fmt"
	"time"

	"github.com/tartampluch/go-dstclock/internal/config"
	"github.com/tartampluch/go-dstclock/internal/zone"
)

// Meridiem is the AM/PM indicator.
type Meridiem int

const (
	AM Meridiem = iota
	PM
)

func (m Meridiem) String() string {
	if m == PM {
		return config.MeridiemPM
	}
	return config.MeridiemAM
}

// MarshalText encodes the meridiem as "AM" or "PM".
func (m Meridiem) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// TimeSnapshot is the decomposed local time for one tick.
// It is derived only from (instant, zone) and never mutated.
type TimeSnapshot struct {
	Instant time.Time `json:"instant"`

	Year    int          `json:"year"`
	Month   time.Month   `json:"month"`
	Day     int          `json:"day"`
	Weekday time.Weekday `json:"weekday"`

	Hour24 int `json:"hour24"`
	Hour12 int `json:"hour12"`
	Minute int `json:"minute"`
	Second int `json:"second"`

	// Fraction is the sub-second progress in [0,1), for smooth interpolation only.
	Fraction float64  `json:"fraction"`
	Meridiem Meridiem `json:"meridiem"`

	OffsetMinutes int           `json:"utc_offset_minutes"`
	IsDST         bool          `json:"is_dst"`
	Change        DstChange     `json:"dst_change"`
	Abbreviation  string        `json:"abbreviation"`
	Validity      zone.Validity `json:"validity"`
	ZoneName      string        `json:"zone"`
}

// Build computes the snapshot of instant in z. It never fails: a degraded
// zone still answers (as UTC) and its validity is carried through.
func Build(instant time.Time, z zone.Zone) TimeSnapshot {
	w := Wall(z, instant)
	isDST, change := Classify(z, instant)

	return TimeSnapshot{
		Instant:       instant,
		Year:          w.Year(),
		Month:         w.Month(),
		Day:           w.Day(),
		Weekday:       w.Weekday(),
		Hour24:        w.Hour(),
		Hour12:        Hour12(w.Hour()),
		Minute:        w.Minute(),
		Second:        w.Second(),
		Fraction:      float64(w.Nanosecond()) / float64(time.Second),
		Meridiem:      MeridiemOf(w.Hour()),
		OffsetMinutes: z.OffsetMinutes(instant),
		IsDST:         isDST,
		Change:        change,
		Abbreviation:  z.Abbreviation(instant),
		Validity:      z.Validity(),
		ZoneName:      z.Name(),
	}
}

// Hour12 converts a 0-23 hour to the 1-12 clock face.
func Hour12(hour24 int) int {
	switch {
	case hour24 == 0:
		return config.HoursPerHalfDay
	case hour24 <= config.HoursPerHalfDay:
		return hour24
	default:
		return hour24 - config.HoursPerHalfDay
	}
}

// MeridiemOf returns AM before noon, PM otherwise.
func MeridiemOf(hour24 int) Meridiem {
	if hour24 < config.HoursPerHalfDay {
		return AM
	}
	return PM
}

// FormatUTCOffset renders an offset as "UTC±hh:mm".
func FormatUTCOffset(offsetMinutes int) string {
	sign := config.SignPlus
	if offsetMinutes < 0 {
		sign = config.SignMinus
		offsetMinutes = -offsetMinutes
	}
	return fmt.Sprintf(config.FormatUTCOffset, sign,
		offsetMinutes/config.MinutesPerHour, offsetMinutes%config.MinutesPerHour)
}

// FormatWallHM renders instant as "hh:mm" on the 24-hour face of the given
// offset, whether or not the zone actually shows that reading.
func FormatWallHM(instant time.Time, offsetMinutes int) string {
	w := instant.UTC().Add(time.Duration(offsetMinutes) * time.Minute)
	return fmt.Sprintf(config.FormatWallHM, w.Hour(), w.Minute())
}

// FormatTime renders "hh:mm:ss" on the 12-hour face.
func (s TimeSnapshot) FormatTime() string {
	return fmt.Sprintf(config.FormatClock12, s.Hour12, s.Minute, s.Second)
}

// FormatDate renders "Weekday, Month Day, Year".
func (s TimeSnapshot) FormatDate() string {
	return fmt.Sprintf(config.FormatDateLong, s.Weekday, s.Month, s.Day, s.Year)
}

// FormatUTCOffset renders the snapshot offset as "UTC±hh:mm".
func (s TimeSnapshot) FormatUTCOffset() string {
	return FormatUTCOffset(s.OffsetMinutes)
}

// AccessibleDescription is a screen-reader sentence for the time.
func (s TimeSnapshot) AccessibleDescription() string {
	return fmt.Sprintf(config.FormatAccessible, s.Hour12, s.Minute, s.Second, s.Meridiem, s.Abbreviation)
}
