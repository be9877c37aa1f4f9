package ledger

import (
	"fmt"
	"slices"

	"github.com/tartampluch/go-dstclock/internal/config"
	"github.com/tartampluch/go-dstclock/internal/engine"
)

// TimeRange is the span of history the ledger keeps, in minutes.
type TimeRange int

const (
	Range5  TimeRange = 5
	Range10 TimeRange = 10
	Range30 TimeRange = 30
	Range60 TimeRange = 60

	DefaultTimeRange = Range10
)

// TimeRanges lists the supported ranges, shortest first.
func TimeRanges() []TimeRange {
	return []TimeRange{Range5, Range10, Range30, Range60}
}

// ParseTimeRange accepts a window length in minutes.
func ParseTimeRange(minutes int) (TimeRange, error) {
	r := TimeRange(minutes)
	if !slices.Contains(TimeRanges(), r) {
		return 0, fmt.Errorf("%s: %d", config.ErrWindowInvalid, minutes)
	}
	return r, nil
}

// Seconds is the entry capacity of the range, one entry per second.
func (r TimeRange) Seconds() int {
	return int(r) * config.SecondsPerMinute
}

func (r TimeRange) String() string {
	return fmt.Sprintf(config.FormatRangeLabel, int(r))
}

// Block groups the entries of one local minute.
type Block struct {
	Hour    int     `json:"hour"`
	Minute  int     `json:"minute"`
	Entries []Entry `json:"entries"`
}

// Header is the block title line.
func (b Block) Header() string {
	return fmt.Sprintf(config.FormatBlockHead, b.Minute, len(b.Entries))
}

// Chapter groups the blocks of one local hour.
type Chapter struct {
	Hour   int     `json:"hour"`
	Blocks []Block `json:"blocks"`
}

// EntryCount sums the entries of all blocks.
func (c Chapter) EntryCount() int {
	n := 0
	for _, b := range c.Blocks {
		n += len(b.Entries)
	}
	return n
}

// Hour12 returns the chapter hour on the 12-hour face.
func (c Chapter) Hour12() (int, engine.Meridiem) {
	return engine.Hour12(c.Hour), engine.MeridiemOf(c.Hour)
}

// Header is the chapter title line.
func (c Chapter) Header() string {
	return fmt.Sprintf(config.FormatChapterHead, c.Hour, len(c.Blocks), c.EntryCount())
}

// Chapters groups the entries by local hour, then by minute. Chapters and
// blocks appear in the order their newest entry was recorded; a repeated
// hour shares one chapter.
func (l *Ledger) Chapters() []Chapter {
	var chapters []Chapter
	for _, e := range l.Entries() {
		ci := slices.IndexFunc(chapters, func(c Chapter) bool { return c.Hour == e.Chapter })
		if ci < 0 {
			chapters = append(chapters, Chapter{Hour: e.Chapter})
			ci = len(chapters) - 1
		}

		ch := &chapters[ci]
		bi := slices.IndexFunc(ch.Blocks, func(b Block) bool { return b.Minute == e.Block })
		if bi < 0 {
			ch.Blocks = append(ch.Blocks, Block{Hour: e.Chapter, Minute: e.Block})
			bi = len(ch.Blocks) - 1
		}
		ch.Blocks[bi].Entries = append(ch.Blocks[bi].Entries, e)
	}
	return chapters
}

// Blocks groups consecutive entries of the same minute, newest first.
func (l *Ledger) Blocks() []Block {
	var blocks []Block
	for _, e := range l.Entries() {
		if n := len(blocks); n > 0 && blocks[n-1].Hour == e.Chapter && blocks[n-1].Minute == e.Block {
			blocks[n-1].Entries = append(blocks[n-1].Entries, e)
			continue
		}
		blocks = append(blocks, Block{Hour: e.Chapter, Minute: e.Block, Entries: []Entry{e}})
	}
	return blocks
}
