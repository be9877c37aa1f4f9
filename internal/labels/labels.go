// Package labels renders engine and ledger values as localized text.
package labels

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tartampluch/go-dstclock/internal/config"
	"github.com/tartampluch/go-dstclock/internal/engine"
	"github.com/tartampluch/go-dstclock/internal/ledger"
	"github.com/tartampluch/go-dstclock/internal/zone"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// Translator holds the message bundle and the active localizer.
type Translator struct {
	bundle    *i18n.Bundle
	localizer *i18n.Localizer
	languages []string
	tags      []language.Tag
	lang      string
}

// New loads the embedded locales and selects the closest match to lang.
// Locale files that fail to load are logged and skipped.
func New(lang string) *Translator {
	t := &Translator{bundle: i18n.NewBundle(language.English)}
	t.bundle.RegisterUnmarshalFunc(config.LocaleUnmarsh, json.Unmarshal)

	entries, err := localeFS.ReadDir(config.LocalesDir)
	if err != nil {
		slog.Error(config.ErrLocalesAccess,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyError, err,
		)
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, config.LocalePrefix) || !strings.HasSuffix(name, config.LocaleSuffix) {
			slog.Debug(config.MsgLocaleSkip,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		code := strings.TrimSuffix(strings.TrimPrefix(name, config.LocalePrefix), config.LocaleSuffix)
		tag, err := language.Parse(code)
		if code == "" || err != nil {
			slog.Warn(config.MsgLocaleBadName,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		if _, err := t.bundle.LoadMessageFileFS(localeFS, config.LocalesDir+"/"+name); err != nil {
			slog.Error(config.ErrLocaleLoad,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
				config.LogKeyError, err,
			)
			continue
		}

		t.languages = append(t.languages, code)
		t.tags = append(t.tags, tag)
		slog.Debug(config.MsgLocaleLoaded,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyLang, code,
			config.LogKeyFile, name,
		)
	}

	t.SetLanguage(lang)
	return t
}

// SetLanguage switches the localizer to the loaded locale closest to lang,
// falling back to DefaultLanguage.
func (t *Translator) SetLanguage(lang string) {
	t.lang = config.DefaultLanguage
	if len(t.tags) > 0 {
		want, err := language.Parse(lang)
		if err != nil {
			want = language.Make(config.DefaultLanguage)
		}
		_, idx, conf := language.NewMatcher(t.tags).Match(want)
		if conf != language.No {
			t.lang = t.languages[idx]
		}
	}
	t.localizer = i18n.NewLocalizer(t.bundle, t.lang)
}

// Language returns the active locale code.
func (t *Translator) Language() string { return t.lang }

// Languages lists the locale codes found in the embedded files.
func (t *Translator) Languages() []string { return t.languages }

// Msg translates a plain key, returning the key itself when missing.
func (t *Translator) Msg(key string) string {
	msg, err := t.localize(key, nil, nil)
	if err != nil {
		return key
	}
	return msg
}

func (t *Translator) localize(key string, data map[string]any, plural any) (string, error) {
	if t.localizer == nil {
		return "", errors.New(config.ErrLocNotInit)
	}
	msg, err := t.localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
		PluralCount:  plural,
	})
	if err != nil {
		slog.Debug(config.MsgTransMissing,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyKey, key,
			config.LogKeyError, err,
		)
		return "", err
	}
	return msg, nil
}

// Change describes a classifier result relative to now.
func (t *Translator) Change(c engine.DstChange, now time.Time) string {
	var key string
	switch c.Kind {
	case engine.ChangeUpcoming:
		key = config.TKeyChangeForward
		if c.FallBack() {
			key = config.TKeyChangeBack
		}
	case engine.ChangeJustOccurred:
		key = config.TKeyChangedForward
		if c.FallBack() {
			key = config.TKeyChangedBack
		}
	default:
		return t.Msg(config.TKeyChangeNone)
	}

	return t.MsgWith(key, map[string]any{
		"Minutes": abs(c.DeltaMinutes),
		"When":    remaining(c.Instant.Sub(now)),
	})
}

// MsgWith translates a key with template data, returning the key when missing.
func (t *Translator) MsgWith(key string, data map[string]any) string {
	msg, err := t.localize(key, data, nil)
	if err != nil {
		return key
	}
	return msg
}

// Badge is the short tag shown next to a ledger entry.
func (t *Translator) Badge(b ledger.Badge) string {
	switch b.Kind {
	case ledger.BadgeActive:
		return t.Msg(config.TKeyBadgeActive)
	case ledger.BadgeGapMarker:
		return t.Msg(config.TKeyBadgeGap)
	case ledger.BadgeOverlapPass1:
		return t.Msg(config.TKeyBadgePass1)
	case ledger.BadgeOverlapPass2:
		return t.Msg(config.TKeyBadgePass2)
	default:
		return ""
	}
}

// GapMarker renders the skipped range of a gap marker entry.
func (t *Translator) GapMarker(b ledger.Badge) string {
	return t.MsgWith(config.TKeyGapMarker, map[string]any{"From": b.From, "To": b.To})
}

// ChapterHeader is the localized chapter title.
func (t *Translator) ChapterHeader(c ledger.Chapter) string {
	n := c.EntryCount()
	msg, err := t.localize(config.TKeyChapterHeader, map[string]any{
		"Hour":   fmt.Sprintf(config.FormatTwoDigits, c.Hour),
		"Blocks": len(c.Blocks),
		"Count":  n,
	}, n)
	if err != nil {
		return c.Header()
	}
	return msg
}

// BlockHeader is the localized block title.
func (t *Translator) BlockHeader(b ledger.Block) string {
	n := len(b.Entries)
	msg, err := t.localize(config.TKeyBlockHeader, map[string]any{
		"Minute": fmt.Sprintf(config.FormatTwoDigits, b.Minute),
		"Count":  n,
	}, n)
	if err != nil {
		return b.Header()
	}
	return msg
}

// Validity explains the zone data status.
func (t *Translator) Validity(v zone.Validity) string {
	switch v {
	case zone.Ok:
		return t.Msg(config.TKeyValidityOk)
	case zone.TzMissing:
		return t.Msg(config.TKeyValidityMissing)
	case zone.TzDataStale:
		return t.Msg(config.TKeyValidityStale)
	default:
		return t.Msg(config.TKeyValidityUnknown)
	}
}

// TimeRange labels a ledger window.
func (t *Translator) TimeRange(r ledger.TimeRange) string {
	msg, err := t.localize(config.TKeyRangeLabel, map[string]any{"Minutes": int(r)}, nil)
	if err != nil {
		return r.String()
	}
	return msg
}

// DayLength labels a civil day by its length in hours.
func (t *Translator) DayLength(seconds int64) string {
	hours := int(seconds / config.SecondsPerHour)
	msg, err := t.localize(config.TKeyDayLength, map[string]any{"Hours": hours}, hours)
	if err != nil {
		return config.TKeyDayLength
	}
	return msg
}

// TransitionSummary is the one-line title of a transition in zoneName.
func (t *Translator) TransitionSummary(zoneName string, tr engine.Transition) string {
	from, to := tr.WallRange()

	key, fallback := config.TKeyFeedForward, config.FallbackFeedForward
	if tr.DeltaMinutes < 0 {
		key, fallback = config.TKeyFeedBack, config.FallbackFeedBack
	}

	msg, err := t.localize(key, map[string]any{"Zone": zoneName, "From": from, "To": to}, nil)
	if err != nil || msg == "" {
		return fmt.Sprintf(fallback, zoneName, from, to)
	}
	return msg
}

// TransitionDescription details the offsets of a transition.
func (t *Translator) TransitionDescription(zoneName string, tr engine.Transition) string {
	return t.MsgWith(config.TKeyFeedDescription, map[string]any{
		"Zone":       zoneName,
		"FromOffset": engine.FormatUTCOffset(tr.FromOffset),
		"ToOffset":   engine.FormatUTCOffset(tr.ToOffset),
		"Delta":      fmt.Sprintf(config.FormatSignedInt, tr.DeltaMinutes),
	})
}

// remaining renders |d| as hours and minutes, rounded down to the minute.
func remaining(d time.Duration) string {
	d = d.Abs().Truncate(time.Minute)
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	return fmt.Sprintf(config.FormatRemaining, h, m)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
