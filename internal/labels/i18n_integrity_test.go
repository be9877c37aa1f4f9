package labels_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-dstclock/internal/config"
)

var translationKeys = []string{
	config.TKeyChangeNone,
	config.TKeyChangeForward,
	config.TKeyChangeBack,
	config.TKeyChangedForward,
	config.TKeyChangedBack,
	config.TKeyGapMarker,
	config.TKeyChapterHeader,
	config.TKeyBlockHeader,
	config.TKeyBadgeActive,
	config.TKeyBadgeGap,
	config.TKeyBadgePass1,
	config.TKeyBadgePass2,
	config.TKeyValidityOk,
	config.TKeyValidityMissing,
	config.TKeyValidityStale,
	config.TKeyValidityUnknown,
	config.TKeyFeedForward,
	config.TKeyFeedBack,
	config.TKeyFeedDescription,
	config.TKeyRangeLabel,
	config.TKeyDayLength,
}

func loadLocale(t *testing.T, lang string) map[string]any {
	t.Helper()
	path := filepath.Join(config.LocalesDir, config.LocalePrefix+lang+config.LocaleSuffix)
	content, err := os.ReadFile(path)
	require.NoError(t, err, "must load %s", path)

	var m map[string]any
	require.NoError(t, json.Unmarshal(content, &m), "JSON must be valid")
	return m
}

// TestI18nIntegrity checks that every key declared in config exists in each
// supported locale, and reports keys nobody declares.
func TestI18nIntegrity(t *testing.T) {
	declared := make(map[string]bool)
	for _, k := range translationKeys {
		declared[k] = true
	}

	for _, lang := range config.SupportedLanguages {
		t.Run(lang, func(t *testing.T) {
			m := loadLocale(t, lang)
			for key := range declared {
				_, ok := m[key]
				assert.Truef(t, ok, "key %q is missing in %s", key, lang)
			}
			for key := range m {
				if strings.HasPrefix(key, "_") {
					continue
				}
				if !declared[key] {
					t.Logf("Warning: key %q exists in %s but is not declared in config", key, lang)
				}
			}
		})
	}
}
