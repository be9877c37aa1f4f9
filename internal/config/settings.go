package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings holds the runtime parameters of the clock daemon.
// They are read once at startup; nothing writes them back.
type Settings struct {
	// Zone is an IANA identifier. Empty selects the system zone.
	Zone string `yaml:"zone"`

	// WindowMinutes selects the ledger time range (5, 10, 30 or 60).
	WindowMinutes int `yaml:"window_minutes"`

	// TickInterval is the period of the tick loop.
	TickInterval time.Duration `yaml:"tick_interval"`

	Port     string `yaml:"port"`
	Language string `yaml:"language"`

	// FeedDays is how far ahead the transition calendar looks.
	FeedDays int `yaml:"feed_days"`

	// Reminder is an optional ISO8601 alarm trigger attached to feed events (e.g. "-PT1H").
	Reminder string `yaml:"reminder"`
}

// DefaultSettings returns the settings used when no file is given.
func DefaultSettings() Settings {
	return Settings{
		Zone:          DefaultZone,
		WindowMinutes: DefaultWindowMinutes,
		TickInterval:  DefaultTickInterval,
		Port:          DefaultPort,
		Language:      DefaultLanguage,
		FeedDays:      DefaultFeedDays,
	}
}

// Load reads a YAML settings file on top of the defaults and validates the result.
// An empty path returns the defaults.
func Load(path string) (Settings, error) {
	s := DefaultSettings()
	if path == "" {
		return s, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("%s: %w", ErrConfigRead, err)
	}
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return Settings{}, fmt.Errorf("%s: %w", ErrConfigParse, err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}

	slog.Debug(MsgSettingsLoaded,
		LogKeyComponent, CompConfig,
		LogKeyPath, path,
		LogKeyZone, s.Zone,
	)
	return s, nil
}

// Validate checks every field and returns the first violation.
func (s Settings) Validate() error {
	if !slices.Contains(LedgerWindows, s.WindowMinutes) {
		return fmt.Errorf("%s: %d", ErrWindowInvalid, s.WindowMinutes)
	}
	if s.TickInterval <= 0 || s.TickInterval > MaxTickInterval {
		return fmt.Errorf("%s: %s", ErrTickInvalid, s.TickInterval)
	}
	if err := ValidatePort(s.Port); err != nil {
		return err
	}
	if !slices.Contains(SupportedLanguages, s.Language) {
		return fmt.Errorf("%s: %q", ErrLangUnsupported, s.Language)
	}
	if s.FeedDays < 1 || s.FeedDays > MaxFeedDays {
		return fmt.Errorf("%s: %d", ErrFeedDaysInvalid, s.FeedDays)
	}
	return nil
}

// ValidatePort checks that port is a decimal number within the TCP range.
func ValidatePort(port string) error {
	if port == "" {
		return errors.New(ErrPortRequired)
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrPortNumber, err)
	}
	if n < MinPort || n > MaxPort {
		return errors.New(ErrPortRange)
	}
	return nil
}
