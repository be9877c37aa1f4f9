package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/tartampluch/go-dstclock/internal/config"
	"github.com/tartampluch/go-dstclock/internal/engine"
	"github.com/tartampluch/go-dstclock/internal/zone"
)

// main is the application entry point.
// It delegates execution to runMain so that deferred calls (like closing the
// log file) run before the process terminates; os.Exit() does not run defers.
func main() {
	os.Exit(runMain(os.Args[1:]))
}

// runMain manages the application lifecycle, argument parsing, and exit codes.
func runMain(args []string) int {
	// -------------------------------------------------------------------------
	// 1. CLI Argument Parsing
	// -------------------------------------------------------------------------
	opts, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return config.ExitCodeSuccess
		}
		return config.ExitCodeError
	}

	if opts.showVersion {
		printVersion()
		return config.ExitCodeSuccess
	}

	if opts.changed(config.FlagList) {
		if err := printZones(os.Stdout, opts.listZones); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return config.ExitCodeError
		}
		return config.ExitCodeSuccess
	}

	// -------------------------------------------------------------------------
	// 2. Logging Initialization
	// -------------------------------------------------------------------------
	logCloser := setupLogging(opts.debug)
	if logCloser != nil {
		defer func() {
			_ = logCloser.Close()
		}()
	}

	settings, err := opts.settings()
	if err != nil {
		slog.Error(config.ErrAppFailed,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyError, err,
		)
		return config.ExitCodeError
	}

	// -------------------------------------------------------------------------
	// 3. Context & Signal Handling
	// -------------------------------------------------------------------------
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logStartupInfo()

	// -------------------------------------------------------------------------
	// 4. Application Logic
	// -------------------------------------------------------------------------
	if err := run(ctx, settings, opts, os.Stdout); err != nil {
		slog.Error(config.ErrAppFailed,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyError, err,
		)
		return config.ExitCodeError
	}

	slog.Info(config.MsgAppStop, config.LogKeyComponent, config.CompMain)
	return config.ExitCodeSuccess
}

// cliOptions is the parsed command line. Settings fields only override the
// file when their flag was given explicitly.
type cliOptions struct {
	showVersion bool
	debug       bool
	once        bool
	serve       bool
	configPath  string
	at          string
	speed       float64

	zone   string
	port   string
	window int
	lang   string

	listZones string

	changed func(name string) bool
}

func parseFlags(args []string) (cliOptions, error) {
	var o cliOptions
	defaults := config.DefaultSettings()

	fs := pflag.NewFlagSet(config.AppName, pflag.ContinueOnError)
	fs.BoolVarP(&o.showVersion, config.FlagVersion, "v", false, config.FlagDescVersion)
	fs.BoolVar(&o.debug, config.FlagDebug, false, config.FlagDescDebug)
	fs.BoolVar(&o.once, config.FlagOnce, false, config.FlagDescOnce)
	fs.BoolVar(&o.serve, config.FlagServe, false, config.FlagDescServe)
	fs.StringVarP(&o.configPath, config.FlagConfig, "c", "", config.FlagDescConfig)
	fs.StringVar(&o.at, config.FlagAt, "", config.FlagDescAt)
	fs.Float64Var(&o.speed, config.FlagSpeed, config.DefaultSpeed, config.FlagDescSpeed)
	fs.StringVarP(&o.zone, config.FlagZone, "z", defaults.Zone, config.FlagDescZone)
	fs.StringVarP(&o.port, config.FlagPort, "p", defaults.Port, config.FlagDescPort)
	fs.IntVarP(&o.window, config.FlagWindow, "w", defaults.WindowMinutes, config.FlagDescWindow)
	fs.StringVarP(&o.lang, config.FlagLang, "l", defaults.Language, config.FlagDescLang)
	fs.StringVar(&o.listZones, config.FlagList, "", config.FlagDescList)
	// A bare --list-zones lists everything; a filter needs --list-zones=text.
	fs.Lookup(config.FlagList).NoOptDefVal = config.FlagListAll

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("%s: %w", config.ErrFlagParse, err)
	}
	o.changed = fs.Changed
	return o, nil
}

// settings loads the optional settings file and applies the explicit flags.
func (o cliOptions) settings() (config.Settings, error) {
	s, err := config.Load(o.configPath)
	if err != nil {
		return config.Settings{}, err
	}

	if o.changed(config.FlagZone) {
		s.Zone = o.zone
	}
	if o.changed(config.FlagPort) {
		s.Port = o.port
	}
	if o.changed(config.FlagWindow) {
		s.WindowMinutes = o.window
	}
	if o.changed(config.FlagLang) {
		s.Language = o.lang
	}

	if err := s.Validate(); err != nil {
		return config.Settings{}, err
	}
	return s, nil
}

// clock returns the real clock unless --at or --speed asks for a replay.
func (o cliOptions) clock() (engine.Clock, error) {
	if o.speed <= 0 {
		return nil, fmt.Errorf("%s: %g", config.ErrSpeedInvalid, o.speed)
	}
	if o.at == "" && o.speed == config.DefaultSpeed {
		return engine.RealClock{}, nil
	}

	start := time.Now()
	if o.at != "" {
		t, err := time.Parse(config.DateFormatRFC3339, o.at)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", config.ErrAtParse, err)
		}
		start = t
	}
	return engine.NewScrubClock(start, o.speed, nil), nil
}

// printZones writes the installed zone identifiers matching query, one per
// line, marking the system zone.
func printZones(w io.Writer, query string) error {
	if query == config.FlagListAll {
		query = ""
	}
	system := zone.System()

	var b strings.Builder
	for _, name := range zone.Search(query) {
		format := config.FormatZoneListEntry
		if name == system {
			format = config.FormatZoneListSystem
		}
		fmt.Fprintf(&b, format, name)
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("%s: %w", config.ErrOutputWrite, err)
	}
	return nil
}

// printVersion outputs the build information to stdout.
func printVersion() {
	fmt.Printf(config.MsgVersionOutput,
		config.AppName,
		config.Version,
		runtime.GOOS,
		runtime.GOARCH,
	)
}

// logStartupInfo logs environment details useful for debugging.
func logStartupInfo() {
	slog.Info(config.MsgAppStarting,
		config.LogKeyComponent, config.CompMain,
		slog.Group(config.LogKeyBuild,
			slog.String(config.LogKeyApp, config.AppName),
			slog.String(config.LogKeyVersion, config.Version),
			slog.String(config.LogKeyCommit, config.Commit),
			slog.String(config.LogKeyDate, config.Date),
			slog.String(config.LogKeyGoVer, runtime.Version()),
		),
		slog.Group(config.LogKeyEnv,
			slog.String(config.LogKeyOS, runtime.GOOS),
			slog.String(config.LogKeyArch, runtime.GOARCH),
			slog.Int(config.LogKeyPID, os.Getpid()),
		),
	)
}

// setupLogging configures the default slog logger. Logs go to stderr so
// stdout stays reserved for the clock output.
func setupLogging(debugMode bool) io.Closer {
	var writers []io.Writer
	var logFile *os.File

	writers = append(writers, os.Stderr)

	if logPath, err := getLogFilePath(); err == nil {
		// O_TRUNC resets logs on restart to prevent indefinite growth.
		f, err := os.OpenFile(logPath, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, config.FilePermUserRW)
		if err == nil {
			writers = append(writers, f)
			logFile = f
		} else {
			fmt.Fprintf(os.Stderr, config.MsgLogWarning, config.ErrLogFile, logPath, err)
		}
	}

	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: debugMode,
	}

	logger := slog.New(slog.NewJSONHandler(io.MultiWriter(writers...), opts))
	slog.SetDefault(logger)

	if logFile == nil {
		return nil
	}
	return logFile
}

// getLogFilePath determines the platform-specific cache directory for logs.
func getLogFilePath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCacheDir, err)
	}

	appDir := filepath.Join(cacheDir, config.AppID)

	if err := os.MkdirAll(appDir, config.DirPermUserRWX); err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCreateDir, err)
	}

	return filepath.Join(appDir, config.LogFileName), nil
}
