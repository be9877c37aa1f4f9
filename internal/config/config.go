package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName           = "Go DST Clock"
	AppID             = "com.github.tartampluch.go-dstclock"
	LocalhostBindAddr = "127.0.0.1"
	LogFileName       = "app.log"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	FilePermUserRW fs.FileMode = 0600

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	DirPermUserRWX fs.FileMode = 0700

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1
)

// -----------------------------------------------------------------------------
// CLI Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	FlagVersion = "version"
	FlagDebug   = "debug"
	FlagConfig  = "config"
	FlagZone    = "zone"
	FlagAt      = "at"
	FlagSpeed   = "speed"
	FlagOnce    = "once"
	FlagServe   = "serve"
	FlagPort    = "port"
	FlagWindow  = "window"
	FlagLang    = "lang"
	FlagList    = "list-zones"

	FlagDescVersion = "Show application version and exit"
	FlagDescDebug   = "Enable debug logging"
	FlagDescConfig  = "Path to a YAML settings file"
	FlagDescZone    = "IANA time zone identifier (empty for the system zone)"
	FlagDescAt      = "Start the clock at this RFC3339 instant instead of now"
	FlagDescSpeed   = "Clock speed multiplier when --at is used"
	FlagDescOnce    = "Print a single summary and exit"
	FlagDescServe   = "Publish the feed, snapshot and ledger over HTTP"
	FlagDescPort    = "HTTP port used with --serve"
	FlagDescWindow  = "Ledger window in minutes (5, 10, 30 or 60)"
	FlagDescLang    = "Label language (ISO 639-1)"
	FlagDescList    = "List time zone identifiers containing the given text and exit"

	// FlagListAll is the value --list-zones takes when given without one.
	FlagListAll = "*"

	MsgVersionOutput = "%s version %s (%s/%s)\n"
)

// -----------------------------------------------------------------------------
// Default Values & Business Logic
// -----------------------------------------------------------------------------

const (
	DefaultZone          = ""
	DefaultWindowMinutes = 10
	DefaultTickInterval  = 250 * time.Millisecond
	MaxTickInterval      = time.Second // The ledger must observe every wall second.
	DefaultPort          = "18181"
	DefaultLanguage      = "en"
	DefaultFeedDays      = 400
	MaxFeedDays          = 3660
	DefaultSpeed         = 1.0
	UIDSalt              = "go-dstclock-v1-" // Salt for deterministic UID generation
)

// SupportedLanguages defines the list of available label languages (ISO 639-1).
var SupportedLanguages = []string{"en", "fr"}

// LedgerWindows lists the supported ledger time ranges in minutes.
var LedgerWindows = []int{5, 10, 30, 60}

// -----------------------------------------------------------------------------
// Time Engine
// -----------------------------------------------------------------------------

const (
	// ClassifierWindow is how far the classifier looks ahead and behind.
	ClassifierWindow = 24 * time.Hour

	// LocatorResolution bounds the coarse bisection window of the locator.
	LocatorResolution = time.Minute

	// LocatorFineStep is the precision of the refinement pass.
	LocatorFineStep = time.Second

	// DSTReferenceDay and DSTReferenceHour pin the winter/summer sample points
	// (January 15 and July 15 at noon, local time).
	DSTReferenceDay  = 15
	DSTReferenceHour = 12

	// ResolveProbeSpan is the distance used to collect candidate offsets
	// around a wall-clock time.
	ResolveProbeSpan = 24 * time.Hour

	// DaySampleStep is the offset sampling period of the civil day domain.
	DaySampleStep = time.Hour

	// MidnightFallbackHour replaces 00:00 when local midnight is not a single instant.
	MidnightFallbackHour = 1

	SecondsPerMinute = 60
	MinutesPerHour   = 60
	SecondsPerHour   = 3600
	HoursPerHalfDay  = 12
	HoursPerDay      = 24

	// SecondsPerWallDay is the length of the wall-clock face every civil day
	// is drawn on, whatever its elapsed length.
	SecondsPerWallDay = HoursPerDay * SecondsPerHour
)

// -----------------------------------------------------------------------------
// Civil Day Labels
// -----------------------------------------------------------------------------

const (
	PassLabelA = "(A)"
	PassLabelB = "(B)"
)

// -----------------------------------------------------------------------------
// Translation Keys (go-i18n)
// -----------------------------------------------------------------------------

const (
	LocalesDir    = "locales"
	LocalePrefix  = "active."
	LocaleSuffix  = ".json"
	LocaleUnmarsh = "json"

	TKeyChangeNone      = "change_none"
	TKeyChangeForward   = "change_upcoming_forward" // Minutes, When
	TKeyChangeBack      = "change_upcoming_back"    // Minutes, When
	TKeyChangedForward  = "change_just_forward"     // Minutes, When
	TKeyChangedBack     = "change_just_back"        // Minutes, When
	TKeyGapMarker       = "ledger_gap_marker"       // From, To
	TKeyChapterHeader   = "ledger_chapter_header"   // Hour, Blocks, Count (plural)
	TKeyBlockHeader     = "ledger_block_header"     // Minute, Count (plural)
	TKeyBadgeActive     = "badge_active"
	TKeyBadgeGap        = "badge_gap"
	TKeyBadgePass1      = "badge_pass1"
	TKeyBadgePass2      = "badge_pass2"
	TKeyValidityOk      = "validity_ok"
	TKeyValidityMissing = "validity_tz_missing"
	TKeyValidityStale   = "validity_tz_stale"
	TKeyValidityUnknown = "validity_unknown"
	TKeyFeedForward     = "feed_summary_forward" // Zone, From, To
	TKeyFeedBack        = "feed_summary_back"    // Zone, From, To
	TKeyFeedDescription = "feed_description"     // Zone, Delta, FromOffset, ToOffset
	TKeyRangeLabel      = "range_label"          // Minutes
	TKeyDayLength       = "day_length"           // Hours

	// FormatRemaining renders a duration as hours and minutes in change labels.
	FormatRemaining = "%dh%02d"

	// Fallbacks when a translation is missing.
	FallbackFeedForward = "Clocks spring forward in %s (%s → %s)"
	FallbackFeedBack    = "Clocks fall back in %s (%s → %s)"
	FallbackFeedDesc    = "%s: %s → %s"
)

// -----------------------------------------------------------------------------
// Display Formats
// -----------------------------------------------------------------------------

const (
	MeridiemAM = "AM"
	MeridiemPM = "PM"

	FormatClock12     = "%02d:%02d:%02d"
	FormatLedgerStamp = "%02d:%02d:%02d %s"
	FormatUTCOffset   = "UTC%s%02d:%02d"
	FormatWallHM      = "%02d:%02d"
	FormatTwoDigits   = "%02d"
	FormatSignedInt   = "%+d"
	FormatGapStamp    = "%s → %s"
	FormatDateLong    = "%s, %s %d, %d"
	FormatAccessible  = "It is %d %d and %d seconds %s, %s Time."
	FormatHourLabel   = "%d %s"
	FormatRangeLabel  = "%d min"
	FormatChapterHead = "CHAPTER %02d │ %d blocks │ %d entries"
	FormatBlockHead   = "BLOCK %02d │ %d entries"
	SignPlus          = "+"
	SignMinus         = "-"

	// DateFormatRFC3339 parses the --at flag.
	DateFormatRFC3339 = time.RFC3339
)

// -----------------------------------------------------------------------------
// CLI Output
// -----------------------------------------------------------------------------

const (
	FormatOnceZone       = "%s  %s %s  (%s)\n" // zone, offset, abbreviation, validity
	FormatOnceNow        = "%s  %s %s\n"       // date, time, meridiem
	FormatOnceLine       = "%s\n"
	FormatOnceFault      = "  %s %s %+d min\n" // label, wall time, delta
	FormatOnceTransition = "  %s  %s\n"        // local date, summary
	FormatTailEntry      = "%s  %s %-5s %s\n"  // timestamp, offset, abbreviation, badge
	FormatTailMarker     = "%s  %s\n"
	FormatTailNote       = "# %s\n"
	FormatTailRelabel    = "# %d × %s\n"
	PassLabelSeparator   = "/"
	DateFormatOnce       = time.DateOnly
	FormatZoneListEntry  = "%s\n"
	FormatZoneListSystem = "%s  (system)\n"
)

// -----------------------------------------------------------------------------
// Time Zone Database
// -----------------------------------------------------------------------------

const (
	// EnvZoneinfo names an extra zoneinfo directory or zip, searched first.
	EnvZoneinfo = "ZONEINFO"
	EnvTZ       = "TZ"

	ZoneinfoShareDir  = "/usr/share/zoneinfo"
	ZoneinfoLibDir    = "/usr/share/lib/zoneinfo"
	ZoneinfoLocaleDir = "/usr/lib/locale/TZ"
	ZoneinfoLocaltime = "/etc/localtime"
	ZoneinfoMarker    = "zoneinfo/"
	ZoneinfoZipExt    = ".zip"
	// ZoneinfoMagic opens every TZif file.
	ZoneinfoMagic = "TZif"
)

// -----------------------------------------------------------------------------
// Standards: iCalendar
// -----------------------------------------------------------------------------

const (
	// iCal Properties
	ICalVersion   = "2.0"
	ICalProdid    = "-//Go DST Clock//Engine//EN"
	ICalCalName   = "DST Transitions"
	ICalMethod    = "PUBLISH"
	ICalScale     = "GREGORIAN"
	ICalComponent = "VALARM"
	ICalAction    = "DISPLAY"
	ICalDomain    = "godstclock"

	// iCal Fields
	PropUID         = "UID"
	PropSummary     = "SUMMARY"
	PropDTStart     = "DTSTART"
	PropDTStamp     = "DTSTAMP"
	PropRefresh     = "REFRESH-INTERVAL"
	PropAction      = "ACTION"
	PropDescription = "DESCRIPTION"
	PropTrigger     = "TRIGGER"
	PropVersion     = "VERSION"
	PropProdid      = "PRODID"
	PropXWRCalName  = "X-WR-CALNAME"
	PropXWRTimezone = "X-WR-TIMEZONE"
	PropCalScale    = "CALSCALE"
	PropMethod      = "METHOD"

	DefaultICalRefresh = 24 * time.Hour

	// UID Generation
	UIDHashLength   = 16
	FormatHashInput = "%s|%s|%s"
	FormatUID       = "%s@%s"

	// StubVCalendar is the minimal valid iCalendar object used when a zone has no transitions.
	StubVCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + ICalProdid + "\r\nEND:VCALENDAR\r\n"
)

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	ShutdownTimeout    = 5 * time.Second
	ServerReadTimeout  = 10 * time.Second
	ServerWriteTimeout = 30 * time.Second
	ServerIdleTimeout  = 60 * time.Second
	RetryAfterSeconds  = "10"
	AllowedMethods     = "GET, HEAD"
	AddrSeparator      = ":"

	RouteTransitions = "/transitions.ics"
	RouteSnapshot    = "/snapshot"
	RouteLedger      = "/ledger"
	RouteMetrics     = "/metrics"

	// Published documents, one per route.
	DocTransitions = "transitions"
	DocSnapshot    = "snapshot"
	DocLedger      = "ledger"

	MinPort = 1
	MaxPort = 65535
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType     = "Content-Type"
	HeaderCacheControl    = "Cache-Control"
	HeaderETag            = "ETag"
	HeaderLastModified    = "Last-Modified"
	HeaderRetryAfter      = "Retry-After"
	HeaderAllow           = "Allow"
	HeaderXContentType    = "X-Content-Type-Options"
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfModifiedSince = "If-Modified-Since"

	MimeTextCalendar    = "text/calendar; charset=utf-8"
	MimeJSON            = "application/json; charset=utf-8"
	MimeNoSniff         = "nosniff"
	CacheControlPrivate = "private, no-cache"

	// FormatETag expects a string argument.
	FormatETag = `"%s"`
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrConfigRead       = "failed to read settings file"
	ErrConfigParse      = "failed to parse settings file"
	ErrWindowInvalid    = "ledger window must be 5, 10, 30 or 60 minutes"
	ErrTickInvalid      = "tick interval must be positive and at most one second"
	ErrSpeedInvalid     = "clock speed must be positive"
	ErrFeedDaysInvalid  = "feed days must be between 1 and 3660"
	ErrLangUnsupported  = "unsupported label language"
	ErrZoneLoad         = "failed to load time zone"
	ErrAtParse          = "invalid --at instant"
	ErrServerStartup    = "server startup failed"
	ErrServerShutdown   = "server shutdown failed"
	ErrPortRequired     = "server port is required"
	ErrPortNumber       = "server port must be a number"
	ErrPortRange        = "server port must be between 1 and 65535"
	ErrICalEncode       = "failed to encode iCalendar data"
	ErrJSONEncode       = "failed to encode JSON document"
	ErrLogFile          = "failed to open log file"
	ErrCacheDir         = "could not determine user cache dir"
	ErrCreateDir        = "could not create app cache dir"
	ErrAppFailed        = "application failed unexpectedly"
	ErrWriteResp        = "failed to write response body"
	ErrLocalesAccess    = "failed to access embedded locales"
	ErrLocaleLoad       = "failed to load locale file"
	ErrLocNotInit       = "localizer not initialized"
	ErrUnknownDocument  = "unknown published document"
	ErrOutputWrite      = "failed to write output"
	ErrSummaryRendering = "failed to render summary"
	ErrFlagParse        = "failed to parse command line"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgInitializing = "Document initializing, please try again shortly."
	HTTPMsgMethodNotAll = "Method Not Allowed"
)

// -----------------------------------------------------------------------------
// Log Messages
// -----------------------------------------------------------------------------

const (
	MsgAppStarting    = "Starting application"
	MsgAppStop        = "Application stopped gracefully"
	MsgCtxCancel      = "Context cancelled, stopping tick loop"
	MsgServerListen   = "HTTP server listening"
	MsgServerStop     = "Shutting down HTTP server..."
	MsgCacheUpdated   = "Published document updated"
	MsgZoneResolved   = "Time zone resolved"
	MsgZoneDegraded   = "Time zone unavailable, falling back to UTC"
	MsgTickLoopStart  = "Tick loop started"
	MsgLedgerRestart  = "Restarting ledger after clock anomaly"
	MsgLedgerRelabel  = "Fall-back repeat confirmed, entries relabelled"
	MsgLedgerGap      = "Spring-forward gap recorded"
	MsgLedgerAnomaly  = "Non-monotonic instant dropped, ledger needs reset"
	MsgLedgerZone     = "Ledger recomputed for new zone"
	MsgLedgerReset    = "Ledger reset"
	MsgLedgerRange    = "Ledger time range changed"
	MsgOverlapEnter   = "Entering fall-back overlap"
	MsgOverlapExit    = "Leaving fall-back overlap"
	MsgFeedBuilt      = "Transition calendar generated"
	MsgLocaleSkip     = "Skipping non-locale file"
	MsgLocaleBadName  = "Skipping malformed locale filename"
	MsgLocaleLoaded   = "Locale loaded successfully"
	MsgTransMissing   = "Missing translation key"
	MsgSettingsLoaded = "Settings loaded"
	MsgSettingsReload = "Settings reloaded"
	MsgReloadFailed   = "Settings reload failed, keeping current settings"
	MsgLogWarning     = "Warning: %s at %s: %v\n"
	MsgZoneinfoSkip   = "Zone info source unavailable"
	MsgZoneinfoLoaded = "Zone info catalogue loaded"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent = "component"
	LogKeyError     = "error"
	LogKeyFile      = "file"
	LogKeyLang      = "lang"
	LogKeyKey       = "key"
	LogKeyPort      = "port"
	LogKeyZone      = "zone"
	LogKeyValidity  = "validity"
	LogKeyInstant   = "instant"
	LogKeyPrevious  = "previous"
	LogKeyHour      = "hour"
	LogKeyOffset    = "offset_minutes"
	LogKeyCount     = "count"
	LogKeyFrom      = "from"
	LogKeyTo        = "to"
	LogKeyCapacity  = "capacity"
	LogKeyInterval  = "interval"
	LogKeyPath      = "path"
	LogKeySizeBytes = "size_bytes"
	LogKeyETag      = "etag"
	LogKeyDocument  = "document"
	LogKeyDuration  = "duration_ms"
	LogKeyServe     = "serve"

	// Startup Info Keys
	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyCommit  = "commit"
	LogKeyDate    = "date"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompZone   = "zone"
	CompLedger = "ledger"
	CompFeed   = "feed"
	CompServer = "server"
	CompMain   = "main"
	CompI18n   = "i18n"
	CompConfig = "config"
)
