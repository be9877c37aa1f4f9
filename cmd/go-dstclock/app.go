package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tartampluch/go-dstclock/internal/civilday"
	"github.com/tartampluch/go-dstclock/internal/config"
	"github.com/tartampluch/go-dstclock/internal/engine"
	"github.com/tartampluch/go-dstclock/internal/feed"
	"github.com/tartampluch/go-dstclock/internal/labels"
	"github.com/tartampluch/go-dstclock/internal/ledger"
	"github.com/tartampluch/go-dstclock/internal/metrics"
	"github.com/tartampluch/go-dstclock/internal/server"
	"github.com/tartampluch/go-dstclock/internal/zone"
)

// app wires the tick loop. It owns the ledger; the publisher only ever sees
// encoded documents.
type app struct {
	settings config.Settings
	zone     zone.Zone
	clock    engine.Clock
	labels   *labels.Translator
	metrics  *metrics.Metrics
	registry *prometheus.Registry
	ledger   *ledger.Ledger
	feed     *feed.Generator
	pub      *server.Publisher
	out      io.Writer

	// loadSettings re-reads the settings on SIGHUP; nil disables reloading.
	loadSettings func() (config.Settings, error)

	lastChange engine.ChangeKind
	feedDate   time.Time // local date of the last calendar build, at UTC midnight
}

// snapshotDocument is the body of the snapshot route.
type snapshotDocument struct {
	Snapshot engine.TimeSnapshot     `json:"snapshot"`
	Change   string                  `json:"change"`
	Validity string                  `json:"validity"`
	Day      civilday.Domain         `json:"day"`
	DayLabel string                  `json:"day_label"`
	Hours    []civilday.HourBoundary `json:"hours"`
}

type chapterDocument struct {
	ledger.Chapter
	Header string `json:"header"`
}

// ledgerDocument is the body of the ledger route.
type ledgerDocument struct {
	Zone      string            `json:"zone"`
	TimeRange string            `json:"time_range"`
	Capacity  int               `json:"capacity"`
	Anomalous bool              `json:"anomalous"`
	Chapters  []chapterDocument `json:"chapters"`
}

func run(ctx context.Context, s config.Settings, opts cliOptions, out io.Writer) error {
	clock, err := opts.clock()
	if err != nil {
		return err
	}

	a, err := newApp(s, clock, out)
	if err != nil {
		return err
	}

	if opts.once {
		return a.printSummary()
	}
	if opts.serve {
		a.pub = server.New(s.Port, a.metrics, a.registry)
	}
	a.loadSettings = opts.settings
	return a.loop(ctx)
}

func newApp(s config.Settings, clock engine.Clock, out io.Writer) (*app, error) {
	window, err := ledger.ParseTimeRange(s.WindowMinutes)
	if err != nil {
		return nil, err
	}

	z := zone.Resolve(s.Zone)
	tr := labels.New(s.Language)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.SetValidity(z.Validity())

	return &app{
		settings: s,
		zone:     z,
		clock:    clock,
		labels:   tr,
		metrics:  m,
		registry: reg,
		ledger:   ledger.New(z, ledger.WithTimeRange(window)),
		feed: &feed.Generator{
			Clock:             clock,
			FormatSummary:     tr.TransitionSummary,
			FormatDescription: tr.TransitionDescription,
		},
		out:        out,
		lastChange: engine.ChangeNone,
	}, nil
}

// loop ticks until ctx is cancelled. With a publisher, the HTTP server runs
// alongside and its shutdown is awaited before returning.
func (a *app) loop(ctx context.Context) error {
	serverErr := make(chan error, config.ChannelBufferSize)
	if a.pub != nil {
		go func() {
			serverErr <- a.pub.Start(ctx)
		}()
	}

	slog.Info(config.MsgTickLoopStart,
		config.LogKeyComponent, config.CompMain,
		config.LogKeyZone, a.zone.Name(),
		config.LogKeyValidity, a.zone.Validity().String(),
		config.LogKeyInterval, a.settings.TickInterval.String(),
		config.LogKeyServe, a.pub != nil,
	)

	ticker := time.NewTicker(a.settings.TickInterval)
	defer ticker.Stop()

	hup := make(chan os.Signal, config.ChannelBufferSize)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			slog.Info(config.MsgCtxCancel, config.LogKeyComponent, config.CompMain)
			if a.pub != nil {
				return <-serverErr
			}
			return nil

		case err := <-serverErr:
			return err

		case <-hup:
			a.reload()
			ticker.Reset(a.settings.TickInterval)

		case <-ticker.C:
			// A build interrupted by shutdown is not a failure.
			if err := a.tick(ctx); err != nil && ctx.Err() == nil {
				return err
			}
		}
	}
}

// reload re-reads the settings. A file that no longer loads or validates
// leaves the running settings untouched.
func (a *app) reload() {
	if a.loadSettings == nil {
		return
	}
	s, err := a.loadSettings()
	if err == nil {
		err = a.apply(s)
	}
	if err != nil {
		slog.Warn(config.MsgReloadFailed,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyError, err,
		)
	}
}

// apply switches the running session to s. The ledger is recomputed in place
// rather than rebuilt, so its history and markers survive a zone change. The
// listening port only changes on restart.
func (a *app) apply(s config.Settings) error {
	window, err := ledger.ParseTimeRange(s.WindowMinutes)
	if err != nil {
		return err
	}

	if s.Zone != a.settings.Zone {
		a.zone = zone.Resolve(s.Zone)
		a.ledger.SetZone(a.zone)
		a.metrics.SetValidity(a.zone.Validity())
		a.lastChange = engine.ChangeNone
	}
	if window != a.ledger.TimeRange() {
		a.ledger.SetTimeRange(window)
	}
	if s.Language != a.labels.Language() {
		a.labels.SetLanguage(s.Language)
	}

	// Force a calendar rebuild on the next publish.
	a.feedDate = time.Time{}

	s.Port = a.settings.Port
	a.settings = s

	slog.Info(config.MsgSettingsReload,
		config.LogKeyComponent, config.CompMain,
		config.LogKeyZone, a.zone.Name(),
		config.LogKeyValidity, a.zone.Validity().String(),
		config.LogKeyLang, a.labels.Language(),
		config.LogKeyInterval, s.TickInterval.String(),
	)
	return nil
}

// tick samples the clock once, feeds the ledger and reports what changed.
func (a *app) tick(ctx context.Context) error {
	snap := engine.Build(a.clock.Now(), a.zone)
	res := a.ledger.Update(snap)
	a.metrics.ObserveTick(res, a.ledger.Len(), snap.OffsetMinutes)

	if res.Anomaly {
		slog.Warn(config.MsgLedgerRestart,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyInstant, snap.Instant,
		)
		a.ledger.Reset()
		return nil
	}
	if !res.Added {
		return nil
	}

	if err := a.printTick(snap, res); err != nil {
		return err
	}
	if a.pub == nil {
		return nil
	}
	return a.publish(ctx, snap)
}

// printTick writes the newest ledger entry, preceded by a note when the
// classifier verdict changed or earlier entries were relabelled.
func (a *app) printTick(snap engine.TimeSnapshot, res ledger.TickResult) error {
	var b strings.Builder

	if snap.Change.Kind != a.lastChange {
		a.lastChange = snap.Change.Kind
		fmt.Fprintf(&b, config.FormatTailNote, a.labels.Change(snap.Change, snap.Instant))
	}
	if res.Relabeled > 0 {
		fmt.Fprintf(&b, config.FormatTailRelabel, res.Relabeled,
			a.labels.Badge(ledger.Badge{Kind: ledger.BadgeOverlapPass1}))
	}

	if e, ok := a.ledger.Latest(); ok {
		if e.Badge.Kind == ledger.BadgeGapMarker {
			fmt.Fprintf(&b, config.FormatTailMarker, e.Timestamp, a.labels.GapMarker(e.Badge))
		} else {
			fmt.Fprintf(&b, config.FormatTailEntry, e.Timestamp, e.Offset, e.Abbreviation, a.labels.Badge(e.Badge))
		}
	}

	if _, err := io.WriteString(a.out, b.String()); err != nil {
		return fmt.Errorf("%s: %w", config.ErrOutputWrite, err)
	}
	return nil
}

// publish encodes the snapshot and ledger documents, and rebuilds the
// calendar once per local day.
func (a *app) publish(ctx context.Context, snap engine.TimeSnapshot) error {
	day := civilday.Compute(snap.Instant, a.zone)
	if err := a.publishJSON(config.DocSnapshot, snapshotDocument{
		Snapshot: snap,
		Change:   a.labels.Change(snap.Change, snap.Instant),
		Validity: a.labels.Validity(snap.Validity),
		Day:      day,
		DayLabel: a.labels.DayLength(day.DayLengthSeconds),
		Hours:    day.HourBoundaries(),
	}); err != nil {
		return err
	}

	chapters := a.ledger.Chapters()
	doc := ledgerDocument{
		Zone:      a.zone.Name(),
		TimeRange: a.labels.TimeRange(a.ledger.TimeRange()),
		Capacity:  a.ledger.Cap(),
		Anomalous: a.ledger.Anomalous(),
		Chapters:  make([]chapterDocument, 0, len(chapters)),
	}
	for _, c := range chapters {
		doc.Chapters = append(doc.Chapters, chapterDocument{Chapter: c, Header: a.labels.ChapterHeader(c)})
	}
	if err := a.publishJSON(config.DocLedger, doc); err != nil {
		return err
	}

	date := time.Date(snap.Year, snap.Month, snap.Day, 0, 0, 0, 0, time.UTC)
	if date.Equal(a.feedDate) {
		return nil
	}
	if err := a.publishFeed(ctx); err != nil {
		return err
	}
	a.feedDate = date
	return nil
}

func (a *app) publishJSON(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrJSONEncode, err)
	}
	return a.pub.Publish(name, data)
}

func (a *app) publishFeed(ctx context.Context) error {
	start := time.Now()
	data, _, err := a.feed.Build(ctx, a.zone, feed.Options{
		Days:            a.settings.FeedDays,
		ReminderTrigger: a.settings.Reminder,
	})
	if err != nil {
		return err
	}
	a.metrics.ObserveFeedBuild(start)
	return a.pub.Publish(config.DocTransitions, data)
}

// printSummary writes the one-shot report: the zone, the local time, the
// classifier verdict, today's faults and the upcoming transitions.
func (a *app) printSummary() error {
	now := a.clock.Now()
	snap := engine.Build(now, a.zone)
	day := civilday.Compute(now, a.zone)

	var b strings.Builder
	fmt.Fprintf(&b, config.FormatOnceZone, snap.ZoneName, snap.FormatUTCOffset(), snap.Abbreviation, a.labels.Validity(snap.Validity))
	fmt.Fprintf(&b, config.FormatOnceNow, snap.FormatDate(), snap.FormatTime(), snap.Meridiem)
	fmt.Fprintf(&b, config.FormatOnceLine, a.labels.Change(snap.Change, now))
	fmt.Fprintf(&b, config.FormatOnceLine, a.labels.DayLength(day.DayLengthSeconds))

	for _, f := range day.Faults {
		label := a.labels.Badge(ledger.Badge{Kind: ledger.BadgeGapMarker})
		if f.Overlap() {
			label = strings.Join(f.PassLabels, config.PassLabelSeparator)
		}
		before := a.zone.OffsetMinutes(f.Transition.Add(-config.LocatorFineStep))
		fmt.Fprintf(&b, config.FormatOnceFault, label, engine.FormatWallHM(f.Transition, before), f.DeltaMinutes)
	}

	for _, tr := range engine.Transitions(a.zone, now, now.AddDate(0, 0, a.settings.FeedDays)) {
		date := engine.Wall(a.zone, tr.Instant).Format(config.DateFormatOnce)
		fmt.Fprintf(&b, config.FormatOnceTransition, date, a.labels.TransitionSummary(a.zone.Name(), tr))
	}

	if _, err := io.WriteString(a.out, b.String()); err != nil {
		return fmt.Errorf("%s: %w", config.ErrSummaryRendering, err)
	}
	return nil
}
