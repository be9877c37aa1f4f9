// Package metrics exposes tick loop and publisher activity to Prometheus.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/tartampluch/go-dstclock/internal/ledger"
	"github.com/tartampluch/go-dstclock/internal/zone"
)

// Metrics holds the collectors of the application.
type Metrics struct {
	Ticks          prometheus.Counter
	LedgerEntries  prometheus.Counter
	GapMarkers     prometheus.Counter
	Relabeled      prometheus.Counter
	Anomalies      prometheus.Counter
	LedgerSize     prometheus.Gauge
	OffsetMinutes  prometheus.Gauge
	ZoneValidity   *prometheus.GaugeVec
	FeedDuration   prometheus.Histogram
	Requests       *prometheus.CounterVec
	PublishedBytes *prometheus.GaugeVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Ticks: f.NewCounter(prometheus.CounterOpts{
			Name: "dstclock_ticks_total",
			Help: "Total number of snapshots fed to the ledger",
		}),
		LedgerEntries: f.NewCounter(prometheus.CounterOpts{
			Name: "dstclock_ledger_entries_total",
			Help: "Total number of ledger entries stored, gap markers included",
		}),
		GapMarkers: f.NewCounter(prometheus.CounterOpts{
			Name: "dstclock_ledger_gap_markers_total",
			Help: "Total number of spring-forward gap markers recorded",
		}),
		Relabeled: f.NewCounter(prometheus.CounterOpts{
			Name: "dstclock_ledger_relabeled_total",
			Help: "Total number of entries relabelled as the first pass of a repeated hour",
		}),
		Anomalies: f.NewCounter(prometheus.CounterOpts{
			Name: "dstclock_ledger_anomalies_total",
			Help: "Total number of ticks dropped because the instant went backwards",
		}),
		LedgerSize: f.NewGauge(prometheus.GaugeOpts{
			Name: "dstclock_ledger_entries",
			Help: "Number of entries currently held by the ledger",
		}),
		OffsetMinutes: f.NewGauge(prometheus.GaugeOpts{
			Name: "dstclock_utc_offset_minutes",
			Help: "UTC offset of the clock zone at the last tick",
		}),
		ZoneValidity: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dstclock_zone_validity",
			Help: "1 for the current validity of the zone data, 0 otherwise",
		}, []string{"validity"}),
		FeedDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "dstclock_feed_build_duration_seconds",
			Help:    "Duration of transition calendar builds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dstclock_http_requests_total",
			Help: "Total number of document requests by route and status code",
		}, []string{"document", "code"}),
		PublishedBytes: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dstclock_published_bytes",
			Help: "Size of the last published version of each document",
		}, []string{"document"}),
	}
}

// ObserveTick records the outcome of one ledger update.
func (m *Metrics) ObserveTick(res ledger.TickResult, size, offsetMinutes int) {
	m.Ticks.Inc()
	if res.Added {
		m.LedgerEntries.Inc()
	}
	if res.GapMarker {
		m.GapMarkers.Inc()
	}
	if res.Anomaly {
		m.Anomalies.Inc()
	}
	m.Relabeled.Add(float64(res.Relabeled))
	m.LedgerSize.Set(float64(size))
	m.OffsetMinutes.Set(float64(offsetMinutes))
}

// SetValidity flags v as the current zone validity.
func (m *Metrics) SetValidity(v zone.Validity) {
	for _, candidate := range []zone.Validity{zone.Ok, zone.TzMissing, zone.TzDataStale, zone.Unknown} {
		value := 0.0
		if candidate == v {
			value = 1
		}
		m.ZoneValidity.WithLabelValues(candidate.String()).Set(value)
	}
}

// ObserveFeedBuild records the duration of a calendar build.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveFeedBuild(start time.Time) {
	m.FeedDuration.Observe(time.Since(start).Seconds())
}

// ObserveRequest counts one served request.
func (m *Metrics) ObserveRequest(document string, status int) {
	m.Requests.WithLabelValues(document, strconv.Itoa(status)).Inc()
}

// ObservePublish records the size of a freshly published document.
func (m *Metrics) ObservePublish(document string, size int) {
	m.PublishedBytes.WithLabelValues(document).Set(float64(size))
}
