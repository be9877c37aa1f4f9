// Package server serves the documents produced by the tick loop over HTTP.
package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tartampluch/go-dstclock/internal/config"
	"github.com/tartampluch/go-dstclock/internal/metrics"
)

// cacheItem is one immutable published version of a document.
type cacheItem struct {
	data         []byte
	etag         string
	lastModified string // RFC1123, as HTTP headers require
}

// document is a route whose body is swapped atomically by Publish.
type document struct {
	route string
	mime  string
	// cache uses atomic.Pointer for lock-free reads.
	// The snapshot and ledger are republished every tick while clients poll
	// them concurrently; a pointer swap never blocks either side, where a
	// RWMutex would put the tick loop and every GET on the same lock.
	cache atomic.Pointer[cacheItem]
}

// Publisher serves the published documents. The tick loop writes with
// Publish; handlers only ever load complete versions.
type Publisher struct {
	Port string

	docs     map[string]*document
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
}

// New creates a publisher for the calendar, snapshot and ledger documents.
// m and g are optional; without g the /metrics route is not mounted.
func New(port string, m *metrics.Metrics, g prometheus.Gatherer) *Publisher {
	return &Publisher{
		Port: port,
		docs: map[string]*document{
			config.DocTransitions: {route: config.RouteTransitions, mime: config.MimeTextCalendar},
			config.DocSnapshot:    {route: config.RouteSnapshot, mime: config.MimeJSON},
			config.DocLedger:      {route: config.RouteLedger, mime: config.MimeJSON},
		},
		metrics:  m,
		gatherer: g,
	}
}

// Router builds the HTTP handler tree.
func (p *Publisher) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	for name, doc := range p.docs {
		r.HandleFunc(doc.route, p.handleDocument(name, doc))
	}
	if p.gatherer != nil {
		r.Method(http.MethodGet, config.RouteMetrics, promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Start runs the HTTP server and blocks until ctx is cancelled.
func (p *Publisher) Start(ctx context.Context) error {
	if p.Port == "" {
		return errors.New(config.ErrPortRequired)
	}

	srv := &http.Server{
		Addr:         config.LocalhostBindAddr + config.AddrSeparator + p.Port,
		Handler:      p.Router(),
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	serverError := make(chan error, config.ChannelBufferSize)

	go func() {
		slog.Info(config.MsgServerListen,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyPort, p.Port,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info(config.MsgServerStop, config.LogKeyComponent, config.CompServer)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: %w", config.ErrServerShutdown, err)
		}
		return nil

	case err := <-serverError:
		return fmt.Errorf("%s: %w", config.ErrServerStartup, err)
	}
}

// Publish atomically replaces the content of the named document.
func (p *Publisher) Publish(name string, data []byte) error {
	doc, ok := p.docs[name]
	if !ok {
		return fmt.Errorf("%s: %q", config.ErrUnknownDocument, name)
	}

	hash := sha256.Sum256(data)
	item := &cacheItem{
		data:         data,
		etag:         fmt.Sprintf(config.FormatETag, hex.EncodeToString(hash[:])),
		lastModified: time.Now().UTC().Format(http.TimeFormat),
	}
	doc.cache.Store(item)

	if p.metrics != nil {
		p.metrics.ObservePublish(name, len(data))
	}
	slog.Debug(config.MsgCacheUpdated,
		config.LogKeyComponent, config.CompServer,
		config.LogKeyDocument, name,
		config.LogKeySizeBytes, len(data),
		config.LogKeyETag, item.etag,
	)
	return nil
}

func (p *Publisher) handleDocument(name string, doc *document) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		if p.metrics != nil {
			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				p.metrics.ObserveRequest(name, status)
			}()
		}
		serveItem(ww, r, doc)
	}
}

// serveItem writes the current version of doc with conditional GET support.
func serveItem(w http.ResponseWriter, r *http.Request, doc *document) {
	// 1. Method Validation
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set(config.HeaderAllow, config.AllowedMethods)
		http.Error(w, config.HTTPMsgMethodNotAll, http.StatusMethodNotAllowed)
		return
	}

	// 2. Load Data (Atomic / Lock-Free)
	// One Load per request: the headers and body below always describe the
	// same version, even if Publish swaps the pointer meanwhile.
	item := doc.cache.Load()

	// 3. Readiness Check
	// Nothing is stored until the first tick has published.
	if item == nil {
		w.Header().Set(config.HeaderRetryAfter, config.RetryAfterSeconds)
		http.Error(w, config.HTTPMsgInitializing, http.StatusServiceUnavailable)
		return
	}

	// 4. Set Response Headers
	w.Header().Set(config.HeaderContentType, doc.mime)
	w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
	w.Header().Set(config.HeaderCacheControl, config.CacheControlPrivate)
	w.Header().Set(config.HeaderETag, item.etag)
	w.Header().Set(config.HeaderLastModified, item.lastModified)

	// 5. Check Conditional Headers (Browser Caching)
	if match := r.Header.Get(config.HeaderIfNoneMatch); match == item.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	if since := r.Header.Get(config.HeaderIfModifiedSince); since != "" {
		clientTime, err := time.Parse(http.TimeFormat, since)
		if err == nil {
			// Not modified unless the published version is newer than the client's copy.
			if serverTime, err := time.Parse(http.TimeFormat, item.lastModified); err == nil && !serverTime.After(clientTime) {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	}

	// 6. Serve Content
	// HEAD stops after the headers.
	if r.Method == http.MethodGet {
		if _, err := io.Copy(w, bytes.NewReader(item.data)); err != nil {
			slog.Error(config.ErrWriteResp,
				config.LogKeyComponent, config.CompServer,
				config.LogKeyError, err,
			)
		}
	}
}
