// Package server hosts the dashboard over HTTP.
//
// Every browser gets its own session (cookie "pengdash_session") owning one
// dashboard graph. Requests for the same session are serialized by the
// session mutex; the dataset is shared read-only by all sessions.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/spektr-org/pengdash/dashboard"
	"github.com/spektr-org/pengdash/dataset"
	"github.com/spektr-org/pengdash/metrics"
)

// Server is the HTTP host. Use New, then Handler or Run.
type Server struct {
	ds       *dataset.Dataset
	defaults dashboard.Selection
	verbose  bool
	metrics  *metrics.Metrics
	sessions *lru.Cache[string, *session]
	handler  http.Handler
}

// Option configures a Server.
type Option func(*options)

type options struct {
	defaults    dashboard.Selection
	maxSessions int
	verbose     bool
	metrics     *metrics.Metrics
}

// WithDefaults sets the selection new sessions start with.
func WithDefaults(sel dashboard.Selection) Option {
	return func(o *options) {
		o.defaults = sel
	}
}

// WithMaxSessions bounds the session cache. The least recently used
// session is dropped when it is full.
func WithMaxSessions(n int) Option {
	return func(o *options) {
		o.maxSessions = n
	}
}

// WithVerbose logs every recomputation cycle of every session.
func WithVerbose(v bool) Option {
	return func(o *options) {
		o.verbose = v
	}
}

// WithMetrics shares a metrics instance with the caller.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// New creates a server for ds.
func New(ds *dataset.Dataset, opts ...Option) (*Server, error) {
	o := &options{
		defaults:    dashboard.DefaultSelection(),
		maxSessions: 1024,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.metrics == nil {
		o.metrics = metrics.New()
	}

	// Fail at startup rather than on the first page load.
	if _, err := dashboard.New(ds, dashboard.WithSelection(o.defaults)); err != nil {
		return nil, fmt.Errorf("default selection: %w", err)
	}

	s := &Server{
		ds:       ds,
		defaults: o.defaults,
		verbose:  o.verbose,
		metrics:  o.metrics,
	}
	cache, err := lru.NewWithEvict(o.maxSessions, func(id string, _ *session) {
		if s.verbose {
			log.Printf("♻️ Pengdash: session %s evicted", shortID(id))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("session cache: %w", err)
	}
	s.sessions = cache
	s.metrics.RecordsLoaded.Set(float64(ds.Len()))
	s.handler = s.instrument(http.HandlerFunc(s.route))
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Metrics returns the collectors the server reports to.
func (s *Server) Metrics() *metrics.Metrics { return s.metrics }

// Run serves on addr until ctx is cancelled, then shuts down gracefully,
// waiting at most grace for in-flight requests.
func (s *Server) Run(ctx context.Context, addr string, grace time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln, grace)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener, grace time.Duration) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("🚀 Pengdash: serving %d records on http://%s", s.ds.Len(), ln.Addr())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		log.Printf("🛑 Pengdash: shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// route dispatches by path, then by method.
func (s *Server) route(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/":
		if !allow(w, r, http.MethodGet) {
			return
		}
		s.handlePage(w, r)
	case "/api/v1/dashboard":
		if !allow(w, r, http.MethodGet) {
			return
		}
		s.handleSnapshot(w, r)
	case "/api/v1/dashboard/inputs":
		if !allow(w, r, http.MethodPost) {
			return
		}
		s.handleInput(w, r)
	case "/api/v1/schema":
		if !allow(w, r, http.MethodGet) {
			return
		}
		s.handleSchema(w, r)
	case "/metrics":
		s.metrics.Handler().ServeHTTP(w, r)
	case "/healthz":
		s.handleHealth(w, r)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func allow(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method || (method == http.MethodGet && r.Method == http.MethodHead) {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

// ── Instrumentation ──────────────────────────────────────────────────────────

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

var knownRoutes = map[string]bool{
	"/": true, "/api/v1/dashboard": true, "/api/v1/dashboard/inputs": true,
	"/api/v1/schema": true, "/metrics": true, "/healthz": true,
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if !knownRoutes[route] {
			route = "other"
		}
		s.metrics.ObserveRequest(route, rec.status)
	})
}
