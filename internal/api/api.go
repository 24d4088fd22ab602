// Package api implements the HTTP API server for triage.
package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sprite-ai/triage/internal/imports"
	"github.com/sprite-ai/triage/internal/selector"
	"github.com/sprite-ai/triage/internal/severity"
	"github.com/sprite-ai/triage/internal/slogutil"
	"github.com/sprite-ai/triage/internal/tier"
)

// RequestIDHeader carries the per-request identifier on every response.
const RequestIDHeader = "X-Request-ID"

// Options configure a Server. Zero values select the defaults for Root.
type Options struct {
	Root          string // project root used for tier config and import scanning
	Classifier    *tier.Classifier
	Imports       selector.ImportAnalyzer
	Severity      selector.SeverityExtractor
	CriticalPaths []string // default selection globs when a request names none
	MaxFiles      int
	Logger        *slog.Logger
}

// Server is the triage HTTP API server.
type Server struct {
	addr          string
	mux           *http.ServeMux
	server        *http.Server
	logger        *slog.Logger
	classifier    *tier.Classifier
	selector      *selector.Selector
	criticalPaths []string
	maxFiles      int
	metrics       *metrics
}

// New creates a new API server.
func New(addr string, opts Options) *Server {
	logger := slogutil.OrDiscard(opts.Logger)
	classifier := opts.Classifier
	if classifier == nil {
		classifier = tier.New(opts.Root, tier.WithLogger(logger))
	}
	importAnalyzer := opts.Imports
	if importAnalyzer == nil {
		importAnalyzer = imports.New(logger)
	}
	extractor := opts.Severity
	if extractor == nil {
		extractor = severity.New()
	}
	criticalPaths := opts.CriticalPaths
	if len(criticalPaths) == 0 {
		criticalPaths = classifier.Config().CriticalPaths
	}

	s := &Server{
		addr:          addr,
		mux:           http.NewServeMux(),
		logger:        logger,
		classifier:    classifier,
		selector:      selector.New(opts.Root, importAnalyzer, extractor, logger),
		criticalPaths: criticalPaths,
		maxFiles:      opts.MaxFiles,
		metrics:       newMetrics(),
	}
	s.registerRoutes()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /api/tier", s.handleTier)
	s.mux.HandleFunc("POST /api/select", s.handleSelect)
	s.mux.HandleFunc("POST /api/parse", s.handleParse)
	s.mux.HandleFunc("GET /api/ws", s.handleWebSocket)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))
}

// ListenAndServe starts the HTTP server and blocks until it stops.
// A Shutdown is not reported as an error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("triage API server listening", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler with request IDs and metrics applied.
func (s *Server) Handler() http.Handler {
	return s.instrument(s.mux)
}

// instrument tags every response with a request ID and records its outcome.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		s.metrics.requests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		s.logger.Debug("handled request",
			"request_id", id,
			"route", route,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// statusRecorder captures the response status. It passes hijacking through
// so WebSocket upgrades keep working.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		s.logger.Warn("json encode error", "error", err)
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// readJSON decodes a JSON request body into v.
func readJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("empty request body")
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}
