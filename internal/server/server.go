// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the pipeline over HTTP. Each request runs its own
// pipeline cycle and writes its document to a request-scoped file, so
// concurrent requests never share a frequency table or an output path.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/visual-medicine/internal/metrics"
	"github.com/pdiddy/visual-medicine/internal/pipeline"
	"github.com/pdiddy/visual-medicine/pkg/types"
)

// Runner runs one pipeline cycle. *pipeline.Pipeline implements it.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

// Response headers carrying run metadata alongside the document body.
const (
	HeaderStatus     = "X-Pipeline-Status"
	HeaderOutputFile = "X-Output-File"
	HeaderDocuments  = "X-Documents"
)

// Server serves the visualization routes.
type Server struct {
	runner  Runner
	cfg     types.ServerConfig
	words   int
	log     *slog.Logger
	metrics *metrics.Metrics
}

// New returns a Server. cfg supplies the server section and the default
// word count; m may be nil.
func New(runner Runner, cfg types.PipelineConfig, log *slog.Logger, m *metrics.Metrics) *Server {
	return &Server{
		runner:  runner,
		cfg:     cfg.Server,
		words:   cfg.Visualization.Words,
		log:     log.With("component", "server"),
		metrics: m,
	}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/", s.handleIndex)
	r.Get("/visualize", s.handleVisualize)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("http server starting", "addr", s.cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.log.Info("shutting down http server")
		timeout := s.cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

type errorResponse struct {
	Error string `json:"error"`
}

type indexResponse struct {
	Service string            `json:"service"`
	Routes  map[string]string `json:"routes"`
	Default map[string]int    `json:"defaults"`
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, indexResponse{
		Service: "visual-medicine",
		Routes: map[string]string{
			"/visualize": "GET ?disease=<term>&count=<documents>&words=<words>",
			"/healthz":   "GET liveness",
			"/metrics":   "GET Prometheus metrics",
		},
		Default: map[string]int{
			"count": types.DefaultMaxDocuments,
			"words": s.words,
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVisualize(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	disease := strings.TrimSpace(params.Get("disease"))
	if disease == "" {
		disease = strings.TrimSpace(params.Get("term"))
	}

	maxDocs := s.cfg.MaxDocuments
	if maxDocs <= 0 || maxDocs > types.MaxDocuments {
		maxDocs = types.MaxDocuments
	}
	count := clampInt(params.Get("count"), types.DefaultMaxDocuments, maxDocs)
	words := clampInt(params.Get("words"), s.words, 1000)

	q, err := types.NewSearchQuery(disease, count)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	out := filepath.Join(s.cfg.OutputDir, uuid.NewString()+".json")
	res, err := s.runner.Run(r.Context(), pipeline.Request{Query: q, Words: words, OutputPath: out})
	if err != nil {
		s.log.Error("pipeline run failed", "term", disease, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	w.Header().Set(HeaderStatus, string(res.Status))
	w.Header().Set(HeaderDocuments, strconv.Itoa(len(res.IDs)))
	if res.OutputPath != "" {
		w.Header().Set(HeaderOutputFile, filepath.Base(res.OutputPath))
	}

	status := http.StatusOK
	if res.Failed() {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, res.Document)
}

// instrument records per-route request counts and latency.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		s.metrics.RecordRequest(route, strconv.Itoa(code), time.Since(start))
	})
}

func clampInt(raw string, fallback, max int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	if value > max {
		return max
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
