// Package api serves scanner status, candidates and the candidate stream over HTTP.
package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"graduation-scanner/internal/domain"
	"graduation-scanner/internal/observability"
	"graduation-scanner/internal/orchestrator"
)

// Runner is the part of *orchestrator.Orchestrator the API drives.
type Runner interface {
	TryRun(ctx context.Context, preset string) (*orchestrator.RunResult, error)
	Last() *orchestrator.RunResult
	ClearSeen()
	Status() orchestrator.Status
}

// Options configures the API server.
type Options struct {
	Addr         string
	Stream       http.Handler // nil disables /ws
	ScanTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Logger       zerolog.Logger
}

// DefaultOptions returns default server options.
func DefaultOptions() Options {
	return Options{
		Addr:         ":8080",
		ScanTimeout:  60 * time.Second,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 90 * time.Second,
		Logger:       zerolog.Nop(),
	}
}

// Server is the HTTP front of the scanner.
type Server struct {
	runner  Runner
	opts    Options
	router  *mux.Router
	started time.Time
	server  *http.Server
}

// NewServer creates the server and its routes.
func NewServer(runner Runner, opts Options) *Server {
	if opts.ScanTimeout <= 0 {
		opts.ScanTimeout = DefaultOptions().ScanTimeout
	}

	s := &Server{
		runner:  runner,
		opts:    opts,
		router:  mux.NewRouter(),
		started: time.Now(),
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.router,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", observability.Handler()).Methods(http.MethodGet)
	s.router.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/candidates", s.handleCandidates).Methods(http.MethodGet)
	api.HandleFunc("/scan", s.handleScan).Methods(http.MethodPost)
	api.HandleFunc("/seen", s.handleClearSeen).Methods(http.MethodDelete)
	api.HandleFunc("/presets", s.handlePresets).Methods(http.MethodGet)

	if s.opts.Stream != nil {
		s.router.Handle("/ws", s.opts.Stream).Methods(http.MethodGet)
	}

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
}

// ListenAndServe serves until Shutdown.
func (s *Server) ListenAndServe() error {
	s.opts.Logger.Info().Str("addr", s.opts.Addr).Msg("starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type statusResponse struct {
	orchestrator.Status
	Uptime string `json:"uptime"`
}

type candidatesResponse struct {
	Preset     string             `json:"preset,omitempty"`
	ScannedAt  time.Time          `json:"scanned_at,omitempty"`
	Count      int                `json:"count"`
	Candidates []domain.Candidate `json:"candidates"`
}

type clearSeenResponse struct {
	Cleared int `json:"cleared"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Status: s.runner.Status(),
		Uptime: time.Since(s.started).Round(time.Second).String(),
	})
}

// handleCandidates returns the last run's candidates. ?passing=true keeps
// only those that passed the filter.
func (s *Server) handleCandidates(w http.ResponseWriter, r *http.Request) {
	last := s.runner.Last()
	if last == nil {
		writeJSON(w, http.StatusOK, candidatesResponse{Candidates: []domain.Candidate{}})
		return
	}

	writeJSON(w, http.StatusOK, toCandidatesResponse(last, r.URL.Query().Get("passing") == "true"))
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.opts.ScanTimeout)
	defer cancel()

	result, err := s.runner.TryRun(ctx, r.URL.Query().Get("preset"))
	switch {
	case errors.Is(err, orchestrator.ErrUnknownPreset):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, orchestrator.ErrScanRunning):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toCandidatesResponse(result, false))
}

func (s *Server) handleClearSeen(w http.ResponseWriter, _ *http.Request) {
	n := s.runner.Status().SeenMints
	s.runner.ClearSeen()
	writeJSON(w, http.StatusOK, clearSeenResponse{Cleared: n})
}

func (s *Server) handlePresets(w http.ResponseWriter, _ *http.Request) {
	presets := make(map[string]domain.GraduationFilter)
	for _, name := range domain.PresetNames() {
		presets[name], _ = domain.FilterPreset(name)
	}
	writeJSON(w, http.StatusOK, presets)
}

func toCandidatesResponse(run *orchestrator.RunResult, passingOnly bool) candidatesResponse {
	out := make([]domain.Candidate, 0, len(run.Candidates))
	for _, c := range run.Candidates {
		if passingOnly && !c.Passes {
			continue
		}
		out = append(out, c)
	}
	return candidatesResponse{
		Preset:     run.Preset,
		ScannedAt:  run.StartedAt,
		Count:      len(out),
		Candidates: out,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

type requestIDKey struct{}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()[:8]
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		id, _ := r.Context().Value(requestIDKey{}).(string)
		s.opts.Logger.Debug().
			Str("request_id", id).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack lets /ws upgrade through the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}
