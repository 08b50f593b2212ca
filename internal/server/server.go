// Package server exposes the calculator tools over HTTP.
//
//	POST /tool    execute one tool call
//	POST /batch   execute a JSON array of tool calls
//	GET  /schema  tool schema for agent registration
//	GET  /health  liveness check
//	GET  /metrics prometheus metrics
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/njchilds90/latexcalc"
	"github.com/njchilds90/latexcalc/internal/calcerr"
	"github.com/njchilds90/latexcalc/internal/config"
	"github.com/njchilds90/latexcalc/internal/metrics"
)

// Server serves one Calculator.
type Server struct {
	calc    *latexcalc.Calculator
	cfg     config.ServerConfig
	log     *zap.Logger
	metrics *metrics.Metrics
	limiter *rate.Limiter
	started time.Time
}

// New builds a server. m may be nil, in which case /metrics is not mounted.
func New(calc *latexcalc.Calculator, cfg config.ServerConfig, log *zap.Logger, m *metrics.Metrics) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		calc:    calc,
		cfg:     cfg,
		log:     log.Named("http"),
		metrics: m,
		started: time.Now(),
	}
	if cfg.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst)
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID, s.recoverer, s.observe)

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Post("/tool", s.handleTool)
		r.Post("/batch", s.handleBatch)
	})
	r.Get("/schema", s.handleSchema)
	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleTool(w http.ResponseWriter, r *http.Request) {
	var req latexcalc.ToolRequest
	if err := s.decode(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, badRequest(err))
		return
	}

	res, err := s.calc.Execute(r.Context(), req)
	if err != nil {
		s.log.Debug("tool call failed",
			zap.String("request_id", RequestID(r.Context())),
			zap.String("tool", req.Tool),
			zap.Error(err))
		writeJSON(w, statusFor(err), latexcalc.ToolResponse{Error: latexcalc.NewToolError(err)})
		return
	}
	writeJSON(w, http.StatusOK, latexcalc.ToolResponse{Result: res})
}

// handleBatch answers with one response per request, in order. Failed
// calls do not fail the batch.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var reqs []latexcalc.ToolRequest
	if err := s.decode(w, r, &reqs); err != nil {
		writeJSON(w, http.StatusBadRequest, badRequest(err))
		return
	}
	if len(reqs) == 0 || len(reqs) > s.cfg.MaxBatch {
		err := fmt.Errorf("a batch holds 1 to %d requests, got %d", s.cfg.MaxBatch, len(reqs))
		writeJSON(w, http.StatusBadRequest, badRequest(err))
		return
	}

	out := make([]latexcalc.ToolResponse, len(reqs))
	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(max(s.cfg.BatchConcurrency, 1))
	for i, req := range reqs {
		g.Go(func() error {
			out[i] = s.calc.Handle(ctx, req)
			return nil
		})
	}
	_ = g.Wait()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSchema(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = fmt.Fprint(w, latexcalc.ToolSchema())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

// ============================================================
// Encoding
// ============================================================

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if dec.More() {
		return errors.New("invalid JSON: trailing data")
	}
	return nil
}

func badRequest(err error) latexcalc.ToolResponse {
	return latexcalc.ToolResponse{Error: &latexcalc.ToolError{Kind: "bad_request", Message: err.Error()}}
}

// statusFor maps a calculator error to an HTTP status: 408 for timeouts,
// 422 for everything the caller could fix by changing the input.
func statusFor(err error) int {
	switch {
	case errors.Is(err, latexcalc.ErrTimeout):
		return http.StatusRequestTimeout
	case calcerr.KindOf(err) == calcerr.KindUnknown:
		return http.StatusInternalServerError
	}
	return http.StatusUnprocessableEntity
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
