package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/claritycheck/claritycheck/internal/alert"
	"github.com/claritycheck/claritycheck/internal/analyzer"
	"github.com/claritycheck/claritycheck/internal/detect"
	"github.com/claritycheck/claritycheck/internal/pipeline"
	"github.com/claritycheck/claritycheck/internal/snapshot"
)

// Server is the HTTP surface: full URL analysis backed by the render
// pipeline, and direct snapshot analysis for callers that already hold
// renderer output.
type Server struct {
	pipeline *pipeline.Pipeline
	analyzer *analyzer.Analyzer
	alerts   *alert.Publisher
	http     *http.Server
}

func New(addr string, p *pipeline.Pipeline, a *analyzer.Analyzer, alerts *alert.Publisher) *Server {
	s := &Server{
		pipeline: p,
		analyzer: a,
		alerts:   alerts,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Get("/health", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/analyze/snapshot", s.handleAnalyzeSnapshot)
	})

	s.http = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
	}
	return s
}

func (s *Server) Start() error {
	log.Info().Str("addr", s.http.Addr).Msg("HTTP server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

type analyzeRequest struct {
	URL           string         `json:"url"`
	TextScore     float64        `json:"text_score"`
	TextIssues    []detect.Issue `json:"text_issues,omitempty"`
	Accessibility []detect.Issue `json:"accessibility_issues,omitempty"`
	CTA           []detect.Issue `json:"cta_issues,omitempty"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	run, err := s.pipeline.Run(r.Context(), req.URL, pipeline.External{
		TextScore:     req.TextScore,
		Text:          req.TextIssues,
		Accessibility: req.Accessibility,
		CTA:           req.CTA,
	})
	if err != nil {
		log.Error().Err(err).Str("url", req.URL).Msg("Analysis failed")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	s.alerts.Publish(r.Context(), run.Combined)
	writeJSON(w, http.StatusOK, run)
}

type snapshotRequest struct {
	Snapshot *snapshot.RawSnapshot `json:"snapshot"`
}

func (s *Server) handleAnalyzeSnapshot(w http.ResponseWriter, r *http.Request) {
	var req snapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Snapshot == nil {
		writeError(w, http.StatusBadRequest, "snapshot is required")
		return
	}

	rep, err := s.analyzer.AnalyzeRaw(r.Context(), req.Snapshot)
	if err != nil {
		if errors.Is(err, snapshot.ErrInvalidViewport) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		log.Error().Err(err).Msg("Snapshot analysis failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
