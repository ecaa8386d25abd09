// Package server exposes the scheduler-facing trigger endpoint.
//
// POST /run executes one batch step and returns the JSON summary; the
// scheduler re-invokes with the returned next_offset until the run reports
// complete. GET /healthz reports database reachability.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/knaito/opcg-pricewatch/internal/model"
)

// BatchRunner executes one batch step.
type BatchRunner interface {
	Run(ctx context.Context, offset int) (model.RunSummary, error)
}

// Pinger verifies a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server handles trigger requests.
type Server struct {
	runner BatchRunner
	db     Pinger
	secret string
	logger *slog.Logger
}

// New creates a Server. secret must be non-empty; the constructor does not
// enforce it because config validation already has.
func New(runner BatchRunner, db Pinger, secret string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		runner: runner,
		db:     db,
		secret: secret,
		logger: logger,
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /run", s.handleRun)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			http.Error(w, "invalid offset", http.StatusBadRequest)
			return
		}
		offset = v
	}

	summary, err := s.runner.Run(r.Context(), offset)
	if err != nil {
		s.logger.Error("batch run aborted", "offset", offset, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "batch aborted",
		})
		return
	}

	status := http.StatusOK
	if !summary.Complete {
		// Partial run: the scheduler should re-invoke with next_offset.
		status = http.StatusAccepted
	}
	writeJSON(w, status, summary)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}{Status: "healthy", Database: "connected"}

	code := http.StatusOK
	if err := s.db.Ping(ctx); err != nil {
		health.Status = "unhealthy"
		health.Database = "disconnected"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, health)
}

func (s *Server) authorized(r *http.Request) bool {
	const prefix = "Bearer "
	auth := r.Header.Get("Authorization")
	if len(auth) <= len(prefix) || auth[:len(prefix)] != prefix {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(auth[len(prefix):]), []byte(s.secret)) == 1
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
