package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MikeSquared-Agency/mnemosyne/internal/backfill"
	"github.com/MikeSquared-Agency/mnemosyne/internal/rank"
)

const defaultContextLimit = 10

// ContextRetriever serves ranked context for a live query.
type ContextRetriever interface {
	Retrieve(ctx context.Context, chatID, query string, limit int) []rank.Candidate
}

// BackfillRunner runs an embedding backfill to completion.
type BackfillRunner interface {
	Run(ctx context.Context, opts backfill.Options) backfill.Progress
}

type Server struct {
	router    *chi.Mux
	port      int
	retriever ContextRetriever
	backfill  BackfillRunner
	provider  string

	backfillRunning atomic.Bool
}

func NewServer(port int, retriever ContextRetriever, runner BackfillRunner, provider string) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:    router,
		port:      port,
		retriever: retriever,
		backfill:  runner,
		provider:  provider,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/mnemosyne/status", s.status)
	router.Get("/api/v1/mnemosyne/context", s.contextQuery)
	router.Post("/api/v1/mnemosyne/backfill", s.runBackfill)

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	slog.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"agent":            "mnemosyne",
		"status":           "ready",
		"provider":         s.provider,
		"backfill_running": s.backfillRunning.Load(),
	})
}

func (s *Server) contextQuery(w http.ResponseWriter, r *http.Request) {
	chatID := r.URL.Query().Get("chat_id")
	query := r.URL.Query().Get("q")
	if chatID == "" || query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "chat_id and q are required"})
		return
	}

	limit := defaultContextLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	candidates := s.retriever.Retrieve(r.Context(), chatID, query, limit)

	writeJSON(w, http.StatusOK, map[string]any{
		"chat_id":    chatID,
		"query":      query,
		"candidates": candidates,
	})
}

type backfillRequest struct {
	BatchSize    int  `json:"batch_size"`
	BatchDelayMs int  `json:"batch_delay_ms"`
	MaxSessions  int  `json:"max_sessions"`
	MissingOnly  bool `json:"missing_only"`
}

func (s *Server) runBackfill(w http.ResponseWriter, r *http.Request) {
	var req backfillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if !s.backfillRunning.CompareAndSwap(false, true) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "backfill already running"})
		return
	}
	defer s.backfillRunning.Store(false)

	progress := s.backfill.Run(r.Context(), backfill.Options{
		BatchSize:   req.BatchSize,
		BatchDelay:  time.Duration(req.BatchDelayMs) * time.Millisecond,
		MaxSessions: req.MaxSessions,
		MissingOnly: req.MissingOnly,
	})

	writeJSON(w, http.StatusOK, progress)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
