// Package server exposes the chat turn and the knowledge admin operations over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tour_guide_rag/internal/ingest"
	"tour_guide_rag/internal/vectorstore"
	"tour_guide_rag/pkg"

	"github.com/bytedance/sonic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 4 << 20

type Chatter interface {
	Chat(ctx context.Context, tourContext string, history []pkg.ChatTurn) pkg.ChatResponse
}

// Searcher runs a raw similarity search for a text query.
type Searcher interface {
	Search(ctx context.Context, text string, limit int) ([]string, error)
}

type Syncer interface {
	SyncAll(ctx context.Context, c *ingest.Catalogue) (int, error)
}

// Options configures a Server. Search and Sync may be nil; their endpoints
// then answer 503.
type Options struct {
	Addr            string
	ShutdownTimeout time.Duration
	Chat            Chatter
	Search          Searcher
	Sync            Syncer
	Log             zerolog.Logger
}

type Server struct {
	opt Options
	log zerolog.Logger
}

func New(opt Options) *Server {
	if opt.ShutdownTimeout <= 0 {
		opt.ShutdownTimeout = 10 * time.Second
	}
	return &Server{opt: opt, log: opt.Log}
}

// Handler returns the routed handler wrapped in the request id and access log middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /tour-guide/chat", s.handleChat)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /admin/rag/search", s.handleSearch)
	mux.HandleFunc("POST /admin/rag/sync", s.handleSync)
	return requestID(accessLog(s.log, mux))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opt.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.opt.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opt.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req pkg.ChatRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.opt.Chat.Chat(r.Context(), req.TourContext, req.History))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, pkg.HealthResponse{Status: "ok"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.opt.Search == nil {
		writeError(w, http.StatusServiceUnavailable, "vector search is not configured")
		return
	}
	q := r.URL.Query().Get("q")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	contents, err := s.opt.Search.Search(r.Context(), q, limit)
	switch {
	case errors.Is(err, vectorstore.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "vector search is not configured")
		return
	case err != nil:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("knowledge search failed")
		writeError(w, http.StatusBadGateway, "knowledge search failed")
		return
	}
	if contents == nil {
		contents = []string{}
	}
	writeJSON(w, http.StatusOK, contents)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if s.opt.Sync == nil {
		writeError(w, http.StatusServiceUnavailable, "knowledge sync is not configured")
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	catalogue, err := ingest.ParseCatalogue(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	n, err := s.opt.Sync.SyncAll(r.Context(), catalogue)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Int("stored", n).Msg("knowledge sync failed")
		writeError(w, http.StatusBadGateway, "knowledge sync failed")
		return
	}
	writeJSON(w, http.StatusOK, pkg.SyncResponse{EmbeddingsCount: n})
}

func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if strings.TrimSpace(string(body)) == "" {
		return errors.New("request body is empty")
	}
	if err := sonic.Unmarshal(body, v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, pkg.ErrorResponse{Error: msg})
}
