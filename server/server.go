package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/rbdcsite/shelfeed/config"
	"github.com/rbdcsite/shelfeed/fetcher/types"
	"github.com/rbdcsite/shelfeed/filter"
	"github.com/rbdcsite/shelfeed/parser"
)

const (
	invalidSourceMessage = "Invalid source. Use ?source=diary or ?source=books"
	cacheControl         = "public, s-maxage=3600"
)

// Response is the JSON body of a successful feed request
type Response struct {
	Source types.Source     `json:"source"`
	Items  []types.FeedItem `json:"items"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server answers feed requests using the sources of its config
type Server struct {
	cfg     config.Config
	fetcher types.FeedFetcher
	filters *filter.FilterPipeline
	logger  *zap.Logger
}

// New creates a server. The config is used as is; environment lookups
// must already be resolved.
func New(cfg config.Config, f types.FeedFetcher, logger *zap.Logger) (*Server, error) {
	filters, err := filter.NewFilterPipeline(cfg.Filters)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize filters: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{cfg: cfg, fetcher: f, filters: filters, logger: logger}, nil
}

// Handler returns the routes of the server wrapped with request logging
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	route := s.cfg.Route
	if route == "" {
		route = "/"
	}
	mux.HandleFunc(route, s.handleFeed)
	mux.HandleFunc("/healthz", s.handleHealth)
	return s.accessLog(mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", s.cfg.Listen, "route", s.cfg.Route)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	query := r.URL.Query()
	source, ok := types.ParseSource(query.Get("source"))
	var sc config.SourceConfig
	if ok {
		sc, ok = s.cfg.Source(source)
	}
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: invalidSourceMessage})
		return
	}

	requested, _ := strconv.Atoi(query.Get("limit"))
	limit := sc.EffectiveLimit(requested)

	body, err := s.fetcher.Fetch(r.Context(), sc.FeedURL)
	if err != nil {
		slog.Error("feed fetch failed", "source", source, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	items := parser.Extract(body, source, limit)
	items = s.filters.Apply(items, sc.FilterNames)

	w.Header().Set("Cache-Control", cacheControl)
	writeJSON(w, http.StatusOK, Response{Source: source, Items: items})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}
