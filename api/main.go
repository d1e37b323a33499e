package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lumifin/news-digest/backend/internal/config"
	"github.com/lumifin/news-digest/backend/internal/elasticsearch"
	"github.com/lumifin/news-digest/backend/internal/logger"
	"github.com/lumifin/news-digest/backend/internal/models"
	"github.com/lumifin/news-digest/backend/internal/reportstore"
)

func main() {
	log := logger.New("api")
	cfg, err := config.LoadAPI()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	esClient, err := elasticsearch.New(cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, log)
	if err != nil {
		log.Error("init elasticsearch", slog.Any("err", err))
		os.Exit(1)
	}

	srv := &server{
		log:     log,
		cfg:     cfg,
		es:      esClient,
		reports: reportstore.New(cfg.ReportDBPath),
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", srv.handleHealth)
	r.Get("/digest", srv.handleDigest)
	r.Get("/news", srv.handleSearch)

	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	go func() {
		log.Info("api server starting", slog.String("addr", cfg.BindAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", slog.Any("err", err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", slog.Any("err", err))
	}
}

type server struct {
	log     *slog.Logger
	cfg     *config.API
	es      *elasticsearch.Client
	reports *reportstore.Store
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.es.Health(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleDigest serves one day's structured report. Defaults to today (UTC)
// when no date is given.
func (s *server) handleDigest(w http.ResponseWriter, r *http.Request) {
	date := time.Now().UTC()
	if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
		parsed, err := time.Parse(reportstore.DateKey, raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "date must be YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	report, err := s.reports.Load(date)
	if err != nil {
		if errors.Is(err, reportstore.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "no digest for that date"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	q := r.URL.Query()

	params := elasticsearch.SearchParams{
		Query:    strings.TrimSpace(q.Get("q")),
		Category: models.Category(strings.TrimSpace(q.Get("category"))),
		Industry: strings.TrimSpace(q.Get("industry")),
		Source:   strings.TrimSpace(q.Get("source")),
		Keyword:  strings.TrimSpace(q.Get("keyword")),
		Date:     strings.TrimSpace(q.Get("date")),
		From:     clampInt(q.Get("from"), 0, 10_000),
		Size:     clampInt(q.Get("size"), s.cfg.DefaultPage, s.cfg.MaxPage),
		Sort:     strings.TrimSpace(q.Get("sort")),
	}

	if start := parseTime(q.Get("start")); start != nil {
		params.Start = start
	}
	if end := parseTime(q.Get("end")); end != nil {
		params.End = end
	}

	result, err := s.es.SearchRecords(ctx, params)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func parseTime(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return &ts
	}
	return nil
}

func clampInt(raw string, fallback, max int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	if value <= 0 {
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
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// nothing better to do
	}
}
