package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lumifin/news-digest/backend/internal/config"
	"github.com/lumifin/news-digest/backend/internal/elasticsearch"
	"github.com/lumifin/news-digest/backend/internal/logger"
	"github.com/lumifin/news-digest/backend/internal/reportstore"
)

func main() {
	log := logger.New("retention")
	cfg, err := config.LoadRetention()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Retry Elasticsearch connection with backoff
	var esClient *elasticsearch.Client
	maxRetries := 10
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		esClient, err = elasticsearch.New(cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, log)
		if err != nil {
			log.Warn("failed to create elasticsearch client, retrying",
				slog.Any("err", err),
				slog.Int("attempt", i+1),
				slog.Int("max_retries", maxRetries),
			)
		} else {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			pingErr := esClient.Ping(pingCtx)
			cancel()
			if pingErr == nil {
				break
			}
			log.Warn("elasticsearch ping failed, retrying",
				slog.Any("err", pingErr),
				slog.Int("attempt", i+1),
				slog.Duration("retry_in", retryDelay),
			)
		}

		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			log.Info("shutdown signal received during startup")
			os.Exit(0)
		}
		retryDelay *= 2
		if retryDelay > 30*time.Second {
			retryDelay = 30 * time.Second
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if esClient == nil || esClient.Ping(pingCtx) != nil {
		log.Error("failed to connect to elasticsearch after retries")
		os.Exit(1)
	}

	log.Info("connected to elasticsearch")

	reports := reportstore.New(cfg.ReportDBPath)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	log.Info("retention job running",
		slog.Duration("interval", cfg.Interval),
		slog.Duration("max_age", cfg.MaxAge),
	)

	runOnce(ctx, log, esClient, reports, cfg)

	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received")
			return
		case <-ticker.C:
			runOnce(ctx, log, esClient, reports, cfg)
		}
	}
}

func runOnce(ctx context.Context, log *slog.Logger, esClient *elasticsearch.Client, reports *reportstore.Store, cfg *config.Retention) {
	subCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	deleted, err := esClient.DeleteOlderThan(subCtx, cfg.MaxAge, cfg.BatchSize)
	if err != nil {
		log.Warn("news retention run failed (will retry on next interval)", slog.Any("err", err))
	} else if deleted > 0 {
		log.Info("news retention run completed", slog.Int64("deleted", deleted))
	} else {
		log.Debug("news retention run completed, no old documents found")
	}

	pruned, err := reports.Prune(cfg.MaxAge)
	if err != nil {
		log.Warn("report prune failed (will retry on next interval)", slog.Any("err", err))
		return
	}
	if pruned > 0 {
		log.Info("report prune completed", slog.Int("pruned", pruned))
	}
}
