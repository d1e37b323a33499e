package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/lumifin/news-digest/backend/internal/config"
	"github.com/lumifin/news-digest/backend/internal/dedupe"
	"github.com/lumifin/news-digest/backend/internal/digest"
	"github.com/lumifin/news-digest/backend/internal/elasticsearch"
	"github.com/lumifin/news-digest/backend/internal/logger"
	"github.com/lumifin/news-digest/backend/internal/models"
	"github.com/lumifin/news-digest/backend/internal/pipeline"
	"github.com/lumifin/news-digest/backend/internal/refdata"
	"github.com/lumifin/news-digest/backend/internal/reportstore"
)

// rawNews is the wire form of one fetched item on the raw topic. Timestamps
// arrive as strings because fetchers disagree on formats.
type rawNews struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	Source      string `json:"source"`
	PublishTime string `json:"publish_time"`
	URL         string `json:"url"`
}

type recordIndexer interface {
	IndexRecord(ctx context.Context, rec models.NewsRecord, reportDate time.Time) error
}

type reportStore interface {
	Save(report models.DailyReport) error
	Load(date time.Time) (models.DailyReport, error)
}

func main() {
	log := logger.New("worker")
	cfg, err := config.LoadWorker()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	// Reference tables are loaded once; a corrupt table aborts startup since
	// classification without it would be meaningless.
	tables, err := refdata.Load(cfg.RefDataDir)
	if err != nil {
		log.Error("load reference tables", slog.Any("err", err))
		os.Exit(1)
	}

	esClient, err := elasticsearch.New(cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, log)
	if err != nil {
		log.Error("init elasticsearch", slog.Any("err", err))
		os.Exit(1)
	}

	engine := pipeline.New(tables, cfg.PipelineWorkers, log)
	history := dedupe.NewHistory(cfg.HistoryCapacity, cfg.HistoryTTL)
	store := reportstore.New(cfg.ReportDBPath)
	if n := warmHistory(history, store, time.Now().UTC()); n > 0 {
		log.Info("history warmed from stored report", slog.Int("keys", n))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		Topic:          cfg.KafkaTopic,
		GroupID:        cfg.KafkaConsumer,
		MinBytes:       1e3,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit only
	})
	defer reader.Close()

	dlqWriter := kafka.NewWriter(kafka.WriterConfig{
		Brokers:     cfg.KafkaBrokers,
		Topic:       cfg.KafkaTopic + "_dlq",
		MaxAttempts: 3,
	})
	defer dlqWriter.Close()

	log.Info("worker started",
		slog.String("topic", cfg.KafkaTopic),
		slog.String("group", cfg.KafkaConsumer),
		slog.Duration("digest_interval", cfg.DigestInterval),
	)

	items := make(chan models.RawNewsItem)
	go consume(ctx, log, reader, dlqWriter, items)

	w := &worker{
		log:     log,
		engine:  engine,
		history: history,
		indexer: esClient,
		reports: store,
	}

	ticker := time.NewTicker(cfg.DigestInterval)
	defer ticker.Stop()

	var batch []models.RawNewsItem
	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received, flushing batch")
			w.flush(context.Background(), batch)
			return
		case <-ticker.C:
			w.flush(ctx, batch)
			batch = nil
		case item := <-items:
			batch = append(batch, item)
			if len(batch) >= cfg.MaxBatch {
				log.Warn("batch limit reached, flushing early", slog.Int("size", len(batch)))
				w.flush(ctx, batch)
				batch = nil
			}
		}
	}
}

// consume fetches raw items and forwards decodable ones to the batch loop.
// Undecodable payloads go to the DLQ with error context.
func consume(ctx context.Context, log *slog.Logger, reader *kafka.Reader, dlq *kafka.Writer, items chan<- models.RawNewsItem) {
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				log.Info("context canceled, consumer stopping")
				return
			}
			log.Error("fetch message", slog.Any("err", err))
			continue
		}

		item, err := decodeItem(msg.Value)
		if err != nil {
			log.Warn("undecodable payload, sending to DLQ",
				slog.Any("err", err),
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
			)
			dlqMsg := kafka.Message{
				Value: msg.Value,
				Headers: append(msg.Headers,
					kafka.Header{Key: "error", Value: []byte(err.Error())},
					kafka.Header{Key: "timestamp", Value: []byte(time.Now().UTC().Format(time.RFC3339))},
				),
			}
			if dlqErr := dlq.WriteMessages(ctx, dlqMsg); dlqErr != nil {
				log.Error("DLQ write failed", slog.Any("err", dlqErr))
			}
		} else {
			select {
			case items <- item:
			case <-ctx.Done():
				return
			}
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit message", slog.Any("err", err))
		}
	}
}

func decodeItem(payload []byte) (models.RawNewsItem, error) {
	var raw rawNews
	if err := json.Unmarshal(payload, &raw); err != nil {
		return models.RawNewsItem{}, err
	}

	ts := parseTimestamp(raw.PublishTime)
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	return models.RawNewsItem{
		Title:       raw.Title,
		Content:     raw.Content,
		Source:      strings.TrimSpace(raw.Source),
		PublishTime: ts,
		URL:         raw.URL,
	}, nil
}

func parseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}

	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}

	for _, f := range formats {
		if ts, err := time.Parse(f, raw); err == nil {
			return ts
		}
	}

	return time.Time{}
}

// warmHistory reloads the canonical keys already published for the given date
// so a restarted worker does not re-index stories from before the restart. It
// returns the number of keys restored.
func warmHistory(history *dedupe.History, store reportStore, date time.Time) int {
	prev, err := store.Load(date)
	if err != nil {
		return 0
	}
	n := 0
	for _, rec := range digest.Records(prev) {
		if rec.CanonicalKey == "" {
			continue
		}
		history.Remember(rec.CanonicalKey)
		n++
	}
	return n
}

type worker struct {
	log     *slog.Logger
	engine  *pipeline.Engine
	history *dedupe.History
	indexer recordIndexer
	reports reportStore
}

// flush runs the engine over the accumulated batch and publishes the result:
// one daily report in the report store, one document per record in
// Elasticsearch. Records already digested in an earlier run are skipped.
func (w *worker) flush(ctx context.Context, batch []models.RawNewsItem) {
	if len(batch) == 0 {
		w.log.Debug("nothing to flush")
		return
	}

	runID := uuid.NewString()
	reportDate := time.Now().UTC()

	records, stats := w.engine.Process(ctx, batch)

	fresh := make([]models.NewsRecord, 0, len(records))
	for _, rec := range records {
		if w.history.Seen(rec.CanonicalKey) {
			w.log.Debug("already digested", slog.String("key", rec.CanonicalKey))
			continue
		}
		fresh = append(fresh, rec)
	}

	// Intra-day flushes are cumulative: fold the already-published report for
	// this date back in so the digest grows instead of being replaced. The
	// fold re-merges by canonical key; after a restart the history is empty,
	// so a re-scraped story can reach this point and must collapse into its
	// stored twin instead of appearing twice.
	combined := fresh
	if prev, err := w.reports.Load(reportDate); err == nil {
		combined = dedupe.Merge(append(digest.Records(prev), fresh...))
	} else if !errors.Is(err, reportstore.ErrNotFound) {
		w.log.Warn("load existing report", slog.String("run_id", runID), slog.Any("err", err))
	}

	report := digest.Build(combined, reportDate)

	if err := w.reports.Save(report); err != nil {
		w.log.Error("save report", slog.String("run_id", runID), slog.Any("err", err))
		return
	}

	indexed := 0
	for _, rec := range fresh {
		if err := w.indexer.IndexRecord(ctx, rec, reportDate); err != nil {
			w.log.Error("index record",
				slog.String("run_id", runID),
				slog.String("title", rec.Title),
				slog.Any("err", err),
			)
			continue
		}
		indexed++
	}

	for _, rec := range fresh {
		w.history.Remember(rec.CanonicalKey)
	}

	w.log.Info("digest flushed",
		slog.String("run_id", runID),
		slog.Int("received", stats.Received),
		slog.Int("dropped", stats.Dropped),
		slog.Int("merged", stats.Merged),
		slog.Int("published", len(fresh)),
		slog.Int("indexed", indexed),
	)
}
