// Package pipeline wires the engine stages together: normalize, dedupe,
// extract, classify, aggregate. A run is a pure function of the input batch
// and the reference tables loaded at startup.
package pipeline

import (
	"context"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lumifin/news-digest/backend/internal/classify"
	"github.com/lumifin/news-digest/backend/internal/dedupe"
	"github.com/lumifin/news-digest/backend/internal/digest"
	"github.com/lumifin/news-digest/backend/internal/extract"
	"github.com/lumifin/news-digest/backend/internal/models"
	"github.com/lumifin/news-digest/backend/internal/processing"
	"github.com/lumifin/news-digest/backend/internal/refdata"
)

// Stats reports per-run observability counters.
type Stats struct {
	Received int // raw items supplied
	Dropped  int // malformed items excluded from the batch
	Merged   int // duplicate records collapsed by dedup
	Unique   int // records in the final report
}

// Engine runs the processing stages over one batch. Construct once; safe for
// concurrent runs since all state is read-only.
type Engine struct {
	extractor  *extract.Extractor
	classifier *classify.Classifier
	workers    int
	log        *slog.Logger
}

// New builds an Engine over the given reference tables. workers caps the
// extract/classify fan-out; values below 1 mean sequential.
func New(tables *refdata.Tables, workers int, log *slog.Logger) *Engine {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		extractor:  extract.New(tables),
		classifier: classify.New(tables),
		workers:    workers,
		log:        log,
	}
}

// Process normalizes, de-duplicates, and enriches a raw batch. Malformed items
// are dropped and counted, never failing the run. The returned order is the
// dedup stage's deterministic order (publish time ascending).
func (e *Engine) Process(ctx context.Context, batch []models.RawNewsItem) ([]models.NewsRecord, Stats) {
	stats := Stats{Received: len(batch)}

	records := make([]models.NewsRecord, 0, len(batch))
	for _, raw := range batch {
		rec, err := processing.Normalize(raw)
		if err != nil {
			stats.Dropped++
			e.log.Debug("dropped malformed item",
				slog.String("source", raw.Source),
				slog.String("url", raw.URL),
			)
			continue
		}
		records = append(records, rec)
	}

	merged := dedupe.Merge(records)
	stats.Merged = len(records) - len(merged)
	stats.Unique = len(merged)

	// Extraction and classification are pure per record; fan out and collect
	// by index so worker scheduling cannot affect the output order.
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := range merged {
		i := i
		g.Go(func() error {
			merged[i] = e.classifier.Apply(e.extractor.Apply(merged[i]))
			return nil
		})
	}
	_ = g.Wait() // stage funcs never return errors

	return merged, stats
}

// Run executes the full pipeline and aggregates the result into a DailyReport.
func (e *Engine) Run(ctx context.Context, batch []models.RawNewsItem, reportDate time.Time) (models.DailyReport, Stats) {
	records, stats := e.Process(ctx, batch)
	report := digest.Build(records, reportDate)

	e.log.Info("pipeline run complete",
		slog.Int("received", stats.Received),
		slog.Int("dropped", stats.Dropped),
		slog.Int("merged", stats.Merged),
		slog.Int("unique", stats.Unique),
	)

	return report, stats
}
