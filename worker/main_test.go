package main

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lumifin/news-digest/backend/internal/dedupe"
	"github.com/lumifin/news-digest/backend/internal/models"
	"github.com/lumifin/news-digest/backend/internal/pipeline"
	"github.com/lumifin/news-digest/backend/internal/refdata"
	"github.com/lumifin/news-digest/backend/internal/reportstore"
)

type stubIndexer struct {
	docs []models.NewsRecord
}

func (s *stubIndexer) IndexRecord(_ context.Context, rec models.NewsRecord, _ time.Time) error {
	s.docs = append(s.docs, rec)
	return nil
}

type stubReports struct {
	saved []models.DailyReport
}

func (s *stubReports) Save(report models.DailyReport) error {
	s.saved = append(s.saved, report)
	return nil
}

func (s *stubReports) Load(date time.Time) (models.DailyReport, error) {
	key := date.UTC().Format(reportstore.DateKey)
	for i := len(s.saved) - 1; i >= 0; i-- {
		if s.saved[i].ReportDate.UTC().Format(reportstore.DateKey) == key {
			return s.saved[i], nil
		}
	}
	return models.DailyReport{}, reportstore.ErrNotFound
}

func testWorker(idx *stubIndexer, reports *stubReports) *worker {
	tables := &refdata.Tables{
		PolicyKeywords: []string{"央行"},
	}
	return &worker{
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		engine:  pipeline.New(tables, 2, nil),
		history: dedupe.NewHistory(100, time.Hour),
		indexer: idx,
		reports: reports,
	}
}

func TestDecodeItem(t *testing.T) {
	item, err := decodeItem([]byte(`{
		"title": "央行降息",
		"content": "下调政策利率。",
		"source": " sina ",
		"publish_time": "2026-08-27T09:30:00Z",
		"url": "https://example.com/1"
	}`))
	require.NoError(t, err)
	require.Equal(t, "央行降息", item.Title)
	require.Equal(t, "sina", item.Source)
	require.Equal(t, 2026, item.PublishTime.Year())

	_, err = decodeItem([]byte("not json"))
	require.Error(t, err)
}

func TestDecodeItemDefaultsTimestamp(t *testing.T) {
	item, err := decodeItem([]byte(`{"title": "t", "content": "c", "publish_time": "garbage"}`))
	require.NoError(t, err)
	require.False(t, item.PublishTime.IsZero())
}

func TestParseTimestamp(t *testing.T) {
	ts := parseTimestamp("2026-02-03T04:05:06Z")
	require.False(t, ts.IsZero())
	require.Equal(t, 2026, ts.Year())

	legacy := parseTimestamp("2026-02-03 04:05:06")
	require.False(t, legacy.IsZero())
	require.Equal(t, 3, legacy.Day())

	require.True(t, parseTimestamp("invalid").IsZero())
	require.True(t, parseTimestamp("").IsZero())
}

func TestFlushPublishesReportAndRecords(t *testing.T) {
	idx := &stubIndexer{}
	reports := &stubReports{}
	w := testWorker(idx, reports)

	batch := []models.RawNewsItem{
		{Title: "央行降息", Content: "下调政策利率。", Source: "sina", PublishTime: time.Now().UTC()},
		{Title: "一般消息", Content: "无特别内容。", Source: "stcn", PublishTime: time.Now().UTC()},
	}

	w.flush(context.Background(), batch)

	require.Len(t, reports.saved, 1)
	require.Equal(t, 2, reports.saved[0].NewsCount)
	require.Len(t, reports.saved[0].PolicyNews, 1)
	require.Len(t, idx.docs, 2)
}

func TestFlushSkipsHistorySeen(t *testing.T) {
	idx := &stubIndexer{}
	reports := &stubReports{}
	w := testWorker(idx, reports)

	batch := []models.RawNewsItem{
		{Title: "央行降息", Content: "下调政策利率。", Source: "sina", PublishTime: time.Now().UTC()},
	}

	w.flush(context.Background(), batch)
	w.flush(context.Background(), batch)

	require.Len(t, idx.docs, 1, "second flush must not re-publish the same story")
	require.Len(t, reports.saved, 2)

	// The day's report is cumulative, not replaced by the empty second flush.
	require.Equal(t, 1, reports.saved[1].NewsCount)
}

func TestFlushMergesIntraDayReports(t *testing.T) {
	idx := &stubIndexer{}
	reports := &stubReports{}
	w := testWorker(idx, reports)

	now := time.Now().UTC()
	w.flush(context.Background(), []models.RawNewsItem{
		{Title: "央行降息", Content: "下调政策利率。", Source: "sina", PublishTime: now},
	})
	w.flush(context.Background(), []models.RawNewsItem{
		{Title: "一般消息", Content: "无特别内容。", Source: "stcn", PublishTime: now},
	})

	require.Len(t, reports.saved, 2)
	require.Equal(t, 2, reports.saved[1].NewsCount)
	require.Len(t, reports.saved[1].PolicyNews, 1)
	require.Len(t, reports.saved[1].GeneralNews, 1)
}

func TestFlushAfterRestartMergesStoredDay(t *testing.T) {
	idx := &stubIndexer{}
	reports := &stubReports{}
	w := testWorker(idx, reports)

	now := time.Now().UTC()
	batch := []models.RawNewsItem{
		{Title: "央行降息", Content: "下调政策利率。", Source: "sina", PublishTime: now},
	}
	w.flush(context.Background(), batch)

	// A restarted worker starts with an empty history; the re-scraped story
	// must collapse into its stored twin instead of doubling the report.
	restarted := testWorker(idx, reports)
	restarted.flush(context.Background(), batch)

	require.Len(t, reports.saved, 2)
	require.Equal(t, 1, reports.saved[1].NewsCount)
	require.Len(t, reports.saved[1].PolicyNews, 1)
}

func TestWarmHistoryRestoresPublishedKeys(t *testing.T) {
	idx := &stubIndexer{}
	reports := &stubReports{}
	w := testWorker(idx, reports)

	now := time.Now().UTC()
	batch := []models.RawNewsItem{
		{Title: "央行降息", Content: "下调政策利率。", Source: "sina", PublishTime: now},
	}
	w.flush(context.Background(), batch)

	restarted := testWorker(idx, reports)
	require.Equal(t, 1, warmHistory(restarted.history, restarted.reports, now))

	restarted.flush(context.Background(), batch)
	require.Len(t, idx.docs, 1, "warmed history must prevent re-indexing")
	require.Equal(t, 1, reports.saved[1].NewsCount)
}

func TestFlushEmptyBatch(t *testing.T) {
	idx := &stubIndexer{}
	reports := &stubReports{}
	w := testWorker(idx, reports)

	w.flush(context.Background(), nil)

	require.Empty(t, reports.saved)
	require.Empty(t, idx.docs)
}
