package reportstore_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lumifin/news-digest/backend/internal/models"
	"github.com/lumifin/news-digest/backend/internal/reportstore"
)

func tempStore(t *testing.T) *reportstore.Store {
	t.Helper()
	return reportstore.New(filepath.Join(t.TempDir(), "reports.db"))
}

func report(date time.Time, count int) models.DailyReport {
	return models.DailyReport{
		ReportDate: date,
		NewsCount:  count,
		GeneralNews: []models.NewsRecord{
			{
				Title:        "标题",
				Content:      "正文",
				PublishTime:  date,
				Category:     models.CategoryGeneral,
				CanonicalKey: "key-标题",
			},
		},
		NewsByIndustry: map[string][]models.NewsRecord{},
	}
}

func TestSaveAndLoad(t *testing.T) {
	store := tempStore(t)
	date := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(report(date, 1)))

	got, err := store.Load(date)
	require.NoError(t, err)
	require.Equal(t, 1, got.NewsCount)
	require.Len(t, got.GeneralNews, 1)
	require.Equal(t, "标题", got.GeneralNews[0].Title)

	// The canonical key must survive storage so the day's report can later be
	// re-merged against fresh batches.
	require.Equal(t, "key-标题", got.GeneralNews[0].CanonicalKey)
}

func TestSaveReplacesSameDate(t *testing.T) {
	store := tempStore(t)
	date := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(report(date, 1)))
	require.NoError(t, store.Save(report(date, 5)))

	got, err := store.Load(date)
	require.NoError(t, err)
	require.Equal(t, 5, got.NewsCount)
}

func TestLoadMissing(t *testing.T) {
	store := tempStore(t)
	date := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)

	// No file at all yet.
	_, err := store.Load(date)
	require.ErrorIs(t, err, reportstore.ErrNotFound)

	// File exists but the date does not.
	require.NoError(t, store.Save(report(date, 1)))
	_, err = store.Load(date.AddDate(0, 0, 1))
	require.ErrorIs(t, err, reportstore.ErrNotFound)
}

func TestPrune(t *testing.T) {
	store := tempStore(t)
	now := time.Now().UTC()

	require.NoError(t, store.Save(report(now, 1)))
	require.NoError(t, store.Save(report(now.AddDate(0, 0, -30), 2)))

	deleted, err := store.Prune(7 * 24 * time.Hour)
	require.NoError(t, err)
	require.Equal(t, 1, deleted)

	_, err = store.Load(now.AddDate(0, 0, -30))
	require.ErrorIs(t, err, reportstore.ErrNotFound)

	_, err = store.Load(now)
	require.NoError(t, err)
}

func TestPruneMissingFile(t *testing.T) {
	store := tempStore(t)
	deleted, err := store.Prune(time.Hour)
	require.NoError(t, err)
	require.Zero(t, deleted)
}
