// Package reportstore persists daily reports in a bbolt file keyed by report
// date. The worker writes one report per day; the api reads them back for the
// viewer. The file is opened per operation with a lock timeout so the two
// processes can share it.
package reportstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/lumifin/news-digest/backend/internal/models"
)

// ErrNotFound marks a date with no stored report.
var ErrNotFound = errors.New("report not found")

var bucketReports = []byte("reports")

// DateKey is the storage key format for report dates.
const DateKey = "2006-01-02"

const lockTimeout = 2 * time.Second

// Store reads and writes daily reports at a bbolt file path.
type Store struct {
	path string
}

// New creates a store over the given file path. The file is created on first
// save.
func New(path string) *Store {
	return &Store{path: path}
}

// Save persists the report under its report date, replacing any previous
// report for that date.
func (s *Store) Save(report models.DailyReport) error {
	db, err := bolt.Open(s.path, 0o600, &bolt.Options{Timeout: lockTimeout})
	if err != nil {
		return fmt.Errorf("open report store: %w", err)
	}
	defer db.Close()

	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	key := []byte(report.ReportDate.UTC().Format(DateKey))
	err = db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketReports)
		if err != nil {
			return err
		}
		return b.Put(key, payload)
	})
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

// Load returns the report stored for the given date, or ErrNotFound.
func (s *Store) Load(date time.Time) (models.DailyReport, error) {
	var report models.DailyReport

	db, err := s.openRead()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return report, ErrNotFound
		}
		return report, fmt.Errorf("open report store: %w", err)
	}
	defer db.Close()

	key := []byte(date.UTC().Format(DateKey))
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketReports)
		if b == nil {
			return ErrNotFound
		}
		payload := b.Get(key)
		if payload == nil {
			return ErrNotFound
		}
		return json.Unmarshal(payload, &report)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return report, ErrNotFound
		}
		return report, fmt.Errorf("load report: %w", err)
	}
	return report, nil
}

// Prune deletes reports older than maxAge and returns how many were removed.
// A store that was never written is not an error.
func (s *Store) Prune(maxAge time.Duration) (int, error) {
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	db, err := bolt.Open(s.path, 0o600, &bolt.Options{Timeout: lockTimeout})
	if err != nil {
		return 0, fmt.Errorf("open report store: %w", err)
	}
	defer db.Close()

	cutoff := time.Now().UTC().Add(-maxAge).Format(DateKey)
	deleted := 0

	err = db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketReports)
		if b == nil {
			return nil
		}
		c := b.Cursor()
		var stale [][]byte
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			if string(k) < cutoff {
				stale = append(stale, append([]byte(nil), k...))
			}
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return deleted, fmt.Errorf("prune reports: %w", err)
	}
	return deleted, nil
}

func (s *Store) openRead() (*bolt.DB, error) {
	if _, err := os.Stat(s.path); err != nil {
		return nil, err
	}
	return bolt.Open(s.path, 0o600, &bolt.Options{ReadOnly: true, Timeout: lockTimeout})
}
