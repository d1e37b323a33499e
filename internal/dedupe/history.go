package dedupe

import (
	"sync"
	"time"
)

type historyEntry struct {
	key string
	ts  time.Time
}

// History is a fixed-size TTL set of canonical keys already published in an
// earlier digest run. It only guards across runs; within one batch Merge does
// the deduplication.
type History struct {
	mu       sync.Mutex
	items    map[string]time.Time
	order    []historyEntry
	capacity int
	ttl      time.Duration
}

// NewHistory creates a history with the provided capacity and ttl.
func NewHistory(capacity int, ttl time.Duration) *History {
	if capacity <= 0 {
		capacity = 1
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &History{
		items:    make(map[string]time.Time, capacity),
		order:    make([]historyEntry, 0, capacity),
		capacity: capacity,
		ttl:      ttl,
	}
}

// Seen reports whether the key was remembered inside the ttl window. It does
// not record the key; use Remember for that.
func (h *History) Seen(key string) bool {
	now := time.Now()

	h.mu.Lock()
	defer h.mu.Unlock()

	ts, ok := h.items[key]
	return ok && now.Sub(ts) <= h.ttl
}

// Remember records that a key has been published. Empty keys are ignored; a
// record without a fingerprint cannot be tracked.
func (h *History) Remember(key string) {
	if key == "" {
		return
	}
	now := time.Now()

	h.mu.Lock()
	defer h.mu.Unlock()

	h.items[key] = now
	h.order = append(h.order, historyEntry{key: key, ts: now})
	h.compact(now)
}

func (h *History) compact(now time.Time) {
	cutoff := now.Add(-h.ttl)

	for len(h.order) > 0 && (len(h.items) > h.capacity || h.order[0].ts.Before(cutoff)) {
		oldest := h.order[0]
		h.order = h.order[1:]

		if ts, ok := h.items[oldest.key]; ok && ts.Equal(oldest.ts) {
			delete(h.items, oldest.key)
		}
	}
}
