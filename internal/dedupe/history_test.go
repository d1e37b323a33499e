package dedupe_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lumifin/news-digest/backend/internal/dedupe"
)

func TestHistoryRemember(t *testing.T) {
	h := dedupe.NewHistory(10, time.Minute)
	require.False(t, h.Seen("alpha"))
	h.Remember("alpha")
	require.True(t, h.Seen("alpha"))
}

func TestHistoryTTLExpiry(t *testing.T) {
	h := dedupe.NewHistory(10, 20*time.Millisecond)
	h.Remember("beta")
	time.Sleep(25 * time.Millisecond)
	require.False(t, h.Seen("beta"))
}

func TestHistoryIgnoresEmptyKey(t *testing.T) {
	h := dedupe.NewHistory(10, time.Minute)
	h.Remember("")
	require.False(t, h.Seen(""))
}

func TestHistoryCapacityEvictsOldest(t *testing.T) {
	h := dedupe.NewHistory(1, time.Minute)
	h.Remember("first")
	h.Remember("second")

	require.False(t, h.Seen("first"))
	require.True(t, h.Seen("second"))
}
