// Package dedupe collapses the same story reported by multiple outlets into a
// single record, and remembers stories across runs so one item is never
// digested twice.
package dedupe

import (
	"sort"

	"github.com/lumifin/news-digest/backend/internal/models"
)

// group accumulates one canonical key's records. leadSource is the source of
// the member currently supplying the text; tie-breaks compare against it, not
// the unioned Sources, which may already contain later members' outlets.
type group struct {
	rec        models.NewsRecord
	leadSource string
}

// Merge groups records by canonical key and collapses each group into one
// record. The earliest-published member is authoritative for title, content
// and URL; on an exact publish-time tie the member whose source sorts first
// alphabetically wins, regardless of input order. Sources are unioned and
// sorted, the merged publish time is the earliest of the group. Records
// without a canonical key are passed through untouched. Output is ordered
// ascending by merged publish time, stable for equal timestamps.
func Merge(records []models.NewsRecord) []models.NewsRecord {
	if len(records) == 0 {
		return nil
	}

	index := make(map[string]int, len(records))
	groups := make([]group, 0, len(records))

	for _, rec := range records {
		if rec.CanonicalKey == "" {
			groups = append(groups, group{rec: cloneRecord(rec)})
			continue
		}
		i, ok := index[rec.CanonicalKey]
		if !ok {
			index[rec.CanonicalKey] = len(groups)
			groups = append(groups, group{rec: cloneRecord(rec), leadSource: firstSource(rec)})
			continue
		}
		groups[i] = mergeInto(groups[i], rec)
	}

	merged := make([]models.NewsRecord, len(groups))
	for i, g := range groups {
		merged[i] = g.rec
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].PublishTime.Before(merged[j].PublishTime)
	})

	return merged
}

// mergeInto folds next into g. g.rec.PublishTime is always the publish time of
// the current lead member, so comparing (time, source) against
// (g.rec.PublishTime, g.leadSource) compares next against the lead itself.
func mergeInto(g group, next models.NewsRecord) group {
	nextSource := firstSource(next)

	leads := next.PublishTime.Before(g.rec.PublishTime) ||
		(next.PublishTime.Equal(g.rec.PublishTime) && nextSource < g.leadSource)
	if leads {
		merged := cloneRecord(next)
		merged.Sources = unionSources(merged.Sources, g.rec.Sources)
		return group{rec: merged, leadSource: nextSource}
	}

	g.rec.Sources = unionSources(g.rec.Sources, next.Sources)
	return g
}

func firstSource(rec models.NewsRecord) string {
	if len(rec.Sources) == 0 {
		return ""
	}
	min := rec.Sources[0]
	for _, s := range rec.Sources[1:] {
		if s < min {
			min = s
		}
	}
	return min
}

func unionSources(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	for _, s := range b {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

func cloneRecord(rec models.NewsRecord) models.NewsRecord {
	rec.Sources = append([]string(nil), rec.Sources...)
	return rec
}
