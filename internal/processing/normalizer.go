// Package processing turns raw scraped news items into clean NewsRecords and
// derives the canonical key used to detect the same story across outlets.
package processing

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"html"
	"regexp"
	"strings"

	"github.com/lumifin/news-digest/backend/internal/models"
)

// ErrMalformedInput marks a raw item whose title or content is empty after
// cleaning. Callers drop such items and count them; the batch continues.
var ErrMalformedInput = errors.New("malformed news item")

// canonicalKeyLen is how many leading runes of title and content feed the
// canonical key. Long enough to separate stories, short enough that trailing
// boilerplate appended by one outlet does not defeat dedup.
const canonicalKeyLen = 100

var (
	whitespace  = regexp.MustCompile(`\s+`)
	punctuation = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
)

// CleanText decodes HTML entities, strips control characters, and collapses
// repeated whitespace. Punctuation is preserved.
func CleanText(input string) string {
	if input == "" {
		return ""
	}
	decoded := html.UnescapeString(input)
	decoded = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f || r == '\u00a0' {
			return ' '
		}
		return r
	}, decoded)
	decoded = whitespace.ReplaceAllString(decoded, " ")
	return strings.TrimSpace(decoded)
}

// CanonicalKey fingerprints a story: case-insensitive, punctuation-stripped
// prefix of title and content, hashed. Near-identical reports from different
// outlets map to the same key without requiring exact text equality.
func CanonicalKey(title, content string) string {
	norm := normalizeForKey(title) + "|" + normalizeForKey(content)
	s := sha1.Sum([]byte(norm))
	return hex.EncodeToString(s[:])
}

func normalizeForKey(text string) string {
	clean := strings.ToLower(text)
	clean = punctuation.ReplaceAllString(clean, "")
	clean = whitespace.ReplaceAllString(clean, "")
	runes := []rune(clean)
	if len(runes) > canonicalKeyLen {
		runes = runes[:canonicalKeyLen]
	}
	return string(runes)
}

// Normalize cleans a raw item and seeds a NewsRecord for the rest of the
// pipeline. It returns ErrMalformedInput when title or content is empty after
// cleaning.
func Normalize(raw models.RawNewsItem) (models.NewsRecord, error) {
	title := CleanText(raw.Title)
	content := CleanText(raw.Content)
	if title == "" || content == "" {
		return models.NewsRecord{}, ErrMalformedInput
	}

	return models.NewsRecord{
		Title:        title,
		Content:      content,
		Sources:      []string{strings.TrimSpace(raw.Source)},
		PublishTime:  raw.PublishTime,
		URL:          strings.TrimSpace(raw.URL),
		Category:     models.CategoryGeneral,
		CanonicalKey: CanonicalKey(title, content),
	}, nil
}
