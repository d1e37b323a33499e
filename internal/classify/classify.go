// Package classify assigns each news record its single primary category via an
// ordered rule cascade: policy, then important, then industry, then general.
// The evaluation order is a contract; policy news must never be absorbed into
// an industry bucket.
package classify

import (
	"strings"

	"github.com/lumifin/news-digest/backend/internal/models"
	"github.com/lumifin/news-digest/backend/internal/refdata"
)

// importantCodeCount is the number of distinct referenced stock codes that
// marks a story important even without an importance keyword; such stories are
// usually market-wide and must not be pigeon-holed into one industry.
const importantCodeCount = 3

type rule func(text string, rec models.NewsRecord) (models.Category, string, bool)

// Classifier evaluates the rule cascade. Construct once at startup; it is
// read-only afterwards and safe for concurrent use.
type Classifier struct {
	rules []rule
}

type industryEntry struct {
	name     string
	keywords []string
}

// New builds a Classifier from the reference tables. Empty tables degrade to
// classifying everything as general.
func New(tables *refdata.Tables) *Classifier {
	var policy, important []string
	var industries []industryEntry
	if tables != nil {
		policy = lowerAll(tables.PolicyKeywords)
		important = lowerAll(tables.ImportantKeywords)
		for _, ind := range tables.Industries {
			if ind.Name == "" {
				continue
			}
			industries = append(industries, industryEntry{
				name:     ind.Name,
				keywords: lowerAll(ind.Keywords),
			})
		}
	}

	return &Classifier{rules: []rule{
		func(text string, _ models.NewsRecord) (models.Category, string, bool) {
			if containsAny(text, policy) {
				return models.CategoryPolicy, "", true
			}
			return "", "", false
		},
		func(text string, rec models.NewsRecord) (models.Category, string, bool) {
			if containsAny(text, important) || len(rec.StockCodes) >= importantCodeCount {
				return models.CategoryImportant, "", true
			}
			return "", "", false
		},
		func(text string, _ models.NewsRecord) (models.Category, string, bool) {
			// Table order is the tie-break: first matching industry wins.
			for _, ind := range industries {
				if containsAny(text, ind.keywords) {
					return models.CategoryIndustry, ind.name, true
				}
			}
			return "", "", false
		},
	}}
}

// Apply returns a copy of rec with Category and Industry set. The first
// matching rule wins; no rule matching means general.
func (c *Classifier) Apply(rec models.NewsRecord) models.NewsRecord {
	text := strings.ToLower(rec.Title + " " + rec.Content)

	for _, r := range c.rules {
		if category, industry, ok := r(text, rec); ok {
			rec.Category = category
			rec.Industry = industry
			return rec
		}
	}

	rec.Category = models.CategoryGeneral
	rec.Industry = ""
	return rec
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if term != "" && strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func lowerAll(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		out = append(out, strings.ToLower(t))
	}
	return out
}
