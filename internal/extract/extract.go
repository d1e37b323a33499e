// Package extract attaches listed-company stock codes and controlled-vocabulary
// keywords to news records. Extraction is pure per record and safe to run in
// parallel across a batch.
package extract

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/lumifin/news-digest/backend/internal/models"
	"github.com/lumifin/news-digest/backend/internal/refdata"
)

// pattern is one matchable company name or alias.
type pattern struct {
	text    string // lowercased
	company string // canonical company name
	code    string
}

// Extractor scans text against the company table and keyword vocabulary.
// Construct once at startup; it is read-only afterwards and safe for
// concurrent use.
type Extractor struct {
	patterns   []pattern
	vocabulary []string
}

// New builds an Extractor from the reference tables. Longer names sort first
// so that an alias contained in another company's name never shadows it.
func New(tables *refdata.Tables) *Extractor {
	e := &Extractor{}
	if tables == nil {
		return e
	}

	for _, c := range tables.Companies {
		if c.Name == "" || c.Code == "" {
			continue
		}
		e.patterns = append(e.patterns, pattern{
			text:    strings.ToLower(c.Name),
			company: c.Name,
			code:    c.Code,
		})
		for _, alias := range c.Aliases {
			if alias == "" {
				continue
			}
			e.patterns = append(e.patterns, pattern{
				text:    strings.ToLower(alias),
				company: c.Name,
				code:    c.Code,
			})
		}
	}

	sort.SliceStable(e.patterns, func(i, j int) bool {
		li := utf8.RuneCountInString(e.patterns[i].text)
		lj := utf8.RuneCountInString(e.patterns[j].text)
		if li != lj {
			return li > lj
		}
		return e.patterns[i].text < e.patterns[j].text
	})

	e.vocabulary = append(e.vocabulary, tables.Vocabulary...)
	return e
}

// Apply returns a copy of rec with StockCodes and Keywords attached.
func (e *Extractor) Apply(rec models.NewsRecord) models.NewsRecord {
	text := strings.ToLower(rec.Title + " " + rec.Content)

	rec.StockCodes = e.matchCompanies(text)
	rec.Keywords = e.matchKeywords(text)
	return rec
}

// matchCompanies scans longest-name-first and claims each matched span, so a
// short alias occurring only inside an already-matched longer name does not
// attach a second company.
func (e *Extractor) matchCompanies(text string) map[string]string {
	if len(e.patterns) == 0 {
		return nil
	}

	var claimed []span
	var codes map[string]string

	for _, p := range e.patterns {
		matched := false
		for from := 0; ; {
			i := strings.Index(text[from:], p.text)
			if i < 0 {
				break
			}
			s := span{start: from + i, end: from + i + len(p.text)}
			from = s.end
			if s.inside(claimed) {
				continue
			}
			claimed = append(claimed, s)
			matched = true
		}
		if matched {
			if codes == nil {
				codes = make(map[string]string)
			}
			codes[p.company] = p.code
		}
	}

	return codes
}

func (e *Extractor) matchKeywords(text string) []string {
	var keywords []string
	for _, term := range e.vocabulary {
		if term == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(term)) {
			keywords = append(keywords, term)
		}
	}
	return keywords
}

type span struct {
	start, end int
}

func (s span) inside(claimed []span) bool {
	for _, c := range claimed {
		if s.start >= c.start && s.end <= c.end {
			return true
		}
	}
	return false
}
