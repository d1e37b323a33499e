package models

import "time"

// Category is the single primary bucket assigned to every news record.
type Category string

const (
	CategoryPolicy    Category = "policy"
	CategoryImportant Category = "important"
	CategoryIndustry  Category = "industry"
	CategoryGeneral   Category = "general"
)

// RawNewsItem is the payload produced by the source fetchers. It is also the
// wire format of the raw news Kafka topic.
type RawNewsItem struct {
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Source      string    `json:"source"`
	PublishTime time.Time `json:"publish_time"`
	URL         string    `json:"url"`
}

// NewsRecord is the engine's working unit: one normalized, de-duplicated,
// enriched story. Stages never mutate a record in place; each returns a new
// value with its fields added.
type NewsRecord struct {
	Title       string            `json:"title"`
	Content     string            `json:"content"`
	Sources     []string          `json:"sources"` // sorted, unique outlet ids
	PublishTime time.Time         `json:"publish_time"`
	URL         string            `json:"url"`
	Category    Category          `json:"category"`
	Industry    string            `json:"industry,omitempty"` // set iff Category == industry
	StockCodes  map[string]string `json:"stock_codes,omitempty"`
	Keywords    []string          `json:"keywords,omitempty"`

	// CanonicalKey fingerprints the story for dedup. It is persisted with the
	// record so that reports loaded back from storage can still be merged
	// against fresh batches.
	CanonicalKey string `json:"canonical_key,omitempty"`
}

// DailyReport is the structured digest handed to renderers. Every record of the
// deduplicated batch appears in exactly one of the four groupings.
type DailyReport struct {
	ReportDate    time.Time    `json:"report_date"`
	NewsCount     int          `json:"news_count"`
	PolicyNews    []NewsRecord `json:"policy_news"`
	ImportantNews []NewsRecord `json:"important_news"`
	// IndustryOrder preserves first-seen industry order; NewsByIndustry alone
	// cannot, since map iteration order is unspecified.
	IndustryOrder  []string                `json:"industry_order"`
	NewsByIndustry map[string][]NewsRecord `json:"news_by_industry"`
	GeneralNews    []NewsRecord            `json:"general_news"`
}

// NewsDocument is the Elasticsearch projection of a NewsRecord.
type NewsDocument struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Content     string            `json:"content"`
	Sources     []string          `json:"sources"`
	PublishTime time.Time         `json:"publish_time"`
	Date        string            `json:"date"` // report date, YYYY-MM-DD
	URL         string            `json:"url,omitempty"`
	Category    Category          `json:"category"`
	Industry    string            `json:"industry,omitempty"`
	StockCodes  map[string]string `json:"stock_codes,omitempty"`
	Keywords    []string          `json:"keywords,omitempty"`
}
