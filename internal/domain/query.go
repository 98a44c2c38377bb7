package domain

import "time"

// Filter narrows a history query. All fields are optional and combined
// with AND. Nil pointer means "not filtered on".
type Filter struct {
	Sentiment     string
	Language      string
	MinConfidence *float64
	MaxConfidence *float64
	StartDate     *time.Time
	EndDate       *time.Time
	TextContains  string
}

// Sort orders query results. Field must be one of the indexed columns;
// ties are broken by insertion order so pagination stays stable.
type Sort struct {
	Field string
	Desc  bool
}

// Page is 1-indexed pagination.
type Page struct {
	Number int
	Size   int
}

// Offset returns the SQL offset for the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// DayVolume is one entry of a dense daily time series.
type DayVolume struct {
	Date          time.Time `json:"date"`
	Count         int       `json:"count"`
	AvgConfidence float64   `json:"avg_confidence"`
}

// LanguageCount is one language's share of the records in a range.
type LanguageCount struct {
	Language   string  `json:"language"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// TrendPoint holds per-label counts for a single day. Days without records
// still appear with zero counts so charts never interpolate gaps.
type TrendPoint struct {
	Date            time.Time      `json:"date"`
	SentimentCounts map[string]int `json:"sentiment_counts"`
	TotalCount      int            `json:"total_count"`
}

// Stats summarizes a period of history.
type Stats struct {
	Period              string          `json:"period"`
	TotalCount          int             `json:"total_count"`
	AvgConfidence       float64         `json:"avg_confidence"`
	HighConfidenceRatio float64         `json:"high_confidence_ratio"`
	TopLanguages        []LanguageCount `json:"top_languages"`
	Trend               []TrendPoint    `json:"trend"`
}
