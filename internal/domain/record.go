package domain

import (
	"time"

	"github.com/google/uuid"
)

// Sentiment labels form a closed set. Every classifier prediction and every
// stored record uses exactly one of these.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// SentimentLabels returns the closed label set in canonical order.
func SentimentLabels() []string {
	return []string{SentimentPositive, SentimentNegative, SentimentNeutral}
}

// ValidSentiment reports whether label belongs to the closed label set.
func ValidSentiment(label string) bool {
	return label == SentimentPositive || label == SentimentNegative || label == SentimentNeutral
}

// LabelScore is one label -> score pair of a full prediction. Scores across
// a prediction sum to ~1.0.
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Prediction is the output of the classification model for a single text.
type Prediction struct {
	Sentiment  string       `json:"sentiment"`
	Confidence float64      `json:"confidence"`
	Language   string       `json:"language"`
	AllScores  []LabelScore `json:"all_scores"`
}

// AnalysisRecord is the persisted history row for one classification
// request. Immutable once written; created only through the record store's
// Append and deleted only by explicit user action.
type AnalysisRecord struct {
	ID         uuid.UUID    `json:"id"`
	Text       string       `json:"text"`
	Sentiment  string       `json:"sentiment"`
	Confidence float64      `json:"confidence"`
	Language   string       `json:"language"`
	AllScores  []LabelScore `json:"all_scores"`
	Cached     bool         `json:"cached"`
	CreatedAt  time.Time    `json:"created_at"`
}

// Analysis is the result handed back to API callers: the prediction plus
// the identity of the history record written for this request.
type Analysis struct {
	ID         uuid.UUID    `json:"id"`
	Sentiment  string       `json:"sentiment"`
	Confidence float64      `json:"confidence"`
	Language   string       `json:"language"`
	AllScores  []LabelScore `json:"all_scores"`
	Cached     bool         `json:"cached"`
	CreatedAt  time.Time    `json:"created_at"`
}
