package domain

import "time"

// FeedbackType is the main error category of a corrected sentence.
type FeedbackType string

const (
	FeedbackGrammar     FeedbackType = "GRAMMAR"
	FeedbackSpelling    FeedbackType = "SPELLING"
	FeedbackStyle       FeedbackType = "STYLE"
	FeedbackPunctuation FeedbackType = "PUNCTUATION"
	// FeedbackSystem marks a correction produced without the model.
	FeedbackSystem FeedbackType = "SYSTEM"
)

// RelatedExample is a short usage example attached to a correction.
type RelatedExample struct {
	Phrase     string   `json:"phrase"`
	Source     string   `json:"source"`
	SourceType string   `json:"sourceType"`
	Context    string   `json:"context"`
	Difficulty int      `json:"difficulty"`
	Tags       []string `json:"tags"`
}

// Correction is a corrected learner sentence.
type Correction struct {
	ID                   int64
	UserID               string
	RequestKey           string
	Origin               string
	Corrected            string
	Feedback             string
	FeedbackType         FeedbackType
	Score                int // 1-10
	OriginTranslation    string
	CorrectedTranslation string
	Examples             []RelatedExample
	Favorite             bool
	CreatedAt            time.Time
}

// CorrectionStats summarises a user's corrections.
type CorrectionStats struct {
	Total          int
	AverageScore   float64 // 0 without corrections
	Favorites      int
	ByFeedbackType map[FeedbackType]int
}
