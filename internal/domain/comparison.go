package domain

// DifferenceType classifies one difference between two answers.
type DifferenceType string

const (
	DifferenceGrammar     DifferenceType = "GRAMMAR"
	DifferenceWordChoice  DifferenceType = "WORD_CHOICE"
	DifferenceNaturalness DifferenceType = "NATURALNESS"
	DifferencePunctuation DifferenceType = "PUNCTUATION"
)

// Importance ranks a difference.
type Importance string

const (
	ImportanceHigh   Importance = "HIGH"
	ImportanceMedium Importance = "MEDIUM"
	ImportanceLow    Importance = "LOW"
)

// MaxDifferences bounds AnswerComparison.Differences.
const MaxDifferences = 3

// Difference is one concrete gap between the user answer and the best answer.
type Difference struct {
	Type        DifferenceType `json:"type"`
	UserPart    string         `json:"userPart"`
	BestPart    string         `json:"bestPart"`
	Explanation string         `json:"explanation"`
	Importance  Importance     `json:"importance"`
}

// AnswerComparison is the scored result of comparing two answers.
type AnswerComparison struct {
	Correct         bool         `json:"isCorrect"`
	Score           int          `json:"score"`
	Differences     []Difference `json:"differences"`
	OverallFeedback string       `json:"overallFeedback"`
	Tip             string       `json:"tip"`
}
