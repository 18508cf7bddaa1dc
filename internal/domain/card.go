package domain

import (
	"slices"
	"time"
)

// Card is a vocabulary entry parsed from a markdown deck.
type Card struct {
	Word    string
	Meaning string
	Example string
	Hash    string
}

// Status is the mastery label of a flashcard.
type Status string

const (
	StatusNew        Status = "NEW"
	StatusStruggling Status = "STRUGGLING"
	StatusLearning   Status = "LEARNING"
	StatusReviewing  Status = "REVIEWING"
	StatusMastered   Status = "MASTERED"
)

// Valid reports whether s is a known mastery label.
func (s Status) Valid() bool {
	return slices.Contains(Statuses, s)
}

// Statuses lists every mastery label from least to most mastered.
var Statuses = []Status{StatusNew, StatusStruggling, StatusLearning, StatusReviewing, StatusMastered}

// ReviewState is the mutable scheduling metadata attached to a flashcard.
// ReviewCount always equals CorrectCount + IncorrectCount.
type ReviewState struct {
	Status         Status
	ReviewCount    int
	CorrectCount   int
	IncorrectCount int
	LastReviewedAt *time.Time
	NextReviewAt   *time.Time
	// Version is bumped by every persisted write and used for optimistic
	// concurrency control.
	Version int64
}

// NewReviewState returns the zeroed state a flashcard starts with.
func NewReviewState() ReviewState {
	return ReviewState{Status: StatusNew}
}

// Accuracy is the share of correct answers, 0 when never reviewed.
func (s ReviewState) Accuracy() float64 {
	if s.ReviewCount == 0 {
		return 0
	}
	return float64(s.CorrectCount) / float64(s.ReviewCount)
}

// Flashcard is a vocabulary learning item owned by one user.
type Flashcard struct {
	ID       int64
	UserID   string
	Word     string
	Meaning  string
	Example  string
	Hash     string
	SourceID *int64
	Favorite bool
	Note     string
	Review   ReviewState
}

// FlashcardFilter narrows a flashcard listing. Zero values match everything.
type FlashcardFilter struct {
	Status    Status
	Favorites bool
}

// Match reports whether f passes the filter.
func (q FlashcardFilter) Match(f Flashcard) bool {
	if q.Status != "" && f.Review.Status != q.Status {
		return false
	}
	return !q.Favorites || f.Favorite
}

// NextDue implements schedule.Item.
func (f Flashcard) NextDue() (time.Time, bool) {
	if f.Review.NextReviewAt == nil {
		return time.Time{}, false
	}
	return *f.Review.NextReviewAt, true
}

// FlashcardStats summarises a user's flashcards by mastery status.
type FlashcardStats struct {
	Total          int
	ByStatus       map[Status]int
	ReadyForReview int
}
