package domain

import "time"

// ReviewEvent is one immutable entry of the sentence review log.
type ReviewEvent struct {
	ID         int64
	UserID     string
	SentenceID int64
	Answer     string
	Correct    bool
	Score      int
	TimeSpent  time.Duration
	ReviewedAt time.Time
}

// ReviewStats aggregates the review log of one sentence for one user.
type ReviewStats struct {
	SentenceID     int64
	ReviewCount    int
	CorrectCount   int
	LastReviewedAt time.Time
	// Outcomes holds every recorded outcome, oldest first. ReviewedAt is
	// parallel to it.
	Outcomes   []bool
	ReviewedAt []time.Time
}

// OutcomesUntil returns the outcomes recorded at or before t.
func (s ReviewStats) OutcomesUntil(t time.Time) []bool {
	n := 0
	for n < len(s.ReviewedAt) && !s.ReviewedAt[n].After(t) {
		n++
	}
	return s.Outcomes[:n]
}

// Sentence is a favourited correction reviewed by translating it back.
type Sentence struct {
	ID             int64
	UserID         string
	Prompt         string // the learner-language rendering shown to the user
	BestAnswer     string
	ReviewCount    int
	LastReviewedAt *time.Time
	NextReviewDate time.Time
}

// NextDue implements schedule.Item.
func (s Sentence) NextDue() (time.Time, bool) {
	return s.NextReviewDate, !s.NextReviewDate.IsZero()
}
