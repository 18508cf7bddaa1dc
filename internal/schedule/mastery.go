package schedule

import (
	"time"

	"github.com/conorfennell/knolreview/internal/domain"
)

// Threshold promotes a flashcard to Status once it has at least MinReviews
// reviews and at least MinAccuracy correct answers.
type Threshold struct {
	MinReviews  int
	MinAccuracy float64
	Status      domain.Status
}

// MasteryParams holds the lookup tables of the flashcard state machine.
type MasteryParams struct {
	// Thresholds is checked in order; the first match wins.
	Thresholds []Threshold
	// Floor is the status used when no threshold matches.
	Floor domain.Status
	// Regression maps a status to the status after a wrong answer.
	Regression map[domain.Status]domain.Status
	// Intervals maps the resulting status to the time until the next review.
	Intervals map[domain.Status]time.Duration
}

// DefaultMasteryParams returns the tables used in production.
func DefaultMasteryParams() *MasteryParams {
	return &MasteryParams{
		Thresholds: []Threshold{
			{MinReviews: 5, MinAccuracy: 0.9, Status: domain.StatusMastered},
			{MinReviews: 3, MinAccuracy: 0.7, Status: domain.StatusReviewing},
			{MinReviews: 1, MinAccuracy: 0.5, Status: domain.StatusLearning},
		},
		Floor: domain.StatusStruggling,
		Regression: map[domain.Status]domain.Status{
			domain.StatusMastered:   domain.StatusReviewing,
			domain.StatusReviewing:  domain.StatusLearning,
			domain.StatusLearning:   domain.StatusStruggling,
			domain.StatusStruggling: domain.StatusStruggling,
			domain.StatusNew:        domain.StatusStruggling,
		},
		Intervals: map[domain.Status]time.Duration{
			domain.StatusNew:        time.Hour,
			domain.StatusStruggling: 4 * time.Hour,
			domain.StatusLearning:   24 * time.Hour,
			domain.StatusReviewing:  3 * 24 * time.Hour,
			domain.StatusMastered:   7 * 24 * time.Hour,
		},
	}
}

// Apply records one review outcome at now and returns the new state.
// The input state is not modified.
func (p *MasteryParams) Apply(state domain.ReviewState, correct bool, now time.Time) domain.ReviewState {
	next := state
	next.ReviewCount++
	reviewed := now
	next.LastReviewedAt = &reviewed

	if correct {
		next.CorrectCount++
		next.Status = p.promote(next.ReviewCount, next.Accuracy())
	} else {
		next.IncorrectCount++
		next.Status = p.regress(state.Status)
	}

	due := now.Add(p.interval(next.Status))
	next.NextReviewAt = &due
	return next
}

// promote derives the status purely from cumulative stats.
func (p *MasteryParams) promote(reviews int, accuracy float64) domain.Status {
	for _, t := range p.Thresholds {
		if reviews >= t.MinReviews && accuracy >= t.MinAccuracy {
			return t.Status
		}
	}
	return p.Floor
}

func (p *MasteryParams) regress(s domain.Status) domain.Status {
	if r, ok := p.Regression[s]; ok {
		return r
	}
	return p.Floor
}

func (p *MasteryParams) interval(s domain.Status) time.Duration {
	if d, ok := p.Intervals[s]; ok && d >= 0 {
		return d
	}
	return p.Intervals[domain.StatusNew]
}
