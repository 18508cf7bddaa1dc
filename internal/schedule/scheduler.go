package schedule

import (
	"time"

	"github.com/conorfennell/knolreview/internal/domain"
)

// History is what a Scheduler may look at for one item.
type History struct {
	State    domain.ReviewState
	Outcomes []bool // oldest first, not including the review being scheduled
}

// Decision is the outcome of scheduling one review.
type Decision struct {
	State domain.ReviewState
	Due   time.Time
}

// Scheduler computes when an item is due again after a review.
type Scheduler interface {
	Schedule(h History, correct bool, at time.Time) Decision
}

// Mastery schedules flashcards by mastery status.
type Mastery struct {
	Params *MasteryParams
}

func (m Mastery) Schedule(h History, correct bool, at time.Time) Decision {
	state := m.Params.Apply(h.State, correct, at)
	return Decision{State: state, Due: *state.NextReviewAt}
}

// Streak schedules sentences by the streak of equal outcomes.
type Streak struct {
	Params *StreakParams
}

func (s Streak) Schedule(h History, correct bool, at time.Time) Decision {
	state := h.State
	state.ReviewCount++
	if correct {
		state.CorrectCount++
	} else {
		state.IncorrectCount++
	}
	reviewed := at
	state.LastReviewedAt = &reviewed

	due := s.Params.NextDate(correct, PriorStreak(h.Outcomes, correct), at)
	state.NextReviewAt = &due
	return Decision{State: state, Due: due}
}

// Replay schedules the last of outcomes against the ones before it. ok is
// false when there is nothing to replay.
func Replay(s Scheduler, outcomes []bool, last time.Time) (Decision, bool) {
	if len(outcomes) == 0 {
		return Decision{}, false
	}
	n := len(outcomes) - 1
	return s.Schedule(History{Outcomes: outcomes[:n]}, outcomes[n], last), true
}
