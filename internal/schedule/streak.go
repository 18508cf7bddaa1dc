package schedule

import "time"

// Step is a calendar offset. Months are applied first, end-of-month clamped.
type Step struct {
	Months int
	Days   int
}

// From returns base moved forward by the step.
func (s Step) From(base time.Time) time.Time {
	return AddMonths(base, s.Months).AddDate(0, 0, s.Days)
}

// StreakParams holds the sentence review tables, indexed by prior streak.
// The last entry of each table repeats for longer streaks.
type StreakParams struct {
	Correct   []Step
	Incorrect []Step
}

// DefaultStreakParams returns 3d, 1w, 2w, 1mo for correct answers and
// same day, 1d, 3d for wrong ones.
func DefaultStreakParams() *StreakParams {
	return &StreakParams{
		Correct:   []Step{{Days: 3}, {Days: 7}, {Days: 14}, {Months: 1}},
		Incorrect: []Step{{}, {Days: 1}, {Days: 3}},
	}
}

// NextDate returns the next review date for an answer given the length of
// the streak of the same outcome before it. The result has date granularity
// and depends only on its inputs.
func (p *StreakParams) NextDate(correct bool, priorStreak int, base time.Time) time.Time {
	table := p.Incorrect
	if correct {
		table = p.Correct
	}
	day := Date(base)
	if len(table) == 0 {
		return day
	}
	i := min(max(priorStreak, 0), len(table)-1)
	return table[i].From(day)
}

// PriorStreak counts how many of the most recent outcomes equal outcome,
// stopping at the first that differs.
func PriorStreak(outcomes []bool, outcome bool) int {
	n := 0
	for i := len(outcomes) - 1; i >= 0 && outcomes[i] == outcome; i-- {
		n++
	}
	return n
}
