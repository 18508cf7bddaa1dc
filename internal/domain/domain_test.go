package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	err := &ValidationError{Field: "limit", Reason: "must be between 1 and 50"}
	assert.EqualError(t, err, "invalid limit: must be between 1 and 50")
}

func TestAccuracy(t *testing.T) {
	assert.Zero(t, NewReviewState().Accuracy())
	assert.InDelta(t, 0.75, ReviewState{ReviewCount: 4, CorrectCount: 3}.Accuracy(), 1e-9)
}

func TestNextDue(t *testing.T) {
	_, ok := Flashcard{}.NextDue()
	assert.False(t, ok)

	at := time.Date(2025, 12, 25, 0, 0, 0, 0, time.UTC)
	got, ok := Flashcard{Review: ReviewState{NextReviewAt: &at}}.NextDue()
	assert.True(t, ok)
	assert.Equal(t, at, got)

	_, ok = Sentence{}.NextDue()
	assert.False(t, ok)
	got, ok = Sentence{NextReviewDate: at}.NextDue()
	assert.True(t, ok)
	assert.Equal(t, at, got)
}

func TestOutcomesUntil(t *testing.T) {
	d := func(day int) time.Time { return time.Date(2025, 12, day, 9, 0, 0, 0, time.UTC) }
	st := ReviewStats{
		Outcomes:   []bool{true, false, true},
		ReviewedAt: []time.Time{d(20), d(22), d(24)},
	}
	assert.Empty(t, st.OutcomesUntil(d(19)))
	assert.Equal(t, []bool{true, false}, st.OutcomesUntil(d(22)))
	assert.Equal(t, []bool{true, false, true}, st.OutcomesUntil(d(25)))
	assert.Empty(t, ReviewStats{}.OutcomesUntil(d(25)))
}

func TestFlashcardFilter(t *testing.T) {
	learning := Flashcard{Review: ReviewState{Status: StatusLearning}}
	favorite := Flashcard{Favorite: true, Review: ReviewState{Status: StatusNew}}

	assert.True(t, FlashcardFilter{}.Match(learning))
	assert.True(t, FlashcardFilter{Status: StatusLearning}.Match(learning))
	assert.False(t, FlashcardFilter{Status: StatusLearning}.Match(favorite))
	assert.False(t, FlashcardFilter{Favorites: true}.Match(learning))
	assert.True(t, FlashcardFilter{Favorites: true, Status: StatusNew}.Match(favorite))

	assert.True(t, StatusMastered.Valid())
	assert.False(t, Status("DONE").Valid())
}
