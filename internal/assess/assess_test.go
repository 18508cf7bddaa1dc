package assess

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/knolreview/internal/domain"
)

type stubGenerator struct {
	resp string
	err  error

	instruction, payload string
}

func (s *stubGenerator) Generate(_ context.Context, instruction, payload string) (string, error) {
	s.instruction, s.payload = instruction, payload
	return s.resp, s.err
}

var req = Request{
	Prompt:     "나는 어제 학교에 갔다",
	UserAnswer: "I went to school yesterday",
	BestAnswer: "I went to school yesterday.",
}

func TestCompareUsesModel(t *testing.T) {
	gen := &stubGenerator{resp: "```json\n" + `{
		"isCorrect": true,
		"score": 95,
		"differences": [{"type":"punctuation","userPart":"yesterday","bestPart":"yesterday.","explanation":"Add a period.","importance":"low"}],
		"overallFeedback": "Great job.",
		"tip": "End sentences with a period."
	}` + "\n```"}
	c := NewComparer(gen, nil)

	got := c.Compare(context.Background(), req)
	assert.True(t, got.Correct)
	assert.Equal(t, 95, got.Score)
	require.Len(t, got.Differences, 1)
	assert.Equal(t, domain.DifferencePunctuation, got.Differences[0].Type)
	assert.Equal(t, domain.ImportanceLow, got.Differences[0].Importance)
	assert.Equal(t, "Great job.", got.OverallFeedback)

	assert.Contains(t, gen.payload, req.Prompt)
	assert.Contains(t, gen.payload, req.UserAnswer)
	assert.Contains(t, gen.payload, req.BestAnswer)
	assert.NotEmpty(t, gen.instruction)
}

func TestCompareFallsBack(t *testing.T) {
	tests := []struct {
		name string
		gen  Generator
	}{
		{"model error", &stubGenerator{err: errors.New("upstream timeout")}},
		{"malformed json", &stubGenerator{resp: "Sure! Here is my analysis."}},
		{"missing score", &stubGenerator{resp: `{"isCorrect": true}`}},
		{"no model", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewComparer(tt.gen, nil).Compare(context.Background(), req)
			assert.Contains(t, []int{50, 70, 100}, got.Score)
			assert.Empty(t, got.Differences)
			assert.Equal(t, "Best answer: "+req.BestAnswer, got.Tip)
		})
	}
}

func TestHeuristic(t *testing.T) {
	tests := []struct {
		name, user, best string
		score            int
		correct          bool
	}{
		{"exact ignoring case and space", "  i went HOME. ", "I went home.", 100, true},
		{"shares first three words", "I went to the park", "I went to school.", 70, true},
		{"different", "We walked there", "I went to school.", 50, false},
		{"short best answer", "yes, okay", "Yes", 70, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Heuristic(tt.user, tt.best)
			assert.Equal(t, tt.score, got.Score)
			assert.Equal(t, tt.correct, got.Correct)
			assert.NotNil(t, got.Differences)
			assert.Empty(t, got.Differences)
			assert.Equal(t, "Best answer: "+tt.best, got.Tip)
		})
	}
}
