// Package assess scores a learner's free-form answer against a best answer.
package assess

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/conorfennell/knolreview/internal/domain"
)

// Generator is the AI text-generation collaborator.
type Generator interface {
	Generate(ctx context.Context, instruction, payload string) (string, error)
}

// Request is one answer to assess.
type Request struct {
	// Prompt is what the learner was asked to translate.
	Prompt     string
	UserAnswer string
	BestAnswer string
}

// Comparer compares answers with the model and falls back to a local
// heuristic whenever the model cannot be used.
type Comparer struct {
	gen    Generator
	logger *slog.Logger
}

// NewComparer returns a Comparer. gen may be nil, in which case every
// comparison uses the heuristic.
func NewComparer(gen Generator, logger *slog.Logger) *Comparer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Comparer{gen: gen, logger: logger}
}

// Compare never fails: model and parse errors are logged and answered with
// the heuristic comparison.
func (c *Comparer) Compare(ctx context.Context, req Request) domain.AnswerComparison {
	if c.gen == nil {
		return Heuristic(req.UserAnswer, req.BestAnswer)
	}

	resp, err := c.gen.Generate(ctx, instruction, payload(req))
	if err != nil {
		c.logger.Warn("answer comparison request failed, using heuristic", "error", err)
		return Heuristic(req.UserAnswer, req.BestAnswer)
	}

	cmp, err := Parse(resp)
	if err != nil {
		c.logger.Warn("failed to parse answer comparison", "error", err, "response", truncate(resp, 200))
		return Heuristic(req.UserAnswer, req.BestAnswer)
	}
	return cmp
}

const instruction = `You are an English writing coach. Compare the learner's answer with the best answer.
Reply with JSON only, using this shape:
{"isCorrect": bool, "score": 0-100,
 "differences": [{"type": "GRAMMAR|WORD_CHOICE|NATURALNESS|PUNCTUATION",
   "userPart": "", "bestPart": "", "explanation": "", "importance": "HIGH|MEDIUM|LOW"}],
 "overallFeedback": "", "tip": ""}
Answers with nearly the same meaning are correct and score 70 or more. List at most 3 differences.`

func payload(req Request) string {
	return fmt.Sprintf("Sentence: %s\nUser answer: %s\nBest answer: %s", req.Prompt, req.UserAnswer, req.BestAnswer)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// Heuristic compares answers without the model: an exact match scores 100,
// an answer containing the first three words of the best answer scores 70
// and anything else 50.
func Heuristic(userAnswer, bestAnswer string) domain.AnswerComparison {
	exact := strings.EqualFold(strings.TrimSpace(userAnswer), strings.TrimSpace(bestAnswer))

	words := strings.Fields(strings.ToLower(bestAnswer))
	words = words[:min(3, len(words))]
	similar := strings.Contains(strings.ToLower(userAnswer), strings.Join(words, " "))

	cmp := domain.AnswerComparison{
		Correct:         exact || similar,
		Differences:     []domain.Difference{},
		OverallFeedback: "Detailed feedback is unavailable right now. Compare your answer with the best answer.",
		Tip:             "Best answer: " + bestAnswer,
	}
	switch {
	case exact:
		cmp.Score = 100
		cmp.OverallFeedback = "Perfect! Your answer matches the best answer."
	case similar:
		cmp.Score = 70
	default:
		cmp.Score = 50
	}
	return cmp
}
