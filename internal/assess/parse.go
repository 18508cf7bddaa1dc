package assess

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/conorfennell/knolreview/internal/domain"
	"github.com/conorfennell/knolreview/internal/llm"
)

// ErrMalformed is returned by Parse for responses that cannot be used.
var ErrMalformed = errors.New("malformed comparison response")

type rawComparison struct {
	IsCorrect       *bool           `json:"isCorrect"`
	Score           llm.Number      `json:"score"`
	Differences     []rawDifference `json:"differences"`
	OverallFeedback string          `json:"overallFeedback"`
	Tip             string          `json:"tip"`
}

type rawDifference struct {
	Type        string `json:"type"`
	UserPart    string `json:"userPart"`
	BestPart    string `json:"bestPart"`
	Explanation string `json:"explanation"`
	Importance  string `json:"importance"`
}

var (
	differenceTypes = map[string]domain.DifferenceType{
		"GRAMMAR":     domain.DifferenceGrammar,
		"WORD_CHOICE": domain.DifferenceWordChoice,
		"NATURALNESS": domain.DifferenceNaturalness,
		"PUNCTUATION": domain.DifferencePunctuation,
	}
	importances = map[string]domain.Importance{
		"HIGH":   domain.ImportanceHigh,
		"MEDIUM": domain.ImportanceMedium,
		"LOW":    domain.ImportanceLow,
	}
)

// Parse decodes a model response, optionally wrapped in a code fence.
// Scores may be quoted and are clamped to [0, 100]; differences with an unknown type or
// importance are skipped and at most three are kept.
func Parse(resp string) (domain.AnswerComparison, error) {
	var raw rawComparison
	if err := json.Unmarshal([]byte(llm.StripFence(resp)), &raw); err != nil {
		return domain.AnswerComparison{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw.IsCorrect == nil || !raw.Score.Set {
		return domain.AnswerComparison{}, fmt.Errorf("%w: isCorrect and score are required", ErrMalformed)
	}

	cmp := domain.AnswerComparison{
		Correct:         *raw.IsCorrect,
		Score:           raw.Score.Clamp(0, 100, 0),
		Differences:     make([]domain.Difference, 0, domain.MaxDifferences),
		OverallFeedback: raw.OverallFeedback,
		Tip:             raw.Tip,
	}
	for _, d := range raw.Differences {
		if len(cmp.Differences) == domain.MaxDifferences {
			break
		}
		typ, ok := differenceTypes[strings.ToUpper(strings.TrimSpace(d.Type))]
		if !ok {
			continue
		}
		imp, ok := importances[strings.ToUpper(strings.TrimSpace(d.Importance))]
		if !ok {
			continue
		}
		cmp.Differences = append(cmp.Differences, domain.Difference{
			Type:        typ,
			UserPart:    d.UserPart,
			BestPart:    d.BestPart,
			Explanation: d.Explanation,
			Importance:  imp,
		})
	}
	return cmp, nil
}
