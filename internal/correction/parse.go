package correction

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/conorfennell/knolreview/internal/domain"
	"github.com/conorfennell/knolreview/internal/llm"
)

const (
	defaultScore      = 5
	defaultDifficulty = 5
	minScore          = 1
	maxScore          = 10
)

// ErrMalformed is returned by ParseJSON when the response is not a usable
// correction object.
var ErrMalformed = errors.New("malformed correction response")

var feedbackTypes = map[string]domain.FeedbackType{
	"GRAMMAR":     domain.FeedbackGrammar,
	"SPELLING":    domain.FeedbackSpelling,
	"STYLE":       domain.FeedbackStyle,
	"PUNCTUATION": domain.FeedbackPunctuation,
	"SYSTEM":      domain.FeedbackSystem,
}

// FeedbackType maps a model label to a FeedbackType. An empty label means
// grammar; anything unrecognised becomes SYSTEM.
func FeedbackType(label string) domain.FeedbackType {
	label = strings.ToUpper(strings.TrimSpace(label))
	if label == "" {
		return domain.FeedbackGrammar
	}
	if t, ok := feedbackTypes[label]; ok {
		return t
	}
	return domain.FeedbackSystem
}

func clampScore(n int) int {
	return min(max(n, minScore), maxScore)
}

// ParseScore reads the first number in s, e.g. "8/10" or "score: 7".
// Without one it returns the default of 5.
func ParseScore(s string) int {
	start := strings.IndexFunc(s, unicode.IsDigit)
	if start < 0 {
		return defaultScore
	}
	end := strings.IndexFunc(s[start:], func(r rune) bool { return !unicode.IsDigit(r) })
	if end < 0 {
		end = len(s) - start
	}
	n, err := strconv.Atoi(s[start : start+end])
	if err != nil {
		return defaultScore
	}
	return clampScore(n)
}

type rawCorrection struct {
	CorrectedSentence    string            `json:"correctedSentence"`
	Feedback             string            `json:"feedback"`
	FeedbackType         string            `json:"feedbackType"`
	Score                llm.Number        `json:"score"`
	OriginTranslation    string            `json:"originTranslation"`
	CorrectedTranslation string            `json:"correctedTranslation"`
	RelatedExamples      []json.RawMessage `json:"relatedExamples"`
}

type rawExample struct {
	Phrase     string     `json:"phrase"`
	Source     string     `json:"source"`
	SourceType string     `json:"sourceType"`
	Context    string     `json:"context"`
	Difficulty llm.Number `json:"difficulty"`
	Tags       []string   `json:"tags"`
}

// ParseJSON decodes the integrated JSON response, optionally wrapped in a
// code fence. A response without a corrected sentence is malformed; a
// related example that does not decode is dropped on its own.
func ParseJSON(resp string) (domain.Correction, error) {
	var raw rawCorrection
	if err := json.Unmarshal([]byte(llm.StripFence(resp)), &raw); err != nil {
		return domain.Correction{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if strings.TrimSpace(raw.CorrectedSentence) == "" {
		return domain.Correction{}, fmt.Errorf("%w: missing correctedSentence", ErrMalformed)
	}

	c := domain.Correction{
		Corrected:            strings.TrimSpace(raw.CorrectedSentence),
		Feedback:             strings.TrimSpace(raw.Feedback),
		FeedbackType:         FeedbackType(raw.FeedbackType),
		Score:                raw.Score.Clamp(minScore, maxScore, defaultScore),
		OriginTranslation:    strings.TrimSpace(raw.OriginTranslation),
		CorrectedTranslation: strings.TrimSpace(raw.CorrectedTranslation),
		Examples:             []domain.RelatedExample{},
	}
	for _, msg := range raw.RelatedExamples {
		var ex rawExample
		if err := json.Unmarshal(msg, &ex); err != nil || strings.TrimSpace(ex.Phrase) == "" {
			continue
		}
		sourceType := strings.ToUpper(strings.TrimSpace(ex.SourceType))
		if sourceType == "" {
			sourceType = "OTHER"
		}
		c.Examples = append(c.Examples, domain.RelatedExample{
			Phrase:     strings.TrimSpace(ex.Phrase),
			Source:     ex.Source,
			SourceType: sourceType,
			Context:    ex.Context,
			Difficulty: ex.Difficulty.Clamp(minScore, maxScore, defaultDifficulty),
			Tags:       ex.Tags,
		})
	}
	return c, nil
}

const (
	correctedPrefix            = "Corrected:"
	feedbackPrefix             = "Feedback:"
	typePrefix                 = "Type:"
	scorePrefix                = "Score:"
	originTranslationPrefix    = "Origin translation:"
	correctedTranslationPrefix = "Corrected translation:"
)

// ParseLines reads the plain "Prefix: value" reply format. It never fails:
// without a Corrected line the first line is taken as the corrected
// sentence, and without a Feedback line the remaining lines become feedback.
// A surrounding code fence is ignored.
func ParseLines(resp string) domain.Correction {
	lines := strings.Split(strings.ReplaceAll(llm.StripFence(resp), "\r\n", "\n"), "\n")
	value := func(prefix string) (string, bool) {
		for _, l := range lines {
			l = strings.TrimSpace(l)
			if strings.HasPrefix(l, prefix) {
				return strings.TrimSpace(strings.TrimPrefix(l, prefix)), true
			}
		}
		return "", false
	}

	c := domain.Correction{Score: defaultScore, Examples: []domain.RelatedExample{}}

	if v, ok := value(correctedPrefix); ok {
		c.Corrected = v
	} else {
		c.Corrected = strings.TrimSpace(lines[0])
	}
	if v, ok := value(feedbackPrefix); ok {
		c.Feedback = v
	} else if len(lines) > 1 {
		c.Feedback = strings.TrimSpace(strings.Join(lines[1:], " "))
	}
	t, _ := value(typePrefix)
	c.FeedbackType = FeedbackType(t)
	if v, ok := value(scorePrefix); ok {
		c.Score = ParseScore(v)
	}
	c.OriginTranslation, _ = value(originTranslationPrefix)
	c.CorrectedTranslation, _ = value(correctedTranslationPrefix)
	return c
}

// Fallback is the correction returned when the model cannot be reached: the
// sentence is echoed back unchanged.
func Fallback(origin string) domain.Correction {
	return domain.Correction{
		Corrected:    origin,
		Feedback:     "Automatic correction is unavailable right now. Please try again later.",
		FeedbackType: domain.FeedbackSystem,
		Score:        defaultScore,
		Examples:     []domain.RelatedExample{},
	}
}
