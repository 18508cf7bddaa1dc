package correction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/knolreview/internal/domain"
)

func TestParseJSON(t *testing.T) {
	resp := "```json\n" + `{
  "correctedSentence": "I have a cat.",
  "feedback": "Use 'have' with 'I'.",
  "feedbackType": "grammar",
  "score": 12,
  "originTranslation": "Tengo un gato.",
  "correctedTranslation": "Tengo un gato.",
  "relatedExamples": [
    {"phrase": "I have a dog.", "source": "Friends", "sourceType": "movie", "difficulty": 3, "tags": ["pets"]},
    {"phrase": "  "},
    {"phrase": "We have time."}
  ]
}` + "\n```"

	c, err := ParseJSON(resp)
	require.NoError(t, err)
	assert.Equal(t, "I have a cat.", c.Corrected)
	assert.Equal(t, domain.FeedbackGrammar, c.FeedbackType)
	assert.Equal(t, 10, c.Score)
	assert.Equal(t, "Tengo un gato.", c.OriginTranslation)
	require.Len(t, c.Examples, 2)
	assert.Equal(t, "MOVIE", c.Examples[0].SourceType)
	assert.Equal(t, 3, c.Examples[0].Difficulty)
	assert.Equal(t, []string{"pets"}, c.Examples[0].Tags)
	assert.Equal(t, "OTHER", c.Examples[1].SourceType)
	assert.Equal(t, 5, c.Examples[1].Difficulty)
}

func TestParseJSONDefaults(t *testing.T) {
	c, err := ParseJSON(`{"correctedSentence": "Fine.", "feedbackType": "TONE"}`)
	require.NoError(t, err)
	assert.Equal(t, 5, c.Score)
	assert.Equal(t, domain.FeedbackSystem, c.FeedbackType)
	assert.NotNil(t, c.Examples)
}

func TestParseJSONMalformed(t *testing.T) {
	for _, resp := range []string{"", "Corrected: x", `{"feedback": "no sentence"}`, `{"correctedSentence": 3}`} {
		_, err := ParseJSON(resp)
		assert.ErrorIs(t, err, ErrMalformed, resp)
	}
}

func TestParseJSONLenientNumbers(t *testing.T) {
	resp := "```json\n" + `{
  "correctedSentence": "I have a cat.",
  "score": "8",
  "relatedExamples": [
    {"phrase": "I have a dog.", "difficulty": "3"},
    {"phrase": "We have time.", "difficulty": 4.5},
    {"phrase": "They have fun.", "difficulty": "hard"},
    {"phrase": "Broken tags.", "tags": "pets"}
  ]
}` + "\n```"

	c, err := ParseJSON(resp)
	require.NoError(t, err)
	assert.Equal(t, "I have a cat.", c.Corrected)
	assert.Equal(t, 8, c.Score)
	require.Len(t, c.Examples, 3)
	assert.Equal(t, 3, c.Examples[0].Difficulty)
	assert.Equal(t, 5, c.Examples[1].Difficulty)
	assert.Equal(t, "They have fun.", c.Examples[2].Phrase)
	assert.Equal(t, 5, c.Examples[2].Difficulty)
}

func TestParseJSONClampsHugeScore(t *testing.T) {
	for resp, want := range map[string]int{
		`{"correctedSentence": "x", "score": 1e300}`:   10,
		`{"correctedSentence": "x", "score": -1e300}`:  1,
		`{"correctedSentence": "x", "score": "1e300"}`: 10,
	} {
		c, err := ParseJSON(resp)
		require.NoError(t, err, resp)
		assert.Equal(t, want, c.Score, resp)
	}
}

func TestParseLinesIgnoresFence(t *testing.T) {
	c := ParseLines("```\nCorrected: She goes to school.\nScore: 6\n```")
	assert.Equal(t, "She goes to school.", c.Corrected)
	assert.Equal(t, 6, c.Score)
}

func TestParseLines(t *testing.T) {
	c := ParseLines(`Corrected: She goes to school.
Feedback: Third person singular takes -es.
Type: Grammar
Score: 7/10
Origin translation: Ella va a la escuela.
Corrected translation: Ella va a la escuela.`)

	assert.Equal(t, "She goes to school.", c.Corrected)
	assert.Equal(t, "Third person singular takes -es.", c.Feedback)
	assert.Equal(t, domain.FeedbackGrammar, c.FeedbackType)
	assert.Equal(t, 7, c.Score)
	assert.Equal(t, "Ella va a la escuela.", c.OriginTranslation)
	assert.Equal(t, "Ella va a la escuela.", c.CorrectedTranslation)
}

func TestParseLinesWithoutPrefixes(t *testing.T) {
	c := ParseLines("She goes to school.\nThe verb needs -es.\nThat is all.")
	assert.Equal(t, "She goes to school.", c.Corrected)
	assert.Equal(t, "The verb needs -es. That is all.", c.Feedback)
	assert.Equal(t, domain.FeedbackGrammar, c.FeedbackType)
	assert.Equal(t, 5, c.Score)
}

func TestParseScore(t *testing.T) {
	tests := map[string]int{
		"8":         8,
		"8/10":      8,
		"score: 0":  1,
		"42 points": 10,
		"n/a":       5,
		"":          5,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseScore(in), in)
	}
}

func TestFeedbackType(t *testing.T) {
	assert.Equal(t, domain.FeedbackSpelling, FeedbackType(" spelling "))
	assert.Equal(t, domain.FeedbackPunctuation, FeedbackType("PUNCTUATION"))
	assert.Equal(t, domain.FeedbackGrammar, FeedbackType(""))
	assert.Equal(t, domain.FeedbackSystem, FeedbackType("vocabulary"))
}

func TestFallback(t *testing.T) {
	c := Fallback("I has a cat.")
	assert.Equal(t, "I has a cat.", c.Corrected)
	assert.Equal(t, domain.FeedbackSystem, c.FeedbackType)
	assert.Equal(t, 5, c.Score)
}
