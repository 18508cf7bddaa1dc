package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/knolreview/internal/domain"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  []domain.Card
	}{
		{
			name:  "word and meaning",
			input: "W: ephemeral\nM: lasting a very short time",
			want:  []domain.Card{{Word: "ephemeral", Meaning: "lasting a very short time"}},
		},
		{
			name:  "all fields",
			input: "W: candid\nM: truthful and straightforward\nE: She was candid about her mistakes.",
			want: []domain.Card{{
				Word:    "candid",
				Meaning: "truthful and straightforward",
				Example: "She was candid about her mistakes.",
			}},
		},
		{
			name: "multiline meaning",
			input: `
W: run
M: to move fast on foot
to operate a machine

`,
			want: []domain.Card{{Word: "run", Meaning: "to move fast on foot\nto operate a machine"}},
		},
		{
			name: "new word starts a new card",
			input: `
W: first
M: one

W: second
M: two
`,
			want: []domain.Card{
				{Word: "first", Meaning: "one"},
				{Word: "second", Meaning: "two"},
			},
		},
		{
			name:  "separator closes card",
			input: "W: a\n---\nM: orphan meaning\n---\nW: b",
			want:  []domain.Card{{Word: "a"}, {Word: "b"}},
		},
		{
			name:  "prefixes with no space and CRLF",
			input: "W:word\r\nM:meaning\r\n",
			want:  []domain.Card{{Word: "word", Meaning: "meaning"}},
		},
		{
			name:  "plain prose",
			input: "# My deck\nJust notes, no cards.",
			want:  nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cards, err := Parse(strings.NewReader(tc.input))
			require.NoError(t, err)
			assert.Equal(t, tc.want, cards)
		})
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.md")
	require.NoError(t, os.WriteFile(path, []byte("W: hola\nM: hello\n"), 0o644))

	cards, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, []domain.Card{{Word: "hola", Meaning: "hello"}}, cards)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.md"))
	assert.Error(t, err)
}
