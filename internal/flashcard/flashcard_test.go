package flashcard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/knolreview/internal/domain"
	"github.com/conorfennell/knolreview/internal/storage"
)

type generatorFunc func(ctx context.Context, instruction, payload string) (string, error)

func (f generatorFunc) Generate(ctx context.Context, instruction, payload string) (string, error) {
	return f(ctx, instruction, payload)
}

func newService(t *testing.T, gen Generator) (*Service, *storage.DB) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(gen, db, "system", slog.New(slog.NewTextHandler(io.Discard, nil))), db
}

func TestCreateGeneratesMeaning(t *testing.T) {
	gen := generatorFunc(func(_ context.Context, _, payload string) (string, error) {
		assert.Equal(t, "ephemeral", payload)
		return "```json\n{\"meaning\": \"lasting a short time\", \"example\": \"Fame is ephemeral.\"}\n```", nil
	})
	s, _ := newService(t, gen)

	card, err := s.Create(context.Background(), "", " ephemeral ", "")
	require.NoError(t, err)
	assert.Equal(t, "system", card.UserID)
	assert.Equal(t, "ephemeral", card.Word)
	assert.Equal(t, "lasting a short time", card.Meaning)
	assert.Equal(t, "Fame is ephemeral.", card.Example)
	assert.NotEmpty(t, card.Hash)
	assert.Nil(t, card.SourceID)
	assert.Equal(t, domain.StatusNew, card.Review.Status)
}

func TestCreateKeepsGivenMeaning(t *testing.T) {
	gen := generatorFunc(func(context.Context, string, string) (string, error) {
		t.Fatal("model must not be called when a meaning is given")
		return "", nil
	})
	s, _ := newService(t, gen)

	card, err := s.Create(context.Background(), "u1", "sonder", "the feeling that strangers have lives as vivid as yours")
	require.NoError(t, err)
	assert.Equal(t, "the feeling that strangers have lives as vivid as yours", card.Meaning)
}

func TestCreateFallsBackWithoutModel(t *testing.T) {
	tests := map[string]Generator{
		"no model": nil,
		"model error": generatorFunc(func(context.Context, string, string) (string, error) {
			return "", errors.New("503")
		}),
		"no meaning": generatorFunc(func(context.Context, string, string) (string, error) {
			return `{"example": "x"}`, nil
		}),
		"not json": generatorFunc(func(context.Context, string, string) (string, error) {
			return "It means lasting a short time.", nil
		}),
	}
	for name, gen := range tests {
		t.Run(name, func(t *testing.T) {
			s, _ := newService(t, gen)
			card, err := s.Create(context.Background(), "", "ephemeral", "")
			require.NoError(t, err)
			assert.Equal(t, FallbackMeaning, card.Meaning)
			assert.Empty(t, card.Example)
		})
	}
}

func TestCreateRejectsDuplicatesAndBadWords(t *testing.T) {
	s, _ := newService(t, nil)

	_, err := s.Create(context.Background(), "u1", "Ephemeral", "short-lived")
	require.NoError(t, err)
	_, err = s.Create(context.Background(), "u1", "ephemeral", "")
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = s.Create(context.Background(), "u2", "ephemeral", "")
	assert.NoError(t, err, "cards are per user")

	var verr *domain.ValidationError
	_, err = s.Create(context.Background(), "u1", "  ", "")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "word", verr.Field)
	_, err = s.Create(context.Background(), "u1", strings.Repeat("a", MaxWordLength+1), "")
	assert.ErrorAs(t, err, &verr)
}

func TestFavoriteAndNote(t *testing.T) {
	s, db := newService(t, nil)
	card, err := s.Create(context.Background(), "", "sonder", "m")
	require.NoError(t, err)

	require.NoError(t, s.SetFavorite(context.Background(), "", card.ID, true))
	require.NoError(t, s.SetNote(context.Background(), "", card.ID, "  from a podcast  "))
	assert.ErrorIs(t, s.SetFavorite(context.Background(), "other", card.ID, true), domain.ErrNotFound)

	var verr *domain.ValidationError
	assert.ErrorAs(t, s.SetNote(context.Background(), "", card.ID, strings.Repeat("n", MaxNoteLength+1)), &verr)

	stored, err := db.Flashcard(context.Background(), card.ID)
	require.NoError(t, err)
	assert.True(t, stored.Favorite)
	assert.Equal(t, "from a podcast", stored.Note)
}

func TestParseDescription(t *testing.T) {
	meaning, example, err := ParseDescription(`{"meaning": " brief ", "example": " A brief talk. "}`)
	require.NoError(t, err)
	assert.Equal(t, "brief", meaning)
	assert.Equal(t, "A brief talk.", example)

	for _, resp := range []string{"", "brief", `{"meaning": ""}`, `{"meaning": 3}`} {
		_, _, err := ParseDescription(resp)
		assert.ErrorIs(t, err, ErrMalformed, resp)
	}
}
