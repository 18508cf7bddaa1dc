// Package flashcard creates vocabulary flashcards by hand and edits the
// learner-owned parts of a card. Review scheduling lives in package review.
package flashcard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/conorfennell/knolreview/internal/domain"
	"github.com/conorfennell/knolreview/internal/knol"
	"github.com/conorfennell/knolreview/internal/llm"
)

const (
	MaxWordLength = 100
	MaxNoteLength = 1000
)

// FallbackMeaning is stored when no meaning was given and the model could
// not provide one.
const FallbackMeaning = "Add a meaning for this word."

// Generator is the AI text-generation collaborator.
type Generator interface {
	Generate(ctx context.Context, instruction, payload string) (string, error)
}

// Store persists flashcards.
type Store interface {
	Flashcard(ctx context.Context, id int64) (domain.Flashcard, error)
	FlashcardByWord(ctx context.Context, userID, word string) (domain.Flashcard, error)
	InsertFlashcard(ctx context.Context, userID string, card domain.Card, sourceID *int64) (int64, error)
	SetFlashcardFavorite(ctx context.Context, userID string, id int64, favorite bool) error
	SetFlashcardNote(ctx context.Context, userID string, id int64, note string) error
}

type Service struct {
	gen    Generator
	store  Store
	owner  string
	logger *slog.Logger
}

// New wires a Service. gen may be nil, in which case cards created without
// a meaning get FallbackMeaning.
func New(gen Generator, store Store, owner string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gen: gen, store: store, owner: owner, logger: logger}
}

func (s *Service) resolve(userID string) string {
	if strings.TrimSpace(userID) == "" {
		return s.owner
	}
	return userID
}

// Create adds a flashcard for word. Without a meaning one is generated. A
// user holds at most one card per word, compared case insensitively; a
// second one yields domain.ErrConflict.
func (s *Service) Create(ctx context.Context, userID, word, meaning string) (domain.Flashcard, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return domain.Flashcard{}, &domain.ValidationError{Field: "word", Reason: "must not be empty"}
	}
	if utf8.RuneCountInString(word) > MaxWordLength {
		return domain.Flashcard{}, &domain.ValidationError{Field: "word", Reason: "too long"}
	}
	userID = s.resolve(userID)

	_, err := s.store.FlashcardByWord(ctx, userID, word)
	if err == nil {
		return domain.Flashcard{}, fmt.Errorf("flashcard for %q: %w", word, domain.ErrConflict)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Flashcard{}, err
	}

	card := domain.Card{Word: word, Meaning: strings.TrimSpace(meaning)}
	if card.Meaning == "" {
		card.Meaning, card.Example = s.describe(ctx, word)
		if err := ctx.Err(); err != nil {
			return domain.Flashcard{}, err
		}
	}
	card.Hash = knol.Hash(card)

	id, err := s.store.InsertFlashcard(ctx, userID, card, nil)
	if err != nil {
		return domain.Flashcard{}, err
	}
	s.logger.Info("flashcard created", "user_id", userID, "id", id, "word", word)
	return s.store.Flashcard(ctx, id)
}

// SetFavorite marks a card as a favourite, or unmarks it.
func (s *Service) SetFavorite(ctx context.Context, userID string, id int64, favorite bool) error {
	return s.store.SetFlashcardFavorite(ctx, s.resolve(userID), id, favorite)
}

// SetNote replaces the personal note on a card. An empty note clears it.
func (s *Service) SetNote(ctx context.Context, userID string, id int64, note string) error {
	note = strings.TrimSpace(note)
	if utf8.RuneCountInString(note) > MaxNoteLength {
		return &domain.ValidationError{Field: "note", Reason: "too long"}
	}
	return s.store.SetFlashcardNote(ctx, s.resolve(userID), id, note)
}

// describe asks the model for a meaning and an example sentence and falls
// back to FallbackMeaning on any failure.
func (s *Service) describe(ctx context.Context, word string) (meaning, example string) {
	if s.gen == nil {
		return FallbackMeaning, ""
	}
	resp, err := s.gen.Generate(ctx, instruction, word)
	if err != nil {
		s.logger.Warn("word description failed, using fallback meaning", "word", word, "error", err)
		return FallbackMeaning, ""
	}
	meaning, example, err = ParseDescription(resp)
	if err != nil {
		s.logger.Warn("word description unusable, using fallback meaning", "word", word, "error", err)
		return FallbackMeaning, ""
	}
	return meaning, example
}

// ErrMalformed is returned by ParseDescription for unusable responses.
var ErrMalformed = errors.New("malformed word description")

// ParseDescription reads the model's JSON reply, optionally fenced. The
// meaning is required.
func ParseDescription(resp string) (meaning, example string, err error) {
	var raw struct {
		Meaning string `json:"meaning"`
		Example string `json:"example"`
	}
	if err := json.Unmarshal([]byte(llm.StripFence(resp)), &raw); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	meaning = strings.TrimSpace(raw.Meaning)
	if meaning == "" {
		return "", "", fmt.Errorf("%w: missing meaning", ErrMalformed)
	}
	return meaning, strings.TrimSpace(raw.Example), nil
}

const instruction = `You are an English vocabulary tutor. Describe the word the learner sends.
Reply with JSON only:
{"meaning": "a short learner-friendly definition", "example": "one natural example sentence"}`
