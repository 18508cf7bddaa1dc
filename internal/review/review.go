// Package review decides what a learner reviews next and records the
// outcome of each review, for both vocabulary flashcards and favourited
// sentences.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/conorfennell/knolreview/internal/assess"
	"github.com/conorfennell/knolreview/internal/domain"
	"github.com/conorfennell/knolreview/internal/schedule"
)

const (
	// MaxSentenceLimit bounds the number of sentences per DueSentences call.
	MaxSentenceLimit = 50
	// MaxFlashcardLimit bounds the page size of DueFlashcards.
	MaxFlashcardLimit = 100
	// maxAttempts is how often a flashcard review is retried on a version
	// conflict.
	maxAttempts = 3
)

// Store is the persistence the review service needs.
type Store interface {
	FavoriteCorrections(ctx context.Context, userID string) ([]domain.Correction, error)
	Correction(ctx context.Context, userID string, id int64) (domain.Correction, error)
	SentenceStats(ctx context.Context, userID string, ids ...int64) (map[int64]domain.ReviewStats, error)
	AppendReviewEvent(ctx context.Context, e domain.ReviewEvent) (domain.ReviewEvent, error)

	Flashcard(ctx context.Context, id int64) (domain.Flashcard, error)
	ListFlashcards(ctx context.Context, userID string) ([]domain.Flashcard, error)
	UpdateReviewState(ctx context.Context, id, expected int64, state domain.ReviewState) error
}

// Comparer scores a free-form answer.
type Comparer interface {
	Compare(ctx context.Context, req assess.Request) domain.AnswerComparison
}

// Options configures a Service. Zero values select the defaults.
type Options struct {
	// Owner is used for requests that carry no user id.
	Owner     string
	Clock     domain.Clock
	Sentences schedule.Scheduler
	Cards     schedule.Scheduler
	Logger    *slog.Logger
}

// Service implements the review operations.
type Service struct {
	store     Store
	comparer  Comparer
	owner     string
	clock     domain.Clock
	sentences schedule.Scheduler
	cards     schedule.Scheduler
	validate  *validator.Validate
	logger    *slog.Logger
}

// New returns a Service backed by store. comparer may be nil when answers
// are never compared.
func New(store Store, comparer Comparer, opts Options) *Service {
	s := &Service{
		store:     store,
		comparer:  comparer,
		owner:     opts.Owner,
		clock:     opts.Clock,
		sentences: opts.Sentences,
		cards:     opts.Cards,
		validate:  validator.New(),
		logger:    opts.Logger,
	}
	if s.clock == nil {
		s.clock = domain.SystemClock{}
	}
	if s.sentences == nil {
		s.sentences = schedule.Streak{Params: schedule.DefaultStreakParams()}
	}
	if s.cards == nil {
		s.cards = schedule.Mastery{Params: schedule.DefaultMasteryParams()}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

func (s *Service) resolve(userID string) string {
	if strings.TrimSpace(userID) == "" {
		return s.owner
	}
	return userID
}

// check runs struct validation and reports the first failing field as a
// *domain.ValidationError.
func (s *Service) check(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		reason := fe.Tag()
		if fe.Param() != "" {
			reason += "=" + fe.Param()
		}
		return &domain.ValidationError{Field: fe.Field(), Reason: reason}
	}
	return fmt.Errorf("failed to validate request: %w", err)
}

// DueSentences returns up to limit favourited sentences ordered for review
// and the number of favourites. limit must lie in [1, MaxSentenceLimit].
func (s *Service) DueSentences(ctx context.Context, userID string, limit int) ([]domain.Sentence, int, error) {
	if limit < 1 || limit > MaxSentenceLimit {
		return nil, 0, &domain.ValidationError{Field: "limit", Reason: fmt.Sprintf("must be between 1 and %d", MaxSentenceLimit)}
	}
	userID = s.resolve(userID)

	favorites, err := s.store.FavoriteCorrections(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load favourites: %w", err)
	}
	if len(favorites) == 0 {
		return []domain.Sentence{}, 0, nil
	}

	stats, err := s.store.SentenceStats(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load review stats: %w", err)
	}

	now := s.clock.Now()
	today := schedule.Date(now)
	sentences := make([]domain.Sentence, 0, len(favorites))
	for _, c := range favorites {
		// A sentence is reviewed by translating it back, so it needs one.
		if c.OriginTranslation == "" {
			continue
		}
		sentence := domain.Sentence{
			ID:             c.ID,
			UserID:         c.UserID,
			Prompt:         c.OriginTranslation,
			BestAnswer:     c.Corrected,
			NextReviewDate: today,
		}
		if st, ok := stats[c.ID]; ok {
			last := st.LastReviewedAt.In(now.Location())
			sentence.ReviewCount = st.ReviewCount
			sentence.LastReviewedAt = &last
			if d, ok := schedule.Replay(s.sentences, st.Outcomes, last); ok {
				sentence.NextReviewDate = d.Due
			}
		}
		sentences = append(sentences, sentence)
	}

	return schedule.SelectDue(sentences, now, limit), len(favorites), nil
}

// Submission is one answered sentence review.
type Submission struct {
	UserID     string
	SentenceID int64 `validate:"gt=0"`
	Answer     string
	Correct    bool
	Score      int           `validate:"min=0,max=100"`
	TimeSpent  time.Duration `validate:"min=0"`
	// ReviewedAt defaults to now.
	ReviewedAt time.Time
}

// SubmitAnswer appends the review to the log and returns the date the
// sentence is due again.
func (s *Service) SubmitAnswer(ctx context.Context, sub Submission) (time.Time, error) {
	if err := s.check(sub); err != nil {
		return time.Time{}, err
	}
	userID := s.resolve(sub.UserID)
	at := sub.ReviewedAt
	if at.IsZero() {
		at = s.clock.Now()
	}

	stats, err := s.store.SentenceStats(ctx, userID, sub.SentenceID)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to load review stats: %w", err)
	}
	// A backdated submission only sees the reviews that preceded it.
	prior := stats[sub.SentenceID].OutcomesUntil(at)

	_, err = s.store.AppendReviewEvent(ctx, domain.ReviewEvent{
		UserID:     userID,
		SentenceID: sub.SentenceID,
		Answer:     sub.Answer,
		Correct:    sub.Correct,
		Score:      sub.Score,
		TimeSpent:  sub.TimeSpent,
		ReviewedAt: at,
	})
	if err != nil {
		return time.Time{}, err
	}

	d := s.sentences.Schedule(schedule.History{Outcomes: prior}, sub.Correct, at)
	s.logger.Info("sentence reviewed",
		"user_id", userID,
		"sentence_id", sub.SentenceID,
		"correct", sub.Correct,
		"next_review", d.Due.Format(time.DateOnly),
	)
	return d.Due, nil
}

// CompareAnswer scores answer against the best answer of a sentence.
func (s *Service) CompareAnswer(ctx context.Context, userID string, sentenceID int64, answer string) (domain.AnswerComparison, error) {
	c, err := s.store.Correction(ctx, s.resolve(userID), sentenceID)
	if err != nil {
		return domain.AnswerComparison{}, err
	}
	req := assess.Request{Prompt: c.OriginTranslation, UserAnswer: answer, BestAnswer: c.Corrected}
	if s.comparer == nil {
		return assess.Heuristic(req.UserAnswer, req.BestAnswer), nil
	}
	return s.comparer.Compare(ctx, req), nil
}

// ReviewFlashcard applies one review outcome to a flashcard and returns the
// updated card. Concurrent reviews of the same card are retried against the
// latest state.
func (s *Service) ReviewFlashcard(ctx context.Context, userID string, id int64, correct bool) (domain.Flashcard, error) {
	userID = s.resolve(userID)
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		var card domain.Flashcard
		card, err = s.store.Flashcard(ctx, id)
		if err != nil {
			return domain.Flashcard{}, err
		}
		if card.UserID != userID {
			return domain.Flashcard{}, fmt.Errorf("flashcard %d: %w", id, domain.ErrNotFound)
		}

		d := s.cards.Schedule(schedule.History{State: card.Review}, correct, s.clock.Now())
		err = s.store.UpdateReviewState(ctx, id, card.Review.Version, d.State)
		if err == nil {
			card.Review = d.State
			card.Review.Version++
			s.logger.Info("flashcard reviewed",
				"id", id,
				"correct", correct,
				"status", card.Review.Status,
				"next_review", d.Due,
			)
			return card, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return domain.Flashcard{}, err
		}
		s.logger.Debug("flashcard review conflicted, retrying", "id", id, "attempt", attempt)
	}
	return domain.Flashcard{}, err
}

// DueFlashcards returns one page of the user's flashcards matching filter,
// ordered for review, and the number of matching flashcards.
func (s *Service) DueFlashcards(ctx context.Context, userID string, filter domain.FlashcardFilter, offset, limit int) ([]domain.Flashcard, int, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, &domain.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", filter.Status)}
	}
	if offset < 0 {
		return nil, 0, &domain.ValidationError{Field: "offset", Reason: "must not be negative"}
	}
	if limit < 1 || limit > MaxFlashcardLimit {
		return nil, 0, &domain.ValidationError{Field: "limit", Reason: fmt.Sprintf("must be between 1 and %d", MaxFlashcardLimit)}
	}

	all, err := s.store.ListFlashcards(ctx, s.resolve(userID))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load flashcards: %w", err)
	}
	cards := make([]domain.Flashcard, 0, len(all))
	for _, c := range all {
		if filter.Match(c) {
			cards = append(cards, c)
		}
	}
	ordered := schedule.SelectDue(cards, s.clock.Now(), 0)
	if offset >= len(ordered) {
		return []domain.Flashcard{}, len(cards), nil
	}
	end := min(offset+limit, len(ordered))
	return ordered[offset:end], len(cards), nil
}

// FlashcardStats counts the user's flashcards per status and how many are
// ready for review now.
func (s *Service) FlashcardStats(ctx context.Context, userID string) (domain.FlashcardStats, error) {
	cards, err := s.store.ListFlashcards(ctx, s.resolve(userID))
	if err != nil {
		return domain.FlashcardStats{}, fmt.Errorf("failed to load flashcards: %w", err)
	}

	now := s.clock.Now()
	stats := domain.FlashcardStats{
		Total:    len(cards),
		ByStatus: make(map[domain.Status]int, len(domain.Statuses)),
	}
	for _, st := range domain.Statuses {
		stats.ByStatus[st] = 0
	}
	for _, c := range cards {
		stats.ByStatus[c.Review.Status]++
		if due, ok := c.NextDue(); !ok || !due.After(now) {
			stats.ReadyForReview++
		}
	}
	return stats, nil
}
