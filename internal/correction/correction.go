// Package correction generates corrected versions of learner sentences. The
// model call runs through a generate.Coordinator, so a slow or failing model
// degrades to a synchronous retry and, at worst, an unchanged sentence.
package correction

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/conorfennell/knolreview/internal/domain"
	"github.com/conorfennell/knolreview/internal/generate"
	"github.com/conorfennell/knolreview/internal/knol"
	"github.com/conorfennell/knolreview/internal/llm"
)

// MaxOriginLength bounds the sentence length in characters.
const MaxOriginLength = 1000

// Generator is the AI text-generation collaborator.
type Generator interface {
	Generate(ctx context.Context, instruction, payload string) (string, error)
}

// Store persists corrections.
type Store interface {
	SaveCorrection(ctx context.Context, c domain.Correction) (domain.Correction, error)
	SetFavorite(ctx context.Context, userID string, id int64, favorite bool) error
	ListCorrections(ctx context.Context, userID string) ([]domain.Correction, error)
	CorrectionStats(ctx context.Context, userID string) (domain.CorrectionStats, error)
}

// Options configures a Service.
type Options struct {
	// Owner is used for requests that carry no user id.
	Owner   string
	Timeout time.Duration
	Clock   domain.Clock
	Logger  *slog.Logger
}

// Service corrects sentences and keeps the results.
type Service struct {
	gen    Generator
	store  Store
	owner  string
	clock  domain.Clock
	logger *slog.Logger
	coord  *generate.Coordinator[request, domain.Correction]
}

type request struct {
	UserID string
	Origin string
	Key    string
}

// New wires a Service. gen may be nil, in which case every correction is
// the fallback.
func New(gen Generator, store Store, pool generate.Submitter, opts Options) *Service {
	s := &Service{
		gen:    gen,
		store:  store,
		owner:  opts.Owner,
		clock:  opts.Clock,
		logger: opts.Logger,
	}
	if s.clock == nil {
		s.clock = domain.SystemClock{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.coord = generate.New(pool, generate.Options[request, domain.Correction]{
		Async:   s.generateStrict,
		Sync:    s.generateLenient,
		Persist: s.persist,
		Timeout: opts.Timeout,
		Logger:  s.logger.With("job", "correction"),
	})
	return s
}

// Correct returns the stored correction of origin for userID. Only input
// validation and storage failures are returned as errors.
func (s *Service) Correct(ctx context.Context, userID, origin string) (domain.Correction, error) {
	origin = strings.TrimSpace(origin)
	if origin == "" {
		return domain.Correction{}, &domain.ValidationError{Field: "origin", Reason: "must not be empty"}
	}
	if utf8.RuneCountInString(origin) > MaxOriginLength {
		return domain.Correction{}, &domain.ValidationError{Field: "origin", Reason: "too long"}
	}
	userID = s.resolve(userID)
	return s.coord.Run(ctx, request{UserID: userID, Origin: origin, Key: knol.RequestKey(userID, origin)})
}

// SetFavorite marks a correction for sentence review, or unmarks it.
func (s *Service) SetFavorite(ctx context.Context, userID string, id int64, favorite bool) error {
	return s.store.SetFavorite(ctx, s.resolve(userID), id, favorite)
}

// List returns the user's corrections, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]domain.Correction, error) {
	return s.store.ListCorrections(ctx, s.resolve(userID))
}

// Stats summarises the user's corrections.
func (s *Service) Stats(ctx context.Context, userID string) (domain.CorrectionStats, error) {
	return s.store.CorrectionStats(ctx, s.resolve(userID))
}

func (s *Service) resolve(userID string) string {
	if strings.TrimSpace(userID) == "" {
		return s.owner
	}
	return userID
}

// generateStrict is the pooled path: any model or parse failure is an error
// so the coordinator falls back.
func (s *Service) generateStrict(ctx context.Context, req request) (domain.Correction, error) {
	if s.gen == nil {
		return Fallback(req.Origin), nil
	}
	resp, err := s.gen.Generate(ctx, instruction, req.Origin)
	if err != nil {
		return domain.Correction{}, err
	}
	return ParseJSON(resp)
}

// generateLenient is the synchronous path. It always produces a correction.
func (s *Service) generateLenient(ctx context.Context, req request) (domain.Correction, error) {
	if s.gen == nil {
		return Fallback(req.Origin), nil
	}
	resp, err := s.gen.Generate(ctx, instruction, req.Origin)
	if err != nil {
		s.logger.Warn("correction request failed, returning sentence unchanged", "error", err)
		return Fallback(req.Origin), nil
	}
	c, err := ParseJSON(resp)
	if err == nil {
		return c, nil
	}
	if looksLikeJSON(resp) {
		s.logger.Warn("correction response is unusable JSON, returning sentence unchanged", "error", err)
		return Fallback(req.Origin), nil
	}
	s.logger.Warn("correction response is not JSON, reading line format", "error", err)
	return ParseLines(resp), nil
}

func looksLikeJSON(resp string) bool {
	body := llm.StripFence(resp)
	return strings.HasPrefix(body, "{") || strings.HasPrefix(body, "[")
}

func (s *Service) persist(ctx context.Context, req request, c domain.Correction) (domain.Correction, error) {
	c.UserID = req.UserID
	c.RequestKey = req.Key
	c.Origin = req.Origin
	if c.Corrected == "" {
		c.Corrected = req.Origin
	}
	c.CreatedAt = s.clock.Now()
	return s.store.SaveCorrection(ctx, c)
}

const instruction = `You are an English writing tutor. Correct the learner's sentence.
Reply with JSON only:
{"correctedSentence": "", "feedback": "", "feedbackType": "GRAMMAR|SPELLING|STYLE|PUNCTUATION",
 "score": 1-10, "originTranslation": "", "correctedTranslation": "",
 "relatedExamples": [{"phrase": "", "source": "", "sourceType": "MOVIE|BOOK|NEWS|SONG|OTHER",
   "context": "", "difficulty": 1-10, "tags": []}]}
If the sentence is already correct, return it unchanged. If you cannot reply with JSON, use lines:
Corrected: ...
Feedback: ...
Type: ...
Score: ...
Origin translation: ...
Corrected translation: ...`
