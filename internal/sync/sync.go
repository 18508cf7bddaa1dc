// Package sync imports markdown vocabulary decks into flashcards.
package sync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/conorfennell/knolreview/internal/domain"
	"github.com/conorfennell/knolreview/internal/gitsource"
	"github.com/conorfennell/knolreview/internal/knol"
	"github.com/conorfennell/knolreview/internal/parser"
	"github.com/conorfennell/knolreview/internal/storage"
)

// Store is the persistence used while reconciling decks.
type Store interface {
	GetAllSources(ctx context.Context) ([]storage.Source, error)
	InsertSource(ctx context.Context, path string, typ storage.SourceType) (int64, error)
	FindSourceByPath(ctx context.Context, path string) (storage.Source, error)
	UpdateSourceLastScanned(ctx context.Context, sourceID int64, at time.Time) error

	FlashcardByHash(ctx context.Context, userID, hash string) (domain.Flashcard, error)
	InsertFlashcard(ctx context.Context, userID string, card domain.Card, sourceID *int64) (int64, error)
	FlashcardsBySource(ctx context.Context, sourceID int64) ([]domain.Flashcard, error)
	DeleteFlashcard(ctx context.Context, id int64) error
}

// GitSyncer fetches a git source into a local directory.
type GitSyncer func(ctx context.Context, url, localPath string) error

// Syncer reconciles every configured source into the owner's flashcards.
type Syncer struct {
	store    Store
	owner    string
	reposDir string
	git      GitSyncer
	clock    domain.Clock
	logger   *slog.Logger
}

// Option customises a Syncer.
type Option func(*Syncer)

// WithGit replaces the git fetcher, mainly for tests.
func WithGit(g GitSyncer) Option { return func(s *Syncer) { s.git = g } }

// WithClock sets the clock used for last-scanned timestamps.
func WithClock(c domain.Clock) Option { return func(s *Syncer) { s.clock = c } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(s *Syncer) { s.logger = l } }

// New returns a Syncer that imports cards for owner and checks git sources
// out below reposDir.
func New(store Store, owner, reposDir string, opts ...Option) *Syncer {
	s := &Syncer{
		store:    store,
		owner:    owner,
		reposDir: reposDir,
		git:      gitsource.Sync,
		clock:    domain.SystemClock{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddSource registers a directory or git URL. Registering the same path
// twice is a no-op that returns the existing id.
func (s *Syncer) AddSource(ctx context.Context, path string) (int64, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return 0, &domain.ValidationError{Field: "path", Reason: "must not be empty"}
	}
	typ := storage.SourceLocal
	if gitsource.IsRemote(path) {
		typ = storage.SourceGit
	} else {
		abs, err := filepath.Abs(path)
		if err != nil {
			return 0, fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		path = abs
	}

	existing, err := s.store.FindSourceByPath(ctx, path)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return 0, err
	}
	id, err := s.store.InsertSource(ctx, path, typ)
	if err != nil {
		return 0, err
	}
	s.logger.Info("source added", "id", id, "type", typ, "path", path)
	return id, nil
}

// Result summarises one reconciliation.
type Result struct {
	Parsed  int
	Added   int
	Removed int
	Errors  []error
}

// Run reconciles every source. A failing source is logged and skipped.
func (s *Syncer) Run(ctx context.Context) (Result, error) {
	sources, err := s.store.GetAllSources(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to get sources: %w", err)
	}
	if len(sources) == 0 {
		s.logger.Info("no sources configured, add one with the add-source command")
		return Result{}, nil
	}

	var total Result
	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		s.logger.Info("syncing source", "id", source.ID, "type", source.Type, "path", source.Path)

		dir := source.Path
		if source.Type == storage.SourceGit {
			local, err := gitsource.LocalPath(s.reposDir, source.Path)
			if err != nil {
				s.logger.Error("error determining local path for git repo", "url", source.Path, "error", err)
				total.Errors = append(total.Errors, err)
				continue
			}
			if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
				return total, fmt.Errorf("failed to create repos directory: %w", err)
			}
			if err := s.git(ctx, source.Path, local); err != nil {
				s.logger.Error("error syncing git repo", "url", source.Path, "error", err)
				total.Errors = append(total.Errors, err)
				continue
			}
			dir = local
		}

		r := s.reconcile(ctx, source.ID, dir)
		total.Parsed += r.Parsed
		total.Added += r.Added
		total.Removed += r.Removed
		total.Errors = append(total.Errors, r.Errors...)
	}
	s.logger.Info("sync complete",
		"parsed_cards", total.Parsed,
		"added", total.Added,
		"removed", total.Removed,
		"errors", len(total.Errors),
	)
	return total, nil
}

func (s *Syncer) reconcile(ctx context.Context, sourceID int64, dir string) Result {
	var r Result
	found := make(map[string]bool)

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		cards, err := parser.ParseFile(path)
		if err != nil {
			r.Errors = append(r.Errors, fmt.Errorf("parsing %s: %w", path, err))
			return nil
		}
		for _, card := range cards {
			card.Hash = knol.Hash(card)
			r.Parsed++
			if found[card.Hash] {
				continue
			}
			found[card.Hash] = true

			_, err := s.store.FlashcardByHash(ctx, s.owner, card.Hash)
			if err == nil {
				continue
			}
			if !errors.Is(err, domain.ErrNotFound) {
				r.Errors = append(r.Errors, fmt.Errorf("db check for %s: %w", card.Hash, err))
				continue
			}
			if _, err := s.store.InsertFlashcard(ctx, s.owner, card, &sourceID); err != nil {
				r.Errors = append(r.Errors, fmt.Errorf("db insert for %s: %w", card.Hash, err))
				continue
			}
			s.logger.Debug("new card inserted", "hash", card.Hash, "word", card.Word)
			r.Added++
		}
		return nil
	})
	if walkErr != nil {
		s.logger.Error("error walking directory", "path", dir, "error", walkErr)
		r.Errors = append(r.Errors, walkErr)
		// Without a complete walk we cannot tell orphans apart.
		return r
	}

	existing, err := s.store.FlashcardsBySource(ctx, sourceID)
	if err != nil {
		r.Errors = append(r.Errors, err)
		return r
	}
	for _, card := range existing {
		if found[card.Hash] {
			continue
		}
		s.logger.Info("orphaned card, deleting", "hash", card.Hash, "word", card.Word)
		if err := s.store.DeleteFlashcard(ctx, card.ID); err != nil {
			s.logger.Warn("failed to delete orphaned card", "hash", card.Hash, "error", err)
			r.Errors = append(r.Errors, err)
			continue
		}
		r.Removed++
	}

	if err := s.store.UpdateSourceLastScanned(ctx, sourceID, s.clock.Now()); err != nil {
		s.logger.Warn("failed to update last scanned for source", "source_id", sourceID, "error", err)
	}

	s.logger.Info("reconciliation complete",
		"path", dir,
		"parsed_cards", r.Parsed,
		"added", r.Added,
		"orphaned_deleted", r.Removed,
		"errors", len(r.Errors),
	)
	return r
}
