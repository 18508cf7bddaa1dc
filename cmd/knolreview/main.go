// Command knolreview schedules vocabulary and sentence reviews, scores
// answers and corrects sentences.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conorfennell/knolreview/internal/assess"
	"github.com/conorfennell/knolreview/internal/config"
	"github.com/conorfennell/knolreview/internal/correction"
	"github.com/conorfennell/knolreview/internal/flashcard"
	"github.com/conorfennell/knolreview/internal/llm"
	"github.com/conorfennell/knolreview/internal/review"
	"github.com/conorfennell/knolreview/internal/storage"
	"github.com/conorfennell/knolreview/internal/sync"
	"github.com/conorfennell/knolreview/internal/workpool"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, cleanup := newRootCmd()
	err := cmd.ExecuteContext(ctx)
	cleanup()
	if err != nil {
		os.Exit(1)
	}
}

// app holds the wired services for one command invocation.
type app struct {
	cfg         config.Config
	logger      *slog.Logger
	db          *storage.DB
	pool        *workpool.Pool
	reviews     *review.Service
	corrections *correction.Service
	cards       *flashcard.Service
	syncer      *sync.Syncer
}

func newApp(cfg config.Config) (*app, error) {
	logger := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	db, err := storage.Open(cfg.DB.Path)
	if err != nil {
		return nil, err
	}

	// Without an API key every model call falls back to local behaviour.
	var gen assess.Generator
	if cfg.LLM.APIKey != "" {
		gen = llm.New(cfg.LLM, logger)
	} else {
		logger.Debug("no API key configured, using heuristic comparison and fallback corrections")
	}

	pool := workpool.New(cfg.Generation.Pool, logger)

	a := &app{cfg: cfg, logger: logger, db: db, pool: pool}
	a.reviews = review.New(db, assess.NewComparer(gen, logger), review.Options{
		Owner:  cfg.Owner,
		Logger: logger,
	})
	a.corrections = correction.New(gen, db, pool, correction.Options{
		Owner:   cfg.Owner,
		Timeout: cfg.Generation.Timeout,
		Logger:  logger,
	})
	a.cards = flashcard.New(gen, db, cfg.Owner, logger)
	a.syncer = sync.New(db, cfg.Owner, cfg.ReposDir, sync.WithLogger(logger))
	return a, nil
}

func (a *app) Close() {
	a.pool.Close()
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", "error", err)
	}
}

// newRootCmd builds the command tree. cleanup releases whatever the executed
// command opened and is safe to call when nothing was.
func newRootCmd() (*cobra.Command, func()) {
	var a *app

	rootCmd := &cobra.Command{
		Use:           "knolreview",
		Short:         "Spaced-repetition reviews for vocabulary and corrected sentences",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			a, err = newApp(cfg)
			if err != nil {
				return fmt.Errorf("failed to start: %w", err)
			}
			return nil
		},
	}
	config.RegisterFlags(rootCmd.PersistentFlags())
	rootCmd.PersistentFlags().String("user", "", "user id (defaults to the configured owner)")

	get := func() *app { return a }
	rootCmd.AddCommand(
		newSyncCmd(get),
		newAddSourceCmd(get),
		newDueCmd(get),
		newCompareCmd(get),
		newAnswerCmd(get),
		newFlashcardsCmd(get),
		newReviewCardCmd(get),
		newAddCardCmd(get),
		newCardFavoriteCmd(get),
		newCardNoteCmd(get),
		newStatsCmd(get),
		newCorrectCmd(get),
		newCorrectionsCmd(get),
		newFavoriteCmd(get),
	)
	return rootCmd, func() {
		if a != nil {
			a.Close()
			a = nil
		}
	}
}
