package main

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/conorfennell/knolreview/internal/domain"
	"github.com/conorfennell/knolreview/internal/review"
)

type appFunc func() *app

func userFlag(cmd *cobra.Command) string {
	u, _ := cmd.Flags().GetString("user")
	return u
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func newSyncCmd(get appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Import flashcards from every registered deck source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := get().syncer.Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "parsed %d cards, added %d, removed %d, %d errors\n",
				res.Parsed, res.Added, res.Removed, len(res.Errors))
			for _, e := range res.Errors {
				fmt.Fprintf(cmd.OutOrStdout(), "- %s\n", e)
			}
			return nil
		},
	}
}

func newAddSourceCmd(get appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "add-source <path/or/url.git>",
		Short: "Register a deck directory or git repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := get().syncer.AddSource(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "source %d: %s\n", id, args[0])
			return nil
		},
	}
}

func newDueCmd(get appFunc) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "due",
		Short: "List favourited sentences in review order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			if !cmd.Flags().Changed("limit") {
				limit = a.cfg.Review.SentenceLimit
			}
			sentences, total, err := a.reviews.DueSentences(cmd.Context(), userFlag(cmd), limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNEXT\tREVIEWS\tPROMPT")
			for _, s := range sentences {
				fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", s.ID, s.NextReviewDate.Format(time.DateOnly), s.ReviewCount, s.Prompt)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d favourites\n", len(sentences), total)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of sentences (1-50)")
	return cmd
}

func newCompareCmd(get appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "compare <sentence-id> <answer>",
		Short: "Score an answer against a sentence's best answer",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			cmp, err := get().reviews.CompareAnswer(cmd.Context(), userFlag(cmd), id, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "correct: %t  score: %d\n", cmp.Correct, cmp.Score)
			for _, d := range cmp.Differences {
				fmt.Fprintf(out, "- [%s/%s] %q -> %q: %s\n", d.Type, d.Importance, d.UserPart, d.BestPart, d.Explanation)
			}
			if cmp.OverallFeedback != "" {
				fmt.Fprintln(out, cmp.OverallFeedback)
			}
			if cmp.Tip != "" {
				fmt.Fprintln(out, cmp.Tip)
			}
			return nil
		},
	}
}

func newAnswerCmd(get appFunc) *cobra.Command {
	var timeSpent time.Duration
	cmd := &cobra.Command{
		Use:   "answer <sentence-id> <answer>",
		Short: "Score an answer and record the review",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a := get()
			answer := strings.Join(args[1:], " ")
			cmp, err := a.reviews.CompareAnswer(cmd.Context(), userFlag(cmd), id, answer)
			if err != nil {
				return err
			}
			next, err := a.reviews.SubmitAnswer(cmd.Context(), review.Submission{
				UserID:     userFlag(cmd),
				SentenceID: id,
				Answer:     answer,
				Correct:    cmp.Correct,
				Score:      cmp.Score,
				TimeSpent:  timeSpent,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "correct: %t  score: %d  next review: %s\n",
				cmp.Correct, cmp.Score, next.Format(time.DateOnly))
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeSpent, "time-spent", 0, "time taken to answer")
	return cmd
}

func newFlashcardsCmd(get appFunc) *cobra.Command {
	var (
		offset, limit int
		status        string
		favorites     bool
	)
	cmd := &cobra.Command{
		Use:   "flashcards",
		Short: "List flashcards in review order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := domain.FlashcardFilter{Status: domain.Status(strings.ToUpper(status)), Favorites: favorites}
			cards, total, err := get().reviews.DueFlashcards(cmd.Context(), userFlag(cmd), filter, offset, limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tFAV\tSTATUS\tNEXT\tWORD\tMEANING")
			for _, c := range cards {
				next := "now"
				if at, ok := c.NextDue(); ok {
					next = at.Local().Format(time.DateTime)
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", c.ID, star(c.Favorite), c.Review.Status, next, c.Word, firstLine(c.Meaning))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d-%d of %d\n", min(offset+1, total), min(offset+len(cards), total), total)
			return nil
		},
	}
	cmd.Flags().IntVar(&offset, "offset", 0, "number of cards to skip")
	cmd.Flags().IntVar(&limit, "limit", 20, "page size (1-100)")
	cmd.Flags().StringVar(&status, "status", "", "only cards with this mastery status")
	cmd.Flags().BoolVar(&favorites, "favorites", false, "only favourite cards")
	return cmd
}

func star(b bool) string {
	if b {
		return "*"
	}
	return ""
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func newReviewCardCmd(get appFunc) *cobra.Command {
	return &cobra.Command{
		Use:       "review-card <id> <correct|wrong>",
		Short:     "Record a flashcard review",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"correct", "wrong"},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var correct bool
			switch strings.ToLower(args[1]) {
			case "correct", "c", "yes", "y":
				correct = true
			case "wrong", "w", "no", "n":
			default:
				return fmt.Errorf("outcome must be correct or wrong, got %q", args[1])
			}
			card, err := get().reviews.ReviewFlashcard(cmd.Context(), userFlag(cmd), id, correct)
			if err != nil {
				return err
			}
			next := "-"
			if at, ok := card.NextDue(); ok {
				next = at.Local().Format(time.DateTime)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s, next review %s (accuracy %.0f%%)\n",
				card.Word, card.Review.Status, next, card.Review.Accuracy()*100)
			return nil
		},
	}
}

func newAddCardCmd(get appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "add-card <word> [meaning]",
		Short: "Create a flashcard, generating the meaning when none is given",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			card, err := get().cards.Create(cmd.Context(), userFlag(cmd), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "#%d  %s: %s\n", card.ID, card.Word, card.Meaning)
			if card.Example != "" {
				fmt.Fprintln(out, card.Example)
			}
			return nil
		},
	}
}

func newCardFavoriteCmd(get appFunc) *cobra.Command {
	var remove bool
	cmd := &cobra.Command{
		Use:   "card-favorite <flashcard-id>",
		Short: "Mark a flashcard as a favourite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return get().cards.SetFavorite(cmd.Context(), userFlag(cmd), id, !remove)
		},
	}
	cmd.Flags().BoolVar(&remove, "remove", false, "unmark instead")
	return cmd
}

func newCardNoteCmd(get appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "card-note <flashcard-id> [note]",
		Short: "Set the personal note of a flashcard; no note clears it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return get().cards.SetNote(cmd.Context(), userFlag(cmd), id, strings.Join(args[1:], " "))
		},
	}
}

func newStatsCmd(get appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show flashcard counts by mastery status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := get().reviews.FlashcardStats(cmd.Context(), userFlag(cmd))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "total: %d  ready for review: %d\n", stats.Total, stats.ReadyForReview)
			for _, st := range domain.Statuses {
				fmt.Fprintf(out, "  %-11s %d\n", st, stats.ByStatus[st])
			}
			return nil
		},
	}
}

func newCorrectCmd(get appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "correct <sentence>",
		Short: "Correct an English sentence",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := get().corrections.Correct(cmd.Context(), userFlag(cmd), strings.Join(args, " "))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "#%d  %s  (%s, %d/10)\n", c.ID, c.Corrected, c.FeedbackType, c.Score)
			if c.Feedback != "" {
				fmt.Fprintln(out, c.Feedback)
			}
			if c.OriginTranslation != "" {
				fmt.Fprintf(out, "translation: %s\n", c.OriginTranslation)
			}
			for _, ex := range c.Examples {
				fmt.Fprintf(out, "- %s (%s)\n", ex.Phrase, ex.Source)
			}
			return nil
		},
	}
}

func newCorrectionsCmd(get appFunc) *cobra.Command {
	var stats bool
	cmd := &cobra.Command{
		Use:   "corrections",
		Short: "List past corrections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if stats {
				return printCorrectionStats(cmd, get())
			}
			list, err := get().corrections.List(cmd.Context(), userFlag(cmd))
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tFAV\tTYPE\tORIGIN\tCORRECTED")
			for _, c := range list {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", c.ID, star(c.Favorite), c.FeedbackType, c.Origin, c.Corrected)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&stats, "stats", false, "show totals instead of the list")
	return cmd
}

func printCorrectionStats(cmd *cobra.Command, a *app) error {
	stats, err := a.corrections.Stats(cmd.Context(), userFlag(cmd))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "total: %d  average score: %.1f  favourites: %d\n", stats.Total, stats.AverageScore, stats.Favorites)
	types := make([]string, 0, len(stats.ByFeedbackType))
	for t := range stats.ByFeedbackType {
		types = append(types, string(t))
	}
	slices.Sort(types)
	for _, t := range types {
		fmt.Fprintf(out, "  %-11s %d\n", t, stats.ByFeedbackType[domain.FeedbackType(t)])
	}
	return nil
}

func newFavoriteCmd(get appFunc) *cobra.Command {
	var remove bool
	cmd := &cobra.Command{
		Use:   "favorite <correction-id>",
		Short: "Add a correction to sentence review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return get().corrections.SetFavorite(cmd.Context(), userFlag(cmd), id, !remove)
		},
	}
	cmd.Flags().BoolVar(&remove, "remove", false, "remove from sentence review instead")
	return cmd
}
