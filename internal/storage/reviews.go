package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/conorfennell/knolreview/internal/domain"
)

// AppendReviewEvent records a sentence review. The sentence must be one of
// the user's corrections, otherwise domain.ErrNotFound is returned.
func (db *DB) AppendReviewEvent(ctx context.Context, e domain.ReviewEvent) (domain.ReviewEvent, error) {
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO review_events (user_id, correction_id, answer, correct, score, time_spent_ms, reviewed_at)
		SELECT ?, id, ?, ?, ?, ?, ?
		FROM corrections WHERE id = ? AND user_id = ?
	`,
		e.UserID, e.Answer, e.Correct, e.Score, e.TimeSpent.Milliseconds(), e.ReviewedAt.UTC(),
		e.SentenceID, e.UserID,
	)
	if err != nil {
		return domain.ReviewEvent{}, fmt.Errorf("failed to append review for sentence %d: %w", e.SentenceID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.ReviewEvent{}, fmt.Errorf("failed to append review for sentence %d: %w", e.SentenceID, err)
	}
	if n == 0 {
		return domain.ReviewEvent{}, fmt.Errorf("failed to append review for sentence %d: %w", e.SentenceID, domain.ErrNotFound)
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return domain.ReviewEvent{}, fmt.Errorf("failed to get last insert ID for review: %w", err)
	}
	return e, nil
}

// SentenceStats aggregates userID's review log per sentence. With ids only
// those sentences are included. Sentences never reviewed are absent.
func (db *DB) SentenceStats(ctx context.Context, userID string, ids ...int64) (map[int64]domain.ReviewStats, error) {
	query := `SELECT correction_id, correct, reviewed_at FROM review_events WHERE user_id = ?`
	args := []any{userID}
	if len(ids) > 0 {
		query += ` AND correction_id IN (?` + strings.Repeat(",?", len(ids)-1) + `)`
		for _, id := range ids {
			args = append(args, id)
		}
	}
	query += ` ORDER BY reviewed_at, id`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get review stats for %s: %w", userID, err)
	}
	defer rows.Close()

	stats := make(map[int64]domain.ReviewStats)
	for rows.Next() {
		var (
			id         int64
			correct    bool
			reviewedAt time.Time
		)
		if err := rows.Scan(&id, &correct, &reviewedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review row: %w", err)
		}
		s := stats[id]
		s.SentenceID = id
		s.ReviewCount++
		if correct {
			s.CorrectCount++
		}
		s.LastReviewedAt = reviewedAt
		s.Outcomes = append(s.Outcomes, correct)
		s.ReviewedAt = append(s.ReviewedAt, reviewedAt)
		stats[id] = s
	}
	return stats, rows.Err()
}
