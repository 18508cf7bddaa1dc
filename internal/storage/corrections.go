package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/conorfennell/knolreview/internal/domain"
)

const correctionColumns = `
	id, user_id, request_key, origin, corrected, feedback, feedback_type, score,
	origin_translation, corrected_translation, favorite, created_at`

func scanCorrection(row rowScanner) (domain.Correction, error) {
	var c domain.Correction
	err := row.Scan(
		&c.ID, &c.UserID, &c.RequestKey, &c.Origin, &c.Corrected, &c.Feedback, &c.FeedbackType, &c.Score,
		&c.OriginTranslation, &c.CorrectedTranslation, &c.Favorite, &c.CreatedAt,
	)
	return c, err
}

// SaveCorrection inserts c together with its related examples and returns
// it with the assigned id.
func (db *DB) SaveCorrection(ctx context.Context, c domain.Correction) (domain.Correction, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return domain.Correction{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO corrections (user_id, request_key, origin, corrected, feedback, feedback_type, score,
		                         origin_translation, corrected_translation, favorite, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.UserID, c.RequestKey, c.Origin, c.Corrected, c.Feedback, string(c.FeedbackType), c.Score,
		c.OriginTranslation, c.CorrectedTranslation, c.Favorite, c.CreatedAt.UTC(),
	)
	if err != nil {
		return domain.Correction{}, fmt.Errorf("failed to insert correction %s: %w", c.RequestKey, err)
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return domain.Correction{}, fmt.Errorf("failed to get last insert ID for correction: %w", err)
	}

	for _, ex := range c.Examples {
		tags, err := encodeTags(ex.Tags)
		if err != nil {
			return domain.Correction{}, err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO related_examples (correction_id, phrase, source, source_type, context, difficulty, tags)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, c.ID, ex.Phrase, ex.Source, ex.SourceType, ex.Context, ex.Difficulty, tags)
		if err != nil {
			return domain.Correction{}, fmt.Errorf("failed to insert example for correction %d: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Correction{}, fmt.Errorf("failed to commit correction %d: %w", c.ID, err)
	}
	return c, nil
}

// Correction returns userID's correction with id, including examples.
func (db *DB) Correction(ctx context.Context, userID string, id int64) (domain.Correction, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+correctionColumns+` FROM corrections WHERE id = ? AND user_id = ?`, id, userID)
	c, err := scanCorrection(row)
	if err != nil {
		return domain.Correction{}, fmt.Errorf("failed to find correction %d: %w", id, notFound(err))
	}
	if c.Examples, err = db.examples(ctx, id); err != nil {
		return domain.Correction{}, err
	}
	return c, nil
}

// ListCorrections returns userID's corrections, newest first. Examples are
// not loaded.
func (db *DB) ListCorrections(ctx context.Context, userID string) ([]domain.Correction, error) {
	return db.listCorrections(ctx, `WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
}

// FavoriteCorrections returns userID's favourited corrections, oldest
// first. Examples are not loaded.
func (db *DB) FavoriteCorrections(ctx context.Context, userID string) ([]domain.Correction, error) {
	return db.listCorrections(ctx, `WHERE user_id = ? AND favorite = 1 ORDER BY id`, userID)
}

func (db *DB) listCorrections(ctx context.Context, where string, args ...any) ([]domain.Correction, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT `+correctionColumns+` FROM corrections `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list corrections: %w", err)
	}
	defer rows.Close()

	var out []domain.Correction
	for rows.Next() {
		c, err := scanCorrection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan correction row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SetFavorite flags userID's correction id. Unknown ids, or ids owned by
// someone else, yield domain.ErrNotFound.
func (db *DB) SetFavorite(ctx context.Context, userID string, id int64, favorite bool) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE corrections SET favorite = ? WHERE id = ? AND user_id = ?`, favorite, id, userID)
	if err != nil {
		return fmt.Errorf("failed to update favorite for correction %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update favorite for correction %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("failed to update favorite for correction %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (db *DB) examples(ctx context.Context, correctionID int64) ([]domain.RelatedExample, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT phrase, source, source_type, context, difficulty, tags
		FROM related_examples WHERE correction_id = ? ORDER BY id
	`, correctionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get examples for correction %d: %w", correctionID, err)
	}
	defer rows.Close()

	out := []domain.RelatedExample{}
	for rows.Next() {
		var (
			ex   domain.RelatedExample
			tags string
		)
		if err := rows.Scan(&ex.Phrase, &ex.Source, &ex.SourceType, &ex.Context, &ex.Difficulty, &tags); err != nil {
			return nil, fmt.Errorf("failed to scan example row: %w", err)
		}
		if ex.Tags, err = decodeTags(tags); err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	return out, rows.Err()
}

func encodeTags(tags []string) (string, error) {
	if len(tags) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to encode tags: %w", err)
	}
	return string(b), nil
}

func decodeTags(s string) ([]string, error) {
	var tags []string
	if err := json.Unmarshal([]byte(s), &tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags %q: %w", s, err)
	}
	if len(tags) == 0 {
		return nil, nil
	}
	return tags, nil
}

// CorrectionStats counts userID's corrections, their average score, the
// favourites and the corrections per feedback type.
func (db *DB) CorrectionStats(ctx context.Context, userID string) (domain.CorrectionStats, error) {
	stats := domain.CorrectionStats{ByFeedbackType: make(map[domain.FeedbackType]int)}
	err := db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(AVG(score), 0), COALESCE(SUM(favorite), 0)
		FROM corrections WHERE user_id = ?
	`, userID).Scan(&stats.Total, &stats.AverageScore, &stats.Favorites)
	if err != nil {
		return domain.CorrectionStats{}, fmt.Errorf("failed to get correction stats for %s: %w", userID, err)
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT feedback_type, COUNT(*) FROM corrections WHERE user_id = ? GROUP BY feedback_type
	`, userID)
	if err != nil {
		return domain.CorrectionStats{}, fmt.Errorf("failed to get feedback types for %s: %w", userID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			typ domain.FeedbackType
			n   int
		)
		if err := rows.Scan(&typ, &n); err != nil {
			return domain.CorrectionStats{}, fmt.Errorf("failed to scan feedback type row: %w", err)
		}
		stats.ByFeedbackType[typ] = n
	}
	return stats, rows.Err()
}
