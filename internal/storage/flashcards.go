package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/conorfennell/knolreview/internal/domain"
)

const flashcardColumns = `
	id, user_id, word, meaning, example, hash, source_id,
	status, review_count, correct_count, incorrect_count,
	last_reviewed_at, next_review_at, favorite, note, version`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFlashcard(row rowScanner) (domain.Flashcard, error) {
	var (
		f              domain.Flashcard
		sourceID       sql.NullInt64
		lastReviewedAt sql.NullTime
		nextReviewAt   sql.NullTime
	)
	err := row.Scan(
		&f.ID, &f.UserID, &f.Word, &f.Meaning, &f.Example, &f.Hash, &sourceID,
		&f.Review.Status, &f.Review.ReviewCount, &f.Review.CorrectCount, &f.Review.IncorrectCount,
		&lastReviewedAt, &nextReviewAt, &f.Favorite, &f.Note, &f.Review.Version,
	)
	if err != nil {
		return domain.Flashcard{}, err
	}
	if sourceID.Valid {
		f.SourceID = &sourceID.Int64
	}
	f.Review.LastReviewedAt = timePtr(lastReviewedAt)
	f.Review.NextReviewAt = timePtr(nextReviewAt)
	return f, nil
}

func (db *DB) queryFlashcards(ctx context.Context, query string, args ...any) ([]domain.Flashcard, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []domain.Flashcard
	for rows.Next() {
		f, err := scanFlashcard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, f)
	}
	return cards, rows.Err()
}

// InsertFlashcard stores a new card for userID with a zeroed review state
// and returns its id.
func (db *DB) InsertFlashcard(ctx context.Context, userID string, card domain.Card, sourceID *int64) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO flashcards (user_id, word, meaning, example, hash, source_id, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, userID, card.Word, card.Meaning, card.Example, card.Hash, nullInt(sourceID), string(domain.StatusNew))
	if err != nil {
		return 0, fmt.Errorf("failed to insert flashcard %s: %w", card.Hash, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for flashcard %s: %w", card.Hash, err)
	}
	return id, nil
}

// Flashcard returns the card with id, or domain.ErrNotFound.
func (db *DB) Flashcard(ctx context.Context, id int64) (domain.Flashcard, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+flashcardColumns+` FROM flashcards WHERE id = ?`, id)
	f, err := scanFlashcard(row)
	if err != nil {
		return domain.Flashcard{}, fmt.Errorf("failed to find flashcard %d: %w", id, notFound(err))
	}
	return f, nil
}

// FlashcardByHash returns userID's card with hash, or domain.ErrNotFound.
func (db *DB) FlashcardByHash(ctx context.Context, userID, hash string) (domain.Flashcard, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+flashcardColumns+` FROM flashcards WHERE user_id = ? AND hash = ?`, userID, hash)
	f, err := scanFlashcard(row)
	if err != nil {
		return domain.Flashcard{}, fmt.Errorf("failed to find flashcard by hash %s: %w", hash, notFound(err))
	}
	return f, nil
}

// FlashcardByWord returns userID's card for word, compared case
// insensitively, or domain.ErrNotFound.
func (db *DB) FlashcardByWord(ctx context.Context, userID, word string) (domain.Flashcard, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+flashcardColumns+` FROM flashcards WHERE user_id = ? AND lower(word) = lower(?) ORDER BY id LIMIT 1`,
		userID, word)
	f, err := scanFlashcard(row)
	if err != nil {
		return domain.Flashcard{}, fmt.Errorf("failed to find flashcard for %q: %w", word, notFound(err))
	}
	return f, nil
}

// ListFlashcards returns every card of userID in insertion order.
func (db *DB) ListFlashcards(ctx context.Context, userID string) ([]domain.Flashcard, error) {
	cards, err := db.queryFlashcards(ctx,
		`SELECT `+flashcardColumns+` FROM flashcards WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list flashcards for %s: %w", userID, err)
	}
	return cards, nil
}

// FlashcardsBySource returns the cards imported from sourceID.
func (db *DB) FlashcardsBySource(ctx context.Context, sourceID int64) ([]domain.Flashcard, error) {
	cards, err := db.queryFlashcards(ctx,
		`SELECT `+flashcardColumns+` FROM flashcards WHERE source_id = ? ORDER BY id`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get flashcards for source ID %d: %w", sourceID, err)
	}
	return cards, nil
}

// UpdateReviewState writes state if the stored version still equals
// expected, bumping the version. A stale expected version yields
// domain.ErrConflict and an unknown id domain.ErrNotFound.
func (db *DB) UpdateReviewState(ctx context.Context, id, expected int64, state domain.ReviewState) error {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE flashcards
		SET status = ?, review_count = ?, correct_count = ?, incorrect_count = ?,
		    last_reviewed_at = ?, next_review_at = ?, version = version + 1
		WHERE id = ? AND version = ?
	`,
		string(state.Status), state.ReviewCount, state.CorrectCount, state.IncorrectCount,
		nullTime(state.LastReviewedAt), nullTime(state.NextReviewAt),
		id, expected,
	)
	if err != nil {
		return fmt.Errorf("failed to update review state for flashcard %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update review state for flashcard %d: %w", id, err)
	}
	if n == 1 {
		return nil
	}

	var exists bool
	err = db.conn.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM flashcards WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check flashcard %d: %w", id, err)
	}
	if !exists {
		return fmt.Errorf("failed to update review state for flashcard %d: %w", id, domain.ErrNotFound)
	}
	return fmt.Errorf("failed to update review state for flashcard %d: %w", id, domain.ErrConflict)
}

// SetFlashcardFavorite flags userID's card id. Unknown ids, or ids owned by
// someone else, yield domain.ErrNotFound.
func (db *DB) SetFlashcardFavorite(ctx context.Context, userID string, id int64, favorite bool) error {
	return db.updateFlashcard(ctx, userID, id, "favorite", favorite)
}

// SetFlashcardNote replaces the personal note on userID's card id.
func (db *DB) SetFlashcardNote(ctx context.Context, userID string, id int64, note string) error {
	return db.updateFlashcard(ctx, userID, id, "note", note)
}

// updateFlashcard sets one user-editable column. column is never user input.
func (db *DB) updateFlashcard(ctx context.Context, userID string, id int64, column string, value any) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE flashcards SET `+column+` = ? WHERE id = ? AND user_id = ?`, value, id, userID)
	if err != nil {
		return fmt.Errorf("failed to update %s for flashcard %d: %w", column, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update %s for flashcard %d: %w", column, id, err)
	}
	if n == 0 {
		return fmt.Errorf("failed to update %s for flashcard %d: %w", column, id, domain.ErrNotFound)
	}
	return nil
}

// DeleteFlashcard removes a card.
func (db *DB) DeleteFlashcard(ctx context.Context, id int64) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM flashcards WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete flashcard %d: %w", id, err)
	}
	return nil
}
