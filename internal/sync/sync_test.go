package sync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/knolreview/internal/storage"
)

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func openDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "sync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func writeDeck(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestRunReconcilesLocalSource(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	decks := t.TempDir()
	writeDeck(t, decks, "a.md", "W: ephemeral\nM: short-lived\n---\nW: candid\nM: frank\n")
	writeDeck(t, filepath.Join(decks, "nested"), "b.md", "W: serendipity\nM: happy accident\n")
	writeDeck(t, decks, "notes.txt", "W: ignored\n")

	s := New(db, "system", t.TempDir(), quiet())
	_, err := s.AddSource(ctx, decks)
	require.NoError(t, err)

	res, err := s.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Parsed)
	assert.Equal(t, 3, res.Added)
	assert.Empty(t, res.Errors)

	cards, err := db.ListFlashcards(ctx, "system")
	require.NoError(t, err)
	assert.Len(t, cards, 3)

	// Second run is idempotent.
	res, err = s.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Added)
	assert.Zero(t, res.Removed)

	// Removing a card from the deck deletes it.
	writeDeck(t, decks, "a.md", "W: ephemeral\nM: short-lived\n")
	res, err = s.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Removed)

	cards, err = db.ListFlashcards(ctx, "system")
	require.NoError(t, err)
	assert.Len(t, cards, 2)

	src, err := db.FindSourceByPath(ctx, decks)
	require.NoError(t, err)
	assert.True(t, src.LastScanned.Valid)
}

func TestAddSource(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	s := New(db, "system", t.TempDir(), quiet())

	id1, err := s.AddSource(ctx, "https://github.com/acme/decks.git")
	require.NoError(t, err)
	id2, err := s.AddSource(ctx, "https://github.com/acme/decks.git")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	src, err := db.FindSourceByPath(ctx, "https://github.com/acme/decks.git")
	require.NoError(t, err)
	assert.Equal(t, storage.SourceGit, src.Type)

	_, err = s.AddSource(ctx, "  ")
	assert.Error(t, err)
}

func TestRunGitSource(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	reposDir := t.TempDir()

	var fetched string
	fakeGit := func(_ context.Context, url, local string) error {
		fetched = url
		writeDeck(t, local, "deck.md", "W: hola\nM: hello\n")
		return nil
	}
	s := New(db, "system", reposDir, quiet(), WithGit(fakeGit))
	_, err := s.AddSource(ctx, "git@github.com:acme/decks.git")
	require.NoError(t, err)

	res, err := s.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, "git@github.com:acme/decks.git", fetched)
	assert.Equal(t, 1, res.Added)
	assert.DirExists(t, filepath.Join(reposDir, "github.com", "acme", "decks"))
}

func TestRunSkipsFailingGitSource(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	boom := errors.New("auth required")
	s := New(db, "system", t.TempDir(), quiet(),
		WithGit(func(context.Context, string, string) error { return boom }))
	_, err := s.AddSource(ctx, "https://example.com/private.git")
	require.NoError(t, err)

	res, err := s.Run(ctx)
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	assert.ErrorIs(t, res.Errors[0], boom)
}
