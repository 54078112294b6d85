package db_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnedoszytko/leitner-flashcards/internal/db"
)

func TestOpen_AppliesMigrationsOnce(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "leitner.db")

	first, err := db.Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := db.Open(ctx, path)
	require.NoError(t, err)
	defer second.Close()

	var applied int
	require.NoError(t, second.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&applied))
	assert.Equal(t, 1, applied)

	for _, table := range []string{"subjects", "decks", "cards", "sessions"} {
		var name string
		err := second.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		assert.NoError(t, err, "table %s should exist", table)
	}
}

func TestOpen_EnforcesCardConstraints(t *testing.T) {
	ctx := context.Background()
	database, err := db.Open(ctx, filepath.Join(t.TempDir(), "leitner.db"))
	require.NoError(t, err)
	defer database.Close()

	_, err = database.ExecContext(ctx, `INSERT INTO cards (id, deck_id) VALUES ('c1', 'missing-deck')`)
	assert.Error(t, err, "foreign key to decks is enforced")

	_, err = database.ExecContext(ctx, `INSERT INTO decks (id, name, created_at, updated_at) VALUES ('d1', 'D', 'x', 'x')`)
	require.NoError(t, err)
	_, err = database.ExecContext(ctx, `INSERT INTO cards (id, deck_id, box) VALUES ('c1', 'd1', 5)`)
	assert.Error(t, err, "box is limited to 1..4")
}
