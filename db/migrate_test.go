package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate(t *testing.T) {
	t.Run("records every embedded migration", func(t *testing.T) {
		db, err := Open(filepath.Join(t.TempDir(), "test.db"), nil)
		require.NoError(t, err)
		defer db.Close()

		pending, err := Pending(db)
		require.NoError(t, err)
		assert.Equal(t, []string{"000_create_schema_migrations.sql", "001_create_messages.sql"}, pending)

		require.NoError(t, Migrate(db, nil))

		applied, err := Applied(db)
		require.NoError(t, err)
		require.Len(t, applied, 2)
		assert.Equal(t, "000", applied[0].Version)
		assert.Equal(t, "001", applied[1].Version)
		assert.NotEmpty(t, applied[1].AppliedAt)

		pending, err = Pending(db)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})

	t.Run("is idempotent", func(t *testing.T) {
		db, err := Open(filepath.Join(t.TempDir(), "test.db"), nil)
		require.NoError(t, err)
		defer db.Close()

		require.NoError(t, Migrate(db, nil))
		require.NoError(t, Migrate(db, nil), "running migrations multiple times should be safe")

		applied, err := Applied(db)
		require.NoError(t, err)
		assert.Len(t, applied, 2)
	})

	t.Run("messages table accepts rows after migration", func(t *testing.T) {
		db, err := Open(filepath.Join(t.TempDir(), "test.db"), nil)
		require.NoError(t, err)
		defer db.Close()
		require.NoError(t, Migrate(db, nil))

		var id int64
		err = db.QueryRow(
			"INSERT INTO messages (author, content, timestamp) VALUES (?, ?, ?) RETURNING id",
			"a", "b", "2025-01-01T00:00:00Z",
		).Scan(&id)
		require.NoError(t, err)
		assert.Equal(t, int64(1), id)
	})

	t.Run("fails on a closed database", func(t *testing.T) {
		db, err := Open(filepath.Join(t.TempDir(), "test.db"), nil)
		require.NoError(t, err)
		db.Close()

		err = Migrate(db, nil)
		require.Error(t, err)
		assert.True(t, IsDatabaseClosed(err))
	})
}
