package sqldb

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("unknown driver", func(t *testing.T) {
		db, err := New(context.Background(), "unknown", "dsn")

		assert.Error(t, err)
		assert.Nil(t, db)
	})

	t.Run("sqlite with options", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "test.db")

		db, err := New(context.Background(), DriverSQLite, path, WithMaxOpenConns(1))
		require.NoError(t, err)
		t.Cleanup(func() {
			db.Close()
		})

		assert.Equal(t, 1, db.Stats().MaxOpenConnections)
		assert.Equal(t, "SELECT 1 WHERE x = ?", db.Rebind("SELECT 1 WHERE x = ?"))
	})
}

func TestRunMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"sqlite/000001_create_items.up.sql":   {Data: []byte(`CREATE TABLE items (id INTEGER PRIMARY KEY);`)},
		"sqlite/000001_create_items.down.sql": {Data: []byte(`DROP TABLE items;`)},
	}

	t.Run("missing directory", func(t *testing.T) {
		err := RunMigrations(fsys, "postgres", "sqlite://"+filepath.Join(t.TempDir(), "test.db"))

		assert.Error(t, err)
	})

	t.Run("success and idempotent", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "test.db")

		require.NoError(t, RunMigrations(fsys, "sqlite", "sqlite://"+path))
		require.NoError(t, RunMigrations(fsys, "sqlite", "sqlite://"+path))

		db, err := New(context.Background(), DriverSQLite, path)
		require.NoError(t, err)
		t.Cleanup(func() {
			db.Close()
		})

		var n int
		err = db.Get(&n, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'items'`)

		assert.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}
