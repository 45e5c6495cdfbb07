package sqlstore

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/migrations"
	"github.com/vadimbarashkov/shortlink/pkg/sqldb"
)

func newSQLiteDB(t *testing.T) *sqlx.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "links.db")
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"

	require.NoError(t, sqldb.RunMigrations(migrations.FS, "sqlite", "sqlite://"+path))

	db, err := sqldb.New(context.Background(), sqldb.DriverSQLite, dsn, sqldb.WithMaxOpenConns(1))
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func TestLinkRepository_SQLite(t *testing.T) {
	runStoreTests(t, newSQLiteDB)
}

// runStoreTests exercises a LinkRepository against a real database. newDB
// must return an empty, migrated database on every call.
func runStoreTests(t *testing.T, newDB func(t *testing.T) *sqlx.DB) {
	ctx := context.Background()

	t.Run("save and retrieve", func(t *testing.T) {
		repo := NewLinkRepository(newDB(t))

		saved, err := repo.Save(ctx, "x1", "https://example.com")
		require.NoError(t, err)
		assert.Equal(t, "x1", saved.Alias)
		assert.Zero(t, saved.Clicks)

		link, err := repo.RetrieveByAlias(ctx, "x1")
		require.NoError(t, err)
		assert.Equal(t, saved.LongURL, link.LongURL)
		assert.True(t, saved.CreatedAt.Equal(link.CreatedAt))

		exists, err := repo.Exists(ctx, "x1")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.Exists(ctx, "x2")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("duplicate alias", func(t *testing.T) {
		repo := NewLinkRepository(newDB(t))

		_, err := repo.Save(ctx, "x1", "https://a.example.com")
		require.NoError(t, err)

		link, err := repo.Save(ctx, "x1", "https://b.example.com")
		assert.ErrorIs(t, err, entity.ErrAliasExists)
		assert.Nil(t, link)

		stored, err := repo.RetrieveByAlias(ctx, "x1")
		require.NoError(t, err)
		assert.Equal(t, "https://a.example.com", stored.LongURL)
	})

	t.Run("missing alias", func(t *testing.T) {
		repo := NewLinkRepository(newDB(t))

		_, err := repo.RetrieveByAlias(ctx, "nope")
		assert.ErrorIs(t, err, entity.ErrLinkNotFound)

		_, err = repo.Update(ctx, "nope", "https://example.com")
		assert.ErrorIs(t, err, entity.ErrLinkNotFound)

		err = repo.IncrementClicks(ctx, "nope", "2024-05-01")
		assert.ErrorIs(t, err, entity.ErrLinkNotFound)

		assert.NoError(t, repo.Remove(ctx, "nope"))
	})

	t.Run("list newest first", func(t *testing.T) {
		repo := NewLinkRepository(newDB(t))

		base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
		for i, a := range []string{"a", "b", "c"} {
			repo.nowFunc = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
			_, err := repo.Save(ctx, a, "https://"+a+".example.com")
			require.NoError(t, err)
		}

		links, err := repo.RetrieveAll(ctx)
		require.NoError(t, err)
		require.Len(t, links, 3)
		assert.Equal(t, "c", links[0].Alias)
		assert.Equal(t, "b", links[1].Alias)
		assert.Equal(t, "a", links[2].Alias)
	})

	t.Run("update keeps clicks", func(t *testing.T) {
		repo := NewLinkRepository(newDB(t))

		_, err := repo.Save(ctx, "x1", "https://a.example.com")
		require.NoError(t, err)
		require.NoError(t, repo.IncrementClicks(ctx, "x1", "2024-05-01"))

		link, err := repo.Update(ctx, "x1", "https://b.example.com")
		require.NoError(t, err)
		assert.Equal(t, "https://b.example.com", link.LongURL)
		assert.EqualValues(t, 1, link.Clicks)
	})

	t.Run("daily clicks", func(t *testing.T) {
		repo := NewLinkRepository(newDB(t))

		_, err := repo.Save(ctx, "a", "https://a.example.com")
		require.NoError(t, err)
		_, err = repo.Save(ctx, "b", "https://b.example.com")
		require.NoError(t, err)

		require.NoError(t, repo.IncrementClicks(ctx, "a", "2024-05-01"))
		require.NoError(t, repo.IncrementClicks(ctx, "a", "2024-05-02"))
		require.NoError(t, repo.IncrementClicks(ctx, "a", "2024-05-02"))
		require.NoError(t, repo.IncrementClicks(ctx, "b", "2024-05-02"))

		counts, err := repo.RetrieveDailyClicks(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []entity.DailyClickCount{
			{Alias: "a", Day: "2024-05-02", Count: 2},
			{Alias: "b", Day: "2024-05-02", Count: 1},
			{Alias: "a", Day: "2024-05-01", Count: 1},
		}, counts)

		counts, err = repo.RetrieveDailyClicks(ctx, "b")
		require.NoError(t, err)
		assert.Equal(t, []entity.DailyClickCount{
			{Alias: "b", Day: "2024-05-02", Count: 1},
		}, counts)
	})

	t.Run("remove drops counters", func(t *testing.T) {
		repo := NewLinkRepository(newDB(t))

		_, err := repo.Save(ctx, "x1", "https://example.com")
		require.NoError(t, err)
		require.NoError(t, repo.IncrementClicks(ctx, "x1", "2024-05-01"))

		require.NoError(t, repo.Remove(ctx, "x1"))
		require.NoError(t, repo.Remove(ctx, "x1"))

		_, err = repo.RetrieveByAlias(ctx, "x1")
		assert.ErrorIs(t, err, entity.ErrLinkNotFound)

		counts, err := repo.RetrieveDailyClicks(ctx, "x1")
		require.NoError(t, err)
		assert.Empty(t, counts)

		_, err = repo.Save(ctx, "x1", "https://other.example.com")
		assert.NoError(t, err)
	})

	t.Run("concurrent clicks are not lost", func(t *testing.T) {
		repo := NewLinkRepository(newDB(t))

		_, err := repo.Save(ctx, "hot", "https://example.com")
		require.NoError(t, err)

		const n = 50
		var wg sync.WaitGroup
		errs := make(chan error, n)

		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- repo.IncrementClicks(ctx, "hot", "2024-05-01")
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}

		link, err := repo.RetrieveByAlias(ctx, "hot")
		require.NoError(t, err)
		assert.EqualValues(t, n, link.Clicks)

		counts, err := repo.RetrieveDailyClicks(ctx, "hot")
		require.NoError(t, err)

		var sum int64
		for _, c := range counts {
			sum += c.Count
		}
		assert.EqualValues(t, n, sum)
	})
}
