// Package sqlstore implements the link store on top of sqlx. The same
// queries serve PostgreSQL (pgx) and SQLite (modernc); placeholders are
// rebound for the connected driver.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

type linkRecord struct {
	Alias     string    `db:"alias"`
	LongURL   string    `db:"long_url"`
	Clicks    int64     `db:"clicks"`
	CreatedAt time.Time `db:"created_at"`
}

func (l *linkRecord) toEntity() *entity.Link {
	return &entity.Link{
		Alias:     l.Alias,
		LongURL:   l.LongURL,
		Clicks:    l.Clicks,
		CreatedAt: l.CreatedAt.UTC(),
	}
}

type dailyClickRecord struct {
	Alias string `db:"alias"`
	Day   string `db:"day"`
	Count int64  `db:"count"`
}

type LinkRepository struct {
	db      *sqlx.DB
	nowFunc func() time.Time
}

func NewLinkRepository(db *sqlx.DB) *LinkRepository {
	return &LinkRepository{
		db:      db,
		nowFunc: time.Now,
	}
}

// Save inserts a new link with zero clicks. The primary key on alias makes
// concurrent inserts of the same alias fail with entity.ErrAliasExists.
func (r *LinkRepository) Save(ctx context.Context, alias, longURL string) (*entity.Link, error) {
	const op = "adapter.repository.sqlstore.LinkRepository.Save"
	const query = `INSERT INTO links (alias, long_url, clicks, created_at) VALUES (?, ?, 0, ?)`

	createdAt := r.nowFunc().UTC().Truncate(time.Microsecond)

	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), alias, longURL, createdAt); err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrAliasExists)
		}

		return nil, fmt.Errorf("%s: failed to insert into links table: %w", op, err)
	}

	return &entity.Link{
		Alias:     alias,
		LongURL:   longURL,
		CreatedAt: createdAt,
	}, nil
}

func (r *LinkRepository) RetrieveByAlias(ctx context.Context, alias string) (*entity.Link, error) {
	const op = "adapter.repository.sqlstore.LinkRepository.RetrieveByAlias"

	link, err := retrieveByAlias(ctx, r.db, alias)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return link, nil
}

func (r *LinkRepository) Exists(ctx context.Context, alias string) (bool, error) {
	const op = "adapter.repository.sqlstore.LinkRepository.Exists"
	const query = `SELECT EXISTS (SELECT 1 FROM links WHERE alias = ?)`

	var exists bool

	if err := r.db.GetContext(ctx, &exists, r.db.Rebind(query), alias); err != nil {
		return false, fmt.Errorf("%s: failed to check links table: %w", op, err)
	}

	return exists, nil
}

// RetrieveAll returns every link, newest first.
func (r *LinkRepository) RetrieveAll(ctx context.Context) ([]entity.Link, error) {
	const op = "adapter.repository.sqlstore.LinkRepository.RetrieveAll"
	const query = `SELECT alias, long_url, clicks, created_at FROM links ORDER BY created_at DESC, alias ASC`

	var recs []linkRecord

	if err := r.db.SelectContext(ctx, &recs, query); err != nil {
		return nil, fmt.Errorf("%s: failed to select from links table: %w", op, err)
	}

	links := make([]entity.Link, 0, len(recs))
	for i := range recs {
		links = append(links, *recs[i].toEntity())
	}

	return links, nil
}

func (r *LinkRepository) Update(ctx context.Context, alias, longURL string) (*entity.Link, error) {
	const op = "adapter.repository.sqlstore.LinkRepository.Update"
	const query = `UPDATE links SET long_url = ? WHERE alias = ?`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, tx.Rebind(query), longURL, alias)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to update links table row: %w", op, err)
	}

	if err := checkAffected(res); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	link, err := retrieveByAlias(ctx, tx, alias)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	return link, nil
}

// Remove deletes the link and its daily counters. Removing an unknown alias
// is not an error.
func (r *LinkRepository) Remove(ctx context.Context, alias string) error {
	const op = "adapter.repository.sqlstore.LinkRepository.Remove"

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM daily_clicks WHERE alias = ?`), alias); err != nil {
		return fmt.Errorf("%s: failed to delete from daily_clicks table: %w", op, err)
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM links WHERE alias = ?`), alias); err != nil {
		return fmt.Errorf("%s: failed to delete from links table: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	return nil
}

// IncrementClicks bumps the aggregate counter of the link and its counter for
// day in one transaction, creating the daily row on the first click.
func (r *LinkRepository) IncrementClicks(ctx context.Context, alias, day string) error {
	const op = "adapter.repository.sqlstore.LinkRepository.IncrementClicks"
	const (
		updateQuery = `UPDATE links SET clicks = clicks + 1 WHERE alias = ?`
		upsertQuery = `INSERT INTO daily_clicks (alias, day, count) VALUES (?, ?, 1)
			ON CONFLICT (alias, day) DO UPDATE SET count = daily_clicks.count + 1`
	)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, tx.Rebind(updateQuery), alias)
	if err != nil {
		return fmt.Errorf("%s: failed to update links table row: %w", op, err)
	}

	if err := checkAffected(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(upsertQuery), alias, day); err != nil {
		return fmt.Errorf("%s: failed to upsert daily_clicks table row: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	return nil
}

// RetrieveDailyClicks returns per-day counters, newest day first. An empty
// alias selects the counters of every link.
func (r *LinkRepository) RetrieveDailyClicks(ctx context.Context, alias string) ([]entity.DailyClickCount, error) {
	const op = "adapter.repository.sqlstore.LinkRepository.RetrieveDailyClicks"

	query := `SELECT alias, CAST(day AS TEXT) AS day, count FROM daily_clicks`
	var args []any

	if alias != "" {
		query += ` WHERE alias = ?`
		args = append(args, alias)
	}
	query += ` ORDER BY day DESC, alias ASC`

	var recs []dailyClickRecord

	if err := r.db.SelectContext(ctx, &recs, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("%s: failed to select from daily_clicks table: %w", op, err)
	}

	counts := make([]entity.DailyClickCount, 0, len(recs))
	for _, rec := range recs {
		counts = append(counts, entity.DailyClickCount{
			Alias: rec.Alias,
			Day:   rec.Day,
			Count: rec.Count,
		})
	}

	return counts, nil
}

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type queryer interface {
	sqlx.QueryerContext
	Rebind(query string) string
}

func retrieveByAlias(ctx context.Context, q queryer, alias string) (*entity.Link, error) {
	const query = `SELECT alias, long_url, clicks, created_at FROM links WHERE alias = ?`

	var rec linkRecord

	if err := sqlx.GetContext(ctx, q, &rec, q.Rebind(query), alias); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrLinkNotFound
		}

		return nil, fmt.Errorf("failed to get row from links table: %w", err)
	}

	return rec.toEntity(), nil
}

func checkAffected(res sql.Result) error {
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get number of affected rows: %w", err)
	}

	if rowsAffected == 0 {
		return entity.ErrLinkNotFound
	}

	return nil
}
