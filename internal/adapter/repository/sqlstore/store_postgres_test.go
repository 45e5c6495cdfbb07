//go:build integration

package sqlstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/vadimbarashkov/shortlink/migrations"
	"github.com/vadimbarashkov/shortlink/pkg/sqldb"
)

func TestLinkRepository_Postgres(t *testing.T) {
	ctx := context.Background()

	pgCont, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image: "postgres:16-alpine",
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "postgres",
			},
			ExposedPorts: []string{"5432/tcp"},
			WaitingFor:   wait.ForListeningPort("5432/tcp"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgCont.Terminate(ctx); err != nil {
			t.Fatalf("Failed to terminate postgres container: %v", err)
		}
	})

	host, err := pgCont.Host(ctx)
	require.NoError(t, err)
	port, err := pgCont.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := func(name string) string {
		return fmt.Sprintf("postgres://test:test@%s:%d/%s?sslmode=disable", host, port.Int(), name)
	}

	admin, err := sqldb.New(ctx, sqldb.DriverPostgres, dsn("postgres"))
	require.NoError(t, err)
	t.Cleanup(func() {
		admin.Close()
	})

	var seq int

	// Each subtest gets its own database so counters never leak between them.
	runStoreTests(t, func(t *testing.T) *sqlx.DB {
		t.Helper()

		seq++
		name := fmt.Sprintf("links_%d", seq)

		_, err := admin.ExecContext(ctx, "CREATE DATABASE "+name)
		require.NoError(t, err)

		require.NoError(t, sqldb.RunMigrations(migrations.FS, "postgres", dsn(name)))

		db, err := sqldb.New(ctx, sqldb.DriverPostgres, dsn(name))
		require.NoError(t, err)
		t.Cleanup(func() {
			db.Close()
		})

		return db
	})
}
