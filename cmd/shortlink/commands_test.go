package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEnv(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "links.db")

	t.Setenv("CONFIG_PATH", "")
	t.Setenv("ENV", "dev")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", path)
	t.Setenv("BASE_URL", "https://sho.rt")
	t.Setenv("ALIAS_LENGTH", "")

	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMigrateCmd(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "migrations applied")

	_, err = execute(t, "migrate")
	assert.NoError(t, err)
}

func TestCreateCmd(t *testing.T) {
	t.Run("custom alias", func(t *testing.T) {
		setupEnv(t)

		out, err := execute(t, "create", "--url", "https://example.com", "--alias", "Promo")
		require.NoError(t, err)
		assert.Equal(t, "https://sho.rt/promo\n", out)

		_, err = execute(t, "create", "--url", "https://other.example.com", "--alias", "promo")
		assert.Error(t, err)
	})

	t.Run("generated alias", func(t *testing.T) {
		setupEnv(t)
		t.Setenv("ALIAS_LENGTH", "5")

		out, err := execute(t, "create", "--url", "https://example.com")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "https://sho.rt/"))
		assert.Len(t, strings.TrimSpace(strings.TrimPrefix(out, "https://sho.rt/")), 5)
	})

	t.Run("missing url", func(t *testing.T) {
		setupEnv(t)

		_, err := execute(t, "create")
		assert.Error(t, err)
	})
}
