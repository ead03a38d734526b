package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMigrationsSortsSQLFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_b.sql", "0001_a.sql", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.sql"), 0o700))

	migrations, err := ListMigrations(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_a.sql", "0002_b.sql"}, migrations)
}

func TestListMigrationsMissingDir(t *testing.T) {
	_, err := ListMigrations(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestShouldRetryMigration(t *testing.T) {
	assert.False(t, shouldRetryMigration(nil))
	assert.True(t, shouldRetryMigration(fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "40001"})))
	assert.True(t, shouldRetryMigration(context.DeadlineExceeded))
	assert.False(t, shouldRetryMigration(&pgconn.PgError{Code: "42P01"}))
	assert.False(t, shouldRetryMigration(errors.New("syntax error")))
}

func TestMigrationBackoffIsCapped(t *testing.T) {
	assert.Equal(t, 100*time.Millisecond, migrationBackoff(1))
	assert.Equal(t, 200*time.Millisecond, migrationBackoff(2))
	assert.Equal(t, migrationMaxBackoff, migrationBackoff(10))
}
