package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_Backends(t *testing.T) {
	ctx := context.Background()

	repo, err := Open(ctx, Options{DataDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, repo)

	repo, err = Open(ctx, Options{Backend: BackendSQLite, DataDir: ":memory:"})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, repo)
	repo.Close()

	_, err = Open(ctx, Options{Backend: BackendPostgres})
	assert.ErrorContains(t, err, "DSN")

	_, err = Open(ctx, Options{Backend: "redis"})
	assert.ErrorContains(t, err, "unknown storage backend")
}
