package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_MissingFileIsEmpty(t *testing.T) {
	s := NewFileStore(t.TempDir())

	records := s.Load(context.Background(), "jobs.json")
	require.NotNil(t, records)
	assert.Empty(t, records)
}

func TestFileStore_SaveThenLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	s := NewFileStore(dir)
	ctx := context.Background()

	in := []Record{
		{"id": 1, "name": "A"},
		{"id": 2, "name": "B", "isActive": true},
	}
	require.NoError(t, s.Save(ctx, "jobs.json", in))

	out := s.Load(ctx, "jobs.json")
	require.Len(t, out, 2)

	id, ok := out[0].ID()
	require.True(t, ok)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, "A", out[0]["name"])
	assert.Equal(t, json.Number("2"), out[1]["id"])
	assert.Equal(t, true, out[1]["isActive"])
}

func TestFileStore_PrettyPrinted(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)

	require.NoError(t, s.Save(context.Background(), "news.json", []Record{{"id": 1}}))

	data, err := os.ReadFile(filepath.Join(dir, "news.json"))
	require.NoError(t, err)
	assert.Equal(t, "[\n  {\n    \"id\": 1\n  }\n]", string(data))
}

func TestFileStore_NilSavesEmptyArray(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)

	require.NoError(t, s.Save(context.Background(), "news.json", nil))

	data, err := os.ReadFile(filepath.Join(dir, "news.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestFileStore_CorruptFileIsEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "jobs.json"), []byte("{not json"), 0o644))

	s := NewFileStore(dir)
	records := s.Load(context.Background(), "jobs.json")
	assert.Empty(t, records)
}

func TestFileStore_NonArrayIsEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "jobs.json"), []byte(`{"id":1}`), 0o644))

	s := NewFileStore(dir)
	assert.Empty(t, s.Load(context.Background(), "jobs.json"))
}

func TestFileStore_SaveFailureReported(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	// data dir path runs through a regular file, so MkdirAll fails.
	s := NewFileStore(filepath.Join(blocker, "data"))
	err := s.Save(context.Background(), "jobs.json", []Record{{"id": 1}})
	assert.Error(t, err)
}

func TestFileStore_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Save(ctx, "jobs.json", []Record{{"id": i + 1}}))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "jobs.json", entries[0].Name())
}

func TestFileStore_PathStaysInsideDir(t *testing.T) {
	s := NewFileStore("/data")
	assert.Equal(t, filepath.Join("/data", "passwd"), s.Path("../../etc/passwd"))
}
