package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// FileStore keeps each collection as a pretty-printed JSON array in its own
// file under dir.
type FileStore struct {
	dir    string
	logger *slog.Logger
}

// NewFileStore returns a FileStore rooted at dir. The directory is created on
// the first save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir, logger: slog.Default()}
}

// Path returns the file backing collection.
func (s *FileStore) Path(collection string) string {
	return filepath.Join(s.dir, filepath.Base(collection))
}

func (s *FileStore) Load(_ context.Context, collection string) []Record {
	path := s.Path(collection)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Record{}
	}
	if err != nil {
		s.logger.Error("reading collection", "collection", collection, "path", path, "error", err)
		return []Record{}
	}
	records, err := decodeRecords(data)
	if err != nil {
		s.logger.Error("parsing collection", "collection", collection, "path", path, "error", err)
		return []Record{}
	}
	return records
}

// Save replaces the collection file. The data is written to a temp file in
// the same directory and renamed over the target.
func (s *FileStore) Save(_ context.Context, collection string, records []Record) error {
	if err := s.save(collection, records); err != nil {
		s.logger.Error("writing collection", "collection", collection, "error", err)
		return err
	}
	return nil
}

func (s *FileStore) save(collection string, records []Record) error {
	data, err := encodeRecords(records)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", collection, err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	path := s.Path(collection)
	tmp, err := os.CreateTemp(s.dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", collection, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", collection, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing %s: %w", collection, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting mode on %s: %w", collection, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing %s: %w", collection, err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
