package storage

import (
	"context"
	"fmt"
)

const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Options selects and configures a Repository backend.
type Options struct {
	Backend     string
	DataDir     string
	PostgresDSN string
}

// Open returns the Repository for opts.Backend. An empty backend means file.
func Open(ctx context.Context, opts Options) (Repository, error) {
	switch opts.Backend {
	case "", BackendFile:
		return NewFileStore(opts.DataDir), nil
	case BackendSQLite:
		return OpenSQLite(opts.DataDir)
	case BackendPostgres:
		if opts.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres backend requires a DSN (JOBBOARD_POSTGRES_DSN)")
		}
		return OpenPostgres(ctx, opts.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}
