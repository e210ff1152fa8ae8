package storage

import (
	"context"
	"fmt"

	"github.com/richdownie/healthme/internal"
)

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

type Options struct {
	Backend        string
	ActivitiesFile string
	UsersFile      string
	PostgresDSN    string
	SQLitePath     string
}

type migrator interface {
	Migrate(ctx context.Context) error
}

// Open returns the configured backend; SQL backends are migrated before use.
func Open(ctx context.Context, opts Options, logger internal.Logger) (Store, error) {
	var (
		store Store
		err   error
	)
	switch opts.Backend {
	case BackendFile, "":
		store, err = NewFileStorage(opts.ActivitiesFile, opts.UsersFile, logger)
	case BackendPostgres:
		store, err = NewPostgresStorage(ctx, opts.PostgresDSN, logger)
	case BackendSQLite:
		store, err = NewSQLiteStorage(opts.SQLitePath, logger)
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", opts.Backend)
	}
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, store); err != nil {
		store.Close()
		return nil, err
	}
	logger.Infof("storage: using %s backend", backendName(opts.Backend))
	return store, nil
}

// Migrate is a no-op for stores without a schema.
func Migrate(ctx context.Context, store Store) error {
	m, ok := store.(migrator)
	if !ok {
		return nil
	}
	return m.Migrate(ctx)
}

func backendName(b string) string {
	if b == "" {
		return BackendFile
	}
	return b
}
