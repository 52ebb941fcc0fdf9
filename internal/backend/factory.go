package backend

import (
	"context"
	"fmt"
	"log/slog"

	"spendwise/internal/memory"
	"spendwise/internal/storage"
)

type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend opens the store and applies pending migrations for the SQL
// backends.
func (f *DefaultFactory) CreateBackend(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		repo *storage.SQLRepository
		err  error
	)
	switch cfg.Kind {
	case MemoryBackend:
		f.logger.Warn("Using memory backend, data is lost on restart")
		return &Result{Store: memory.New()}, nil
	case SQLiteBackend:
		repo, err = storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	case PostgresBackend:
		repo, err = storage.NewPostgresRepository(ctx, cfg.DatabaseURL)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", cfg.Kind, err)
	}

	f.logger.Info("Storage backend ready", "backend", cfg.Kind.String(), "target", cfg.Target())
	return &Result{Store: repo, close: repo.Close}, nil
}
