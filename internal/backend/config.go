package backend

import (
	"errors"
	"fmt"
	"net/url"

	"spendwise/internal/config"
)

var (
	ErrNoSQLitePath  = errors.New("SQLite database path is required for sqlite backend")
	ErrNoDatabaseURL = errors.New("database URL is required for postgres backend")
	ErrNotShared     = errors.New("memory backend is private to one process")
)

// FromAppConfig picks the backend settings out of the application config.
func FromAppConfig(cfg *config.Config) (Config, error) {
	if cfg == nil {
		return Config{}, errors.New("app config is nil")
	}
	kind, err := ParseKind(cfg.DataBackend)
	if err != nil {
		return Config{}, err
	}
	return Config{
		Kind:         kind,
		SQLiteDBPath: cfg.SQLiteDBPath,
		DatabaseURL:  cfg.DatabaseURL,
	}, nil
}

func (c Config) Validate() error {
	switch c.Kind {
	case MemoryBackend:
		return nil
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return ErrNoSQLitePath
		}
	case PostgresBackend:
		if c.DatabaseURL == "" {
			return ErrNoDatabaseURL
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Kind)
	}
	return nil
}

// RequireShared fails for backends another process cannot see. The worker
// reads what the API wrote, so it needs one of these.
func (c Config) RequireShared() error {
	if c.Kind == MemoryBackend {
		return ErrNotShared
	}
	return nil
}

// Target describes where the data lives, without credentials.
func (c Config) Target() string {
	switch c.Kind {
	case SQLiteBackend:
		return c.SQLiteDBPath
	case PostgresBackend:
		u, err := url.Parse(c.DatabaseURL)
		if err != nil {
			return "postgres"
		}
		return u.Redacted()
	}
	return string(c.Kind)
}
