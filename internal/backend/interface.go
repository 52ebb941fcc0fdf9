package backend

import (
	"context"
	"fmt"

	"spendwise/internal/ports"
)

// Kind selects the storage implementation behind ports.Store.
type Kind string

const (
	MemoryBackend   Kind = "memory"
	SQLiteBackend   Kind = "sqlite"
	PostgresBackend Kind = "postgres"
)

// Kinds lists the accepted DATA_BACKEND values.
func Kinds() []Kind {
	return []Kind{MemoryBackend, SQLiteBackend, PostgresBackend}
}

func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown backend %q (want one of %v)", s, Kinds())
}

func (k Kind) String() string {
	return string(k)
}

// Config holds what CreateBackend needs for a given Kind.
type Config struct {
	Kind         Kind
	SQLiteDBPath string
	DatabaseURL  string
}

// Factory opens the store for a Config.
type Factory interface {
	CreateBackend(ctx context.Context, cfg Config) (*Result, error)
}

// Result is an opened store. Close releases it and is safe on stores that
// hold no resources.
type Result struct {
	Store ports.Store
	close func() error
}

func (r *Result) Close() error {
	if r == nil || r.close == nil {
		return nil
	}
	return r.close()
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Pinger returns the store's health check, or nil for in-memory stores.
func (r *Result) Pinger() interface{ Ping(context.Context) error } {
	if p, ok := r.Store.(pinger); ok {
		return p
	}
	return nil
}
