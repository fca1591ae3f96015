// Package store persists small JSON documents (settings, cached detection
// results) behind a key/value interface with SQLite, PostgreSQL and
// in-memory backends.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrNotFound = errors.New("key not found")

// KV is a string-keyed document store. Get returns ErrNotFound for missing
// keys; Delete of a missing key is not an error.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config selects and configures the backend.
type Config struct {
	Driver string `yaml:"driver"`
	// Path is the SQLite database file.
	Path string `yaml:"path"`
	// DSN is the PostgreSQL connection string.
	DSN string `yaml:"dsn"`
}

func DefaultConfig() Config {
	return Config{
		Driver: DriverSQLite,
		Path:   "nyxguard.db",
	}
}

// Open returns the backend named by cfg.Driver.
func Open(ctx context.Context, cfg Config) (KV, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverSQLite:
		return OpenSQLite(cfg.Path)
	case DriverPostgres:
		return OpenPostgres(ctx, cfg.DSN)
	case DriverMemory:
		return NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
