package storage

import (
	"context"
	"fmt"
)

// Backend names accepted by Open.
const (
	BackendSQLite   = "sqlite"
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// Config selects and addresses a Store backend.
type Config struct {
	Backend     string
	DataDir     string
	DatabaseURL string
	RedisURL    string
}

// Open builds the configured backend. An empty backend selects SQLite.
func Open(ctx context.Context, config Config) (Store, error) {
	dir := config.DataDir
	if dir == "" {
		dir = "data"
	}

	switch config.Backend {
	case "", BackendSQLite:
		store, err := NewSQLiteStore(dir)
		if err != nil {
			return nil, err
		}
		return store, nil
	case BackendFile:
		store, err := NewFileStore(dir)
		if err != nil {
			return nil, err
		}
		return store, nil
	case BackendPostgres:
		store, err := NewPostgresStore(ctx, config.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	case BackendRedis:
		store, err := NewRedisStore(config.RedisURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", config.Backend)
	}
}
