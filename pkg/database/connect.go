package database

import (
	"context"
	"log/slog"
)

// Store - key-value storage implemented by every backend
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Connect - opens the configured backend: memory, sqlite or mysql
func Connect(ctx context.Context, driver, dsn string, log *slog.Logger) (Store, error) {
	if driver == "memory" {
		return NewMemoryStore(), nil
	}
	dialect, err := ParseDialect(driver)
	if err != nil {
		return nil, err
	}
	return Open(ctx, dialect, dsn, log)
}
