// Package storage provides the key-value persistence backends. Every backend
// stores opaque blobs addressed by namespace and key, with no multi-key
// transactions.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/claude/topset/internal/config"
)

// Namespaces used by the journal.
const (
	NamespaceSessions = "sessions"
	NamespaceUsers    = "users"
	NamespaceCheckins = "checkins"
	NamespaceCycle    = "cycle"
)

// Namespaces lists every namespace in a stable order.
var Namespaces = []string{NamespaceSessions, NamespaceUsers, NamespaceCheckins, NamespaceCycle}

// ErrNotFound is returned by Get when no blob is stored under the key.
var ErrNotFound = errors.New("not found")

// Store is a get/set/delete blob store.
type Store interface {
	Get(ctx context.Context, namespace, key string) ([]byte, error)
	Set(ctx context.Context, namespace, key string, blob []byte) error
	Delete(ctx context.Context, namespace, key string) error
	Close() error
}

// Open builds the backend selected in cfg. Postgres migrations are applied
// from migrationsPath before the pool is returned.
func Open(ctx context.Context, cfg *config.Config, migrationsPath string, log *slog.Logger) (Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		log.Warn("using in-memory storage, data is lost on exit")
		return NewMemory(), nil
	case config.BackendSQLite:
		log.Info("using sqlite storage", "path", cfg.Storage.SQLitePath)
		return OpenSQLite(cfg.Storage.SQLitePath)
	case config.BackendRedis:
		log.Info("using redis storage")
		return NewRedis(ctx, cfg.Storage.RedisURL)
	case config.BackendPostgres:
		dsn := cfg.Database.DSN()
		if err := RunMigrations(dsn, migrationsPath); err != nil {
			return nil, err
		}
		log.Info("migrations applied")
		db, err := New(ctx, dsn)
		if err != nil {
			return nil, err
		}
		log.Info("connected to postgres", "host", cfg.Database.Host, "name", cfg.Database.Name)
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}
}
