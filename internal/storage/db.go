package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a pgxpool.Pool and stores blobs in the kv_blobs table.
type DB struct {
	Pool *pgxpool.Pool
}

// New creates a new DB with a connection pool.
func New(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &DB{Pool: pool}, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	db.Pool.Close()
	return nil
}

// RunMigrations applies all pending migrations from the given directory.
func RunMigrations(dsn, migrationsPath string) error {
	m, err := migrate.New("file://"+migrationsPath, dsn)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

func (db *DB) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	var blob []byte
	err := db.Pool.QueryRow(ctx,
		`SELECT blob FROM kv_blobs WHERE namespace = $1 AND key = $2`,
		namespace, key,
	).Scan(&blob)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s/%s: %w", namespace, key, err)
	}
	return blob, nil
}

func (db *DB) Set(ctx context.Context, namespace, key string, blob []byte) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO kv_blobs (namespace, key, blob)
		VALUES ($1, $2, $3)
		ON CONFLICT (namespace, key) DO UPDATE
			SET blob = EXCLUDED.blob, updated_at = NOW()
	`, namespace, key, blob)
	if err != nil {
		return fmt.Errorf("writing %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (db *DB) Delete(ctx context.Context, namespace, key string) error {
	_, err := db.Pool.Exec(ctx,
		`DELETE FROM kv_blobs WHERE namespace = $1 AND key = $2`,
		namespace, key,
	)
	if err != nil {
		return fmt.Errorf("deleting %s/%s: %w", namespace, key, err)
	}
	return nil
}
