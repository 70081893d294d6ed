package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/claude/topset/internal/config"
)

var (
	_ Store = (*Memory)(nil)
	_ Store = (*SQLite)(nil)
	_ Store = (*Redis)(nil)
	_ Store = (*DB)(nil)
)

func backends(t *testing.T) map[string]Store {
	t.Helper()

	lite, err := OpenSQLite(filepath.Join(t.TempDir(), "sub", "topset.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { lite.Close() })

	mr := miniredis.RunT(t)
	rds, err := NewRedis(context.Background(), "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	t.Cleanup(func() { rds.Close() })

	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": lite,
		"redis":  rds,
	}
}

// TestStoreContract verifies get/set/delete semantics are identical across backends.
func TestStoreContract(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Get(ctx, NamespaceSessions, "u1"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Get on empty store error = %v, want ErrNotFound", err)
			}

			if err := s.Set(ctx, NamespaceSessions, "u1", []byte(`[{"id":"a"}]`)); err != nil {
				t.Fatalf("Set: %v", err)
			}
			got, err := s.Get(ctx, NamespaceSessions, "u1")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if string(got) != `[{"id":"a"}]` {
				t.Errorf("Get = %s, want %s", got, `[{"id":"a"}]`)
			}

			// Namespaces are isolated.
			if _, err := s.Get(ctx, NamespaceCycle, "u1"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get(cycle) error = %v, want ErrNotFound", err)
			}

			// Last write wins.
			if err := s.Set(ctx, NamespaceSessions, "u1", []byte(`[]`)); err != nil {
				t.Fatalf("Set overwrite: %v", err)
			}
			got, _ = s.Get(ctx, NamespaceSessions, "u1")
			if string(got) != `[]` {
				t.Errorf("Get after overwrite = %s, want []", got)
			}

			if err := s.Delete(ctx, NamespaceSessions, "u1"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, err := s.Get(ctx, NamespaceSessions, "u1"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get after delete error = %v, want ErrNotFound", err)
			}

			// Deleting a missing key is not an error.
			if err := s.Delete(ctx, NamespaceSessions, "missing"); err != nil {
				t.Errorf("Delete(missing) error = %v, want nil", err)
			}
		})
	}
}

// TestMemoryCopiesBlobs verifies callers cannot mutate stored bytes.
func TestMemoryCopiesBlobs(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	in := []byte("abc")
	if err := m.Set(ctx, NamespaceUsers, "k", in); err != nil {
		t.Fatal(err)
	}
	in[0] = 'z'
	out, _ := m.Get(ctx, NamespaceUsers, "k")
	out[1] = 'z'
	again, _ := m.Get(ctx, NamespaceUsers, "k")
	if string(again) != "abc" {
		t.Errorf("stored blob = %q, want %q", again, "abc")
	}
}

// TestRedisKeyLayout verifies blobs land under the prefixed key.
func TestRedisKeyLayout(t *testing.T) {
	mr := miniredis.RunT(t)
	r, err := NewRedis(context.Background(), "redis://"+mr.Addr())
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if err := r.Set(context.Background(), NamespaceCheckins, "u7", []byte("[]")); err != nil {
		t.Fatal(err)
	}
	got, err := mr.Get("topset:checkins:u7")
	if err != nil {
		t.Fatalf("miniredis Get: %v", err)
	}
	if got != "[]" {
		t.Errorf("raw value = %q, want %q", got, "[]")
	}
}

// TestSQLitePersistsAcrossReopen verifies data survives closing the database.
func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "topset.db")

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, NamespaceCycle, "u1", []byte(`{"is_active":true}`)); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	got, err := s.Get(ctx, NamespaceCycle, "u1")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if string(got) != `{"is_active":true}` {
		t.Errorf("Get = %s, want %s", got, `{"is_active":true}`)
	}
}

// TestOpenSelectsBackend verifies the factory honours the configured backend.
func TestOpenSelectsBackend(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	mr := miniredis.RunT(t)

	tests := []struct {
		name    string
		storage config.StorageConfig
		want    string
	}{
		{"memory", config.StorageConfig{Backend: config.BackendMemory}, "*storage.Memory"},
		{"sqlite", config.StorageConfig{Backend: config.BackendSQLite, SQLitePath: filepath.Join(t.TempDir(), "x.db")}, "*storage.SQLite"},
		{"redis", config.StorageConfig{Backend: config.BackendRedis, RedisURL: "redis://" + mr.Addr()}, "*storage.Redis"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(context.Background(), &config.Config{Storage: tt.storage}, "migrations", log)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer s.Close()
			if got := typeName(s); got != tt.want {
				t.Errorf("backend = %s, want %s", got, tt.want)
			}
		})
	}

	if _, err := Open(context.Background(), &config.Config{Storage: config.StorageConfig{Backend: "etcd"}}, "migrations", log); err == nil {
		t.Error("Open(etcd) expected error")
	}
}

func typeName(s Store) string {
	switch s.(type) {
	case *Memory:
		return "*storage.Memory"
	case *SQLite:
		return "*storage.SQLite"
	case *Redis:
		return "*storage.Redis"
	case *DB:
		return "*storage.DB"
	}
	return "unknown"
}
