package store_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/raysh454/nyxguard/internal/store"
)

func exerciseKV(t *testing.T, kv store.KV) {
	t.Helper()
	ctx := context.Background()

	if _, err := kv.Get(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Get missing: expected ErrNotFound, got %v", err)
	}

	if err := kv.Set(ctx, "settings", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := kv.Get(ctx, "settings")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, []byte(`{"a":1}`)) {
		t.Fatalf("unexpected value %q", got)
	}

	// overwrite
	if err := kv.Set(ctx, "settings", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	got, _ = kv.Get(ctx, "settings")
	if !bytes.Equal(got, []byte(`{"a":2}`)) {
		t.Fatalf("overwrite not applied: %q", got)
	}

	if err := kv.Delete(ctx, "settings"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := kv.Get(ctx, "settings"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Get after delete: expected ErrNotFound, got %v", err)
	}
	if err := kv.Delete(ctx, "settings"); err != nil {
		t.Fatalf("Delete missing key should not fail: %v", err)
	}
}

func TestMemoryKV(t *testing.T) {
	t.Parallel()
	exerciseKV(t, store.NewMemoryKV())
}

func TestMemoryKV_ReturnsCopies(t *testing.T) {
	t.Parallel()
	kv := store.NewMemoryKV()
	ctx := context.Background()

	value := []byte("abc")
	_ = kv.Set(ctx, "k", value)
	value[0] = 'z'

	got, _ := kv.Get(ctx, "k")
	if string(got) != "abc" {
		t.Fatalf("stored value aliased caller slice: %q", got)
	}
}

func TestSQLiteKV(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "data", "nyxguard.db")

	kv, err := store.OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer kv.Close()

	exerciseKV(t, kv)
}

func TestSQLiteKV_PersistsAcrossReopen(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nyxguard.db")
	ctx := context.Background()

	kv, err := store.OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := kv.Set(ctx, "result:tab-1", []byte("payload")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	kv.Close()

	kv, err = store.OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer kv.Close()

	got, err := kv.Get(ctx, "result:tab-1")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if string(got) != "payload" {
		t.Fatalf("unexpected value %q", got)
	}
}

func TestOpen_Drivers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	kv, err := store.Open(ctx, store.Config{Driver: "memory"})
	if err != nil {
		t.Fatalf("memory driver: %v", err)
	}
	if _, ok := kv.(*store.MemoryKV); !ok {
		t.Fatalf("expected *MemoryKV, got %T", kv)
	}

	kv, err = store.Open(ctx, store.Config{Driver: "SQLite", Path: filepath.Join(t.TempDir(), "x.db")})
	if err != nil {
		t.Fatalf("sqlite driver: %v", err)
	}
	kv.Close()

	if _, err := store.Open(ctx, store.Config{Driver: "bolt"}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestPostgresKV(t *testing.T) {
	dsn := os.Getenv("NYXGUARD_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("NYXGUARD_TEST_POSTGRES_DSN not set")
	}

	kv, err := store.OpenPostgres(context.Background(), dsn)
	if err != nil {
		t.Fatalf("OpenPostgres: %v", err)
	}
	defer kv.Close()

	exerciseKV(t, kv)
}
