package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	cfg := Config{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	}

	s, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return s
}

func TestOpen_CreatesDirectory(t *testing.T) {
	cfg := Config{
		Path:        filepath.Join(t.TempDir(), "nested", "dir", "test.db"),
		WALMode:     false,
		BusyTimeout: 1,
	}

	s, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	if s.Path() != cfg.Path {
		t.Errorf("Path() = %q, want %q", s.Path(), cfg.Path)
	}
}

func TestStore_PutGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "broker/last_resolved", "192.168.1.50"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := s.Get(ctx, "broker/last_resolved")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "192.168.1.50" {
		t.Errorf("Get() = %q, want %q", got, "192.168.1.50")
	}
}

func TestStore_PutOverwrites(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "join/attempts", "1"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := s.Put(ctx, "join/attempts", "2"); err != nil {
		t.Fatalf("Put() second error = %v", err)
	}

	got, err := s.Get(ctx, "join/attempts")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "2" {
		t.Errorf("Get() = %q, want %q", got, "2")
	}
}

func TestStore_GetMissing(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Get(context.Background(), "no/such/key")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestStore_Delete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "key", "value"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := s.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	_, err := s.Get(ctx, "key")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after Delete error = %v, want ErrNotFound", err)
	}

	// Deleting a missing key succeeds
	if err := s.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete() of missing key error = %v", err)
	}
}

func TestStore_HealthCheck(t *testing.T) {
	s := openTestStore(t)

	if err := s.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestStore_ReopenKeepsData(t *testing.T) {
	cfg := Config{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	}
	ctx := context.Background()

	s, err := Open(ctx, cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.Put(ctx, "broker/last_resolved", "10.0.0.7"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	s2, err := Open(ctx, cfg)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s2.Close()

	got, err := s2.Get(ctx, "broker/last_resolved")
	if err != nil {
		t.Fatalf("Get() after reopen error = %v", err)
	}
	if got != "10.0.0.7" {
		t.Errorf("Get() = %q, want %q", got, "10.0.0.7")
	}
}
