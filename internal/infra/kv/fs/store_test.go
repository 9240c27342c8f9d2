package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"zenjournal/internal/kv/core"
)

func TestStoreWritesOneFilePerKey(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.Root() != root || s.Driver() != core.DriverFilesystem {
		t.Fatalf("unexpected store %s %s", s.Root(), s.Driver())
	}
	if err := s.Set(ctx, "thoughtCount", "3"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(root, "thoughtCount"))
	if err != nil || string(b) != "3" {
		t.Fatalf("expected file contents 3, got %q err=%v", b, err)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestStoreNestedKeys(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, _ := New(root)
	if err := s.Set(ctx, "users/me/thoughts", "[]"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "users", "me", "thoughts")); err != nil {
		t.Fatalf("expected nested file: %v", err)
	}
	if v, ok, err := s.Get(ctx, "users/me/thoughts"); err != nil || !ok || v != "[]" {
		t.Fatalf("Get: %q %v %v", v, ok, err)
	}
}

func TestStoreHonoursCancelledContext(t *testing.T) {
	s, _ := New(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Set(ctx, "k", "v"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, _, err := s.Get(ctx, "k"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, err := s.Remove(ctx, "k"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestStoreRejectsTraversal(t *testing.T) {
	s, _ := New(t.TempDir())
	if err := s.Set(context.Background(), "../outside", "x"); !errors.Is(err, core.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestNewDefaultsRoot(t *testing.T) {
	t.Chdir(t.TempDir())
	s, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.Root() != "./zendata" {
		t.Fatalf("unexpected default root %q", s.Root())
	}
	if _, err := os.Stat("zendata"); err != nil {
		t.Fatalf("expected default root to be created: %v", err)
	}
}

func TestSetFailsWhenRootIsFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "blocker")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	s := &Store{root: file}
	if err := s.Set(context.Background(), "thoughts", "[]"); err == nil {
		t.Fatalf("expected write failure under a file root")
	}
}
