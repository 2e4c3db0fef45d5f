package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveAndStat(t *testing.T) {
	b, err := NewLocalBackend(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}

	entry, err := b.Save("alice", "docs/report.txt", strings.NewReader("hello world"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if entry.Size != 11 {
		t.Errorf("expected size 11, got %d", entry.Size)
	}
	if entry.ContentType != "text/plain" {
		t.Errorf("expected text/plain, got %q", entry.ContentType)
	}
	if entry.Name != "report.txt" {
		t.Errorf("expected name report.txt, got %q", entry.Name)
	}

	// Parent directory was created implicitly
	info, err := os.Stat(filepath.Join(b.UserRoot("alice"), "docs"))
	if err != nil || !info.IsDir() {
		t.Fatalf("expected docs directory: %v", err)
	}
}

func TestDeleteScopedToOwner(t *testing.T) {
	b, err := NewLocalBackend(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}

	if _, err := b.Save("alice", "a.txt", strings.NewReader("x")); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Save("bob", "a.txt", strings.NewReader("x")); err != nil {
		t.Fatal(err)
	}

	if err := b.Delete("alice", "a.txt"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if b.Exists("alice", "a.txt") {
		t.Error("alice's file survived delete")
	}
	if !b.Exists("bob", "a.txt") {
		t.Error("bob's file was deleted by alice's request")
	}
}

func TestDeleteRootRefused(t *testing.T) {
	b, err := NewLocalBackend(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	if err := b.Delete("alice", ""); err == nil {
		t.Error("expected refusal to delete user root")
	}
}

func TestGuessContentType(t *testing.T) {
	cases := map[string]string{
		"a.txt":       "text/plain",
		"photo.png":   "image/png",
		"archive.zip": "application/zip",
		"noext":       "",
	}
	for path, want := range cases {
		if got := GuessContentType(path); got != want {
			t.Errorf("GuessContentType(%q) = %q, want %q", path, got, want)
		}
	}
}
