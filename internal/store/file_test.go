package store

import (
	"context"
	gopath "path"
	"testing"

	"github.com/google/uuid"

	"stratus/internal/model"
)

func createTestUser(t *testing.T, s *Store, username string) *model.User {
	t.Helper()
	u := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: "x",
		Token:        uuid.New().String(),
	}
	if err := NewUserRepo(s.GetDB()).Create(context.Background(), u); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return u
}

func createTestFile(t *testing.T, r *FileRepo, ownerID, path string, size int64, isDir bool) *model.FileRecord {
	t.Helper()
	f := &model.FileRecord{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		Path:        path,
		Name:        gopath.Base(path),
		Size:        size,
		IsDirectory: isDir,
		ParentPath:  model.ParentPath(path),
	}
	if err := r.Create(context.Background(), f); err != nil {
		t.Fatalf("failed to create file record %s: %v", path, err)
	}
	return f
}

func TestFileRepoGetByPath(t *testing.T) {
	s := newTestStore(t)
	user := createTestUser(t, s, "alice")
	repo := NewFileRepo(s.GetDB())

	createTestFile(t, repo, user.ID, "docs/a.txt", 100, false)

	got, err := repo.GetByPath(context.Background(), user.ID, "docs/a.txt")
	if err != nil {
		t.Fatalf("GetByPath failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected record, got nil")
	}
	if got.Size != 100 || got.ParentPath != "docs" {
		t.Errorf("unexpected record: size=%d parent=%q", got.Size, got.ParentPath)
	}

	missing, err := repo.GetByPath(context.Background(), user.ID, "nope.txt")
	if err != nil {
		t.Fatalf("GetByPath failed: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing path, got %+v", missing)
	}
}

func TestFileRepoUniqueOwnerPath(t *testing.T) {
	s := newTestStore(t)
	user := createTestUser(t, s, "alice")
	repo := NewFileRepo(s.GetDB())

	createTestFile(t, repo, user.ID, "a.txt", 1, false)

	dup := &model.FileRecord{
		ID:      uuid.New().String(),
		OwnerID: user.ID,
		Path:    "a.txt",
		Name:    "a.txt",
	}
	if err := repo.Create(context.Background(), dup); err == nil {
		t.Error("expected unique constraint violation for duplicate (owner, path)")
	}

	// Same path under a different owner is fine
	other := createTestUser(t, s, "bob")
	createTestFile(t, repo, other.ID, "a.txt", 1, false)
}

func TestFileRepoListByParent(t *testing.T) {
	s := newTestStore(t)
	user := createTestUser(t, s, "alice")
	repo := NewFileRepo(s.GetDB())

	createTestFile(t, repo, user.ID, "docs", 0, true)
	createTestFile(t, repo, user.ID, "docs/a.txt", 10, false)
	createTestFile(t, repo, user.ID, "docs/b.txt", 20, false)
	createTestFile(t, repo, user.ID, "other.txt", 5, false)

	children, err := repo.ListByParent(context.Background(), user.ID, "docs")
	if err != nil {
		t.Fatalf("ListByParent failed: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(children))
	}

	root, err := repo.ListByParent(context.Background(), user.ID, "")
	if err != nil {
		t.Fatalf("ListByParent failed: %v", err)
	}
	if len(root) != 2 {
		t.Fatalf("expected 2 root entries, got %d", len(root))
	}
	// Directories sort before files
	if !root[0].IsDirectory {
		t.Errorf("expected directory first, got %q", root[0].Path)
	}
}

func TestFileRepoListByPrefix(t *testing.T) {
	s := newTestStore(t)
	user := createTestUser(t, s, "alice")
	repo := NewFileRepo(s.GetDB())

	createTestFile(t, repo, user.ID, "docs", 0, true)
	createTestFile(t, repo, user.ID, "docs/sub", 0, true)
	createTestFile(t, repo, user.ID, "docs/sub/deep.txt", 1, false)
	createTestFile(t, repo, user.ID, "docs2.txt", 1, false)

	got, err := repo.ListByPrefix(context.Background(), user.ID, "docs")
	if err != nil {
		t.Fatalf("ListByPrefix failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 records under docs, got %d", len(got))
	}
	for _, f := range got {
		if f.Path == "docs2.txt" {
			t.Error("prefix match leaked sibling docs2.txt")
		}
	}
}

func TestFileRepoUpdate(t *testing.T) {
	s := newTestStore(t)
	user := createTestUser(t, s, "alice")
	repo := NewFileRepo(s.GetDB())

	f := createTestFile(t, repo, user.ID, "a.txt", 50, false)
	f.Size = 100
	f.ContentType = "text/plain"
	if err := repo.Update(context.Background(), f); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := repo.GetByPath(context.Background(), user.ID, "a.txt")
	if err != nil || got == nil {
		t.Fatalf("GetByPath failed: %v", err)
	}
	if got.Size != 100 || got.ContentType != "text/plain" {
		t.Errorf("update not persisted: %+v", got)
	}
}
