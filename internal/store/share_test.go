package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"stratus/internal/model"
)

func createTestShare(t *testing.T, r *ShareRepo, ownerID, fileID string) *model.ShareLink {
	t.Helper()
	s := &model.ShareLink{
		ID:      uuid.New().String(),
		Token:   uuid.New().String(),
		OwnerID: ownerID,
		FileID:  fileID,
	}
	if err := r.Create(context.Background(), s); err != nil {
		t.Fatalf("failed to create share: %v", err)
	}
	return s
}

func TestShareRepoDeleteByFile(t *testing.T) {
	s := newTestStore(t)
	user := createTestUser(t, s, "alice")
	files := NewFileRepo(s.GetDB())
	shares := NewShareRepo(s.GetDB())

	f := createTestFile(t, files, user.ID, "a.txt", 1, false)
	other := createTestFile(t, files, user.ID, "b.txt", 1, false)

	createTestShare(t, shares, user.ID, f.ID)
	createTestShare(t, shares, user.ID, f.ID)
	keep := createTestShare(t, shares, user.ID, other.ID)

	n, err := shares.DeleteByFile(context.Background(), f.ID)
	if err != nil {
		t.Fatalf("DeleteByFile failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 shares deleted, got %d", n)
	}

	got, err := shares.GetByToken(context.Background(), keep.Token)
	if err != nil || got == nil {
		t.Fatalf("share for other file disappeared: %v", err)
	}
}

func TestShareRepoGetByToken(t *testing.T) {
	s := newTestStore(t)
	user := createTestUser(t, s, "alice")
	files := NewFileRepo(s.GetDB())
	shares := NewShareRepo(s.GetDB())

	f := createTestFile(t, files, user.ID, "a.txt", 1, false)
	created := createTestShare(t, shares, user.ID, f.ID)

	got, err := shares.GetByToken(context.Background(), created.Token)
	if err != nil {
		t.Fatalf("GetByToken failed: %v", err)
	}
	if got == nil || got.ID != created.ID {
		t.Fatalf("unexpected share: %+v", got)
	}

	missing, err := shares.GetByToken(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetByToken failed: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown token, got %+v", missing)
	}
}

func TestShareRepoIncrementDownloads(t *testing.T) {
	s := newTestStore(t)
	user := createTestUser(t, s, "alice")
	files := NewFileRepo(s.GetDB())
	shares := NewShareRepo(s.GetDB())

	f := createTestFile(t, files, user.ID, "a.txt", 1, false)
	created := createTestShare(t, shares, user.ID, f.ID)

	for i := 0; i < 3; i++ {
		if err := shares.IncrementDownloads(context.Background(), created.ID); err != nil {
			t.Fatalf("IncrementDownloads failed: %v", err)
		}
	}

	got, _ := shares.Get(context.Background(), created.ID)
	if got.DownloadCount != 3 {
		t.Errorf("expected 3 downloads, got %d", got.DownloadCount)
	}
}

func TestShareExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	if (&model.ShareLink{}).Expired(now) {
		t.Error("share without expiry reported expired")
	}
	if (&model.ShareLink{ExpiresAt: &future}).Expired(now) {
		t.Error("future expiry reported expired")
	}
	if !(&model.ShareLink{ExpiresAt: &past}).Expired(now) {
		t.Error("past expiry not reported expired")
	}
}
