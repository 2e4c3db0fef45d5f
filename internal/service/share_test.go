package service

import (
	"context"
	"strings"
	"testing"
	"time"

	apperrors "stratus/internal/errors"
)

func TestShareCreateAndResolve(t *testing.T) {
	e := newTestEnv(t)
	u := e.createUser(t, "alice")

	if _, err := e.files.Upload(context.Background(), u.ID, "a.txt", strings.NewReader("x")); err != nil {
		t.Fatal(err)
	}

	link, err := e.shares.Create(context.Background(), u.ID, "a.txt", nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if link.Token == "" {
		t.Fatal("expected a token")
	}

	got, rec, err := e.shares.Resolve(context.Background(), link.Token)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if rec.Path != "a.txt" {
		t.Errorf("resolved wrong file: %s", rec.Path)
	}

	// Resolving alone does not count a download
	if got.DownloadCount != 0 {
		t.Errorf("expected download count 0, got %d", got.DownloadCount)
	}

	if err := e.shares.RecordDownload(context.Background(), got.ID); err != nil {
		t.Fatal(err)
	}
	got, _, err = e.shares.Resolve(context.Background(), link.Token)
	if err != nil {
		t.Fatal(err)
	}
	if got.DownloadCount != 1 {
		t.Errorf("expected download count 1, got %d", got.DownloadCount)
	}
}

func TestShareCreateValidation(t *testing.T) {
	e := newTestEnv(t)
	u := e.createUser(t, "alice")

	if _, err := e.shares.Create(context.Background(), u.ID, "missing.txt", nil); apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Errorf("expected NOT_FOUND for missing file, got %v", err)
	}

	if _, err := e.files.Mkdir(context.Background(), u.ID, "docs"); err != nil {
		t.Fatal(err)
	}
	if _, err := e.shares.Create(context.Background(), u.ID, "docs", nil); apperrors.CodeOf(err) != apperrors.CodeValidationFailed {
		t.Errorf("expected VALIDATION_FAILED for directory, got %v", err)
	}

	if _, err := e.files.Upload(context.Background(), u.ID, "a.txt", strings.NewReader("x")); err != nil {
		t.Fatal(err)
	}
	past := time.Now().Add(-time.Hour)
	if _, err := e.shares.Create(context.Background(), u.ID, "a.txt", &past); apperrors.CodeOf(err) != apperrors.CodeValidationFailed {
		t.Errorf("expected VALIDATION_FAILED for past expiry, got %v", err)
	}
}

func TestShareExpiry(t *testing.T) {
	e := newTestEnv(t)
	u := e.createUser(t, "alice")

	if _, err := e.files.Upload(context.Background(), u.ID, "a.txt", strings.NewReader("x")); err != nil {
		t.Fatal(err)
	}
	soon := time.Now().Add(50 * time.Millisecond)
	link, err := e.shares.Create(context.Background(), u.ID, "a.txt", &soon)
	if err != nil {
		t.Fatal(err)
	}

	time.Sleep(100 * time.Millisecond)

	if _, _, err := e.shares.Resolve(context.Background(), link.Token); apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Errorf("expected NOT_FOUND for expired link, got %v", err)
	}
}

func TestShareRevoke(t *testing.T) {
	e := newTestEnv(t)
	alice := e.createUser(t, "alice")
	bob := e.createUser(t, "bob")

	if _, err := e.files.Upload(context.Background(), alice.ID, "a.txt", strings.NewReader("x")); err != nil {
		t.Fatal(err)
	}
	link, err := e.shares.Create(context.Background(), alice.ID, "a.txt", nil)
	if err != nil {
		t.Fatal(err)
	}

	// Another user cannot revoke it
	if err := e.shares.Revoke(context.Background(), bob.ID, link.ID); apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Errorf("expected NOT_FOUND for foreign revoke, got %v", err)
	}

	if err := e.shares.Revoke(context.Background(), alice.ID, link.ID); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if _, _, err := e.shares.Resolve(context.Background(), link.Token); apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Error("revoked link still resolves")
	}
}

func TestShareList(t *testing.T) {
	e := newTestEnv(t)
	u := e.createUser(t, "alice")

	if _, err := e.files.Upload(context.Background(), u.ID, "a.txt", strings.NewReader("x")); err != nil {
		t.Fatal(err)
	}
	if _, err := e.shares.Create(context.Background(), u.ID, "a.txt", nil); err != nil {
		t.Fatal(err)
	}

	links, err := e.shares.List(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(links))
	}
	if links[0].FilePath != "a.txt" {
		t.Errorf("expected file path attached, got %q", links[0].FilePath)
	}
}
