package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "stratus/internal/errors"
	"stratus/internal/event"
	"stratus/internal/model"
	"stratus/internal/store"
)

type ShareService struct {
	shares *store.ShareRepo
	files  *store.FileRepo
	bus    *event.Bus
}

func NewShareService(shares *store.ShareRepo, files *store.FileRepo, bus *event.Bus) *ShareService {
	return &ShareService{shares: shares, files: files, bus: bus}
}

// Create issues a public share link for a file the owner has indexed.
// Directories cannot be shared.
func (s *ShareService) Create(ctx context.Context, ownerID, relPath string, expiresAt *time.Time) (*model.ShareLink, error) {
	rec, err := s.files.GetByPath(ctx, ownerID, relPath)
	if err != nil {
		return nil, fmt.Errorf("looking up file: %w", err)
	}
	if rec == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("no such path: %s", relPath))
	}
	if rec.IsDirectory {
		return nil, apperrors.New(apperrors.CodeValidationFailed, "directories cannot be shared")
	}
	if expiresAt != nil && expiresAt.Before(time.Now()) {
		return nil, apperrors.New(apperrors.CodeValidationFailed, "expiry is in the past")
	}

	link := &model.ShareLink{
		ID:        uuid.New().String(),
		Token:     uuid.New().String(),
		OwnerID:   ownerID,
		FileID:    rec.ID,
		FilePath:  rec.Path,
		ExpiresAt: expiresAt,
	}
	if err := s.shares.Create(ctx, link); err != nil {
		return nil, fmt.Errorf("creating share: %w", err)
	}

	s.bus.Emit(event.ShareCreated, link)
	return link, nil
}

// List returns the owner's share links with their file paths attached.
func (s *ShareService) List(ctx context.Context, ownerID string) ([]*model.ShareLink, error) {
	links, err := s.shares.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	for _, link := range links {
		rec, err := s.files.Get(ctx, link.FileID)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			link.FilePath = rec.Path
		}
	}
	return links, nil
}

// Revoke deletes a share link owned by the caller.
func (s *ShareService) Revoke(ctx context.Context, ownerID, shareID string) error {
	link, err := s.shares.Get(ctx, shareID)
	if err != nil {
		return err
	}
	if link == nil || link.OwnerID != ownerID {
		return apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("no such share: %s", shareID))
	}
	if err := s.shares.Delete(ctx, shareID); err != nil {
		return err
	}
	s.bus.Emit(event.ShareRevoked, map[string]string{"id": shareID, "ownerId": ownerID})
	return nil
}

// Resolve maps a public token to its share link and backing file record.
// Unknown, expired and dangling tokens all surface as NOT_FOUND so the
// public endpoint leaks nothing. Resolving does not count a download; the
// caller records it once the file is actually served.
func (s *ShareService) Resolve(ctx context.Context, token string) (*model.ShareLink, *model.FileRecord, error) {
	link, err := s.shares.GetByToken(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	if link == nil || link.Expired(time.Now()) {
		return nil, nil, apperrors.New(apperrors.CodeNotFound, "share not found")
	}

	rec, err := s.files.Get(ctx, link.FileID)
	if err != nil {
		return nil, nil, err
	}
	if rec == nil {
		return nil, nil, apperrors.New(apperrors.CodeNotFound, "share not found")
	}

	link.FilePath = rec.Path
	return link, rec, nil
}

// RecordDownload bumps a link's download counter. Called after the file has
// been opened for serving, so drifted records that 404 are not counted.
func (s *ShareService) RecordDownload(ctx context.Context, shareID string) error {
	return s.shares.IncrementDownloads(ctx, shareID)
}
