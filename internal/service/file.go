package service

import (
	"context"
	"fmt"
	"io"
	"os"
	gopath "path"

	"github.com/google/uuid"

	apperrors "stratus/internal/errors"
	"stratus/internal/event"
	"stratus/internal/model"
	"stratus/internal/storage"
	"stratus/internal/store"
	"stratus/internal/utils"
)

// FileService is the request-path side of the index: every upload, mkdir and
// delete updates the filesystem first and then folds the result into the
// index, so a crash between the two leaves only drift the reconciler can
// repair.
type FileService struct {
	backend *storage.LocalBackend
	files   *store.FileRepo
	shares  *store.ShareRepo
	locks   *store.KeyedMutex
	bus     *event.Bus
}

func NewFileService(backend *storage.LocalBackend, files *store.FileRepo, shares *store.ShareRepo, locks *store.KeyedMutex, bus *event.Bus) *FileService {
	return &FileService{
		backend: backend,
		files:   files,
		shares:  shares,
		locks:   locks,
		bus:     bus,
	}
}

// List returns the indexed children of a directory, "" for the root.
func (s *FileService) List(ctx context.Context, ownerID, relPath string) ([]*model.FileRecord, error) {
	return s.files.ListByParent(ctx, ownerID, relPath)
}

// Count returns the number of index records an owner holds, directories
// included.
func (s *FileService) Count(ctx context.Context, ownerID string) (int, error) {
	return s.files.CountByOwner(ctx, ownerID)
}

// Stat returns the index record for a path.
func (s *FileService) Stat(ctx context.Context, ownerID, relPath string) (*model.FileRecord, error) {
	rec, err := s.files.GetByPath(ctx, ownerID, relPath)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("no such path: %s", relPath))
	}
	return rec, nil
}

// Upload writes content to disk and indexes it, creating index records for
// any intermediate directories the write created.
func (s *FileService) Upload(ctx context.Context, ownerID, relPath string, content io.Reader) (*model.FileRecord, error) {
	if relPath == "" {
		return nil, apperrors.New(apperrors.CodeValidationFailed, "path is required")
	}
	if !utils.IsSafeFilename(gopath.Base(relPath)) {
		return nil, apperrors.New(apperrors.CodeValidationFailed,
			fmt.Sprintf("invalid file name: %q", gopath.Base(relPath)))
	}

	entry, err := s.backend.Save(ownerID, relPath, content)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	if err := s.indexParents(ctx, ownerID, relPath); err != nil {
		return nil, err
	}
	rec, err := s.indexEntry(ctx, ownerID, *entry)
	if err != nil {
		return nil, err
	}

	s.bus.Emit(event.FileUploaded, rec)
	return rec, nil
}

// Download opens a file for reading along with its index record. The caller
// closes the handle.
func (s *FileService) Download(ctx context.Context, ownerID, relPath string) (*os.File, *model.FileRecord, error) {
	rec, err := s.Stat(ctx, ownerID, relPath)
	if err != nil {
		return nil, nil, err
	}
	if rec.IsDirectory {
		return nil, nil, apperrors.New(apperrors.CodeValidationFailed, "cannot download a directory")
	}

	f, err := s.backend.Open(ownerID, relPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Index drift: the record exists but the file is gone
			return nil, nil, apperrors.Wrap(err, apperrors.CodeNotFound, "file missing from storage")
		}
		return nil, nil, fmt.Errorf("opening file: %w", err)
	}
	return f, rec, nil
}

// Mkdir creates a directory and indexes it together with any missing
// parents.
func (s *FileService) Mkdir(ctx context.Context, ownerID, relPath string) (*model.FileRecord, error) {
	if relPath == "" {
		return nil, apperrors.New(apperrors.CodeValidationFailed, "path is required")
	}
	if !utils.IsSafeFilename(gopath.Base(relPath)) {
		return nil, apperrors.New(apperrors.CodeValidationFailed,
			fmt.Sprintf("invalid directory name: %q", gopath.Base(relPath)))
	}
	if err := s.backend.Mkdir(ownerID, relPath); err != nil {
		return nil, fmt.Errorf("creating directory: %w", err)
	}
	if err := s.indexParents(ctx, ownerID, relPath); err != nil {
		return nil, err
	}
	entry, err := s.backend.Stat(ownerID, relPath)
	if err != nil {
		return nil, fmt.Errorf("stat directory: %w", err)
	}
	return s.indexEntry(ctx, ownerID, *entry)
}

// Delete removes a path (recursively for directories) from disk and from
// the index, cascading share links of every removed record.
func (s *FileService) Delete(ctx context.Context, ownerID, relPath string) error {
	if relPath == "" {
		return apperrors.New(apperrors.CodeValidationFailed, "path is required")
	}

	rec, err := s.files.GetByPath(ctx, ownerID, relPath)
	if err != nil {
		return err
	}
	if rec == nil && !s.backend.Exists(ownerID, relPath) {
		return apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("no such path: %s", relPath))
	}

	if err := s.backend.Delete(ownerID, relPath); err != nil {
		return fmt.Errorf("deleting from storage: %w", err)
	}

	records, err := s.files.ListByPrefix(ctx, ownerID, relPath)
	if err != nil {
		return err
	}
	for _, r := range records {
		unlock := s.locks.Lock(store.FileKey(ownerID, r.Path))
		if _, err := s.shares.DeleteByFile(ctx, r.ID); err != nil {
			unlock()
			return fmt.Errorf("cascading shares for %s: %w", r.Path, err)
		}
		if err := s.files.Delete(ctx, r.ID); err != nil {
			unlock()
			return fmt.Errorf("deleting record for %s: %w", r.Path, err)
		}
		unlock()
	}

	s.bus.Emit(event.FileDeleted, map[string]string{"ownerId": ownerID, "path": relPath})
	return nil
}

// indexParents makes sure every ancestor directory of relPath has an index
// record, walking from the root down.
func (s *FileService) indexParents(ctx context.Context, ownerID, relPath string) error {
	parent := model.ParentPath(relPath)
	if parent == "" {
		return nil
	}
	if err := s.indexParents(ctx, ownerID, parent); err != nil {
		return err
	}
	entry, err := s.backend.Stat(ownerID, parent)
	if err != nil {
		return fmt.Errorf("stat parent %s: %w", parent, err)
	}
	_, err = s.indexEntry(ctx, ownerID, *entry)
	return err
}

// indexEntry is the request-path upsert: same read-compare-write as the
// reconciler, under the same keyed lock.
func (s *FileService) indexEntry(ctx context.Context, ownerID string, entry model.FileEntry) (*model.FileRecord, error) {
	unlock := s.locks.Lock(store.FileKey(ownerID, entry.Path))
	defer unlock()

	existing, err := s.files.GetByPath(ctx, ownerID, entry.Path)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		rec := &model.FileRecord{
			ID:          uuid.New().String(),
			OwnerID:     ownerID,
			Path:        entry.Path,
			Name:        gopath.Base(entry.Path),
			Size:        entry.Size,
			ContentType: entry.ContentType,
			IsDirectory: entry.IsDirectory,
			ParentPath:  model.ParentPath(entry.Path),
		}
		if err := s.files.Create(ctx, rec); err != nil {
			return nil, err
		}
		return rec, nil
	}

	if existing.Size == entry.Size && existing.ContentType == entry.ContentType && existing.IsDirectory == entry.IsDirectory {
		return existing, nil
	}
	existing.Size = entry.Size
	existing.ContentType = entry.ContentType
	existing.IsDirectory = entry.IsDirectory
	if err := s.files.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}
