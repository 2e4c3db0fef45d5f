package reconcile

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"stratus/internal/model"
	"stratus/internal/storage"
)

// Scanner enumerates one owner's on-disk tree as FileEntry values. It never
// mutates the filesystem and is safe to run repeatedly.
type Scanner struct {
	root string
}

func NewScanner(root string) *Scanner {
	return &Scanner{root: root}
}

// ScanUser walks root/<ownerID> and returns every file and directory keyed
// by relative path. Unreadable paths become per-path errors, not failures; a
// missing user directory yields an empty result.
func (s *Scanner) ScanUser(ctx context.Context, ownerID string) (map[string]model.FileEntry, []model.ReconcileError) {
	userRoot := filepath.Join(s.root, ownerID)
	entries := make(map[string]model.FileEntry)
	var errs []model.ReconcileError

	walkErr := filepath.WalkDir(userRoot, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if p == userRoot && os.IsNotExist(err) {
				// User has no storage directory yet
				return filepath.SkipAll
			}
			rel := relPath(userRoot, p)
			errs = append(errs, model.ReconcileError{Path: rel, Code: "SCAN_ERROR", Message: err.Error()})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if p == userRoot {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			rel := relPath(userRoot, p)
			errs = append(errs, model.ReconcileError{Path: rel, Code: "SCAN_ERROR", Message: err.Error()})
			return nil
		}
		// Symlinks and other special files are not indexable
		if !d.IsDir() && !d.Type().IsRegular() {
			return nil
		}

		rel := relPath(userRoot, p)
		entries[rel] = storage.EntryFromInfo(rel, info)
		return nil
	})
	if walkErr != nil && walkErr != context.Canceled && walkErr != context.DeadlineExceeded {
		if ctx.Err() == nil {
			errs = append(errs, model.ReconcileError{Path: "", Code: "SCAN_ERROR", Message: walkErr.Error()})
		}
	}

	return entries, errs
}

func relPath(root, p string) string {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return p
	}
	return filepath.ToSlash(rel)
}
