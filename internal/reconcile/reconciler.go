// Package reconcile keeps the sqlite metadata index consistent with the
// on-disk storage tree. The filesystem always wins: disagreements are
// resolved by rewriting the index, never by touching user files.
package reconcile

import (
	"context"
	"fmt"
	gopath "path"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	apperrors "stratus/internal/errors"
	"stratus/internal/logger"
	"stratus/internal/model"
	"stratus/internal/store"
)

// Reconciler applies one of four modes to the diff between disk and index:
//
//	audit  report only
//	sync   create missing records, refresh stale ones
//	clean  delete orphaned records, cascading their share links (force)
//	full   sync + clean (force)
//
// Runs are idempotent: a second run over an unchanged tree performs zero
// mutations and counts nothing.
type Reconciler struct {
	scanner *Scanner
	users   *store.UserRepo
	files   *store.FileRepo
	shares  *store.ShareRepo
	locks   *store.KeyedMutex
	workers int
}

func New(scanner *Scanner, users *store.UserRepo, files *store.FileRepo, shares *store.ShareRepo, locks *store.KeyedMutex, workers int) *Reconciler {
	if workers < 1 {
		workers = 1
	}
	return &Reconciler{
		scanner: scanner,
		users:   users,
		files:   files,
		shares:  shares,
		locks:   locks,
		workers: workers,
	}
}

// Run executes one reconciliation pass. Structural problems (unknown mode,
// destructive mode without force) fail before any I/O; per-path problems are
// recorded in the stats and never abort the pass. On cancellation the
// partial stats collected so far are returned alongside the context error.
func (r *Reconciler) Run(ctx context.Context, opts model.ReconcileOptions) (*model.ReconcileStats, error) {
	if opts.Mode == "" {
		opts.Mode = model.ModeAudit
	}
	if !opts.Mode.Valid() {
		return nil, apperrors.New(apperrors.CodeInvalidMode, fmt.Sprintf("invalid mode: %s", opts.Mode))
	}
	if opts.Mode.Destructive() && !opts.Force {
		return nil, apperrors.New(apperrors.CodeForceRequired,
			fmt.Sprintf("mode %q requires force to prevent accidental data loss", opts.Mode))
	}

	stats := &model.ReconcileStats{}

	var targets []*model.User
	if opts.UserID != "" {
		user, err := r.users.Get(ctx, opts.UserID)
		if err != nil {
			return nil, fmt.Errorf("looking up user %s: %w", opts.UserID, err)
		}
		if user == nil {
			// Scoped to a nonexistent user: zero work, not a failure
			return stats, nil
		}
		targets = []*model.User{user}
	} else {
		users, err := r.users.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing users: %w", err)
		}
		targets = users
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for _, user := range targets {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			userStats := r.reconcileUser(gctx, user.ID, opts)

			mu.Lock()
			stats.UsersScanned++
			stats.Merge(userStats)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		// Cancellation: surface it, but hand back whatever was counted
		return stats, err
	}

	logger.S.Infow("reconciliation finished",
		"mode", opts.Mode, "dryRun", opts.DryRun,
		"users", stats.UsersScanned,
		"created", stats.RecordsCreated, "updated", stats.RecordsUpdated,
		"deleted", stats.RecordsDeleted, "shares", stats.SharesDeleted,
		"errors", len(stats.Errors))
	return stats, nil
}

// reconcileUser runs one owner's scan-diff-mutate cycle. Owners have
// disjoint storage subtrees and key spaces, so these run in parallel.
func (r *Reconciler) reconcileUser(ctx context.Context, ownerID string, opts model.ReconcileOptions) model.ReconcileStats {
	var stats model.ReconcileStats

	disk, scanErrs := r.scanner.ScanUser(ctx, ownerID)
	stats.Errors = append(stats.Errors, scanErrs...)
	stats.FilesOnDisk = len(disk)

	records, err := r.files.ListByOwner(ctx, ownerID)
	if err != nil {
		stats.AddError("", "LIST_FAILED", fmt.Sprintf("listing index for %s: %v", ownerID, err))
		return stats
	}
	index := make(map[string]*model.FileRecord, len(records))
	for _, rec := range records {
		index[rec.Path] = rec
	}
	stats.FilesInIndex = len(index)

	diff := Diff(disk, index)
	stats.MissingInIndex = len(diff.Missing)
	stats.OrphanedInIndex = len(diff.Orphaned)

	if opts.Mode == model.ModeSync || opts.Mode == model.ModeFull {
		for _, path := range append(append([]string(nil), diff.Missing...), diff.Stale...) {
			if ctx.Err() != nil {
				return stats
			}
			entry := disk[path]
			if opts.DryRun {
				if _, ok := index[path]; !ok {
					stats.RecordsCreated++
				} else {
					stats.RecordsUpdated++
				}
				continue
			}
			created, updated, err := r.upsert(ctx, ownerID, entry)
			if err != nil {
				stats.AddError(path, "UPSERT_FAILED", err.Error())
				continue
			}
			if created {
				stats.RecordsCreated++
			}
			if updated {
				stats.RecordsUpdated++
			}
		}
	}

	if opts.Mode.Destructive() {
		for _, path := range diff.Orphaned {
			if ctx.Err() != nil {
				return stats
			}
			record := index[path]
			deleted, shares, err := r.deleteRecord(ctx, record, opts.DryRun)
			if err != nil {
				stats.AddError(path, "DELETE_FAILED", err.Error())
				continue
			}
			if deleted {
				stats.RecordsDeleted++
				stats.SharesDeleted += shares
			}
		}
	}

	return stats
}

// upsert is an explicit read-compare-write keyed on (owner, path): create
// when absent, rewrite when metadata disagrees, do nothing when it already
// matches. The keyed lock keeps concurrent invocations from double-writing
// the same row.
func (r *Reconciler) upsert(ctx context.Context, ownerID string, entry model.FileEntry) (created, updated bool, err error) {
	unlock := r.locks.Lock(store.FileKey(ownerID, entry.Path))
	defer unlock()

	existing, err := r.files.GetByPath(ctx, ownerID, entry.Path)
	if err != nil {
		return false, false, err
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
		if err := r.files.Create(ctx, rec); err != nil {
			return false, false, err
		}
		return true, false, nil
	}

	if metadataEqual(entry, existing) {
		return false, false, nil
	}

	existing.Name = gopath.Base(entry.Path)
	existing.Size = entry.Size
	existing.ContentType = entry.ContentType
	existing.IsDirectory = entry.IsDirectory
	existing.ParentPath = model.ParentPath(entry.Path)
	if err := r.files.Update(ctx, existing); err != nil {
		return false, false, err
	}
	return false, true, nil
}

// deleteRecord removes an orphaned index record. Share links exist only in
// relation to their record, so they are deleted first and counted
// explicitly; there is no mode in which a record dies and its shares
// survive. In dry-run mode the would-be counts are reported instead.
func (r *Reconciler) deleteRecord(ctx context.Context, record *model.FileRecord, dryRun bool) (deleted bool, shares int, err error) {
	if dryRun {
		links, err := r.shares.ListByFile(ctx, record.ID)
		if err != nil {
			return false, 0, err
		}
		return true, len(links), nil
	}

	unlock := r.locks.Lock(store.FileKey(record.OwnerID, record.Path))
	defer unlock()

	shares, err = r.shares.DeleteByFile(ctx, record.ID)
	if err != nil {
		return false, 0, err
	}
	if shares > 0 {
		logger.S.Infow("cascade deleting share links for orphaned record",
			"path", record.Path, "owner", record.OwnerID, "shares", shares)
	}
	if err := r.files.Delete(ctx, record.ID); err != nil {
		return false, shares, err
	}
	return true, shares, nil
}
