package store

import (
	"context"
	"database/sql"
	"time"

	"stratus/internal/model"
)

type FileRepo struct {
	db *sql.DB
}

func NewFileRepo(db *sql.DB) *FileRepo {
	return &FileRepo{db: db}
}

const fileColumns = "id, owner_id, path, name, size, content_type, is_directory, parent_path, created_at, updated_at"

func scanFile(row interface{ Scan(...any) error }) (*model.FileRecord, error) {
	var f model.FileRecord
	err := row.Scan(&f.ID, &f.OwnerID, &f.Path, &f.Name, &f.Size, &f.ContentType,
		&f.IsDirectory, &f.ParentPath, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, err
	}
	return &f, nil
}

func (r *FileRepo) Create(ctx context.Context, f *model.FileRecord) error {
	now := time.Now()
	f.CreatedAt = now
	f.UpdatedAt = now
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO files ("+fileColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		f.ID, f.OwnerID, f.Path, f.Name, f.Size, f.ContentType, f.IsDirectory,
		f.ParentPath, f.CreatedAt, f.UpdatedAt,
	)
	return err
}

func (r *FileRepo) Update(ctx context.Context, f *model.FileRecord) error {
	f.UpdatedAt = time.Now()
	_, err := r.db.ExecContext(ctx,
		`UPDATE files SET name = ?, size = ?, content_type = ?, is_directory = ?,
		 parent_path = ?, updated_at = ? WHERE id = ?`,
		f.Name, f.Size, f.ContentType, f.IsDirectory, f.ParentPath, f.UpdatedAt, f.ID,
	)
	return err
}

func (r *FileRepo) Get(ctx context.Context, id string) (*model.FileRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+fileColumns+" FROM files WHERE id = ?", id)
	return scanFile(row)
}

// GetByPath looks a record up by its (owner, path) key. Returns nil when no
// record exists.
func (r *FileRepo) GetByPath(ctx context.Context, ownerID, path string) (*model.FileRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+fileColumns+" FROM files WHERE owner_id = ? AND path = ?", ownerID, path)
	return scanFile(row)
}

func (r *FileRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.FileRecord, error) {
	return r.list(ctx, "SELECT "+fileColumns+" FROM files WHERE owner_id = ? ORDER BY path", ownerID)
}

// ListByParent returns the direct children of a directory. parentPath is ""
// for the owner's root.
func (r *FileRepo) ListByParent(ctx context.Context, ownerID, parentPath string) ([]*model.FileRecord, error) {
	return r.list(ctx,
		"SELECT "+fileColumns+" FROM files WHERE owner_id = ? AND parent_path = ? ORDER BY is_directory DESC, name",
		ownerID, parentPath)
}

// ListByPrefix returns every record at or below a directory path.
func (r *FileRepo) ListByPrefix(ctx context.Context, ownerID, prefix string) ([]*model.FileRecord, error) {
	return r.list(ctx,
		"SELECT "+fileColumns+" FROM files WHERE owner_id = ? AND (path = ? OR path LIKE ?) ORDER BY path",
		ownerID, prefix, prefix+"/%")
}

func (r *FileRepo) list(ctx context.Context, query string, args ...any) ([]*model.FileRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []*model.FileRecord
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (r *FileRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM files WHERE id = ?", id)
	return err
}

func (r *FileRepo) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM files WHERE owner_id = ?", ownerID).Scan(&n)
	return n, err
}
