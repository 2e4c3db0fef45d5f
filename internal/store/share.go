package store

import (
	"context"
	"database/sql"
	"time"

	"stratus/internal/model"
)

type ShareRepo struct {
	db *sql.DB
}

func NewShareRepo(db *sql.DB) *ShareRepo {
	return &ShareRepo{db: db}
}

const shareColumns = "id, token, owner_id, file_id, expires_at, download_count, created_at"

func scanShare(row interface{ Scan(...any) error }) (*model.ShareLink, error) {
	var s model.ShareLink
	err := row.Scan(&s.ID, &s.Token, &s.OwnerID, &s.FileID, &s.ExpiresAt, &s.DownloadCount, &s.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, err
	}
	return &s, nil
}

func (r *ShareRepo) Create(ctx context.Context, s *model.ShareLink) error {
	s.CreatedAt = time.Now()
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO shares ("+shareColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		s.ID, s.Token, s.OwnerID, s.FileID, s.ExpiresAt, s.DownloadCount, s.CreatedAt,
	)
	return err
}

func (r *ShareRepo) Get(ctx context.Context, id string) (*model.ShareLink, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+shareColumns+" FROM shares WHERE id = ?", id)
	return scanShare(row)
}

func (r *ShareRepo) GetByToken(ctx context.Context, token string) (*model.ShareLink, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+shareColumns+" FROM shares WHERE token = ?", token)
	return scanShare(row)
}

func (r *ShareRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.ShareLink, error) {
	return r.list(ctx, "SELECT "+shareColumns+" FROM shares WHERE owner_id = ? ORDER BY created_at DESC", ownerID)
}

func (r *ShareRepo) ListByFile(ctx context.Context, fileID string) ([]*model.ShareLink, error) {
	return r.list(ctx, "SELECT "+shareColumns+" FROM shares WHERE file_id = ?", fileID)
}

func (r *ShareRepo) list(ctx context.Context, query string, args ...any) ([]*model.ShareLink, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shares []*model.ShareLink
	for rows.Next() {
		s, err := scanShare(rows)
		if err != nil {
			return nil, err
		}
		shares = append(shares, s)
	}
	return shares, rows.Err()
}

func (r *ShareRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM shares WHERE id = ?", id)
	return err
}

// DeleteByFile removes every share backed by a file record and reports how
// many were removed. The reconciler calls this before deleting the record so
// cascade counts are explicit instead of hidden in a foreign key.
func (r *ShareRepo) DeleteByFile(ctx context.Context, fileID string) (int, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM shares WHERE file_id = ?", fileID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *ShareRepo) IncrementDownloads(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE shares SET download_count = download_count + 1 WHERE id = ?", id)
	return err
}
