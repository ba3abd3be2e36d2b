package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/docsearch-summarizer/internal/core/domain"
)

const defaultListLimit = 50

type UploadRepository struct {
	db *sql.DB
}

func NewUploadRepository(db *sql.DB) *UploadRepository {
	return &UploadRepository{db: db}
}

func (r *UploadRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2024110501)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS uploads (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	bucket TEXT NOT NULL,
	object_key TEXT NOT NULL,
	uri TEXT NOT NULL,
	summary TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_uploads_created_at ON uploads(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *UploadRepository) Create(ctx context.Context, upload *domain.Upload) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO uploads (
	id, filename, mime_type, bucket, object_key, uri, summary, status, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`,
		upload.ID, upload.Filename, upload.MimeType, upload.Bucket, upload.Key, upload.URI,
		upload.Summary, string(upload.Status), upload.Error, upload.CreatedAt, upload.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert upload: %w", err)
	}
	return nil
}

const selectUploadColumns = `SELECT id, filename, mime_type, bucket, object_key, uri, summary, status, error_message, created_at, updated_at
FROM uploads`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUpload(row rowScanner) (domain.Upload, error) {
	var upload domain.Upload
	var status string
	err := row.Scan(
		&upload.ID, &upload.Filename, &upload.MimeType, &upload.Bucket, &upload.Key, &upload.URI,
		&upload.Summary, &status, &upload.Error, &upload.CreatedAt, &upload.UpdatedAt,
	)
	upload.Status = domain.UploadStatus(status)
	return upload, err
}

func (r *UploadRepository) GetByID(ctx context.Context, id string) (*domain.Upload, error) {
	row := r.db.QueryRowContext(ctx, selectUploadColumns+`
WHERE id = $1
`, id)

	upload, err := scanUpload(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get upload", fmt.Errorf("upload not found: %s", id))
		}
		return nil, fmt.Errorf("scan upload: %w", err)
	}
	return &upload, nil
}

func (r *UploadRepository) ListRecent(ctx context.Context, limit int) ([]domain.Upload, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := r.db.QueryContext(ctx, selectUploadColumns+`
ORDER BY created_at DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Upload, 0, limit)
	for rows.Next() {
		upload, err := scanUpload(rows)
		if err != nil {
			return nil, fmt.Errorf("scan upload: %w", err)
		}
		out = append(out, upload)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate uploads: %w", err)
	}
	return out, nil
}

func (r *UploadRepository) UpdateStatus(ctx context.Context, id string, status domain.UploadStatus, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE uploads
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update upload status: %w", err)
	}
	return ensureAffected(res, "update upload status", id)
}

// SaveSummary stores the summary and marks the upload summarized.
func (r *UploadRepository) SaveSummary(ctx context.Context, id, summary string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE uploads
SET summary = $2, status = $3, error_message = '', updated_at = $4
WHERE id = $1
`, id, summary, string(domain.UploadStatusSummarized), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save upload summary: %w", err)
	}
	return ensureAffected(res, "save upload summary", id)
}

func ensureAffected(res sql.Result, op, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, op, fmt.Errorf("upload not found: %s", id))
	}
	return nil
}
