package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/docsearch-summarizer/internal/core/domain"
)

var uploadColumns = []string{"id", "filename", "mime_type", "bucket", "object_key", "uri", "summary", "status", "error_message", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (*UploadRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &UploadRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestEnsureSchemaTakesAdvisoryLock(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").WithArgs(int64(2024110501)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS uploads").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateInsertsUpload(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	now := time.Date(2024, 11, 5, 9, 30, 0, 0, time.UTC)
	upload := &domain.Upload{
		ID: "u1", Filename: "q3.pdf", MimeType: "application/pdf", Bucket: "docs", Key: "q3.pdf",
		URI: "gs://docs/q3.pdf", Status: domain.UploadStatusStored, CreatedAt: now, UpdatedAt: now,
	}
	mock.ExpectExec("INSERT INTO uploads").
		WithArgs("u1", "q3.pdf", "application/pdf", "docs", "q3.pdf", "gs://docs/q3.pdf", "", "stored", "", now, now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), upload); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, filename, mime_type, bucket").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDScansRow(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	now := time.Date(2024, 11, 5, 9, 30, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id, filename, mime_type, bucket").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(uploadColumns).
			AddRow("u1", "q3.pdf", "application/pdf", "docs", "q3.pdf", "gs://docs/q3.pdf", "short", "summarized", "", now, now))

	upload, err := repo.GetByID(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if upload.Status != domain.UploadStatusSummarized || upload.Summary != "short" || upload.Key != "q3.pdf" {
		t.Fatalf("unexpected upload: %+v", upload)
	}
}

func TestListRecentDefaultsLimit(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	now := time.Date(2024, 11, 5, 9, 30, 0, 0, time.UTC)
	mock.ExpectQuery("ORDER BY created_at DESC").
		WithArgs(defaultListLimit).
		WillReturnRows(sqlmock.NewRows(uploadColumns).
			AddRow("u2", "b.txt", "text/plain", "docs", "b.txt", "gs://docs/b.txt", "", "stored", "", now, now).
			AddRow("u1", "a.txt", "text/plain", "docs", "a.txt", "gs://docs/a.txt", "", "failed", "boom", now, now))

	uploads, err := repo.ListRecent(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(uploads) != 2 || uploads[0].ID != "u2" || uploads[1].Error != "boom" {
		t.Fatalf("unexpected uploads: %+v", uploads)
	}
}

func TestUpdateStatusReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE uploads").
		WithArgs("missing", string(domain.UploadStatusFailed), "boom", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", domain.UploadStatusFailed, "boom")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveSummaryMarksSummarized(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE uploads").
		WithArgs("u1", "short", string(domain.UploadStatusSummarized), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SaveSummary(context.Background(), "u1", "short"); err != nil {
		t.Fatalf("SaveSummary() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
