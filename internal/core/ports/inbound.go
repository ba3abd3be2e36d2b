package ports

import (
	"context"
	"io"

	"github.com/kirillkom/docsearch-summarizer/internal/core/domain"
)

// CatalogService is the inbound contract for browsing the document corpus.
type CatalogService interface {
	List(ctx context.Context) ([]domain.CatalogEntry, error)
	Get(ctx context.Context, id string) (*domain.CatalogEntry, error)
	ExportSpreadsheet(ctx context.Context) ([]byte, error)
	URLsByTitle(ctx context.Context) (map[string]string, error)
}

// QueryService answers questions against the search backend.
type QueryService interface {
	Answer(ctx context.Context, sessionID, question string) (*domain.QueryResult, error)
	SampleQueries() []string
}

// UploadService stores and summarises a user document and exposes upload history.
type UploadService interface {
	Upload(ctx context.Context, req UploadRequest) (*domain.UploadResult, error)
	Recent(ctx context.Context, limit int) ([]domain.Upload, error)
	Get(ctx context.Context, id string) (*domain.Upload, error)
}

type UploadRequest struct {
	SessionID string
	Bucket    string
	Filename  string
	MimeType  string
	Body      io.Reader
}

// ReportService exports the active summary as a report artifact.
type ReportService interface {
	Export(ctx context.Context, req ExportRequest) (*domain.ReportArtifact, error)
}

// ExportRequest either carries explicit content or, when Answer is empty, refers to
// the settled summary of SessionID.
type ExportRequest struct {
	SessionID    string
	Title        string
	Query        string
	DocumentName string
	Answer       string
	Sources      []domain.Source
	MaxSources   int
}

// SessionService exposes the trigger state of a session.
type SessionService interface {
	View(ctx context.Context, sessionID string) (domain.SessionView, error)
}

// UploadImporter indexes uploaded objects in the search backend.
type UploadImporter interface {
	ImportUploaded(ctx context.Context, event domain.UploadedEvent) error
}
