package ports

import (
	"context"
	"io"

	"github.com/kirillkom/docsearch-summarizer/internal/core/domain"
)

// CatalogSource lists the documents indexed by the search backend.
type CatalogSource interface {
	ListDocuments(ctx context.Context) ([]domain.DocumentRecord, error)
}

// AnswerBackend generates an answer with citations for a natural-language query.
type AnswerBackend interface {
	GenerateAnswer(ctx context.Context, query, preamble string) (*domain.QueryResult, error)
}

// DocumentImporter asks the search backend to index a stored object.
type DocumentImporter interface {
	ImportDocuments(ctx context.Context, uris []string) error
}

// ObjectStorage stores uploaded documents under bucket/key.
type ObjectStorage interface {
	Save(ctx context.Context, bucket, key string, data io.Reader, contentType string) (uri string, err error)
	Open(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// TextExtractor extracts plain text from a stored upload.
type TextExtractor interface {
	Extract(ctx context.Context, upload *domain.Upload) (string, error)
}

// Chunker splits long text before summarisation.
type Chunker interface {
	Split(text string) []string
}

// Summarizer condenses document text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// TitleGenerator proposes a short report title for a query.
type TitleGenerator interface {
	GenerateTitle(ctx context.Context, query string) (string, error)
}

// ReportRenderer turns a laid-out report into artifact bytes.
type ReportRenderer interface {
	Render(layout domain.ReportLayout) ([]byte, error)
}

// SpreadsheetExporter writes catalog entries as a spreadsheet.
type SpreadsheetExporter interface {
	ExportCatalog(entries []domain.CatalogEntry) ([]byte, error)
}

// UploadRepository persists upload history.
type UploadRepository interface {
	Create(ctx context.Context, upload *domain.Upload) error
	GetByID(ctx context.Context, id string) (*domain.Upload, error)
	ListRecent(ctx context.Context, limit int) ([]domain.Upload, error)
	UpdateStatus(ctx context.Context, id string, status domain.UploadStatus, errMessage string) error
	SaveSummary(ctx context.Context, id, summary string) error
}

// EventPublisher publishes upload events.
type EventPublisher interface {
	PublishUploaded(ctx context.Context, event domain.UploadedEvent) error
}

// EventSubscriber consumes upload events until ctx is done.
type EventSubscriber interface {
	SubscribeUploaded(ctx context.Context, handler func(context.Context, domain.UploadedEvent) error) error
}

// SessionStore keeps the per-session request context. Update applies fn atomically;
// fn receives domain.NewSession(id) when the session does not exist yet. The session
// returned by fn is stored even when fn also returns an error, and that error is
// passed through to the caller.
type SessionStore interface {
	Get(ctx context.Context, id string) (domain.Session, error)
	Update(ctx context.Context, id string, fn func(domain.Session) (domain.Session, error)) (domain.Session, error)
}
