package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/docsearch-summarizer/internal/core/catalog"
	"github.com/kirillkom/docsearch-summarizer/internal/core/domain"
	"github.com/kirillkom/docsearch-summarizer/internal/core/ports"
)

const (
	defaultMaxSummaryChunks = 8
	defaultRecentUploads    = 50
	maxRecentUploads        = 500
)

type UploadUseCase struct {
	catalog    ports.CatalogSource
	storage    ports.ObjectStorage
	repo       ports.UploadRepository
	publisher  ports.EventPublisher
	extractor  ports.TextExtractor
	chunker    ports.Chunker
	summarizer ports.Summarizer
	sessions   ports.SessionStore

	defaultBucket    string
	maxSummaryChunks int
	now              func() time.Time
}

type UploadDeps struct {
	Catalog    ports.CatalogSource
	Storage    ports.ObjectStorage
	Repo       ports.UploadRepository
	Publisher  ports.EventPublisher
	Extractor  ports.TextExtractor
	Chunker    ports.Chunker
	Summarizer ports.Summarizer
	Sessions   ports.SessionStore
}

func NewUploadUseCase(deps UploadDeps, defaultBucket string, maxSummaryChunks int) *UploadUseCase {
	if maxSummaryChunks <= 0 {
		maxSummaryChunks = defaultMaxSummaryChunks
	}
	return &UploadUseCase{
		catalog:          deps.Catalog,
		storage:          deps.Storage,
		repo:             deps.Repo,
		publisher:        deps.Publisher,
		extractor:        deps.Extractor,
		chunker:          deps.Chunker,
		summarizer:       deps.Summarizer,
		sessions:         deps.Sessions,
		defaultBucket:    strings.TrimSpace(defaultBucket),
		maxSummaryChunks: maxSummaryChunks,
		now:              utcNow,
	}
}

func (uc *UploadUseCase) Upload(ctx context.Context, req ports.UploadRequest) (*domain.UploadResult, error) {
	if strings.TrimSpace(req.Filename) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload", errors.New("filename is required"))
	}
	if req.Body == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload", errors.New("file body is required"))
	}

	tracked := req.SessionID != "" && uc.sessions != nil
	if tracked {
		if _, err := uc.sessions.Update(ctx, req.SessionID, func(s domain.Session) (domain.Session, error) {
			return s.Begin(domain.ModeUpload, uc.now())
		}); err != nil {
			return nil, fmt.Errorf("begin upload: %w", err)
		}
	}

	result, err := uc.uploadAndSummarize(ctx, req)
	if err != nil {
		if tracked {
			abortSession(ctx, uc.sessions, req.SessionID, domain.ModeUpload, uc.now())
		}
		return nil, err
	}

	if tracked {
		if err := settleSession(ctx, uc.sessions, req.SessionID, func(s domain.Session) (domain.Session, error) {
			return s.FinishUpload(*result, uc.now())
		}); err != nil {
			return nil, fmt.Errorf("finish upload: %w", err)
		}
	}
	return result, nil
}

func (uc *UploadUseCase) uploadAndSummarize(ctx context.Context, req ports.UploadRequest) (*domain.UploadResult, error) {
	bucket, err := uc.resolveBucket(ctx, req.Bucket)
	if err != nil {
		return nil, err
	}

	key := sanitizeFilename(req.Filename)
	uri, err := uc.storage.Save(ctx, bucket, key, req.Body, req.MimeType)
	if err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	now := uc.now()
	upload := domain.Upload{
		ID:        uuid.NewString(),
		Filename:  req.Filename,
		MimeType:  req.MimeType,
		Bucket:    bucket,
		Key:       key,
		URI:       uri,
		Status:    domain.UploadStatusStored,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if uc.repo != nil {
		if err := uc.repo.Create(ctx, &upload); err != nil {
			return nil, fmt.Errorf("create upload record: %w", err)
		}
	}
	uc.publish(ctx, upload)

	summary, err := uc.summarizeUpload(ctx, &upload)
	if err != nil {
		uc.markFailed(ctx, upload.ID, err)
		return nil, err
	}
	if err := uc.persistSummary(ctx, upload.ID, summary); err != nil {
		return nil, err
	}

	upload.Summary = summary
	upload.Status = domain.UploadStatusSummarized
	upload.UpdatedAt = uc.now()
	return &domain.UploadResult{
		Upload:  upload,
		Message: fmt.Sprintf("File %s uploaded to bucket %s.", key, bucket),
		Summary: summary,
	}, nil
}

// resolveBucket prefers the explicit bucket, then the bucket of the first catalog
// document, then the configured default.
func (uc *UploadUseCase) resolveBucket(ctx context.Context, explicit string) (string, error) {
	if bucket := strings.TrimSpace(explicit); bucket != "" {
		return bucket, nil
	}

	if uc.catalog != nil {
		records, err := uc.catalog.ListDocuments(ctx)
		if err != nil {
			slog.Warn("upload_bucket_catalog_lookup_failed", "error", err)
		} else {
			for _, entry := range catalog.Build(records) {
				if entry.Bucket != "" {
					return entry.Bucket, nil
				}
			}
		}
	}

	if uc.defaultBucket != "" {
		return uc.defaultBucket, nil
	}
	return "", domain.WrapError(domain.ErrInvalidInput, "resolve bucket", errors.New("no bucket information available"))
}

func (uc *UploadUseCase) publish(ctx context.Context, upload domain.Upload) {
	if uc.publisher == nil {
		return
	}
	event := domain.UploadedEvent{
		UploadID: upload.ID,
		URI:      upload.URI,
		MimeType: upload.MimeType,
		At:       upload.CreatedAt,
	}
	// The object is already stored; a lost event only delays indexing.
	if err := uc.publisher.PublishUploaded(ctx, event); err != nil {
		slog.Warn("upload_event_publish_failed", "upload_id", upload.ID, "uri", upload.URI, "error", err)
	}
}

func (uc *UploadUseCase) summarizeUpload(ctx context.Context, upload *domain.Upload) (string, error) {
	text, err := uc.extractor.Extract(ctx, upload)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("empty extracted text"))
	}

	summary, err := uc.summarize(ctx, text)
	if err != nil {
		return "", fmt.Errorf("summarize document: %w", err)
	}
	return summary, nil
}

// summarize condenses long text chunk by chunk and then summarises the partial
// summaries. Chunks beyond maxSummaryChunks are not read.
func (uc *UploadUseCase) summarize(ctx context.Context, text string) (string, error) {
	var chunks []string
	if uc.chunker != nil {
		chunks = uc.chunker.Split(text)
	}
	if len(chunks) <= 1 {
		return uc.summarizer.Summarize(ctx, text)
	}
	if len(chunks) > uc.maxSummaryChunks {
		chunks = chunks[:uc.maxSummaryChunks]
	}

	partials := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		partial, err := uc.summarizer.Summarize(ctx, chunk)
		if err != nil {
			return "", fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
		partials = append(partials, strings.TrimSpace(partial))
	}
	return uc.summarizer.Summarize(ctx, strings.Join(partials, "\n\n"))
}

func (uc *UploadUseCase) persistSummary(ctx context.Context, uploadID, summary string) error {
	if uc.repo == nil {
		return nil
	}
	if err := uc.repo.SaveSummary(ctx, uploadID, summary); err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	return nil
}

func (uc *UploadUseCase) markFailed(ctx context.Context, uploadID string, cause error) {
	if uc.repo == nil {
		return
	}
	if err := uc.repo.UpdateStatus(ctx, uploadID, domain.UploadStatusFailed, cause.Error()); err != nil {
		slog.Warn("upload_mark_failed_error", "upload_id", uploadID, "error", err)
	}
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "document.bin"
	}
	return base
}

func (uc *UploadUseCase) Recent(ctx context.Context, limit int) ([]domain.Upload, error) {
	if uc.repo == nil {
		return []domain.Upload{}, nil
	}
	if limit <= 0 || limit > maxRecentUploads {
		limit = defaultRecentUploads
	}
	uploads, err := uc.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent uploads: %w", err)
	}
	return uploads, nil
}

func (uc *UploadUseCase) Get(ctx context.Context, id string) (*domain.Upload, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "get upload", errors.New("upload id is required"))
	}
	if uc.repo == nil {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get upload", fmt.Errorf("id %s", id))
	}
	upload, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get upload: %w", err)
	}
	return upload, nil
}
