package usecase

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/kirillkom/docsearch-summarizer/internal/core/domain"
)

var fixedNow = time.Date(2024, 11, 5, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type sessionStoreFake struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	// honorCtx rejects updates on a done context, like the redis store does.
	honorCtx bool
}

func newSessionStoreFake() *sessionStoreFake {
	return &sessionStoreFake{sessions: map[string]domain.Session{}}
}

func (f *sessionStoreFake) Get(_ context.Context, id string) (domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return domain.NewSession(id), nil
	}
	return s, nil
}

func (f *sessionStoreFake) Update(ctx context.Context, id string, fn func(domain.Session) (domain.Session, error)) (domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.honorCtx && ctx.Err() != nil {
		return domain.Session{}, ctx.Err()
	}
	current, ok := f.sessions[id]
	if !ok {
		current = domain.NewSession(id)
	}
	next, err := fn(current)
	f.sessions[id] = next
	return next, err
}

type catalogSourceFake struct {
	records []domain.DocumentRecord
	err     error
	calls   int
}

func (f *catalogSourceFake) ListDocuments(context.Context) ([]domain.DocumentRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

type answerBackendFake struct {
	query    string
	preamble string
	result   *domain.QueryResult
	err      error
	cancel   context.CancelFunc
}

func (f *answerBackendFake) GenerateAnswer(_ context.Context, query, preamble string) (*domain.QueryResult, error) {
	f.query = query
	f.preamble = preamble
	if f.cancel != nil {
		f.cancel()
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &domain.QueryResult{Answer: "answer"}, nil
}

type storageFake struct {
	bucket      string
	key         string
	body        string
	contentType string
	err         error
	cancel      context.CancelFunc
}

func (f *storageFake) Save(_ context.Context, bucket, key string, data io.Reader, contentType string) (string, error) {
	if f.cancel != nil {
		f.cancel()
	}
	if f.err != nil {
		return "", f.err
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	f.bucket, f.key, f.body, f.contentType = bucket, key, string(raw), contentType
	return "gs://" + bucket + "/" + key, nil
}

func (f *storageFake) Open(context.Context, string, string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

type uploadRepoFake struct {
	recent    []domain.Upload
	limit     int
	created   *domain.Upload
	summary   string
	status    domain.UploadStatus
	errorText string
	createErr error
}

func (f *uploadRepoFake) Create(_ context.Context, upload *domain.Upload) error {
	if f.createErr != nil {
		return f.createErr
	}
	copyUpload := *upload
	f.created = &copyUpload
	return nil
}

func (f *uploadRepoFake) GetByID(_ context.Context, id string) (*domain.Upload, error) {
	for _, u := range f.recent {
		if u.ID == id {
			found := u
			return &found, nil
		}
	}
	return nil, domain.WrapError(domain.ErrDocumentNotFound, "get upload", errors.New(id))
}

func (f *uploadRepoFake) ListRecent(_ context.Context, limit int) ([]domain.Upload, error) {
	f.limit = limit
	return f.recent, nil
}

func (f *uploadRepoFake) UpdateStatus(_ context.Context, _ string, status domain.UploadStatus, errMessage string) error {
	f.status = status
	f.errorText = errMessage
	return nil
}

func (f *uploadRepoFake) SaveSummary(_ context.Context, _ string, summary string) error {
	f.summary = summary
	f.status = domain.UploadStatusSummarized
	return nil
}

type publisherFake struct {
	events []domain.UploadedEvent
	err    error
}

func (f *publisherFake) PublishUploaded(_ context.Context, event domain.UploadedEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

type extractorFake struct {
	text string
	err  error
}

func (f *extractorFake) Extract(context.Context, *domain.Upload) (string, error) {
	return f.text, f.err
}

type chunkerFake struct {
	chunks []string
}

func (f chunkerFake) Split(string) []string { return f.chunks }

type summarizerFake struct {
	inputs []string
	err    error
}

func (f *summarizerFake) Summarize(_ context.Context, text string) (string, error) {
	f.inputs = append(f.inputs, text)
	if f.err != nil {
		return "", f.err
	}
	return "summary(" + text + ")", nil
}

type titleGeneratorFake struct {
	title string
	err   error
	input string
}

func (f *titleGeneratorFake) GenerateTitle(_ context.Context, query string) (string, error) {
	f.input = query
	return f.title, f.err
}

type assemblerFake struct {
	req domain.ReportRequest
	err error
}

func (f *assemblerFake) Assemble(req domain.ReportRequest) (*domain.ReportArtifact, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &domain.ReportArtifact{Title: req.Title, GeneratedAt: req.GeneratedAt, Content: []byte("%PDF")}, nil
}

type importerFake struct {
	uris []string
	err  error
}

func (f *importerFake) ImportDocuments(_ context.Context, uris []string) error {
	f.uris = append(f.uris, uris...)
	return f.err
}

type exporterFake struct {
	entries []domain.CatalogEntry
	err     error
}

func (f *exporterFake) ExportCatalog(entries []domain.CatalogEntry) ([]byte, error) {
	f.entries = entries
	if f.err != nil {
		return nil, f.err
	}
	return []byte("xlsx"), nil
}
