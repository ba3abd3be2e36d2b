package usecase

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/docsearch-summarizer/internal/core/domain"
	"github.com/kirillkom/docsearch-summarizer/internal/core/ports"
)

type uploadFixture struct {
	catalog    *catalogSourceFake
	storage    *storageFake
	repo       *uploadRepoFake
	publisher  *publisherFake
	extractor  *extractorFake
	summarizer *summarizerFake
	sessions   *sessionStoreFake
	chunker    chunkerFake
}

func newUploadFixture() *uploadFixture {
	return &uploadFixture{
		catalog:    &catalogSourceFake{records: []domain.DocumentRecord{{ID: "1", URI: "gs://corpus/a/report.pdf"}}},
		storage:    &storageFake{},
		repo:       &uploadRepoFake{},
		publisher:  &publisherFake{},
		extractor:  &extractorFake{text: "extracted text"},
		summarizer: &summarizerFake{},
		sessions:   newSessionStoreFake(),
	}
}

func (f *uploadFixture) useCase(defaultBucket string) *UploadUseCase {
	uc := NewUploadUseCase(UploadDeps{
		Catalog:    f.catalog,
		Storage:    f.storage,
		Repo:       f.repo,
		Publisher:  f.publisher,
		Extractor:  f.extractor,
		Chunker:    f.chunker,
		Summarizer: f.summarizer,
		Sessions:   f.sessions,
	}, defaultBucket, 2)
	uc.now = fixedClock
	return uc
}

func uploadRequest(name string) ports.UploadRequest {
	return ports.UploadRequest{
		SessionID: "s-1",
		Filename:  name,
		MimeType:  "application/pdf",
		Body:      bytes.NewBufferString("%PDF-1.4"),
	}
}

func TestUploadStoresSummarizesAndTracksSession(t *testing.T) {
	fx := newUploadFixture()
	uc := fx.useCase("")

	result, err := uc.Upload(context.Background(), uploadRequest("Q1 report.pdf"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if fx.storage.bucket != "corpus" || fx.storage.key != "Q1_report.pdf" || fx.storage.body != "%PDF-1.4" {
		t.Fatalf("unexpected storage call %+v", fx.storage)
	}
	if result.Upload.URI != "gs://corpus/Q1_report.pdf" {
		t.Fatalf("unexpected uri %q", result.Upload.URI)
	}
	if result.Message != "File Q1_report.pdf uploaded to bucket corpus." {
		t.Fatalf("unexpected message %q", result.Message)
	}
	if result.Summary != "summary(extracted text)" || fx.repo.summary != result.Summary {
		t.Fatalf("unexpected summary %q / %q", result.Summary, fx.repo.summary)
	}
	if fx.repo.created == nil || fx.repo.created.Status != domain.UploadStatusStored {
		t.Fatalf("expected stored upload record, got %+v", fx.repo.created)
	}
	if len(fx.publisher.events) != 1 || fx.publisher.events[0].URI != result.Upload.URI {
		t.Fatalf("expected upload event, got %+v", fx.publisher.events)
	}

	view := fx.sessions.sessions["s-1"].View()
	if view.Mode != domain.ModeUpload || view.Summary != result.Summary || view.Notice == "" {
		t.Fatalf("unexpected session view %+v", view)
	}
}

func TestUploadBucketResolutionOrder(t *testing.T) {
	fx := newUploadFixture()
	req := uploadRequest("a.pdf")
	req.Bucket = " explicit "
	if _, err := fx.useCase("fallback").Upload(context.Background(), req); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if fx.storage.bucket != "explicit" {
		t.Fatalf("expected explicit bucket, got %q", fx.storage.bucket)
	}

	fx = newUploadFixture()
	fx.catalog.err = errors.New("catalog down")
	if _, err := fx.useCase("fallback").Upload(context.Background(), uploadRequest("a.pdf")); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if fx.storage.bucket != "fallback" {
		t.Fatalf("expected configured bucket, got %q", fx.storage.bucket)
	}

	fx = newUploadFixture()
	fx.catalog.records = []domain.DocumentRecord{{ID: "x", URI: "not-a-gs-uri"}}
	_, err := fx.useCase("").Upload(context.Background(), uploadRequest("a.pdf"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without bucket, got %v", err)
	}
	if fx.sessions.sessions["s-1"].InFlight {
		t.Fatalf("expected session settled after failure")
	}
}

func TestUploadSummarizesLongTextByChunks(t *testing.T) {
	fx := newUploadFixture()
	fx.chunker = chunkerFake{chunks: []string{"c1", "c2", "c3"}}

	result, err := fx.useCase("").Upload(context.Background(), uploadRequest("a.pdf"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	// Two chunk summaries (limit 2) and one merge pass.
	if len(fx.summarizer.inputs) != 3 {
		t.Fatalf("expected 3 summarizer calls, got %v", fx.summarizer.inputs)
	}
	if fx.summarizer.inputs[2] != "summary(c1)\n\nsummary(c2)" {
		t.Fatalf("unexpected merge input %q", fx.summarizer.inputs[2])
	}
	if !strings.HasPrefix(result.Summary, "summary(summary(c1)") {
		t.Fatalf("unexpected summary %q", result.Summary)
	}
}

func TestUploadEmptyExtractionMarksFailed(t *testing.T) {
	fx := newUploadFixture()
	fx.extractor.text = "   "

	_, err := fx.useCase("").Upload(context.Background(), uploadRequest("a.pdf"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if fx.repo.status != domain.UploadStatusFailed || fx.repo.errorText == "" {
		t.Fatalf("expected failed status, got %q %q", fx.repo.status, fx.repo.errorText)
	}
}

func TestUploadPublishFailureDoesNotFailUpload(t *testing.T) {
	fx := newUploadFixture()
	fx.publisher.err = errors.New("nats down")

	if _, err := fx.useCase("").Upload(context.Background(), uploadRequest("a.pdf")); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
}

func TestUploadStorageError(t *testing.T) {
	fx := newUploadFixture()
	fx.storage.err = errors.New("permission denied")

	_, err := fx.useCase("").Upload(context.Background(), uploadRequest("a.pdf"))
	if err == nil || !strings.Contains(err.Error(), "save to object storage") {
		t.Fatalf("expected storage error, got %v", err)
	}
	if fx.repo.created != nil {
		t.Fatalf("no record must be created when storage fails")
	}
}

func TestUploadCancelledRequestStillSettlesSession(t *testing.T) {
	fx := newUploadFixture()
	fx.sessions.honorCtx = true
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fx.storage.cancel = cancel
	fx.storage.err = context.Canceled

	if _, err := fx.useCase("").Upload(ctx, uploadRequest("a.pdf")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if fx.sessions.sessions["s-1"].InFlight {
		t.Fatalf("session must not stay in flight after a cancelled upload")
	}

	fx.storage.cancel = nil
	fx.storage.err = nil
	if _, err := fx.useCase("").Upload(context.Background(), uploadRequest("b.pdf")); err != nil {
		t.Fatalf("next upload must not conflict, got %v", err)
	}
}

func TestUploadValidatesInput(t *testing.T) {
	uc := newUploadFixture().useCase("")
	_, err := uc.Upload(context.Background(), ports.UploadRequest{Filename: "", Body: strings.NewReader("x")})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	_, err = uc.Upload(context.Background(), ports.UploadRequest{Filename: "a.pdf"})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for nil body, got %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"report 1.txt":     "report_1.txt",
		"../../etc/passwd": "passwd",
		"отчёт.pdf":        "_____.pdf",
		"":                 "document.bin",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Fatalf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestUploadHistory(t *testing.T) {
	f := newUploadFixture()
	f.repo.recent = []domain.Upload{{ID: "u-2"}, {ID: "u-1"}}
	uc := f.useCase("")

	uploads, err := uc.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(uploads) != 2 || f.repo.limit != defaultRecentUploads {
		t.Fatalf("unexpected recent uploads: %d (limit %d)", len(uploads), f.repo.limit)
	}

	upload, err := uc.Get(context.Background(), "u-1")
	if err != nil || upload.ID != "u-1" {
		t.Fatalf("get upload: %v %+v", err, upload)
	}
	if _, err := uc.Get(context.Background(), "missing"); !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := uc.Get(context.Background(), " "); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
