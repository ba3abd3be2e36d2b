package extractor

import (
	"context"
	"testing"

	"github.com/kirillkom/docsearch-summarizer/internal/core/domain"
)

type namedExtractor string

func (n namedExtractor) Extract(context.Context, *domain.Upload) (string, error) {
	return string(n), nil
}

func TestDetect(t *testing.T) {
	cases := []struct {
		mime     string
		filename string
		want     Kind
	}{
		{mime: "application/pdf", filename: "report", want: KindPDF},
		{mime: "application/octet-stream", filename: "Report.PDF", want: KindPDF},
		{mime: "text/html; charset=utf-8", filename: "page", want: KindHTML},
		{mime: "", filename: "index.htm", want: KindHTML},
		{mime: "application/pdf", filename: "notes.txt", want: KindText},
		{mime: "", filename: "notes", want: KindText},
	}
	for _, tc := range cases {
		if got := Detect(tc.mime, tc.filename); got != tc.want {
			t.Fatalf("Detect(%q, %q) = %q, want %q", tc.mime, tc.filename, got, tc.want)
		}
	}
}

func TestRouterDispatches(t *testing.T) {
	router := NewRouter(namedExtractor("pdf"), namedExtractor("html"), namedExtractor("text"))
	got, err := router.Extract(context.Background(), &domain.Upload{Filename: "a.pdf"})
	if err != nil || got != "pdf" {
		t.Fatalf("expected pdf extractor, got %q err=%v", got, err)
	}
	got, _ = router.Extract(context.Background(), &domain.Upload{MimeType: "text/html"})
	if got != "html" {
		t.Fatalf("expected html extractor, got %q", got)
	}
	got, _ = router.Extract(context.Background(), &domain.Upload{Filename: "a.md"})
	if got != "text" {
		t.Fatalf("expected text extractor, got %q", got)
	}
}
