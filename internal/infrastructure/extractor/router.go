// Package extractor picks the text extractor matching an upload's format.
package extractor

import (
	"context"
	"path"
	"strings"

	"github.com/kirillkom/docsearch-summarizer/internal/core/domain"
	"github.com/kirillkom/docsearch-summarizer/internal/core/ports"
)

type Kind string

const (
	KindPDF  Kind = "pdf"
	KindHTML Kind = "html"
	KindText Kind = "text"
)

type Router struct {
	pdf  ports.TextExtractor
	html ports.TextExtractor
	text ports.TextExtractor
}

func NewRouter(pdf, html, text ports.TextExtractor) *Router {
	return &Router{pdf: pdf, html: html, text: text}
}

func (r *Router) Extract(ctx context.Context, upload *domain.Upload) (string, error) {
	switch Detect(upload.MimeType, upload.Filename) {
	case KindPDF:
		return r.pdf.Extract(ctx, upload)
	case KindHTML:
		return r.html.Extract(ctx, upload)
	default:
		return r.text.Extract(ctx, upload)
	}
}

// Detect prefers the file extension and falls back to the declared mime type.
func Detect(mimeType, filename string) Kind {
	switch strings.ToLower(path.Ext(filename)) {
	case ".pdf":
		return KindPDF
	case ".html", ".htm":
		return KindHTML
	case ".txt", ".md", ".csv":
		return KindText
	}

	mimeType = strings.ToLower(mimeType)
	switch {
	case strings.Contains(mimeType, "pdf"):
		return KindPDF
	case strings.Contains(mimeType, "html"):
		return KindHTML
	default:
		return KindText
	}
}
