// Package htmltext extracts the readable article text of an HTML document.
package htmltext

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html/charset"

	"github.com/kirillkom/docsearch-summarizer/internal/core/domain"
	"github.com/kirillkom/docsearch-summarizer/internal/core/ports"
)

type Extractor struct {
	storage ports.ObjectStorage
}

func NewExtractor(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

func (e *Extractor) Extract(ctx context.Context, upload *domain.Upload) (string, error) {
	reader, err := e.storage.Open(ctx, upload.Bucket, upload.Key)
	if err != nil {
		return "", fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	// Legacy encodings are declared in the upload content type or a <meta> tag.
	decoded, err := charset.NewReader(reader, upload.MimeType)
	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "decode html charset", err)
	}

	article, err := readability.FromReader(decoded, pageURL(upload.URI))
	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract html text", err)
	}

	text := strings.TrimSpace(article.TextContent)
	if title := strings.TrimSpace(article.Title); title != "" && !strings.HasPrefix(text, title) {
		text = title + "\n\n" + text
	}
	return text, nil
}

func pageURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		return &url.URL{}
	}
	return u
}
