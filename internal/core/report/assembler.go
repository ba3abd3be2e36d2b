// Package report turns answers and summaries into downloadable report artifacts.
package report

import (
	"errors"
	"strings"
	"time"

	"github.com/kirillkom/docsearch-summarizer/internal/core/domain"
	"github.com/kirillkom/docsearch-summarizer/internal/core/ports"
)

const (
	TimestampLayout = "Jan 02, 2006 at 03:04 PM"
	contentTypePDF  = "application/pdf"
)

type Assembler struct {
	renderer ports.ReportRenderer
}

func NewAssembler(renderer ports.ReportRenderer) *Assembler {
	return &Assembler{renderer: renderer}
}

// Assemble lays out the request and renders it. A render failure is reported as
// domain.ErrArtifactGeneration and no bytes are returned.
func (a *Assembler) Assemble(req domain.ReportRequest) (*domain.ReportArtifact, error) {
	layout := BuildLayout(req)

	content, err := a.renderer.Render(layout)
	if err != nil {
		return nil, domain.WrapError(domain.ErrArtifactGeneration, "render report", err)
	}
	if len(content) == 0 {
		return nil, domain.WrapError(domain.ErrArtifactGeneration, "render report", errors.New("renderer produced no bytes"))
	}

	return &domain.ReportArtifact{
		Title:        layout.Title,
		GeneratedAt:  layout.GeneratedAt,
		BodySections: layout.Sections,
		Filename:     domain.DefaultReportFilename,
		ContentType:  contentTypePDF,
		Content:      content,
	}, nil
}

// BuildLayout is the pure part of Assemble. MaxSources <= 0 falls back to
// domain.DefaultMaxSources.
func BuildLayout(req domain.ReportRequest) domain.ReportLayout {
	title := Sanitize(strings.TrimSpace(req.Title))
	if title == "" {
		title = domain.DefaultReportTitle
	}

	layout := domain.ReportLayout{
		Title:       title,
		Timestamp:   FormatTimestamp(req.GeneratedAt),
		GeneratedAt: req.GeneratedAt,
		Sections:    buildSections(req),
		Citations:   buildCitations(req.Sources, req.MaxSources),
	}
	if len(req.Sources) == 0 {
		layout.Placeholder = domain.NoSourcesPlaceholder
	}
	return layout
}

func buildSections(req domain.ReportRequest) []domain.ReportSection {
	sections := make([]domain.ReportSection, 0, 2)
	if name := strings.TrimSpace(req.DocumentName); name != "" {
		sections = append(sections,
			domain.ReportSection{Heading: "Document:", Text: Sanitize(name)},
			domain.ReportSection{Heading: "Summary:", Text: Sanitize(req.Answer)},
		)
		return sections
	}
	if q := formatQuery(req.Query); q != "" {
		sections = append(sections, domain.ReportSection{Heading: "Query:", Text: Sanitize(q)})
	}
	return append(sections, domain.ReportSection{Heading: "Response:", Text: Sanitize(req.Answer)})
}

func buildCitations(sources []domain.Source, maxSources int) []domain.Citation {
	if maxSources <= 0 {
		maxSources = domain.DefaultMaxSources
	}
	if len(sources) > maxSources {
		sources = sources[:maxSources]
	}

	citations := make([]domain.Citation, 0, len(sources))
	for i, src := range sources {
		uri := Sanitize(strings.TrimSpace(src.URI))
		label := Sanitize(strings.TrimSpace(src.Title))
		if label == "" {
			label = uri
		}
		if label == "" {
			label = domain.UnknownDocumentLabel
		}
		citations = append(citations, domain.Citation{
			Number: i + 1,
			Label:  label,
			URI:    uri,
		})
	}
	return citations
}

// FormatTimestamp renders t the way the report header does.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}
