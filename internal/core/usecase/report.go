package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/docsearch-summarizer/internal/core/domain"
	"github.com/kirillkom/docsearch-summarizer/internal/core/ports"
)

// ReportAssembler is satisfied by report.Assembler.
type ReportAssembler interface {
	Assemble(req domain.ReportRequest) (*domain.ReportArtifact, error)
}

// SourceLinker resolves catalog titles to document URIs. Satisfied by
// CatalogUseCase.
type SourceLinker interface {
	URLsByTitle(ctx context.Context) (map[string]string, error)
}

type ReportUseCase struct {
	assembler  ReportAssembler
	titles     ports.TitleGenerator
	links      SourceLinker
	sessions   ports.SessionStore
	maxSources int
	now        func() time.Time
}

func NewReportUseCase(
	assembler ReportAssembler,
	titles ports.TitleGenerator,
	links SourceLinker,
	sessions ports.SessionStore,
	maxSources int,
) *ReportUseCase {
	if maxSources <= 0 {
		maxSources = domain.DefaultMaxSources
	}
	return &ReportUseCase{
		assembler:  assembler,
		titles:     titles,
		links:      links,
		sessions:   sessions,
		maxSources: maxSources,
		now:        utcNow,
	}
}

func (uc *ReportUseCase) Export(ctx context.Context, req ports.ExportRequest) (*domain.ReportArtifact, error) {
	content, err := uc.resolveContent(ctx, req)
	if err != nil {
		return nil, err
	}

	content.Title = strings.TrimSpace(req.Title)
	if content.Title == "" {
		content.Title = uc.generateTitle(ctx, content)
	}
	content.Sources = uc.resolveSourceURIs(ctx, content.Sources)
	content.MaxSources = req.MaxSources
	if content.MaxSources <= 0 {
		content.MaxSources = uc.maxSources
	}
	content.GeneratedAt = uc.now()

	artifact, err := uc.assembler.Assemble(content)
	if err != nil {
		return nil, fmt.Errorf("assemble report: %w", err)
	}
	return artifact, nil
}

func (uc *ReportUseCase) resolveContent(ctx context.Context, req ports.ExportRequest) (domain.ReportRequest, error) {
	if strings.TrimSpace(req.Answer) != "" {
		return domain.ReportRequest{
			Query:        req.Query,
			DocumentName: req.DocumentName,
			Answer:       req.Answer,
			Sources:      req.Sources,
		}, nil
	}

	if req.SessionID == "" || uc.sessions == nil {
		return domain.ReportRequest{}, domain.WrapError(domain.ErrInvalidInput, "export report", errors.New("answer or session is required"))
	}
	s, err := uc.sessions.Get(ctx, req.SessionID)
	if err != nil {
		return domain.ReportRequest{}, fmt.Errorf("load session: %w", err)
	}
	content, ok := s.ReportContent()
	if !ok {
		return domain.ReportRequest{}, domain.WrapError(domain.ErrInvalidInput, "export report", errors.New("no settled summary to export"))
	}
	return content, nil
}

func (uc *ReportUseCase) generateTitle(ctx context.Context, content domain.ReportRequest) string {
	subject := strings.TrimSpace(content.Query)
	if subject == "" {
		subject = strings.TrimSpace(content.DocumentName)
	}
	if subject == "" || uc.titles == nil {
		return domain.DefaultReportTitle
	}

	title, err := uc.titles.GenerateTitle(ctx, subject)
	if err != nil {
		slog.Warn("report_title_generation_failed", "error", err)
		return domain.DefaultReportTitle
	}
	title = cleanTitle(title)
	if title == "" {
		return domain.DefaultReportTitle
	}
	return title
}

// resolveSourceURIs fills missing URIs from the catalog by exact title. The input
// slice is not modified.
func (uc *ReportUseCase) resolveSourceURIs(ctx context.Context, sources []domain.Source) []domain.Source {
	out := make([]domain.Source, len(sources))
	copy(out, sources)

	missing := false
	for _, src := range out {
		if strings.TrimSpace(src.URI) == "" && strings.TrimSpace(src.Title) != "" {
			missing = true
			break
		}
	}
	if !missing || uc.links == nil {
		return out
	}

	urls, err := uc.links.URLsByTitle(ctx)
	if err != nil {
		slog.Warn("report_source_lookup_failed", "error", err)
		return out
	}
	for i := range out {
		if strings.TrimSpace(out[i].URI) != "" {
			continue
		}
		if uri, ok := urls[strings.TrimSpace(out[i].Title)]; ok {
			out[i].URI = uri
		}
	}
	return out
}

func cleanTitle(raw string) string {
	line := strings.TrimSpace(raw)
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimLeft(line, "# ")
	line = strings.Trim(line, "\"'*` ")
	return strings.TrimSpace(line)
}
