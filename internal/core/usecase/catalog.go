package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirillkom/docsearch-summarizer/internal/core/catalog"
	"github.com/kirillkom/docsearch-summarizer/internal/core/domain"
	"github.com/kirillkom/docsearch-summarizer/internal/core/ports"
)

type CatalogUseCase struct {
	source   ports.CatalogSource
	exporter ports.SpreadsheetExporter
}

func NewCatalogUseCase(source ports.CatalogSource, exporter ports.SpreadsheetExporter) *CatalogUseCase {
	return &CatalogUseCase{
		source:   source,
		exporter: exporter,
	}
}

func (uc *CatalogUseCase) List(ctx context.Context) ([]domain.CatalogEntry, error) {
	records, err := uc.source.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalog documents: %w", err)
	}
	return catalog.Build(records), nil
}

func (uc *CatalogUseCase) Get(ctx context.Context, id string) (*domain.CatalogEntry, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "get catalog entry", fmt.Errorf("document id is required"))
	}

	entries, err := uc.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].ID == id {
			entry := entries[i]
			return &entry, nil
		}
	}
	return nil, domain.WrapError(domain.ErrDocumentNotFound, "get catalog entry", fmt.Errorf("id=%s", id))
}

func (uc *CatalogUseCase) ExportSpreadsheet(ctx context.Context) ([]byte, error) {
	entries, err := uc.List(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := uc.exporter.ExportCatalog(entries)
	if err != nil {
		return nil, domain.WrapError(domain.ErrArtifactGeneration, "export catalog spreadsheet", err)
	}
	return raw, nil
}

// URLsByTitle maps document titles to their URIs for citation lookups.
func (uc *CatalogUseCase) URLsByTitle(ctx context.Context) (map[string]string, error) {
	records, err := uc.source.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalog documents: %w", err)
	}
	return catalog.URLsByTitle(records), nil
}
