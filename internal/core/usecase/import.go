package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/docsearch-summarizer/internal/core/catalog"
	"github.com/kirillkom/docsearch-summarizer/internal/core/domain"
	"github.com/kirillkom/docsearch-summarizer/internal/core/ports"
)

type ImportUseCase struct {
	importer ports.DocumentImporter
}

func NewImportUseCase(importer ports.DocumentImporter) *ImportUseCase {
	return &ImportUseCase{importer: importer}
}

func (uc *ImportUseCase) ImportUploaded(ctx context.Context, event domain.UploadedEvent) error {
	if _, _, ok := catalog.ParseObjectURI(event.URI); !ok {
		return domain.WrapError(domain.ErrInvalidInput, "import uploaded document", fmt.Errorf("not an object uri: %q", event.URI))
	}
	if err := uc.importer.ImportDocuments(ctx, []string{event.URI}); err != nil {
		return fmt.Errorf("import documents: %w", err)
	}
	return nil
}
