package httpadapter

import (
	"net/http"

	"github.com/kirillkom/docsearch-summarizer/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case domain.IsKind(err, domain.ErrDocumentNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTriggerConflict):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrArtifactGeneration):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage hides internal detail behind a fixed message for conflicts, which the
// client shows to the user verbatim.
func errorMessage(err error) string {
	if domain.IsKind(err, domain.ErrTriggerConflict) {
		return domain.TriggerConflictWarning
	}
	return err.Error()
}
