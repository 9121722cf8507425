package httpadapter

import (
	"encoding/json"
	"net/http"

	"github.com/dstepanov-dev/pdf-digest/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrValidation):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrFileNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorCode names the failure stage for clients without exposing internals.
func errorCode(err error) string {
	switch {
	case domain.IsKind(err, domain.ErrValidation):
		return "validation_error"
	case domain.IsKind(err, domain.ErrFetch):
		return "fetch_error"
	case domain.IsKind(err, domain.ErrExtraction):
		return "extraction_error"
	case domain.IsKind(err, domain.ErrModel):
		return "model_error"
	case domain.IsKind(err, domain.ErrFileNotFound):
		return "not_found"
	case domain.IsKind(err, domain.ErrTemporary):
		return "temporary_error"
	default:
		return "internal_error"
	}
}

// errorMessage returns a stage-level description. Wrapped causes stay in the
// logs; client payloads never carry driver errors or stack traces.
func errorMessage(err error) string {
	switch {
	case domain.IsKind(err, domain.ErrValidation):
		return "request validation failed"
	case domain.IsKind(err, domain.ErrFetch):
		return "document could not be fetched"
	case domain.IsKind(err, domain.ErrExtraction):
		return "document text could not be extracted"
	case domain.IsKind(err, domain.ErrModel):
		return "summary generation failed"
	case domain.IsKind(err, domain.ErrFileNotFound):
		return "file not found"
	case domain.IsKind(err, domain.ErrTemporary):
		return "service temporarily unavailable"
	default:
		return "internal error"
	}
}

type errorDetails struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{
		"error": errorMessage(err),
		"details": errorDetails{
			Code:    errorCode(err),
			Message: errorMessage(err),
		},
	})
}

func writeSummaryError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]any{
		"error": "Failed to process PDF: " + errorMessage(err),
		"details": errorDetails{
			Code:    errorCode(err),
			Message: errorMessage(err),
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
