package usecase

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dstepanov-dev/pdf-digest/internal/core/domain"
)

const rejectionMessage = "File is too large or not a PDF"

// validateCandidate gates files before any storage or network call happens.
// Only PDF media types (or a .pdf extension when the browser sent a generic
// type) pass, and the byte limit is enforced against the declared size.
func validateCandidate(name, mimeType string, size, limit int64) error {
	if !isPDF(name, mimeType) {
		return domain.WrapError(domain.ErrValidation, "intake",
			fmt.Errorf("unsupported media type %q for %q", mimeType, name))
	}
	if limit > 0 && size > limit {
		return domain.WrapError(domain.ErrValidation, "intake",
			fmt.Errorf("file %q size %d exceeds limit %d", name, size, limit))
	}
	return nil
}

func isPDF(name, mimeType string) bool {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if mt == "application/pdf" {
		return true
	}
	if mt != "" && mt != "application/octet-stream" {
		return false
	}
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.pdf"
	}
	return base
}
