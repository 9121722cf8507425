// Package pdftext extracts plain text and the page count from raw PDF bytes.
package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/dstepanov-dev/pdf-digest/internal/core/domain"
)

type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(ctx context.Context, raw []byte) (text string, pages int, err error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	if len(raw) == 0 {
		return "", 0, domain.WrapError(domain.ErrExtraction, "parse pdf", fmt.Errorf("empty document"))
	}

	// The parser panics on some malformed cross-reference tables instead of
	// returning an error.
	defer func() {
		if r := recover(); r != nil {
			text, pages = "", 0
			err = domain.WrapError(domain.ErrExtraction, "parse pdf", fmt.Errorf("malformed document: %v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", 0, domain.WrapError(domain.ErrExtraction, "parse pdf", err)
	}
	pages = reader.NumPage()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", 0, domain.WrapError(domain.ErrExtraction, "extract pdf text", err)
	}
	var builder strings.Builder
	if _, err := io.Copy(&builder, plain); err != nil {
		return "", 0, domain.WrapError(domain.ErrExtraction, "read extracted text", err)
	}

	return strings.TrimSpace(builder.String()), pages, nil
}
