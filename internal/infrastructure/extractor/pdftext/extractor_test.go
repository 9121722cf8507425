package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/dstepanov-dev/pdf-digest/internal/core/domain"
)

// minimalPDF assembles a one-page document with a valid cross-reference
// table so the offsets stay correct if the object bodies change.
func minimalPDF() []byte {
	var buf bytes.Buffer
	offsets := make([]int, 5)
	buf.WriteString("%PDF-1.4\n")
	writeObj := func(n int, body string) {
		offsets[n] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", n, body)
	}
	writeObj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	writeObj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	writeObj(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> /Contents 4 0 R >>")
	writeObj(4, "<< /Length 0 >>\nstream\nendstream")
	xref := buf.Len()
	buf.WriteString("xref\n0 5\n0000000000 65535 f \n")
	for n := 1; n <= 4; n++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[n])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size 5 /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", xref)
	return buf.Bytes()
}

func TestExtractReportsPageCount(t *testing.T) {
	text, pages, err := New().Extract(context.Background(), minimalPDF())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if pages != 1 {
		t.Fatalf("expected 1 page, got %d", pages)
	}
	if text != "" {
		t.Fatalf("expected no text for an empty page, got %q", text)
	}
}

func TestExtractRejectsEmptyDocument(t *testing.T) {
	_, _, err := New().Extract(context.Background(), nil)
	if !domain.IsKind(err, domain.ErrExtraction) {
		t.Fatalf("expected ErrExtraction kind, got %v", err)
	}
}

func TestExtractRejectsNonPDFBytes(t *testing.T) {
	_, _, err := New().Extract(context.Background(), []byte("plain text, definitely not a pdf"))
	if !domain.IsKind(err, domain.ErrExtraction) {
		t.Fatalf("expected ErrExtraction kind, got %v", err)
	}
}

func TestExtractHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := New().Extract(ctx, []byte("%PDF-1.4"))
	if err == nil {
		t.Fatalf("expected context error")
	}
}
