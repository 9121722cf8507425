package usecase

import (
	"testing"

	"github.com/dstepanov-dev/pdf-digest/internal/core/domain"
)

func TestValidateCandidateAcceptsPDFWithinLimit(t *testing.T) {
	if err := validateCandidate("contract.pdf", "application/pdf", 1024, 5<<20); err != nil {
		t.Fatalf("validateCandidate() error = %v", err)
	}
}

func TestValidateCandidateRejectsOversizedFile(t *testing.T) {
	err := validateCandidate("contract.pdf", "application/pdf", 6<<20, 5<<20)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestValidateCandidateRejectsNonPDF(t *testing.T) {
	err := validateCandidate("notes.txt", "text/plain", 10, 5<<20)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestIsPDF(t *testing.T) {
	cases := []struct {
		name     string
		mimeType string
		want     bool
	}{
		{"a.pdf", "application/pdf", true},
		{"a.pdf", "application/pdf; charset=binary", true},
		{"a.pdf", "", true},
		{"a.PDF", "application/octet-stream", true},
		{"a.pdf", "text/plain", false},
		{"a.txt", "", false},
		{"a.exe", "application/octet-stream", false},
	}
	for _, tc := range cases {
		if got := isPDF(tc.name, tc.mimeType); got != tc.want {
			t.Fatalf("isPDF(%q, %q) = %v, want %v", tc.name, tc.mimeType, got, tc.want)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"my contract.pdf", "my_contract.pdf"},
		{"../../etc/passwd", "passwd"},
		{"отчёт.pdf", "_____.pdf"},
		{"report-v2_final.pdf", "report-v2_final.pdf"},
	}
	for _, tc := range cases {
		if got := sanitizeFilename(tc.in); got != tc.want {
			t.Fatalf("sanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
