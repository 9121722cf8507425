package ports

import (
	"context"
	"io"

	"github.com/dstepanov-dev/pdf-digest/internal/core/domain"
)

// BatchSubmitter is the inbound contract for the upload pipeline: validate a
// batch of user-selected files, upload the accepted ones and dispatch
// summarization per file.
type BatchSubmitter interface {
	Submit(ctx context.Context, candidates []Candidate) (*SubmitResult, error)
}

// Candidate carries one selected file into the pipeline.
type Candidate struct {
	Name     string
	MimeType string
	Size     int64
	Body     io.Reader
}

// SubmitResult reports the outcome of one batch submission. Files preserves
// submission order; Rejected lists intake-rejected candidates with the reason.
type SubmitResult struct {
	BatchID  string              `json:"batch_id"`
	Files    []domain.FileRecord `json:"files"`
	Rejected []RejectedFile      `json:"rejected,omitempty"`
}

// RejectedFile identifies a rejected candidate by its position in the
// submitted batch. Names are not unique within a batch.
type RejectedFile struct {
	Position int    `json:"position"`
	Name     string `json:"name"`
	Reason   string `json:"reason"`
}

// Summarizer is the inbound contract for the synchronous summarization
// endpoint: fetch a document by URL, extract its text and generate a summary.
type Summarizer interface {
	Summarize(ctx context.Context, documentURL string) (*domain.SummaryResult, error)
}

// FileProcessor is the inbound contract for asynchronous per-file processing.
type FileProcessor interface {
	ProcessByID(ctx context.Context, fileID string) error
}
