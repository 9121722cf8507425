package ports

import (
	"context"
	"io"

	"github.com/dstepanov-dev/pdf-digest/internal/core/domain"
)

// FileRepository persists and reads per-file pipeline state.
type FileRepository interface {
	CreateBatch(ctx context.Context, batch *domain.Batch) error
	Create(ctx context.Context, rec *domain.FileRecord) error
	GetByID(ctx context.Context, id string) (*domain.FileRecord, error)
	ListByBatch(ctx context.Context, batchID string) ([]domain.FileRecord, error)
	// UpdateStatus refuses backward transitions: a record never re-enters
	// pending and completed/error are terminal.
	UpdateStatus(ctx context.Context, id string, status domain.FileStatus, errMessage string) error
	SaveSummary(ctx context.Context, id string, result domain.SummaryResult) error
	SetHidden(ctx context.Context, batchID, id string, hidden bool) error
}

// BlobStore stores source documents and resolves their public URLs.
type BlobStore interface {
	Save(ctx context.Context, key string, data io.Reader) (url string, err error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes per-file summarization events.
type MessageQueue interface {
	PublishSummarizeRequested(ctx context.Context, fileID string) error
	SubscribeSummarizeRequested(ctx context.Context, handler func(context.Context, string) error) error
}

// DocumentFetcher retrieves raw document bytes from a URL.
type DocumentFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// TextExtractor pulls plain text and the page count out of document bytes.
type TextExtractor interface {
	Extract(ctx context.Context, raw []byte) (text string, pages int, err error)
}

// SummaryGenerator produces the model-written summary for extracted text.
type SummaryGenerator interface {
	GenerateSummary(ctx context.Context, text string) (string, error)
}
