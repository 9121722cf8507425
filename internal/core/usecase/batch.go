package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dstepanov-dev/pdf-digest/internal/core/domain"
	"github.com/dstepanov-dev/pdf-digest/internal/core/ports"
)

const uploadFailedMessage = "Failed to upload file"

// SubmitBatchUseCase coordinates the upload fan-out for one submission:
// validate every candidate, upload the accepted ones concurrently, record one
// FileRecord per accepted file in submission order and publish a summarize
// event per stored file. A failed upload becomes a status=error record while
// its siblings proceed.
type SubmitBatchUseCase struct {
	repo           ports.FileRepository
	blob           ports.BlobStore
	queue          ports.MessageQueue
	maxUploadBytes int64
}

func NewSubmitBatchUseCase(
	repo ports.FileRepository,
	blob ports.BlobStore,
	queue ports.MessageQueue,
	maxUploadBytes int64,
) *SubmitBatchUseCase {
	return &SubmitBatchUseCase{
		repo:           repo,
		blob:           blob,
		queue:          queue,
		maxUploadBytes: maxUploadBytes,
	}
}

type uploadOutcome struct {
	url string
	err error
}

func (uc *SubmitBatchUseCase) Submit(ctx context.Context, candidates []ports.Candidate) (*ports.SubmitResult, error) {
	if len(candidates) == 0 {
		return nil, domain.WrapError(domain.ErrValidation, "submit batch", fmt.Errorf("no files in request"))
	}

	accepted := make([]ports.Candidate, 0, len(candidates))
	var rejected []ports.RejectedFile
	for i, cand := range candidates {
		if err := validateCandidate(cand.Name, cand.MimeType, cand.Size, uc.maxUploadBytes); err != nil {
			slog.Info("intake_rejected", "filename", cand.Name, "error", err)
			rejected = append(rejected, ports.RejectedFile{Position: i, Name: cand.Name, Reason: rejectionMessage})
			continue
		}
		accepted = append(accepted, cand)
	}

	// Everything rejected: no batch, no records, no network traffic.
	if len(accepted) == 0 {
		return &ports.SubmitResult{Rejected: rejected}, nil
	}

	now := time.Now().UTC()
	batch := &domain.Batch{ID: uuid.NewString(), CreatedAt: now}
	if err := uc.repo.CreateBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("create batch: %w", err)
	}

	// Each accepted file gets its own generated id; the filename is never
	// used as an identity since names may collide within a batch.
	ids := make([]string, len(accepted))
	keys := make([]string, len(accepted))
	for i, cand := range accepted {
		ids[i] = uuid.NewString()
		keys[i] = fmt.Sprintf("%s_%s", ids[i], sanitizeFilename(cand.Name))
	}

	// Concurrent fan-out with a join barrier. Outcomes land in a pre-sized
	// slice indexed by submission position, so the published sequence keeps
	// input order no matter which upload finishes first.
	outcomes := make([]uploadOutcome, len(accepted))
	var wg sync.WaitGroup
	for i := range accepted {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			url, err := uc.blob.Save(ctx, keys[idx], accepted[idx].Body)
			outcomes[idx] = uploadOutcome{url: url, err: err}
		}(i)
	}
	wg.Wait()

	records := make([]domain.FileRecord, len(accepted))
	for i, cand := range accepted {
		rec := domain.FileRecord{
			ID:        ids[i],
			BatchID:   batch.ID,
			Position:  i,
			Filename:  cand.Name,
			URL:       outcomes[i].url,
			Status:    domain.StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if outcomes[i].err != nil {
			slog.Error("upload_failed", "file_id", rec.ID, "filename", cand.Name, "error", outcomes[i].err)
			rec.Status = domain.StatusError
			rec.ErrorMessage = uploadFailedMessage
			rec.URL = ""
		}

		if err := uc.repo.Create(ctx, &rec); err != nil {
			return nil, fmt.Errorf("create file record: %w", err)
		}

		if rec.Status == domain.StatusPending {
			if err := uc.queue.PublishSummarizeRequested(ctx, rec.ID); err != nil {
				slog.Error("dispatch_failed", "file_id", rec.ID, "error", err)
				rec.Status = domain.StatusError
				rec.ErrorMessage = domain.UserFacingError
				if updErr := uc.repo.UpdateStatus(ctx, rec.ID, domain.StatusError, domain.UserFacingError); updErr != nil {
					return nil, fmt.Errorf("mark dispatch failure: %w", updErr)
				}
			}
		}
		records[i] = rec
	}

	return &ports.SubmitResult{
		BatchID:  batch.ID,
		Files:    records,
		Rejected: rejected,
	}, nil
}
