package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dstepanov-dev/pdf-digest/internal/core/domain"
	"github.com/dstepanov-dev/pdf-digest/internal/core/ports"
)

// ProcessFileUseCase drives one file through the summarization lifecycle on
// the worker side: pending -> processing -> {completed | error}. Any failure
// is converted into a status=error record carrying only the generic
// user-facing message; the cause stays in logs.
type ProcessFileUseCase struct {
	repo       ports.FileRepository
	summarizer ports.Summarizer
}

func NewProcessFileUseCase(repo ports.FileRepository, summarizer ports.Summarizer) *ProcessFileUseCase {
	return &ProcessFileUseCase{
		repo:       repo,
		summarizer: summarizer,
	}
}

func (uc *ProcessFileUseCase) ProcessByID(ctx context.Context, fileID string) error {
	rec, err := uc.repo.GetByID(ctx, fileID)
	if err != nil {
		return fmt.Errorf("fetch file by id: %w", err)
	}
	if rec.Status != domain.StatusPending {
		// Duplicate delivery: the record already left pending, leave it alone.
		slog.Warn("process_skipped", "file_id", fileID, "status", rec.Status)
		return nil
	}
	if rec.URL == "" {
		return uc.fail(ctx, fileID, errors.New("file record has no stored url"))
	}

	if err := uc.repo.UpdateStatus(ctx, fileID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	result, err := uc.summarizer.Summarize(ctx, rec.URL)
	if err != nil {
		return uc.fail(ctx, fileID, err)
	}

	if err := uc.repo.SaveSummary(ctx, fileID, *result); err != nil {
		return uc.fail(ctx, fileID, err)
	}
	if err := uc.repo.UpdateStatus(ctx, fileID, domain.StatusCompleted, ""); err != nil {
		return fmt.Errorf("set status=completed: %w", err)
	}
	return nil
}

func (uc *ProcessFileUseCase) fail(ctx context.Context, fileID string, processErr error) error {
	slog.Error("process_failed", "file_id", fileID, "error", processErr)
	if err := uc.repo.UpdateStatus(ctx, fileID, domain.StatusError, domain.UserFacingError); err != nil {
		return fmt.Errorf("%w; mark failed status: %v", processErr, err)
	}
	return processErr
}
