package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dstepanov-dev/pdf-digest/internal/core/domain"
	"github.com/dstepanov-dev/pdf-digest/internal/core/ports"
)

// SummarizeUseCase is the stateless fetch->extract->complete pipeline behind
// both the synchronous endpoint and the worker. Each call is independent;
// extraction metadata is deterministic for a given URL even though the model
// text is not.
type SummarizeUseCase struct {
	fetcher   ports.DocumentFetcher
	extractor ports.TextExtractor
	generator ports.SummaryGenerator
	charLimit int
}

func NewSummarizeUseCase(
	fetcher ports.DocumentFetcher,
	extractor ports.TextExtractor,
	generator ports.SummaryGenerator,
	charLimit int,
) *SummarizeUseCase {
	return &SummarizeUseCase{
		fetcher:   fetcher,
		extractor: extractor,
		generator: generator,
		charLimit: charLimit,
	}
}

func (uc *SummarizeUseCase) Summarize(ctx context.Context, documentURL string) (*domain.SummaryResult, error) {
	if strings.TrimSpace(documentURL) == "" {
		return nil, domain.WrapError(domain.ErrValidation, "summarize", errors.New("document url is required"))
	}

	raw, err := uc.fetcher.Fetch(ctx, documentURL)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}

	text, pages, err := uc.extractor.Extract(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, domain.WrapError(domain.ErrExtraction, "extract text", errors.New("no extractable text"))
	}

	summary, err := uc.generator.GenerateSummary(ctx, truncateForModel(text, uc.charLimit))
	if err != nil {
		return nil, fmt.Errorf("generate summary: %w", err)
	}

	return &domain.SummaryResult{
		Summary:     summary,
		TextContent: text,
		Metadata: domain.SummaryMetadata{
			Pages:      pages,
			TextLength: len(text),
		},
	}, nil
}

// truncateForModel bounds the prompt payload so oversized documents degrade
// to a summarized prefix instead of a hard context-window error. Metadata
// still reports the full extracted length.
func truncateForModel(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "\n\n[document truncated for summarization]"
}
