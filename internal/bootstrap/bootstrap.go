package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/dstepanov-dev/pdf-digest/internal/config"
	"github.com/dstepanov-dev/pdf-digest/internal/core/ports"
	"github.com/dstepanov-dev/pdf-digest/internal/core/usecase"
	"github.com/dstepanov-dev/pdf-digest/internal/infrastructure/extractor/pdftext"
	"github.com/dstepanov-dev/pdf-digest/internal/infrastructure/fetcher"
	"github.com/dstepanov-dev/pdf-digest/internal/infrastructure/llm/openai"
	"github.com/dstepanov-dev/pdf-digest/internal/infrastructure/queue/nats"
	"github.com/dstepanov-dev/pdf-digest/internal/infrastructure/repository/postgres"
	"github.com/dstepanov-dev/pdf-digest/internal/infrastructure/resilience"
	"github.com/dstepanov-dev/pdf-digest/internal/infrastructure/storage/localfs"
	"github.com/dstepanov-dev/pdf-digest/internal/infrastructure/storage/remote"
)

type App struct {
	Config config.Config

	Queue     ports.MessageQueue
	Repo      ports.FileRepository
	Blob      ports.BlobStore
	SubmitUC  ports.BatchSubmitter
	SummaryUC ports.Summarizer
	ProcessUC ports.FileProcessor

	closeFn func()
}

// Options carries hooks the binaries inject into the wiring.
type Options struct {
	// CompletionUsageFunc, when set, receives the token counts reported
	// for each completion call.
	CompletionUsageFunc openai.UsageFunc
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	return NewWithOptions(ctx, cfg, Options{})
}

func NewWithOptions(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewFileRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	blob, err := newBlobStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("init blob store: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(resilience.DefaultConfig()),
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	docFetcher := fetcher.New(fetcher.Options{
		Timeout:            time.Duration(cfg.FetchTimeoutSeconds) * time.Second,
		ResilienceExecutor: resilience.NewExecutor(resilience.DefaultConfig()),
	})
	extractor := pdftext.New()

	// Completion calls get the breaker but never client-side retries; a
	// retried completion doubles token spend for the same summary.
	llmClient := openai.New(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, openai.Options{
		Model:              cfg.OpenAIModel,
		MaxTokens:          cfg.SummaryMaxTokens,
		Temperature:        cfg.SummaryTemperature,
		Timeout:            time.Duration(cfg.CompleteTimeoutSeconds) * time.Second,
		ResilienceExecutor: resilience.NewExecutor(resilience.SingleAttempt()),
		UsageFunc:          opts.CompletionUsageFunc,
	})

	submitUC := usecase.NewSubmitBatchUseCase(repo, blob, queue, cfg.MaxUploadBytes())
	summaryUC := usecase.NewSummarizeUseCase(docFetcher, extractor, llmClient, cfg.ModelInputCharLimit)
	processUC := usecase.NewProcessFileUseCase(repo, summaryUC)

	return &App{
		Config: cfg,
		Queue:  queue,
		Repo:   repo,
		Blob:   blob,

		SubmitUC:  submitUC,
		SummaryUC: summaryUC,
		ProcessUC: processUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func newBlobStore(cfg config.Config) (ports.BlobStore, error) {
	switch cfg.BlobProvider {
	case "remote":
		return remote.New(cfg.BlobEndpoint, cfg.BlobAccessToken), nil
	default:
		return localfs.New(cfg.StoragePath, cfg.PublicBaseURL)
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
