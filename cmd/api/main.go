package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	httpadapter "github.com/dstepanov-dev/pdf-digest/internal/adapters/http"
	"github.com/dstepanov-dev/pdf-digest/internal/bootstrap"
	"github.com/dstepanov-dev/pdf-digest/internal/config"
	"github.com/dstepanov-dev/pdf-digest/internal/observability/logging"
	"github.com/dstepanov-dev/pdf-digest/internal/observability/metrics"
)

const serviceName = "pdf-digest-api"

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger(serviceName, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverMetrics := metrics.NewHTTPServerMetrics(serviceName)
	app, err := bootstrap.NewWithOptions(ctx, cfg, bootstrap.Options{
		CompletionUsageFunc: func(model string, promptTokens, completionTokens int) {
			serverMetrics.RecordTokenUsage(serviceName, model, promptTokens, completionTokens)
		},
	})
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	router := httpadapter.NewRouter(
		app.SubmitUC,
		app.SummaryUC,
		app.Repo,
		app.Blob,
		serverMetrics,
		httpadapter.RouterOptions{
			Service:        serviceName,
			RateLimitRPS:   cfg.APIRateLimitRPS,
			RateLimitBurst: cfg.APIRateLimitBurst,
			MaxInFlight:    cfg.APIMaxInFlight,
			MaxUploadBytes: cfg.MaxUploadBytes(),
		},
	).Handler()

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("api listening on :%s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("api shutdown error: %v", err)
	}
}
