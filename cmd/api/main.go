package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"storybook/internal/adapter/repo"
	"storybook/internal/expiry"
	"storybook/internal/http/handlers"
	httpapi "storybook/internal/http/httpapi"
	"storybook/internal/infra"
	"storybook/internal/notify"
	"storybook/internal/pdf"
	"storybook/internal/pipeline"
	"storybook/internal/providers/fal"
	"storybook/internal/stories"
	"storybook/internal/storage"
	"storybook/internal/tasks"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	previews := repo.NewPreviewRepository(dbpool)
	jobs := repo.NewJobRepository(dbpool)
	orders := repo.NewOrderRepository(dbpool)

	var blobs pipeline.BlobStore
	if cfg.S3Bucket != "" {
		s3store, err := storage.NewS3Store(ctx, cfg.S3Bucket, cfg.S3Region, cfg.StorageBaseURL, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize s3 storage")
		}
		blobs = s3store
	} else {
		fileStore, err := storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize file storage")
		}
		blobs = fileStore
		logger.Warn().Str("path", cfg.StoragePath).Msg("no S3 bucket configured, using local file storage")
	}

	generator, err := fal.NewClient(fal.Options{
		APIKey:       cfg.FalAPIKey,
		BaseURL:      cfg.FalBaseURL,
		SyncBaseURL:  cfg.FalSyncBaseURL,
		Model:        cfg.FalModel,
		VisionModel:  cfg.FalVisionModel,
		CostPerImage: cfg.FalCostPerImage,
		PollInterval: cfg.FalPollInterval,
		MaxPolls:     cfg.FalMaxPolls,
		Logger:       &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize image provider")
	}

	pdfClient, err := pdf.NewClient(cfg.PDFServiceURL, cfg.PDFServiceKey, nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize pdf service client")
	}

	themes := stories.NewRegistry()
	notifier := notify.NewService(cfg.SendGridAPIKey, cfg.EmailFrom, cfg.EmailFromName, logger)

	orchestrator := pipeline.New(pipeline.Deps{
		Previews:  previews,
		Jobs:      jobs,
		Orders:    orders,
		Generator: generator,
		Themes:    themes,
		Blobs:     blobs,
		PDF:       pdfClient,
		Notifier:  notifier,
		Config: pipeline.Config{
			PreviewPages: cfg.PreviewPages,
			TotalPages:   cfg.TotalPages,
			MaxRetries:   cfg.MaxCompletionRetries,
			FrontendURL:  cfg.FrontendURL,
			PreviewTTL:   cfg.PreviewTTL,
		},
		Logger: logger,
	})

	dispatcher := tasks.NewDispatcher(cfg.WorkerConcurrency, logger)
	defer dispatcher.Stop()

	sweeper := expiry.NewSweeper(previews, logger)
	if err := sweeper.Start(); err != nil {
		logger.Fatal().Err(err).Msg("failed to start expiry sweeper")
	}
	defer sweeper.Stop()

	app := &handlers.App{
		Previews:     previews,
		Jobs:         jobs,
		Orders:       orders,
		Themes:       themes,
		Orchestrator: orchestrator,
		Dispatcher:   dispatcher,
		Blobs:        blobs,
		Config:       cfg,
		Logger:       logger,
	}
	router := httpapi.NewRouter(app, cfg, logger)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
