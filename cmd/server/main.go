package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"takeoff/internal/aggregate"
	"takeoff/internal/analyzer"
	"takeoff/internal/backend"
	"takeoff/internal/backend/anthropic"
	"takeoff/internal/backend/openai"
	"takeoff/internal/config"
	"takeoff/internal/handler"
	"takeoff/internal/normalize"
	"takeoff/internal/ocr"
	"takeoff/internal/port"
	"takeoff/internal/render"
	"takeoff/internal/repository/postgres"
	"takeoff/internal/router"
	"takeoff/internal/service"
	s3storage "takeoff/internal/storage/s3"
	"takeoff/internal/strategy"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	fileRepo := postgres.NewFileMetaRepo(db)
	jobRepo := postgres.NewParseJobRepo(db)

	// Initialize storage
	s3Client, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	// Initialize vision backends
	backend.RegisterProvider("anthropic", func(c *config.BackendProviderConfig) (port.VisionBackend, error) {
		return anthropic.NewBackend(c), nil
	})
	backend.RegisterProvider("openai", func(c *config.BackendProviderConfig) (port.VisionBackend, error) {
		return openai.NewBackend(c), nil
	})

	visionBackend, err := backend.New(&cfg.Backend.Primary)
	if err != nil {
		return fmt.Errorf("failed to initialize vision backend: %w", err)
	}

	// Initialize the parsing pipeline
	normalizer, err := normalize.New()
	if err != nil {
		return fmt.Errorf("failed to compile canonical schema: %w", err)
	}
	aggregator := aggregate.New(cfg.Parse.DedupThreshold)
	docAnalyzer := analyzer.New(cfg.OCR.Pdftotext)
	renderer := render.NewPDFRenderer(cfg.OCR.Pdftoppm)
	tiler := render.NewTiler(render.TileConfig{
		ByteBudget:      cfg.Parse.ByteBudget,
		BudgetMargin:    cfg.Parse.ByteBudgetMargin,
		OverlapFraction: cfg.Parse.OverlapFraction,
		QualityMax:      cfg.Parse.JPEGQualityMax,
		QualityMin:      cfg.Parse.JPEGQualityMin,
		MaxTilePx:       cfg.Parse.MaxTilePx,
	})

	var ocrEngine port.OCREngine
	if cfg.Parse.EnableOCR {
		engine, err := ocr.New(cfg.OCR.Language, cfg.OCR.PSM)
		if err != nil {
			log.Printf("ocr engine unavailable, disabling OCR fallback: %v", err)
		} else {
			ocrEngine = engine
			defer engine.Close()
		}
	}

	// Initialize strategies and the selector
	selector := strategy.NewSelector(
		strategy.NewFullDocument(visionBackend, normalizer,
			cfg.Parse.EnableFullDocument, cfg.Parse.FullDocMaxSizeMB, cfg.Parse.FullDocMaxPages),
		strategy.NewTiling(visionBackend, renderer, tiler, normalizer, aggregator, strategy.TilingConfig{
			Enabled:     cfg.Parse.EnableTiling,
			CoarseDPI:   cfg.Parse.CoarseDPI,
			DetailDPI:   cfg.Parse.DetailDPI,
			Concurrency: cfg.Parse.Concurrency,
			TileTimeout: time.Duration(cfg.Parse.TileTimeoutSecs) * time.Second,
		}),
		strategy.NewOCR(ocrEngine, renderer, cfg.Parse.EnableOCR, cfg.OCR.DPI),
	)

	// Initialize services
	fileSvc := service.NewFileService(fileRepo, s3Client, &cfg.S3)
	parseSvc := service.NewParseService(fileRepo, jobRepo, s3Client, docAnalyzer, selector)

	// Initialize handlers
	fileH := handler.NewFileHandler(fileSvc)
	parseH := handler.NewParseHandler(parseSvc)
	healthH := handler.NewHealthHandler(db)

	r := router.Setup(cfg, fileH, parseH, healthH)

	// Start the background parse queue worker
	workerCtx, stopWorker := context.WithCancel(context.Background())
	worker := service.NewParseQueueWorker(jobRepo, parseSvc, service.ParseQueueConfig{
		PollInterval: time.Duration(cfg.Queue.PollIntervalSecs) * time.Second,
		MaxRetries:   cfg.Queue.MaxRetries,
		Concurrency:  cfg.Queue.Concurrency,
	})
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.Start(workerCtx)
	}()

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		stopWorker()
		<-workerDone
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		log.Printf("received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}

	stopWorker()
	<-workerDone
	return nil
}
