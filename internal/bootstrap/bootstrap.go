package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/docket-compliance/internal/config"
	"github.com/kirillkom/docket-compliance/internal/core/classification"
	"github.com/kirillkom/docket-compliance/internal/core/compliance"
	"github.com/kirillkom/docket-compliance/internal/core/extraction"
	"github.com/kirillkom/docket-compliance/internal/core/pipeline"
	"github.com/kirillkom/docket-compliance/internal/core/ports"
	"github.com/kirillkom/docket-compliance/internal/core/usecase"
	"github.com/kirillkom/docket-compliance/internal/core/validation"
	"github.com/kirillkom/docket-compliance/internal/infrastructure/documentai"
	"github.com/kirillkom/docket-compliance/internal/infrastructure/export/xlsx"
	"github.com/kirillkom/docket-compliance/internal/infrastructure/localocr"
	"github.com/kirillkom/docket-compliance/internal/infrastructure/queue/nats"
	"github.com/kirillkom/docket-compliance/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/docket-compliance/internal/infrastructure/resilience"
	"github.com/kirillkom/docket-compliance/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/docket-compliance/internal/infrastructure/storage/s3"
	"github.com/kirillkom/docket-compliance/internal/observability/metrics"
)

type App struct {
	Config config.Config

	Queue     ports.MessageQueue
	Extractor ports.DocumentExtractor
	IngestUC  ports.DocketIngestor
	ProcessUC *usecase.ProcessDocketUseCase
	QueryUC   ports.DocketReader
	ReportUC  ports.ComplianceReporter

	closeFn func()
}

// New wires the application. Pipeline and circuit breaker metrics are
// registered on registerer, which belongs to the calling process.
func New(ctx context.Context, cfg config.Config, service string, logger *slog.Logger, registerer prometheus.Registerer) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocketRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := newObjectStorage(ctx, cfg)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	pipelineMetrics := metrics.NewPipelineMetrics(service, registerer)
	resilienceCfg := resilience.Config{
		RetryMaxAttempts:    cfg.ResilienceRetryMaxAttempts,
		RetryInitialBackoff: cfg.ResilienceRetryInitialBackoff,
		RetryMaxBackoff:     cfg.ResilienceRetryMaxBackoff,
		RetryMultiplier:     2.0,

		BreakerEnabled:          cfg.ResilienceBreakerEnabled,
		BreakerMinRequests:      uint32(max(cfg.ResilienceBreakerMinRequests, 0)),
		BreakerFailureRatio:     cfg.ResilienceBreakerFailureRatio,
		BreakerOpenTimeout:      cfg.ResilienceBreakerOpenTimeout,
		BreakerHalfOpenMaxCalls: 2,

		OnStateChange: pipelineMetrics.BreakerStateChanged,
		Logger:        logger,
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		Concurrency:        cfg.WorkerConcurrency,
		ResilienceExecutor: resilience.NewExecutor(resilienceCfg),
		Logger:             logger,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	provider, err := documentai.NewWithOptions(cfg.DocumentAIEndpoint, cfg.DocumentAIProcessor, cfg.DocumentAIToken, documentai.Options{
		Timeout:            cfg.DocumentAITimeout,
		ResilienceExecutor: resilience.NewExecutor(resilienceCfg),
	})
	if err != nil {
		queue.Close()
		_ = db.Close()
		return nil, fmt.Errorf("init document ai client: %w", err)
	}

	tables, err := classification.LoadTables(cfg.ClassifierKeywordsPath)
	if err != nil {
		queue.Close()
		_ = db.Close()
		return nil, fmt.Errorf("load classifier keywords: %w", err)
	}
	engine, err := classification.NewEngine(tables)
	if err != nil {
		queue.Close()
		_ = db.Close()
		return nil, fmt.Errorf("init classifier: %w", err)
	}

	pipelineOpts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithObserver(pipelineMetrics),
		pipeline.WithProviderTimeout(cfg.PipelineProviderTimeout),
		pipeline.WithAIModelVersion(cfg.AIModelVersion),
	}
	if cfg.LocalOCREnabled {
		pipelineOpts = append(pipelineOpts, pipeline.WithLocalRecognizer(localocr.New(cfg.TesseractLanguage)))
	}
	extractor := pipeline.New(
		provider,
		extraction.NewExtractor(extraction.WithEntityThreshold(cfg.EntityConfidenceThreshold)),
		engine,
		compliance.NewAnalyzer(),
		validation.NewScorer(engine),
		pipelineOpts...,
	)

	ingestUC := usecase.NewIngestDocketUseCase(repo, storage, queue, cfg.MaxUploadBytes)
	processUC := usecase.NewProcessDocketUseCase(repo, storage, extractor, cfg.ReviewConfidenceThreshold, logger)
	queryUC := usecase.NewDocketQueryUseCase(repo)
	reportUC := usecase.NewReportUseCase(repo, xlsx.NewReportWriter())

	logger.Info("bootstrap_ready",
		"storage_backend", cfg.StorageBackend,
		"local_ocr", cfg.LocalOCREnabled,
		"worker_concurrency", cfg.WorkerConcurrency,
		"model_version", cfg.AIModelVersion,
	)

	return &App{
		Config:    cfg,
		Queue:     queue,
		Extractor: extractor,

		IngestUC:  ingestUC,
		ProcessUC: processUC,
		QueryUC:   queryUC,
		ReportUC:  reportUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func newObjectStorage(ctx context.Context, cfg config.Config) (ports.ObjectStorage, error) {
	switch strings.ToLower(cfg.StorageBackend) {
	case "", "local":
		return localfs.New(cfg.StoragePath)
	case "s3":
		store, err := s3.New(s3.Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			UseSSL:    cfg.S3UseSSL,
		})
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
