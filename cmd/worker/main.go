package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fiapx/fiapx-video-intelligence/internal/component"
	"github.com/fiapx/fiapx-video-intelligence/internal/infra/bigquery"
	"github.com/fiapx/fiapx-video-intelligence/internal/infra/config"
	"github.com/fiapx/fiapx-video-intelligence/internal/infra/ffmpeg"
	"github.com/fiapx/fiapx-video-intelligence/internal/infra/metrics"
	miniostorage "github.com/fiapx/fiapx-video-intelligence/internal/infra/minio"
	"github.com/fiapx/fiapx-video-intelligence/internal/infra/postgres"
	"github.com/fiapx/fiapx-video-intelligence/internal/infra/rabbitmq"
	"github.com/fiapx/fiapx-video-intelligence/internal/infra/tracing"
	"github.com/fiapx/fiapx-video-intelligence/internal/infra/videointelligence"
	"github.com/fiapx/fiapx-video-intelligence/internal/pipeline"
	"github.com/fiapx/fiapx-video-intelligence/internal/usecase"
	"github.com/fiapx/fiapx-video-intelligence/internal/workflow"
	"github.com/fiapx/fiapx-video-intelligence/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"
)

const serviceName = "video-intelligence-worker"

func main() {
	dotenv := config.LoadDotEnv()

	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	if !dotenv {
		log.Warn("no .env file found, using process environment")
	}
	log.Info("starting " + serviceName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing (non-fatal if the collector is unavailable)
	tp, err := tracing.InitTracer(ctx, tracing.TracerConfig{
		ServiceName: serviceName,
		Endpoint:    cfg.JaegerEndpoint,
		SampleRatio: cfg.TraceSampleRatio,
	})
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else {
		defer tp.Shutdown(context.Background())
	}

	// Database
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	fatalOnErr(err, "connect to postgres")
	defer pool.Close()

	err = postgres.RunMigrations(cfg.DatabaseURL, "migrations")
	if err != nil {
		log.Warn("migration warning", zap.Error(err))
	}

	// Staged artifacts
	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:       cfg.MinIOEndpoint,
		AccessKey:      cfg.MinIOAccessKey,
		SecretKey:      cfg.MinIOSecretKey,
		UseSSL:         cfg.MinIOUseSSL,
		ArtifactBucket: cfg.MinIOArtifactBucket,
	})
	fatalOnErr(err, "create minio storage")
	fatalOnErr(storage.EnsureBucket(ctx), "ensure artifact bucket")

	// RabbitMQ publisher connection
	rmqConn, err := amqp.Dial(cfg.RabbitMQURL)
	fatalOnErr(err, "connect to rabbitmq for publisher")
	defer rmqConn.Close()

	pub, err := rabbitmq.NewPublisher(rmqConn, cfg.RabbitMQExchange)
	fatalOnErr(err, "create rabbitmq publisher")
	defer pub.Close()

	statusPub := rabbitmq.NewStatusPublisher(pub, cfg.RabbitMQStatusQueue)
	dlqPub := rabbitmq.NewDLQPublisher(pub, cfg.RabbitMQDLQ)

	// External services
	annotator, err := videointelligence.NewAnnotator(ctx, log)
	fatalOnErr(err, "create video intelligence client")
	defer annotator.Close()

	schemas, err := bigquery.RecordSchemas(pipeline.TableRecords())
	fatalOnErr(err, "infer table schemas")

	warehouse, err := bigquery.NewWarehouse(ctx, bigquery.WarehouseConfig{
		ProjectID: cfg.BigQueryProject,
		Location:  cfg.BigQueryLocation,
		Schemas:   schemas,
	}, log)
	fatalOnErr(err, "create bigquery client")
	defer warehouse.Close()

	prober := ffmpeg.NewProber(cfg.FFprobePath, log)

	// Components
	registry := pipeline.Registry(pipeline.Components{
		Shots: component.NewShotAnalyzer(annotator, component.AnalyzerConfig{
			Timeout: cfg.AnnotationTimeout,
			Model:   cfg.ShotModel,
		}, log),
		Text: component.NewTextAnalyzer(annotator, component.AnalyzerConfig{
			Timeout:       cfg.AnnotationTimeout,
			Model:         cfg.TextModel,
			LanguageHints: cfg.TextLanguageHints,
		}, log),
		Metadata: component.NewMetadataExtractor(prober, component.PathResolver{
			Prefix:    cfg.GCSPrefix,
			MountPath: cfg.GCSMountPath,
		}, log),
		Loader: component.NewTableLoader(storage, warehouse, log),
		Store:  storage,
	})

	spec := loadSpec(cfg, log)

	uc := usecase.NewRunPipelineUseCase(
		postgres.NewRunRepository(pool),
		registry, spec,
		statusPub, dlqPub,
		log,
		usecase.RunPipelineConfig{
			MaxRetries:  cfg.MaxRetries,
			Parallelism: cfg.PipelineParallelism,
		},
	)

	metricsSrv := metrics.StartMetricsServer(ctx, cfg.MetricsPort, log)

	// Consumer (worker pool)
	consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:         cfg.RabbitMQURL,
		RunQueue:    cfg.RabbitMQRunQueue,
		Exchange:    cfg.RabbitMQExchange,
		DLQ:         cfg.RabbitMQDLQ,
		StatusQueue: cfg.RabbitMQStatusQueue,
		Prefetch:    cfg.RabbitMQPrefetch,
		WorkerCount: cfg.WorkerCount,
		BaseDelayMs: cfg.RetryBaseDelayMs,
	}, uc.Execute, log)
	fatalOnErr(err, "create consumer")

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	log.Info(serviceName+" started, consuming run submissions",
		zap.String("pipeline", spec.Name),
		zap.Int("parallelism", cfg.PipelineParallelism),
	)

	if err := consumer.Start(ctx); err != nil {
		log.Error("consumer error", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Shutdown(shutdownCtx)

	consumer.Close()
	log.Info(serviceName + " stopped")
}

// loadSpec prefers a compiled pipeline file and falls back to the built-in
// definition.
func loadSpec(cfg *config.Config, log *zap.Logger) *workflow.Spec {
	if cfg.PipelineSpecPath != "" {
		spec, err := workflow.LoadFile(cfg.PipelineSpecPath)
		fatalOnErr(err, "load pipeline spec")
		log.Info("loaded compiled pipeline", zap.String("path", cfg.PipelineSpecPath))
		return spec
	}
	spec, err := pipeline.Definition(cfg.BigQueryDataset)
	fatalOnErr(err, "build pipeline definition")
	return spec
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
