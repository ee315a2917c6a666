package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"atlasacademico/internal/config"
	"atlasacademico/internal/curriculum"
	"atlasacademico/internal/database"
	"atlasacademico/internal/mailer"
	"atlasacademico/internal/metrics"
	"atlasacademico/internal/records"
	"atlasacademico/internal/storage"
	"atlasacademico/internal/tasks"
	"atlasacademico/internal/worker"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	log.Println("database connection ready for worker")

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	log.Printf("storage client ready, bucket=%s", cfg.MinIO.Bucket)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	cache := records.NewCache(redisClient, cfg.Export.CacheTTL, logger)
	store := records.NewStore(db, cache)
	fetcher := records.NewCurriculumFetcher(store)
	aggregator := curriculum.NewAggregator(fetcher, cfg.Export.FetchTimeout, logger)

	exportHandler := worker.NewExportTaskHandler(db, storageClient, redisClient, aggregator, cfg.Export.FallbackTokenTTL, logger)
	mailHandler := worker.NewMailTaskHandler(mailer.NewClient(cfg.Mailer), logger)
	previewHandler := worker.NewPreviewTaskHandler(db, storageClient, logger, cfg.API.FrontendBaseURL)

	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Addr()}
	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 10,
	})

	mux := asynq.NewServeMux()
	mux.Use(metrics.AsynqMetricsMiddleware())
	mux.Handle(tasks.TypeCurriculumExport, exportHandler)
	mux.Handle(tasks.TypeWelcomeEmail, mailHandler)
	mux.Handle(tasks.TypeProfilePreview, previewHandler)

	logger.Info("worker service started", slog.String("redis_addr", cfg.Redis.Addr()))
	if err := server.Run(mux); err != nil {
		logger.Error("worker server stopped", slog.Any("error", err))
	}
}
