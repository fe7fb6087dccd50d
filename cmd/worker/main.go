package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"

	"github.com/joho/godotenv"

	"github.com/briggon/dataplane/config"
	"github.com/briggon/dataplane/internal/archive"
	"github.com/briggon/dataplane/internal/logger"
	"github.com/briggon/dataplane/internal/objectstore"
	"github.com/briggon/dataplane/internal/processor"
	queueredis "github.com/briggon/dataplane/internal/queue/redis"
	storeredis "github.com/briggon/dataplane/internal/store/redis"
	"github.com/briggon/dataplane/internal/worker"
)

func main() {
	_ = godotenv.Load()
	logger.InitializeAndConfigure()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisClient := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer func() { _ = redisClient.Close() }()

	records := storeredis.New(redisClient, cfg.JobTTL)
	execQueue := queueredis.New(redisClient, cfg.PollTimeout)

	objects, err := objectstore.NewS3Store(ctx, objectstore.S3Options{
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
	})
	if err != nil {
		logger.Fatalf("Failed to create object store client: %v", err)
	}

	var opts []worker.ExecutorOption
	if cfg.ArchiveEnabled {
		db, err := archive.Open(cfg.PostgresDSN())
		if err != nil {
			logger.Fatalf("Failed to open archive database: %v", err)
		}
		opts = append(opts, worker.WithArchive(archive.NewRepository(db)))
	}

	executor := worker.NewExecutor(records, objects, processor.NewEcho(), opts...)
	pool := worker.NewPool(execQueue, executor, cfg.WorkerConcurrency)

	pool.Start(ctx)
	logger.Infof("Worker started for %s v%s", cfg.AppName, cfg.AppVersion)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	logger.Info("Shutting down worker")
	pool.Stop()
}
