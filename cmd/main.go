package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/joho/godotenv"

	"github.com/briggon/dataplane/config"
	"github.com/briggon/dataplane/internal/api/v1/handlers"
	"github.com/briggon/dataplane/internal/api/v1/services"
	"github.com/briggon/dataplane/internal/app"
	"github.com/briggon/dataplane/internal/logger"
	"github.com/briggon/dataplane/internal/objectstore"
	queueredis "github.com/briggon/dataplane/internal/queue/redis"
	storeredis "github.com/briggon/dataplane/internal/store/redis"
)

func main() {
	if err := godotenv.Load(); err != nil {
		// A missing .env file is fine in containerized deployments.
		logger.InitializeAndConfigure()
		logger.Debug("No .env file loaded")
	} else {
		logger.InitializeAndConfigure()
	}

	cfg := config.Load()

	// Process-wide clients: constructed once, injected, closed on shutdown.
	redisClient := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer func() { _ = redisClient.Close() }()

	records := storeredis.New(redisClient, cfg.JobTTL)
	execQueue := queueredis.New(redisClient, cfg.PollTimeout)

	objects, err := objectstore.NewS3Store(context.Background(), objectstore.S3Options{
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
	})
	if err != nil {
		logger.Fatalf("Failed to create object store client: %v", err)
	}

	jobService := services.NewJobService(records, execQueue, cfg.EnqueueTimeout)
	jobHandler := handlers.NewJobHandler(jobService, cfg.MaxPayloadBytes)
	healthHandler := handlers.NewHealthHandler(cfg.AppName, cfg.AppVersion, records, execQueue, objects)

	server := app.NewApp(cfg, jobHandler, healthHandler)

	// Graceful shutdown on SIGINT/SIGTERM.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-shutdown
		logger.Info("Shutting down API server")
		if err := server.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Errorf("Shutdown error: %v", err)
		}
	}()

	logger.Infof("Starting %s v%s on %s", cfg.AppName, cfg.AppVersion, cfg.ListenAddr)
	if err := server.Listen(cfg.ListenAddr); err != nil {
		logger.Fatalf("Server error: %v", err)
	}
}
