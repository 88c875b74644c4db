package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cathteng/bufo-stickers/internal/changedetect"
	"github.com/cathteng/bufo-stickers/internal/config"
	"github.com/cathteng/bufo-stickers/internal/pack"
	"github.com/cathteng/bufo-stickers/internal/sticker"
	"github.com/cathteng/bufo-stickers/internal/storage"
	"github.com/cathteng/bufo-stickers/internal/store"
	"github.com/cathteng/bufo-stickers/internal/telemetry"
	"github.com/cathteng/bufo-stickers/internal/worker"
)

func main() {
	cfg := config.Load()
	logger := log.New(os.Stdout, "[worker] ", log.LstdFlags|log.Lmsgprefix)

	ctx := context.Background()

	shutdownTracing, err := telemetry.SetupTracing(ctx, telemetry.TraceConfig{
		ServiceName:  cfg.Telemetry.ServiceName,
		Exporter:     cfg.Telemetry.Exporter,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure: cfg.Telemetry.OTLPInsecure,
	}, logger)
	if err != nil {
		logger.Fatalf("tracing setup failed: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Printf("tracing shutdown error: %v", err)
		}
	}()

	if err := sticker.Startup(); err != nil {
		logger.Fatalf("image runtime startup failed: %v", err)
	}
	defer sticker.Shutdown()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Queue.RedisAddr,
		Password: cfg.Queue.RedisPassword,
		DB:       cfg.Queue.RedisDB,
	})
	digests, err := changedetect.NewRedisStore(redisClient, "stickers:digest")
	if err != nil {
		logger.Fatalf("digest store setup failed: %v", err)
	}

	var runStore store.RunStore
	if cfg.Database.DSN != "" {
		pgStore, err := store.NewPostgresRunStore(ctx, cfg.Database.DSN)
		if err != nil {
			logger.Fatalf("run store setup failed: %v", err)
		}
		defer pgStore.Close()
		runStore = pgStore
	} else {
		runStore = store.NewMemoryRunStore()
	}

	var storageClient *storage.Client
	if cfg.Storage.Endpoint != "" {
		storageClient, err = storage.NewClient(storage.Config{
			Endpoint: cfg.Storage.Endpoint,
			Access:   cfg.Storage.AccessKey,
			Secret:   cfg.Storage.SecretKey,
			Bucket:   cfg.Storage.Bucket,
			UseSSL:   cfg.Storage.UseSSL,
		})
		if err != nil {
			logger.Fatalf("storage setup failed: %v", err)
		}
		if err := storageClient.EnsureBucket(ctx); err != nil {
			logger.Fatalf("storage bucket check failed: %v", err)
		}
	}

	assembler := pack.NewAssembler(logger, cfg.Sticker.Parallelism, cfg.Sticker.FrameFloor)
	generator := pack.NewGenerator(logger, assembler, digests)

	srv, err := worker.NewServer(logger, cfg.Queue, cfg.Worker, generator, runStore, storageClient)
	if err != nil {
		logger.Fatalf("worker setup failed: %v", err)
	}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", srv.MetricsHandler())
		logger.Printf("metrics listening on %s", cfg.Worker.MetricsAddr)
		if err := http.ListenAndServe(cfg.Worker.MetricsAddr, mux); err != nil {
			logger.Printf("metrics server failed: %v", err)
		}
	}()

	logger.Printf(
		"starting worker concurrency=%d max_active_runs=%d queue=%s redis=%s",
		cfg.Worker.Concurrency,
		cfg.Worker.MaxActiveRuns,
		cfg.Queue.Name,
		cfg.Queue.RedisAddr,
	)

	if err := srv.Run(); err != nil {
		logger.Fatalf("worker failed: %v", err)
	}
}
