package config

import (
	"os"
	"runtime"
	"strconv"

	"github.com/hibiken/asynq"
)

type Config struct {
	Sticker   StickerConfig
	Queue     QueueConfig
	Worker    WorkerConfig
	Storage   StorageConfig
	Database  DatabaseConfig
	Telemetry TelemetryConfig
}

type StickerConfig struct {
	SourceDir   string
	OutputDir   string
	PackName    string
	SizeClass   string
	FitMode     string
	MaxBytes    int
	FrameFloor  int
	GroupBy     string
	MaxPerPack  int
	Parallelism int
}

type QueueConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Name          string
}

func (q QueueConfig) RedisClientOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     q.RedisAddr,
		Password: q.RedisPassword,
		DB:       q.RedisDB,
	}
}

type WorkerConfig struct {
	Concurrency   int
	MaxActiveRuns int
	MetricsAddr   string
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type DatabaseConfig struct {
	DSN string
}

type TelemetryConfig struct {
	ServiceName  string
	Exporter     string
	OTLPEndpoint string
	OTLPInsecure bool
}

func Load() Config {
	return Config{
		Sticker: StickerConfig{
			SourceDir:   env("STICKER_SOURCE_DIR", "source-repo"),
			OutputDir:   env("STICKER_OUTPUT_DIR", "output"),
			PackName:    env("STICKER_PACK_NAME", "BufoStickers"),
			SizeClass:   env("STICKER_SIZE", "medium"),
			FitMode:     env("STICKER_FIT_MODE", "pad"),
			MaxBytes:    envInt("MAX_FILE_SIZE", 500_000),
			FrameFloor:  envInt("STICKER_FRAME_FLOOR", 2),
			GroupBy:     env("STICKER_GROUP_BY", "none"),
			MaxPerPack:  envInt("STICKER_MAX_PER_PACK", 0),
			Parallelism: envInt("STICKER_PARALLELISM", max(1, runtime.NumCPU()/2)),
		},
		Queue: QueueConfig{
			RedisAddr:     env("REDIS_ADDR", "localhost:6379"),
			RedisPassword: env("REDIS_PASSWORD", ""),
			RedisDB:       envInt("REDIS_DB", 0),
			Name:          env("ASYNC_QUEUE", "default"),
		},
		Worker: WorkerConfig{
			Concurrency:   envInt("WORKER_CONCURRENCY", max(2, runtime.NumCPU())),
			MaxActiveRuns: envInt("WORKER_MAX_ACTIVE_RUNS", 1),
			MetricsAddr:   env("WORKER_METRICS_ADDR", ":9090"),
		},
		Storage: StorageConfig{
			Endpoint:  env("MINIO_ENDPOINT", ""),
			AccessKey: env("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: env("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:    env("MINIO_BUCKET", "sticker-artifacts"),
			UseSSL:    envBool("MINIO_USE_SSL", false),
		},
		Database: DatabaseConfig{
			DSN: env("POSTGRES_DSN", ""),
		},
		Telemetry: TelemetryConfig{
			ServiceName:  env("OTEL_SERVICE_NAME", "bufo-stickers"),
			Exporter:     env("TRACE_EXPORTER", "none"),
			OTLPEndpoint: env("OTLP_ENDPOINT", ""),
			OTLPInsecure: envBool("OTLP_INSECURE", true),
		},
	}
}

func env(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}

func envInt(key string, fallback int) int {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
