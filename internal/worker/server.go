package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cathteng/bufo-stickers/internal/config"
	"github.com/cathteng/bufo-stickers/internal/domain"
	"github.com/cathteng/bufo-stickers/internal/pack"
	"github.com/cathteng/bufo-stickers/internal/queue"
	"github.com/cathteng/bufo-stickers/internal/storage"
	"github.com/cathteng/bufo-stickers/internal/store"
)

// Server consumes pack:generate tasks from the queue and runs the sticker
// generation pipeline. The storage client is optional; when present the
// finished archive is uploaded after every successful run.
type Server struct {
	logger        *log.Logger
	server        *asynq.Server
	sem           chan struct{}
	generator     *pack.Generator
	runStore      store.RunStore
	storageClient *storage.Client
	metrics       *metrics
	tracer        trace.Tracer
}

func NewServer(
	logger *log.Logger,
	queueCfg config.QueueConfig,
	workerCfg config.WorkerConfig,
	generator *pack.Generator,
	runStore store.RunStore,
	storageClient *storage.Client,
) (*Server, error) {
	if generator == nil {
		return nil, fmt.Errorf("generator is required")
	}

	s := &Server{
		logger: logger,
		server: asynq.NewServer(
			queueCfg.RedisClientOpt(),
			asynq.Config{
				Concurrency: workerCfg.Concurrency,
				Queues: map[string]int{
					queueCfg.Name: 1,
				},
				LogLevel: asynq.InfoLevel,
				ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
					retried, _ := asynq.GetRetryCount(ctx)
					maxRetry, _ := asynq.GetMaxRetry(ctx)
					logger.Printf("task failed type=%s retry=%d/%d err=%v", task.Type(), retried, maxRetry, err)
				}),
			},
		),
		sem:           make(chan struct{}, max(1, workerCfg.MaxActiveRuns)),
		generator:     generator,
		runStore:      runStore,
		storageClient: storageClient,
		metrics:       newMetrics(),
		tracer:        otel.Tracer("bufo-stickers/worker"),
	}
	return s, nil
}

func (s *Server) Run() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TypeGeneratePack, s.handleGeneratePack)
	return s.server.Run(mux)
}

func (s *Server) MetricsHandler() http.Handler {
	return s.metrics.Handler()
}

func (s *Server) handleGeneratePack(ctx context.Context, task *asynq.Task) error {
	startedAt := time.Now()
	outcome := domain.RunStatusFailed

	payload, err := queue.ParseGeneratePackPayload(task)
	if err != nil {
		return fmt.Errorf("parse payload: %v: %w", err, asynq.SkipRetry)
	}
	req := payload.Request

	ctx, span := s.tracer.Start(ctx, "worker.generate_pack", trace.WithSpanKind(trace.SpanKindConsumer))
	span.SetAttributes(
		attribute.String("run.id", req.RunID),
		attribute.String("run.source_dir", req.SourceDir),
		attribute.String("run.size_class", req.SizeClass),
	)
	defer span.End()
	defer func() {
		s.metrics.runDuration.WithLabelValues(outcome).Observe(time.Since(startedAt).Seconds())
		s.metrics.runsTotal.WithLabelValues(outcome).Inc()
	}()

	s.sem <- struct{}{}
	s.metrics.activeRuns.Inc()
	defer func() {
		<-s.sem
		s.metrics.activeRuns.Dec()
	}()

	s.logger.Printf(
		"Working... run_id=%s source=%s size=%s force=%v",
		req.RunID,
		req.SourceDir,
		req.SizeClass,
		req.ForceUpdate,
	)

	s.createRun(ctx, req)

	summary, err := s.generator.Run(ctx, req)
	if errors.Is(err, pack.ErrSourceUnchanged) {
		outcome = domain.RunStatusSkipped
		s.finishRun(ctx, req.RunID, domain.RunStatusSkipped, summary)
		s.logger.Printf("source unchanged run_id=%s digest=%s", req.RunID, summary.SourceDigest)
		span.SetStatus(codes.Ok, "source unchanged")
		return nil
	}
	if err != nil {
		s.finishRun(ctx, req.RunID, domain.RunStatusFailed, domain.RunSummary{RunID: req.RunID})
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		return fmt.Errorf("run generation: %w", err)
	}

	s.recordSummary(ctx, req.RunID, summary)
	s.logger.Printf(
		"Generated run_id=%s packs=%d stickers=%d skipped=%d bytes=%d",
		req.RunID,
		len(summary.Packs),
		summary.Succeeded,
		len(summary.Skipped),
		summary.BytesWritten,
	)

	if err := s.publishArchive(ctx, req.RunID, summary); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "archive upload failed")
		return err
	}

	outcome = domain.RunStatusSucceeded
	span.SetStatus(codes.Ok, "generated")
	return nil
}

func (s *Server) createRun(ctx context.Context, req domain.GenerateRequest) {
	if s.runStore == nil {
		return
	}
	now := time.Now().UTC()
	err := s.runStore.Create(ctx, domain.Run{
		ID:        req.RunID,
		Status:    domain.RunStatusRunning,
		SizeClass: req.SizeClass,
		SourceDir: req.SourceDir,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		s.logger.Printf("run create failed run_id=%s err=%v", req.RunID, err)
	}
}

func (s *Server) finishRun(ctx context.Context, runID, status string, summary domain.RunSummary) {
	if s.runStore == nil {
		return
	}
	if _, err := s.runStore.Finish(ctx, runID, status, summary); err != nil {
		s.logger.Printf("run finish failed run_id=%s status=%s err=%v", runID, status, err)
	}
}

// recordSummary persists the successful run and feeds the run counters.
func (s *Server) recordSummary(ctx context.Context, runID string, summary domain.RunSummary) {
	s.finishRun(ctx, runID, domain.RunStatusSucceeded, summary)

	s.metrics.stickersConvertedTotal.Add(float64(summary.Succeeded))
	s.metrics.bytesWrittenTotal.Add(float64(summary.BytesWritten))
	for _, skip := range summary.Skipped {
		s.metrics.skippedFilesTotal.WithLabelValues(skip.Reason).Inc()
	}
}

func (s *Server) publishArchive(ctx context.Context, runID string, summary domain.RunSummary) error {
	if s.storageClient == nil || summary.ArchivePath == "" {
		return nil
	}

	data, err := os.ReadFile(summary.ArchivePath)
	if err != nil {
		return fmt.Errorf("read archive for upload: %w", err)
	}

	objectKey := path.Join("archives", runID, pack.ArchiveFilename)
	if err := s.storageClient.UploadArchive(ctx, objectKey, data); err != nil {
		return fmt.Errorf("publish archive: %w", err)
	}

	s.logger.Printf("archive published run_id=%s bucket=%s key=%s bytes=%d", runID, s.storageClient.Bucket(), objectKey, len(data))
	return nil
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
