package worker

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/cathteng/bufo-stickers/internal/domain"
	"github.com/cathteng/bufo-stickers/internal/store"
)

func TestRecordSummaryFinishesRun(t *testing.T) {
	runStore := store.NewMemoryRunStore()
	if err := runStore.Create(context.Background(), domain.Run{
		ID:        "run-1",
		Status:    domain.RunStatusRunning,
		SizeClass: domain.SizeClassMedium,
		SourceDir: "source-repo",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("seed run: %v", err)
	}

	s := &Server{
		logger:   log.New(io.Discard, "", 0),
		runStore: runStore,
		metrics:  newMetrics(),
	}

	summary := domain.RunSummary{
		RunID:     "run-1",
		Succeeded: 12,
		Skipped: []domain.SkippedFile{
			{Name: "broken.png", Reason: domain.SkipReasonDecodeFailure},
		},
		BytesWritten: 4_096,
	}
	s.recordSummary(context.Background(), "run-1", summary)

	run, ok, err := runStore.Get(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if !ok {
		t.Fatal("expected run to exist")
	}
	if run.Status != domain.RunStatusSucceeded {
		t.Fatalf("expected succeeded status, got %s", run.Status)
	}
	if run.Summary.Succeeded != 12 {
		t.Fatalf("expected 12 succeeded in summary, got %d", run.Summary.Succeeded)
	}
	if len(run.Summary.Skipped) != 1 {
		t.Fatalf("expected 1 skipped in summary, got %d", len(run.Summary.Skipped))
	}
}

func TestFinishRunToleratesMissingStore(t *testing.T) {
	s := &Server{
		logger:  log.New(io.Discard, "", 0),
		metrics: newMetrics(),
	}

	// Must not panic without a run store configured.
	s.createRun(context.Background(), domain.GenerateRequest{RunID: "run-2"})
	s.finishRun(context.Background(), "run-2", domain.RunStatusFailed, domain.RunSummary{})
	s.recordSummary(context.Background(), "run-2", domain.RunSummary{Succeeded: 1})
}
