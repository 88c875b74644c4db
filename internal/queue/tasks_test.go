package queue

import (
	"testing"
	"time"

	"github.com/cathteng/bufo-stickers/internal/domain"
)

func TestGeneratePackTaskRoundTrip(t *testing.T) {
	payload := GeneratePackPayload{
		Request: domain.GenerateRequest{
			RunID:     "run-123",
			SourceDir: "source-repo",
			OutputDir: "output",
			PackName:  "BufoStickers",
			SizeClass: domain.SizeClassMedium,
			MaxBytes:  500_000,
		},
		RequestedAt: time.Now().UTC(),
	}

	task, err := NewGeneratePackTask(payload)
	if err != nil {
		t.Fatalf("NewGeneratePackTask returned error: %v", err)
	}
	if task.Type() != TypeGeneratePack {
		t.Fatalf("expected task type %s, got %s", TypeGeneratePack, task.Type())
	}

	parsed, err := ParseGeneratePackPayload(task)
	if err != nil {
		t.Fatalf("ParseGeneratePackPayload returned error: %v", err)
	}

	if parsed.Request.RunID != payload.Request.RunID {
		t.Fatalf("expected run_id %q, got %q", payload.Request.RunID, parsed.Request.RunID)
	}
	if parsed.Request.SizeClass != domain.SizeClassMedium {
		t.Fatalf("expected size class medium, got %q", parsed.Request.SizeClass)
	}
}
