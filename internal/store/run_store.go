package store

import (
	"context"

	"github.com/cathteng/bufo-stickers/internal/domain"
)

// RunStore keeps the history of generation runs for the scheduled pipeline.
type RunStore interface {
	Create(ctx context.Context, run domain.Run) error
	Get(ctx context.Context, id string) (domain.Run, bool, error)
	Finish(ctx context.Context, id, status string, summary domain.RunSummary) (domain.Run, error)
}
