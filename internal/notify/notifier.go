package notify

import (
	"context"

	"profile_sync/internal/model"
)

// Notifier is told about every finished provisioning batch.
type Notifier interface {
	NotifyBatch(ctx context.Context, summary model.BatchSummary) error
}

// Nop discards notifications.
type Nop struct{}

func (Nop) NotifyBatch(context.Context, model.BatchSummary) error { return nil }
