package jobs

import (
	"context"
	"log/slog"

	"github.com/lumi-commerce/lumi-admin/internal/inventory"
)

// Notifier publishes inventory events onto the job queue. Satisfies
// inventory.Notifier.
type Notifier struct {
	client *Client
	logger *slog.Logger
}

func NewNotifier(client *Client, logger *slog.Logger) *Notifier {
	return &Notifier{client: client, logger: logger}
}

// AdjustmentPosted enqueues an adjustment-posted task for the batch.
func (n *Notifier) AdjustmentPosted(ctx context.Context, evt inventory.AdjustmentPostedEvent) error {
	task, err := NewAdjustmentPostedTask(evt)
	if err != nil {
		return err
	}
	info, err := n.client.Enqueue(ctx, task)
	if err != nil {
		return err
	}
	n.logger.Debug("adjustment event enqueued",
		slog.String("batch_id", evt.BatchID),
		slog.String("task_id", info.ID),
	)
	return nil
}
