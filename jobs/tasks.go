package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"github.com/lumi-commerce/lumi-admin/internal/inventory"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAdjustmentPosted is emitted after a bulk adjustment batch commits.
	TaskAdjustmentPosted = "inventory:adjustment_posted"
	// TaskLowStockScan triggers a periodic scan for records below threshold.
	TaskLowStockScan = "inventory:low_stock_scan"
)

// AdjustmentPostedPayload mirrors inventory.AdjustmentPostedEvent on the wire.
type AdjustmentPostedPayload struct {
	BatchID    string                     `json:"batch_id"`
	Type       string                     `json:"type"`
	OccurredAt time.Time                  `json:"occurred_at"`
	Records    []inventory.AdjustedRecord `json:"records"`
}

// NewAdjustmentPostedTask constructs an Asynq task from a committed batch event.
func NewAdjustmentPostedTask(evt inventory.AdjustmentPostedEvent) (*asynq.Task, error) {
	body, err := json.Marshal(AdjustmentPostedPayload{
		BatchID:    evt.BatchID,
		Type:       string(evt.Type),
		OccurredAt: evt.OccurredAt,
		Records:    evt.Records,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAdjustmentPosted, body, asynq.Queue(QueueDefault)), nil
}

// LowStockScanPayload carries scheduling metadata.
type LowStockScanPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewLowStockScanTask constructs an Asynq task for the periodic low-stock scan.
func NewLowStockScanTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(LowStockScanPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockScan, body, asynq.Queue(QueueDefault)), nil
}
