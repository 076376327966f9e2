package inventory

import (
	"context"
	"time"
)

// AdjustedRecord is the per-record payload of AdjustmentPostedEvent.
type AdjustedRecord struct {
	StockRecordID int64 `json:"stock_record_id"`
	VariantID     int64 `json:"variant_id"`
	WarehouseID   int64 `json:"warehouse_id"`
	QuantityAfter int64 `json:"quantity_after"`
}

// AdjustmentPostedEvent is emitted after a batch commits. Delivery is
// best-effort; a failed notification never fails the batch.
type AdjustmentPostedEvent struct {
	BatchID    string           `json:"batch_id"`
	Type       AdjustmentType   `json:"type"`
	OccurredAt time.Time        `json:"occurred_at"`
	Records    []AdjustedRecord `json:"records"`
}

// Notifier receives inventory events for downstream notification.
type Notifier interface {
	AdjustmentPosted(ctx context.Context, evt AdjustmentPostedEvent) error
}
