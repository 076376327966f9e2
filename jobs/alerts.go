package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/lumi-commerce/lumi-admin/internal/inventory"
	jobmetrics "github.com/lumi-commerce/lumi-admin/internal/jobs"
)

// LowStockLister is the slice of the inventory repository the scan needs.
type LowStockLister interface {
	ListBelowThreshold(ctx context.Context, threshold int64) ([]inventory.StockRecord, error)
}

// Alerts processes inventory events and raises low-stock warnings.
type Alerts struct {
	logger    *slog.Logger
	stocks    LowStockLister
	threshold int64
	printer   *message.Printer
	metrics   *jobmetrics.Metrics
}

// NewAlerts constructs the alert handlers. threshold is the quantity at or
// below which a record is considered low on stock. metrics may be nil.
func NewAlerts(logger *slog.Logger, stocks LowStockLister, threshold int64, metrics *jobmetrics.Metrics) *Alerts {
	return &Alerts{
		logger:    logger,
		stocks:    stocks,
		threshold: threshold,
		printer:   message.NewPrinter(language.English),
		metrics:   metrics,
	}
}

// HandleAdjustmentPosted inspects a committed batch and warns about every
// record the batch left at or below the low-stock threshold.
func (a *Alerts) HandleAdjustmentPosted(ctx context.Context, t *asynq.Task) error {
	track := a.metrics.Track(TaskAdjustmentPosted)
	var payload AdjustmentPostedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return track.End(asynq.SkipRetry)
	}
	flagged := 0
	for _, rec := range payload.Records {
		if rec.QuantityAfter > a.threshold {
			continue
		}
		flagged++
		a.logger.Warn("low stock after adjustment",
			slog.String("batch_id", payload.BatchID),
			slog.Int64("stock_record_id", rec.StockRecordID),
			slog.Int64("variant_id", rec.VariantID),
			slog.Int64("warehouse_id", rec.WarehouseID),
			slog.String("quantity", a.printer.Sprintf("%d", rec.QuantityAfter)),
		)
	}
	a.metrics.AddLowStock(flagged)
	return track.End(nil)
}

// HandleLowStockScan walks all stock records below threshold. Runs on a cron
// schedule so records drained outside the adjustment API still get flagged.
func (a *Alerts) HandleLowStockScan(ctx context.Context, t *asynq.Task) error {
	track := a.metrics.Track(TaskLowStockScan)
	var payload LowStockScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return track.End(asynq.SkipRetry)
	}
	records, err := a.stocks.ListBelowThreshold(ctx, a.threshold)
	if err != nil {
		return track.End(err)
	}
	for _, rec := range records {
		a.logger.Warn("low stock",
			slog.Int64("stock_record_id", rec.ID),
			slog.Int64("variant_id", rec.VariantID),
			slog.Int64("warehouse_id", rec.WarehouseID),
			slog.String("quantity", a.printer.Sprintf("%d", rec.Quantity)),
		)
	}
	a.metrics.AddLowStock(len(records))
	a.logger.Info("low stock scan finished",
		slog.Int("flagged", len(records)),
		slog.Int64("threshold", a.threshold),
	)
	return track.End(nil)
}
