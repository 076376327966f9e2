package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lumi-commerce/lumi-admin/internal/shared"
)

// RepositoryPort abstracts repository usage for the engine.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetStockRecord(ctx context.Context, id int64) (StockRecord, error)
	ListLog(ctx context.Context, filter LogFilter) ([]LogEntry, error)
}

// AuditPort records admin actions alongside the domain adjustment log.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// CachePort serves stock record reads and drops entries after mutations.
type CachePort interface {
	GetStockRecord(ctx context.Context, id int64) (StockRecord, error)
	Invalidate(ctx context.Context, ids []int64) error
}

// MetricsPort counts engine outcomes.
type MetricsPort interface {
	AdjustmentsApplied(n int)
	BatchFailed(reason string)
}

// Service is the bulk adjustment engine. It owns the in-flight copies of
// the stock records it mutates during one batch; rows are only written
// while exclusively locked inside a single transaction.
type Service struct {
	repo     RepositoryPort
	audit    AuditPort
	notifier Notifier
	cache    CachePort
	metrics  MetricsPort
	logger   *slog.Logger
	now      func() time.Time
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	// Now overrides the batch timestamp source. Defaults to time.Now.
	Now func() time.Time
	// Metrics receives engine outcome counts when set.
	Metrics MetricsPort
}

// NewService builds Service. audit, notifier and cache may be nil.
func NewService(repo RepositoryPort, audit AuditPort, notifier Notifier, cache CachePort, logger *slog.Logger, cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, notifier: notifier, cache: cache, metrics: cfg.Metrics, logger: logger, now: now}
}

// BulkAdjust applies one batch atomically: it merges duplicate line items,
// locks the affected stock records in a single query, computes before/after
// quantities, enforces the non-negative invariant, and persists updated
// stock plus one log entry per affected record in the same transaction.
// On any error nothing is written.
func (s *Service) BulkAdjust(ctx context.Context, req BulkAdjustment) (BulkAdjustmentResult, error) {
	if err := validateRequest(req); err != nil {
		return BulkAdjustmentResult{}, err
	}

	batchID := newBatchID()
	now := s.now().UTC()

	merged := mergeLineItems(req.Items)
	if merged.Len() == 0 {
		return BulkAdjustmentResult{BatchID: batchID, AffectedStockRecordIDs: []int64{}}, nil
	}

	var (
		affected []int64
		events   []AdjustedRecord
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		records, err := tx.LockStockRecords(ctx, merged.IDs())
		if err != nil {
			return err
		}
		byID := make(map[int64]StockRecord, len(records))
		for _, rec := range records {
			byID[rec.ID] = rec
		}

		updated := make([]StockRecord, 0, len(records))
		entries := make([]LogEntry, 0, len(records))
		for _, id := range merged.IDs() {
			rec, ok := byID[id]
			if !ok {
				// Unknown ids are dropped, not errored.
				continue
			}
			item := merged.Item(id)
			before := rec.Quantity
			after := before
			if req.Type == AdjustmentTypeCorrection && item.TargetQuantity != nil {
				after = *item.TargetQuantity
			} else if item.Delta != nil {
				after = before + *item.Delta
			}
			if after < 0 && !req.AllowNegative {
				return &NegativeStockError{StockRecordID: id, Quantity: after}
			}

			rec.Quantity = after
			rec.UpdatedAt = now
			updated = append(updated, rec)
			entries = append(entries, LogEntry{
				BatchID:        batchID,
				StockRecordID:  id,
				QuantityBefore: before,
				QuantityDelta:  after - before,
				QuantityAfter:  after,
				Type:           req.Type,
				ReferenceType:  req.ReferenceType,
				ReferenceCode:  req.ReferenceCode,
				Note:           item.Note,
				CreatedBy:      req.CreatedBy,
				CreatedAt:      now,
			})
			affected = append(affected, id)
			events = append(events, AdjustedRecord{
				StockRecordID: id,
				VariantID:     rec.VariantID,
				WarehouseID:   rec.WarehouseID,
				QuantityAfter: after,
			})
		}
		if len(updated) == 0 {
			return nil
		}
		if err := tx.SaveStockRecords(ctx, updated); err != nil {
			return err
		}
		return tx.InsertLogEntries(ctx, entries)
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.BatchFailed(failureReason(err))
		}
		return BulkAdjustmentResult{}, err
	}

	if s.metrics != nil {
		s.metrics.AdjustmentsApplied(len(affected))
	}
	if s.cache != nil && len(affected) > 0 {
		if err := s.cache.Invalidate(ctx, affected); err != nil {
			s.logger.Warn("invalidate stock cache", slog.Any("error", err))
		}
	}
	if s.audit != nil && len(affected) > 0 {
		if err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  req.CreatedBy,
			Action:   fmt.Sprintf("inventory:%s", req.Type),
			Entity:   "stock_adjustment_batch",
			EntityID: batchID,
			Meta: map[string]any{
				"affected":       len(affected),
				"reference_type": req.ReferenceType,
				"reference_code": req.ReferenceCode,
			},
		}); err != nil {
			s.logger.Warn("record audit log", slog.String("batch_id", batchID), slog.Any("error", err))
		}
	}
	if s.notifier != nil && len(events) > 0 {
		evt := AdjustmentPostedEvent{BatchID: batchID, Type: req.Type, OccurredAt: now, Records: events}
		if err := s.notifier.AdjustmentPosted(ctx, evt); err != nil {
			s.logger.Warn("notify adjustment posted", slog.String("batch_id", batchID), slog.Any("error", err))
		}
	}

	return BulkAdjustmentResult{
		BatchID:                batchID,
		AffectedCount:          len(affected),
		AffectedStockRecordIDs: append([]int64{}, affected...),
	}, nil
}

// Adjust applies a single-record change through the same batch machinery.
func (s *Service) Adjust(ctx context.Context, input AdjustmentInput) (BulkAdjustmentResult, error) {
	return s.BulkAdjust(ctx, BulkAdjustment{
		Items: []LineItem{{
			StockRecordID:  input.StockRecordID,
			Delta:          input.Delta,
			TargetQuantity: input.TargetQuantity,
			Note:           input.Note,
		}},
		Type:          input.Type,
		AllowNegative: input.AllowNegative,
		ReferenceType: input.ReferenceType,
		ReferenceCode: input.ReferenceCode,
		CreatedBy:     input.CreatedBy,
	})
}

// GetStockRecord returns one stock record, served from cache when available.
func (s *Service) GetStockRecord(ctx context.Context, id int64) (StockRecord, error) {
	if id <= 0 {
		return StockRecord{}, fmt.Errorf("%w: stock record id required", ErrValidation)
	}
	if s.cache != nil {
		return s.cache.GetStockRecord(ctx, id)
	}
	return s.repo.GetStockRecord(ctx, id)
}

// ListLog lists adjustment log entries by stock record or batch id.
func (s *Service) ListLog(ctx context.Context, filter LogFilter) ([]LogEntry, error) {
	if filter.StockRecordID <= 0 && filter.BatchID == "" {
		return nil, fmt.Errorf("%w: stock record id or batch id required", ErrValidation)
	}
	return s.repo.ListLog(ctx, filter)
}

func validateRequest(req BulkAdjustment) error {
	if !req.Type.Valid() {
		return fmt.Errorf("%w: unknown adjustment type %q", ErrValidation, req.Type)
	}
	for i, item := range req.Items {
		if item.StockRecordID <= 0 {
			return fmt.Errorf("%w: item %d missing stock record id", ErrValidation, i)
		}
		if item.Delta == nil && item.TargetQuantity == nil {
			return fmt.Errorf("%w: item %d needs a delta or a target quantity", ErrValidation, i)
		}
	}
	return nil
}

func newBatchID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrNegativeStock):
		return "negative_stock"
	case errors.Is(err, ErrContention):
		return "contention"
	case errors.Is(err, ErrValidation):
		return "validation"
	default:
		return "storage"
	}
}
