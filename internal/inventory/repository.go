package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumi-commerce/lumi-admin/internal/platform/db"
)

// Repository persists inventory data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the transactional store contracts used by the engine.
type TxRepository interface {
	// LockStockRecords acquires exclusive row locks on the given ids in a
	// single query, in ascending id order. Missing ids are omitted.
	LockStockRecords(ctx context.Context, ids []int64) ([]StockRecord, error)
	SaveStockRecords(ctx context.Context, records []StockRecord) error
	InsertLogEntries(ctx context.Context, entries []LogEntry) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("inventory repository not initialised")
	}
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
	if err != nil {
		return mapPgError(err)
	}
	return nil
}

// GetStockRecord returns one stock record by id.
func (r *Repository) GetStockRecord(ctx context.Context, id int64) (StockRecord, error) {
	var rec StockRecord
	err := r.pool.QueryRow(ctx, `SELECT id, variant_id, warehouse_id, quantity, updated_at
FROM stock_records WHERE id=$1`, id).
		Scan(&rec.ID, &rec.VariantID, &rec.WarehouseID, &rec.Quantity, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StockRecord{}, ErrStockRecordNotFound
		}
		return StockRecord{}, err
	}
	return rec, nil
}

// ListBelowThreshold returns stock records at or below the given quantity,
// lowest first.
func (r *Repository) ListBelowThreshold(ctx context.Context, threshold int64) ([]StockRecord, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, variant_id, warehouse_id, quantity, updated_at
FROM stock_records WHERE quantity <= $1 ORDER BY quantity ASC, id ASC`, threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	records := []StockRecord{}
	for rows.Next() {
		var rec StockRecord
		if err := rows.Scan(&rec.ID, &rec.VariantID, &rec.WarehouseID, &rec.Quantity, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// ListLog lists adjustment log entries, newest first.
func (r *Repository) ListLog(ctx context.Context, filter LogFilter) ([]LogEntry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `SELECT id, batch_id, stock_record_id, quantity_before, quantity_delta, quantity_after,
adjustment_type, reference_type, reference_code, note, created_by, created_at
FROM stock_adjustments
WHERE ($1::bigint = 0 OR stock_record_id=$1) AND ($2::text = '' OR batch_id=$2)
ORDER BY created_at DESC, id DESC
LIMIT $3`, filter.StockRecordID, filter.BatchID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := []LogEntry{}
	for rows.Next() {
		var e LogEntry
		if err := rows.Scan(&e.ID, &e.BatchID, &e.StockRecordID, &e.QuantityBefore, &e.QuantityDelta, &e.QuantityAfter,
			&e.Type, &e.ReferenceType, &e.ReferenceCode, &e.Note, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *txRepository) LockStockRecords(ctx context.Context, ids []int64) ([]StockRecord, error) {
	// Ascending id order keeps lock acquisition deadlock-free across
	// overlapping batches.
	rows, err := r.tx.Query(ctx, `SELECT id, variant_id, warehouse_id, quantity, updated_at
FROM stock_records WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	records := []StockRecord{}
	for rows.Next() {
		var rec StockRecord
		if err := rows.Scan(&rec.ID, &rec.VariantID, &rec.WarehouseID, &rec.Quantity, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *txRepository) SaveStockRecords(ctx context.Context, records []StockRecord) error {
	for _, rec := range records {
		if _, err := r.tx.Exec(ctx, `UPDATE stock_records SET quantity=$1, updated_at=$2 WHERE id=$3`,
			rec.Quantity, rec.UpdatedAt, rec.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) InsertLogEntries(ctx context.Context, entries []LogEntry) error {
	for _, e := range entries {
		if _, err := r.tx.Exec(ctx, `INSERT INTO stock_adjustments
(batch_id, stock_record_id, quantity_before, quantity_delta, quantity_after, adjustment_type, reference_type, reference_code, note, created_by, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			e.BatchID, e.StockRecordID, e.QuantityBefore, e.QuantityDelta, e.QuantityAfter,
			string(e.Type), e.ReferenceType, e.ReferenceCode, e.Note, e.CreatedBy, e.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

// mapPgError surfaces lock waits and serialization failures as the
// retryable contention sentinel.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "55P03", "40001", "40P01":
			return fmt.Errorf("%w: %v", ErrContention, err)
		}
	}
	return err
}
