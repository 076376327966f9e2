package inventory

import (
	"errors"
	"fmt"
	"time"
)

// AdjustmentType enumerates supported stock adjustments.
type AdjustmentType string

const (
	// AdjustmentTypeReceipt represents inbound stock (goods received).
	AdjustmentTypeReceipt AdjustmentType = "RECEIPT"
	// AdjustmentTypeShipment represents outbound stock (order fulfilment).
	AdjustmentTypeShipment AdjustmentType = "SHIPMENT"
	// AdjustmentTypeReturn represents customer returns coming back to stock.
	AdjustmentTypeReturn AdjustmentType = "RETURN"
	// AdjustmentTypeDamage represents write-offs for damaged goods.
	AdjustmentTypeDamage AdjustmentType = "DAMAGE"
	// AdjustmentTypeCorrection sets quantity to an absolute target when the
	// line item carries one; without a target it behaves like a delta.
	AdjustmentTypeCorrection AdjustmentType = "CORRECTION"
)

// Valid reports whether t is a known adjustment type.
func (t AdjustmentType) Valid() bool {
	switch t {
	case AdjustmentTypeReceipt, AdjustmentTypeShipment, AdjustmentTypeReturn,
		AdjustmentTypeDamage, AdjustmentTypeCorrection:
		return true
	}
	return false
}

// StockRecord is the quantity of one product variant held at one warehouse.
// It is mutated exclusively through the bulk adjustment engine while the
// corresponding row is exclusively locked.
type StockRecord struct {
	ID          int64
	VariantID   int64
	WarehouseID int64
	Quantity    int64
	UpdatedAt   time.Time
}

// LineItem is one requested change inside a bulk adjustment. Either Delta
// or TargetQuantity must be present; both may be.
type LineItem struct {
	StockRecordID  int64
	Delta          *int64
	TargetQuantity *int64
	Note           *string
}

// BulkAdjustment is one bulk adjustment request. Items may repeat stock
// record ids; duplicates are merged before any lock is taken.
type BulkAdjustment struct {
	Items         []LineItem
	Type          AdjustmentType
	AllowNegative bool
	ReferenceType string
	ReferenceCode string
	CreatedBy     int64
}

// BulkAdjustmentResult summarises one committed batch. AffectedStockRecordIDs
// is in processing order, which is the order of first appearance in the
// request.
type BulkAdjustmentResult struct {
	BatchID                string
	AffectedCount          int
	AffectedStockRecordIDs []int64
}

// AdjustmentInput is the single-record convenience path; it is applied
// through the same engine as a one-item batch.
type AdjustmentInput struct {
	StockRecordID  int64
	Type           AdjustmentType
	Delta          *int64
	TargetQuantity *int64
	Note           *string
	AllowNegative  bool
	ReferenceType  string
	ReferenceCode  string
	CreatedBy      int64
}

// LogEntry is one append-only audit record. QuantityAfter is always
// QuantityBefore + QuantityDelta. Entries of one batch share BatchID and
// CreatedAt and are written in the same transaction as the stock mutation
// they record.
type LogEntry struct {
	ID             int64
	BatchID        string
	StockRecordID  int64
	QuantityBefore int64
	QuantityDelta  int64
	QuantityAfter  int64
	Type           AdjustmentType
	ReferenceType  string
	ReferenceCode  string
	Note           *string
	CreatedBy      int64
	CreatedAt      time.Time
}

// LogFilter selects audit entries for the read side.
type LogFilter struct {
	StockRecordID int64
	BatchID       string
	Limit         int
}

// ErrValidation indicates a malformed request, rejected before any lock.
var ErrValidation = errors.New("inventory: invalid adjustment request")

// ErrNegativeStock indicates a computed quantity below zero without the
// allow-negative override. The whole batch rolls back.
var ErrNegativeStock = errors.New("inventory: negative stock not allowed")

// ErrContention indicates the row locks could not be acquired; the batch
// wrote nothing and is safe to retry as a whole.
var ErrContention = errors.New("inventory: stock records contended, retry")

// ErrStockRecordNotFound indicates a missing stock record on the read side.
var ErrStockRecordNotFound = errors.New("inventory: stock record not found")

// NegativeStockError reports which record the negative-stock guard tripped on.
type NegativeStockError struct {
	StockRecordID int64
	Quantity      int64
}

func (e *NegativeStockError) Error() string {
	return fmt.Sprintf("inventory: stock record %d would drop to %d", e.StockRecordID, e.Quantity)
}

// Unwrap lets errors.Is match ErrNegativeStock.
func (e *NegativeStockError) Unwrap() error { return ErrNegativeStock }
