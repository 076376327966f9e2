package inventory

import "time"

type bulkAdjustRequest struct {
	Items         []lineItemRequest `json:"items" validate:"dive"`
	Type          string            `json:"type" validate:"required"`
	AllowNegative bool              `json:"allow_negative"`
	ReferenceType string            `json:"reference_type,omitempty" validate:"max=64"`
	ReferenceCode string            `json:"reference_code,omitempty" validate:"max=64"`
}

type lineItemRequest struct {
	StockRecordID  int64   `json:"stock_record_id" validate:"required,gt=0"`
	Delta          *int64  `json:"delta,omitempty"`
	TargetQuantity *int64  `json:"target_quantity,omitempty"`
	Note           *string `json:"note,omitempty" validate:"omitempty,max=500"`
}

type adjustRequest struct {
	StockRecordID  int64   `json:"stock_record_id" validate:"required,gt=0"`
	Type           string  `json:"type" validate:"required"`
	Delta          *int64  `json:"delta,omitempty"`
	TargetQuantity *int64  `json:"target_quantity,omitempty"`
	Note           *string `json:"note,omitempty" validate:"omitempty,max=500"`
	AllowNegative  bool    `json:"allow_negative"`
	ReferenceType  string  `json:"reference_type,omitempty" validate:"max=64"`
	ReferenceCode  string  `json:"reference_code,omitempty" validate:"max=64"`
}

type bulkAdjustResponse struct {
	BatchID                string  `json:"batch_id"`
	AffectedCount          int     `json:"affected_count"`
	AffectedStockRecordIDs []int64 `json:"affected_stock_record_ids"`
}

type stockRecordResponse struct {
	ID          int64     `json:"id"`
	VariantID   int64     `json:"variant_id"`
	WarehouseID int64     `json:"warehouse_id"`
	Quantity    int64     `json:"quantity"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type logEntryResponse struct {
	ID             int64     `json:"id"`
	BatchID        string    `json:"batch_id"`
	StockRecordID  int64     `json:"stock_record_id"`
	QuantityBefore int64     `json:"quantity_before"`
	QuantityDelta  int64     `json:"quantity_delta"`
	QuantityAfter  int64     `json:"quantity_after"`
	Type           string    `json:"type"`
	ReferenceType  string    `json:"reference_type,omitempty"`
	ReferenceCode  string    `json:"reference_code,omitempty"`
	Note           *string   `json:"note,omitempty"`
	CreatedBy      int64     `json:"created_by,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func (r bulkAdjustRequest) toDomain(actorID int64) BulkAdjustment {
	items := make([]LineItem, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, LineItem{
			StockRecordID:  item.StockRecordID,
			Delta:          item.Delta,
			TargetQuantity: item.TargetQuantity,
			Note:           item.Note,
		})
	}
	return BulkAdjustment{
		Items:         items,
		Type:          AdjustmentType(r.Type),
		AllowNegative: r.AllowNegative,
		ReferenceType: r.ReferenceType,
		ReferenceCode: r.ReferenceCode,
		CreatedBy:     actorID,
	}
}

func (r adjustRequest) toDomain(actorID int64) AdjustmentInput {
	return AdjustmentInput{
		StockRecordID:  r.StockRecordID,
		Type:           AdjustmentType(r.Type),
		Delta:          r.Delta,
		TargetQuantity: r.TargetQuantity,
		Note:           r.Note,
		AllowNegative:  r.AllowNegative,
		ReferenceType:  r.ReferenceType,
		ReferenceCode:  r.ReferenceCode,
		CreatedBy:      actorID,
	}
}

func toBulkResponse(res BulkAdjustmentResult) bulkAdjustResponse {
	ids := res.AffectedStockRecordIDs
	if ids == nil {
		ids = []int64{}
	}
	return bulkAdjustResponse{
		BatchID:                res.BatchID,
		AffectedCount:          res.AffectedCount,
		AffectedStockRecordIDs: ids,
	}
}

func toStockRecordResponse(rec StockRecord) stockRecordResponse {
	return stockRecordResponse{
		ID:          rec.ID,
		VariantID:   rec.VariantID,
		WarehouseID: rec.WarehouseID,
		Quantity:    rec.Quantity,
		UpdatedAt:   rec.UpdatedAt,
	}
}

func toLogEntryResponses(entries []LogEntry) []logEntryResponse {
	out := make([]logEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, logEntryResponse{
			ID:             e.ID,
			BatchID:        e.BatchID,
			StockRecordID:  e.StockRecordID,
			QuantityBefore: e.QuantityBefore,
			QuantityDelta:  e.QuantityDelta,
			QuantityAfter:  e.QuantityAfter,
			Type:           string(e.Type),
			ReferenceType:  e.ReferenceType,
			ReferenceCode:  e.ReferenceCode,
			Note:           e.Note,
			CreatedBy:      e.CreatedBy,
			CreatedAt:      e.CreatedAt,
		})
	}
	return out
}
