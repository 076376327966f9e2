package inventory

// mergedItems holds at most one effective line item per stock record id,
// preserving first-seen order of distinct ids.
type mergedItems struct {
	order []int64
	byID  map[int64]LineItem
}

// Len returns the number of distinct stock record ids.
func (m mergedItems) Len() int { return len(m.order) }

// IDs returns the distinct ids in first-seen order.
func (m mergedItems) IDs() []int64 { return m.order }

// Item returns the merged line item for id.
func (m mergedItems) Item(id int64) LineItem { return m.byID[id] }

// mergeLineItems collapses duplicated line items so the engine never
// double-applies the same logical change. Deltas sum left to right; the
// last non-absent target and note win. Pure function, no errors.
func mergeLineItems(items []LineItem) mergedItems {
	merged := mergedItems{byID: make(map[int64]LineItem, len(items))}
	for _, item := range items {
		existing, ok := merged.byID[item.StockRecordID]
		if !ok {
			merged.order = append(merged.order, item.StockRecordID)
			merged.byID[item.StockRecordID] = copyItem(item)
			continue
		}
		if item.Delta != nil {
			sum := *item.Delta
			if existing.Delta != nil {
				sum += *existing.Delta
			}
			existing.Delta = &sum
		}
		if item.TargetQuantity != nil {
			target := *item.TargetQuantity
			existing.TargetQuantity = &target
		}
		if item.Note != nil {
			note := *item.Note
			existing.Note = &note
		}
		merged.byID[item.StockRecordID] = existing
	}
	return merged
}

// copyItem detaches pointer fields so merging never aliases caller memory.
func copyItem(item LineItem) LineItem {
	out := LineItem{StockRecordID: item.StockRecordID}
	if item.Delta != nil {
		d := *item.Delta
		out.Delta = &d
	}
	if item.TargetQuantity != nil {
		t := *item.TargetQuantity
		out.TargetQuantity = &t
	}
	if item.Note != nil {
		n := *item.Note
		out.Note = &n
	}
	return out
}
