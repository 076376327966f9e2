package inventory

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func i64(v int64) *int64 { return &v }

func strp(s string) *string { return &s }

func TestMergeLineItemsSumsDeltas(t *testing.T) {
	merged := mergeLineItems([]LineItem{
		{StockRecordID: 1, Delta: i64(3)},
		{StockRecordID: 1, Delta: i64(4)},
		{StockRecordID: 1, Delta: i64(-2)},
	})
	require.Equal(t, 1, merged.Len())
	require.Equal(t, int64(5), *merged.Item(1).Delta)
}

func TestMergeLineItemsLastTargetWins(t *testing.T) {
	merged := mergeLineItems([]LineItem{
		{StockRecordID: 1, TargetQuantity: i64(10)},
		{StockRecordID: 1, TargetQuantity: i64(25)},
	})
	require.Equal(t, int64(25), *merged.Item(1).TargetQuantity)
}

func TestMergeLineItemsLastNoteWins(t *testing.T) {
	merged := mergeLineItems([]LineItem{
		{StockRecordID: 1, Delta: i64(1), Note: strp("first")},
		{StockRecordID: 1, Delta: i64(1), Note: strp("second")},
		{StockRecordID: 1, Delta: i64(1)},
	})
	require.Equal(t, "second", *merged.Item(1).Note)
}

func TestMergeLineItemsKeepsFirstSeenOrder(t *testing.T) {
	merged := mergeLineItems([]LineItem{
		{StockRecordID: 7, Delta: i64(1)},
		{StockRecordID: 3, Delta: i64(1)},
		{StockRecordID: 7, Delta: i64(1)},
		{StockRecordID: 5, Delta: i64(1)},
	})
	require.Equal(t, []int64{7, 3, 5}, merged.IDs())
}

func TestMergeLineItemsDetachesPointers(t *testing.T) {
	delta := int64(3)
	items := []LineItem{{StockRecordID: 1, Delta: &delta}}
	merged := mergeLineItems(items)
	delta = 99
	require.Equal(t, int64(3), *merged.Item(1).Delta)
}

func TestMergeLineItemsMixedDeltaAndTarget(t *testing.T) {
	merged := mergeLineItems([]LineItem{
		{StockRecordID: 1, Delta: i64(2)},
		{StockRecordID: 1, TargetQuantity: i64(40)},
	})
	item := merged.Item(1)
	require.Equal(t, int64(2), *item.Delta)
	require.Equal(t, int64(40), *item.TargetQuantity)
}
