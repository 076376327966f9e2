package inventory

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lumi-commerce/lumi-admin/internal/shared"
)

type memoryRepo struct {
	mu       sync.Mutex
	records  map[int64]StockRecord
	entries  []LogEntry
	txCalls  int
	getCalls int
}

func newMemoryRepo(records ...StockRecord) *memoryRepo {
	repo := &memoryRepo{records: make(map[int64]StockRecord)}
	for _, rec := range records {
		repo.records[rec.ID] = rec
	}
	return repo
}

type memoryTx struct {
	repo    *memoryRepo
	updated []StockRecord
	entries []LogEntry
}

// WithTx serialises whole batches, which is how row locks behave for
// overlapping id sets.
func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txCalls++
	tx := &memoryTx{repo: r}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	// Commit: writes become visible only when the callback succeeds.
	for _, rec := range tx.updated {
		r.records[rec.ID] = rec
	}
	r.entries = append(r.entries, tx.entries...)
	return nil
}

func (r *memoryRepo) GetStockRecord(ctx context.Context, id int64) (StockRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getCalls++
	rec, ok := r.records[id]
	if !ok {
		return StockRecord{}, ErrStockRecordNotFound
	}
	return rec, nil
}

func (r *memoryRepo) ListLog(ctx context.Context, filter LogFilter) ([]LogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []LogEntry{}
	for _, e := range r.entries {
		if filter.StockRecordID != 0 && e.StockRecordID != filter.StockRecordID {
			continue
		}
		if filter.BatchID != "" && e.BatchID != filter.BatchID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (tx *memoryTx) LockStockRecords(ctx context.Context, ids []int64) ([]StockRecord, error) {
	sorted := append([]int64{}, ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	records := []StockRecord{}
	for _, id := range sorted {
		if rec, ok := tx.repo.records[id]; ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

func (tx *memoryTx) SaveStockRecords(ctx context.Context, records []StockRecord) error {
	tx.updated = append(tx.updated, records...)
	return nil
}

func (tx *memoryTx) InsertLogEntries(ctx context.Context, entries []LogEntry) error {
	tx.entries = append(tx.entries, entries...)
	return nil
}

type memoryAudit struct {
	logs []shared.AuditLog
	err  error
}

func (a *memoryAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return a.err
}

type memoryNotifier struct {
	events []AdjustmentPostedEvent
	err    error
}

func (n *memoryNotifier) AdjustmentPosted(ctx context.Context, evt AdjustmentPostedEvent) error {
	n.events = append(n.events, evt)
	return n.err
}

var testClock = func() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func newTestService(repo *memoryRepo) *Service {
	return NewService(repo, nil, nil, nil, nil, ServiceConfig{Now: testClock})
}

func TestBulkAdjustAppliesDeltas(t *testing.T) {
	repo := newMemoryRepo(
		StockRecord{ID: 1, VariantID: 10, WarehouseID: 1, Quantity: 10},
		StockRecord{ID: 2, VariantID: 11, WarehouseID: 1, Quantity: 4},
	)
	svc := newTestService(repo)

	res, err := svc.BulkAdjust(context.Background(), BulkAdjustment{
		Type: AdjustmentTypeReceipt,
		Items: []LineItem{
			{StockRecordID: 1, Delta: i64(5)},
			{StockRecordID: 2, Delta: i64(3)},
		},
		CreatedBy: 42,
	})
	require.NoError(t, err)
	require.Equal(t, 2, res.AffectedCount)
	require.Equal(t, []int64{1, 2}, res.AffectedStockRecordIDs)
	require.Len(t, res.BatchID, 32)
	require.NotContains(t, res.BatchID, "-")
	require.Equal(t, int64(15), repo.records[1].Quantity)
	require.Equal(t, int64(7), repo.records[2].Quantity)
}

func TestBulkAdjustMergesDuplicateItems(t *testing.T) {
	repo := newMemoryRepo(StockRecord{ID: 1, Quantity: 10})
	svc := newTestService(repo)

	res, err := svc.BulkAdjust(context.Background(), BulkAdjustment{
		Type: AdjustmentTypeReceipt,
		Items: []LineItem{
			{StockRecordID: 1, Delta: i64(3)},
			{StockRecordID: 1, Delta: i64(4)},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.AffectedCount)
	require.Equal(t, int64(17), repo.records[1].Quantity)
	// One merged entry, not one per request item.
	require.Len(t, repo.entries, 1)
	require.Equal(t, int64(7), repo.entries[0].QuantityDelta)
}

func TestBulkAdjustNegativeGuard(t *testing.T) {
	repo := newMemoryRepo(StockRecord{ID: 1, Quantity: 5})
	svc := newTestService(repo)

	_, err := svc.BulkAdjust(context.Background(), BulkAdjustment{
		Type:  AdjustmentTypeShipment,
		Items: []LineItem{{StockRecordID: 1, Delta: i64(-8)}},
	})
	require.ErrorIs(t, err, ErrNegativeStock)
	var negErr *NegativeStockError
	require.ErrorAs(t, err, &negErr)
	require.Equal(t, int64(1), negErr.StockRecordID)
	require.Equal(t, int64(-3), negErr.Quantity)
	require.Equal(t, int64(5), repo.records[1].Quantity)
	require.Empty(t, repo.entries)
}

func TestBulkAdjustAllowNegativeOverride(t *testing.T) {
	repo := newMemoryRepo(StockRecord{ID: 1, Quantity: 5})
	svc := newTestService(repo)

	_, err := svc.BulkAdjust(context.Background(), BulkAdjustment{
		Type:          AdjustmentTypeShipment,
		AllowNegative: true,
		Items:         []LineItem{{StockRecordID: 1, Delta: i64(-8)}},
	})
	require.NoError(t, err)
	require.Equal(t, int64(-3), repo.records[1].Quantity)
	require.Len(t, repo.entries, 1)
	require.Equal(t, int64(5), repo.entries[0].QuantityBefore)
	require.Equal(t, int64(-8), repo.entries[0].QuantityDelta)
	require.Equal(t, int64(-3), repo.entries[0].QuantityAfter)
}

func TestBulkAdjustCorrectionSetsTarget(t *testing.T) {
	repo := newMemoryRepo(StockRecord{ID: 1, Quantity: 12})
	svc := newTestService(repo)

	_, err := svc.BulkAdjust(context.Background(), BulkAdjustment{
		Type:  AdjustmentTypeCorrection,
		Items: []LineItem{{StockRecordID: 1, TargetQuantity: i64(50)}},
	})
	require.NoError(t, err)
	require.Equal(t, int64(50), repo.records[1].Quantity)
	require.Len(t, repo.entries, 1)
	require.Equal(t, int64(38), repo.entries[0].QuantityDelta)
}

func TestBulkAdjustCorrectionWithoutTargetUsesDelta(t *testing.T) {
	repo := newMemoryRepo(StockRecord{ID: 1, Quantity: 12})
	svc := newTestService(repo)

	_, err := svc.BulkAdjust(context.Background(), BulkAdjustment{
		Type:  AdjustmentTypeCorrection,
		Items: []LineItem{{StockRecordID: 1, Delta: i64(-2)}},
	})
	require.NoError(t, err)
	require.Equal(t, int64(10), repo.records[1].Quantity)
}

func TestBulkAdjustAtomicRollback(t *testing.T) {
	repo := newMemoryRepo(
		StockRecord{ID: 1, Quantity: 10},
		StockRecord{ID: 2, Quantity: 1},
	)
	svc := newTestService(repo)

	_, err := svc.BulkAdjust(context.Background(), BulkAdjustment{
		Type: AdjustmentTypeShipment,
		Items: []LineItem{
			{StockRecordID: 1, Delta: i64(-5)},
			{StockRecordID: 2, Delta: i64(-5)},
		},
	})
	require.ErrorIs(t, err, ErrNegativeStock)
	// Nothing from the batch sticks, including the passing first item.
	require.Equal(t, int64(10), repo.records[1].Quantity)
	require.Equal(t, int64(1), repo.records[2].Quantity)
	require.Empty(t, repo.entries)
}

func TestBulkAdjustSkipsMissingRecords(t *testing.T) {
	repo := newMemoryRepo(StockRecord{ID: 1, Quantity: 10})
	svc := newTestService(repo)

	res, err := svc.BulkAdjust(context.Background(), BulkAdjustment{
		Type: AdjustmentTypeReceipt,
		Items: []LineItem{
			{StockRecordID: 99, Delta: i64(5)},
			{StockRecordID: 1, Delta: i64(5)},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.AffectedCount)
	require.Equal(t, []int64{1}, res.AffectedStockRecordIDs)
	require.Equal(t, int64(15), repo.records[1].Quantity)
}

func TestBulkAdjustEmptyBatch(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	res, err := svc.BulkAdjust(context.Background(), BulkAdjustment{Type: AdjustmentTypeReceipt})
	require.NoError(t, err)
	require.NotEmpty(t, res.BatchID)
	require.Zero(t, res.AffectedCount)
	require.Empty(t, res.AffectedStockRecordIDs)
	require.Zero(t, repo.txCalls)
}

func TestBulkAdjustValidation(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	_, err := svc.BulkAdjust(context.Background(), BulkAdjustment{Type: "UNKNOWN"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.BulkAdjust(context.Background(), BulkAdjustment{
		Type:  AdjustmentTypeReceipt,
		Items: []LineItem{{StockRecordID: 1}},
	})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.BulkAdjust(context.Background(), BulkAdjustment{
		Type:  AdjustmentTypeReceipt,
		Items: []LineItem{{StockRecordID: 0, Delta: i64(1)}},
	})
	require.ErrorIs(t, err, ErrValidation)
	require.Zero(t, repo.txCalls)
}

func TestBulkAdjustSharesOneTimestamp(t *testing.T) {
	repo := newMemoryRepo(
		StockRecord{ID: 1, Quantity: 1},
		StockRecord{ID: 2, Quantity: 1},
	)
	svc := newTestService(repo)

	_, err := svc.BulkAdjust(context.Background(), BulkAdjustment{
		Type: AdjustmentTypeReceipt,
		Items: []LineItem{
			{StockRecordID: 1, Delta: i64(1)},
			{StockRecordID: 2, Delta: i64(1)},
		},
	})
	require.NoError(t, err)
	want := testClock()
	require.Len(t, repo.entries, 2)
	for _, e := range repo.entries {
		require.Equal(t, want, e.CreatedAt)
	}
	require.Equal(t, want, repo.records[1].UpdatedAt)
	require.Equal(t, want, repo.records[2].UpdatedAt)
}

func TestBulkAdjustLogArithmetic(t *testing.T) {
	repo := newMemoryRepo(
		StockRecord{ID: 1, Quantity: 10},
		StockRecord{ID: 2, Quantity: 3},
	)
	svc := newTestService(repo)

	res, err := svc.BulkAdjust(context.Background(), BulkAdjustment{
		Type: AdjustmentTypeDamage,
		Items: []LineItem{
			{StockRecordID: 1, Delta: i64(-4), Note: strp("broken crate")},
			{StockRecordID: 2, Delta: i64(-1)},
		},
		ReferenceType: "damage_report",
		ReferenceCode: "DR-77",
		CreatedBy:     7,
	})
	require.NoError(t, err)
	for _, e := range repo.entries {
		require.Equal(t, e.QuantityBefore+e.QuantityDelta, e.QuantityAfter)
		require.Equal(t, res.BatchID, e.BatchID)
		require.Equal(t, AdjustmentTypeDamage, e.Type)
		require.Equal(t, "damage_report", e.ReferenceType)
		require.Equal(t, "DR-77", e.ReferenceCode)
		require.Equal(t, int64(7), e.CreatedBy)
	}
}

func TestBulkAdjustNotifiesAndAudits(t *testing.T) {
	repo := newMemoryRepo(StockRecord{ID: 1, VariantID: 10, WarehouseID: 2, Quantity: 5})
	audit := &memoryAudit{}
	notifier := &memoryNotifier{}
	svc := NewService(repo, audit, notifier, nil, nil, ServiceConfig{Now: testClock})

	res, err := svc.BulkAdjust(context.Background(), BulkAdjustment{
		Type:      AdjustmentTypeReceipt,
		Items:     []LineItem{{StockRecordID: 1, Delta: i64(2)}},
		CreatedBy: 42,
	})
	require.NoError(t, err)

	require.Len(t, audit.logs, 1)
	require.Equal(t, "inventory:RECEIPT", audit.logs[0].Action)
	require.Equal(t, res.BatchID, audit.logs[0].EntityID)

	require.Len(t, notifier.events, 1)
	evt := notifier.events[0]
	require.Equal(t, res.BatchID, evt.BatchID)
	require.Len(t, evt.Records, 1)
	require.Equal(t, int64(7), evt.Records[0].QuantityAfter)
	require.Equal(t, int64(10), evt.Records[0].VariantID)
	require.Equal(t, int64(2), evt.Records[0].WarehouseID)
}

func TestBulkAdjustAuditFailureDoesNotFailBatch(t *testing.T) {
	repo := newMemoryRepo(StockRecord{ID: 1, Quantity: 5})
	audit := &memoryAudit{err: context.DeadlineExceeded}
	svc := NewService(repo, audit, nil, nil, nil, ServiceConfig{Now: testClock})

	_, err := svc.BulkAdjust(context.Background(), BulkAdjustment{
		Type:  AdjustmentTypeReceipt,
		Items: []LineItem{{StockRecordID: 1, Delta: i64(2)}},
	})
	require.NoError(t, err)
	require.Equal(t, int64(7), repo.records[1].Quantity)
	require.Len(t, audit.logs, 1)
}

func TestBulkAdjustNotifierFailureDoesNotFailBatch(t *testing.T) {
	repo := newMemoryRepo(StockRecord{ID: 1, Quantity: 5})
	notifier := &memoryNotifier{err: context.DeadlineExceeded}
	svc := NewService(repo, nil, notifier, nil, nil, ServiceConfig{Now: testClock})

	_, err := svc.BulkAdjust(context.Background(), BulkAdjustment{
		Type:  AdjustmentTypeReceipt,
		Items: []LineItem{{StockRecordID: 1, Delta: i64(2)}},
	})
	require.NoError(t, err)
	require.Equal(t, int64(7), repo.records[1].Quantity)
}

func TestAdjustSingleRecord(t *testing.T) {
	repo := newMemoryRepo(StockRecord{ID: 1, Quantity: 5})
	svc := newTestService(repo)

	res, err := svc.Adjust(context.Background(), AdjustmentInput{
		StockRecordID: 1,
		Type:          AdjustmentTypeReturn,
		Delta:         i64(2),
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.AffectedCount)
	require.Equal(t, int64(7), repo.records[1].Quantity)
}

func TestListLogRequiresFilter(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	_, err := svc.ListLog(context.Background(), LogFilter{})
	require.ErrorIs(t, err, ErrValidation)
}

func TestListLogByBatch(t *testing.T) {
	repo := newMemoryRepo(StockRecord{ID: 1, Quantity: 5})
	svc := newTestService(repo)

	res, err := svc.BulkAdjust(context.Background(), BulkAdjustment{
		Type:  AdjustmentTypeReceipt,
		Items: []LineItem{{StockRecordID: 1, Delta: i64(2)}},
	})
	require.NoError(t, err)

	entries, err := svc.ListLog(context.Background(), LogFilter{BatchID: res.BatchID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, res.BatchID, entries[0].BatchID)
}

func TestBulkAdjustConcurrentDisjointBatches(t *testing.T) {
	repo := newMemoryRepo(
		StockRecord{ID: 1, Quantity: 10},
		StockRecord{ID: 2, Quantity: 20},
	)
	svc := newTestService(repo)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, item := range []LineItem{
		{StockRecordID: 1, Delta: i64(5)},
		{StockRecordID: 2, Delta: i64(-5)},
	} {
		wg.Add(1)
		go func(i int, item LineItem) {
			defer wg.Done()
			_, errs[i] = svc.BulkAdjust(context.Background(), BulkAdjustment{
				Type:  AdjustmentTypeCorrection,
				Items: []LineItem{item},
			})
		}(i, item)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	require.Equal(t, int64(15), repo.records[1].Quantity)
	require.Equal(t, int64(15), repo.records[2].Quantity)
	require.Len(t, repo.entries, 2)
}

func TestBulkAdjustSequentialBatchesChain(t *testing.T) {
	repo := newMemoryRepo(StockRecord{ID: 1, Quantity: 10})
	svc := newTestService(repo)

	_, err := svc.BulkAdjust(context.Background(), BulkAdjustment{
		Type:  AdjustmentTypeReceipt,
		Items: []LineItem{{StockRecordID: 1, Delta: i64(5)}},
	})
	require.NoError(t, err)

	_, err = svc.BulkAdjust(context.Background(), BulkAdjustment{
		Type:  AdjustmentTypeShipment,
		Items: []LineItem{{StockRecordID: 1, Delta: i64(-3)}},
	})
	require.NoError(t, err)

	// The second batch reads the first batch's committed quantity.
	require.Len(t, repo.entries, 2)
	require.Equal(t, repo.entries[0].QuantityAfter, repo.entries[1].QuantityBefore)
	require.Equal(t, int64(12), repo.records[1].Quantity)
}

func TestGetStockRecordNotFound(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	_, err := svc.GetStockRecord(context.Background(), 404)
	require.ErrorIs(t, err, ErrStockRecordNotFound)
}
