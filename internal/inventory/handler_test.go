package inventory

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newTestRouter(repo *memoryRepo) chi.Router {
	svc := newTestService(repo)
	handler := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)
	r := chi.NewRouter()
	r.Route("/inventory", handler.MountRoutes)
	return r
}

func TestHandleBulkAdjust(t *testing.T) {
	repo := newMemoryRepo(StockRecord{ID: 1, Quantity: 10})
	router := newTestRouter(repo)

	body := `{"type":"RECEIPT","items":[{"stock_record_id":1,"delta":5}]}`
	req := httptest.NewRequest(http.MethodPost, "/inventory/adjustments/bulk", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor-ID", "42")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var res bulkAdjustResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, 1, res.AffectedCount)
	require.Equal(t, []int64{1}, res.AffectedStockRecordIDs)
	require.Len(t, res.BatchID, 32)
	require.Equal(t, int64(15), repo.records[1].Quantity)
	require.Equal(t, int64(42), repo.entries[0].CreatedBy)
}

func TestHandleBulkAdjustNegativeStockConflict(t *testing.T) {
	repo := newMemoryRepo(StockRecord{ID: 1, Quantity: 5})
	router := newTestRouter(repo)

	body := `{"type":"SHIPMENT","items":[{"stock_record_id":1,"delta":-8}]}`
	req := httptest.NewRequest(http.MethodPost, "/inventory/adjustments/bulk", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, int64(5), repo.records[1].Quantity)
}

func TestHandleBulkAdjustRejectsBadType(t *testing.T) {
	router := newTestRouter(newMemoryRepo())

	body := `{"type":"TELEPORT","items":[{"stock_record_id":1,"delta":1}]}`
	req := httptest.NewRequest(http.MethodPost, "/inventory/adjustments/bulk", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleBulkAdjustRejectsInvalidJSON(t *testing.T) {
	router := newTestRouter(newMemoryRepo())

	req := httptest.NewRequest(http.MethodPost, "/inventory/adjustments/bulk", strings.NewReader("{nope"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAdjustSingle(t *testing.T) {
	repo := newMemoryRepo(StockRecord{ID: 1, Quantity: 12})
	router := newTestRouter(repo)

	body := `{"type":"CORRECTION","stock_record_id":1,"target_quantity":50}`
	req := httptest.NewRequest(http.MethodPost, "/inventory/adjustments", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int64(50), repo.records[1].Quantity)
}

func TestHandleGetStockRecord(t *testing.T) {
	repo := newMemoryRepo(StockRecord{ID: 1, VariantID: 10, WarehouseID: 2, Quantity: 7})
	router := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/inventory/stock-records/1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var res stockRecordResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, int64(7), res.Quantity)

	req = httptest.NewRequest(http.MethodGet, "/inventory/stock-records/404", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleBatchLog(t *testing.T) {
	repo := newMemoryRepo(StockRecord{ID: 1, Quantity: 10})
	router := newTestRouter(repo)

	body := `{"type":"DAMAGE","items":[{"stock_record_id":1,"delta":-2,"note":"crushed box"}]}`
	req := httptest.NewRequest(http.MethodPost, "/inventory/adjustments/bulk", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var res bulkAdjustResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))

	req = httptest.NewRequest(http.MethodGet, "/inventory/adjustments/"+res.BatchID, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []logEntryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	require.Equal(t, int64(-2), entries[0].QuantityDelta)
	require.Equal(t, "crushed box", *entries[0].Note)

	req = httptest.NewRequest(http.MethodGet, "/inventory/adjustments/doesnotexist", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
