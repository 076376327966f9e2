package inventory

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/lumi-commerce/lumi-admin/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the inventory module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the inventory handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/adjustments/bulk", h.handleBulkAdjust)
	r.Post("/adjustments", h.handleAdjust)
	r.Get("/adjustments/{batchID}", h.handleBatchLog)
	r.Get("/stock-records/{id}", h.handleGetStockRecord)
	r.Get("/stock-records/{id}/adjustments", h.handleRecordLog)
}

func (h *Handler) handleBulkAdjust(w http.ResponseWriter, r *http.Request) {
	var req bulkAdjustRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	result, err := h.service.BulkAdjust(r.Context(), req.toDomain(actorID(r)))
	if err != nil {
		h.respondAdjustError(w, err, "bulk adjust failed")
		return
	}
	h.logger.Info("bulk adjustment committed",
		slog.String("batch_id", result.BatchID),
		slog.Int("affected", result.AffectedCount))
	httpx.JSON(w, http.StatusOK, toBulkResponse(result))
}

func (h *Handler) handleAdjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	result, err := h.service.Adjust(r.Context(), req.toDomain(actorID(r)))
	if err != nil {
		h.respondAdjustError(w, err, "adjust failed")
		return
	}
	httpx.JSON(w, http.StatusOK, toBulkResponse(result))
}

func (h *Handler) handleGetStockRecord(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "stock record id must be numeric")
		return
	}
	rec, err := h.service.GetStockRecord(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrStockRecordNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "stock record not found")
			return
		}
		h.logger.Error("get stock record failed", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toStockRecordResponse(rec))
}

func (h *Handler) handleRecordLog(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "stock record id must be numeric")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.service.ListLog(r.Context(), LogFilter{StockRecordID: id, Limit: limit})
	if err != nil {
		h.logger.Error("list record adjustments failed", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toLogEntryResponses(entries))
}

func (h *Handler) handleBatchLog(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")
	entries, err := h.service.ListLog(r.Context(), LogFilter{BatchID: batchID})
	if err != nil {
		h.logger.Error("list batch adjustments failed", slog.String("batch_id", batchID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if len(entries) == 0 {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no adjustments for batch")
		return
	}
	httpx.JSON(w, http.StatusOK, toLogEntryResponses(entries))
}

func (h *Handler) respondAdjustError(w http.ResponseWriter, err error, msg string) {
	var negErr *NegativeStockError
	switch {
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.As(err, &negErr):
		httpx.Problem(w, http.StatusConflict, "Negative Stock", negErr.Error())
	case errors.Is(err, ErrContention):
		w.Header().Set("Retry-After", "1")
		httpx.Problem(w, http.StatusServiceUnavailable, "Contention", "stock records are locked by another batch, retry")
	default:
		h.logger.Error(msg, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

// actorID reads the authenticated admin id forwarded by the gateway.
// Authentication itself lives outside this service.
func actorID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(r.Header.Get("X-Actor-ID"), 10, 64)
	return id
}
