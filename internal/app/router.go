package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lumi-commerce/lumi-admin/internal/catalog/variants"
	"github.com/lumi-commerce/lumi-admin/internal/catalog/warehouses"
	"github.com/lumi-commerce/lumi-admin/internal/inventory"
	"github.com/lumi-commerce/lumi-admin/internal/observability"
	"github.com/lumi-commerce/lumi-admin/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	InventoryHandler *inventory.Handler
	VariantHandler   *variants.Handler
	WarehouseHandler *warehouses.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/inventory", params.InventoryHandler.MountRoutes)
	if params.VariantHandler != nil {
		r.Route("/catalog/variants", params.VariantHandler.MountRoutes)
	}
	if params.WarehouseHandler != nil {
		r.Route("/catalog/warehouses", params.WarehouseHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
