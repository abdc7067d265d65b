package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/stockpilot-erp/stockpilot/internal/costhistory"
	"github.com/stockpilot-erp/stockpilot/internal/masterdata"
	"github.com/stockpilot-erp/stockpilot/internal/movements"
	"github.com/stockpilot-erp/stockpilot/internal/observability"
	"github.com/stockpilot-erp/stockpilot/internal/orders"
	"github.com/stockpilot-erp/stockpilot/internal/pricing"
	"github.com/stockpilot-erp/stockpilot/internal/stock"
	"github.com/stockpilot-erp/stockpilot/internal/users"
	"github.com/stockpilot-erp/stockpilot/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	OrdersHandler      *orders.Handler
	MovementsHandler   *movements.Handler
	StockHandler       *stock.Handler
	PricingHandler     *pricing.Handler
	CostHistoryHandler *costhistory.Handler
	MasterDataHandler  *masterdata.Handler
	UsersHandler       *users.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with Stockpilot defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Handle("/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		if params.OrdersHandler != nil {
			api.Route("/orders", params.OrdersHandler.MountRoutes)
		}
		if params.MovementsHandler != nil {
			api.Route("/movements", params.MovementsHandler.MountRoutes)
		}
		if params.StockHandler != nil {
			api.Route("/stock", params.StockHandler.MountRoutes)
		}
		if params.PricingHandler != nil {
			api.Route("/pricing", params.PricingHandler.MountRoutes)
		}
		if params.CostHistoryHandler != nil {
			api.Route("/costs", params.CostHistoryHandler.MountRoutes)
		}
		if params.MasterDataHandler != nil {
			api.Route("/master", params.MasterDataHandler.MountRoutes)
		}
		if params.UsersHandler != nil {
			api.Route("/users", params.UsersHandler.MountRoutes)
		}
		if params.JobHandler != nil {
			api.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
