package orders

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stockpilot-erp/stockpilot/internal/observability"
	"github.com/stockpilot-erp/stockpilot/internal/platform/httpx"
	"github.com/stockpilot-erp/stockpilot/internal/sequence"
	"github.com/stockpilot-erp/stockpilot/internal/stock"
)

// Handler manages order HTTP endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	metrics  *observability.Metrics
	validate *validator.Validate
}

// NewHandler creates a new handler. Metrics may be nil.
func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	return &Handler{logger: logger, service: service, metrics: metrics, validate: validator.New()}
}

// MountRoutes registers routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/purchase", h.createPurchase)
	r.Post("/sale", h.createSale)
	r.Get("/{number}", h.getByNumber)
	r.Get("/{series}/{id}", h.get)
	r.Patch("/{series}/{id}", h.updateDetails)
	r.Delete("/{series}/{id}", h.delete)
}

func (h *Handler) createPurchase(w http.ResponseWriter, r *http.Request) {
	var req CreatePurchaseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	details, err := h.service.CreatePurchase(r.Context(), req)
	if err != nil {
		h.respondError(w, "create purchase order", err)
		return
	}
	if h.metrics != nil {
		h.metrics.OrderCreated(string(sequence.SeriesPurchase))
	}
	httpx.JSON(w, http.StatusCreated, details)
}

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var req CreateSaleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	details, err := h.service.CreateSale(r.Context(), req)
	if err != nil {
		h.respondError(w, "create sale order", err)
		return
	}
	if h.metrics != nil {
		h.metrics.OrderCreated(string(sequence.SeriesSale))
	}
	httpx.JSON(w, http.StatusCreated, details)
}

func (h *Handler) getByNumber(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	details, err := h.service.GetByNumber(r.Context(), number)
	if err != nil {
		h.respondError(w, "get order by number", err)
		return
	}
	httpx.JSON(w, http.StatusOK, details)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	series, id, ok := h.pathTarget(w, r)
	if !ok {
		return
	}
	details, err := h.service.Get(r.Context(), series, id)
	if err != nil {
		h.respondError(w, "get order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, details)
}

func (h *Handler) updateDetails(w http.ResponseWriter, r *http.Request) {
	series, id, ok := h.pathTarget(w, r)
	if !ok {
		return
	}
	var req UpdateDetailsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.UpdateDetails(r.Context(), series, id, req); err != nil {
		h.respondError(w, "update order details", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"updated": true})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	series, id, ok := h.pathTarget(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), series, id); err != nil {
		h.respondError(w, "delete order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": true})
}

// pathTarget parses the {series}/{id} route segments. Series accepts the
// lowercase names "purchase" and "sale".
func (h *Handler) pathTarget(w http.ResponseWriter, r *http.Request) (sequence.Series, int64, bool) {
	var series sequence.Series
	switch chi.URLParam(r, "series") {
	case "purchase":
		series = sequence.SeriesPurchase
	case "sale":
		series = sequence.SeriesSale
	default:
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "series must be purchase or sale")
		return "", 0, false
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid order id")
		return "", 0, false
	}
	return series, id, true
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrOrderNotFound),
		errors.Is(err, ErrSupplierNotFound),
		errors.Is(err, ErrCustomerNotFound),
		errors.Is(err, ErrProductNotFound),
		errors.Is(err, ErrLocationNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrEmptyLines),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInvalidPrice),
		errors.Is(err, ErrMissingDate),
		errors.Is(err, sequence.ErrMalformedNumber),
		errors.Is(err, sequence.ErrUnknownSeries):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, stock.ErrInsufficientStock):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Insufficient Stock", err.Error())
	case errors.Is(err, ErrNumberConflict):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
