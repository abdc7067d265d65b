package stock

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stockpilot-erp/stockpilot/internal/platform/httpx"
)

// Handler manages stock ledger HTTP endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler creates a new handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.query)
	r.Put("/{id}/thresholds", h.updateThresholds)
}

func (h *Handler) query(w http.ResponseWriter, r *http.Request) {
	filter := QueryFilter{Search: r.URL.Query().Get("q")}
	if raw := r.URL.Query().Get("product_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "product_id must be a positive integer")
			return
		}
		filter.ProductID = &id
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			filter.Limit = limit
		}
	}

	views, err := h.service.Query(r.Context(), filter)
	if err != nil {
		h.logger.Error("query stock", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if views == nil {
		views = []EntryView{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"stock": views})
}

type thresholdsRequest struct {
	MinStock float64 `json:"min_stock" validate:"gte=0"`
	MaxStock float64 `json:"max_stock" validate:"gte=0"`
}

func (h *Handler) updateThresholds(w http.ResponseWriter, r *http.Request) {
	entryID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || entryID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid entry id")
		return
	}
	var req thresholdsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	err = h.service.UpdateThresholds(r.Context(), entryID, req.MinStock, req.MaxStock)
	switch {
	case err == nil:
		httpx.JSON(w, http.StatusOK, map[string]any{"updated": true})
	case errors.Is(err, ErrEntryNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInvalidThresholds):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("update thresholds", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
