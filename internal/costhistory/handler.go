package costhistory

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stockpilot-erp/stockpilot/internal/platform/httpx"
)

// ListerPort abstracts the read repository for the handler.
type ListerPort interface {
	List(ctx context.Context, productID int64, limit int) ([]Entry, error)
}

// Handler serves cost history reads.
type Handler struct {
	logger *slog.Logger
	repo   ListerPort
}

// NewHandler creates a new handler.
func NewHandler(logger *slog.Logger, repo ListerPort) *Handler {
	return &Handler{logger: logger, repo: repo}
}

// MountRoutes registers routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{productID}", h.list)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil || productID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid product id")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.repo.List(r.Context(), productID, limit)
	if err != nil {
		h.logger.Error("list cost history", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"history": entries})
}
