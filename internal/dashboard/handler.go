package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stockmaster/stockmaster/internal/platform/httpx"
)

// Handler exposes the dashboard endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/dashboard/stats", h.Stats)
	r.Get("/dashboard/charts", h.Charts)
	r.Get("/dashboard/activity", h.Activity)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStats(r.Context())
	if err != nil {
		h.logger.Error("dashboard stats failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handler) Charts(w http.ResponseWriter, r *http.Request) {
	points, err := h.service.GetCharts(r.Context())
	if err != nil {
		h.logger.Error("dashboard charts failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": points})
}

func (h *Handler) Activity(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.GetActivity(r.Context())
	if err != nil {
		h.logger.Error("dashboard activity failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": items})
}
