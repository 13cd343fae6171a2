package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xrickbrizz/FCEFyN-Planner-sub001/pkg/httputil"

	"github.com/xrickbrizz/FCEFyN-Planner-sub001/internal/service"
)

// StatsHandler handles HTTP requests for professor statistics.
type StatsHandler struct {
	service *service.StatsService
	logger  *slog.Logger
}

// NewStatsHandler creates a new stats HTTP handler.
func NewStatsHandler(svc *service.StatsService, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{
		service: svc,
		logger:  logger,
	}
}

// Get handles GET /api/v1/professors/{professorID}/stats
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	professorID := chi.URLParam(r, "professorID")

	stats, err := h.service.Get(r.Context(), professorID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stats})
}
