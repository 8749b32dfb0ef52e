// Package planstats отдает показатели по каждому тарифу.
package planstats

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/broadband-portal/internal/http/response"
	"github.com/magabrotheeeer/broadband-portal/internal/lib/sl"
	"github.com/magabrotheeeer/broadband-portal/internal/models"
)

// Service считает показатели тарифов.
type Service interface {
	PlanStats(ctx context.Context) ([]models.PlanStat, error)
}

// Handler обрабатывает GET /admin/plans/stats.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Статистика тарифов
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.PlanStat}
// @Router /admin/plans/stats [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.planstats"

	stats, err := h.service.PlanStats(r.Context())
	if err != nil {
		h.log.Error("failed to count plan stats",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not count plan stats"))
		return
	}
	render.JSON(w, r, response.StatusOKWithData(stats))
}
