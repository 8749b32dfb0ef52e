// Package dashboard отдает сводку админ-консоли.
package dashboard

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

// Service собирает сводку.
type Service interface {
	Dashboard(ctx context.Context) (*models.Dashboard, error)
}

// Handler обрабатывает GET /admin/dashboard.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Сводка
// @Description Пользователи, тарифы, активные подписки, выручка за месяц и пять последних подписок.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=models.Dashboard}
// @Failure 403 {object} response.ErrorResponse
// @Router /admin/dashboard [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.dashboard"

	d, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.log.Error("failed to build dashboard",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not build dashboard"))
		return
	}
	render.JSON(w, r, response.StatusOKWithData(d))
}
