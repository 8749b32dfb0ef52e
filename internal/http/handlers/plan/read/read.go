// Package read отдает один тариф по названию.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/broadband-portal/internal/http/response"
	"github.com/magabrotheeeer/broadband-portal/internal/lib/sl"
	"github.com/magabrotheeeer/broadband-portal/internal/models"
	planservice "github.com/magabrotheeeer/broadband-portal/internal/services/plan"
)

// Service возвращает тариф.
type Service interface {
	Get(ctx context.Context, name string) (*models.Plan, error)
}

// Handler обрабатывает GET /plans/{name}.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Тариф по названию
// @Tags Plans
// @Produce json
// @Param name path string true "Название тарифа"
// @Success 200 {object} response.Response{data=models.Plan}
// @Failure 404 {object} response.ErrorResponse
// @Router /plans/{name} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	name := chi.URLParam(r, "name")
	plan, err := h.service.Get(r.Context(), name)
	if errors.Is(err, planservice.ErrPlanNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.ErrorKind(response.KindPlanNotFound, "plan not found"))
		return
	}
	if err != nil {
		log.Error("failed to get plan", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not get plan"))
		return
	}
	render.JSON(w, r, response.StatusOKWithData(plan))
}
