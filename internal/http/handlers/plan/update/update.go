// Package update реализует изменение тарифа в каталоге.
// Оформленные ранее подписки сохраняют свои снимки цены и параметров.
package update

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/broadband-portal/internal/http/response"
	"github.com/magabrotheeeer/broadband-portal/internal/lib/sl"
	"github.com/magabrotheeeer/broadband-portal/internal/models"
	planservice "github.com/magabrotheeeer/broadband-portal/internal/services/plan"
)

// Service изменяет тариф.
type Service interface {
	Update(ctx context.Context, name string, upd models.PlanUpdate) (*models.Plan, error)
}

// Handler обрабатывает PATCH /admin/plans/{name}.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Изменить тариф
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param name path string true "Название тарифа"
// @Param request body models.PlanUpdate true "Изменяемые поля"
// @Success 200 {object} response.Response{data=models.Plan}
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /admin/plans/{name} [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.update"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.PlanUpdate
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Warn("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	plan, err := h.service.Update(r.Context(), chi.URLParam(r, "name"), req)
	switch {
	case errors.Is(err, planservice.ErrPlanNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.ErrorKind(response.KindPlanNotFound, "plan not found"))
		return
	case errors.Is(err, planservice.ErrInvalidPlan):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ErrorKind(response.KindValidation, err.Error()))
		return
	case err != nil:
		log.Error("failed to update plan", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not update plan"))
		return
	}

	log.Info("plan updated", slog.String("plan", plan.Name))
	render.JSON(w, r, response.StatusOKWithData(plan))
}
