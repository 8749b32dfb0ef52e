// Package create реализует добавление тарифа администратором.
package create

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/broadband-portal/internal/http/response"
	"github.com/magabrotheeeer/broadband-portal/internal/lib/sl"
	"github.com/magabrotheeeer/broadband-portal/internal/models"
	planservice "github.com/magabrotheeeer/broadband-portal/internal/services/plan"
)

// Service добавляет тариф.
type Service interface {
	Create(ctx context.Context, req models.PlanRequest) (*models.Plan, error)
}

// Handler обрабатывает POST /admin/plans.
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
// @Summary Добавить тариф
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.PlanRequest true "Тариф"
// @Success 201 {object} response.Response{data=models.Plan}
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или цена"
// @Failure 409 {object} response.ErrorResponse "Тариф уже существует"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /admin/plans [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.PlanRequest
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

	plan, err := h.service.Create(r.Context(), req)
	switch {
	case errors.Is(err, planservice.ErrPlanExists):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.ErrorKind(response.KindConflict, "plan already exists"))
		return
	case errors.Is(err, planservice.ErrInvalidPlan):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ErrorKind(response.KindValidation, err.Error()))
		return
	case err != nil:
		log.Error("failed to create plan", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create plan"))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(plan))
}
