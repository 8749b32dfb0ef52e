// Package remove удаляет тариф. Все подписки на него, в любом статусе, становятся Cancelled.
package remove

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
	planservice "github.com/magabrotheeeer/broadband-portal/internal/services/plan"
)

// Service удаляет тариф.
type Service interface {
	Delete(ctx context.Context, name string) error
}

// Handler обрабатывает DELETE /admin/plans/{name}.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Удалить тариф
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param name path string true "Название тарифа"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/plans/{name} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.remove"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	name := chi.URLParam(r, "name")
	err := h.service.Delete(r.Context(), name)
	if errors.Is(err, planservice.ErrPlanNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.ErrorKind(response.KindPlanNotFound, "plan not found"))
		return
	}
	if err != nil {
		log.Error("failed to delete plan", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not delete plan"))
		return
	}

	log.Info("plan deleted", slog.String("plan", name))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"deleted": name,
	}))
}
