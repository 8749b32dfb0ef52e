// Package cancel реализует HTTP-обработчик отмены подписки.
//
// Active и Queued подписки переводятся в Expired. Повторная отмена уже истекшей
// подписки ничего не меняет и возвращает changed=false.
package cancel

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/broadband-portal/internal/http/handlers/errmap"
	"github.com/magabrotheeeer/broadband-portal/internal/http/middlewarectx"
	"github.com/magabrotheeeer/broadband-portal/internal/http/response"
	"github.com/magabrotheeeer/broadband-portal/internal/lib/sl"
	"github.com/magabrotheeeer/broadband-portal/internal/models"
)

// Service отменяет подписку.
type Service interface {
	Cancel(ctx context.Context, username string, id int64) (*models.CancelResult, error)
}

// Handler обрабатывает POST /subscriptions/{id}/cancel.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Отменить подписку
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID подписки"
// @Success 200 {object} response.Response{data=models.CancelResult}
// @Failure 400 {object} response.ErrorResponse "Некорректный id"
// @Failure 404 {object} response.ErrorResponse "Подписка не найдена"
// @Failure 409 {object} response.ErrorResponse "Подписка отменена удалением тарифа"
// @Router /subscriptions/{id}/cancel [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.cancel"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode id from url"))
		return
	}

	username, _ := middlewarectx.Username(r.Context())
	res, err := h.service.Cancel(r.Context(), username, id)
	if err != nil {
		errmap.Write(w, r, log, err)
		return
	}

	log.Info("cancel handled", slog.Int64("id", id), slog.Bool("changed", res.Changed))
	render.JSON(w, r, response.StatusOKWithData(res))
}
