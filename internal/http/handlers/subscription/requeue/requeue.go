// Package requeue реализует HTTP-обработчик постановки продления в очередь.
package requeue

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

// Service ставит копию активной подписки в очередь.
type Service interface {
	RequeueRenew(ctx context.Context, username string, id int64) (*models.SubscribeResult, error)
}

// Handler обрабатывает POST /subscriptions/{id}/requeue.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Продлить через очередь
// @Description Создает Queued-копию активной подписки, которая начнется после текущей.
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID активной подписки"
// @Success 201 {object} response.Response{data=models.SubscribeResult}
// @Failure 400 {object} response.ErrorResponse "Некорректный id"
// @Failure 404 {object} response.ErrorResponse "Подписка не найдена"
// @Failure 409 {object} response.ErrorResponse "Подписка не активна"
// @Router /subscriptions/{id}/requeue [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.requeue"

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
	res, err := h.service.RequeueRenew(r.Context(), username, id)
	if err != nil {
		errmap.Write(w, r, log, err)
		return
	}

	log.Info("renewal queued", slog.Int64("source_id", id), slog.Int64("id", res.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(res))
}
