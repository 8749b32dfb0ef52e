// Package list реализует HTTP-обработчик списка подписок пользователя,
// разбитого по статусам.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/broadband-portal/internal/http/handlers/errmap"
	"github.com/magabrotheeeer/broadband-portal/internal/http/middlewarectx"
	"github.com/magabrotheeeer/broadband-portal/internal/http/response"
	"github.com/magabrotheeeer/broadband-portal/internal/models"
)

// Service возвращает подписки пользователя.
type Service interface {
	ListByUser(ctx context.Context, username string) (*models.UserSubscriptions, error)
}

// Handler обрабатывает GET /subscriptions.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Мои подписки
// @Description Активная подписка, очередь по порядку оформления, истекшие и отмененные.
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=models.UserSubscriptions}
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /subscriptions [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	username, _ := middlewarectx.Username(r.Context())
	subs, err := h.service.ListByUser(r.Context(), username)
	if err != nil {
		errmap.Write(w, r, log, err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(subs))
}
