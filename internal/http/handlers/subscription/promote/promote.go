// Package promote реализует HTTP-обработчик ручной активации следующей подписки из очереди.
package promote

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

// Service активирует самую старую подписку из очереди.
type Service interface {
	Promote(ctx context.Context, username string) (*models.Subscription, error)
}

// Handler обрабатывает POST /subscriptions/promote.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Активировать следующую из очереди
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=models.Subscription}
// @Failure 404 {object} response.ErrorResponse "Очередь пуста"
// @Failure 409 {object} response.ErrorResponse "Уже есть активная подписка"
// @Router /subscriptions/promote [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.promote"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	username, _ := middlewarectx.Username(r.Context())
	sub, err := h.service.Promote(r.Context(), username)
	if err != nil {
		errmap.Write(w, r, log, err)
		return
	}

	log.Info("queued subscription promoted", slog.Int64("id", sub.ID))
	render.JSON(w, r, response.StatusOKWithData(sub))
}
