// Package userhistory отдает профиль абонента и всю историю его подписок.
package userhistory

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
	adminservice "github.com/magabrotheeeer/broadband-portal/internal/services/admin"
)

// Service возвращает историю абонента.
type Service interface {
	UserHistory(ctx context.Context, username string) (*models.UserHistory, error)
}

// Handler обрабатывает GET /admin/users/{username}.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary История абонента
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param username path string true "Имя пользователя"
// @Success 200 {object} response.Response{data=models.UserHistory}
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/users/{username} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.userhistory"

	history, err := h.service.UserHistory(r.Context(), chi.URLParam(r, "username"))
	if errors.Is(err, adminservice.ErrUserNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.ErrorKind(response.KindUserNotFound, "user not found"))
		return
	}
	if err != nil {
		h.log.Error("failed to load user history",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not load user history"))
		return
	}
	render.JSON(w, r, response.StatusOKWithData(history))
}
