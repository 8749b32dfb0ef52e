// Package removeuser удаляет абонента вместе со всеми его подписками.
package removeuser

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/broadband-portal/internal/http/middlewarectx"
	"github.com/magabrotheeeer/broadband-portal/internal/http/response"
	"github.com/magabrotheeeer/broadband-portal/internal/lib/sl"
	adminservice "github.com/magabrotheeeer/broadband-portal/internal/services/admin"
)

// Service удаляет абонента.
type Service interface {
	DeleteUser(ctx context.Context, username string) error
}

// Handler обрабатывает DELETE /admin/users/{username}.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Удалить абонента
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param username path string true "Имя пользователя"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse "Нельзя удалить самого себя"
// @Router /admin/users/{username} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.removeuser"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	username := chi.URLParam(r, "username")
	if self, _ := middlewarectx.Username(r.Context()); self == username {
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.ErrorKind(response.KindConflict, "cannot delete own account"))
		return
	}

	err := h.service.DeleteUser(r.Context(), username)
	if errors.Is(err, adminservice.ErrUserNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.ErrorKind(response.KindUserNotFound, "user not found"))
		return
	}
	if err != nil {
		log.Error("failed to delete user", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not delete user"))
		return
	}

	log.Info("user deleted", slog.String("username", username))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"deleted": username,
	}))
}
