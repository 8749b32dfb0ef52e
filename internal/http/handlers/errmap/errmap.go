// Package errmap переводит ошибки жизненного цикла подписки в HTTP-статус и вид ошибки.
package errmap

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/broadband-portal/internal/http/response"
	"github.com/magabrotheeeer/broadband-portal/internal/lib/sl"
	subservice "github.com/magabrotheeeer/broadband-portal/internal/services/subscription"
)

// Lifecycle возвращает статус и тело ответа для известной ошибки.
// ok = false означает внутреннюю ошибку.
func Lifecycle(err error) (status int, resp response.ErrorResponse, ok bool) {
	switch {
	case errors.Is(err, subservice.ErrNotAuthenticated):
		return http.StatusUnauthorized, response.ErrorKind(response.KindNotAuthenticated, "not authenticated"), true
	case errors.Is(err, subservice.ErrPlanNotFound):
		return http.StatusNotFound, response.ErrorKind(response.KindPlanNotFound, "plan not found"), true
	case errors.Is(err, subservice.ErrSubscriptionNotFound):
		return http.StatusNotFound, response.ErrorKind(response.KindSubscriptionNotFound, "subscription not found"), true
	case errors.Is(err, subservice.ErrInvalidStateTransition):
		return http.StatusConflict, response.ErrorKind(response.KindInvalidStateTransition, "operation not allowed in current state"), true
	}
	return http.StatusInternalServerError, response.Error("internal error"), false
}

// Write пишет ответ для ошибки сервиса подписок. Известные ошибки логируются как Warn.
func Write(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	status, resp, ok := Lifecycle(err)
	if ok {
		log.Warn("request rejected", slog.String("kind", resp.Kind), sl.Err(err))
	} else {
		log.Error("request failed", sl.Err(err))
	}
	render.Status(r, status)
	render.JSON(w, r, resp)
}
