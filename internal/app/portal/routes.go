// Package portal собирает HTTP-приложение портала.
package portal

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/broadband-portal/internal/http/handlers/admin/dashboard"
	"github.com/magabrotheeeer/broadband-portal/internal/http/handlers/admin/planstats"
	"github.com/magabrotheeeer/broadband-portal/internal/http/handlers/admin/removeuser"
	"github.com/magabrotheeeer/broadband-portal/internal/http/handlers/admin/userhistory"
	"github.com/magabrotheeeer/broadband-portal/internal/http/handlers/admin/users"
	"github.com/magabrotheeeer/broadband-portal/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/broadband-portal/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/broadband-portal/internal/http/handlers/health"
	plancreate "github.com/magabrotheeeer/broadband-portal/internal/http/handlers/plan/create"
	planlist "github.com/magabrotheeeer/broadband-portal/internal/http/handlers/plan/list"
	planread "github.com/magabrotheeeer/broadband-portal/internal/http/handlers/plan/read"
	planremove "github.com/magabrotheeeer/broadband-portal/internal/http/handlers/plan/remove"
	planupdate "github.com/magabrotheeeer/broadband-portal/internal/http/handlers/plan/update"
	"github.com/magabrotheeeer/broadband-portal/internal/http/handlers/subscription/cancel"
	sublist "github.com/magabrotheeeer/broadband-portal/internal/http/handlers/subscription/list"
	"github.com/magabrotheeeer/broadband-portal/internal/http/handlers/subscription/promote"
	"github.com/magabrotheeeer/broadband-portal/internal/http/handlers/subscription/renew"
	"github.com/magabrotheeeer/broadband-portal/internal/http/handlers/subscription/requeue"
	"github.com/magabrotheeeer/broadband-portal/internal/http/handlers/subscription/subscribe"
	"github.com/magabrotheeeer/broadband-portal/internal/http/middlewarectx"
	adminservice "github.com/magabrotheeeer/broadband-portal/internal/services/admin"
	authservice "github.com/magabrotheeeer/broadband-portal/internal/services/auth"
	planservice "github.com/magabrotheeeer/broadband-portal/internal/services/plan"
	subservice "github.com/magabrotheeeer/broadband-portal/internal/services/subscription"
)

// Services зависимости, которые нужны маршрутам.
type Services struct {
	Auth         *authservice.AuthService
	Subscription *subservice.SubscriptionService
	Plan         *planservice.PlanService
	Admin        *adminservice.AdminService
	Limiter      *middlewarectx.RateLimiter
	DB           health.Pinger
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
		middlewarectx.Metrics,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, s.Auth).ServeHTTP)
		r.Post("/login", login.New(logger, s.Auth).ServeHTTP)
		r.Get("/plans", planlist.New(logger, s.Plan).ServeHTTP)
		r.Get("/plans/{name}", planread.New(logger, s.Plan).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.Auth, logger))
			r.Use(s.Limiter.Middleware(logger))

			r.Post("/subscriptions", subscribe.New(logger, s.Subscription).ServeHTTP)
			r.Get("/subscriptions", sublist.New(logger, s.Subscription).ServeHTTP)
			r.Post("/subscriptions/promote", promote.New(logger, s.Subscription).ServeHTTP)
			r.Post("/subscriptions/{id}/renew", renew.New(logger, s.Subscription).ServeHTTP)
			r.Post("/subscriptions/{id}/requeue", requeue.New(logger, s.Subscription).ServeHTTP)
			r.Post("/subscriptions/{id}/cancel", cancel.New(logger, s.Subscription).ServeHTTP)

			// Администрирование
			r.Route("/admin", func(r chi.Router) {
				r.Use(middlewarectx.RequireAdmin(logger))

				r.Get("/dashboard", dashboard.New(logger, s.Admin).ServeHTTP)
				r.Post("/plans", plancreate.New(logger, s.Plan).ServeHTTP)
				r.Get("/plans/stats", planstats.New(logger, s.Admin).ServeHTTP)
				r.Patch("/plans/{name}", planupdate.New(logger, s.Plan).ServeHTTP)
				r.Delete("/plans/{name}", planremove.New(logger, s.Plan).ServeHTTP)
				r.Get("/users", users.New(logger, s.Admin).ServeHTTP)
				r.Get("/users/{username}", userhistory.New(logger, s.Admin).ServeHTTP)
				r.Delete("/users/{username}", removeuser.New(logger, s.Admin).ServeHTTP)
			})
		})
	})

	r.Get("/health", health.New(logger, s.DB).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
