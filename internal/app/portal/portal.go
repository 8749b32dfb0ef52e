package portal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	// описание API для /docs
	_ "github.com/magabrotheeeer/broadband-portal/docs"
	"github.com/magabrotheeeer/broadband-portal/internal/cache"
	"github.com/magabrotheeeer/broadband-portal/internal/config"
	"github.com/magabrotheeeer/broadband-portal/internal/grpc/health"
	"github.com/magabrotheeeer/broadband-portal/internal/http/middlewarectx"
	"github.com/magabrotheeeer/broadband-portal/internal/lib/jwt"
	"github.com/magabrotheeeer/broadband-portal/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/broadband-portal/internal/lib/sl"
	"github.com/magabrotheeeer/broadband-portal/internal/migrations"
	adminservice "github.com/magabrotheeeer/broadband-portal/internal/services/admin"
	authservice "github.com/magabrotheeeer/broadband-portal/internal/services/auth"
	planservice "github.com/magabrotheeeer/broadband-portal/internal/services/plan"
	seedservice "github.com/magabrotheeeer/broadband-portal/internal/services/seed"
	subservice "github.com/magabrotheeeer/broadband-portal/internal/services/subscription"
	"github.com/magabrotheeeer/broadband-portal/internal/storage"
)

const shutdownTimeout = 15 * time.Second

// App HTTP-приложение портала вместе с gRPC health-сервером.
type App struct {
	server *http.Server
	health *health.Server
	logger *slog.Logger
	db     *storage.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New подключает хранилище, кэш и брокер, применяет миграции и заполняет базу начальными данными.
// Без RabbitMQ URL события жизненного цикла не публикуются.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "portal.New"

	db, err := storage.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	a := &App{logger: logger, db: db}

	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		a.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a.cache, err = cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var events subservice.EventPublisher
	if cfg.RabbitMQURL != "" {
		a.conn, err = rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.ch, err = rabbitmq.SetupChannel(a.conn, rabbitmq.NotificationQueues())
		if err != nil {
			a.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		events = rabbitmq.NewPublisher(a.ch)
	} else {
		logger.Warn("rabbitmq url is empty, lifecycle events are not published")
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	subscriptionService := subservice.NewSubscriptionService(db, a.cache, events, logger, cfg.Lifecycle)
	services := Services{
		Auth:         authservice.NewAuthService(db, jwtMaker),
		Subscription: subscriptionService,
		Plan:         planservice.NewPlanService(db, a.cache, subscriptionService, logger, cfg.CacheTTL),
		Admin:        adminservice.NewAdminService(db, a.cache, logger),
		Limiter:      middlewarectx.NewRateLimiter(cfg.RPS, cfg.Burst),
		DB:           db,
	}

	if _, err = seedservice.NewSeedService(db, cfg.AdminPassword, logger).Run(ctx); err != nil {
		a.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, services)

	a.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	a.health = health.New(logger, cfg.AddressGRPC, db)

	return a, nil
}

// Run обслуживает HTTP и gRPC до отмены ctx, затем корректно останавливается.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	healthCtx, stopHealth := context.WithCancel(ctx)
	defer stopHealth()
	healthDone := make(chan struct{})
	go func() {
		defer close(healthDone)
		if err := a.health.Run(healthCtx); err != nil {
			a.logger.Error("gRPC health server stopped", sl.Err(err))
		}
	}()

	var runErr error
	select {
	case runErr = <-errCh:
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		runErr = a.server.Shutdown(timeoutCtx)
	}

	stopHealth()
	<-healthDone
	a.close()
	return runErr
}

func (a *App) close() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close cache", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
