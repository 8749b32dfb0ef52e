// Package scheduler содержит приложение планировщика: свип истекших подписок и напоминания.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/broadband-portal/internal/cache"
	"github.com/magabrotheeeer/broadband-portal/internal/config"
	"github.com/magabrotheeeer/broadband-portal/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/broadband-portal/internal/lib/sl"
	schedulerservice "github.com/magabrotheeeer/broadband-portal/internal/services/scheduler"
	subservice "github.com/magabrotheeeer/broadband-portal/internal/services/subscription"
	"github.com/magabrotheeeer/broadband-portal/internal/storage"
)

const (
	dbRetries    = 10
	dbRetryDelay = 3 * time.Second
)

// App представляет приложение планировщика.
type App struct {
	schedulerService *schedulerservice.SchedulerService
	db               *storage.Storage
	cache            *cache.Cache
	conn             *amqp.Connection
	ch               *amqp.Channel
	logger           *slog.Logger
}

// waitForDB ждет, пока база станет доступна: планировщик может стартовать раньше нее.
func waitForDB(ctx context.Context, dsn string, logger *slog.Logger) (*storage.Storage, error) {
	var lastErr error
	for attempt := 1; attempt <= dbRetries; attempt++ {
		db, err := storage.New(ctx, dsn)
		if err == nil {
			return db, nil
		}
		lastErr = err
		logger.Warn("database not ready", slog.Int("attempt", attempt), sl.Err(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(dbRetryDelay):
		}
	}
	return nil, fmt.Errorf("database not ready after retries: %w", lastErr)
}

// New создает новый экземпляр приложения планировщика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{logger: logger}

	var err error
	a.conn, err = rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	a.ch, err = rabbitmq.SetupChannel(a.conn, rabbitmq.NotificationQueues())
	if err != nil {
		a.closeResources()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	a.db, err = waitForDB(ctx, cfg.StorageConnectionString, logger)
	if err != nil {
		a.closeResources()
		return nil, err
	}

	a.cache, err = cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		a.closeResources()
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	publisher := rabbitmq.NewPublisher(a.ch)
	subscriptionService := subservice.NewSubscriptionService(a.db, a.cache, publisher, logger, cfg.Lifecycle)
	a.schedulerService = schedulerservice.NewSchedulerService(subscriptionService, a.db, publisher, logger,
		cfg.SweepInterval, cfg.NotifyInterval)

	return a, nil
}

func (a *App) closeResources() {
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
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("failed to close storage", sl.Err(err))
		}
	}
}

// Run запускает планировщик и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	a.schedulerService.Run(ctx)

	a.logger.Info("shutting down scheduler service")
	a.closeResources()
	return nil
}
