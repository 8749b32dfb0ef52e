// Package services запускает периодические задачи: истечение подписок и напоминания об окончании.
package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/broadband-portal/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/broadband-portal/internal/lib/sl"
	"github.com/magabrotheeeer/broadband-portal/internal/models"
)

// Sweeper переводит просроченные подписки в Expired.
type Sweeper interface {
	Sweep(ctx context.Context) (expired, promoted int, err error)
}

// SubscriptionRepository поиск подписок, которые скоро закончатся.
type SubscriptionRepository interface {
	FindExpiringBetween(ctx context.Context, from, to time.Time) ([]models.ExpiringInfo, error)
}

// Publisher отправляет сообщение в брокер.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// SchedulerService периодически запускает свип и рассылку напоминаний.
type SchedulerService struct {
	sweeper        Sweeper
	repo           SubscriptionRepository
	publisher      Publisher
	log            *slog.Logger
	sweepInterval  time.Duration
	notifyInterval time.Duration
	now            func() time.Time
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(sweeper Sweeper, repo SubscriptionRepository, publisher Publisher, log *slog.Logger,
	sweepInterval, notifyInterval time.Duration) *SchedulerService {
	return &SchedulerService{
		sweeper:        sweeper,
		repo:           repo,
		publisher:      publisher,
		log:            log,
		sweepInterval:  sweepInterval,
		notifyInterval: notifyInterval,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Run выполняет обе задачи сразу и затем по таймерам, пока не отменен ctx.
func (s *SchedulerService) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.every(ctx, s.sweepInterval, func(ctx context.Context) { _ = s.RunSweep(ctx) })
	}()
	go func() {
		defer wg.Done()
		s.every(ctx, s.notifyInterval, func(ctx context.Context) { _ = s.NotifyExpiringTomorrow(ctx) })
	}()
	wg.Wait()
}

func (s *SchedulerService) every(ctx context.Context, interval time.Duration, task func(ctx context.Context)) {
	task(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			task(ctx)
		}
	}
}

// RunSweep выполняет один проход истечения подписок.
func (s *SchedulerService) RunSweep(ctx context.Context) error {
	const op = "scheduler.RunSweep"
	log := s.log.With(slog.String("op", op))

	expired, promoted, err := s.sweeper.Sweep(ctx)
	if err != nil {
		log.Error("sweep failed", sl.Err(err))
		return err
	}
	log.Debug("sweep done", slog.Int("expired", expired), slog.Int("promoted", promoted))
	return nil
}

// NotifyExpiringTomorrow публикует напоминание по каждой активной подписке,
// которая заканчивается в течение следующих суток по UTC. Возвращает число отправленных сообщений.
func (s *SchedulerService) NotifyExpiringTomorrow(ctx context.Context) int {
	const op = "scheduler.NotifyExpiringTomorrow"
	log := s.log.With(slog.String("op", op))

	from := s.now().Truncate(24 * time.Hour).Add(24 * time.Hour)
	to := from.Add(24 * time.Hour)

	infos, err := s.repo.FindExpiringBetween(ctx, from, to)
	if err != nil {
		log.Error("failed to find expiring subscriptions", sl.Err(err))
		return 0
	}
	if len(infos) == 0 {
		log.Info("no expiring subscriptions found")
		return 0
	}

	sent := 0
	for _, info := range infos {
		if err := s.publisher.Publish(ctx, rabbitmq.RoutingKeyUpcoming, info); err != nil {
			log.Error("failed to publish message", slog.Int64("subscription_id", info.ID), sl.Err(err))
			continue
		}
		sent++
	}
	log.Info("expiring subscriptions notified", slog.Int("found", len(infos)), slog.Int("sent", sent))
	return sent
}
