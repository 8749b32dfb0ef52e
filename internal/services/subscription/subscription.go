// Package services реализует жизненный цикл подписок: оформление, продление,
// постановку в очередь, отмену, продвижение очереди и истечение сроков.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/broadband-portal/internal/cache"
	"github.com/magabrotheeeer/broadband-portal/internal/config"
	"github.com/magabrotheeeer/broadband-portal/internal/lib/metrics"
	"github.com/magabrotheeeer/broadband-portal/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/broadband-portal/internal/lib/sl"
	"github.com/magabrotheeeer/broadband-portal/internal/models"
	"github.com/magabrotheeeer/broadband-portal/internal/storage"
)

var (
	// ErrNotAuthenticated пользователь не указан или не существует.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrPlanNotFound тарифа нет в каталоге.
	ErrPlanNotFound = errors.New("plan not found")
	// ErrSubscriptionNotFound подписки нет или она принадлежит другому пользователю.
	ErrSubscriptionNotFound = errors.New("subscription not found")
	// ErrInvalidStateTransition действие недопустимо в текущем состоянии подписки.
	ErrInvalidStateTransition = errors.New("invalid state transition")
)

// Repository методы хранилища, нужные жизненному циклу.
type Repository interface {
	GetUser(ctx context.Context, username string) (*models.User, error)
	GetPlan(ctx context.Context, name string) (*models.Plan, error)
	GetActiveSubscription(ctx context.Context, username string) (*models.Subscription, error)
	CreateSubscription(ctx context.Context, sub models.Subscription) (int64, error)
	GetSubscription(ctx context.Context, id int64) (*models.Subscription, error)
	ListSubscriptionsByUser(ctx context.Context, username string) ([]models.Subscription, error)
	RenewSubscription(ctx context.Context, id int64, end time.Time) (*models.Subscription, error)
	ExpireSubscription(ctx context.Context, id int64, at time.Time) (*models.Subscription, error)
	PromoteNext(ctx context.Context, username string, start, end time.Time) (*models.Subscription, error)
	ExpireDue(ctx context.Context, now time.Time) ([]models.Subscription, error)
	DeletePlan(ctx context.Context, name string) ([]string, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Version(ctx context.Context, key string) (int64, error)
	SetIfVersion(ctx context.Context, key string, version int64, value any, expiration time.Duration) (bool, error)
	Invalidate(ctx context.Context, keys ...string) error
}

// EventPublisher публикует события жизненного цикла.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// SubscriptionService менеджер жизненного цикла подписок.
type SubscriptionService struct {
	repo        Repository
	cache       Cache
	events      EventPublisher
	log         *slog.Logger
	period      time.Duration
	cacheTTL    time.Duration
	autoPromote bool
	now         func() time.Time
}

// NewSubscriptionService создает менеджер. events может быть nil, тогда события не публикуются.
func NewSubscriptionService(repo Repository, cache Cache, events EventPublisher, log *slog.Logger, cfg config.Lifecycle) *SubscriptionService {
	return &SubscriptionService{
		repo:        repo,
		cache:       cache,
		events:      events,
		log:         log,
		period:      cfg.BillingPeriod,
		cacheTTL:    cfg.CacheTTL,
		autoPromote: cfg.AutoPromote,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Subscribe оформляет подписку на тариф planName.
// Если активной подписки нет, новая становится Active на один расчетный период,
// иначе она встает в очередь со статусом Queued.
func (s *SubscriptionService) Subscribe(ctx context.Context, username, planName string) (res *models.SubscribeResult, err error) {
	const op = "subscription.Subscribe"
	defer func() { metrics.ObserveOperation("subscribe", err) }()

	if username == "" {
		return nil, ErrNotAuthenticated
	}
	user, err := s.repo.GetUser(ctx, username)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotAuthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	plan, err := s.repo.GetPlan(ctx, planName)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sub := models.Subscription{Username: user.Username, Email: user.Email}
	sub.Snapshot(*plan)

	hasActive, err := s.hasActive(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !hasActive {
		now := s.now()
		end := now.Add(s.period)
		sub.Status = models.StatusActive
		sub.StartDate, sub.EndDate = &now, &end

		sub.ID, err = s.repo.CreateSubscription(ctx, sub)
		switch {
		case err == nil:
			s.afterMutation(ctx, models.EventSubscribed, sub)
			return &models.SubscribeResult{ID: sub.ID, Status: sub.Status}, nil
		case errors.Is(err, storage.ErrActiveExists):
			// параллельный запрос успел активировать подписку первым
			s.log.Info("concurrent activation, queueing instead",
				slog.String("op", op), slog.String("username", username))
		default:
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	sub.Status = models.StatusQueued
	sub.StartDate, sub.EndDate = nil, nil
	sub.ID, err = s.repo.CreateSubscription(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.afterMutation(ctx, models.EventQueued, sub)
	return &models.SubscribeResult{ID: sub.ID, Status: sub.Status}, nil
}

// Renew продлевает активную подписку: окончание становится now + период, без накопления остатка.
func (s *SubscriptionService) Renew(ctx context.Context, username string, id int64) (res *models.Subscription, err error) {
	const op = "subscription.Renew"
	defer func() { metrics.ObserveOperation("renew", err) }()

	sub, err := s.owned(ctx, username, id)
	if err != nil {
		return nil, err
	}
	if !sub.Status.Renewable() {
		return nil, ErrInvalidStateTransition
	}

	renewed, err := s.repo.RenewSubscription(ctx, id, s.now().Add(s.period))
	if errors.Is(err, storage.ErrStateChanged) {
		return nil, ErrInvalidStateTransition
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.afterMutation(ctx, models.EventRenewed, *renewed)
	return renewed, nil
}

// RequeueRenew ставит в очередь продление активной подписки: новая Queued запись
// копирует тариф и цены исходной.
func (s *SubscriptionService) RequeueRenew(ctx context.Context, username string, id int64) (res *models.SubscribeResult, err error) {
	const op = "subscription.RequeueRenew"
	defer func() { metrics.ObserveOperation("requeue_renew", err) }()

	src, err := s.owned(ctx, username, id)
	if err != nil {
		return nil, err
	}
	if !src.Status.Renewable() {
		return nil, ErrInvalidStateTransition
	}

	sub := models.Subscription{
		Username: src.Username,
		Email:    src.Email,
		Plan:     src.Plan,
		Price:    src.Price,
		Speed:    src.Speed,
		Data:     src.Data,
		Status:   models.StatusQueued,
	}
	sub.ID, err = s.repo.CreateSubscription(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.afterMutation(ctx, models.EventRequeued, sub)
	return &models.SubscribeResult{ID: sub.ID, Status: sub.Status}, nil
}

// Cancel переводит Active или Queued подписку в Expired с окончанием now.
// Для уже Expired записи ничего не меняет и возвращает Changed=false.
func (s *SubscriptionService) Cancel(ctx context.Context, username string, id int64) (res *models.CancelResult, err error) {
	const op = "subscription.Cancel"
	defer func() { metrics.ObserveOperation("cancel", err) }()

	sub, err := s.owned(ctx, username, id)
	if err != nil {
		return nil, err
	}

	if sub.Status == models.StatusExpired {
		return &models.CancelResult{Subscription: *sub, Changed: false}, nil
	}
	if !sub.Status.CanTransitionTo(models.StatusExpired) {
		return nil, ErrInvalidStateTransition
	}

	expired, err := s.repo.ExpireSubscription(ctx, id, s.now())
	if errors.Is(err, storage.ErrStateChanged) {
		return nil, ErrInvalidStateTransition
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.afterMutation(ctx, models.EventCancelled, *expired)

	if sub.Status == models.StatusActive && s.autoPromote {
		s.promoteQuietly(ctx, username)
	}
	return &models.CancelResult{Subscription: *expired, Changed: true}, nil
}

// ListByUser возвращает подписки пользователя, разложенные по состояниям.
func (s *SubscriptionService) ListByUser(ctx context.Context, username string) (*models.UserSubscriptions, error) {
	const op = "subscription.ListByUser"
	if username == "" {
		return nil, ErrNotAuthenticated
	}
	log := s.log.With(slog.String("op", op), slog.String("username", username))
	key := cache.UserSubscriptionsKey(username)

	var cached models.UserSubscriptions
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		log.Warn("cache read failed", sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	// Поколение читается до базы: если запись изменят во время чтения, старый список не попадет в кэш.
	version, versionErr := s.cache.Version(ctx, key)
	if versionErr != nil {
		log.Warn("cache version read failed", sl.Err(versionErr))
	}

	subs, err := s.repo.ListSubscriptionsByUser(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	res := models.Partition(subs)
	if versionErr == nil {
		stored, err := s.cache.SetIfVersion(ctx, key, version, res, s.cacheTTL)
		if err != nil {
			log.Warn("cache write failed", sl.Err(err))
		} else if !stored {
			log.Debug("subscriptions changed during read, cache not filled")
		}
	}
	return &res, nil
}

// Promote делает Active самую старую Queued подписку пользователя, если активной нет.
func (s *SubscriptionService) Promote(ctx context.Context, username string) (res *models.Subscription, err error) {
	const op = "subscription.Promote"
	defer func() { metrics.ObserveOperation("promote", err) }()

	if username == "" {
		return nil, ErrNotAuthenticated
	}
	hasActive, err := s.hasActive(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if hasActive {
		return nil, ErrInvalidStateTransition
	}
	return s.promote(ctx, username)
}

// DeletePlan удаляет тариф и отменяет все подписки на него.
func (s *SubscriptionService) DeletePlan(ctx context.Context, planName string) (err error) {
	const op = "subscription.DeletePlan"
	defer func() { metrics.ObserveOperation("delete_plan", err) }()

	usernames, err := s.repo.DeletePlan(ctx, planName)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrPlanNotFound
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	keys := make([]string, 0, len(usernames)+1)
	keys = append(keys, cache.PlanCatalogKey)
	for _, u := range usernames {
		keys = append(keys, cache.UserSubscriptionsKey(u))
	}
	s.invalidate(ctx, keys...)
	s.log.Info("plan deleted",
		slog.String("op", op), slog.String("plan", planName), slog.Int("affected_users", len(usernames)))
	return nil
}

// Sweep переводит в Expired все просроченные активные подписки.
// При включенном автопродвижении владельцу сразу активируется следующая из очереди.
func (s *SubscriptionService) Sweep(ctx context.Context) (expired, promoted int, err error) {
	const op = "subscription.Sweep"
	log := s.log.With(slog.String("op", op))

	subs, err := s.repo.ExpireDue(ctx, s.now())
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}
	for _, sub := range subs {
		s.afterMutation(ctx, models.EventExpired, sub)
		metrics.SweepTransitions.WithLabelValues("expired").Inc()
	}

	if s.autoPromote {
		seen := make(map[string]struct{}, len(subs))
		for _, sub := range subs {
			if _, ok := seen[sub.Username]; ok {
				continue
			}
			seen[sub.Username] = struct{}{}
			if s.promoteQuietly(ctx, sub.Username) {
				promoted++
				metrics.SweepTransitions.WithLabelValues("promoted").Inc()
			}
		}
	}

	if len(subs) > 0 {
		log.Info("sweep finished", slog.Int("expired", len(subs)), slog.Int("promoted", promoted))
	}
	return len(subs), promoted, nil
}

func (s *SubscriptionService) promote(ctx context.Context, username string) (*models.Subscription, error) {
	const op = "subscription.promote"
	now := s.now()
	sub, err := s.repo.PromoteNext(ctx, username, now, now.Add(s.period))
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil, ErrSubscriptionNotFound
	case errors.Is(err, storage.ErrActiveExists):
		return nil, ErrInvalidStateTransition
	case err != nil:
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.afterMutation(ctx, models.EventPromoted, *sub)
	return sub, nil
}

// promoteQuietly продвигает очередь и логирует ошибки вместо возврата.
func (s *SubscriptionService) promoteQuietly(ctx context.Context, username string) bool {
	_, err := s.promote(ctx, username)
	switch {
	case err == nil:
		return true
	case errors.Is(err, ErrSubscriptionNotFound), errors.Is(err, ErrInvalidStateTransition):
		return false
	default:
		s.log.Error("auto promotion failed", slog.String("username", username), sl.Err(err))
		return false
	}
}

// owned возвращает подписку id, если она принадлежит username.
func (s *SubscriptionService) owned(ctx context.Context, username string, id int64) (*models.Subscription, error) {
	const op = "subscription.owned"
	if username == "" {
		return nil, ErrNotAuthenticated
	}
	sub, err := s.repo.GetSubscription(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if sub.Username != username {
		return nil, ErrSubscriptionNotFound
	}
	return sub, nil
}

func (s *SubscriptionService) hasActive(ctx context.Context, username string) (bool, error) {
	_, err := s.repo.GetActiveSubscription(ctx, username)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// afterMutation сбрасывает кэш владельца и публикует событие.
// Ошибки здесь только логируются: изменение уже зафиксировано в базе.
func (s *SubscriptionService) afterMutation(ctx context.Context, event models.EventType, sub models.Subscription) {
	s.invalidate(ctx, cache.UserSubscriptionsKey(sub.Username))

	s.log.Info("subscription changed",
		slog.String("event", string(event)),
		slog.Int64("id", sub.ID),
		slog.String("username", sub.Username),
		slog.String("status", sub.Status.String()))

	if s.events == nil {
		return
	}
	msg := models.NewLifecycleEvent(event, sub, s.now())
	if err := s.events.Publish(ctx, rabbitmq.RoutingKeyLifecycle, msg); err != nil {
		s.log.Warn("failed to publish lifecycle event", slog.String("event", string(event)), sl.Err(err))
	}
}

func (s *SubscriptionService) invalidate(ctx context.Context, keys ...string) {
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.log.Warn("failed to invalidate cache", slog.Any("keys", keys), sl.Err(err))
	}
}
