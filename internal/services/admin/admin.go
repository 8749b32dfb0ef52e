// Package services содержит операции админ-консоли: сводку, статистику тарифов и управление пользователями.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/broadband-portal/internal/cache"
	"github.com/magabrotheeeer/broadband-portal/internal/lib/price"
	"github.com/magabrotheeeer/broadband-portal/internal/lib/sl"
	"github.com/magabrotheeeer/broadband-portal/internal/models"
	"github.com/magabrotheeeer/broadband-portal/internal/storage"
)

const recentLimit = 5

// ErrUserNotFound пользователя нет.
var ErrUserNotFound = errors.New("user not found")

// Repository методы хранилища, нужные админке.
type Repository interface {
	CountUsers(ctx context.Context) (int, error)
	CountPlans(ctx context.Context) (int, error)
	CountActiveSubscriptions(ctx context.Context) (int, error)
	ListPlans(ctx context.Context) ([]models.Plan, error)
	PlanCounts(ctx context.Context) ([]models.PlanCount, error)
	RecentSubscriptions(ctx context.Context, limit int) ([]models.Subscription, error)
	ListUsers(ctx context.Context, role string) ([]models.UserSummary, error)
	GetUser(ctx context.Context, username string) (*models.User, error)
	ListSubscriptionsByUser(ctx context.Context, username string) ([]models.Subscription, error)
	DeleteUser(ctx context.Context, username string) error
}

// Cache инвалидация кэша подписок пользователя.
type Cache interface {
	Invalidate(ctx context.Context, keys ...string) error
}

// AdminService сервис админ-консоли.
type AdminService struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
}

// NewAdminService создает AdminService.
func NewAdminService(repo Repository, cache Cache, log *slog.Logger) *AdminService {
	return &AdminService{repo: repo, cache: cache, log: log}
}

// Dashboard собирает общую сводку.
// Выручка за месяц считается по текущим ценам каталога: цена тарифа × число активных подписок на него.
func (s *AdminService) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	const op = "admin.Dashboard"

	users, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	plans, err := s.repo.CountPlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	active, err := s.repo.CountActiveSubscriptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	stats, err := s.PlanStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	recent, err := s.repo.RecentSubscriptions(ctx, recentLimit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	revenue := decimal.Zero
	for _, st := range stats {
		revenue = revenue.Add(st.Revenue)
	}

	return &models.Dashboard{
		TotalUsers:          users,
		TotalPlans:          plans,
		ActiveSubscriptions: active,
		MonthlyRevenue:      revenue,
		Recent:              recent,
	}, nil
}

// PlanStats возвращает показатели по каждому тарифу каталога.
func (s *AdminService) PlanStats(ctx context.Context) ([]models.PlanStat, error) {
	const op = "admin.PlanStats"

	plans, err := s.repo.ListPlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	counts, err := s.repo.PlanCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	byPlan := make(map[string]models.PlanCount, len(counts))
	for _, c := range counts {
		byPlan[c.Plan] = c
	}

	res := make([]models.PlanStat, 0, len(plans))
	for _, p := range plans {
		c := byPlan[p.Name]
		if _, err := price.Parse(p.Price); err != nil {
			s.log.Warn("plan price is not parseable, counted as zero",
				slog.String("plan", p.Name), sl.Err(err))
		}
		revenue := price.Revenue(p.Price, c.Active)
		cost, profit, margin := price.Profitability(revenue)
		res = append(res, models.PlanStat{
			Plan:                p.Name,
			Price:               p.Price,
			TotalSubscriptions:  c.Total,
			ActiveSubscriptions: c.Active,
			Revenue:             revenue,
			Cost:                cost,
			Profit:              profit,
			ProfitMargin:        margin,
		})
	}
	return res, nil
}

// ListUsers возвращает обычных пользователей со счетчиками подписок.
func (s *AdminService) ListUsers(ctx context.Context) ([]models.UserSummary, error) {
	const op = "admin.ListUsers"
	users, err := s.repo.ListUsers(ctx, models.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

// UserHistory возвращает профиль и всю историю подписок пользователя.
func (s *AdminService) UserHistory(ctx context.Context, username string) (*models.UserHistory, error) {
	const op = "admin.UserHistory"

	u, err := s.repo.GetUser(ctx, username)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	subs, err := s.repo.ListSubscriptionsByUser(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.UserHistory{User: *u, Subscriptions: subs}, nil
}

// DeleteUser удаляет пользователя вместе с его подписками.
func (s *AdminService) DeleteUser(ctx context.Context, username string) error {
	const op = "admin.DeleteUser"

	err := s.repo.DeleteUser(ctx, username)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.Invalidate(ctx, cache.UserSubscriptionsKey(username)); err != nil {
		s.log.Warn("failed to invalidate user cache", slog.String("op", op), sl.Err(err))
	}
	s.log.Info("user deleted", slog.String("op", op), slog.String("username", username))
	return nil
}
