// Package services управляет каталогом тарифов.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/broadband-portal/internal/cache"
	"github.com/magabrotheeeer/broadband-portal/internal/lib/price"
	"github.com/magabrotheeeer/broadband-portal/internal/lib/sl"
	"github.com/magabrotheeeer/broadband-portal/internal/models"
	subservice "github.com/magabrotheeeer/broadband-portal/internal/services/subscription"
	"github.com/magabrotheeeer/broadband-portal/internal/storage"
)

var (
	// ErrPlanNotFound тарифа нет в каталоге.
	ErrPlanNotFound = errors.New("plan not found")
	// ErrPlanExists тариф с таким названием уже есть.
	ErrPlanExists = errors.New("plan already exists")
	// ErrInvalidPlan поля тарифа не прошли проверку.
	ErrInvalidPlan = errors.New("invalid plan")
)

// Repository методы каталога в хранилище.
type Repository interface {
	CreatePlan(ctx context.Context, p models.Plan) error
	GetPlan(ctx context.Context, name string) (*models.Plan, error)
	ListPlans(ctx context.Context) ([]models.Plan, error)
	UpdatePlan(ctx context.Context, p models.Plan) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Version(ctx context.Context, key string) (int64, error)
	SetIfVersion(ctx context.Context, key string, version int64, value any, expiration time.Duration) (bool, error)
	Invalidate(ctx context.Context, keys ...string) error
}

// PlanDeleter удаляет тариф вместе с отменой подписок на него.
type PlanDeleter interface {
	DeletePlan(ctx context.Context, planName string) error
}

// PlanService каталог тарифов с read-through кэшем.
type PlanService struct {
	repo     Repository
	cache    Cache
	deleter  PlanDeleter
	log      *slog.Logger
	cacheTTL time.Duration
}

// NewPlanService создает PlanService.
func NewPlanService(repo Repository, cache Cache, deleter PlanDeleter, log *slog.Logger, cacheTTL time.Duration) *PlanService {
	return &PlanService{repo: repo, cache: cache, deleter: deleter, log: log, cacheTTL: cacheTTL}
}

// List возвращает каталог.
func (s *PlanService) List(ctx context.Context) ([]models.Plan, error) {
	const op = "plan.List"
	log := s.log.With(slog.String("op", op))

	var plans []models.Plan
	found, err := s.cache.Get(ctx, cache.PlanCatalogKey, &plans)
	if err != nil {
		log.Warn("cache read failed", sl.Err(err))
	}
	if found {
		return plans, nil
	}

	version, versionErr := s.cache.Version(ctx, cache.PlanCatalogKey)
	if versionErr != nil {
		log.Warn("cache version read failed", sl.Err(versionErr))
	}

	plans, err = s.repo.ListPlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if versionErr == nil {
		if _, err := s.cache.SetIfVersion(ctx, cache.PlanCatalogKey, version, plans, s.cacheTTL); err != nil {
			log.Warn("cache write failed", sl.Err(err))
		}
	}
	return plans, nil
}

// Get возвращает тариф по названию.
func (s *PlanService) Get(ctx context.Context, name string) (*models.Plan, error) {
	const op = "plan.Get"
	p, err := s.repo.GetPlan(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// Create добавляет тариф.
func (s *PlanService) Create(ctx context.Context, req models.PlanRequest) (*models.Plan, error) {
	const op = "plan.Create"
	category, err := models.NewCategory(req.Category)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPlan, err)
	}
	amount, err := price.Parse(req.Price)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPlan, err)
	}

	p := models.Plan{
		Name:        req.Name,
		Price:       price.Format(amount),
		Speed:       req.Speed,
		Data:        req.Data,
		Category:    category,
		Description: req.Description,
	}
	err = s.repo.CreatePlan(ctx, p)
	if errors.Is(err, storage.ErrPlanExists) {
		return nil, ErrPlanExists
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateCatalog(ctx)
	s.log.Info("plan created", slog.String("op", op), slog.String("plan", p.Name))
	return &p, nil
}

// Update меняет поля тарифа в каталоге. Уже оформленные подписки сохраняют свои снимки.
func (s *PlanService) Update(ctx context.Context, name string, upd models.PlanUpdate) (*models.Plan, error) {
	const op = "plan.Update"
	if upd.Price != nil {
		amount, err := price.Parse(*upd.Price)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPlan, err)
		}
		normalized := price.Format(amount)
		upd.Price = &normalized
	}
	if upd.Category != nil {
		if _, err := models.NewCategory(*upd.Category); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPlan, err)
		}
	}

	cur, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	next := upd.Apply(*cur)
	err = s.repo.UpdatePlan(ctx, next)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateCatalog(ctx)
	return &next, nil
}

// Delete удаляет тариф, переводя все подписки на него в Cancelled.
func (s *PlanService) Delete(ctx context.Context, name string) error {
	const op = "plan.Delete"
	err := s.deleter.DeletePlan(ctx, name)
	if errors.Is(err, subservice.ErrPlanNotFound) {
		return ErrPlanNotFound
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *PlanService) invalidateCatalog(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, cache.PlanCatalogKey); err != nil {
		s.log.Warn("failed to invalidate plan catalog", sl.Err(err))
	}
}
