// Package services заполняет пустую базу начальными данными.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/broadband-portal/internal/lib/password"
	"github.com/magabrotheeeer/broadband-portal/internal/models"
	"github.com/magabrotheeeer/broadband-portal/internal/storage"
)

// AdminUsername имя учетной записи администратора по умолчанию.
const AdminUsername = "admin"

// DefaultPlans тарифы, которые создаются в пустом каталоге.
var DefaultPlans = []models.Plan{
	{Name: "Starter Plan", Price: "$10", Speed: "50 Mbps", Data: "100 GB/month", Category: models.CategoryBasic,
		Description: "Perfect for light browsing & emails."},
	{Name: "Pro Plan", Price: "$25", Speed: "200 Mbps", Data: "Unlimited", Category: models.CategoryStandard,
		Description: "Great for streaming and gaming."},
	{Name: "Ultra Plan", Price: "$50", Speed: "1 Gbps", Data: "Unlimited", Category: models.CategoryPremium,
		Description: "Best for businesses & heavy users."},
	{Name: "Business Basic", Price: "$75", Speed: "500 Mbps", Data: "Unlimited", Category: models.CategoryBusiness,
		Description: "Essential for small businesses."},
	{Name: "Business Pro", Price: "$150", Speed: "1 Gbps", Data: "Unlimited", Category: models.CategoryBusiness,
		Description: "Complete solution for medium businesses."},
}

// Repository методы хранилища для начального заполнения.
type Repository interface {
	CountUsers(ctx context.Context) (int, error)
	CreateUser(ctx context.Context, user models.User) error
	CountPlans(ctx context.Context) (int, error)
	CreatePlan(ctx context.Context, p models.Plan) error
}

// Result что было создано при запуске.
type Result struct {
	AdminCreated bool
	PlansCreated int
}

// SeedService создает администратора и тарифы по умолчанию.
type SeedService struct {
	repo          Repository
	adminPassword string
	log           *slog.Logger
}

// NewSeedService создает SeedService.
func NewSeedService(repo Repository, adminPassword string, log *slog.Logger) *SeedService {
	return &SeedService{repo: repo, adminPassword: adminPassword, log: log}
}

// Run идемпотентен: администратор создается только в базе без пользователей,
// тарифы только в пустом каталоге.
func (s *SeedService) Run(ctx context.Context) (*Result, error) {
	const op = "seed.Run"
	log := s.log.With(slog.String("op", op))
	res := &Result{}

	users, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if users == 0 {
		if err := s.createAdmin(ctx); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		res.AdminCreated = true
		log.Info("admin account created", slog.String("username", AdminUsername))
	}

	plans, err := s.repo.CountPlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if plans == 0 {
		for _, p := range DefaultPlans {
			err := s.repo.CreatePlan(ctx, p)
			if errors.Is(err, storage.ErrPlanExists) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("%s: plan %q: %w", op, p.Name, err)
			}
			res.PlansCreated++
		}
		log.Info("default plans created", slog.Int("count", res.PlansCreated))
	}
	return res, nil
}

func (s *SeedService) createAdmin(ctx context.Context) error {
	hashed, err := password.GetHash(s.adminPassword)
	if err != nil {
		return err
	}
	err = s.repo.CreateUser(ctx, models.User{
		UID:          uuid.NewString(),
		Username:     AdminUsername,
		FullName:     "Admin User",
		Email:        "admin@broadband.com",
		Phone:        "555-0000",
		PasswordHash: hashed,
		Role:         models.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	})
	// параллельный запуск уже создал администратора
	if errors.Is(err, storage.ErrUserExists) {
		return nil
	}
	return err
}
