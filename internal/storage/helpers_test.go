package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/broadband-portal/internal/migrations"
	"github.com/magabrotheeeer/broadband-portal/internal/models"
)

// setupTestDB поднимает PostgreSQL в контейнере и применяет миграции.
func setupTestDB(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("portal"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	root, err := filepath.Abs("../..")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(s.DB, filepath.Join(root, "migrations")))
	return s
}

// testDataFactory создает тестовые данные через публичные методы Storage.
type testDataFactory struct {
	t *testing.T
	s *Storage
}

func newTestDataFactory(t *testing.T, s *Storage) *testDataFactory {
	return &testDataFactory{t: t, s: s}
}

func (f *testDataFactory) user(username string) models.User {
	u := models.User{
		UID:          uuid.NewString(),
		Username:     username,
		FullName:     "Test " + username,
		Email:        username + "@example.com",
		Phone:        "555-0101",
		PasswordHash: "hash",
		Role:         models.RoleUser,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(f.t, f.s.CreateUser(context.Background(), u))
	return u
}

func (f *testDataFactory) plan(name, price string) models.Plan {
	p := models.Plan{
		Name:     name,
		Price:    price,
		Speed:    "200 Mbps",
		Data:     "Unlimited",
		Category: models.CategoryStandard,
	}
	require.NoError(f.t, f.s.CreatePlan(context.Background(), p))
	return p
}

func (f *testDataFactory) active(u models.User, p models.Plan, start time.Time, period time.Duration) int64 {
	end := start.Add(period)
	sub := models.Subscription{Username: u.Username, Email: u.Email, Status: models.StatusActive, StartDate: &start, EndDate: &end}
	sub.Snapshot(p)
	id, err := f.s.CreateSubscription(context.Background(), sub)
	require.NoError(f.t, err)
	return id
}

func (f *testDataFactory) queued(u models.User, p models.Plan) int64 {
	sub := models.Subscription{Username: u.Username, Email: u.Email, Status: models.StatusQueued}
	sub.Snapshot(p)
	id, err := f.s.CreateSubscription(context.Background(), sub)
	require.NoError(f.t, err)
	return id
}
