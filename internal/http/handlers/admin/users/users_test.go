package users

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/broadband-portal/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) ListUsers(ctx context.Context) ([]models.UserSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UserSummary), args.Error(1)
}

func TestUsersHandler(t *testing.T) {
	svc := new(MockService)
	svc.On("ListUsers", mock.Anything).Return([]models.UserSummary{
		{User: models.User{Username: "john_doe", PasswordHash: "secret-hash"}, TotalSubscriptions: 3, ActiveSubscriptions: 1},
	}, nil).Once()

	w := httptest.NewRecorder()
	New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).
		ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/users", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"john_doe"`)
	assert.Contains(t, w.Body.String(), `"total_subscriptions":3`)
	assert.NotContains(t, w.Body.String(), "secret-hash")
}
