package removeuser

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/broadband-portal/internal/http/middlewarectx"
	adminservice "github.com/magabrotheeeer/broadband-portal/internal/services/admin"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) DeleteUser(ctx context.Context, username string) error {
	return m.Called(ctx, username).Error(0)
}

func TestRemoveUserHandler(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "удален",
			target: "john_doe",
			setupMock: func(m *MockService) {
				m.On("DeleteUser", mock.Anything, "john_doe").Return(nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"deleted":"john_doe"`,
		},
		{
			name:   "не найден",
			target: "ghost",
			setupMock: func(m *MockService) {
				m.On("DeleteUser", mock.Anything, "ghost").Return(adminservice.ErrUserNotFound).Once()
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"kind":"user_not_found"`,
		},
		{
			name:           "себя удалить нельзя",
			target:         "admin",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusConflict,
			expectedBody:   `cannot delete own account`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodDelete, "/admin/users/"+tt.target, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("username", tt.target)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			req = req.WithContext(context.WithValue(ctx, middlewarectx.User, "admin"))

			w := httptest.NewRecorder()
			New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
