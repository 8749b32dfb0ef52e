package create

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/broadband-portal/internal/models"
	planservice "github.com/magabrotheeeer/broadband-portal/internal/services/plan"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Create(ctx context.Context, req models.PlanRequest) (*models.Plan, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

const validBody = `{"name":"Gamer Plan","price":"$35","speed":"500 Mbps","data":"Unlimited","category":"Premium"}`

func TestCreateHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "создан",
			body: validBody,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, mock.AnythingOfType("models.PlanRequest")).
					Return(&models.Plan{Name: "Gamer Plan", Price: "$35", Category: models.CategoryPremium}, nil).Once()
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"name":"Gamer Plan"`,
		},
		{
			name:           "неизвестная категория",
			body:           `{"name":"X","price":"$1","speed":"1","data":"1","category":"Gold"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field Category must be one of`,
		},
		{
			name: "дубликат",
			body: validBody,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, mock.Anything).Return(nil, planservice.ErrPlanExists).Once()
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `"kind":"conflict"`,
		},
		{
			name: "нечитаемая цена",
			body: validBody,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, mock.Anything).
					Return(nil, fmt.Errorf("%w: bad price", planservice.ErrInvalidPlan)).Once()
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"kind":"validation"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/admin/plans", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
