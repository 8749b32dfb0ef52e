package planstats

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/broadband-portal/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) PlanStats(ctx context.Context) ([]models.PlanStat, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PlanStat), args.Error(1)
}

func TestPlanStatsHandler(t *testing.T) {
	svc := new(MockService)
	svc.On("PlanStats", mock.Anything).Return([]models.PlanStat{
		{Plan: "Pro Plan", Price: "$25", TotalSubscriptions: 3, ActiveSubscriptions: 2, Revenue: decimal.NewFromInt(50)},
	}, nil).Once()

	w := httptest.NewRecorder()
	New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).
		ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/plans/stats", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"active_subscriptions":2`)
	assert.Contains(t, w.Body.String(), `"revenue":"50"`)
}
