package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusQueued, StatusActive, true},
		{StatusQueued, StatusExpired, true},
		{StatusActive, StatusExpired, true},
		{StatusActive, StatusCancelled, true},
		{StatusExpired, StatusCancelled, true},
		{StatusActive, StatusQueued, false},
		{StatusExpired, StatusActive, false},
		{StatusExpired, StatusQueued, false},
		{StatusCancelled, StatusActive, false},
		{StatusCancelled, StatusExpired, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestStatus_Renewable(t *testing.T) {
	assert.True(t, StatusActive.Renewable())
	for _, st := range []Status{StatusQueued, StatusExpired, StatusCancelled} {
		assert.False(t, st.Renewable(), st)
	}
}

func TestNewStatus(t *testing.T) {
	st, err := NewStatus("Queued")
	require.NoError(t, err)
	assert.Equal(t, StatusQueued, st)

	_, err = NewStatus("queued")
	assert.Error(t, err)
}

func TestPartition(t *testing.T) {
	now := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	end := now.Add(30 * 24 * time.Hour)
	subs := []Subscription{
		{ID: 1, Status: StatusExpired, StartDate: &now, EndDate: &now},
		{ID: 2, Status: StatusActive, StartDate: &now, EndDate: &end},
		{ID: 3, Status: StatusQueued},
		{ID: 4, Status: StatusCancelled},
		{ID: 5, Status: StatusQueued},
	}

	got := Partition(subs)

	require.NotNil(t, got.Active)
	assert.Equal(t, int64(2), got.Active.ID)
	require.Len(t, got.Queued, 2)
	assert.Equal(t, int64(3), got.Queued[0].ID)
	assert.Equal(t, int64(5), got.Queued[1].ID)
	assert.Len(t, got.Expired, 1)
	assert.Len(t, got.Cancelled, 1)
}

func TestPartition_Empty(t *testing.T) {
	got := Partition(nil)
	assert.Nil(t, got.Active)
	assert.NotNil(t, got.Queued)
	assert.Empty(t, got.Queued)
}

func TestPlanUpdate_Apply(t *testing.T) {
	price := "$30"
	p := Plan{Name: "Pro Plan", Price: "$25", Speed: "200 Mbps", Category: CategoryStandard}

	got := PlanUpdate{Price: &price}.Apply(p)

	assert.Equal(t, "$30", got.Price)
	assert.Equal(t, "200 Mbps", got.Speed)
	assert.Equal(t, "$25", p.Price)
}

func TestNewCategory(t *testing.T) {
	c, err := NewCategory("Business")
	require.NoError(t, err)
	assert.Equal(t, CategoryBusiness, c)

	_, err = NewCategory("Gold")
	assert.Error(t, err)
}
