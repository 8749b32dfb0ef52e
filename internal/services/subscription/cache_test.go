package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/broadband-portal/internal/cache"
	"github.com/magabrotheeeer/broadband-portal/internal/config"
	"github.com/magabrotheeeer/broadband-portal/internal/models"
)

// interleavedRepo выполняет duringList один раз сразу после чтения списка из базы,
// до того как сервис положит результат в кэш.
type interleavedRepo struct {
	*memRepo
	duringList func()
}

func (r *interleavedRepo) ListSubscriptionsByUser(ctx context.Context, username string) ([]models.Subscription, error) {
	subs, err := r.memRepo.ListSubscriptionsByUser(ctx, username)
	if hook := r.duringList; hook != nil {
		r.duringList = nil
		hook()
	}
	return subs, err
}

func newRedisCache(t *testing.T) *cache.Cache {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c, err := cache.InitServer(context.Background(), config.RedisConnection{AddressRedis: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestListByUser_CancelDuringReadIsNotCached(t *testing.T) {
	ctx := context.Background()
	mem := newMemRepo()
	mem.users[john.Username] = john
	mem.plans[proPlan.Name] = proPlan
	repo := &interleavedRepo{memRepo: mem}

	s := NewSubscriptionService(repo, newRedisCache(t), nil, newNoopLogger(), lifecycleCfg(false))
	s.now = func() time.Time { return fixedNow }

	res, err := s.Subscribe(ctx, john.Username, proPlan.Name)
	require.NoError(t, err)
	require.Equal(t, models.StatusActive, res.Status)

	repo.duringList = func() {
		cancelled, err := s.Cancel(ctx, john.Username, res.ID)
		require.NoError(t, err)
		require.True(t, cancelled.Changed)
	}

	stale, err := s.ListByUser(ctx, john.Username)
	require.NoError(t, err)
	require.NotNil(t, stale.Active, "the in-flight read saw the record before cancellation")

	fresh, err := s.ListByUser(ctx, john.Username)
	require.NoError(t, err)
	assert.Nil(t, fresh.Active)
	require.Len(t, fresh.Expired, 1)
	assert.Equal(t, res.ID, fresh.Expired[0].ID)
}

func TestListByUser_FillsAndInvalidatesRedis(t *testing.T) {
	ctx := context.Background()
	mem := newMemRepo()
	mem.users[john.Username] = john
	mem.plans[proPlan.Name] = proPlan
	redis := newRedisCache(t)

	s := NewSubscriptionService(mem, redis, nil, newNoopLogger(), lifecycleCfg(false))
	s.now = func() time.Time { return fixedNow }

	res, err := s.Subscribe(ctx, john.Username, proPlan.Name)
	require.NoError(t, err)

	_, err = s.ListByUser(ctx, john.Username)
	require.NoError(t, err)

	var cached models.UserSubscriptions
	found, err := redis.Get(ctx, cache.UserSubscriptionsKey(john.Username), &cached)
	require.NoError(t, err)
	require.True(t, found)
	require.NotNil(t, cached.Active)

	_, err = s.Cancel(ctx, john.Username, res.ID)
	require.NoError(t, err)

	found, err = redis.Get(ctx, cache.UserSubscriptionsKey(john.Username), &cached)
	require.NoError(t, err)
	assert.False(t, found)
}
