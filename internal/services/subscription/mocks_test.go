package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/broadband-portal/internal/models"
	"github.com/magabrotheeeer/broadband-portal/internal/storage"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetUser(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *RepoMock) GetPlan(ctx context.Context, name string) (*models.Plan, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *RepoMock) GetActiveSubscription(ctx context.Context, username string) (*models.Subscription, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *RepoMock) CreateSubscription(ctx context.Context, sub models.Subscription) (int64, error) {
	args := m.Called(ctx, sub)
	return args.Get(0).(int64), args.Error(1)
}

func (m *RepoMock) GetSubscription(ctx context.Context, id int64) (*models.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *RepoMock) ListSubscriptionsByUser(ctx context.Context, username string) ([]models.Subscription, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Subscription), args.Error(1)
}

func (m *RepoMock) RenewSubscription(ctx context.Context, id int64, end time.Time) (*models.Subscription, error) {
	args := m.Called(ctx, id, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *RepoMock) ExpireSubscription(ctx context.Context, id int64, at time.Time) (*models.Subscription, error) {
	args := m.Called(ctx, id, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *RepoMock) PromoteNext(ctx context.Context, username string, start, end time.Time) (*models.Subscription, error) {
	args := m.Called(ctx, username, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *RepoMock) ExpireDue(ctx context.Context, now time.Time) ([]models.Subscription, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Subscription), args.Error(1)
}

func (m *RepoMock) DeletePlan(ctx context.Context, name string) ([]string, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Version(ctx context.Context, key string) (int64, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(int64), args.Error(1)
}

func (m *CacheMock) SetIfVersion(ctx context.Context, key string, version int64, value any, expiration time.Duration) (bool, error) {
	args := m.Called(ctx, key, version, value, expiration)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Invalidate(ctx context.Context, keys ...string) error {
	return m.Called(ctx, keys).Error(0)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, message any) error {
	return m.Called(ctx, routingKey, message).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

// memRepo хранилище в памяти с теми же гарантиями, что дает схема PostgreSQL:
// одна Active запись на пользователя и монотонные ID.
type memRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[string]models.User
	plans  map[string]models.Plan
	subs   map[int64]models.Subscription
}

func newMemRepo() *memRepo {
	return &memRepo{
		users: make(map[string]models.User),
		plans: make(map[string]models.Plan),
		subs:  make(map[int64]models.Subscription),
	}
}

func (r *memRepo) GetUser(_ context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &u, nil
}

func (r *memRepo) GetPlan(_ context.Context, name string) (*models.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[name]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &p, nil
}

func (r *memRepo) activeLocked(username string) (models.Subscription, bool) {
	for _, s := range r.subs {
		if s.Username == username && s.Status == models.StatusActive {
			return s, true
		}
	}
	return models.Subscription{}, false
}

func (r *memRepo) GetActiveSubscription(_ context.Context, username string) (*models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.activeLocked(username)
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &s, nil
}

func (r *memRepo) CreateSubscription(_ context.Context, sub models.Subscription) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sub.Status == models.StatusActive {
		if _, ok := r.activeLocked(sub.Username); ok {
			return 0, storage.ErrActiveExists
		}
	}
	r.nextID++
	sub.ID = r.nextID
	r.subs[sub.ID] = sub
	return sub.ID, nil
}

func (r *memRepo) GetSubscription(_ context.Context, id int64) (*models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &s, nil
}

func (r *memRepo) ListSubscriptionsByUser(_ context.Context, username string) ([]models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]models.Subscription, 0)
	for _, s := range r.subs {
		if s.Username == username {
			res = append(res, s)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (r *memRepo) RenewSubscription(_ context.Context, id int64, end time.Time) (*models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[id]
	if !ok || s.Status != models.StatusActive {
		return nil, storage.ErrStateChanged
	}
	s.EndDate = &end
	r.subs[id] = s
	return &s, nil
}

func (r *memRepo) ExpireSubscription(_ context.Context, id int64, at time.Time) (*models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[id]
	if !ok || (s.Status != models.StatusActive && s.Status != models.StatusQueued) {
		return nil, storage.ErrStateChanged
	}
	s.Status = models.StatusExpired
	s.EndDate = &at
	r.subs[id] = s
	return &s, nil
}

func (r *memRepo) PromoteNext(_ context.Context, username string, start, end time.Time) (*models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var next *models.Subscription
	for _, s := range r.subs {
		if s.Username == username && s.Status == models.StatusQueued && (next == nil || s.ID < next.ID) {
			s := s
			next = &s
		}
	}
	if next == nil {
		return nil, storage.ErrNotFound
	}
	if _, ok := r.activeLocked(username); ok {
		return nil, storage.ErrActiveExists
	}
	next.Status = models.StatusActive
	next.StartDate, next.EndDate = &start, &end
	r.subs[next.ID] = *next
	return next, nil
}

func (r *memRepo) ExpireDue(_ context.Context, now time.Time) ([]models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]models.Subscription, 0)
	for id, s := range r.subs {
		if s.Status == models.StatusActive && s.EndDate.Before(now) {
			s.Status = models.StatusExpired
			r.subs[id] = s
			res = append(res, s)
		}
	}
	return res, nil
}

func (r *memRepo) DeletePlan(_ context.Context, name string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plans[name]; !ok {
		return nil, storage.ErrNotFound
	}
	delete(r.plans, name)
	seen := make(map[string]struct{})
	var users []string
	for id, s := range r.subs {
		if s.Plan == name && s.Status != models.StatusCancelled {
			s.Status = models.StatusCancelled
			r.subs[id] = s
			if _, ok := seen[s.Username]; !ok {
				seen[s.Username] = struct{}{}
				users = append(users, s.Username)
			}
		}
	}
	return users, nil
}

func (r *memRepo) activeCount(username string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.subs {
		if s.Username == username && s.Status == models.StatusActive {
			n++
		}
	}
	return n
}

// memCache кэш, который ничего не хранит.
type memCache struct{}

func (memCache) Get(context.Context, string, any) (bool, error) { return false, nil }
func (memCache) Version(context.Context, string) (int64, error) { return 0, nil }
func (memCache) SetIfVersion(context.Context, string, int64, any, time.Duration) (bool, error) {
	return true, nil
}
func (memCache) Invalidate(context.Context, ...string) error { return nil }
