package stats

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"hackforge/hackathon-portal/hackathon-portal-backend/internal/entities"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) ListRegistrations(ctx context.Context, scope entities.Scope) ([]entities.Registration, error) {
	args := m.Called(ctx, scope)
	return args.Get(0).([]entities.Registration), args.Error(1)
}

func (m *MockRepository) ListTeams(ctx context.Context, scope entities.Scope) ([]entities.Team, error) {
	args := m.Called(ctx, scope)
	return args.Get(0).([]entities.Team), args.Error(1)
}

func (m *MockRepository) ListSubmissions(ctx context.Context, scope entities.Scope) ([]entities.Submission, error) {
	args := m.Called(ctx, scope)
	return args.Get(0).([]entities.Submission), args.Error(1)
}

// MockSnapshotStore is a mock implementation of the SnapshotStore interface
type MockSnapshotStore struct {
	mock.Mock
}

func (m *MockSnapshotStore) GetStatsSnapshot(ctx context.Context, scopeKey string) (*entities.StatsSnapshot, error) {
	args := m.Called(ctx, scopeKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.StatsSnapshot), args.Error(1)
}

func (m *MockSnapshotStore) UpsertStatsSnapshot(ctx context.Context, snap *entities.StatsSnapshot) error {
	args := m.Called(ctx, snap)
	return args.Error(0)
}

func (m *MockSnapshotStore) DeleteStatsSnapshot(ctx context.Context, scopeKey string) error {
	args := m.Called(ctx, scopeKey)
	return args.Error(0)
}

func fixtureRepo(c Collections) *MockRepository {
	mockRepo := new(MockRepository)
	mockRepo.On("ListRegistrations", mock.Anything, mock.AnythingOfType("entities.Scope")).Return(c.Registrations, nil)
	mockRepo.On("ListTeams", mock.Anything, mock.AnythingOfType("entities.Scope")).Return(c.Teams, nil)
	mockRepo.On("ListSubmissions", mock.Anything, mock.AnythingOfType("entities.Scope")).Return(c.Submissions, nil)
	return mockRepo
}

func TestStatsServesFromCache(t *testing.T) {
	mockRepo := fixtureRepo(dashboardFixture())
	service := NewService(mockRepo, NewSnapshotCache(time.Minute), zap.NewNop())
	scope := ScopeForHackathon(dashboardFixture().Registrations[0].HackathonID)

	first, err := service.Stats(context.Background(), scope, Filter{})
	assert.NoError(t, err)
	second, err := service.Stats(context.Background(), scope, Filter{})
	assert.NoError(t, err)

	assert.Equal(t, first, second)
	mockRepo.AssertNumberOfCalls(t, "ListRegistrations", 1)
}

func TestStatsDistinctFiltersDistinctEntries(t *testing.T) {
	mockRepo := fixtureRepo(dashboardFixture())
	service := NewService(mockRepo, NewSnapshotCache(time.Minute), zap.NewNop())
	scope := entities.Scope{}

	all, err := service.Stats(context.Background(), scope, Filter{})
	assert.NoError(t, err)
	pending, err := service.Stats(context.Background(), scope, Filter{Status: "pending"})
	assert.NoError(t, err)

	assert.Equal(t, 10, all.Total)
	assert.Equal(t, 3, pending.Total)
	mockRepo.AssertNumberOfCalls(t, "ListRegistrations", 2)
}

func TestInvalidateForcesRecompute(t *testing.T) {
	mockRepo := fixtureRepo(dashboardFixture())
	service := NewService(mockRepo, NewSnapshotCache(time.Minute), zap.NewNop())
	scope := entities.Scope{}

	_, err := service.Stats(context.Background(), scope, Filter{})
	assert.NoError(t, err)

	service.Invalidate(context.Background(), scope)

	_, err = service.Stats(context.Background(), scope, Filter{})
	assert.NoError(t, err)
	mockRepo.AssertNumberOfCalls(t, "ListRegistrations", 2)
}

func TestRefreshWarmsCache(t *testing.T) {
	mockRepo := fixtureRepo(dashboardFixture())
	service := NewService(mockRepo, NewSnapshotCache(time.Minute), zap.NewNop())
	scope := entities.Scope{}

	assert.NoError(t, service.Refresh(context.Background(), scope))

	// the unfiltered snapshot is now warm
	_, err := service.Stats(context.Background(), scope, Filter{})
	assert.NoError(t, err)
	mockRepo.AssertNumberOfCalls(t, "ListRegistrations", 1)
}

func TestRefreshPersistsSnapshot(t *testing.T) {
	mockRepo := fixtureRepo(dashboardFixture())
	persist := new(MockSnapshotStore)
	service := NewService(mockRepo, NewSnapshotCache(time.Minute), zap.NewNop()).WithPersistence(persist)

	persist.On("UpsertStatsSnapshot", mock.Anything, mock.MatchedBy(func(row *entities.StatsSnapshot) bool {
		var snap Snapshot
		if err := json.Unmarshal(row.Data, &snap); err != nil {
			return false
		}
		return row.ScopeKey == "all" && snap.Total == 10
	})).Return(nil)

	assert.NoError(t, service.Refresh(context.Background(), entities.Scope{}))
	persist.AssertExpectations(t)
}

func TestStatsServesPersistedSnapshotOnMiss(t *testing.T) {
	// a snapshot refreshed by another process is served from the table
	// without touching the repository
	mockRepo := new(MockRepository)
	persist := new(MockSnapshotStore)
	service := NewService(mockRepo, NewSnapshotCache(time.Minute), zap.NewNop()).WithPersistence(persist)

	data, err := json.Marshal(Snapshot{Total: 7, ComputedAt: time.Now()})
	assert.NoError(t, err)
	persist.On("GetStatsSnapshot", mock.Anything, "all").Return(&entities.StatsSnapshot{
		ScopeKey:   "all",
		Data:       datatypes.JSON(data),
		ComputedAt: time.Now(),
	}, nil)

	snap, err := service.Stats(context.Background(), entities.Scope{}, Filter{})
	assert.NoError(t, err)
	assert.Equal(t, 7, snap.Total)
	mockRepo.AssertNotCalled(t, "ListRegistrations", mock.Anything, mock.Anything)

	// and the second read comes from the in-memory cache
	_, err = service.Stats(context.Background(), entities.Scope{}, Filter{})
	assert.NoError(t, err)
	persist.AssertNumberOfCalls(t, "GetStatsSnapshot", 1)
}

func TestStatsRecomputesWhenPersistedSnapshotStale(t *testing.T) {
	mockRepo := fixtureRepo(dashboardFixture())
	persist := new(MockSnapshotStore)
	service := NewService(mockRepo, NewSnapshotCache(time.Minute), zap.NewNop()).WithPersistence(persist)

	data, err := json.Marshal(Snapshot{Total: 7})
	assert.NoError(t, err)
	persist.On("GetStatsSnapshot", mock.Anything, "all").Return(&entities.StatsSnapshot{
		ScopeKey:   "all",
		Data:       datatypes.JSON(data),
		ComputedAt: time.Now().Add(-time.Hour),
	}, nil)

	snap, err := service.Stats(context.Background(), entities.Scope{}, Filter{})
	assert.NoError(t, err)
	assert.Equal(t, 10, snap.Total)
	mockRepo.AssertNumberOfCalls(t, "ListRegistrations", 1)
}

func TestInvalidateDropsPersistedSnapshot(t *testing.T) {
	mockRepo := fixtureRepo(dashboardFixture())
	persist := new(MockSnapshotStore)
	service := NewService(mockRepo, NewSnapshotCache(time.Minute), zap.NewNop()).WithPersistence(persist)
	scope := entities.Scope{}

	persist.On("DeleteStatsSnapshot", mock.Anything, "all").Return(nil)

	service.Invalidate(context.Background(), scope)
	persist.AssertCalled(t, "DeleteStatsSnapshot", mock.Anything, "all")
}

func TestSnapshotCacheExpiry(t *testing.T) {
	cache := NewSnapshotCache(10 * time.Millisecond)
	cache.Set("k", Snapshot{Total: 1})

	got, ok := cache.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 1, got.Total)

	time.Sleep(20 * time.Millisecond)
	_, ok = cache.Get("k")
	assert.False(t, ok)
}

func TestSnapshotCacheDeleteByPrefix(t *testing.T) {
	cache := NewSnapshotCache(time.Minute)
	cache.Set("hackathon_a|", Snapshot{Total: 1})
	cache.Set("hackathon_a|pending", Snapshot{Total: 2})
	cache.Set("hackathon_b|", Snapshot{Total: 3})

	cache.DeleteByPrefix("hackathon_a")

	_, ok := cache.Get("hackathon_a|")
	assert.False(t, ok)
	_, ok = cache.Get("hackathon_a|pending")
	assert.False(t, ok)
	_, ok = cache.Get("hackathon_b|")
	assert.True(t, ok)
}
