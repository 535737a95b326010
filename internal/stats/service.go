package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"hackforge/hackathon-portal/hackathon-portal-backend/internal/entities"
	"hackforge/hackathon-portal/hackathon-portal-backend/internal/metrics"
)

// Repository loads the entity collections a snapshot derives from
type Repository interface {
	ListRegistrations(ctx context.Context, scope entities.Scope) ([]entities.Registration, error)
	ListTeams(ctx context.Context, scope entities.Scope) ([]entities.Team, error)
	ListSubmissions(ctx context.Context, scope entities.Scope) ([]entities.Submission, error)
}

// SnapshotStore persists refreshed snapshots so warm data survives
// process boundaries. The scheduled worker writes rows; each API
// process reads them when its in-memory cache misses.
type SnapshotStore interface {
	GetStatsSnapshot(ctx context.Context, scopeKey string) (*entities.StatsSnapshot, error)
	UpsertStatsSnapshot(ctx context.Context, snap *entities.StatsSnapshot) error
	DeleteStatsSnapshot(ctx context.Context, scopeKey string) error
}

// Service computes dashboard snapshots on demand, with a TTL cache in
// front. The engine never mutates entity state.
type Service struct {
	repo    Repository
	cache   *SnapshotCache
	persist SnapshotStore
	logger  *zap.Logger
}

// NewService creates a stats service
func NewService(repo Repository, cache *SnapshotCache, logger *zap.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger}
}

// WithPersistence enables the shared snapshot table as a second cache
// tier behind the in-memory one
func (s *Service) WithPersistence(store SnapshotStore) *Service {
	s.persist = store
	return s
}

// Load fetches the collections for a scope as one consistent snapshot
func (s *Service) Load(ctx context.Context, scope entities.Scope) (Collections, error) {
	regs, err := s.repo.ListRegistrations(ctx, scope)
	if err != nil {
		return Collections{}, fmt.Errorf("load registrations: %w", err)
	}
	teams, err := s.repo.ListTeams(ctx, scope)
	if err != nil {
		return Collections{}, fmt.Errorf("load teams: %w", err)
	}
	subs, err := s.repo.ListSubmissions(ctx, scope)
	if err != nil {
		return Collections{}, fmt.Errorf("load submissions: %w", err)
	}
	return Collections{Registrations: regs, Teams: teams, Submissions: subs}, nil
}

// Stats returns the snapshot for a scope and filter, recomputing on
// cache miss
func (s *Service) Stats(ctx context.Context, scope entities.Scope, filter Filter) (Snapshot, error) {
	key := cacheKey(scope, filter)
	if snap, ok := s.cache.Get(key); ok {
		return snap, nil
	}
	if unfiltered(filter) {
		if snap, ok := s.loadPersisted(ctx, scope); ok {
			s.cache.Set(key, snap)
			return snap, nil
		}
	}

	collections, err := s.Load(ctx, scope)
	if err != nil {
		return Snapshot{}, err
	}
	snap := ComputeStats(collections, filter)
	metrics.StatsRecomputed.Inc()
	s.cache.Set(key, snap)
	return snap, nil
}

// Invalidate drops cached and persisted snapshots for a scope after a
// mutation batch
func (s *Service) Invalidate(ctx context.Context, scope entities.Scope) {
	prefix := scopePrefix(scope)
	s.cache.DeleteByPrefix(prefix)
	if s.persist != nil {
		if err := s.persist.DeleteStatsSnapshot(ctx, prefix); err != nil {
			s.logger.Warn("failed to drop persisted snapshot",
				zap.String("scope", prefix), zap.Error(err))
		}
	}
}

// Refresh recomputes the unfiltered snapshot for a scope, re-caching it
// locally and persisting it for other processes
func (s *Service) Refresh(ctx context.Context, scope entities.Scope) error {
	collections, err := s.Load(ctx, scope)
	if err != nil {
		return err
	}
	snap := ComputeStats(collections, Filter{})
	metrics.StatsRecomputed.Inc()
	s.cache.Set(cacheKey(scope, Filter{}), snap)

	if s.persist == nil {
		return nil
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return s.persist.UpsertStatsSnapshot(ctx, &entities.StatsSnapshot{
		ScopeKey:   scopePrefix(scope),
		Data:       datatypes.JSON(data),
		ComputedAt: snap.ComputedAt,
	})
}

func (s *Service) loadPersisted(ctx context.Context, scope entities.Scope) (Snapshot, bool) {
	if s.persist == nil {
		return Snapshot{}, false
	}
	row, err := s.persist.GetStatsSnapshot(ctx, scopePrefix(scope))
	if err != nil {
		s.logger.Warn("failed to load persisted snapshot", zap.Error(err))
		return Snapshot{}, false
	}
	if row == nil || time.Since(row.ComputedAt) > s.cache.TTL() {
		return Snapshot{}, false
	}
	var snap Snapshot
	if err := json.Unmarshal(row.Data, &snap); err != nil {
		s.logger.Warn("corrupt persisted snapshot",
			zap.String("scope", scopePrefix(scope)), zap.Error(err))
		return Snapshot{}, false
	}
	return snap, true
}

func unfiltered(f Filter) bool {
	return f.Status == "" && f.Query == "" && len(f.Skills) == 0
}

func scopePrefix(scope entities.Scope) string {
	switch {
	case scope.HackathonID != nil:
		return "hackathon_" + scope.HackathonID.String()
	case scope.OrganizerID != nil:
		return "organizer_" + scope.OrganizerID.String()
	default:
		return "all"
	}
}

func cacheKey(scope entities.Scope, filter Filter) string {
	return fmt.Sprintf("%s|%s|%s|%s",
		scopePrefix(scope), filter.Status, strings.ToLower(filter.Query),
		strings.ToLower(strings.Join(filter.Skills, ",")))
}

// ScopeForHackathon is a convenience constructor used by handlers
func ScopeForHackathon(id uuid.UUID) entities.Scope {
	return entities.Scope{HackathonID: &id}
}
