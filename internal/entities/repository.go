package entities

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hackforge/hackathon-portal/hackathon-portal-backend/pkg/apperrors"
)

// Scope narrows list queries to one hackathon or to every hackathon an
// organizer owns. A zero scope means no restriction.
type Scope struct {
	HackathonID *uuid.UUID
	OrganizerID *uuid.UUID
}

// Store is the gorm-backed persistence layer. Single-entity reads and
// writes are atomic; versioned writes reject stale updates.
type Store struct {
	db *gorm.DB
}

// NewStore wraps a gorm connection
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates or updates the schema for all portal entities
func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(
		&Hackathon{},
		&Phase{},
		&Task{},
		&Registration{},
		&Team{},
		&Submission{},
		&VerificationRequest{},
		&ReviewRecord{},
		&Notification{},
		&StatsSnapshot{},
	)
}

// WithTx runs fn against a transactional store. Used by the bulk
// coordinator so a batch commits or rolls back as one unit.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func notFoundOr(err error, entity string, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &apperrors.NotFound{Entity: entity, ID: id.String()}
	}
	return err
}

// GetHackathon loads a hackathon with its phases and tasks, phases in
// window order
func (s *Store) GetHackathon(ctx context.Context, id uuid.UUID) (*Hackathon, error) {
	var h Hackathon
	err := s.db.WithContext(ctx).
		Preload("Phases", func(db *gorm.DB) *gorm.DB { return db.Order("phase_order ASC") }).
		Preload("Phases.Tasks").
		First(&h, "id = ?", id).Error
	if err != nil {
		return nil, notFoundOr(err, "hackathon", id)
	}
	return &h, nil
}

// ListHackathons returns hackathons in scope
func (s *Store) ListHackathons(ctx context.Context, scope Scope) ([]Hackathon, error) {
	var hackathons []Hackathon
	q := s.db.WithContext(ctx)
	if scope.OrganizerID != nil {
		q = q.Where("organizer_id = ?", *scope.OrganizerID)
	}
	if scope.HackathonID != nil {
		q = q.Where("id = ?", *scope.HackathonID)
	}
	err := q.Order("created_at ASC").Find(&hackathons).Error
	return hackathons, err
}

// GetPhase loads a phase with its tasks
func (s *Store) GetPhase(ctx context.Context, id uuid.UUID) (*Phase, error) {
	var p Phase
	err := s.db.WithContext(ctx).Preload("Tasks").First(&p, "id = ?", id).Error
	if err != nil {
		return nil, notFoundOr(err, "phase", id)
	}
	return &p, nil
}

// GetTask loads a single task
func (s *Store) GetTask(ctx context.Context, id uuid.UUID) (*Task, error) {
	var t Task
	err := s.db.WithContext(ctx).First(&t, "id = ?", id).Error
	if err != nil {
		return nil, notFoundOr(err, "task", id)
	}
	return &t, nil
}

// PutTask saves a task
func (s *Store) PutTask(ctx context.Context, task *Task) error {
	return s.db.WithContext(ctx).Save(task).Error
}

// GetRegistration loads a registration
func (s *Store) GetRegistration(ctx context.Context, id uuid.UUID) (*Registration, error) {
	var r Registration
	err := s.db.WithContext(ctx).First(&r, "id = ?", id).Error
	if err != nil {
		return nil, notFoundOr(err, "registration", id)
	}
	return &r, nil
}

// ListRegistrations returns registrations in scope
func (s *Store) ListRegistrations(ctx context.Context, scope Scope) ([]Registration, error) {
	var regs []Registration
	q := s.db.WithContext(ctx)
	if scope.HackathonID != nil {
		q = q.Where("hackathon_id = ?", *scope.HackathonID)
	}
	if scope.OrganizerID != nil {
		q = q.Where("hackathon_id IN (?)",
			s.db.Model(&Hackathon{}).Select("id").Where("organizer_id = ?", *scope.OrganizerID))
	}
	err := q.Order("created_at ASC").Find(&regs).Error
	return regs, err
}

// CreateRegistration inserts a new participant record
func (s *Store) CreateRegistration(ctx context.Context, reg *Registration) error {
	return s.db.WithContext(ctx).Create(reg).Error
}

// PutRegistration saves a registration with an optimistic version check
func (s *Store) PutRegistration(ctx context.Context, reg *Registration) error {
	return s.putVersioned(ctx, "registration", reg.ID, reg.Version, func(version int) *gorm.DB {
		reg.Version = version
		return s.db.WithContext(ctx).Model(&Registration{}).
			Where("id = ? AND version = ?", reg.ID, version-1).
			Select("*").Omit("id", "created_at").Updates(reg)
	})
}

// DeleteRegistration removes a participant record
func (s *Store) DeleteRegistration(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Delete(&Registration{}, "id = ?", id).Error
}

// GetTeam loads a team with its members
func (s *Store) GetTeam(ctx context.Context, id uuid.UUID) (*Team, error) {
	var t Team
	err := s.db.WithContext(ctx).Preload("Members").First(&t, "id = ?", id).Error
	if err != nil {
		return nil, notFoundOr(err, "team", id)
	}
	return &t, nil
}

// ListTeams returns teams in scope with members preloaded
func (s *Store) ListTeams(ctx context.Context, scope Scope) ([]Team, error) {
	var teams []Team
	q := s.db.WithContext(ctx).Preload("Members")
	if scope.HackathonID != nil {
		q = q.Where("hackathon_id = ?", *scope.HackathonID)
	}
	if scope.OrganizerID != nil {
		q = q.Where("hackathon_id IN (?)",
			s.db.Model(&Hackathon{}).Select("id").Where("organizer_id = ?", *scope.OrganizerID))
	}
	err := q.Order("created_at ASC").Find(&teams).Error
	return teams, err
}

// PutTeam saves a team with an optimistic version check
func (s *Store) PutTeam(ctx context.Context, team *Team) error {
	return s.putVersioned(ctx, "team", team.ID, team.Version, func(version int) *gorm.DB {
		team.Version = version
		return s.db.WithContext(ctx).Model(&Team{}).
			Where("id = ? AND version = ?", team.ID, version-1).
			Select("*").Omit("id", "created_at", "Members").Updates(team)
	})
}

// DeleteTeam removes a team; member registrations are detached, not deleted
func (s *Store) DeleteTeam(ctx context.Context, id uuid.UUID) error {
	if err := s.db.WithContext(ctx).Model(&Registration{}).
		Where("team_id = ?", id).Update("team_id", nil).Error; err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&Team{}, "id = ?", id).Error
}

// GetSubmission loads a submission
func (s *Store) GetSubmission(ctx context.Context, id uuid.UUID) (*Submission, error) {
	var sub Submission
	err := s.db.WithContext(ctx).First(&sub, "id = ?", id).Error
	if err != nil {
		return nil, notFoundOr(err, "submission", id)
	}
	return &sub, nil
}

// GetTeamPhaseSubmission loads the zero-or-one submission a team holds
// for a phase; nil when none exists
func (s *Store) GetTeamPhaseSubmission(ctx context.Context, teamID, phaseID uuid.UUID) (*Submission, error) {
	var sub Submission
	err := s.db.WithContext(ctx).
		First(&sub, "team_id = ? AND phase_id = ?", teamID, phaseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListSubmissions returns submissions in scope
func (s *Store) ListSubmissions(ctx context.Context, scope Scope) ([]Submission, error) {
	var subs []Submission
	q := s.db.WithContext(ctx)
	if scope.HackathonID != nil {
		q = q.Where("phase_id IN (?)",
			s.db.Model(&Phase{}).Select("id").Where("hackathon_id = ?", *scope.HackathonID))
	}
	if scope.OrganizerID != nil {
		q = q.Where("phase_id IN (?)",
			s.db.Model(&Phase{}).Select("id").Where("hackathon_id IN (?)",
				s.db.Model(&Hackathon{}).Select("id").Where("organizer_id = ?", *scope.OrganizerID)))
	}
	err := q.Order("created_at ASC").Find(&subs).Error
	return subs, err
}

// CreateSubmission inserts a new round response
func (s *Store) CreateSubmission(ctx context.Context, sub *Submission) error {
	return s.db.WithContext(ctx).Create(sub).Error
}

// PutSubmission saves a submission with an optimistic version check
func (s *Store) PutSubmission(ctx context.Context, sub *Submission) error {
	return s.putVersioned(ctx, "submission", sub.ID, sub.Version, func(version int) *gorm.DB {
		sub.Version = version
		return s.db.WithContext(ctx).Model(&Submission{}).
			Where("id = ? AND version = ?", sub.ID, version-1).
			Select("*").Omit("id", "created_at").Updates(sub)
	})
}

// LatestVerificationRequest returns the newest non-superseded request
// for a user; nil when the user never submitted one
func (s *Store) LatestVerificationRequest(ctx context.Context, userID uuid.UUID) (*VerificationRequest, error) {
	var req VerificationRequest
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND superseded = false", userID).
		Order("submitted_at DESC").
		First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// GetVerificationRequest loads a request by id
func (s *Store) GetVerificationRequest(ctx context.Context, id uuid.UUID) (*VerificationRequest, error) {
	var req VerificationRequest
	err := s.db.WithContext(ctx).First(&req, "id = ?", id).Error
	if err != nil {
		return nil, notFoundOr(err, "verification request", id)
	}
	return &req, nil
}

// CreateVerificationRequest inserts a new request
func (s *Store) CreateVerificationRequest(ctx context.Context, req *VerificationRequest) error {
	return s.db.WithContext(ctx).Create(req).Error
}

// PutVerificationRequest saves a request with an optimistic version check
func (s *Store) PutVerificationRequest(ctx context.Context, req *VerificationRequest) error {
	return s.putVersioned(ctx, "verification request", req.ID, req.Version, func(version int) *gorm.DB {
		req.Version = version
		return s.db.WithContext(ctx).Model(&VerificationRequest{}).
			Where("id = ? AND version = ?", req.ID, version-1).
			Select("*").Omit("id", "submitted_at").Updates(req)
	})
}

// AppendReviewRecord stores an immutable review history entry
func (s *Store) AppendReviewRecord(ctx context.Context, rec *ReviewRecord) error {
	return s.db.WithContext(ctx).Create(rec).Error
}

// ListReviewRecords returns the history for one submission, oldest first
func (s *Store) ListReviewRecords(ctx context.Context, submissionID uuid.UUID) ([]ReviewRecord, error) {
	var records []ReviewRecord
	err := s.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("reviewed_at ASC").
		Find(&records).Error
	return records, err
}

// CreateNotification records one outbox row per dispatched notification
func (s *Store) CreateNotification(ctx context.Context, n *Notification) error {
	return s.db.WithContext(ctx).Create(n).Error
}

// GetStatsSnapshot returns the persisted snapshot for a scope key, or
// nil when none has been refreshed yet
func (s *Store) GetStatsSnapshot(ctx context.Context, scopeKey string) (*StatsSnapshot, error) {
	var snap StatsSnapshot
	err := s.db.WithContext(ctx).First(&snap, "scope_key = ?", scopeKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// UpsertStatsSnapshot replaces the persisted snapshot for a scope key
func (s *Store) UpsertStatsSnapshot(ctx context.Context, snap *StatsSnapshot) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "scope_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "computed_at", "updated_at"}),
		}).
		Create(snap).Error
}

// DeleteStatsSnapshot drops the persisted snapshot for a scope key
func (s *Store) DeleteStatsSnapshot(ctx context.Context, scopeKey string) error {
	return s.db.WithContext(ctx).
		Where("scope_key = ?", scopeKey).
		Delete(&StatsSnapshot{}).Error
}

// putVersioned bumps the entity version and rejects the write when the
// row no longer carries the version the caller read
func (s *Store) putVersioned(ctx context.Context, entity string, id uuid.UUID, current int, update func(next int) *gorm.DB) error {
	res := update(current + 1)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &apperrors.ConcurrentModification{Entity: entity, ID: id.String()}
	}
	return nil
}
