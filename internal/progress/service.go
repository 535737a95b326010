package progress

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hackforge/hackathon-portal/hackathon-portal-backend/internal/entities"
	"hackforge/hackathon-portal/hackathon-portal-backend/pkg/apperrors"
)

// Repository is the persistence surface the tracker needs
type Repository interface {
	GetHackathon(ctx context.Context, id uuid.UUID) (*entities.Hackathon, error)
	GetTask(ctx context.Context, id uuid.UUID) (*entities.Task, error)
	PutTask(ctx context.Context, task *entities.Task) error
	GetSubmission(ctx context.Context, id uuid.UUID) (*entities.Submission, error)
}

// Service tracks task completion within time-driven phases. Phase
// transitions are never completion-driven: incomplete required tasks
// are a reporting concern, not a gate.
type Service struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a progress service
func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// CompleteTask marks a task completed, stamping the completion time and
// attaching submission evidence when the task type requires it.
// Completing an already-completed task is a no-op.
func (s *Service) CompleteTask(ctx context.Context, taskID uuid.UUID, evidence *uuid.UUID) (*entities.Task, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Completed {
		return task, nil
	}

	if task.RequiresSubmission && evidence == nil {
		return nil, apperrors.NewValidation("evidence", "task requires a submission reference")
	}
	if evidence != nil {
		if _, err := s.repo.GetSubmission(ctx, *evidence); err != nil {
			return nil, err
		}
		task.SubmissionID = evidence
	}

	now := s.now()
	task.Completed = true
	task.CompletedAt = &now
	if err := s.repo.PutTask(ctx, task); err != nil {
		return nil, err
	}
	s.logger.Info("task completed", zap.String("task_id", taskID.String()))
	return task, nil
}

// PhaseReport is the derived progress view for one phase
type PhaseReport struct {
	Phase    entities.Phase       `json:"phase"`
	Status   entities.PhaseStatus `json:"status"`
	Progress float64              `json:"progress"`
}

// HackathonReport is the derived progress view for a whole hackathon
type HackathonReport struct {
	HackathonID     uuid.UUID                `json:"hackathon_id"`
	Status          entities.HackathonStatus `json:"status"`
	CurrentPhaseID  *uuid.UUID               `json:"current_phase_id,omitempty"`
	OverallProgress float64                  `json:"overall_progress"`
	Phases          []PhaseReport            `json:"phases"`
}

// Report derives the full progress view for a hackathon at now
func (s *Service) Report(ctx context.Context, hackathonID uuid.UUID) (*HackathonReport, error) {
	h, err := s.repo.GetHackathon(ctx, hackathonID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	report := &HackathonReport{
		HackathonID:     h.ID,
		Status:          HackathonStatus(h.Phases, now),
		OverallProgress: OverallProgress(h.Phases, now),
	}
	if current := CurrentPhase(h.Phases, now); current != nil {
		report.CurrentPhaseID = &current.ID
	}
	for _, p := range h.Phases {
		report.Phases = append(report.Phases, PhaseReport{
			Phase:    p,
			Status:   PhaseStatus(p, now),
			Progress: PhaseProgress(p),
		})
	}
	return report, nil
}
