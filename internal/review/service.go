package review

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hackforge/hackathon-portal/hackathon-portal-backend/internal/entities"
	"hackforge/hackathon-portal/hackathon-portal-backend/internal/metrics"
	"hackforge/hackathon-portal/hackathon-portal-backend/internal/notifications"
	"hackforge/hackathon-portal/hackathon-portal-backend/internal/progress"
	"hackforge/hackathon-portal/hackathon-portal-backend/pkg/apperrors"
	"hackforge/hackathon-portal/hackathon-portal-backend/pkg/keylock"
	"hackforge/hackathon-portal/hackathon-portal-backend/pkg/workflows"
)

// LateSubmissionReason marks reviews of responses that were still draft
// when their phase window closed
const LateSubmissionReason = "LateSubmission"

// Repository is the persistence surface the review engine mutates through
type Repository interface {
	GetSubmission(ctx context.Context, id uuid.UUID) (*entities.Submission, error)
	GetTeamPhaseSubmission(ctx context.Context, teamID, phaseID uuid.UUID) (*entities.Submission, error)
	CreateSubmission(ctx context.Context, sub *entities.Submission) error
	PutSubmission(ctx context.Context, sub *entities.Submission) error
	GetPhase(ctx context.Context, id uuid.UUID) (*entities.Phase, error)
	GetTeam(ctx context.Context, id uuid.UUID) (*entities.Team, error)
	PutTeam(ctx context.Context, team *entities.Team) error
	AppendReviewRecord(ctx context.Context, rec *entities.ReviewRecord) error
	ListReviewRecords(ctx context.Context, submissionID uuid.UUID) ([]entities.ReviewRecord, error)
}

// Notifier is the fire-and-forget notification collaborator
type Notifier interface {
	Notify(ctx context.Context, msg notifications.Message)
}

// Service drives the submission lifecycle draft -> submitted ->
// under_review -> evaluated. Writes are serialized per submission.
type Service struct {
	repo     Repository
	notifier Notifier
	machine  *workflows.StateMachine
	locks    *keylock.KeyLock
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a review service
func NewService(repo Repository, notifier Notifier, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		machine:  workflows.NewSubmissionMachine(),
		locks:    keylock.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// SaveDraft creates or updates a team's draft response for a phase.
// Responses can no longer be edited once the submission leaves draft.
func (s *Service) SaveDraft(ctx context.Context, teamID, phaseID uuid.UUID, responses map[string]string) (*entities.Submission, error) {
	if _, err := s.repo.GetPhase(ctx, phaseID); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetTeamPhaseSubmission(ctx, teamID, phaseID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Status != entities.SubmissionDraft {
			return nil, &apperrors.InvalidTransition{
				Entity: "submission",
				From:   string(existing.Status),
				To:     string(entities.SubmissionDraft),
			}
		}
		s.locks.Lock(existing.ID.String())
		defer s.locks.Unlock(existing.ID.String())

		existing.SetResponses(responses)
		if err := s.repo.PutSubmission(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	sub := &entities.Submission{
		ID:            uuid.New(),
		TeamID:        teamID,
		PhaseID:       phaseID,
		Status:        entities.SubmissionDraft,
		Qualification: entities.QualificationUnset,
	}
	sub.SetResponses(responses)
	if err := s.repo.CreateSubmission(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Submit transitions a draft to submitted, stamps the submission time
// and re-derives the owning team's status
func (s *Service) Submit(ctx context.Context, submissionID uuid.UUID) (*entities.Submission, error) {
	s.locks.Lock(submissionID.String())
	defer s.locks.Unlock(submissionID.String())

	sub, err := s.repo.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if err := s.machine.Transition(string(sub.Status), string(entities.SubmissionSubmitted)); err != nil {
		return nil, err
	}

	now := s.now()
	sub.Status = entities.SubmissionSubmitted
	sub.SubmittedAt = &now
	if err := s.repo.PutSubmission(ctx, sub); err != nil {
		return nil, err
	}

	s.refreshTeamStatus(ctx, sub.TeamID, sub.PhaseID)
	return sub, nil
}

// BeginReview moves a submitted response under review. Calling it on a
// submission already under review or evaluated is a no-op that returns
// the current state.
func (s *Service) BeginReview(ctx context.Context, submissionID uuid.UUID) (*entities.Submission, error) {
	s.locks.Lock(submissionID.String())
	defer s.locks.Unlock(submissionID.String())

	sub, err := s.repo.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	switch sub.Status {
	case entities.SubmissionUnderReview, entities.SubmissionEvaluated:
		return sub, nil
	}
	if err := s.machine.Transition(string(sub.Status), string(entities.SubmissionUnderReview)); err != nil {
		return nil, err
	}

	sub.Status = entities.SubmissionUnderReview
	if err := s.repo.PutSubmission(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// ReviewInput carries a judge's decision
type ReviewInput struct {
	ReviewerID    uuid.UUID              `json:"reviewer_id"`
	Score         *int                   `json:"score,omitempty"`
	Qualification entities.Qualification `json:"qualification"`
	Comments      string                 `json:"comments"`
	AwardType     *string                `json:"award_type,omitempty"`
	AwardTitle    *string                `json:"award_title,omitempty"`
}

// RecordReview transitions a submission to evaluated and stores the
// judge outcome. Re-reviewing an evaluated submission overwrites the
// latest view; every call appends an immutable history record. All
// validation runs before any write.
func (s *Service) RecordReview(ctx context.Context, submissionID uuid.UUID, input ReviewInput) (*entities.Submission, error) {
	if err := validateReview(input); err != nil {
		return nil, err
	}

	s.locks.Lock(submissionID.String())
	defer s.locks.Unlock(submissionID.String())

	sub, err := s.repo.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if err := s.machine.Transition(string(sub.Status), string(entities.SubmissionEvaluated)); err != nil {
		return nil, err
	}

	phase, err := s.repo.GetPhase(ctx, sub.PhaseID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	comments := input.Comments
	qualification := input.Qualification
	if LateSubmissionCheck(sub, phase, now) {
		// late responses are unqualified regardless of the judge input
		qualification = entities.QualificationUnqualified
		if comments != "" {
			comments += "; "
		}
		comments += LateSubmissionReason
	}

	sub.Status = entities.SubmissionEvaluated
	sub.Qualification = qualification
	sub.Score = input.Score
	sub.ReviewedAt = &now
	if comments != "" {
		sub.ReviewComments = &comments
	} else {
		sub.ReviewComments = nil
	}
	if qualification == entities.QualificationQualified {
		sub.AwardType = input.AwardType
		sub.AwardTitle = input.AwardTitle
	} else {
		sub.AwardType = nil
		sub.AwardTitle = nil
	}

	if err := s.repo.PutSubmission(ctx, sub); err != nil {
		return nil, err
	}

	record := &entities.ReviewRecord{
		ID:            uuid.New(),
		SubmissionID:  sub.ID,
		ReviewerID:    input.ReviewerID,
		Score:         input.Score,
		Qualification: qualification,
		AwardType:     sub.AwardType,
		AwardTitle:    sub.AwardTitle,
		ReviewedAt:    now,
	}
	if comments != "" {
		record.Comments = &comments
	}
	if err := s.repo.AppendReviewRecord(ctx, record); err != nil {
		s.logger.Warn("failed to append review record",
			zap.String("submission_id", sub.ID.String()), zap.Error(err))
	}

	metrics.ReviewsRecorded.WithLabelValues(string(qualification)).Inc()
	s.notifier.Notify(ctx, notifications.Message{
		Kind:       notifications.KindReviewCompleted,
		EntityType: "submission",
		EntityID:   sub.ID,
		Payload: map[string]any{
			"qualification": string(qualification),
		},
	})

	s.refreshTeamStatus(ctx, sub.TeamID, sub.PhaseID)
	return sub, nil
}

// ReviewHistory returns the append-only review trail, oldest first
func (s *Service) ReviewHistory(ctx context.Context, submissionID uuid.UUID) ([]entities.ReviewRecord, error) {
	if _, err := s.repo.GetSubmission(ctx, submissionID); err != nil {
		return nil, err
	}
	return s.repo.ListReviewRecords(ctx, submissionID)
}

// LateSubmissionCheck reports whether a submission missed its phase
// window: either still draft after the phase completed, or submitted
// after the window closed. Applied at review time only; time passing
// never mutates state on its own.
func LateSubmissionCheck(sub *entities.Submission, phase *entities.Phase, now time.Time) bool {
	if sub.Status == entities.SubmissionDraft {
		return progress.PhaseStatus(*phase, now) == entities.PhaseCompleted
	}
	return sub.SubmittedAt != nil && sub.SubmittedAt.After(phase.EndAt)
}

// DeriveTeamStatus is the single derivation of team status from the
// member set and the team's current-round submission
func DeriveTeamStatus(team *entities.Team, currentSub *entities.Submission) entities.TeamStatus {
	if len(team.Members) == 0 {
		return entities.TeamIncomplete
	}
	if currentSub != nil && currentSub.Status != entities.SubmissionDraft {
		return entities.TeamComplete
	}
	return entities.TeamActive
}

// refreshTeamStatus re-derives and persists the owning team's status
// after a submission transition. Failures are logged; they never fail
// the submission write that triggered them.
func (s *Service) refreshTeamStatus(ctx context.Context, teamID, phaseID uuid.UUID) {
	team, err := s.repo.GetTeam(ctx, teamID)
	if err != nil {
		s.logger.Warn("failed to load team for status refresh", zap.Error(err))
		return
	}
	currentSub, err := s.repo.GetTeamPhaseSubmission(ctx, teamID, phaseID)
	if err != nil {
		s.logger.Warn("failed to load team submission for status refresh", zap.Error(err))
		return
	}
	derived := DeriveTeamStatus(team, currentSub)
	if derived == team.Status {
		return
	}
	team.Status = derived
	if err := s.repo.PutTeam(ctx, team); err != nil {
		s.logger.Warn("failed to persist derived team status", zap.Error(err))
	}
}

func validateReview(input ReviewInput) error {
	switch input.Qualification {
	case entities.QualificationQualified, entities.QualificationUnqualified:
	default:
		return apperrors.NewValidation("qualification", "qualification is required")
	}
	if input.Score != nil && (*input.Score < 0 || *input.Score > 100) {
		return apperrors.NewValidation("score", "score must be between 0 and 100")
	}
	if input.Qualification != entities.QualificationQualified &&
		(input.AwardType != nil || input.AwardTitle != nil) {
		return apperrors.NewValidation("award_title", "awards require a qualified submission")
	}
	return nil
}
