package verification

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hackforge/hackathon-portal/hackathon-portal-backend/internal/entities"
	"hackforge/hackathon-portal/hackathon-portal-backend/internal/metrics"
	"hackforge/hackathon-portal/hackathon-portal-backend/internal/notifications"
	"hackforge/hackathon-portal/hackathon-portal-backend/pkg/apperrors"
	"hackforge/hackathon-portal/hackathon-portal-backend/pkg/keylock"
)

// ErrAlreadyPending is returned when a user submits while an active
// request exists
var ErrAlreadyPending = errors.New("a verification request is already active")

const maxProofSize = 5 << 20 // 5MB

var allowedProofMIMEs = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
}

// ProofRef is an opaque reference to an uploaded proof document. The
// core validates only the reference shape, never the bytes.
type ProofRef struct {
	FileRef string `json:"file_ref"`
	MIME    string `json:"mime"`
	Size    int64  `json:"size"`
}

// Repository is the persistence surface the gate mutates through
type Repository interface {
	LatestVerificationRequest(ctx context.Context, userID uuid.UUID) (*entities.VerificationRequest, error)
	GetVerificationRequest(ctx context.Context, id uuid.UUID) (*entities.VerificationRequest, error)
	CreateVerificationRequest(ctx context.Context, req *entities.VerificationRequest) error
	PutVerificationRequest(ctx context.Context, req *entities.VerificationRequest) error
}

// Notifier is the fire-and-forget notification collaborator
type Notifier interface {
	Notify(ctx context.Context, msg notifications.Message)
}

// Service owns verification request writes. Reads (EvaluateAccess) are
// pure and live in gate.go.
type Service struct {
	repo     Repository
	notifier Notifier
	locks    *keylock.KeyLock
	logger   *zap.Logger
}

// NewService creates a verification service
func NewService(repo Repository, notifier Notifier, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		locks:    keylock.New(),
		logger:   logger,
	}
}

// Access evaluates organizer access for a user from current state
func (s *Service) Access(ctx context.Context, userID uuid.UUID) (AccessDecision, error) {
	latest, err := s.repo.LatestVerificationRequest(ctx, userID)
	if err != nil {
		return AccessDecision{}, err
	}
	return EvaluateAccess(userID, latest), nil
}

// SubmitVerification creates a new pending request for a user. A
// rejected request is superseded (kept for audit); an active request
// rejects the submission with ErrAlreadyPending. All validation runs
// before any write.
func (s *Service) SubmitVerification(ctx context.Context, userID uuid.UUID, proof ProofRef) (*entities.VerificationRequest, error) {
	if err := validateProof(proof); err != nil {
		return nil, err
	}

	s.locks.Lock(userID.String())
	defer s.locks.Unlock(userID.String())

	latest, err := s.repo.LatestVerificationRequest(ctx, userID)
	if err != nil {
		return nil, err
	}
	if latest != nil {
		switch latest.Status {
		case entities.VerificationPending, entities.VerificationApproved:
			return nil, ErrAlreadyPending
		case entities.VerificationRejected:
			latest.Superseded = true
			latest.UpdatedAt = time.Now()
			if err := s.repo.PutVerificationRequest(ctx, latest); err != nil {
				return nil, err
			}
		}
	}

	now := time.Now()
	req := &entities.VerificationRequest{
		ID:           uuid.New(),
		UserID:       userID,
		Status:       entities.VerificationPending,
		ProofFileRef: proof.FileRef,
		ProofMIME:    strings.ToLower(proof.MIME),
		ProofSize:    proof.Size,
		SubmittedAt:  now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateVerificationRequest(ctx, req); err != nil {
		return nil, err
	}

	metrics.VerificationSubmitted.Inc()
	s.notifier.Notify(ctx, notifications.Message{
		Kind:       notifications.KindVerificationPending,
		UserID:     &userID,
		EntityType: "verification_request",
		EntityID:   req.ID,
	})
	s.logger.Info("verification request submitted",
		zap.String("user_id", userID.String()), zap.String("request_id", req.ID.String()))
	return req, nil
}

// ReviewVerification applies an organizer decision to a pending
// request. Rejection requires feedback. The notification fires at most
// once, only after the write succeeds.
func (s *Service) ReviewVerification(ctx context.Context, requestID uuid.UUID, approve bool, feedback string) (*entities.VerificationRequest, error) {
	if !approve && strings.TrimSpace(feedback) == "" {
		return nil, apperrors.NewValidation("feedback", "feedback is required when rejecting")
	}

	req, err := s.repo.GetVerificationRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	s.locks.Lock(req.UserID.String())
	defer s.locks.Unlock(req.UserID.String())

	// re-read under the lock
	req, err = s.repo.GetVerificationRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	target := entities.VerificationRejected
	if approve {
		target = entities.VerificationApproved
	}
	if req.Status != entities.VerificationPending {
		return nil, &apperrors.InvalidTransition{
			Entity: "verification request",
			From:   string(req.Status),
			To:     string(target),
		}
	}

	req.Status = target
	if !approve {
		req.Feedback = &feedback
	}
	req.UpdatedAt = time.Now()
	if err := s.repo.PutVerificationRequest(ctx, req); err != nil {
		return nil, err
	}

	metrics.VerificationReviewed.WithLabelValues(string(target)).Inc()
	s.notifier.Notify(ctx, notifications.Message{
		Kind:       notifications.KindVerificationDecided,
		UserID:     &req.UserID,
		EntityType: "verification_request",
		EntityID:   req.ID,
		Payload:    map[string]any{"status": string(target)},
	})
	return req, nil
}

func validateProof(proof ProofRef) error {
	if strings.TrimSpace(proof.FileRef) == "" {
		return apperrors.NewValidation("file_ref", "proof file reference is required")
	}
	if !allowedProofMIMEs[strings.ToLower(proof.MIME)] {
		return apperrors.NewValidation("mime", "proof must be a pdf, jpeg, jpg or png")
	}
	if proof.Size <= 0 {
		return apperrors.NewValidation("size", "proof size must be positive")
	}
	if proof.Size > maxProofSize {
		return apperrors.NewValidation("size", "proof exceeds the 5MB limit")
	}
	return nil
}
