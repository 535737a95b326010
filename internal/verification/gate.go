package verification

import (
	"github.com/google/uuid"

	"hackforge/hackathon-portal/hackathon-portal-backend/internal/entities"
)

// Decision is the outcome of an organizer-access evaluation
type Decision string

const (
	DecisionDenied        Decision = "denied"
	DecisionPendingReview Decision = "pending_review"
	DecisionGranted       Decision = "granted"
)

// DenialReason explains a denied decision
type DenialReason string

const (
	ReasonNotSubmitted DenialReason = "not_submitted"
	ReasonRejected     DenialReason = "rejected"
	ReasonInvalidState DenialReason = "invalid_state"
)

// AccessDecision is a read-time value recomputed on every request and
// passed explicitly to consumers; it is never cached as ambient state.
type AccessDecision struct {
	UserID   uuid.UUID    `json:"user_id"`
	Decision Decision     `json:"decision"`
	Reason   DenialReason `json:"reason,omitempty"`
	Feedback string       `json:"feedback,omitempty"`
}

// Granted reports whether the decision allows organizer functionality
func (d AccessDecision) Granted() bool {
	return d.Decision == DecisionGranted
}

// EvaluateAccess decides organizer access from the latest verification
// request for a user. Pure: no side effects, rules checked in order,
// first match wins.
func EvaluateAccess(userID uuid.UUID, latest *entities.VerificationRequest) AccessDecision {
	decision := AccessDecision{UserID: userID}

	switch {
	case latest == nil:
		decision.Decision = DecisionDenied
		decision.Reason = ReasonNotSubmitted
	case latest.Status == entities.VerificationPending:
		decision.Decision = DecisionPendingReview
	case latest.Status == entities.VerificationRejected:
		decision.Decision = DecisionDenied
		decision.Reason = ReasonRejected
		if latest.Feedback != nil {
			decision.Feedback = *latest.Feedback
		}
	case latest.Status == entities.VerificationApproved:
		decision.Decision = DecisionGranted
	default:
		// writers should never produce this state
		decision.Decision = DecisionDenied
		decision.Reason = ReasonInvalidState
	}
	return decision
}
