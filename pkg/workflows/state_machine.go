package workflows

import "hackforge/hackathon-portal/hackathon-portal-backend/pkg/apperrors"

// StateMachine enforces entity status transitions
type StateMachine struct {
	entity             string
	allowedTransitions map[string][]string
}

// New creates a state machine for the named entity with the given
// allowed transitions
func New(entity string, transitions map[string][]string) *StateMachine {
	return &StateMachine{entity: entity, allowedTransitions: transitions}
}

// NewSubmissionMachine returns the submission review lifecycle
func NewSubmissionMachine() *StateMachine {
	return New("submission", map[string][]string{
		"draft":        {"submitted"},
		"submitted":    {"under_review"},
		"under_review": {"evaluated"},
		"evaluated":    {"evaluated"}, // re-review overwrites the latest view
	})
}

// NewRegistrationMachine returns organizer-driven registration transitions
func NewRegistrationMachine() *StateMachine {
	return New("registration", map[string][]string{
		"pending":  {"approved", "rejected"},
		"approved": {"rejected", "pending"},
		"rejected": {"pending"},
	})
}

// NewTeamMachine returns the team status transitions allowed for bulk
// updates; completed teams are terminal
func NewTeamMachine() *StateMachine {
	return New("team", map[string][]string{
		"incomplete": {"active", "complete"},
		"active":     {"incomplete", "complete"},
		"complete":   {},
	})
}

// CanTransition checks if a status transition is allowed
func (sm *StateMachine) CanTransition(from, to string) bool {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return false
	}
	for _, allowedTo := range allowed {
		if allowedTo == to {
			return true
		}
	}
	return false
}

// Transition validates a transition and returns a typed error when it
// is not allowed
func (sm *StateMachine) Transition(from, to string) error {
	if !sm.CanTransition(from, to) {
		return &apperrors.InvalidTransition{Entity: sm.entity, From: from, To: to}
	}
	return nil
}

// GetAllowedTransitions returns the allowed next statuses for a given status
func (sm *StateMachine) GetAllowedTransitions(from string) []string {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return []string{}
	}
	return allowed
}
