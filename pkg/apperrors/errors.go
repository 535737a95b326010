package apperrors

import "fmt"

// ValidationError reports malformed input. It is always raised before
// any state mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed on %q: %s", e.Field, e.Reason)
}

// NewValidation builds a ValidationError for a single field.
func NewValidation(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// InvalidTransition reports a state-machine rule violation.
type InvalidTransition struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidTransition) Error() string {
	return fmt.Sprintf("invalid %s transition from %q to %q", e.Entity, e.From, e.To)
}

// NotFound reports a missing referenced entity.
type NotFound struct {
	Entity string
	ID     string
}

func (e *NotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// ConcurrentModification reports that an entity changed between read
// and write. Callers must re-fetch and retry.
type ConcurrentModification struct {
	Entity string
	ID     string
}

func (e *ConcurrentModification) Error() string {
	return fmt.Sprintf("%s %s was modified concurrently", e.Entity, e.ID)
}
