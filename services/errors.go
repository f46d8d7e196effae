package services

import (
	"errors"
	"fmt"
)

// Business-rule errors surfaced to the HTTP layer. Persistence failures are
// returned as-is and map to a generic internal error.
var (
	ErrNotFound        = errors.New("resource not found")
	ErrUnauthorized    = errors.New("actor lacks the required capability")
	ErrInvalidState    = errors.New("operation not allowed in current state")
	ErrAlreadyUnlocked = errors.New("project access already unlocked")
)

// ErrMisconfiguration marks a missing coin rule or default badge: a
// deployment defect, not a user error. The request fails but the process
// keeps running.
var ErrMisconfiguration = errors.New("reward configuration missing")

// InsufficientBalanceError reports a failed debit with the amounts involved.
type InsufficientBalanceError struct {
	Required  int
	Available int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient coin balance: need %d, have %d", e.Required, e.Available)
}

// NotFoundError wraps ErrNotFound with the entity involved.
func NotFoundError(entity, id string) error {
	return fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
}

// InvalidStateError wraps ErrInvalidState with a human-readable reason.
func InvalidStateError(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrInvalidState)
}
