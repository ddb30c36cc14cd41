package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrNotFound            = errors.New("not found")
	ErrAlreadyApplied      = errors.New("already applied")
	ErrAlreadyInteracted   = errors.New("already interacted")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrValidation          = errors.New("validation error")
	ErrInvalidTransition   = fmt.Errorf("%w: invalid status transition", ErrValidation)
)

// NotFound wraps ErrNotFound with the entity kind and id.
func NotFound(entity string, id interface{}) error {
	return fmt.Errorf("%s %v: %w", entity, id, ErrNotFound)
}

// Validation wraps ErrValidation with a formatted reason.
func Validation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
