package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid status transition")

	ErrOverlap          = fmt.Errorf("%w: time slot overlaps an existing appointment", ErrConflict)
	ErrDuplicateCheckin = fmt.Errorf("%w: a check-in already exists for this plan and date", ErrConflict)
	ErrPlanRequired     = fmt.Errorf("%w: plan_id is required", ErrValidation)
)

// Invalidf wraps ErrValidation with a field-level message.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func Forbiddenf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}
