package models

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks user-correctable input problems. No mutation is performed.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks operations that reference a missing id.
	ErrNotFound = errors.New("not found")
)

// ValidationError describes which field was rejected and why.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid builds a ValidationError for field.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError names the entity kind and id that could not be resolved.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

func (e NotFoundError) Is(target error) bool { return target == ErrNotFound }

// WarningCode classifies non-blocking consistency warnings.
type WarningCode string

const (
	WarnEggsOverLaid         WarningCode = "eggs_sold_donated_exceed_laid"
	WarnBreedHistoryFallback WarningCode = "breed_count_history_fallback"
	WarnLitterOverAllocated  WarningCode = "litter_dispositions_exceed_size"
	WarnInbreedingRisk       WarningCode = "inbreeding_risk"
)

// Warning is a consistency finding that is reported but never blocks persistence.
type Warning struct {
	Code    WarningCode `json:"code" bson:"code"`
	Subject string      `json:"subject,omitempty" bson:"subject,omitempty"`
	Message string      `json:"message" bson:"message"`
}
