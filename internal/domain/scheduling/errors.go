package scheduling

import (
	"errors"
	"fmt"
)

// Error classes. Every typed error below matches exactly one of them through errors.Is.
var (
	ErrValidation = errors.New("scheduling: validation failed")
	ErrConflict   = errors.New("scheduling: occupancy conflict")
	ErrNotFound   = errors.New("scheduling: not found")
	// ErrInvariant marks a caller bug rather than a user mistake.
	ErrInvariant = errors.New("scheduling: invariant violation")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("scheduling: invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("scheduling: %s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ConflictError carries the detector verdict that rejected a proposal.
type ConflictError struct {
	ReservationID string
	Result        ConflictResult
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("scheduling: %s conflict on unit %s: %s", e.Result.Source, e.Result.Candidate.Unit, e.Result.Reason)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

type InvariantViolation struct {
	Op     string
	Detail string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("scheduling: %s: invariant violated: %s", e.Op, e.Detail)
}

func (e *InvariantViolation) Is(target error) bool { return target == ErrInvariant }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func notFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}
