package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/terra-clan/symposium-registry/internal/models"
	"github.com/terra-clan/symposium-registry/internal/storage"
	"github.com/terra-clan/symposium-registry/internal/validation"
)

var (
	ErrMaintenance          = errors.New("site is in maintenance mode")
	ErrDraftNotFound        = errors.New("registration draft not found or expired")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrNotFound             = errors.New("registration not found")
	ErrNoEventSelection     = errors.New("registration has no event selection")
)

// RemoteError is returned when a store call fails; the caller's input is kept for a retry
type RemoteError = storage.RemoteError

// ClosedReason explains why a variant does not accept registrations
type ClosedReason string

const (
	ReasonClosed   ClosedReason = "closed"
	ReasonFull     ClosedReason = "full"
	ReasonDeadline ClosedReason = "deadline"
)

// ClosedError is the terminal gating rejection
type ClosedError struct {
	Variant models.Variant
	Reason  ClosedReason
}

func (e *ClosedError) Error() string {
	return fmt.Sprintf("%s registration closed: %s", e.Variant, e.Reason)
}

// ValidationError lists the offending fields. It is always raised before any write.
type ValidationError struct {
	Fields validation.FieldErrors
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields.Fields(), ", ")
}

func invalid(fields validation.FieldErrors) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// DuplicateError reports an existing row with the same identity
type DuplicateError struct {
	Existing models.RegistrationSummary
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s registration already exists for %s", e.Existing.Variant, e.Existing.Email)
}

// UploadValidationError rejects a proof file before it is sent anywhere
type UploadValidationError struct {
	Reason string
}

func (e *UploadValidationError) Error() string {
	return "invalid upload: " + e.Reason
}

// ConfirmationError carries the record the caller must confirm before the write happens
type ConfirmationError struct {
	Record models.RegistrationSummary
}

func (e *ConfirmationError) Error() string {
	return fmt.Sprintf("confirm update of %s registration for %s", e.Record.Variant, e.Record.Email)
}

func (e *ConfirmationError) Is(target error) bool {
	return target == ErrConfirmationRequired
}
