package billing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidArgument marks malformed numeric input.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrorKind classifies an operation failure for callers and the HTTP layer.
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindNotFound     ErrorKind = "not_found"
	KindPersistence  ErrorKind = "persistence"
	KindVerification ErrorKind = "verification"
	KindCalculation  ErrorKind = "calculation"
	KindPermission   ErrorKind = "permission"
	KindConfirmation ErrorKind = "confirmation_required"
	KindInternal     ErrorKind = "internal"
)

// ValidationError is a structural or business-rule violation caught before
// any mutation.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

// NewValidationError creates a ValidationError from one or more messages.
func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

// NotFoundError means the referenced entity does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// PersistenceError wraps a storage failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// VerificationError means the write call succeeded but the read-back does not
// match what was written.
type VerificationError struct {
	InvoiceID string
	Expected  decimal.Decimal
	Actual    decimal.Decimal
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("verification failed for invoice %s: expected total %s, stored %s",
		e.InvoiceID, e.Expected.StringFixed(2), e.Actual.StringFixed(2))
}

// CalculationError is a per-item numeric failure. Index is zero-based; the
// message uses 1-based numbering.
type CalculationError struct {
	Index int
	Err   error
}

func (e *CalculationError) Error() string {
	return fmt.Sprintf("Line item %d: %v", e.Index+1, e.Err)
}

func (e *CalculationError) Unwrap() error {
	return e.Err
}

// PermissionError means the acting principal lacks a capability.
type PermissionError struct {
	Permission string
}

func (e *PermissionError) Error() string {
	return "missing permission: " + e.Permission
}

// KindOf maps an error to its ErrorKind.
func KindOf(err error) ErrorKind {
	var (
		validation   *ValidationError
		notFound     *NotFoundError
		persistence  *PersistenceError
		verification *VerificationError
		calculation  *CalculationError
		permission   *PermissionError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &validation):
		return KindValidation
	case errors.As(err, &notFound):
		return KindNotFound
	case errors.As(err, &permission):
		return KindPermission
	case errors.As(err, &verification):
		return KindVerification
	case errors.As(err, &persistence):
		return KindPersistence
	case errors.As(err, &calculation), errors.Is(err, ErrInvalidArgument):
		return KindCalculation
	default:
		return KindInternal
	}
}
