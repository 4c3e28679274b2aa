package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"billing-backend/internal/billing"
	"billing-backend/internal/i18n"
	"billing-backend/internal/logger"
	"billing-backend/internal/models"
	"billing-backend/internal/repositories"
	"billing-backend/internal/timeutil"

	"github.com/shopspring/decimal"
)

// OperationResult is the common shape of every billing operation outcome.
// Message is localized for display; Errors is stable for programmatic checks.
type OperationResult struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Errors    []string          `json:"errors"`
	ErrorKind billing.ErrorKind `json:"error_kind,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// StatusChangeResult is returned by StatusService.ChangeStatus. A result
// with RequiresConfirmation set is neither a success nor a failure: nothing
// was changed and the caller must repeat the request confirmed.
type StatusChangeResult struct {
	OperationResult
	RequiresConfirmation bool                  `json:"requires_confirmation"`
	ConfirmationMessage  string                `json:"confirmation_message,omitempty"`
	FromStatus           billing.InvoiceStatus `json:"from_status,omitempty"`
	ToStatus             billing.InvoiceStatus `json:"to_status,omitempty"`
	Invoice              *models.Invoice       `json:"invoice,omitempty"`
}

// InvoiceUpdateResult is returned by the create, update and recalculate
// workflows.
type InvoiceUpdateResult struct {
	OperationResult
	Invoice       *models.Invoice        `json:"invoice,omitempty"`
	Totals        *billing.InvoiceTotals `json:"totals,omitempty"`
	PreviousTotal *decimal.Decimal       `json:"previous_total,omitempty"`
}

// BatchFailure identifies one invoice a batch could not update
type BatchFailure struct {
	InvoiceID string            `json:"invoice_id"`
	Errors    []string          `json:"errors"`
	ErrorKind billing.ErrorKind `json:"error_kind"`
}

type BatchUpdateResult struct {
	Successful []string       `json:"successful"`
	Failed     []BatchFailure `json:"failed"`
	Message    string         `json:"message"`
	Timestamp  time.Time      `json:"timestamp"`
}

func succeeded(message string) OperationResult {
	return OperationResult{
		Success:   true,
		Message:   message,
		Errors:    []string{},
		Timestamp: timeutil.Now(),
	}
}

// Failure converts err into the failure shape with a localized message.
func Failure(ctx context.Context, err error) OperationResult {
	tag := i18n.FromContext(ctx)
	kind := billing.KindOf(err)
	res := OperationResult{
		ErrorKind: kind,
		Errors:    []string{err.Error()},
		Timestamp: timeutil.Now(),
	}

	var (
		validation *billing.ValidationError
		notFound   *billing.NotFoundError
		permission *billing.PermissionError
	)
	switch {
	case errors.As(err, &validation):
		res.Errors = validation.Messages
		res.Message = i18n.Sprintf(tag, i18n.MsgValidationFailed, strings.Join(validation.Messages, "; "))
	case errors.As(err, &notFound):
		key := i18n.MsgInvoiceNotFound
		if notFound.Entity == "client" {
			key = i18n.MsgClientNotFound
		}
		res.Message = i18n.Sprintf(tag, key, notFound.ID)
	case errors.As(err, &permission):
		res.Message = i18n.Sprintf(tag, i18n.MsgPermissionDenied, permission.Permission)
	case kind == billing.KindPersistence:
		res.Message = i18n.Sprintf(tag, i18n.MsgPersistenceFailed)
	case kind == billing.KindVerification:
		res.Message = i18n.Sprintf(tag, i18n.MsgVerificationFailed)
	case kind == billing.KindCalculation:
		res.Message = i18n.Sprintf(tag, i18n.MsgCalculationFailed)
	default:
		res.Message = i18n.Sprintf(tag, i18n.MsgUnexpectedError)
	}
	return res
}

// recovered turns a panic value into an internal failure and logs it.
func recovered(ctx context.Context, op string, r interface{}) OperationResult {
	log := logger.WithComponent("services")
	log.Error().Str("op", op).Interface("panic", r).Msg("operation panicked")
	return Failure(ctx, fmt.Errorf("%s: unexpected failure: %v", op, r))
}

// lookupErr maps a store read error onto the billing taxonomy.
func lookupErr(entity, id, op string, err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return &billing.NotFoundError{Entity: entity, ID: id}
	}
	return &billing.PersistenceError{Op: op, Err: err}
}
