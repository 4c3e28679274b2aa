package services

import (
	"context"
	"time"

	"billing-backend/internal/billing"
	"billing-backend/internal/events"
	"billing-backend/internal/i18n"
	"billing-backend/internal/logger"
	"billing-backend/internal/metrics"
	"billing-backend/internal/models"
	"billing-backend/internal/timeutil"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TransitionOption is one action offered to a caller for an invoice
type TransitionOption struct {
	To                   billing.InvoiceStatus `json:"to"`
	Label                string                `json:"label"`
	RequiresConfirmation bool                  `json:"requires_confirmation"`
	ConfirmationMessage  string                `json:"confirmation_message,omitempty"`
}

// StatusService executes invoice status transitions.
type StatusService struct {
	invoices InvoiceStore
	cache    InvoiceCache
	events   Publisher
	log      zerolog.Logger
	now      func() time.Time
}

func NewStatusService(invoices InvoiceStore, cache InvoiceCache, publisher Publisher) *StatusService {
	if cache == nil {
		cache = noopCache{}
	}
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &StatusService{
		invoices: invoices,
		cache:    cache,
		events:   publisher,
		log:      logger.WithComponent("status"),
		now:      timeutil.Now,
	}
}

// AvailableTransitions lists the statuses principal may move the invoice to.
func (s *StatusService) AvailableTransitions(ctx context.Context, invoiceID string, principal models.Principal) ([]TransitionOption, error) {
	inv, err := s.invoices.Get(ctx, invoiceID)
	if err != nil {
		return nil, lookupErr("invoice", invoiceID, "get invoice", err)
	}

	tag := i18n.FromContext(ctx)
	options := []TransitionOption{}
	for _, to := range billing.AvailableTransitions(inv.Status, principal.Permissions) {
		t, _ := billing.FindTransition(inv.Status, to)
		options = append(options, TransitionOption{
			To:                   to,
			Label:                i18n.StatusLabel(tag, string(to)),
			RequiresConfirmation: t.RequiresConfirmation,
			ConfirmationMessage:  t.ConfirmationMessage,
		})
	}
	return options, nil
}

// ChangeStatus runs the transition protocol: load, validate the edge and its
// business rules, check the permission, require confirmation, then persist
// the status and its history record together. A persistence failure is
// reported and never retried.
func (s *StatusService) ChangeStatus(ctx context.Context, invoiceID string, req models.ChangeStatusRequest, principal models.Principal) (result *StatusChangeResult) {
	defer func() {
		if r := recover(); r != nil {
			result = &StatusChangeResult{OperationResult: recovered(ctx, "change status", r)}
		}
		metrics.StatusChangeOutcomes.WithLabelValues(outcome(result)).Inc()
	}()

	tag := i18n.FromContext(ctx)

	inv, err := s.invoices.Get(ctx, invoiceID)
	if err != nil {
		return s.fail(ctx, lookupErr("invoice", invoiceID, "get invoice", err), req.Status)
	}
	from := inv.Status

	if from == req.Status {
		res := s.fail(ctx, billing.NewValidationError(
			"Invalid status transition from "+string(from)+" to "+string(req.Status)), req.Status)
		res.Message = i18n.Sprintf(tag, i18n.MsgNoStatusChange, i18n.StatusLabel(tag, string(from)))
		res.FromStatus = from
		return res
	}

	validation := billing.ValidateStatusTransitionAt(from, req.Status, inv.Snapshot(req.PartialPaymentAmount), s.now())
	if !validation.Valid {
		res := s.fail(ctx, billing.NewValidationError(validation.Errors...), req.Status)
		res.FromStatus = from
		return res
	}

	transition, _ := billing.FindTransition(from, req.Status)
	if transition.RequiresPermission != "" && !principal.Has(transition.RequiresPermission) {
		res := s.fail(ctx, &billing.PermissionError{Permission: transition.RequiresPermission}, req.Status)
		res.FromStatus = from
		return res
	}

	if transition.RequiresConfirmation && !req.Confirmed {
		return &StatusChangeResult{
			OperationResult: OperationResult{
				Message:   i18n.Sprintf(tag, i18n.MsgConfirmationRequired, transition.ConfirmationMessage),
				Errors:    []string{},
				ErrorKind: billing.KindConfirmation,
				Timestamp: s.now(),
			},
			RequiresConfirmation: true,
			ConfirmationMessage:  transition.ConfirmationMessage,
			FromStatus:           from,
			ToStatus:             req.Status,
			Invoice:              inv,
		}
	}

	now := s.now()
	inv.Status = req.Status
	inv.UpdatedAt = now
	inv.UpdatedBy = principal.ID
	history := &models.StatusHistory{
		ID:         uuid.NewString(),
		InvoiceID:  inv.ID,
		FromStatus: from,
		ToStatus:   req.Status,
		ChangedBy:  principal.ID,
		ChangedAt:  now,
		Reason:     req.Reason,
	}

	if err := s.invoices.UpdateStatus(ctx, inv, history); err != nil {
		s.log.Error().Err(err).Str("invoice_id", inv.ID).
			Str("from", string(from)).Str("to", string(req.Status)).
			Msg("failed to persist status change")
		res := s.fail(ctx, lookupErr("invoice", inv.ID, "update status", err), req.Status)
		res.FromStatus = from
		return res
	}

	metrics.StatusTransitionsTotal.WithLabelValues(string(from), string(req.Status)).Inc()
	s.cache.InvalidateInvoice(ctx, inv.ID)
	s.events.Publish(events.StatusEvent{
		Type:          "invoice.status_changed",
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		From:          from,
		To:            req.Status,
		ChangedBy:     principal.ID,
		Timestamp:     now,
	})

	s.log.Info().Str("invoice_id", inv.ID).Str("from", string(from)).
		Str("to", string(req.Status)).Str("by", principal.ID).Msg("status changed")

	res := succeeded(i18n.Sprintf(tag, i18n.MsgStatusChanged,
		i18n.StatusLabel(tag, string(from)), i18n.StatusLabel(tag, string(req.Status))))
	res.Timestamp = now
	return &StatusChangeResult{
		OperationResult: res,
		FromStatus:      from,
		ToStatus:        req.Status,
		Invoice:         inv,
	}
}

func (s *StatusService) fail(ctx context.Context, err error, to billing.InvoiceStatus) *StatusChangeResult {
	return &StatusChangeResult{OperationResult: Failure(ctx, err), ToStatus: to}
}

func outcome(res *StatusChangeResult) string {
	switch {
	case res == nil:
		return string(billing.KindInternal)
	case res.Success:
		return "applied"
	default:
		return string(res.ErrorKind)
	}
}

// ApplyDerived moves an invoice through the statuses AutoUpdateStatus derives
// from its due date and payments, each step through ChangeStatus, until it
// settles or a step fails.
func (s *StatusService) ApplyDerived(ctx context.Context, invoiceID string, principal models.Principal, reason string) ([]*StatusChangeResult, error) {
	var applied []*StatusChangeResult
	for range billing.AllStatuses {
		inv, err := s.invoices.Get(ctx, invoiceID)
		if err != nil {
			return applied, lookupErr("invoice", invoiceID, "get invoice", err)
		}

		paid, total := inv.PaidAmount, inv.Totals.FinalTotal
		next := billing.AutoUpdateStatusAt(inv.Status, inv.DueDate, &paid, &total, s.now())
		if next == inv.Status {
			return applied, nil
		}

		res := s.ChangeStatus(ctx, invoiceID, models.ChangeStatusRequest{
			Status:    next,
			Confirmed: true,
			Reason:    reason,
		}, principal)
		applied = append(applied, res)
		if !res.Success {
			return applied, nil
		}
	}
	return applied, nil
}
