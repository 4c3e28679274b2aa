package services

import (
	"context"
	"strings"
	"time"

	"billing-backend/internal/billing"
	"billing-backend/internal/i18n"
	"billing-backend/internal/logger"
	"billing-backend/internal/metrics"
	"billing-backend/internal/models"
	"billing-backend/internal/timeutil"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// InvoiceDefaults are applied to new invoices that leave them out
type InvoiceDefaults struct {
	Currency         string
	PaymentTermsDays int
}

type InvoiceService struct {
	invoices InvoiceStore
	clients  ClientStore
	cache    InvoiceCache
	defaults InvoiceDefaults
	log      zerolog.Logger
	now      func() time.Time
}

func NewInvoiceService(invoices InvoiceStore, clients ClientStore, cache InvoiceCache, defaults InvoiceDefaults) *InvoiceService {
	if cache == nil {
		cache = noopCache{}
	}
	if defaults.Currency == "" {
		defaults.Currency = billing.DefaultCurrency
	}
	return &InvoiceService{
		invoices: invoices,
		clients:  clients,
		cache:    cache,
		defaults: defaults,
		log:      logger.WithComponent("invoices"),
		now:      timeutil.Now,
	}
}

// CreateInvoice validates and prices a new draft invoice for an existing
// client.
func (s *InvoiceService) CreateInvoice(ctx context.Context, req *models.CreateInvoiceRequest, principal models.Principal) (result *InvoiceUpdateResult) {
	defer func() {
		if r := recover(); r != nil {
			result = &InvoiceUpdateResult{OperationResult: recovered(ctx, "create invoice", r)}
		}
	}()

	client, err := s.clients.Get(ctx, req.ClientID)
	if err != nil {
		return s.fail(ctx, lookupErr("client", req.ClientID, "get client", err))
	}

	now := s.now()
	var problems []string

	code := strings.ToUpper(strings.TrimSpace(req.Currency))
	if code == "" {
		code = s.defaults.Currency
	}
	if _, err := currency.ParseISO(code); err != nil {
		problems = append(problems, "currency must be an ISO 4217 code")
	}

	issueDate := timeutil.StartOfDay(now)
	if req.IssueDate != "" {
		if issueDate, err = timeutil.ParseDate(req.IssueDate); err != nil {
			problems = append(problems, "issue date must be formatted as YYYY-MM-DD")
		}
	}
	dueDate := timeutil.AddDays(issueDate, s.defaults.PaymentTermsDays)
	if req.DueDate != "" {
		parsed, err := timeutil.ParseDate(req.DueDate)
		switch {
		case err != nil:
			problems = append(problems, "due date must be formatted as YYYY-MM-DD")
		case parsed.Before(issueDate):
			problems = append(problems, "due date cannot be before the issue date")
		default:
			dueDate = timeutil.EndOfDay(parsed)
		}
	}

	problems = append(problems, validateContents(req.LineItems, req.Fees, req.Discounts)...)
	if len(problems) > 0 {
		return s.fail(ctx, billing.NewValidationError(problems...))
	}

	calc := billing.CalculateInvoiceTotals(req.LineItems, req.Fees, req.Discounts)
	if !calc.Success {
		metrics.CalculationFailuresTotal.Inc()
		return &InvoiceUpdateResult{OperationResult: calculationFailed(ctx, calc.Errors)}
	}

	number, err := s.invoices.NextInvoiceNumber(ctx)
	if err != nil {
		return s.fail(ctx, &billing.PersistenceError{Op: "next invoice number", Err: err})
	}

	inv := &models.Invoice{
		ID:            uuid.NewString(),
		InvoiceNumber: number,
		ClientID:      client.ID,
		ClientName:    client.Name,
		ClientEmail:   client.Email,
		Status:        billing.StatusDraft,
		Currency:      code,
		IssueDate:     issueDate,
		DueDate:       &dueDate,
		LineItems:     req.LineItems,
		Fees:          nonNil(req.Fees),
		Discounts:     nonNil(req.Discounts),
		Totals:        calc.Totals,
		PaidAmount:    decimal.Zero,
		Notes:         req.Notes,
		CreatedBy:     principal.ID,
		UpdatedBy:     principal.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.invoices.Create(ctx, inv); err != nil {
		s.log.Error().Err(err).Str("client_id", client.ID).Msg("failed to create invoice")
		return s.fail(ctx, &billing.PersistenceError{Op: "create invoice", Err: err})
	}
	s.cache.InvalidateInvoice(ctx, inv.ID)

	s.log.Info().Str("invoice_id", inv.ID).Str("number", inv.InvoiceNumber).
		Str("total", inv.Totals.FinalTotal.StringFixed(2)).Msg("invoice created")

	tag := i18n.FromContext(ctx)
	return &InvoiceUpdateResult{
		OperationResult: succeeded(i18n.Sprintf(tag, i18n.MsgInvoiceCreated, inv.InvoiceNumber)),
		Invoice:         inv,
		Totals:          &inv.Totals,
	}
}

// UpdateInvoice replaces the billable contents of an invoice and reprices it.
func (s *InvoiceService) UpdateInvoice(ctx context.Context, id string, req *models.UpdateInvoiceRequest, principal models.Principal) *InvoiceUpdateResult {
	return s.update(ctx, id, principal, func(inv *models.Invoice) []string {
		problems := validateContents(req.LineItems, req.Fees, req.Discounts)
		if req.DueDate != "" {
			parsed, err := timeutil.ParseDate(req.DueDate)
			if err != nil {
				problems = append(problems, "due date must be formatted as YYYY-MM-DD")
			} else {
				due := timeutil.EndOfDay(parsed)
				inv.DueDate = &due
			}
		}
		if req.Notes != nil {
			inv.Notes = *req.Notes
		}
		inv.LineItems = req.LineItems
		inv.Fees = nonNil(req.Fees)
		inv.Discounts = nonNil(req.Discounts)
		return problems
	})
}

// RecalculateInvoice reprices an invoice from its stored contents.
func (s *InvoiceService) RecalculateInvoice(ctx context.Context, id string, principal models.Principal) *InvoiceUpdateResult {
	return s.update(ctx, id, principal, func(inv *models.Invoice) []string {
		return validateContents(inv.LineItems, inv.Fees, inv.Discounts)
	})
}

// BatchRecalculate recalculates each invoice independently and in order;
// one failure never stops the rest.
func (s *InvoiceService) BatchRecalculate(ctx context.Context, ids []string, principal models.Principal) *BatchUpdateResult {
	result := &BatchUpdateResult{
		Successful: []string{},
		Failed:     []BatchFailure{},
	}

	for _, id := range ids {
		res := s.RecalculateInvoice(ctx, id, principal)
		if res.Success {
			result.Successful = append(result.Successful, id)
			continue
		}
		result.Failed = append(result.Failed, BatchFailure{
			InvoiceID: id,
			Errors:    res.Errors,
			ErrorKind: res.ErrorKind,
		})
	}

	tag := i18n.FromContext(ctx)
	result.Message = i18n.Sprintf(tag, i18n.MsgBatchSummary, len(result.Successful), len(result.Failed))
	result.Timestamp = s.now()
	return result
}

// update is the shared update workflow. mutate applies the requested
// contents to the loaded invoice and returns structural problems.
func (s *InvoiceService) update(ctx context.Context, id string, principal models.Principal, mutate func(*models.Invoice) []string) (result *InvoiceUpdateResult) {
	defer func() {
		if r := recover(); r != nil {
			result = &InvoiceUpdateResult{OperationResult: recovered(ctx, "update invoice", r)}
		}
		label := "success"
		if !result.Success {
			label = string(result.ErrorKind)
		}
		metrics.InvoiceUpdatesTotal.WithLabelValues(label).Inc()
	}()

	inv, err := s.invoices.Get(ctx, id)
	if err != nil {
		return s.fail(ctx, lookupErr("invoice", id, "get invoice", err))
	}
	if inv.Status.Terminal() {
		return s.fail(ctx, billing.NewValidationError("Invoice in status "+string(inv.Status)+" cannot be changed"))
	}

	if problems := mutate(inv); len(problems) > 0 {
		return s.fail(ctx, billing.NewValidationError(problems...))
	}

	calc := billing.CalculateInvoiceTotals(inv.LineItems, inv.Fees, inv.Discounts)
	if !calc.Success {
		metrics.CalculationFailuresTotal.Inc()
		return &InvoiceUpdateResult{OperationResult: calculationFailed(ctx, calc.Errors)}
	}

	now := s.now()
	previous := inv.Totals.FinalTotal
	inv.Totals = calc.Totals
	inv.UpdatedAt = now
	inv.UpdatedBy = principal.ID

	entry := &models.InvoiceUpdateLog{
		ID:            uuid.NewString(),
		InvoiceID:     inv.ID,
		PreviousTotal: previous,
		NewTotal:      calc.Totals.FinalTotal,
		UpdatedBy:     principal.ID,
		UpdatedAt:     now,
	}
	if err := s.invoices.SaveContents(ctx, inv, entry); err != nil {
		s.log.Error().Err(err).Str("invoice_id", inv.ID).Msg("failed to save invoice")
		return s.fail(ctx, &billing.PersistenceError{Op: "save invoice", Err: err})
	}
	s.cache.InvalidateInvoice(ctx, inv.ID)

	stored, err := s.invoices.Get(ctx, inv.ID)
	if err != nil {
		return s.fail(ctx, &billing.PersistenceError{Op: "verify invoice", Err: err})
	}
	if !stored.Totals.FinalTotal.Equal(calc.Totals.FinalTotal) {
		s.log.Error().Str("invoice_id", inv.ID).
			Str("expected", calc.Totals.FinalTotal.String()).
			Str("stored", stored.Totals.FinalTotal.String()).
			Msg("stored total does not match")
		return s.fail(ctx, &billing.VerificationError{
			InvoiceID: inv.ID,
			Expected:  calc.Totals.FinalTotal,
			Actual:    stored.Totals.FinalTotal,
		})
	}

	tag := i18n.FromContext(ctx)
	total := billing.FormatCurrency(stored.Totals.FinalTotal, stored.Currency, tag, 2)
	return &InvoiceUpdateResult{
		OperationResult: succeeded(i18n.Sprintf(tag, i18n.MsgInvoiceUpdated, total)),
		Invoice:         stored,
		Totals:          &stored.Totals,
		PreviousTotal:   &previous,
	}
}

// GetInvoice reads through the cache.
func (s *InvoiceService) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	if inv, ok := s.cache.GetInvoice(ctx, id); ok {
		return inv, nil
	}
	inv, err := s.invoices.Get(ctx, id)
	if err != nil {
		return nil, lookupErr("invoice", id, "get invoice", err)
	}
	s.cache.SetInvoice(ctx, inv)
	return inv, nil
}

func (s *InvoiceService) ListInvoices(ctx context.Context, filter models.InvoiceFilter) ([]*models.Invoice, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, billing.NewValidationError("unknown status: " + string(filter.Status))
	}
	if invoices, ok := s.cache.GetInvoiceList(ctx, filter); ok {
		return invoices, nil
	}
	invoices, err := s.invoices.List(ctx, filter)
	if err != nil {
		return nil, &billing.PersistenceError{Op: "list invoices", Err: err}
	}
	s.cache.SetInvoiceList(ctx, filter, invoices)
	return invoices, nil
}

// DeleteInvoice removes a draft. Issued invoices must be cancelled instead.
func (s *InvoiceService) DeleteInvoice(ctx context.Context, id string) error {
	inv, err := s.invoices.Get(ctx, id)
	if err != nil {
		return lookupErr("invoice", id, "get invoice", err)
	}
	if inv.Status != billing.StatusDraft {
		return billing.NewValidationError("Only draft invoices can be deleted; cancel it instead")
	}
	if err := s.invoices.Delete(ctx, id); err != nil {
		return lookupErr("invoice", id, "delete invoice", err)
	}
	s.cache.InvalidateInvoice(ctx, id)
	return nil
}

func (s *InvoiceService) History(ctx context.Context, id string) ([]models.StatusHistory, error) {
	if _, err := s.invoices.Get(ctx, id); err != nil {
		return nil, lookupErr("invoice", id, "get invoice", err)
	}
	history, err := s.invoices.History(ctx, id)
	if err != nil {
		return nil, &billing.PersistenceError{Op: "load history", Err: err}
	}
	return history, nil
}

func (s *InvoiceService) UpdateLogs(ctx context.Context, id string) ([]models.InvoiceUpdateLog, error) {
	if _, err := s.invoices.Get(ctx, id); err != nil {
		return nil, lookupErr("invoice", id, "get invoice", err)
	}
	logs, err := s.invoices.UpdateLogs(ctx, id)
	if err != nil {
		return nil, &billing.PersistenceError{Op: "load update logs", Err: err}
	}
	return logs, nil
}

func (s *InvoiceService) fail(ctx context.Context, err error) *InvoiceUpdateResult {
	return &InvoiceUpdateResult{OperationResult: Failure(ctx, err)}
}

func validateContents(items []billing.LineItem, fees, discounts []billing.Adjustment) []string {
	problems := billing.ValidateInvoiceData(items)
	problems = append(problems, billing.ValidateAdjustments("Fee", fees)...)
	problems = append(problems, billing.ValidateAdjustments("Discount", discounts)...)
	return problems
}

func calculationFailed(ctx context.Context, errs []string) OperationResult {
	res := Failure(ctx, &billing.CalculationError{Index: 0, Err: billing.ErrInvalidArgument})
	res.Errors = errs
	return res
}

func nonNil(entries []billing.Adjustment) []billing.Adjustment {
	if entries == nil {
		return []billing.Adjustment{}
	}
	return entries
}
