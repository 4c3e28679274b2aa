package services

import (
	"context"

	"billing-backend/internal/billing"
	"billing-backend/internal/logger"
	"billing-backend/internal/models"
	"billing-backend/internal/timeutil"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TransactionResult is a recorded transaction and the status changes it set
// off on its invoice.
type TransactionResult struct {
	Transaction   *models.Transaction   `json:"transaction"`
	StatusChanges []*StatusChangeResult `json:"status_changes"`
}

type TransactionService struct {
	Repo     TransactionStore
	invoices InvoiceStore
	status   *StatusService
	cache    InvoiceCache
	log      zerolog.Logger
}

func NewTransactionService(repo TransactionStore, invoices InvoiceStore, status *StatusService, cache InvoiceCache) *TransactionService {
	if cache == nil {
		cache = noopCache{}
	}
	return &TransactionService{
		Repo:     repo,
		invoices: invoices,
		status:   status,
		cache:    cache,
		log:      logger.WithComponent("transactions"),
	}
}

// RecordTransaction stores a money movement. A payment or refund against an
// invoice moves its paid amount, after which the derived status is applied
// through the transition protocol on behalf of principal.
func (s *TransactionService) RecordTransaction(ctx context.Context, req *models.RecordTransactionRequest, principal models.Principal) (*TransactionResult, error) {
	var problems []string
	if !req.Type.Valid() {
		problems = append(problems, "type must be payment, refund or expense")
	}
	if !req.Amount.IsPositive() {
		problems = append(problems, "amount must be greater than 0")
	}
	date := timeutil.Now()
	if req.TransactionDate != "" {
		parsed, err := timeutil.ParseDate(req.TransactionDate)
		if err != nil {
			problems = append(problems, "transaction date must be formatted as YYYY-MM-DD")
		}
		date = parsed
	}
	if len(problems) > 0 {
		return nil, billing.NewValidationError(problems...)
	}

	txn := &models.Transaction{
		ID:              uuid.NewString(),
		InvoiceID:       req.InvoiceID,
		ClientID:        req.ClientID,
		Type:            req.Type,
		Amount:          billing.Round2(req.Amount),
		Method:          req.Method,
		Reference:       req.Reference,
		TransactionDate: date,
		Notes:           req.Notes,
		CreatedBy:       principal.ID,
		CreatedAt:       timeutil.Now(),
	}

	movesPaid := req.InvoiceID != nil && req.Type != models.TransactionExpense
	if req.InvoiceID != nil {
		inv, err := s.invoices.Get(ctx, *req.InvoiceID)
		if err != nil {
			return nil, lookupErr("invoice", *req.InvoiceID, "get invoice", err)
		}
		if movesPaid {
			if !principal.Has(billing.PermPaymentsRecord) {
				return nil, &billing.PermissionError{Permission: billing.PermPaymentsRecord}
			}
			if inv.Status == billing.StatusDraft || inv.Status == billing.StatusCancelled {
				return nil, billing.NewValidationError("payments can only be recorded against issued invoices")
			}
		}
		if txn.ClientID == nil {
			clientID := inv.ClientID
			txn.ClientID = &clientID
		}
	}

	paid, err := s.Repo.Create(ctx, txn)
	if err != nil {
		return nil, &billing.PersistenceError{Op: "record transaction", Err: err}
	}

	result := &TransactionResult{Transaction: txn, StatusChanges: []*StatusChangeResult{}}
	if !movesPaid || paid == nil {
		return result, nil
	}

	s.cache.InvalidateInvoice(ctx, *req.InvoiceID)
	s.log.Info().Str("invoice_id", *req.InvoiceID).Str("type", string(txn.Type)).
		Str("amount", txn.Amount.StringFixed(2)).Str("paid", paid.StringFixed(2)).
		Msg("invoice paid amount moved")

	changes, err := s.status.ApplyDerived(ctx, *req.InvoiceID, principal, string(txn.Type)+" recorded")
	if err != nil {
		s.log.Error().Err(err).Str("invoice_id", *req.InvoiceID).Msg("failed to derive status after transaction")
	}
	if changes != nil {
		result.StatusChanges = changes
	}
	return result, nil
}

func (s *TransactionService) ListTransactions(ctx context.Context, invoiceID string) ([]*models.Transaction, error) {
	txns, err := s.Repo.List(ctx, invoiceID)
	if err != nil {
		return nil, &billing.PersistenceError{Op: "list transactions", Err: err}
	}
	return txns, nil
}
