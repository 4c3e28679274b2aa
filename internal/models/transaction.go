package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType says which way money moved
type TransactionType string

const (
	TransactionPayment TransactionType = "payment"
	TransactionRefund  TransactionType = "refund"
	TransactionExpense TransactionType = "expense"
)

// Valid reports whether t is a known transaction type
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionPayment, TransactionRefund, TransactionExpense:
		return true
	}
	return false
}

// Transaction is a recorded money movement, optionally against an invoice
type Transaction struct {
	ID              string          `json:"id"`
	InvoiceID       *string         `json:"invoice_id,omitempty"`
	ClientID        *string         `json:"client_id,omitempty"`
	Type            TransactionType `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	Method          string          `json:"method"` // cash, bank_transfer, bkash, cheque
	Reference       string          `json:"reference"`
	TransactionDate time.Time       `json:"transaction_date"`
	Notes           string          `json:"notes"`
	CreatedBy       string          `json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
}

// RecordTransactionRequest is the body of POST /api/transactions
type RecordTransactionRequest struct {
	InvoiceID       *string         `json:"invoice_id,omitempty"`
	ClientID        *string         `json:"client_id,omitempty"`
	Type            TransactionType `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	Method          string          `json:"method"`
	Reference       string          `json:"reference"`
	TransactionDate string          `json:"transaction_date,omitempty"` // YYYY-MM-DD
	Notes           string          `json:"notes"`
}
