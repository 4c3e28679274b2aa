package models

import (
	"time"

	"billing-backend/internal/billing"

	"github.com/shopspring/decimal"
)

// Invoice is a billable document sent to a client
type Invoice struct {
	ID            string                `json:"id"`
	InvoiceNumber string                `json:"invoice_number"`
	ClientID      string                `json:"client_id"`
	ClientName    string                `json:"client_name"`
	ClientEmail   string                `json:"client_email"`
	Status        billing.InvoiceStatus `json:"status"`
	Currency      string                `json:"currency"`
	IssueDate     time.Time             `json:"issue_date"`
	DueDate       *time.Time            `json:"due_date,omitempty"`
	LineItems     []billing.LineItem    `json:"line_items"`
	Fees          []billing.Adjustment  `json:"fees"`
	Discounts     []billing.Adjustment  `json:"discounts"`
	Totals        billing.InvoiceTotals `json:"totals"`
	PaidAmount    decimal.Decimal       `json:"paid_amount"`
	Notes         string                `json:"notes"`
	CreatedBy     string                `json:"created_by"`
	UpdatedBy     string                `json:"updated_by"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// BalanceDue is the unpaid part of the final total, never negative.
func (inv *Invoice) BalanceDue() decimal.Decimal {
	due := inv.Totals.FinalTotal.Sub(inv.PaidAmount)
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}

// Snapshot returns the view business rules evaluate. The partial payment
// amount defaults to the amount already paid.
func (inv *Invoice) Snapshot(partial *decimal.Decimal) billing.InvoiceSnapshot {
	if partial == nil {
		paid := inv.PaidAmount
		partial = &paid
	}
	return billing.InvoiceSnapshot{
		LineItemCount:        len(inv.LineItems),
		ClientName:           inv.ClientName,
		ClientEmail:          inv.ClientEmail,
		DueDate:              inv.DueDate,
		PartialPaymentAmount: partial,
		TotalAmount:          inv.Totals.FinalTotal,
	}
}

// InvoiceFilter narrows invoice listings; empty fields match everything.
type InvoiceFilter struct {
	Status   billing.InvoiceStatus
	ClientID string
	Statuses []billing.InvoiceStatus
}

// CreateInvoiceRequest is the body of POST /api/invoices
type CreateInvoiceRequest struct {
	ClientID  string               `json:"client_id"`
	Currency  string               `json:"currency"`
	IssueDate string               `json:"issue_date,omitempty"` // YYYY-MM-DD
	DueDate   string               `json:"due_date,omitempty"`   // YYYY-MM-DD
	LineItems []billing.LineItem   `json:"line_items"`
	Fees      []billing.Adjustment `json:"fees"`
	Discounts []billing.Adjustment `json:"discounts"`
	Notes     string               `json:"notes"`
}

// UpdateInvoiceRequest replaces the billable contents of an invoice
type UpdateInvoiceRequest struct {
	LineItems []billing.LineItem   `json:"line_items"`
	Fees      []billing.Adjustment `json:"fees"`
	Discounts []billing.Adjustment `json:"discounts"`
	DueDate   string               `json:"due_date,omitempty"`
	Notes     *string              `json:"notes,omitempty"`
}

// ChangeStatusRequest is the body of POST /api/invoices/{id}/status
type ChangeStatusRequest struct {
	Status               billing.InvoiceStatus `json:"status"`
	Confirmed            bool                  `json:"confirmed"`
	Reason               string                `json:"reason,omitempty"`
	PartialPaymentAmount *decimal.Decimal      `json:"partial_payment_amount,omitempty"`
}

// BatchRecalculateRequest is the body of POST /api/invoices/batch-recalculate
type BatchRecalculateRequest struct {
	InvoiceIDs []string `json:"invoice_ids"`
}
