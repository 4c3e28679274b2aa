package models

import (
	"time"

	"billing-backend/internal/billing"

	"github.com/shopspring/decimal"
)

// StatusHistory is an append-only record of one status change
type StatusHistory struct {
	ID         string                `json:"id"`
	InvoiceID  string                `json:"invoice_id"`
	FromStatus billing.InvoiceStatus `json:"from_status"`
	ToStatus   billing.InvoiceStatus `json:"to_status"`
	ChangedBy  string                `json:"changed_by"`
	ChangedAt  time.Time             `json:"changed_at"`
	Reason     string                `json:"reason,omitempty"`
}

// InvoiceUpdateLog records a change of an invoice's final total
type InvoiceUpdateLog struct {
	ID            string          `json:"id"`
	InvoiceID     string          `json:"invoice_id"`
	PreviousTotal decimal.Decimal `json:"previous_total"`
	NewTotal      decimal.Decimal `json:"new_total"`
	UpdatedBy     string          `json:"updated_by"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
