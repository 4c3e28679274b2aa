package billing

import (
	"fmt"
	"time"

	"billing-backend/internal/timeutil"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the lifecycle state of an invoice.
type InvoiceStatus string

const (
	StatusDraft         InvoiceStatus = "draft"
	StatusSent          InvoiceStatus = "sent"
	StatusPaid          InvoiceStatus = "paid"
	StatusOverdue       InvoiceStatus = "overdue"
	StatusCancelled     InvoiceStatus = "cancelled"
	StatusPartiallyPaid InvoiceStatus = "partially_paid"
	StatusProcessing    InvoiceStatus = "processing"
)

// AllStatuses lists every status in declaration order.
var AllStatuses = []InvoiceStatus{
	StatusDraft, StatusSent, StatusPaid, StatusOverdue,
	StatusCancelled, StatusPartiallyPaid, StatusProcessing,
}

// Valid reports whether s is one of the known statuses.
func (s InvoiceStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s InvoiceStatus) Terminal() bool {
	for _, t := range transitions {
		if t.From == s {
			return false
		}
	}
	return true
}

// Capability tokens checked by the transition table and the HTTP layer.
const (
	PermInvoicesCreate     = "invoices.create"
	PermInvoicesEdit       = "invoices.edit"
	PermInvoicesDelete     = "invoices.delete"
	PermInvoicesCancel     = "invoices.cancel"
	PermInvoicesSend       = "invoices.send"
	PermPaymentsRecord     = "payments.record"
	PermClientsManage      = "clients.manage"
	PermTransactionsManage = "transactions.manage"
	PermReportsView        = "reports.view"
	PermReconcile          = "invoices.reconcile"
)

// Business rule names. They double as the human-readable failure message.
const (
	RuleHasLineItems           = "Invoice must have at least one line item"
	RuleClientComplete         = "Client information must be complete"
	RuleDueDatePassed          = "Due date must have passed"
	RulePartialPaymentPositive = "Partial payment amount must be greater than 0"
	RulePartialBelowTotal      = "Partial payment must be less than total amount"
)

// StatusTransition is one edge of the transition graph.
type StatusTransition struct {
	From                 InvoiceStatus `json:"from"`
	To                   InvoiceStatus `json:"to"`
	RequiresConfirmation bool          `json:"requires_confirmation"`
	ConfirmationMessage  string        `json:"confirmation_message,omitempty"`
	RequiresPermission   string        `json:"requires_permission,omitempty"`
	BusinessRules        []string      `json:"business_rules"`
}

// transitions is kept as a slice so lookups preserve table order.
var transitions = []StatusTransition{
	{From: StatusDraft, To: StatusSent, RequiresConfirmation: true,
		ConfirmationMessage: "Send this invoice to the client?",
		BusinessRules:       []string{RuleHasLineItems, RuleClientComplete}},
	{From: StatusDraft, To: StatusCancelled, RequiresConfirmation: true,
		ConfirmationMessage: "Cancel this draft invoice?",
		RequiresPermission:  PermInvoicesCancel},

	{From: StatusSent, To: StatusProcessing, RequiresPermission: PermPaymentsRecord},
	{From: StatusSent, To: StatusPaid, RequiresConfirmation: true,
		ConfirmationMessage: "Mark this invoice as fully paid?",
		RequiresPermission:  PermPaymentsRecord},
	{From: StatusSent, To: StatusPartiallyPaid, RequiresPermission: PermPaymentsRecord,
		BusinessRules: []string{RulePartialPaymentPositive, RulePartialBelowTotal}},
	{From: StatusSent, To: StatusOverdue,
		BusinessRules: []string{RuleDueDatePassed}},
	{From: StatusSent, To: StatusCancelled, RequiresConfirmation: true,
		ConfirmationMessage: "Cancel this sent invoice?",
		RequiresPermission:  PermInvoicesCancel},

	{From: StatusProcessing, To: StatusPaid, RequiresConfirmation: true,
		ConfirmationMessage: "Confirm that the payment has cleared?",
		RequiresPermission:  PermPaymentsRecord},
	{From: StatusProcessing, To: StatusPartiallyPaid, RequiresPermission: PermPaymentsRecord,
		BusinessRules: []string{RulePartialPaymentPositive, RulePartialBelowTotal}},
	{From: StatusProcessing, To: StatusSent, RequiresPermission: PermPaymentsRecord},

	{From: StatusOverdue, To: StatusPaid, RequiresConfirmation: true,
		ConfirmationMessage: "Mark this overdue invoice as fully paid?",
		RequiresPermission:  PermPaymentsRecord},
	{From: StatusOverdue, To: StatusPartiallyPaid, RequiresPermission: PermPaymentsRecord,
		BusinessRules: []string{RulePartialPaymentPositive, RulePartialBelowTotal}},
	{From: StatusOverdue, To: StatusCancelled, RequiresConfirmation: true,
		ConfirmationMessage: "Cancel this overdue invoice?",
		RequiresPermission:  PermInvoicesCancel},

	{From: StatusPartiallyPaid, To: StatusPaid, RequiresConfirmation: true,
		ConfirmationMessage: "Mark the remaining balance as paid?",
		RequiresPermission:  PermPaymentsRecord},
	{From: StatusPartiallyPaid, To: StatusOverdue,
		BusinessRules: []string{RuleDueDatePassed}},
}

// Transitions returns a copy of the transition table.
func Transitions() []StatusTransition {
	out := make([]StatusTransition, len(transitions))
	copy(out, transitions)
	return out
}

// FindTransition returns the edge (from, to) if the table defines it.
func FindTransition(from, to InvoiceStatus) (StatusTransition, bool) {
	for _, t := range transitions {
		if t.From == from && t.To == to {
			return t, true
		}
	}
	return StatusTransition{}, false
}

// IsValidTransition reports whether the table has an edge from -> to.
func IsValidTransition(from, to InvoiceStatus) bool {
	_, ok := FindTransition(from, to)
	return ok
}

// AvailableTransitions returns the targets reachable from `from` that either
// need no permission or whose permission is held by the caller.
func AvailableTransitions(from InvoiceStatus, permissions []string) []InvoiceStatus {
	held := make(map[string]bool, len(permissions))
	for _, p := range permissions {
		held[p] = true
	}

	var out []InvoiceStatus
	for _, t := range transitions {
		if t.From != from {
			continue
		}
		if t.RequiresPermission == "" || held[t.RequiresPermission] {
			out = append(out, t.To)
		}
	}
	return out
}

// InvoiceSnapshot is the subset of invoice state business rules look at.
type InvoiceSnapshot struct {
	LineItemCount        int
	ClientName           string
	ClientEmail          string
	DueDate              *time.Time
	PartialPaymentAmount *decimal.Decimal
	TotalAmount          decimal.Decimal
}

// TransitionValidation is the outcome of ValidateStatusTransition.
type TransitionValidation struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// ValidateStatusTransition checks the edge and its business rules against the
// current time in the business timezone.
func ValidateStatusTransition(from, to InvoiceStatus, snap InvoiceSnapshot) TransitionValidation {
	return ValidateStatusTransitionAt(from, to, snap, timeutil.Now())
}

// ValidateStatusTransitionAt is ValidateStatusTransition with an explicit clock.
func ValidateStatusTransitionAt(from, to InvoiceStatus, snap InvoiceSnapshot, now time.Time) TransitionValidation {
	t, ok := FindTransition(from, to)
	if !ok {
		return TransitionValidation{
			Valid:  false,
			Errors: []string{fmt.Sprintf("Invalid status transition from %s to %s", from, to)},
		}
	}

	errs := []string{}
	for _, rule := range t.BusinessRules {
		if msg, failed := evaluateRule(rule, snap, now); failed {
			errs = append(errs, msg)
		}
	}

	return TransitionValidation{Valid: len(errs) == 0, Errors: errs}
}

// evaluateRule returns the failure message and true when the rule does not hold.
func evaluateRule(rule string, snap InvoiceSnapshot, now time.Time) (string, bool) {
	switch rule {
	case RuleHasLineItems:
		return rule, snap.LineItemCount == 0
	case RuleClientComplete:
		return rule, snap.ClientName == "" || snap.ClientEmail == ""
	case RuleDueDatePassed:
		return rule, snap.DueDate == nil || !snap.DueDate.Before(now)
	case RulePartialPaymentPositive:
		return rule, snap.PartialPaymentAmount == nil || !snap.PartialPaymentAmount.IsPositive()
	case RulePartialBelowTotal:
		return rule, snap.PartialPaymentAmount == nil || snap.PartialPaymentAmount.GreaterThanOrEqual(snap.TotalAmount)
	default:
		return "unknown business rule: " + rule, true
	}
}

// AutoUpdateStatus derives the status an invoice should move to from its due
// date and payments. It does not consult the transition table; callers apply
// the result through the normal transition protocol.
func AutoUpdateStatus(status InvoiceStatus, dueDate *time.Time, paidAmount, totalAmount *decimal.Decimal) InvoiceStatus {
	return AutoUpdateStatusAt(status, dueDate, paidAmount, totalAmount, timeutil.Now())
}

// AutoUpdateStatusAt is AutoUpdateStatus with an explicit clock.
func AutoUpdateStatusAt(status InvoiceStatus, dueDate *time.Time, paidAmount, totalAmount *decimal.Decimal, now time.Time) InvoiceStatus {
	if status == StatusSent && dueDate != nil && dueDate.Before(now) {
		return StatusOverdue
	}

	// Zero or missing amounts carry no payment information.
	if paidAmount == nil || totalAmount == nil || !paidAmount.IsPositive() || !totalAmount.IsPositive() {
		return status
	}
	paid, total := *paidAmount, *totalAmount

	switch status {
	case StatusSent, StatusOverdue, StatusPartiallyPaid:
		if paid.GreaterThanOrEqual(total) {
			return StatusPaid
		}
	}

	switch status {
	case StatusSent, StatusOverdue:
		if paid.LessThan(total) {
			return StatusPartiallyPaid
		}
	}

	return status
}
