package models

import (
	"testing"

	"billing-backend/internal/billing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceBalanceDue(t *testing.T) {
	inv := Invoice{
		Totals:     billing.InvoiceTotals{FinalTotal: decimal.NewFromInt(1000)},
		PaidAmount: decimal.NewFromInt(400),
	}
	assert.True(t, decimal.NewFromInt(600).Equal(inv.BalanceDue()))

	inv.PaidAmount = decimal.NewFromInt(1500)
	assert.True(t, inv.BalanceDue().IsZero())
}

func TestInvoiceSnapshotDefaultsPartialToPaid(t *testing.T) {
	inv := Invoice{
		ClientName:  "Rahim Traders",
		ClientEmail: "accounts@rahim.test",
		LineItems:   []billing.LineItem{{ID: "1"}, {ID: "2"}},
		Totals:      billing.InvoiceTotals{FinalTotal: decimal.NewFromInt(1000)},
		PaidAmount:  decimal.NewFromInt(250),
	}

	snap := inv.Snapshot(nil)
	assert.Equal(t, 2, snap.LineItemCount)
	require.NotNil(t, snap.PartialPaymentAmount)
	assert.True(t, decimal.NewFromInt(250).Equal(*snap.PartialPaymentAmount))

	explicit := decimal.NewFromInt(300)
	snap = inv.Snapshot(&explicit)
	assert.True(t, explicit.Equal(*snap.PartialPaymentAmount))
}

func TestPrincipalHas(t *testing.T) {
	p := Principal{Permissions: []string{billing.PermPaymentsRecord}}
	assert.True(t, p.Has(billing.PermPaymentsRecord))
	assert.False(t, p.Has(billing.PermInvoicesCancel))
	assert.False(t, SystemPrincipal.Has(billing.PermInvoicesCancel))
}

func TestTransactionTypeValid(t *testing.T) {
	assert.True(t, TransactionPayment.Valid())
	assert.True(t, TransactionExpense.Valid())
	assert.False(t, TransactionType("gift").Valid())
}
