package services

import (
	"context"
	"testing"
	"time"

	"billing-backend/internal/billing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconciliationRun(t *testing.T) {
	past := fixedNow.Add(-72 * time.Hour)

	overdue := testInvoice("late", billing.StatusSent)
	overdue.DueDate = &past

	settled := testInvoice("settled", billing.StatusPartiallyPaid)
	settled.PaidAmount = dec("28750")

	current := testInvoice("current", billing.StatusSent)

	draft := testInvoice("draft", billing.StatusDraft)
	draft.DueDate = &past

	status, store, pub, _ := newStatusFixture(overdue, settled, current, draft)
	svc := NewReconciliationService(store, status, 0)

	report, err := svc.Run(context.Background(), TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Checked)
	assert.Empty(t, report.Failed)
	assert.Len(t, report.Changed, 2)

	assert.Equal(t, billing.StatusOverdue, store.status("late"))
	assert.Equal(t, billing.StatusPaid, store.status("settled"))
	assert.Equal(t, billing.StatusSent, store.status("current"))
	assert.Equal(t, billing.StatusDraft, store.status("draft"))
	assert.Len(t, pub.events, 2)
	for _, h := range store.history {
		assert.Equal(t, "system", h.ChangedBy)
	}

	again, err := svc.Run(context.Background(), TriggerManual)
	require.NoError(t, err)
	assert.Empty(t, again.Changed)
}

func TestReconciliationReportsPersistenceFailures(t *testing.T) {
	past := fixedNow.Add(-72 * time.Hour)
	inv := testInvoice("late", billing.StatusSent)
	inv.DueDate = &past

	status, store, _, _ := newStatusFixture(inv)
	store.failStatus = errDiskFull
	svc := NewReconciliationService(store, status, 0)

	report, err := svc.Run(context.Background(), TriggerCLI)
	require.NoError(t, err)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "late", report.Failed[0].InvoiceID)
	assert.Equal(t, billing.KindPersistence, report.Failed[0].ErrorKind)
}

func TestReconciliationStartStopWithoutInterval(t *testing.T) {
	status, store, _, _ := newStatusFixture()
	svc := NewReconciliationService(store, status, 0)
	svc.Start()
	svc.Stop()
}

func TestReconciliationScheduleRuns(t *testing.T) {
	past := fixedNow.Add(-72 * time.Hour)
	inv := testInvoice("late", billing.StatusSent)
	inv.DueDate = &past

	status, store, _, _ := newStatusFixture(inv)
	svc := NewReconciliationService(store, status, 10*time.Millisecond)
	svc.Start()
	defer svc.Stop()

	assert.Eventually(t, func() bool {
		return store.status("late") == billing.StatusOverdue
	}, time.Second, 10*time.Millisecond)
}
