package services

import (
	"context"
	"testing"

	"billing-backend/internal/billing"
	"billing-backend/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsCollectorPublishesStatusCounts(t *testing.T) {
	store := newMemInvoices(
		testInvoice("a", billing.StatusDraft),
		testInvoice("b", billing.StatusSent),
		testInvoice("c", billing.StatusSent),
	)
	c := NewMetricsCollector(store)
	c.Collect(context.Background())

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.InvoicesByStatus.WithLabelValues("sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.InvoicesByStatus.WithLabelValues("draft")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.InvoicesByStatus.WithLabelValues("paid")))
}
