package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"billing-backend/internal/billing"
	"billing-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeArchive struct {
	keys []string
	err  error
}

func (a *fakeArchive) InvoiceKey(invoiceNumber string, t time.Time) string {
	return fmt.Sprintf("invoices/%s.pdf", invoiceNumber)
}

func (a *fakeArchive) PutPDF(_ context.Context, key string, data []byte) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	a.keys = append(a.keys, key)
	return key, nil
}

func TestInvoicePDF(t *testing.T) {
	store := newMemInvoices(testInvoice("a", billing.StatusPartiallyPaid))
	invoiceID := "a"
	txns := &memTransactions{invoices: store, all: []*models.Transaction{{
		ID:              "t1",
		InvoiceID:       &invoiceID,
		Type:            models.TransactionPayment,
		Amount:          dec("10000"),
		Method:          "bkash",
		TransactionDate: fixedNow,
	}}}
	archive := &fakeArchive{}
	svc := NewReportService(store, txns, archive, "Padma Machinery")

	doc, err := svc.InvoicePDF(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "INV-a.pdf", doc.Filename)
	assert.True(t, bytes.HasPrefix(doc.Data, []byte("%PDF")))
	assert.Equal(t, "invoices/INV-a.pdf", doc.ArchivedKey)
	assert.Equal(t, []string{"invoices/INV-a.pdf"}, archive.keys)
}

func TestInvoicePDFArchiveFailureIsNotFatal(t *testing.T) {
	store := newMemInvoices(testInvoice("a", billing.StatusSent))
	svc := NewReportService(store, &memTransactions{invoices: store}, &fakeArchive{err: errors.New("bucket gone")}, "Padma Machinery")

	doc, err := svc.InvoicePDF(context.Background(), "a")
	require.NoError(t, err)
	assert.NotEmpty(t, doc.Data)
	assert.Empty(t, doc.ArchivedKey)
}

func TestInvoicePDFWithoutArchive(t *testing.T) {
	store := newMemInvoices(testInvoice("a", billing.StatusSent))
	svc := NewReportService(store, &memTransactions{invoices: store}, nil, "Padma Machinery")

	doc, err := svc.InvoicePDF(context.Background(), "a")
	require.NoError(t, err)
	assert.Empty(t, doc.ArchivedKey)

	_, err = svc.InvoicePDF(context.Background(), "missing")
	assert.Equal(t, billing.KindNotFound, billing.KindOf(err))
}
