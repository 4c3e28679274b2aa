package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"billing-backend/internal/billing"
	"billing-backend/internal/i18n"
	"billing-backend/internal/logger"
	"billing-backend/internal/models"
	"billing-backend/internal/timeutil"

	"github.com/jung-kurt/gofpdf/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
)

// PDFArchive stores rendered invoice documents
type PDFArchive interface {
	InvoiceKey(invoiceNumber string, t time.Time) string
	PutPDF(ctx context.Context, key string, data []byte) (string, error)
}

// InvoiceDocument is a rendered invoice PDF
type InvoiceDocument struct {
	Filename    string
	Data        []byte
	ArchivedKey string
}

// ReportService handles document generation
type ReportService struct {
	invoices     InvoiceStore
	transactions TransactionStore
	archive      PDFArchive
	vendorName   string
	log          zerolog.Logger
}

// NewReportService creates the report service. archive may be nil, in which
// case documents are only returned to the caller.
func NewReportService(invoices InvoiceStore, transactions TransactionStore, archive PDFArchive, vendorName string) *ReportService {
	return &ReportService{
		invoices:     invoices,
		transactions: transactions,
		archive:      archive,
		vendorName:   vendorName,
		log:          logger.WithComponent("reports"),
	}
}

// InvoicePDF renders an invoice and archives the result when an archive is
// configured. Archive failures are logged; the document is still returned.
func (s *ReportService) InvoicePDF(ctx context.Context, invoiceID string) (*InvoiceDocument, error) {
	inv, err := s.invoices.Get(ctx, invoiceID)
	if err != nil {
		return nil, lookupErr("invoice", invoiceID, "get invoice", err)
	}
	payments, err := s.transactions.List(ctx, invoiceID)
	if err != nil {
		return nil, &billing.PersistenceError{Op: "list transactions", Err: err}
	}

	now := timeutil.Now()
	data, err := s.renderInvoice(inv, payments, now)
	if err != nil {
		return nil, fmt.Errorf("failed to render invoice %s: %w", inv.InvoiceNumber, err)
	}

	doc := &InvoiceDocument{
		Filename: inv.InvoiceNumber + ".pdf",
		Data:     data,
	}
	if s.archive != nil {
		key, err := s.archive.PutPDF(ctx, s.archive.InvoiceKey(inv.InvoiceNumber, now), data)
		if err != nil {
			s.log.Error().Err(err).Str("invoice", inv.InvoiceNumber).Msg("failed to archive invoice pdf")
		} else {
			doc.ArchivedKey = key
		}
	}
	return doc, nil
}

func (s *ReportService) renderInvoice(inv *models.Invoice, payments []*models.Transaction, now time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, s.vendorName, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(190, 8, "INVOICE "+inv.InvoiceNumber, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(190, 5, "Generated: "+timeutil.Format(now, timeutil.DateTimeLayout), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(190, 8, "Bill To", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(95, 7, "Client: "+inv.ClientName, "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, "Email: "+inv.ClientEmail, "RB", 1, "L", false, 0, "")
	pdf.CellFormat(95, 7, "Issued: "+timeutil.Format(inv.IssueDate, timeutil.DisplayLayout), "LB", 0, "L", false, 0, "")
	due := "-"
	if inv.DueDate != nil {
		due = timeutil.Format(*inv.DueDate, timeutil.DisplayLayout)
	}
	pdf.CellFormat(95, 7, "Due: "+due, "RB", 1, "L", false, 0, "")
	pdf.CellFormat(190, 7, "Status: "+i18n.StatusLabel(language.English, string(inv.Status)), "LRB", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(80, 7, "Description", "1", 0, "C", true, 0, "")
	pdf.CellFormat(20, 7, "Qty", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 7, "Unit Price", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 7, "Tax", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 7, "Amount", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, item := range inv.LineItems {
		desc := item.Description
		if len(desc) > 45 {
			desc = desc[:42] + "..."
		}
		tax := "-"
		if item.TaxAmount != nil {
			tax = s.amount(inv, *item.TaxAmount)
		}
		pdf.CellFormat(80, 6, desc, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, item.Quantity.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, s.amount(inv, item.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, tax, "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, s.amount(inv, item.Subtotal), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(3)

	rows := []struct {
		label string
		value string
	}{
		{"Subtotal", s.amount(inv, inv.Totals.Subtotal)},
		{"Tax", s.amount(inv, inv.Totals.TotalTax)},
		{"Fees", s.amount(inv, inv.Totals.TotalFees)},
		{"Discounts", "-" + s.amount(inv, inv.Totals.TotalDiscounts)},
	}
	for _, r := range rows {
		pdf.CellFormat(155, 6, r.label, "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, r.value, "1", 1, "R", false, 0, "")
	}
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(155, 8, "Total", "", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, s.amount(inv, inv.Totals.FinalTotal), "1", 1, "R", false, 0, "")

	balance := inv.BalanceDue()
	if balance.IsPositive() {
		pdf.SetFillColor(255, 200, 200)
	} else {
		pdf.SetFillColor(200, 255, 200)
	}
	balanceText := "Balance Due: " + billing.FormatCurrency(balance, inv.Currency, language.English, 2)
	if !balance.IsPositive() && inv.Status == billing.StatusPaid {
		balanceText = "FULLY PAID"
	}
	pdf.Ln(3)
	pdf.CellFormat(190, 10, balanceText, "1", 1, "C", true, 0, "")

	if len(payments) > 0 {
		pdf.Ln(5)
		pdf.SetFont("Arial", "B", 11)
		pdf.SetFillColor(240, 240, 240)
		pdf.CellFormat(190, 8, "Payment History", "1", 1, "L", true, 0, "")

		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(200, 200, 200)
		pdf.CellFormat(40, 7, "Date", "1", 0, "C", true, 0, "")
		pdf.CellFormat(30, 7, "Type", "1", 0, "C", true, 0, "")
		pdf.CellFormat(40, 7, "Method", "1", 0, "C", true, 0, "")
		pdf.CellFormat(80, 7, "Amount", "1", 1, "C", true, 0, "")

		pdf.SetFont("Arial", "", 10)
		for _, p := range payments {
			pdf.CellFormat(40, 6, timeutil.Format(p.TransactionDate, timeutil.DisplayLayout), "1", 0, "C", false, 0, "")
			pdf.CellFormat(30, 6, string(p.Type), "1", 0, "C", false, 0, "")
			pdf.CellFormat(40, 6, p.Method, "1", 0, "C", false, 0, "")
			pdf.CellFormat(80, 6, s.amount(inv, p.Amount), "1", 1, "R", false, 0, "")
		}
	}

	if inv.Notes != "" {
		pdf.Ln(5)
		pdf.SetFont("Arial", "I", 9)
		pdf.MultiCell(190, 5, inv.Notes, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// amount formats without the currency code; the code is printed once per
// document in the balance line.
func (s *ReportService) amount(inv *models.Invoice, value decimal.Decimal) string {
	formatted := billing.FormatCurrency(value, inv.Currency, language.English, 2)
	if i := strings.IndexByte(formatted, ' '); i >= 0 {
		return formatted[i+1:]
	}
	return formatted
}
