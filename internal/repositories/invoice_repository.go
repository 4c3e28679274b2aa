package repositories

import (
	"context"
	"fmt"
	"strings"

	"billing-backend/internal/billing"
	"billing-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type InvoiceRepository struct {
	DB *pgxpool.Pool
}

func NewInvoiceRepository(db *pgxpool.Pool) *InvoiceRepository {
	return &InvoiceRepository{DB: db}
}

const invoiceColumns = `id, invoice_number, client_id, client_name, client_email, status, currency,
	issue_date, due_date, subtotal, total_tax, total_fees, total_discounts, final_total,
	paid_amount, notes, created_by, updated_by, created_at, updated_at`

func scanInvoice(row pgx.Row) (*models.Invoice, error) {
	var inv models.Invoice
	err := row.Scan(&inv.ID, &inv.InvoiceNumber, &inv.ClientID, &inv.ClientName, &inv.ClientEmail,
		&inv.Status, &inv.Currency, &inv.IssueDate, &inv.DueDate,
		&inv.Totals.Subtotal, &inv.Totals.TotalTax, &inv.Totals.TotalFees,
		&inv.Totals.TotalDiscounts, &inv.Totals.FinalTotal, &inv.PaidAmount,
		&inv.Notes, &inv.CreatedBy, &inv.UpdatedBy, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// NextInvoiceNumber draws the next number from invoice_number_sequence
func (r *InvoiceRepository) NextInvoiceNumber(ctx context.Context) (string, error) {
	var next int64
	if err := r.DB.QueryRow(ctx, "SELECT nextval('invoice_number_sequence')").Scan(&next); err != nil {
		return "", fmt.Errorf("failed to get next invoice number: %w", err)
	}
	return fmt.Sprintf("INV-%06d", next), nil
}

// Create inserts an invoice with its line items, fees and discounts
func (r *InvoiceRepository) Create(ctx context.Context, inv *models.Invoice) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO invoices(`+invoiceColumns+`)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
		inv.ID, inv.InvoiceNumber, inv.ClientID, inv.ClientName, inv.ClientEmail,
		inv.Status, inv.Currency, inv.IssueDate, inv.DueDate,
		inv.Totals.Subtotal, inv.Totals.TotalTax, inv.Totals.TotalFees,
		inv.Totals.TotalDiscounts, inv.Totals.FinalTotal, inv.PaidAmount,
		inv.Notes, inv.CreatedBy, inv.UpdatedBy, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		return translate(err)
	}

	if err := insertContents(ctx, tx, inv); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertContents(ctx context.Context, tx pgx.Tx, inv *models.Invoice) error {
	for i, item := range inv.LineItems {
		var taxRate, taxAmount decimal.NullDecimal
		if item.TaxRate != nil {
			taxRate = decimal.NewNullDecimal(*item.TaxRate)
		}
		if item.TaxAmount != nil {
			taxAmount = decimal.NewNullDecimal(*item.TaxAmount)
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO invoice_line_items(invoice_id, id, position, description, quantity, unit_price, subtotal, tax_rate, tax_amount)
			 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			inv.ID, item.ID, i, item.Description, item.Quantity, item.UnitPrice, item.Subtotal, taxRate, taxAmount,
		)
		if err != nil {
			return translate(err)
		}
	}

	insertAdjustments := func(kind string, entries []billing.Adjustment) error {
		for i, a := range entries {
			_, err := tx.Exec(ctx,
				`INSERT INTO invoice_adjustments(invoice_id, id, kind, position, description, amount, type)
				 VALUES($1,$2,$3,$4,$5,$6,$7)`,
				inv.ID, a.ID, kind, i, a.Description, a.Amount, a.Type,
			)
			if err != nil {
				return translate(err)
			}
		}
		return nil
	}
	if err := insertAdjustments("fee", inv.Fees); err != nil {
		return err
	}
	return insertAdjustments("discount", inv.Discounts)
}

// Get loads an invoice with its contents
func (r *InvoiceRepository) Get(ctx context.Context, id string) (*models.Invoice, error) {
	inv, err := scanInvoice(r.DB.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err)
	}

	if err := r.loadLineItems(ctx, inv); err != nil {
		return nil, err
	}
	if err := r.loadAdjustments(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *InvoiceRepository) loadLineItems(ctx context.Context, inv *models.Invoice) error {
	rows, err := r.DB.Query(ctx,
		`SELECT id, description, quantity, unit_price, subtotal, tax_rate, tax_amount
		 FROM invoice_line_items WHERE invoice_id = $1 ORDER BY position`, inv.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	inv.LineItems = []billing.LineItem{}
	for rows.Next() {
		var item billing.LineItem
		var taxRate, taxAmount decimal.NullDecimal
		if err := rows.Scan(&item.ID, &item.Description, &item.Quantity, &item.UnitPrice,
			&item.Subtotal, &taxRate, &taxAmount); err != nil {
			return err
		}
		if taxRate.Valid {
			item.TaxRate = &taxRate.Decimal
		}
		if taxAmount.Valid {
			item.TaxAmount = &taxAmount.Decimal
		}
		inv.LineItems = append(inv.LineItems, item)
	}
	return rows.Err()
}

func (r *InvoiceRepository) loadAdjustments(ctx context.Context, inv *models.Invoice) error {
	rows, err := r.DB.Query(ctx,
		`SELECT id, kind, description, amount, type
		 FROM invoice_adjustments WHERE invoice_id = $1 ORDER BY kind, position`, inv.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	inv.Fees = []billing.Adjustment{}
	inv.Discounts = []billing.Adjustment{}
	for rows.Next() {
		var a billing.Adjustment
		var kind string
		if err := rows.Scan(&a.ID, &kind, &a.Description, &a.Amount, &a.Type); err != nil {
			return err
		}
		if kind == "fee" {
			inv.Fees = append(inv.Fees, a)
		} else {
			inv.Discounts = append(inv.Discounts, a)
		}
	}
	return rows.Err()
}

// List returns invoice headers matching the filter, newest first. Contents
// are not loaded.
func (r *InvoiceRepository) List(ctx context.Context, filter models.InvoiceFilter) ([]*models.Invoice, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, statuses)
		where = append(where, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if filter.ClientID != "" {
		args = append(args, filter.ClientID)
		where = append(where, fmt.Sprintf("client_id = $%d", len(args)))
	}

	query := `SELECT ` + invoiceColumns + ` FROM invoices`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invoices := []*models.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// SaveContents replaces line items, fees and discounts, writes the totals and
// appends the update log entry, all in one transaction.
func (r *InvoiceRepository) SaveContents(ctx context.Context, inv *models.Invoice, entry *models.InvoiceUpdateLog) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE invoices SET subtotal=$2, total_tax=$3, total_fees=$4, total_discounts=$5,
		        final_total=$6, due_date=$7, notes=$8, updated_by=$9, updated_at=$10
		 WHERE id=$1`,
		inv.ID, inv.Totals.Subtotal, inv.Totals.TotalTax, inv.Totals.TotalFees,
		inv.Totals.TotalDiscounts, inv.Totals.FinalTotal, inv.DueDate, inv.Notes,
		inv.UpdatedBy, inv.UpdatedAt,
	)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM invoice_line_items WHERE invoice_id = $1`, inv.ID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM invoice_adjustments WHERE invoice_id = $1`, inv.ID); err != nil {
		return err
	}
	if err := insertContents(ctx, tx, inv); err != nil {
		return err
	}

	if entry != nil {
		_, err = tx.Exec(ctx,
			`INSERT INTO invoice_update_logs(id, invoice_id, previous_total, new_total, updated_by, updated_at)
			 VALUES($1,$2,$3,$4,$5,$6)`,
			entry.ID, entry.InvoiceID, entry.PreviousTotal, entry.NewTotal, entry.UpdatedBy, entry.UpdatedAt,
		)
		if err != nil {
			return translate(err)
		}
	}

	return tx.Commit(ctx)
}

// UpdateStatus writes the new status and appends the history record in one
// transaction.
func (r *InvoiceRepository) UpdateStatus(ctx context.Context, inv *models.Invoice, history *models.StatusHistory) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE invoices SET status=$2, updated_by=$3, updated_at=$4 WHERE id=$1`,
		inv.ID, inv.Status, inv.UpdatedBy, inv.UpdatedAt)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO invoice_status_history(id, invoice_id, from_status, to_status, changed_by, changed_at, reason)
		 VALUES($1,$2,$3,$4,$5,$6,$7)`,
		history.ID, history.InvoiceID, history.FromStatus, history.ToStatus,
		history.ChangedBy, history.ChangedAt, history.Reason)
	if err != nil {
		return translate(err)
	}

	return tx.Commit(ctx)
}

// Delete removes a draft invoice; other statuses are kept for the books.
func (r *InvoiceRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM invoices WHERE id = $1 AND status = 'draft'`, id)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// History returns the status changes of an invoice, oldest first
func (r *InvoiceRepository) History(ctx context.Context, invoiceID string) ([]models.StatusHistory, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, invoice_id, from_status, to_status, changed_by, changed_at, reason
		 FROM invoice_status_history WHERE invoice_id = $1 ORDER BY changed_at`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := []models.StatusHistory{}
	for rows.Next() {
		var h models.StatusHistory
		if err := rows.Scan(&h.ID, &h.InvoiceID, &h.FromStatus, &h.ToStatus,
			&h.ChangedBy, &h.ChangedAt, &h.Reason); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

// UpdateLogs returns the total changes of an invoice, oldest first
func (r *InvoiceRepository) UpdateLogs(ctx context.Context, invoiceID string) ([]models.InvoiceUpdateLog, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, invoice_id, previous_total, new_total, updated_by, updated_at
		 FROM invoice_update_logs WHERE invoice_id = $1 ORDER BY updated_at`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []models.InvoiceUpdateLog{}
	for rows.Next() {
		var l models.InvoiceUpdateLog
		if err := rows.Scan(&l.ID, &l.InvoiceID, &l.PreviousTotal, &l.NewTotal,
			&l.UpdatedBy, &l.UpdatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// CountByStatus powers the invoice gauges
func (r *InvoiceRepository) CountByStatus(ctx context.Context) (map[billing.InvoiceStatus]int, error) {
	rows, err := r.DB.Query(ctx, `SELECT status, COUNT(*) FROM invoices GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[billing.InvoiceStatus]int)
	for rows.Next() {
		var status billing.InvoiceStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
