package repositories

import (
	"context"
	"fmt"

	"billing-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type TransactionRepository struct {
	DB *pgxpool.Pool
}

func NewTransactionRepository(db *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{DB: db}
}

// Create records a transaction. Payments and refunds linked to an invoice
// move its paid_amount in the same database transaction; the new paid amount
// is returned (nil when no invoice was touched).
func (r *TransactionRepository) Create(ctx context.Context, t *models.Transaction) (*decimal.Decimal, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO transactions(id, invoice_id, client_id, type, amount, method, reference,
		                          transaction_date, notes, created_by, created_at)
		 VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		t.ID, t.InvoiceID, t.ClientID, t.Type, t.Amount, t.Method, t.Reference,
		t.TransactionDate, t.Notes, t.CreatedBy, t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", translate(err))
	}

	var paid *decimal.Decimal
	if t.InvoiceID != nil && (t.Type == models.TransactionPayment || t.Type == models.TransactionRefund) {
		delta := t.Amount
		if t.Type == models.TransactionRefund {
			delta = delta.Neg()
		}
		var newPaid decimal.Decimal
		err := tx.QueryRow(ctx,
			`UPDATE invoices SET paid_amount = GREATEST(paid_amount + $2, 0), updated_by = $3, updated_at = $4
			 WHERE id = $1 RETURNING paid_amount`,
			*t.InvoiceID, delta, t.CreatedBy, t.CreatedAt,
		).Scan(&newPaid)
		if err != nil {
			return nil, translate(err)
		}
		paid = &newPaid
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return paid, nil
}

// List returns transactions, optionally only those of one invoice
func (r *TransactionRepository) List(ctx context.Context, invoiceID string) ([]*models.Transaction, error) {
	query := `SELECT id, invoice_id, client_id, type, amount, method, reference,
	                 transaction_date, notes, created_by, created_at
	          FROM transactions`
	var args []interface{}
	if invoiceID != "" {
		query += ` WHERE invoice_id = $1`
		args = append(args, invoiceID)
	}
	query += ` ORDER BY transaction_date DESC, created_at DESC`

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := []*models.Transaction{}
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.InvoiceID, &t.ClientID, &t.Type, &t.Amount, &t.Method,
			&t.Reference, &t.TransactionDate, &t.Notes, &t.CreatedBy, &t.CreatedAt); err != nil {
			return nil, err
		}
		txs = append(txs, &t)
	}
	return txs, rows.Err()
}
