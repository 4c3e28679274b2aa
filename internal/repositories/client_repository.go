package repositories

import (
	"context"

	"billing-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ClientRepository struct {
	DB *pgxpool.Pool
}

func NewClientRepository(db *pgxpool.Pool) *ClientRepository {
	return &ClientRepository{DB: db}
}

func (r *ClientRepository) Create(ctx context.Context, c *models.Client) error {
	_, err := r.DB.Exec(ctx,
		`INSERT INTO clients(id, name, email, phone, company, address, created_at, updated_at)
		 VALUES($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.Name, c.Email, c.Phone, c.Company, c.Address, c.CreatedAt, c.UpdatedAt)
	return translate(err)
}

func (r *ClientRepository) Get(ctx context.Context, id string) (*models.Client, error) {
	var c models.Client
	err := r.DB.QueryRow(ctx,
		`SELECT id, name, email, phone, company, address, created_at, updated_at
		 FROM clients WHERE id=$1`, id,
	).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *ClientRepository) List(ctx context.Context) ([]*models.Client, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, name, email, phone, company, address, created_at, updated_at
		 FROM clients ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clients := []*models.Client{}
	for rows.Next() {
		var c models.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.Address,
			&c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		clients = append(clients, &c)
	}
	return clients, rows.Err()
}

// Update writes the client and refreshes the denormalized name/email on its
// invoices that are still drafts.
func (r *ClientRepository) Update(ctx context.Context, c *models.Client) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE clients SET name=$2, email=$3, phone=$4, company=$5, address=$6, updated_at=$7
		 WHERE id=$1`,
		c.ID, c.Name, c.Email, c.Phone, c.Company, c.Address, c.UpdatedAt)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(ctx,
		`UPDATE invoices SET client_name=$2, client_email=$3 WHERE client_id=$1 AND status='draft'`,
		c.ID, c.Name, c.Email); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Delete fails with ErrConflict while invoices still reference the client.
func (r *ClientRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM clients WHERE id=$1`, id)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
