package services

import (
	"context"

	"billing-backend/internal/billing"
	"billing-backend/internal/events"
	"billing-backend/internal/models"

	"github.com/shopspring/decimal"
)

// InvoiceStore persists invoices with their contents, history and update logs.
type InvoiceStore interface {
	NextInvoiceNumber(ctx context.Context) (string, error)
	Create(ctx context.Context, inv *models.Invoice) error
	Get(ctx context.Context, id string) (*models.Invoice, error)
	List(ctx context.Context, filter models.InvoiceFilter) ([]*models.Invoice, error)
	SaveContents(ctx context.Context, inv *models.Invoice, entry *models.InvoiceUpdateLog) error
	UpdateStatus(ctx context.Context, inv *models.Invoice, history *models.StatusHistory) error
	Delete(ctx context.Context, id string) error
	History(ctx context.Context, invoiceID string) ([]models.StatusHistory, error)
	UpdateLogs(ctx context.Context, invoiceID string) ([]models.InvoiceUpdateLog, error)
	CountByStatus(ctx context.Context) (map[billing.InvoiceStatus]int, error)
}

type ClientStore interface {
	Create(ctx context.Context, c *models.Client) error
	Get(ctx context.Context, id string) (*models.Client, error)
	List(ctx context.Context) ([]*models.Client, error)
	Update(ctx context.Context, c *models.Client) error
	Delete(ctx context.Context, id string) error
}

type TransactionStore interface {
	Create(ctx context.Context, t *models.Transaction) (*decimal.Decimal, error)
	List(ctx context.Context, invoiceID string) ([]*models.Transaction, error)
}

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	Get(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// InvoiceCache is the read-through cache in front of InvoiceStore. All
// methods are best effort.
type InvoiceCache interface {
	GetInvoice(ctx context.Context, id string) (*models.Invoice, bool)
	SetInvoice(ctx context.Context, inv *models.Invoice)
	GetInvoiceList(ctx context.Context, filter models.InvoiceFilter) ([]*models.Invoice, bool)
	SetInvoiceList(ctx context.Context, filter models.InvoiceFilter, invoices []*models.Invoice)
	InvalidateInvoice(ctx context.Context, id string)
	InvalidateAll(ctx context.Context)
}

// Publisher fans status changes out to live subscribers
type Publisher interface {
	Publish(evt events.StatusEvent)
}

type noopCache struct{}

func (noopCache) GetInvoice(context.Context, string) (*models.Invoice, bool) {
	return nil, false
}

func (noopCache) SetInvoice(context.Context, *models.Invoice) {}

func (noopCache) GetInvoiceList(context.Context, models.InvoiceFilter) ([]*models.Invoice, bool) {
	return nil, false
}

func (noopCache) SetInvoiceList(context.Context, models.InvoiceFilter, []*models.Invoice) {}

func (noopCache) InvalidateInvoice(context.Context, string) {}

func (noopCache) InvalidateAll(context.Context) {}

type noopPublisher struct{}

func (noopPublisher) Publish(events.StatusEvent) {}
