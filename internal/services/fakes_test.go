package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"billing-backend/internal/billing"
	"billing-backend/internal/events"
	"billing-backend/internal/models"
	"billing-backend/internal/repositories"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func cloneInvoice(inv *models.Invoice) *models.Invoice {
	c := *inv
	c.LineItems = append([]billing.LineItem{}, inv.LineItems...)
	c.Fees = append([]billing.Adjustment{}, inv.Fees...)
	c.Discounts = append([]billing.Adjustment{}, inv.Discounts...)
	return &c
}

type memInvoices struct {
	mu      sync.Mutex
	seq     int
	byID    map[string]*models.Invoice
	history []models.StatusHistory
	logs    []models.InvoiceUpdateLog

	failSave   error
	failStatus error
	tamper     *decimal.Decimal
	panicOnGet bool
}

func newMemInvoices(invoices ...*models.Invoice) *memInvoices {
	m := &memInvoices{byID: map[string]*models.Invoice{}}
	for _, inv := range invoices {
		m.byID[inv.ID] = cloneInvoice(inv)
	}
	return m
}

func (m *memInvoices) NextInvoiceNumber(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	return fmt.Sprintf("INV-%06d", m.seq), nil
}

func (m *memInvoices) Create(_ context.Context, inv *models.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[inv.ID] = cloneInvoice(inv)
	return nil
}

func (m *memInvoices) Get(_ context.Context, id string) (*models.Invoice, error) {
	if m.panicOnGet {
		panic("store exploded")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.byID[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return cloneInvoice(inv), nil
}

func (m *memInvoices) List(_ context.Context, filter models.InvoiceFilter) ([]*models.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Invoice
	for _, inv := range m.byID {
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		if filter.ClientID != "" && inv.ClientID != filter.ClientID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, inv.Status) {
			continue
		}
		out = append(out, cloneInvoice(inv))
	}
	return out, nil
}

func containsStatus(statuses []billing.InvoiceStatus, s billing.InvoiceStatus) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func (m *memInvoices) SaveContents(_ context.Context, inv *models.Invoice, entry *models.InvoiceUpdateLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave != nil {
		return m.failSave
	}
	if _, ok := m.byID[inv.ID]; !ok {
		return repositories.ErrNotFound
	}
	stored := cloneInvoice(inv)
	if m.tamper != nil {
		stored.Totals.FinalTotal = *m.tamper
	}
	m.byID[inv.ID] = stored
	if entry != nil {
		m.logs = append(m.logs, *entry)
	}
	return nil
}

func (m *memInvoices) UpdateStatus(_ context.Context, inv *models.Invoice, history *models.StatusHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failStatus != nil {
		return m.failStatus
	}
	stored, ok := m.byID[inv.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	stored.Status = inv.Status
	stored.UpdatedAt = inv.UpdatedAt
	stored.UpdatedBy = inv.UpdatedBy
	m.history = append(m.history, *history)
	return nil
}

func (m *memInvoices) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.byID[id]
	if !ok || inv.Status != billing.StatusDraft {
		return repositories.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memInvoices) History(_ context.Context, invoiceID string) ([]models.StatusHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.StatusHistory{}
	for _, h := range m.history {
		if h.InvoiceID == invoiceID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *memInvoices) UpdateLogs(_ context.Context, invoiceID string) ([]models.InvoiceUpdateLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.InvoiceUpdateLog{}
	for _, l := range m.logs {
		if l.InvoiceID == invoiceID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memInvoices) CountByStatus(context.Context) (map[billing.InvoiceStatus]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[billing.InvoiceStatus]int{}
	for _, inv := range m.byID {
		counts[inv.Status]++
	}
	return counts, nil
}

func (m *memInvoices) status(id string) billing.InvoiceStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id].Status
}

type memClients struct {
	byID       map[string]*models.Client
	referenced map[string]bool
}

func newMemClients(clients ...*models.Client) *memClients {
	m := &memClients{byID: map[string]*models.Client{}, referenced: map[string]bool{}}
	for _, c := range clients {
		m.byID[c.ID] = c
	}
	return m
}

func (m *memClients) Create(_ context.Context, c *models.Client) error {
	for _, existing := range m.byID {
		if existing.Email == c.Email {
			return repositories.ErrConflict
		}
	}
	m.byID[c.ID] = c
	return nil
}

func (m *memClients) Get(_ context.Context, id string) (*models.Client, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (m *memClients) List(context.Context) ([]*models.Client, error) {
	out := []*models.Client{}
	for _, c := range m.byID {
		out = append(out, c)
	}
	return out, nil
}

func (m *memClients) Update(_ context.Context, c *models.Client) error {
	if _, ok := m.byID[c.ID]; !ok {
		return repositories.ErrNotFound
	}
	m.byID[c.ID] = c
	return nil
}

func (m *memClients) Delete(_ context.Context, id string) error {
	if m.referenced[id] {
		return repositories.ErrConflict
	}
	if _, ok := m.byID[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

// memTransactions moves paid amounts on the shared invoice fake like the
// database transaction does.
type memTransactions struct {
	invoices *memInvoices
	all      []*models.Transaction
}

func (m *memTransactions) Create(_ context.Context, t *models.Transaction) (*decimal.Decimal, error) {
	m.all = append(m.all, t)
	if t.InvoiceID == nil || t.Type == models.TransactionExpense {
		return nil, nil
	}

	m.invoices.mu.Lock()
	defer m.invoices.mu.Unlock()
	inv, ok := m.invoices.byID[*t.InvoiceID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	delta := t.Amount
	if t.Type == models.TransactionRefund {
		delta = delta.Neg()
	}
	inv.PaidAmount = decimal.Max(inv.PaidAmount.Add(delta), decimal.Zero)
	paid := inv.PaidAmount
	return &paid, nil
}

func (m *memTransactions) List(_ context.Context, invoiceID string) ([]*models.Transaction, error) {
	out := []*models.Transaction{}
	for _, t := range m.all {
		if invoiceID == "" || (t.InvoiceID != nil && *t.InvoiceID == invoiceID) {
			out = append(out, t)
		}
	}
	return out, nil
}

type memUsers struct {
	byID map[string]*models.User
}

func (m *memUsers) Create(_ context.Context, u *models.User) error {
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return repositories.ErrConflict
		}
	}
	m.byID[u.ID] = u
	return nil
}

func (m *memUsers) Get(_ context.Context, id string) (*models.User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, repositories.ErrNotFound
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

type recordingPublisher struct {
	events []events.StatusEvent
}

func (p *recordingPublisher) Publish(evt events.StatusEvent) {
	p.events = append(p.events, evt)
}

type recordingCache struct {
	noopCache
	invalidated []string
}

func (c *recordingCache) InvalidateInvoice(_ context.Context, id string) {
	c.invalidated = append(c.invalidated, id)
}

var errDiskFull = errors.New("disk full")
