package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"billing-backend/internal/config"
	"billing-backend/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	invoiceKeyFmt     = "invoice:%s"
	invoiceListKeyFmt = "invoices:list:%s:%s"
	invoiceListKeys   = "invoices:list:*"
)

// Cache is a read-through helper for invoices. A nil *Cache, or one without
// a client, is a valid no-op cache so the service degrades gracefully when
// redis is down.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to redis. When no host is configured it returns a no-op cache.
func New(cfg *config.Config) (*Cache, error) {
	ttl := cfg.Redis.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if cfg.Redis.Host == "" {
		return &Cache{ttl: ttl}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return &Cache{ttl: ttl}, err
	}
	return &Cache{client: client, ttl: ttl}, nil
}

// NewWithClient wraps an existing client
func NewWithClient(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil
}

// GetInvoice returns a cached invoice if present
func (c *Cache) GetInvoice(ctx context.Context, id string) (*models.Invoice, bool) {
	if !c.enabled() {
		return nil, false
	}
	data, err := c.client.Get(ctx, fmt.Sprintf(invoiceKeyFmt, id)).Bytes()
	if err != nil {
		return nil, false
	}
	var inv models.Invoice
	if err := json.Unmarshal(data, &inv); err != nil {
		return nil, false
	}
	return &inv, true
}

// SetInvoice caches an invoice for the configured TTL
func (c *Cache) SetInvoice(ctx context.Context, inv *models.Invoice) {
	if !c.enabled() || inv == nil {
		return
	}
	data, err := json.Marshal(inv)
	if err != nil {
		return
	}
	c.client.Set(ctx, fmt.Sprintf(invoiceKeyFmt, inv.ID), data, c.ttl)
}

func listKey(filter models.InvoiceFilter) string {
	return fmt.Sprintf(invoiceListKeyFmt, filter.Status, filter.ClientID)
}

// GetInvoiceList returns a cached listing for the filter
func (c *Cache) GetInvoiceList(ctx context.Context, filter models.InvoiceFilter) ([]*models.Invoice, bool) {
	if !c.enabled() || len(filter.Statuses) > 0 {
		return nil, false
	}
	data, err := c.client.Get(ctx, listKey(filter)).Bytes()
	if err != nil {
		return nil, false
	}
	var invoices []*models.Invoice
	if err := json.Unmarshal(data, &invoices); err != nil {
		return nil, false
	}
	return invoices, true
}

// SetInvoiceList caches a listing for the filter
func (c *Cache) SetInvoiceList(ctx context.Context, filter models.InvoiceFilter, invoices []*models.Invoice) {
	if !c.enabled() || len(filter.Statuses) > 0 {
		return
	}
	data, err := json.Marshal(invoices)
	if err != nil {
		return
	}
	c.client.Set(ctx, listKey(filter), data, c.ttl)
}

// InvalidateInvoice drops the invoice and every cached listing
func (c *Cache) InvalidateInvoice(ctx context.Context, id string) {
	if !c.enabled() {
		return
	}
	c.client.Del(ctx, fmt.Sprintf(invoiceKeyFmt, id))
	c.invalidatePattern(ctx, invoiceListKeys)
}

// InvalidateAll drops every cached invoice and listing
func (c *Cache) InvalidateAll(ctx context.Context) {
	if !c.enabled() {
		return
	}
	c.invalidatePattern(ctx, "invoice:*")
	c.invalidatePattern(ctx, invoiceListKeys)
}

// invalidatePattern removes all keys matching a glob pattern
func (c *Cache) invalidatePattern(ctx context.Context, pattern string) {
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if len(keys) > 0 {
		c.client.Del(ctx, keys...)
	}
}

// IsHealthy reports whether redis answers a ping
func (c *Cache) IsHealthy(ctx context.Context) bool {
	if !c.enabled() {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return c.client.Ping(ctx).Err() == nil
}

// Enabled reports whether a redis client is configured
func (c *Cache) Enabled() bool {
	return c.enabled()
}

// Close releases the client
func (c *Cache) Close() error {
	if !c.enabled() {
		return nil
	}
	return c.client.Close()
}
