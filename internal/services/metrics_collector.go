package services

import (
	"context"
	"sync"
	"time"

	"billing-backend/internal/billing"
	"billing-backend/internal/logger"
	"billing-backend/internal/metrics"

	"github.com/rs/zerolog"
)

// MetricsCollector periodically publishes invoice counts per status
type MetricsCollector struct {
	invoices        InvoiceStore
	collectInterval time.Duration
	stopChan        chan struct{}
	wg              sync.WaitGroup
	log             zerolog.Logger
}

func NewMetricsCollector(invoices InvoiceStore) *MetricsCollector {
	return &MetricsCollector{
		invoices:        invoices,
		collectInterval: 30 * time.Second,
		stopChan:        make(chan struct{}),
		log:             logger.WithComponent("metrics"),
	}
}

// Start begins the collection loop
func (c *MetricsCollector) Start() {
	c.log.Info().Dur("interval", c.collectInterval).Msg("starting metrics collector")

	// Collect immediately on start
	c.Collect(context.Background())

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.collectInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.Collect(context.Background())
			case <-c.stopChan:
				c.log.Info().Msg("stopping metrics collector")
				return
			}
		}
	}()
}

func (c *MetricsCollector) Stop() {
	close(c.stopChan)
	c.wg.Wait()
}

// Collect refreshes the per-status gauge once
func (c *MetricsCollector) Collect(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	counts, err := c.invoices.CountByStatus(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("failed to count invoices by status")
		return
	}
	for _, status := range billing.AllStatuses {
		metrics.InvoicesByStatus.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
}
