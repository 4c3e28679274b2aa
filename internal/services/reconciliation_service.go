package services

import (
	"context"
	"sync"
	"time"

	"billing-backend/internal/billing"
	"billing-backend/internal/logger"
	"billing-backend/internal/metrics"
	"billing-backend/internal/models"
	"billing-backend/internal/timeutil"

	"github.com/rs/zerolog"
)

// Reconciliation triggers
const (
	TriggerManual   = "manual"
	TriggerSchedule = "schedule"
	TriggerCLI      = "cli"
)

// ReconciledInvoice is one status change applied by a run
type ReconciledInvoice struct {
	InvoiceID     string                `json:"invoice_id"`
	InvoiceNumber string                `json:"invoice_number"`
	From          billing.InvoiceStatus `json:"from"`
	To            billing.InvoiceStatus `json:"to"`
}

type ReconciliationReport struct {
	Trigger   string              `json:"trigger"`
	Checked   int                 `json:"checked"`
	Changed   []ReconciledInvoice `json:"changed"`
	Failed    []BatchFailure      `json:"failed"`
	Timestamp time.Time           `json:"timestamp"`
}

// ReconciliationService derives statuses from due dates and payments for
// open invoices and applies them as the system principal.
type ReconciliationService struct {
	invoices InvoiceStore
	status   *StatusService
	interval time.Duration
	stopChan chan struct{}
	wg       sync.WaitGroup
	log      zerolog.Logger
}

func NewReconciliationService(invoices InvoiceStore, status *StatusService, interval time.Duration) *ReconciliationService {
	return &ReconciliationService{
		invoices: invoices,
		status:   status,
		interval: interval,
		stopChan: make(chan struct{}),
		log:      logger.WithComponent("reconcile"),
	}
}

var openStatuses = []billing.InvoiceStatus{
	billing.StatusSent, billing.StatusOverdue, billing.StatusPartiallyPaid,
}

// Run checks every open invoice once. Invoices are handled in order and
// independently.
func (s *ReconciliationService) Run(ctx context.Context, trigger string) (*ReconciliationReport, error) {
	metrics.ReconciliationRunsTotal.WithLabelValues(trigger).Inc()

	invoices, err := s.invoices.List(ctx, models.InvoiceFilter{Statuses: openStatuses})
	if err != nil {
		return nil, &billing.PersistenceError{Op: "list open invoices", Err: err}
	}

	report := &ReconciliationReport{
		Trigger: trigger,
		Checked: len(invoices),
		Changed: []ReconciledInvoice{},
		Failed:  []BatchFailure{},
	}
	for _, inv := range invoices {
		changes, err := s.status.ApplyDerived(ctx, inv.ID, models.SystemPrincipal, "reconciliation")
		if err != nil {
			report.Failed = append(report.Failed, BatchFailure{
				InvoiceID: inv.ID,
				Errors:    []string{err.Error()},
				ErrorKind: billing.KindOf(err),
			})
			continue
		}
		for _, c := range changes {
			if !c.Success {
				report.Failed = append(report.Failed, BatchFailure{
					InvoiceID: inv.ID,
					Errors:    c.Errors,
					ErrorKind: c.ErrorKind,
				})
				continue
			}
			report.Changed = append(report.Changed, ReconciledInvoice{
				InvoiceID:     inv.ID,
				InvoiceNumber: inv.InvoiceNumber,
				From:          c.FromStatus,
				To:            c.ToStatus,
			})
		}
	}
	report.Timestamp = timeutil.Now()

	s.log.Info().Str("trigger", trigger).Int("checked", report.Checked).
		Int("changed", len(report.Changed)).Int("failed", len(report.Failed)).
		Msg("reconciliation finished")
	return report, nil
}

// Start runs reconciliation on the configured interval. A zero interval
// disables the schedule.
func (s *ReconciliationService) Start() {
	if s.interval <= 0 {
		s.log.Info().Msg("scheduled reconciliation disabled")
		return
	}
	s.log.Info().Dur("interval", s.interval).Msg("starting scheduled reconciliation")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), s.interval)
				if _, err := s.Run(ctx, TriggerSchedule); err != nil {
					s.log.Error().Err(err).Msg("scheduled reconciliation failed")
				}
				cancel()
			case <-s.stopChan:
				return
			}
		}
	}()
}

// Stop ends the schedule and waits for a running pass to finish
func (s *ReconciliationService) Stop() {
	close(s.stopChan)
	s.wg.Wait()
}
