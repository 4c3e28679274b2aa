package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "billing_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	StatusTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_invoice_status_transitions_total",
			Help: "Applied invoice status transitions.",
		},
		[]string{"from", "to"},
	)

	StatusChangeOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_invoice_status_change_outcomes_total",
			Help: "Status change attempts by outcome kind.",
		},
		[]string{"outcome"},
	)

	CalculationFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "billing_calculation_failures_total",
			Help: "Invoice total calculations that reported errors.",
		},
	)

	InvoiceUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_invoice_updates_total",
			Help: "Invoice update workflow runs by outcome.",
		},
		[]string{"outcome"},
	)

	ReconciliationRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_reconciliation_runs_total",
			Help: "Reconciliation runs by trigger.",
		},
		[]string{"trigger"},
	)

	InvoicesByStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "billing_invoices",
			Help: "Current number of invoices per status.",
		},
		[]string{"status"},
	)

	WebsocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "billing_websocket_clients",
			Help: "Connected status feed clients.",
		},
	)
)
