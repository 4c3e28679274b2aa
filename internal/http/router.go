package http

import (
	"net/http"

	"billing-backend/internal/billing"
	"billing-backend/internal/handlers"
	"billing-backend/internal/middleware"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(
	authHandler *handlers.AuthHandler,
	clientHandler *handlers.ClientHandler,
	invoiceHandler *handlers.InvoiceHandler,
	transactionHandler *handlers.TransactionHandler,
	reportHandler *handlers.ReportHandler,
	healthHandler *handlers.HealthHandler,
	feed http.Handler,
	authMiddleware *middleware.AuthMiddleware,
) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger, middleware.Metrics, middleware.Locale)

	// Health checks and metrics (no auth)
	r.HandleFunc("/health", healthHandler.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", healthHandler.ReadinessHealth).Methods("GET")
	r.HandleFunc("/health/detailed", healthHandler.DetailedHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler())

	// Public API routes - Authentication
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Status change feed
	ws := r.PathPrefix("/ws").Subrouter()
	ws.Use(authMiddleware.Authenticate)
	ws.Handle("/invoices", feed).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware.Authenticate)

	// Clients
	api.HandleFunc("/clients", clientHandler.ListClients).Methods("GET")
	api.HandleFunc("/clients/{id}", clientHandler.GetClient).Methods("GET")
	api.Handle("/clients", guard(billing.PermClientsManage, clientHandler.CreateClient)).Methods("POST")
	api.Handle("/clients/{id}", guard(billing.PermClientsManage, clientHandler.UpdateClient)).Methods("PUT")
	api.Handle("/clients/{id}", guard(billing.PermClientsManage, clientHandler.DeleteClient)).Methods("DELETE")

	// Invoices; fixed paths before {id}
	api.HandleFunc("/invoices", invoiceHandler.ListInvoices).Methods("GET")
	api.Handle("/invoices", guard(billing.PermInvoicesCreate, invoiceHandler.CreateInvoice)).Methods("POST")
	api.Handle("/invoices/batch-recalculate", guard(billing.PermInvoicesEdit, invoiceHandler.BatchRecalculate)).Methods("POST")
	api.Handle("/invoices/reconcile", guard(billing.PermReconcile, invoiceHandler.Reconcile)).Methods("POST")
	api.HandleFunc("/invoices/{id}", invoiceHandler.GetInvoice).Methods("GET")
	api.Handle("/invoices/{id}", guard(billing.PermInvoicesEdit, invoiceHandler.UpdateInvoice)).Methods("PUT")
	api.Handle("/invoices/{id}", guard(billing.PermInvoicesDelete, invoiceHandler.DeleteInvoice)).Methods("DELETE")
	api.Handle("/invoices/{id}/recalculate", guard(billing.PermInvoicesEdit, invoiceHandler.RecalculateInvoice)).Methods("POST")
	// transition permissions come from the transition table
	api.HandleFunc("/invoices/{id}/status", invoiceHandler.ChangeStatus).Methods("POST")
	api.HandleFunc("/invoices/{id}/transitions", invoiceHandler.AvailableTransitions).Methods("GET")
	api.HandleFunc("/invoices/{id}/history", invoiceHandler.History).Methods("GET")
	api.HandleFunc("/invoices/{id}/update-logs", invoiceHandler.UpdateLogs).Methods("GET")
	api.Handle("/invoices/{id}/pdf", guard(billing.PermReportsView, reportHandler.InvoicePDF)).Methods("GET")

	// Transactions
	api.Handle("/transactions", guard(billing.PermTransactionsManage, transactionHandler.ListTransactions)).Methods("GET")
	api.Handle("/transactions", guard(billing.PermTransactionsManage, transactionHandler.RecordTransaction)).Methods("POST")

	return r
}

func guard(permission string, h http.HandlerFunc) http.Handler {
	return middleware.RequirePermission(permission)(h)
}
