package handlers

import (
	"context"
	"net/http"

	"billing-backend/internal/billing"
	"billing-backend/internal/models"
	"billing-backend/internal/services"
	"billing-backend/pkg/utils"

	"github.com/gorilla/mux"
)

// InvoiceOperations is implemented by *services.InvoiceService
type InvoiceOperations interface {
	CreateInvoice(ctx context.Context, req *models.CreateInvoiceRequest, p models.Principal) *services.InvoiceUpdateResult
	GetInvoice(ctx context.Context, id string) (*models.Invoice, error)
	ListInvoices(ctx context.Context, filter models.InvoiceFilter) ([]*models.Invoice, error)
	UpdateInvoice(ctx context.Context, id string, req *models.UpdateInvoiceRequest, p models.Principal) *services.InvoiceUpdateResult
	RecalculateInvoice(ctx context.Context, id string, p models.Principal) *services.InvoiceUpdateResult
	BatchRecalculate(ctx context.Context, ids []string, p models.Principal) *services.BatchUpdateResult
	DeleteInvoice(ctx context.Context, id string) error
	History(ctx context.Context, id string) ([]models.StatusHistory, error)
	UpdateLogs(ctx context.Context, id string) ([]models.InvoiceUpdateLog, error)
}

// StatusOperations is implemented by *services.StatusService
type StatusOperations interface {
	ChangeStatus(ctx context.Context, id string, req models.ChangeStatusRequest, p models.Principal) *services.StatusChangeResult
	AvailableTransitions(ctx context.Context, id string, p models.Principal) ([]services.TransitionOption, error)
}

// Reconciler is implemented by *services.ReconciliationService
type Reconciler interface {
	Run(ctx context.Context, trigger string) (*services.ReconciliationReport, error)
}

type InvoiceHandler struct {
	Invoices   InvoiceOperations
	Status     StatusOperations
	Reconciler Reconciler
}

func NewInvoiceHandler(invoices InvoiceOperations, status StatusOperations, reconciler Reconciler) *InvoiceHandler {
	return &InvoiceHandler{
		Invoices:   invoices,
		Status:     status,
		Reconciler: reconciler,
	}
}

func (h *InvoiceHandler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req models.CreateInvoiceRequest
	if err := utils.Decode(r, &req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res := h.Invoices.CreateInvoice(r.Context(), &req, principal(r))
	writeResult(w, res.OperationResult, http.StatusCreated, res)
}

func (h *InvoiceHandler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.Invoices.GetInvoice(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	utils.JSON(w, http.StatusOK, inv)
}

// ListInvoices supports ?status= and ?client_id= filters
func (h *InvoiceHandler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.InvoiceFilter{
		Status:   billing.InvoiceStatus(q.Get("status")),
		ClientID: q.Get("client_id"),
	}

	invoices, err := h.Invoices.ListInvoices(r.Context(), filter)
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	utils.JSON(w, http.StatusOK, invoices)
}

func (h *InvoiceHandler) UpdateInvoice(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateInvoiceRequest
	if err := utils.Decode(r, &req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res := h.Invoices.UpdateInvoice(r.Context(), mux.Vars(r)["id"], &req, principal(r))
	writeResult(w, res.OperationResult, http.StatusOK, res)
}

func (h *InvoiceHandler) RecalculateInvoice(w http.ResponseWriter, r *http.Request) {
	res := h.Invoices.RecalculateInvoice(r.Context(), mux.Vars(r)["id"], principal(r))
	writeResult(w, res.OperationResult, http.StatusOK, res)
}

// BatchRecalculate always answers 200; per-invoice failures are in the body
func (h *InvoiceHandler) BatchRecalculate(w http.ResponseWriter, r *http.Request) {
	var req models.BatchRecalculateRequest
	if err := utils.Decode(r, &req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.InvoiceIDs) == 0 {
		writeFailure(r.Context(), w, billing.NewValidationError("invoice_ids must not be empty"))
		return
	}

	utils.JSON(w, http.StatusOK, h.Invoices.BatchRecalculate(r.Context(), req.InvoiceIDs, principal(r)))
}

func (h *InvoiceHandler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	if err := h.Invoices.DeleteInvoice(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ChangeStatus answers 409 with the confirmation message when the transition
// needs confirming; repeat with "confirmed": true to apply it.
func (h *InvoiceHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	var req models.ChangeStatusRequest
	if err := utils.Decode(r, &req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !req.Status.Valid() {
		writeFailure(r.Context(), w, billing.NewValidationError("unknown status: "+string(req.Status)))
		return
	}

	res := h.Status.ChangeStatus(r.Context(), mux.Vars(r)["id"], req, principal(r))
	writeResult(w, res.OperationResult, http.StatusOK, res)
}

func (h *InvoiceHandler) AvailableTransitions(w http.ResponseWriter, r *http.Request) {
	options, err := h.Status.AvailableTransitions(r.Context(), mux.Vars(r)["id"], principal(r))
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	utils.JSON(w, http.StatusOK, options)
}

func (h *InvoiceHandler) History(w http.ResponseWriter, r *http.Request) {
	history, err := h.Invoices.History(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	utils.JSON(w, http.StatusOK, history)
}

func (h *InvoiceHandler) UpdateLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.Invoices.UpdateLogs(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	utils.JSON(w, http.StatusOK, logs)
}

func (h *InvoiceHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.Reconciler.Run(r.Context(), services.TriggerManual)
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	utils.JSON(w, http.StatusOK, report)
}
