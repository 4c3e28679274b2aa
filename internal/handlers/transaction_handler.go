package handlers

import (
	"net/http"

	"billing-backend/internal/models"
	"billing-backend/internal/services"
	"billing-backend/pkg/utils"
)

type TransactionHandler struct {
	Service *services.TransactionService
}

func NewTransactionHandler(s *services.TransactionService) *TransactionHandler {
	return &TransactionHandler{Service: s}
}

func (h *TransactionHandler) RecordTransaction(w http.ResponseWriter, r *http.Request) {
	var req models.RecordTransactionRequest
	if err := utils.Decode(r, &req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.Service.RecordTransaction(r.Context(), &req, principal(r))
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, res)
}

// ListTransactions supports ?invoice_id=
func (h *TransactionHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := h.Service.ListTransactions(r.Context(), r.URL.Query().Get("invoice_id"))
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}
	utils.JSON(w, http.StatusOK, txns)
}
