package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"billing-backend/internal/billing"
	"billing-backend/internal/middleware"
	"billing-backend/internal/models"
	"billing-backend/internal/services"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubInvoices struct {
	InvoiceOperations
	filter models.InvoiceFilter
	batch  []string
}

func (s *stubInvoices) GetInvoice(_ context.Context, id string) (*models.Invoice, error) {
	if id == "a" {
		return &models.Invoice{ID: "a", InvoiceNumber: "INV-000001"}, nil
	}
	return nil, &billing.NotFoundError{Entity: "invoice", ID: id}
}

func (s *stubInvoices) ListInvoices(_ context.Context, filter models.InvoiceFilter) ([]*models.Invoice, error) {
	s.filter = filter
	return []*models.Invoice{}, nil
}

func (s *stubInvoices) BatchRecalculate(_ context.Context, ids []string, _ models.Principal) *services.BatchUpdateResult {
	s.batch = ids
	return &services.BatchUpdateResult{Successful: ids[:1], Failed: []services.BatchFailure{{InvoiceID: ids[1]}}}
}

type stubStatus struct {
	StatusOperations
	result    *services.StatusChangeResult
	principal models.Principal
}

func (s *stubStatus) ChangeStatus(_ context.Context, _ string, _ models.ChangeStatusRequest, p models.Principal) *services.StatusChangeResult {
	s.principal = p
	return s.result
}

func serve(h http.HandlerFunc, method, target, body string, vars map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	ctx := middleware.WithPrincipal(req.Context(), models.Principal{ID: "acct-1"})
	rec := httptest.NewRecorder()
	h(rec, req.WithContext(ctx))
	return rec
}

func TestChangeStatusHTTPCodes(t *testing.T) {
	tests := []struct {
		name   string
		result services.OperationResult
		extra  func(*services.StatusChangeResult)
		want   int
	}{
		{"applied", services.OperationResult{Success: true}, nil, http.StatusOK},
		{"needs confirmation", services.OperationResult{ErrorKind: billing.KindConfirmation}, func(r *services.StatusChangeResult) {
			r.RequiresConfirmation = true
			r.ConfirmationMessage = "Send this invoice to the client?"
		}, http.StatusConflict},
		{"rule violated", services.OperationResult{ErrorKind: billing.KindValidation}, nil, http.StatusUnprocessableEntity},
		{"no permission", services.OperationResult{ErrorKind: billing.KindPermission}, nil, http.StatusForbidden},
		{"missing", services.OperationResult{ErrorKind: billing.KindNotFound}, nil, http.StatusNotFound},
		{"store down", services.OperationResult{ErrorKind: billing.KindPersistence}, nil, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := &services.StatusChangeResult{OperationResult: tt.result}
			if tt.extra != nil {
				tt.extra(res)
			}
			status := &stubStatus{result: res}
			h := NewInvoiceHandler(&stubInvoices{}, status, nil)

			rec := serve(h.ChangeStatus, http.MethodPost, "/api/invoices/a/status", `{"status":"sent"}`, map[string]string{"id": "a"})
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, "acct-1", status.principal.ID)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.result.Success, body["success"])
		})
	}
}

func TestChangeStatusRejectsUnknownStatus(t *testing.T) {
	h := NewInvoiceHandler(&stubInvoices{}, &stubStatus{}, nil)

	rec := serve(h.ChangeStatus, http.MethodPost, "/api/invoices/a/status", `{"status":"archived"}`, map[string]string{"id": "a"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = serve(h.ChangeStatus, http.MethodPost, "/api/invoices/a/status", `{"status":`, map[string]string{"id": "a"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetInvoiceNotFound(t *testing.T) {
	h := NewInvoiceHandler(&stubInvoices{}, &stubStatus{}, nil)

	rec := serve(h.GetInvoice, http.MethodGet, "/api/invoices/a", "", map[string]string{"id": "a"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "INV-000001")

	rec = serve(h.GetInvoice, http.MethodGet, "/api/invoices/zzz", "", map[string]string{"id": "zzz"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invoice zzz was not found")
}

func TestListInvoicesFilters(t *testing.T) {
	invoices := &stubInvoices{}
	h := NewInvoiceHandler(invoices, &stubStatus{}, nil)

	rec := serve(h.ListInvoices, http.MethodGet, "/api/invoices?status=overdue&client_id=c9", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, billing.StatusOverdue, invoices.filter.Status)
	assert.Equal(t, "c9", invoices.filter.ClientID)
}

func TestBatchRecalculate(t *testing.T) {
	invoices := &stubInvoices{}
	h := NewInvoiceHandler(invoices, &stubStatus{}, nil)

	rec := serve(h.BatchRecalculate, http.MethodPost, "/api/invoices/batch-recalculate", `{"invoice_ids":[]}`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = serve(h.BatchRecalculate, http.MethodPost, "/api/invoices/batch-recalculate", `{"invoice_ids":["a","b"]}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"a", "b"}, invoices.batch)
	assert.JSONEq(t, `["a"]`, mustField(t, rec.Body.Bytes(), "successful"))
}

func mustField(t *testing.T, body []byte, field string) string {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &m))
	return string(m[field])
}

func TestStatusForKind(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, statusForKind(billing.KindCalculation))
	assert.Equal(t, http.StatusInternalServerError, statusForKind(billing.KindVerification))
	assert.Equal(t, http.StatusInternalServerError, statusForKind(billing.KindInternal))
}
