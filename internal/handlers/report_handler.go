package handlers

import (
	"net/http"
	"strconv"

	"billing-backend/internal/services"

	"github.com/gorilla/mux"
)

type ReportHandler struct {
	Service *services.ReportService
}

func NewReportHandler(s *services.ReportService) *ReportHandler {
	return &ReportHandler{Service: s}
}

// InvoicePDF streams the rendered invoice
func (h *ReportHandler) InvoicePDF(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Service.InvoicePDF(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(doc.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	if doc.ArchivedKey != "" {
		w.Header().Set("X-Archive-Key", doc.ArchivedKey)
	}
	w.WriteHeader(http.StatusOK)
	w.Write(doc.Data)
}
