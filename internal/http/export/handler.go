package export

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/ledgerly/internal/clock"
	"github.com/MrJamesThe3rd/ledgerly/internal/daterange"
	"github.com/MrJamesThe3rd/ledgerly/internal/export"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/request"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/respond"
	"github.com/MrJamesThe3rd/ledgerly/internal/invoice"
	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

type Handler struct {
	svc   *export.Service
	clock clock.Clock
}

func NewHandler(svc *export.Service, clk clock.Clock) *Handler {
	return &Handler{svc: svc, clock: clk}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/transactions", h.transactions)
	r.Get("/invoices", h.invoices)
	r.Get("/bundle", h.bundle)
}

// Each export is rendered into memory first so a failure can still be
// answered with the JSON envelope.

func (h *Handler) transactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	now := h.clock.Now()

	var filter transaction.Filter

	start, end, err := request.Period(q, now)
	if err != nil {
		respond.Fail(w, "Failed to export transactions", err)
		return
	}

	filter.StartDate, filter.EndDate = start, end

	if typ := transaction.Type(q.Get("type")); typ.Valid() {
		filter.Type = typ
	}

	var buf bytes.Buffer
	if err := h.svc.Transactions(r.Context(), &buf, filter); err != nil {
		respond.Fail(w, "Failed to export transactions", err)
		return
	}

	attach(w, "text/csv; charset=utf-8", export.TransactionsFilename(now), buf.Bytes())
}

func (h *Handler) invoices(w http.ResponseWriter, r *http.Request) {
	var status invoice.Status
	if st := invoice.Status(r.URL.Query().Get("status")); st.Valid() {
		status = st
	}

	var buf bytes.Buffer
	if err := h.svc.Invoices(r.Context(), &buf, status); err != nil {
		respond.Fail(w, "Failed to export invoices", err)
		return
	}

	attach(w, "text/csv; charset=utf-8", export.InvoicesFilename(h.clock.Now()), buf.Bytes())
}

func (h *Handler) bundle(w http.ResponseWriter, r *http.Request) {
	now := h.clock.Now()

	start, end, err := request.Period(r.URL.Query(), now)
	if err != nil {
		respond.Fail(w, "Failed to export bundle", err)
		return
	}

	var rng daterange.Range
	if start != nil {
		rng.Start = *start
	}

	if end != nil {
		rng.End = *end
	}

	var buf bytes.Buffer
	if err := h.svc.Bundle(r.Context(), &buf, rng); err != nil {
		respond.Fail(w, "Failed to export bundle", err)
		return
	}

	attach(w, "application/zip", export.BundleFilename(now), buf.Bytes())
}

func attach(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	_, _ = w.Write(body)
}
