package invoice

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerly/internal/clock"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/request"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/respond"
	"github.com/MrJamesThe3rd/ledgerly/internal/identity"
	"github.com/MrJamesThe3rd/ledgerly/internal/invoice"
)

const msgNotFound = "Invoice not found"

// PDFRenderer produces the printable document for one invoice.
type PDFRenderer interface {
	InvoicePDF(ctx context.Context, id string) ([]byte, string, error)
}

type Handler struct {
	svc   *invoice.Service
	pdf   PDFRenderer
	clock clock.Clock
}

func NewHandler(svc *invoice.Service, pdf PDFRenderer, clk clock.Clock) *Handler {
	return &Handler{svc: svc, pdf: pdf, clock: clk}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Post("/{id}/payments", h.recordPayment)
	r.Post("/{id}/send", h.markSent)
	r.Get("/{id}/pdf", h.renderPDF)
}

// list answers the stats aggregate, then a client filter, then a status
// filter. An unknown status lists everything.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if q.Get("action") == "stats" {
		st, err := h.svc.Stats(r.Context())
		if err != nil {
			respond.Fail(w, "Failed to fetch invoices", err)
			return
		}

		respond.OK(w, toStatsResponse(st))

		return
	}

	var filter invoice.Filter

	if id := q.Get("clientId"); id != "" {
		filter.ClientID = id
	} else if st := invoice.Status(q.Get("status")); st.Valid() {
		filter.Status = st
	}

	invs, err := h.svc.List(r.Context(), filter)
	if err != nil {
		respond.Fail(w, "Failed to fetch invoices", err)
		return
	}

	respond.OK(w, NewResponseList(invs))
}

type itemRequest struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

func toItemParams(items []itemRequest) []invoice.ItemParams {
	if items == nil {
		return nil
	}

	out := make([]invoice.ItemParams, len(items))
	for i, it := range items {
		out[i] = invoice.ItemParams{
			ID:          it.ID,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		}
	}

	return out
}

type createInvoiceRequest struct {
	ClientID    string          `json:"clientId"`
	IssueDate   request.Day     `json:"issueDate"`
	DueDate     request.Day     `json:"dueDate"`
	Status      invoice.Status  `json:"status"`
	TaxRate     decimal.Decimal `json:"taxRate"`
	PaidAmount  decimal.Decimal `json:"paidAmount"`
	Items       []itemRequest   `json:"items"`
	Notes       string          `json:"notes"`
	Terms       string          `json:"terms"`
	Attachments []string        `json:"attachments"`
	SentDate    request.Day     `json:"sentDate"`
	PaidDate    request.Day     `json:"paidDate"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if err := request.Decode(r, &req, "Invalid invoice data"); err != nil {
		respond.Fail(w, "Failed to create invoice", err)
		return
	}

	actor, _ := identity.FromContext(r.Context())

	inv, err := h.svc.Create(r.Context(), actor, invoice.CreateParams{
		ClientID:    req.ClientID,
		IssueDate:   req.IssueDate.Time,
		DueDate:     req.DueDate.Time,
		Status:      req.Status,
		TaxRate:     req.TaxRate,
		PaidAmount:  req.PaidAmount,
		Items:       toItemParams(req.Items),
		Notes:       req.Notes,
		Terms:       req.Terms,
		Attachments: req.Attachments,
		SentDate:    req.SentDate.Time,
		PaidDate:    req.PaidDate.Time,
	})
	if err != nil {
		respond.Fail(w, "Failed to create invoice", err)
		return
	}

	respond.Created(w, NewResponse(inv), "Invoice created successfully")
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	inv, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Failed to fetch invoice", err)
		return
	}

	respond.OK(w, NewResponse(inv))
}

type updateInvoiceRequest struct {
	ClientID    *string          `json:"clientId"`
	IssueDate   *request.Day     `json:"issueDate"`
	DueDate     *request.Day     `json:"dueDate"`
	Status      *invoice.Status  `json:"status"`
	TaxRate     *decimal.Decimal `json:"taxRate"`
	PaidAmount  *decimal.Decimal `json:"paidAmount"`
	Items       []itemRequest    `json:"items"`
	Notes       *string          `json:"notes"`
	Terms       *string          `json:"terms"`
	Attachments []string         `json:"attachments"`
	SentDate    *request.Day     `json:"sentDate"`
	PaidDate    *request.Day     `json:"paidDate"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req updateInvoiceRequest
	if err := request.Decode(r, &req, "Invalid invoice data"); err != nil {
		respond.Fail(w, "Failed to update invoice", err)
		return
	}

	actor, _ := identity.FromContext(r.Context())

	inv, err := h.svc.Update(r.Context(), actor, chi.URLParam(r, "id"), invoice.UpdateParams{
		ClientID:    req.ClientID,
		IssueDate:   req.IssueDate.Ptr(),
		DueDate:     req.DueDate.Ptr(),
		Status:      req.Status,
		TaxRate:     req.TaxRate,
		PaidAmount:  req.PaidAmount,
		Items:       toItemParams(req.Items),
		Notes:       req.Notes,
		Terms:       req.Terms,
		Attachments: req.Attachments,
		SentDate:    req.SentDate.Ptr(),
		PaidDate:    req.PaidDate.Ptr(),
	})
	if err != nil {
		h.fail(w, "Failed to update invoice", err)
		return
	}

	respond.Message(w, NewResponse(inv), "Invoice updated successfully")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "Failed to delete invoice", err)
		return
	}

	respond.Message(w, nil, "Invoice deleted successfully")
}

type paymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Date   *request.Day    `json:"date"`
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := request.Decode(r, &req, "Invalid payment data"); err != nil {
		respond.Fail(w, "Failed to record payment", err)
		return
	}

	actor, _ := identity.FromContext(r.Context())

	inv, err := h.svc.RecordPayment(r.Context(), actor, chi.URLParam(r, "id"), req.Amount, h.dateOrToday(req.Date))
	if err != nil {
		h.fail(w, "Failed to record payment", err)
		return
	}

	respond.Message(w, NewResponse(inv), "Payment recorded successfully")
}

type sendRequest struct {
	Date *request.Day `json:"date"`
}

func (h *Handler) markSent(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if r.ContentLength != 0 {
		if err := request.Decode(r, &req, "Invalid request body"); err != nil {
			respond.Fail(w, "Failed to send invoice", err)
			return
		}
	}

	actor, _ := identity.FromContext(r.Context())

	inv, err := h.svc.MarkSent(r.Context(), actor, chi.URLParam(r, "id"), h.dateOrToday(req.Date))
	if err != nil {
		h.fail(w, "Failed to send invoice", err)
		return
	}

	respond.Message(w, NewResponse(inv), "Invoice marked as sent")
}

func (h *Handler) renderPDF(w http.ResponseWriter, r *http.Request) {
	doc, filename, err := h.pdf.InvoicePDF(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Failed to generate PDF", err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(doc)))
	_, _ = w.Write(doc)
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	if errors.Is(err, invoice.ErrNotFound) {
		respond.NotFound(w, msgNotFound)
		return
	}

	respond.Fail(w, msg, err)
}

func (h *Handler) dateOrToday(d *request.Day) time.Time {
	if d == nil || d.IsZero() {
		return h.clock.Now()
	}

	return d.Time
}
