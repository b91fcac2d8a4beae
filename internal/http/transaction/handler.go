package transaction

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerly/internal/clock"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/request"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/respond"
	"github.com/MrJamesThe3rd/ledgerly/internal/identity"
	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

const msgNotFound = "Transaction not found"

type Handler struct {
	svc   *transaction.Service
	clock clock.Clock
}

func NewHandler(svc *transaction.Service, clk clock.Clock) *Handler {
	return &Handler{svc: svc, clock: clk}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type createTransactionRequest struct {
	Type               transaction.Type          `json:"type" validate:"required,oneof=income expense"`
	Amount             decimal.Decimal           `json:"amount"`
	Date               request.Day               `json:"date" validate:"required"`
	Category           string                    `json:"category" validate:"required"`
	Description        string                    `json:"description" validate:"required"`
	PaymentMethod      transaction.PaymentMethod `json:"paymentMethod"`
	ClientID           string                    `json:"clientId"`
	InvoiceID          string                    `json:"invoiceId"`
	Tags               []string                  `json:"tags"`
	Attachments        []string                  `json:"attachments"`
	Notes              string                    `json:"notes"`
	IsRecurring        bool                      `json:"isRecurring"`
	RecurringFrequency transaction.Frequency     `json:"recurringFrequency" validate:"omitempty,oneof=daily weekly monthly yearly"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := request.Decode(r, &req, "Missing required fields"); err != nil {
		respond.Fail(w, "Failed to create transaction", err)
		return
	}

	actor, _ := identity.FromContext(r.Context())

	tx, err := h.svc.Create(r.Context(), actor, transaction.CreateParams{
		Type:               req.Type,
		Amount:             req.Amount,
		Date:               req.Date.Time,
		Category:           req.Category,
		Description:        req.Description,
		PaymentMethod:      req.PaymentMethod,
		ClientID:           req.ClientID,
		InvoiceID:          req.InvoiceID,
		Tags:               req.Tags,
		Attachments:        req.Attachments,
		Notes:              req.Notes,
		IsRecurring:        req.IsRecurring,
		RecurringFrequency: req.RecurringFrequency,
	})
	if err != nil {
		respond.Fail(w, "Failed to create transaction", err)
		return
	}

	respond.Created(w, NewResponse(tx), "Transaction created successfully")
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if q.Get("action") == "stats" {
		h.stats(w, r)
		return
	}

	filter, err := h.filterFrom(q)
	if err != nil {
		respond.Fail(w, "Failed to fetch transactions", err)
		return
	}

	txs, err := h.svc.List(r.Context(), filter)
	if err != nil {
		respond.Fail(w, "Failed to fetch transactions", err)
		return
	}

	respond.OK(w, NewResponseList(txs))
}

func (h *Handler) filterFrom(q url.Values) (transaction.Filter, error) {
	var (
		filter transaction.Filter
		err    error
	)

	if filter.StartDate, filter.EndDate, err = request.Period(q, h.clock.Now()); err != nil {
		return filter, err
	}

	if filter.MinAmount, err = request.Decimal(q.Get("minAmount")); err != nil {
		return filter, err
	}

	if filter.MaxAmount, err = request.Decimal(q.Get("maxAmount")); err != nil {
		return filter, err
	}

	filter.Type = transaction.Type(q.Get("type"))
	filter.Category = q.Get("category")
	filter.ClientID = q.Get("clientId")
	filter.PaymentMethod = transaction.PaymentMethod(q.Get("paymentMethod"))
	filter.Tags = request.List(q.Get("tags"))
	filter.Uncategorized = q.Get("uncategorized") == "true"

	filter.Search = q.Get("search")
	if filter.Search == "" {
		filter.Search = q.Get("searchQuery")
	}

	return filter, nil
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	start, end, err := request.Period(r.URL.Query(), h.clock.Now())
	if err != nil {
		respond.Fail(w, "Failed to fetch transactions", err)
		return
	}

	st, err := h.svc.Stats(r.Context(), start, end)
	if err != nil {
		respond.Fail(w, "Failed to fetch transactions", err)
		return
	}

	respond.OK(w, toStatsResponse(st))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	tx, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, transaction.ErrNotFound) {
			respond.NotFound(w, msgNotFound)
			return
		}

		respond.Fail(w, "Failed to fetch transaction", err)

		return
	}

	respond.OK(w, NewResponse(tx))
}

type updateTransactionRequest struct {
	Type               *transaction.Type          `json:"type" validate:"omitempty,oneof=income expense"`
	Amount             *decimal.Decimal           `json:"amount"`
	Date               *request.Day               `json:"date"`
	Category           *string                    `json:"category"`
	Description        *string                    `json:"description"`
	PaymentMethod      *transaction.PaymentMethod `json:"paymentMethod"`
	ClientID           *string                    `json:"clientId"`
	InvoiceID          *string                    `json:"invoiceId"`
	Tags               []string                   `json:"tags"`
	Attachments        []string                   `json:"attachments"`
	Notes              *string                    `json:"notes"`
	IsRecurring        *bool                      `json:"isRecurring"`
	RecurringFrequency *transaction.Frequency     `json:"recurringFrequency"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req updateTransactionRequest
	if err := request.Decode(r, &req, "Invalid transaction type"); err != nil {
		respond.Fail(w, "Failed to update transaction", err)
		return
	}

	tx, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), transaction.UpdateParams{
		Type:               req.Type,
		Amount:             req.Amount,
		Date:               req.Date.Ptr(),
		Category:           req.Category,
		Description:        req.Description,
		PaymentMethod:      req.PaymentMethod,
		ClientID:           req.ClientID,
		InvoiceID:          req.InvoiceID,
		Tags:               req.Tags,
		Attachments:        req.Attachments,
		Notes:              req.Notes,
		IsRecurring:        req.IsRecurring,
		RecurringFrequency: req.RecurringFrequency,
	})
	if err != nil {
		if errors.Is(err, transaction.ErrNotFound) {
			respond.NotFound(w, msgNotFound)
			return
		}

		respond.Fail(w, "Failed to update transaction", err)

		return
	}

	respond.Message(w, NewResponse(tx), "Transaction updated successfully")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, transaction.ErrNotFound) {
			respond.NotFound(w, msgNotFound)
			return
		}

		respond.Fail(w, "Failed to delete transaction", err)

		return
	}

	respond.Message(w, nil, "Transaction deleted successfully")
}
