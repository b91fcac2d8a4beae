package invoice

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerly/internal/http/request"
	"github.com/MrJamesThe3rd/ledgerly/internal/invoice"
)

type itemResponse struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Amount      decimal.Decimal `json:"amount"`
}

// Response is the JSON shape of an invoice with its line items.
type Response struct {
	ID            string          `json:"id"`
	InvoiceNumber string          `json:"invoiceNumber"`
	ClientID      string          `json:"clientId"`
	IssueDate     request.Day     `json:"issueDate"`
	DueDate       request.Day     `json:"dueDate"`
	Status        invoice.Status  `json:"status"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	TaxRate       decimal.Decimal `json:"taxRate"`
	Total         decimal.Decimal `json:"total"`
	PaidAmount    decimal.Decimal `json:"paidAmount"`
	BalanceDue    decimal.Decimal `json:"balanceDue"`
	Items         []itemResponse  `json:"items"`
	Notes         string          `json:"notes,omitempty"`
	Terms         string          `json:"terms,omitempty"`
	Attachments   []string        `json:"attachments"`
	SentDate      *request.Day    `json:"sentDate,omitempty"`
	PaidDate      *request.Day    `json:"paidDate,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	CreatedBy     string          `json:"createdBy"`
}

func NewResponse(inv *invoice.Invoice) Response {
	items := make([]itemResponse, len(inv.Items))
	for i, it := range inv.Items {
		items[i] = itemResponse{
			ID:          it.ID,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Amount:      it.Amount,
		}
	}

	attachments := inv.Attachments
	if attachments == nil {
		attachments = []string{}
	}

	return Response{
		ID:            inv.ID,
		InvoiceNumber: inv.Number,
		ClientID:      inv.ClientID,
		IssueDate:     request.Day{Time: inv.IssueDate},
		DueDate:       request.Day{Time: inv.DueDate},
		Status:        inv.Status,
		Subtotal:      inv.Subtotal,
		Tax:           inv.Tax,
		TaxRate:       inv.TaxRate,
		Total:         inv.Total,
		PaidAmount:    inv.PaidAmount,
		BalanceDue:    inv.BalanceDue,
		Items:         items,
		Notes:         inv.Notes,
		Terms:         inv.Terms,
		Attachments:   attachments,
		SentDate:      optionalDay(inv.SentDate),
		PaidDate:      optionalDay(inv.PaidDate),
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
		CreatedBy:     inv.CreatedBy,
	}
}

func NewResponseList(invs []*invoice.Invoice) []Response {
	resp := make([]Response, len(invs))
	for i, inv := range invs {
		resp[i] = NewResponse(inv)
	}

	return resp
}

func optionalDay(t time.Time) *request.Day {
	if t.IsZero() {
		return nil
	}

	return &request.Day{Time: t}
}

type statsResponse struct {
	TotalInvoices int             `json:"totalInvoices"`
	DraftCount    int             `json:"draftCount"`
	SentCount     int             `json:"sentCount"`
	PaidCount     int             `json:"paidCount"`
	OverdueCount  int             `json:"overdueCount"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	PaidAmount    decimal.Decimal `json:"paidAmount"`
	Outstanding   decimal.Decimal `json:"outstanding"`
}

func toStatsResponse(st *invoice.Stats) statsResponse {
	return statsResponse{
		TotalInvoices: st.Total,
		DraftCount:    st.Draft,
		SentCount:     st.Sent,
		PaidCount:     st.Paid,
		OverdueCount:  st.Overdue,
		TotalAmount:   st.TotalAmount,
		PaidAmount:    st.PaidAmount,
		Outstanding:   st.Outstanding,
	}
}
