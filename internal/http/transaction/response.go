package transaction

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerly/internal/http/request"
	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

// Response is the JSON shape of a transaction, shared with the handlers that
// embed transactions in their own payloads.
type Response struct {
	ID                 string                    `json:"id"`
	Type               transaction.Type          `json:"type"`
	Amount             decimal.Decimal           `json:"amount"`
	Date               request.Day               `json:"date"`
	Category           string                    `json:"category"`
	Description        string                    `json:"description"`
	PaymentMethod      transaction.PaymentMethod `json:"paymentMethod"`
	ClientID           string                    `json:"clientId,omitempty"`
	InvoiceID          string                    `json:"invoiceId,omitempty"`
	Tags               []string                  `json:"tags"`
	Attachments        []string                  `json:"attachments"`
	Notes              string                    `json:"notes,omitempty"`
	IsRecurring        bool                      `json:"isRecurring"`
	RecurringFrequency transaction.Frequency     `json:"recurringFrequency,omitempty"`
	RawDescription     string                    `json:"rawDescription,omitempty"`
	CreatedAt          time.Time                 `json:"createdAt"`
	UpdatedAt          time.Time                 `json:"updatedAt"`
	CreatedBy          string                    `json:"createdBy"`
}

func NewResponse(tx *transaction.Transaction) Response {
	return Response{
		ID:                 tx.ID,
		Type:               tx.Type,
		Amount:             tx.Amount,
		Date:               request.Day{Time: tx.Date},
		Category:           tx.Category,
		Description:        tx.Description,
		PaymentMethod:      tx.PaymentMethod,
		ClientID:           tx.ClientID,
		InvoiceID:          tx.InvoiceID,
		Tags:               orEmpty(tx.Tags),
		Attachments:        orEmpty(tx.Attachments),
		Notes:              tx.Notes,
		IsRecurring:        tx.IsRecurring,
		RecurringFrequency: tx.RecurringFrequency,
		RawDescription:     tx.RawDescription,
		CreatedAt:          tx.CreatedAt,
		UpdatedAt:          tx.UpdatedAt,
		CreatedBy:          tx.CreatedBy,
	}
}

func NewResponseList(txs []*transaction.Transaction) []Response {
	resp := make([]Response, len(txs))
	for i, tx := range txs {
		resp[i] = NewResponse(tx)
	}

	return resp
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}

	return s
}

type categoryTotalResponse struct {
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
}

type statsResponse struct {
	TotalIncome       decimal.Decimal                  `json:"totalIncome"`
	TotalExpenses     decimal.Decimal                  `json:"totalExpenses"`
	NetBalance        decimal.Decimal                  `json:"netBalance"`
	TransactionCount  int                              `json:"transactionCount"`
	CategoryBreakdown map[string]categoryTotalResponse `json:"categoryBreakdown"`
}

func toStatsResponse(st *transaction.Stats) statsResponse {
	breakdown := make(map[string]categoryTotalResponse, len(st.CategoryBreakdown))
	for name, ct := range st.CategoryBreakdown {
		breakdown[name] = categoryTotalResponse{Amount: ct.Amount, Count: ct.Count}
	}

	return statsResponse{
		TotalIncome:       st.TotalIncome,
		TotalExpenses:     st.TotalExpenses,
		NetBalance:        st.NetBalance,
		TransactionCount:  st.TransactionCount,
		CategoryBreakdown: breakdown,
	}
}
