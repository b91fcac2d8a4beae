package invoice

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("invoice not found")

type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusPaid      Status = "paid"
	StatusOverdue   Status = "overdue"
	StatusCancelled Status = "cancelled"
)

var Statuses = []Status{StatusDraft, StatusSent, StatusPaid, StatusOverdue, StatusCancelled}

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusPaid, StatusOverdue, StatusCancelled:
		return true
	}

	return false
}

type Item struct {
	ID          string
	InvoiceID   string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Amount      decimal.Decimal
}

// Invoice money fields other than TaxRate and PaidAmount are derived; see
// Recalculate.
type Invoice struct {
	ID          string
	Number      string
	ClientID    string
	IssueDate   time.Time
	DueDate     time.Time
	Status      Status
	Subtotal    decimal.Decimal
	Tax         decimal.Decimal
	TaxRate     decimal.Decimal
	Total       decimal.Decimal
	PaidAmount  decimal.Decimal
	BalanceDue  decimal.Decimal
	Items       []Item
	Notes       string
	Terms       string
	Attachments []string
	SentDate    time.Time
	PaidDate    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CreatedBy   string
}

type Filter struct {
	ClientID string
	Status   Status
}

func (f Filter) Match(inv *Invoice) bool {
	if f.ClientID != "" && inv.ClientID != f.ClientID {
		return false
	}

	if f.Status != "" && inv.Status != f.Status {
		return false
	}

	return true
}
