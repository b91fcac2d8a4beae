package transaction

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("transaction not found")

// Type represents the type of transaction (income or expense).
type Type string

const (
	TypeIncome  Type = "income"
	TypeExpense Type = "expense"
)

func (t Type) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentCreditCard   PaymentMethod = "credit_card"
	PaymentDebitCard    PaymentMethod = "debit_card"
	PaymentPayPal       PaymentMethod = "paypal"
	PaymentCheck        PaymentMethod = "check"
	PaymentOther        PaymentMethod = "other"
)

var PaymentMethods = []PaymentMethod{
	PaymentCash, PaymentBankTransfer, PaymentCreditCard, PaymentDebitCard,
	PaymentPayPal, PaymentCheck, PaymentOther,
}

func (p PaymentMethod) Label() string {
	switch p {
	case PaymentCash:
		return "Cash"
	case PaymentBankTransfer:
		return "Bank Transfer"
	case PaymentCreditCard:
		return "Credit Card"
	case PaymentDebitCard:
		return "Debit Card"
	case PaymentPayPal:
		return "PayPal"
	case PaymentCheck:
		return "Check"
	case PaymentOther:
		return "Other"
	}

	return string(p)
}

// Frequency is how often a recurring transaction repeats.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// Transaction represents a financial transaction. Date carries no time of day.
// An empty Category marks an imported transaction still awaiting review.
type Transaction struct {
	ID                 string
	Type               Type
	Amount             decimal.Decimal
	Date               time.Time
	Category           string
	Description        string
	PaymentMethod      PaymentMethod
	ClientID           string
	InvoiceID          string
	Tags               []string
	Attachments        []string
	Notes              string
	IsRecurring        bool
	RecurringFrequency Frequency
	RawDescription     string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	CreatedBy          string
}
