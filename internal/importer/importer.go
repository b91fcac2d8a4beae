// Package importer turns bank statement exports into transaction drafts.
// Rows are parsed per bank, matched to a counterparty from the client book
// and given a suggested category before anything is stored.
package importer

import (
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

type Bank string

const (
	BankCGD Bank = "cgd"
)

var Banks = []Bank{BankCGD}

var bankLabels = map[Bank]string{
	BankCGD: "Caixa Geral de Depósitos",
}

// Label is the display name, or the code itself for unknown banks.
func (b Bank) Label() string {
	if l, ok := bankLabels[b]; ok {
		return l
	}

	return string(b)
}

// Tag marks transactions that came in from this bank's statements.
func (b Bank) Tag() string {
	return "import:" + string(b)
}

type Parser interface {
	Parse(r io.Reader) ([]transaction.CreateParams, error)
}

// Summary describes a parsed statement ahead of confirmation.
type Summary struct {
	Rows        int
	Income      decimal.Decimal
	Expenses    decimal.Decimal
	First       time.Time
	Last        time.Time
	Categorized int
	Matched     int
}

func (s Summary) Net() decimal.Decimal {
	return s.Income.Sub(s.Expenses)
}

func Summarize(params []transaction.CreateParams) Summary {
	s := Summary{Rows: len(params)}

	for _, p := range params {
		switch p.Type {
		case transaction.TypeIncome:
			s.Income = s.Income.Add(p.Amount)
		case transaction.TypeExpense:
			s.Expenses = s.Expenses.Add(p.Amount)
		}

		if s.First.IsZero() || p.Date.Before(s.First) {
			s.First = p.Date
		}

		if p.Date.After(s.Last) {
			s.Last = p.Date
		}

		if p.Category != "" {
			s.Categorized++
		}

		if p.ClientID != "" {
			s.Matched++
		}
	}

	return s
}
