package transaction

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerly/internal/clock"
)

// Filter selects transactions in memory. Zero-valued fields match everything.
// Date and amount bounds are inclusive.
type Filter struct {
	StartDate     *time.Time
	EndDate       *time.Time
	Type          Type
	Category      string
	ClientID      string
	PaymentMethod PaymentMethod
	MinAmount     *decimal.Decimal
	MaxAmount     *decimal.Decimal
	Search        string
	Tags          []string
	Uncategorized bool
}

func (f Filter) Match(tx *Transaction) bool {
	date := clock.DateOf(tx.Date)

	if f.StartDate != nil && date.Before(clock.DateOf(*f.StartDate)) {
		return false
	}

	if f.EndDate != nil && date.After(clock.DateOf(*f.EndDate)) {
		return false
	}

	if f.Type != "" && tx.Type != f.Type {
		return false
	}

	if f.Category != "" && tx.Category != f.Category {
		return false
	}

	if f.Uncategorized && tx.Category != "" {
		return false
	}

	if f.ClientID != "" && tx.ClientID != f.ClientID {
		return false
	}

	if f.PaymentMethod != "" && tx.PaymentMethod != f.PaymentMethod {
		return false
	}

	if f.MinAmount != nil && tx.Amount.LessThan(*f.MinAmount) {
		return false
	}

	if f.MaxAmount != nil && tx.Amount.GreaterThan(*f.MaxAmount) {
		return false
	}

	if f.Search != "" && !matchesSearch(tx, strings.ToLower(f.Search)) {
		return false
	}

	if len(f.Tags) > 0 && !slices.ContainsFunc(f.Tags, func(tag string) bool {
		return slices.Contains(tx.Tags, tag)
	}) {
		return false
	}

	return true
}

func matchesSearch(tx *Transaction, q string) bool {
	return strings.Contains(strings.ToLower(tx.Description), q) ||
		strings.Contains(strings.ToLower(tx.Category), q) ||
		strings.Contains(strings.ToLower(tx.Notes), q)
}

func Apply(txs []*Transaction, f Filter) []*Transaction {
	out := make([]*Transaction, 0, len(txs))

	for _, tx := range txs {
		if f.Match(tx) {
			out = append(out, tx)
		}
	}

	return out
}
