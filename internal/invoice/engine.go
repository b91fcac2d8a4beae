package invoice

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerly/internal/clock"
)

var hundred = decimal.NewFromInt(100)

type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

func LineAmount(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice)
}

// ComputeTotals sums quantity*unitPrice over items and applies taxRate as a
// percentage of the subtotal.
func ComputeTotals(items []Item, taxRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(LineAmount(it.Quantity, it.UnitPrice))
	}

	tax := subtotal.Mul(taxRate).Div(hundred)

	return Totals{Subtotal: subtotal, Tax: tax, Total: subtotal.Add(tax)}
}

// IsOverdue reports whether due is a calendar day strictly before today. A
// zero due date is never overdue.
func IsOverdue(due, today time.Time) bool {
	if due.IsZero() {
		return false
	}

	return clock.DateOf(due).Before(clock.DateOf(today))
}

// DeriveStatus returns the status inv should carry. The status in effect is
// override when non-empty, otherwise inv.Status. Full payment always wins;
// a past due date turns anything but paid into overdue. Cancelled invoices
// get no special treatment.
func DeriveStatus(inv *Invoice, override Status, today time.Time) Status {
	effective := inv.Status
	if override != "" {
		effective = override
	}

	if inv.PaidAmount.GreaterThanOrEqual(inv.Total) {
		return StatusPaid
	}

	if IsOverdue(inv.DueDate, today) && effective != StatusPaid {
		return StatusOverdue
	}

	return effective
}

// Recalculate refreshes every derived field of inv in place: item amounts,
// totals, balance due and status. Call it at every mutation.
func Recalculate(inv *Invoice, override Status, today time.Time) {
	for i := range inv.Items {
		inv.Items[i].Amount = LineAmount(inv.Items[i].Quantity, inv.Items[i].UnitPrice)
	}

	t := ComputeTotals(inv.Items, inv.TaxRate)
	inv.Subtotal = t.Subtotal
	inv.Tax = t.Tax
	inv.Total = t.Total
	inv.BalanceDue = t.Total.Sub(inv.PaidAmount)
	inv.Status = DeriveStatus(inv, override, today)
}

// NextNumber allocates INV-<year>-NNNN. The sequence is one past the count of
// numbers already issued that year, skipped forward past any that are taken.
func NextNumber(existing []string, year int) string {
	prefix := fmt.Sprintf("INV-%d", year)

	n := 0
	for _, num := range existing {
		if strings.HasPrefix(num, prefix) {
			n++
		}
	}

	for {
		n++

		candidate := fmt.Sprintf("%s-%04d", prefix, n)
		if !slices.Contains(existing, candidate) {
			return candidate
		}
	}
}
