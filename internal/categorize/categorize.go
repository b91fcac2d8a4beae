// Package categorize holds the default category lists and learns which
// category a bank description belongs to.
package categorize

import (
	"slices"
	"time"

	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

var IncomeCategories = []string{
	"Sales Revenue",
	"Service Income",
	"Consulting",
	"Commission",
	"Interest Income",
	"Rental Income",
	"Other Income",
}

var ExpenseCategories = []string{
	"Rent",
	"Utilities",
	"Salaries & Wages",
	"Office Supplies",
	"Marketing & Advertising",
	"Travel & Transportation",
	"Professional Services",
	"Insurance",
	"Software & Subscriptions",
	"Meals & Entertainment",
	"Bank Fees",
	"Taxes",
	"Other Expenses",
}

// Defaults returns a copy of the default list for t. An empty type yields
// both lists, income first.
func Defaults(t transaction.Type) []string {
	switch t {
	case transaction.TypeIncome:
		return slices.Clone(IncomeCategories)
	case transaction.TypeExpense:
		return slices.Clone(ExpenseCategories)
	}

	return slices.Concat(IncomeCategories, ExpenseCategories)
}

// Rule maps every raw description containing Pattern to Category.
type Rule struct {
	ID        string
	Pattern   string
	Category  string
	CreatedAt time.Time
	CreatedBy string
}
