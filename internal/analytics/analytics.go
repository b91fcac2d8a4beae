// Package analytics derives the dashboard view from the full transaction,
// client and invoice collections.
package analytics

import (
	"cmp"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerly/internal/client"
	"github.com/MrJamesThe3rd/ledgerly/internal/clock"
	"github.com/MrJamesThe3rd/ledgerly/internal/invoice"
	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

const (
	monthsShown    = 6
	topClientLimit = 5
	recentLimit    = 10
	upcomingLimit  = 5
	upcomingWindow = 30 * 24 * time.Hour

	unknownClient = "Unknown"
)

var hundred = decimal.NewFromInt(100)

type Summary struct {
	TotalIncome      decimal.Decimal
	TotalExpenses    decimal.Decimal
	NetBalance       decimal.Decimal
	TransactionCount int
	ClientCount      int
	InvoiceCount     int
	// OverdueInvoices counts stored statuses; nothing is re-derived here.
	OverdueInvoices int
}

type Month struct {
	Label    string
	Key      string
	Income   decimal.Decimal
	Expenses decimal.Decimal
	Net      decimal.Decimal
}

type Category struct {
	Name       string
	Type       transaction.Type
	Amount     decimal.Decimal
	Count      int
	Percentage decimal.Decimal
}

type TopClient struct {
	ClientID         string
	ClientName       string
	TotalRevenue     decimal.Decimal
	TransactionCount int
}

type RecentTransaction struct {
	*transaction.Transaction
	// ClientName is empty when the transaction has no resolvable client.
	ClientName string
}

type UpcomingInvoice struct {
	*invoice.Invoice
	ClientName string
}

type Dashboard struct {
	Summary    Summary
	Monthly    []Month
	Categories []Category
	TopClients []TopClient
	Recent     []RecentTransaction
	Upcoming   []UpcomingInvoice
}

// Build computes the dashboard as of now. It only reads its inputs.
func Build(txs []*transaction.Transaction, clients []*client.Client, invoices []*invoice.Invoice, now time.Time) *Dashboard {
	names := client.Names(clients)

	d := &Dashboard{
		Summary:    summarize(txs, clients, invoices),
		Monthly:    monthly(txs, now),
		TopClients: topClients(txs, names),
		Recent:     recent(txs, names),
		Upcoming:   upcoming(invoices, names, now),
	}
	d.Categories = categories(txs, d.Summary.TotalIncome, d.Summary.TotalExpenses)

	return d
}

func summarize(txs []*transaction.Transaction, clients []*client.Client, invoices []*invoice.Invoice) Summary {
	s := Summary{
		TotalIncome:      decimal.Zero,
		TotalExpenses:    decimal.Zero,
		TransactionCount: len(txs),
		ClientCount:      len(clients),
		InvoiceCount:     len(invoices),
	}

	for _, tx := range txs {
		switch tx.Type {
		case transaction.TypeIncome:
			s.TotalIncome = s.TotalIncome.Add(tx.Amount)
		case transaction.TypeExpense:
			s.TotalExpenses = s.TotalExpenses.Add(tx.Amount)
		}
	}

	s.NetBalance = s.TotalIncome.Sub(s.TotalExpenses)

	for _, inv := range invoices {
		if inv.Status == invoice.StatusOverdue {
			s.OverdueInvoices++
		}
	}

	return s
}

// monthly buckets the current month and the five before it, oldest first.
func monthly(txs []*transaction.Transaction, now time.Time) []Month {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	out := make([]Month, 0, monthsShown)

	for i := monthsShown - 1; i >= 0; i-- {
		start := first.AddDate(0, -i, 0)
		m := Month{
			Label:    start.Format("Jan 2006"),
			Key:      start.Format("2006-01"),
			Income:   decimal.Zero,
			Expenses: decimal.Zero,
		}

		for _, tx := range txs {
			if tx.Date.IsZero() || tx.Date.Format("2006-01") != m.Key {
				continue
			}

			switch tx.Type {
			case transaction.TypeIncome:
				m.Income = m.Income.Add(tx.Amount)
			case transaction.TypeExpense:
				m.Expenses = m.Expenses.Add(tx.Amount)
			}
		}

		m.Net = m.Income.Sub(m.Expenses)
		out = append(out, m)
	}

	return out
}

// categories groups by category name. A category takes the type of the first
// transaction seen in it, and its percentage is relative to that type's total.
// Percentages are left unrounded; the largest magnitude comes first.
func categories(txs []*transaction.Transaction, income, expenses decimal.Decimal) []Category {
	index := make(map[string]int)
	var out []Category

	for _, tx := range txs {
		i, ok := index[tx.Category]
		if !ok {
			i = len(out)
			index[tx.Category] = i
			out = append(out, Category{Name: tx.Category, Type: tx.Type, Amount: decimal.Zero})
		}

		out[i].Amount = out[i].Amount.Add(tx.Amount)
		out[i].Count++
	}

	for i := range out {
		total := expenses
		if out[i].Type == transaction.TypeIncome {
			total = income
		}

		out[i].Percentage = decimal.Zero
		if !total.IsZero() {
			out[i].Percentage = out[i].Amount.Mul(hundred).Div(total)
		}
	}

	slices.SortStableFunc(out, func(a, b Category) int {
		return b.Amount.Abs().Cmp(a.Amount.Abs())
	})

	return out
}

func topClients(txs []*transaction.Transaction, names map[string]string) []TopClient {
	index := make(map[string]int)
	var out []TopClient

	for _, tx := range txs {
		if tx.ClientID == "" || tx.Type != transaction.TypeIncome {
			continue
		}

		i, ok := index[tx.ClientID]
		if !ok {
			i = len(out)
			index[tx.ClientID] = i
			out = append(out, TopClient{
				ClientID:     tx.ClientID,
				ClientName:   nameOr(names, tx.ClientID, unknownClient),
				TotalRevenue: decimal.Zero,
			})
		}

		out[i].TotalRevenue = out[i].TotalRevenue.Add(tx.Amount)
		out[i].TransactionCount++
	}

	slices.SortStableFunc(out, func(a, b TopClient) int {
		return b.TotalRevenue.Cmp(a.TotalRevenue)
	})

	return out[:min(len(out), topClientLimit)]
}

func recent(txs []*transaction.Transaction, names map[string]string) []RecentTransaction {
	sorted := slices.Clone(txs)
	slices.SortStableFunc(sorted, func(a, b *transaction.Transaction) int {
		return b.Date.Compare(a.Date)
	})

	sorted = sorted[:min(len(sorted), recentLimit)]

	out := make([]RecentTransaction, len(sorted))
	for i, tx := range sorted {
		out[i] = RecentTransaction{Transaction: tx, ClientName: nameOr(names, tx.ClientID, "")}
	}

	return out
}

// upcoming lists unpaid invoices due between today and thirty days from now,
// soonest first.
func upcoming(invoices []*invoice.Invoice, names map[string]string, now time.Time) []UpcomingInvoice {
	today := clock.DateOf(now)
	horizon := today.Add(upcomingWindow)

	var due []*invoice.Invoice

	for _, inv := range invoices {
		if inv.DueDate.IsZero() || inv.Status == invoice.StatusPaid {
			continue
		}

		d := clock.DateOf(inv.DueDate)
		if d.Before(today) || d.After(horizon) {
			continue
		}

		due = append(due, inv)
	}

	slices.SortStableFunc(due, func(a, b *invoice.Invoice) int {
		return cmp.Compare(a.DueDate.Unix(), b.DueDate.Unix())
	})

	due = due[:min(len(due), upcomingLimit)]

	out := make([]UpcomingInvoice, len(due))
	for i, inv := range due {
		out[i] = UpcomingInvoice{Invoice: inv, ClientName: nameOr(names, inv.ClientID, unknownClient)}
	}

	return out
}

func nameOr(names map[string]string, id, fallback string) string {
	if n := names[id]; n != "" {
		return n
	}

	return fallback
}
