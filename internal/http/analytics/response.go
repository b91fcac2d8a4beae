package analytics

import (
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerly/internal/analytics"
	invoicehttp "github.com/MrJamesThe3rd/ledgerly/internal/http/invoice"
	txhttp "github.com/MrJamesThe3rd/ledgerly/internal/http/transaction"
	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

type summaryResponse struct {
	TotalIncome      decimal.Decimal `json:"totalIncome"`
	TotalExpenses    decimal.Decimal `json:"totalExpenses"`
	NetBalance       decimal.Decimal `json:"netBalance"`
	TransactionCount int             `json:"transactionCount"`
	ClientCount      int             `json:"clientCount"`
	InvoiceCount     int             `json:"invoiceCount"`
	OverdueInvoices  int             `json:"overdueInvoices"`
}

type monthResponse struct {
	Month    string          `json:"month"`
	MonthKey string          `json:"monthKey"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Net      decimal.Decimal `json:"net"`
}

type categoryResponse struct {
	Category   string           `json:"category"`
	Type       transaction.Type `json:"type"`
	Amount     decimal.Decimal  `json:"amount"`
	Count      int              `json:"count"`
	Percentage decimal.Decimal  `json:"percentage"`
}

type topClientResponse struct {
	ClientID         string          `json:"clientId"`
	ClientName       string          `json:"clientName"`
	TotalRevenue     decimal.Decimal `json:"totalRevenue"`
	TransactionCount int             `json:"transactionCount"`
}

type recentResponse struct {
	txhttp.Response
	ClientName string `json:"clientName,omitempty"`
}

type upcomingResponse struct {
	invoicehttp.Response
	ClientName string `json:"clientName"`
}

type dashboardResponse struct {
	Summary            summaryResponse     `json:"summary"`
	MonthlyData        []monthResponse     `json:"monthlyData"`
	CategoryData       []categoryResponse  `json:"categoryData"`
	TopClients         []topClientResponse `json:"topClients"`
	RecentTransactions []recentResponse    `json:"recentTransactions"`
	UpcomingInvoices   []upcomingResponse  `json:"upcomingInvoices"`
}

func toResponse(d *analytics.Dashboard) dashboardResponse {
	resp := dashboardResponse{
		Summary: summaryResponse{
			TotalIncome:      d.Summary.TotalIncome,
			TotalExpenses:    d.Summary.TotalExpenses,
			NetBalance:       d.Summary.NetBalance,
			TransactionCount: d.Summary.TransactionCount,
			ClientCount:      d.Summary.ClientCount,
			InvoiceCount:     d.Summary.InvoiceCount,
			OverdueInvoices:  d.Summary.OverdueInvoices,
		},
		MonthlyData:        make([]monthResponse, len(d.Monthly)),
		CategoryData:       make([]categoryResponse, len(d.Categories)),
		TopClients:         make([]topClientResponse, len(d.TopClients)),
		RecentTransactions: make([]recentResponse, len(d.Recent)),
		UpcomingInvoices:   make([]upcomingResponse, len(d.Upcoming)),
	}

	for i, m := range d.Monthly {
		resp.MonthlyData[i] = monthResponse{Month: m.Label, MonthKey: m.Key, Income: m.Income, Expenses: m.Expenses, Net: m.Net}
	}

	for i, c := range d.Categories {
		resp.CategoryData[i] = categoryResponse{Category: c.Name, Type: c.Type, Amount: c.Amount, Count: c.Count, Percentage: c.Percentage}
	}

	for i, c := range d.TopClients {
		resp.TopClients[i] = topClientResponse(c)
	}

	for i, r := range d.Recent {
		resp.RecentTransactions[i] = recentResponse{Response: txhttp.NewResponse(r.Transaction), ClientName: r.ClientName}
	}

	for i, u := range d.Upcoming {
		resp.UpcomingInvoices[i] = upcomingResponse{Response: invoicehttp.NewResponse(u.Invoice), ClientName: u.ClientName}
	}

	return resp
}
