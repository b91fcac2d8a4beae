package analytics_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/ledgerly/internal/analytics"
	"github.com/MrJamesThe3rd/ledgerly/internal/client"
	"github.com/MrJamesThe3rd/ledgerly/internal/clock"
	analyticshttp "github.com/MrJamesThe3rd/ledgerly/internal/http/analytics"
	"github.com/MrJamesThe3rd/ledgerly/internal/invoice"
	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

var now = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

func serve(t *testing.T, txs *transaction.MockRepository, clients *client.MockRepository, invs *invoice.MockRepository) *httptest.ResponseRecorder {
	t.Helper()

	svc := analytics.NewService(txs, clients, invs, clock.NewFake(now))

	r := chi.NewRouter()
	r.Route("/analytics", analyticshttp.NewHandler(svc).Routes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/analytics", nil))

	return rec
}

func TestHandler_Dashboard(t *testing.T) {
	ctrl := gomock.NewController(t)
	txs := transaction.NewMockRepository(ctrl)
	clients := client.NewMockRepository(ctrl)
	invs := invoice.NewMockRepository(ctrl)

	txs.EXPECT().ListTransactions(gomock.Any()).Return([]*transaction.Transaction{
		{ID: "txn_1", Type: transaction.TypeIncome, Amount: decimal.NewFromInt(900), Date: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), Category: "Sales", ClientID: "client_1"},
		{ID: "txn_2", Type: transaction.TypeExpense, Amount: decimal.NewFromInt(100), Date: time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), Category: "Rent"},
	}, nil)
	clients.EXPECT().ListClients(gomock.Any()).Return([]*client.Client{{ID: "client_1", Name: "Acme Corp"}}, nil)
	invs.EXPECT().ListInvoices(gomock.Any()).Return([]*invoice.Invoice{
		{ID: "inv_1", Number: "INV-2024-0001", ClientID: "client_2", DueDate: time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC), Status: invoice.StatusSent},
	}, nil)

	rec := serve(t, txs, clients, invs)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Summary struct {
				NetBalance       string `json:"netBalance"`
				TransactionCount int    `json:"transactionCount"`
				ClientCount      int    `json:"clientCount"`
				InvoiceCount     int    `json:"invoiceCount"`
			} `json:"summary"`
			MonthlyData []struct {
				Month    string `json:"month"`
				MonthKey string `json:"monthKey"`
			} `json:"monthlyData"`
			CategoryData []struct {
				Category   string `json:"category"`
				Percentage string `json:"percentage"`
			} `json:"categoryData"`
			TopClients []struct {
				ClientName string `json:"clientName"`
			} `json:"topClients"`
			RecentTransactions []struct {
				ID         string `json:"id"`
				Date       string `json:"date"`
				ClientName string `json:"clientName"`
			} `json:"recentTransactions"`
			UpcomingInvoices []struct {
				InvoiceNumber string `json:"invoiceNumber"`
				ClientName    string `json:"clientName"`
			} `json:"upcomingInvoices"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	d := body.Data
	assert.True(t, body.Success)
	assert.Equal(t, "800", d.Summary.NetBalance)
	assert.Equal(t, 2, d.Summary.TransactionCount)
	assert.Equal(t, 1, d.Summary.ClientCount)
	assert.Equal(t, 1, d.Summary.InvoiceCount)

	require.Len(t, d.MonthlyData, 6)
	assert.Equal(t, "Oct 2023", d.MonthlyData[0].Month)
	assert.Equal(t, "2024-03", d.MonthlyData[5].MonthKey)

	require.Len(t, d.CategoryData, 2)
	assert.Equal(t, "Sales", d.CategoryData[0].Category)
	assert.Equal(t, "100", d.CategoryData[0].Percentage)

	require.Len(t, d.TopClients, 1)
	assert.Equal(t, "Acme Corp", d.TopClients[0].ClientName)

	require.Len(t, d.RecentTransactions, 2)
	assert.Equal(t, "txn_1", d.RecentTransactions[0].ID)
	assert.Equal(t, "2024-03-02", d.RecentTransactions[0].Date)
	assert.Equal(t, "Acme Corp", d.RecentTransactions[0].ClientName)
	assert.Empty(t, d.RecentTransactions[1].ClientName)

	require.Len(t, d.UpcomingInvoices, 1)
	assert.Equal(t, "INV-2024-0001", d.UpcomingInvoices[0].InvoiceNumber)
	assert.Equal(t, "Unknown", d.UpcomingInvoices[0].ClientName)
}

func TestHandler_DashboardFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	txs := transaction.NewMockRepository(ctrl)
	clients := client.NewMockRepository(ctrl)
	invs := invoice.NewMockRepository(ctrl)

	txs.EXPECT().ListTransactions(gomock.Any()).Return(nil, errors.New("backend down"))
	clients.EXPECT().ListClients(gomock.Any()).Return(nil, nil).AnyTimes()
	invs.EXPECT().ListInvoices(gomock.Any()).Return(nil, nil).AnyTimes()

	rec := serve(t, txs, clients, invs)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Failed to fetch analytics"}`, rec.Body.String())
}
