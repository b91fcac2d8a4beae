package export_test

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/ledgerly/internal/client"
	"github.com/MrJamesThe3rd/ledgerly/internal/clock"
	"github.com/MrJamesThe3rd/ledgerly/internal/export"
	exporthttp "github.com/MrJamesThe3rd/ledgerly/internal/http/export"
	"github.com/MrJamesThe3rd/ledgerly/internal/invoice"
	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

var now = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

type fixture struct {
	txs      *transaction.MockRepository
	clients  *client.MockRepository
	invoices *invoice.MockRepository
	router   http.Handler
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)

	f := &fixture{
		txs:      transaction.NewMockRepository(ctrl),
		clients:  client.NewMockRepository(ctrl),
		invoices: invoice.NewMockRepository(ctrl),
	}

	svc := export.NewService(f.txs, f.clients, f.invoices, export.Business{Name: "Ledgerly Studio"})

	r := chi.NewRouter()
	r.Route("/export", exporthttp.NewHandler(svc, clock.NewFake(now)).Routes)
	f.router = r

	return f
}

func (f *fixture) get(target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	return rec
}

func ledger() []*transaction.Transaction {
	return []*transaction.Transaction{
		{ID: "txn_1", Type: transaction.TypeIncome, Amount: decimal.NewFromInt(500), Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Category: "Sales", Description: "Retainer", ClientID: "client_1"},
		{ID: "txn_2", Type: transaction.TypeExpense, Amount: decimal.NewFromInt(60), Date: time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC), Category: "Software", Description: "Hosting"},
	}
}

func TestHandler_Transactions(t *testing.T) {
	type testCase struct {
		name      string
		query     string
		wantRows  int
		wantFirst string
	}

	tests := []testCase{
		{name: "All", wantRows: 2, wantFirst: "2024-02-01,Income,500.00"},
		{name: "Type", query: "?type=expense", wantRows: 1, wantFirst: "2024-03-03,Expense,60.00"},
		{name: "Preset", query: "?preset=this_month", wantRows: 1, wantFirst: "2024-03-03,Expense,60.00"},
		{name: "UnknownTypeIgnored", query: "?type=refund&endDate=2024-02-28", wantRows: 1, wantFirst: "2024-02-01,Income,500.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.txs.EXPECT().ListTransactions(gomock.Any()).Return(ledger(), nil)
			f.clients.EXPECT().ListClients(gomock.Any()).Return([]*client.Client{{ID: "client_1", Name: "Acme"}}, nil)

			rec := f.get("/export/transactions" + tt.query)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
			assert.Equal(t, `attachment; filename="transactions_2024-03-15.csv"`, rec.Header().Get("Content-Disposition"))

			lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
			require.Len(t, lines, tt.wantRows+1)
			assert.True(t, strings.HasPrefix(lines[0], "Date,Type,Amount"))
			assert.True(t, strings.HasPrefix(lines[1], tt.wantFirst), lines[1])
		})
	}
}

func TestHandler_TransactionsFailure(t *testing.T) {
	f := newFixture(t)
	f.txs.EXPECT().ListTransactions(gomock.Any()).Return(nil, errors.New("timeout"))

	rec := f.get("/export/transactions")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Failed to export transactions"}`, rec.Body.String())
}

func TestHandler_TransactionsBadDate(t *testing.T) {
	f := newFixture(t)

	rec := f.get("/export/transactions?startDate=March")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Invalid date: March"}`, rec.Body.String())
}

func TestHandler_Invoices(t *testing.T) {
	f := newFixture(t)
	f.invoices.EXPECT().ListInvoices(gomock.Any()).Return([]*invoice.Invoice{
		{ID: "inv_1", Number: "INV-2024-0001", Status: invoice.StatusPaid},
		{ID: "inv_2", Number: "INV-2024-0002", Status: invoice.StatusDraft},
	}, nil)
	f.clients.EXPECT().ListClients(gomock.Any()).Return(nil, nil)

	rec := f.get("/export/invoices?status=draft")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="invoices_2024-03-15.csv"`, rec.Header().Get("Content-Disposition"))

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "INV-2024-0002,"), lines[1])
}

func TestHandler_Bundle(t *testing.T) {
	f := newFixture(t)
	f.txs.EXPECT().ListTransactions(gomock.Any()).Return(ledger(), nil)
	f.invoices.EXPECT().ListInvoices(gomock.Any()).Return(nil, nil)
	f.clients.EXPECT().ListClients(gomock.Any()).Return(nil, nil)

	rec := f.get("/export/bundle?startDate=2024-03-01")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="export_20240315.zip"`, rec.Header().Get("Content-Disposition"))

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	require.NoError(t, err)

	files := map[string]string{}

	for _, zf := range zr.File {
		rc, err := zf.Open()
		require.NoError(t, err)

		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())

		files[zf.Name] = string(b)
	}

	require.Contains(t, files, "transactions.csv")
	require.Contains(t, files, "invoices.csv")
	assert.Contains(t, files["summary.txt"], "Period: since 2024-03-01")
	assert.NotContains(t, files["transactions.csv"], "Retainer")
	assert.Contains(t, files["transactions.csv"], "Hosting")
}
