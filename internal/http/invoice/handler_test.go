package invoice_test

import (
	"context"
	"encoding/json"
	"errors"
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

	"github.com/MrJamesThe3rd/ledgerly/internal/clock"
	invoicehttp "github.com/MrJamesThe3rd/ledgerly/internal/http/invoice"
	"github.com/MrJamesThe3rd/ledgerly/internal/identity"
	"github.com/MrJamesThe3rd/ledgerly/internal/invoice"
)

var now = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

type fakePDF struct {
	err error
}

func (f fakePDF) InvoicePDF(_ context.Context, id string) ([]byte, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}

	return []byte("%PDF-1.3 " + id), "invoice_INV-2024-0001.pdf", nil
}

func newRouter(repo invoice.Repository, pdf invoicehttp.PDFRenderer) http.Handler {
	clk := clock.NewFake(now)

	r := chi.NewRouter()
	r.Route("/invoices", invoicehttp.NewHandler(invoice.NewService(repo, clk), pdf, clk).Routes)

	return r
}

func serve(t *testing.T, repo invoice.Repository, method, target, body string) (int, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req = req.WithContext(identity.WithContext(req.Context(), identity.Identity{Email: "owner@example.com"}))

	rec := httptest.NewRecorder()
	newRouter(repo, fakePDF{}).ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))

	return rec.Code, env
}

func date(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func stored() *invoice.Invoice {
	return &invoice.Invoice{
		ID:         "inv_1",
		Number:     "INV-2024-0001",
		ClientID:   "client_1",
		IssueDate:  date(1),
		DueDate:    date(31),
		Status:     invoice.StatusSent,
		Subtotal:   decimal.NewFromInt(200),
		Tax:        decimal.NewFromInt(20),
		TaxRate:    decimal.NewFromInt(10),
		Total:      decimal.NewFromInt(220),
		PaidAmount: decimal.Zero,
		BalanceDue: decimal.NewFromInt(220),
		Items: []invoice.Item{
			{ID: "item_1", InvoiceID: "inv_1", Description: "Design", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(100), Amount: decimal.NewFromInt(200)},
		},
	}
}

func TestHandler_List(t *testing.T) {
	all := func() []*invoice.Invoice {
		paid := stored()
		paid.ID, paid.ClientID, paid.Status = "inv_2", "client_2", invoice.StatusPaid

		draft := stored()
		draft.ID, draft.Status = "inv_3", invoice.StatusDraft

		return []*invoice.Invoice{stored(), paid, draft}
	}

	type testCase struct {
		name    string
		query   string
		wantIDs []string
	}

	tests := []testCase{
		{name: "All", wantIDs: []string{"inv_1", "inv_2", "inv_3"}},
		{name: "Client", query: "?clientId=client_1", wantIDs: []string{"inv_1", "inv_3"}},
		{name: "Status", query: "?status=paid", wantIDs: []string{"inv_2"}},
		{name: "ClientBeatsStatus", query: "?clientId=client_2&status=draft", wantIDs: []string{"inv_2"}},
		{name: "UnknownStatusListsAll", query: "?status=void", wantIDs: []string{"inv_1", "inv_2", "inv_3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := invoice.NewMockRepository(ctrl)
			repo.EXPECT().ListInvoices(gomock.Any()).Return(all(), nil)

			code, env := serve(t, repo, http.MethodGet, "/invoices"+tt.query, "")
			require.Equal(t, http.StatusOK, code)

			var got []invoicehttp.Response
			require.NoError(t, json.Unmarshal(env.Data, &got))

			ids := make([]string, len(got))
			for i, inv := range got {
				ids[i] = inv.ID
			}

			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestHandler_Stats(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := invoice.NewMockRepository(ctrl)

	partly := stored()
	partly.PaidAmount = decimal.NewFromInt(20)

	repo.EXPECT().ListInvoices(gomock.Any()).Return([]*invoice.Invoice{stored(), partly}, nil)

	code, env := serve(t, repo, http.MethodGet, "/invoices?action=stats", "")

	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{
		"totalInvoices": 2,
		"draftCount": 0,
		"sentCount": 2,
		"paidCount": 0,
		"overdueCount": 0,
		"totalAmount": "440",
		"paidAmount": "20",
		"outstanding": "420"
	}`, string(env.Data))
}

func TestHandler_Create(t *testing.T) {
	type testCase struct {
		name       string
		body       string
		setupMock  func(m *invoice.MockRepository)
		wantStatus int
		wantError  string
	}

	valid := `{"clientId":"client_1","issueDate":"2024-03-15","dueDate":"2024-04-14","taxRate":"23",
		"items":[{"description":"Consulting","quantity":"3","unitPrice":"150"}]}`

	tests := []testCase{
		{
			name: "Success",
			body: valid,
			setupMock: func(m *invoice.MockRepository) {
				m.EXPECT().ListInvoices(gomock.Any()).Return(nil, nil)
				m.EXPECT().CreateInvoice(gomock.Any(), gomock.Any()).Return(nil)
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "MissingClient",
			body:       `{"issueDate":"2024-03-15","dueDate":"2024-04-14","items":[{"description":"x","quantity":1,"unitPrice":1}]}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Client is required",
		},
		{
			name:       "NoItems",
			body:       `{"clientId":"client_1","issueDate":"2024-03-15","dueDate":"2024-04-14","items":[]}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "At least one line item is required",
		},
		{
			name:       "BadItem",
			body:       `{"clientId":"client_1","issueDate":"2024-03-15","dueDate":"2024-04-14","items":[{"description":"x","quantity":0,"unitPrice":1}]}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid line item data",
		},
		{
			name: "DatastoreFailure",
			body: valid,
			setupMock: func(m *invoice.MockRepository) {
				m.EXPECT().ListInvoices(gomock.Any()).Return(nil, errors.New("unavailable"))
			},
			wantStatus: http.StatusInternalServerError,
			wantError:  "Failed to create invoice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := invoice.NewMockRepository(ctrl)

			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			code, env := serve(t, repo, http.MethodPost, "/invoices", tt.body)

			assert.Equal(t, tt.wantStatus, code)
			assert.Equal(t, tt.wantError, env.Error)

			if code != http.StatusCreated {
				return
			}

			assert.Equal(t, "Invoice created successfully", env.Message)

			var got invoicehttp.Response
			require.NoError(t, json.Unmarshal(env.Data, &got))
			assert.Equal(t, "INV-2024-0001", got.InvoiceNumber)
			assert.Equal(t, invoice.StatusDraft, got.Status)
			assert.Equal(t, "450", got.Subtotal.String())
			assert.Equal(t, "103.5", got.Tax.String())
			assert.Equal(t, "553.5", got.Total.String())
			assert.Equal(t, "553.5", got.BalanceDue.String())
			assert.Nil(t, got.PaidDate)
			require.Len(t, got.Items, 1)
		})
	}
}

func TestHandler_Update(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := invoice.NewMockRepository(ctrl)

	repo.EXPECT().GetInvoice(gomock.Any(), "inv_1").Return(stored(), nil)
	repo.EXPECT().UpdateInvoice(gomock.Any(), gomock.Any(), true).Return(nil)
	repo.EXPECT().GetInvoice(gomock.Any(), "inv_9").Return(nil, invoice.ErrNotFound)

	code, env := serve(t, repo, http.MethodPut, "/invoices/inv_1",
		`{"items":[{"id":"item_1","description":"Design","quantity":1,"unitPrice":100},{"description":"Hosting","quantity":1,"unitPrice":50}]}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Invoice updated successfully", env.Message)

	var got invoicehttp.Response
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "165", got.Total.String())
	require.Len(t, got.Items, 2)
	assert.Equal(t, "item_1", got.Items[0].ID)

	code, env = serve(t, repo, http.MethodPut, "/invoices/inv_1", `{"items":[]}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "At least one line item is required", env.Error)

	code, env = serve(t, repo, http.MethodPut, "/invoices/inv_9", `{"notes":"x"}`)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Invoice not found", env.Error)
}

func TestHandler_PaymentsAndSend(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := invoice.NewMockRepository(ctrl)

	repo.EXPECT().GetInvoice(gomock.Any(), "inv_1").DoAndReturn(func(context.Context, string) (*invoice.Invoice, error) {
		return stored(), nil
	}).Times(2)
	repo.EXPECT().UpdateInvoice(gomock.Any(), gomock.Any(), false).Return(nil).Times(2)

	code, env := serve(t, repo, http.MethodPost, "/invoices/inv_1/payments", `{"amount":"220","date":"2024-03-16"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Payment recorded successfully", env.Message)

	var paid invoicehttp.Response
	require.NoError(t, json.Unmarshal(env.Data, &paid))
	assert.Equal(t, invoice.StatusPaid, paid.Status)
	require.NotNil(t, paid.PaidDate)
	assert.Equal(t, "2024-03-16", paid.PaidDate.Format(time.DateOnly))

	code, env = serve(t, repo, http.MethodPost, "/invoices/inv_1/payments", `{"amount":0}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Payment amount must be positive", env.Error)

	code, env = serve(t, repo, http.MethodPost, "/invoices/inv_1/send", "")
	require.Equal(t, http.StatusOK, code)

	var sent invoicehttp.Response
	require.NoError(t, json.Unmarshal(env.Data, &sent))
	assert.Equal(t, invoice.StatusSent, sent.Status)
	require.NotNil(t, sent.SentDate)
	assert.Equal(t, "2024-03-15", sent.SentDate.Format(time.DateOnly))
}

func TestHandler_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := invoice.NewMockRepository(ctrl)
	repo.EXPECT().DeleteInvoice(gomock.Any(), "inv_1").Return(nil)
	repo.EXPECT().DeleteInvoice(gomock.Any(), "inv_9").Return(invoice.ErrNotFound)

	code, env := serve(t, repo, http.MethodDelete, "/invoices/inv_1", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Invoice deleted successfully", env.Message)

	code, env = serve(t, repo, http.MethodDelete, "/invoices/inv_9", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Invoice not found", env.Error)
}

func TestHandler_PDF(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := invoice.NewMockRepository(ctrl)

	rec := httptest.NewRecorder()
	newRouter(repo, fakePDF{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/invoices/inv_1/pdf", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="invoice_INV-2024-0001.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.3 inv_1", rec.Body.String())

	rec = httptest.NewRecorder()
	newRouter(repo, fakePDF{err: invoice.ErrNotFound}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/invoices/inv_9/pdf", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Invoice not found"}`, rec.Body.String())
}
