package importer_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/ledgerly/internal/client"
	"github.com/MrJamesThe3rd/ledgerly/internal/importer"
	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
	"github.com/MrJamesThe3rd/ledgerly/internal/validation"
)

type stubSuggester struct {
	rules map[string]string
	err   error
	calls int
}

func (s *stubSuggester) Suggest(_ context.Context, raw string) (string, error) {
	s.calls++
	return s.rules[raw], s.err
}

const statement = `Data mov.;Descrição;Montante
30-01-2026;AWS EMEA;-20,00
29-01-2026;TFI Wise;500,00
`

func TestService_Parse(t *testing.T) {
	sug := &stubSuggester{rules: map[string]string{"AWS EMEA": "Software & Subscriptions"}}

	params, err := importer.NewService(sug).Parse(context.Background(), importer.BankCGD, strings.NewReader(statement))
	require.NoError(t, err)
	require.Len(t, params, 2)

	assert.Equal(t, "Software & Subscriptions", params[0].Category)
	assert.Empty(t, params[1].Category)
	assert.Equal(t, 2, sug.calls)
}

func TestService_ParseSuggesterFailure(t *testing.T) {
	sug := &stubSuggester{err: errors.New("datastore down")}

	params, err := importer.NewService(sug).Parse(context.Background(), importer.BankCGD, strings.NewReader(statement))
	require.NoError(t, err)
	require.Len(t, params, 2)
	assert.Empty(t, params[0].Category)
	assert.Equal(t, 1, sug.calls)
}

func TestService_ParseErrors(t *testing.T) {
	type testCase struct {
		name    string
		bank    importer.Bank
		input   string
		wantMsg string
	}

	tests := []testCase{
		{name: "UnknownBank", bank: "bpi", input: statement, wantMsg: "Unknown bank: bpi"},
		{name: "UnrecognisedFile", bank: importer.BankCGD, input: "a;b;c\n", wantMsg: "no matching CGD format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := importer.NewService(nil).Parse(context.Background(), tt.bank, strings.NewReader(tt.input))

			msg, ok := validation.Message(err)
			require.True(t, ok)
			assert.Contains(t, msg, tt.wantMsg)
		})
	}
}

type stubClients struct {
	clients []*client.Client
	err     error
}

func (s stubClients) List(context.Context) ([]*client.Client, error) {
	return s.clients, s.err
}

func TestService_ParseAssignsClients(t *testing.T) {
	book := []*client.Client{
		{ID: "c-acme", Name: "Acme", Type: client.TypeClient},
		{ID: "c-acme-labs", Name: "Acme Labs", Type: client.TypeClient},
		{ID: "v-aws", Name: "AWS", Type: client.TypeVendor},
		{ID: "b-gestao", Name: "Instituto Gestão", Type: client.TypeBoth},
		{ID: "x-short", Name: "AB", Type: client.TypeBoth},
	}

	type testCase struct {
		name  string
		input string
		want  string
	}

	tests := []testCase{
		{name: "VendorOnExpense", input: "30-01-2026;AWS EMEA;-20,00", want: "v-aws"},
		{name: "VendorIgnoredOnIncome", input: "30-01-2026;AWS EMEA;20,00", want: ""},
		{name: "ClientOnIncome", input: "30-01-2026;TRF ACME LDA;500,00", want: "c-acme"},
		{name: "ClientIgnoredOnExpense", input: "30-01-2026;TRF ACME LDA;-500,00", want: ""},
		{name: "LongestNameWins", input: "30-01-2026;TRF ACME LABS;500,00", want: "c-acme-labs"},
		{name: "AccentsAndCaseFolded", input: "30-01-2026;INSTITUTO GESTAO FINA;-588,74", want: "b-gestao"},
		{name: "WordBoundariesOnly", input: "30-01-2026;ACMECORP;500,00", want: ""},
		{name: "ShortNamesSkipped", input: "30-01-2026;AB SERVICOS;500,00", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := importer.NewService(nil, importer.WithClients(stubClients{clients: book}))

			params, err := svc.Parse(context.Background(), importer.BankCGD,
				strings.NewReader("Data mov.;Descrição;Montante\n"+tt.input+"\n"))
			require.NoError(t, err)
			require.Len(t, params, 1)
			assert.Equal(t, tt.want, params[0].ClientID)
		})
	}
}

func TestService_ParseClientListFailure(t *testing.T) {
	sug := &stubSuggester{rules: map[string]string{"AWS EMEA": "Software & Subscriptions"}}
	svc := importer.NewService(sug, importer.WithClients(stubClients{err: errors.New("datastore down")}))

	params, err := svc.Parse(context.Background(), importer.BankCGD, strings.NewReader(statement))
	require.NoError(t, err)
	require.Len(t, params, 2)
	assert.Empty(t, params[0].ClientID)
	assert.Equal(t, "Software & Subscriptions", params[0].Category)
}

func TestService_ParseTagsRows(t *testing.T) {
	params, err := importer.NewService(nil).Parse(context.Background(), importer.BankCGD, strings.NewReader(statement))
	require.NoError(t, err)

	for _, p := range params {
		assert.Equal(t, []string{"import:cgd"}, p.Tags)
	}
}

func TestSummarize(t *testing.T) {
	params := []transaction.CreateParams{
		{Type: transaction.TypeExpense, Amount: decimal.RequireFromString("20"), Date: day(2026, 1, 30), Category: "Software & Subscriptions"},
		{Type: transaction.TypeIncome, Amount: decimal.RequireFromString("500"), Date: day(2026, 1, 9), ClientID: "c-acme"},
		{Type: transaction.TypeExpense, Amount: decimal.RequireFromString("5.50"), Date: day(2026, 1, 15)},
	}

	s := importer.Summarize(params)

	assert.Equal(t, 3, s.Rows)
	assert.True(t, decimal.RequireFromString("500").Equal(s.Income))
	assert.True(t, decimal.RequireFromString("25.50").Equal(s.Expenses))
	assert.True(t, decimal.RequireFromString("474.50").Equal(s.Net()))
	assert.Equal(t, day(2026, 1, 9), s.First)
	assert.Equal(t, day(2026, 1, 30), s.Last)
	assert.Equal(t, 1, s.Categorized)
	assert.Equal(t, 1, s.Matched)
}

func TestSummarize_Empty(t *testing.T) {
	s := importer.Summarize(nil)

	assert.Zero(t, s.Rows)
	assert.True(t, s.Net().IsZero())
	assert.True(t, s.First.IsZero())
}

func TestBank_Label(t *testing.T) {
	assert.Equal(t, "Caixa Geral de Depósitos", importer.BankCGD.Label())
	assert.Equal(t, "bpi", importer.Bank("bpi").Label())
}

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}
