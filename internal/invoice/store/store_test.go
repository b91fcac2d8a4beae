package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/ledgerly/internal/datastore"
	"github.com/MrJamesThe3rd/ledgerly/internal/datastore/memory"
	"github.com/MrJamesThe3rd/ledgerly/internal/invoice"
	"github.com/MrJamesThe3rd/ledgerly/internal/invoice/store"
)

func newStore(t *testing.T) (*store.Store, *memory.Store) {
	t.Helper()

	gw := memory.New()
	s := store.New(gw)
	require.NoError(t, s.Init(context.Background()))

	return s, gw
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sample(id string) *invoice.Invoice {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	inv := &invoice.Invoice{
		ID:          id,
		Number:      "INV-2024-0001",
		ClientID:    "client_1",
		IssueDate:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:     time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		Status:      invoice.StatusSent,
		TaxRate:     dec("10"),
		PaidAmount:  dec("20"),
		Notes:       "thanks",
		Terms:       "net 30",
		Attachments: []string{"https://files.example.com/a.pdf"},
		SentDate:    time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
		CreatedAt:   ts,
		UpdatedAt:   ts,
		CreatedBy:   "owner@example.com",
		Items: []invoice.Item{
			{ID: id + "_a", InvoiceID: id, Description: "Design", Quantity: dec("2"), UnitPrice: dec("50")},
			{ID: id + "_b", InvoiceID: id, Description: "Hosting", Quantity: dec("1"), UnitPrice: dec("100")},
		},
	}
	invoice.Recalculate(inv, "", ts)

	return inv
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	want := sample("inv_1")
	require.NoError(t, s.CreateInvoice(ctx, want))
	require.NoError(t, s.CreateInvoice(ctx, sample("inv_2")))

	got, err := s.GetInvoice(ctx, "inv_1")
	require.NoError(t, err)

	assert.Equal(t, want.Number, got.Number)
	assert.Equal(t, want.Status, got.Status)
	assert.Equal(t, want.DueDate, got.DueDate)
	assert.Equal(t, want.SentDate, got.SentDate)
	assert.True(t, got.PaidDate.IsZero())
	assert.Equal(t, want.Attachments, got.Attachments)
	assert.True(t, dec("220").Equal(got.Total))
	assert.True(t, dec("200").Equal(got.BalanceDue))

	require.Len(t, got.Items, 2)
	assert.Equal(t, "Design", got.Items[0].Description)
	assert.True(t, dec("100").Equal(got.Items[0].Amount))

	all, err := s.ListInvoices(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	for _, inv := range all {
		assert.Len(t, inv.Items, 2)

		for _, it := range inv.Items {
			assert.Equal(t, inv.ID, it.InvoiceID)
		}
	}
}

func TestStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	_, err := s.GetInvoice(ctx, "nope")
	assert.ErrorIs(t, err, invoice.ErrNotFound)

	assert.ErrorIs(t, s.UpdateInvoice(ctx, sample("nope"), true), invoice.ErrNotFound)
	assert.ErrorIs(t, s.DeleteInvoice(ctx, "nope"), invoice.ErrNotFound)
}

func TestStore_UpdateReplacesItems(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	require.NoError(t, s.CreateInvoice(ctx, sample("inv_1")))
	require.NoError(t, s.CreateInvoice(ctx, sample("inv_2")))

	inv, err := s.GetInvoice(ctx, "inv_1")
	require.NoError(t, err)

	inv.Items = []invoice.Item{
		{ID: "inv_1_c", InvoiceID: "inv_1", Description: "Support", Quantity: dec("3"), UnitPrice: dec("10")},
	}
	invoice.Recalculate(inv, "", inv.IssueDate)
	require.NoError(t, s.UpdateInvoice(ctx, inv, true))

	got, err := s.GetInvoice(ctx, "inv_1")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "inv_1_c", got.Items[0].ID)
	assert.True(t, dec("33").Equal(got.Total))

	other, err := s.GetInvoice(ctx, "inv_2")
	require.NoError(t, err)
	assert.Len(t, other.Items, 2)
}

func TestStore_UpdateKeepsItems(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	require.NoError(t, s.CreateInvoice(ctx, sample("inv_1")))

	inv, err := s.GetInvoice(ctx, "inv_1")
	require.NoError(t, err)

	inv.Items = nil
	inv.Notes = "updated"
	require.NoError(t, s.UpdateInvoice(ctx, inv, false))

	got, err := s.GetInvoice(ctx, "inv_1")
	require.NoError(t, err)
	assert.Equal(t, "updated", got.Notes)
	assert.Len(t, got.Items, 2)
}

func TestStore_DeleteCascadesItems(t *testing.T) {
	ctx := context.Background()
	s, gw := newStore(t)

	require.NoError(t, s.CreateInvoice(ctx, sample("inv_1")))
	require.NoError(t, s.CreateInvoice(ctx, sample("inv_2")))
	require.NoError(t, s.DeleteInvoice(ctx, "inv_1"))

	all, err := s.ListInvoices(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "inv_2", all[0].ID)

	rows, err := gw.ListRows(ctx, store.ItemSchema.Table)
	require.NoError(t, err)
	// Header plus inv_2's two items.
	assert.Len(t, rows, 3)
}

func TestStore_CreateIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	gw := memory.New()

	// Only the invoice table exists, so the item append must fail.
	require.NoError(t, datastore.NewTable(gw, store.InvoiceSchema).Init(ctx))

	s := store.New(gw)
	err := s.CreateInvoice(ctx, sample("inv_1"))
	require.ErrorIs(t, err, datastore.ErrTableNotFound)

	rows, err := gw.ListRows(ctx, store.InvoiceSchema.Table)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestStore_DecodeDefaults(t *testing.T) {
	ctx := context.Background()
	s, gw := newStore(t)

	require.NoError(t, gw.AppendRows(ctx, store.InvoiceSchema.Table, [][]string{
		{"inv_legacy", "INV-2023-0001", "client_1", "2023-01-01", "2023-01-31"},
	}))

	got, err := s.GetInvoice(ctx, "inv_legacy")
	require.NoError(t, err)
	assert.Equal(t, invoice.StatusDraft, got.Status)
	assert.True(t, got.Total.IsZero())
	assert.Empty(t, got.Items)
	assert.NotNil(t, got.Items)
}
