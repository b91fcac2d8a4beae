package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrJamesThe3rd/ledgerly/internal/datastore"
	"github.com/MrJamesThe3rd/ledgerly/internal/invoice"
	"github.com/MrJamesThe3rd/ledgerly/internal/rowcodec"
)

var InvoiceSchema = rowcodec.Schema{
	Table:   "Invoices",
	Version: 1,
	Fields: []string{
		"id", "invoiceNumber", "clientId", "issueDate", "dueDate", "status",
		"subtotal", "tax", "taxRate", "total", "paidAmount", "balanceDue",
		"notes", "terms", "attachments", "sentDate", "paidDate",
		"createdAt", "updatedAt", "createdBy",
	},
}

var ItemSchema = rowcodec.Schema{
	Table:   "InvoiceItems",
	Version: 1,
	Fields:  []string{"id", "invoiceId", "description", "quantity", "unitPrice", "amount"},
}

// Store keeps invoices and their line items in two tables. Writes touching
// both are committed together when the gateway supports batching.
type Store struct {
	gw       datastore.Gateway
	invoices *datastore.Table
	items    *datastore.Table
}

func New(gw datastore.Gateway) *Store {
	return &Store{
		gw:       gw,
		invoices: datastore.NewTable(gw, InvoiceSchema),
		items:    datastore.NewTable(gw, ItemSchema),
	}
}

func (s *Store) Init(ctx context.Context) error {
	if err := s.invoices.Init(ctx); err != nil {
		return err
	}

	return s.items.Init(ctx)
}

func (s *Store) ListInvoices(ctx context.Context) ([]*invoice.Invoice, error) {
	recs, err := s.invoices.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}

	itemRecs, err := s.items.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing invoice items: %w", err)
	}

	byInvoice := make(map[string][]invoice.Item)
	for _, r := range itemRecs {
		it := itemFromRecord(r)
		byInvoice[it.InvoiceID] = append(byInvoice[it.InvoiceID], it)
	}

	out := make([]*invoice.Invoice, len(recs))
	for i, r := range recs {
		inv := fromRecord(r)
		inv.Items = itemsOrEmpty(byInvoice[inv.ID])
		out[i] = inv
	}

	return out, nil
}

func (s *Store) GetInvoice(ctx context.Context, id string) (*invoice.Invoice, error) {
	rec, err := s.invoices.Find(ctx, id)
	if err != nil {
		return nil, mapErr("getting invoice", err)
	}

	snap, err := s.items.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting invoice items: %w", err)
	}

	inv := fromRecord(rec)

	items := make([]invoice.Item, 0)
	for _, r := range snap.Where("invoiceId", id) {
		items = append(items, itemFromRecord(r))
	}

	inv.Items = items

	return inv, nil
}

func (s *Store) CreateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	itemRecs := make([]rowcodec.Record, len(inv.Items))
	for i, it := range inv.Items {
		itemRecs[i] = itemToRecord(it)
	}

	err := datastore.Commit(ctx, s.gw,
		s.invoices.Appends(toRecord(inv)),
		s.items.Appends(itemRecs...),
	)
	if err != nil {
		return fmt.Errorf("creating invoice: %w", err)
	}

	return nil
}

func (s *Store) UpdateInvoice(ctx context.Context, inv *invoice.Invoice, replaceItems bool) error {
	snap, err := s.invoices.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("updating invoice: %w", err)
	}

	st := snap.Stage()
	if err := st.Put(toRecord(inv)); err != nil {
		return mapErr("updating invoice", err)
	}

	muts := []datastore.Mutation{st.Mutation()}

	if replaceItems {
		itemSnap, err := s.items.Snapshot(ctx)
		if err != nil {
			return fmt.Errorf("updating invoice items: %w", err)
		}

		ist := itemSnap.Stage()
		ist.DropWhere("invoiceId", inv.ID)

		for _, it := range inv.Items {
			ist.Add(itemToRecord(it))
		}

		muts = append(muts, ist.Mutation())
	}

	if err := datastore.Commit(ctx, s.gw, muts...); err != nil {
		return fmt.Errorf("updating invoice: %w", err)
	}

	return nil
}

func (s *Store) DeleteInvoice(ctx context.Context, id string) error {
	snap, err := s.invoices.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("deleting invoice: %w", err)
	}

	st := snap.Stage()
	if err := st.Drop(id); err != nil {
		return mapErr("deleting invoice", err)
	}

	itemSnap, err := s.items.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("deleting invoice items: %w", err)
	}

	ist := itemSnap.Stage()
	ist.DropWhere("invoiceId", id)

	if err := datastore.Commit(ctx, s.gw, st.Mutation(), ist.Mutation()); err != nil {
		return fmt.Errorf("deleting invoice: %w", err)
	}

	return nil
}

func mapErr(op string, err error) error {
	if errors.Is(err, datastore.ErrRowNotFound) {
		return invoice.ErrNotFound
	}

	return fmt.Errorf("%s: %w", op, err)
}

func itemsOrEmpty(items []invoice.Item) []invoice.Item {
	if items == nil {
		return []invoice.Item{}
	}

	return items
}

func toRecord(inv *invoice.Invoice) rowcodec.Record {
	return rowcodec.Record{
		"id":            inv.ID,
		"invoiceNumber": inv.Number,
		"clientId":      inv.ClientID,
		"issueDate":     rowcodec.Date(inv.IssueDate),
		"dueDate":       rowcodec.Date(inv.DueDate),
		"status":        string(inv.Status),
		"subtotal":      rowcodec.Decimal(inv.Subtotal),
		"tax":           rowcodec.Decimal(inv.Tax),
		"taxRate":       rowcodec.Decimal(inv.TaxRate),
		"total":         rowcodec.Decimal(inv.Total),
		"paidAmount":    rowcodec.Decimal(inv.PaidAmount),
		"balanceDue":    rowcodec.Decimal(inv.BalanceDue),
		"notes":         inv.Notes,
		"terms":         inv.Terms,
		"attachments":   rowcodec.Strings(inv.Attachments),
		"sentDate":      rowcodec.Date(inv.SentDate),
		"paidDate":      rowcodec.Date(inv.PaidDate),
		"createdAt":     rowcodec.Time(inv.CreatedAt),
		"updatedAt":     rowcodec.Time(inv.UpdatedAt),
		"createdBy":     inv.CreatedBy,
	}
}

func fromRecord(r rowcodec.Record) *invoice.Invoice {
	status := invoice.Status(r["status"])
	if status == "" {
		status = invoice.StatusDraft
	}

	return &invoice.Invoice{
		ID:          r["id"],
		Number:      r["invoiceNumber"],
		ClientID:    r["clientId"],
		IssueDate:   rowcodec.ParseDate(r["issueDate"]),
		DueDate:     rowcodec.ParseDate(r["dueDate"]),
		Status:      status,
		Subtotal:    rowcodec.ParseDecimal(r["subtotal"]),
		Tax:         rowcodec.ParseDecimal(r["tax"]),
		TaxRate:     rowcodec.ParseDecimal(r["taxRate"]),
		Total:       rowcodec.ParseDecimal(r["total"]),
		PaidAmount:  rowcodec.ParseDecimal(r["paidAmount"]),
		BalanceDue:  rowcodec.ParseDecimal(r["balanceDue"]),
		Notes:       r["notes"],
		Terms:       r["terms"],
		Attachments: rowcodec.ParseStrings(r["attachments"]),
		SentDate:    rowcodec.ParseDate(r["sentDate"]),
		PaidDate:    rowcodec.ParseDate(r["paidDate"]),
		CreatedAt:   rowcodec.ParseTime(r["createdAt"]),
		UpdatedAt:   rowcodec.ParseTime(r["updatedAt"]),
		CreatedBy:   r["createdBy"],
	}
}

func itemToRecord(it invoice.Item) rowcodec.Record {
	return rowcodec.Record{
		"id":          it.ID,
		"invoiceId":   it.InvoiceID,
		"description": it.Description,
		"quantity":    rowcodec.Decimal(it.Quantity),
		"unitPrice":   rowcodec.Decimal(it.UnitPrice),
		"amount":      rowcodec.Decimal(it.Amount),
	}
}

func itemFromRecord(r rowcodec.Record) invoice.Item {
	return invoice.Item{
		ID:          r["id"],
		InvoiceID:   r["invoiceId"],
		Description: r["description"],
		Quantity:    rowcodec.ParseDecimal(r["quantity"]),
		UnitPrice:   rowcodec.ParseDecimal(r["unitPrice"]),
		Amount:      rowcodec.ParseDecimal(r["amount"]),
	}
}
