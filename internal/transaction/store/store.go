package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrJamesThe3rd/ledgerly/internal/datastore"
	"github.com/MrJamesThe3rd/ledgerly/internal/rowcodec"
	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

// Schema v2 appended rawDescription for bank imports.
var Schema = rowcodec.Schema{
	Table:   "Transactions",
	Version: 2,
	Fields: []string{
		"id", "type", "amount", "date", "category", "description", "paymentMethod",
		"clientId", "invoiceId", "tags", "attachments", "notes", "isRecurring",
		"recurringFrequency", "createdAt", "updatedAt", "createdBy", "rawDescription",
	},
}

type Store struct {
	table *datastore.Table
}

func New(gw datastore.Gateway) *Store {
	return &Store{table: datastore.NewTable(gw, Schema)}
}

func (s *Store) Init(ctx context.Context) error {
	return s.table.Init(ctx)
}

func (s *Store) ListTransactions(ctx context.Context) ([]*transaction.Transaction, error) {
	recs, err := s.table.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	txs := make([]*transaction.Transaction, len(recs))
	for i, r := range recs {
		txs[i] = fromRecord(r)
	}

	return txs, nil
}

func (s *Store) GetTransaction(ctx context.Context, id string) (*transaction.Transaction, error) {
	rec, err := s.table.Find(ctx, id)
	if err != nil {
		return nil, mapErr("getting transaction", err)
	}

	return fromRecord(rec), nil
}

func (s *Store) CreateTransactions(ctx context.Context, txs []*transaction.Transaction) error {
	recs := make([]rowcodec.Record, len(txs))
	for i, tx := range txs {
		recs[i] = toRecord(tx)
	}

	if err := s.table.Insert(ctx, recs...); err != nil {
		return fmt.Errorf("creating transactions: %w", err)
	}

	return nil
}

func (s *Store) UpdateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	if err := s.table.Replace(ctx, toRecord(tx)); err != nil {
		return mapErr("updating transaction", err)
	}

	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	if err := s.table.Remove(ctx, id); err != nil {
		return mapErr("deleting transaction", err)
	}

	return nil
}

func mapErr(op string, err error) error {
	if errors.Is(err, datastore.ErrRowNotFound) {
		return transaction.ErrNotFound
	}

	return fmt.Errorf("%s: %w", op, err)
}

func toRecord(tx *transaction.Transaction) rowcodec.Record {
	return rowcodec.Record{
		"id":                 tx.ID,
		"type":               string(tx.Type),
		"amount":             rowcodec.Decimal(tx.Amount),
		"date":               rowcodec.Date(tx.Date),
		"category":           tx.Category,
		"description":        tx.Description,
		"paymentMethod":      string(tx.PaymentMethod),
		"clientId":           tx.ClientID,
		"invoiceId":          tx.InvoiceID,
		"tags":               rowcodec.Strings(tx.Tags),
		"attachments":        rowcodec.Strings(tx.Attachments),
		"notes":              tx.Notes,
		"isRecurring":        rowcodec.Bool(tx.IsRecurring),
		"recurringFrequency": string(tx.RecurringFrequency),
		"createdAt":          rowcodec.Time(tx.CreatedAt),
		"updatedAt":          rowcodec.Time(tx.UpdatedAt),
		"createdBy":          tx.CreatedBy,
		"rawDescription":     tx.RawDescription,
	}
}

func fromRecord(r rowcodec.Record) *transaction.Transaction {
	typ := transaction.Type(r["type"])
	if typ == "" {
		typ = transaction.TypeExpense
	}

	method := transaction.PaymentMethod(r["paymentMethod"])
	if method == "" {
		method = transaction.PaymentCash
	}

	return &transaction.Transaction{
		ID:                 r["id"],
		Type:               typ,
		Amount:             rowcodec.ParseDecimal(r["amount"]),
		Date:               rowcodec.ParseDate(r["date"]),
		Category:           r["category"],
		Description:        r["description"],
		PaymentMethod:      method,
		ClientID:           r["clientId"],
		InvoiceID:          r["invoiceId"],
		Tags:               rowcodec.ParseStrings(r["tags"]),
		Attachments:        rowcodec.ParseStrings(r["attachments"]),
		Notes:              r["notes"],
		IsRecurring:        rowcodec.ParseBool(r["isRecurring"]),
		RecurringFrequency: transaction.Frequency(r["recurringFrequency"]),
		RawDescription:     r["rawDescription"],
		CreatedAt:          rowcodec.ParseTime(r["createdAt"]),
		UpdatedAt:          rowcodec.ParseTime(r["updatedAt"]),
		CreatedBy:          r["createdBy"],
	}
}
