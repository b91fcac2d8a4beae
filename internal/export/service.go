package export

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/MrJamesThe3rd/ledgerly/internal/client"
	"github.com/MrJamesThe3rd/ledgerly/internal/daterange"
	"github.com/MrJamesThe3rd/ledgerly/internal/invoice"
	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

type TransactionSource interface {
	ListTransactions(ctx context.Context) ([]*transaction.Transaction, error)
}

type ClientSource interface {
	ListClients(ctx context.Context) ([]*client.Client, error)
}

type InvoiceSource interface {
	ListInvoices(ctx context.Context) ([]*invoice.Invoice, error)
	GetInvoice(ctx context.Context, id string) (*invoice.Invoice, error)
}

// Service produces the downloadable renditions of stored data.
type Service struct {
	txs      TransactionSource
	clients  ClientSource
	invoices InvoiceSource
	business Business
}

func NewService(txs TransactionSource, clients ClientSource, invoices InvoiceSource, biz Business) *Service {
	return &Service{txs: txs, clients: clients, invoices: invoices, business: biz}
}

// Transactions writes the CSV export of the transactions matching filter.
func (s *Service) Transactions(ctx context.Context, w io.Writer, filter transaction.Filter) error {
	txs, err := s.txs.ListTransactions(ctx)
	if err != nil {
		return fmt.Errorf("listing transactions: %w", err)
	}

	names, err := s.names(ctx)
	if err != nil {
		return err
	}

	return WriteTransactions(w, transaction.Apply(txs, filter), names)
}

// Invoices writes the CSV export of invoices, restricted to status when set.
func (s *Service) Invoices(ctx context.Context, w io.Writer, status invoice.Status) error {
	invs, err := s.invoices.ListInvoices(ctx)
	if err != nil {
		return fmt.Errorf("listing invoices: %w", err)
	}

	names, err := s.names(ctx)
	if err != nil {
		return err
	}

	f := invoice.Filter{Status: status}
	invs = slices.DeleteFunc(invs, func(inv *invoice.Invoice) bool { return !f.Match(inv) })

	return WriteInvoices(w, invs, names)
}

// InvoicePDF renders one invoice and returns the document with its filename.
func (s *Service) InvoicePDF(ctx context.Context, id string) ([]byte, string, error) {
	inv, err := s.invoices.GetInvoice(ctx, id)
	if err != nil {
		return nil, "", err
	}

	clients, err := s.clients.ListClients(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("listing clients: %w", err)
	}

	var billed *client.Client

	if i := slices.IndexFunc(clients, func(c *client.Client) bool { return c.ID == inv.ClientID }); i >= 0 {
		billed = clients[i]
	}

	doc, err := InvoicePDF(inv, billed, s.business)
	if err != nil {
		return nil, "", err
	}

	return doc, PDFFilename(inv), nil
}

// Bundle zips the transactions dated inside r and the invoices issued inside
// it. A zero range exports everything.
func (s *Service) Bundle(ctx context.Context, w io.Writer, r daterange.Range) error {
	txs, err := s.txs.ListTransactions(ctx)
	if err != nil {
		return fmt.Errorf("listing transactions: %w", err)
	}

	invs, err := s.invoices.ListInvoices(ctx)
	if err != nil {
		return fmt.Errorf("listing invoices: %w", err)
	}

	names, err := s.names(ctx)
	if err != nil {
		return err
	}

	b := Bundle{Range: r, ClientNames: names}

	for _, tx := range txs {
		if r.Contains(tx.Date) {
			b.Transactions = append(b.Transactions, tx)
		}
	}

	for _, inv := range invs {
		if r.Contains(inv.IssueDate) {
			b.Invoices = append(b.Invoices, inv)
		}
	}

	return WriteBundle(w, b)
}

func (s *Service) names(ctx context.Context) (map[string]string, error) {
	clients, err := s.clients.ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing clients: %w", err)
	}

	return client.Names(clients), nil
}
