package analytics

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/MrJamesThe3rd/ledgerly/internal/client"
	"github.com/MrJamesThe3rd/ledgerly/internal/clock"
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
}

type Service struct {
	txs      TransactionSource
	clients  ClientSource
	invoices InvoiceSource
	clock    clock.Clock
}

func NewService(txs TransactionSource, clients ClientSource, invoices InvoiceSource, clk clock.Clock) *Service {
	return &Service{txs: txs, clients: clients, invoices: invoices, clock: clk}
}

// Dashboard reads the three collections concurrently and fails if any read
// fails.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	var (
		txs      []*transaction.Transaction
		clients  []*client.Client
		invoices []*invoice.Invoice
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if txs, err = s.txs.ListTransactions(ctx); err != nil {
			return fmt.Errorf("listing transactions: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		var err error
		if clients, err = s.clients.ListClients(ctx); err != nil {
			return fmt.Errorf("listing clients: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		var err error
		if invoices, err = s.invoices.ListInvoices(ctx); err != nil {
			return fmt.Errorf("listing invoices: %w", err)
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return Build(txs, clients, invoices, s.clock.Now()), nil
}
