// Package app assembles the services shared by the API server and the TUI
// from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrJamesThe3rd/ledgerly/internal/analytics"
	"github.com/MrJamesThe3rd/ledgerly/internal/attachment"
	"github.com/MrJamesThe3rd/ledgerly/internal/categorize"
	categorizeStore "github.com/MrJamesThe3rd/ledgerly/internal/categorize/store"
	"github.com/MrJamesThe3rd/ledgerly/internal/client"
	clientStore "github.com/MrJamesThe3rd/ledgerly/internal/client/store"
	"github.com/MrJamesThe3rd/ledgerly/internal/clock"
	"github.com/MrJamesThe3rd/ledgerly/internal/config"
	"github.com/MrJamesThe3rd/ledgerly/internal/database"
	"github.com/MrJamesThe3rd/ledgerly/internal/datastore"
	"github.com/MrJamesThe3rd/ledgerly/internal/datastore/aztable"
	"github.com/MrJamesThe3rd/ledgerly/internal/datastore/memory"
	"github.com/MrJamesThe3rd/ledgerly/internal/datastore/postgres"
	"github.com/MrJamesThe3rd/ledgerly/internal/datastore/sheets"
	"github.com/MrJamesThe3rd/ledgerly/internal/events"
	"github.com/MrJamesThe3rd/ledgerly/internal/export"
	"github.com/MrJamesThe3rd/ledgerly/internal/importer"
	"github.com/MrJamesThe3rd/ledgerly/internal/invoice"
	invoiceStore "github.com/MrJamesThe3rd/ledgerly/internal/invoice/store"
	"github.com/MrJamesThe3rd/ledgerly/internal/lock"
	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
	txStore "github.com/MrJamesThe3rd/ledgerly/internal/transaction/store"
)

const (
	invoiceLockTTL  = 10 * time.Second
	invoiceLockWait = 5 * time.Second
)

type App struct {
	Clock        clock.Clock
	Transactions *transaction.Service
	Clients      *client.Service
	Invoices     *invoice.Service
	Categories   *categorize.Service
	Analytics    *analytics.Service
	Export       *export.Service
	Import       *importer.Service
	Attachments  *attachment.Service

	closers []func() error
}

// New connects every backend named by cfg and prepares the tables. obs may be
// nil. The returned App must be closed.
func New(ctx context.Context, cfg *config.Config, clk clock.Clock, obs datastore.Observer) (*App, error) {
	a := &App{Clock: clk}

	gw, err := a.gateway(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	if obs != nil {
		gw = datastore.Instrument(gw, obs)
	}

	locker, err := a.locker(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	publisher, err := publisher(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	blobs, err := attachments(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	var (
		txRepo      = txStore.New(gw)
		clientRepo  = clientStore.New(gw)
		invoiceRepo = invoiceStore.New(gw)
	)

	a.Transactions = transaction.NewService(txRepo, clk)
	a.Clients = client.NewService(clientRepo, clk)
	a.Invoices = invoice.NewService(invoiceRepo, clk, invoice.WithLocker(locker), invoice.WithPublisher(publisher))
	a.Categories = categorize.NewService(categorizeStore.New(gw), clk)
	a.Analytics = analytics.NewService(txRepo, clientRepo, invoiceRepo, clk)
	a.Export = export.NewService(txRepo, clientRepo, invoiceRepo, export.Business{
		Name:    cfg.Business.Name,
		Email:   cfg.Business.Email,
		Phone:   cfg.Business.Phone,
		Address: cfg.Business.Address,
	})
	a.Import = importer.NewService(a.Categories, importer.WithClients(a.Clients))
	a.Attachments = attachment.NewService(blobs)

	inits := []func(context.Context) error{
		a.Transactions.Init,
		a.Clients.Init,
		a.Invoices.Init,
		a.Categories.Init,
	}

	for _, initFn := range inits {
		if err := initFn(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("initialising tables: %w", err)
		}
	}

	return a, nil
}

// Close releases database and cache connections.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("closing resource", "error", err)
		}
	}

	a.closers = nil
}

func (a *App) gateway(ctx context.Context, cfg *config.Config) (datastore.Gateway, error) {
	switch cfg.Datastore.Driver {
	case "", "memory":
		slog.Warn("using in-memory datastore, data is lost on exit")
		return memory.New(), nil
	case "sheets":
		gw, err := sheets.New(ctx, cfg.Sheets.SpreadsheetID, cfg.Sheets.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("connecting to spreadsheet: %w", err)
		}

		return gw, nil
	case "aztables":
		gw, err := aztable.New(cfg.Azure.TablesURL)
		if err != nil {
			return nil, fmt.Errorf("connecting to table storage: %w", err)
		}

		return gw, nil
	case "postgres":
		db, err := database.New(cfg.ConnectionString())
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}

		a.closers = append(a.closers, db.Close)

		return postgres.New(db), nil
	default:
		return nil, fmt.Errorf("unknown datastore driver %q", cfg.Datastore.Driver)
	}
}

func (a *App) locker(cfg *config.Config) (lock.Locker, error) {
	if cfg.Redis.URL == "" {
		return lock.NewLocal(), nil
	}

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	rdb := redis.NewClient(opts)
	a.closers = append(a.closers, rdb.Close)

	return lock.NewRedis(rdb, invoiceLockTTL, invoiceLockWait), nil
}

func publisher(ctx context.Context, cfg *config.Config) (events.Publisher, error) {
	if cfg.Azure.QueueURL == "" {
		return events.Noop{}, nil
	}

	q, err := events.NewQueue(ctx, cfg.Azure.QueueURL, cfg.Azure.EventsQueue)
	if err != nil {
		return nil, fmt.Errorf("connecting to events queue: %w", err)
	}

	return q, nil
}

func attachments(ctx context.Context, cfg *config.Config) (attachment.Store, error) {
	if cfg.Azure.BlobURL == "" {
		return attachment.NewMemory(), nil
	}

	b, err := attachment.NewBlob(ctx, cfg.Azure.BlobURL, cfg.Azure.AttachmentsContainer)
	if err != nil {
		return nil, fmt.Errorf("connecting to blob storage: %w", err)
	}

	return b, nil
}
