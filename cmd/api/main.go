package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/ledgerly/internal/app"
	"github.com/MrJamesThe3rd/ledgerly/internal/auth"
	"github.com/MrJamesThe3rd/ledgerly/internal/clock"
	"github.com/MrJamesThe3rd/ledgerly/internal/config"
	ledgerlyHttp "github.com/MrJamesThe3rd/ledgerly/internal/http"
	analyticsHandler "github.com/MrJamesThe3rd/ledgerly/internal/http/analytics"
	attachmentHandler "github.com/MrJamesThe3rd/ledgerly/internal/http/attachment"
	categorizeHandler "github.com/MrJamesThe3rd/ledgerly/internal/http/categorize"
	clientHandler "github.com/MrJamesThe3rd/ledgerly/internal/http/client"
	exportHandler "github.com/MrJamesThe3rd/ledgerly/internal/http/export"
	importHandler "github.com/MrJamesThe3rd/ledgerly/internal/http/importcsv"
	invoiceHandler "github.com/MrJamesThe3rd/ledgerly/internal/http/invoice"
	txHandler "github.com/MrJamesThe3rd/ledgerly/internal/http/transaction"
	"github.com/MrJamesThe3rd/ledgerly/internal/identity"
	"github.com/MrJamesThe3rd/ledgerly/internal/logging"
	"github.com/MrJamesThe3rd/ledgerly/internal/metrics"
)

func main() {
	tokenFor := flag.String("token", "", "print a bearer token for this email and exit")
	tokenTTL := flag.Duration("token-ttl", 30*24*time.Hour, "lifetime of the token printed by -token")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, zl, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		slog.Error("failed to build logger", "error", err)
		os.Exit(1)
	}
	defer func() { _ = zl.Sync() }()

	slog.SetDefault(logger)
	zap.ReplaceGlobals(zl)

	if cfg.Auth.Secret == "" {
		slog.Error("AUTH_JWT_SECRET is required")
		os.Exit(1)
	}

	verifier := auth.NewVerifier(cfg.Auth.Secret, cfg.Auth.Issuer)

	if *tokenFor != "" {
		token, err := verifier.Issue(identity.Identity{Email: *tokenFor}, *tokenTTL, time.Now())
		if err != nil {
			slog.Error("failed to issue token", "error", err)
			os.Exit(1)
		}

		fmt.Println(token)

		return
	}

	if err := run(cfg, verifier); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, verifier *auth.Verifier) error {
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	clk := clock.Real{}

	a, err := app.New(ctx, cfg, clk, m)
	if err != nil {
		return err
	}
	defer a.Close()

	router := ledgerlyHttp.New(ledgerlyHttp.Handlers{
		Transactions: txHandler.NewHandler(a.Transactions, clk),
		Clients:      clientHandler.NewHandler(a.Clients),
		Invoices:     invoiceHandler.NewHandler(a.Invoices, a.Export, clk),
		Analytics:    analyticsHandler.NewHandler(a.Analytics),
		Export:       exportHandler.NewHandler(a.Export, clk),
		Import:       importHandler.NewHandler(a.Import, a.Transactions),
		Categories:   categorizeHandler.NewHandler(a.Categories),
		Attachments:  attachmentHandler.NewHandler(a.Attachments),
	}, ledgerlyHttp.Options{
		Verifier:       verifier,
		Metrics:        m,
		AllowedOrigins: cfg.Auth.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	errCh := make(chan error, 1)

	go func() {
		slog.Info("starting server", "port", srv.Addr, "datastore", cfg.Datastore.Driver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
