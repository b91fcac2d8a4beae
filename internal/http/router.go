package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/ledgerly/internal/auth"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/analytics"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/attachment"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/categorize"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/client"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/export"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/importcsv"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/invoice"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/respond"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/transaction"
	"github.com/MrJamesThe3rd/ledgerly/internal/metrics"
)

type Handlers struct {
	Transactions *transaction.Handler
	Clients      *client.Handler
	Invoices     *invoice.Handler
	Analytics    *analytics.Handler
	Export       *export.Handler
	Import       *importcsv.Handler
	Categories   *categorize.Handler
	Attachments  *attachment.Handler
}

type Options struct {
	Verifier       *auth.Verifier
	Metrics        *metrics.Metrics
	AllowedOrigins []string
}

func New(v1 Handlers, opts Options) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	if opts.Metrics != nil {
		router.Use(opts.Metrics.Middleware)
	}

	if len(opts.AllowedOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respond.OK(w, map[string]string{"status": "ok"})
	})

	if opts.Metrics != nil {
		router.Handle("/metrics", opts.Metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Middleware(opts.Verifier))

		r.Route("/transactions", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			v1.Transactions.Routes(r)
		})

		r.Route("/clients", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			v1.Clients.Routes(r)
		})

		r.Route("/invoices", v1.Invoices.Routes)
		r.Route("/analytics", v1.Analytics.Routes)
		r.Route("/export", v1.Export.Routes)
		r.Route("/import", v1.Import.Routes)
		r.Route("/categories", v1.Categories.Routes)
		r.Route("/attachments", v1.Attachments.Routes)
	})

	return router
}
