package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/shiwake/reconciler/internal/ingestion"
	"github.com/shiwake/reconciler/internal/repository"
)

// NewRouter creates the Chi router with all API routes mounted.
func NewRouter(
	invoiceRepo *repository.InvoiceRepo,
	paymentRepo *repository.PaymentRepo,
	importRepo *repository.ImportRepo,
	importSvc *ingestion.Service,
	defaultCompanyID string,
) http.Handler {
	h := &Handlers{
		invoiceRepo:      invoiceRepo,
		paymentRepo:      paymentRepo,
		importRepo:       importRepo,
		importSvc:        importSvc,
		defaultCompanyID: defaultCompanyID,
	}

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.RequestID)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("Content-Type", "application/json"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/banks", h.ListBanks)

		// Statement import.
		r.Post("/bank-import", h.ImportStatement)
		r.Get("/bank-import/history", h.ListImportHistory)
		r.Get("/bank-transactions", h.ListBankTransactions)

		// Receivables.
		r.Get("/invoices/outstanding", h.ListOutstandingInvoices)
		r.Get("/payments", h.ListPayments)
	})

	return r
}
