package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/shiwake/reconciler/internal/cache"
	"github.com/shiwake/reconciler/internal/config"
	"github.com/shiwake/reconciler/internal/ingestion"
	"github.com/shiwake/reconciler/internal/logger"
	"github.com/shiwake/reconciler/internal/reconciliation"
	"github.com/shiwake/reconciler/internal/repository"
)

// App holds the wired services shared by the serve and import commands.
type App struct {
	cfg *config.Config
	db  *sql.DB
	log zerolog.Logger

	Invoices *repository.InvoiceRepo
	Payments *repository.PaymentRepo
	Imports  *repository.ImportRepo
	Importer *ingestion.Service
}

// NewApp opens the database and wires repositories, the invoice cache, the
// matcher and the import pipeline.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.WithComponent("app")

	policy := reconciliation.DefaultPolicy()
	if cfg.MatchPolicyPath != "" {
		p, err := reconciliation.LoadPolicy(cfg.MatchPolicyPath)
		if err != nil {
			return nil, fmt.Errorf("load match policy: %w", err)
		}
		policy = p
		log.Info().Str("path", cfg.MatchPolicyPath).Msg("match policy loaded")
	}

	log.Info().Str("path", cfg.DBPath).Msg("initializing database")
	db, err := repository.InitDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("init db: %w", err)
	}

	a := &App{
		cfg:      cfg,
		db:       db,
		log:      log,
		Invoices: repository.NewInvoiceRepo(db),
		Payments: repository.NewPaymentRepo(db),
		Imports:  repository.NewImportRepo(db),
	}

	invoiceCache := cache.NewInvoiceCache(a.Invoices, cfg.InvoiceCacheSize, cfg.InvoiceCacheTTL)
	matcher := reconciliation.NewMatcher(invoiceCache, policy)
	committer := reconciliation.NewCommitter(a.Payments, invoiceCache)
	a.Importer = ingestion.NewService(a.Imports, matcher, committer, cfg.MaxImportTransactions)

	if err := a.seed(ctx); err != nil {
		log.Warn().Err(err).Msg("invoice seeding failed")
	}
	return a, nil
}

func (a *App) seed(ctx context.Context) error {
	count, err := a.Invoices.Count(ctx)
	if err != nil {
		return fmt.Errorf("count invoices: %w", err)
	}
	if count > 0 {
		a.log.Debug().Int("invoices", count).Msg("database already has invoices, skipping seed")
		return nil
	}

	path, data, err := findSeedFile(a.cfg.SeedPath)
	if err != nil {
		return err
	}
	if data == nil {
		return nil
	}
	invoices, err := decodeSeedInvoices(data, a.cfg.DefaultCompanyID)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	inserted, err := a.Invoices.BulkInsert(ctx, invoices)
	if err != nil {
		return fmt.Errorf("bulk insert: %w", err)
	}
	a.log.Info().
		Str("path", path).
		Int("inserted", inserted).
		Int("total", len(invoices)).
		Msg("seeded invoices")
	return nil
}

func (a *App) Close() error {
	return a.db.Close()
}
