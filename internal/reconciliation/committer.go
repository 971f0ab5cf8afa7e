package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/shiwake/reconciler/internal/domain"
	"github.com/shiwake/reconciler/internal/logger"
)

// LedgerTx is the set of writes a commit performs inside one store
// transaction.
type LedgerTx interface {
	// PaymentExists reports whether a payment was already recorded for the
	// statement line.
	PaymentExists(ctx context.Context, companyID, transactionHash string) (bool, error)
	// GetInvoice returns domain.ErrInvoiceNotFound when the invoice is gone.
	GetInvoice(ctx context.Context, id int64) (*domain.InvoiceRef, error)
	// CreatePayment returns domain.ErrDuplicatePayment when the dedup key
	// already exists.
	CreatePayment(ctx context.Context, rec *domain.PaymentRecord) (int64, error)
	UpdateInvoiceStatus(ctx context.Context, invoiceID int64, status domain.InvoiceStatus, paidAmount decimal.Decimal) error
}

// Ledger runs fn in a store transaction, committing when fn returns nil.
type Ledger interface {
	WithinTx(ctx context.Context, fn func(tx LedgerTx) error) error
}

// Invalidator drops cached invoice state for a company.
type Invalidator interface {
	Invalidate(companyID string)
}

// Committer turns match results into payment records.
type Committer struct {
	ledger      Ledger
	invalidator Invalidator
	now         func() time.Time
	log         zerolog.Logger
}

// NewCommitter creates a committer. invalidator may be nil.
func NewCommitter(ledger Ledger, invalidator Invalidator) *Committer {
	return &Committer{
		ledger:      ledger,
		invalidator: invalidator,
		now:         time.Now,
		log:         logger.WithComponent("committer"),
	}
}

type commitOutcome int

const (
	outcomeCreated commitOutcome = iota
	outcomeSkipped
)

// CreatePaymentRecords records a payment for every eligible result. Results
// are processed sequentially, each in its own store transaction, so one
// failure never undoes another record. Re-running the same results creates
// nothing new.
func (c *Committer) CreatePaymentRecords(ctx context.Context, results []domain.MatchResult, opts domain.CommitOptions) domain.CommitResult {
	out := domain.CommitResult{Errors: []string{}}

	for _, r := range results {
		if r.MatchedInvoice == nil {
			out.Skipped++
			continue
		}
		if opts.OnlyHighConfidence && r.Confidence != domain.ConfidenceHigh {
			out.Skipped++
			continue
		}

		outcome, err := c.commitOne(ctx, r, opts)
		if err != nil {
			msg := fmt.Sprintf("%s %s (%s): %v", r.Transaction.Date.Format("2006-01-02"), r.Transaction.Content, r.Transaction.AbsAmount(), err)
			out.Errors = append(out.Errors, msg)
			c.log.Warn().Err(err).Int64("invoice_id", r.MatchedInvoice.ID).Str("content", r.Transaction.Content).Msg("payment record failed")
			continue
		}
		if outcome == outcomeSkipped {
			out.Skipped++
			continue
		}
		out.Created++
	}

	if out.Created > 0 && c.invalidator != nil {
		c.invalidator.Invalidate(opts.CompanyID)
	}
	c.log.Info().
		Str("company_id", opts.CompanyID).
		Int("created", out.Created).
		Int("skipped", out.Skipped).
		Int("errors", len(out.Errors)).
		Msg("payment records processed")
	return out
}

func (c *Committer) commitOne(ctx context.Context, r domain.MatchResult, opts domain.CommitOptions) (commitOutcome, error) {
	outcome := outcomeCreated
	hash := r.Transaction.Hash()

	err := c.ledger.WithinTx(ctx, func(tx LedgerTx) error {
		exists, err := tx.PaymentExists(ctx, opts.CompanyID, hash)
		if err != nil {
			return fmt.Errorf("check existing payment: %w", err)
		}
		if exists {
			outcome = outcomeSkipped
			return nil
		}

		inv, err := tx.GetInvoice(ctx, r.MatchedInvoice.ID)
		if err != nil {
			if errors.Is(err, domain.ErrInvoiceNotFound) {
				return fmt.Errorf("invoice %d not found: %w", r.MatchedInvoice.ID, err)
			}
			return fmt.Errorf("load invoice %d: %w", r.MatchedInvoice.ID, err)
		}
		if inv.IsSettled() {
			return fmt.Errorf("invoice %s is %s: %w", inv.InvoiceNumber, inv.Status, domain.ErrInvoiceSettled)
		}

		amount := r.Transaction.AbsAmount()
		rec := &domain.PaymentRecord{
			InvoiceID:       inv.ID,
			CompanyID:       inv.CompanyID,
			Amount:          amount,
			PaymentDate:     r.Transaction.Date,
			TransactionHash: hash,
			ImportID:        opts.ImportID,
			Confidence:      r.Confidence,
			MatchReason:     r.MatchReason,
			Status:          domain.PaymentPending,
			CreatedAt:       c.now(),
		}
		if opts.AutoConfirm {
			rec.Status = domain.PaymentConfirmed
		}
		if _, err := tx.CreatePayment(ctx, rec); err != nil {
			if errors.Is(err, domain.ErrDuplicatePayment) {
				outcome = outcomeSkipped
				return nil
			}
			return fmt.Errorf("create payment: %w", err)
		}

		if !opts.AutoConfirm {
			return nil
		}
		paid := inv.PaidAmount.Add(amount)
		status := domain.InvoicePartiallyPaid
		if paid.GreaterThanOrEqual(inv.TotalAmount) {
			status = domain.InvoicePaid
		}
		if err := tx.UpdateInvoiceStatus(ctx, inv.ID, status, paid); err != nil {
			return fmt.Errorf("update invoice %d: %w", inv.ID, err)
		}
		return nil
	})
	return outcome, err
}
