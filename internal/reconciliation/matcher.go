package reconciliation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/texttheater/golang-levenshtein/levenshtein"

	"github.com/shiwake/reconciler/internal/domain"
	"github.com/shiwake/reconciler/internal/logger"
	"github.com/shiwake/reconciler/internal/money"
)

// InvoiceStore returns the company's invoices that can still receive
// payments.
type InvoiceStore interface {
	FindOutstandingInvoices(ctx context.Context, companyID string) ([]domain.InvoiceRef, error)
}

// Matcher pairs deposits with outstanding invoices.
type Matcher struct {
	invoices InvoiceStore
	policy   Policy
	log      zerolog.Logger
}

// NewMatcher creates a matcher reading candidates from invoices.
func NewMatcher(invoices InvoiceStore, policy Policy) *Matcher {
	return &Matcher{
		invoices: invoices,
		policy:   policy,
		log:      logger.WithComponent("matcher"),
	}
}

type amountSignal int

const (
	amountNone amountSignal = iota
	amountNear
	amountExact
)

type nameSignal int

const (
	nameNone nameSignal = iota
	namePartial
	nameStrong
)

// candidate is the evaluation of one invoice against one deposit.
type candidate struct {
	invoice    domain.InvoiceRef
	amount     amountSignal
	name       nameSignal
	confidence domain.Confidence
	days       int
}

// AutoMatchTransactions returns one result per deposit, in input order.
// Invoice lookup failures degrade the affected deposit to "none".
func (m *Matcher) AutoMatchTransactions(ctx context.Context, companyID string, deposits []domain.BankTransaction) []domain.MatchResult {
	results := make([]domain.MatchResult, 0, len(deposits))
	for _, txn := range deposits {
		results = append(results, m.matchOne(ctx, companyID, txn))
	}
	return results
}

func (m *Matcher) matchOne(ctx context.Context, companyID string, txn domain.BankTransaction) domain.MatchResult {
	res := domain.MatchResult{Transaction: txn, Confidence: domain.ConfidenceNone}
	if !txn.IsDeposit() {
		res.MatchReason = "not a deposit"
		return res
	}

	invoices, err := m.invoices.FindOutstandingInvoices(ctx, companyID)
	if err != nil {
		m.log.Warn().Err(err).Str("company_id", companyID).Str("content", txn.Content).Msg("invoice lookup failed")
		res.MatchReason = fmt.Sprintf("invoice lookup failed: %v", err)
		return res
	}

	// Without an extracted payer the statement text is compared instead, but
	// it can only ever count as a partial name match.
	payer, nameCap := NormalizeName(txn.CustomerName), nameStrong
	if payer == "" {
		payer, nameCap = NormalizeName(txn.Content), namePartial
	}

	var best *candidate
	for _, inv := range invoices {
		if inv.IsSettled() {
			continue
		}
		c := m.evaluate(txn, payer, nameCap, inv)
		if c.confidence == domain.ConfidenceNone {
			continue
		}
		if best == nil || c.beats(best) {
			cc := c
			best = &cc
		}
	}

	if best == nil {
		res.MatchReason = "no matching invoice"
		return res
	}

	inv := best.invoice
	res.MatchedInvoice = &inv
	res.Confidence = best.confidence
	res.MatchReason = m.reason(txn, best)

	m.log.Debug().
		Str("content", txn.Content).
		Str("invoice", inv.InvoiceNumber).
		Str("confidence", string(best.confidence)).
		Str("reason", res.MatchReason).
		Msg("deposit matched")
	return res
}

func (m *Matcher) evaluate(txn domain.BankTransaction, payer string, nameCap nameSignal, inv domain.InvoiceRef) candidate {
	c := candidate{
		invoice: inv,
		amount:  m.compareAmount(txn.AbsAmount(), inv.OutstandingAmount()),
		name:    min(m.compareNames(payer, inv), nameCap),
		days:    daysBetween(txn.Date, inv.ReferenceDate()),
	}
	c.confidence = classify(c.amount, c.name)
	return c
}

// classify maps the signals onto a tier. Adding a signal never lowers it.
func classify(amount amountSignal, name nameSignal) domain.Confidence {
	switch {
	case amount == amountExact && name == nameStrong:
		return domain.ConfidenceHigh
	case amount == amountExact || name == nameStrong:
		return domain.ConfidenceMedium
	case amount == amountNear || name == namePartial:
		return domain.ConfidenceLow
	default:
		return domain.ConfidenceNone
	}
}

// beats orders candidates: higher tier, then closer reference date, then
// lower invoice ID.
func (c candidate) beats(other *candidate) bool {
	if r, o := c.confidence.Rank(), other.confidence.Rank(); r != o {
		return r > o
	}
	if c.days != other.days {
		return c.days < other.days
	}
	return c.invoice.ID < other.invoice.ID
}

func (m *Matcher) compareAmount(amount, outstanding decimal.Decimal) amountSignal {
	if !outstanding.IsPositive() {
		return amountNone
	}
	if amount.Equal(outstanding) {
		return amountExact
	}
	shortfall := outstanding.Sub(amount)
	if shortfall.IsPositive() && shortfall.LessThanOrEqual(m.policy.feeTolerance()) {
		return amountNear
	}
	if money.RelativeDiff(amount, outstanding, outstanding).LessThanOrEqual(decimal.NewFromFloat(m.policy.AmountTolerance)) {
		return amountNear
	}
	return amountNone
}

func (m *Matcher) compareNames(payer string, inv domain.InvoiceRef) nameSignal {
	best := nameNone
	for _, name := range []string{inv.CustomerName, inv.CustomerNameKana} {
		if s := m.nameSignal(payer, NormalizeName(name)); s > best {
			best = s
		}
	}
	return best
}

func (m *Matcher) nameSignal(a, b string) nameSignal {
	if a == "" || b == "" {
		return nameNone
	}
	if a == b {
		return nameStrong
	}
	ra, rb := []rune(a), []rune(b)
	shorter, longer := min(len(ra), len(rb)), max(len(ra), len(rb))
	ratio := nameRatio(ra, rb)
	switch {
	case ratio >= m.policy.StrongNameRatio:
		return nameStrong
	case shorter >= m.policy.MinContainRunes && (strings.Contains(a, b) || strings.Contains(b, a)):
		if float64(shorter) >= m.policy.ContainCoverage*float64(longer) {
			return nameStrong
		}
		return namePartial
	case ratio >= m.policy.PartialNameRatio:
		return namePartial
	}
	return nameNone
}

// nameRatio is the Levenshtein similarity in [0, 1]. With the default
// options a substitution costs 2, so the ratio is (len(a)+len(b)-d)/(len(a)+len(b)).
func nameRatio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 1
	}
	d := levenshtein.DistanceForStrings(a, b, levenshtein.DefaultOptions)
	return float64(total-d) / float64(total)
}

func (m *Matcher) reason(txn domain.BankTransaction, c *candidate) string {
	var parts []string
	switch c.amount {
	case amountExact:
		parts = append(parts, "amount exact match")
	case amountNear:
		diff := c.invoice.OutstandingAmount().Sub(txn.AbsAmount())
		direction := "short"
		if diff.IsNegative() {
			direction = "over"
		}
		parts = append(parts, fmt.Sprintf("amount within tolerance (%s %s)", direction, money.FormatYen(diff.Abs())))
	}
	switch c.name {
	case nameStrong:
		parts = append(parts, "customer name matched")
	case namePartial:
		parts = append(parts, "customer name partially matched")
	}
	if c.days <= m.policy.DateWindowDays {
		label := "due date"
		if c.invoice.DueDate.IsZero() {
			label = "issue date"
		}
		parts = append(parts, fmt.Sprintf("%s within %d days", label, c.days))
	}
	return strings.Join(parts, ", ")
}

// daysBetween counts whole calendar days between two dates, ignoring the
// time of day.
func daysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	d := int(da.Sub(db).Hours() / 24)
	if d < 0 {
		d = -d
	}
	return d
}
