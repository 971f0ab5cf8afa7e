package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/shiwake/reconciler/internal/domain"
)

// memLedger is an in-memory Ledger. Writes made inside WithinTx are applied
// only when fn returns nil.
type memLedger struct {
	invoices map[int64]domain.InvoiceRef
	payments []domain.PaymentRecord
	failGet  error
}

func newMemLedger(invoices ...domain.InvoiceRef) *memLedger {
	l := &memLedger{invoices: map[int64]domain.InvoiceRef{}}
	for _, inv := range invoices {
		l.invoices[inv.ID] = inv
	}
	return l
}

func (l *memLedger) FindOutstandingInvoices(_ context.Context, companyID string) ([]domain.InvoiceRef, error) {
	var out []domain.InvoiceRef
	for _, inv := range l.invoices {
		if inv.CompanyID == companyID && !inv.IsSettled() {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (l *memLedger) WithinTx(_ context.Context, fn func(tx LedgerTx) error) error {
	tx := &memTx{
		ledger:   l,
		invoices: map[int64]domain.InvoiceRef{},
	}
	for id, inv := range l.invoices {
		tx.invoices[id] = inv
	}
	tx.payments = append(tx.payments, l.payments...)
	if err := fn(tx); err != nil {
		return err
	}
	l.invoices = tx.invoices
	l.payments = tx.payments
	return nil
}

type memTx struct {
	ledger   *memLedger
	invoices map[int64]domain.InvoiceRef
	payments []domain.PaymentRecord
}

func (t *memTx) PaymentExists(_ context.Context, companyID, hash string) (bool, error) {
	for _, p := range t.payments {
		if p.CompanyID == companyID && p.TransactionHash == hash {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) GetInvoice(_ context.Context, id int64) (*domain.InvoiceRef, error) {
	if t.ledger.failGet != nil {
		return nil, t.ledger.failGet
	}
	inv, ok := t.invoices[id]
	if !ok {
		return nil, domain.ErrInvoiceNotFound
	}
	return &inv, nil
}

func (t *memTx) CreatePayment(_ context.Context, rec *domain.PaymentRecord) (int64, error) {
	for _, p := range t.payments {
		if p.InvoiceID == rec.InvoiceID && p.PaymentDate.Equal(rec.PaymentDate) &&
			p.Amount.Equal(rec.Amount) && p.TransactionHash == rec.TransactionHash {
			return 0, domain.ErrDuplicatePayment
		}
	}
	rec.ID = int64(len(t.payments) + 1)
	rec.PaymentNumber = fmt.Sprintf("PR-%s-%03d", rec.PaymentDate.Format("20060102"), rec.ID)
	t.payments = append(t.payments, *rec)
	return rec.ID, nil
}

func (t *memTx) UpdateInvoiceStatus(_ context.Context, id int64, status domain.InvoiceStatus, paid decimal.Decimal) error {
	inv, ok := t.invoices[id]
	if !ok {
		return domain.ErrInvoiceNotFound
	}
	inv.Status = status
	inv.PaidAmount = paid
	t.invoices[id] = inv
	return nil
}

type failingStore struct{}

func (failingStore) FindOutstandingInvoices(context.Context, string) ([]domain.InvoiceRef, error) {
	return nil, errors.New("database is locked")
}

type recordingInvalidator struct {
	companies []string
}

func (r *recordingInvalidator) Invalidate(companyID string) {
	r.companies = append(r.companies, companyID)
}
