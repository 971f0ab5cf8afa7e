package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shiwake/reconciler/internal/domain"
	"github.com/shiwake/reconciler/internal/reconciliation"
)

const paymentColumns = `id, payment_number, invoice_id, company_id, amount, payment_date,
	transaction_hash, import_id, confidence, match_reason, status, created_at`

type PaymentRepo struct {
	db *sql.DB
}

func NewPaymentRepo(db *sql.DB) *PaymentRepo {
	return &PaymentRepo{db: db}
}

// WithinTx runs fn in a database transaction and commits when it returns nil.
func (r *PaymentRepo) WithinTx(ctx context.Context, fn func(tx reconciliation.LedgerTx) error) error {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&ledgerTx{q: sqlTx}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type PaymentFilter struct {
	CompanyID string
	InvoiceID int64
	ImportID  string
	Status    string
	From      *time.Time
	To        *time.Time
	Page      int
	Limit     int
}

func (r *PaymentRepo) List(ctx context.Context, f PaymentFilter) ([]domain.PaymentRecord, int, error) {
	where, args := buildPaymentWhere(f)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM payment_records"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	limit, offset := page(f.Page, f.Limit)
	args = append(args, limit, offset)
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+paymentColumns+" FROM payment_records"+where+" ORDER BY payment_date DESC, id DESC LIMIT ? OFFSET ?",
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var payments []domain.PaymentRecord
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan: %w", err)
		}
		payments = append(payments, *p)
	}
	return payments, total, rows.Err()
}

// ledgerTx implements reconciliation.LedgerTx on a database transaction.
type ledgerTx struct {
	q querier
}

func (t *ledgerTx) PaymentExists(ctx context.Context, companyID, transactionHash string) (bool, error) {
	var n int
	err := t.q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM payment_records WHERE company_id = ? AND transaction_hash = ?",
		companyID, transactionHash,
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (t *ledgerTx) GetInvoice(ctx context.Context, id int64) (*domain.InvoiceRef, error) {
	return getInvoice(ctx, t.q, id)
}

// CreatePayment inserts the record, numbering it PR-YYYYMMDD-NNN by creation
// day. A dedup key conflict yields domain.ErrDuplicatePayment.
func (t *ledgerTx) CreatePayment(ctx context.Context, rec *domain.PaymentRecord) (int64, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if rec.PaymentNumber == "" {
		num, err := t.nextPaymentNumber(ctx, rec.CreatedAt)
		if err != nil {
			return 0, err
		}
		rec.PaymentNumber = num
	}

	res, err := t.q.ExecContext(ctx,
		`INSERT INTO payment_records
		(payment_number, invoice_id, company_id, amount, payment_date,
		 transaction_hash, import_id, confidence, match_reason, status, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT (invoice_id, payment_date, amount, transaction_hash) DO NOTHING`,
		rec.PaymentNumber, rec.InvoiceID, rec.CompanyID, rec.Amount.String(),
		formatDate(rec.PaymentDate), rec.TransactionHash, rec.ImportID,
		string(rec.Confidence), rec.MatchReason, string(rec.Status),
		rec.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("insert payment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, domain.ErrDuplicatePayment
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert payment: %w", err)
	}
	rec.ID = id
	return id, nil
}

func (t *ledgerTx) nextPaymentNumber(ctx context.Context, day time.Time) (string, error) {
	prefix := "PR-" + day.Format("20060102") + "-"
	var n int
	err := t.q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM payment_records WHERE payment_number LIKE ?",
		prefix+"%",
	).Scan(&n)
	if err != nil {
		return "", fmt.Errorf("next payment number: %w", err)
	}
	return fmt.Sprintf("%s%03d", prefix, n+1), nil
}

func (t *ledgerTx) UpdateInvoiceStatus(ctx context.Context, invoiceID int64, status domain.InvoiceStatus, paidAmount decimal.Decimal) error {
	res, err := t.q.ExecContext(ctx,
		"UPDATE invoices SET status = ?, paid_amount = ?, updated_at = ? WHERE id = ?",
		string(status), paidAmount.String(), time.Now().UTC().Format(time.RFC3339), invoiceID,
	)
	if err != nil {
		return fmt.Errorf("update invoice status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrInvoiceNotFound
	}
	return nil
}

// --- helpers ---

func buildPaymentWhere(f PaymentFilter) (string, []any) {
	var clauses []string
	var args []any

	if f.CompanyID != "" {
		clauses = append(clauses, "company_id = ?")
		args = append(args, f.CompanyID)
	}
	if f.InvoiceID != 0 {
		clauses = append(clauses, "invoice_id = ?")
		args = append(args, f.InvoiceID)
	}
	if f.ImportID != "" {
		clauses = append(clauses, "import_id = ?")
		args = append(args, f.ImportID)
	}
	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, f.Status)
	}
	if f.From != nil {
		clauses = append(clauses, "payment_date >= ?")
		args = append(args, formatDate(*f.From))
	}
	if f.To != nil {
		clauses = append(clauses, "payment_date <= ?")
		args = append(args, formatDate(*f.To))
	}
	return whereClause(clauses), args
}

func scanPayment(row rowScanner) (*domain.PaymentRecord, error) {
	var p domain.PaymentRecord
	var paymentDate, confidence, status, createdAt string
	err := row.Scan(
		&p.ID, &p.PaymentNumber, &p.InvoiceID, &p.CompanyID, &p.Amount, &paymentDate,
		&p.TransactionHash, &p.ImportID, &confidence, &p.MatchReason, &status, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	p.PaymentDate = parseDate(paymentDate)
	p.Confidence = domain.Confidence(confidence)
	p.Status = domain.PaymentStatus(status)
	p.CreatedAt = parseTimestamp(createdAt)
	return &p, nil
}
