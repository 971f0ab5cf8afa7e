package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shiwake/reconciler/internal/domain"
)

const invoiceColumns = `id, invoice_number, company_id, customer_name, customer_name_kana,
	total_amount, paid_amount, issue_date, due_date, status`

type InvoiceRepo struct {
	db *sql.DB
}

func NewInvoiceRepo(db *sql.DB) *InvoiceRepo {
	return &InvoiceRepo{db: db}
}

func (r *InvoiceRepo) Insert(ctx context.Context, inv *domain.InvoiceRef) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO invoices
		(invoice_number, company_id, customer_name, customer_name_kana,
		 total_amount, paid_amount, issue_date, due_date, status, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		invoiceArgs(inv)...,
	)
	if err != nil {
		return 0, fmt.Errorf("insert invoice: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert invoice: %w", err)
	}
	inv.ID = id
	return id, nil
}

// BulkInsert loads invoices, ignoring numbers the company already has.
func (r *InvoiceRepo) BulkInsert(ctx context.Context, invoices []domain.InvoiceRef) (int, error) {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback()

	stmt, err := sqlTx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO invoices
		(invoice_number, company_id, customer_name, customer_name_kana,
		 total_amount, paid_amount, issue_date, due_date, status, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i := range invoices {
		res, err := stmt.ExecContext(ctx, invoiceArgs(&invoices[i])...)
		if err != nil {
			return inserted, fmt.Errorf("insert row %d: %w", i, err)
		}
		ra, _ := res.RowsAffected()
		inserted += int(ra)
	}

	if err := sqlTx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

func (r *InvoiceRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM invoices").Scan(&count)
	return count, err
}

// GetByID returns domain.ErrInvoiceNotFound when no row exists.
func (r *InvoiceRepo) GetByID(ctx context.Context, id int64) (*domain.InvoiceRef, error) {
	return getInvoice(ctx, r.db, id)
}

// FindOutstandingInvoices returns the company's unpaid and partially paid
// invoices in ID order.
func (r *InvoiceRepo) FindOutstandingInvoices(ctx context.Context, companyID string) ([]domain.InvoiceRef, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+invoiceColumns+` FROM invoices
		WHERE company_id = ? AND status IN ('unpaid','partially_paid') AND paid_amount < total_amount
		ORDER BY id`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("query outstanding: %w", err)
	}
	defer rows.Close()
	return scanInvoices(rows)
}

type InvoiceFilter struct {
	CompanyID   string
	Status      string
	Outstanding bool
	Page        int
	Limit       int
}

func (r *InvoiceRepo) List(ctx context.Context, f InvoiceFilter) ([]domain.InvoiceRef, int, error) {
	where, args := buildInvoiceWhere(f)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM invoices"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	limit, offset := page(f.Page, f.Limit)
	args = append(args, limit, offset)
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+invoiceColumns+" FROM invoices"+where+" ORDER BY due_date, id LIMIT ? OFFSET ?",
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	invoices, err := scanInvoices(rows)
	return invoices, total, err
}

// ReceivablesSummary aggregates a company's open receivables.
type ReceivablesSummary struct {
	InvoiceCount       int             `json:"invoice_count"`
	UnpaidCount        int             `json:"unpaid_count"`
	PartiallyPaidCount int             `json:"partially_paid_count"`
	OutstandingAmount  decimal.Decimal `json:"outstanding_amount"`
}

func (r *InvoiceRepo) GetReceivablesSummary(ctx context.Context, companyID string) (*ReceivablesSummary, error) {
	s := &ReceivablesSummary{}
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status='unpaid' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status='partially_paid' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(total_amount - paid_amount), 0)
		FROM invoices
		WHERE company_id = ? AND status IN ('unpaid','partially_paid')
	`, companyID).Scan(&s.InvoiceCount, &s.UnpaidCount, &s.PartiallyPaidCount, &s.OutstandingAmount)
	if err != nil {
		return nil, fmt.Errorf("receivables summary: %w", err)
	}
	return s, nil
}

// --- helpers ---

func invoiceArgs(inv *domain.InvoiceRef) []any {
	status := inv.Status
	if status == "" {
		status = domain.InvoiceUnpaid
	}
	return []any{
		inv.InvoiceNumber, inv.CompanyID, inv.CustomerName, inv.CustomerNameKana,
		inv.TotalAmount.String(), inv.PaidAmount.String(),
		formatDate(inv.IssueDate), formatDate(inv.DueDate), string(status),
		time.Now().UTC().Format(time.RFC3339),
	}
}

func buildInvoiceWhere(f InvoiceFilter) (string, []any) {
	var clauses []string
	var args []any

	if f.CompanyID != "" {
		clauses = append(clauses, "company_id = ?")
		args = append(args, f.CompanyID)
	}
	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, f.Status)
	}
	if f.Outstanding {
		clauses = append(clauses, "status IN ('unpaid','partially_paid') AND paid_amount < total_amount")
	}
	return whereClause(clauses), args
}

func getInvoice(ctx context.Context, q querier, id int64) (*domain.InvoiceRef, error) {
	row := q.QueryRowContext(ctx, "SELECT "+invoiceColumns+" FROM invoices WHERE id = ?", id)
	inv, err := scanInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrInvoiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get invoice %d: %w", id, err)
	}
	return inv, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (*domain.InvoiceRef, error) {
	var inv domain.InvoiceRef
	var issueDate, dueDate, status string
	err := row.Scan(
		&inv.ID, &inv.InvoiceNumber, &inv.CompanyID, &inv.CustomerName, &inv.CustomerNameKana,
		&inv.TotalAmount, &inv.PaidAmount, &issueDate, &dueDate, &status,
	)
	if err != nil {
		return nil, err
	}
	inv.IssueDate = parseDate(issueDate)
	inv.DueDate = parseDate(dueDate)
	inv.Status = domain.InvoiceStatus(status)
	return &inv, nil
}

func scanInvoices(rows *sql.Rows) ([]domain.InvoiceRef, error) {
	var invoices []domain.InvoiceRef
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		invoices = append(invoices, *inv)
	}
	return invoices, rows.Err()
}
