package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shiwake/reconciler/internal/domain"
)

// hashLookupChunk keeps IN lists well under SQLite's variable limit.
const hashLookupChunk = 500

const importedColumns = `id, transaction_hash, import_id, company_id, transaction_date, content,
	amount, balance, type, customer_name, reference_number, memo,
	file_name, file_type, bank_type, imported_at`

const historyColumns = `import_id, company_id, file_name, file_size, file_type, bank_type,
	total_count, deposit_count, withdrawal_count, total_deposit_amount, total_withdrawal_amount,
	matched_count, high_confidence_count, auto_confirmed_count, duplicate_count,
	new_transaction_count, status, errors, created_at`

// ImportRepo stores imported statement lines and the import history.
type ImportRepo struct {
	db *sql.DB
}

func NewImportRepo(db *sql.DB) *ImportRepo {
	return &ImportRepo{db: db}
}

// FindByHashes returns the already imported lines among hashes, keyed by hash.
func (r *ImportRepo) FindByHashes(ctx context.Context, companyID string, hashes []string) (map[string]domain.ImportedTransaction, error) {
	found := make(map[string]domain.ImportedTransaction)
	for start := 0; start < len(hashes); start += hashLookupChunk {
		end := start + hashLookupChunk
		if end > len(hashes) {
			end = len(hashes)
		}
		chunk := hashes[start:end]

		args := make([]any, 0, len(chunk)+1)
		args = append(args, companyID)
		for _, h := range chunk {
			args = append(args, h)
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",")

		rows, err := r.db.QueryContext(ctx,
			"SELECT "+importedColumns+" FROM imported_bank_transactions WHERE company_id = ? AND transaction_hash IN ("+placeholders+")",
			args...,
		)
		if err != nil {
			return nil, fmt.Errorf("query hashes: %w", err)
		}
		for rows.Next() {
			t, err := scanImported(rows)
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan: %w", err)
			}
			found[t.TransactionHash] = *t
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
	}
	return found, nil
}

// InsertTransactions stores lines, ignoring hashes the company already has.
// It returns the number of rows actually inserted.
func (r *ImportRepo) InsertTransactions(ctx context.Context, txns []domain.ImportedTransaction) (int, error) {
	if len(txns) == 0 {
		return 0, nil
	}
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback()

	stmt, err := sqlTx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO imported_bank_transactions
		(transaction_hash, import_id, company_id, transaction_date, content,
		 amount, balance, type, customer_name, reference_number, memo,
		 file_name, file_type, bank_type, imported_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i := range txns {
		t := &txns[i]
		res, err := stmt.ExecContext(ctx,
			t.TransactionHash, t.ImportID, t.CompanyID, formatDate(t.Transaction.Date), t.Transaction.Content,
			t.Transaction.Amount.String(), t.Transaction.Balance.String(), string(t.Transaction.Type),
			t.Transaction.CustomerName, t.Transaction.ReferenceNumber, t.Transaction.Memo,
			t.FileName, t.FileType, t.BankType, t.ImportedAt.UTC().Format(time.RFC3339),
		)
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

type ImportedTransactionFilter struct {
	CompanyID string
	ImportID  string
	Type      string
	From      *time.Time
	To        *time.Time
	Page      int
	Limit     int
}

func (r *ImportRepo) ListTransactions(ctx context.Context, f ImportedTransactionFilter) ([]domain.ImportedTransaction, int, error) {
	where, args := buildImportedWhere(f)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM imported_bank_transactions"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	limit, offset := page(f.Page, f.Limit)
	args = append(args, limit, offset)
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+importedColumns+" FROM imported_bank_transactions"+where+" ORDER BY transaction_date DESC, id DESC LIMIT ? OFFSET ?",
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var txns []domain.ImportedTransaction
	for rows.Next() {
		t, err := scanImported(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan: %w", err)
		}
		txns = append(txns, *t)
	}
	return txns, total, rows.Err()
}

func (r *ImportRepo) InsertHistory(ctx context.Context, h *domain.ImportHistory) error {
	errs := h.Errors
	if errs == nil {
		errs = []string{}
	}
	errJSON, err := json.Marshal(errs)
	if err != nil {
		return fmt.Errorf("marshal errors: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO bank_import_history (`+historyColumns+`)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		h.ImportID, h.CompanyID, h.FileName, h.FileSize, h.FileType, h.BankType,
		h.TotalCount, h.DepositCount, h.WithdrawalCount,
		h.TotalDepositAmount.String(), h.TotalWithdrawalAmount.String(),
		h.MatchedCount, h.HighConfidenceCount, h.AutoConfirmedCount, h.DuplicateCount,
		h.NewTransactionCount, string(h.Status), string(errJSON),
		h.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert import history: %w", err)
	}
	return nil
}

type HistoryFilter struct {
	CompanyID string
	Page      int
	Limit     int
}

func (r *ImportRepo) ListHistory(ctx context.Context, f HistoryFilter) ([]domain.ImportHistory, int, error) {
	var clauses []string
	var args []any
	if f.CompanyID != "" {
		clauses = append(clauses, "company_id = ?")
		args = append(args, f.CompanyID)
	}
	where := whereClause(clauses)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bank_import_history"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	limit, offset := page(f.Page, f.Limit)
	args = append(args, limit, offset)
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+historyColumns+" FROM bank_import_history"+where+" ORDER BY created_at DESC LIMIT ? OFFSET ?",
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var history []domain.ImportHistory
	for rows.Next() {
		var h domain.ImportHistory
		var status, errJSON, createdAt string
		err := rows.Scan(
			&h.ImportID, &h.CompanyID, &h.FileName, &h.FileSize, &h.FileType, &h.BankType,
			&h.TotalCount, &h.DepositCount, &h.WithdrawalCount, &h.TotalDepositAmount, &h.TotalWithdrawalAmount,
			&h.MatchedCount, &h.HighConfidenceCount, &h.AutoConfirmedCount, &h.DuplicateCount,
			&h.NewTransactionCount, &status, &errJSON, &createdAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan: %w", err)
		}
		h.Status = domain.ImportStatus(status)
		h.CreatedAt = parseTimestamp(createdAt)
		if err := json.Unmarshal([]byte(errJSON), &h.Errors); err != nil {
			return nil, 0, fmt.Errorf("decode errors for %s: %w", h.ImportID, err)
		}
		history = append(history, h)
	}
	return history, total, rows.Err()
}

// --- helpers ---

func buildImportedWhere(f ImportedTransactionFilter) (string, []any) {
	var clauses []string
	var args []any

	if f.CompanyID != "" {
		clauses = append(clauses, "company_id = ?")
		args = append(args, f.CompanyID)
	}
	if f.ImportID != "" {
		clauses = append(clauses, "import_id = ?")
		args = append(args, f.ImportID)
	}
	if f.Type != "" {
		clauses = append(clauses, "type = ?")
		args = append(args, f.Type)
	}
	if f.From != nil {
		clauses = append(clauses, "transaction_date >= ?")
		args = append(args, formatDate(*f.From))
	}
	if f.To != nil {
		clauses = append(clauses, "transaction_date <= ?")
		args = append(args, formatDate(*f.To))
	}
	return whereClause(clauses), args
}

func scanImported(row rowScanner) (*domain.ImportedTransaction, error) {
	var t domain.ImportedTransaction
	var txnDate, txnType, importedAt string
	err := row.Scan(
		&t.ID, &t.TransactionHash, &t.ImportID, &t.CompanyID, &txnDate, &t.Transaction.Content,
		&t.Transaction.Amount, &t.Transaction.Balance, &txnType,
		&t.Transaction.CustomerName, &t.Transaction.ReferenceNumber, &t.Transaction.Memo,
		&t.FileName, &t.FileType, &t.BankType, &importedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Transaction.Date = parseDate(txnDate)
	t.Transaction.Type = domain.TransactionType(txnType)
	t.ImportedAt = parseTimestamp(importedAt)
	return &t, nil
}
