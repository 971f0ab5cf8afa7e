package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

// InitDB opens (or creates) a SQLite database at the given path and ensures
// all required tables exist. Pass ":memory:" for an in-memory database.
func InitDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// One connection: writes serialize, and ":memory:" stays a single database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS invoices (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			invoice_number TEXT NOT NULL,
			company_id TEXT NOT NULL,
			customer_name TEXT NOT NULL,
			customer_name_kana TEXT NOT NULL DEFAULT '',
			total_amount NUMERIC NOT NULL,
			paid_amount NUMERIC NOT NULL DEFAULT 0,
			issue_date TEXT NOT NULL,
			due_date TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'unpaid',
			updated_at TEXT NOT NULL,
			UNIQUE (company_id, invoice_number)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_invoices_company_status ON invoices(company_id, status)`,

		`CREATE TABLE IF NOT EXISTS payment_records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			payment_number TEXT NOT NULL UNIQUE,
			invoice_id INTEGER NOT NULL,
			company_id TEXT NOT NULL,
			amount NUMERIC NOT NULL,
			payment_date TEXT NOT NULL,
			transaction_hash TEXT NOT NULL,
			import_id TEXT NOT NULL DEFAULT '',
			confidence TEXT NOT NULL,
			match_reason TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			created_at TEXT NOT NULL,
			UNIQUE (invoice_id, payment_date, amount, transaction_hash),
			FOREIGN KEY (invoice_id) REFERENCES invoices(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payment_records_hash ON payment_records(company_id, transaction_hash)`,
		`CREATE INDEX IF NOT EXISTS idx_payment_records_invoice ON payment_records(invoice_id)`,

		`CREATE TABLE IF NOT EXISTS imported_bank_transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			transaction_hash TEXT NOT NULL,
			import_id TEXT NOT NULL,
			company_id TEXT NOT NULL,
			transaction_date TEXT NOT NULL,
			content TEXT NOT NULL,
			amount NUMERIC NOT NULL,
			balance NUMERIC NOT NULL,
			type TEXT NOT NULL,
			customer_name TEXT NOT NULL DEFAULT '',
			reference_number TEXT NOT NULL DEFAULT '',
			memo TEXT NOT NULL DEFAULT '',
			file_name TEXT NOT NULL,
			file_type TEXT NOT NULL,
			bank_type TEXT NOT NULL DEFAULT '',
			imported_at TEXT NOT NULL,
			UNIQUE (company_id, transaction_hash)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_imported_bank_transactions_import ON imported_bank_transactions(import_id)`,
		`CREATE INDEX IF NOT EXISTS idx_imported_bank_transactions_date ON imported_bank_transactions(transaction_date)`,

		`CREATE TABLE IF NOT EXISTS bank_import_history (
			import_id TEXT PRIMARY KEY,
			company_id TEXT NOT NULL,
			file_name TEXT NOT NULL,
			file_size INTEGER NOT NULL,
			file_type TEXT NOT NULL,
			bank_type TEXT NOT NULL DEFAULT '',
			total_count INTEGER NOT NULL,
			deposit_count INTEGER NOT NULL,
			withdrawal_count INTEGER NOT NULL,
			total_deposit_amount NUMERIC NOT NULL,
			total_withdrawal_amount NUMERIC NOT NULL,
			matched_count INTEGER NOT NULL DEFAULT 0,
			high_confidence_count INTEGER NOT NULL DEFAULT 0,
			auto_confirmed_count INTEGER NOT NULL DEFAULT 0,
			duplicate_count INTEGER NOT NULL DEFAULT 0,
			new_transaction_count INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			errors TEXT NOT NULL DEFAULT '[]',
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bank_import_history_company ON bank_import_history(company_id, created_at)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:60], err)
		}
	}

	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// page normalizes pagination, defaulting to 50 rows per page.
func page(p, limit int) (int, int) {
	if limit <= 0 {
		limit = 50
	}
	if p <= 0 {
		p = 1
	}
	return limit, (p - 1) * limit
}

func whereClause(clauses []string) string {
	if len(clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(clauses, " AND ")
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func parseDate(s string) time.Time {
	t, _ := time.Parse(dateLayout, s)
	return t
}

func parseTimestamp(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}
