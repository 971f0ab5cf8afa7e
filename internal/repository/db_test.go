package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/shiwake/reconciler/internal/domain"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := InitDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedInvoice(t *testing.T, repo *InvoiceRepo, number, company, name string, total int64) domain.InvoiceRef {
	t.Helper()
	inv := domain.InvoiceRef{
		InvoiceNumber: number,
		CompanyID:     company,
		CustomerName:  name,
		TotalAmount:   decimal.NewFromInt(total),
		PaidAmount:    decimal.Zero,
		IssueDate:     day(2024, 12, 20),
		DueDate:       day(2025, 1, 20),
		Status:        domain.InvoiceUnpaid,
	}
	_, err := repo.Insert(context.Background(), &inv)
	require.NoError(t, err)
	return inv
}

func TestInitDB_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")

	db, err := InitDB(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = InitDB(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestInitDB_Memory(t *testing.T) {
	db, err := InitDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	repo := NewInvoiceRepo(db)
	seedInvoice(t, repo, "INV-1", "acme", "株式会社ABC", 1000)
	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
}
