package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ImportStatus string

const (
	ImportCompleted ImportStatus = "completed"
	ImportPartial   ImportStatus = "partial"
)

// ImportHistory records one statement upload.
type ImportHistory struct {
	ImportID              string          `json:"import_id"`
	CompanyID             string          `json:"company_id"`
	FileName              string          `json:"file_name"`
	FileSize              int64           `json:"file_size"`
	FileType              string          `json:"file_type"`
	BankType              string          `json:"bank_type,omitempty"`
	TotalCount            int             `json:"total_count"`
	DepositCount          int             `json:"deposit_count"`
	WithdrawalCount       int             `json:"withdrawal_count"`
	TotalDepositAmount    decimal.Decimal `json:"total_deposit_amount"`
	TotalWithdrawalAmount decimal.Decimal `json:"total_withdrawal_amount"`
	MatchedCount          int             `json:"matched_count"`
	HighConfidenceCount   int             `json:"high_confidence_count"`
	AutoConfirmedCount    int             `json:"auto_confirmed_count"`
	DuplicateCount        int             `json:"duplicate_count"`
	NewTransactionCount   int             `json:"new_transaction_count"`
	Status                ImportStatus    `json:"status"`
	Errors                []string        `json:"errors"`
	CreatedAt             time.Time       `json:"created_at"`
}

// ImportedTransaction is a statement line persisted under its content hash.
type ImportedTransaction struct {
	ID              int64           `json:"id"`
	TransactionHash string          `json:"transaction_hash"`
	ImportID        string          `json:"import_id"`
	CompanyID       string          `json:"company_id"`
	Transaction     BankTransaction `json:"transaction"`
	FileName        string          `json:"file_name"`
	FileType        string          `json:"file_type"`
	BankType        string          `json:"bank_type,omitempty"`
	ImportedAt      time.Time       `json:"imported_at"`
}
