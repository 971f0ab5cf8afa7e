package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentConfirmed PaymentStatus = "confirmed"
)

// PaymentRecord links a deposit to the invoice it pays. The tuple
// (InvoiceID, PaymentDate, Amount, TransactionHash) is unique.
type PaymentRecord struct {
	ID              int64           `json:"id"`
	PaymentNumber   string          `json:"payment_number"`
	InvoiceID       int64           `json:"invoice_id"`
	CompanyID       string          `json:"company_id"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentDate     time.Time       `json:"payment_date"`
	TransactionHash string          `json:"transaction_hash"`
	ImportID        string          `json:"import_id,omitempty"`
	Confidence      Confidence      `json:"confidence"`
	MatchReason     string          `json:"match_reason"`
	Status          PaymentStatus   `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
}

type CommitOptions struct {
	OnlyHighConfidence bool
	AutoConfirm        bool
	CompanyID          string
	ImportID           string
}

type CommitResult struct {
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}
