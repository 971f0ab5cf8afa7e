package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TypeDeposit    TransactionType = "deposit"
	TypeWithdrawal TransactionType = "withdrawal"
)

// BankTransaction is one normalized statement line. Amount is signed:
// positive for deposits, negative for withdrawals. Balance is copied from the
// statement as-is and never recomputed.
type BankTransaction struct {
	Date            time.Time       `json:"date"`
	Content         string          `json:"content"`
	Amount          decimal.Decimal `json:"amount"`
	Balance         decimal.Decimal `json:"balance"`
	Type            TransactionType `json:"type"`
	CustomerName    string          `json:"customer_name,omitempty"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	Memo            string          `json:"memo,omitempty"`
}

func (t BankTransaction) IsDeposit() bool {
	return t.Type == TypeDeposit
}

// Hash identifies the statement line: the first 32 hex characters of
// sha256("YYYY-MM-DD|amount|content|reference").
func (t BankTransaction) Hash() string {
	data := t.Date.Format("2006-01-02") + "|" + t.Amount.String() + "|" + t.Content + "|" + t.ReferenceNumber
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])[:32]
}

// AbsAmount returns the unsigned amount of the transaction.
func (t BankTransaction) AbsAmount() decimal.Decimal {
	return t.Amount.Abs()
}

// AccountInfo is the account block carried by OFX statements.
type AccountInfo struct {
	BankID        string           `json:"bank_id,omitempty"`
	BranchID      string           `json:"branch_id,omitempty"`
	AccountID     string           `json:"account_id,omitempty"`
	AccountType   string           `json:"account_type,omitempty"`
	Currency      string           `json:"currency,omitempty"`
	LedgerBalance *decimal.Decimal `json:"ledger_balance,omitempty"`
	PeriodStart   *time.Time       `json:"period_start,omitempty"`
	PeriodEnd     *time.Time       `json:"period_end,omitempty"`
}

// ParseResult is the shared output contract of every statement decoder.
type ParseResult struct {
	Success               bool              `json:"success"`
	Transactions          []BankTransaction `json:"transactions"`
	Errors                []string          `json:"errors"`
	TotalCount            int               `json:"total_count"`
	DepositCount          int               `json:"deposit_count"`
	WithdrawalCount       int               `json:"withdrawal_count"`
	TotalDepositAmount    decimal.Decimal   `json:"total_deposit_amount"`
	TotalWithdrawalAmount decimal.Decimal   `json:"total_withdrawal_amount"`
	DetectedBank          string            `json:"detected_bank,omitempty"`
	AccountInfo           *AccountInfo      `json:"account_info,omitempty"`
}

// ExtractDeposits returns the deposit lines in their original order.
func ExtractDeposits(txns []BankTransaction) []BankTransaction {
	var out []BankTransaction
	for _, t := range txns {
		if t.IsDeposit() {
			out = append(out, t)
		}
	}
	return out
}
