package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBankTransactionHash(t *testing.T) {
	base := BankTransaction{
		Date:    time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		Content: "振込＊ABC(カ)",
		Amount:  decimal.NewFromInt(50000),
		Type:    TypeDeposit,
	}

	h := base.Hash()
	assert.Len(t, h, 32)
	assert.Equal(t, h, base.Hash(), "hash must be stable")

	// Balance and memo do not participate.
	other := base
	other.Balance = decimal.NewFromInt(1)
	other.Memo = "memo"
	assert.Equal(t, h, other.Hash())

	other = base
	other.ReferenceNumber = "FIT-1"
	assert.NotEqual(t, h, other.Hash())

	other = base
	other.Amount = decimal.NewFromInt(50001)
	assert.NotEqual(t, h, other.Hash())
}

func TestExtractDeposits(t *testing.T) {
	txns := []BankTransaction{
		{Content: "a", Type: TypeDeposit, Amount: decimal.NewFromInt(1)},
		{Content: "b", Type: TypeWithdrawal, Amount: decimal.NewFromInt(-1)},
		{Content: "c", Type: TypeDeposit, Amount: decimal.NewFromInt(2)},
	}
	deps := ExtractDeposits(txns)
	if assert.Len(t, deps, 2) {
		assert.Equal(t, "a", deps[0].Content)
		assert.Equal(t, "c", deps[1].Content)
	}
	assert.Empty(t, ExtractDeposits(nil))
}

func TestInvoiceRefOutstanding(t *testing.T) {
	inv := InvoiceRef{
		TotalAmount: decimal.NewFromInt(50000),
		PaidAmount:  decimal.NewFromInt(20000),
		IssueDate:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:      InvoicePartiallyPaid,
	}
	assert.True(t, inv.OutstandingAmount().Equal(decimal.NewFromInt(30000)))
	assert.False(t, inv.IsSettled())
	assert.Equal(t, inv.IssueDate, inv.ReferenceDate())

	inv.DueDate = time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, inv.DueDate, inv.ReferenceDate())

	inv.PaidAmount = decimal.NewFromInt(50000)
	assert.True(t, inv.IsSettled())

	inv.PaidAmount = decimal.Zero
	inv.Status = InvoiceCancelled
	assert.True(t, inv.IsSettled())
}

func TestConfidenceRank(t *testing.T) {
	assert.Greater(t, ConfidenceHigh.Rank(), ConfidenceMedium.Rank())
	assert.Greater(t, ConfidenceMedium.Rank(), ConfidenceLow.Rank())
	assert.Greater(t, ConfidenceLow.Rank(), ConfidenceNone.Rank())
	assert.Equal(t, 0, Confidence("bogus").Rank())
}
