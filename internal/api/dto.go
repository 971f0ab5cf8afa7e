package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/shiwake/reconciler/internal/domain"
	"github.com/shiwake/reconciler/internal/ingestion"
)

// importResponse is the body of a successful statement import. Amounts are
// plain JSON numbers; yen never carries a fractional part.
type importResponse struct {
	Success        bool                  `json:"success"`
	ImportID       string                `json:"importId"`
	FileType       ingestion.FileType    `json:"fileType"`
	DetectedBank   ingestion.BankType    `json:"detectedBank,omitempty"`
	BankInfo       *ingestion.BankInfo   `json:"bankInfo,omitempty"`
	ParseResult    parseSummary          `json:"parseResult"`
	DuplicateCheck duplicateSummary      `json:"duplicateCheck"`
	Saved          *ingestion.SaveResult `json:"transactionImportResult"`
	MatchResults   []matchView           `json:"matchResults"`
	ImportResult   domain.CommitResult   `json:"importResult"`
}

type parseSummary struct {
	TotalCount            int          `json:"totalCount"`
	DepositCount          int          `json:"depositCount"`
	WithdrawalCount       int          `json:"withdrawalCount"`
	TotalDepositAmount    float64      `json:"totalDepositAmount"`
	TotalWithdrawalAmount float64      `json:"totalWithdrawalAmount"`
	Errors                []string     `json:"errors"`
	AccountInfo           *accountView `json:"accountInfo,omitempty"`
}

type accountView struct {
	BankID        string   `json:"bankId,omitempty"`
	BranchID      string   `json:"branchId,omitempty"`
	AccountID     string   `json:"accountId,omitempty"`
	AccountType   string   `json:"accountType,omitempty"`
	Currency      string   `json:"currency,omitempty"`
	LedgerBalance *float64 `json:"ledgerBalance,omitempty"`
	PeriodStart   string   `json:"periodStart,omitempty"`
	PeriodEnd     string   `json:"periodEnd,omitempty"`
}

type duplicateSummary struct {
	TotalChecked          int             `json:"totalChecked"`
	DuplicateCount        int             `json:"duplicateCount"`
	NewTransactionCount   int             `json:"newTransactionCount"`
	DuplicateTransactions []duplicateView `json:"duplicateTransactions"`
}

type duplicateView struct {
	Date               string    `json:"date"`
	Content            string    `json:"content"`
	Amount             float64   `json:"amount"`
	ExistingImportDate time.Time `json:"existingImportDate"`
	ExistingFileName   string    `json:"existingFileName"`
}

type matchView struct {
	Date            string            `json:"date"`
	Content         string            `json:"content"`
	Amount          float64           `json:"amount"`
	CustomerName    string            `json:"customerName,omitempty"`
	ReferenceNumber string            `json:"referenceNumber,omitempty"`
	MatchedInvoice  *invoiceView      `json:"matchedInvoice"`
	Confidence      domain.Confidence `json:"confidence"`
	MatchReason     string            `json:"matchReason"`
}

type invoiceView struct {
	ID                int64                `json:"id"`
	InvoiceNumber     string               `json:"invoiceNumber"`
	CustomerName      string               `json:"customerName"`
	TotalAmount       float64              `json:"totalAmount"`
	PaidAmount        float64              `json:"paidAmount"`
	OutstandingAmount float64              `json:"outstandingAmount"`
	IssueDate         string               `json:"issueDate,omitempty"`
	DueDate           string               `json:"dueDate,omitempty"`
	Status            domain.InvoiceStatus `json:"status"`
}

func newImportResponse(res *ingestion.ImportResult) importResponse {
	out := importResponse{
		Success:      true,
		ImportID:     res.ImportID,
		FileType:     res.FileType,
		DetectedBank: res.DetectedBank,
		BankInfo:     lookupBank(res.DetectedBank),
		ParseResult: parseSummary{
			TotalCount:            res.Parse.TotalCount,
			DepositCount:          res.Parse.DepositCount,
			WithdrawalCount:       res.Parse.WithdrawalCount,
			TotalDepositAmount:    res.Parse.TotalDepositAmount.InexactFloat64(),
			TotalWithdrawalAmount: res.Parse.TotalWithdrawalAmount.InexactFloat64(),
			Errors:                res.Parse.Errors,
			AccountInfo:           newAccountView(res.Parse.AccountInfo),
		},
		DuplicateCheck: duplicateSummary{
			TotalChecked:          res.DuplicateCheck.TotalChecked,
			DuplicateCount:        res.DuplicateCheck.DuplicateCount,
			NewTransactionCount:   res.DuplicateCheck.NewTransactionCount,
			DuplicateTransactions: make([]duplicateView, 0, len(res.DuplicateCheck.Duplicates)),
		},
		Saved:        res.Saved,
		MatchResults: make([]matchView, 0, len(res.MatchResults)),
		ImportResult: res.Commit,
	}
	if out.ParseResult.Errors == nil {
		out.ParseResult.Errors = []string{}
	}

	for _, d := range res.DuplicateCheck.Duplicates {
		amount, _ := decimal.NewFromString(d.Amount)
		out.DuplicateCheck.DuplicateTransactions = append(out.DuplicateCheck.DuplicateTransactions, duplicateView{
			Date:               formatDate(d.Date),
			Content:            d.Content,
			Amount:             amount.InexactFloat64(),
			ExistingImportDate: d.ExistingImportedAt,
			ExistingFileName:   d.ExistingFileName,
		})
	}

	for _, m := range res.MatchResults {
		out.MatchResults = append(out.MatchResults, matchView{
			Date:            formatDate(m.Transaction.Date),
			Content:         m.Transaction.Content,
			Amount:          m.Transaction.Amount.InexactFloat64(),
			CustomerName:    m.Transaction.CustomerName,
			ReferenceNumber: m.Transaction.ReferenceNumber,
			MatchedInvoice:  newInvoiceView(m.MatchedInvoice),
			Confidence:      m.Confidence,
			MatchReason:     m.MatchReason,
		})
	}
	return out
}

func newInvoiceView(inv *domain.InvoiceRef) *invoiceView {
	if inv == nil {
		return nil
	}
	return &invoiceView{
		ID:                inv.ID,
		InvoiceNumber:     inv.InvoiceNumber,
		CustomerName:      inv.CustomerName,
		TotalAmount:       inv.TotalAmount.InexactFloat64(),
		PaidAmount:        inv.PaidAmount.InexactFloat64(),
		OutstandingAmount: inv.OutstandingAmount().InexactFloat64(),
		IssueDate:         formatDate(inv.IssueDate),
		DueDate:           formatDate(inv.DueDate),
		Status:            inv.Status,
	}
}

func newAccountView(info *domain.AccountInfo) *accountView {
	if info == nil {
		return nil
	}
	v := &accountView{
		BankID:      info.BankID,
		BranchID:    info.BranchID,
		AccountID:   info.AccountID,
		AccountType: info.AccountType,
		Currency:    info.Currency,
	}
	if info.LedgerBalance != nil {
		f := info.LedgerBalance.InexactFloat64()
		v.LedgerBalance = &f
	}
	if info.PeriodStart != nil {
		v.PeriodStart = formatDate(*info.PeriodStart)
	}
	if info.PeriodEnd != nil {
		v.PeriodEnd = formatDate(*info.PeriodEnd)
	}
	return v
}

func lookupBank(bank ingestion.BankType) *ingestion.BankInfo {
	for _, info := range ingestion.SupportedBanks() {
		if info.Type == bank {
			return &info
		}
	}
	return nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
