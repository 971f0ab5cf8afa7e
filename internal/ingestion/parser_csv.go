package ingestion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shiwake/reconciler/internal/domain"
	"github.com/shiwake/reconciler/internal/money"
)

const undetectedBankMessage = "銀行フォーマットを自動判定できませんでした。銀行を手動で選択してください。"

// ParseBankCSV decodes a bank statement CSV export. With BankAuto the layout
// is detected from the header. Row-level problems are reported in Errors and
// never abort the file; only an unreadable CSV structure does.
//
// SBI layout:
//
//	日付,内容,出金金額(円),入金金額(円),残高(円),メモ
func ParseBankCSV(data []byte, bank BankType) domain.ParseResult {
	text, err := decodeText(data)
	if err != nil {
		return failedResult(fmt.Sprintf("CSVパースエラー: %v", err))
	}

	if bank == "" || bank == BankAuto {
		bank = DetectBank(text)
		if bank == BankAuto {
			return failedResult(undetectedBankMessage)
		}
	}
	layout, ok := bankLayouts[bank]
	if !ok {
		return failedResult(fmt.Sprintf("未対応の銀行です: %s", bank))
	}

	outcomes, err := decodeRows(text, layout)
	if err != nil {
		return failedResult(fmt.Sprintf("CSVパースエラー: %v", err))
	}

	var txns []domain.BankTransaction
	var rowErrors []string
	for _, o := range outcomes {
		switch o := o.(type) {
		case ParsedRow:
			txns = append(txns, o.Transaction)
		case RowError:
			rowErrors = append(rowErrors, o.Error())
		case BlankRow:
		}
	}

	result := summarize(txns, rowErrors)
	result.Success = len(rowErrors) == 0
	result.DetectedBank = string(bank)
	return result
}

// decodeRows reads every data row. The error is non-nil only when the CSV
// structure itself cannot be read, in which case no rows are returned.
func decodeRows(text string, layout csvLayout) ([]RowOutcome, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	for i := 0; i < layout.headerLines; i++ {
		if _, err := reader.Read(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, nil
			}
			return nil, fmt.Errorf("read header: %w", err)
		}
	}

	var outcomes []RowOutcome
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := reader.FieldPos(0)
		outcomes = append(outcomes, decodeRow(layout, row, line))
	}
	return outcomes, nil
}

func decodeRow(layout csvLayout, row []string, line int) RowOutcome {
	dateStr := cell(row, layout.dateIdx)
	if dateStr == "" {
		return BlankRow{}
	}
	if want := layout.columns(); len(row) < want {
		return RowError{Line: line, Message: fmt.Sprintf("列数が不足しています (%d列, 必要: %d列)", len(row), want)}
	}

	date, ok := parseStatementDate(dateStr, layout.dateFormat)
	if !ok {
		return RowError{Line: line, Message: "日付形式が不正です: " + dateStr}
	}

	var deposit, withdrawal decimal.Decimal
	if layout.amountIdx >= 0 {
		amount, err := money.ParseAmount(cell(row, layout.amountIdx))
		if err != nil {
			return RowError{Line: line, Message: "金額形式が不正です: " + cell(row, layout.amountIdx)}
		}
		if amount.IsPositive() {
			deposit = amount
		} else {
			withdrawal = amount.Abs()
		}
	} else {
		var err error
		if withdrawal, err = money.ParseAmount(cell(row, layout.withdrawalIdx)); err != nil {
			return RowError{Line: line, Message: "金額形式が不正です: " + cell(row, layout.withdrawalIdx)}
		}
		if deposit, err = money.ParseAmount(cell(row, layout.depositIdx)); err != nil {
			return RowError{Line: line, Message: "金額形式が不正です: " + cell(row, layout.depositIdx)}
		}
	}

	balance, err := money.ParseAmount(cell(row, layout.balanceIdx))
	if err != nil {
		return RowError{Line: line, Message: "残高形式が不正です: " + cell(row, layout.balanceIdx)}
	}

	content := cell(row, layout.contentIdx)
	txn := domain.BankTransaction{
		Date:         date,
		Content:      content,
		Balance:      balance,
		CustomerName: ExtractCustomerName(content),
		Memo:         cell(row, layout.memoIdx),
	}
	if deposit.IsPositive() {
		txn.Type = domain.TypeDeposit
		txn.Amount = deposit
	} else {
		txn.Type = domain.TypeWithdrawal
		txn.Amount = withdrawal.Abs().Neg()
	}
	return ParsedRow{Transaction: txn}
}

// cell returns the trimmed field at idx, or "" when the column is absent.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseStatementDate accepts only real calendar days: "2025/2/30" and
// "2025/13/99" are rejected rather than normalized.
func parseStatementDate(s string, format dateFormat) (time.Time, bool) {
	var parts []string
	switch format {
	case dateSlash:
		parts = strings.Split(s, "/")
	case dateDot:
		parts = strings.Split(s, ".")
	case dateDash:
		parts = strings.Split(s, "-")
	case dateCompact:
		if len(s) != 8 {
			return time.Time{}, false
		}
		parts = []string{s[:4], s[4:6], s[6:]}
	}
	if len(parts) != 3 {
		return time.Time{}, false
	}

	var ymd [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return time.Time{}, false
		}
		ymd[i] = n
	}
	y, m, d := ymd[0], ymd[1], ymd[2]
	if y < 1900 || y > 9999 {
		return time.Time{}, false
	}

	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

// summarize fills the counters and totals for a list of transactions.
func summarize(txns []domain.BankTransaction, rowErrors []string) domain.ParseResult {
	result := domain.ParseResult{
		Transactions:          txns,
		Errors:                rowErrors,
		TotalCount:            len(txns),
		TotalDepositAmount:    decimal.Zero,
		TotalWithdrawalAmount: decimal.Zero,
	}
	if result.Transactions == nil {
		result.Transactions = []domain.BankTransaction{}
	}
	if result.Errors == nil {
		result.Errors = []string{}
	}
	for _, t := range txns {
		if t.IsDeposit() {
			result.DepositCount++
			result.TotalDepositAmount = result.TotalDepositAmount.Add(t.Amount)
		} else {
			result.WithdrawalCount++
			result.TotalWithdrawalAmount = result.TotalWithdrawalAmount.Add(t.AbsAmount())
		}
	}
	return result
}

func failedResult(msg string) domain.ParseResult {
	result := summarize(nil, []string{msg})
	result.Success = false
	return result
}
