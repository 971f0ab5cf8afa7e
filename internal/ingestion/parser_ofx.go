package ingestion

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shiwake/reconciler/internal/domain"
)

var (
	ofxRoot       = regexp.MustCompile(`(?i)<OFX>`)
	ofxStmtTrn    = regexp.MustCompile(`(?is)<STMTTRN>(.*?)</STMTTRN>`)
	ofxAcctFrom   = regexp.MustCompile(`(?is)<BANKACCTFROM>(.*?)</BANKACCTFROM>`)
	ofxLedgerBal  = regexp.MustCompile(`(?is)<LEDGERBAL>(.*?)</LEDGERBAL>`)
	ofxTranList   = regexp.MustCompile(`(?is)<BANKTRANLIST>(.*?)<STMTTRN>`)
	ofxTagPattern = map[string]*regexp.Regexp{}
)

func init() {
	for _, tag := range []string{
		"TRNTYPE", "DTPOSTED", "TRNAMT", "FITID", "REFNUM", "NAME", "MEMO",
		"BANKID", "BRANCHID", "ACCTID", "ACCTTYPE", "CURDEF", "BALAMT", "DTSTART", "DTEND",
	} {
		// SGML elements are unterminated; XML ones close before the next '<'.
		ofxTagPattern[tag] = regexp.MustCompile(`(?i)<` + tag + `>([^<\r\n]*)`)
	}
}

// ofxValue returns the trimmed value of the first occurrence of tag in block.
func ofxValue(block, tag string) string {
	m := ofxTagPattern[tag].FindStringSubmatch(block)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// ParseOFX decodes OFX 1.x (SGML) and 2.x (XML) bank statements. A malformed
// STMTTRN block is reported in Errors and skipped. The result is a failure
// only when nothing could be extracted and errors were recorded.
func ParseOFX(data []byte) domain.ParseResult {
	text, err := decodeText(data)
	if err != nil {
		return failedResult(fmt.Sprintf("OFXパースエラー: %v", err))
	}
	if !ofxRoot.MatchString(text) {
		return failedResult("OFXパースエラー: <OFX> 要素が見つかりません")
	}

	var txns []domain.BankTransaction
	var rowErrors []string
	for i, m := range ofxStmtTrn.FindAllStringSubmatch(text, -1) {
		txn, err := decodeStmtTrn(m[1])
		if err != nil {
			rowErrors = append(rowErrors, fmt.Sprintf("取引 %d: %v", i+1, err))
			continue
		}
		txns = append(txns, txn)
	}

	result := summarize(txns, rowErrors)
	result.Success = !(len(txns) == 0 && len(rowErrors) > 0)
	result.AccountInfo = ofxAccountInfo(text)
	return result
}

func decodeStmtTrn(block string) (domain.BankTransaction, error) {
	posted := ofxValue(block, "DTPOSTED")
	date, ok := parseOFXDate(posted)
	if !ok {
		return domain.BankTransaction{}, fmt.Errorf("日付形式が不正です: %s", posted)
	}

	rawAmount := ofxValue(block, "TRNAMT")
	amount, err := decimal.NewFromString(strings.ReplaceAll(rawAmount, ",", ""))
	if err != nil {
		return domain.BankTransaction{}, fmt.Errorf("金額形式が不正です: %s", rawAmount)
	}

	name := ofxValue(block, "NAME")
	memo := ofxValue(block, "MEMO")
	content := name
	if content == "" {
		content = memo
	}

	ref := ofxValue(block, "REFNUM")
	if ref == "" {
		ref = ofxValue(block, "FITID")
	}

	txn := domain.BankTransaction{
		Date:            date,
		Content:         content,
		Amount:          amount,
		Balance:         decimal.Zero,
		ReferenceNumber: ref,
		Memo:            memo,
	}
	if amount.IsPositive() {
		txn.Type = domain.TypeDeposit
		txn.CustomerName = ExtractCustomerName(content)
		if txn.CustomerName == "" {
			txn.CustomerName = strings.TrimSpace(parenAnnotation.ReplaceAllString(content, ""))
		}
	} else {
		txn.Type = domain.TypeWithdrawal
	}
	return txn, nil
}

// parseOFXDate reads the leading YYYYMMDD of an OFX datetime such as
// "20250115120000.000[+9:JST]".
func parseOFXDate(s string) (time.Time, bool) {
	if len(s) < 8 {
		return time.Time{}, false
	}
	return parseStatementDate(s[:8], dateCompact)
}

func ofxAccountInfo(text string) *domain.AccountInfo {
	info := &domain.AccountInfo{
		Currency: ofxValue(text, "CURDEF"),
	}
	found := info.Currency != ""

	if m := ofxAcctFrom.FindStringSubmatch(text); m != nil {
		info.BankID = ofxValue(m[1], "BANKID")
		info.BranchID = ofxValue(m[1], "BRANCHID")
		info.AccountID = ofxValue(m[1], "ACCTID")
		info.AccountType = ofxValue(m[1], "ACCTTYPE")
		found = true
	}
	if m := ofxLedgerBal.FindStringSubmatch(text); m != nil {
		if bal, err := decimal.NewFromString(ofxValue(m[1], "BALAMT")); err == nil {
			info.LedgerBalance = &bal
			found = true
		}
	}

	// DTSTART/DTEND sit between BANKTRANLIST and the first STMTTRN.
	period := text
	if m := ofxTranList.FindStringSubmatch(text); m != nil {
		period = m[1]
	}
	if t, ok := parseOFXDate(ofxValue(period, "DTSTART")); ok {
		info.PeriodStart = &t
		found = true
	}
	if t, ok := parseOFXDate(ofxValue(period, "DTEND")); ok {
		info.PeriodEnd = &t
		found = true
	}

	if !found {
		return nil
	}
	return info
}
