package ingestion

import (
	"regexp"
	"strings"
)

// BankType identifies a CSV export layout.
type BankType string

const (
	BankAuto      BankType = "auto"
	BankSBI       BankType = "sbi"
	BankMUFG      BankType = "mufg"
	BankSMBC      BankType = "smbc"
	BankMizuho    BankType = "mizuho"
	BankRakuten   BankType = "rakuten"
	BankJapanPost BankType = "japan-post"
	BankSony      BankType = "sony"
	BankAeon      BankType = "aeon"
)

// BankInfo describes a supported bank.
type BankInfo struct {
	Type   BankType `json:"type"`
	Code   string   `json:"code"`
	Name   string   `json:"name"`
	NameEn string   `json:"name_en"`
}

type dateFormat int

const (
	dateSlash dateFormat = iota // 2025/1/15
	dateDot                     // 2025.1.15
	dateDash                    // 2025-1-15
	dateCompact                 // 20250115
)

// csvLayout maps a bank's export columns. An index of -1 means the column
// is absent. When amountIdx is set, deposits and withdrawals share one
// signed column.
type csvLayout struct {
	headerLines   int
	dateIdx       int
	contentIdx    int
	withdrawalIdx int
	depositIdx    int
	amountIdx     int
	balanceIdx    int
	memoIdx       int
	dateFormat    dateFormat
}

// columns is the minimum number of fields a data row must carry.
func (l csvLayout) columns() int {
	n := 0
	for _, idx := range []int{l.dateIdx, l.contentIdx, l.withdrawalIdx, l.depositIdx, l.amountIdx, l.balanceIdx, l.memoIdx} {
		if idx+1 > n {
			n = idx + 1
		}
	}
	return n
}

// standardLayout is date, content, withdrawal, deposit, balance.
var standardLayout = csvLayout{
	headerLines:   1,
	dateIdx:       0,
	contentIdx:    1,
	withdrawalIdx: 2,
	depositIdx:    3,
	amountIdx:     -1,
	balanceIdx:    4,
	memoIdx:       -1,
	dateFormat:    dateSlash,
}

var bankLayouts = map[BankType]csvLayout{
	// 日付,内容,出金金額(円),入金金額(円),残高(円),メモ
	BankSBI: {headerLines: 1, dateIdx: 0, contentIdx: 1, withdrawalIdx: 2, depositIdx: 3, amountIdx: -1, balanceIdx: 4, memoIdx: 5, dateFormat: dateSlash},
	// 日付,摘要,お支払金額,お預り金額,差引残高
	BankMUFG: standardLayout,
	// 年月日,お引出し,お預入れ,残高,摘要
	BankSMBC: {headerLines: 1, dateIdx: 0, contentIdx: 4, withdrawalIdx: 1, depositIdx: 2, amountIdx: -1, balanceIdx: 3, memoIdx: -1, dateFormat: dateSlash},
	// 日付,摘要,お支払金額,お預かり金額,残高
	BankMizuho: standardLayout,
	// 取引日,入出金(税込),取引後残高,摘要
	BankRakuten: {headerLines: 1, dateIdx: 0, contentIdx: 3, withdrawalIdx: -1, depositIdx: -1, amountIdx: 1, balanceIdx: 2, memoIdx: -1, dateFormat: dateSlash},
	// 日付,取扱内容,お預入金額,お引出金額,現在高
	BankJapanPost: {headerLines: 1, dateIdx: 0, contentIdx: 1, withdrawalIdx: 3, depositIdx: 2, amountIdx: -1, balanceIdx: 4, memoIdx: -1, dateFormat: dateSlash},
	// 取引日,摘要,お支払い金額,お預かり金額,残高
	BankSony: standardLayout,
	// 取引日,摘要,出金,入金,残高
	BankAeon: standardLayout,
}

var bankInfos = []BankInfo{
	{Type: BankSBI, Code: "0038", Name: "住信SBIネット銀行", NameEn: "SBI Sumishin Net Bank"},
	{Type: BankMUFG, Code: "0005", Name: "三菱UFJ銀行", NameEn: "MUFG Bank"},
	{Type: BankSMBC, Code: "0009", Name: "三井住友銀行", NameEn: "SMBC"},
	{Type: BankMizuho, Code: "0001", Name: "みずほ銀行", NameEn: "Mizuho Bank"},
	{Type: BankRakuten, Code: "0036", Name: "楽天銀行", NameEn: "Rakuten Bank"},
	{Type: BankJapanPost, Code: "9900", Name: "ゆうちょ銀行", NameEn: "Japan Post Bank"},
	{Type: BankSony, Code: "0035", Name: "ソニー銀行", NameEn: "Sony Bank"},
	{Type: BankAeon, Code: "0040", Name: "イオン銀行", NameEn: "AEON Bank"},
}

// SupportedBanks lists the banks with a known CSV layout.
func SupportedBanks() []BankInfo {
	out := make([]BankInfo, len(bankInfos))
	copy(out, bankInfos)
	return out
}

// ParseBankType accepts a bank type name case-insensitively. An empty name
// means auto detection.
func ParseBankType(s string) (BankType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == string(BankAuto) {
		return BankAuto, true
	}
	bt := BankType(s)
	_, ok := bankLayouts[bt]
	return bt, ok
}

var aeonHeader = regexp.MustCompile(`取引日.*摘要.*出金.*入金.*残高`)

// DetectBank guesses the bank from header keywords in the first five lines.
// It returns BankAuto when no layout matches.
func DetectBank(text string) BankType {
	lines := strings.SplitN(text, "\n", 6)
	if len(lines) > 5 {
		lines = lines[:5]
	}
	head := strings.Join(lines, "\n")
	has := func(keywords ...string) bool {
		for _, k := range keywords {
			if !strings.Contains(head, k) {
				return false
			}
		}
		return true
	}

	switch {
	case has("出金金額(円)", "入金金額(円)"):
		return BankSBI
	case has("お支払金額", "お預り金額"):
		return BankMUFG
	case has("お引出し", "お預入れ"):
		return BankSMBC
	case has("お支払金額", "お預かり金額"):
		return BankMizuho
	case has("取引日", "入出金"):
		return BankRakuten
	case has("お預入金額", "お引出金額"):
		return BankJapanPost
	case has("お支払い金額", "お預かり金額"):
		return BankSony
	case aeonHeader.MatchString(head):
		return BankAeon
	}
	return BankAuto
}
