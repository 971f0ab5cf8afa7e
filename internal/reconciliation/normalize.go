package reconciliation

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	parenContent   = regexp.MustCompile(`\([^)]*\)`)
	unclosedParen  = regexp.MustCompile(`\([^)]*$`)
	truncatedCorp  = regexp.MustCompile(`^[カユド]\)|[カユド]\)$`)
	nameWhitespace = regexp.MustCompile(`[\s\x{3000}]+`)
	namePunct      = strings.NewReplacer("・", "", ".", "", ",", "", "、", "", "。", "", "-", "")
)

// corporateTokens are legal-entity markers that banks and invoices spell
// inconsistently. Small kana are already folded when these are removed.
var corporateTokens = []string{
	"特定非営利活動法人",
	"一般社団法人",
	"一般財団法人",
	"株式会社",
	"有限会社",
	"合同会社",
	"合資会社",
	"合名会社",
	"医療法人",
	"カブシキガイシヤ",
	"カブシキカイシヤ",
	"ユウゲンガイシヤ",
	"ユウゲンカイシヤ",
	"ゴウドウガイシヤ",
	"ゴウドウカイシヤ",
}

var smallKana = strings.NewReplacer(
	"ァ", "ア", "ィ", "イ", "ゥ", "ウ", "ェ", "エ", "ォ", "オ",
	"ッ", "ツ", "ャ", "ヤ", "ュ", "ユ", "ョ", "ヨ", "ヮ", "ワ",
)

// NormalizeName reduces a company or remitter name to a comparable key:
// width-folded, without whitespace, parenthesized annotations or corporate
// markers, and upper-cased. "振込＊ABC(カ)" style payer names and
// "株式会社ABC" both normalize to "ABC".
func NormalizeName(s string) string {
	s = norm.NFKC.String(s)
	s = nameWhitespace.ReplaceAllString(s, "")
	s = smallKana.Replace(s)
	s = parenContent.ReplaceAllString(s, "")
	s = unclosedParen.ReplaceAllString(s, "")
	s = truncatedCorp.ReplaceAllString(s, "")
	for _, tok := range corporateTokens {
		s = strings.ReplaceAll(s, tok, "")
	}
	s = namePunct.Replace(s)
	return strings.ToUpper(s)
}
