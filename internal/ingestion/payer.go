package ingestion

import (
	"regexp"
	"strings"
)

// Transfer prefixes that precede the remitter name in a statement line.
var payerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^振込[＊*]?[\s　]*(.+)`),
	regexp.MustCompile(`^フリコミ[＊*]?[\s　]*(.+)`),
	regexp.MustCompile(`^ﾌﾘｺﾐ[＊*]?[\s　]*(.+)`),
	regexp.MustCompile(`^入金[\s　]*(.+)`),
}

var parenAnnotation = regexp.MustCompile(`[（(].*?[）)]`)

// ExtractCustomerName returns the remitter name from a transfer line such as
// "振込＊ABC(カ)", or "" when the line is not a recognizable transfer.
func ExtractCustomerName(content string) string {
	for _, p := range payerPatterns {
		m := p.FindStringSubmatch(content)
		if m == nil {
			continue
		}
		return strings.TrimSpace(parenAnnotation.ReplaceAllString(m[1], ""))
	}
	return ""
}
