package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// amountNoise lists the characters Japanese bank exports put around amounts.
var amountNoise = strings.NewReplacer(
	",", "",
	"円", "",
	"¥", "",
	"\\", "",
	" ", "",
	"\t", "",
)

// ParseAmount parses a statement amount cell such as "1,234", "￥50,000" or
// "12,000円". Full-width digits are folded first. Empty cells and "-" are zero.
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := amountNoise.Replace(norm.NFKC.String(strings.TrimSpace(s)))
	cleaned = strings.TrimPrefix(cleaned, "+")
	if cleaned == "" || cleaned == "-" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// FormatYen renders an amount as "¥1,234,567", keeping any fractional part.
func FormatYen(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	whole := d.Truncate(0)
	frac := d.Sub(whole)

	digits := whole.String()
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := sign + "¥" + b.String()
	if !frac.IsZero() {
		out += strings.TrimPrefix(frac.String(), "0")
	}
	return out
}

// RelativeDiff returns |a-b| / base, or zero when base is zero.
func RelativeDiff(a, b, base decimal.Decimal) decimal.Decimal {
	if base.IsZero() {
		return decimal.Zero
	}
	return a.Sub(b).Abs().Div(base.Abs())
}
