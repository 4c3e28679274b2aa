package billing

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

// DefaultCurrency is used when an invoice carries no (or an unknown) code.
const DefaultCurrency = "BDT"

// FormatCurrency renders amount with the ISO code prefix and thousands
// grouping, e.g. "BDT 28,750.00". Digits are taken from the decimal itself,
// never a float. Bengali locales get Bengali numerals. fractionDigits is
// chosen by the caller: list views use 0, documents use 2.
func FormatCurrency(amount decimal.Decimal, currencyCode string, tag language.Tag, fractionDigits int) string {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(currencyCode)))
	if err != nil {
		unit = currency.MustParseISO(DefaultCurrency)
	}
	if fractionDigits < 0 {
		fractionDigits = 0
	}

	rounded := amount.Round(int32(fractionDigits))
	digits := rounded.Abs().StringFixed(int32(fractionDigits))
	intPart, fracPart, _ := strings.Cut(digits, ".")

	var b strings.Builder
	if rounded.IsNegative() {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if fracPart != "" {
		b.WriteByte('.')
		b.WriteString(fracPart)
	}

	out := b.String()
	if base, _ := tag.Base(); base == bengali {
		out = strings.Map(toBengaliDigit, out)
	}
	return unit.String() + " " + out
}

var bengali = language.MustParseBase("bn")

func toBengaliDigit(r rune) rune {
	if r >= '0' && r <= '9' {
		return '০' + (r - '0')
	}
	return r
}
