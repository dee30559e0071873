package normalize

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmountA parses the CaixaBank encoding: optional sign, dot thousands,
// decimal comma, optional trailing currency marker ("-1.234,56 EUR").
func ParseAmountA(raw string) (decimal.Decimal, bool) {
	s := strings.Replace(raw, "EUR", "", 1)
	s = strings.TrimSpace(strings.Replace(s, "€", "", 1))

	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	s = strings.ReplaceAll(s, ".", "")
	s = strings.Replace(s, ",", ".", 1)
	if s == "" {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if neg {
		d = d.Neg()
	}
	return d, true
}

// FormatAmountA renders d in the CaixaBank encoding with two decimals.
func FormatAmountA(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	fixed := d.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")
	return sign + groupThousands(intPart, '.') + "," + frac
}

// ParseAmountB parses the Revolut encoding: optional currency symbol, comma
// thousands, decimal dot (or a lone decimal comma). Blank input is exactly
// zero and reported as ok.
func ParseAmountB(raw string) (decimal.Decimal, bool) {
	s := strings.Map(func(r rune) rune {
		switch r {
		case '€', '$', '£', ' ', '\t', '\u00a0':
			return -1
		}
		return r
	}, raw)
	if s == "" {
		return decimal.Zero, true
	}

	if isDecimalComma(s) {
		s = strings.Replace(s, ",", ".", 1)
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// isDecimalComma reports whether the only comma in s separates one or two
// trailing decimals ("9,99"), as opposed to thousands ("1,234").
func isDecimalComma(s string) bool {
	if strings.Contains(s, ".") || strings.Count(s, ",") != 1 {
		return false
	}
	i := strings.IndexByte(s, ',')
	tail := len(s) - i - 1
	return tail == 1 || tail == 2
}

// FormatEuro renders d for display, e.g. "-1.234,56 €".
func FormatEuro(d decimal.Decimal) string {
	return FormatAmountA(d) + " €"
}

func groupThousands(digits string, sep byte) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
