package reportcli

import (
	"math"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// MoneyFormatter displays ledger amounts in a currency's notation.
// Digits beyond the currency's fraction are truncated for display only.
type MoneyFormatter struct {
	currency money.Currency
}

// DefaultCurrency is the currency the ledgers are kept in.
const DefaultCurrency = money.INR

var (
	maxMinor = decimal.NewFromInt(math.MaxInt64)
	minMinor = decimal.NewFromInt(math.MinInt64)
)

// NewMoneyFormatter returns a formatter for an ISO 4217 code; unknown codes
// fall back to DefaultCurrency.
func NewMoneyFormatter(code string) MoneyFormatter {
	if money.GetCurrency(code) == nil {
		code = DefaultCurrency
	}
	return MoneyFormatter{currency: *money.New(0, code).Currency()}
}

func (f MoneyFormatter) Format(d decimal.Decimal) string {
	fraction := int32(f.currency.Fraction)
	minor := d.Shift(fraction).Truncate(0)
	if minor.GreaterThanOrEqual(minMinor) && minor.LessThanOrEqual(maxMinor) {
		return f.currency.Formatter().Format(minor.IntPart())
	}
	return f.formatWide(d.Truncate(fraction), fraction)
}

// formatWide lays out amounts that do not fit int64 minor units using the
// same template, separators and grapheme as the go-money formatter.
func (f MoneyFormatter) formatWide(d decimal.Decimal, fraction int32) string {
	whole, part, _ := strings.Cut(d.Abs().StringFixed(fraction), ".")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteString(f.currency.Thousand)
		}
		b.WriteRune(r)
	}
	if part != "" {
		b.WriteString(f.currency.Decimal)
		b.WriteString(part)
	}
	out := strings.Replace(f.currency.Template, "1", b.String(), 1)
	out = strings.Replace(out, "$", f.currency.Grapheme, 1)
	if d.IsNegative() {
		out = "-" + out
	}
	return out
}
