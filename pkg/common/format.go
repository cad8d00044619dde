package common

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatCurrency renders an amount with thousands grouping and 2 decimals.
func FormatCurrency(d decimal.Decimal) string {
	return printer.Sprintf("%.2f", d.InexactFloat64())
}

// FormatGrams renders a weight with 3 decimals.
func FormatGrams(d decimal.Decimal) string {
	return printer.Sprintf("%.3f", d.InexactFloat64())
}

// Decimal converts a stored float column into a decimal, coercing garbage to zero.
func Decimal(v float64) decimal.Decimal {
	return decimal.NewFromFloat(ToFloat(v))
}
