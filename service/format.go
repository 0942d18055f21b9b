package service

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var displayPrinter = message.NewPrinter(language.English)

// FormatCurrency renders amount as "<CODE> $1,234.56". The currency code is a
// label; no conversion takes place.
func FormatCurrency(amount float64, currency string) string {
	return fmt.Sprintf("%s $%s", currency, displayPrinter.Sprintf("%.2f", amount))
}

// ParseCurrency reverses FormatCurrency, returning the code and the amount.
func ParseCurrency(formatted string) (string, float64, error) {
	code, amount, ok := strings.Cut(formatted, " $")
	if !ok || code == "" {
		return "", 0, fmt.Errorf("parse currency %q: missing code prefix", formatted)
	}

	d, err := decimal.NewFromString(strings.ReplaceAll(amount, ",", ""))
	if err != nil {
		return "", 0, fmt.Errorf("parse currency %q: %w", formatted, err)
	}

	return code, d.InexactFloat64(), nil
}

// percent converts a fraction to a percentage rounded to two decimals.
func percent(fraction float64) float64 {
	return decimal.NewFromFloat(fraction).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}
