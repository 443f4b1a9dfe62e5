package renderer

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var germanPrinter = message.NewPrinter(language.German)

// splitEuro returns whole euros and cents of an amount rounded to cents.
// It fails for amounts that do not fit in int64 cents.
func splitEuro(amount decimal.Decimal) (int64, int64, error) {
	shifted := amount.Round(2).Shift(2)
	if !shifted.BigInt().IsInt64() {
		return 0, 0, fmt.Errorf("amount %s out of range", amount.StringFixed(2))
	}
	cents := shifted.IntPart()
	return cents / 100, cents % 100, nil
}

// FormatAmount renders an amount in German notation: 1.234,56
// Amounts beyond int64 cents are written without grouping.
func FormatAmount(amount decimal.Decimal) string {
	euros, cents, err := splitEuro(amount)
	if err != nil {
		return strings.Replace(amount.StringFixed(2), ".", ",", 1)
	}
	return fmt.Sprintf("%s,%02d", germanPrinter.Sprintf("%d", euros), cents)
}

// AmountInWords spells out an amount the way German receipts do:
//
//	"Fünfzig Euro"
//	"Eintausendzweihundertvierunddreißig Euro und 56/100"
func AmountInWords(amount decimal.Decimal) (string, error) {
	euros, cents, err := splitEuro(amount)
	if err != nil {
		return "", err
	}

	words, err := NumberToWords(euros)
	if err != nil {
		return "", err
	}

	// "Ein Euro", but "Einhunderteins Euro"
	if euros == 1 {
		words = attributive(words)
	}

	var b strings.Builder
	b.WriteString(capitalize(words))
	b.WriteString(" Euro")
	if cents != 0 {
		fmt.Fprintf(&b, " und %02d/100", cents)
	}
	return b.String(), nil
}
