package validation

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT PARSING
// =============================================================================
//
// Accepted forms (all yield the same value):
//   50,00   50.00   50   50,-   € 50,00   50,00 EUR
//   1.234,56   1,234.56   1234,56   1.234.567
//
// When both ',' and '.' appear, the right-most one is the decimal separator
// and the other one must group thousands. A single separator is always
// decimal unless it repeats (1.234.567).

var (
	errAmountEmpty     = errors.New("amount is empty")
	errAmountNotNumber = errors.New("not a number")
	errAmountGrouping  = errors.New("misplaced thousands separator")
	errAmountPrecision = errors.New("more than two decimal places")
	errAmountPositive  = errors.New("amount must be greater than zero")
	errAmountTooLarge  = errors.New("amount too large")
)

// MaxAmount is the largest amount a receipt can state, in figures and in words.
var MaxAmount = decimal.New(999_999_999_999, 0)

var (
	digitsPattern = regexp.MustCompile(`^[0-9]+$`)

	groupedDot   = regexp.MustCompile(`^[0-9]{1,3}(\.[0-9]{3})+$`)
	groupedComma = regexp.MustCompile(`^[0-9]{1,3}(,[0-9]{3})+$`)
)

// ParseAmount parses a euro amount written with either decimal separator.
// The result is positive and has at most two fractional digits.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := stripCurrency(raw)
	if s == "" {
		return decimal.Zero, errAmountEmpty
	}

	// "50,-" is a common way of writing whole euros.
	s = strings.TrimSuffix(strings.TrimSuffix(s, ",-"), ".-")

	intPart, fracPart, err := splitAmount(s)
	if err != nil {
		return decimal.Zero, err
	}

	if !digitsPattern.MatchString(intPart) {
		return decimal.Zero, errAmountNotNumber
	}
	if fracPart != "" && !digitsPattern.MatchString(fracPart) {
		return decimal.Zero, errAmountNotNumber
	}
	if len(fracPart) > 2 {
		return decimal.Zero, errAmountPrecision
	}

	normalized := intPart
	if fracPart != "" {
		normalized += "." + fracPart
	}

	amount, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, errAmountNotNumber
	}
	if !amount.IsPositive() {
		return decimal.Zero, errAmountPositive
	}
	if amount.Truncate(0).GreaterThan(MaxAmount) {
		return decimal.Zero, errAmountTooLarge
	}

	return amount, nil
}

// splitAmount separates the integer digits from the fraction digits and
// removes thousands separators.
func splitAmount(s string) (string, string, error) {
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma < 0 && lastDot < 0:
		return s, "", nil

	case lastComma >= 0 && lastDot >= 0:
		decimalAt, grouping := lastComma, groupedDot
		if lastDot > lastComma {
			decimalAt, grouping = lastDot, groupedComma
		}
		intPart := s[:decimalAt]
		if !grouping.MatchString(intPart) {
			return "", "", errAmountGrouping
		}
		return stripSeparators(intPart), s[decimalAt+1:], requireFraction(s[decimalAt+1:])

	default:
		sep := ","
		if lastDot >= 0 {
			sep = "."
		}
		if strings.Count(s, sep) == 1 {
			i := strings.Index(s, sep)
			return s[:i], s[i+1:], requireFraction(s[i+1:])
		}
		grouping := groupedComma
		if sep == "." {
			grouping = groupedDot
		}
		if !grouping.MatchString(s) {
			return "", "", errAmountGrouping
		}
		return stripSeparators(s), "", nil
	}
}

func requireFraction(frac string) error {
	if frac == "" {
		return errAmountNotNumber
	}
	return nil
}

func stripSeparators(s string) string {
	return strings.NewReplacer(".", "", ",", "").Replace(s)
}

// stripCurrency removes surrounding whitespace and a leading or trailing
// euro marker.
func stripCurrency(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimSpace(strings.TrimPrefix(s, "€"))
	s = strings.TrimSpace(strings.TrimSuffix(s, "€"))
	if upper := strings.ToUpper(s); strings.HasSuffix(upper, "EUR") {
		s = strings.TrimSpace(s[:len(s)-3])
	} else if strings.HasPrefix(upper, "EUR") {
		s = strings.TrimSpace(s[3:])
	}
	return s
}
