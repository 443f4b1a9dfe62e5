package renderer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// =============================================================================
// GERMAN NUMBER WORDS
// =============================================================================
//
// Receipts for tax purposes state the amount in words, e.g.
//   150,00   -> "Einhundertfünfzig Euro"
//   1.234,05 -> "Eintausendzweihundertvierunddreißig Euro und 05/100"
//
// Numbers below one million are written as one word. Millions and billions
// are separate, feminine nouns ("eine Million", "zwei Milliarden").

var germanOnes = [...]string{
	"null", "eins", "zwei", "drei", "vier", "fünf", "sechs", "sieben", "acht", "neun",
	"zehn", "elf", "zwölf", "dreizehn", "vierzehn", "fünfzehn", "sechzehn", "siebzehn", "achtzehn", "neunzehn",
}

var germanTens = [...]string{
	"", "", "zwanzig", "dreißig", "vierzig", "fünfzig", "sechzig", "siebzig", "achtzig", "neunzig",
}

// maxWordsValue is the largest number NumberToWords supports.
const maxWordsValue = 999_999_999_999

var germanUpper = cases.Upper(language.German)

// NumberToWords spells out n in German, lower case.
func NumberToWords(n int64) (string, error) {
	if n < 0 || n > maxWordsValue {
		return "", fmt.Errorf("number %d out of range for words", n)
	}
	if n == 0 {
		return germanOnes[0], nil
	}

	var parts []string

	if billions := n / 1_000_000_000; billions > 0 {
		parts = append(parts, largeUnit(billions, "Milliarde", "Milliarden"))
		n %= 1_000_000_000
	}
	if millions := n / 1_000_000; millions > 0 {
		parts = append(parts, largeUnit(millions, "Million", "Millionen"))
		n %= 1_000_000
	}
	if n > 0 {
		parts = append(parts, belowMillion(n))
	}

	return strings.Join(parts, " "), nil
}

// largeUnit writes "eine Million", "zwei Millionen", "einundzwanzig Millionen".
func largeUnit(count int64, singular, plural string) string {
	if count == 1 {
		return "eine " + singular
	}
	words := attributive(belowThousand(count))
	if strings.HasSuffix(words, "ein") {
		words += "e"
	}
	return words + " " + plural
}

func belowMillion(n int64) string {
	thousands, rest := n/1000, n%1000

	var b strings.Builder
	if thousands > 0 {
		b.WriteString(attributive(belowThousand(thousands)))
		b.WriteString("tausend")
	}
	if rest > 0 {
		b.WriteString(belowThousand(rest))
	}
	return b.String()
}

func belowThousand(n int64) string {
	hundreds, rest := n/100, n%100

	var b strings.Builder
	if hundreds > 0 {
		b.WriteString(attributive(germanOnes[hundreds]))
		b.WriteString("hundert")
	}
	if rest > 0 {
		b.WriteString(belowHundred(rest))
	}
	return b.String()
}

func belowHundred(n int64) string {
	if n < 20 {
		return germanOnes[n]
	}
	tens, unit := n/10, n%10
	if unit == 0 {
		return germanTens[tens]
	}
	return attributive(germanOnes[unit]) + "und" + germanTens[tens]
}

// attributive turns a trailing "eins" into "ein" ("einhundert", "einundzwanzig").
func attributive(words string) string {
	if strings.HasSuffix(words, "eins") {
		return strings.TrimSuffix(words, "s")
	}
	return words
}

// capitalize upper-cases the first letter only.
func capitalize(s string) string {
	_, size := utf8.DecodeRuneInString(s)
	return germanUpper.String(s[:size]) + s[size:]
}
