package renderer

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberToWords(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "null"},
		{1, "eins"},
		{16, "sechzehn"},
		{17, "siebzehn"},
		{21, "einundzwanzig"},
		{30, "dreißig"},
		{99, "neunundneunzig"},
		{100, "einhundert"},
		{101, "einhunderteins"},
		{150, "einhundertfünfzig"},
		{1000, "eintausend"},
		{1001, "eintausendeins"},
		{1234, "eintausendzweihundertvierunddreißig"},
		{21000, "einundzwanzigtausend"},
		{999999, "neunhundertneunundneunzigtausendneunhundertneunundneunzig"},
		{1_000_000, "eine Million"},
		{2_000_005, "zwei Millionen fünf"},
		{101_000_000, "einhunderteine Millionen"},
		{1_000_000_000, "eine Milliarde"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got, err := NumberToWords(tt.n)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNumberToWords_OutOfRange(t *testing.T) {
	_, err := NumberToWords(-1)
	assert.Error(t, err)

	_, err = NumberToWords(maxWordsValue + 1)
	assert.Error(t, err)
}

func TestFormatAmount(t *testing.T) {
	tests := map[string]string{
		"50":      "50,00",
		"0.5":     "0,50",
		"1234.56": "1.234,56",
		"1000000": "1.000.000,00",
		"99.99":   "99,99",
	}

	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, FormatAmount(decimal.RequireFromString(in)))
		})
	}
}

func TestFormatAmount_OutOfRange(t *testing.T) {
	amount := decimal.RequireFromString("184467440737095516.17")

	assert.Equal(t, "184467440737095516,17", FormatAmount(amount))

	_, err := AmountInWords(amount)
	assert.Error(t, err)
}

func TestAmountInWords(t *testing.T) {
	tests := map[string]string{
		"50":      "Fünfzig Euro",
		"150":     "Einhundertfünfzig Euro",
		"1234.05": "Eintausendzweihundertvierunddreißig Euro und 05/100",
		"0.99":    "Null Euro und 99/100",
		"1":       "Ein Euro",
		"101":     "Einhunderteins Euro",
		"1001":    "Eintausendeins Euro",
		"21":      "Einundzwanzig Euro",
	}

	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			got, err := AmountInWords(decimal.RequireFromString(in))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}
