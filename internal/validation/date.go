package validation

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the canonical day.month.year form used in receipts.
const DateLayout = "02.01.2006"

// dateLayouts are tried in order. Single-digit days and months are accepted.
var dateLayouts = []string{
	"2.1.2006",
	"2.1.06",
	"2006-01-02",
}

var errInvalidDate = errors.New("invalid date")

// ParseDate parses a day.month.year date. Impossible calendar dates such as
// 31.02.2025 are rejected.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, errInvalidDate
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errInvalidDate
}

// FormatDate renders t as DD.MM.YYYY.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
