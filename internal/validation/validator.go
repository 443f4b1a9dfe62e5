// =============================================================================
// Donation Receipt Generator - Validation Engine
// =============================================================================
//
// This module turns raw input rows into DonationRecords.
//
// VALIDATION ORDER (first failure wins):
//   1. Column count must be exactly 6          -> RowFormatError
//   2. Name, street and city must be non-empty -> FieldError
//   3. Amount must be a positive euro amount   -> AmountParseError
//   4. Date must be a valid calendar date      -> DateParseError
//
// ERROR HANDLING:
//   - Errors are collected, not returned immediately
//   - A failing row is skipped; the following rows are still validated
//   - Each error carries the input row number for the run summary
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/donation-receipts/internal/types"
)

// Column positions of a donation row.
const (
	colLastName = iota
	colFirstName
	colStreet
	colPostalCity
	colAmount
	colDate
)

// fieldNames are used in FieldError messages.
var fieldNames = [...]string{
	colLastName:   "LastName",
	colFirstName:  "FirstName",
	colStreet:     "Street",
	colPostalCity: "PostalCodeAndCity",
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// Result contains the outcome of validating all rows.
type Result struct {
	// Records are the valid donations in input order.
	Records []types.DonationRecord

	// Issues are the skipped rows in input order.
	Issues []types.RowIssue
}

// =============================================================================
// VALIDATOR
// =============================================================================

// ValidateRows validates every row and keeps going after failures.
func ValidateRows(rows []types.Row) Result {
	var result Result

	for _, row := range rows {
		record, err := ValidateRow(row)
		if err != nil {
			result.Issues = append(result.Issues, types.RowIssue{Row: row.Number, Err: err})
			continue
		}
		result.Records = append(result.Records, record)
	}

	return result
}

// ValidateRow converts a single raw row into a DonationRecord.
//
// RETURNS:
//   - The record.
//   - One of *types.RowFormatError, *types.FieldError,
//     *types.AmountParseError or *types.DateParseError.
func ValidateRow(row types.Row) (types.DonationRecord, error) {
	if len(row.Fields) != types.ExpectedColumns {
		return types.DonationRecord{}, &types.RowFormatError{
			Row:      row.Number,
			Expected: types.ExpectedColumns,
			Actual:   len(row.Fields),
		}
	}

	fields := make([]string, len(row.Fields))
	for i, f := range row.Fields {
		fields[i] = strings.TrimSpace(f)
	}

	for col := colLastName; col <= colPostalCity; col++ {
		if fields[col] == "" {
			return types.DonationRecord{}, &types.FieldError{Row: row.Number, Field: fieldNames[col]}
		}
	}

	amount, err := ParseAmount(fields[colAmount])
	if err != nil {
		return types.DonationRecord{}, &types.AmountParseError{
			Row:    row.Number,
			Value:  fields[colAmount],
			Reason: err.Error(),
		}
	}

	date, err := ParseDate(fields[colDate])
	if err != nil {
		return types.DonationRecord{}, &types.DateParseError{Row: row.Number, Value: fields[colDate]}
	}

	return types.DonationRecord{
		RowNumber:      row.Number,
		LastName:       fields[colLastName],
		FirstName:      fields[colFirstName],
		Street:         fields[colStreet],
		PostalCityLine: fields[colPostalCity],
		Amount:         amount,
		Date:           date,
	}, nil
}

// =============================================================================
// ERROR FORMATTING
// =============================================================================

// FormatIssues formats skipped rows for display.
func FormatIssues(issues []types.RowIssue) string {
	if len(issues) == 0 {
		return "No invalid rows."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("%d row(s) skipped:\n", len(issues)))
	for _, issue := range issues {
		builder.WriteString(fmt.Sprintf("  - %s\n", issue.Err))
	}
	return builder.String()
}
