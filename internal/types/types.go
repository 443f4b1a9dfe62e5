// =============================================================================
// Donation Receipt Generator - Shared Types
// =============================================================================
//
// This package contains the data model shared by the pipeline stages. Types
// defined here are used by:
//   - csvparser / xlsxparser (Row)
//   - validation             (DonationRecord)
//   - aggregator             (AggregateSummary)
//   - renderer               (RenderedDocument)
//   - compiler / converter   (RunResult)
//
// Keeping them in one package avoids import cycles between the stages.
//
// =============================================================================

package types

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// INPUT ROWS
// =============================================================================

// Row is one raw, not yet validated data row of the input file.
type Row struct {
	// Number is the 1-based line (CSV) or row (XLSX) number in the input.
	Number int

	// Fields contains the cell values in column order, untrimmed.
	Fields []string
}

// RowIssue is a row that was skipped, with the reason.
type RowIssue struct {
	Row int
	Err error
}

// =============================================================================
// DONATION RECORD
// =============================================================================

// DonationRecord is a single validated donation.
// It is constructed by the validation package and never modified afterwards.
type DonationRecord struct {
	// RowNumber is the input row the record was read from.
	RowNumber int

	LastName       string
	FirstName      string
	Street         string
	PostalCityLine string

	// Amount is positive and carries at most two fractional digits.
	Amount decimal.Decimal

	// Date is the donation date at midnight UTC.
	Date time.Time
}

// DisplayName returns "First Last".
func (r DonationRecord) DisplayName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

// DonorKey identifies a donor independent of letter case.
func (r DonationRecord) DonorKey() string {
	return strings.ToLower(r.LastName) + "\x00" + strings.ToLower(r.FirstName)
}

// =============================================================================
// AGGREGATE SUMMARY
// =============================================================================

// AggregateSummary describes a set of donations certified by one collective
// receipt.
type AggregateSummary struct {
	TotalAmount decimal.Decimal
	RecordCount int

	// IssueDate is the date printed on the receipt. It is fixed at run start.
	IssueDate time.Time

	// Records are the aggregated donations ordered by date. Records with the
	// same date keep their input order.
	Records []DonationRecord

	FirstDate time.Time
	LastDate  time.Time

	// Donor is set only when all records belong to the same donor.
	Donor *DonationRecord
}

// =============================================================================
// RENDERED DOCUMENT
// =============================================================================

// DocumentKind distinguishes individual from collective receipts.
type DocumentKind string

const (
	KindIndividual DocumentKind = "individual"
	KindCollective DocumentKind = "collective"
)

// RenderedDocument is a filled template waiting to be compiled.
type RenderedDocument struct {
	Kind DocumentKind

	// SourceText is the complete compiler input.
	SourceText string

	// OutputBaseName is the file name of the result without extension.
	OutputBaseName string

	// Label identifies the document in summaries, e.g. "Erika Mustermensch (row 3)".
	Label string
}

// =============================================================================
// RUN RESULT
// =============================================================================

// Failure is one document or row that could not be processed.
type Failure struct {
	Identifier string
	Reason     string

	// Kind is "row", "template" or "compile".
	Kind string
}

// RunResult accumulates the outcome of a run.
type RunResult struct {
	Successes []string
	Failures  []Failure
}

// Succeeded returns a copy of r with path appended to the successes.
func (r RunResult) Succeeded(path string) RunResult {
	r.Successes = append(append([]string(nil), r.Successes...), path)
	return r
}

// Failed returns a copy of r with f appended to the failures.
func (r RunResult) Failed(f Failure) RunResult {
	r.Failures = append(append([]Failure(nil), r.Failures...), f)
	return r
}
