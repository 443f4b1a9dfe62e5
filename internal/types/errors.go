package types

import (
	"errors"
	"fmt"
)

// =============================================================================
// ROW-LEVEL ERRORS
// =============================================================================
// Row errors are recorded and the row is skipped. They never stop a run.

// ExpectedColumns is the number of fields in a donation row:
// LastName;FirstName;Street;PostalCodeAndCity;Amount;Date
const ExpectedColumns = 6

// RowFormatError reports a row with the wrong number of columns.
type RowFormatError struct {
	Row      int
	Expected int
	Actual   int
}

func (e *RowFormatError) Error() string {
	return fmt.Sprintf("row %d: expected %d columns, got %d", e.Row, e.Expected, e.Actual)
}

// AmountParseError reports an amount that is not a positive money value.
type AmountParseError struct {
	Row    int
	Value  string
	Reason string
}

func (e *AmountParseError) Error() string {
	return fmt.Sprintf("row %d: invalid amount %q: %s", e.Row, e.Value, e.Reason)
}

// DateParseError reports a date that is not a valid day.month.year.
type DateParseError struct {
	Row   int
	Value string
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("row %d: invalid date %q (expected DD.MM.YYYY)", e.Row, e.Value)
}

// FieldError reports a required text field that is empty.
type FieldError struct {
	Row   int
	Field string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("row %d: field %s is empty", e.Row, e.Field)
}

// =============================================================================
// DOCUMENT-LEVEL ERRORS
// =============================================================================

// TemplateFieldError reports a placeholder without a matching data field.
type TemplateFieldError struct {
	Template    string
	Placeholder string
}

func (e *TemplateFieldError) Error() string {
	return fmt.Sprintf("template %s: no value for placeholder <<%s>>", e.Template, e.Placeholder)
}

// CompileError reports a failed compiler invocation for one document.
type CompileError struct {
	Document   string
	ExitCode   int
	TimedOut   bool
	Diagnostic string
	Err        error
}

func (e *CompileError) Error() string {
	var msg string
	switch {
	case e.TimedOut:
		msg = fmt.Sprintf("compiling %s timed out", e.Document)
	case e.ExitCode != 0:
		msg = fmt.Sprintf("compiling %s failed with exit code %d", e.Document, e.ExitCode)
	case e.Err != nil:
		msg = fmt.Sprintf("compiling %s failed: %v", e.Document, e.Err)
	default:
		msg = fmt.Sprintf("compiling %s failed", e.Document)
	}
	if e.Diagnostic != "" {
		msg += ": " + e.Diagnostic
	}
	return msg
}

func (e *CompileError) Unwrap() error { return e.Err }

// =============================================================================
// RUN-LEVEL ERRORS
// =============================================================================
// These abort the run because there is nothing left to process.

// FileNotFoundError reports a missing input file.
type FileNotFoundError struct {
	Path string
	Err  error
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("input file not found: %s", e.Path)
}

func (e *FileNotFoundError) Unwrap() error { return e.Err }

// EncodingError reports input that is not valid text in the expected encoding.
type EncodingError struct {
	Path     string
	Line     int
	Encoding string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("%s: line %d is not valid %s text", e.Path, e.Line, e.Encoding)
}

// ErrNoValidRecords is returned when the input contains no usable donation.
var ErrNoValidRecords = errors.New("no valid donation records found")
