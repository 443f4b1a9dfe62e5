// =============================================================================
// Donation Receipt Generator - XLSX Input Module
// =============================================================================
//
// Donation lists are often kept in a spreadsheet. This module reads an .xlsx
// workbook with the same column layout as the CSV input:
//
//   | A        | B         | C      | D               | E      | F     |
//   |----------|-----------|--------|-----------------|--------|-------|
//   | LastName | FirstName | Street | PostalCode City | Amount | Date  |
//
// Rows are returned as raw types.Row values so the validation package treats
// both input formats identically. Rows whose first cell starts with '#' and
// empty rows are skipped.
//
// DATE CELLS:
//   Cells formatted as dates are stored as Excel serial numbers. They are
//   converted to DD.MM.YYYY text so the date validation sees one format.
//
// =============================================================================

package xlsxparser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/donation-receipts/internal/types"
)

// dateColumn is the zero-based index of the donation date.
const dateColumn = 5

// IsWorkbook reports whether the path names an Excel workbook.
func IsWorkbook(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return true
	}
	return false
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads the donation rows from a workbook.
//
// PARAMETERS:
//   - path: The path to the .xlsx file.
//   - sheet: The worksheet name. Empty selects the first sheet.
//
// RETURNS:
//   - The raw rows, 1-based row numbers as shown in Excel.
//   - *types.FileNotFoundError if the file does not exist.
//   - An error if the workbook or sheet cannot be read.
func Parse(path, sheet string) ([]types.Row, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, &types.FileNotFoundError{Path: path, Err: err}
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
		if sheet == "" {
			return nil, fmt.Errorf("workbook %s has no sheets", path)
		}
	}

	// Raw values keep amounts unformatted and dates as serial numbers.
	rawRows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	rows := make([]types.Row, 0, len(rawRows))
	for i, cells := range rawRows {
		if isRowEmpty(cells) || isComment(cells) {
			continue
		}

		fields := append([]string(nil), cells...)
		if len(fields) > dateColumn {
			fields[dateColumn] = serialToDate(fields[dateColumn])
		}

		rows = append(rows, types.Row{Number: i + 1, Fields: fields})
	}

	return rows, nil
}

// serialToDate converts an Excel date serial into DD.MM.YYYY. Values that
// are not plain numbers are returned unchanged.
func serialToDate(value string) string {
	serial, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || serial <= 0 {
		return value
	}

	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return value
	}
	return t.Format("02.01.2006")
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func isComment(row []string) bool {
	return len(row) > 0 && strings.HasPrefix(strings.TrimSpace(row[0]), "#")
}
