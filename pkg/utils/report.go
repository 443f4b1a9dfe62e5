package utils

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
)

// =============================================================================
// XLSX RUN REPORT
// =============================================================================
//
// The run report is a workbook with two sheets:
//
//   Receipts      one line per document: label, kind, status, output or reason
//   Skipped Rows  one line per invalid input row: row number, error
//
// =============================================================================

const (
	ReceiptsSheet    = "Receipts"
	SkippedRowsSheet = "Skipped Rows"
)

// Document statuses used in the report.
const (
	StatusCreated = "created"
	StatusFailed  = "failed"
)

// ReportEntry is one document of a run.
type ReportEntry struct {
	Document string
	Kind     string
	Status   string

	// Detail is the output path for created documents and the reason otherwise.
	Detail string
}

// SkippedRow is one input row that was not turned into a receipt.
type SkippedRow struct {
	Row    int
	Reason string
}

// WriteXLSXReport writes the run report workbook into outputDir.
//
// RETURNS:
//   - The path to the report file.
//   - An error if the workbook cannot be built or saved.
func WriteXLSXReport(entries []ReportEntry, skipped []SkippedRow, outputDir string) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	// The default sheet is renamed instead of adding a new one.
	if err := f.SetSheetName(f.GetSheetName(0), ReceiptsSheet); err != nil {
		return "", fmt.Errorf("failed to prepare report: %w", err)
	}
	if _, err := f.NewSheet(SkippedRowsSheet); err != nil {
		return "", fmt.Errorf("failed to prepare report: %w", err)
	}

	receipts := [][]interface{}{{"Document", "Kind", "Status", "Output / Reason"}}
	for _, e := range entries {
		receipts = append(receipts, []interface{}{e.Document, e.Kind, e.Status, e.Detail})
	}
	if err := writeRows(f, ReceiptsSheet, receipts); err != nil {
		return "", err
	}

	rows := [][]interface{}{{"Row", "Error"}}
	for _, s := range skipped {
		rows = append(rows, []interface{}{s.Row, s.Reason})
	}
	if err := writeRows(f, SkippedRowsSheet, rows); err != nil {
		return "", err
	}

	path := filepath.Join(outputDir, fmt.Sprintf("report_%s.xlsx", time.Now().Format("20060102_150405")))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save report: %w", err)
	}

	return path, nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
