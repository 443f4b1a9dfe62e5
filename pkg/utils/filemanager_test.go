package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestSafeFileName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Mustermensch", "Mustermensch"},
		{"Müller-Lüdenscheidt", "Mueller-Luedenscheidt"},
		{"Straßburg", "Strassburg"},
		{"José María", "Jose_Maria"},
		{"O'Brien / Söhne", "O_Brien_Soehne"},
		{"  ", "unnamed"},
		{"../etc", "etc"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SafeFileName(tt.in))
		})
	}
}

func TestMoveFile(t *testing.T) {
	src := filepath.Join(t.TempDir(), "receipt.pdf")
	require.NoError(t, os.WriteFile(src, []byte("%PDF"), 0644))
	dstDir := filepath.Join(t.TempDir(), "out", "nested")

	dst, err := MoveFile(src, dstDir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dstDir, "receipt.pdf"), dst)
	assert.True(t, FileExists(dst))
	assert.False(t, FileExists(src))
}

func TestMoveFile_MissingSource(t *testing.T) {
	_, err := MoveFile(filepath.Join(t.TempDir(), "nope.pdf"), t.TempDir())
	assert.Error(t, err)
}

func TestNewWorkDir(t *testing.T) {
	parent := filepath.Join(t.TempDir(), "work")

	dir1, id1, err := NewWorkDir(parent)
	require.NoError(t, err)
	dir2, id2, err := NewWorkDir(parent)
	require.NoError(t, err)

	assert.NotEqual(t, dir1, dir2)
	assert.NotEqual(t, id1, id2)
	assert.True(t, strings.HasPrefix(filepath.Base(dir1), "receipts-"+id1[:8]))
	assert.DirExists(t, dir1)
}

func TestWriteErrorLog(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteErrorLog(nil, "spenden.csv", dir)
	require.NoError(t, err)
	assert.Empty(t, path, "no entries, no log")

	path, err = WriteErrorLog([]ErrorLogEntry{
		{Identifier: "row 4", ErrorType: "row", ErrorMessage: "invalid amount", RowNumber: 4},
		{Identifier: "Erika Mustermensch (row 1)", ErrorType: "compile", ErrorMessage: "exit status 1"},
	}, "spenden.csv", dir)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "Total Errors: 2")
	assert.Contains(t, content, "Input:     spenden.csv")
	assert.Contains(t, content, "Row Number:     4")
	assert.Contains(t, content, "Erika Mustermensch (row 1)")
	assert.Contains(t, content, "End of Error Log")
}

func TestWriteXLSXReport(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteXLSXReport(
		[]ReportEntry{
			{Document: "Erika Mustermensch (row 1)", Kind: "individual", Status: StatusCreated, Detail: "/out/a.pdf"},
			{Document: "collective receipt (2 donations)", Kind: "collective", Status: StatusFailed, Detail: "timeout"},
		},
		[]SkippedRow{{Row: 4, Reason: "row 4: invalid amount"}},
		dir,
	)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{ReceiptsSheet, SkippedRowsSheet}, f.GetSheetList())

	receipts, err := f.GetRows(ReceiptsSheet)
	require.NoError(t, err)
	require.Len(t, receipts, 3)
	assert.Equal(t, []string{"Document", "Kind", "Status", "Output / Reason"}, receipts[0])
	assert.Equal(t, "failed", receipts[2][2])

	skipped, err := f.GetRows(SkippedRowsSheet)
	require.NoError(t, err)
	require.Len(t, skipped, 2)
	assert.Equal(t, []string{"4", "row 4: invalid amount"}, skipped[1])
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", TruncateText("short", 10))
	assert.Equal(t, "abcd...", TruncateText("abcdefghij", 7))
	assert.Equal(t, "äöü", TruncateText("äöüß", 3))
}
