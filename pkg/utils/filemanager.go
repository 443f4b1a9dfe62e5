// =============================================================================
// Donation Receipt Generator - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the generator:
//   - Directory management
//   - Moving compiled receipts into the output directory
//   - Safe output file names
//   - Error log generation
//
// PLACEMENT STRATEGY:
//   - Receipts are compiled in a per-run work directory
//   - Finished files are moved into the output directory (rename, falling back
//     to copy and delete when the directories are on different devices)
//   - The error log is created in the output directory when anything failed
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDir creates dir and its parents if they don't exist.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// NewWorkDir creates a fresh, uniquely named work directory for one run.
//
// PARAMETERS:
//   - parent: The directory to create it in. Empty means the system temp dir.
//
// RETURNS:
//   - The work directory path and the run id used in its name.
func NewWorkDir(parent string) (string, string, error) {
	if parent != "" {
		if err := EnsureDir(parent); err != nil {
			return "", "", err
		}
	}

	runID := uuid.New().String()
	dir, err := os.MkdirTemp(parent, "receipts-"+runID[:8]+"-")
	if err != nil {
		return "", "", fmt.Errorf("failed to create work directory: %w", err)
	}
	return dir, runID, nil
}

// =============================================================================
// FILE PLACEMENT
// =============================================================================

// MoveFile moves src into dstDir, keeping the file name.
//
// RETURNS:
//   - The new path of the file.
//   - An error if the file could not be moved.
func MoveFile(src, dstDir string) (string, error) {
	if err := EnsureDir(dstDir); err != nil {
		return "", err
	}

	dst := filepath.Join(dstDir, filepath.Base(src))

	if err := os.Rename(src, dst); err != nil {
		// If rename fails (e.g., cross-device), try copy and delete.
		if err := copyFile(src, dst); err != nil {
			return "", fmt.Errorf("failed to copy %s: %w", filepath.Base(src), err)
		}
		if err := os.Remove(src); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}

	return dst, nil
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

var (
	umlauts = strings.NewReplacer(
		"ä", "ae", "ö", "oe", "ü", "ue",
		"Ä", "Ae", "Ö", "Oe", "Ü", "Ue",
		"ß", "ss",
	)

	unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)
)

// SafeFileName turns a name into a portable file name component.
//
// EXAMPLE:
//   "Müller-Lüdenscheidt" -> "Mueller-Luedenscheidt"
//   "José María"          -> "Jose_Maria"
//   "O'Brien / Söhne"     -> "O_Brien_Soehne"
func SafeFileName(name string) string {
	name = umlauts.Replace(strings.TrimSpace(name))

	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(stripMarks, name); err == nil {
		name = folded
	}

	name = strings.Trim(unsafeChars.ReplaceAllString(name, "_"), "_")
	if name == "" {
		return "unnamed"
	}
	return name
}

// =============================================================================
// ERROR LOG GENERATION
// =============================================================================

// ErrorLogEntry represents a single error log entry.
type ErrorLogEntry struct {
	Identifier   string
	ErrorType    string
	ErrorMessage string
	RowNumber    int
}

// WriteErrorLog writes error entries to a log file.
//
// PARAMETERS:
//   - entries: The error entries to write.
//   - inputFile: The input the run processed, named in the header.
//   - outputDir: The directory to write the log file.
//
// RETURNS:
//   - The path to the error log file, empty when there was nothing to log.
//   - An error if writing fails.
func WriteErrorLog(entries []ErrorLogEntry, inputFile, outputDir string) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	now := time.Now()
	logPath := filepath.Join(outputDir, fmt.Sprintf("error_log_%s.txt", now.Format("20060102_150405")))

	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create error log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "Donation Receipt Generator - Error Log\n"+
		"Generated: %s\n"+
		"Input:     %s\n"+
		"Total Errors: %d\n"+
		"================================================================================\n\n",
		now.Format("2006-01-02 15:04:05"),
		inputFile,
		len(entries))

	for i, entry := range entries {
		fmt.Fprintf(writer, "Error #%d\n"+
			"  Document:       %s\n"+
			"  Error Type:     %s\n"+
			"  Message:        %s\n",
			i+1,
			entry.Identifier,
			entry.ErrorType,
			entry.ErrorMessage)

		if entry.RowNumber > 0 {
			fmt.Fprintf(writer, "  Row Number:     %d\n", entry.RowNumber)
		}
		writer.WriteString("\n")
	}

	writer.WriteString("================================================================================\n" +
		"End of Error Log\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush error log: %w", err)
	}

	return logPath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	_, err = io.Copy(destFile, sourceFile)
	if err != nil {
		return err
	}

	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// TruncateText shortens s to at most limit runes, marking the cut with "...".
func TruncateText(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit <= 3 {
		return string(r[:limit])
	}
	return string(r[:limit-3]) + "..."
}
