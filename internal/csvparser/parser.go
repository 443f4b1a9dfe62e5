// =============================================================================
// Donation Receipt Generator - CSV Parser Module
// =============================================================================
//
// This module reads the semicolon-delimited donation list:
//
//   LastName;FirstName;Street;PostalCodeAndCity;Amount;Date
//   # lines starting with '#' are comments
//   Mustermensch;Erika;Musterweg 1;12345 Musterstadt;50,00;01.01.2025
//
// FEATURES:
//   - Quote-aware splitting (encoding/csv), so "Weg 1; Hinterhaus" stays one field
//   - Comment and blank lines are skipped
//   - A UTF-8 byte order mark (common in Excel exports) is removed
//   - Legacy single-byte encodings are decoded before parsing
//
// The parser only splits rows. Column counts and field values are checked by
// the validation package so that one bad row never stops the others.
//
// =============================================================================

package csvparser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/ginjaninja78/donation-receipts/internal/config"
	"github.com/ginjaninja78/donation-receipts/internal/types"
)

// Delimiter separates the fields of a donation row.
const Delimiter = ';'

// CommentPrefix marks a line that is ignored.
const CommentPrefix = "#"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// =============================================================================
// PARSED DATA
// =============================================================================

// Data is the result of reading a donation list.
type Data struct {
	// Rows are the data rows in file order, comments and blank lines removed.
	Rows []types.Row

	// Issues are lines the CSV reader could not split (e.g. a stray quote).
	Issues []types.RowIssue
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a donation CSV file.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: Input settings; only Encoding is used.
//
// RETURNS:
//   - The raw rows.
//   - *types.FileNotFoundError if the file does not exist.
//   - *types.EncodingError if the content is not valid text in the encoding.
func Parse(filePath string, settings config.InputSettings) (*Data, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &types.FileNotFoundError{Path: filePath, Err: err}
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	text, err := decode(raw, config.NormalizeEncoding(settings.Encoding))
	if err != nil {
		var encErr *types.EncodingError
		if errors.As(err, &encErr) {
			encErr.Path = filePath
		}
		return nil, err
	}

	data, err := ParseReader(bytes.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return data, nil
}

// ParseReader splits already decoded UTF-8 text into rows.
func ParseReader(r io.Reader) (*Data, error) {
	text, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	csvReader := csv.NewReader(bytes.NewReader(blankComments(text)))
	configureReader(csvReader)

	data := &Data{}

	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				data.Issues = append(data.Issues, types.RowIssue{
					Row: parseErr.StartLine,
					Err: fmt.Errorf("row %d: %w", parseErr.StartLine, parseErr.Err),
				})
				continue
			}
			return nil, err
		}

		line, _ := csvReader.FieldPos(0)

		if isRowEmpty(record) {
			continue
		}

		data.Rows = append(data.Rows, types.Row{Number: line, Fields: record})
	}

	return data, nil
}

// configureReader sets up the CSV reader for donation lists.
func configureReader(reader *csv.Reader) {
	reader.Comma = Delimiter

	// Column counts are checked per row by the validation package.
	reader.FieldsPerRecord = -1

	// A stray quote inside a field is reported for that row only.
	reader.LazyQuotes = false
}

// =============================================================================
// ENCODING
// =============================================================================

// decode converts raw file content into UTF-8.
func decode(raw []byte, enc string) ([]byte, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)

	var decoder *encoding.Decoder
	switch enc {
	case "utf-8":
		if line := firstInvalidLine(raw); line > 0 {
			return nil, &types.EncodingError{Line: line, Encoding: "UTF-8"}
		}
		return raw, nil
	case "windows-1252":
		decoder = charmap.Windows1252.NewDecoder()
	case "iso-8859-1":
		decoder = charmap.ISO8859_1.NewDecoder()
	case "iso-8859-15":
		decoder = charmap.ISO8859_15.NewDecoder()
	default:
		return nil, fmt.Errorf("unsupported input encoding %q", enc)
	}

	text, err := decoder.Bytes(raw)
	if err != nil {
		return nil, &types.EncodingError{Line: 1, Encoding: enc}
	}
	return text, nil
}

// firstInvalidLine returns the 1-based line of the first invalid UTF-8
// sequence, or 0 if the content is valid.
func firstInvalidLine(raw []byte) int {
	if utf8.Valid(raw) {
		return 0
	}

	line := 1
	for i := 0; i < len(raw); {
		r, size := utf8.DecodeRune(raw[i:])
		if r == utf8.RuneError && size == 1 {
			return line
		}
		if r == '\n' {
			line++
		}
		i += size
	}
	return line
}

// =============================================================================
// ROW FILTERS
// =============================================================================

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// blankComments empties every comment line but keeps its line break, so the
// CSV reader skips it and still reports the original line numbers. Comment
// lines never reach the quote-checking reader.
func blankComments(text []byte) []byte {
	lines := bytes.SplitAfter(text, []byte("\n"))
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(string(line)), CommentPrefix) {
			lines[i] = []byte("\n")
		}
	}
	return bytes.Join(lines, nil)
}
