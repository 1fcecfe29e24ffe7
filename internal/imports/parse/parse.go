// Package parse reads lead spreadsheets into header and row cells.
package parse

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/apperr"

	"github.com/xuri/excelize/v2"
)

// Format is a supported spreadsheet format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// MaxRows bounds the data rows of one file.
const MaxRows = 5000

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var delimiters = []rune{',', ';', '\t', '|'}

// Sheet is a parsed spreadsheet. Rows exclude the header and blank lines.
type Sheet struct {
	Headers []string
	Rows    [][]string
	// Lines holds the 1-based line of each row in the source file.
	Lines []int
}

// Line returns the source line of row i as a user sees it in the file.
func (s *Sheet) Line(i int) int {
	if i >= 0 && i < len(s.Lines) {
		return s.Lines[i]
	}
	return i + 2
}

// Cell returns the trimmed value at column idx, or "" when the row is short.
func (s *Sheet) Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// DetectFormat picks the parser from the file extension, then the content type.
func DetectFormat(fileName, contentType string) (Format, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv", ".txt", ".tsv":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	}

	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	switch ct {
	case "text/csv", "application/csv", "text/plain", "text/tab-separated-values":
		return FormatCSV, nil
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return FormatXLSX, nil
	}
	return "", apperr.Validation("unsupported file type: upload a .csv or .xlsx file")
}

// Read parses r in the given format.
func Read(format Format, r io.Reader) (*Sheet, error) {
	switch format {
	case FormatCSV:
		return ReadCSV(r)
	case FormatXLSX:
		return ReadXLSX(r)
	default:
		return nil, apperr.Validation(fmt.Sprintf("unsupported format %q", format))
	}
}

// ReadCSV strips a UTF-8 BOM, sniffs the delimiter on the header line and
// tolerates stray quotes.
func ReadCSV(r io.Reader) (*Sheet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(firstLine(data))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var records [][]string
	var lines []int
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperr.Validation(fmt.Sprintf("malformed csv: %v", err))
		}
		line, _ := reader.FieldPos(0)
		records = append(records, record)
		lines = append(lines, line)
	}
	return buildSheet(records, lines)
}

// ReadXLSX reads the first worksheet.
func ReadXLSX(r io.Reader) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperr.Validation("could not open spreadsheet: " + err.Error())
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperr.Validation("spreadsheet has no worksheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperr.Validation("could not read worksheet: " + err.Error())
	}
	lines := make([]int, len(rows))
	for i := range rows {
		lines[i] = i + 1
	}
	return buildSheet(rows, lines)
}

// buildSheet drops blank records. lines[i] is the source line of records[i].
func buildSheet(records [][]string, lines []int) (*Sheet, error) {
	headerIdx := -1
	for i, rec := range records {
		if !blank(rec) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, apperr.Validation("file is empty")
	}

	headers := trimTrailing(records[headerIdx])
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	rows := make([][]string, 0, len(records)-headerIdx-1)
	rowLines := make([]int, 0, cap(rows))
	for i := headerIdx + 1; i < len(records); i++ {
		if blank(records[i]) {
			continue
		}
		if len(rows) == MaxRows {
			return nil, apperr.Validation(fmt.Sprintf("file has more than %d rows", MaxRows))
		}
		rows = append(rows, trimTrailing(records[i]))
		rowLines = append(rowLines, lines[i])
	}
	return &Sheet{Headers: headers, Rows: rows, Lines: rowLines}, nil
}

func firstLine(data []byte) string {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return string(data[:i])
	}
	return string(data)
}

// sniffDelimiter counts candidates outside quotes and picks the most
// frequent, defaulting to a comma.
func sniffDelimiter(line string) rune {
	counts := make(map[rune]int, len(delimiters))
	inQuotes := false
	for _, r := range line {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if !inQuotes {
			counts[r]++
		}
	}

	best, bestCount := ',', 0
	for _, d := range delimiters {
		if counts[d] > bestCount {
			best, bestCount = d, counts[d]
		}
	}
	return best
}

func blank(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func trimTrailing(rec []string) []string {
	end := len(rec)
	for end > 0 && strings.TrimSpace(rec[end-1]) == "" {
		end--
	}
	return rec[:end]
}
