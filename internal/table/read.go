package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Format identifies a supported input/output serialization.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// ParseError reports an input that could not be read as a table.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("parse input: %v", e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var errNoHeader = errors.New("no header row")

// FormatFromName picks a format from a file extension.
func FormatFromName(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv", ".txt":
		return FormatCSV, nil
	default:
		return "", &ParseError{Source: name, Err: fmt.Errorf("unsupported file type %q (want .xlsx or .csv)", filepath.Ext(name))}
	}
}

// ReadFile opens path and reads it in the format implied by its extension.
func ReadFile(path string) (*Table, error) {
	format, err := FormatFromName(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Source: path, Err: err}
	}
	defer f.Close()

	t, err := Read(f, format)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) && pe.Source == "" {
			pe.Source = path
		}
		return nil, err
	}
	return t, nil
}

// Read parses r as a table. The first row is the header.
func Read(r io.Reader, format Format) (*Table, error) {
	switch format {
	case FormatXLSX:
		return readXLSX(r)
	case FormatCSV:
		return readCSV(r)
	default:
		return nil, &ParseError{Err: fmt.Errorf("unsupported format %q", format)}
	}
}

// readXLSX reads the first sheet of a workbook. Cells are typed from the
// stored value, not the displayed text: numbers keep full precision
// whatever their number format, and text cells stay strings even when they
// look numeric.
func readXLSX(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &ParseError{Err: fmt.Errorf("open workbook: %w", err)}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Err: errors.New("workbook has no sheets")}
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &ParseError{Err: fmt.Errorf("read sheet %q: %w", sheet, err)}
	}

	return fromRecords(rows, func(row, col int, raw string) any {
		return xlsxValue(f, sheet, row, col, raw)
	})
}

// xlsxValue converts the raw stored value of the cell at the 0-based
// (row, col) using the cell type recorded in the sheet.
func xlsxValue(f *excelize.File, sheet string, row, col int, raw string) any {
	if raw == "" {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return raw
	}
	typ, err := f.GetCellType(sheet, cell)
	if err != nil {
		return raw
	}

	switch typ {
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true")
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		// Cells without a type attribute are numbers.
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
		return raw
	default:
		return raw
	}
}

// readCSV reads a CSV stream. A UTF-8 or UTF-16 byte order mark selects the
// decoding; input without one is treated as UTF-8.
func readCSV(r io.Reader) (*Table, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())

	cr := csv.NewReader(transform.NewReader(r, dec))
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, &ParseError{Err: fmt.Errorf("csv read: %w", err)}
	}

	return fromRecords(records, func(_, _ int, raw string) any { return ParseValue(raw) })
}

// fromRecords builds a table from a header record followed by data records.
// value converts the cell at the 0-based record and column index. Short
// records are padded with nil; cells beyond the header are dropped.
func fromRecords(records [][]string, value func(row, col int, raw string) any) (*Table, error) {
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, &ParseError{Err: errNoHeader}
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		if i == 0 {
			h = strings.TrimPrefix(h, "\uFEFF")
		}
		header[i] = strings.TrimSpace(h)
	}

	t := New(header)
	for i, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		vals := make([]any, len(header))
		for j := range header {
			if j < len(rec) {
				vals[j] = value(i+1, j, rec[j])
			}
		}
		t.Rows = append(t.Rows, Row{Values: vals, Line: i + 1})
	}
	return t, nil
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
