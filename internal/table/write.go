package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// DefaultSheet is the sheet name used when none is given.
const DefaultSheet = "Sheet1"

// Sheet pairs a table with the worksheet name it is written to.
type Sheet struct {
	Name  string
	Table *Table
}

// WriteXLSX writes t as a one-sheet workbook: a header row followed by the
// data rows, in column order.
func WriteXLSX(w io.Writer, t *Table, sheet string) error {
	return WriteWorkbook(w, []Sheet{{Name: sheet, Table: t}})
}

// WriteWorkbook writes each table to its own worksheet, in order.
func WriteWorkbook(w io.Writer, sheets []Sheet) error {
	if len(sheets) == 0 {
		return errors.New("write workbook: no sheets")
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		name := s.Name
		if name == "" {
			name = fmt.Sprintf("Sheet%d", i+1)
		}

		if i == 0 {
			if name != DefaultSheet {
				if err := f.SetSheetName(DefaultSheet, name); err != nil {
					return fmt.Errorf("rename sheet: %w", err)
				}
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("add sheet %q: %w", name, err)
		}

		if err := writeSheet(f, name, s.Table); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, t *Table) error {
	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		vals := make([]any, len(t.Columns))
		copy(vals, r.Values)
		if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	return nil
}

// WriteCSV writes t as CSV with a header row.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	rec := make([]string, len(t.Columns))
	for i, r := range t.Rows {
		for j := range rec {
			rec[j] = Text(r.Cell(j))
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
