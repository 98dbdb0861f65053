package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// defaultSheet is the worksheet every new excelize workbook starts with.
const defaultSheet = "Sheet1"

// WriteXLSX renders sheets as a workbook, in order, to w.
func WriteXLSX(w io.Writer, sheets []Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("writing workbook: no sheets")
	}

	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, s.Name); err != nil {
				return fmt.Errorf("naming sheet %q: %w", s.Name, err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			return fmt.Errorf("creating sheet %q: %w", s.Name, err)
		}

		if err := writeRows(f, s, bold); err != nil {
			return fmt.Errorf("sheet %q: %w", s.Name, err)
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, s Sheet, headerStyle int) error {
	for i := range s.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(s.Name, cell, &s.Rows[i]); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	// Title line and column header line.
	for _, row := range []int{1, s.Header + 1} {
		if row > len(s.Rows) {
			continue
		}
		if err := f.SetRowStyle(s.Name, row, row, headerStyle); err != nil {
			return fmt.Errorf("styling row %d: %w", row, err)
		}
	}
	return nil
}
