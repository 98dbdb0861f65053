package importer

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/conciliar-dev/conciliar/internal/model"
)

// XLSXParser reads the first worksheet of an Excel workbook.
//
// Cells are read raw, so dates arrive as serial numbers and amounts without
// display formatting; the normalizer handles both.
type XLSXParser struct{}

// ErrNoSheets is returned for a workbook without worksheets.
var ErrNoSheets = errors.New("workbook has no sheets")

// Format returns the parser name.
func (p *XLSXParser) Format() string { return "xlsx" }

// Parse reads the first sheet of a workbook and returns its data rows.
func (p *XLSXParser) Parse(r io.Reader, layout Layout) ([]model.RawRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}

	records, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	return rowsFromRecords(records, layout), nil
}
