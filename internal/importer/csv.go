package importer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/conciliar-dev/conciliar/internal/model"
)

// CSVParser parses comma- or semicolon-separated exports with a header row.
type CSVParser struct{}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Format returns the parser name.
func (p *CSVParser) Format() string { return "csv" }

// Parse reads a CSV export and returns its data rows.
func (p *CSVParser) Parse(r io.Reader, layout Layout) ([]model.RawRow, error) {
	br := bufio.NewReader(r)
	if bom, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(bom, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.Comma = sniffDelimiter(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	return rowsFromRecords(records, layout), nil
}

// sniffDelimiter chooses ';' when the header line has more semicolons than commas.
func sniffDelimiter(br *bufio.Reader) rune {
	// Peek returns what is available when the input is shorter.
	head, _ := br.Peek(4096)
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	if bytes.Count(head, []byte{';'}) > bytes.Count(head, []byte{','}) {
		return ';'
	}
	return ','
}
