package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/conciliar-dev/conciliar/internal/model"
)

// DiffHeader is the CSV header for the add/remove lists.
const DiffHeader = "date,direction,amount,description,external_id,category,status,line,action"

const (
	numDiffFields = 9
	colDate       = 0
	colDirection  = 1
	colAmount     = 2
	colDesc       = 3
	colExternalID = 4
	colCategory   = 5
	colStatus     = 6
	colLine       = 7
	colAction     = 8
)

// Diff file names written next to the workbook.
const (
	AddFileName    = "incluir_no_sistema.csv"
	RemoveFileName = "excluir_do_sistema.csv"
)

// WriteDiffCSV writes one discrepancy list (including header), tagging every
// row with action.
func WriteDiffCSV(w io.Writer, records []model.Transaction, action string) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(strings.Split(DiffHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, t := range records {
		if err := cw.Write(MarshalDiff(t, action)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalDiff converts a discrepancy to a CSV row.
func MarshalDiff(t model.Transaction, action string) []string {
	row := make([]string, numDiffFields)
	row[colDate] = t.DateKey()
	row[colDirection] = string(t.Direction)
	row[colAmount] = money(t.Amount)
	row[colDesc] = t.Description
	row[colExternalID] = t.ExternalID
	row[colCategory] = t.Category
	row[colStatus] = t.Status
	if t.Line > 0 {
		row[colLine] = strconv.Itoa(t.Line)
	}
	row[colAction] = action
	return row
}
