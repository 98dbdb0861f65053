package importer

import (
	"strings"

	"github.com/conciliar-dev/conciliar/internal/model"
)

// absent marks a column the export does not carry.
const absent = -1

// Layout gives the zero-based column of each field in an export. Name labels
// the export in errors and Source tags its normalized records.
type Layout struct {
	Name        string
	Source      model.Source
	Direction   int
	Date        int
	Amount      int
	Description int
	ExternalID  int
	Category    int
	Status      int
}

// BankLayout reads bank statements: tipo, data, valor, descricao, id, checksum.
var BankLayout = Layout{
	Name:        "bank",
	Source:      model.SourceBank,
	Direction:   0,
	Date:        1,
	Amount:      2,
	Description: 3,
	ExternalID:  4,
	Category:    absent,
	Status:      absent,
}

// SystemLayout reads system exports: situacao, data, cliente ou fornecedor,
// categoria, valor, tipo.
var SystemLayout = Layout{
	Name:        "system",
	Source:      model.SourceSystem,
	Status:      0,
	Date:        1,
	Description: 2,
	Category:    3,
	Amount:      4,
	Direction:   5,
	ExternalID:  absent,
}

// Row maps one decoded record to a RawRow. Short records (trailing empty
// cells trimmed by the decoder) read as empty fields.
func (l Layout) Row(rec []string, line int) model.RawRow {
	return model.RawRow{
		Line:        line,
		Direction:   cell(rec, l.Direction),
		Date:        cell(rec, l.Date),
		Amount:      cell(rec, l.Amount),
		Description: cell(rec, l.Description),
		ExternalID:  cell(rec, l.ExternalID),
		Category:    cell(rec, l.Category),
		Status:      cell(rec, l.Status),
	}
}

func cell(rec []string, col int) string {
	if col < 0 || col >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[col])
}
