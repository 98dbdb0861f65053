package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/conciliar-dev/conciliar/internal/model"
)

// DetailKind labels a detail row's scope. Only day totals are produced.
const DetailKind = "TOTAL"

// DetailRow summarizes one feed's totals for one day.
type DetailRow struct {
	Date        string
	Origin      model.Source
	Kind        string
	Count       int
	CreditCount int
	DebitCount  int
	CreditTotal decimal.Decimal
	DebitTotal  decimal.Decimal
	Status      Status
}

// BuildDetail emits, per date, a bank reference row followed by a system row
// whose status flags credit or debit totals that differ by more than Tolerance.
func BuildDetail(bank, system Groups) []DetailRow {
	dates := unionDates(bank, system)
	out := make([]DetailRow, 0, 2*len(dates))
	for _, d := range dates {
		b := bank[d].Totals()
		s := system[d].Totals()

		status := StatusReconciled
		if s.Credits.Sub(b.Credits).Abs().GreaterThan(Tolerance) ||
			s.Debits.Sub(b.Debits).Abs().GreaterThan(Tolerance) {
			status = StatusDifferences
		}

		out = append(out,
			detailRow(d, model.SourceBank, b, StatusReference),
			detailRow(d, model.SourceSystem, s, status),
		)
	}
	return out
}

func detailRow(date string, origin model.Source, t Totals, status Status) DetailRow {
	return DetailRow{
		Date:        date,
		Origin:      origin,
		Kind:        DetailKind,
		Count:       t.CreditCount + t.DebitCount,
		CreditCount: t.CreditCount,
		DebitCount:  t.DebitCount,
		CreditTotal: t.Credits,
		DebitTotal:  t.Debits,
		Status:      status,
	}
}
