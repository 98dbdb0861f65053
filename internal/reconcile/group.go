package reconcile

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/conciliar-dev/conciliar/internal/model"
)

// DayGroup holds one day's transactions split by direction, in input order.
type DayGroup struct {
	Credits []model.Transaction
	Debits  []model.Transaction
}

// Totals are the derived sums and counts of a DayGroup.
type Totals struct {
	Credits     decimal.Decimal
	Debits      decimal.Decimal
	CreditCount int
	DebitCount  int
}

// Net returns credits minus debits.
func (t Totals) Net() decimal.Decimal {
	return t.Credits.Sub(t.Debits)
}

// Totals sums absolute amounts per direction. A nil group yields zeros.
func (g *DayGroup) Totals() Totals {
	t := Totals{Credits: decimal.Zero, Debits: decimal.Zero}
	if g == nil {
		return t
	}
	for _, c := range g.Credits {
		t.Credits = t.Credits.Add(c.AbsAmount())
	}
	for _, d := range g.Debits {
		t.Debits = t.Debits.Add(d.AbsAmount())
	}
	t.CreditCount = len(g.Credits)
	t.DebitCount = len(g.Debits)
	return t
}

// Groups maps "YYYY-MM-DD" to that day's transactions.
type Groups map[string]*DayGroup

// Dates returns the group keys in ascending order.
func (g Groups) Dates() []string {
	dates := make([]string, 0, len(g))
	for d := range g {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// GroupByDate partitions records by date, then by direction.
func GroupByDate(records []model.Transaction) Groups {
	groups := make(Groups)
	for _, r := range records {
		key := r.DateKey()
		g, ok := groups[key]
		if !ok {
			g = &DayGroup{}
			groups[key] = g
		}
		if r.IsCredit() {
			g.Credits = append(g.Credits, r)
		} else {
			g.Debits = append(g.Debits, r)
		}
	}
	return groups
}

// unionDates returns the sorted union of both groups' dates.
func unionDates(a, b Groups) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	dates := make([]string, 0, len(a)+len(b))
	for _, g := range []Groups{a, b} {
		for d := range g {
			if _, ok := seen[d]; ok {
				continue
			}
			seen[d] = struct{}{}
			dates = append(dates, d)
		}
	}
	sort.Strings(dates)
	return dates
}
