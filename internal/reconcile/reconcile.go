// Package reconcile compares normalized bank and system transactions.
//
// Everything here is a pure function of its inputs: Run groups both feeds by
// day, builds the daily summary and the per-origin detail, and computes the
// two bag differences (bank-only records to add to the system, system-only
// records to remove from it). Matching is exact on (date, direction, amount);
// day totals are compared with a one-cent Tolerance.
package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/conciliar-dev/conciliar/internal/model"
)

// Result is the output of one reconciliation run.
type Result struct {
	Summary    []DailySummary
	BankOnly   []model.Transaction // add to system
	SystemOnly []model.Transaction // remove from system
	Detail     []DetailRow
	Stats      Stats
}

// Stats are the run's headline numbers.
type Stats struct {
	Days                int
	ReconciledDays      int
	DaysWithDifferences int
	BankRecords         int
	SystemRecords       int
	MatchedBank         int
	MatchedSystem       int
	ToAdd               int
	ToRemove            int
	Rate                decimal.Decimal // percent of days reconciled, 0 when no days
}

// FullyReconciled reports whether every day balanced.
func (s Stats) FullyReconciled() bool {
	return s.DaysWithDifferences == 0
}

// Run reconciles bank against system. Empty inputs give an empty result.
func Run(bank, system []model.Transaction) Result {
	bankGroups := GroupByDate(bank)
	systemGroups := GroupByDate(system)

	res := Result{
		Summary:    BuildDailySummary(bankGroups, systemGroups),
		BankOnly:   DiffRecords(bank, system),
		SystemOnly: DiffRecords(system, bank),
		Detail:     BuildDetail(bankGroups, systemGroups),
	}
	res.Stats = computeStats(res, len(bank), len(system))
	return res
}

func computeStats(res Result, bankCount, systemCount int) Stats {
	s := Stats{
		Days:          len(res.Summary),
		BankRecords:   bankCount,
		SystemRecords: systemCount,
		ToAdd:         len(res.BankOnly),
		ToRemove:      len(res.SystemOnly),
		Rate:          decimal.Zero,
	}
	for _, d := range res.Summary {
		if d.Status == StatusReconciled {
			s.ReconciledDays++
		}
	}
	s.DaysWithDifferences = s.Days - s.ReconciledDays
	s.MatchedBank = bankCount - s.ToAdd
	s.MatchedSystem = systemCount - s.ToRemove
	if s.Days > 0 {
		s.Rate = decimal.NewFromInt(int64(s.ReconciledDays)).
			Mul(decimal.NewFromInt(100)).
			DivRound(decimal.NewFromInt(int64(s.Days)), 1)
	}
	return s
}
