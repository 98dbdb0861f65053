package reconcile

import (
	"github.com/shopspring/decimal"
)

// Status is the reconciliation verdict for a day or detail row.
type Status string

const (
	StatusReconciled  Status = "CONCILIADO"
	StatusDifferences Status = "COM DIFERENÇAS"
	StatusReference   Status = "Referência"
)

// Tolerance is the currency threshold below which two totals are equal.
var Tolerance = decimal.New(1, -2)

// DailySummary compares one day's totals across both feeds.
type DailySummary struct {
	Date              string
	BankNet           decimal.Decimal
	BankCredits       decimal.Decimal
	BankDebits        decimal.Decimal
	BankCreditCount   int
	BankDebitCount    int
	SystemNet         decimal.Decimal
	SystemCredits     decimal.Decimal
	SystemDebits      decimal.Decimal
	SystemCreditCount int
	SystemDebitCount  int
	NetDifference     decimal.Decimal
	CreditDifference  decimal.Decimal
	DebitDifference   decimal.Decimal
	Status            Status
}

// BuildDailySummary emits one summary per date present in either feed,
// ascending. A date missing from one feed counts as zero for it.
func BuildDailySummary(bank, system Groups) []DailySummary {
	dates := unionDates(bank, system)
	out := make([]DailySummary, 0, len(dates))
	for _, d := range dates {
		b := bank[d].Totals()
		s := system[d].Totals()

		netDiff := b.Net().Sub(s.Net())
		status := StatusDifferences
		if netDiff.Abs().LessThan(Tolerance) {
			status = StatusReconciled
		}

		out = append(out, DailySummary{
			Date:              d,
			BankNet:           b.Net(),
			BankCredits:       b.Credits,
			BankDebits:        b.Debits,
			BankCreditCount:   b.CreditCount,
			BankDebitCount:    b.DebitCount,
			SystemNet:         s.Net(),
			SystemCredits:     s.Credits,
			SystemDebits:      s.Debits,
			SystemCreditCount: s.CreditCount,
			SystemDebitCount:  s.DebitCount,
			NetDifference:     netDiff,
			CreditDifference:  b.Credits.Sub(s.Credits),
			DebitDifference:   b.Debits.Sub(s.Debits),
			Status:            status,
		})
	}
	return out
}
