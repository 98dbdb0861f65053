package report

import (
	"github.com/conciliar-dev/conciliar/internal/model"
	"github.com/conciliar-dev/conciliar/internal/reconcile"
)

// JSON is the API representation of a result. Amounts are fixed two-decimal
// strings.
type JSON struct {
	RunID    string       `json:"run_id,omitempty"`
	Stats    JSONStats    `json:"stats"`
	Summary  []JSONDay    `json:"summary"`
	ToAdd    []JSONRecord `json:"to_add"`
	ToRemove []JSONRecord `json:"to_remove"`
	Detail   []JSONDetail `json:"detail"`
	Rejected int          `json:"rejected"`
}

type JSONStats struct {
	Days                int    `json:"days"`
	ReconciledDays      int    `json:"reconciled_days"`
	DaysWithDifferences int    `json:"days_with_differences"`
	Rate                string `json:"rate"`
	BankRecords         int    `json:"bank_records"`
	SystemRecords       int    `json:"system_records"`
	MatchedBank         int    `json:"matched_bank"`
	MatchedSystem       int    `json:"matched_system"`
	ToAdd               int    `json:"to_add"`
	ToRemove            int    `json:"to_remove"`
}

type JSONDay struct {
	Date              string `json:"date"`
	BankNet           string `json:"bank_net"`
	BankCredits       string `json:"bank_credits"`
	BankDebits        string `json:"bank_debits"`
	BankCreditCount   int    `json:"bank_credit_count"`
	BankDebitCount    int    `json:"bank_debit_count"`
	SystemNet         string `json:"system_net"`
	SystemCredits     string `json:"system_credits"`
	SystemDebits      string `json:"system_debits"`
	SystemCreditCount int    `json:"system_credit_count"`
	SystemDebitCount  int    `json:"system_debit_count"`
	NetDifference     string `json:"net_difference"`
	CreditDifference  string `json:"credit_difference"`
	DebitDifference   string `json:"debit_difference"`
	Status            string `json:"status"`
}

type JSONRecord struct {
	Date        string `json:"date"`
	Direction   string `json:"direction"`
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
	ExternalID  string `json:"external_id,omitempty"`
	Category    string `json:"category,omitempty"`
	Line        int    `json:"line,omitempty"`
	Action      string `json:"action"`
}

type JSONDetail struct {
	Date        string `json:"date"`
	Origin      string `json:"origin"`
	Kind        string `json:"kind"`
	Count       int    `json:"count"`
	CreditCount int    `json:"credit_count"`
	DebitCount  int    `json:"debit_count"`
	CreditTotal string `json:"credit_total"`
	DebitTotal  string `json:"debit_total"`
	Status      string `json:"status"`
}

// NewJSON converts a result to its JSON form. Slices are never nil so they
// encode as [].
func NewJSON(res reconcile.Result) JSON {
	st := res.Stats
	out := JSON{
		Stats: JSONStats{
			Days:                st.Days,
			ReconciledDays:      st.ReconciledDays,
			DaysWithDifferences: st.DaysWithDifferences,
			Rate:                st.Rate.StringFixed(1),
			BankRecords:         st.BankRecords,
			SystemRecords:       st.SystemRecords,
			MatchedBank:         st.MatchedBank,
			MatchedSystem:       st.MatchedSystem,
			ToAdd:               st.ToAdd,
			ToRemove:            st.ToRemove,
		},
		Summary:  make([]JSONDay, 0, len(res.Summary)),
		ToAdd:    records(res.BankOnly, ActionAdd),
		ToRemove: records(res.SystemOnly, ActionRemove),
		Detail:   make([]JSONDetail, 0, len(res.Detail)),
	}

	for _, d := range res.Summary {
		out.Summary = append(out.Summary, JSONDay{
			Date:              d.Date,
			BankNet:           money(d.BankNet),
			BankCredits:       money(d.BankCredits),
			BankDebits:        money(d.BankDebits),
			BankCreditCount:   d.BankCreditCount,
			BankDebitCount:    d.BankDebitCount,
			SystemNet:         money(d.SystemNet),
			SystemCredits:     money(d.SystemCredits),
			SystemDebits:      money(d.SystemDebits),
			SystemCreditCount: d.SystemCreditCount,
			SystemDebitCount:  d.SystemDebitCount,
			NetDifference:     money(d.NetDifference),
			CreditDifference:  money(d.CreditDifference),
			DebitDifference:   money(d.DebitDifference),
			Status:            string(d.Status),
		})
	}

	for _, d := range res.Detail {
		out.Detail = append(out.Detail, JSONDetail{
			Date:        d.Date,
			Origin:      OriginLabel(d.Origin),
			Kind:        d.Kind,
			Count:       d.Count,
			CreditCount: d.CreditCount,
			DebitCount:  d.DebitCount,
			CreditTotal: money(d.CreditTotal),
			DebitTotal:  money(d.DebitTotal),
			Status:      string(d.Status),
		})
	}
	return out
}

func records(txns []model.Transaction, action string) []JSONRecord {
	out := make([]JSONRecord, 0, len(txns))
	for _, t := range txns {
		out = append(out, JSONRecord{
			Date:        t.DateKey(),
			Direction:   string(t.Direction),
			Amount:      money(t.Amount),
			Description: t.Description,
			ExternalID:  t.ExternalID,
			Category:    t.Category,
			Line:        t.Line,
			Action:      action,
		})
	}
	return out
}
