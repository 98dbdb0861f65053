package api

import (
	"time"

	"github.com/conciliar-dev/conciliar/internal/history"
)

// RunResponse is one recorded run.
type RunResponse struct {
	ID                  string `json:"id"`
	StartedAt           string `json:"started_at"`
	DurationMS          int64  `json:"duration_ms"`
	Origin              string `json:"origin"`
	BankFile            string `json:"bank_file"`
	SystemFile          string `json:"system_file"`
	Days                int    `json:"days"`
	ReconciledDays      int    `json:"reconciled_days"`
	DaysWithDifferences int    `json:"days_with_differences"`
	BankRecords         int    `json:"bank_records"`
	SystemRecords       int    `json:"system_records"`
	ToAdd               int    `json:"to_add"`
	ToRemove            int    `json:"to_remove"`
	Rejected            int    `json:"rejected"`
	Rate                string `json:"rate"`
}

// RunListResponse wraps GET /api/runs.
type RunListResponse struct {
	Runs  []RunResponse `json:"runs"`
	Count int           `json:"count"`
}

func toRunResponse(r history.Run) RunResponse {
	return RunResponse{
		ID:                  r.ID,
		StartedAt:           r.StartedAt.UTC().Format(time.RFC3339),
		DurationMS:          r.Duration.Milliseconds(),
		Origin:              r.Origin,
		BankFile:            r.BankFile,
		SystemFile:          r.SystemFile,
		Days:                r.Days,
		ReconciledDays:      r.ReconciledDays,
		DaysWithDifferences: r.DaysWithDifferences,
		BankRecords:         r.BankRecords,
		SystemRecords:       r.SystemRecords,
		ToAdd:               r.ToAdd,
		ToRemove:            r.ToRemove,
		Rejected:            r.Rejected,
		Rate:                r.Rate.StringFixed(1),
	}
}
