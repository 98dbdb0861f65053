package id

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ReportPrefix starts every generated report file name.
const ReportPrefix = "relatorio_"

// NewRunID returns a fresh identifier for a reconciliation run.
func NewRunID() string {
	return uuid.NewString()
}

// ShortRunID returns the first block of a run ID, for logs and file names.
func ShortRunID(runID string) string {
	if i := strings.IndexByte(runID, '-'); i > 0 {
		return runID[:i]
	}
	return runID
}

// ReportFileName returns the download name for a run's workbook,
// e.g. "relatorio_1b9d6bcd.xlsx".
func ReportFileName(runID string) string {
	return fmt.Sprintf("%s%s.xlsx", ReportPrefix, ShortRunID(runID))
}

// ParseRunID validates a run ID and returns its canonical form.
func ParseRunID(s string) (string, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid run ID %q: %w", s, err)
	}
	return u.String(), nil
}
