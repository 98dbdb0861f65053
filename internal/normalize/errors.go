package normalize

import (
	"errors"
	"fmt"

	"github.com/conciliar-dev/conciliar/internal/model"
)

// Row rejection reasons. A rejected row is skipped; the run continues.
var (
	ErrIncompleteRow    = errors.New("incomplete row")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDirection = errors.New("invalid direction")
)

// RowError describes why a single raw row could not be normalized.
type RowError struct {
	Source model.Source
	Line   int
	Field  string
	Value  string
	Err    error
}

func (e *RowError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s line %d [%s]: %v", e.Source, e.Line, e.Field, e.Err)
	}
	return fmt.Sprintf("%s line %d [%s=%q]: %v", e.Source, e.Line, e.Field, e.Value, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}
