// Package normalize turns decoded export rows from either feed into uniform
// transactions. It performs no I/O.
package normalize

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/conciliar-dev/conciliar/internal/model"
)

// DefaultScale is the number of decimal places amounts are rounded to.
const DefaultScale int32 = 2

// Normalizer maps raw rows to transactions.
type Normalizer struct {
	scale int32
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithScale sets the amount rounding scale. Values below 2 are raised to 2.
func WithScale(scale int32) Option {
	return func(n *Normalizer) {
		if scale < DefaultScale {
			scale = DefaultScale
		}
		n.scale = scale
	}
}

// New creates a Normalizer.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{scale: DefaultScale}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Batch holds the outcome of normalizing a whole export.
type Batch struct {
	Records  []model.Transaction
	Rejected []*RowError
}

// NormalizeAll normalizes every row, collecting rejects instead of stopping.
func (n *Normalizer) NormalizeAll(rows []model.RawRow, src model.Source) Batch {
	var b Batch
	for _, row := range rows {
		txn, err := n.Normalize(row, src)
		if err != nil {
			b.Rejected = append(b.Rejected, err.(*RowError))
			continue
		}
		b.Records = append(b.Records, txn)
	}
	return b
}

// Normalize converts one raw row. Errors are always *RowError.
func (n *Normalizer) Normalize(row model.RawRow, src model.Source) (model.Transaction, error) {
	reject := func(field, value string, err error) (model.Transaction, error) {
		return model.Transaction{}, &RowError{Source: src, Line: row.Line, Field: field, Value: value, Err: err}
	}

	rawDir := strings.TrimSpace(row.Direction)
	rawDate := strings.TrimSpace(row.Date)
	rawAmount := strings.TrimSpace(row.Amount)

	switch {
	case rawDir == "":
		return reject("direction", "", ErrIncompleteRow)
	case rawDate == "":
		return reject("date", "", ErrIncompleteRow)
	case rawAmount == "":
		return reject("amount", "", ErrIncompleteRow)
	}

	dir, err := ParseDirection(rawDir)
	if err != nil {
		return reject("direction", rawDir, err)
	}

	date, err := ParseDate(rawDate)
	if err != nil {
		return reject("date", rawDate, err)
	}

	amount, err := ParseAmount(rawAmount)
	if err != nil {
		return reject("amount", rawAmount, err)
	}

	txn := model.Transaction{
		Direction:   dir,
		Date:        date,
		Amount:      amount.Round(n.scale),
		Description: strings.TrimSpace(row.Description),
		Source:      src,
		Line:        row.Line,
	}
	switch src {
	case model.SourceBank:
		txn.ExternalID = strings.TrimSpace(row.ExternalID)
	case model.SourceSystem:
		txn.Category = strings.TrimSpace(row.Category)
		txn.Status = strings.TrimSpace(row.Status)
	}
	return txn, nil
}

// ParseDirection accepts CREDIT/DEBIT (or C/D) in any case.
func ParseDirection(s string) (model.Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CREDIT", "C":
		return model.Credit, nil
	case "DEBIT", "D":
		return model.Debit, nil
	}
	return "", fmt.Errorf("unknown direction %q: %w", s, ErrInvalidDirection)
}

// ParseAmount parses a decimal amount. When both separators appear, the
// last one is the decimal mark and the other groups thousands ("1.234,56",
// "1,234.56"). A lone comma is a decimal comma ("1234,56").
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	plain, ok := canonicalAmount(s)
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("parsing amount %q: %w", s, ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(plain)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parsing amount %q: %w", s, ErrInvalidAmount)
	}
	return d, nil
}

// canonicalAmount rewrites s with a dot decimal mark and no grouping.
func canonicalAmount(s string) (string, bool) {
	comma, dot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	switch {
	case comma < 0:
		return s, true
	case dot < 0:
		if strings.Count(s, ",") > 1 {
			return "", false
		}
		return strings.Replace(s, ",", ".", 1), true
	case comma > dot:
		intPart, frac := s[:comma], s[comma+1:]
		if !validGrouping(intPart, ".") {
			return "", false
		}
		return strings.ReplaceAll(intPart, ".", "") + "." + frac, true
	default:
		intPart, frac := s[:dot], s[dot+1:]
		if !validGrouping(intPart, ",") {
			return "", false
		}
		return strings.ReplaceAll(intPart, ",", "") + "." + frac, true
	}
}

// validGrouping reports whether every group after the first has three digits.
func validGrouping(s, sep string) bool {
	groups := strings.Split(s, sep)
	for i, g := range groups {
		if i == 0 {
			if strings.TrimLeft(g, "+-") == "" {
				return false
			}
			continue
		}
		if len(g) != 3 {
			return false
		}
	}
	return true
}
