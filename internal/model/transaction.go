package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateFormat is the ISO layout used for grouping keys and reports.
const DateFormat = "2006-01-02"

// Direction is the sign of a cash flow.
type Direction string

const (
	Credit Direction = "CREDIT"
	Debit  Direction = "DEBIT"
)

// Source identifies which feed a transaction came from.
type Source string

const (
	SourceBank   Source = "BANK"
	SourceSystem Source = "SYSTEM"
)

// Transaction is one normalized ledger row from either feed.
// Values are never mutated after normalization.
type Transaction struct {
	Direction   Direction
	Date        time.Time       // UTC midnight
	Amount      decimal.Decimal // signed as exported by the source
	Description string
	Source      Source
	ExternalID  string // bank only
	Category    string // system only
	Status      string // system only
	Line        int    // row number in the originating file
}

// MatchKey is the equality used for matching: (date, direction, amount).
type MatchKey struct {
	Date      string
	Direction Direction
	Amount    string // canonical absolute amount, "100" == "100.00"
}

// DateKey returns the transaction date as "YYYY-MM-DD".
func (t Transaction) DateKey() string {
	return t.Date.Format(DateFormat)
}

// AbsAmount returns the unsigned amount.
func (t Transaction) AbsAmount() decimal.Decimal {
	return t.Amount.Abs()
}

// IsCredit reports whether the transaction is a credit.
func (t Transaction) IsCredit() bool {
	return t.Direction == Credit
}

// Key returns the MatchKey of the transaction.
func (t Transaction) Key() MatchKey {
	return MatchKey{
		Date:      t.DateKey(),
		Direction: t.Direction,
		Amount:    t.Amount.Abs().String(),
	}
}
