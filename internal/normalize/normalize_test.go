package normalize

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conciliar-dev/conciliar/internal/model"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestSerialToDate_ReferencePairs(t *testing.T) {
	tests := []struct {
		serial string
		want   time.Time
	}{
		{"1", date(1900, 1, 1)},
		{"31", date(1900, 1, 31)},
		{"59", date(1900, 2, 28)},
		{"61", date(1900, 3, 1)},
		{"366", date(1900, 12, 31)},
		{"25569", date(1970, 1, 1)},
		{"36526", date(2000, 1, 1)},
		{"45000", date(2023, 3, 15)},
		{"45658", date(2025, 1, 1)},
		{"45879", date(2025, 8, 10)},
		{"45901", date(2025, 9, 1)},
		{"45879.75", date(2025, 8, 10)},
		{"2958465", date(9999, 12, 31)},
	}
	for _, tt := range tests {
		t.Run(tt.serial, func(t *testing.T) {
			got, err := ParseDate(tt.serial)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "serial %s: want %s, got %s", tt.serial, tt.want.Format(model.DateFormat), got.Format(model.DateFormat))
		})
	}
}

func TestSerialToDate_Rejects(t *testing.T) {
	for _, s := range []string{
		"0", "-3", "0.5", "60", "2958466", "2958466.5", "1e30",
		// Past int64: must not wrap back into range.
		"18446744073709597495",
		"9223372036854821687",
	} {
		_, err := ParseDate(s)
		assert.ErrorIs(t, err, ErrInvalidDate, "serial %s", s)
	}
}

func TestSerialToDate_UpperBound(t *testing.T) {
	got, err := ParseDate("2958465.99")
	require.NoError(t, err)
	assert.True(t, date(9999, 12, 31).Equal(got))
}

func TestParseDate_SerialAndISOAgree(t *testing.T) {
	fromSerial, err := ParseDate("45879")
	require.NoError(t, err)
	fromISO, err := ParseDate("2025-08-10")
	require.NoError(t, err)
	assert.True(t, fromSerial.Equal(fromISO))
}

func TestParseDate_Timestamps(t *testing.T) {
	for _, s := range []string{
		"2025-08-10T23:30:00-03:00",
		"2025-08-10T00:00:00Z",
		"2025-08-10T08:15:00",
		"2025-08-10 08:15:00",
		" 2025-08-10 ",
	} {
		got, err := ParseDate(s)
		require.NoError(t, err, s)
		assert.True(t, date(2025, 8, 10).Equal(got), s)
	}
}

func TestParseDate_Invalid(t *testing.T) {
	for _, s := range []string{"", "10/08/2025", "2025-13-01", "2025-08-10garbage", "yesterday"} {
		_, err := ParseDate(s)
		assert.ErrorIs(t, err, ErrInvalidDate, "input %q", s)
	}
}

func TestParseDirection(t *testing.T) {
	for in, want := range map[string]model.Direction{
		"CREDIT": model.Credit,
		"credit": model.Credit,
		" C ":    model.Credit,
		"DEBIT":  model.Debit,
		"d":      model.Debit,
	} {
		got, err := ParseDirection(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseDirection("TRANSFER")
	assert.ErrorIs(t, err, ErrInvalidDirection)
}

func TestParseAmount(t *testing.T) {
	got, err := ParseAmount("1234,56")
	require.NoError(t, err)
	assert.Equal(t, "1234.56", got.StringFixed(2))

	got, err = ParseAmount("-50.00")
	require.NoError(t, err)
	assert.Equal(t, "-50.00", got.StringFixed(2))

	_, err = ParseAmount("abc")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestParseAmount_ThousandsSeparators(t *testing.T) {
	for in, want := range map[string]string{
		"1.234,56":      "1234.56",
		"-1.234,56":     "-1234.56",
		"1.234.567,89":  "1234567.89",
		"1,234.56":      "1234.56",
		"-12,345,678.9": "-12345678.90",
		"1234.5":        "1234.50",
	} {
		got, err := ParseAmount(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got.StringFixed(2), in)
	}

	for _, in := range []string{"1.23,45", "12,34,56", "1,2.5", ".234,56", "1.234,5.6"} {
		_, err := ParseAmount(in)
		assert.ErrorIs(t, err, ErrInvalidAmount, in)
	}
}

func TestNormalize_Bank(t *testing.T) {
	n := New()
	txn, err := n.Normalize(model.RawRow{
		Line:        2,
		Direction:   "CREDIT",
		Date:        "45879",
		Amount:      "100",
		Description: " PIX RECEBIDO ",
		ExternalID:  "abc-1",
		Category:    "ignored",
	}, model.SourceBank)
	require.NoError(t, err)

	assert.Equal(t, model.Credit, txn.Direction)
	assert.True(t, date(2025, 8, 10).Equal(txn.Date))
	assert.Equal(t, "100.00", txn.Amount.StringFixed(2))
	assert.Equal(t, "PIX RECEBIDO", txn.Description)
	assert.Equal(t, model.SourceBank, txn.Source)
	assert.Equal(t, "abc-1", txn.ExternalID)
	assert.Empty(t, txn.Category)
	assert.Equal(t, 2, txn.Line)
}

func TestNormalize_System(t *testing.T) {
	n := New()
	txn, err := n.Normalize(model.RawRow{
		Line:        3,
		Direction:   "DEBIT",
		Date:        "2025-09-01",
		Amount:      "-50.004",
		Description: "Fornecedor X",
		ExternalID:  "ignored",
		Category:    "Aluguel",
		Status:      "Pago",
	}, model.SourceSystem)
	require.NoError(t, err)

	assert.Equal(t, model.Debit, txn.Direction)
	assert.True(t, decimal.RequireFromString("-50").Equal(txn.Amount))
	assert.Equal(t, "Aluguel", txn.Category)
	assert.Equal(t, "Pago", txn.Status)
	assert.Empty(t, txn.ExternalID)
	assert.Equal(t, model.SourceSystem, txn.Source)
}

func TestNormalize_Scale(t *testing.T) {
	n := New(WithScale(4))
	txn, err := n.Normalize(model.RawRow{Direction: "CREDIT", Date: "45879", Amount: "10.12345"}, model.SourceBank)
	require.NoError(t, err)
	assert.Equal(t, "10.1235", txn.Amount.String())

	low := New(WithScale(0))
	txn, err = low.Normalize(model.RawRow{Direction: "CREDIT", Date: "45879", Amount: "10.126"}, model.SourceBank)
	require.NoError(t, err)
	assert.Equal(t, "10.13", txn.Amount.String())
}

func TestNormalize_Incomplete(t *testing.T) {
	n := New()
	tests := []struct {
		name  string
		row   model.RawRow
		field string
	}{
		{"no direction", model.RawRow{Line: 5, Date: "45879", Amount: "1"}, "direction"},
		{"no date", model.RawRow{Line: 6, Direction: "CREDIT", Amount: "1"}, "date"},
		{"no amount", model.RawRow{Line: 7, Direction: "CREDIT", Date: "45879"}, "amount"},
		{"whitespace only", model.RawRow{Line: 8, Direction: "  ", Date: "45879", Amount: "1"}, "direction"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := n.Normalize(tt.row, model.SourceBank)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrIncompleteRow)

			var rowErr *RowError
			require.True(t, errors.As(err, &rowErr))
			assert.Equal(t, tt.field, rowErr.Field)
			assert.Equal(t, tt.row.Line, rowErr.Line)
			assert.Equal(t, model.SourceBank, rowErr.Source)
		})
	}
}

func TestNormalize_InvalidValues(t *testing.T) {
	n := New()

	_, err := n.Normalize(model.RawRow{Direction: "CREDIT", Date: "60", Amount: "1"}, model.SourceBank)
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = n.Normalize(model.RawRow{Direction: "CREDIT", Date: "45879", Amount: "R$ 10"}, model.SourceBank)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = n.Normalize(model.RawRow{Direction: "ESTORNO", Date: "45879", Amount: "10"}, model.SourceSystem)
	assert.ErrorIs(t, err, ErrInvalidDirection)
	assert.Contains(t, err.Error(), `direction="ESTORNO"`)
}

func TestNormalizeAll_CollectsRejects(t *testing.T) {
	n := New()
	rows := []model.RawRow{
		{Line: 2, Direction: "CREDIT", Date: "45879", Amount: "100"},
		{Line: 3, Direction: "", Date: "45879", Amount: "100"},
		{Line: 4, Direction: "DEBIT", Date: "bad", Amount: "5"},
		{Line: 5, Direction: "DEBIT", Date: "2025-08-11", Amount: "5"},
	}

	b := n.NormalizeAll(rows, model.SourceSystem)
	require.Len(t, b.Records, 2)
	require.Len(t, b.Rejected, 2)
	assert.Equal(t, 2, b.Records[0].Line)
	assert.Equal(t, 5, b.Records[1].Line)
	assert.Equal(t, 3, b.Rejected[0].Line)
	assert.ErrorIs(t, b.Rejected[0], ErrIncompleteRow)
	assert.Equal(t, 4, b.Rejected[1].Line)
	assert.ErrorIs(t, b.Rejected[1], ErrInvalidDate)
}

func TestNormalizeAll_Empty(t *testing.T) {
	b := New().NormalizeAll(nil, model.SourceBank)
	assert.Empty(t, b.Records)
	assert.Empty(t, b.Rejected)
}
