package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/conciliar-dev/conciliar/internal/model"
)

// Spreadsheet day serials use the 1900 date system, which counts a
// 1900-02-29 that never existed. Serials after it are offset by one day.
const (
	phantomLeapDay = 60
	maxSerial      = 2958465 // 9999-12-31
)

var (
	serialEpoch      = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)
	serialEpochEarly = time.Date(1899, time.December, 31, 0, 0, 0, 0, time.UTC)
)

// ParseDate resolves a spreadsheet day serial ("45879", "45879.75") or an
// ISO date ("2025-08-10", "2025-08-10T13:00:00-03:00") to a UTC calendar date.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date: %w", ErrInvalidDate)
	}

	if serial, err := decimal.NewFromString(s); err == nil {
		return SerialToDate(serial)
	}

	if len(s) >= len(model.DateFormat) {
		if d, err := time.Parse(model.DateFormat, s[:len(model.DateFormat)]); err == nil {
			if len(s) == len(model.DateFormat) || validTimestamp(s) {
				return d, nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q: %w", s, ErrInvalidDate)
}

func validTimestamp(s string) bool {
	if _, err := time.Parse(time.RFC3339, s); err == nil {
		return true
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// SerialToDate converts a 1900-system day serial to its calendar date. Any
// fractional part is a time of day and is dropped.
func SerialToDate(serial decimal.Decimal) (time.Time, error) {
	// Range checks run on the decimal; IntPart wraps past int64.
	if serial.LessThan(decimal.NewFromInt(1)) {
		return time.Time{}, fmt.Errorf("serial %s before 1900-01-01: %w", serial, ErrInvalidDate)
	}
	if serial.GreaterThanOrEqual(decimal.NewFromInt(maxSerial + 1)) {
		return time.Time{}, fmt.Errorf("serial %s after 9999-12-31: %w", serial, ErrInvalidDate)
	}

	days := serial.IntPart()
	switch {
	case days == phantomLeapDay:
		return time.Time{}, fmt.Errorf("serial %d is the nonexistent 1900-02-29: %w", days, ErrInvalidDate)
	case days < phantomLeapDay:
		return serialEpochEarly.AddDate(0, 0, int(days)), nil
	default:
		return serialEpoch.AddDate(0, 0, int(days)), nil
	}
}
