package usage

import (
	"time"

	"github.com/google/uuid"
)

// Type identifies a monthly counter.
type Type string

const (
	TypeQuotes         Type = "quotes"
	TypePDFExports     Type = "pdf_exports"
	TypeAPICalls       Type = "api_calls"
	TypeBulkOperations Type = "bulk_operations"
)

// MaxHistoryMonths caps GetUsageHistory.
const MaxHistoryMonths = 36

// Valid reports whether t is a known counter.
func (t Type) Valid() bool {
	switch t {
	case TypeQuotes, TypePDFExports, TypeAPICalls, TypeBulkOperations:
		return true
	}
	return false
}

// column returns the storage column/field name for the counter.
func (t Type) column() string {
	return string(t) + "_count"
}

// FeatureUsage holds one user's counters for one calendar month (UTC).
type FeatureUsage struct {
	UserID              uuid.UUID `json:"user_id"`
	Period              time.Time `json:"period"`
	QuotesCount         int64     `json:"quotes_count"`
	PDFExportsCount     int64     `json:"pdf_exports_count"`
	APICallsCount       int64     `json:"api_calls_count"`
	BulkOperationsCount int64     `json:"bulk_operations_count"`
}

// Count returns the counter for t.
func (u FeatureUsage) Count(t Type) int64 {
	switch t {
	case TypeQuotes:
		return u.QuotesCount
	case TypePDFExports:
		return u.PDFExportsCount
	case TypeAPICalls:
		return u.APICallsCount
	case TypeBulkOperations:
		return u.BulkOperationsCount
	}
	return 0
}

func (u *FeatureUsage) add(t Type, amount int64) {
	switch t {
	case TypeQuotes:
		u.QuotesCount += amount
	case TypePDFExports:
		u.PDFExportsCount += amount
	case TypeAPICalls:
		u.APICallsCount += amount
	case TypeBulkOperations:
		u.BulkOperationsCount += amount
	}
}

// MonthStart truncates t to the first instant of its UTC calendar month.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Periods returns the month starts of the last n months including now's, newest first.
func Periods(now time.Time, n int) []time.Time {
	if n <= 0 {
		return []time.Time{}
	}
	n = min(n, MaxHistoryMonths)
	start := MonthStart(now)
	out := make([]time.Time, n)
	for i := range n {
		out[i] = start.AddDate(0, -i, 0)
	}
	return out
}

func emptyUsage(userID uuid.UUID, period time.Time) FeatureUsage {
	return FeatureUsage{UserID: userID, Period: period}
}

// fillHistory lays found records over zero-filled periods, newest first.
func fillHistory(userID uuid.UUID, periods []time.Time, found map[time.Time]FeatureUsage) []FeatureUsage {
	out := make([]FeatureUsage, len(periods))
	for i, p := range periods {
		if u, ok := found[p]; ok {
			u.UserID = userID
			u.Period = p
			out[i] = u
			continue
		}
		out[i] = emptyUsage(userID, p)
	}
	return out
}

func validateIncrement(userID uuid.UUID, t Type, amount int64) error {
	if userID == uuid.Nil {
		return ErrMissingUserID
	}
	if !t.Valid() {
		return ErrInvalidUsageType
	}
	if amount < 1 {
		return ErrInvalidAmount
	}
	return nil
}
