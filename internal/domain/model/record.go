// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultAttendanceTarget is the number of working days assumed when a
// target row carries no attendance goal.
const DefaultAttendanceTarget = 22

// PeriodLayout is the textual form of a period key (first day of the month).
const PeriodLayout = "2006-01-02"

// MetricRecord is one employee's KPI target row for a single period.
type MetricRecord struct {
	EmployeeID   string    // opaque employee identifier
	EmployeeName string    // display only
	GroupID      string    // team the employee belongs to, may be empty
	Role         string    // e.g. "staff", "leader"
	PeriodKey    time.Time // first day of the target month

	SalesActual      float64
	SalesTarget      float64
	CommissionActual float64
	CommissionTarget float64
	AttendanceActual float64 // days
	AttendanceTarget float64 // days
}

// ScoredRecord is a MetricRecord with the sales override applied and the
// composite score attached. It is never persisted.
type ScoredRecord struct {
	MetricRecord

	Rank          int
	Score         float64
	SalesPct      float64
	CommissionPct float64
	AttendancePct float64
	Overridden    bool // SalesActual came from the daily ledger
}

// LedgerEntry is one row of the daily sales ledger.
type LedgerEntry struct {
	EmployeeID string
	Amount     decimal.Decimal
	Date       time.Time
}

// Change is a notification that an upstream table changed and the current
// snapshot should be rebuilt.
type Change struct {
	ID      string    // unique id, used for logging only
	Source  string    // channel or origin, e.g. "kpi_changes", "interval", "api"
	Payload string    // raw notification payload, may be empty
	At      time.Time // when the change was observed
}

// MonthStart truncates t to the first day of its month in t's location.
func MonthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// MonthWindow returns the half-open range [first of month, first of next month)
// containing t.
func MonthWindow(t time.Time) (from, to time.Time) {
	from = MonthStart(t)
	return from, from.AddDate(0, 1, 0)
}

// ParsePeriod parses a period key. Both the date-only form and RFC3339
// timestamps are accepted because drivers differ in how they render DATE columns.
func ParsePeriod(s string) (time.Time, error) {
	if t, err := time.Parse(PeriodLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
