// Package types contains common types used across the application
package types

import "github.com/okian/kpiboard/internal/domain/model"

// Entry represents a leaderboard entry
type Entry struct {
	Rank         int     `json:"rank"`
	EmployeeID   string  `json:"employee_id"`
	EmployeeName string  `json:"employee_name,omitempty"`
	GroupID      string  `json:"group_id,omitempty"`
	Role         string  `json:"role,omitempty"`
	Period       string  `json:"period"`
	Score        float64 `json:"score"`

	SalesActual      float64 `json:"sales_actual"`
	SalesTarget      float64 `json:"sales_target"`
	SalesPct         float64 `json:"sales_pct"`
	SalesOverridden  bool    `json:"sales_overridden"`
	CommissionActual float64 `json:"commission_actual"`
	CommissionTarget float64 `json:"commission_target"`
	CommissionPct    float64 `json:"commission_pct"`
	AttendanceActual float64 `json:"attendance_actual"`
	AttendanceTarget float64 `json:"attendance_target"`
	AttendancePct    float64 `json:"attendance_pct"`
}

// FromScored converts a scored record into its API shape.
func FromScored(r model.ScoredRecord) Entry { //nolint:gocritic // hugeParam: value semantics match ranking output
	return Entry{
		Rank:             r.Rank,
		EmployeeID:       r.EmployeeID,
		EmployeeName:     r.EmployeeName,
		GroupID:          r.GroupID,
		Role:             r.Role,
		Period:           r.PeriodKey.Format(model.PeriodLayout),
		Score:            r.Score,
		SalesActual:      r.SalesActual,
		SalesTarget:      r.SalesTarget,
		SalesPct:         r.SalesPct,
		SalesOverridden:  r.Overridden,
		CommissionActual: r.CommissionActual,
		CommissionTarget: r.CommissionTarget,
		CommissionPct:    r.CommissionPct,
		AttendanceActual: r.AttendanceActual,
		AttendanceTarget: r.AttendanceTarget,
		AttendancePct:    r.AttendancePct,
	}
}

// Breakdown is the response shape of an ad-hoc score computation.
type Breakdown struct {
	SalesPct      float64 `json:"sales_pct"`
	CommissionPct float64 `json:"commission_pct"`
	AttendancePct float64 `json:"attendance_pct"`
	Weighted      float64 `json:"weighted"`
	Score         float64 `json:"score"`
}
