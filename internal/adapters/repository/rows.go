package repository

import (
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/guregu/null/v5"
	"github.com/shopspring/decimal"

	"github.com/okian/kpiboard/internal/domain/model"
)

var targetColumns = []string{
	"t.employee_id",
	"e.full_name",
	"e.group_id",
	"e.role",
	"t.period",
	"t.sales_actual",
	"t.sales_target",
	"t.commission_actual",
	"t.commission_target",
	"t.attendance_actual",
	"t.attendance_target",
}

func selectTargets(qb sq.StatementBuilderType, since any) sq.SelectBuilder {
	q := qb.Select(targetColumns...).
		From("kpi_targets t").
		LeftJoin("employees e ON e.id = t.employee_id").
		OrderBy("t.period DESC", "t.employee_id ASC")
	if since != nil {
		q = q.Where(sq.GtOrEq{"t.period": since})
	}
	return q
}

func selectLedger(qb sq.StatementBuilderType, from, to any) sq.SelectBuilder {
	return qb.Select("employee_id", "amount", "log_date").
		From("sales_logs").
		Where(sq.GtOrEq{"log_date": from}).
		Where(sq.Lt{"log_date": to}).
		OrderBy("log_date ASC")
}

// targetRow mirrors one joined kpi_targets/employees row. Every column except
// the key may be NULL.
type targetRow struct {
	EmployeeID       string
	FullName         null.String
	GroupID          null.String
	Role             null.String
	SalesActual      null.Float
	SalesTarget      null.Float
	CommissionActual null.Float
	CommissionTarget null.Float
	AttendanceActual null.Float
	AttendanceTarget null.Float
}

func (r *targetRow) numericDest() []any {
	return []any{
		&r.SalesActual,
		&r.SalesTarget,
		&r.CommissionActual,
		&r.CommissionTarget,
		&r.AttendanceActual,
		&r.AttendanceTarget,
	}
}

// toRecord coerces NULLs at the boundary: numerics become 0, a missing
// attendance target becomes the configured default.
func (r *targetRow) toRecord(period time.Time, o sourceOptions) model.MetricRecord {
	attendanceTarget := o.defaultAttendanceTarget
	if r.AttendanceTarget.Valid {
		attendanceTarget = r.AttendanceTarget.Float64
	}
	return model.MetricRecord{
		EmployeeID:       r.EmployeeID,
		EmployeeName:     r.FullName.String,
		GroupID:          r.GroupID.String,
		Role:             r.Role.String,
		PeriodKey:        period,
		SalesActual:      r.SalesActual.Float64,
		SalesTarget:      r.SalesTarget.Float64,
		CommissionActual: r.CommissionActual.Float64,
		CommissionTarget: r.CommissionTarget.Float64,
		AttendanceActual: r.AttendanceActual.Float64,
		AttendanceTarget: attendanceTarget,
	}
}

type ledgerRow struct {
	EmployeeID string
	Amount     decimal.NullDecimal
}

func (r *ledgerRow) toEntry(date time.Time) model.LedgerEntry {
	amount := decimal.Zero
	if r.Amount.Valid {
		amount = r.Amount.Decimal
	}
	return model.LedgerEntry{EmployeeID: r.EmployeeID, Amount: amount, Date: date}
}
