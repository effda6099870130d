package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

var targetCols = []string{
	"employee_id", "full_name", "group_id", "role", "period",
	"sales_actual", "sales_target", "commission_actual", "commission_target",
	"attendance_actual", "attendance_target",
}

func TestPostgresSourceListMetricRecords(t *testing.T) {
	Convey("Given a Postgres source on a mocked pool", t, func() {
		mock, err := pgxmock.NewPool()
		So(err, ShouldBeNil)
		defer mock.Close()

		src := NewPostgresSource(mock, WithDefaultAttendanceTarget(20))
		ctx := context.Background()
		since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		june := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
		may := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

		Convey("When rows carry NULL columns", func() {
			mock.ExpectQuery(regexp.QuoteMeta(
				"FROM kpi_targets t LEFT JOIN employees e ON e.id = t.employee_id WHERE t.period >= $1 ORDER BY t.period DESC, t.employee_id ASC",
			)).
				WithArgs(since).
				WillReturnRows(pgxmock.NewRows(targetCols).
					AddRow("e1", "Alice", "g1", "staff", june, 1000.0, 1000.0, 500.0, 500.0, 22.0, 22.0).
					AddRow("e2", nil, nil, nil, june, nil, 800.0, nil, nil, 10.0, nil).
					AddRow("e1", "Alice", "g1", "staff", may, 10.0, 1000.0, 0.0, 500.0, 0.0, 0.0),
				)

			records, err := src.ListMetricRecords(ctx, since)

			Convey("Then NULL numerics should become zero and a NULL attendance target the default", func() {
				So(err, ShouldBeNil)
				So(mock.ExpectationsWereMet(), ShouldBeNil)
				So(records, ShouldHaveLength, 3)

				So(records[0].EmployeeName, ShouldEqual, "Alice")
				So(records[0].PeriodKey, ShouldEqual, june)
				So(records[0].AttendanceTarget, ShouldEqual, 22)

				So(records[1].EmployeeName, ShouldEqual, "")
				So(records[1].SalesActual, ShouldEqual, 0)
				So(records[1].SalesTarget, ShouldEqual, 800)
				So(records[1].AttendanceTarget, ShouldEqual, 20)
			})

			Convey("Then an explicit zero attendance target should stay zero", func() {
				So(records[2].AttendanceTarget, ShouldEqual, 0)
			})
		})

		Convey("When no lower bound is given", func() {
			mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN employees e ON e.id = t.employee_id ORDER BY t.period DESC")).
				WillReturnRows(pgxmock.NewRows(targetCols))

			records, err := src.ListMetricRecords(ctx, time.Time{})

			Convey("Then the query should have no WHERE clause", func() {
				So(err, ShouldBeNil)
				So(records, ShouldBeEmpty)
				So(mock.ExpectationsWereMet(), ShouldBeNil)
			})
		})

		Convey("When the query fails", func() {
			boom := errors.New("connection reset")
			mock.ExpectQuery("FROM kpi_targets").WithArgs(since).WillReturnError(boom)

			_, err := src.ListMetricRecords(ctx, since)

			Convey("Then the error should be wrapped", func() {
				So(errors.Is(err, boom), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "query targets")
			})
		})
	})
}

func TestPostgresSourceListLedgerEntries(t *testing.T) {
	Convey("Given a Postgres source on a mocked pool", t, func() {
		mock, err := pgxmock.NewPool()
		So(err, ShouldBeNil)
		defer mock.Close()

		src := NewPostgresSource(mock)
		from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
		to := from.AddDate(0, 1, 0)

		Convey("When the ledger has rows in the window", func() {
			mock.ExpectQuery(regexp.QuoteMeta("FROM sales_logs WHERE log_date >= $1 AND log_date < $2")).
				WithArgs(from, to).
				WillReturnRows(pgxmock.NewRows([]string{"employee_id", "amount", "log_date"}).
					AddRow("e1", "300.10", from).
					AddRow("e1", nil, from.AddDate(0, 0, 1)).
					AddRow("e2", "99.99", from.AddDate(0, 0, 2)),
				)

			entries, err := src.ListLedgerEntries(context.Background(), from, to)

			Convey("Then amounts should be exact and NULL amounts zero", func() {
				So(err, ShouldBeNil)
				So(mock.ExpectationsWereMet(), ShouldBeNil)
				So(entries, ShouldHaveLength, 3)
				So(entries[0].Amount.Equal(decimal.RequireFromString("300.10")), ShouldBeTrue)
				So(entries[1].Amount.IsZero(), ShouldBeTrue)
				So(entries[2].EmployeeID, ShouldEqual, "e2")
			})
		})
	})
}
