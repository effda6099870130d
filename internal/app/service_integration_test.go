package service_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/kpiboard/internal/adapters/repository"
	service "github.com/okian/kpiboard/internal/app"
	"github.com/okian/kpiboard/internal/domain/ranking"
)

func mustExec(db *sql.DB, stmt string, args ...any) {
	_, err := db.Exec(stmt, args...)
	So(err, ShouldBeNil)
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a seeded SQLite database and a running service", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "kpi.db")
		db, err := repository.OpenSQLite(ctx, path)
		So(err, ShouldBeNil)
		defer db.Close()

		mustExec(db, `INSERT INTO employees VALUES ('e1','Alice','g1','staff'), ('e2','Bob','g1','staff')`)
		mustExec(db, `INSERT INTO kpi_targets VALUES
			('e1','2024-06-01', 900, 1000, 0, 500, 0, 22),
			('e2','2024-06-01', 100, 1000, 0, 500, 0, 22)`)

		svc := service.New(repository.NewSQLiteSource(db),
			service.WithClock(clock),
			service.WithDebounce(5*time.Millisecond),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop(ctx)

		Convey("When reading the initial leaderboard", func() {
			entries, err := svc.Leaderboard(ctx, ranking.Scope{}, 0)

			Convey("Then Alice should lead", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 2)
				So(entries[0].EmployeeName, ShouldEqual, "Alice")
			})
		})

		Convey("When Bob's daily sales are logged and a refresh is requested", func() {
			mustExec(db, `INSERT INTO sales_logs VALUES ('e2','600.50','2024-06-10'), ('e2','399.50','2024-06-11')`)
			So(svc.RequestRefresh(ctx), ShouldBeTrue)

			Convey("Then Bob should overtake Alice once the snapshot is replaced", func() {
				var top string
				deadline := time.Now().Add(3 * time.Second)
				for time.Now().Before(deadline) {
					entries, err := svc.Leaderboard(ctx, ranking.Scope{}, 1)
					So(err, ShouldBeNil)
					top = entries[0].EmployeeID
					if top == "e2" {
						break
					}
					time.Sleep(10 * time.Millisecond)
				}
				So(top, ShouldEqual, "e2")

				bob, err := svc.Rank(ctx, "e2", ranking.Scope{GroupID: "g1"})
				So(err, ShouldBeNil)
				So(bob.SalesActual, ShouldEqual, 1000)
				So(bob.SalesOverridden, ShouldBeTrue)
				So(bob.Rank, ShouldEqual, 1)
			})
		})
	})
}
