package model_test

import (
	"testing"
	"time"

	model "github.com/okian/kpiboard/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMonthWindow(t *testing.T) {
	Convey("Given a timestamp in the middle of a month", t, func() {
		ts := time.Date(2026, time.February, 17, 13, 45, 0, 0, time.UTC)

		Convey("When computing the month window", func() {
			from, to := model.MonthWindow(ts)

			Convey("Then it should span the whole month, end exclusive", func() {
				So(from, ShouldEqual, time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC))
				So(to, ShouldEqual, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))
			})
		})

		Convey("When the month is December", func() {
			from, to := model.MonthWindow(time.Date(2025, time.December, 31, 23, 0, 0, 0, time.UTC))

			Convey("Then the window should roll into the next year", func() {
				So(from, ShouldEqual, time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC))
				So(to, ShouldEqual, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC))
			})
		})
	})
}

func TestParsePeriod(t *testing.T) {
	Convey("Given period keys in different renderings", t, func() {
		Convey("When the key is date-only", func() {
			p, err := model.ParsePeriod("2026-03-01")

			Convey("Then it should parse to midnight UTC", func() {
				So(err, ShouldBeNil)
				So(p, ShouldEqual, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))
			})
		})

		Convey("When the key is an RFC3339 timestamp", func() {
			p, err := model.ParsePeriod("2026-03-01T00:00:00Z")

			Convey("Then it should parse as well", func() {
				So(err, ShouldBeNil)
				So(p.Equal(time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)
			})
		})

		Convey("When the key is garbage", func() {
			_, err := model.ParsePeriod("march")

			Convey("Then it should fail", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
