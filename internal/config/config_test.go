package config_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/kpiboard/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.DBDriver, convey.ShouldEqual, config.DriverPostgres)
			convey.So(cfg.ListenChannel, convey.ShouldEqual, "kpi_changes")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.DefaultAttendanceTarget, convey.ShouldEqual, 22)
			convey.So(cfg.TieBreakByID, convey.ShouldBeFalse)
			convey.So(cfg.RefreshDebounce().Milliseconds(), convey.ShouldEqual, 500)
			convey.So(cfg.RefreshInterval(), convey.ShouldEqual, 0)
		})

		convey.Convey("And the defaults should validate", func() {
			convey.So(cfg.Validate(context.Background()), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with one bad field each", t, func() {
		ctx := context.Background()
		cases := []struct {
			name   string
			mutate func(c *config.Config)
		}{
			{"empty addr", func(c *config.Config) { c.Addr = " " }},
			{"unknown driver", func(c *config.Config) { c.DBDriver = "oracle" }},
			{"empty dsn", func(c *config.Config) { c.DBDSN = "" }},
			{"zero queue", func(c *config.Config) { c.QueueSize = 0 }},
			{"zero limit", func(c *config.Config) { c.MaxLeaderboardLimit = 0 }},
			{"negative debounce", func(c *config.Config) { c.RefreshDebounceMS = -1 }},
			{"negative history", func(c *config.Config) { c.HistoryMonths = -3 }},
			{"negative target", func(c *config.Config) { c.DefaultAttendanceTarget = -1 }},
		}

		for _, tc := range cases {
			cfg := config.New(ctx)
			tc.mutate(cfg)
			err := cfg.Validate(ctx)

			convey.Convey("Then "+tc.name+" should be rejected as invalid config", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}
