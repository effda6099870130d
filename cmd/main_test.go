package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/kpiboard/internal/adapters/repository"
	service "github.com/okian/kpiboard/internal/app"
	"github.com/okian/kpiboard/internal/config"
	"github.com/okian/kpiboard/pkg/logger"
	"github.com/okian/kpiboard/pkg/metrics"
)

func init() {
	_ = logger.Init()
}

func setenv(kv map[string]string) func() {
	for k, v := range kv {
		_ = os.Setenv(k, v)
	}
	return func() {
		for k := range kv {
			_ = os.Unsetenv(k)
		}
	}
}

func TestMainConfiguration(t *testing.T) {
	convey.Convey("Given KPIBOARD_ environment overrides", t, func() {
		restore := setenv(map[string]string{
			"KPIBOARD_ADDR":                ":8081",
			"KPIBOARD_DB_DRIVER":           "sqlite",
			"KPIBOARD_DB_DSN":              filepath.Join(t.TempDir(), "kpi.db"),
			"KPIBOARD_QUEUE_SIZE":          "64",
			"KPIBOARD_REFRESH_DEBOUNCE_MS": "25",
		})
		defer restore()

		convey.Convey("Then configuration should reflect them", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8081")
			convey.So(cfg.DBDriver, convey.ShouldEqual, config.DriverSQLite)
			convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
			convey.So(cfg.RefreshDebounce(), convey.ShouldEqual, 25*time.Millisecond)
		})
	})

	convey.Convey("Given an empty listen address", t, func() {
		restore := setenv(map[string]string{"KPIBOARD_ADDR": " "})
		defer restore()

		convey.Convey("Then configuration loading should fail", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})

	convey.Convey("Given an unknown driver", t, func() {
		restore := setenv(map[string]string{"KPIBOARD_DB_DRIVER": "oracle"})
		defer restore()

		convey.Convey("Then run should fail before serving", func() {
			err := run(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "failed to load config")
		})
	})
}

func TestHandlerRoutes(t *testing.T) {
	convey.Convey("Given a handler over an empty SQLite backend", t, func() {
		ctx := context.Background()
		backend, err := repository.Open(ctx, repository.DriverSQLite, filepath.Join(t.TempDir(), "kpi.db"))
		convey.So(err, convey.ShouldBeNil)
		defer func() { _ = backend.Close() }()

		svc := service.New(backend.Source, service.WithDebounce(5*time.Millisecond))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		srv := httptest.NewServer(newHandler(ctx, svc, 10))
		defer srv.Close()

		get := func(path string) *http.Response {
			resp, err := http.Get(srv.URL + path)
			convey.So(err, convey.ShouldBeNil)
			return resp
		}

		convey.Convey("Then the business routes should be mounted", func() {
			resp := get("/leaderboard")
			defer resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			convey.So(resp.Header.Get("X-Request-ID"), convey.ShouldNotBeEmpty)

			resp2 := get("/leaderboard?limit=11")
			defer resp2.Body.Close()
			convey.So(resp2.StatusCode, convey.ShouldEqual, http.StatusBadRequest)

			resp3 := get("/rank/nobody")
			defer resp3.Body.Close()
			convey.So(resp3.StatusCode, convey.ShouldEqual, http.StatusNotFound)
		})

		convey.Convey("Then the docs routes should be mounted", func() {
			resp := get("/openapi.yaml")
			defer resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("Then a refresh request should be accepted", func() {
			resp, err := http.Post(srv.URL+"/refresh", "application/json", strings.NewReader(""))
			convey.So(err, convey.ShouldBeNil)
			defer resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusAccepted)
		})
	})
}

func TestSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.Convey("Then a single update should not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("Then the loop should return once the context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			done := make(chan struct{})
			go func() {
				startSystemMetricsUpdater(ctx)
				close(done)
			}()

			select {
			case <-done:
			case <-time.After(time.Second):
				convey.So("updater did not stop", convey.ShouldBeEmpty)
			}
		})

		convey.Convey("Then the registry should expose the gauges", func() {
			updateSystemMetrics()
			families, err := metrics.GetRegistry().Gather()
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(families), convey.ShouldBeGreaterThan, 0)
		})
	})
}
