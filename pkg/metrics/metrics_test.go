package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with custom options on a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10}),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then collectors should carry the namespace and labels", func() {
				So(manager, ShouldNotBeNil)
				manager.refreshes.Inc()

				families, err := registry.Gather()
				So(err, ShouldBeNil)

				found := false
				for _, mf := range families {
					if mf.GetName() == "test_unit_refreshes_total" {
						found = true
						So(mf.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "test")
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording refreshes", func() {
			before := testutil.ToFloat64(globalManager.refreshes)
			RecordRefresh(12)
			RecordRefreshError()
			RecordRefreshStale()

			Convey("Then the counters should move", func() {
				So(testutil.ToFloat64(globalManager.refreshes), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.refreshErrors), ShouldBeGreaterThanOrEqualTo, 1)
				So(testutil.ToFloat64(globalManager.refreshStale), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When updating the snapshot gauges", func() {
			UpdateSnapshot(7, 1_700_000_000, 42, 310)

			Convey("Then the gauges should hold the values", func() {
				So(testutil.ToFloat64(globalManager.snapshotGeneration), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.snapshotRecords), ShouldEqual, 42)
				So(testutil.ToFloat64(globalManager.snapshotLedgerEntries), ShouldEqual, 310)
			})
		})

		Convey("When recording a ranking and an HTTP request", func() {
			RecordRanking("all", 12, 0.4)
			RecordHTTPRequest("leaderboard", "GET", "200", 3)
			RecordNotification("kpi_changes")

			Convey("Then they should be exposed by the custom registry", func() {
				families, err := GetRegistry().Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, mf := range families {
					names = append(names, mf.GetName())
				}
				joined := strings.Join(names, ",")
				So(joined, ShouldContainSubstring, "kpiboard_ranking_ranked_employees")
				So(joined, ShouldContainSubstring, "kpiboard_ranking_http_requests_total")
				So(joined, ShouldContainSubstring, "kpiboard_ranking_change_notifications_total")
			})
		})
	})
}
