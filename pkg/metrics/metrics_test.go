package metrics

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should use the default naming", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "insights")
				So(manager.subsystem, ShouldEqual, "sales")
				So(manager.refreshInterval, ShouldEqual, defaultRefreshInterval)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(false),
				WithRefreshInterval(5*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options should be applied", func() {
				So(manager.namespace, ShouldEqual, "test_namespace")
				So(manager.subsystem, ShouldEqual, "test_subsystem")
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
				So(manager.enabled.Load(), ShouldBeFalse)
				So(manager.refreshInterval, ShouldEqual, 5*time.Second)
			})

			Convey("And metric names should carry the namespace", func() {
				manager.uploads.WithLabelValues("ok", "csv").Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if strings.HasPrefix(f.GetName(), "test_namespace_test_subsystem_") {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When passing empty values", func() {
			manager := NewManager(
				WithNamespace(""),
				WithHistogramBuckets(nil),
				WithRefreshInterval(0),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then defaults should be kept", func() {
				So(manager.namespace, ShouldEqual, "insights")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
				So(manager.refreshInterval, ShouldEqual, defaultRefreshInterval)
			})
		})
	})
}

func TestPipelineMetrics(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording uploads", func() {
			before := testutil.ToFloat64(globalManager.uploads.WithLabelValues("ok", "csv"))
			RecordUpload("ok", "csv")
			RecordUpload("ok", "csv")

			Convey("Then the counter should grow", func() {
				So(testutil.ToFloat64(globalManager.uploads.WithLabelValues("ok", "csv")), ShouldEqual, before+2)
			})
		})

		Convey("When recording row counts", func() {
			before := testutil.ToFloat64(globalManager.rowsDropped.WithLabelValues("missing_date"))
			RecordRowsDropped("missing_date", 3)
			RecordRowsDropped("missing_date", 0)
			RecordRowsDropped("missing_date", -4)

			Convey("Then only positive counts should be added", func() {
				So(testutil.ToFloat64(globalManager.rowsDropped.WithLabelValues("missing_date")), ShouldEqual, before+3)
			})
		})

		Convey("When metrics are disabled", func() {
			SetEnabled(false)
			defer SetEnabled(true)
			before := testutil.ToFloat64(globalManager.pipelineErrors.WithLabelValues("schema"))
			RecordPipelineError("schema")

			Convey("Then pipeline metrics should not change", func() {
				So(testutil.ToFloat64(globalManager.pipelineErrors.WithLabelValues("schema")), ShouldEqual, before)
			})
		})

		Convey("When recording is toggled while uploads are recorded", func() {
			var wg sync.WaitGroup
			for i := 0; i < 4; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < 100; j++ {
						RecordUpload("ok", "xlsx")
					}
				}()
			}
			for j := 0; j < 100; j++ {
				SetEnabled(j%2 == 0)
			}
			wg.Wait()
			SetEnabled(true)

			Convey("Then recording should be enabled again", func() {
				before := testutil.ToFloat64(globalManager.uploads.WithLabelValues("ok", "xlsx"))
				RecordUpload("ok", "xlsx")
				So(testutil.ToFloat64(globalManager.uploads.WithLabelValues("ok", "xlsx")), ShouldEqual, before+1)
			})
		})

		Convey("When recording the remaining pipeline metrics", func() {
			So(func() {
				RecordStageLatency("clean", 1.5)
				RecordPipelineLatency(12.0)
				RecordRowsIngested(100)
				RecordValuesCoerced("sales_amount", 2)
				RecordValuesFilled(4)
				RecordForecastDegenerate()
				RecordHistoryDays(30)
			}, ShouldNotPanic)
		})
	})
}

func TestServiceMetrics(t *testing.T) {
	Convey("Given account, HTTP and system metrics", t, func() {
		Convey("When updating the session gauge", func() {
			UpdateSessionsActive(7)

			Convey("Then the gauge should hold the last value", func() {
				So(testutil.ToFloat64(globalManager.sessionsActive), ShouldEqual, 7)
				UpdateSessionsActive(2)
				So(testutil.ToFloat64(globalManager.sessionsActive), ShouldEqual, 2)
			})
		})

		Convey("When recording the rest", func() {
			So(func() {
				RecordAccountCreated()
				RecordLoginFailure()
				RecordRateLimited()
				RecordHTTPRequest("/uploads", "POST", "200")
				RecordHTTPRequestDuration("/uploads", "POST", "200", 35.0)
				RecordErrorByComponent("api", "pipeline_error")
				RecordErrorByType("pipeline_error", "low")
				RecordErrorByEndpoint("/uploads", "POST", "pipeline_error")
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.4)
			}, ShouldNotPanic)
		})

		Convey("When reading the registry", func() {
			Convey("Then it should expose the custom registry", func() {
				So(GetRegistry(), ShouldEqual, customRegistry)
				So(RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})
	})
}

func TestQueueMetrics(t *testing.T) {
	Convey("Given the job queue metrics", t, func() {
		Convey("When updating the gauges", func() {
			UpdateQueueCapacity(64)
			UpdateQueueSize(3)
			UpdateWorkersRunning(4)
			UpdateWorkersBusy(1)

			Convey("Then they should hold the last values", func() {
				So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 64)
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.workersRunning), ShouldEqual, 4)
				So(testutil.ToFloat64(globalManager.workersBusy), ShouldEqual, 1)
			})
		})

		Convey("When a job is refused", func() {
			before := testutil.ToFloat64(globalManager.queueRejected.WithLabelValues("full"))
			RecordQueueRejected("full")
			RecordQueueWait(2.5)

			Convey("Then the reason should be counted", func() {
				So(testutil.ToFloat64(globalManager.queueRejected.WithLabelValues("full")), ShouldEqual, before+1)
			})
		})
	})
}
