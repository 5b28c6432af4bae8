package config_test

import (
	"testing"
	"time"

	"github.com/okian/insights/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.ForecastHorizon, convey.ShouldEqual, 7)
			convey.So(cfg.MaxUploadBytes, convey.ShouldEqual, 32<<20)
			convey.So(cfg.SessionTTL(), convey.ShouldEqual, time.Hour)
			convey.So(cfg.Workers, convey.ShouldEqual, 4)
			convey.So(cfg.QueueCapacity, convey.ShouldEqual, 64)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
