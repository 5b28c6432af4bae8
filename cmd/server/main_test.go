package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	app "github.com/okian/insights/internal/app"
	"github.com/okian/insights/internal/config"
	"github.com/okian/insights/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestNewHandler(t *testing.T) {
	convey.Convey("Given a started service and the default configuration", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cfg.UserStore = config.StoreMemory
		svc := app.New(append(app.OptionsFromConfig(cfg), app.WithLogger(logger.Nop()))...)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		h := newHandler(ctx, cfg, svc, logger.Nop())

		convey.Convey("Then every route group should be mounted", func() {
			for path, want := range map[string]int{
				"/healthz":      http.StatusOK,
				"/metrics":      http.StatusOK,
				"/stats":        http.StatusOK,
				"/api-docs":     http.StatusOK,
				"/openapi.yaml": http.StatusOK,
				"/app/":         http.StatusOK,
				"/":             http.StatusFound,
			} {
				w := httptest.NewRecorder()
				h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
				convey.So(w.Code, convey.ShouldEqual, want)
			}
		})

		convey.Convey("And uploads should require a session", func() {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/uploads", strings.NewReader("date,product\n")))
			convey.So(w.Code, convey.ShouldEqual, http.StatusUnauthorized)
		})

		convey.Convey("And signup should reach the account service", func() {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(`{"username":"u","password":"p","business_name":"b"}`))
			h.ServeHTTP(w, req)
			convey.So(w.Code, convey.ShouldEqual, http.StatusCreated)
		})
	})
}

func TestSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.Convey("Then a single update should not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("And the loop should stop with its context", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			done := make(chan struct{})
			go func() {
				startSystemMetricsUpdater(ctx, 10*time.Millisecond)
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatal("metrics updater did not stop")
			}
		})
	})
}
