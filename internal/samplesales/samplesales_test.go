package samplesales

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/okian/insights/internal/adapters/http/api"
	"github.com/okian/insights/internal/adapters/ingest"
	service "github.com/okian/insights/internal/app"
	"github.com/okian/insights/internal/domain/model"
	"github.com/okian/insights/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.InitWith(os.Stderr, logger.FormatText); err != nil {
		panic(err)
	}
	_ = logger.SetLevelString("error")
}

func TestGenerator(t *testing.T) {
	Convey("Given two generators with the same seed", t, func() {
		cfg := &Config{Owners: 3, Days: 5, Products: 2, Messiness: 0.3, Seed: 42}
		a, b := NewGenerator(cfg), NewGenerator(cfg)

		Convey("Then they should produce identical exports", func() {
			for i := 0; i < 3; i++ {
				ea, err := a.Export(i)
				So(err, ShouldBeNil)
				eb, err := b.Export(i)
				So(err, ShouldBeNil)
				So(ea.Owner, ShouldEqual, eb.Owner)
				So(ea.Name, ShouldEqual, eb.Name)
				So(ea.TotalSales, ShouldEqual, eb.TotalSales)
				if ea.Name[len(ea.Name)-4:] == ".csv" {
					So(bytes.Equal(ea.Data, eb.Data), ShouldBeTrue)
				}
			}
		})
	})

	Convey("Given a clean generator", t, func() {
		cfg := &Config{Days: 4, Products: 3, Seed: 1}
		g := NewGenerator(cfg)

		Convey("When building the first export", func() {
			e, err := g.Export(0)
			So(err, ShouldBeNil)

			Convey("Then every row should be kept", func() {
				So(e.Name, ShouldEndWith, ".csv")
				So(e.Rows, ShouldEqual, 12)
				So(e.Damaged, ShouldEqual, 0)
				So(e.Days, ShouldEqual, 4)
				So(e.FirstDay.String(), ShouldEqual, "2024-01-01")
				So(e.LastDay.String(), ShouldEqual, "2024-01-04")

				records, err := csv.NewReader(bytes.NewReader(e.Data)).ReadAll()
				So(err, ShouldBeNil)
				So(len(records), ShouldEqual, 13)
				So(records[0], ShouldResemble, exportHeader)
			})
		})

		Convey("When building the third export", func() {
			_, _ = g.Export(0)
			_, _ = g.Export(1)
			e, err := g.Export(2)

			Convey("Then it should be a readable workbook", func() {
				So(err, ShouldBeNil)
				So(e.Name, ShouldEndWith, ".xlsx")
				up := ingest.Upload{Name: e.Name, Data: e.Data}
				So(up.Format(), ShouldEqual, ingest.FormatXLSX)
				ds, err := up.Load(context.Background())
				So(err, ShouldBeNil)
				So(ds.Len(), ShouldEqual, e.Rows)
			})
		})
	})

	Convey("Given a fully damaged generator", t, func() {
		cfg := &Config{Owners: 2, Days: 6, Products: 2, Messiness: 1, Seed: 9}
		stats := &Stats{}
		exports, err := GenerateExports(context.Background(), cfg, stats)

		Convey("Then every row should be counted as damaged", func() {
			So(err, ShouldBeNil)
			So(stats.ExportsGenerated, ShouldEqual, 2)
			So(stats.RowsGenerated, ShouldEqual, 24)
			So(stats.RowsDamaged, ShouldEqual, 24)
			for _, e := range exports {
				So(e.Days, ShouldBeLessThanOrEqualTo, 6)
			}
		})
	})
}

func TestVerifyForecast(t *testing.T) {
	Convey("Given an export with three days of history", t, func() {
		e := Export{Days: 3, FirstDay: model.NewDate(2024, 1, 1), LastDay: model.NewDate(2024, 1, 3)}
		combined := Table{Rows: [][]any{
			{"2024-01-01", 1.0, false},
			{"2024-01-02", 2.0, false},
			{"2024-01-03", 3.0, false},
			{"2024-01-04", 4.0, true},
			{"2024-01-05", 5.0, true},
		}}

		Convey("Then a contiguous forecast should pass", func() {
			So(verifyForecast(e, 2, combined), ShouldBeNil)
		})

		Convey("Then a gap should be reported", func() {
			combined.Rows[4][0] = "2024-01-06"
			So(errors.Is(verifyForecast(e, 2, combined), errMismatch), ShouldBeTrue)
		})

		Convey("Then a wrong length should be reported", func() {
			So(errors.Is(verifyForecast(e, 3, combined), errMismatch), ShouldBeTrue)
		})

		Convey("Then an unflagged forecast row should be reported", func() {
			combined.Rows[3][2] = false
			So(errors.Is(verifyForecast(e, 2, combined), errMismatch), ShouldBeTrue)
		})
	})

	Convey("Given an export with no usable days", t, func() {
		o := Outcome{Export: Export{Name: "x.csv"}, Status: http.StatusUnprocessableEntity, Error: &ErrorResponse{Code: "empty"}}

		Convey("Then an empty-dataset rejection should pass", func() {
			So(verifyOutcome(&Config{Horizon: 7}, o), ShouldBeNil)
		})

		Convey("Then any other answer should be reported", func() {
			o.Error.Code = "schema"
			So(errors.Is(verifyOutcome(&Config{Horizon: 7}, o), errMismatch), ShouldBeTrue)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given the service behind a live HTTP server", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		svc := service.New(service.WithBcryptCost(bcrypt.MinCost), service.WithJWTSecret("samples"))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		mux := http.NewServeMux()
		api.NewServer(svc, svc, api.WithUploadRate(1000, 1000)).Register(ctx, mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		Convey("When running a messy sample upload", func() {
			dir := t.TempDir()
			stats, err := Run(ctx, &Config{
				BaseURL:   srv.URL,
				Owners:    4,
				Days:      10,
				Products:  2,
				Messiness: 0.2,
				Seed:      7,
				Workers:   2,
				OutputDir: dir,
			})

			Convey("Then every upload should verify", func() {
				So(err, ShouldBeNil)
				So(stats.UploadsSubmitted, ShouldEqual, 4)
				So(stats.Verified, ShouldEqual, 4)
				So(stats.Mismatches, ShouldEqual, 0)
				So(svc.GetStats(ctx)["accounts"], ShouldEqual, 4)

				files, err := filepath.Glob(filepath.Join(dir, "sales-*"))
				So(err, ShouldBeNil)
				So(len(files), ShouldEqual, 4)
			})
		})

		Convey("When the service is unreachable", func() {
			_, err := Run(ctx, &Config{BaseURL: "http://127.0.0.1:1", Owners: 1, Days: 2, Timeout: time.Second})

			Convey("Then the run should fail the health check", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "health check")
			})
		})
	})

	Convey("Given a generate-only run", t, func() {
		dir := t.TempDir()
		stats, err := Run(context.Background(), &Config{Owners: 2, Days: 3, Seed: 3, OutputDir: dir, NoUpload: true})

		Convey("Then the exports should be written without uploading", func() {
			So(err, ShouldBeNil)
			So(stats.ExportsGenerated, ShouldEqual, 2)
			So(stats.UploadsSubmitted, ShouldEqual, 0)
			_, err := os.Stat(filepath.Join(dir, "sales-01.csv"))
			So(err, ShouldBeNil)
		})
	})
}
