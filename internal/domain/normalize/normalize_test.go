package normalize_test

import (
	"errors"
	"testing"

	"github.com/okian/insights/internal/domain/model"
	"github.com/okian/insights/internal/domain/normalize"
	. "github.com/smartystreets/goconvey/convey"
)

func TestColumn(t *testing.T) {
	Convey("Given raw column names", t, func() {
		cases := map[string]string{
			"Date":           "date",
			"  Product ":     "product",
			"Sales Amount":   "sales_amount",
			"UNITS SOLD":     "units_sold",
			"sales_amount":   "sales_amount",
			"Region  Name":   "region__name",
			"":               "",
			"\tStore Code\n": "store_code",
		}

		Convey("When normalizing", func() {
			for in, want := range cases {
				So(normalize.Column(in), ShouldEqual, want)
			}
		})

		Convey("When normalizing twice", func() {
			for in := range cases {
				once := normalize.Column(in)
				So(normalize.Column(once), ShouldEqual, once)
			}
		})
	})
}

func TestDataset(t *testing.T) {
	Convey("Given a dataset with messy headers", t, func() {
		ds := model.NewDataset(
			[]string{" Date", "Product ", "Sales Amount"},
			[][]string{{"2024-01-01", " Widget ", "10"}},
		)

		Convey("When normalizing the dataset", func() {
			err := normalize.Dataset(ds)

			Convey("Then names should be canonical and values untouched", func() {
				So(err, ShouldBeNil)
				So(ds.Columns, ShouldResemble, []string{"date", "product", "sales_amount"})
				So(ds.Get(ds.Records[0], "product").String(), ShouldEqual, " Widget ")
			})

			Convey("And normalizing again should change nothing", func() {
				before := ds.Clone()
				So(normalize.Dataset(ds), ShouldBeNil)
				So(ds, ShouldResemble, before)
			})
		})

		Convey("When checking required columns", func() {
			So(normalize.Dataset(ds), ShouldBeNil)
			So(normalize.Require(ds, "date", "product"), ShouldBeNil)

			err := normalize.Require(ds, "date", "units_sold")
			So(errors.Is(err, model.ErrMissingColumn), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "units_sold")
		})
	})

	Convey("Given two headers that collapse onto one name", t, func() {
		ds := model.NewDataset([]string{"Sales Amount", "sales_amount"}, nil)

		Convey("When normalizing", func() {
			err := normalize.Dataset(ds)

			Convey("Then it should report a duplicate column and keep the original names", func() {
				So(errors.Is(err, model.ErrDuplicateColumn), ShouldBeTrue)
				So(ds.Columns, ShouldResemble, []string{"Sales Amount", "sales_amount"})
			})
		})
	})
}
