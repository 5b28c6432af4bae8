package cleaning_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/insights/internal/domain/cleaning"
	"github.com/okian/insights/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClean(t *testing.T) {
	Convey("Given a messy normalized dataset", t, func() {
		ctx := context.Background()
		ds := model.NewDataset(
			[]string{"date", "product", "sales_amount", "units_sold", "region", "discount"},
			[][]string{
				{"2024-01-01", "A", "100", "2", "north", "0.5"},
				{"2024-01-01 18:30:00", "B", "abc", "", "", ""},
				{"", "A", "50", "1", "south", "1"},
				{"not a date", "C", "10", "1", "east", "2"},
				{"01/03/2024", "", "30", "3", "west", "NA"},
				{"Jan 4, 2024", "C", "", "x", "north", "3"},
			},
		)

		Convey("When cleaning", func() {
			rep, err := cleaning.New().Clean(ctx, ds)
			So(err, ShouldBeNil)

			Convey("Then every surviving record should have a date and a product", func() {
				So(ds.Len(), ShouldEqual, 3)
				for _, r := range ds.Records {
					d, ok := ds.Get(r, "date").Date()
					So(ok, ShouldBeTrue)
					So(d.IsZero(), ShouldBeFalse)
					So(ds.Get(r, "product").IsMissing(), ShouldBeFalse)
				}
			})

			Convey("And time-of-day should be dropped", func() {
				d, _ := ds.Get(ds.Records[1], "date").Date()
				So(d, ShouldEqual, model.NewDate(2024, 1, 1))
			})

			Convey("And unparsable sales should become zero while the row stays", func() {
				r := ds.Records[1]
				So(ds.Get(r, "product").String(), ShouldEqual, "B")
				n, ok := ds.Get(r, "sales_amount").Number()
				So(ok, ShouldBeTrue)
				So(n, ShouldEqual, 0)
			})

			Convey("And sales columns should be numeric everywhere", func() {
				for _, r := range ds.Records {
					So(ds.Get(r, "sales_amount").Kind(), ShouldEqual, model.KindNumber)
					So(ds.Get(r, "units_sold").Kind(), ShouldEqual, model.KindNumber)
				}
				n, _ := ds.Get(ds.Records[0], "sales_amount").Number()
				So(n, ShouldEqual, 100)
			})

			Convey("And numeric columns should be filled while categorical ones are not", func() {
				So(ds.Get(ds.Records[1], "discount").Kind(), ShouldEqual, model.KindNumber)
				So(ds.Get(ds.Records[1], "region").IsMissing(), ShouldBeTrue)
			})

			Convey("And the report should count every degradation", func() {
				So(rep.RowsIn, ShouldEqual, 6)
				So(rep.RowsOut, ShouldEqual, 3)
				So(rep.DroppedMissingDate, ShouldEqual, 2)
				So(rep.DroppedMissingProduct, ShouldEqual, 1)
				So(rep.Dropped(), ShouldEqual, 3)
				So(rep.UnparsableDates, ShouldEqual, 1)
				So(rep.Coerced["sales_amount"], ShouldEqual, 1)
				So(rep.Coerced["units_sold"], ShouldEqual, 1)
				So(rep.Filled["sales_amount"], ShouldEqual, 1)
				So(rep.Filled["units_sold"], ShouldEqual, 1)
				So(rep.Filled["discount"], ShouldEqual, 1)
				So(rep.Clean(), ShouldBeFalse)
				So(rep.Warnings, ShouldNotBeEmpty)
				So(rep.Summary(), ShouldContain, "2 row(s) dropped: missing or unparsable date")
			})
		})
	})

	Convey("Given a tidy dataset", t, func() {
		ds := model.NewDataset(
			[]string{"date", "product", "sales_amount"},
			[][]string{{"2024-02-01", "A", "1"}, {"2024-02-02", "B", "2"}},
		)

		Convey("When cleaning", func() {
			rep, err := cleaning.New().Clean(context.Background(), ds)

			Convey("Then nothing should be reported", func() {
				So(err, ShouldBeNil)
				So(rep.Clean(), ShouldBeTrue)
				So(rep.Summary(), ShouldBeEmpty)
				So(ds.Len(), ShouldEqual, 2)
			})
		})
	})

	Convey("Given a dataset without a product column", t, func() {
		ds := model.NewDataset([]string{"date", "sales_amount"}, [][]string{{"2024-01-01", "5"}})

		Convey("When cleaning", func() {
			_, err := cleaning.New().Clean(context.Background(), ds)

			Convey("Then it should be a schema error and the rows stay as they were", func() {
				So(errors.Is(err, model.ErrMissingColumn), ShouldBeTrue)
				So(ds.Len(), ShouldEqual, 1)
				So(ds.Records[0].Values[0].Kind(), ShouldEqual, model.KindText)
			})
		})
	})

	Convey("Given many bad dates and a small warning budget", t, func() {
		rows := make([][]string, 10)
		for i := range rows {
			rows[i] = []string{"??", "A", "1"}
		}
		ds := model.NewDataset([]string{"date", "product", "sales_amount"}, rows)

		Convey("When cleaning", func() {
			rep, err := cleaning.New(cleaning.WithMaxWarnings(3)).Clean(context.Background(), ds)

			Convey("Then warnings should be bounded and the rest counted", func() {
				So(err, ShouldBeNil)
				So(len(rep.Warnings), ShouldEqual, 3)
				So(rep.WarningsOmitted, ShouldEqual, 7)
				So(rep.UnparsableDates, ShouldEqual, 10)
				So(ds.Len(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given custom date layouts", t, func() {
		ds := model.NewDataset([]string{"date", "product"}, [][]string{{"02.01.2024", "A"}, {"2024-01-02", "B"}})

		Convey("When cleaning with a day-first layout only", func() {
			_, err := cleaning.New(cleaning.WithDateLayouts("02.01.2006")).Clean(context.Background(), ds)

			Convey("Then only matching dates should survive", func() {
				So(err, ShouldBeNil)
				So(ds.Len(), ShouldEqual, 1)
				d, _ := ds.Get(ds.Records[0], "date").Date()
				So(d, ShouldEqual, model.NewDate(2024, 1, 2))
			})
		})
	})
}

func TestImplausibleYears(t *testing.T) {
	Convey("Given dates with typo years", t, func() {
		ds := model.NewDataset([]string{"date", "product", "sales_amount"}, [][]string{
			{"0224-01-15", "A", "1"},
			{"2024-01-15", "A", "2"},
			{"9024-01-15", "A", "3"},
		})

		Convey("When cleaning", func() {
			rep, err := cleaning.New().Clean(context.Background(), ds)

			Convey("Then those rows should be dropped as unparsable", func() {
				So(err, ShouldBeNil)
				So(rep.UnparsableDates, ShouldEqual, 2)
				So(ds.Len(), ShouldEqual, 1)
				d, _ := ds.Get(ds.Records[0], "date").Date()
				So(d, ShouldEqual, model.NewDate(2024, 1, 15))
			})
		})
	})
}

func TestDateLayouts(t *testing.T) {
	Convey("Given the default date layouts", t, func() {
		want := model.NewDate(2024, 3, 5)
		inputs := []string{
			"2024-03-05", "2024-3-5", "2024/03/05", "2024/3/5",
			"2024-03-05T10:00:00Z", "2024-03-05T10:00:00", "2024-03-05 10:00:00", "2024-03-05 10:00",
			"03/05/2024", "3/5/2024", "03/05/2024 10:00", "03-05-2024",
			"Mar 5, 2024", "March 5, 2024", "5 Mar 2024", "05-Mar-2024", "20240305",
			"2024-03-05 10:30:00+00:00", "3/5/2024 3:04 PM", "Mar 5 2024", "2024.03.05",
		}

		for _, in := range inputs {
			Convey("When parsing "+in, func() {
				ds := model.NewDataset([]string{"date", "product"}, [][]string{{in, "A"}})
				_, err := cleaning.New().Clean(context.Background(), ds)

				Convey("Then it should be "+want.String(), func() {
					So(err, ShouldBeNil)
					So(ds.Len(), ShouldEqual, 1)
					d, _ := ds.Get(ds.Records[0], "date").Date()
					So(d, ShouldEqual, want)
				})
			})
		}
	})
}
