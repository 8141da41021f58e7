package layout_test

import (
	"errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	layout "github.com/okian/linotype/internal/domain/layout"
	"github.com/okian/linotype/internal/domain/model"
)

func lineSpec() model.ChartSpec {
	return model.ChartSpec{
		Title:      "Chip exports keep climbing",
		Subtitle:   "Monthly value, $bn",
		Type:       model.ChartLine,
		SourceLine: "Source: customs data",
		Series: []model.Series{
			{Name: "Korea", Points: []model.SeriesPoint{
				{X: 2020, Y: 10}, {X: 2021, Y: 14}, {X: 2022, Y: 13}, {X: 2023, Y: 18},
			}},
			{Name: "Taiwan", Points: []model.SeriesPoint{
				{X: 2020, Y: 12}, {X: 2021, Y: 11}, {X: 2022, Y: 16}, {X: 2023, Y: 9},
			}},
		},
	}
}

func TestLayout(t *testing.T) {
	Convey("Given a layout engine with defaults", t, func() {
		e, err := layout.NewEngine()
		So(err, ShouldBeNil)

		Convey("When laying out a line chart", func() {
			res, err := e.Layout(lineSpec())
			So(err, ShouldBeNil)

			Convey("Then every element sits inside its band", func() {
				So(res.Title.Box.Within(res.ZoneRect(layout.ZoneTitle)), ShouldBeTrue)
				So(res.Subtitle.Box.Within(res.ZoneRect(layout.ZoneTitle)), ShouldBeTrue)
				So(res.RedBar.Within(res.ZoneRect(layout.ZoneRedBar)), ShouldBeTrue)
				plot := res.ZoneRect(layout.ZonePlotArea)
				for _, p := range res.Paths {
					for _, pt := range p.Points {
						So(plot.Contains(pt), ShouldBeTrue)
					}
				}
				for _, l := range res.Labels {
					So(l.FinalBox.Within(plot), ShouldBeTrue)
				}
				axis := res.ZoneRect(layout.ZoneXAxis)
				for _, a := range res.AxisLabels {
					So(a.Box.Within(axis), ShouldBeTrue)
				}
				So(res.Source.Box.Within(res.ZoneRect(layout.ZoneSource)), ShouldBeTrue)
			})

			Convey("Then every series got a label and no failures", func() {
				So(res.Labels, ShouldHaveLength, 2)
				So(res.Failures, ShouldBeEmpty)
			})

			Convey("Then labels never overlap each other", func() {
				for i, l := range res.Labels {
					for _, other := range res.Labels[i+1:] {
						So(l.FinalBox.Intersects(other.FinalBox), ShouldBeFalse)
					}
				}
			})

			Convey("Then the same spec lays out identically", func() {
				res2, err2 := e.Layout(lineSpec())
				So(err2, ShouldBeNil)
				So(res2.Labels, ShouldResemble, res.Labels)
				So(res2.Paths, ShouldResemble, res.Paths)
			})
		})

		Convey("When two series converge on the same final point", func() {
			spec := lineSpec()
			spec.Series[0].Points[3].Y = 13
			spec.Series[1].Points[3].Y = 13
			res, err := e.Layout(spec)
			So(err, ShouldBeNil)

			Convey("Then the second label is nudged clear of the first", func() {
				So(res.Labels, ShouldHaveLength, 2)
				So(res.Failures, ShouldBeEmpty)
				So(res.Labels[0].FinalBox.Intersects(res.Labels[1].FinalBox), ShouldBeFalse)
				So(res.Labels[1].Nudges, ShouldBeGreaterThan, 0)
			})

			Convey("Then nudging only ever moves labels up", func() {
				So(res.Labels[1].FinalBox.Y, ShouldBeLessThan, res.Labels[1].Anchor.Y)
			})
		})

		Convey("When the nudge budget cannot resolve a collision", func() {
			tight, err := layout.NewEngine(layout.WithNudgeBudget(1, 1))
			So(err, ShouldBeNil)
			// Constant series collapse every anchor onto the plot center,
			// so the second label has nowhere to go.
			spec := lineSpec()
			spec.Series[0].Points = []model.SeriesPoint{{X: 1, Y: 5}, {X: 1, Y: 5}, {X: 1, Y: 5}}
			spec.Series[1].Points = []model.SeriesPoint{{X: 1, Y: 5}, {X: 1, Y: 5}, {X: 1, Y: 5}}

			res, err := tight.Layout(spec)
			So(err, ShouldBeNil)

			Convey("Then the failure is recorded, not silently dropped", func() {
				So(res.Labels, ShouldHaveLength, 1)
				So(res.Failures, ShouldHaveLength, 1)
				So(res.Failures[0].Series, ShouldEqual, "Taiwan")
			})
		})

		Convey("When laying out a bar chart", func() {
			spec := lineSpec()
			spec.Type = model.ChartBar
			res, err := e.Layout(spec)
			So(err, ShouldBeNil)

			Convey("Then bars rise from the plot floor inside the band", func() {
				plot := res.ZoneRect(layout.ZonePlotArea)
				for _, p := range res.Paths {
					So(p.Boxes, ShouldHaveLength, 4)
					for _, b := range p.Boxes {
						So(b.Within(plot), ShouldBeTrue)
					}
				}
			})
		})

		Convey("When the title cannot fit even at the floor font", func() {
			spec := lineSpec()
			spec.Title = strings.Repeat("A", 140)
			_, err := e.Layout(spec)

			So(errors.Is(err, layout.ErrTitleOverflow), ShouldBeTrue)
		})

		Convey("When the spec is invalid", func() {
			spec := lineSpec()
			spec.Type = "pie"
			_, err := e.Layout(spec)
			So(errors.Is(err, layout.ErrUnknownType), ShouldBeTrue)

			spec = lineSpec()
			spec.Series = nil
			_, err = e.Layout(spec)
			So(errors.Is(err, layout.ErrEmptySpec), ShouldBeTrue)

			spec = lineSpec()
			spec.Title = ""
			_, err = e.Layout(spec)
			So(errors.Is(err, layout.ErrEmptySpec), ShouldBeTrue)
		})
	})

	Convey("Given custom zones", t, func() {
		Convey("When the zones overlap", func() {
			zones := layout.DefaultZones()
			zones[2].YMin = 0.10
			_, err := layout.NewEngine(layout.WithZones(zones))

			So(errors.Is(err, layout.ErrInvalidZones), ShouldBeTrue)
		})

		Convey("When a zone is missing", func() {
			_, err := layout.NewEngine(layout.WithZones(layout.DefaultZones()[:4]))
			So(errors.Is(err, layout.ErrInvalidZones), ShouldBeTrue)
		})
	})
}
