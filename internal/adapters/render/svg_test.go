package render_test

import (
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	render "github.com/okian/linotype/internal/adapters/render"
	layout "github.com/okian/linotype/internal/domain/layout"
	"github.com/okian/linotype/internal/domain/model"
)

func layoutFor(t *testing.T, spec model.ChartSpec) *layout.LayoutResult {
	t.Helper()
	e, err := layout.NewEngine()
	if err != nil {
		t.Fatal(err)
	}
	res, err := e.Layout(spec)
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func baseSpec() model.ChartSpec {
	return model.ChartSpec{
		Title:      "Batteries & margins",
		Subtitle:   "Index, 2021=100",
		Type:       model.ChartLine,
		SourceLine: "Source: company filings",
		Series: []model.Series{
			{Name: "Cells", Points: []model.SeriesPoint{{X: 2021, Y: 100}, {X: 2022, Y: 82}, {X: 2023, Y: 64}}},
			{Name: "Packs", Points: []model.SeriesPoint{{X: 2021, Y: 100}, {X: 2022, Y: 91}, {X: 2023, Y: 80}}},
		},
	}
}

func TestSVG(t *testing.T) {
	Convey("Given a laid-out chart", t, func() {
		Convey("When rendering a line chart", func() {
			doc := string(render.SVG(layoutFor(t, baseSpec())))

			Convey("Then the document carries every element class", func() {
				So(doc, ShouldStartWith, `<svg xmlns="http://www.w3.org/2000/svg"`)
				So(doc, ShouldEndWith, "</svg>\n")
				So(doc, ShouldContainSubstring, `<polyline`)
				So(doc, ShouldContainSubstring, "Cells")
				So(doc, ShouldContainSubstring, "Packs")
				So(doc, ShouldContainSubstring, "Source: company filings")
				So(doc, ShouldContainSubstring, "Index, 2021=100")
			})

			Convey("Then markup-sensitive text is escaped", func() {
				So(doc, ShouldContainSubstring, "Batteries &amp; margins")
				So(doc, ShouldNotContainSubstring, "Batteries & margins")
			})

			Convey("Then rendering is deterministic", func() {
				again := string(render.SVG(layoutFor(t, baseSpec())))
				So(again, ShouldEqual, doc)
			})
		})

		Convey("When rendering a bar chart", func() {
			spec := baseSpec()
			spec.Type = model.ChartBar
			doc := string(render.SVG(layoutFor(t, spec)))

			Convey("Then bars render as rects, not polylines", func() {
				So(doc, ShouldNotContainSubstring, `<polyline`)
				So(strings.Count(doc, "<rect"), ShouldBeGreaterThan, 2)
			})
		})

		Convey("When rendering a scatter chart", func() {
			spec := baseSpec()
			spec.Type = model.ChartScatter
			doc := string(render.SVG(layoutFor(t, spec)))

			So(doc, ShouldContainSubstring, `<circle`)
			So(doc, ShouldNotContainSubstring, `<polyline`)
		})
	})
}
