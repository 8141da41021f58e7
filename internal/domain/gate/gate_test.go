package gate_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	. "github.com/smartystreets/goconvey/convey"

	gate "github.com/okian/linotype/internal/domain/gate"
	layout "github.com/okian/linotype/internal/domain/layout"
	"github.com/okian/linotype/internal/domain/model"
)

// goodDraft satisfies every editorial heuristic: a substantial opening,
// numbers for evidence, calm voice, several paragraphs and a chart
// reference.
const goodDraft = `The price of grid-scale batteries fell 40% between 2021 and 2024, ` +
	`according to industry surveys, and the decline is reshaping how utilities ` +
	`plan for peak demand across the largest markets.

Storage additions reached 42GW in 2024, up from 18GW two years earlier. ` +
	`Most of the growth came from four states, as shown in chart.svg.

Analysts expect the trend to continue through 2027, though interconnection ` +
	`queues remain the binding constraint in practice.`

func TestEditorialGate(t *testing.T) {
	Convey("Given the editorial gate", t, func() {
		g := gate.Editorial()
		So(g.Name(), ShouldEqual, gate.EditorialGate)

		Convey("When the draft satisfies every check", func() {
			res := g.Evaluate(gate.EditorialArtifact{Draft: goodDraft, ChartRef: "chart.svg"})

			Convey("Then the gate passes with all rationales retained", func() {
				So(res.OverallPassed, ShouldBeTrue)
				So(res.Checks, ShouldHaveLength, 5)
				for _, c := range res.Checks {
					So(c.Rationale, ShouldNotBeEmpty)
				}
			})

			Convey("Then checks run in declared order", func() {
				So(res.Checks[0].Name, ShouldEqual, gate.CheckOpeningStrength)
				So(res.Checks[1].Name, ShouldEqual, gate.CheckEvidenceSourcing)
				So(res.Checks[2].Name, ShouldEqual, gate.CheckVoiceCompliance)
				So(res.Checks[3].Name, ShouldEqual, gate.CheckStructuralFlow)
				So(res.Checks[4].Name, ShouldEqual, gate.CheckChartIntegration)
			})

			Convey("Then evaluation is deterministic", func() {
				res2 := g.Evaluate(gate.EditorialArtifact{Draft: goodDraft, ChartRef: "chart.svg"})
				So(cmp.Diff(res, res2), ShouldBeBlank)
			})
		})

		Convey("When the opening paragraph is too thin", func() {
			res := g.Evaluate(gate.EditorialArtifact{Draft: "Too short.\n\nSecond.\n\nThird."})

			Convey("Then the gate fails but later checks still report", func() {
				So(res.OverallPassed, ShouldBeFalse)
				So(res.Checks[0].Passed, ShouldBeFalse)
				So(res.Checks, ShouldHaveLength, 5)
			})
		})

		Convey("When the draft shouts or uses banned phrases", func() {
			loud := strings.Replace(goodDraft, "reshaping how utilities", "a game-changer for utilities", 1)
			res := g.Evaluate(gate.EditorialArtifact{Draft: loud, ChartRef: "chart.svg"})

			So(res.OverallPassed, ShouldBeFalse)
			So(res.Checks[2].Passed, ShouldBeFalse)
			So(res.Checks[2].Rationale, ShouldContainSubstring, "game-changer")
		})

		Convey("When the article has no chart", func() {
			res := g.Evaluate(gate.EditorialArtifact{Draft: goodDraft, ChartRef: ""})

			Convey("Then chart-integration is NA and does not fail the gate", func() {
				So(res.Checks[4].NA, ShouldBeTrue)
				So(res.OverallPassed, ShouldBeTrue)
			})
		})

		Convey("When the draft never references its chart", func() {
			res := g.Evaluate(gate.EditorialArtifact{Draft: goodDraft, ChartRef: "figure-1.svg"})

			So(res.OverallPassed, ShouldBeFalse)
			So(res.Checks[4].Passed, ShouldBeFalse)
		})
	})
}

func TestVisualGate(t *testing.T) {
	Convey("Given the visual gate and a laid-out chart", t, func() {
		g := gate.Visual()
		engine, err := layout.NewEngine()
		So(err, ShouldBeNil)

		spec := model.ChartSpec{
			Title:      "Storage additions accelerate",
			Subtitle:   "GW per year",
			Type:       model.ChartLine,
			SourceLine: "Source: industry surveys",
			Series: []model.Series{
				{Name: "US", Points: []model.SeriesPoint{{X: 2021, Y: 6}, {X: 2022, Y: 11}, {X: 2023, Y: 18}}},
				{Name: "China", Points: []model.SeriesPoint{{X: 2021, Y: 9}, {X: 2022, Y: 16}, {X: 2023, Y: 27}}},
			},
		}
		res, err := engine.Layout(spec)
		So(err, ShouldBeNil)

		Convey("When the layout is clean", func() {
			verdict := g.Evaluate(gate.VisualArtifact{Spec: spec, Layout: res})

			Convey("Then all five checks pass", func() {
				So(verdict.OverallPassed, ShouldBeTrue)
				So(verdict.Checks, ShouldHaveLength, 5)
			})

			Convey("Then evaluation is deterministic", func() {
				verdict2 := g.Evaluate(gate.VisualArtifact{Spec: spec, Layout: res})
				So(cmp.Diff(verdict, verdict2), ShouldBeBlank)
			})
		})

		Convey("When the layout carries a placement failure", func() {
			broken := *res
			broken.Failures = []layout.PlacementFailure{{Series: "US", Reason: "no room"}}
			verdict := g.Evaluate(gate.VisualArtifact{Spec: spec, Layout: &broken})

			So(verdict.OverallPassed, ShouldBeFalse)
			So(verdict.Checks[0].Passed, ShouldBeFalse)
			So(verdict.Checks[0].Rationale, ShouldContainSubstring, "US")
		})

		Convey("When the source line is not attributed", func() {
			bad := spec
			bad.SourceLine = "industry surveys"
			verdict := g.Evaluate(gate.VisualArtifact{Spec: bad, Layout: res})

			So(verdict.OverallPassed, ShouldBeFalse)
			So(verdict.Checks[2].Passed, ShouldBeFalse)
		})

		Convey("When the title is fully upper-cased", func() {
			bad := spec
			bad.Title = "STORAGE ADDITIONS ACCELERATE"
			verdict := g.Evaluate(gate.VisualArtifact{Spec: bad, Layout: res})

			So(verdict.Checks[2].Passed, ShouldBeFalse)
		})

		Convey("When the projection lost a point", func() {
			broken := *res
			broken.Paths = append([]layout.SeriesPath(nil), res.Paths...)
			broken.Paths[0].Points = broken.Paths[0].Points[:2]
			verdict := g.Evaluate(gate.VisualArtifact{Spec: spec, Layout: &broken})

			So(verdict.OverallPassed, ShouldBeFalse)
			So(verdict.Checks[3].Passed, ShouldBeFalse)
		})

		Convey("When the canvas is too small to export", func() {
			small, err := layout.NewEngine(layout.WithCanvasSize(640, 480))
			So(err, ShouldBeNil)
			smallRes, err := small.Layout(spec)
			So(err, ShouldBeNil)
			verdict := g.Evaluate(gate.VisualArtifact{Spec: spec, Layout: smallRes})

			So(verdict.OverallPassed, ShouldBeFalse)
			So(verdict.Checks[4].Passed, ShouldBeFalse)
		})

		Convey("When the artifact is the wrong type", func() {
			verdict := g.Evaluate("not a visual artifact")

			So(verdict.OverallPassed, ShouldBeFalse)
		})
	})
}

func TestGateAllNA(t *testing.T) {
	Convey("Given a gate whose checks all report not-applicable", t, func() {
		g := gate.New("preflight", []gate.Check{
			{Name: "chart-present", Run: func(any) (bool, bool, string) {
				return false, true, "no chart attached"
			}},
			{Name: "image-exported", Run: func(any) (bool, bool, string) {
				return false, true, "no image to inspect"
			}},
		})

		Convey("When evaluating", func() {
			res := g.Evaluate(nil)

			Convey("Then the gate passes with every rationale retained", func() {
				So(res.OverallPassed, ShouldBeTrue)
				So(res.Checks, ShouldHaveLength, 2)
				for _, c := range res.Checks {
					So(c.NA, ShouldBeTrue)
					So(c.Passed, ShouldBeTrue)
					So(c.Rationale, ShouldNotBeEmpty)
				}
			})
		})
	})
}
