package model_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/linotype/internal/domain/model"
)

func TestSessionClone(t *testing.T) {
	Convey("Given a session with every field populated", t, func() {
		s := &model.PipelineSession{
			ID:    "s1",
			Topic: &model.Topic{ID: "t1", Title: "Original"},
			ChartSpec: &model.ChartSpec{
				Title: "Chart",
				Series: []model.Series{
					{Name: "a", Points: []model.SeriesPoint{{X: 1, Y: 2}}},
				},
			},
			GateResults: []model.GateResult{
				{GateName: "editorial", OverallPassed: true, Checks: []model.CheckResult{{Name: "opening-strength", Passed: true}}},
			},
		}

		Convey("When cloning and mutating the clone", func() {
			c := s.Clone()
			c.Topic.Title = "Changed"
			c.ChartSpec.Series[0].Points[0].Y = 99
			c.GateResults[0].Checks[0].Passed = false

			Convey("Then the original is untouched", func() {
				So(s.Topic.Title, ShouldEqual, "Original")
				So(s.ChartSpec.Series[0].Points[0].Y, ShouldEqual, 2)
				So(s.GateResults[0].Checks[0].Passed, ShouldBeTrue)
			})
		})

		Convey("When cloning nil", func() {
			var nilSession *model.PipelineSession
			So(nilSession.Clone(), ShouldBeNil)
		})
	})
}
