package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	logger "github.com/okian/linotype/pkg/logger"
)

func TestLogger(t *testing.T) {
	Convey("Given an initialized logger", t, func() {
		ctx := context.Background()

		Convey("When logging in text format", func() {
			var buf bytes.Buffer
			So(logger.Init("text", &buf), ShouldBeNil)
			logger.Get().Info(ctx, "session published", logger.String("session", "s1"))

			Convey("Then the message and fields appear", func() {
				So(buf.String(), ShouldContainSubstring, "session published")
				So(buf.String(), ShouldContainSubstring, "session=s1")
			})
		})

		Convey("When logging in json format", func() {
			var buf bytes.Buffer
			So(logger.Init("json", &buf), ShouldBeNil)
			logger.Get().Warn(ctx, "vote discarded",
				logger.Int("attempt", 2),
				logger.Error(errors.New("bad score")),
			)

			Convey("Then the line decodes as JSON with fields", func() {
				var line map[string]any
				So(json.Unmarshal(buf.Bytes(), &line), ShouldBeNil)
				So(line["msg"], ShouldEqual, "vote discarded")
				So(line["attempt"], ShouldEqual, float64(2))
			})
		})

		Convey("When naming a component", func() {
			var buf bytes.Buffer
			So(logger.Init("json", &buf), ShouldBeNil)
			logger.Named("consensus").Info(ctx, "quorum reached")

			Convey("Then the component tag rides along", func() {
				So(buf.String(), ShouldContainSubstring, `"component":"consensus"`)
			})
		})

		Convey("When adjusting the level", func() {
			var buf bytes.Buffer
			So(logger.Init("text", &buf), ShouldBeNil)
			So(logger.SetLevelString("error"), ShouldBeNil)
			logger.Get().Info(ctx, "too quiet to land")
			So(buf.String(), ShouldBeBlank)

			So(logger.SetLevelString("debug"), ShouldBeNil)
			logger.Get().Debug(ctx, "now audible")
			So(strings.Contains(buf.String(), "now audible"), ShouldBeTrue)
		})

		Convey("When the format or level is unknown", func() {
			So(errors.Is(logger.Init("xml", nil), logger.ErrUnknownFormat), ShouldBeTrue)
			So(errors.Is(logger.SetLevelString("loud"), logger.ErrUnknownLevel), ShouldBeTrue)
		})
	})
}
