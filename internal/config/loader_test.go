package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	config "github.com/okian/linotype/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	Convey("Given no configuration sources", t, func() {
		os.Unsetenv("LINOTYPE_CONFIG")
		cfg, err := config.Load(context.Background())

		Convey("Then defaults apply", func() {
			So(err, ShouldBeNil)
			So(cfg.OracleProvider, ShouldEqual, "openai")
			So(cfg.TopicCount, ShouldEqual, 5)
			So(cfg.QuorumFraction, ShouldEqual, 1.0)
			So(cfg.CanvasWidth, ShouldEqual, 1280)
			So(cfg.CanvasHeight, ShouldEqual, 720)
			So(cfg.RetryMaxAttempts, ShouldEqual, 3)
			So(cfg.SessionsDir, ShouldEqual, "data/sessions")
		})
	})
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("LINOTYPE_TOPIC_COUNT", "8")
	t.Setenv("LINOTYPE_ORACLE_PROVIDER", "anthropic")

	Convey("Given LINOTYPE_ environment variables", t, func() {
		cfg, err := config.Load(context.Background())

		Convey("Then env overrides defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.TopicCount, ShouldEqual, 8)
			So(cfg.OracleProvider, ShouldEqual, "anthropic")
		})
	})
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("topic_count: 7\nlog_level: debug\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LINOTYPE_CONFIG", path)

	Convey("Given a YAML config file", t, func() {
		cfg, err := config.Load(context.Background())

		Convey("Then file values override defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.TopicCount, ShouldEqual, 7)
			So(cfg.LogLevel, ShouldEqual, "debug")
		})
	})
}

func TestLoadFileEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("topic_count: 7\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LINOTYPE_CONFIG", path)
	t.Setenv("LINOTYPE_TOPIC_COUNT", "9")

	Convey("Given both a config file and an env override", t, func() {
		cfg, err := config.Load(context.Background())

		Convey("Then env wins over the file", func() {
			So(err, ShouldBeNil)
			So(cfg.TopicCount, ShouldEqual, 9)
		})
	})
}

func TestLoadErrors(t *testing.T) {
	Convey("Given a missing config file", t, func() {
		t.Setenv("LINOTYPE_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
		_, err := config.Load(context.Background())

		So(errors.Is(err, config.ErrLoadConfig), ShouldBeTrue)
	})
}

func TestLoadValidation(t *testing.T) {
	t.Setenv("LINOTYPE_QUORUM_FRACTION", "1.5")

	Convey("Given an out-of-range quorum fraction", t, func() {
		_, err := config.Load(context.Background())
		So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
	})
}
