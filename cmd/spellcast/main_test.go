package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/spellcast/internal/adapters/http/api"
	app "github.com/okian/spellcast/internal/app"
	"github.com/okian/spellcast/internal/config"
	"github.com/okian/spellcast/internal/replay"
	"github.com/okian/spellcast/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("SPELLCAST_GLITCH_THRESHOLD", "0.75")
			_ = os.Setenv("SPELLCAST_SPAWN_WORKERS", "3")
			defer func() {
				_ = os.Unsetenv("SPELLCAST_GLITCH_THRESHOLD")
				_ = os.Unsetenv("SPELLCAST_SPAWN_WORKERS")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.GlitchThreshold, convey.ShouldEqual, 0.75)
				convey.So(cfg.SpawnWorkers, convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When testing HTTP server creation", func() {
			cfg := config.New()
			svc := app.New(app.WithConfig(cfg), app.WithLogger(logger.Discard()))
			ctx := context.Background()
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer func() { _ = svc.Stop(ctx) }()

			mux := http.NewServeMux()
			api.NewServer(svc, svc).Register(ctx, mux)

			convey.Convey("Then the spell catalogue should be served", func() {
				rec := httptest.NewRecorder()
				mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/spells", nil))
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(rec.Body.String(), convey.ShouldContainSubstring, "fireball")
			})

			convey.Convey("Then health should respond", func() {
				rec := httptest.NewRecorder()
				mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			})
		})
	})
}

func TestParseFlags(t *testing.T) {
	convey.Convey("Given command line flags", t, func() {
		convey.Convey("When none are passed", func() {
			opts, err := parseFlags(nil, io.Discard)

			convey.Convey("Then defaults should apply", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(opts.script, convey.ShouldEqual, "")
				convey.So(opts.synthetic, convey.ShouldEqual, defaultSynthetic)
				convey.So(opts.serve, convey.ShouldBeFalse)
				convey.So(opts.tick, convey.ShouldEqual, time.Duration(0))
			})
		})

		convey.Convey("When every flag is passed", func() {
			opts, err := parseFlags([]string{
				"-script", "a.yaml", "-synthetic", "5", "-seed", "9",
				"-save", "b.yaml", "-serve", "-tick", "8ms",
			}, io.Discard)

			convey.Convey("Then each should be parsed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(opts.script, convey.ShouldEqual, "a.yaml")
				convey.So(opts.synthetic, convey.ShouldEqual, 5)
				convey.So(opts.seed, convey.ShouldEqual, 9)
				convey.So(opts.save, convey.ShouldEqual, "b.yaml")
				convey.So(opts.serve, convey.ShouldBeTrue)
				convey.So(opts.tick, convey.ShouldEqual, 8*time.Millisecond)
			})
		})

		convey.Convey("When synthetic is negative", func() {
			_, err := parseFlags([]string{"-synthetic", "-1"}, io.Discard)

			convey.Convey("Then parsing should fail", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When an unknown flag is passed", func() {
			var out bytes.Buffer
			_, err := parseFlags([]string{"-bogus"}, &out)

			convey.Convey("Then parsing should fail with usage output", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(out.String(), convey.ShouldContainSubstring, "-synthetic")
			})
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given an initialized logger and a config without HTTP", t, func() {
		convey.So(logger.InitWithWriter(io.Discard), convey.ShouldBeNil)
		cfg := config.New()
		cfg.MetricsAddr = ""
		cfg.RandomSeed = 7
		ctx := context.Background()

		convey.Convey("When replaying synthetic gestures and saving them", func() {
			path := filepath.Join(t.TempDir(), "gestures.yaml")
			err := run(ctx, cfg, options{synthetic: 12, seed: 3, save: path})

			convey.Convey("Then the run should pass and the script should be written", func() {
				convey.So(err, convey.ShouldBeNil)
				s, loadErr := replay.LoadScript(path)
				convey.So(loadErr, convey.ShouldBeNil)
				convey.So(len(s.Gestures), convey.ShouldEqual, 12)
			})
		})

		convey.Convey("When the script does not exist", func() {
			err := run(ctx, cfg, options{script: filepath.Join(t.TempDir(), "missing.yaml")})

			convey.Convey("Then the run should fail", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When a gesture misses its expectation", func() {
			gen := replay.NewGenerator(1)
			g := gen.Tap()
			g.Expect = "fireball"
			path := filepath.Join(t.TempDir(), "tap.yaml")
			convey.So(replay.SaveScript(path, &replay.Script{Name: "tap", Gestures: []replay.Gesture{g}}), convey.ShouldBeNil)

			err := run(ctx, cfg, options{script: path})

			convey.Convey("Then the run should report failed gestures", func() {
				convey.So(errors.Is(err, errGesturesFailed), convey.ShouldBeTrue)
			})
		})
	})
}

func TestLoadGestures(t *testing.T) {
	convey.Convey("Given no script path", t, func() {
		s, err := loadGestures(options{synthetic: 4, seed: 11})

		convey.Convey("Then a synthetic script should be generated", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(s.Name, convey.ShouldEqual, "synthetic")
			convey.So(s.Tick, convey.ShouldEqual, replay.DefaultTick)
			convey.So(len(s.Gestures), convey.ShouldEqual, 4)
		})
	})
}
