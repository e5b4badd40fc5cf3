package gesture_test

import (
	"errors"
	"testing"

	"github.com/okian/spellcast/internal/domain/geom"
	"github.com/okian/spellcast/internal/domain/gesture"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClassifier_Score(t *testing.T) {
	Convey("Given a default classifier", t, func() {
		c := gesture.NewClassifier()
		ring := polygon(16, 0.5, geom.Point{})
		line := segment(12, geom.Pt(0, 0), geom.Pt(1, 1))

		Convey("Then each kind dispatches to its own template", func() {
			So(c.Score(gesture.Circle, ring), ShouldBeGreaterThan, 0.9)
			So(c.Score(gesture.Line, line), ShouldBeGreaterThan, 0.95)
			So(c.Score(gesture.Line, ring), ShouldBeLessThan, 0.7)
		})

		Convey("And zigzag has no template", func() {
			So(c.Score(gesture.Zigzag, line), ShouldEqual, 0)
			So(c.Score(gesture.Kind(42), line), ShouldEqual, 0)
		})
	})

	Convey("Given a classifier configured for a pixel-space canvas", t, func() {
		c := gesture.NewClassifier(
			gesture.WithCircleRadius(40, 200),
			gesture.WithMinCirclePoints(16),
			gesture.WithMinLinePoints(3),
			gesture.WithMatchThreshold(0.9),
		)

		Convey("Then its thresholds apply", func() {
			So(c.Circle(polygon(12, 100, geom.Point{})).Match, ShouldBeFalse) // too few points
			So(c.Circle(polygon(24, 100, geom.Point{})).Match, ShouldBeTrue)
			So(c.Line(segment(3, geom.Pt(0, 0), geom.Pt(10, 0))).Match, ShouldBeTrue)
		})

		Convey("And invalid options are ignored", func() {
			d := gesture.NewClassifier(gesture.WithCircleRadius(1, 0), gesture.WithMatchThreshold(2), gesture.WithMinLinePoints(1))
			So(d.Circle(polygon(16, 0.5, geom.Point{})).Match, ShouldBeTrue)
			So(d.Line(segment(4, geom.Pt(0, 0), geom.Pt(1, 0))).Match, ShouldBeFalse)
		})
	})
}

func TestParseKind(t *testing.T) {
	Convey("Given gesture tags", t, func() {
		Convey("Then known tags round-trip", func() {
			for _, k := range []gesture.Kind{gesture.Circle, gesture.Line, gesture.Zigzag} {
				parsed, err := gesture.ParseKind(k.String())
				So(err, ShouldBeNil)
				So(parsed, ShouldEqual, k)
				So(k.Valid(), ShouldBeTrue)
			}
			k, err := gesture.ParseKind("  CIRCLE ")
			So(err, ShouldBeNil)
			So(k, ShouldEqual, gesture.Circle)
		})

		Convey("And unknown tags fail with ErrUnknownKind", func() {
			_, err := gesture.ParseKind("spiral")
			So(errors.Is(err, gesture.ErrUnknownKind), ShouldBeTrue)
			So(gesture.Kind(9).Valid(), ShouldBeFalse)
			So(gesture.Kind(9).String(), ShouldEqual, "kind(9)")
		})
	})
}
