package arbiter_test

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/okian/spellcast/internal/domain/arbiter"
	"github.com/okian/spellcast/internal/domain/geom"
	"github.com/okian/spellcast/internal/domain/gesture"
	"github.com/okian/spellcast/internal/domain/spell"
	. "github.com/smartystreets/goconvey/convey"
)

// fixedScorer returns a preset score per kind and records call order.
type fixedScorer struct {
	scores map[gesture.Kind]float64
	calls  []gesture.Kind
}

func (f *fixedScorer) Score(kind gesture.Kind, _ []geom.Point) float64 {
	f.calls = append(f.calls, kind)
	return f.scores[kind]
}

func points(n int) []geom.Point {
	pts := make([]geom.Point, n)
	for i := range pts {
		pts[i] = geom.Pt(float64(i), 0)
	}
	return pts
}

func ring(n int, radius float64) []geom.Point {
	pts := make([]geom.Point, n)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = geom.Pt(radius*math.Cos(a), radius*math.Sin(a))
	}
	return pts
}

func mustRegistry(defs ...spell.Definition) *spell.Registry {
	r, err := spell.NewRegistry(defs...)
	if err != nil {
		panic(err)
	}
	return r
}

var (
	fireball = spell.Definition{ID: "fireball", Gesture: gesture.Circle, MinScore: 0.7, Damage: 50, Speed: 10}
	lance    = spell.Definition{ID: "lance", Gesture: gesture.Line, MinScore: 0.8, Damage: 30, Speed: 25}
	shock    = spell.Definition{ID: "shock", Gesture: gesture.Zigzag, MinScore: 0.6, Damage: 5, Speed: 40}
)

func TestArbiter_MinimumLength(t *testing.T) {
	Convey("Given an arbiter whose scorer accepts everything", t, func() {
		scorer := &fixedScorer{scores: map[gesture.Kind]float64{gesture.Circle: 1}}
		a := arbiter.New(mustRegistry(fireball), scorer)
		ctx := context.Background()

		Convey("When exactly ten points are supplied", func() {
			_, ok := a.Arbitrate(ctx, points(10))

			Convey("Then nothing is cast and no template is consulted", func() {
				So(ok, ShouldBeFalse)
				So(scorer.calls, ShouldBeEmpty)
			})
		})

		Convey("When eleven points are supplied", func() {
			out, ok := a.Arbitrate(ctx, points(11))

			Convey("Then a cast is produced", func() {
				So(ok, ShouldBeTrue)
				So(out.Spell.ID, ShouldEqual, "fireball")
				So(out.Score, ShouldEqual, 1)
				So(out.Glitch, ShouldBeFalse)
				So(out.Fallback, ShouldBeFalse)
			})
		})

		Convey("When no points are supplied", func() {
			_, ok := a.Arbitrate(ctx, nil)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestArbiter_FirstMatch(t *testing.T) {
	Convey("Given a registry where several spells clear their minimum", t, func() {
		scorer := &fixedScorer{scores: map[gesture.Kind]float64{
			gesture.Circle: 0.75,
			gesture.Line:   0.99,
		}}
		a := arbiter.New(mustRegistry(fireball, lance), scorer)

		Convey("When arbitrating", func() {
			out, ok := a.Arbitrate(context.Background(), points(20))

			Convey("Then the first acceptable entry wins, not the best", func() {
				So(ok, ShouldBeTrue)
				So(out.Spell.ID, ShouldEqual, "fireball")
				So(out.Score, ShouldEqual, 0.75)
				So(scorer.calls, ShouldResemble, []gesture.Kind{gesture.Circle})
			})
		})
	})

	Convey("Given the first entry falls short", t, func() {
		scorer := &fixedScorer{scores: map[gesture.Kind]float64{
			gesture.Circle: 0.69,
			gesture.Line:   0.8,
		}}
		a := arbiter.New(mustRegistry(fireball, lance), scorer)
		out, ok := a.Arbitrate(context.Background(), points(20))

		Convey("Then a score equal to the minimum is accepted", func() {
			So(ok, ShouldBeTrue)
			So(out.Spell.ID, ShouldEqual, "lance")
			So(scorer.calls, ShouldResemble, []gesture.Kind{gesture.Circle, gesture.Line})
		})
	})

	Convey("Given an accepted score below the glitch threshold", t, func() {
		lowBar := spell.Definition{ID: "ember", Gesture: gesture.Circle, MinScore: 0.2}
		scorer := &fixedScorer{scores: map[gesture.Kind]float64{gesture.Circle: 0.3}}
		a := arbiter.New(mustRegistry(lowBar), scorer, arbiter.WithGlitchThreshold(0.5))
		out, ok := a.Arbitrate(context.Background(), points(20))

		Convey("Then the cast is accepted yet glitched", func() {
			So(ok, ShouldBeTrue)
			So(out.Fallback, ShouldBeFalse)
			So(out.Glitch, ShouldBeTrue)
		})
	})
}

func TestArbiter_Fallback(t *testing.T) {
	Convey("Given a registry with one spell whose minimum is unreachable", t, func() {
		unreachable := spell.Definition{ID: "nova", Gesture: gesture.Circle, MinScore: 1}
		a := arbiter.New(mustRegistry(unreachable), gesture.NewClassifier(), arbiter.WithSeed(7))

		Convey("When a long but shapeless gesture is arbitrated", func() {
			out, ok := a.Arbitrate(context.Background(), points(30))

			Convey("Then the spell is cast anyway as a glitched fallback", func() {
				So(ok, ShouldBeTrue)
				So(out.Spell.ID, ShouldEqual, "nova")
				So(out.Score, ShouldEqual, 0)
				So(out.Fallback, ShouldBeTrue)
				So(out.Glitch, ShouldBeTrue)
			})
		})
	})

	Convey("Given several spells and nothing matching", t, func() {
		scorer := &fixedScorer{scores: map[gesture.Kind]float64{}}
		a := arbiter.New(mustRegistry(fireball, lance, shock), scorer, arbiter.WithRand(rand.New(rand.NewSource(1))))

		Convey("When arbitrating many times", func() {
			seen := map[string]int{}
			for i := 0; i < 300; i++ {
				out, ok := a.Arbitrate(context.Background(), points(12))
				So(ok, ShouldBeTrue)
				So(out.Fallback, ShouldBeTrue)
				seen[out.Spell.ID]++
			}

			Convey("Then every definition is eventually picked", func() {
				So(seen, ShouldHaveLength, 3)
				for _, n := range seen {
					So(n, ShouldBeGreaterThan, 50)
				}
			})
		})
	})

	Convey("Given a zero glitch threshold", t, func() {
		scorer := &fixedScorer{scores: map[gesture.Kind]float64{}}
		a := arbiter.New(mustRegistry(fireball), scorer, arbiter.WithGlitchThreshold(0))
		out, ok := a.Arbitrate(context.Background(), points(12))

		Convey("Then a fallback is not flagged glitched", func() {
			So(ok, ShouldBeTrue)
			So(out.Glitch, ShouldBeFalse)
			So(a.GlitchThreshold(), ShouldEqual, 0)
		})
	})
}

func TestArbiter_EmptyRegistry(t *testing.T) {
	Convey("Given an empty registry", t, func() {
		a := arbiter.New(mustRegistry(), nil)

		Convey("Then arbitration is a safe no-op", func() {
			_, ok := a.Arbitrate(context.Background(), points(50))
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given a nil catalogue", t, func() {
		a := arbiter.New(nil, nil)

		Convey("Then arbitration is a safe no-op", func() {
			_, ok := a.Arbitrate(context.Background(), points(50))
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given a typed nil registry", t, func() {
		var reg *spell.Registry
		a := arbiter.New(reg, nil)

		Convey("Then arbitration is a safe no-op", func() {
			_, ok := a.Arbitrate(context.Background(), points(50))
			So(ok, ShouldBeFalse)
		})
	})
}

func TestArbiter_RealTemplates(t *testing.T) {
	Convey("Given the default registry order and real templates", t, func() {
		a := arbiter.New(mustRegistry(fireball, lance), gesture.NewClassifier(), arbiter.WithSeed(3))
		ctx := context.Background()

		Convey("When a clean circle is drawn", func() {
			out, ok := a.Arbitrate(ctx, ring(24, 0.5))

			Convey("Then fireball is cast cleanly", func() {
				So(ok, ShouldBeTrue)
				So(out.Spell.ID, ShouldEqual, "fireball")
				So(out.Score, ShouldBeGreaterThan, 0.9)
				So(out.Glitch, ShouldBeFalse)
			})
		})

		Convey("When a straight stroke is drawn", func() {
			out, ok := a.Arbitrate(ctx, points(15))

			Convey("Then lance is cast cleanly", func() {
				So(ok, ShouldBeTrue)
				So(out.Spell.ID, ShouldEqual, "lance")
				So(out.Glitch, ShouldBeFalse)
			})
		})
	})
}
