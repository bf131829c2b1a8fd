package calibration

import (
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestReferencePoints(t *testing.T) {
	for _, spec := range []PatternSpec{
		DefaultPatternSpec(),
		{Rows: 2, Cols: 2, SquareSize: 1},
		{Rows: 6, Cols: 4, SquareSize: 0.025},
	} {
		pts := ReferencePoints(spec)
		test.That(t, len(pts), test.ShouldEqual, spec.Rows*spec.Cols)
		for r := 0; r < spec.Rows; r++ {
			for c := 0; c < spec.Cols; c++ {
				test.That(t, pts[r*spec.Cols+c], test.ShouldResemble, r3.Vector{
					X: float64(c) * spec.SquareSize,
					Y: float64(r) * spec.SquareSize,
				})
			}
		}
		// deterministic
		test.That(t, ReferencePoints(spec), test.ShouldResemble, pts)
	}
}

func TestPatternSpecValidate(t *testing.T) {
	spec := DefaultPatternSpec()
	test.That(t, spec.Validate(), test.ShouldBeNil)
	test.That(t, spec.Rows, test.ShouldEqual, 7)
	test.That(t, spec.Cols, test.ShouldEqual, 9)
	test.That(t, spec.SquareSize, test.ShouldEqual, 0.035)
	test.That(t, spec.NumCorners(), test.ShouldEqual, 63)

	test.That(t, PatternSpec{Rows: 1, Cols: 9, SquareSize: 0.035}.Validate(), test.ShouldNotBeNil)
	test.That(t, PatternSpec{Rows: 7, Cols: 0, SquareSize: 0.035}.Validate(), test.ShouldNotBeNil)
	test.That(t, PatternSpec{Rows: 7, Cols: 9}.Validate(), test.ShouldNotBeNil)
	test.That(t, PatternSpec{Rows: 7, Cols: 9, SquareSize: -1}.Validate(), test.ShouldNotBeNil)
}

func TestObservationSet(t *testing.T) {
	var set ObservationSet
	ref := ReferencePoints(PatternSpec{Rows: 2, Cols: 2, SquareSize: 1})
	corners := []r2.Point{{X: 1, Y: 1}, {X: 2, Y: 1}, {X: 1, Y: 2}, {X: 2, Y: 2}}

	test.That(t, set.Add(Observation{Source: "a", Reference: ref, Corners: corners}), test.ShouldBeNil)
	test.That(t, set.Add(Observation{Source: "b", Reference: ref, Corners: corners[:3]}), test.ShouldNotBeNil)
	test.That(t, set.Add(Observation{Source: "c", Reference: nil, Corners: nil}), test.ShouldNotBeNil)
	test.That(t, set.Len(), test.ShouldEqual, 1)

	obs := set.Observations()
	obs[0].Source = "changed"
	test.That(t, set.Observations()[0].Source, test.ShouldEqual, "a")
}
