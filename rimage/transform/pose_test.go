package transform

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

func TestRodriguesRoundTrip(t *testing.T) {
	for _, rvec := range []r3.Vector{
		{},
		{X: 0.3},
		{X: -0.2, Y: 0.4, Z: 0.1},
		{Y: -1.2, Z: 0.7},
		{Z: math.Pi - 1e-8},
	} {
		rot := RodriguesToMatrix(rvec)
		var rrt mat.Dense
		rrt.Mul(rot, rot.T())
		test.That(t, mat.EqualApprox(&rrt, eye3(), 1e-12), test.ShouldBeTrue)
		test.That(t, mat.Det(rot), test.ShouldAlmostEqual, 1, 1e-12)

		back := MatrixToRodrigues(rot)
		test.That(t, back.Sub(rvec).Norm(), test.ShouldBeLessThan, 1e-6)
	}
}

func TestRodriguesQuarterTurn(t *testing.T) {
	rot := RodriguesToMatrix(r3.Vector{Z: math.Pi / 2})
	out := rotate(rot, r3.Vector{X: 1})
	test.That(t, out.X, test.ShouldAlmostEqual, 0)
	test.That(t, out.Y, test.ShouldAlmostEqual, 1)
	test.That(t, out.Z, test.ShouldAlmostEqual, 0)
}

func TestRodriguesHalfTurn(t *testing.T) {
	axis := r3.Vector{X: 1, Y: -1, Z: 0.5}.Normalize()
	rot := RodriguesToMatrix(axis.Mul(math.Pi))
	back := MatrixToRodrigues(rot)
	test.That(t, back.Norm(), test.ShouldAlmostEqual, math.Pi, 1e-6)
	// the axis is only defined up to sign at pi
	test.That(t, math.Abs(back.Normalize().Dot(axis)), test.ShouldAlmostEqual, 1, 1e-6)
}

func TestEulerToMatrix(t *testing.T) {
	rot := EulerToMatrix(0.2, -0.3, 0.4)
	var expected mat.Dense
	expected.Mul(RodriguesToMatrix(r3.Vector{Z: 0.4}), RodriguesToMatrix(r3.Vector{Y: -0.3}))
	expected.Mul(mat.DenseCopyOf(&expected), RodriguesToMatrix(r3.Vector{X: 0.2}))
	test.That(t, mat.EqualApprox(rot, &expected, 1e-12), test.ShouldBeTrue)
}

func TestViewPoseTransform(t *testing.T) {
	pose := NewViewPose(EulerToMatrix(0, 0, math.Pi/2), r3.Vector{X: 1, Y: 2, Z: 3})
	out := pose.Transform(r3.Vector{X: 1})
	test.That(t, out.X, test.ShouldAlmostEqual, 1)
	test.That(t, out.Y, test.ShouldAlmostEqual, 3)
	test.That(t, out.Z, test.ShouldAlmostEqual, 3)
}

func eye3() *mat.Dense {
	return mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
}
