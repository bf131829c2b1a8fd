package transform

import (
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func testIntrinsics() *PinholeCameraIntrinsics {
	return &PinholeCameraIntrinsics{Width: 640, Height: 480, Fx: 800, Fy: 800, Ppx: 320, Ppy: 240}
}

func TestIntrinsicsCheckValid(t *testing.T) {
	test.That(t, testIntrinsics().CheckValid(), test.ShouldBeNil)

	var nilIntrinsics *PinholeCameraIntrinsics
	err := nilIntrinsics.CheckValid()
	test.That(t, errors.Is(err, ErrNoIntrinsics), test.ShouldBeTrue)

	bad := testIntrinsics()
	bad.Fx = 0
	test.That(t, bad.CheckValid(), test.ShouldNotBeNil)
	bad = testIntrinsics()
	bad.Width = 0
	test.That(t, bad.CheckValid(), test.ShouldNotBeNil)
	bad = testIntrinsics()
	bad.Ppy = -1
	test.That(t, bad.CheckValid(), test.ShouldNotBeNil)
}

func TestPointToPixelRoundTrip(t *testing.T) {
	intrinsics := testIntrinsics()
	u, v := intrinsics.PointToPixel(0.1, -0.05, 0.8)
	test.That(t, u, test.ShouldAlmostEqual, 420)
	test.That(t, v, test.ShouldAlmostEqual, 190)

	x, y, z := intrinsics.PixelToPoint(u, v, 0.8)
	test.That(t, x, test.ShouldAlmostEqual, 0.1)
	test.That(t, y, test.ShouldAlmostEqual, -0.05)
	test.That(t, z, test.ShouldEqual, 0.8)

	u, v = intrinsics.PointToPixel(1, 1, 0)
	test.That(t, u, test.ShouldEqual, -1.)
	test.That(t, v, test.ShouldEqual, -1.)
}

func TestCameraMatrix(t *testing.T) {
	k := testIntrinsics().GetCameraMatrix()
	test.That(t, k.At(0, 0), test.ShouldEqual, 800.)
	test.That(t, k.At(0, 2), test.ShouldEqual, 320.)
	test.That(t, k.At(1, 2), test.ShouldEqual, 240.)
	test.That(t, k.At(2, 2), test.ShouldEqual, 1.)
	test.That(t, k.At(1, 0), test.ShouldEqual, 0.)

	fromMatrix := NewPinholeCameraIntrinsicsFromMatrix([3][3]float64{{800, 0, 320}, {0, 800, 240}, {0, 0, 1}}, 640, 480)
	test.That(t, fromMatrix, test.ShouldResemble, testIntrinsics())
}

func TestIntrinsicsFromJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intrinsics.json")
	b, err := json.Marshal(testIntrinsics())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, os.WriteFile(path, b, 0o644), test.ShouldBeNil)

	loaded, err := NewPinholeCameraIntrinsicsFromJSONFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, loaded, test.ShouldResemble, testIntrinsics())

	_, err = NewPinholeCameraIntrinsicsFromJSONFile(filepath.Join(t.TempDir(), "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestProjectPoint(t *testing.T) {
	model := &PinholeCameraModel{PinholeCameraIntrinsics: testIntrinsics()}
	pose := ViewPose{Translation: r3.Vector{Z: 1}}
	px, ok := model.ProjectPoint(r3.Vector{X: 0.1, Y: 0.05}, pose)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, px.X, test.ShouldAlmostEqual, 400)
	test.That(t, px.Y, test.ShouldAlmostEqual, 280)

	_, ok = model.ProjectPoint(r3.Vector{Z: -2}, pose)
	test.That(t, ok, test.ShouldBeFalse)

	model.Distortion = &BrownConrady{RadialK1: 0.1}
	px, ok = model.ProjectPoint(r3.Vector{X: 0.1, Y: 0.05}, pose)
	test.That(t, ok, test.ShouldBeTrue)
	// r² = 0.0125
	test.That(t, px.X, test.ShouldAlmostEqual, 320+800*0.1*1.00125)
}

func TestUndistortPoints(t *testing.T) {
	ideal := &PinholeCameraModel{PinholeCameraIntrinsics: testIntrinsics()}
	lens := &PinholeCameraModel{
		PinholeCameraIntrinsics: testIntrinsics(),
		Distortion:              &BrownConrady{RadialK1: -0.2, RadialK2: 0.05, TangentialP1: 0.001, TangentialP2: -0.002},
	}
	pose := ViewPose{Translation: r3.Vector{Z: 1}}
	var observed, expected []r2.Point
	for _, pt := range []r3.Vector{{X: 0.1, Y: 0.05}, {X: -0.2, Y: 0.15}, {X: 0.25, Y: -0.2}, {}} {
		distorted, ok := lens.ProjectPoint(pt, pose)
		test.That(t, ok, test.ShouldBeTrue)
		undistorted, ok := ideal.ProjectPoint(pt, pose)
		test.That(t, ok, test.ShouldBeTrue)
		observed = append(observed, distorted)
		expected = append(expected, undistorted)
	}

	got, err := lens.UndistortPoints(observed)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got, test.ShouldHaveLength, len(expected))
	for i := range expected {
		test.That(t, got[i].X, test.ShouldAlmostEqual, expected[i].X, 1e-6)
		test.That(t, got[i].Y, test.ShouldAlmostEqual, expected[i].Y, 1e-6)
	}

	// without distortion the points come back unchanged
	got, err = ideal.UndistortPoints(observed)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got[1].X, test.ShouldAlmostEqual, observed[1].X)

	inverted := &PinholeCameraModel{PinholeCameraIntrinsics: testIntrinsics(), Distortion: &InverseBrownConrady{}}
	_, err = inverted.UndistortPoints(observed)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = (&PinholeCameraModel{}).UndistortPoints(observed)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestUndistortImage(t *testing.T) {
	intrinsics := &PinholeCameraIntrinsics{Width: 40, Height: 30, Fx: 50, Fy: 50, Ppx: 20, Ppy: 15}
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 6), G: uint8(y * 8), A: 255})
		}
	}

	model := &PinholeCameraModel{PinholeCameraIntrinsics: intrinsics, Distortion: &BrownConrady{}}
	out, err := model.UndistortImage(img)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.Pix, test.ShouldResemble, img.Pix)

	model.Distortion = &BrownConrady{RadialK1: 0.5}
	out, err = model.UndistortImage(img)
	test.That(t, err, test.ShouldBeNil)
	// the principal point is a fixed point of any radial model
	test.That(t, out.At(20, 15), test.ShouldResemble, img.At(20, 15))
	// positive k1 pulls corner samples from outside the frame
	test.That(t, out.At(0, 0), test.ShouldResemble, color.RGBA{A: 255})

	_, err = model.UndistortImage(image.NewRGBA(image.Rect(0, 0, 10, 10)))
	test.That(t, err, test.ShouldNotBeNil)
	_, err = model.UndistortImage(nil)
	test.That(t, err, test.ShouldNotBeNil)
}
