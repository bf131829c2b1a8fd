package calibration

import (
	"context"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/camcalib/logging"
	"go.viam.com/camcalib/rimage"
	"go.viam.com/camcalib/rimage/detection/chessboard"
	"go.viam.com/camcalib/rimage/transform"
)

func syntheticCamera() *transform.PinholeCameraIntrinsics {
	return &transform.PinholeCameraIntrinsics{Width: 640, Height: 480, Fx: 800, Fy: 800, Ppx: 320, Ppy: 240}
}

// renderViews writes five views of the default board, tilted in different directions, to dir.
func renderViews(t *testing.T, dir string) {
	t.Helper()
	spec := DefaultPatternSpec()
	deg := math.Pi / 180
	for i, angles := range [][3]float64{
		{-20, 0, 0},
		{20, 0, 5},
		{0, -25, 0},
		{0, 25, -5},
		{15, 15, 10},
	} {
		pose := chessboard.BoardPose(spec.Pattern(), spec.SquareSize, 0.7, angles[0]*deg, angles[1]*deg, angles[2]*deg)
		img, err := chessboard.Render(syntheticCamera(), pose, spec.Pattern(), spec.SquareSize, 4)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, rimage.WriteImageToFile(filepath.Join(dir, fmt.Sprintf("view_%02d.png", i)), img), test.ShouldBeNil)
	}
}

func TestRunEndToEnd(t *testing.T) {
	imagesDir := t.TempDir()
	renderViews(t, imagesDir)
	// a view without a board and a file that is not an image are skipped
	blank := image.NewGray(image.Rect(0, 0, 640, 480))
	for i := range blank.Pix {
		blank.Pix[i] = 255
	}
	test.That(t, rimage.WriteImageToFile(filepath.Join(imagesDir, "view_99.png"), blank), test.ShouldBeNil)
	test.That(t, os.WriteFile(filepath.Join(imagesDir, "broken.jpg"), []byte{0xff, 0xd8}, 0o644), test.ShouldBeNil)

	cfg := DefaultConfig()
	cfg.ImagesDir = imagesDir
	cfg.OutputPath = filepath.Join(t.TempDir(), "camera_calibration.json")
	cfg.Workers = 2

	res, summary, err := Run(context.Background(), cfg, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, summary.Candidates, test.ShouldEqual, 7)
	test.That(t, summary.Accepted, test.ShouldEqual, 5)
	test.That(t, summary.NotDetected, test.ShouldEqual, 1)
	test.That(t, summary.DecodeFailed, test.ShouldEqual, 1)

	k := res.CameraMatrix
	test.That(t, k[0][0], test.ShouldAlmostEqual, 800, 8)
	test.That(t, k[1][1], test.ShouldAlmostEqual, 800, 8)
	test.That(t, k[0][2], test.ShouldAlmostEqual, 320, 3.2)
	test.That(t, k[1][2], test.ShouldAlmostEqual, 240, 2.4)
	test.That(t, k[2][2], test.ShouldAlmostEqual, 1)
	test.That(t, res.ReprojectionError, test.ShouldBeLessThan, 0.5)
	test.That(t, res.ImageSize, test.ShouldResemble, image.Pt(640, 480))
	test.That(t, len(res.DistCoeffs), test.ShouldEqual, 5)
	test.That(t, len(res.Views), test.ShouldEqual, 5)
	test.That(t, len(res.PerViewErrors), test.ShouldEqual, 5)
	for _, e := range res.PerViewErrors {
		test.That(t, e, test.ShouldBeLessThan, 0.5)
	}
	for _, v := range res.Views {
		test.That(t, v.Translation.Norm(), test.ShouldAlmostEqual, 0.7, 0.1)
	}

	loaded, err := ReadResultFromFile(cfg.OutputPath)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, loaded.CameraMatrix, test.ShouldResemble, res.CameraMatrix)
	test.That(t, loaded.DistCoeffs, test.ShouldResemble, res.DistCoeffs)
}

func TestRunNoImages(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ImagesDir = t.TempDir()
	cfg.OutputPath = filepath.Join(t.TempDir(), "camera_calibration.json")
	_, _, err := Run(context.Background(), cfg, logging.NewTestLogger(t))
	test.That(t, errors.Is(err, ErrNoImagesFound), test.ShouldBeTrue)
	_, err = os.Stat(cfg.OutputPath)
	test.That(t, os.IsNotExist(err), test.ShouldBeTrue)
}

func TestOpenCVSolverPreconditions(t *testing.T) {
	ctx := context.Background()
	solver := NewOpenCVSolver(2)
	ref := ReferencePoints(smallSpec)
	corners := make([]r2.Point, len(ref))
	obs := Observation{Source: "a", Reference: ref, Corners: corners}

	_, err := solver.Solve(ctx, nil, image.Pt(640, 480))
	test.That(t, errors.Is(err, ErrSolveFailure), test.ShouldBeTrue)

	_, err = solver.Solve(ctx, []Observation{obs}, image.Pt(640, 480))
	test.That(t, errors.Is(err, ErrSolveFailure), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "at least 2")

	short := Observation{Source: "b", Reference: ref[:4], Corners: corners[:4]}
	_, err = solver.Solve(ctx, []Observation{obs, short}, image.Pt(640, 480))
	test.That(t, errors.Is(err, ErrSolveFailure), test.ShouldBeTrue)

	_, err = solver.Solve(ctx, []Observation{obs, obs}, image.Point{})
	test.That(t, errors.Is(err, ErrSolveFailure), test.ShouldBeTrue)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = solver.Solve(canceled, []Observation{obs, obs}, image.Pt(640, 480))
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)

	test.That(t, NewOpenCVSolver(0).MinViews, test.ShouldEqual, 1)
}

func TestViewReprojectionError(t *testing.T) {
	cam := syntheticCamera()
	model := &transform.PinholeCameraModel{PinholeCameraIntrinsics: cam}
	spec := DefaultPatternSpec()
	pose := chessboard.BoardPose(spec.Pattern(), spec.SquareSize, 0.7, 0.1, -0.2, 0)
	corners := chessboard.GroundTruthCorners(model, pose, spec.Pattern(), spec.SquareSize)
	obs := Observation{Reference: ReferencePoints(spec), Corners: corners}
	test.That(t, ViewReprojectionError(model, pose, obs), test.ShouldAlmostEqual, 0, 1e-9)

	shifted := make([]r2.Point, len(corners))
	for i, c := range corners {
		shifted[i] = c.Add(r2.Point{X: 3, Y: 4})
	}
	obs.Corners = shifted
	test.That(t, ViewReprojectionError(model, pose, obs), test.ShouldAlmostEqual, 5, 1e-9)
}
