package calibration

import (
	"context"
	"image"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"go.viam.com/camcalib/rimage/transform"
)

// Solver estimates camera intrinsics, distortion and per-view poses from a set of observations
// taken at one image resolution.
type Solver interface {
	Solve(ctx context.Context, observations []Observation, imageSize image.Point) (*Result, error)
}

// OpenCVSolver runs Zhang's method with Levenberg-Marquardt refinement through OpenCV.
type OpenCVSolver struct {
	// MinViews is the fewest observations the solver accepts.
	MinViews int
	// Flags are passed straight to calibrateCamera.
	Flags gocv.CalibFlag
}

// NewOpenCVSolver returns a solver that requires at least minViews observations.
func NewOpenCVSolver(minViews int) *OpenCVSolver {
	if minViews < 1 {
		minViews = 1
	}
	return &OpenCVSolver{MinViews: minViews}
}

// Solve implements Solver. The call into OpenCV cannot be interrupted; ctx is only checked before it.
func (s *OpenCVSolver) Solve(ctx context.Context, observations []Observation, imageSize image.Point) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkObservations(observations, imageSize, s.MinViews); err != nil {
		return nil, err
	}

	objectPoints := gocv.NewPoints3fVector()
	defer objectPoints.Close()
	imagePoints := gocv.NewPoints2fVector()
	defer imagePoints.Close()
	for _, obs := range observations {
		ref := make([]gocv.Point3f, len(obs.Reference))
		for i, pt := range obs.Reference {
			ref[i] = gocv.Point3f{X: float32(pt.X), Y: float32(pt.Y), Z: float32(pt.Z)}
		}
		refVec := gocv.NewPoint3fVectorFromPoints(ref)
		objectPoints.Append(refVec)
		refVec.Close()

		corners := make([]gocv.Point2f, len(obs.Corners))
		for i, pt := range obs.Corners {
			corners[i] = gocv.Point2f{X: float32(pt.X), Y: float32(pt.Y)}
		}
		cornerVec := gocv.NewPoint2fVectorFromPoints(corners)
		imagePoints.Append(cornerVec)
		cornerVec.Close()
	}

	cameraMatrix := gocv.NewMat()
	defer cameraMatrix.Close()
	distCoeffs := gocv.NewMat()
	defer distCoeffs.Close()
	rvecs := gocv.NewMat()
	defer rvecs.Close()
	tvecs := gocv.NewMat()
	defer tvecs.Close()

	rms := gocv.CalibrateCamera(objectPoints, imagePoints, imageSize,
		&cameraMatrix, &distCoeffs, &rvecs, &tvecs, s.Flags)

	if cameraMatrix.Rows() != 3 || cameraMatrix.Cols() != 3 {
		return nil, newSolveFailure("solver returned a %dx%d camera matrix", cameraMatrix.Rows(), cameraMatrix.Cols())
	}
	res := &Result{ReprojectionError: rms, ImageSize: imageSize}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			res.CameraMatrix[r][c] = cameraMatrix.GetDoubleAt(r, c)
		}
	}
	dist, err := distCoeffs.DataPtrFloat64()
	if err != nil {
		return nil, errors.Wrap(ErrSolveFailure, err.Error())
	}
	res.DistCoeffs = append([]float64(nil), dist...)

	views, err := readPoses(rvecs, tvecs, len(observations))
	if err != nil {
		return nil, err
	}
	res.Views = views

	if err := checkResult(res); err != nil {
		return nil, err
	}
	res.PerViewErrors, err = perViewErrors(res, observations)
	if err != nil {
		return nil, errors.Wrap(ErrSolveFailure, err.Error())
	}
	return res, nil
}

func checkObservations(observations []Observation, imageSize image.Point, minViews int) error {
	if len(observations) == 0 {
		return newSolveFailure("no observations to calibrate from")
	}
	if len(observations) < minViews {
		return newSolveFailure("need at least %d views with a detected pattern, have %d", minViews, len(observations))
	}
	if imageSize.X <= 0 || imageSize.Y <= 0 {
		return newSolveFailure("invalid image size %v", imageSize)
	}
	n := len(observations[0].Corners)
	for _, obs := range observations {
		if len(obs.Corners) != n || len(obs.Reference) != n {
			return newSolveFailure("observation %q has %d corners and %d reference points, expected %d",
				obs.Source, len(obs.Corners), len(obs.Reference), n)
		}
	}
	return nil
}

func checkResult(res *Result) error {
	if math.IsNaN(res.ReprojectionError) || math.IsInf(res.ReprojectionError, 0) || res.ReprojectionError < 0 {
		return newSolveFailure("solver returned reprojection error %v", res.ReprojectionError)
	}
	for _, f := range []float64{res.CameraMatrix[0][0], res.CameraMatrix[1][1]} {
		if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
			return newSolveFailure("solver returned focal length %v", f)
		}
	}
	return nil
}

// readPoses unpacks the n x 1 three-channel rotation and translation outputs of calibrateCamera.
func readPoses(rvecs, tvecs gocv.Mat, n int) ([]transform.ViewPose, error) {
	rot, err := rvecs.DataPtrFloat64()
	if err != nil {
		return nil, errors.Wrap(ErrSolveFailure, err.Error())
	}
	trans, err := tvecs.DataPtrFloat64()
	if err != nil {
		return nil, errors.Wrap(ErrSolveFailure, err.Error())
	}
	if len(rot) != 3*n || len(trans) != 3*n {
		return nil, newSolveFailure("solver returned %d rotation and %d translation values for %d views",
			len(rot), len(trans), n)
	}
	views := make([]transform.ViewPose, n)
	for i := range views {
		views[i] = transform.ViewPose{
			Rotation:    r3.Vector{X: rot[3*i], Y: rot[3*i+1], Z: rot[3*i+2]},
			Translation: r3.Vector{X: trans[3*i], Y: trans[3*i+1], Z: trans[3*i+2]},
		}
	}
	return views, nil
}
