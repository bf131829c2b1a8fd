package chessboard

import (
	"image"
	"image/color"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/camcalib/rimage/transform"
)

// Render draws a synthetic view of a chessboard with the given interior corner pattern through an
// ideal pinhole camera. The board has (Cols+1)x(Rows+1) squares of squareSize, its corner square
// black, and lies on z=0 of the target frame; pose maps the target frame into the camera. Everything
// off the board is white. Each pixel averages supersample x supersample rays, with pixel centers at
// integer coordinates.
func Render(
	intrinsics *transform.PinholeCameraIntrinsics,
	pose transform.ViewPose,
	pattern Pattern,
	squareSize float64,
	supersample int,
) (*image.Gray, error) {
	if err := intrinsics.CheckValid(); err != nil {
		return nil, err
	}
	if err := pattern.CheckValid(); err != nil {
		return nil, err
	}
	if squareSize <= 0 {
		return nil, errors.Errorf("square size must be positive, got %v", squareSize)
	}
	if supersample < 1 {
		supersample = 1
	}

	// the board plane maps to the image through H = K [r1 r2 t]
	rot := pose.RotationMatrix()
	plane := mat.NewDense(3, 3, []float64{
		rot.At(0, 0), rot.At(0, 1), pose.Translation.X,
		rot.At(1, 0), rot.At(1, 1), pose.Translation.Y,
		rot.At(2, 0), rot.At(2, 1), pose.Translation.Z,
	})
	var h, hInv mat.Dense
	h.Mul(intrinsics.GetCameraMatrix(), plane)
	if err := hInv.Inverse(&h); err != nil {
		return nil, errors.Wrap(err, "board plane is seen edge-on")
	}
	hi := hInv.RawMatrix().Data

	minX, maxX := -squareSize, float64(pattern.Cols)*squareSize
	minY, maxY := -squareSize, float64(pattern.Rows)*squareSize
	shade := func(u, v float64) float64 {
		w := hi[6]*u + hi[7]*v + hi[8]
		if w == 0 {
			return 255
		}
		x := (hi[0]*u + hi[1]*v + hi[2]) / w
		y := (hi[3]*u + hi[4]*v + hi[5]) / w
		if x < minX || x >= maxX || y < minY || y >= maxY {
			return 255
		}
		// camera-frame depth of the board point must be positive
		if rot.At(2, 0)*x+rot.At(2, 1)*y+pose.Translation.Z <= 0 {
			return 255
		}
		if (int(math.Floor(x/squareSize))+int(math.Floor(y/squareSize)))%2 == 0 {
			return 0
		}
		return 255
	}

	img := image.NewGray(image.Rect(0, 0, intrinsics.Width, intrinsics.Height))
	step := 1 / float64(supersample)
	offset := step/2 - 0.5
	samples := float64(supersample * supersample)
	for py := 0; py < intrinsics.Height; py++ {
		for px := 0; px < intrinsics.Width; px++ {
			var sum float64
			for sy := 0; sy < supersample; sy++ {
				for sx := 0; sx < supersample; sx++ {
					sum += shade(float64(px)+offset+float64(sx)*step, float64(py)+offset+float64(sy)*step)
				}
			}
			img.SetGray(px, py, color.Gray{Y: uint8(math.Round(sum / samples))})
		}
	}
	return img, nil
}

// GroundTruthCorners projects the interior corners of pattern through the camera model, in the
// same row-major order as Pattern.ObjectPoints.
func GroundTruthCorners(
	model *transform.PinholeCameraModel,
	pose transform.ViewPose,
	pattern Pattern,
	squareSize float64,
) []r2.Point {
	objectPoints := pattern.ObjectPoints(squareSize)
	out := make([]r2.Point, 0, len(objectPoints))
	for _, pt := range objectPoints {
		px, _ := model.ProjectPoint(pt, pose)
		out = append(out, px)
	}
	return out
}

// BoardPose places the center of the board's corner grid on the optical axis at distance, then turns
// the board by roll, pitch and yaw (radians) about that center. The rotation is Rz(yaw)*Ry(pitch)*Rx(roll).
func BoardPose(pattern Pattern, squareSize, distance, roll, pitch, yaw float64) transform.ViewPose {
	rot := transform.EulerToMatrix(roll, pitch, yaw)
	center := r3.Vector{
		X: float64(pattern.Cols-1) * squareSize / 2,
		Y: float64(pattern.Rows-1) * squareSize / 2,
	}
	rotated := r3.Vector{
		X: rot.At(0, 0)*center.X + rot.At(0, 1)*center.Y,
		Y: rot.At(1, 0)*center.X + rot.At(1, 1)*center.Y,
		Z: rot.At(2, 0)*center.X + rot.At(2, 1)*center.Y,
	}
	return transform.NewViewPose(rot, r3.Vector{Z: distance}.Sub(rotated))
}
