package transform

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// ViewPose is the pose of a calibration target relative to the camera for a single view.
// Rotation is an axis-angle (Rodrigues) vector in radians, Translation is in the target's units.
type ViewPose struct {
	Rotation    r3.Vector `json:"rvec"`
	Translation r3.Vector `json:"tvec"`
}

// RotationMatrix expands the Rodrigues vector into a 3x3 rotation matrix.
func (p ViewPose) RotationMatrix() *mat.Dense {
	return RodriguesToMatrix(p.Rotation)
}

// Transform maps a point in target coordinates into the camera frame.
func (p ViewPose) Transform(pt r3.Vector) r3.Vector {
	return rotate(p.RotationMatrix(), pt).Add(p.Translation)
}

// NewViewPose builds a pose from a rotation matrix and translation.
func NewViewPose(rot mat.Matrix, translation r3.Vector) ViewPose {
	return ViewPose{Rotation: MatrixToRodrigues(rot), Translation: translation}
}

// RodriguesToMatrix converts an axis-angle vector to a rotation matrix.
func RodriguesToMatrix(rvec r3.Vector) *mat.Dense {
	theta := rvec.Norm()
	if theta < 1e-12 {
		// first order expansion, exact enough at this magnitude
		return mat.NewDense(3, 3, []float64{
			1, -rvec.Z, rvec.Y,
			rvec.Z, 1, -rvec.X,
			-rvec.Y, rvec.X, 1,
		})
	}
	k := rvec.Mul(1 / theta)
	c, s := math.Cos(theta), math.Sin(theta)
	v := 1 - c
	return mat.NewDense(3, 3, []float64{
		c + k.X*k.X*v, k.X*k.Y*v - k.Z*s, k.X*k.Z*v + k.Y*s,
		k.Y*k.X*v + k.Z*s, c + k.Y*k.Y*v, k.Y*k.Z*v - k.X*s,
		k.Z*k.X*v - k.Y*s, k.Z*k.Y*v + k.X*s, c + k.Z*k.Z*v,
	})
}

// MatrixToRodrigues converts a rotation matrix to its axis-angle vector, with angle in [0, pi].
func MatrixToRodrigues(rot mat.Matrix) r3.Vector {
	trace := rot.At(0, 0) + rot.At(1, 1) + rot.At(2, 2)
	cosTheta := math.Max(-1, math.Min(1, (trace-1)/2))
	theta := math.Acos(cosTheta)
	skew := r3.Vector{
		X: rot.At(2, 1) - rot.At(1, 2),
		Y: rot.At(0, 2) - rot.At(2, 0),
		Z: rot.At(1, 0) - rot.At(0, 1),
	}
	switch {
	case theta < 1e-9:
		return skew.Mul(0.5)
	case math.Pi-theta < 1e-6:
		// sin(theta) vanishes; recover the axis from the symmetric part
		k := r3.Vector{
			X: math.Sqrt(math.Max(0, (rot.At(0, 0)+1)/2)),
			Y: math.Sqrt(math.Max(0, (rot.At(1, 1)+1)/2)),
			Z: math.Sqrt(math.Max(0, (rot.At(2, 2)+1)/2)),
		}
		switch {
		case k.X >= k.Y && k.X >= k.Z:
			k.Y = math.Copysign(k.Y, rot.At(0, 1))
			k.Z = math.Copysign(k.Z, rot.At(0, 2))
		case k.Y >= k.Z:
			k.X = math.Copysign(k.X, rot.At(0, 1))
			k.Z = math.Copysign(k.Z, rot.At(1, 2))
		default:
			k.X = math.Copysign(k.X, rot.At(0, 2))
			k.Y = math.Copysign(k.Y, rot.At(1, 2))
		}
		return k.Normalize().Mul(theta)
	default:
		return skew.Mul(theta / (2 * math.Sin(theta)))
	}
}

// EulerToMatrix returns Rz(yaw) * Ry(pitch) * Rx(roll), angles in radians.
func EulerToMatrix(roll, pitch, yaw float64) *mat.Dense {
	cx, sx := math.Cos(roll), math.Sin(roll)
	cy, sy := math.Cos(pitch), math.Sin(pitch)
	cz, sz := math.Cos(yaw), math.Sin(yaw)
	rx := mat.NewDense(3, 3, []float64{1, 0, 0, 0, cx, -sx, 0, sx, cx})
	ry := mat.NewDense(3, 3, []float64{cy, 0, sy, 0, 1, 0, -sy, 0, cy})
	rz := mat.NewDense(3, 3, []float64{cz, -sz, 0, sz, cz, 0, 0, 0, 1})
	var zy, out mat.Dense
	zy.Mul(rz, ry)
	out.Mul(&zy, rx)
	return &out
}

func rotate(rot mat.Matrix, pt r3.Vector) r3.Vector {
	return r3.Vector{
		X: rot.At(0, 0)*pt.X + rot.At(0, 1)*pt.Y + rot.At(0, 2)*pt.Z,
		Y: rot.At(1, 0)*pt.X + rot.At(1, 1)*pt.Y + rot.At(1, 2)*pt.Z,
		Z: rot.At(2, 0)*pt.X + rot.At(2, 1)*pt.Y + rot.At(2, 2)*pt.Z,
	}
}
