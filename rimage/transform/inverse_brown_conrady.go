package transform

import "math"

const (
	inverseMaxIterations = 20
	inverseTolerance     = 1e-12
)

// InverseBrownConrady undoes a BrownConrady distortion: given distorted normalized coordinates it
// finds the ideal coordinates that distort onto them, by Newton-Raphson on the forward model.
type InverseBrownConrady struct {
	Forward BrownConrady `json:"forward"`
}

// NewInverseBrownConrady takes the forward model parameters in BrownConrady order.
func NewInverseBrownConrady(inp []float64) (*InverseBrownConrady, error) {
	bc, err := NewBrownConrady(inp)
	if err != nil {
		return nil, err
	}
	return &InverseBrownConrady{Forward: *bc}, nil
}

// CheckValid checks if the fields for InverseBrownConrady have valid inputs.
func (ibc *InverseBrownConrady) CheckValid() error {
	if ibc == nil {
		return InvalidDistortionError("InverseBrownConrady shaped distortion_parameters not provided")
	}
	return ibc.Forward.CheckValid()
}

// ModelType returns the type of distortion model.
func (ibc *InverseBrownConrady) ModelType() DistortionType {
	return InverseBrownConradyDistortionType
}

// Parameters returns the parameters of the forward model.
func (ibc *InverseBrownConrady) Parameters() []float64 {
	if ibc == nil {
		return []float64{}
	}
	return ibc.Forward.Parameters()
}

// Transform maps distorted (xd, yd) to undistorted coordinates. The distorted point is the
// starting guess; iteration stops on convergence, a singular Jacobian or the iteration cap.
func (ibc *InverseBrownConrady) Transform(xd, yd float64) (float64, float64) {
	if ibc == nil {
		return xd, yd
	}
	xu, yu := xd, yd
	for i := 0; i < inverseMaxIterations; i++ {
		xe, ye := ibc.Forward.Transform(xu, yu)
		errX, errY := xe-xd, ye-yd
		if math.Hypot(errX, errY) < inverseTolerance {
			break
		}
		j := ibc.Forward.jacobian(xu, yu)
		det := j[0]*j[3] - j[1]*j[2]
		if det == 0 {
			break
		}
		xu -= (j[3]*errX - j[1]*errY) / det
		yu -= (-j[2]*errX + j[0]*errY) / det
	}
	return xu, yu
}
