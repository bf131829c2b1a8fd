// Package calibration estimates camera intrinsics and lens distortion from photographs of a
// chessboard target and persists the result as JSON.
package calibration

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/camcalib/rimage/detection/chessboard"
)

const (
	// DefaultRows is the number of interior corners along the board's vertical axis.
	DefaultRows = 7
	// DefaultCols is the number of interior corners along the board's horizontal axis.
	DefaultCols = 9
	// DefaultSquareSize is the side of one board square in meters.
	DefaultSquareSize = 0.035
)

// PatternSpec describes the calibration target.
type PatternSpec struct {
	Rows       int     `json:"rows"`
	Cols       int     `json:"cols"`
	SquareSize float64 `json:"square_size"`
}

// DefaultPatternSpec returns the 7x9 interior corner board with 35 mm squares.
func DefaultPatternSpec() PatternSpec {
	return PatternSpec{Rows: DefaultRows, Cols: DefaultCols, SquareSize: DefaultSquareSize}
}

// Validate checks that the pattern describes a usable board.
func (spec PatternSpec) Validate() error {
	if err := spec.Pattern().CheckValid(); err != nil {
		return err
	}
	if spec.SquareSize <= 0 || math.IsNaN(spec.SquareSize) || math.IsInf(spec.SquareSize, 0) {
		return errors.Errorf("square_size must be a positive number, got %v", spec.SquareSize)
	}
	return nil
}

// Pattern is the corner layout handed to the detector.
func (spec PatternSpec) Pattern() chessboard.Pattern {
	return chessboard.Pattern{Rows: spec.Rows, Cols: spec.Cols}
}

// NumCorners is Rows*Cols.
func (spec PatternSpec) NumCorners() int {
	return spec.Rows * spec.Cols
}

// ReferencePoints returns the board corners in target coordinates, row-major: index r*Cols+c is
// (c*SquareSize, r*SquareSize, 0).
func ReferencePoints(spec PatternSpec) []r3.Vector {
	return spec.Pattern().ObjectPoints(spec.SquareSize)
}
