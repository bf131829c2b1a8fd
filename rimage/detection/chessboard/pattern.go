// Package chessboard finds the interior corners of a planar chessboard calibration target and
// renders synthetic views of one.
package chessboard

import (
	"image"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Pattern is the number of interior corners of a chessboard: Rows along the vertical axis of the
// board and Cols along the horizontal one. A board of Pattern{7, 9} has 8x10 squares.
type Pattern struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// CheckValid rejects patterns the corner finder cannot work with.
func (p Pattern) CheckValid() error {
	if p.Rows < 2 || p.Cols < 2 {
		return errors.Errorf("chessboard pattern needs at least 2x2 interior corners, got %dx%d", p.Rows, p.Cols)
	}
	return nil
}

// NumCorners is the number of interior corners.
func (p Pattern) NumCorners() int {
	return p.Rows * p.Cols
}

// Size is the pattern size in the (width, height) order OpenCV expects.
func (p Pattern) Size() image.Point {
	return image.Pt(p.Cols, p.Rows)
}

// ObjectPoints lays the interior corners on the z=0 plane, row-major: index r*Cols+c is
// (c*squareSize, r*squareSize, 0).
func (p Pattern) ObjectPoints(squareSize float64) []r3.Vector {
	pts := make([]r3.Vector, 0, p.NumCorners())
	for r := 0; r < p.Rows; r++ {
		for c := 0; c < p.Cols; c++ {
			pts = append(pts, r3.Vector{X: float64(c) * squareSize, Y: float64(r) * squareSize})
		}
	}
	return pts
}
