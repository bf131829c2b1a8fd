package calibration

import (
	"encoding/json"
	"image"
	"os"

	"github.com/pkg/errors"

	"go.viam.com/camcalib/rimage/transform"
	"go.viam.com/camcalib/utils"
)

// Result is the outcome of a successful calibration.
type Result struct {
	CameraMatrix      [3][3]float64
	DistCoeffs        []float64 // OpenCV order: k1, k2, p1, p2, k3
	ReprojectionError float64   // RMS over all corners, in pixels
	ImageSize         image.Point
	Views             []transform.ViewPose
	PerViewErrors     []float64
}

// resultDocument is the on-disk layout. camera_matrix and dist_coeffs are the fields every
// consumer relies on; the rest are informational.
type resultDocument struct {
	CameraMatrix      [3][3]float64        `json:"camera_matrix"`
	DistCoeffs        json.RawMessage      `json:"dist_coeffs"`
	ReprojectionError float64              `json:"reprojection_error"`
	ImageWidth        int                  `json:"image_width,omitempty"`
	ImageHeight       int                  `json:"image_height,omitempty"`
	PerViewErrors     []float64            `json:"per_view_errors,omitempty"`
	Views             []transform.ViewPose `json:"views,omitempty"`
}

// MarshalJSON writes dist_coeffs as a single-row matrix, [[k1, k2, p1, p2, k3]].
func (r *Result) MarshalJSON() ([]byte, error) {
	dist := r.DistCoeffs
	if dist == nil {
		dist = []float64{}
	}
	distJSON, err := json.Marshal([][]float64{dist})
	if err != nil {
		return nil, err
	}
	return json.Marshal(resultDocument{
		CameraMatrix:      r.CameraMatrix,
		DistCoeffs:        distJSON,
		ReprojectionError: r.ReprojectionError,
		ImageWidth:        r.ImageSize.X,
		ImageHeight:       r.ImageSize.Y,
		PerViewErrors:     r.PerViewErrors,
		Views:             r.Views,
	})
}

// UnmarshalJSON accepts dist_coeffs either as a single-row matrix or as a flat list.
func (r *Result) UnmarshalJSON(data []byte) error {
	var doc resultDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if len(doc.DistCoeffs) == 0 {
		return errors.New("calibration document has no dist_coeffs")
	}
	var dist []float64
	var nested [][]float64
	if err := json.Unmarshal(doc.DistCoeffs, &nested); err == nil {
		for _, row := range nested {
			dist = append(dist, row...)
		}
	} else if err := json.Unmarshal(doc.DistCoeffs, &dist); err != nil {
		return errors.Wrap(err, "dist_coeffs must be a list of numbers or a list of lists")
	}
	*r = Result{
		CameraMatrix:      doc.CameraMatrix,
		DistCoeffs:        dist,
		ReprojectionError: doc.ReprojectionError,
		ImageSize:         image.Pt(doc.ImageWidth, doc.ImageHeight),
		Views:             doc.Views,
		PerViewErrors:     doc.PerViewErrors,
	}
	return nil
}

// WriteToFile stores the result as indented JSON. The document is written next to path and
// renamed over it, so a failed write never leaves a truncated file behind.
func (r *Result) WriteToFile(path string) error {
	data, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return errors.Wrap(err, "cannot encode calibration result")
	}
	return utils.WriteFileAtomic(path, append(data, '\n'), 0o644)
}

// ReadResultFromFile loads a calibration document.
func ReadResultFromFile(path string) (*Result, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read calibration file")
	}
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrapf(err, "cannot parse calibration file %q", path)
	}
	return &r, nil
}

// Intrinsics returns the pinhole parameters of the camera matrix.
func (r *Result) Intrinsics() *transform.PinholeCameraIntrinsics {
	return transform.NewPinholeCameraIntrinsicsFromMatrix(r.CameraMatrix, r.ImageSize.X, r.ImageSize.Y)
}

// CameraModel converts the result into a pinhole model with Brown-Conrady distortion.
func (r *Result) CameraModel() (*transform.PinholeCameraModel, error) {
	dist, err := transform.NewBrownConradyFromOpenCV(r.DistCoeffs)
	if err != nil {
		return nil, err
	}
	return &transform.PinholeCameraModel{PinholeCameraIntrinsics: r.Intrinsics(), Distortion: dist}, nil
}
