package calibration

import "github.com/pkg/errors"

var (
	// ErrNoImagesFound is returned when the input directory holds no candidate image files.
	ErrNoImagesFound = errors.New("no calibration images found")
	// ErrPatternNotDetected marks an image in which the chessboard could not be found. It is never fatal.
	ErrPatternNotDetected = errors.New("chessboard pattern not detected")
	// ErrDecodeFailure marks an image file that could not be decoded. It is never fatal.
	ErrDecodeFailure = errors.New("cannot decode image")
	// ErrImageSizeMismatch marks an image whose resolution differs from the first decoded image.
	ErrImageSizeMismatch = errors.New("image size differs from the calibration resolution")
	// ErrSolveFailure is returned when the solver rejects the accumulated observations.
	ErrSolveFailure = errors.New("camera calibration failed")
	// ErrNoResultAvailable is returned when a result is requested before a successful Calibrate.
	ErrNoResultAvailable = errors.New("no calibration result available")
)

func newSolveFailure(format string, args ...interface{}) error {
	return errors.Wrapf(ErrSolveFailure, format, args...)
}
