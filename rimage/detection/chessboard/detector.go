package chessboard

import (
	"fmt"
	"image"
	"path/filepath"
	"sync"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"go.viam.com/camcalib/logging"
	"go.viam.com/camcalib/rimage"
	"go.viam.com/camcalib/utils"
)

// DetectionConfiguration stores the parameters for corner finding and subpixel refinement.
type DetectionConfiguration struct {
	WinSize        int     `json:"win_size"`       // half side of the subpixel search window, as OpenCV takes it
	MaxIterations  int     `json:"max_iterations"` // refinement iteration cap
	Epsilon        float64 `json:"epsilon"`        // refinement stops once corners move less than this
	Show           bool    `json:"show"`           // display each detection in a window
	ShowWaitMillis int     `json:"show_wait_ms"`
	DebugDir       string  `json:"debug_dir"` // write an annotated PNG per image here when set
}

// DefaultDetectionConf stores the default parameters for chessboard detection.
var DefaultDetectionConf = DetectionConfiguration{
	WinSize:        11,
	MaxIterations:  30,
	Epsilon:        0.001,
	ShowWaitMillis: 500,
}

// CheckValid checks the refinement parameters.
func (cfg *DetectionConfiguration) CheckValid() error {
	if cfg.WinSize < 1 {
		return errors.Errorf("win_size must be positive, got %d", cfg.WinSize)
	}
	if cfg.MaxIterations < 1 {
		return errors.Errorf("max_iterations must be positive, got %d", cfg.MaxIterations)
	}
	if cfg.Epsilon <= 0 {
		return errors.Errorf("epsilon must be positive, got %v", cfg.Epsilon)
	}
	if cfg.ShowWaitMillis < 0 {
		return errors.Errorf("show_wait_ms cannot be negative, got %d", cfg.ShowWaitMillis)
	}
	return nil
}

// Detector finds chessboard corners with OpenCV. It is safe for concurrent use; the display window,
// when enabled, is shared and serialized.
type Detector struct {
	cfg    DetectionConfiguration
	logger logging.Logger

	mu       sync.Mutex
	window   *gocv.Window
	debugSeq int
}

// NewDetector returns a Detector using cfg.
func NewDetector(cfg DetectionConfiguration, logger logging.Logger) (*Detector, error) {
	if err := cfg.CheckValid(); err != nil {
		return nil, err
	}
	return &Detector{cfg: cfg, logger: logger}, nil
}

// Detect looks for the interior corners of pattern in img. Corners come back refined to subpixel
// accuracy in the corner finder's sweep order. A board that cannot be found is not an error: found
// is false and corners is nil.
func (d *Detector) Detect(img image.Image, pattern Pattern) ([]r2.Point, bool, error) {
	return d.DetectLabeled("", img, pattern)
}

// DetectLabeled is Detect with a label, usually the source file name, used to name debug output.
func (d *Detector) DetectLabeled(label string, img image.Image, pattern Pattern) ([]r2.Point, bool, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, false, errors.New("cannot detect chessboard in an empty image")
	}
	if err := pattern.CheckValid(); err != nil {
		return nil, false, err
	}
	gray := rimage.MakeGray(img)
	grayMat, err := gocv.ImageGrayToMatGray(gray)
	if err != nil {
		return nil, false, errors.Wrap(err, "cannot convert image for corner detection")
	}
	defer grayMat.Close()

	cornersMat := gocv.NewMat()
	defer cornersMat.Close()
	found := gocv.FindChessboardCorners(grayMat, pattern.Size(), &cornersMat,
		gocv.CalibCBAdaptiveThresh|gocv.CalibCBNormalizeImage)

	var corners []r2.Point
	if found {
		criteria := gocv.NewTermCriteria(gocv.Count|gocv.EPS, d.cfg.MaxIterations, d.cfg.Epsilon)
		// OpenCV rejects windows wider than the image, e.g. a win_size of 300 on a 480 row frame.
		winSize := image.Pt(d.cfg.WinSize, d.cfg.WinSize)
		if err := gocv.CornerSubPix(grayMat, &cornersMat, winSize, image.Pt(-1, -1), criteria); err != nil {
			return nil, false, errors.Wrap(err, "subpixel refinement failed")
		}
		corners, err = matToPoints(cornersMat)
		if err != nil {
			return nil, false, err
		}
		if len(corners) != pattern.NumCorners() {
			return nil, false, errors.Errorf("corner finder returned %d corners, expected %d", len(corners), pattern.NumCorners())
		}
		d.logger.Debugw("chessboard found", "image", label, "corners", len(corners))
	} else {
		// a very dark or washed out frame usually explains a miss
		d.logger.Debugw("chessboard not found", "image", label, "mean_intensity", rimage.GetGrayAvg(gray))
	}

	if d.cfg.Show {
		d.show(img, pattern, cornersMat, found)
	}
	if d.cfg.DebugDir != "" {
		if err := d.writeDebugImage(label, img, corners, found, pattern); err != nil {
			d.logger.Warnw("cannot write debug overlay", "image", label, "error", err)
		}
	}
	if !found {
		return nil, false, nil
	}
	return corners, true, nil
}

// Close releases the display window if one was opened.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.window == nil {
		return nil
	}
	err := d.window.Close()
	d.window = nil
	return err
}

func (d *Detector) show(img image.Image, pattern Pattern, corners gocv.Mat, found bool) {
	colorMat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		d.logger.Warnw("cannot display detection", "error", err)
		return
	}
	defer colorMat.Close()
	if found {
		if err := gocv.DrawChessboardCorners(&colorMat, pattern.Size(), corners, found); err != nil {
			d.logger.Warnw("cannot draw detected corners", "error", err)
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.window == nil {
		d.window = gocv.NewWindow("Chessboard Corners")
	}
	if err := d.window.IMShow(colorMat); err != nil {
		d.logger.Warnw("cannot display detection", "error", err)
		return
	}
	d.window.WaitKey(d.cfg.ShowWaitMillis)
}

func (d *Detector) writeDebugImage(label string, img image.Image, corners []r2.Point, found bool, pattern Pattern) error {
	d.mu.Lock()
	d.debugSeq++
	seq := d.debugSeq
	d.mu.Unlock()

	name := fmt.Sprintf("detection_%04d.png", seq)
	if label != "" {
		name = fmt.Sprintf("%s_corners.png", filepath.Base(label))
	}
	dir, err := filepath.Abs(d.cfg.DebugDir)
	if err != nil {
		return err
	}
	path, err := utils.SafeJoinDir(dir, name)
	if err != nil {
		return err
	}
	overlay := rimage.DrawCorners(img, corners, found, pattern.Cols)
	return rimage.WriteImageToFile(path, overlay)
}

// matToPoints reads a CV_32FC2 corner list regardless of whether OpenCV laid it out as a row or column.
func matToPoints(m gocv.Mat) ([]r2.Point, error) {
	if m.Empty() {
		return nil, nil
	}
	data, err := m.DataPtrFloat32()
	if err != nil {
		return nil, errors.Wrap(err, "cannot read corner data")
	}
	if len(data)%2 != 0 {
		return nil, errors.Errorf("corner data has odd length %d", len(data))
	}
	pts := make([]r2.Point, 0, len(data)/2)
	for i := 0; i+1 < len(data); i += 2 {
		pts = append(pts, r2.Point{X: float64(data[i]), Y: float64(data[i+1])})
	}
	return pts, nil
}

