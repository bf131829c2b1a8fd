package calibration

import (
	"context"
	"image"
	"io"
	"path/filepath"
	"sync"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"go.viam.com/camcalib/logging"
	"go.viam.com/camcalib/rimage"
	"go.viam.com/camcalib/rimage/detection/chessboard"
)

// CornerDetector finds the pattern's interior corners in an image. label names the image in
// diagnostics.
type CornerDetector interface {
	DetectLabeled(label string, img image.Image, pattern chessboard.Pattern) ([]r2.Point, bool, error)
}

// Summary counts what happened to the candidate images of one AddDirectory call.
type Summary struct {
	Candidates     int
	Accepted       int
	NotDetected    int
	DecodeFailed   int
	SizeMismatched int
	Failed         int
}

func (s *Summary) record(err error) {
	switch {
	case err == nil:
		s.Accepted++
	case errors.Is(err, ErrPatternNotDetected):
		s.NotDetected++
	case errors.Is(err, ErrDecodeFailure):
		s.DecodeFailed++
	case errors.Is(err, ErrImageSizeMismatch):
		s.SizeMismatched++
	default:
		s.Failed++
	}
}

// Calibrator accumulates chessboard observations and solves for the camera model. All methods are
// safe for concurrent use.
type Calibrator struct {
	spec      PatternSpec
	detector  CornerDetector
	solver    Solver
	workers   int
	logger    logging.Logger

	mu           sync.Mutex
	observations ObservationSet
	imageSize    image.Point
	result       *Result
}

// NewCalibrator builds a calibrator with an OpenCV detector and solver configured from cfg.
func NewCalibrator(cfg Config, logger logging.Logger) (*Calibrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	detector, err := chessboard.NewDetector(cfg.Detection, logger.Sublogger("detector"))
	if err != nil {
		return nil, err
	}
	workers := cfg.Workers
	if cfg.Detection.Show {
		// the display window is interactive; keep detections in directory order
		workers = 1
	}
	return NewCalibratorWithComponents(cfg.Pattern, detector, NewOpenCVSolver(cfg.MinViews), workers, logger)
}

// NewCalibratorWithComponents builds a calibrator around the given detector and solver.
func NewCalibratorWithComponents(
	spec PatternSpec,
	detector CornerDetector,
	solver Solver,
	workers int,
	logger logging.Logger,
) (*Calibrator, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if detector == nil || solver == nil {
		return nil, errors.New("calibrator needs a detector and a solver")
	}
	if workers < 1 {
		workers = 1
	}
	return &Calibrator{
		spec:      spec,
		detector:  detector,
		solver:    solver,
		workers:   workers,
		logger:    logger,
	}, nil
}

// AddImage runs detection on a decoded image and records an observation when the pattern is found.
// Images whose size differs from the first image seen are rejected with ErrImageSizeMismatch.
func (c *Calibrator) AddImage(source string, img image.Image) (bool, error) {
	size := img.Bounds().Size()
	c.mu.Lock()
	if c.imageSize == (image.Point{}) {
		c.imageSize = size
	}
	expected := c.imageSize
	c.mu.Unlock()
	if size != expected {
		return false, errors.Wrapf(ErrImageSizeMismatch, "%s is %dx%d, expected %dx%d",
			source, size.X, size.Y, expected.X, expected.Y)
	}

	corners, found, err := c.detector.DetectLabeled(source, img, c.spec.Pattern())
	if err != nil {
		return false, errors.Wrapf(err, "detection failed on %s", source)
	}
	if !found {
		return false, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.observations.Add(Observation{Source: source, Reference: ReferencePoints(c.spec), Corners: corners}); err != nil {
		return false, err
	}
	return true, nil
}

// AddFile decodes the image at path and passes it to AddImage. Every outcome other than an accepted
// observation is reported as an error wrapping one of ErrDecodeFailure, ErrImageSizeMismatch or
// ErrPatternNotDetected.
func (c *Calibrator) AddFile(path string) error {
	img, err := rimage.ReadImageFromFile(path)
	if err != nil {
		return errors.Wrap(ErrDecodeFailure, err.Error())
	}
	found, err := c.AddImage(path, img)
	if err != nil {
		return err
	}
	if !found {
		return errors.Wrapf(ErrPatternNotDetected, "no %dx%d chessboard in %s", c.spec.Rows, c.spec.Cols, path)
	}
	return nil
}

// AddDirectory adds every .jpg, .jpeg and .png file in dir. Files that cannot be decoded, have the
// wrong size or show no chessboard are logged and skipped. A directory without candidate files
// returns ErrNoImagesFound.
//
// Files are examined in name order until one decodes, so the reference image size is always the
// first decodable file's, also when detection fans out to several workers. With more than one
// worker the remaining observations are appended in completion order.
func (c *Calibrator) AddDirectory(ctx context.Context, dir string) (Summary, error) {
	files, err := rimage.ListImageFiles(dir)
	if err != nil {
		return Summary{}, errors.Wrap(err, "cannot list calibration images")
	}
	if len(files) == 0 {
		return Summary{}, errors.Wrapf(ErrNoImagesFound, "no .jpg, .jpeg or .png files in %s", dir)
	}
	c.logger.Infow("processing calibration images", "dir", dir, "candidates", len(files), "workers", c.workers)

	summary := Summary{Candidates: len(files)}
	var summaryMu sync.Mutex
	process := func(path string) {
		err := c.AddFile(path)
		c.logOutcome(path, err)
		summaryMu.Lock()
		summary.record(err)
		summaryMu.Unlock()
	}

	next := 0
	for ; next < len(files); next++ {
		if c.workers > 1 && c.ImageSize() != (image.Point{}) {
			break
		}
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		process(files[next])
	}
	if next == len(files) {
		return summary, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for _, path := range files[next:] {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			process(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (c *Calibrator) logOutcome(path string, err error) {
	name := filepath.Base(path)
	switch {
	case err == nil:
		c.logger.Infow("chessboard detected", "image", name)
	case errors.Is(err, ErrPatternNotDetected):
		c.logger.Infow("chessboard not detected, skipping", "image", name)
	default:
		c.logger.Warnw("skipping image", "image", name, "error", err)
	}
}

// NumObservations is the number of images that contributed an observation.
func (c *Calibrator) NumObservations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.observations.Len()
}

// Observations returns a copy of the accumulated observations.
func (c *Calibrator) Observations() []Observation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.observations.Observations()
}

// ImageSize is the resolution of the first decoded image, or zero before any image was added.
func (c *Calibrator) ImageSize() image.Point {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.imageSize
}

// Calibrate solves for the camera model over all observations so far. The new result replaces any
// previous one; a failed solve leaves no result.
func (c *Calibrator) Calibrate(ctx context.Context) (*Result, error) {
	c.mu.Lock()
	observations := c.observations.Observations()
	size := c.imageSize
	c.result = nil
	c.mu.Unlock()

	if len(observations) == 0 {
		return nil, newSolveFailure("no image contained a %dx%d chessboard", c.spec.Rows, c.spec.Cols)
	}
	c.logger.Infow("calibrating", "views", len(observations), "width", size.X, "height", size.Y)
	res, err := c.solver.Solve(ctx, observations, size)
	if err != nil {
		if errors.Is(err, ErrSolveFailure) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, errors.Wrap(ErrSolveFailure, err.Error())
	}
	if res == nil {
		return nil, newSolveFailure("solver returned no result")
	}

	c.mu.Lock()
	c.result = res
	c.mu.Unlock()
	c.logger.Infow("calibration complete", "rms", res.ReprojectionError)
	return res, nil
}

// Result returns the latest calibration or ErrNoResultAvailable.
func (c *Calibrator) Result() (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result == nil {
		return nil, ErrNoResultAvailable
	}
	return c.result, nil
}

// Save writes the latest calibration to path. Nothing is written without a result.
func (c *Calibrator) Save(path string) error {
	res, err := c.Result()
	if err != nil {
		return err
	}
	if err := res.WriteToFile(path); err != nil {
		return err
	}
	c.logger.Infow("calibration saved", "path", path)
	return nil
}

// Close releases detector resources such as the display window.
func (c *Calibrator) Close() error {
	if closer, ok := c.detector.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
