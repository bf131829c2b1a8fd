package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/camcalib/rimage/calibration"
)

const (
	stepPrepare   = "prepare"
	stepCalibrate = "calibrate"
)

// configFromFlags starts from the config file, if any, or the defaults, and applies every flag set
// on the command line.
func configFromFlags(c *cli.Context) (calibration.Config, error) {
	cfg := calibration.DefaultConfig()
	if path := c.Path(flagConfig); path != "" {
		fromFile, err := calibration.ReadConfigFromFile(path)
		if err != nil {
			return calibration.Config{}, err
		}
		cfg = *fromFile
	}
	if c.IsSet(flagImages) {
		cfg.ImagesDir = c.Path(flagImages)
	}
	if c.IsSet(flagOutput) {
		cfg.OutputPath = c.Path(flagOutput)
	}
	if c.IsSet(flagRows) {
		cfg.Pattern.Rows = c.Int(flagRows)
	}
	if c.IsSet(flagCols) {
		cfg.Pattern.Cols = c.Int(flagCols)
	}
	if c.IsSet(flagSquareSize) {
		cfg.Pattern.SquareSize = c.Float64(flagSquareSize)
	}
	if c.IsSet(flagShow) {
		cfg.Detection.Show = c.Bool(flagShow)
	}
	if c.IsSet(flagDebugDir) {
		cfg.Detection.DebugDir = c.Path(flagDebugDir)
	}
	if c.IsSet(flagWorkers) {
		cfg.Workers = c.Int(flagWorkers)
	}
	if c.IsSet(flagMinViews) {
		cfg.MinViews = c.Int(flagMinViews)
	}
	if err := cfg.Validate(); err != nil {
		return calibration.Config{}, err
	}
	return cfg, nil
}

// CalibrateAction is the corresponding Action for 'calibrate' and the default action of the app.
func CalibrateAction(c *cli.Context) error {
	cfg, err := configFromFlags(c)
	if err != nil {
		return err
	}
	logger := newLogger(c)
	progress := newProgressPrinter(c.App.Writer,
		&Step{ID: stepPrepare, Message: "Preparing image directory"},
		&Step{ID: stepCalibrate, Message: "Calibrating"},
	)

	progress.Start(stepPrepare)
	if err := os.MkdirAll(cfg.ImagesDir, 0o750); err != nil {
		err = errors.Wrap(err, "cannot create image directory")
		progress.Fail(stepPrepare, err)
		return err
	}
	if cfg.Detection.DebugDir != "" {
		if err := os.MkdirAll(cfg.Detection.DebugDir, 0o750); err != nil {
			err = errors.Wrap(err, "cannot create debug directory")
			progress.Fail(stepPrepare, err)
			return err
		}
	}
	progress.Complete(stepPrepare, fmt.Sprintf("Reading images from %s", cfg.ImagesDir))
	printf(c.App.Writer, "Place photographs of a chessboard with %dx%d interior corners and %g m squares in %s",
		cfg.Pattern.Cols, cfg.Pattern.Rows, cfg.Pattern.SquareSize, cfg.ImagesDir)
	if c.Bool(flagWait) {
		printf(c.App.Writer, "Press Enter to start calibration...")
		if _, err := bufio.NewReader(c.App.Reader).ReadString('\n'); err != nil && !errors.Is(err, io.EOF) {
			return errors.Wrap(err, "cannot read confirmation")
		}
	}
	if cfg.Detection.Show {
		warningf(c.App.ErrWriter, "--%s displays every image and runs detection on one image at a time", flagShow)
	}

	progress.Start(stepCalibrate)
	res, summary, err := calibration.Run(c.Context, cfg, logger)
	if summary.Candidates > 0 {
		writeSummaryTable(c.App.Writer, summary)
	}
	if err != nil {
		progress.Fail(stepCalibrate, err)
		return err
	}
	progress.Complete(stepCalibrate, fmt.Sprintf("Calibration saved to %s", cfg.OutputPath))
	writeResultTable(c.App.Writer, res)
	return nil
}
