package calibration

import (
	"context"

	"go.uber.org/multierr"

	"go.viam.com/camcalib/logging"
)

// Run calibrates from cfg.ImagesDir and writes the result to cfg.OutputPath. The summary is
// returned even when the run fails after images were processed.
func Run(ctx context.Context, cfg Config, logger logging.Logger) (_ *Result, _ Summary, err error) {
	calibrator, err := NewCalibrator(cfg, logger)
	if err != nil {
		return nil, Summary{}, err
	}
	defer func() {
		err = multierr.Combine(err, calibrator.Close())
	}()
	return run(ctx, calibrator, cfg.ImagesDir, cfg.OutputPath, logger)
}

func run(ctx context.Context, calibrator *Calibrator, imagesDir, outputPath string, logger logging.Logger) (*Result, Summary, error) {
	summary, err := calibrator.AddDirectory(ctx, imagesDir)
	if err != nil {
		return nil, summary, err
	}
	logger.Infow("images processed",
		"candidates", summary.Candidates,
		"accepted", summary.Accepted,
		"not_detected", summary.NotDetected,
		"decode_failed", summary.DecodeFailed,
		"size_mismatched", summary.SizeMismatched,
		"observations", calibrator.NumObservations())

	res, err := calibrator.Calibrate(ctx)
	if err != nil {
		return nil, summary, err
	}
	if stats, statsErr := SummarizeErrors(res.PerViewErrors); statsErr == nil {
		logger.Infow("per-view reprojection error", "mean", stats.Mean, "median", stats.Median, "max", stats.Max)
	}
	if err := calibrator.Save(outputPath); err != nil {
		return nil, summary, err
	}
	return res, summary, nil
}
