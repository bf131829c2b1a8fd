package calibration

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/camcalib/rimage/detection/chessboard"
)

const (
	// DefaultImagesDir is where calibration photographs are read from.
	DefaultImagesDir = "calibration_images"
	// DefaultOutputPath is where the calibration document is written.
	DefaultOutputPath = "camera_calibration.json"
)

// Config holds everything a calibration run needs.
type Config struct {
	ImagesDir  string                            `json:"images_dir"`
	OutputPath string                            `json:"output_path"`
	Pattern    PatternSpec                       `json:"pattern"`
	Detection  chessboard.DetectionConfiguration `json:"detection"`
	Workers    int                               `json:"workers"`
	MinViews   int                               `json:"min_views"`
}

// DefaultConfig returns a sequential run over ./calibration_images with the default board.
func DefaultConfig() Config {
	return Config{
		ImagesDir:  DefaultImagesDir,
		OutputPath: DefaultOutputPath,
		Pattern:    DefaultPatternSpec(),
		Detection:  chessboard.DefaultDetectionConf,
		Workers:    1,
		MinViews:   1,
	}
}

// Validate checks the configuration for errors.
func (cfg *Config) Validate() error {
	if cfg.ImagesDir == "" {
		return errors.New("images_dir is required")
	}
	if cfg.OutputPath == "" {
		return errors.New("output_path is required")
	}
	if err := cfg.Pattern.Validate(); err != nil {
		return errors.Wrap(err, "invalid pattern")
	}
	if err := cfg.Detection.CheckValid(); err != nil {
		return errors.Wrap(err, "invalid detection")
	}
	if cfg.Workers < 1 {
		return errors.Errorf("workers must be at least 1, got %d", cfg.Workers)
	}
	if cfg.MinViews < 1 {
		return errors.Errorf("min_views must be at least 1, got %d", cfg.MinViews)
	}
	return nil
}

// ReadConfigFromFile reads a JSON config. Fields missing from the file keep their defaults.
func ReadConfigFromFile(path string) (*Config, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "cannot open config file")
	}
	defer utils.UncheckedErrorFunc(f.Close)

	cfg := DefaultConfig()
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, errors.Wrapf(err, "cannot parse config file %q", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
