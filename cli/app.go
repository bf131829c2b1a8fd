// Package cli contains the camcalib command line application.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"

	"go.viam.com/camcalib/rimage/calibration"
)

const (
	flagConfig     = "config"
	flagDebug      = "debug"
	flagImages     = "images"
	flagOutput     = "output"
	flagRows       = "rows"
	flagCols       = "cols"
	flagSquareSize = "square-size"
	flagShow       = "show"
	flagDebugDir   = "debug-dir"
	flagWorkers    = "workers"
	flagMinViews   = "min-views"
	flagWait       = "wait"

	flagCalibration = "calibration"
	flagInput       = "input"
	flagWidth       = "width"
	flagHeight      = "height"
	flagFx          = "fx"
	flagFy          = "fy"
	flagCx          = "cx"
	flagCy          = "cy"
	flagDistance    = "distance"
	flagRoll        = "roll"
	flagPitch       = "pitch"
	flagYaw         = "yaw"
	flagSupersample = "supersample"
	flagIntrinsics  = "intrinsics"
)

func patternFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  flagRows,
			Value: calibration.DefaultRows,
			Usage: "interior corners along the board's vertical axis",
		},
		&cli.IntFlag{
			Name:  flagCols,
			Value: calibration.DefaultCols,
			Usage: "interior corners along the board's horizontal axis",
		},
		&cli.Float64Flag{
			Name:  flagSquareSize,
			Value: calibration.DefaultSquareSize,
			Usage: "side of one board square in meters",
		},
	}
}

func calibrateFlags() []cli.Flag {
	return append([]cli.Flag{
		&cli.PathFlag{
			Name:    flagConfig,
			Aliases: []string{"c"},
			Usage:   "load calibration settings from `FILE`; flags given on the command line win",
		},
		&cli.PathFlag{
			Name:    flagImages,
			Aliases: []string{"i"},
			Value:   calibration.DefaultImagesDir,
			Usage:   "directory of chessboard photographs (.jpg, .jpeg, .png)",
		},
		&cli.PathFlag{
			Name:    flagOutput,
			Aliases: []string{"o"},
			Value:   calibration.DefaultOutputPath,
			Usage:   "where to write the calibration JSON",
		},
		&cli.BoolFlag{
			Name:  flagShow,
			Usage: "display each detection in a window",
		},
		&cli.PathFlag{
			Name:  flagDebugDir,
			Usage: "write an annotated corner overlay per image to `DIR`",
		},
		&cli.IntFlag{
			Name:  flagWorkers,
			Value: 1,
			Usage: "images to run detection on in parallel",
		},
		&cli.IntFlag{
			Name:  flagMinViews,
			Value: 1,
			Usage: "fewest images with a detected board needed to calibrate",
		},
		&cli.BoolFlag{
			Name:  flagWait,
			Usage: "wait for Enter before processing so images can be copied in",
		},
	}, patternFlags()...)
}

var app = &cli.App{
	Name:                 "camcalib",
	Usage:                "calibrate a camera from chessboard photographs",
	HideHelpCommand:      true,
	EnableBashCompletion: true,
	Flags: append([]cli.Flag{
		&cli.BoolFlag{
			Name:    flagDebug,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
	}, calibrateFlags()...),
	Action: CalibrateAction,
	Commands: []*cli.Command{
		{
			Name:   "calibrate",
			Usage:  "detect the chessboard in every image and solve for the camera model",
			Flags:  calibrateFlags(),
			Action: CalibrateAction,
		},
		{
			Name:      "show",
			Usage:     "print a calibration file",
			ArgsUsage: "[calibration file]",
			Action:    ShowAction,
		},
		{
			Name:      "undistort",
			Usage:     "remove lens distortion from an image or from pixel coordinates using a calibration file",
			UsageText: "camcalib undistort --calibration <file> [--input <image> --output <image>] [x,y ...]",
			ArgsUsage: "[pixel coordinates x,y ...]",
			Flags: []cli.Flag{
				&cli.PathFlag{
					Name:  flagCalibration,
					Value: calibration.DefaultOutputPath,
					Usage: "calibration JSON written by calibrate",
				},
				&cli.PathFlag{
					Name:  flagInput,
					Usage: "image to undistort",
				},
				&cli.PathFlag{
					Name:  flagOutput,
					Usage: "where to write the undistorted image (.png or .jpg)",
				},
			},
			Action: UndistortAction,
		},
		{
			Name:  "render-target",
			Usage: "render a synthetic view of a chessboard through an ideal pinhole camera",
			Flags: append([]cli.Flag{
				&cli.PathFlag{
					Name:     flagOutput,
					Required: true,
					Usage:    "where to write the rendered image",
				},
				&cli.PathFlag{
					Name:  flagIntrinsics,
					Usage: "JSON intrinsics file (width_px, height_px, fx, fy, ppx, ppy); replaces the camera flags",
				},
				&cli.IntFlag{Name: flagWidth, Value: 640, Usage: "image width in pixels"},
				&cli.IntFlag{Name: flagHeight, Value: 480, Usage: "image height in pixels"},
				&cli.Float64Flag{Name: flagFx, Value: 800, Usage: "horizontal focal length in pixels"},
				&cli.Float64Flag{Name: flagFy, Value: 800, Usage: "vertical focal length in pixels"},
				&cli.Float64Flag{Name: flagCx, Value: 320, Usage: "principal point x"},
				&cli.Float64Flag{Name: flagCy, Value: 240, Usage: "principal point y"},
				&cli.Float64Flag{Name: flagDistance, Value: 0.7, Usage: "distance from the camera to the board center in meters"},
				&cli.Float64Flag{Name: flagRoll, Usage: "board rotation about x in degrees"},
				&cli.Float64Flag{Name: flagPitch, Usage: "board rotation about y in degrees"},
				&cli.Float64Flag{Name: flagYaw, Usage: "board rotation about the optical axis in degrees"},
				&cli.IntFlag{Name: flagSupersample, Value: 4, Usage: "rays per pixel along each axis"},
			}, patternFlags()...),
			Action: RenderTargetAction,
		},
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(in io.Reader, out, errOut io.Writer) *cli.App {
	app.Reader = in
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
