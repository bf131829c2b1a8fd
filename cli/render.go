package cli

import (
	"github.com/urfave/cli/v2"

	"go.viam.com/camcalib/rimage"
	"go.viam.com/camcalib/rimage/calibration"
	"go.viam.com/camcalib/rimage/detection/chessboard"
	"go.viam.com/camcalib/rimage/transform"
	"go.viam.com/camcalib/utils"
)

// RenderTargetAction is the corresponding Action for 'render-target'.
func RenderTargetAction(c *cli.Context) error {
	spec := calibration.PatternSpec{
		Rows:       c.Int(flagRows),
		Cols:       c.Int(flagCols),
		SquareSize: c.Float64(flagSquareSize),
	}
	if err := spec.Validate(); err != nil {
		return err
	}
	intrinsics := &transform.PinholeCameraIntrinsics{
		Width:  c.Int(flagWidth),
		Height: c.Int(flagHeight),
		Fx:     c.Float64(flagFx),
		Fy:     c.Float64(flagFy),
		Ppx:    c.Float64(flagCx),
		Ppy:    c.Float64(flagCy),
	}
	if path := c.Path(flagIntrinsics); path != "" {
		var err error
		if intrinsics, err = transform.NewPinholeCameraIntrinsicsFromJSONFile(path); err != nil {
			return err
		}
	}
	pose := chessboard.BoardPose(spec.Pattern(), spec.SquareSize, c.Float64(flagDistance),
		utils.DegToRad(c.Float64(flagRoll)), utils.DegToRad(c.Float64(flagPitch)), utils.DegToRad(c.Float64(flagYaw)))
	img, err := chessboard.Render(intrinsics, pose, spec.Pattern(), spec.SquareSize, c.Int(flagSupersample))
	if err != nil {
		return err
	}
	if err := rimage.WriteImageToFile(c.Path(flagOutput), img); err != nil {
		return err
	}
	printf(c.App.Writer, "Wrote %s", c.Path(flagOutput))
	return nil
}
