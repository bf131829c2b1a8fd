package cli

import (
	"strconv"
	"strings"

	"github.com/golang/geo/r2"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/camcalib/rimage"
	"go.viam.com/camcalib/rimage/calibration"
)

// UndistortAction is the corresponding Action for 'undistort'. Each argument is a pixel
// coordinate "x,y" whose undistorted position is printed.
func UndistortAction(c *cli.Context) error {
	input, output := c.Path(flagInput), c.Path(flagOutput)
	points, err := parsePoints(c.Args().Slice())
	if err != nil {
		return err
	}
	if (input == "") != (output == "") {
		return errors.Errorf("--%s and --%s must be given together", flagInput, flagOutput)
	}
	if input == "" && len(points) == 0 {
		return errors.Errorf("nothing to undistort, pass --%s/--%s or x,y coordinates", flagInput, flagOutput)
	}

	res, err := calibration.ReadResultFromFile(c.Path(flagCalibration))
	if err != nil {
		return err
	}
	if input != "" {
		if err := undistortImageFile(c, res, input, output); err != nil {
			return err
		}
	}
	if len(points) == 0 {
		return nil
	}
	model, err := res.CameraModel()
	if err != nil {
		return err
	}
	undistorted, err := model.UndistortPoints(points)
	if err != nil {
		return errors.Wrap(err, "cannot undistort points")
	}
	t := table.NewWriter()
	t.SetOutputMirror(c.App.Writer)
	t.AppendHeader(table.Row{"x", "y", "undistorted x", "undistorted y"})
	for i, pt := range points {
		t.AppendRow(table.Row{
			formatFloat(pt.X), formatFloat(pt.Y),
			formatFloat(undistorted[i].X), formatFloat(undistorted[i].Y),
		})
	}
	t.Render()
	return nil
}

func undistortImageFile(c *cli.Context, res *calibration.Result, input, output string) error {
	img, err := rimage.ReadImageFromFile(input)
	if err != nil {
		return err
	}
	if res.ImageSize.X == 0 || res.ImageSize.Y == 0 {
		// documents from older tools carry no resolution; trust the image
		res.ImageSize = img.Bounds().Size()
	}
	model, err := res.CameraModel()
	if err != nil {
		return err
	}
	undistorted, err := model.UndistortImage(img)
	if err != nil {
		return errors.Wrap(err, "cannot undistort image")
	}
	if err := rimage.WriteImageToFile(output, undistorted); err != nil {
		return err
	}
	printf(c.App.Writer, "Wrote %s", output)
	return nil
}

// parsePoints reads "x,y" pairs.
func parsePoints(values []string) ([]r2.Point, error) {
	points := make([]r2.Point, 0, len(values))
	for _, value := range values {
		xs, ys, ok := strings.Cut(value, ",")
		if !ok {
			return nil, errors.Errorf("point %q is not of the form x,y", value)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "bad x in point %q", value)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "bad y in point %q", value)
		}
		points = append(points, r2.Point{X: x, Y: y})
	}
	return points, nil
}
