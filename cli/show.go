package cli

import (
	"github.com/urfave/cli/v2"

	"go.viam.com/camcalib/rimage/calibration"
)

// ShowAction is the corresponding Action for 'show'. It prints the calibration file given as the
// first argument, or the default output file.
func ShowAction(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		path = calibration.DefaultOutputPath
	}
	res, err := calibration.ReadResultFromFile(path)
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s", path)
	writeResultTable(c.App.Writer, res)
	return nil
}
