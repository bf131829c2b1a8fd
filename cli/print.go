package cli

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"

	"go.viam.com/camcalib/logging"
	"go.viam.com/camcalib/rimage/calibration"
	"go.viam.com/camcalib/utils"
)

// printf prints a message with no prefix.
func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}

// warningf prints a message prefixed with a bold "Warning: ".
func warningf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, "\033[1mWarning:\033[0m "+format+"\n", a...)
}

// newLogger logs to the app's error writer, at debug level when --debug is set.
func newLogger(c *cli.Context) logging.Logger {
	level := logging.INFO
	if c.Bool(flagDebug) {
		level = logging.DEBUG
	}
	return logging.NewWriterLogger("camcalib", c.App.ErrWriter, level)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 6, 64)
}

// writeResultTable renders the camera matrix, distortion and error statistics of res.
func writeResultTable(w io.Writer, res *calibration.Result) {
	k := res.CameraMatrix
	intrinsics := table.NewWriter()
	intrinsics.SetOutputMirror(w)
	intrinsics.SetTitle("Camera matrix")
	for _, row := range k {
		intrinsics.AppendRow(table.Row{formatFloat(row[0]), formatFloat(row[1]), formatFloat(row[2])})
	}
	intrinsics.Render()

	params := table.NewWriter()
	params.SetOutputMirror(w)
	params.AppendHeader(table.Row{"Parameter", "Value"})
	params.AppendRows([]table.Row{
		{"fx", formatFloat(k[0][0])},
		{"fy", formatFloat(k[1][1])},
		{"cx", formatFloat(k[0][2])},
		{"cy", formatFloat(k[1][2])},
	})
	names := []string{"k1", "k2", "p1", "p2", "k3"}
	for i, d := range res.DistCoeffs {
		name := fmt.Sprintf("d%d", i)
		if i < len(names) {
			name = names[i]
		}
		params.AppendRow(table.Row{name, formatFloat(d)})
	}
	params.AppendSeparator()
	params.AppendRow(table.Row{"RMS reprojection error (px)", formatFloat(res.ReprojectionError)})
	if res.ImageSize.X > 0 && k[0][0] > 0 && k[1][1] > 0 {
		params.AppendRow(table.Row{"Image size", fmt.Sprintf("%dx%d", res.ImageSize.X, res.ImageSize.Y)})
		fovX := utils.RadToDeg(2 * math.Atan(float64(res.ImageSize.X)/(2*k[0][0])))
		fovY := utils.RadToDeg(2 * math.Atan(float64(res.ImageSize.Y)/(2*k[1][1])))
		params.AppendRow(table.Row{"Field of view (deg)", fmt.Sprintf("%.2f x %.2f", fovX, fovY)})
	}
	if stats, err := calibration.SummarizeErrors(res.PerViewErrors); err == nil {
		params.AppendRow(table.Row{"Views", len(res.PerViewErrors)})
		params.AppendRow(table.Row{"Per-view error mean (px)", formatFloat(stats.Mean)})
		params.AppendRow(table.Row{"Per-view error median (px)", formatFloat(stats.Median)})
		params.AppendRow(table.Row{"Per-view error max (px)", formatFloat(stats.Max)})
	}
	params.Render()
}

func writeSummaryTable(w io.Writer, summary calibration.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Images", "Count"})
	t.AppendRows([]table.Row{
		{"candidates", summary.Candidates},
		{"board detected", summary.Accepted},
		{"board not detected", summary.NotDetected},
		{"decode failed", summary.DecodeFailed},
		{"wrong size", summary.SizeMismatched},
	})
	if summary.Failed > 0 {
		t.AppendRow(table.Row{"detection error", summary.Failed})
	}
	t.Render()
}
