package calibration

import (
	"math"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"

	"go.viam.com/camcalib/rimage/transform"
)

// ErrorStats summarizes per-view reprojection errors in pixels.
type ErrorStats struct {
	Mean   float64
	Median float64
	Max    float64
}

// SummarizeErrors computes the mean, median and max of errs.
func SummarizeErrors(errs []float64) (ErrorStats, error) {
	data := stats.Float64Data(errs)
	mean, err := stats.Mean(data)
	if err != nil {
		return ErrorStats{}, errors.Wrap(err, "no reprojection errors to summarize")
	}
	median, err := stats.Median(data)
	if err != nil {
		return ErrorStats{}, err
	}
	maxErr, err := stats.Max(data)
	if err != nil {
		return ErrorStats{}, err
	}
	return ErrorStats{Mean: mean, Median: median, Max: maxErr}, nil
}

// ViewReprojectionError is the RMS distance in pixels between obs.Corners and the reference points
// projected through model at pose.
func ViewReprojectionError(model *transform.PinholeCameraModel, pose transform.ViewPose, obs Observation) float64 {
	if len(obs.Corners) == 0 {
		return 0
	}
	var sum float64
	for i, ref := range obs.Reference {
		px, ok := model.ProjectPoint(ref, pose)
		if !ok {
			return math.Inf(1)
		}
		d := px.Sub(obs.Corners[i])
		sum += d.X*d.X + d.Y*d.Y
	}
	return math.Sqrt(sum / float64(len(obs.Corners)))
}

// perViewErrors recomputes the RMS reprojection error of every view of r.
func perViewErrors(r *Result, observations []Observation) ([]float64, error) {
	if len(r.Views) != len(observations) {
		return nil, errors.Errorf("have %d view poses for %d observations", len(r.Views), len(observations))
	}
	model, err := r.CameraModel()
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(observations))
	for i, obs := range observations {
		out[i] = ViewReprojectionError(model, r.Views[i], obs)
	}
	return out, nil
}
