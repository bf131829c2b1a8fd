package calibration

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Observation pairs the reference grid with the corners detected in one image. Index i of
// Reference corresponds to index i of Corners.
type Observation struct {
	Source    string
	Reference []r3.Vector
	Corners   []r2.Point
}

// ObservationSet is an append-only list of observations. It is not safe for concurrent use.
type ObservationSet struct {
	observations []Observation
}

// Add appends obs after checking both sides have the same, non-zero length. The set keeps obs's
// slices; callers must not modify them afterwards.
func (s *ObservationSet) Add(obs Observation) error {
	if len(obs.Corners) == 0 {
		return errors.Errorf("observation %q has no corners", obs.Source)
	}
	if len(obs.Reference) != len(obs.Corners) {
		return errors.Errorf("observation %q has %d reference points but %d corners",
			obs.Source, len(obs.Reference), len(obs.Corners))
	}
	s.observations = append(s.observations, obs)
	return nil
}

// Len is the number of observations.
func (s *ObservationSet) Len() int {
	return len(s.observations)
}

// Observations returns a deep copy of the accumulated observations; callers may modify it freely.
func (s *ObservationSet) Observations() []Observation {
	out := make([]Observation, len(s.observations))
	for i, obs := range s.observations {
		out[i] = Observation{
			Source:    obs.Source,
			Reference: append([]r3.Vector(nil), obs.Reference...),
			Corners:   append([]r2.Point(nil), obs.Corners...),
		}
	}
	return out
}
