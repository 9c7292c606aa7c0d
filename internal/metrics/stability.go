package metrics

import (
	"github.com/san-kum/spacesim/internal/dynamo"
)

// Stability is the fraction of ticks in which every body stayed below
// the speed threshold.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(r *dynamo.TickResult) {
	s.samples++
	limit := s.threshold * s.threshold
	for i := range r.Frame.Bodies {
		v := r.Frame.Bodies[i].Velocity
		if !v.IsValid() || v.LenSq() > limit {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// Standard returns the metric set attached by the CLI.
func Standard(speedLimit float64) []dynamo.Metric {
	return []dynamo.Metric{
		NewPopulation(),
		NewContacts(),
		NewDropped(),
		NewKineticEnergy(),
		NewMomentumDrift(),
		NewStability(speedLimit),
	}
}
