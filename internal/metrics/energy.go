package metrics

import (
	"math"

	"github.com/san-kum/spacesim/internal/dynamo"
)

// KineticEnergy is the mean total kinetic energy per tick.
type KineticEnergy struct {
	name    string
	total   float64
	samples int
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (e *KineticEnergy) Name() string { return e.name }

func (e *KineticEnergy) Observe(r *dynamo.TickResult) {
	e.total += r.Frame.KineticEnergy()
	e.samples++
}

func (e *KineticEnergy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *KineticEnergy) Reset() {
	e.total = 0
	e.samples = 0
}

// MomentumDrift tracks the largest change in total momentum magnitude
// between consecutive ticks that neither spawned nor removed bodies.
// Collisions alone should keep it near zero.
type MomentumDrift struct {
	name     string
	prev     float64
	prevLen  int
	maxDrift float64
	samples  int
}

func NewMomentumDrift() *MomentumDrift {
	return &MomentumDrift{name: "momentum_drift"}
}

func (m *MomentumDrift) Name() string { return m.name }

func (m *MomentumDrift) Observe(r *dynamo.TickResult) {
	p := r.Frame.Momentum().Len()
	n := r.Frame.Len()
	if m.samples > 0 && n == m.prevLen && len(r.Expired) == 0 {
		m.maxDrift = math.Max(m.maxDrift, math.Abs(p-m.prev))
	}
	m.prev = p
	m.prevLen = n
	m.samples++
}

func (m *MomentumDrift) Value() float64 { return m.maxDrift }

func (m *MomentumDrift) Reset() {
	m.prev = 0
	m.prevLen = 0
	m.maxDrift = 0
	m.samples = 0
}
