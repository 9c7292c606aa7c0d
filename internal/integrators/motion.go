package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/spacesim/internal/registry"
)

// DefaultDt is one tick-unit.
const DefaultDt = 1.0

// Motion advances every live body once per tick and decays lifetimes.
type Motion struct {
	dt      float64
	stepper Stepper
	expired []registry.ID
}

func NewMotion(dt float64, stepper Stepper) (*Motion, error) {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return nil, fmt.Errorf("dt must be positive, got %f", dt)
	}
	if stepper == nil {
		stepper = NewEuler()
	}
	return &Motion{dt: dt, stepper: stepper}, nil
}

func (m *Motion) Dt() float64 { return m.dt }

// Advance steps each body in ascending id order and decrements its
// lifetime. Bodies whose lifetime reached zero are returned in ascending
// order; they stay in the registry until the caller removes them at the
// end of the tick. The returned slice is reused by the next call.
func (m *Motion) Advance(reg *registry.Registry) []registry.ID {
	m.expired = m.expired[:0]
	reg.ForEach(func(b *registry.Body) {
		m.stepper.Step(b, m.dt)
		if b.Lifetime > 0 {
			b.Lifetime--
		}
		if b.Lifetime == 0 {
			m.expired = append(m.expired, b.ID)
		}
	})
	return m.expired
}
