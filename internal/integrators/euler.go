package integrators

import (
	"github.com/san-kum/spacesim/internal/registry"
	"github.com/san-kum/spacesim/internal/vmath"
)

// Stepper advances a single body's kinematic state by dt.
type Stepper interface {
	Step(b *registry.Body, dt float64)
}

// Euler is the explicit first-order step. Velocity is constant within a
// tick, so the step is exact for the force-free bodies the engine moves.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(b *registry.Body, dt float64) {
	b.Position = b.Position.Add(b.Velocity.Scale(dt))
}

// Project returns where a body at pos moving with vel will be after n
// fixed steps of dt.
func Project(pos, vel vmath.Vec2, dt float64, n int) vmath.Vec2 {
	return pos.Add(vel.Scale(dt * float64(n)))
}
