package registry

import (
	"math"

	"github.com/san-kum/spacesim/internal/vmath"
)

// ID identifies a body for the lifetime of its registry. The external
// record carries it as a signed 16-bit integer.
type ID int16

// OwnerID identifies the actor controlling a body.
type OwnerID int16

// Unowned marks a body that no actor controls.
const Unowned OwnerID = 0

// MaxID is the last id the registry hands out.
const MaxID = ID(math.MaxInt16)

type Body struct {
	ID        ID
	Owner     OwnerID
	Position  vmath.Vec2
	Velocity  vmath.Vec2
	Size      float64
	Proximity float64
	Lifetime  int32
	Bounce    float64
}

// Owned reports whether an actor controls b.
func (b *Body) Owned() bool { return b.Owner != Unowned }

// Reach is the radius within which b interacts with other bodies.
func (b *Body) Reach() float64 { return math.Max(b.Size, b.Proximity) }

// Params are the initial fields of a body.
type Params struct {
	Owner     OwnerID
	Position  vmath.Vec2
	Velocity  vmath.Vec2
	Size      float64
	Proximity float64
	Lifetime  int32
	Bounce    float64
}

func (p Params) Validate() error {
	switch {
	case !(p.Size > 0) || math.IsInf(p.Size, 0):
		return &ParamError{Field: "size", Value: p.Size}
	case !(p.Proximity >= 0) || math.IsInf(p.Proximity, 0):
		return &ParamError{Field: "proximity", Value: p.Proximity}
	case !(p.Bounce >= 0 && p.Bounce <= 1):
		return &ParamError{Field: "bounce", Value: p.Bounce}
	case p.Lifetime < 1:
		return &ParamError{Field: "lifetime", Value: p.Lifetime}
	case !p.Position.IsValid():
		return &ParamError{Field: "position", Value: p.Position}
	case !p.Velocity.IsValid():
		return &ParamError{Field: "velocity", Value: p.Velocity}
	}
	return nil
}

func (p Params) body(id ID) *Body {
	return &Body{
		ID:        id,
		Owner:     p.Owner,
		Position:  p.Position,
		Velocity:  p.Velocity,
		Size:      p.Size,
		Proximity: p.Proximity,
		Lifetime:  p.Lifetime,
		Bounce:    p.Bounce,
	}
}
