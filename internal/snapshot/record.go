// Package snapshot turns the registry into immutable per-tick frames and
// projects them onto the external BodyInfo record shapes.
package snapshot

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/spacesim/internal/registry"
)

// Shape selects which external record layout a caller expects.
type Shape uint8

const (
	// ShapeCurrent carries the owner right after the id.
	ShapeCurrent Shape = iota
	// ShapeLegacy predates ownership and has no owner field.
	ShapeLegacy
)

// RecordSize is the encoded size of one record in either shape. The legacy
// layout pads the 16-bit id to a 32-bit boundary.
const RecordSize = 28

func (s Shape) String() string {
	switch s {
	case ShapeCurrent:
		return "current"
	case ShapeLegacy:
		return "legacy"
	default:
		return fmt.Sprintf("shape(%d)", uint8(s))
	}
}

func ParseShape(name string) (Shape, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "current", "v2":
		return ShapeCurrent, nil
	case "legacy", "v1":
		return ShapeLegacy, nil
	default:
		return 0, fmt.Errorf("unknown record shape: %s", name)
	}
}

// Record is the current BodyInfo layout.
type Record struct {
	ID                int16
	Owner             int16
	Size              int32
	Proximity         int32
	Lifetime          int32
	BounceCoefficient float32
	VelocityX         float32
	VelocityY         float32
}

// LegacyRecord is the BodyInfo layout without ownership. The blank field
// mirrors the C struct's alignment padding after the id.
type LegacyRecord struct {
	ID                int16
	_                 int16
	Size              int32
	Proximity         int32
	Lifetime          int32
	BounceCoefficient float32
	VelocityX         float32
	VelocityY         float32
}

// ToRecord projects a body onto the current shape.
func ToRecord(b *registry.Body) Record {
	return Record{
		ID:                int16(b.ID),
		Owner:             int16(b.Owner),
		Size:              toInt32(b.Size),
		Proximity:         toInt32(b.Proximity),
		Lifetime:          b.Lifetime,
		BounceCoefficient: float32(b.Bounce),
		VelocityX:         float32(b.Velocity.X),
		VelocityY:         float32(b.Velocity.Y),
	}
}

// ToLegacyRecord projects a body onto the legacy shape, dropping the owner.
func ToLegacyRecord(b *registry.Body) LegacyRecord {
	return LegacyRecord{
		ID:                int16(b.ID),
		Size:              toInt32(b.Size),
		Proximity:         toInt32(b.Proximity),
		Lifetime:          b.Lifetime,
		BounceCoefficient: float32(b.Bounce),
		VelocityX:         float32(b.Velocity.X),
		VelocityY:         float32(b.Velocity.Y),
	}
}

func toInt32(v float64) int32 {
	r := math.Round(v)
	switch {
	case r > math.MaxInt32:
		return math.MaxInt32
	case r < math.MinInt32:
		return math.MinInt32
	}
	return int32(r)
}
