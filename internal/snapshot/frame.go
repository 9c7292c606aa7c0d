package snapshot

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/san-kum/spacesim/internal/registry"
	"github.com/san-kum/spacesim/internal/vmath"
)

// Frame is an immutable copy of the body set after a tick completes.
// Bodies are ascending by id and hold only live bodies.
type Frame struct {
	Seq    uint64
	Bodies []registry.Body
}

// Capture copies the registry into a new frame.
func Capture(seq uint64, reg *registry.Registry) *Frame {
	return &Frame{Seq: seq, Bodies: reg.Snapshot()}
}

func (f *Frame) Len() int { return len(f.Bodies) }

// Find returns the body with id, if present.
func (f *Frame) Find(id registry.ID) (registry.Body, bool) {
	lo, hi := 0, len(f.Bodies)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case f.Bodies[mid].ID == id:
			return f.Bodies[mid], true
		case f.Bodies[mid].ID < id:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return registry.Body{}, false
}

// Project builds the boundary records for shape.
func (f *Frame) Project(shape Shape) Batch {
	out := Batch{Shape: shape}
	if shape == ShapeLegacy {
		out.Legacy = make([]LegacyRecord, len(f.Bodies))
		for i := range f.Bodies {
			out.Legacy[i] = ToLegacyRecord(&f.Bodies[i])
		}
		return out
	}
	out.Current = make([]Record, len(f.Bodies))
	for i := range f.Bodies {
		out.Current[i] = ToRecord(&f.Bodies[i])
	}
	return out
}

// Checksum hashes the full internal state of the frame, positions
// included, so two runs can be compared tick by tick.
func (f *Frame) Checksum() uint64 {
	h := xxhash.New()
	var buf [8]byte
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = h.Write(buf[:])
	}
	put(f.Seq)
	for i := range f.Bodies {
		b := &f.Bodies[i]
		put(uint64(uint16(b.ID))<<16 | uint64(uint16(b.Owner)))
		put(math.Float64bits(b.Position.X))
		put(math.Float64bits(b.Position.Y))
		put(math.Float64bits(b.Velocity.X))
		put(math.Float64bits(b.Velocity.Y))
		put(math.Float64bits(b.Size))
		put(math.Float64bits(b.Proximity))
		put(uint64(uint32(b.Lifetime)))
		put(math.Float64bits(b.Bounce))
	}
	return h.Sum64()
}

// Momentum sums body velocities. All bodies carry unit mass.
func (f *Frame) Momentum() vmath.Vec2 {
	var p vmath.Vec2
	for i := range f.Bodies {
		p = p.Add(f.Bodies[i].Velocity)
	}
	return p
}

// KineticEnergy is the total 0.5*|v|^2 over bodies of unit mass.
func (f *Frame) KineticEnergy() float64 {
	var e float64
	for i := range f.Bodies {
		e += 0.5 * f.Bodies[i].Velocity.LenSq()
	}
	return e
}

// Exporter projects frames onto the shape a caller negotiated.
type Exporter struct {
	shape Shape
}

func NewExporter(shape Shape) *Exporter {
	return &Exporter{shape: shape}
}

func (e *Exporter) Shape() Shape { return e.shape }

// Export captures the registry and projects it in the exporter's shape.
func (e *Exporter) Export(seq uint64, reg *registry.Registry) (*Frame, Batch) {
	f := Capture(seq, reg)
	return f, f.Project(e.shape)
}
