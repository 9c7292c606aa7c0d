package collision

import (
	"fmt"
	"math"

	"github.com/san-kum/spacesim/internal/registry"
	"github.com/san-kum/spacesim/internal/vmath"
)

// DefaultOwnedShare is the fraction of an overlap an owned body absorbs
// when it touches an unowned one.
const DefaultOwnedShare = 0.25

// Index answers neighbourhood queries over the current tick's bodies.
type Index interface {
	Query(pos vmath.Vec2, radius float64) []registry.ID
}

// Contact describes one resolved pair, A < B.
type Contact struct {
	A, B       registry.ID
	Normal     vmath.Vec2
	Overlap    float64
	Closing    bool
	Degenerate bool
}

// ProximityEvent is raised when Other lies within Subject's proximity
// threshold. It has no physical effect.
type ProximityEvent struct {
	Subject  registry.ID
	Other    registry.ID
	Distance float64
}

type Report struct {
	Contacts  []Contact
	Proximity []ProximityEvent
}

type pairKey struct {
	lo, hi registry.ID
}

func orderedPair(a, b registry.ID) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a, b}
}

type Resolver struct {
	ownedShare float64
	seen       map[pairKey]struct{}
}

func NewResolver(ownedShare float64) (*Resolver, error) {
	if !(ownedShare >= 0 && ownedShare <= 1) {
		return nil, fmt.Errorf("owned share must be in [0,1], got %f", ownedShare)
	}
	return &Resolver{
		ownedShare: ownedShare,
		seen:       make(map[pairKey]struct{}),
	}, nil
}

// Resolve runs one collision pass. Bodies for which skip returns true are
// ignored both as subjects and as candidates.
func (r *Resolver) Resolve(reg *registry.Registry, index Index, skip func(registry.ID) bool) Report {
	clear(r.seen)
	var report Report

	for _, id := range reg.IDs() {
		if skip != nil && skip(id) {
			continue
		}
		b, ok := reg.Get(id)
		if !ok {
			continue
		}

		for _, cid := range index.Query(b.Position, b.Reach()) {
			if cid == id || (skip != nil && skip(cid)) {
				continue
			}
			c, ok := reg.Get(cid)
			if !ok {
				continue
			}

			dist := b.Position.Dist(c.Position)
			if b.Proximity > 0 && dist <= b.Proximity {
				report.Proximity = append(report.Proximity, ProximityEvent{
					Subject:  id,
					Other:    cid,
					Distance: dist,
				})
			}

			key := orderedPair(id, cid)
			if _, done := r.seen[key]; done {
				continue
			}
			if dist > b.Size+c.Size {
				continue
			}
			r.seen[key] = struct{}{}

			lo, hi := b, c
			if lo.ID > hi.ID {
				lo, hi = hi, lo
			}
			report.Contacts = append(report.Contacts, r.resolvePair(lo, hi))
		}
	}

	return report
}

// resolvePair bounces a and b apart. The normal points from a to b.
func (r *Resolver) resolvePair(a, b *registry.Body) Contact {
	dist := a.Position.Dist(b.Position)
	normal, ok := b.Position.Sub(a.Position).Normalize()
	if !ok {
		normal = vmath.UnitX
	}

	va := a.Velocity.Dot(normal)
	vb := b.Velocity.Dot(normal)

	// closing when a moves towards b faster than b moves away
	closing := va-vb > 0
	if closing {
		cm := (va + vb) / 2
		a.Velocity = bounce(a.Velocity, normal, cm, a.Bounce)
		b.Velocity = bounce(b.Velocity, normal, cm, b.Bounce)
	}

	overlap := a.Size + b.Size - dist
	if overlap > 0 {
		shareA, shareB := r.shares(a, b)
		a.Position = a.Position.Sub(normal.Scale(overlap * shareA))
		b.Position = b.Position.Add(normal.Scale(overlap * shareB))
	}

	return Contact{
		A:          a.ID,
		B:          b.ID,
		Normal:     normal,
		Overlap:    math.Max(overlap, 0),
		Closing:    closing,
		Degenerate: !ok,
	}
}

func (r *Resolver) shares(a, b *registry.Body) (float64, float64) {
	switch {
	case a.Owned() && !b.Owned():
		return r.ownedShare, 1 - r.ownedShare
	case b.Owned() && !a.Owned():
		return 1 - r.ownedShare, r.ownedShare
	default:
		return 0.5, 0.5
	}
}

// bounce reflects the normal component of v relative to the frame moving
// at cm along normal and scales the reflection by the body's own e.
func bounce(v, normal vmath.Vec2, cm, e float64) vmath.Vec2 {
	frame := normal.Scale(cm)
	rel := v.Sub(frame)
	along := normal.Scale(rel.Dot(normal))
	tangent := rel.Sub(along)
	return frame.Add(tangent).Add(along.Reflect(normal).Scale(e))
}
