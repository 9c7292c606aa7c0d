// Package spatial partitions bodies by position so proximity queries touch
// only the neighbourhood of a point instead of the whole body set.
package spatial

import (
	"math"
	"slices"

	"github.com/san-kum/spacesim/internal/registry"
	"github.com/san-kum/spacesim/internal/vmath"
)

// DefaultCellSize is used when the grid is auto-tuned over an empty set.
const DefaultCellSize = 32.0

// maxCellSpan is the widest a body may span, in cells per axis, before it
// is kept on the oversized list instead of being stamped into every cell.
const maxCellSpan = 64

type cellKey struct {
	col, row int
}

// Grid is a hashed uniform grid over unbounded space. Each body is stored
// in every cell overlapped by the bounding box of its contact circle, so a
// query finds any body whose circle reaches the query circle.
type Grid struct {
	fixedSize float64
	cellSize  float64
	inv       float64
	cells     map[cellKey][]registry.ID
	oversized []registry.ID
	all       []registry.ID
	count     int

	// per-query dedup without a map allocation
	stamp   uint32
	visited map[registry.ID]uint32
	scratch []float64
}

// NewGrid returns an empty grid. A cellSize of 0 tunes the cell size to
// the body set on every Rebuild.
func NewGrid(cellSize float64) *Grid {
	if cellSize < 0 || math.IsNaN(cellSize) || math.IsInf(cellSize, 0) {
		cellSize = 0
	}
	g := &Grid{
		fixedSize: cellSize,
		cells:     make(map[cellKey][]registry.ID),
		visited:   make(map[registry.ID]uint32),
	}
	g.setCellSize(cellSize)
	return g
}

func (g *Grid) setCellSize(size float64) {
	if size <= 0 {
		size = DefaultCellSize
	}
	g.cellSize = size
	g.inv = 1.0 / size
}

// CellSize reports the cell edge length used by the last Rebuild.
func (g *Grid) CellSize() float64 { return g.cellSize }

// Len reports how many bodies the grid indexes.
func (g *Grid) Len() int { return g.count }

// Clear removes all entries, keeping cell slices for reuse.
func (g *Grid) Clear() {
	for k, items := range g.cells {
		if len(items) == 0 {
			delete(g.cells, k)
			continue
		}
		g.cells[k] = items[:0]
	}
	clear(g.visited)
	g.oversized = g.oversized[:0]
	g.all = g.all[:0]
	g.count = 0
}

// Rebuild indexes bodies from scratch in O(n).
func (g *Grid) Rebuild(bodies []*registry.Body) {
	g.Clear()
	if g.fixedSize > 0 {
		g.setCellSize(g.fixedSize)
	} else {
		g.setCellSize(g.medianSpan(bodies))
	}

	for _, b := range bodies {
		g.insert(b.ID, b.Position, b.Size)
	}
	g.count = len(bodies)
}

// medianSpan picks the median interaction diameter as cell size.
func (g *Grid) medianSpan(bodies []*registry.Body) float64 {
	if len(bodies) == 0 {
		return DefaultCellSize
	}
	g.scratch = g.scratch[:0]
	for _, b := range bodies {
		g.scratch = append(g.scratch, 2*b.Reach())
	}
	slices.Sort(g.scratch)
	return g.scratch[len(g.scratch)/2]
}

func (g *Grid) insert(id registry.ID, pos vmath.Vec2, radius float64) {
	g.all = append(g.all, id)
	c0, r0, c1, r1 := g.span(pos, radius)
	if c1-c0 > maxCellSpan || r1-r0 > maxCellSpan {
		g.oversized = append(g.oversized, id)
		return
	}
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			k := cellKey{col, row}
			g.cells[k] = append(g.cells[k], id)
		}
	}
}

// Query returns the ids of bodies in cells overlapping the circle at pos
// with the given radius, ascending and without duplicates. Results
// over-approximate; callers filter by exact distance.
func (g *Grid) Query(pos vmath.Vec2, radius float64) []registry.ID {
	if g.count == 0 {
		return nil
	}

	g.stamp++
	if g.stamp == 0 {
		clear(g.visited)
		g.stamp = 1
	}

	c0, r0, c1, r1 := g.span(pos, radius)
	if float64(c1-c0+1)*float64(r1-r0+1) > float64(len(g.cells)) {
		// the circle covers more cells than are occupied
		out := slices.Clone(g.all)
		slices.Sort(out)
		return out
	}

	out := slices.Clone(g.oversized)
	for _, id := range out {
		g.visited[id] = g.stamp
	}
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			for _, id := range g.cells[cellKey{col, row}] {
				if g.visited[id] == g.stamp {
					continue
				}
				g.visited[id] = g.stamp
				out = append(out, id)
			}
		}
	}
	slices.Sort(out)
	return out
}

func (g *Grid) span(pos vmath.Vec2, radius float64) (c0, r0, c1, r1 int) {
	if radius < 0 {
		radius = 0
	}
	c0, r0 = g.cell(pos.X-radius), g.cell(pos.Y-radius)
	c1, r1 = g.cell(pos.X+radius), g.cell(pos.Y+radius)
	return c0, r0, c1, r1
}

func (g *Grid) cell(v float64) int {
	return int(math.Floor(v * g.inv))
}
