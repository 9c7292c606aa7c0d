package viz

import (
	"math"

	"github.com/san-kum/spacesim/internal/registry"
	"github.com/san-kum/spacesim/internal/snapshot"
	"github.com/san-kum/spacesim/internal/vmath"
)

// arrowTicks is how many ticks of motion a velocity arrow spans.
const arrowTicks = 4

// extent is the world-space box enclosing every body outline.
type extent struct {
	min, max vmath.Vec2
	empty    bool
}

func newExtent() extent {
	return extent{
		min:   vmath.Vec2{X: math.Inf(1), Y: math.Inf(1)},
		max:   vmath.Vec2{X: math.Inf(-1), Y: math.Inf(-1)},
		empty: true,
	}
}

func (e *extent) add(b *registry.Body) {
	e.min.X = math.Min(e.min.X, b.Position.X-b.Size)
	e.min.Y = math.Min(e.min.Y, b.Position.Y-b.Size)
	e.max.X = math.Max(e.max.X, b.Position.X+b.Size)
	e.max.Y = math.Max(e.max.Y, b.Position.Y+b.Size)
	e.empty = false
}

// span is the box size, at least one unit per axis.
func (e extent) span() vmath.Vec2 {
	return vmath.Vec2{X: math.Max(e.max.X-e.min.X, 1), Y: math.Max(e.max.Y-e.min.Y, 1)}
}

// view maps world coordinates onto canvas dots, fitting every body.
type view struct {
	origin vmath.Vec2
	scale  float64
	cx, cy int
}

func fit(f *snapshot.Frame, c *Canvas) view {
	w, h := c.Dots()
	v := view{scale: 1, cx: w / 2, cy: h / 2}
	if f == nil || f.Len() == 0 {
		return v
	}
	e := newExtent()
	for i := range f.Bodies {
		e.add(&f.Bodies[i])
	}
	v.origin = e.min.Add(e.max).Scale(0.5)
	span := e.span()
	v.scale = 0.9 * math.Min(float64(w)/span.X, float64(h)/span.Y)
	return v
}

func (v view) project(p vmath.Vec2) (int, int) {
	d := p.Sub(v.origin).Scale(v.scale)
	// screen y grows downwards
	return v.cx + int(math.Round(d.X)), v.cy - int(math.Round(d.Y))
}

// plotBody draws a body's outline, an owner cross and a velocity arrow.
func plotBody(c *Canvas, v view, b *registry.Body) {
	x, y := v.project(b.Position)
	c.Ring(x, y, int(math.Round(b.Size*v.scale)))
	if b.Owned() {
		c.Cross(x, y)
	}
	if b.Velocity.LenSq() > vmath.Epsilon {
		tx, ty := v.project(b.Position.Add(b.Velocity.Scale(arrowTicks)))
		c.Line(x, y, tx, ty)
	}
}

// drawFrame plots every body of f on c, scaled to fit.
func drawFrame(c *Canvas, f *snapshot.Frame) {
	c.Clear()
	if f == nil {
		return
	}
	v := fit(f, c)
	for i := range f.Bodies {
		plotBody(c, v, &f.Bodies[i])
	}
}

// RenderFrame plots f on a fresh canvas of the given size in cells.
func RenderFrame(f *snapshot.Frame, w, h int) *Canvas {
	c := NewCanvas(w, h)
	drawFrame(c, f)
	return c
}
