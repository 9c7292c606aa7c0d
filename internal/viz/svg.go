package viz

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/san-kum/spacesim/internal/registry"
	"github.com/san-kum/spacesim/internal/snapshot"
	"github.com/san-kum/spacesim/internal/vmath"
)

// CanvasToSVG draws every lit dot of canvas as a circle, scale pixels
// apart.
func CanvasToSVG(canvas *Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	w, h := canvas.Dots()
	width := float64(w) * scale
	height := float64(h) * scale

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="#00ff00">
`, width, height, width, height)

	dotRadius := scale * 0.4
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !canvas.Lit(x, y) {
				continue
			}
			cx := float64(x)*scale + scale/2
			cy := float64(y)*scale + scale/2
			fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, dotRadius)
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// framesExtent encloses every body of every frame with 10% padding, at
// least one unit per side.
func framesExtent(frames []*snapshot.Frame) extent {
	e := newExtent()
	for _, f := range frames {
		for i := range f.Bodies {
			e.add(&f.Bodies[i])
		}
	}
	if e.empty {
		return e
	}
	span := e.span()
	pad := vmath.Vec2{X: math.Max(span.X*0.1, 1), Y: math.Max(span.Y*0.1, 1)}
	e.min = e.min.Sub(pad)
	e.max = e.max.Add(pad)
	return e
}

// TrailsToSVG draws the path of every body across frames and its final
// outline. Owned bodies use the accent color.
func TrailsToSVG(frames []*snapshot.Frame, width, height int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	e := framesExtent(frames)
	if e.empty {
		sb.WriteString("</svg>")
		return sb.String()
	}
	span := e.span()
	scale := math.Min(float64(width)/span.X, float64(height)/span.Y)
	project := func(p vmath.Vec2) (float64, float64) {
		return (p.X - e.min.X) * scale, float64(height) - (p.Y-e.min.Y)*scale
	}

	trails := make(map[registry.ID][]registry.Body)
	for _, f := range frames {
		for _, body := range f.Bodies {
			trails[body.ID] = append(trails[body.ID], body)
		}
	}
	ids := make([]registry.ID, 0, len(trails))
	for id := range trails {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		trail := trails[id]
		last := trail[len(trail)-1]
		color := "#00ffff"
		if last.Owned() {
			color = "#ff00ff"
		}

		if len(trail) > 1 {
			fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-opacity="0.6" stroke-width="1" d="M`, color)
			for i, p := range trail {
				x, y := project(p.Position)
				if i == 0 {
					fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
				} else {
					fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
				}
			}
			sb.WriteString("\"/>\n")
		}

		cx, cy := project(last.Position)
		fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\" fill=\"none\" stroke=\"%s\"><title>body %d</title></circle>\n",
			cx, cy, math.Max(last.Size*scale, 1), color, id)
	}

	sb.WriteString("</svg>")
	return sb.String()
}
