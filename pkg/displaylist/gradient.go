package displaylist

import (
	"math"

	"azul/pkg/css"
	"azul/pkg/geom"
)

// lengthResolver converts gradient lengths to pixels for one element.
type lengthResolver struct {
	em, rem  float64
	viewport css.Size
}

func (lr lengthResolver) px(l css.Length, ref float64) float64 {
	switch l.Unit {
	case css.UnitPercent:
		return l.Value / 100 * ref
	case css.UnitEm:
		return l.Value * lr.em
	case css.UnitRem:
		return l.Value * lr.rem
	case css.UnitVw:
		return l.Value / 100 * lr.viewport.Width
	case css.UnitVh:
		return l.Value / 100 * lr.viewport.Height
	case css.UnitVmin:
		return l.Value / 100 * min(lr.viewport.Width, lr.viewport.Height)
	case css.UnitVmax:
		return l.Value / 100 * max(lr.viewport.Width, lr.viewport.Height)
	}
	return l.Px()
}

// gradientItem resolves g against the positioning area r.
func gradientItem(g *css.Gradient, r geom.Rect, lr lengthResolver) Item {
	center := geom.Point{X: r.X + lr.px(g.CenterX, r.Width), Y: r.Y + lr.px(g.CenterY, r.Height)}
	switch g.Type {
	case css.GradientRadial:
		radius := radialExtent(g, r, center)
		return RadialGradient{Bounds: r, Center: center, Radius: radius,
			Stops: resolveStops(g.Stops, radius.Width, lr), Repeating: g.Repeating}
	case css.GradientConic:
		// conic stop positions are fractions of a turn
		return ConicGradient{Bounds: r, Center: center, Angle: g.FromAngle,
			Stops: resolveStops(g.Stops, 1, lr), Repeating: g.Repeating}
	}
	angle := g.Angle
	if g.ToCorner != "" {
		angle = cornerAngle(g.ToCorner, r.Width, r.Height)
	}
	sin, cos := math.Sincos(angle * math.Pi / 180)
	// the gradient line passes through the center and is long enough for
	// the perpendiculars at its ends to touch the far corners
	length := math.Abs(r.Width*sin) + math.Abs(r.Height*cos)
	mid := geom.Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
	d := geom.Point{X: sin * length / 2, Y: -cos * length / 2}
	return LinearGradient{Bounds: r, Start: mid.Sub(d), End: mid.Add(d),
		Stops: resolveStops(g.Stops, length, lr), Repeating: g.Repeating}
}

// cornerAngle is the angle of "to <corner>": the gradient line is
// perpendicular to the diagonal joining the two other corners.
func cornerAngle(corner string, w, h float64) float64 {
	a := math.Atan2(h, w) * 180 / math.Pi
	switch corner {
	case "top right":
		return a
	case "bottom right":
		return 180 - a
	case "bottom left":
		return 180 + a
	}
	return 360 - a
}

// radialExtent sizes the ending shape of a radial gradient (CSS Images 3
// §3.2.2).
func radialExtent(g *css.Gradient, r geom.Rect, c geom.Point) geom.Size {
	left, right := math.Abs(c.X-r.X), math.Abs(r.Right()-c.X)
	top, bottom := math.Abs(c.Y-r.Y), math.Abs(r.Bottom()-c.Y)
	sideX, sideY := min(left, right), min(top, bottom)
	if g.Extent == "farthest-side" || g.Extent == "farthest-corner" {
		sideX, sideY = max(left, right), max(top, bottom)
	}
	switch g.Extent {
	case "closest-side", "farthest-side":
		if g.Circle {
			s := min(sideX, sideY)
			if g.Extent == "farthest-side" {
				s = max(sideX, sideY)
			}
			return geom.Size{Width: s, Height: s}
		}
		return geom.Size{Width: sideX, Height: sideY}
	}
	if g.Circle {
		d := math.Hypot(sideX, sideY)
		return geom.Size{Width: d, Height: d}
	}
	// an ellipse through the corner keeps the aspect ratio of the sides
	return geom.Size{Width: sideX * math.Sqrt2, Height: sideY * math.Sqrt2}
}

// resolveStops converts stop positions to fractions of length and fills in
// the missing ones (CSS Images 3 §3.5.3): the first defaults to 0, the last
// to 1, positions never decrease, and unpositioned runs are spread evenly.
func resolveStops(stops []css.ColorStop, length float64, lr lengthResolver) []Stop {
	n := len(stops)
	out := make([]Stop, n)
	known := make([]bool, n)
	for i, s := range stops {
		out[i].Color = s.Color
		if !s.HasPosition {
			continue
		}
		known[i] = true
		switch {
		case s.Position.Unit == css.UnitPercent:
			out[i].Offset = s.Position.Value / 100
		case length > 0:
			out[i].Offset = lr.px(s.Position, length) / length
		}
	}
	if n == 0 {
		return out
	}
	if !known[0] {
		out[0].Offset, known[0] = 0, true
	}
	if !known[n-1] {
		out[n-1].Offset, known[n-1] = 1, true
	}
	floor := out[0].Offset
	for i := range out {
		if known[i] {
			out[i].Offset = max(out[i].Offset, floor)
			floor = out[i].Offset
		}
	}
	for i := 1; i < n; {
		if known[i] {
			i++
			continue
		}
		j := i
		for !known[j] {
			j++
		}
		from, to := out[i-1].Offset, out[j].Offset
		steps := float64(j - i + 1)
		for k := i; k < j; k++ {
			out[k].Offset = from + (to-from)*float64(k-i+1)/steps
		}
		i = j
	}
	return out
}
