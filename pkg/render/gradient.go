package render

import (
	"image/color"
	"math"

	"github.com/fogleman/gg"

	"azul/pkg/displaylist"
)

// linearPattern uses gg's gradient unless the stops repeat.
func linearPattern(g displaylist.LinearGradient) gg.Pattern {
	if len(g.Stops) == 0 {
		return nil
	}
	d := g.End.Sub(g.Start)
	len2 := d.X*d.X + d.Y*d.Y
	if !g.Repeating && len2 > 0 {
		p := gg.NewLinearGradient(g.Start.X, g.Start.Y, g.End.X, g.End.Y)
		for _, s := range g.Stops {
			p.AddColorStop(s.Offset, nrgba(s.Color))
		}
		return p
	}
	return &stopPattern{stops: g.Stops, repeating: g.Repeating, offset: func(x, y float64) float64 {
		if len2 == 0 {
			return 1
		}
		return ((x-g.Start.X)*d.X + (y-g.Start.Y)*d.Y) / len2
	}}
}

// radialPattern uses gg's gradient for plain circles; ellipses and
// repeating stops go through stopPattern.
func radialPattern(g displaylist.RadialGradient) gg.Pattern {
	if len(g.Stops) == 0 {
		return nil
	}
	rx, ry := g.Radius.Width, g.Radius.Height
	if !g.Repeating && rx == ry && rx > 0 {
		p := gg.NewRadialGradient(g.Center.X, g.Center.Y, 0, g.Center.X, g.Center.Y, rx)
		for _, s := range g.Stops {
			p.AddColorStop(s.Offset, nrgba(s.Color))
		}
		return p
	}
	return &stopPattern{stops: g.Stops, repeating: g.Repeating, offset: func(x, y float64) float64 {
		if rx <= 0 || ry <= 0 {
			return 1
		}
		return math.Hypot((x-g.Center.X)/rx, (y-g.Center.Y)/ry)
	}}
}

func conicPattern(g displaylist.ConicGradient) gg.Pattern {
	if len(g.Stops) == 0 {
		return nil
	}
	return &stopPattern{stops: g.Stops, repeating: g.Repeating, offset: func(x, y float64) float64 {
		// clockwise from up
		deg := math.Atan2(x-g.Center.X, g.Center.Y-y)*180/math.Pi - g.Angle
		deg = math.Mod(deg, 360)
		if deg < 0 {
			deg += 360
		}
		return deg / 360
	}}
}

// stopPattern implements gg.Pattern for gradients gg cannot express.
// offset maps a pixel centre to a position along the gradient.
type stopPattern struct {
	stops     []displaylist.Stop
	repeating bool
	offset    func(x, y float64) float64
}

func (p *stopPattern) ColorAt(x, y int) color.Color {
	return colorAt(p.stops, p.offset(float64(x)+0.5, float64(y)+0.5), p.repeating)
}

// colorAt interpolates the stops at t. Positions past either end take the
// end color unless the stops repeat.
func colorAt(stops []displaylist.Stop, t float64, repeating bool) color.NRGBA {
	first, last := stops[0], stops[len(stops)-1]
	if repeating {
		if span := last.Offset - first.Offset; span > 0 {
			t = first.Offset + math.Mod(t-first.Offset, span)
			if t < first.Offset {
				t += span
			}
		}
	}
	if t <= first.Offset {
		return nrgba(first.Color)
	}
	if t >= last.Offset {
		return nrgba(last.Color)
	}
	for i := 1; i < len(stops); i++ {
		a, b := stops[i-1], stops[i]
		if t >= b.Offset {
			continue
		}
		if b.Offset <= a.Offset {
			return nrgba(b.Color)
		}
		u := (t - a.Offset) / (b.Offset - a.Offset)
		ca, cb := nrgba(a.Color), nrgba(b.Color)
		lerp := func(x, y uint8) uint8 { return uint8(math.Round(float64(x) + (float64(y)-float64(x))*u)) }
		return color.NRGBA{R: lerp(ca.R, cb.R), G: lerp(ca.G, cb.G), B: lerp(ca.B, cb.B), A: lerp(ca.A, cb.A)}
	}
	return nrgba(last.Color)
}
