// Package render rasterizes display lists with gg.
package render

import (
	"image"
	"image/color"
	"io"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"azul/pkg/css"
	"azul/pkg/displaylist"
	"azul/pkg/geom"
	"azul/pkg/images"
	"azul/pkg/text"
)

// outliner is implemented by fonts that can produce glyph outlines, such as
// opentype.Font. Runs in other fonts are skipped.
type outliner interface {
	Outline(g text.GlyphID, size float64) (sfnt.Segments, error)
}

type Renderer struct {
	context *gg.Context
	fonts   *text.FontSet
	images  *images.Cache
	clips   []displaylist.PushClip
}

// NewRenderer returns a renderer drawing into a width x height canvas.
// fonts and imgs must be the ones the display list was built against; either
// may be nil.
func NewRenderer(width, height int, fonts *text.FontSet, imgs *images.Cache) *Renderer {
	return &Renderer{context: gg.NewContext(width, height), fonts: fonts, images: imgs}
}

// Render clears the canvas to white and paints every item of l in order.
func (r *Renderer) Render(l *displaylist.DisplayList) {
	r.context.ResetClip()
	r.clips = r.clips[:0]
	r.context.SetRGB(1, 1, 1)
	r.context.Clear()
	if l == nil {
		return
	}
	for _, it := range l.Items {
		r.draw(it)
	}
	// unbalanced pushes end with the list
	r.clips = r.clips[:0]
	r.context.ResetClip()
}

func (r *Renderer) draw(it displaylist.Item) {
	switch v := it.(type) {
	case displaylist.Rect:
		if v.Color.A <= 0 || v.Bounds.Empty() {
			return
		}
		r.setColor(v.Color)
		r.roundedRect(v.Bounds, v.Radii)
		r.context.Fill()
	case displaylist.LinearGradient:
		r.fillPattern(v.Bounds, linearPattern(v))
	case displaylist.RadialGradient:
		r.fillPattern(v.Bounds, radialPattern(v))
	case displaylist.ConicGradient:
		r.fillPattern(v.Bounds, conicPattern(v))
	case displaylist.Border:
		r.drawBorder(v)
	case displaylist.Image:
		r.drawImage(v)
	case displaylist.TextRun:
		r.drawText(v)
	case displaylist.PushClip:
		r.clips = append(r.clips, v)
		r.applyClip(v)
	case displaylist.PopClip:
		if len(r.clips) == 0 {
			return
		}
		r.clips = r.clips[:len(r.clips)-1]
		r.restoreClips()
	}
}

// Image returns the canvas.
func (r *Renderer) Image() image.Image {
	return r.context.Image()
}

func (r *Renderer) SavePNG(filename string) error {
	return r.context.SavePNG(filename)
}

func (r *Renderer) EncodePNG(w io.Writer) error {
	return r.context.EncodePNG(w)
}

func (r *Renderer) setColor(c css.Color) {
	r.context.SetRGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, c.A)
}

// roundedRect adds rect to the current path with per-corner radii,
// clockwise from top-left.
func (r *Renderer) roundedRect(rect geom.Rect, radii geom.Radii) {
	dc := r.context
	if radii.Zero() {
		dc.DrawRectangle(rect.X, rect.Y, rect.Width, rect.Height)
		return
	}
	x, y, right, bottom := rect.X, rect.Y, rect.Right(), rect.Bottom()
	dc.NewSubPath()
	dc.MoveTo(x+radii[0], y)
	dc.LineTo(right-radii[1], y)
	if radii[1] > 0 {
		dc.DrawArc(right-radii[1], y+radii[1], radii[1], -math.Pi/2, 0)
	}
	dc.LineTo(right, bottom-radii[2])
	if radii[2] > 0 {
		dc.DrawArc(right-radii[2], bottom-radii[2], radii[2], 0, math.Pi/2)
	}
	dc.LineTo(x+radii[3], bottom)
	if radii[3] > 0 {
		dc.DrawArc(x+radii[3], bottom-radii[3], radii[3], math.Pi/2, math.Pi)
	}
	dc.LineTo(x, y+radii[0])
	if radii[0] > 0 {
		dc.DrawArc(x+radii[0], y+radii[0], radii[0], math.Pi, 3*math.Pi/2)
	}
	dc.ClosePath()
}

// gg's Clip() is permanent (not restored by Pop), so the clip stack is kept
// here and the mask rebuilt from it whenever a clip ends.
func (r *Renderer) applyClip(c displaylist.PushClip) {
	r.roundedRect(c.Rect, c.Radii)
	r.context.Clip()
}

func (r *Renderer) restoreClips() {
	r.context.ResetClip()
	for _, c := range r.clips {
		r.applyClip(c)
	}
}

func (r *Renderer) fillPattern(bounds geom.Rect, p gg.Pattern) {
	if bounds.Empty() || p == nil {
		return
	}
	r.context.SetFillStyle(p)
	r.context.DrawRectangle(bounds.X, bounds.Y, bounds.Width, bounds.Height)
	r.context.Fill()
}

// drawBorder paints each side as a trapezoid between the border and padding
// edges, so adjoining sides meet on the diagonal. Rounded borders are the
// same trapezoids clipped to the ring between the two rounded edges.
func (r *Renderer) drawBorder(b displaylist.Border) {
	w := b.Widths
	if w[0] <= 0 && w[1] <= 0 && w[2] <= 0 && w[3] <= 0 {
		return
	}
	outer := b.Bounds
	inner := outer.Inset(geom.Edges{Top: w[0], Right: w[1], Bottom: w[2], Left: w[3]})

	rounded := !b.Radii.Zero()
	if rounded {
		r.roundedRect(outer, b.Radii)
		r.roundedRect(inner, innerRadii(b.Radii, w))
		r.context.SetFillRuleEvenOdd()
		r.context.Clip()
		r.context.SetFillRuleWinding()
	}

	for side := 0; side < 4; side++ {
		if w[side] <= 0 || b.Colors[side].A <= 0 {
			continue
		}
		r.setColor(b.Colors[side])
		switch b.Styles[side] {
		case "none", "hidden":
			continue
		case "dashed", "dotted":
			r.strokeSide(displaylist.Side(side), outer, w, b.Styles[side] == "dotted")
		case "double":
			third := geom.Edges{Top: w[0] / 3, Right: w[1] / 3, Bottom: w[2] / 3, Left: w[3] / 3}
			r.fillSide(displaylist.Side(side), outer, outer.Inset(third))
			r.fillSide(displaylist.Side(side), inner.Outset(third), inner)
		default:
			r.fillSide(displaylist.Side(side), outer, inner)
		}
	}

	if rounded {
		r.restoreClips()
	}
}

// fillSide fills the trapezoid of one side between two nested rects.
func (r *Renderer) fillSide(side displaylist.Side, outer, inner geom.Rect) {
	dc := r.context
	switch side {
	case displaylist.Top:
		dc.MoveTo(outer.X, outer.Y)
		dc.LineTo(outer.Right(), outer.Y)
		dc.LineTo(inner.Right(), inner.Y)
		dc.LineTo(inner.X, inner.Y)
	case displaylist.Right:
		dc.MoveTo(outer.Right(), outer.Y)
		dc.LineTo(outer.Right(), outer.Bottom())
		dc.LineTo(inner.Right(), inner.Bottom())
		dc.LineTo(inner.Right(), inner.Y)
	case displaylist.Bottom:
		dc.MoveTo(outer.X, outer.Bottom())
		dc.LineTo(outer.Right(), outer.Bottom())
		dc.LineTo(inner.Right(), inner.Bottom())
		dc.LineTo(inner.X, inner.Bottom())
	case displaylist.Left:
		dc.MoveTo(outer.X, outer.Y)
		dc.LineTo(outer.X, outer.Bottom())
		dc.LineTo(inner.X, inner.Bottom())
		dc.LineTo(inner.X, inner.Y)
	}
	dc.ClosePath()
	dc.Fill()
}

// strokeSide strokes a dashed or dotted side along its centre line.
func (r *Renderer) strokeSide(side displaylist.Side, outer geom.Rect, w [4]float64, dotted bool) {
	dc := r.context
	width := w[side]
	var x0, y0, x1, y1 float64
	switch side {
	case displaylist.Top:
		x0, y0, x1, y1 = outer.X, outer.Y+width/2, outer.Right(), outer.Y+width/2
	case displaylist.Right:
		x0, y0, x1, y1 = outer.Right()-width/2, outer.Y, outer.Right()-width/2, outer.Bottom()
	case displaylist.Bottom:
		x0, y0, x1, y1 = outer.X, outer.Bottom()-width/2, outer.Right(), outer.Bottom()-width/2
	case displaylist.Left:
		x0, y0, x1, y1 = outer.X+width/2, outer.Y, outer.X+width/2, outer.Bottom()
	}
	if dotted {
		dc.SetDash(width, width)
	} else {
		dc.SetDash(3*width, 3*width)
	}
	dc.SetLineWidth(width)
	dc.SetLineCapButt()
	dc.DrawLine(x0, y0, x1, y1)
	dc.Stroke()
	dc.SetDash()
}

// innerRadii shrinks each outer corner radius by the wider of the two
// borders meeting at it.
func innerRadii(radii geom.Radii, w [4]float64) geom.Radii {
	adj := [4][2]int{{0, 3}, {0, 1}, {1, 2}, {2, 3}}
	var out geom.Radii
	for i, a := range adj {
		out[i] = max(0, radii[i]-max(w[a[0]], w[a[1]]))
	}
	return out
}

// drawImage draws a registered image scaled to its bounds. Missing images
// get a broken-image placeholder.
func (r *Renderer) drawImage(v displaylist.Image) {
	b := v.Bounds
	if b.Empty() {
		return
	}
	var img image.Image
	if v.Key != images.NullImage && r.images != nil {
		img, _ = r.images.Image(v.Key)
	}
	if img == nil || img.Bounds().Empty() {
		r.context.SetRGB(0.9, 0.9, 0.9)
		r.context.DrawRectangle(b.X, b.Y, b.Width, b.Height)
		r.context.Fill()
		r.context.SetRGB(0.5, 0.5, 0.5)
		r.context.SetLineWidth(2)
		r.context.DrawLine(b.X, b.Y, b.Right(), b.Bottom())
		r.context.DrawLine(b.Right(), b.Y, b.X, b.Bottom())
		r.context.Stroke()
		return
	}

	r.context.Push()
	r.context.Translate(b.X, b.Y)
	bounds := img.Bounds()
	r.context.Scale(b.Width/float64(bounds.Dx()), b.Height/float64(bounds.Dy()))
	r.context.DrawImage(img, -bounds.Min.X, -bounds.Min.Y)
	r.context.Pop()
}

// drawText fills the outline of every glyph of a run at its pen origin.
func (r *Renderer) drawText(run displaylist.TextRun) {
	if run.Color.A <= 0 || len(run.Glyphs) == 0 {
		return
	}
	face, ok := r.fonts.Face(run.Font)
	if !ok {
		return
	}
	o, ok := face.Font.(outliner)
	if !ok {
		return
	}
	scale := run.Scale
	if scale <= 0 {
		scale = 1
	}
	r.setColor(run.Color)
	for _, g := range run.Glyphs {
		segs, err := o.Outline(g.ID, run.Size)
		if err != nil || len(segs) == 0 {
			continue
		}
		r.context.Push()
		r.context.Translate(g.Origin.X, g.Origin.Y)
		if run.Sideways {
			r.context.Rotate(math.Pi / 2)
		}
		r.context.Scale(scale, 1)
		r.glyphPath(segs)
		r.context.Fill()
		r.context.Pop()
	}
}

func (r *Renderer) glyphPath(segs sfnt.Segments) {
	pt := func(p fixed.Point26_6) (float64, float64) {
		return float64(p.X) / 64, float64(p.Y) / 64
	}
	dc := r.context
	for _, s := range segs {
		switch s.Op {
		case sfnt.SegmentOpMoveTo:
			dc.MoveTo(pt(s.Args[0]))
		case sfnt.SegmentOpLineTo:
			dc.LineTo(pt(s.Args[0]))
		case sfnt.SegmentOpQuadTo:
			x1, y1 := pt(s.Args[0])
			x2, y2 := pt(s.Args[1])
			dc.QuadraticTo(x1, y1, x2, y2)
		case sfnt.SegmentOpCubeTo:
			x1, y1 := pt(s.Args[0])
			x2, y2 := pt(s.Args[1])
			x3, y3 := pt(s.Args[2])
			dc.CubicTo(x1, y1, x2, y2, x3, y3)
		}
	}
	dc.ClosePath()
}

func nrgba(c css.Color) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(math.Round(math.Max(0, math.Min(1, c.A)) * 255))}
}
