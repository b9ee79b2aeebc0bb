package displaylist

import (
	"azul/pkg/css"
	"azul/pkg/dom"
	"azul/pkg/geom"
	"azul/pkg/images"
	"azul/pkg/text"
)

// Item is one paint command. The concrete types are Rect, LinearGradient,
// RadialGradient, ConicGradient, Border, Image, TextRun, PushClip and
// PopClip.
type Item interface {
	// Area returns the rect the item may touch. PopClip has none.
	Area() geom.Rect
}

// Rect fills a rectangle, rounded when Radii is non-zero.
type Rect struct {
	Bounds geom.Rect
	Color  css.Color
	Radii  geom.Radii
}

// Stop is a resolved gradient color stop. Offset is a fraction of the
// gradient line, ray or turn.
type Stop struct {
	Offset float64
	Color  css.Color
}

// LinearGradient paints Bounds with a gradient running from Start to End.
type LinearGradient struct {
	Bounds     geom.Rect
	Start, End geom.Point
	Stops      []Stop
	Repeating  bool
}

// RadialGradient paints Bounds with an elliptical gradient. Radius holds
// the horizontal and vertical radii of the ending shape.
type RadialGradient struct {
	Bounds    geom.Rect
	Center    geom.Point
	Radius    geom.Size
	Stops     []Stop
	Repeating bool
}

// ConicGradient paints Bounds with a gradient swept around Center. Angle
// is the start of the sweep in degrees, clockwise from up.
type ConicGradient struct {
	Bounds    geom.Rect
	Center    geom.Point
	Angle     float64
	Stops     []Stop
	Repeating bool
}

// Side indexes the per-side arrays of Border: top, right, bottom, left.
type Side int

const (
	Top Side = iota
	Right
	Bottom
	Left
)

// Border strokes the four sides of Bounds inwards.
type Border struct {
	Bounds geom.Rect
	Widths [4]float64
	Colors [4]css.Color
	Styles [4]string
	Radii  geom.Radii
}

// Image draws a registered image scaled to Bounds. A missing image carries
// images.NullImage.
type Image struct {
	Bounds geom.Rect
	Key    images.ImageKey
}

// Glyph is a glyph with an absolute pen origin on its baseline.
type Glyph struct {
	ID     text.GlyphID
	Origin geom.Point
}

// TextRun is a span of glyphs sharing one font, size and color. Sideways
// runs are rotated a quarter turn clockwise about each glyph origin; Scale
// compresses combined upright blocks.
type TextRun struct {
	Bounds   geom.Rect
	Glyphs   []Glyph
	Font     text.FontRef
	Size     float64
	Color    css.Color
	Sideways bool
	Scale    float64
	Node     dom.NodeID
}

// PushClip restricts painting to Rect, rounded when Radii is non-zero,
// until the matching PopClip.
type PushClip struct {
	Rect  geom.Rect
	Radii geom.Radii
}

// PopClip ends the innermost clip.
type PopClip struct{}

func (r Rect) Area() geom.Rect           { return r.Bounds }
func (g LinearGradient) Area() geom.Rect { return g.Bounds }
func (g RadialGradient) Area() geom.Rect { return g.Bounds }
func (g ConicGradient) Area() geom.Rect  { return g.Bounds }
func (b Border) Area() geom.Rect         { return b.Bounds }
func (i Image) Area() geom.Rect          { return i.Bounds }
func (t TextRun) Area() geom.Rect        { return t.Bounds }
func (c PushClip) Area() geom.Rect       { return c.Rect }
func (PopClip) Area() geom.Rect          { return geom.Rect{} }

// DisplayList is the ordered paint output of one frame. Items paint back
// to front in slice order.
type DisplayList struct {
	Items    []Item
	Viewport geom.Size
	// Root is the stacking-context tree the items were emitted from.
	Root *StackingContext

	hits []hitRegion
}

// Len returns the number of items.
func (l *DisplayList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Items)
}

// Translate returns a copy of the list with every item moved by d. Nested
// documents are spliced into their host this way.
func (l *DisplayList) Translate(d geom.Point) *DisplayList {
	out := &DisplayList{Viewport: l.Viewport, Root: l.Root, Items: make([]Item, 0, len(l.Items))}
	move := func(r geom.Rect) geom.Rect { return r.Translate(d.X, d.Y) }
	for _, it := range l.Items {
		switch v := it.(type) {
		case Rect:
			v.Bounds = move(v.Bounds)
			it = v
		case LinearGradient:
			v.Bounds, v.Start, v.End = move(v.Bounds), v.Start.Add(d), v.End.Add(d)
			it = v
		case RadialGradient:
			v.Bounds, v.Center = move(v.Bounds), v.Center.Add(d)
			it = v
		case ConicGradient:
			v.Bounds, v.Center = move(v.Bounds), v.Center.Add(d)
			it = v
		case Border:
			v.Bounds = move(v.Bounds)
			it = v
		case Image:
			v.Bounds = move(v.Bounds)
			it = v
		case TextRun:
			v.Bounds = move(v.Bounds)
			glyphs := make([]Glyph, len(v.Glyphs))
			for i, g := range v.Glyphs {
				glyphs[i] = Glyph{ID: g.ID, Origin: g.Origin.Add(d)}
			}
			v.Glyphs = glyphs
			it = v
		case PushClip:
			v.Rect = move(v.Rect)
			it = v
		}
		out.Items = append(out.Items, it)
	}
	for _, h := range l.hits {
		h.rect, h.origin = move(h.rect), h.origin.Add(d)
		clips := make([]clipRect, len(h.clips))
		for i, c := range h.clips {
			clips[i] = clipRect{rect: move(c.rect), radii: c.radii}
		}
		h.clips = clips
		out.hits = append(out.hits, h)
	}
	return out
}
