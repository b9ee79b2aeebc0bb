// Package geom holds the plain geometry types shared by the text, layout and
// display-list packages.
package geom

import "math"

// Point is a 2D coordinate in pixels.
type Point struct {
	X float64
	Y float64
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Size represents dimensions (width and height).
type Size struct {
	Width  float64
	Height float64
}

// Rect represents a rectangular region.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// R is shorthand for a Rect literal.
func R(x, y, w, h float64) Rect { return Rect{x, y, w, h} }

func (r Rect) Origin() Point   { return Point{r.X, r.Y} }
func (r Rect) Size() Size      { return Size{r.Width, r.Height} }
func (r Rect) Right() float64  { return r.X + r.Width }
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Empty reports whether the rect has no area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Contains reports whether p lies inside r. The right and bottom edges are
// exclusive.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.Right() && p.Y >= r.Y && p.Y < r.Bottom()
}

// Translate moves the rect by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	r.X += dx
	r.Y += dy
	return r
}

// Union returns the smallest rect covering r and o. Empty rects are ignored.
func (r Rect) Union(o Rect) Rect {
	if r.Width <= 0 && r.Height <= 0 {
		return o
	}
	if o.Width <= 0 && o.Height <= 0 {
		return r
	}
	x0, y0 := math.Min(r.X, o.X), math.Min(r.Y, o.Y)
	x1, y1 := math.Max(r.Right(), o.Right()), math.Max(r.Bottom(), o.Bottom())
	return Rect{x0, y0, x1 - x0, y1 - y0}
}

// Intersect returns the overlap of r and o; ok is false when they do not
// overlap.
func (r Rect) Intersect(o Rect) (Rect, bool) {
	x0, y0 := math.Max(r.X, o.X), math.Max(r.Y, o.Y)
	x1, y1 := math.Min(r.Right(), o.Right()), math.Min(r.Bottom(), o.Bottom())
	if x1 <= x0 || y1 <= y0 {
		return Rect{}, false
	}
	return Rect{x0, y0, x1 - x0, y1 - y0}, true
}

// Inset shrinks the rect by e on every side. The result never has a
// negative size.
func (r Rect) Inset(e Edges) Rect {
	r.X += e.Left
	r.Y += e.Top
	r.Width = math.Max(0, r.Width-e.Horizontal())
	r.Height = math.Max(0, r.Height-e.Vertical())
	return r
}

// Outset grows the rect by e on every side.
func (r Rect) Outset(e Edges) Rect {
	return Rect{r.X - e.Left, r.Y - e.Top, r.Width + e.Horizontal(), r.Height + e.Vertical()}
}

// Edges is a top/right/bottom/left quadruple such as a margin or border.
type Edges struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// Horizontal returns Left + Right.
func (e Edges) Horizontal() float64 { return e.Left + e.Right }

// Vertical returns Top + Bottom.
func (e Edges) Vertical() float64 { return e.Top + e.Bottom }

// Add sums two edge sets.
func (e Edges) Add(o Edges) Edges {
	return Edges{e.Top + o.Top, e.Right + o.Right, e.Bottom + o.Bottom, e.Left + o.Left}
}

// Radii are the corner radii of a rounded rect, clockwise from top-left.
type Radii [4]float64

// Zero reports whether all corners are square.
func (r Radii) Zero() bool { return r == Radii{} }

// RoundedContains reports whether p lies inside rect with the given corner
// radii (circular corners).
func RoundedContains(rect Rect, radii Radii, p Point) bool {
	if !rect.Contains(p) {
		return false
	}
	corners := [4]struct{ cx, cy, r float64 }{
		{rect.X + radii[0], rect.Y + radii[0], radii[0]},
		{rect.Right() - radii[1], rect.Y + radii[1], radii[1]},
		{rect.Right() - radii[2], rect.Bottom() - radii[2], radii[2]},
		{rect.X + radii[3], rect.Bottom() - radii[3], radii[3]},
	}
	for i, c := range corners {
		if c.r <= 0 {
			continue
		}
		inX := (i == 0 || i == 3) && p.X < c.cx || (i == 1 || i == 2) && p.X > c.cx
		inY := (i == 0 || i == 1) && p.Y < c.cy || (i == 2 || i == 3) && p.Y > c.cy
		if inX && inY && math.Hypot(p.X-c.cx, p.Y-c.cy) > c.r {
			return false
		}
	}
	return true
}
