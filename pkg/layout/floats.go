package layout

import (
	"math"

	"azul/pkg/geom"
)

// floatContext is the float bookkeeping of one block formatting context.
// Rects are float margin boxes in the coordinates of the BFC root's
// content box.
type floatContext struct {
	left, right []geom.Rect
	lastTop     float64
}

func (f *floatContext) hasFloats() bool {
	return f != nil && len(f.left)+len(f.right) > 0
}

func overlapsBand(r geom.Rect, y, h float64) bool {
	if h <= 0 {
		return r.Y <= y && y < r.Bottom()
	}
	return r.Y < y+h && r.Bottom() > y
}

// band returns the offset from x and the width left between the floats
// for the block range [y, y+h) of the column [x, x+w).
func (f *floatContext) band(y, h, x, w float64) (offset, width float64) {
	if f == nil {
		return 0, w
	}
	lo, hi := x, x+w
	for _, r := range f.left {
		if overlapsBand(r, y, h) {
			lo = max(lo, r.Right())
		}
	}
	for _, r := range f.right {
		if overlapsBand(r, y, h) {
			hi = min(hi, r.X)
		}
	}
	return lo - x, max(0, hi-lo)
}

func (f *floatContext) overlapsAny(y, h float64) bool {
	for _, rs := range [][]geom.Rect{f.left, f.right} {
		for _, r := range rs {
			if overlapsBand(r, y, h) {
				return true
			}
		}
	}
	return false
}

// nextBottom returns the smallest float bottom below y.
func (f *floatContext) nextBottom(y float64) float64 {
	next := math.Inf(1)
	for _, rs := range [][]geom.Rect{f.left, f.right} {
		for _, r := range rs {
			if r.Bottom() > y {
				next = min(next, r.Bottom())
			}
		}
	}
	return next
}

// place positions a float margin box of the given size at or below y in
// the column [x, x+w) and records it (CSS 2.1 §9.5.1). A float never
// rises above an earlier float and moves down until it fits beside the
// floats already placed.
func (f *floatContext) place(side FloatSide, size geom.Size, y, x, w float64) geom.Point {
	y = max(y, f.lastTop)
	for {
		_, avail := f.band(y, size.Height, x, w)
		if avail >= size.Width || !f.overlapsAny(y, size.Height) {
			break
		}
		next := f.nextBottom(y)
		if math.IsInf(next, 1) {
			break
		}
		y = next
	}
	off, avail := f.band(y, size.Height, x, w)
	px := x + off
	if side == FloatRight {
		px = x + off + avail - size.Width
	}
	r := geom.R(px, y, size.Width, size.Height)
	if side == FloatRight {
		f.right = append(f.right, r)
	} else {
		f.left = append(f.left, r)
	}
	f.lastTop = y
	return r.Origin()
}

// clearance returns the lowest bottom of the floats on the cleared sides.
func (f *floatContext) clearance(side FloatSide) float64 {
	if f == nil {
		return math.Inf(-1)
	}
	out := math.Inf(-1)
	if side&FloatLeft != 0 {
		for _, r := range f.left {
			out = max(out, r.Bottom())
		}
	}
	if side&FloatRight != 0 {
		for _, r := range f.right {
			out = max(out, r.Bottom())
		}
	}
	return out
}

// bottom returns the lowest float bottom, zero without floats.
func (f *floatContext) bottom() float64 {
	return max(0, f.clearance(FloatLeft|FloatRight))
}
