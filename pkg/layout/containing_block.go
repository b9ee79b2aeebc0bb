package layout

import (
	"azul/pkg/css"
	"azul/pkg/dom"
	"azul/pkg/geom"
	"azul/pkg/text"
)

// positioned reports whether a box establishes the containing block of its
// absolutely positioned descendants: position other than static.
func (s *solver) positioned(id BoxID) bool {
	n := s.tree.Boxes[id].Node
	if k := s.keyword(n, css.PropPosition); k != "" && k != "static" {
		return true
	}
	return false
}

// containingBlock returns the absolute rect an out-of-flow box is placed
// in (CSS 2.1 §10.1): the viewport for fixed boxes, otherwise the padding
// box of the nearest positioned ancestor, or the initial containing block.
// The direction is that of the ancestor; the viewport takes the direction of
// the box's parent.
func (s *solver) containingBlock(p *Positioned, id BoxID) (geom.Rect, text.Direction) {
	viewport := geom.R(0, 0, s.viewport.Width, s.viewport.Height)
	b := &s.tree.Boxes[id]
	dir := text.LTR
	if b.Parent != NoBox {
		dir = s.tree.Boxes[b.Parent].Props.Direction
	}
	if b.Context.Position == PositionFixed {
		return viewport, dir
	}
	for a := b.Parent; a != NoBox; a = s.tree.Boxes[a].Parent {
		if s.tree.Boxes[a].Node != dom.NoNode && s.positioned(a) {
			return p.PaddingBox(a), s.tree.Boxes[a].Props.Direction
		}
	}
	return viewport, dir
}

// applyRelativeOffsets shifts position:relative boxes after flow layout
// (CSS 2.1 §9.4.3). top wins over bottom; left wins over right unless the
// containing block is right-to-left.
func (s *solver) applyRelativeOffsets() {
	s.tree.Walk(func(id BoxID) bool {
		b := &s.tree.Boxes[id]
		if b.Parent == NoBox || b.Node == dom.NoNode || s.keyword(b.Node, css.PropPosition) != "relative" {
			return true
		}
		parent := &s.tree.Boxes[b.Parent]
		pb := parent.Props.PaddingBorder()
		cb := css.Size{
			Width:  max(0, parent.Used.Width-pb.Horizontal()),
			Height: max(0, parent.Used.Height-pb.Vertical()),
		}
		var d geom.Point
		if v, ok := s.length(b.Node, css.PropTop, cb); ok {
			d.Y = v
		} else if v, ok := s.length(b.Node, css.PropBottom, cb); ok {
			d.Y = -v
		}
		left, hasL := s.length(b.Node, css.PropLeft, cb)
		right, hasR := s.length(b.Node, css.PropRight, cb)
		rtl := parent.Props.Direction == text.RTL
		switch {
		case hasL && (!hasR || !rtl):
			d.X = left
		case hasR:
			d.X = -right
		}
		b.Offset = b.Offset.Add(d)
		b.relShift = d
		return true
	})
}
