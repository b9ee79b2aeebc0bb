package layout

import (
	"azul/pkg/css"
	"azul/pkg/geom"
	"azul/pkg/text"
)

// placeOutOfFlow lays out absolutely and fixed positioned boxes once the
// flow is positioned. Boxes are visited in tree order so a containing block
// is final before its descendants are placed.
func (s *solver) placeOutOfFlow(p *Positioned) {
	var queue []BoxID
	s.tree.Walk(func(id BoxID) bool {
		b := &s.tree.Boxes[id]
		if b.Context.Kind == ContextOutOfFlow && !b.sticky {
			queue = append(queue, id)
		}
		return true
	})
	for _, id := range queue {
		s.placeAbsolute(p, id)
		if s.err != nil {
			return
		}
	}
}

// placeAbsolute sizes and positions one out-of-flow box against its
// containing block (CSS 2.1 §10.3.7, §10.6.4). A box with both insets and
// an auto size stretches between them; a box with neither sits at its
// static position. When the horizontal position is over-constrained, left
// wins unless the containing block is right-to-left.
func (s *solver) placeAbsolute(p *Positioned, id BoxID) {
	b := &s.tree.Boxes[id]
	n := b.Node
	cbRect, dir := s.containingBlock(p, id)
	rtl := dir == text.RTL
	cb := css.Size{Width: cbRect.Width, Height: cbRect.Height}
	b.Props = s.resolveProps(id, cb)

	left, hasL := s.length(n, css.PropLeft, cb)
	right, hasR := s.length(n, css.PropRight, cb)
	top, hasT := s.length(n, css.PropTop, cb)
	bottom, hasB := s.length(n, css.PropBottom, cb)
	_, hasW := s.length(n, css.PropWidth, cb)
	_, hasH := s.length(n, css.PropHeight, cb)

	m := b.Props.Margin
	sp := autoSpace(cb)
	if !hasW && hasL && hasR && !s.isVertical(id) {
		sp.width = s.clampSize(id, max(0, cb.Width-left-right-m.Horizontal()), cb, true)
	} else {
		sp.avail = max(0, cb.Width-m.Horizontal()-left-right)
	}
	if !hasH && hasT && hasB {
		sp.height = s.clampSize(id, max(0, cb.Height-top-bottom-m.Vertical()), cb, false)
	}
	s.layoutBox(id, sp, nil, geom.Point{})
	// layoutBox resolves props again; auto margins are settled here
	m = b.Props.Margin
	auto := b.Props.MarginAuto

	if hasL && hasR && hasW {
		free := cb.Width - left - right - b.Used.Width - m.Horizontal()
		switch {
		case auto[1] && auto[3]:
			m.Left, m.Right = max(0, free/2), max(0, free/2)
		case auto[3]:
			m.Left = free
		case auto[1]:
			m.Right = free
		}
	}
	if hasT && hasB && hasH {
		free := cb.Height - top - bottom - b.Used.Height - m.Vertical()
		switch {
		case auto[0] && auto[2]:
			m.Top, m.Bottom = max(0, free/2), max(0, free/2)
		case auto[0]:
			m.Top = free
		}
	}
	b.Props.Margin = m

	static := p.Abs[b.Parent].Add(b.static)
	var pos geom.Point
	switch {
	case hasR && (rtl || !hasL):
		pos.X = cbRect.Right() - right - m.Right - b.Used.Width
	case hasL:
		pos.X = cbRect.X + left + m.Left
	default:
		pos.X = static.X + m.Left
	}
	switch {
	case hasT:
		pos.Y = cbRect.Y + top + m.Top
	case hasB:
		pos.Y = cbRect.Bottom() - bottom - m.Bottom - b.Used.Height
	default:
		pos.Y = static.Y + m.Top
	}
	parent := p.Abs[b.Parent]
	b.Offset = geom.Point{X: pos.X - parent.X, Y: pos.Y - parent.Y}
	s.updateAbs(p, id)
}
