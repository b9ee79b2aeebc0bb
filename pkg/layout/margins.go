package layout

import (
	"azul/pkg/css"
	"azul/pkg/dom"
)

// collapseMargins returns the collapsed value of two adjoining vertical
// margins. Per CSS 2.1 §8.3.1: both positive gives the max, both negative
// the most negative, mixed signs the sum.
func collapseMargins(a, b float64) float64 {
	var m marginSet
	m.add(a)
	m.add(b)
	return m.value()
}

// marginSet accumulates a run of adjoining margins. The collapsed value is
// the largest positive margin plus the most negative one.
type marginSet struct {
	pos, neg float64
}

func (m *marginSet) add(v float64) {
	if v > 0 {
		m.pos = max(m.pos, v)
	} else {
		m.neg = min(m.neg, v)
	}
}

func (m *marginSet) merge(o marginSet) {
	m.pos = max(m.pos, o.pos)
	m.neg = min(m.neg, o.neg)
}

func (m marginSet) value() float64 { return m.pos + m.neg }

// participatesInCollapse reports whether a box's margins can collapse with
// its children's. BFC roots, flex items and IFC containers keep theirs
// separate.
func (s *solver) participatesInCollapse(id BoxID) bool {
	b := &s.tree.Boxes[id]
	if b.kind != kindFlow || b.flexItem || b.Context.NewBFC {
		return false
	}
	if b.Context.Kind != ContextBlock && !b.sticky {
		return false
	}
	return !s.establishesIFC(id)
}

// parentCanCollapseTopMargin reports whether the first child's top margin
// collapses through the top of id (CSS 2.1 §8.3.1).
func (s *solver) parentCanCollapseTopMargin(id BoxID) bool {
	b := &s.tree.Boxes[id]
	return s.participatesInCollapse(id) && b.Props.Border.Top == 0 && b.Props.Padding.Top == 0
}

// parentCanCollapseBottomMargin reports whether the last child's bottom
// margin collapses through the bottom of id. Boxes with a definite height
// or a min-height keep it inside.
func (s *solver) parentCanCollapseBottomMargin(id BoxID, definiteHeight bool) bool {
	b := &s.tree.Boxes[id]
	if definiteHeight || !s.participatesInCollapse(id) {
		return false
	}
	if b.Props.Border.Bottom != 0 || b.Props.Padding.Bottom != 0 {
		return false
	}
	if b.Node != dom.NoNode {
		if v, ok := s.length(b.Node, css.PropMinHeight, css.Indefinite); ok && v > 0 {
			return false
		}
	}
	return true
}

// isCollapseThrough reports whether the top and bottom margins of a box
// collapse through it: no height, no border or padding on the block axis,
// and no in-flow content.
func (s *solver) isCollapseThrough(id BoxID) bool {
	b := &s.tree.Boxes[id]
	if !s.participatesInCollapse(id) {
		return false
	}
	if b.Props.PaddingBorder().Vertical() != 0 {
		return false
	}
	if b.Node != dom.NoNode {
		if v, ok := s.length(b.Node, css.PropHeight, css.Indefinite); ok && v > 0 {
			return false
		}
		if v, ok := s.length(b.Node, css.PropMinHeight, css.Indefinite); ok && v > 0 {
			return false
		}
	}
	for _, c := range b.Children {
		if !s.inFlow(c) || s.tree.Boxes[c].Context.Kind == ContextFloat {
			continue
		}
		if !s.isCollapseThrough(c) {
			return false
		}
	}
	return true
}

// leadingMargin returns the margins that collapse at the top edge of id:
// its own top margin together with those of its first in-flow children
// when they adjoin. cbWidth resolves percentages of the children.
func (s *solver) leadingMargin(id BoxID, cbWidth float64) marginSet {
	b := &s.tree.Boxes[id]
	var m marginSet
	m.add(b.Props.Margin.Top)
	if !s.parentCanCollapseTopMargin(id) {
		return m
	}
	inner := cbWidth - b.Props.Margin.Horizontal() - b.Props.PaddingBorder().Horizontal()
	if w, ok := s.length(b.Node, css.PropWidth, css.Size{Width: cbWidth, Height: -1}); ok {
		inner = w
	}
	cb := css.Size{Width: max(0, inner), Height: -1}
	for _, c := range b.Children {
		cbx := &s.tree.Boxes[c]
		if !s.inFlow(c) || cbx.Context.Kind == ContextFloat {
			continue
		}
		if s.clearSide(c) != FloatNone {
			break
		}
		cbx.Props = s.resolveProps(c, cb)
		m.merge(s.leadingMargin(c, cb.Width))
		if !s.isCollapseThrough(c) {
			break
		}
		m.add(cbx.Props.Margin.Bottom)
	}
	return m
}

func (s *solver) clearSide(id BoxID) FloatSide {
	switch s.keyword(s.tree.Boxes[id].Node, css.PropClear) {
	case "left":
		return FloatLeft
	case "right":
		return FloatRight
	case "both":
		return FloatLeft | FloatRight
	}
	return FloatNone
}
