package layout

import (
	"math"

	"azul/pkg/css"
	"azul/pkg/geom"
	"azul/pkg/text"
)

// space is the constraint space a box is sized in.
type space struct {
	// cb is the containing block's content size; negative is indefinite.
	cb css.Size
	// fill makes an auto width fill the containing block (block-level boxes
	// in normal flow). Other boxes shrink to fit.
	fill bool
	// width and height force a border-box size; negative leaves it free.
	width, height float64
	// avail overrides the width shrink-to-fit is bounded by; negative
	// derives it from cb.
	avail float64
}

func autoSpace(cb css.Size) space {
	return space{cb: cb, width: -1, height: -1, avail: -1}
}

// layoutBox sizes id in sp and lays out its content. origin is the
// border-box origin in the coordinates of fc, the float context the box
// shares with its parent (nil when it has none). The returned margins
// collapse through the bottom of the box.
func (s *solver) layoutBox(id BoxID, sp space, fc *floatContext, origin geom.Point) marginSet {
	if s.isVertical(id) {
		s.layoutVertical(id, sp)
		return marginSet{}
	}
	s.sizeWidth(id, sp)
	return s.layoutContent(id, sp, fc, origin)
}

// isVertical reports whether a block container flows in a vertical
// writing mode.
func (s *solver) isVertical(id BoxID) bool {
	b := &s.tree.Boxes[id]
	return b.kind == kindFlow && b.Props.WritingMode != text.HorizontalTB
}

// sizeWidth runs pass B along the inline axis: it resolves the box
// properties against the containing block and sets Used.Width.
func (s *solver) sizeWidth(id BoxID, sp space) {
	b := &s.tree.Boxes[id]
	if b.Parent != NoBox {
		b.Props = s.resolveProps(id, sp.cb)
	}
	b.Used.Width = s.usedWidth(id, sp)
	if sp.fill && sp.cb.Width >= 0 && sp.width < 0 {
		s.resolveAutoMargins(id, sp.cb.Width)
	}
}

func (s *solver) usedWidth(id BoxID, sp space) float64 {
	b := &s.tree.Boxes[id]
	if sp.width >= 0 {
		return sp.width
	}
	n := b.Node
	if w, ok := s.length(n, css.PropWidth, sp.cb); ok {
		return s.clampSize(id, toBorderBox(w, b.Props, true), sp.cb, true)
	}
	switch s.keyword(n, css.PropWidth) {
	case "min-content":
		return s.clampSize(id, b.Intrinsic.MinWidth, sp.cb, true)
	case "max-content":
		return s.clampSize(id, b.Intrinsic.PrefWidth, sp.cb, true)
	}
	if b.kind == kindReplaced {
		w := b.Intrinsic.PrefWidth
		if h, ok := s.length(n, css.PropHeight, sp.cb); ok {
			pb := b.Props.PaddingBorder()
			ch := toBorderBox(h, b.Props, false) - pb.Vertical()
			if nat, _ := s.naturalSize(id); nat.Height > 0 {
				w = ch*nat.Width/nat.Height + pb.Horizontal()
			}
		}
		return s.clampSize(id, w, sp.cb, true)
	}
	margins := b.Props.Margin.Horizontal()
	if sp.fill && sp.cb.Width >= 0 {
		return s.clampSize(id, sp.cb.Width-margins, sp.cb, true)
	}
	return s.clampSize(id, s.shrinkToFit(id, sp), sp.cb, true)
}

// shrinkToFit returns min(max-content, max(min-content, available)).
func (s *solver) shrinkToFit(id BoxID, sp space) float64 {
	b := &s.tree.Boxes[id]
	avail := sp.avail
	if avail < 0 {
		avail = math.Inf(1)
		if sp.cb.Width >= 0 {
			avail = sp.cb.Width - b.Props.Margin.Horizontal()
		}
	}
	return min(b.Intrinsic.PrefWidth, max(b.Intrinsic.MinWidth, avail))
}

// resolveAutoMargins distributes the free inline space of a block-level box
// (CSS 2.1 §10.3.3). Over-constrained boxes drop the end margin.
func (s *solver) resolveAutoMargins(id BoxID, cbWidth float64) {
	b := &s.tree.Boxes[id]
	m := &b.Props.Margin
	free := cbWidth - b.Used.Width - m.Horizontal()
	autoLeft, autoRight := b.Props.MarginAuto[3], b.Props.MarginAuto[1]
	switch {
	case autoLeft && autoRight:
		m.Left = max(0, free/2)
		m.Right = max(0, free/2)
	case autoLeft:
		m.Left = free
	case autoRight:
		m.Right = free
	case free != 0 && b.Parent != NoBox && s.tree.Boxes[b.Parent].Props.Direction == text.RTL:
		m.Left += free
	}
}

// definiteHeight returns the border-box height fixed by the constraint
// space or the height property.
func (s *solver) definiteHeight(id BoxID, sp space) (float64, bool) {
	if sp.height >= 0 {
		return sp.height, true
	}
	b := &s.tree.Boxes[id]
	if h, ok := s.length(b.Node, css.PropHeight, sp.cb); ok {
		return s.clampSize(id, toBorderBox(h, b.Props, false), sp.cb, false), true
	}
	return 0, false
}

// ownsBFC reports whether id lays its children out in a fresh block
// formatting context.
func (s *solver) ownsBFC(id BoxID) bool {
	b := &s.tree.Boxes[id]
	if b.Context.NewBFC || b.flexItem {
		return true
	}
	switch b.Context.Kind {
	case ContextFloat, ContextInlineBlock, ContextFlex:
		return true
	case ContextOutOfFlow:
		return !b.sticky
	}
	return false
}

// layoutContent runs pass C inside a box whose width is known, then
// settles its height.
func (s *solver) layoutContent(id BoxID, sp space, fc *floatContext, origin geom.Point) marginSet {
	b := &s.tree.Boxes[id]
	pb := b.Props.PaddingBorder()
	cw := max(0, b.Used.Width-pb.Horizontal())
	h, hasH := s.definiteHeight(id, sp)
	ch := -1.0
	if hasH {
		ch = max(0, h-pb.Vertical())
	}
	contentOrigin := origin.Add(geom.Point{X: pb.Left, Y: pb.Top})

	var contentH float64
	var trailing marginSet
	b.Baseline = 0
	switch {
	case b.kind == kindReplaced:
		contentH = s.scaledHeight(id, cw)
	case b.kind == kindFlex:
		contentH = s.layoutFlex(id, cw, ch)
	case s.establishesIFC(id):
		shared := fc
		if s.ownsBFC(id) {
			shared = nil
		}
		l := s.layoutInline(id, cw, shared, contentOrigin)
		contentH = l.Bounds.Height
		if len(l.Lines) > 0 {
			b.Baseline = pb.Top + l.FirstBaseline()
		}
	default:
		bfc, o := fc, contentOrigin
		own := fc == nil || s.ownsBFC(id)
		if own {
			bfc, o = &floatContext{}, geom.Point{}
		}
		contentH, trailing = s.layoutBlockFlow(id, cw, ch, bfc, o, s.parentCanCollapseBottomMargin(id, hasH))
		if own {
			contentH = max(contentH, bfc.bottom())
		}
		b.Baseline = s.firstChildBaseline(id)
	}

	if hasH {
		b.Used.Height = h
		return marginSet{}
	}
	b.Used.Height = s.clampSize(id, contentH+pb.Vertical(), sp.cb, false)
	return trailing
}

func (s *solver) firstChildBaseline(id BoxID) float64 {
	for _, c := range s.tree.Boxes[id].Children {
		cb := &s.tree.Boxes[c]
		if !s.inFlow(c) || cb.Context.Kind == ContextFloat {
			continue
		}
		if cb.Baseline > 0 {
			return cb.Offset.Y + cb.Baseline
		}
	}
	return 0
}

// layoutBlockFlow stacks the block-level children of id along the block
// axis with margin collapsing (CSS 2.1 §9.4.1, §8.3.1). origin is the
// content-box origin in fc coordinates. It returns the content height and,
// when absorbBottom is set, the margins collapsing through the bottom.
func (s *solver) layoutBlockFlow(id BoxID, cw, ch float64, fc *floatContext, origin geom.Point, absorbBottom bool) (float64, marginSet) {
	b := &s.tree.Boxes[id]
	pb := b.Props.PaddingBorder()
	cb := css.Size{Width: cw, Height: ch}
	absorbTop := s.parentCanCollapseTopMargin(id)

	y := 0.0
	var pending marginSet
	atTop := true
	for _, c := range b.Children {
		cbx := &s.tree.Boxes[c]
		if !s.inFlow(c) {
			cbx.static = geom.Point{X: pb.Left, Y: pb.Top + y + pending.value()}
			continue
		}
		if cbx.Context.Kind == ContextFloat {
			s.layoutFloat(c, cb, fc, origin, y)
			continue
		}

		cbx.Props = s.resolveProps(c, cb)
		top := y
		if !(atTop && absorbTop) {
			pending.merge(s.leadingMargin(c, cw))
			top = y + pending.value()
		}
		if side := s.clearSide(c); side != FloatNone {
			if clear := fc.clearance(side) - origin.Y; clear > top {
				top = clear
				atTop = false
			}
		}

		sp := autoSpace(cb)
		sp.fill = true
		shift := 0.0
		if s.ownsBFC(c) && fc.hasFloats() {
			off, avail := fc.band(origin.Y+top, 0, origin.X, cw)
			if off > 0 || avail < cw {
				sp.cb.Width = avail
				shift = off
			}
		}

		var trail marginSet
		vertical := s.isVertical(c)
		if vertical {
			s.layoutBox(c, sp, nil, geom.Point{})
		} else {
			s.sizeWidth(c, sp)
		}
		x := pb.Left + shift + cbx.Props.Margin.Left
		cbx.Offset = geom.Point{X: x, Y: pb.Top + top}
		if !vertical {
			trail = s.layoutContent(c, sp, fc, origin.Add(geom.Point{X: x - pb.Left, Y: top}))
		}

		if cbx.Used.Height == 0 && s.isCollapseThrough(c) {
			if !(atTop && absorbTop) {
				pending.add(cbx.Props.Margin.Bottom)
			}
			continue
		}
		y = top + cbx.Used.Height
		pending = marginSet{}
		pending.add(cbx.Props.Margin.Bottom)
		pending.merge(trail)
		atTop = false
	}
	if absorbBottom {
		return y, pending
	}
	return y + max(0, pending.value()), marginSet{}
}

// layoutFloat sizes a float, places it in fc at or below the current
// position y and sets its offset.
func (s *solver) layoutFloat(c BoxID, cb css.Size, fc *floatContext, origin geom.Point, y float64) {
	b := &s.tree.Boxes[c]
	parent := &s.tree.Boxes[b.Parent]
	pb := parent.Props.PaddingBorder()
	s.layoutBox(c, autoSpace(cb), nil, geom.Point{})
	if side := s.clearSide(c); side != FloatNone {
		y = max(y, fc.clearance(side)-origin.Y)
	}
	m := b.Props.Margin
	size := geom.Size{Width: b.Used.Width + m.Horizontal(), Height: b.Used.Height + m.Vertical()}
	p := fc.place(b.Context.Float, size, origin.Y+y, origin.X, max(0, cb.Width))
	b.Offset = geom.Point{
		X: p.X - origin.X + pb.Left + m.Left,
		Y: p.Y - origin.Y + pb.Top + m.Top,
	}
}

// layoutVertical lays out a block container whose block axis is
// horizontal. Its inline size is the height: forced, specified, or the
// containing block's (the viewport's when that is indefinite).
func (s *solver) layoutVertical(id BoxID, sp space) {
	b := &s.tree.Boxes[id]
	if b.Parent != NoBox {
		b.Props = s.resolveProps(id, sp.cb)
	}
	pb := b.Props.PaddingBorder()
	m := b.Props.Margin
	h, ok := s.definiteHeight(id, sp)
	if !ok {
		if sp.cb.Height >= 0 {
			h = sp.cb.Height - m.Vertical()
		} else {
			h = s.viewport.Height - m.Vertical()
		}
		h = s.clampSize(id, h, sp.cb, false)
	}
	h = max(h, pb.Vertical())
	ch := h - pb.Vertical()

	var extent float64
	ifc := s.establishesIFC(id)
	if ifc {
		l := s.layoutInline(id, ch, nil, geom.Point{})
		extent = l.Bounds.Width
		if len(l.Lines) > 0 {
			b.Baseline = pb.Top + l.Bounds.Height/2
		}
	} else {
		extent = s.layoutVerticalFlow(id, ch)
	}

	w := extent + pb.Horizontal()
	switch {
	case sp.width >= 0:
		w = sp.width
	default:
		if v, ok := s.length(b.Node, css.PropWidth, sp.cb); ok {
			w = toBorderBox(v, b.Props, true)
		}
		w = s.clampSize(id, w, sp.cb, true)
	}
	b.Used = geom.Size{Width: w, Height: h}

	if !ifc && b.Props.WritingMode == text.VerticalRL {
		cw := max(0, w-pb.Horizontal())
		for _, c := range b.Children {
			cbx := &s.tree.Boxes[c]
			if !s.inFlow(c) {
				continue
			}
			left := cbx.Offset.X - pb.Left - cbx.Props.Margin.Left
			cbx.Offset.X = pb.Left + cw - left - cbx.Props.Margin.Horizontal() - cbx.Used.Width + cbx.Props.Margin.Left
		}
	}
}

// layoutVerticalFlow stacks children left to right along a horizontal
// block axis and returns their total extent. Margins do not collapse.
func (s *solver) layoutVerticalFlow(id BoxID, ch float64) float64 {
	b := &s.tree.Boxes[id]
	pb := b.Props.PaddingBorder()
	cb := css.Size{Width: -1, Height: ch}
	x := 0.0
	for _, c := range b.Children {
		cbx := &s.tree.Boxes[c]
		if !s.inFlow(c) {
			cbx.static = geom.Point{X: pb.Left + x, Y: pb.Top}
			continue
		}
		cbx.Props = s.resolveProps(c, cb)
		sp := autoSpace(cb)
		if s.isVertical(c) {
			if _, ok := s.length(cbx.Node, css.PropHeight, cb); !ok {
				sp.height = max(0, ch-cbx.Props.Margin.Vertical())
			}
		}
		s.layoutBox(c, sp, nil, geom.Point{})
		m := cbx.Props.Margin
		cbx.Offset = geom.Point{X: pb.Left + x + m.Left, Y: pb.Top + m.Top}
		x += m.Horizontal() + cbx.Used.Width
	}
	return x
}
