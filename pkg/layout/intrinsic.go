package layout

import (
	"azul/pkg/css"
	"azul/pkg/dom"
	"azul/pkg/geom"
	"azul/pkg/text"
)

// iframeSize is the default object size of an iframe.
var iframeSize = geom.Size{Width: 300, Height: 150}

// intrinsic runs pass A: a post-order walk filling Box.Intrinsic with
// border-box min-content and max-content sizes. Text and inline element
// boxes have no sizes of their own; their content is measured by the box
// that establishes their inline formatting context.
func (s *solver) intrinsic(id BoxID) {
	for _, c := range s.tree.Boxes[id].Children {
		s.intrinsic(c)
		if s.err != nil {
			return
		}
	}
	b := &s.tree.Boxes[id]
	if b.kind == kindText || b.kind == kindInline {
		return
	}
	b.Props = s.resolveProps(id, css.Indefinite)

	var in IntrinsicSizes
	switch {
	case b.kind == kindReplaced:
		sz, ok := s.naturalSize(id)
		if !ok {
			s.sink.Warnf("layout", "%v: image %q not in the image cache", text.ErrResourceMissing, s.styles.Tree().Node(b.Node).Image)
		}
		in = IntrinsicSizes{sz.Width, sz.Width, sz.Height, sz.Height}
	case b.kind == kindFlex:
		in = s.flexIntrinsic(id)
	case s.establishesIFC(id):
		in = s.inlineIntrinsic(id)
	default:
		in = s.blockIntrinsic(id)
	}
	if !finite(in.MinWidth, in.PrefWidth, in.MinHeight, in.PrefHeight) {
		s.fail(KindSizingFailed, b.Node, "content size of box %d is not finite: %+v", id, in)
		return
	}

	pb := b.Props.PaddingBorder()
	in.MinWidth += pb.Horizontal()
	in.PrefWidth += pb.Horizontal()
	in.MinHeight += pb.Vertical()
	in.PrefHeight += pb.Vertical()
	b.contentMin = in.MinWidth

	if w, ok := s.length(b.Node, css.PropWidth, css.Indefinite); ok {
		w = toBorderBox(w, b.Props, true)
		if b.kind == kindReplaced {
			if _, hasH := s.length(b.Node, css.PropHeight, css.Indefinite); !hasH {
				h := s.scaledHeight(id, w-pb.Horizontal()) + pb.Vertical()
				in.MinHeight, in.PrefHeight = h, h
			}
		}
		in.MinWidth, in.PrefWidth = w, w
	}
	if h, ok := s.length(b.Node, css.PropHeight, css.Indefinite); ok {
		h = toBorderBox(h, b.Props, false)
		in.MinHeight, in.PrefHeight = h, h
	}
	in.MinWidth = s.clampSize(id, in.MinWidth, css.Indefinite, true)
	in.PrefWidth = s.clampSize(id, in.PrefWidth, css.Indefinite, true)
	in.MinHeight = s.clampSize(id, in.MinHeight, css.Indefinite, false)
	in.PrefHeight = s.clampSize(id, in.PrefHeight, css.Indefinite, false)
	b.Intrinsic = in
}

// naturalSize returns the content size of a replaced element. Missing
// images measure as empty.
func (s *solver) naturalSize(id BoxID) (geom.Size, bool) {
	n := s.styles.Tree().Node(s.tree.Boxes[id].Node)
	if n.Type == dom.IFrameNode {
		return iframeSize, true
	}
	if s.opts.Images != nil {
		if info, ok := s.opts.Images.Lookup(n.Image); ok {
			return info.Size, true
		}
	}
	return geom.Size{}, false
}

// scaledHeight keeps a replaced element's aspect ratio for a content width.
func (s *solver) scaledHeight(id BoxID, width float64) float64 {
	nat, _ := s.naturalSize(id)
	if nat.Width <= 0 {
		return nat.Height
	}
	return width * nat.Height / nat.Width
}

func (s *solver) inFlow(c BoxID) bool {
	b := &s.tree.Boxes[c]
	return b.Context.Kind != ContextOutOfFlow || b.sticky
}

// inlineLevel reports whether a child takes part in its parent's inline
// formatting context.
func (s *solver) inlineLevel(c BoxID) bool {
	b := &s.tree.Boxes[c]
	if b.flexItem {
		return false
	}
	switch b.kind {
	case kindText, kindInline:
		return true
	}
	switch b.Context.Kind {
	case ContextInline, ContextInlineBlock:
		return true
	case ContextOutOfFlow:
		return b.sticky && b.display != "block" && b.display != "flex" && b.display != "list-item"
	}
	return false
}

// isAtom reports whether an inline-level box is laid out as one unit.
func (s *solver) isAtom(c BoxID) bool {
	k := s.tree.Boxes[c].kind
	return s.inlineLevel(c) && k != kindText && k != kindInline
}

// establishesIFC reports whether a block container lays its children out
// in lines.
func (s *solver) establishesIFC(id BoxID) bool {
	b := &s.tree.Boxes[id]
	if b.kind != kindFlow {
		return false
	}
	for _, c := range b.Children {
		if s.inlineLevel(c) {
			return true
		}
	}
	return false
}

// marginBox returns the intrinsic margin-box sizes of a child.
func marginBox(c *Box) IntrinsicSizes {
	m := c.Props.Margin
	return IntrinsicSizes{
		MinWidth:   c.Intrinsic.MinWidth + m.Horizontal(),
		PrefWidth:  c.Intrinsic.PrefWidth + m.Horizontal(),
		MinHeight:  c.Intrinsic.MinHeight + m.Vertical(),
		PrefHeight: c.Intrinsic.PrefHeight + m.Vertical(),
	}
}

// blockIntrinsic stacks children along the block axis: widths are the
// widest child, heights the sum. Vertical writing modes stack across.
func (s *solver) blockIntrinsic(id BoxID) IntrinsicSizes {
	b := &s.tree.Boxes[id]
	vertical := s.writingMode(s.styleNode(id)) != text.HorizontalTB
	var in IntrinsicSizes
	for _, c := range b.Children {
		if !s.inFlow(c) {
			continue
		}
		cb := &s.tree.Boxes[c]
		m := marginBox(cb)
		floating := cb.Context.Kind == ContextFloat
		if vertical {
			in.MinHeight = max(in.MinHeight, m.MinHeight)
			in.PrefHeight = max(in.PrefHeight, m.PrefHeight)
			if !floating {
				in.MinWidth += m.MinWidth
				in.PrefWidth += m.PrefWidth
			}
			continue
		}
		in.MinWidth = max(in.MinWidth, m.MinWidth)
		in.PrefWidth = max(in.PrefWidth, m.PrefWidth)
		if !floating {
			in.MinHeight += m.MinHeight
			in.PrefHeight += m.PrefHeight
		}
	}
	return in
}

// inlineIntrinsic measures the flattened inline content of id twice: with
// atoms at their min-content widths and at their max-content widths.
func (s *solver) inlineIntrinsic(id BoxID) IntrinsicSizes {
	c := s.inlineConstraints(id, -1)
	minContent, _ := s.flatten(id, func(a *Box) (geom.Size, float64) {
		m := marginBox(a)
		return geom.Size{Width: m.MinWidth, Height: m.PrefHeight}, 0
	})
	prefContent, _ := s.flatten(id, func(a *Box) (geom.Size, float64) {
		m := marginBox(a)
		return geom.Size{Width: m.PrefWidth, Height: m.PrefHeight}, 0
	})
	lo := s.opts.Text.Intrinsic(minContent, c)
	hi := s.opts.Text.Intrinsic(prefContent, c)
	if c.WritingMode != text.HorizontalTB {
		return IntrinsicSizes{
			MinWidth:   hi.MaxContentHeight,
			PrefWidth:  hi.MaxContentHeight,
			MinHeight:  lo.MinContent,
			PrefHeight: hi.MaxContent,
		}
	}
	return IntrinsicSizes{
		MinWidth:   lo.MinContent,
		PrefWidth:  hi.MaxContent,
		MinHeight:  hi.MaxContentHeight,
		PrefHeight: hi.MaxContentHeight,
	}
}

// flexIntrinsic sums item sizes along the main axis and takes the largest
// across it. Gaps between items count toward the main axis.
func (s *solver) flexIntrinsic(id BoxID) IntrinsicSizes {
	b := &s.tree.Boxes[id]
	row := isRow(s.keyword(b.Node, css.PropFlexDirection))
	gap := s.gap(b.Node, row, css.Indefinite)
	var in IntrinsicSizes
	items := 0
	for _, c := range b.Children {
		if !s.inFlow(c) {
			continue
		}
		m := marginBox(&s.tree.Boxes[c])
		if row {
			in.MinWidth += m.MinWidth
			in.PrefWidth += m.PrefWidth
			in.MinHeight = max(in.MinHeight, m.MinHeight)
			in.PrefHeight = max(in.PrefHeight, m.PrefHeight)
		} else {
			in.MinWidth = max(in.MinWidth, m.MinWidth)
			in.PrefWidth = max(in.PrefWidth, m.PrefWidth)
			in.MinHeight += m.MinHeight
			in.PrefHeight += m.PrefHeight
		}
		items++
	}
	if items > 1 {
		total := gap * float64(items-1)
		if row {
			in.MinWidth += total
			in.PrefWidth += total
		} else {
			in.MinHeight += total
			in.PrefHeight += total
		}
	}
	return in
}
