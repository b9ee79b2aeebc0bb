package layout

import (
	"azul/pkg/css"
	"azul/pkg/dom"
	"azul/pkg/geom"
	"azul/pkg/text"
)

// atomSizer reports the margin-box size and baseline of an atomic inline
// while inline content is flattened.
type atomSizer func(a *Box) (geom.Size, float64)

// flatten collects the inline content of the IFC established by id in
// reading order. Inline element boxes contribute their descendants; atoms
// become images or opaque objects. The second result maps each content
// index to the box it came from.
func (s *solver) flatten(id BoxID, atom atomSizer) ([]text.InlineContent, []BoxID) {
	var content []text.InlineContent
	var owners []BoxID
	dt := s.styles.Tree()
	var walk func(parent BoxID)
	walk = func(parent BoxID) {
		for _, c := range s.tree.Boxes[parent].Children {
			b := &s.tree.Boxes[c]
			if !s.inFlow(c) {
				continue
			}
			switch {
			case b.kind == kindText:
				n := dt.Node(b.Node)
				if n.Text == "" {
					continue
				}
				content = append(content, &text.StyledRun{Text: n.Text, Style: s.textStyle(b.Node)})
				owners = append(owners, c)
			case b.kind == kindInline:
				walk(c)
			case s.isAtom(c):
				size, baseline := atom(b)
				n := dt.Node(b.Node)
				if n.Type == dom.ImageNode {
					content = append(content, &text.InlineImage{Src: n.Image, Size: size, Style: s.textStyle(b.Node)})
				} else {
					content = append(content, &text.InlineObject{Size: size, Baseline: baseline, Node: b.Node, Style: s.textStyle(b.Node)})
				}
				owners = append(owners, c)
			}
		}
	}
	walk(id)
	return content, owners
}

// sizeAtoms lays out the atomic inlines of an IFC on their own before the
// lines are built. They shrink to fit the container's content width.
func (s *solver) sizeAtoms(parent BoxID, cw float64) {
	for _, c := range s.tree.Boxes[parent].Children {
		b := &s.tree.Boxes[c]
		switch {
		case !s.inFlow(c):
		case b.kind == kindInline:
			s.sizeAtoms(c, cw)
		case s.isAtom(c):
			s.layoutBox(c, autoSpace(css.Size{Width: cw, Height: -1}), nil, geom.Point{})
		}
	}
}

// layoutInline builds the line boxes of the IFC established by id and
// positions every box inside it. cw is the content width; fc, when set,
// is the float context the lines flow around and origin the content-box
// origin in its coordinates.
func (s *solver) layoutInline(id BoxID, cw float64, fc *floatContext, origin geom.Point) *text.UnifiedLayout {
	s.sizeAtoms(id, cw)
	content, owners := s.flatten(id, func(a *Box) (geom.Size, float64) {
		m := a.Props.Margin
		size := geom.Size{Width: a.Used.Width + m.Horizontal(), Height: a.Used.Height + m.Vertical()}
		if a.Baseline > 0 {
			return size, m.Top + a.Baseline
		}
		return size, 0
	})

	c := s.inlineConstraints(id, cw)
	if fc.hasFloats() && c.WritingMode == text.HorizontalTB {
		c.LineWidth = func(top, height float64) (float64, float64) {
			return fc.band(origin.Y+top, height, origin.X, cw)
		}
	}
	l := s.opts.Text.Layout(content, c)
	s.inline[id] = l
	s.owners[id] = owners
	s.placeInlineBoxes(id, l, owners)
	return l
}

// placeInlineBoxes derives box geometry from the line layout. Atoms sit at
// their item; text boxes and inline elements cover the union of their
// items. Items map back to boxes by content index.
func (s *solver) placeInlineBoxes(id BoxID, l *text.UnifiedLayout, owners []BoxID) {
	rects := make(map[BoxID]geom.Rect)
	for _, it := range l.Items {
		src := it.Item.Source
		if src < 0 || src >= len(owners) {
			continue
		}
		r := it.Bounds()
		for o := owners[src]; o != NoBox && o != id; o = s.tree.Boxes[o].Parent {
			rects[o] = rects[o].Union(r)
		}
	}

	pb := s.tree.Boxes[id].Props.PaddingBorder()
	var visit func(parent BoxID)
	visit = func(parent BoxID) {
		var base geom.Point
		if parent == id {
			base = geom.Point{X: -pb.Left, Y: -pb.Top}
		} else {
			base = rects[parent].Origin()
		}
		for _, c := range s.tree.Boxes[parent].Children {
			b := &s.tree.Boxes[c]
			if !s.inFlow(c) {
				if parent == id {
					b.static = geom.Point{X: pb.Left, Y: pb.Top}
				} else {
					b.static = geom.Point{}
				}
				continue
			}
			r, placed := rects[c]
			switch {
			case s.isAtom(c):
				m := b.Props.Margin
				b.Offset = geom.Point{X: r.X + m.Left - base.X, Y: r.Y + m.Top - base.Y}
			case placed:
				b.Used = r.Size()
				b.Offset = geom.Point{X: r.X - base.X, Y: r.Y - base.Y}
			default:
				b.Used = geom.Size{}
				b.Offset = geom.Point{}
			}
			if b.kind == kindInline {
				visit(c)
			}
		}
	}
	visit(id)
}
