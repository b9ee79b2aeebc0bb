package displaylist

import (
	"azul/pkg/geom"
	"azul/pkg/layout"
	"azul/pkg/text"
)

// paintLines emits the inline formatting context established by id:
// inline element backgrounds first, then text runs and atoms in line
// order.
func (b *builder) paintLines(id layout.BoxID) {
	var inlines func(parent layout.BoxID)
	inlines = func(parent layout.BoxID) {
		for _, c := range b.box(parent).Children {
			if b.box(c).IsInlineElement() {
				b.paintBox(c)
				inlines(c)
			}
		}
	}
	inlines(id)

	l := b.p.Inline[id]
	origin := b.p.ContentBox(id).Origin()
	var run *TextRun
	flush := func() {
		if run != nil && len(run.Glyphs) > 0 {
			b.emit(*run)
		}
		run = nil
	}
	for _, it := range l.Items {
		src := it.Item.Source
		owner := b.p.Owner(id, src)
		if owner == layout.NoBox {
			continue
		}
		switch it.Item.Kind {
		case text.ItemObject:
			flush()
			if _, ok := b.ctxOf[owner]; !ok {
				b.paintAtomic(owner)
			}
			continue
		case text.ItemCluster, text.ItemCombined:
		default:
			continue
		}
		if !b.visible(owner) || it.Item.Style == nil {
			continue
		}
		pos := origin.Add(it.Position).Add(b.p.InlineShift(id, src))
		bounds := it.Bounds().Translate(pos.X-it.Position.X, pos.Y-it.Position.Y)
		b.hitAt(b.node(owner), bounds, geom.Radii{}, b.p.BorderBox(owner).Origin())
		if len(it.Item.Glyphs) == 0 {
			continue
		}

		st := it.Item.Style
		size := st.Size
		if size <= 0 {
			size = 16
		}
		scale := 1.0
		if it.Item.Kind == text.ItemCombined && it.Item.Scale > 0 {
			scale = it.Item.Scale
		}
		sideways := it.Vertical && it.Item.Kind != text.ItemCombined
		if run == nil || run.Font != it.Item.Font || run.Color != st.Color || run.Size != size ||
			run.Sideways != sideways || run.Scale != scale || it.Item.Kind == text.ItemCombined {
			flush()
			run = &TextRun{Bounds: bounds, Font: it.Item.Font, Size: size, Color: st.Color,
				Sideways: sideways, Scale: scale, Node: b.node(owner)}
		} else {
			run.Bounds = run.Bounds.Union(bounds)
		}
		run.Glyphs = appendGlyphs(run.Glyphs, it, pos, scale)
		if it.Item.Kind == text.ItemCombined {
			flush()
		}
	}
	flush()
}

// appendGlyphs places the glyphs of one positioned item. pos is the item's
// absolute pen position.
func appendGlyphs(out []Glyph, it text.PositionedItem, pos geom.Point, scale float64) []Glyph {
	item := it.Item
	switch {
	case item.Kind == text.ItemCombined:
		// upright, centered on the column, baseline one ascent down
		natural := 0.0
		for _, g := range item.Glyphs {
			natural += g.Advance
		}
		pen := pos.X - natural*scale/2
		for _, g := range item.Glyphs {
			out = append(out, Glyph{ID: g.ID, Origin: geom.Point{X: pen + g.XOffset*scale, Y: pos.Y + item.Ascent + g.YOffset*scale}})
			pen += g.Advance * scale
		}
	case it.Vertical:
		// sideways: ascent points to the right of the column
		baseline := pos.X - (item.Ascent+item.Descent)/2 + item.Descent
		pen := pos.Y
		for _, g := range item.Glyphs {
			out = append(out, Glyph{ID: g.ID, Origin: geom.Point{X: baseline - g.YOffset, Y: pen + g.XOffset}})
			pen += g.Advance
		}
	default:
		pen := pos.X
		for _, g := range item.Glyphs {
			out = append(out, Glyph{ID: g.ID, Origin: geom.Point{X: pen + g.XOffset, Y: pos.Y + g.YOffset}})
			pen += g.Advance
		}
	}
	return out
}
