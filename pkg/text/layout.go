package text

import (
	"math"

	"azul/pkg/geom"
)

// PositionedItem is a shaped item placed on a line. Position is the pen
// origin of the item: its left edge on the baseline in horizontal text, its
// top edge on the column's center line in vertical text. Item.Advance holds
// the advance after justification and tab expansion.
type PositionedItem struct {
	Item     ShapedItem
	Position geom.Point
	Line     int
	Vertical bool
}

// Bounds returns the item's layout box.
func (p PositionedItem) Bounds() geom.Rect {
	extent := p.Item.Ascent + p.Item.Descent
	if p.Vertical {
		return geom.R(p.Position.X-extent/2, p.Position.Y, extent, p.Item.Advance)
	}
	return geom.R(p.Position.X, p.Position.Y-p.Item.Ascent, p.Item.Advance, extent)
}

// Line is one line box in logical coordinates. Items [Start, ContentEnd)
// are laid out; [ContentEnd, End) are hanging white space.
type Line struct {
	Start      int
	End        int
	ContentEnd int
	Top        float64
	Height     float64
	Baseline   float64
	Width      float64
	Offset     float64
	Hyphenated bool
}

// UnifiedLayout is the positioned result of an inline formatting context.
// Bounds is the paragraph's border-free box; Overflow additionally covers
// items that stick out of it.
type UnifiedLayout struct {
	Items    []PositionedItem
	Lines    []Line
	Bounds   geom.Rect
	Overflow geom.Rect
	Vertical bool
}

// FirstBaseline returns the block offset of the first line's baseline.
func (l *UnifiedLayout) FirstBaseline() float64 {
	if l == nil || len(l.Lines) == 0 {
		return 0
	}
	return l.Lines[0].Baseline
}

// Size returns the physical size of Bounds.
func (l *UnifiedLayout) Size() geom.Size {
	if l == nil {
		return geom.Size{}
	}
	return l.Bounds.Size()
}

func (l *UnifiedLayout) blockExtent() float64 {
	if l.Vertical {
		return l.Bounds.Width
	}
	return l.Bounds.Height
}

// nominalLineHeight estimates a line height before the line's items are
// known. It drives the float-avoidance callback.
func nominalLineHeight(items []ShapedItem, c Constraints) float64 {
	if c.LineHeight > 0 {
		return c.LineHeight
	}
	if len(items) == 0 {
		return 0
	}
	return items[0].Ascent + items[0].Descent + items[0].LineGap
}

func (e *Engine) layoutShaped(shaped *ShapedText, c Constraints) *UnifiedLayout {
	out := &UnifiedLayout{Vertical: c.WritingMode != HorizontalTB}
	items := shaped.Items
	if len(items) == 0 {
		return out
	}
	nodes := buildNodes(items, c.wraps())
	b := newBreaker(nodes)
	nominal := nominalLineHeight(items, c)

	var breaks []int
	switch {
	case c.LineWidth != nil && c.wraps():
		breaks = b.greedy(func(n int) float64 {
			_, w := c.LineWidth(float64(n)*nominal, nominal)
			return w
		})
	case c.unbounded() || !c.wraps():
		breaks = b.forcedOnly()
	case c.Strategy == BreakGreedy:
		breaks = b.greedy(func(int) float64 { return c.AvailableWidth })
	default:
		breaks = b.optimal(c.AvailableWidth)
	}

	start := 0
	for i, k := range breaks {
		n := nodes[k]
		next := len(items)
		if s := b.lineStart(k); s < len(nodes) {
			next = nodes[s].item
		}
		line := Line{Start: start, ContentEnd: n.end, End: max(next, n.end), Hyphenated: n.flagged}
		if i == len(breaks)-1 && line.Start == line.End && len(out.Lines) > 0 {
			break
		}
		out.Lines = append(out.Lines, line)
		start = line.End
	}

	// line metrics and natural widths
	advances := adjustedAdvances(items)
	block := 0.0
	widest := 0.0
	for li := range out.Lines {
		line := &out.Lines[li]
		asc, desc, gap := lineMetrics(items, line.Start, line.End)
		if line.Start == line.End {
			near := items[min(line.Start, len(items)-1)]
			asc, desc, gap = near.Ascent, near.Descent, near.LineGap
		}
		line.Top = block
		if c.LineHeight > 0 {
			line.Height = c.LineHeight
			line.Baseline = block + (c.LineHeight-(asc+desc))/2 + asc
		} else {
			line.Height = asc + desc + gap
			line.Baseline = block + gap/2 + asc
		}
		block += line.Height
		line.Width = expandTabs(items, advances, line.Start, line.ContentEnd)
		if line.Hyphenated && line.ContentEnd > 0 {
			line.Width += items[line.ContentEnd-1].HyphenAdvance
		}
		widest = max(widest, line.Width)
	}

	inlineExtent := c.AvailableWidth
	if c.unbounded() {
		inlineExtent = widest
	}
	for li := range out.Lines {
		line := &out.Lines[li]
		offset, width := 0.0, inlineExtent
		if c.LineWidth != nil {
			offset, width = c.LineWidth(line.Top, line.Height)
			if c.unbounded() {
				inlineExtent = max(inlineExtent, offset+width)
			}
		}
		last := li == len(out.Lines)-1 || (line.ContentEnd > line.Start && items[line.ContentEnd-1].Kind == ItemBreak)
		if justifies(c, last) {
			line.Width += justify(items, advances, line.Start, line.ContentEnd, width-line.Width, c.Justify)
		}
		switch physicalAlign(c.TextAlign, c.Direction) {
		case AlignRight:
			offset += width - line.Width
		case AlignCenter:
			offset += (width - line.Width) / 2
		}
		line.Offset = offset
	}

	vertical := out.Vertical
	for li, line := range out.Lines {
		placed := lineItems(items, advances, line, shaped.BaseLevel)
		pen := line.Offset
		for _, it := range placed {
			p := PositionedItem{Item: it, Line: li, Vertical: vertical}
			if vertical {
				center := line.Top + line.Height/2
				if c.WritingMode == VerticalRL {
					center = block - center
				}
				p.Position = geom.Point{X: center, Y: pen}
			} else {
				p.Position = geom.Point{X: pen, Y: line.Baseline}
			}
			out.Items = append(out.Items, p)
			pen += it.Advance
		}
	}

	if vertical {
		out.Bounds = geom.R(0, 0, block, inlineExtent)
	} else {
		out.Bounds = geom.R(0, 0, inlineExtent, block)
	}
	out.Overflow = out.Bounds
	for _, p := range out.Items {
		out.Overflow = out.Overflow.Union(p.Bounds())
	}
	return out
}

func adjustedAdvances(items []ShapedItem) []float64 {
	out := make([]float64, len(items))
	for i := range items {
		out[i] = items[i].Advance
	}
	return out
}

func lineMetrics(items []ShapedItem, start, end int) (asc, desc, gap float64) {
	for _, it := range items[start:end] {
		asc = max(asc, it.Ascent)
		desc = max(desc, it.Descent)
		gap = max(gap, it.LineGap)
	}
	return asc, desc, gap
}

// expandTabs snaps tabs in [start, end) to the next tab stop relative to the
// line start and returns the line's natural width.
func expandTabs(items []ShapedItem, advances []float64, start, end int) float64 {
	pen := 0.0
	for i := start; i < end; i++ {
		if items[i].Kind == ItemTab && items[i].Advance > 0 {
			interval := items[i].Advance
			w := interval - math.Mod(pen, interval)
			if w < interval*0.01 {
				w += interval
			}
			advances[i] = w
		}
		pen += advances[i]
	}
	return pen
}

func justifies(c Constraints, last bool) bool {
	if c.Justify == JustifyNone || c.unbounded() {
		return false
	}
	return c.TextAlign == AlignJustifyAll || c.TextAlign == AlignJustify && !last
}

// justify spreads surplus over the line and returns the amount applied.
// Inter-word justification grows word separators in proportion to their
// advance; inter-character justification grows every gap between clusters.
func justify(items []ShapedItem, advances []float64, start, end int, surplus float64, mode JustifyMode) float64 {
	if surplus == 0 || end <= start {
		return 0
	}
	if mode != JustifyInterCharacter {
		sep := 0.0
		for i := start; i < end; i++ {
			if items[i].WordSeparator && items[i].Kind == ItemCluster {
				sep += advances[i]
			}
		}
		if sep > 0 {
			for i := start; i < end; i++ {
				if items[i].WordSeparator && items[i].Kind == ItemCluster {
					advances[i] += surplus * advances[i] / sep
				}
			}
			return surplus
		}
		if mode == JustifyInterWord || surplus < 0 {
			return 0
		}
	}
	gaps := end - start - 1
	if gaps <= 0 || surplus < 0 {
		return 0
	}
	for i := start; i < end-1; i++ {
		advances[i] += surplus / float64(gaps)
	}
	return surplus
}

func physicalAlign(a TextAlign, d Direction) TextAlign {
	switch a {
	case AlignLeft, AlignRight, AlignCenter:
		return a
	case AlignEnd:
		if d == RTL {
			return AlignLeft
		}
		return AlignRight
	default:
		if d == RTL {
			return AlignRight
		}
		return AlignLeft
	}
}

// lineItems returns the line's items in visual order with their final
// advances. The hyphen of a hyphenated line follows its word logically.
func lineItems(items []ShapedItem, advances []float64, line Line, baseLevel int) []ShapedItem {
	content := make([]ShapedItem, 0, line.End-line.Start+1)
	for i := line.Start; i < line.ContentEnd; i++ {
		it := items[i]
		it.Advance = advances[i]
		content = append(content, it)
	}
	if line.Hyphenated && line.ContentEnd > line.Start {
		w := items[line.ContentEnd-1]
		content = append(content, ShapedItem{
			Kind: ItemCluster, Glyphs: []Glyph{{ID: w.HyphenGlyph, Advance: w.HyphenAdvance}},
			Advance: w.HyphenAdvance, Ascent: w.Ascent, Descent: w.Descent, LineGap: w.LineGap,
			Style: w.Style, Font: w.Font, Script: w.Script, Level: w.Level,
			Source: w.Source, Start: w.End, End: w.End, Scale: 1,
		})
	}
	reorder(content, baseLevel)
	for i := line.ContentEnd; i < line.End; i++ {
		it := items[i]
		it.Advance = advances[i]
		content = append(content, it)
	}
	return content
}

// reorder applies UAX #9 rule L2: from the highest level down to the lowest
// odd level, reverse every run at that level or higher.
func reorder(items []ShapedItem, baseLevel int) {
	if len(items) == 0 {
		return
	}
	// a trailing forced break stays at the end of the line
	n := len(items)
	if items[n-1].Kind == ItemBreak {
		n--
	}
	highest, lowestOdd := 0, math.MaxInt
	for _, it := range items[:n] {
		highest = max(highest, it.Level)
		if it.Level%2 == 1 {
			lowestOdd = min(lowestOdd, it.Level)
		}
	}
	if baseLevel%2 == 1 {
		lowestOdd = min(lowestOdd, baseLevel)
	}
	for level := highest; level >= lowestOdd && level > 0; level-- {
		for i := 0; i < n; {
			if items[i].Level < level {
				i++
				continue
			}
			j := i
			for j < n && items[j].Level >= level {
				j++
			}
			for l, r := i, j-1; l < r; l, r = l+1, r-1 {
				items[l], items[r] = items[r], items[l]
			}
			i = j
		}
	}
}
