package layout

import (
	"sort"
	"strings"

	"azul/pkg/css"
	"azul/pkg/dom"
	"azul/pkg/geom"
	"azul/pkg/text"
)

func isRow(direction string) bool {
	return direction == "" || direction == "row" || direction == "row-reverse"
}

// gap returns the gap between items along the main axis of a row (true)
// or column container: column-gap for rows, row-gap for columns.
func (s *solver) gap(n dom.NodeID, row bool, cb css.Size) float64 {
	if row {
		return s.lengthOr(n, css.PropColumnGap, cb, 0)
	}
	return s.lengthOr(n, css.PropRowGap, cb, 0)
}

// flexEntry is the per-item state of one flex layout. Sizes are border-box
// sizes along the main axis unless named outer.
type flexEntry struct {
	id     BoxID
	order  float64
	basis  float64
	hypo   float64
	main   float64
	grow   float64
	shrink float64
	frozen bool

	autoMin float64
	// margins along the main and cross axes, start and end
	mStart, mEnd float64
	cStart, cEnd float64
	autoStart    bool
	autoEnd      bool

	// violation is the sign of the last clamp: +1 raised to the minimum,
	// -1 lowered to the maximum.
	violation int

	pos     float64
	cross   float64
	stretch bool
	align   string
}

func (e *flexEntry) outer() float64      { return e.main + e.mStart + e.mEnd }
func (e *flexEntry) outerCross() float64 { return e.cross + e.cStart + e.cEnd }

type flexLine struct {
	items []*flexEntry
	cross float64
	start float64
}

// layoutFlex lays out a flex container with content size (cw, ch), ch
// negative when indefinite (CSS Flexbox §9). It returns the content height.
func (s *solver) layoutFlex(id BoxID, cw, ch float64) float64 {
	b := &s.tree.Boxes[id]
	n := b.Node
	pb := b.Props.PaddingBorder()
	dir := s.keyword(n, css.PropFlexDirection)
	row := isRow(dir)
	reverse := strings.HasSuffix(dir, "-reverse")
	if row && b.Props.Direction == text.RTL {
		reverse = !reverse
	}
	wrap := s.keyword(n, css.PropFlexWrap)
	cb := css.Size{Width: cw, Height: ch}
	mainGap := s.gap(n, row, cb)
	crossGap := s.gap(n, !row, cb)
	mainSize, crossSize := cw, ch
	if !row {
		mainSize, crossSize = ch, cw
	}
	alignItems := s.keyword(n, css.PropAlignItems)

	var items []*flexEntry
	for _, c := range b.Children {
		if !s.inFlow(c) {
			s.tree.Boxes[c].static = geom.Point{X: pb.Left, Y: pb.Top}
			continue
		}
		items = append(items, s.newFlexEntry(c, row, cb, crossSize, alignItems))
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].order < items[j].order })

	// collect lines
	var lines []*flexLine
	cur := &flexLine{}
	used := 0.0
	for _, it := range items {
		outer := it.hypo + it.mStart + it.mEnd
		if wrap != "nowrap" && mainSize >= 0 && len(cur.items) > 0 && used+mainGap+outer > mainSize {
			lines = append(lines, cur)
			cur, used = &flexLine{}, 0
		}
		if len(cur.items) > 0 {
			used += mainGap
		}
		used += outer
		cur.items = append(cur.items, it)
	}
	if len(cur.items) > 0 || len(lines) == 0 {
		lines = append(lines, cur)
	}

	// main sizes, then cross sizes from laying the items out
	for _, l := range lines {
		if mainSize >= 0 {
			s.resolveFlexible(l.items, mainSize, mainGap, row, cb)
		} else {
			for _, it := range l.items {
				it.main = it.hypo
			}
		}
		for _, it := range l.items {
			s.layoutFlexItem(it, row, cb, -1)
			l.cross = max(l.cross, it.outerCross())
		}
	}
	if len(lines) == 1 && crossSize >= 0 {
		lines[0].cross = crossSize
	}
	for _, l := range lines {
		for _, it := range l.items {
			if it.stretch {
				s.layoutFlexItem(it, row, cb, max(0, l.cross-it.cStart-it.cEnd))
			}
		}
	}

	crossTotal := 0.0
	for i, l := range lines {
		if i > 0 {
			crossTotal += crossGap
		}
		l.start = crossTotal
		crossTotal += l.cross
	}
	if wrap == "wrap-reverse" {
		for _, l := range lines {
			l.start = crossTotal - l.start - l.cross
		}
	}

	justify := s.keyword(n, css.PropJustifyContent)
	mainTotal := 0.0
	for _, l := range lines {
		lineMain := s.placeFlexLine(l, justify, mainSize, mainGap, reverse)
		mainTotal = max(mainTotal, lineMain)
		for _, it := range l.items {
			s.placeFlexCross(it, l, row, pb)
		}
	}

	b.Baseline = 0
	if len(items) > 0 {
		if first := &s.tree.Boxes[items[0].id]; first.Baseline > 0 {
			b.Baseline = first.Offset.Y + first.Baseline
		}
	}
	if row {
		return crossTotal
	}
	if mainSize >= 0 {
		return mainSize
	}
	return mainTotal
}

func (s *solver) newFlexEntry(c BoxID, row bool, cb css.Size, crossSize float64, alignItems string) *flexEntry {
	b := &s.tree.Boxes[c]
	n := b.Node
	b.Props = s.resolveProps(c, cb)
	m, auto := b.Props.Margin, b.Props.MarginAuto
	it := &flexEntry{
		id:     c,
		order:  s.number(n, css.PropOrder, 0),
		grow:   s.number(n, css.PropFlexGrow, 0),
		shrink: s.number(n, css.PropFlexShrink, 1),
	}
	if row {
		it.mStart, it.mEnd, it.cStart, it.cEnd = m.Left, m.Right, m.Top, m.Bottom
		it.autoStart, it.autoEnd = auto[3], auto[1]
	} else {
		it.mStart, it.mEnd, it.cStart, it.cEnd = m.Top, m.Bottom, m.Left, m.Right
		it.autoStart, it.autoEnd = auto[0], auto[2]
	}
	it.align = s.keyword(n, css.PropAlignSelf)
	if it.align == "" || it.align == "auto" {
		it.align = alignItems
	}
	crossProp, mainProp := css.PropHeight, css.PropWidth
	if !row {
		crossProp, mainProp = css.PropWidth, css.PropHeight
	}
	_, fixedCross := s.length(n, crossProp, cb)
	crossAuto := auto[0] || auto[2]
	if !row {
		crossAuto = auto[1] || auto[3]
	}
	it.stretch = (it.align == "stretch" || it.align == "") && !fixedCross && !crossAuto

	// flex base size (CSS Flexbox §9.2.3)
	if v, ok := s.flexBasis(n, row, cb); ok {
		it.basis = toBorderBox(v, b.Props, row)
	} else if v, ok := s.length(n, mainProp, cb); ok {
		it.basis = toBorderBox(v, b.Props, row)
	} else if row {
		it.basis = b.Intrinsic.PrefWidth
	} else {
		sp := autoSpace(css.Size{Width: cb.Width, Height: -1})
		if it.stretch && crossSize >= 0 {
			sp.width = max(0, crossSize-it.cStart-it.cEnd)
		}
		s.layoutBox(c, sp, nil, geom.Point{})
		it.basis = b.Used.Height
	}

	// automatic minimum size
	if row && n != dom.NoNode && !clipsOverflow(s.styles, n) {
		if _, ok := s.length(n, css.PropMinWidth, cb); !ok {
			it.autoMin = b.contentMin
			if v, ok := s.length(n, css.PropWidth, cb); ok {
				it.autoMin = min(it.autoMin, toBorderBox(v, b.Props, true))
			}
		}
	}
	it.hypo = s.clampMain(it, it.basis, row, cb)
	return it
}

// flexBasis resolves a definite flex-basis. Percentages follow the main
// axis.
func (s *solver) flexBasis(n dom.NodeID, row bool, cb css.Size) (float64, bool) {
	if n == dom.NoNode {
		return 0, false
	}
	ctx := s.styles.Context(n, dom.PseudoNormal, cb)
	ctx.Axis = css.AxisVertical
	if row {
		ctx.Axis = css.AxisHorizontal
	}
	v, ok := s.styles.ResolvePx(css.PropFlexBasis, ctx)
	return v, ok && finite(v)
}

func (s *solver) number(n dom.NodeID, p css.Property, def float64) float64 {
	if n == dom.NoNode {
		return def
	}
	return s.styles.Number(n, dom.PseudoNormal, p, def)
}

func (s *solver) clampMain(it *flexEntry, v float64, row bool, cb css.Size) float64 {
	return s.clampSize(it.id, max(v, it.autoMin), cb, row)
}

// resolveFlexible distributes the free space of one line (CSS Flexbox
// §9.7). Items whose clamped size differs from their flexed size freeze
// until no violation remains.
func (s *solver) resolveFlexible(items []*flexEntry, avail, gap float64, row bool, cb css.Size) {
	if len(items) == 0 {
		return
	}
	gaps := gap * float64(len(items)-1)
	used := gaps
	for _, it := range items {
		used += it.hypo + it.mStart + it.mEnd
	}
	grow := used < avail
	for _, it := range items {
		it.main = it.hypo
		it.frozen = false
		switch {
		case grow && (it.grow == 0 || it.basis > it.hypo):
			it.frozen = true
		case !grow && (it.shrink == 0 || it.basis < it.hypo):
			it.frozen = true
		}
	}

	for {
		free := avail - gaps
		var factors float64
		unfrozen := 0
		for _, it := range items {
			if it.frozen {
				free -= it.outer()
				continue
			}
			free -= it.basis + it.mStart + it.mEnd
			unfrozen++
			if grow {
				factors += it.grow
			} else {
				factors += it.shrink * it.basis
			}
		}
		if unfrozen == 0 {
			return
		}
		var total float64
		for _, it := range items {
			if it.frozen {
				continue
			}
			target := it.basis
			if factors > 0 {
				if grow {
					target += free * it.grow / factors
				} else {
					target += free * it.shrink * it.basis / factors
				}
			}
			clamped := s.clampMain(it, target, row, cb)
			total += clamped - target
			it.main = clamped
			it.violation = 0
			switch {
			case clamped > target:
				it.violation = 1
			case clamped < target:
				it.violation = -1
			}
		}
		for _, it := range items {
			if it.frozen {
				continue
			}
			switch {
			case total == 0:
				it.frozen = true
			case total > 0 && it.violation > 0:
				it.frozen = true
			case total < 0 && it.violation < 0:
				it.frozen = true
			}
		}
		if total == 0 {
			return
		}
	}
}

// layoutFlexItem lays an item out at its resolved main size. A
// non-negative cross stretches it.
func (s *solver) layoutFlexItem(it *flexEntry, row bool, cb css.Size, cross float64) {
	b := &s.tree.Boxes[it.id]
	sp := autoSpace(cb)
	if row {
		sp.width = it.main
		if cross >= 0 {
			sp.height = s.clampSize(it.id, cross, cb, false)
		}
	} else {
		sp.height = it.main
		if cross >= 0 {
			sp.width = s.clampSize(it.id, cross, cb, true)
		}
	}
	s.layoutBox(it.id, sp, nil, geom.Point{})
	if row {
		it.cross = b.Used.Height
	} else {
		it.cross = b.Used.Width
	}
}

// placeFlexLine positions the items of a line along the main axis and
// returns the line's used main size.
func (s *solver) placeFlexLine(l *flexLine, justify string, mainSize, gap float64, reverse bool) float64 {
	var sum float64
	for i, it := range l.items {
		if i > 0 {
			sum += gap
		}
		sum += it.outer()
	}
	avail := mainSize
	if avail < 0 {
		avail = sum
	}
	free := avail - sum

	autos := 0
	for _, it := range l.items {
		if it.autoStart {
			autos++
		}
		if it.autoEnd {
			autos++
		}
	}
	start, between := 0.0, 0.0
	perAuto := 0.0
	n := float64(len(l.items))
	switch {
	case autos > 0 && free > 0:
		perAuto = free / float64(autos)
	case justify == "flex-end" || justify == "end":
		start = free
	case justify == "center":
		start = free / 2
	case justify == "space-between":
		if free > 0 && n > 1 {
			between = free / (n - 1)
		}
	case justify == "space-around":
		if free > 0 {
			between = free / n
			start = between / 2
		} else {
			start = free / 2
		}
	case justify == "space-evenly":
		if free > 0 {
			between = free / (n + 1)
			start = between
		} else {
			start = free / 2
		}
	}

	pos := start
	for _, it := range l.items {
		if it.autoStart {
			pos += perAuto
		}
		p := pos + it.mStart
		if reverse {
			p = avail - p - it.main
		}
		it.pos = p
		pos += it.outer() + gap + between
		if it.autoEnd {
			pos += perAuto
		}
	}
	return max(avail, sum)
}

func (s *solver) placeFlexCross(it *flexEntry, l *flexLine, row bool, pb geom.Edges) {
	b := &s.tree.Boxes[it.id]
	off := 0.0
	switch it.align {
	case "flex-end", "end":
		off = l.cross - it.outerCross()
	case "center":
		off = (l.cross - it.outerCross()) / 2
	}
	c := l.start + off + it.cStart
	if row {
		b.Offset = geom.Point{X: pb.Left + it.pos, Y: pb.Top + c}
	} else {
		b.Offset = geom.Point{X: pb.Left + c, Y: pb.Top + it.pos}
	}
}
