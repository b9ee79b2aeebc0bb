package text

import (
	"unicode"
	"unicode/utf8"

	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/segmenter"
	"golang.org/x/text/unicode/bidi"
)

// ItemKind discriminates ShapedItem.
type ItemKind int

const (
	ItemCluster ItemKind = iota
	ItemObject
	ItemTab
	ItemBreak
	ItemCombined // tate-chu-yoko
)

func (k ItemKind) String() string {
	switch k {
	case ItemObject:
		return "object"
	case ItemTab:
		return "tab"
	case ItemBreak:
		return "break"
	case ItemCombined:
		return "combined"
	default:
		return "cluster"
	}
}

const (
	objectReplacement = '\uFFFC'
	softHyphen        = '\u00AD'
)

// ShapedItem is the shaper's output unit. Glyph advances and offsets are in
// pixels relative to the item's pen position on the baseline.
type ShapedItem struct {
	Kind    ItemKind
	Glyphs  []Glyph
	Advance float64
	Ascent  float64
	Descent float64
	LineGap float64
	Style   *Style
	Font    FontRef
	Script  language.Script
	Level   int // bidi embedding level
	Source  int // index into the inline content
	Start   int // byte range inside the source run
	End     int

	WordSeparator bool
	BreakBefore   bool // soft wrap opportunity before this item
	HyphenAfter   bool // hyphenation opportunity after this item
	HyphenAdvance float64
	HyphenGlyph   GlyphID

	// Scale compresses the glyphs of a combined block to fit 1em.
	Scale  float64
	Object InlineContent
}

// RTL reports whether the item runs right to left.
func (it *ShapedItem) RTL() bool { return it.Level%2 == 1 }

// ShapedText is the shaped, logically ordered item stream of a paragraph.
type ShapedText struct {
	Items     []ShapedItem
	BaseLevel int
}

type runeOrigin struct {
	source     int
	start, end int
}

// paragraph is inline content flattened into one rune sequence after
// white-space processing. Non-text items become U+FFFC.
type paragraph struct {
	runes  []rune
	origin []runeOrigin
}

func (p *paragraph) add(r rune, o runeOrigin) {
	p.runes = append(p.runes, r)
	p.origin = append(p.origin, o)
}

func isCollapsible(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f'
}

func buildParagraph(content []InlineContent, ws WhiteSpace) paragraph {
	var p paragraph
	collapse := ws == WhiteSpaceNormal || ws == WhiteSpaceNoWrap || ws == WhiteSpacePreLine
	prevSpace := true
	for si, c := range content {
		run, ok := c.(*StyledRun)
		if !ok {
			p.add(objectReplacement, runeOrigin{source: si})
			prevSpace = false
			continue
		}
		for i, r := range run.Text {
			o := runeOrigin{source: si, start: i, end: i + utf8.RuneLen(r)}
			if r == utf8.RuneError {
				o.end = i + 1
			}
			switch {
			case collapse && r == '\n' && ws == WhiteSpacePreLine:
				if n := len(p.runes); n > 0 && p.runes[n-1] == ' ' {
					p.runes, p.origin = p.runes[:n-1], p.origin[:n-1]
				}
				p.add('\n', o)
				prevSpace = true
			case collapse && isCollapsible(r):
				if prevSpace {
					if n := len(p.origin); n > 0 && p.origin[n-1].source == si && p.runes[n-1] == ' ' {
						p.origin[n-1].end = o.end
					}
					continue
				}
				p.add(' ', o)
				prevSpace = true
			case r == '\r':
			default:
				p.add(r, o)
				prevSpace = false
			}
		}
	}
	if collapse {
		for n := len(p.runes); n > 0 && p.runes[n-1] == ' '; n-- {
			p.runes, p.origin = p.runes[:n-1], p.origin[:n-1]
		}
	}
	return p
}

// bidiLevels resolves embedding levels with the UAX #9 implementation of
// x/text. Failures leave every rune at the base level.
func bidiLevels(runes []rune, base int) []int {
	levels := make([]int, len(runes))
	for i := range levels {
		levels[i] = base
	}
	if len(runes) == 0 {
		return levels
	}
	rtl := false
	for _, r := range runes {
		if c, _ := bidi.LookupRune(r); c.Class() == bidi.R || c.Class() == bidi.AL || c.Class() == bidi.AN {
			rtl = true
			break
		}
	}
	if !rtl && base == 0 {
		return levels
	}
	dir := bidi.LeftToRight
	if base == 1 {
		dir = bidi.RightToLeft
	}
	var p bidi.Paragraph
	if _, err := p.SetString(string(runes), bidi.DefaultDirection(dir)); err != nil {
		return levels
	}
	ordering, err := p.Order()
	if err != nil {
		return levels
	}
	for i := 0; i < ordering.NumRuns(); i++ {
		run := ordering.Run(i)
		start, end := run.Pos()
		level := base
		switch {
		case run.Direction() == bidi.RightToLeft:
			level = 1
		case base == 1:
			level = 2
		}
		for j := start; j <= end && j < len(levels); j++ {
			levels[j] = level
		}
	}
	return levels
}

// scripts assigns each rune its script, resolving Common and Inherited
// runes from their neighbours.
func scripts(runes []rune) []language.Script {
	out := make([]language.Script, len(runes))
	for i, r := range runes {
		out[i] = language.LookupScript(r)
	}
	last := language.Common
	for i, s := range out {
		if s == language.Inherited {
			out[i] = last
		} else if s != language.Common {
			last = s
		}
	}
	last = language.Common
	for i := range out {
		if out[i] != language.Common {
			last = out[i]
			continue
		}
		next := language.Common
		for _, s := range out[i+1:] {
			if s != language.Common && s != language.Inherited {
				next = s
				break
			}
		}
		switch {
		case last != language.Common:
			out[i] = last
		case next != language.Common:
			out[i] = next
		}
	}
	return out
}

// segmentation holds the UAX #29 and UAX #14 boundaries of a paragraph.
type segmentation struct {
	graphemeStart []bool // rune i starts a grapheme cluster
	breakBefore   []bool // soft wrap opportunity before rune i
	hyphenBefore  []bool // hyphenation opportunity before rune i
}

func segment(runes []rune) segmentation {
	s := segmentation{
		graphemeStart: make([]bool, len(runes)+1),
		breakBefore:   make([]bool, len(runes)+1),
		hyphenBefore:  make([]bool, len(runes)+1),
	}
	if len(runes) == 0 {
		return s
	}
	var seg segmenter.Segmenter
	seg.Init(runes)
	graphemes := seg.GraphemeIterator()
	for graphemes.Next() {
		s.graphemeStart[graphemes.Grapheme().Offset] = true
	}
	seg.Init(runes)
	lines := seg.LineIterator()
	for lines.Next() {
		if off := lines.Line().Offset; off > 0 {
			s.breakBefore[off] = true
		}
	}
	s.graphemeStart[0] = true
	return s
}

func (e *Engine) markHyphens(p paragraph, seg *segmentation, content []InlineContent, c Constraints) {
	if c.Hyphenator == nil {
		return
	}
	lang := canonicalLanguage(c.Language, e.Sink)
	isWordRune := func(r rune) bool { return unicode.IsLetter(r) || r == softHyphen }
	for i := 0; i < len(p.runes); {
		if !isWordRune(p.runes[i]) {
			i++
			continue
		}
		j := i
		for j < len(p.runes) && isWordRune(p.runes[j]) {
			j++
		}
		for _, k := range c.Hyphenator.Hyphenate(p.runes[i:j], lang) {
			if k <= 0 || k >= j-i {
				continue
			}
			pos := i + k
			style := content[p.origin[pos-1].source].inlineStyle()
			switch {
			case style != nil && style.Hyphens == HyphensNone:
			case (style == nil || style.Hyphens == HyphensManual) && p.runes[pos-1] != softHyphen:
			default:
				seg.hyphenBefore[pos] = true
			}
		}
		i = j
	}
}

// Shape itemizes and shapes inline content. Shaping failures degrade the
// affected run to zero width; the error goes to the sink.
func (e *Engine) Shape(content []InlineContent, c Constraints) *ShapedText {
	p := buildParagraph(content, c.WhiteSpace)
	base := 0
	if c.Direction == RTL {
		base = 1
	}
	out := &ShapedText{BaseLevel: base}
	if len(p.runes) == 0 {
		return out
	}
	levels := bidiLevels(p.runes, base)
	scr := scripts(p.runes)
	seg := segment(p.runes)
	e.markHyphens(p, &seg, content, c)
	for i := 1; i < len(p.runes); i++ {
		// a soft hyphen only breaks through the hyphenation penalty
		if p.runes[i-1] == softHyphen {
			seg.breakBefore[i] = false
		}
	}
	wrap := c.WhiteSpace != WhiteSpaceNoWrap && c.WhiteSpace != WhiteSpacePre
	vertical := c.WritingMode != HorizontalTB

	fonts := e.selectFonts(p, content, seg)

	for i := 0; i < len(p.runes); {
		o := p.origin[i]
		r := p.runes[i]
		style := content[o.source].inlineStyle()
		switch r {
		case objectReplacement:
			sz, baseline := objectSize(content[o.source])
			out.Items = append(out.Items, ShapedItem{
				Kind: ItemObject, Advance: sz.Width, Ascent: baseline, Descent: sz.Height - baseline,
				Style: style, Font: NoFont, Level: levels[i], Source: o.source,
				BreakBefore: wrap, Object: content[o.source],
			})
			i++
			continue
		case '\t', '\n':
			it := ShapedItem{Kind: ItemBreak, Style: style, Font: fonts[i], Level: levels[i], Source: o.source, Start: o.start, End: o.end}
			it.Ascent, it.Descent, it.LineGap = e.Fonts.fontMetrics(fonts[i], style.size())
			if r == '\t' {
				it.Kind = ItemTab
				_, space, _ := e.Fonts.runeAdvance(fonts[i], ' ', style.size())
				it.Advance = space * style.tabSize()
				it.WordSeparator = true
				it.BreakBefore = wrap && seg.breakBefore[i]
			}
			out.Items = append(out.Items, it)
			i++
			continue
		}
		j := i + 1
		for j < len(p.runes) && p.origin[j].source == o.source && levels[j] == levels[i] && scr[j] == scr[i] &&
			fonts[j] == fonts[i] && p.runes[j] != '\t' && p.runes[j] != '\n' {
			j++
		}
		items := e.shapeRun(p, seg, i, j, fonts[i], levels[i], scr[i], style, content, c, wrap)
		if vertical && style != nil && style.CombineUpright && len(items) > 0 {
			items = []ShapedItem{combine(items, style)}
		}
		out.Items = append(out.Items, items...)
		i = j
	}
	for k := 1; k < len(out.Items); k++ {
		if wrap && out.Items[k-1].Kind == ItemObject {
			out.Items[k].BreakBefore = true
		}
	}
	if len(out.Items) > 0 {
		out.Items[0].BreakBefore = false
	}
	return out
}

// selectFonts picks a font per grapheme: the first candidate of the
// family list with a glyph for the cluster's base codepoint.
func (e *Engine) selectFonts(p paragraph, content []InlineContent, seg segmentation) []FontRef {
	fonts := make([]FontRef, len(p.runes))
	candidates := make(map[*Style][]FontRef)
	missing := false
	prev := NoFont
	for i := 0; i < len(p.runes); {
		j := i + 1
		for j < len(p.runes) && !seg.graphemeStart[j] {
			j++
		}
		style := content[p.origin[i].source].inlineStyle()
		cands, ok := candidates[style]
		if !ok {
			var families []string
			weight, italic := 400, false
			if style != nil {
				families, weight, italic = style.Families, style.Weight, style.Italic
			}
			cands = e.Fonts.Candidates(families, weight, italic)
			candidates[style] = cands
		}
		r := p.runes[i]
		var ref FontRef
		switch {
		case len(cands) == 0:
			ref, missing = NoFont, true
		case unicode.IsSpace(r) || unicode.IsControl(r) || r == objectReplacement || r == softHyphen:
			ref = prev
			if ref == NoFont || !containsRef(cands, ref) {
				ref = cands[0]
			}
		default:
			var found bool
			ref, found = e.Fonts.Select(cands, r)
			if !found {
				e.Sink.Debugf("text", "%v: no font has a glyph for %U, using .notdef", ErrResourceMissing, r)
			}
		}
		for k := i; k < j; k++ {
			fonts[k] = ref
		}
		prev = ref
		i = j
	}
	if missing {
		e.Sink.Warnf("text", "%v: font set is empty, text renders with zero width", ErrResourceMissing)
	}
	return fonts
}

func containsRef(refs []FontRef, r FontRef) bool {
	for _, x := range refs {
		if x == r {
			return true
		}
	}
	return false
}

// shapeRun shapes runes [start, end) that share font, level and script, and
// groups the glyphs into grapheme-aligned clusters.
func (e *Engine) shapeRun(p paragraph, seg segmentation, start, end int, ref FontRef, level int, script language.Script,
	style *Style, content []InlineContent, c Constraints, wrap bool) []ShapedItem {
	size := style.size()
	ascent, descent, gap := e.Fonts.fontMetrics(ref, size)
	glyphs, ok := e.glyphs(p, start, end, ref, level, script, style, c)
	if !ok {
		glyphs = nil
	}

	// cluster starts: grapheme starts that own at least one glyph
	owner := func(r int) int {
		for r > start && !seg.graphemeStart[r] {
			r--
		}
		return r
	}
	byStart := make(map[int][]Glyph)
	for _, g := range glyphs {
		if g.Cluster < start || g.Cluster >= end {
			continue
		}
		o := owner(g.Cluster)
		byStart[o] = append(byStart[o], g)
	}
	var starts []int
	for r := start; r < end; r++ {
		if !seg.graphemeStart[r] && r != start {
			continue
		}
		// graphemes without glyphs (ligature tails) join the previous cluster,
		// except spaces and soft hyphens which stay separate
		if len(starts) > 0 && len(byStart[r]) == 0 && ok && p.runes[r] != ' ' && p.runes[r] != softHyphen && p.runes[starts[len(starts)-1]] != ' ' {
			continue
		}
		starts = append(starts, r)
	}

	items := make([]ShapedItem, 0, len(starts))
	for k, cs := range starts {
		ce := end
		if k+1 < len(starts) {
			ce = starts[k+1]
		}
		it := ShapedItem{
			Kind: ItemCluster, Glyphs: byStart[cs], Ascent: ascent, Descent: descent, LineGap: gap,
			Style: style, Font: ref, Script: script, Level: level,
			Source: p.origin[cs].source, Start: p.origin[cs].start, End: p.origin[ce-1].end,
			BreakBefore: wrap && seg.breakBefore[cs],
			Scale:       1,
		}
		for _, g := range it.Glyphs {
			it.Advance += g.Advance
		}
		sep := true
		for _, r := range p.runes[cs:ce] {
			if r != ' ' && r != '\u00A0' && r != '\u3000' {
				sep = false
			}
		}
		switch {
		case p.runes[cs] == softHyphen:
			it.Glyphs, it.Advance = nil, 0
		case sep:
			it.WordSeparator = true
			if style != nil {
				it.Advance += style.WordSpacing + style.LetterSpacing
			}
		case style != nil:
			it.Advance += style.LetterSpacing
		}
		if seg.hyphenBefore[ce] {
			it.HyphenAfter = true
			it.HyphenGlyph, it.HyphenAdvance = e.hyphenGlyph(ref, size)
		}
		items = append(items, it)
	}
	return items
}

func (e *Engine) hyphenGlyph(ref FontRef, size float64) (GlyphID, float64) {
	for _, r := range []rune{'\u2010', '-'} {
		if g, adv, ok := e.Fonts.runeAdvance(ref, r, size); ok {
			return g, adv
		}
	}
	g, adv, _ := e.Fonts.runeAdvance(ref, '-', size)
	return g, adv
}

// glyphs runs the font's own shaper when it has one and falls back to cmap
// lookup with pair kerning otherwise.
func (e *Engine) glyphs(p paragraph, start, end int, ref FontRef, level int, script language.Script, style *Style, c Constraints) ([]Glyph, bool) {
	face, ok := e.Fonts.Face(ref)
	if !ok {
		return nil, false
	}
	size := style.size()
	kerning := style == nil || !style.NoKerning
	if sh, ok := face.Font.(Shaper); ok {
		glyphs, err := sh.Shape(ShapeRequest{
			Text: p.runes, Start: start, End: end, RTL: level%2 == 1,
			Script: script, Language: canonicalLanguage(c.Language, nil), Size: size, Kerning: kerning,
		})
		if err != nil {
			e.Sink.Warnf("text", "shaping %q failed: %v", string(p.runes[start:end]), err)
			return nil, false
		}
		return glyphs, true
	}
	scale := face.Font.Metrics().Scale(size)
	kerner, _ := face.Font.(Kerner)
	out := make([]Glyph, 0, end-start)
	for i := start; i < end; i++ {
		r := p.runes[i]
		if r == softHyphen {
			continue
		}
		gid, _ := face.Font.GlyphIndex(r)
		g := Glyph{ID: gid, Cluster: i, Advance: float64(face.Font.Advance(gid)) * scale}
		if unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Me, r) || unicode.Is(unicode.Variation_Selector, r) {
			// marks sit on the preceding base
			if n := len(out); n > 0 {
				g.XOffset = -out[n-1].Advance / 2
			}
			g.Advance = 0
		} else if kerner != nil && kerning && len(out) > 0 {
			out[len(out)-1].Advance += float64(kerner.Kern(out[len(out)-1].ID, gid)) * scale
		}
		out = append(out, g)
	}
	return out, true
}

// combine merges a run into one tate-chu-yoko block occupying 1em of the
// vertical line.
func combine(items []ShapedItem, style *Style) ShapedItem {
	first, last := items[0], items[len(items)-1]
	it := ShapedItem{
		Kind: ItemCombined, Style: style, Font: first.Font, Script: first.Script, Level: first.Level,
		Source: first.Source, Start: first.Start, End: last.End, BreakBefore: first.BreakBefore,
		Ascent: first.Ascent, Descent: first.Descent, LineGap: first.LineGap,
	}
	natural := 0.0
	for _, c := range items {
		it.Glyphs = append(it.Glyphs, c.Glyphs...)
		natural += c.Advance
	}
	em := style.size()
	it.Advance = em
	it.Scale = 1
	if natural > em {
		it.Scale = em / natural
	}
	return it
}
