package layout

import (
	"strings"

	"azul/pkg/css"
	"azul/pkg/dom"
	"azul/pkg/geom"
	"azul/pkg/text"
)

// styleNode returns the DOM node whose computed style governs a box: its
// own node, or the nearest ancestor's for anonymous boxes. It returns
// dom.NoNode for the initial containing block.
func (s *solver) styleNode(id BoxID) dom.NodeID {
	for id != NoBox {
		b := &s.tree.Boxes[id]
		if b.Node != dom.NoNode {
			return b.Node
		}
		id = b.Parent
	}
	return dom.NoNode
}

func (s *solver) keyword(n dom.NodeID, p css.Property) string {
	if n == dom.NoNode {
		return ""
	}
	return s.styles.Keyword(n, dom.PseudoNormal, p)
}

// length resolves a length property of n against a containing block.
// ok is false for auto, none and percentages of an indefinite size.
func (s *solver) length(n dom.NodeID, p css.Property, cb css.Size) (float64, bool) {
	if n == dom.NoNode {
		return 0, false
	}
	v, ok := s.styles.ResolvePx(p, s.styles.Context(n, dom.PseudoNormal, cb))
	if !ok || !finite(v) {
		return 0, false
	}
	return v, true
}

func (s *solver) lengthOr(n dom.NodeID, p css.Property, cb css.Size, def float64) float64 {
	if v, ok := s.length(n, p, cb); ok {
		return v
	}
	return def
}

func (s *solver) writingMode(n dom.NodeID) text.WritingMode {
	switch s.keyword(n, css.PropWritingMode) {
	case "vertical-rl":
		return text.VerticalRL
	case "vertical-lr":
		return text.VerticalLR
	}
	return text.HorizontalTB
}

func (s *solver) direction(n dom.NodeID) text.Direction {
	if s.keyword(n, css.PropDirection) == "rtl" {
		return text.RTL
	}
	return text.LTR
}

// resolveProps computes margins, borders and padding of a box against the
// content size of its containing block. Percentages of an indefinite
// containing block resolve to zero.
func (s *solver) resolveProps(id BoxID, cb css.Size) BoxProps {
	b := &s.tree.Boxes[id]
	n := s.styleNode(id)
	props := BoxProps{WritingMode: s.writingMode(n), Direction: s.direction(n)}
	if b.Anonymous || b.kind == kindText {
		return props
	}
	edge := func(top, right, bottom, left css.Property) geom.Edges {
		return geom.Edges{
			Top:    s.lengthOr(n, top, cb, 0),
			Right:  s.lengthOr(n, right, cb, 0),
			Bottom: s.lengthOr(n, bottom, cb, 0),
			Left:   s.lengthOr(n, left, cb, 0),
		}
	}
	props.Margin = edge(css.PropMarginTop, css.PropMarginRight, css.PropMarginBottom, css.PropMarginLeft)
	props.Padding = edge(css.PropPaddingTop, css.PropPaddingRight, css.PropPaddingBottom, css.PropPaddingLeft)
	props.Border = edge(css.PropBorderTopWidth, css.PropBorderRightWidth, css.PropBorderBottomWidth, css.PropBorderLeftWidth)
	for i, p := range []css.Property{css.PropMarginTop, css.PropMarginRight, css.PropMarginBottom, css.PropMarginLeft} {
		props.MarginAuto[i] = s.keyword(n, p) == "auto"
	}
	props.BorderBox = s.keyword(n, css.PropBoxSizing) == "border-box"
	return props
}

// toBorderBox converts a specified width (horizontal) or height to a
// border-box size under the box's box-sizing.
func toBorderBox(v float64, props BoxProps, horizontal bool) float64 {
	pb := props.PaddingBorder()
	extra := pb.Vertical()
	if horizontal {
		extra = pb.Horizontal()
	}
	if props.BorderBox {
		return max(v, extra)
	}
	return v + extra
}

// clampSize applies min then max to a border-box size. The max clamp wins.
func (s *solver) clampSize(id BoxID, v float64, cb css.Size, horizontal bool) float64 {
	n := s.tree.Boxes[id].Node
	if n == dom.NoNode {
		return v
	}
	props := s.tree.Boxes[id].Props
	minP, maxP := css.PropMinHeight, css.PropMaxHeight
	if horizontal {
		minP, maxP = css.PropMinWidth, css.PropMaxWidth
	}
	if m, ok := s.length(n, minP, cb); ok {
		v = max(v, toBorderBox(m, props, horizontal))
	}
	if m, ok := s.length(n, maxP, cb); ok {
		v = min(v, toBorderBox(m, props, horizontal))
	}
	pb := props.PaddingBorder()
	if horizontal {
		return max(v, pb.Horizontal())
	}
	return max(v, pb.Vertical())
}

// families maps the computed font-family list onto the system's default
// fonts for generic names.
func (s *solver) families(n dom.NodeID) []string {
	sys := s.opts.System.Fonts
	v := s.styles.Value(n, dom.PseudoNormal, css.PropFontFamily)
	list := v.List
	if v.Kind != css.KindList || len(list) == 0 {
		list = []string{"sans-serif"}
	}
	var out []string
	for _, f := range list {
		switch strings.ToLower(f) {
		case "sans-serif", "system-ui":
			out = append(out, sys.SansSerif...)
		case "serif":
			out = append(out, sys.Serif...)
		case "monospace":
			out = append(out, sys.Monospace...)
		}
		out = append(out, f)
	}
	return out
}

// textStyle returns the shared text style of a node. Text nodes read the
// values they inherited from their element.
func (s *solver) textStyle(n dom.NodeID) *text.Style {
	if st, ok := s.styleOf[n]; ok {
		return st
	}
	st := &text.Style{Node: n, Size: s.opts.System.DefaultFontSize, Weight: 400}
	if n != dom.NoNode {
		cb := css.Indefinite
		st.Families = s.families(n)
		st.Size = s.styles.FontSize(n, dom.PseudoNormal)
		st.Weight = int(s.styles.Number(n, dom.PseudoNormal, css.PropFontWeight, 400))
		fs := s.keyword(n, css.PropFontStyle)
		st.Italic = fs == "italic" || fs == "oblique"
		st.Color = s.styles.Color(n, dom.PseudoNormal, css.PropColor)
		st.LetterSpacing = s.lengthOr(n, css.PropLetterSpacing, cb, 0)
		st.WordSpacing = s.lengthOr(n, css.PropWordSpacing, cb, 0)
		st.TabSize = s.styles.Number(n, dom.PseudoNormal, css.PropTabSize, 8)
		st.NoKerning = s.keyword(n, css.PropFontKerning) == "none"
		switch s.keyword(n, css.PropHyphens) {
		case "none":
			st.Hyphens = text.HyphensNone
		case "auto":
			st.Hyphens = text.HyphensAuto
		}
		st.CombineUpright = s.keyword(n, css.PropTextCombineUpright) == "all"
	}
	s.styleOf[n] = st
	return st
}

func (s *solver) lineHeight(n dom.NodeID) float64 {
	if n == dom.NoNode {
		return 0
	}
	v := s.styles.Value(n, dom.PseudoNormal, css.PropLineHeight)
	switch v.Kind {
	case css.KindNumber:
		return v.Number * s.styles.FontSize(n, dom.PseudoNormal)
	case css.KindLength:
		return v.Number
	}
	return 0
}

// language returns the nearest lang attribute, or the system language.
func (s *solver) language(n dom.NodeID) string {
	dt := s.styles.Tree()
	for id, ok := n, n != dom.NoNode; ok; id, ok = dt.Parent(id) {
		if node := dt.Node(id); node != nil {
			if lang, has := node.Attribute("lang"); has && lang != "" {
				return lang
			}
		}
	}
	return s.opts.System.Language
}

// inlineConstraints builds the line-layout constraints of the inline
// formatting context established by id.
func (s *solver) inlineConstraints(id BoxID, available float64) text.Constraints {
	n := s.styleNode(id)
	c := text.Constraints{
		AvailableWidth: available,
		LineHeight:     s.lineHeight(n),
		WritingMode:    s.writingMode(n),
		Direction:      s.direction(n),
		Language:       s.language(n),
		Hyphenator:     s.opts.Hyphenator,
	}
	if c.Hyphenator == nil {
		c.Hyphenator = text.SoftHyphenator{}
	}
	switch s.keyword(n, css.PropTextAlign) {
	case "end":
		c.TextAlign = text.AlignEnd
	case "left":
		c.TextAlign = text.AlignLeft
	case "right":
		c.TextAlign = text.AlignRight
	case "center":
		c.TextAlign = text.AlignCenter
	case "justify":
		c.TextAlign = text.AlignJustify
	case "justify-all":
		c.TextAlign = text.AlignJustifyAll
	}
	switch s.keyword(n, css.PropTextJustify) {
	case "none":
		c.Justify = text.JustifyNone
	case "inter-word":
		c.Justify = text.JustifyInterWord
	case "inter-character", "distribute":
		c.Justify = text.JustifyInterCharacter
	}
	switch s.keyword(n, css.PropWhiteSpace) {
	case "nowrap":
		c.WhiteSpace = text.WhiteSpaceNoWrap
	case "pre":
		c.WhiteSpace = text.WhiteSpacePre
	case "pre-wrap":
		c.WhiteSpace = text.WhiteSpacePreWrap
	case "pre-line":
		c.WhiteSpace = text.WhiteSpacePreLine
	}
	return c
}
