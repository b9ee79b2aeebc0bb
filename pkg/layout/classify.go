package layout

import (
	"azul/pkg/css"
	"azul/pkg/dom"
)

// ContextKind tags how a node participates in layout.
type ContextKind uint8

const (
	ContextNone ContextKind = iota
	ContextBlock
	ContextInline
	ContextInlineBlock
	ContextFlex
	ContextFloat
	ContextOutOfFlow
)

func (k ContextKind) String() string {
	switch k {
	case ContextBlock:
		return "block"
	case ContextInline:
		return "inline"
	case ContextInlineBlock:
		return "inline-block"
	case ContextFlex:
		return "flex"
	case ContextFloat:
		return "float"
	case ContextOutOfFlow:
		return "out-of-flow"
	}
	return "none"
}

// FloatSide is the side a float sticks to.
type FloatSide uint8

const (
	FloatNone FloatSide = iota
	FloatLeft
	FloatRight
)

// Positioning is the scheme of an out-of-flow box.
type Positioning uint8

const (
	PositionAbsolute Positioning = iota
	PositionFixed
	PositionSticky
)

// FormattingContext is the classification of one node.
type FormattingContext struct {
	Kind ContextKind
	// NewBFC is set on blocks that establish a new block formatting
	// context: position relative or overflow other than visible.
	NewBFC   bool
	Float    FloatSide
	Position Positioning
}

// Classify computes the formatting context of a styled node from display,
// position, float and overflow.
func Classify(styles *css.PropertyCache, id dom.NodeID) FormattingContext {
	n := styles.Tree().Node(id)
	if n == nil {
		return FormattingContext{}
	}
	if n.Type == dom.TextNode {
		return FormattingContext{Kind: ContextInline}
	}
	display := styles.Keyword(id, dom.PseudoNormal, css.PropDisplay)
	if display == "none" {
		return FormattingContext{}
	}
	switch styles.Keyword(id, dom.PseudoNormal, css.PropPosition) {
	case "absolute":
		return FormattingContext{Kind: ContextOutOfFlow, Position: PositionAbsolute}
	case "fixed":
		return FormattingContext{Kind: ContextOutOfFlow, Position: PositionFixed}
	case "sticky":
		return FormattingContext{Kind: ContextOutOfFlow, Position: PositionSticky}
	}
	switch styles.Keyword(id, dom.PseudoNormal, css.PropFloat) {
	case "left":
		return FormattingContext{Kind: ContextFloat, Float: FloatLeft, NewBFC: true}
	case "right":
		return FormattingContext{Kind: ContextFloat, Float: FloatRight, NewBFC: true}
	}
	switch display {
	case "block", "list-item":
		return FormattingContext{Kind: ContextBlock, NewBFC: establishesBFC(styles, id)}
	case "inline-block", "inline-flex":
		return FormattingContext{Kind: ContextInlineBlock, NewBFC: true}
	case "flex":
		return FormattingContext{Kind: ContextFlex, NewBFC: true}
	}
	return FormattingContext{Kind: ContextInline}
}

func establishesBFC(styles *css.PropertyCache, id dom.NodeID) bool {
	if styles.Keyword(id, dom.PseudoNormal, css.PropPosition) == "relative" {
		return true
	}
	return clipsOverflow(styles, id)
}

func clipsOverflow(styles *css.PropertyCache, id dom.NodeID) bool {
	for _, p := range []css.Property{css.PropOverflowX, css.PropOverflowY} {
		if k := styles.Keyword(id, dom.PseudoNormal, p); k != "" && k != "visible" {
			return true
		}
	}
	return false
}

// ClassifyAll classifies every node of the styled tree. Descendants of a
// display:none node are classified as ContextNone too.
func ClassifyAll(styles *css.PropertyCache) []FormattingContext {
	tree := styles.Tree()
	out := make([]FormattingContext, tree.Len())
	tree.Walk(func(id dom.NodeID) bool {
		out[id] = Classify(styles, id)
		return out[id].Kind != ContextNone
	})
	return out
}
