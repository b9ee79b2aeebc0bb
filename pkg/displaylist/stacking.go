package displaylist

import (
	"slices"

	"azul/pkg/css"
	"azul/pkg/dom"
	"azul/pkg/layout"
)

// StackingContext is one layer of the paint-order tree. Child contexts are
// kept by z-index sign; Negative and Positive are sorted ascending and
// equal z-indices keep document order.
type StackingContext struct {
	Root layout.BoxID
	Z    int

	Negative []*StackingContext
	Zero     []*StackingContext
	Positive []*StackingContext
}

func (sc *StackingContext) add(child *StackingContext) {
	switch {
	case child.Z < 0:
		sc.Negative = append(sc.Negative, child)
	case child.Z > 0:
		sc.Positive = append(sc.Positive, child)
	default:
		sc.Zero = append(sc.Zero, child)
	}
}

// Walk visits the context and its descendants in paint order.
func (sc *StackingContext) Walk(fn func(*StackingContext)) {
	for _, c := range sc.Negative {
		c.Walk(fn)
	}
	fn(sc)
	for _, c := range sc.Zero {
		c.Walk(fn)
	}
	for _, c := range sc.Positive {
		c.Walk(fn)
	}
}

// createsContext reports whether the element generating a box starts a new
// stacking context.
func createsContext(styles *css.PropertyCache, n dom.NodeID) bool {
	if n == dom.NoNode {
		return false
	}
	node := styles.Tree().Node(n)
	if node == nil || node.Type == dom.TextNode {
		return false
	}
	pos := styles.Keyword(n, dom.PseudoNormal, css.PropPosition)
	switch {
	case pos == "absolute" || pos == "fixed":
		return true
	case pos != "static" && pos != "" && styles.Keyword(n, dom.PseudoNormal, css.PropZIndex) != "auto":
		return true
	case styles.Number(n, dom.PseudoNormal, css.PropOpacity, 1) < 1:
		return true
	case styles.Keyword(n, dom.PseudoNormal, css.PropTransform) != "none":
		return true
	case styles.Keyword(n, dom.PseudoNormal, css.PropFilter) != "none":
		return true
	case styles.Keyword(n, dom.PseudoNormal, css.PropIsolation) == "isolate":
		return true
	}
	return false
}

// zIndex returns the integer z-index of a positioned element; auto and
// non-positioned elements stack at zero.
func zIndex(styles *css.PropertyCache, n dom.NodeID) int {
	if pos := styles.Keyword(n, dom.PseudoNormal, css.PropPosition); pos == "static" || pos == "" {
		return 0
	}
	return int(styles.Number(n, dom.PseudoNormal, css.PropZIndex, 0))
}

// buildContexts builds the stacking-context tree of a positioned layout
// tree. ctxOf maps every context root other than the tree root to its
// context.
func buildContexts(p *layout.Positioned, styles *css.PropertyCache) (*StackingContext, map[layout.BoxID]*StackingContext) {
	root := &StackingContext{Root: p.Tree.Root}
	ctxOf := make(map[layout.BoxID]*StackingContext)
	var collect func(id layout.BoxID, parent *StackingContext)
	collect = func(id layout.BoxID, parent *StackingContext) {
		for _, c := range p.Tree.Boxes[id].Children {
			n := p.Tree.Boxes[c].Node
			if !createsContext(styles, n) {
				collect(c, parent)
				continue
			}
			sc := &StackingContext{Root: c, Z: zIndex(styles, n)}
			ctxOf[c] = sc
			parent.add(sc)
			collect(c, sc)
		}
	}
	if p.Tree.Root != layout.NoBox {
		collect(p.Tree.Root, root)
	}
	var sortAll func(sc *StackingContext)
	sortAll = func(sc *StackingContext) {
		byZ := func(a, b *StackingContext) int { return a.Z - b.Z }
		slices.SortStableFunc(sc.Negative, byZ)
		slices.SortStableFunc(sc.Positive, byZ)
		for _, list := range [][]*StackingContext{sc.Negative, sc.Zero, sc.Positive} {
			for _, c := range list {
				sortAll(c)
			}
		}
	}
	sortAll(root)
	return root, ctxOf
}
